package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/communitysafe/crimewatch/internal/features/auth"
	"github.com/communitysafe/crimewatch/internal/pkg/identity"
	"github.com/communitysafe/crimewatch/internal/pkg/identity/identitytest"
	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store"
	"github.com/communitysafe/crimewatch/internal/pkg/store/storetest"
	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

func newViewModel(fake *storetest.Store, id *identitytest.Client) *auth.ViewModel {
	return auth.New(id, fake, logger.New(logger.ERROR), 0)
}

func TestLoginSuccess(t *testing.T) {
	fake := storetest.New()
	id := identitytest.New()
	vm := newViewModel(fake, id)

	err := vm.Login(context.Background(), auth.LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	state := vm.State()
	require.False(t, state.Loading)
	require.NotNil(t, state.Principal)
	require.Equal(t, "alice@example.com", state.Principal.Email)
	require.True(t, vm.IsLoggedIn())
}

func TestLoginMapsBackendError(t *testing.T) {
	fake := storetest.New()
	id := identitytest.New()
	id.SignInErr = identity.NewAuthError("EMAIL_NOT_FOUND", "EMAIL_NOT_FOUND")
	vm := newViewModel(fake, id)

	err := vm.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "hunter22",
	})
	require.Error(t, err)
	require.Equal(t, "No account found with this email", err.Error())

	state := vm.State()
	require.Nil(t, state.Principal)
	require.Error(t, state.Err)
}

func TestLoginValidationNeverReachesBackend(t *testing.T) {
	fake := storetest.New()
	id := identitytest.New()
	id.SignInErr = identity.NewAuthError("EMAIL_NOT_FOUND", "should not be seen")
	vm := newViewModel(fake, id)

	err := vm.Login(context.Background(), auth.LoginRequest{Email: "not-an-email", Password: "x"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.False(t, vm.IsLoggedIn())
}

func TestRegisterWritesProfileRecord(t *testing.T) {
	fake := storetest.New()
	id := identitytest.New()
	vm := newViewModel(fake, id)

	err := vm.Register(context.Background(), auth.RegisterRequest{
		Email:    "bob@example.com",
		Password: "hunter22",
		Name:     "Bob",
	})
	require.NoError(t, err)
	require.True(t, vm.IsLoggedIn())

	principal := vm.State().Principal
	require.NotNil(t, principal)

	// The profile is keyed by the uid, not a store-assigned id.
	doc, err := fake.Get(context.Background(), auth.UsersCollection, principal.ID)
	require.NoError(t, err)
	require.Equal(t, principal.ID, doc.Data["uid"])
	require.Equal(t, "bob@example.com", doc.Data["email"])
	require.Equal(t, "Bob", doc.Data["name"])
	require.NotNil(t, doc.Data["createdAt"])
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	fake := storetest.New()
	vm := newViewModel(fake, identitytest.New())

	err := vm.Register(context.Background(), auth.RegisterRequest{
		Email:    "bob@example.com",
		Password: "12345",
		Name:     "Bob",
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	docs, err := fake.Query(context.Background(), store.Query{Collection: auth.UsersCollection})
	require.NoError(t, err)
	require.Empty(t, docs, "no profile may be written for a rejected registration")
}

func TestSignOutClearsState(t *testing.T) {
	fake := storetest.New()
	id := identitytest.New()
	vm := newViewModel(fake, id)

	require.NoError(t, vm.Login(context.Background(), auth.LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter22",
	}))

	vm.SignOut()
	require.False(t, vm.IsLoggedIn())
	require.Nil(t, vm.State().Principal)
}
