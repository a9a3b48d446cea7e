package crimereports_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/communitysafe/crimewatch/internal/features/crimereports"
	"github.com/communitysafe/crimewatch/internal/pkg/feed"
	"github.com/communitysafe/crimewatch/internal/pkg/identity"
	"github.com/communitysafe/crimewatch/internal/pkg/identity/identitytest"
	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store/storetest"
	"github.com/communitysafe/crimewatch/internal/pkg/upload/uploadtest"
	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

func newViewModel(fake *storetest.Store) (*crimereports.ViewModel, *identitytest.Client) {
	id := identitytest.New()
	return crimereports.New(fake, uploadtest.New(), id, logger.New(logger.ERROR), 0), id
}

func next[T any](t *testing.T, ch <-chan feed.State[T]) feed.State[T] {
	t.Helper()
	select {
	case state, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state")
		return feed.State[T]{}
	}
}

func TestSubmitStampsPrincipalAndDefaults(t *testing.T) {
	fake := storetest.New()
	vm, id := newViewModel(fake)
	id.SetCurrent(&identity.Principal{ID: "u1", DisplayName: "Alice"})

	reportID, err := vm.Submit(context.Background(), crimereports.SubmitRequest{
		Headline:    "Robbery at Mall",
		Description: "Armed robbery at the north entrance",
		Location:    "Downtown",
		CrimeType:   "Robbery",
	}, nil)
	require.NoError(t, err)

	doc, err := fake.Get(context.Background(), crimereports.Collection, reportID)
	require.NoError(t, err)
	require.Equal(t, "u1", doc.Data["reportedBy"])
	require.Equal(t, "Alice", doc.Data["reporterName"])
	require.Equal(t, crimereports.StatusPending, doc.Data["status"])
	require.Equal(t, []string{}, doc.Data["imageUrls"])
}

func TestSubmitRequiresSignIn(t *testing.T) {
	fake := storetest.New()
	vm, _ := newViewModel(fake)

	_, err := vm.Submit(context.Background(), crimereports.SubmitRequest{
		Headline:    "x",
		Description: "y",
		Location:    "z",
		CrimeType:   "Theft",
	}, nil)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Equal(t, 0, fake.InsertCalls())
}

func TestSubmitValidationBlocksBeforeBackend(t *testing.T) {
	fake := storetest.New()
	vm, id := newViewModel(fake)
	id.SetCurrent(&identity.Principal{ID: "u1", DisplayName: "Alice"})

	_, err := vm.Submit(context.Background(), crimereports.SubmitRequest{
		Headline: "   ",
	}, nil)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Equal(t, 0, fake.InsertCalls())
}

func TestAddUpdateAppearsInChildrenOnly(t *testing.T) {
	fake := storetest.New()
	fake.Seed(crimereports.Collection, "r1", map[string]interface{}{
		"headline":  "Robbery at Mall",
		"status":    crimereports.StatusPending,
		"timestamp": time.Now().UTC(),
	})

	vm, id := newViewModel(fake)
	id.SetCurrent(&identity.Principal{ID: "u2", DisplayName: "Bob"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reportStates, updateStates, err := vm.LoadDetail(ctx, "r1")
	require.NoError(t, err)

	// Drain the initial emissions from both streams.
	select {
	case state := <-reportStates:
		require.NotNil(t, state.Item)
		require.Equal(t, "Robbery at Mall", state.Item.Headline)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for report state")
	}
	first := next(t, updateStates)
	require.True(t, first.Loading)
	empty := next(t, updateStates)
	require.Empty(t, empty.Items)

	require.NoError(t, vm.AddUpdate(context.Background(), "r1", "update text"))

	got := next(t, updateStates)
	require.Len(t, got.Items, 1)
	require.Equal(t, "u2", got.Items[0].UserID)
	require.Equal(t, "r1", got.Items[0].CrimeReportID)

	// The parent record subscription must be unaffected.
	select {
	case state := <-reportStates:
		t.Fatalf("unexpected report emission: %+v", state)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUpdateStatusFollowsCycle(t *testing.T) {
	fake := storetest.New()
	fake.Seed(crimereports.Collection, "r1", map[string]interface{}{
		"headline": "x",
		"status":   crimereports.StatusPending,
	})
	vm, _ := newViewModel(fake)

	for _, want := range []string{
		crimereports.StatusInvestigating,
		crimereports.StatusResolved,
		crimereports.StatusClosed,
		crimereports.StatusPending,
	} {
		require.NoError(t, vm.UpdateStatus(context.Background(), "r1", want))
		doc, err := fake.Get(context.Background(), crimereports.Collection, "r1")
		require.NoError(t, err)
		require.Equal(t, want, doc.Data["status"])
	}
}

func TestUpdateStatusRejectsSkippedStates(t *testing.T) {
	fake := storetest.New()
	fake.Seed(crimereports.Collection, "r1", map[string]interface{}{
		"headline": "x",
		"status":   crimereports.StatusPending,
	})
	vm, _ := newViewModel(fake)

	err := vm.UpdateStatus(context.Background(), "r1", crimereports.StatusClosed)
	require.ErrorIs(t, err, apperrors.ErrTransition)

	doc, getErr := fake.Get(context.Background(), crimereports.Collection, "r1")
	require.NoError(t, getErr)
	require.Equal(t, crimereports.StatusPending, doc.Data["status"])
}

func TestUpdateStatusMissingReport(t *testing.T) {
	fake := storetest.New()
	vm, _ := newViewModel(fake)

	err := vm.UpdateStatus(context.Background(), "nope", crimereports.StatusInvestigating)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNextStatus(t *testing.T) {
	require.Equal(t, crimereports.StatusInvestigating, crimereports.NextStatus(crimereports.StatusPending))
	require.Equal(t, crimereports.StatusPending, crimereports.NextStatus(crimereports.StatusClosed))
}
