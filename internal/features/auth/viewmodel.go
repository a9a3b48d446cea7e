package auth

import (
	"context"
	"sync"
	"time"

	"github.com/communitysafe/crimewatch/internal/pkg/identity"
	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store"
)

// ViewModel drives the login/registration screens. It keeps the last auth
// state for synchronous reads; mutation calls return the error they
// surfaced so the UI can show it inline.
type ViewModel struct {
	identity identity.Client
	store    store.Store
	log      *logger.Logger
	timeout  time.Duration

	mu    sync.Mutex
	state State
}

func New(id identity.Client, s store.Store, log *logger.Logger, timeout time.Duration) *ViewModel {
	return &ViewModel{
		identity: id,
		store:    s,
		log:      log,
		timeout:  timeout,
		state:    State{Principal: id.CurrentPrincipal()},
	}
}

// State returns the current auth state.
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// IsLoggedIn reports whether a session exists.
func (vm *ViewModel) IsLoggedIn() bool {
	return vm.identity.CurrentPrincipal() != nil
}

// Login signs in with email/password. Validation failures never reach the
// backend.
func (vm *ViewModel) Login(ctx context.Context, req LoginRequest) error {
	if err := ValidateLoginRequest(&req); err != nil {
		vm.setState(State{Err: err})
		return err
	}

	vm.setState(State{Loading: true})

	ctx, cancel := vm.callContext(ctx)
	defer cancel()

	principal, err := vm.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		vm.setState(State{Err: err})
		return err
	}

	vm.setState(State{Principal: principal})
	vm.log.Info("user %s signed in", principal.ID)
	return nil
}

// Register creates the account, writes the user profile record and leaves
// the new principal signed in.
func (vm *ViewModel) Register(ctx context.Context, req RegisterRequest) error {
	if err := ValidateRegisterRequest(&req); err != nil {
		vm.setState(State{Err: err})
		return err
	}

	vm.setState(State{Loading: true})

	ctx, cancel := vm.callContext(ctx)
	defer cancel()

	principal, err := vm.identity.SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		vm.setState(State{Err: err})
		return err
	}

	// Profile record alongside the identity account, keyed by the uid so
	// other users can be looked up by id. A failure here leaves the
	// account usable, so it only logs.
	err = vm.store.Set(ctx, UsersCollection, principal.ID, map[string]interface{}{
		"uid":       principal.ID,
		"email":     req.Email,
		"name":      req.Name,
		"createdAt": store.ServerTimestamp,
	})
	if err != nil {
		vm.log.Warn("failed to write profile for %s: %v", principal.ID, err)
	}

	vm.setState(State{Principal: principal})
	vm.log.Info("user %s registered", principal.ID)
	return nil
}

// SignOut drops the session and resets the state.
func (vm *ViewModel) SignOut() {
	vm.identity.SignOut()
	vm.setState(State{})
}

func (vm *ViewModel) setState(s State) {
	vm.mu.Lock()
	vm.state = s
	vm.mu.Unlock()
}

func (vm *ViewModel) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if vm.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, vm.timeout)
}
