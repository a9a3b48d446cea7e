package auth

import "github.com/communitysafe/crimewatch/internal/pkg/identity"

const UsersCollection = "users"

// State is the observable authentication state.
type State struct {
	Loading   bool
	Principal *identity.Principal
	Err       error
}

type LoginRequest struct {
	Email    string
	Password string
}

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}
