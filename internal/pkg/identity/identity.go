// Package identity defines the auth service contract: session
// establishment/teardown and access to the current principal.
package identity

import "context"

// Principal is the authenticated user as reported by the identity service.
// It is never persisted beyond copying ID/DisplayName into authored records
// at submission time.
type Principal struct {
	ID          string
	DisplayName string
	Email       string
}

// AuthError is a sign-in/sign-up rejection. Known backend codes are mapped
// to human-readable messages; unknown codes pass through raw.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// messages maps the identity backend's error codes to the wording the app
// shows users.
var messages = map[string]string{
	"INVALID_EMAIL":    "Invalid email address",
	"INVALID_PASSWORD": "Incorrect password",
	"EMAIL_NOT_FOUND":  "No account found with this email",
	"WEAK_PASSWORD":    "Password should be at least 6 characters",
	"EMAIL_EXISTS":     "Email is already registered",
}

// NewAuthError builds an AuthError from a backend code, falling back to the
// raw message for codes outside the known set.
func NewAuthError(code, raw string) *AuthError {
	if msg, ok := messages[code]; ok {
		return &AuthError{Code: code, Message: msg}
	}
	if raw == "" {
		raw = "Authentication failed"
	}
	return &AuthError{Code: code, Message: raw}
}

// Client is the identity service contract.
type Client interface {
	// CurrentPrincipal returns the signed-in user, or nil if there is no
	// session.
	CurrentPrincipal() *Principal

	// SignIn establishes a session with email/password credentials.
	SignIn(ctx context.Context, email, password string) (*Principal, error)

	// SignUp creates an account with the given display name and establishes
	// a session.
	SignUp(ctx context.Context, email, password, displayName string) (*Principal, error)

	// SignOut drops the current session. Safe to call with no session.
	SignOut()
}
