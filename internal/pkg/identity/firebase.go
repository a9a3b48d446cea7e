package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/communitysafe/crimewatch/internal/pkg/logger"
)

// FirebaseClient implements Client against Firebase Authentication. Account
// creation goes through the Admin SDK; email/password sign-in goes through
// the Identity Toolkit API, which is what the mobile SDKs call under the
// hood.
type FirebaseClient struct {
	admin   *auth.Client
	toolkit *identitytoolkit.RelyingpartyService
	log     *logger.Logger

	mu      sync.RWMutex
	current *Principal
}

// NewFirebaseClient initializes the Admin SDK with service account
// credentials and the Identity Toolkit service with the web API key.
func NewFirebaseClient(ctx context.Context, projectID, credentialsFile, apiKey string, log *logger.Logger) (*FirebaseClient, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	admin, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error initializing identity toolkit service: %w", err)
	}

	return &FirebaseClient{
		admin:   admin,
		toolkit: svc.Relyingparty,
		log:     log,
	}, nil
}

func (c *FirebaseClient) CurrentPrincipal() *Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	copied := *c.current
	return &copied
}

func (c *FirebaseClient) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}

	resp, err := c.toolkit.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		return nil, mapToolkitError(err)
	}

	principal := &Principal{
		ID:          resp.LocalId,
		DisplayName: resp.DisplayName,
		Email:       resp.Email,
	}
	fillFromIDToken(principal, resp.IdToken)

	c.mu.Lock()
	c.current = principal
	c.mu.Unlock()

	copied := *principal
	return &copied, nil
}

func (c *FirebaseClient) SignUp(ctx context.Context, email, password, displayName string) (*Principal, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := c.admin.CreateUser(ctx, params)
	if err != nil {
		return nil, mapAdminError(err)
	}

	// The Admin SDK can only mint the verification link; delivery would
	// need a mail sender. Surface it in the logs so operators can relay it.
	if link, linkErr := c.admin.EmailVerificationLink(ctx, email); linkErr == nil {
		c.log.Debug("verification link for %s: %s", email, link)
	} else {
		c.log.Warn("could not create verification link for %s: %v", email, linkErr)
	}

	principal := &Principal{
		ID:          user.UID,
		DisplayName: displayName,
		Email:       email,
	}

	c.mu.Lock()
	c.current = principal
	c.mu.Unlock()

	copied := *principal
	return &copied, nil
}

func (c *FirebaseClient) SignOut() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// fillFromIDToken recovers display name and email from the returned ID
// token when the toolkit response omits them. The token just came from the
// identity service over TLS, so it is decoded without signature
// verification, the same way mobile SDKs read their own tokens.
func fillFromIDToken(p *Principal, idToken string) {
	if idToken == "" || (p.DisplayName != "" && p.Email != "") {
		return
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return
	}

	if p.DisplayName == "" {
		if name, ok := claims["name"].(string); ok {
			p.DisplayName = name
		}
	}
	if p.Email == "" {
		if email, ok := claims["email"].(string); ok {
			p.Email = email
		}
	}
}

// mapToolkitError converts Identity Toolkit rejections into AuthErrors.
// The toolkit reports its code in the error message body, sometimes with a
// trailing explanation ("WEAK_PASSWORD : Password should be at least 6
// characters").
func mapToolkitError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	code := gerr.Message
	if i := strings.IndexAny(code, " :"); i > 0 {
		code = code[:i]
	}
	return NewAuthError(code, gerr.Message)
}

// mapAdminError converts Admin SDK account-creation failures.
func mapAdminError(err error) error {
	switch {
	case auth.IsEmailAlreadyExists(err):
		return NewAuthError("EMAIL_EXISTS", err.Error())
	default:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "email"):
			return NewAuthError("INVALID_EMAIL", msg)
		case strings.Contains(msg, "password"):
			return NewAuthError("WEAK_PASSWORD", msg)
		}
		return err
	}
}
