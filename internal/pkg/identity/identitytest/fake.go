// Package identitytest provides a fake identity client for view-model
// tests.
package identitytest

import (
	"context"
	"sync"

	"github.com/communitysafe/crimewatch/internal/pkg/identity"
)

// Client holds a settable current principal and canned sign-in results.
type Client struct {
	mu      sync.Mutex
	current *identity.Principal

	// SignInErr, when set, makes SignIn fail with that error.
	SignInErr error
	// SignUpErr, when set, makes SignUp fail with that error.
	SignUpErr error
}

func New() *Client {
	return &Client{}
}

// SetCurrent sets the signed-in principal directly.
func (c *Client) SetCurrent(p *identity.Principal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = p
}

func (c *Client) CurrentPrincipal() *identity.Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	copied := *c.current
	return &copied
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Principal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SignInErr != nil {
		return nil, c.SignInErr
	}
	c.current = &identity.Principal{ID: "uid-" + email, DisplayName: email, Email: email}
	copied := *c.current
	return &copied, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*identity.Principal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SignUpErr != nil {
		return nil, c.SignUpErr
	}
	c.current = &identity.Principal{ID: "uid-" + email, DisplayName: displayName, Email: email}
	copied := *c.current
	return &copied, nil
}

func (c *Client) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}
