// Package googleauth verifies Google ID tokens. Signature validation runs
// against Google's published JWKS, which the underlying validator fetches and
// caches, refreshing when it sees an unknown key id so issuer key rollover
// does not break logins.
package googleauth

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/idtoken"
)

// Identity is the verified subject extracted from an external assertion.
type Identity struct {
	Sub        string
	Email      string
	Name       string
	PictureURL string
}

// Verifier validates an external identity assertion and returns the stable
// subject it asserts. Implementations must reject expired and
// audience-mismatched assertions.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// IDTokenVerifier checks Google ID tokens against the configured OAuth
// client id.
type IDTokenVerifier struct {
	validator *idtoken.Validator
	clientID  string
	timeout   time.Duration
}

func NewIDTokenVerifier(ctx context.Context, clientID string, timeout time.Duration) (*IDTokenVerifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating id token validator: %w", err)
	}
	return &IDTokenVerifier{validator: v, clientID: clientID, timeout: timeout}, nil
}

// Verify validates signature, expiry, and audience, and requires the sub and
// email claims. The call is bounded by the configured timeout; a timeout is
// reported as an ordinary verification failure, never an indefinite hang.
func (v *IDTokenVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	payload, err := v.validator.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("google id token rejected: %w", err)
	}

	id := &Identity{Sub: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		id.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		id.PictureURL = picture
	}
	if id.Sub == "" || id.Email == "" {
		return nil, fmt.Errorf("google id token missing required claims")
	}
	return id, nil
}
