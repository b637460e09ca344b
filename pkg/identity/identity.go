package identity

import (
	"context"
	"strings"

	"google.golang.org/api/idtoken"

	"vint/pkg/apperr"
)

// Authenticator verifies an identity-provider token and returns the verified email.
type Authenticator interface {
	Verify(ctx context.Context, token string) (string, error)
}

// validateFunc matches idtoken.Validate so the Google verifier can be tested offline.
type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Google verifies Google Sign-In ID tokens issued for one OAuth client.
type Google struct {
	audience string
	validate validateFunc
}

func NewGoogle(clientID string) *Google {
	return &Google{audience: clientID, validate: idtoken.Validate}
}

func (g *Google) Verify(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", apperr.Validation("missing token")
	}
	payload, err := g.validate(ctx, token, g.audience)
	if err != nil {
		return "", apperr.Auth("invalid token")
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", apperr.Auth("invalid token")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return "", apperr.Auth("email not verified")
	}
	return strings.ToLower(email), nil
}
