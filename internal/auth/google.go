package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// ErrInvalidFederatedToken means a Google ID token failed verification or
// lacked one of the required claims.
var ErrInvalidFederatedToken = errors.New("invalid federated identity token")

// FederatedClaims are the verified claims extracted from a Google ID token.
type FederatedClaims struct {
	Subject     string
	Email       string
	DisplayName string
}

// IDTokenValidator checks the signature, expiry and audience of an ID token.
// *idtoken.Validator satisfies it.
type IDTokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier verifies Google ID tokens issued for a single OAuth client.
type GoogleVerifier struct {
	clientID  string
	validator IDTokenValidator
}

// NewGoogleVerifier builds a verifier backed by Google's published signing keys.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return nil, fmt.Errorf("init google id token validator: %w", err)
	}
	return NewGoogleVerifierWithValidator(clientID, validator), nil
}

func NewGoogleVerifierWithValidator(clientID string, validator IDTokenValidator) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:  strings.TrimSpace(clientID),
		validator: validator,
	}
}

// Verify validates rawToken against the configured client id and returns
// its subject, email and display name.
func (g *GoogleVerifier) Verify(ctx context.Context, rawToken string) (FederatedClaims, error) {
	// idtoken skips the audience check for an empty audience.
	if g.clientID == "" {
		return FederatedClaims{}, fmt.Errorf("%w: no client id configured", ErrInvalidFederatedToken)
	}
	if strings.TrimSpace(rawToken) == "" {
		return FederatedClaims{}, fmt.Errorf("%w: empty token", ErrInvalidFederatedToken)
	}

	payload, err := g.validator.Validate(ctx, rawToken, g.clientID)
	if err != nil {
		return FederatedClaims{}, fmt.Errorf("%w: %v", ErrInvalidFederatedToken, err)
	}

	claims := FederatedClaims{
		Subject:     strings.TrimSpace(payload.Subject),
		Email:       stringClaim(payload.Claims, "email"),
		DisplayName: stringClaim(payload.Claims, "name"),
	}
	if claims.Subject == "" || claims.Email == "" || claims.DisplayName == "" {
		return FederatedClaims{}, fmt.Errorf("%w: missing required claims", ErrInvalidFederatedToken)
	}
	return claims, nil
}

func stringClaim(claims map[string]any, key string) string {
	value, _ := claims[key].(string)
	return strings.TrimSpace(value)
}
