package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agendametrics/apiserver/internal/apperrors"
	"github.com/agendametrics/apiserver/internal/auth"
	"github.com/agendametrics/apiserver/internal/store"
	"github.com/agendametrics/apiserver/types"
)

// PasswordHasher hashes and verifies local passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(identity auth.Identity) (string, error)
}

// FederatedVerifier verifies third-party identity tokens.
type FederatedVerifier interface {
	Verify(ctx context.Context, rawToken string) (auth.FederatedClaims, error)
}

var (
	errInvalidCredentials    = apperrors.Unauthenticated("invalid credentials")
	errInvalidFederatedToken = apperrors.Unauthenticated("invalid google token")
)

// AuthResult is returned by every successful login.
type AuthResult struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// AuthService handles registration and login for local and Google accounts.
type AuthService struct {
	users    UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	verifier FederatedVerifier
	logger   *slog.Logger
}

func NewAuthService(
	users UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	verifier FederatedVerifier,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		verifier: verifier,
		logger:   loggerOrDefault(logger),
	}
}

// RegisterUser creates a local account. It does not log the user in.
func (s *AuthService) RegisterUser(ctx context.Context, username, email, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validatePassword(password); err != nil {
		return types.User{}, err
	}
	if err := validateAccount(username, email); err != nil {
		return types.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := types.User{Username: username, Email: email}.
		WithCredential(types.LocalCredential{PasswordHash: hash})
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return types.User{}, mapStoreError(err, errUserNotFound)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// LoginUser checks a local password and issues a session token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, errInvalidCredentials
		}
		return AuthResult{}, err
	}

	local, ok := user.LocalCredential()
	if !ok || !s.hasher.Verify(password, local.PasswordHash) {
		return AuthResult{}, errInvalidCredentials
	}
	return s.session(user)
}

// LoginWithGoogle verifies a Google ID token and logs in the linked account,
// creating it on first use. Accounts are matched by Google subject only.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (AuthResult, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.logger.DebugContext(ctx, "google token rejected", "error", err)
		return AuthResult{}, apperrors.Wrap(errInvalidFederatedToken, err)
	}

	user, err := s.users.GetByGoogleID(ctx, claims.Subject)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		candidate := types.User{
			Username: federatedUsername(claims.DisplayName),
			Email:    normalizeEmail(claims.Email),
		}.WithCredential(types.FederatedCredential{Provider: types.ProviderGoogle, Subject: claims.Subject})
		user, err = s.users.Create(ctx, candidate)
		if err != nil {
			return AuthResult{}, mapStoreError(err, errUserNotFound)
		}
		s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "provider", types.ProviderGoogle)
	default:
		return AuthResult{}, err
	}
	return s.session(user)
}

func (s *AuthService) session(user types.User) (AuthResult, error) {
	token, err := s.tokens.Issue(auth.Identity{ID: user.ID, Username: user.Username})
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Token: token, User: user}, nil
}
