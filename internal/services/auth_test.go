package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agendametrics/apiserver/internal/apperrors"
	"github.com/agendametrics/apiserver/internal/auth"
	"github.com/stretchr/testify/require"
)

func TestRegisterPasswordLength(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "empty", password: "", wantErr: true},
		{name: "five chars", password: "abcde", wantErr: true},
		{name: "six chars", password: "abcdef", wantErr: false},
		{name: "two multibyte chars", password: "日本", wantErr: true},
		{name: "six multibyte chars", password: "日本語です。", wantErr: false},
		{name: "too long for bcrypt", password: strings.Repeat("x", auth.MaxPasswordBytes+1), wantErr: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username := "user" + string(rune('a'+i))
			_, err := f.auth.RegisterUser(ctx, username, username+"@example.com", tt.password)
			if tt.wantErr {
				require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegisterNormalizesAndHidesHash(t *testing.T) {
	f := newFixture(t, nil)

	user, err := f.auth.RegisterUser(context.Background(), "  alice ", " Alice@Example.COM ", "password1")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, "password1", user.PasswordHash)

	creds, err := user.Credentials()
	require.NoError(t, err)
	require.Len(t, creds, 1)
}

func TestRegisterDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "alice", "a@example.com")

	_, err := f.auth.RegisterUser(ctx, "alice2", "A@example.com", "password1")
	require.Equal(t, apperrors.KindDuplicateKey, apperrors.KindOf(err))
	require.ErrorIs(t, err, apperrors.DuplicateKey("email already exists"))

	_, err = f.auth.RegisterUser(ctx, "alice", "other@example.com", "password1")
	require.Equal(t, apperrors.KindDuplicateKey, apperrors.KindOf(err))
	require.ErrorIs(t, err, apperrors.DuplicateKey("username already exists"))
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.auth.RegisterUser(context.Background(), "alice", "not-an-email", "password1")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.KindValidation, appErr.Kind)
	require.Equal(t, "email must be a valid email address", appErr.Message)
}

func TestLoginUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@example.com")

	result, err := f.auth.LoginUser(ctx, "A@EXAMPLE.com", "password1")
	require.NoError(t, err)
	require.Equal(t, alice.ID, result.User.ID)

	identity, err := f.tokens.Verify(result.Token)
	require.NoError(t, err)
	require.Equal(t, auth.Identity{ID: alice.ID, Username: "alice"}, identity)

	_, err = f.auth.LoginUser(ctx, "a@example.com", "wrongpass")
	require.ErrorIs(t, err, errInvalidCredentials)

	_, err = f.auth.LoginUser(ctx, "nobody@example.com", "password1")
	require.ErrorIs(t, err, errInvalidCredentials)
}

func TestLoginWithGoogleCreatesThenReusesAccount(t *testing.T) {
	claims := auth.FederatedClaims{Subject: "google-sub-1", Email: "G@Example.com", DisplayName: "Grace Hopper"}
	f := newFixture(t, fakeVerifier{claims: claims})
	ctx := context.Background()

	first, err := f.auth.LoginWithGoogle(ctx, "id-token")
	require.NoError(t, err)
	require.Equal(t, "Grace Hopper", first.User.Username)
	require.Equal(t, "g@example.com", first.User.Email)
	require.Equal(t, "google-sub-1", first.User.GoogleID)
	require.Empty(t, first.User.PasswordHash)

	second, err := f.auth.LoginWithGoogle(ctx, "id-token")
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	_, err = f.auth.LoginUser(ctx, "g@example.com", "")
	require.ErrorIs(t, err, errInvalidCredentials, "federated accounts cannot use password login")
}

func TestLoginWithGoogleLongDisplayName(t *testing.T) {
	claims := auth.FederatedClaims{
		Subject:     "google-sub-3",
		Email:       "long@example.com",
		DisplayName: strings.Repeat("é", MaxUsernameLength+10),
	}
	f := newFixture(t, fakeVerifier{claims: claims})
	ctx := context.Background()

	result, err := f.auth.LoginWithGoogle(ctx, "id-token")
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("é", MaxUsernameLength), result.User.Username)

	updated, err := f.users.UpdateProfile(ctx, result.User.ID, ProfileUpdate{Email: ptr("new@example.com")})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", updated.Email)
}

func TestLoginWithGoogleRejectsInvalidToken(t *testing.T) {
	f := newFixture(t, fakeVerifier{err: errors.New("bad signature")})

	_, err := f.auth.LoginWithGoogle(context.Background(), "id-token")
	require.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}

func TestLoginWithGoogleDoesNotMergeLocalAccount(t *testing.T) {
	claims := auth.FederatedClaims{Subject: "google-sub-2", Email: "a@example.com", DisplayName: "Alice G"}
	f := newFixture(t, fakeVerifier{claims: claims})
	f.register(t, "alice", "a@example.com")

	_, err := f.auth.LoginWithGoogle(context.Background(), "id-token")
	require.Equal(t, apperrors.KindDuplicateKey, apperrors.KindOf(err))
}
