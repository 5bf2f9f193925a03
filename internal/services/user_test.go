package services

import (
	"context"
	"errors"
	"testing"

	"github.com/agendametrics/apiserver/internal/apperrors"
	"github.com/agendametrics/apiserver/types"
	"github.com/stretchr/testify/require"
)

func TestDeleteUserArchivesAndCascades(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@example.com")
	bob := f.register(t, "bob", "b@example.com")

	for _, owner := range []string{alice.ID, alice.ID, bob.ID} {
		_, err := f.routines.Create(ctx, runInput(), owner)
		require.NoError(t, err)
	}

	require.NoError(t, f.users.Delete(ctx, alice.ID))

	own, err := f.store.Routines.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, own)
	_, err = f.store.Users.GetByID(ctx, alice.ID)
	require.Error(t, err)

	require.Len(t, f.archiver.archives, 1)
	archive := f.archiver.archives[0]
	require.Equal(t, alice.ID, archive.User.ID)
	require.Len(t, archive.Routines, 2)
	require.Contains(t, f.events.eventTypes(), types.UserDeleted)

	bobs, err := f.routines.ListOwn(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobs, 1)

	require.ErrorIs(t, f.users.Delete(ctx, alice.ID), errUserNotFound)
}

func TestDeleteUserArchiveFailureKeepsAccount(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@example.com")
	f.archiver.err = errors.New("bucket unavailable")

	err := f.users.Delete(ctx, alice.ID)
	require.Error(t, err)
	require.Zero(t, apperrors.KindOf(err))

	_, err = f.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := f.register(t, "alice", "a@example.com")
	f.register(t, "bob", "b@example.com")

	updated, err := f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{
		Email:    ptr(" ALICE@new.example.com"),
		Password: ptr("newpassword"),
	})
	require.NoError(t, err)
	require.Equal(t, "alice@new.example.com", updated.Email)
	require.Equal(t, alice.JoinDate, updated.JoinDate)

	_, err = f.auth.LoginUser(ctx, "alice@new.example.com", "newpassword")
	require.NoError(t, err)

	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: ptr("bob")})
	require.ErrorIs(t, err, apperrors.DuplicateKey("username already exists"))

	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Password: ptr("short")})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Password: ptr("日本")})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Password: ptr("日本語です。")})
	require.NoError(t, err)
	_, err = f.auth.LoginUser(ctx, "alice@new.example.com", "日本語です。")
	require.NoError(t, err)

	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileUpdate{Email: ptr("not-an-email")})
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestSetRole(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "alice", "a@example.com")

	admin, err := f.users.SetRole(ctx, "alice", types.RoleAdmin)
	require.NoError(t, err)
	require.True(t, admin.IsAdmin())

	_, err = f.users.SetRole(ctx, "alice", "root")
	require.Error(t, err)

	_, err = f.users.SetRole(ctx, "nobody", types.RoleAdmin)
	require.ErrorIs(t, err, errUserNotFound)
}
