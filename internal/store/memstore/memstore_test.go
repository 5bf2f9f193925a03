package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/agendametrics/apiserver/internal/store"
	"github.com/agendametrics/apiserver/types"
	"github.com/stretchr/testify/require"
)

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()

	alice, err := s.Users.Create(ctx, types.User{Username: "alice", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = s.Users.Create(ctx, types.User{Username: "alice", Email: "other@example.com", PasswordHash: "h"})
	var dup *store.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "username", dup.Field)

	_, err = s.Users.Create(ctx, types.User{Username: "alice2", Email: "a@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrDuplicateKey)

	bob, err := s.Users.Create(ctx, types.User{Username: "bob", Email: "b@example.com", GoogleID: "sub-1"})
	require.NoError(t, err)

	bob.Email = alice.Email
	_, err = s.Users.Update(ctx, bob)
	require.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestRoutineOwnership(t *testing.T) {
	ctx := context.Background()
	s := New()

	routine, err := s.Routines.Create(ctx, types.Routine{
		UserID:            "owner-a",
		Name:              "Read",
		Category:          types.CategoryStudy,
		Frequency:         types.Frequency{Type: types.FrequencySpecificDays, Days: []int{1, 3}},
		EstimatedDuration: 20,
	})
	require.NoError(t, err)

	_, err = s.Routines.GetForOwner(ctx, routine.ID, "owner-b")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Routines.UpdateForOwner(ctx, routine.ID, "owner-b", func(*types.Routine) error { return nil })
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Routines.DeleteForOwner(ctx, routine.ID, "owner-b"), store.ErrNotFound)

	got, err := s.Routines.GetForOwner(ctx, routine.ID, "owner-a")
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, got.Frequency.Days)

	got.Frequency.Days[0] = 6
	again, err := s.Routines.GetForOwner(ctx, routine.ID, "owner-a")
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, again.Frequency.Days, "stored routine must not alias caller slices")
}

func TestUserDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := New()

	alice, err := s.Users.Create(ctx, types.User{Username: "alice", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	bob, err := s.Users.Create(ctx, types.User{Username: "bob", Email: "b@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	for _, owner := range []string{alice.ID, alice.ID, bob.ID} {
		_, err := s.Routines.Create(ctx, types.Routine{UserID: owner, Name: "x", Category: types.CategoryOther,
			Frequency: types.Frequency{Type: types.FrequencyDaily}, EstimatedDuration: 1})
		require.NoError(t, err)
	}

	require.NoError(t, s.Users.Delete(ctx, alice.ID))

	own, err := s.Routines.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, own)

	_, err = s.Users.GetByID(ctx, alice.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.Routines.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "bob", all[0].Owner.Username)

	require.ErrorIs(t, s.Users.Delete(ctx, alice.ID), store.ErrNotFound)
}
