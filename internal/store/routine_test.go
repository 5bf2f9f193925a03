package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agendametrics/apiserver/types"
	"github.com/stretchr/testify/require"
)

const routineID = "0c0ffee0-1111-4222-8333-444455556666"

var routineRowColumns = []string{
	"id", "user_id", "name", "category", "frequency_type", "frequency_days",
	"estimated_duration", "suggested_time", "notifications", "created_at", "updated_at",
}

func TestRoutineGetForOwnerFiltersByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(routineRowColumns).
		AddRow(routineID, aliceID, "Gym", "exercise", "specific-days", []byte("{1,3,5}"), 45, "07:30", true, ts, ts)
	mock.ExpectQuery(`(?s)SELECT .*\s+FROM routines\s+WHERE id = \$1 AND user_id = \$2`).
		WithArgs(routineID, aliceID).
		WillReturnRows(rows)

	routine, err := repo.GetForOwner(context.Background(), routineID, aliceID)
	require.NoError(t, err)
	require.Equal(t, types.Routine{
		ID:                routineID,
		UserID:            aliceID,
		Name:              "Gym",
		Category:          types.CategoryExercise,
		Frequency:         types.Frequency{Type: types.FrequencySpecificDays, Days: []int{1, 3, 5}},
		EstimatedDuration: 45,
		SuggestedTime:     "07:30",
		Notifications:     true,
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}, routine)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineGetForOtherOwnerIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	mock.ExpectQuery(`(?s)SELECT .*\s+FROM routines\s+WHERE id = \$1 AND user_id = \$2`).
		WithArgs(routineID, bobID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForOwner(context.Background(), routineID, bobID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetForOwner(context.Background(), "garbage", bobID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineListByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	ts := time.Now().UTC()
	rows := sqlmock.NewRows(routineRowColumns).
		AddRow(routineID, aliceID, "Run", "exercise", "daily", []byte("{}"), 30, "", true, ts, ts)
	mock.ExpectQuery(`(?s)FROM routines\s+WHERE user_id = \$1`).
		WithArgs(aliceID).
		WillReturnRows(rows)

	routines, err := repo.ListByOwner(context.Background(), aliceID)
	require.NoError(t, err)
	require.Len(t, routines, 1)
	require.Nil(t, routines[0].Frequency.Days)
	require.Equal(t, types.FrequencyDaily, routines[0].Frequency.Type)
}

func TestRoutineListAllResolvesOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	ts := time.Now().UTC()
	columns := append(append([]string{}, routineRowColumns...), "username", "email")
	rows := sqlmock.NewRows(columns).
		AddRow(routineID, aliceID, "Run", "exercise", "daily", []byte("{}"), 30, "", true, ts, ts, "alice", "a@example.com")
	mock.ExpectQuery(`(?s)FROM routines r\s+JOIN users u ON u.id = r.user_id`).
		WillReturnRows(rows)

	routines, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, routines, 1)
	require.Equal(t, types.OwnerSummary{ID: aliceID, Username: "alice", Email: "a@example.com"}, routines[0].Owner)
}

func TestRoutineCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO routines`).
		WithArgs(
			sqlmock.AnyArg(), aliceID, "Run", "exercise", "daily", "{}",
			30, "", true, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.Create(context.Background(), types.Routine{
		UserID:            aliceID,
		Name:              "Run",
		Category:          types.CategoryExercise,
		Frequency:         types.Frequency{Type: types.FrequencyDaily},
		EstimatedDuration: 30,
		Notifications:     true,
	})
	require.NoError(t, err)
	require.True(t, validID(created.ID))
	require.False(t, created.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineUpdateForOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	ts := time.Date(2020, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FROM routines\s+WHERE id = \$1 AND user_id = \$2\s+FOR UPDATE`).
		WithArgs(routineID, aliceID).
		WillReturnRows(sqlmock.NewRows(routineRowColumns).
			AddRow(routineID, aliceID, "Run", "exercise", "daily", []byte("{}"), 30, "", true, ts, ts))
	mock.ExpectExec(`(?s)UPDATE routines\s+SET .*\s+WHERE id = \$9 AND user_id = \$10`).
		WithArgs("Run", "exercise", "daily", "{}", 60, "", true, sqlmock.AnyArg(), routineID, aliceID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.UpdateForOwner(context.Background(), routineID, aliceID, func(r *types.Routine) error {
		r.EstimatedDuration = 60
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 60, updated.EstimatedDuration)
	require.Equal(t, ts, updated.CreatedAt)
	require.True(t, updated.UpdatedAt.After(ts))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineUpdateForOwnerMutateErrorRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	ts := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FOR UPDATE`).
		WithArgs(routineID, aliceID).
		WillReturnRows(sqlmock.NewRows(routineRowColumns).
			AddRow(routineID, aliceID, "Run", "exercise", "daily", []byte("{}"), 30, "", true, ts, ts))
	mock.ExpectRollback()

	invalid := errors.New("invalid")
	_, err := repo.UpdateForOwner(context.Background(), routineID, aliceID, func(*types.Routine) error {
		return invalid
	})
	require.ErrorIs(t, err, invalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineUpdateForOtherOwnerIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FOR UPDATE`).
		WithArgs(routineID, bobID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	called := false
	_, err := repo.UpdateForOwner(context.Background(), routineID, bobID, func(*types.Routine) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineDeleteForOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutineRepository(db)

	mock.ExpectExec(`DELETE FROM routines WHERE id = \$1 AND user_id = \$2`).
		WithArgs(routineID, aliceID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM routines WHERE id = \$1 AND user_id = \$2`).
		WithArgs(routineID, bobID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteForOwner(context.Background(), routineID, aliceID))
	require.ErrorIs(t, repo.DeleteForOwner(context.Background(), routineID, bobID), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
