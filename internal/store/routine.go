package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/agendametrics/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const routineColumns = `id, user_id, name, category, frequency_type, frequency_days,
		estimated_duration, suggested_time, notifications, created_at, updated_at`

// RoutineRepository handles persistence for routines. Every read and write of
// a single routine is filtered by both its id and its owner.
type RoutineRepository struct {
	db *sql.DB
}

func NewRoutineRepository(db *sql.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

func (r *RoutineRepository) ListByOwner(ctx context.Context, ownerID string) ([]types.Routine, error) {
	routines := make([]types.Routine, 0)
	if !validID(ownerID) {
		return routines, nil
	}

	const query = `
		SELECT ` + routineColumns + `
		FROM routines
		WHERE user_id = $1
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		routine, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		routines = append(routines, routine)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return routines, nil
}

func (r *RoutineRepository) ListAll(ctx context.Context) ([]types.RoutineWithOwner, error) {
	const query = `
		SELECT r.id, r.user_id, r.name, r.category, r.frequency_type, r.frequency_days,
		       r.estimated_duration, r.suggested_time, r.notifications, r.created_at, r.updated_at,
		       u.username, u.email
		FROM routines r
		JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at, r.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routines := make([]types.RoutineWithOwner, 0)
	for rows.Next() {
		var item types.RoutineWithOwner
		var days []int64
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Name,
			&item.Category,
			&item.Frequency.Type,
			pq.Array(&days),
			&item.EstimatedDuration,
			&item.SuggestedTime,
			&item.Notifications,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Owner.Username,
			&item.Owner.Email,
		); err != nil {
			return nil, err
		}
		item.Frequency.Days = fromInt64s(days)
		item.Owner.ID = item.UserID
		routines = append(routines, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return routines, nil
}

func (r *RoutineRepository) GetForOwner(ctx context.Context, id, ownerID string) (types.Routine, error) {
	if !validID(id) || !validID(ownerID) {
		return types.Routine{}, ErrNotFound
	}

	const query = `
		SELECT ` + routineColumns + `
		FROM routines
		WHERE id = $1 AND user_id = $2`
	routine, err := scanRoutine(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Routine{}, ErrNotFound
		}
		return types.Routine{}, err
	}
	return routine, nil
}

func (r *RoutineRepository) Create(ctx context.Context, routine types.Routine) (types.Routine, error) {
	now := time.Now().UTC()
	routine.ID = uuid.NewString()
	routine.CreatedAt = now
	routine.UpdatedAt = now

	const query = `
		INSERT INTO routines (id, user_id, name, category, frequency_type, frequency_days,
			estimated_duration, suggested_time, notifications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		routine.ID,
		routine.UserID,
		routine.Name,
		routine.Category,
		routine.Frequency.Type,
		pq.Array(toInt64s(routine.Frequency.Days)),
		routine.EstimatedDuration,
		routine.SuggestedTime,
		routine.Notifications,
		routine.CreatedAt,
		routine.UpdatedAt,
	); err != nil {
		return types.Routine{}, mapWriteError(err)
	}
	return routine, nil
}

// UpdateForOwner locks the routine matching id and ownerID, lets mutate change
// it, and writes the result back in the same transaction. A mutate error
// aborts the update and is returned unchanged.
func (r *RoutineRepository) UpdateForOwner(
	ctx context.Context,
	id, ownerID string,
	mutate func(*types.Routine) error,
) (types.Routine, error) {
	if !validID(id) || !validID(ownerID) {
		return types.Routine{}, ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Routine{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const selectQuery = `
		SELECT ` + routineColumns + `
		FROM routines
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`
	routine, err := scanRoutine(tx.QueryRowContext(ctx, selectQuery, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Routine{}, ErrNotFound
		}
		return types.Routine{}, err
	}

	if err := mutate(&routine); err != nil {
		return types.Routine{}, err
	}
	routine.ID = id
	routine.UserID = ownerID
	routine.UpdatedAt = time.Now().UTC()

	const updateQuery = `
		UPDATE routines
		SET name = $1,
			category = $2,
			frequency_type = $3,
			frequency_days = $4,
			estimated_duration = $5,
			suggested_time = $6,
			notifications = $7,
			updated_at = $8
		WHERE id = $9 AND user_id = $10`
	if _, err := tx.ExecContext(
		ctx,
		updateQuery,
		routine.Name,
		routine.Category,
		routine.Frequency.Type,
		pq.Array(toInt64s(routine.Frequency.Days)),
		routine.EstimatedDuration,
		routine.SuggestedTime,
		routine.Notifications,
		routine.UpdatedAt,
		id,
		ownerID,
	); err != nil {
		return types.Routine{}, mapWriteError(err)
	}

	if err := tx.Commit(); err != nil {
		return types.Routine{}, err
	}
	return routine, nil
}

func (r *RoutineRepository) DeleteForOwner(ctx context.Context, id, ownerID string) error {
	if !validID(id) || !validID(ownerID) {
		return ErrNotFound
	}

	const query = `DELETE FROM routines WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRoutine(row scanner) (types.Routine, error) {
	var routine types.Routine
	var days []int64
	if err := row.Scan(
		&routine.ID,
		&routine.UserID,
		&routine.Name,
		&routine.Category,
		&routine.Frequency.Type,
		pq.Array(&days),
		&routine.EstimatedDuration,
		&routine.SuggestedTime,
		&routine.Notifications,
		&routine.CreatedAt,
		&routine.UpdatedAt,
	); err != nil {
		return types.Routine{}, err
	}
	routine.Frequency.Days = fromInt64s(days)
	return routine, nil
}

func toInt64s(days []int) []int64 {
	out := make([]int64, 0, len(days))
	for _, day := range days {
		out = append(out, int64(day))
	}
	return out
}

func fromInt64s(days []int64) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, 0, len(days))
	for _, day := range days {
		out = append(out, int(day))
	}
	return out
}
