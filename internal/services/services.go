package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/agendametrics/apiserver/internal/apperrors"
	"github.com/agendametrics/apiserver/internal/store"
	"github.com/agendametrics/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
}

// RoutineRepository defines owner-scoped persistence operations for routines.
type RoutineRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]types.Routine, error)
	ListAll(ctx context.Context) ([]types.RoutineWithOwner, error)
	GetForOwner(ctx context.Context, id, ownerID string) (types.Routine, error)
	Create(ctx context.Context, routine types.Routine) (types.Routine, error)
	UpdateForOwner(ctx context.Context, id, ownerID string, mutate func(*types.Routine) error) (types.Routine, error)
	DeleteForOwner(ctx context.Context, id, ownerID string) error
}

// EventPublisher delivers routine events to downstream consumers.
type EventPublisher interface {
	PublishRoutineEvent(ctx context.Context, event types.RoutineEvent) error
}

// Archiver stores a snapshot of an account before it is removed.
type Archiver interface {
	ArchiveUser(ctx context.Context, archive types.UserArchive) error
}

var (
	errUserNotFound    = apperrors.NotFound("user not found")
	errRoutineNotFound = apperrors.NotFound("routine not found")
)

// mapStoreError converts store sentinels into caller-visible errors.
// Anything else is returned unchanged and surfaces as a 500.
func mapStoreError(err error, notFound *apperrors.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.Wrap(notFound, err)
	}
	var dup *store.DuplicateKeyError
	if errors.As(err, &dup) {
		return apperrors.Wrap(apperrors.DuplicateKey(duplicateMessage(dup.Field)), err)
	}
	return err
}

func duplicateMessage(field string) string {
	switch field {
	case "username":
		return "username already exists"
	case "email":
		return "email already exists"
	default:
		return "account already exists"
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
