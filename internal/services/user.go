package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agendametrics/apiserver/types"
)

// ProfileUpdate holds the optional fields a user may change on their own account.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo     UserRepository
	routines RoutineRepository
	hasher   PasswordHasher
	archiver Archiver
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

func NewUserService(
	repo UserRepository,
	routines RoutineRepository,
	hasher PasswordHasher,
	archiver Archiver,
	events EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		repo:     repo,
		routines: routines,
		hasher:   hasher,
		archiver: archiver,
		events:   events,
		logger:   loggerOrDefault(logger),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, mapStoreError(err, errUserNotFound)
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return types.User{}, mapStoreError(err, errUserNotFound)
	}
	return user, nil
}

// UpdateProfile changes the caller's own username, email or password.
func (s *UserService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (types.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	// Unchanged fields are not revalidated.
	if update.Username != nil {
		user.Username = strings.TrimSpace(*update.Username)
		if err := validateUsername(user.Username); err != nil {
			return types.User{}, err
		}
	}
	if update.Email != nil {
		user.Email = normalizeEmail(*update.Email)
		if err := validateEmail(user.Email); err != nil {
			return types.User{}, err
		}
	}
	if update.Password != nil {
		if err := validatePassword(*update.Password); err != nil {
			return types.User{}, err
		}
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return types.User{}, fmt.Errorf("hash password: %w", err)
		}
		user = user.WithCredential(types.LocalCredential{PasswordHash: hash})
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, mapStoreError(err, errUserNotFound)
	}
	return updated, nil
}

// SetRole changes the authorization level of the named user.
func (s *UserService) SetRole(ctx context.Context, username, role string) (types.User, error) {
	if role != types.RoleUser && role != types.RoleAdmin {
		return types.User{}, fmt.Errorf("unknown role %q", role)
	}
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return types.User{}, err
	}
	user.Role = role
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, mapStoreError(err, errUserNotFound)
	}
	return updated, nil
}

// Delete archives the account when an archiver is configured, then removes
// the user and every routine it owns. A failed archive aborts the delete.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if s.archiver != nil {
		routines, err := s.routines.ListByOwner(ctx, id)
		if err != nil {
			return err
		}
		archive := types.UserArchive{User: user, Routines: routines, ArchivedAt: s.now()}
		if err := s.archiver.ArchiveUser(ctx, archive); err != nil {
			return fmt.Errorf("archive user %s: %w", id, err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, errUserNotFound)
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id)

	if s.events != nil {
		event := types.RoutineEvent{Type: types.UserDeleted, UserID: id, OccurredAt: s.now()}
		if err := s.events.PublishRoutineEvent(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "publish user event failed", "user_id", id, "error", err)
		}
	}
	return nil
}
