// Package memstore is an in-memory implementation of the user and routine
// repositories. It enforces the same uniqueness, ownership and cascade rules
// as the postgres store and is meant for local development and tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/agendametrics/apiserver/internal/store"
	"github.com/agendametrics/apiserver/types"
	"github.com/google/uuid"
)

// Store holds every record behind a single lock.
type Store struct {
	mu       sync.RWMutex
	users    map[string]types.User
	routines map[string]types.Routine
	now      func() time.Time

	Users    *UserRepository
	Routines *RoutineRepository
}

func New() *Store {
	s := &Store{
		users:    make(map[string]types.User),
		routines: make(map[string]types.Routine),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.Users = &UserRepository{s: s}
	s.Routines = &RoutineRepository{s: s}
	return s
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByGoogleID(_ context.Context, googleID string) (types.User, error) {
	if googleID == "" {
		return types.User{}, store.ErrNotFound
	}
	return r.find(func(u types.User) bool { return u.GoogleID == googleID })
}

func (r *UserRepository) List(_ context.Context) ([]types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]types.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinDate.Equal(users[j].JoinDate) {
			return users[i].ID < users[j].ID
		}
		return users[i].JoinDate.Before(users[j].JoinDate)
	})
	return users, nil
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.ID = uuid.NewString()
	if user.JoinDate.IsZero() {
		user.JoinDate = r.s.now()
	}
	if user.Role == "" {
		user.Role = types.RoleUser
	}
	if err := r.checkUnique(user); err != nil {
		return types.User{}, err
	}
	r.s.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if err := r.checkUnique(user); err != nil {
		return types.User{}, err
	}
	user.JoinDate = current.JoinDate
	r.s.users[user.ID] = user
	return user, nil
}

// Delete removes the user's routines and then the user.
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return store.ErrNotFound
	}
	for routineID, routine := range r.s.routines {
		if routine.UserID == id {
			delete(r.s.routines, routineID)
		}
	}
	delete(r.s.users, id)
	return nil
}

func (r *UserRepository) find(match func(types.User) bool) (types.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if match(user) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

// checkUnique must be called with the write lock held.
func (r *UserRepository) checkUnique(user types.User) error {
	for id, other := range r.s.users {
		if id == user.ID {
			continue
		}
		switch {
		case other.Username == user.Username:
			return &store.DuplicateKeyError{Field: "username"}
		case other.Email == user.Email:
			return &store.DuplicateKeyError{Field: "email"}
		case user.GoogleID != "" && other.GoogleID == user.GoogleID:
			return &store.DuplicateKeyError{Field: "google_id"}
		}
	}
	return nil
}

type RoutineRepository struct {
	s *Store
}

func (r *RoutineRepository) ListByOwner(_ context.Context, ownerID string) ([]types.Routine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	routines := make([]types.Routine, 0)
	for _, routine := range r.s.routines {
		if routine.UserID == ownerID {
			routines = append(routines, cloneRoutine(routine))
		}
	}
	sortRoutines(routines)
	return routines, nil
}

func (r *RoutineRepository) ListAll(_ context.Context) ([]types.RoutineWithOwner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	plain := make([]types.Routine, 0, len(r.s.routines))
	for _, routine := range r.s.routines {
		plain = append(plain, cloneRoutine(routine))
	}
	sortRoutines(plain)

	routines := make([]types.RoutineWithOwner, 0, len(plain))
	for _, routine := range plain {
		owner, ok := r.s.users[routine.UserID]
		if !ok {
			continue
		}
		routines = append(routines, types.RoutineWithOwner{
			Routine: routine,
			Owner:   types.OwnerSummary{ID: owner.ID, Username: owner.Username, Email: owner.Email},
		})
	}
	return routines, nil
}

func (r *RoutineRepository) GetForOwner(_ context.Context, id, ownerID string) (types.Routine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	routine, ok := r.s.routines[id]
	if !ok || routine.UserID != ownerID {
		return types.Routine{}, store.ErrNotFound
	}
	return cloneRoutine(routine), nil
}

func (r *RoutineRepository) Create(_ context.Context, routine types.Routine) (types.Routine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	routine.ID = uuid.NewString()
	routine.CreatedAt = now
	routine.UpdatedAt = now
	routine = cloneRoutine(routine)
	r.s.routines[routine.ID] = routine
	return cloneRoutine(routine), nil
}

func (r *RoutineRepository) UpdateForOwner(
	_ context.Context,
	id, ownerID string,
	mutate func(*types.Routine) error,
) (types.Routine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.routines[id]
	if !ok || current.UserID != ownerID {
		return types.Routine{}, store.ErrNotFound
	}

	routine := cloneRoutine(current)
	if err := mutate(&routine); err != nil {
		return types.Routine{}, err
	}
	routine.ID = current.ID
	routine.UserID = current.UserID
	routine.CreatedAt = current.CreatedAt
	routine.UpdatedAt = r.s.now()
	r.s.routines[id] = cloneRoutine(routine)
	return routine, nil
}

func (r *RoutineRepository) DeleteForOwner(_ context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	routine, ok := r.s.routines[id]
	if !ok || routine.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(r.s.routines, id)
	return nil
}

func cloneRoutine(routine types.Routine) types.Routine {
	routine.Frequency.Days = slices.Clone(routine.Frequency.Days)
	return routine
}

func sortRoutines(routines []types.Routine) {
	sort.Slice(routines, func(i, j int) bool {
		if routines[i].CreatedAt.Equal(routines[j].CreatedAt) {
			return routines[i].ID < routines[j].ID
		}
		return routines[i].CreatedAt.Before(routines[j].CreatedAt)
	})
}
