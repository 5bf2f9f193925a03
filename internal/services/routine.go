package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/agendametrics/apiserver/types"
)

// RoutineService encapsulates routine use-cases. Every single-routine
// operation is filtered by owner, so a routine that belongs to someone else
// is reported exactly like one that does not exist.
type RoutineService struct {
	repo   RoutineRepository
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewRoutineService(repo RoutineRepository, events EventPublisher, logger *slog.Logger) *RoutineService {
	return &RoutineService{
		repo:   repo,
		events: events,
		logger: loggerOrDefault(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RoutineService) ListOwn(ctx context.Context, ownerID string) ([]types.Routine, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListAll returns routines across every owner. Callers must gate it to admins.
func (s *RoutineService) ListAll(ctx context.Context) ([]types.RoutineWithOwner, error) {
	return s.repo.ListAll(ctx)
}

func (s *RoutineService) Get(ctx context.Context, id, ownerID string) (types.Routine, error) {
	routine, err := s.repo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return types.Routine{}, mapStoreError(err, errRoutineNotFound)
	}
	return routine, nil
}

// Create validates input and stores it under ownerID.
func (s *RoutineService) Create(ctx context.Context, input types.RoutineInput, ownerID string) (types.Routine, error) {
	routine := input.Routine(ownerID)
	if err := validateRoutine(routine); err != nil {
		return types.Routine{}, err
	}

	created, err := s.repo.Create(ctx, routine)
	if err != nil {
		return types.Routine{}, mapStoreError(err, errRoutineNotFound)
	}
	s.publish(ctx, types.RoutineCreated, created)
	return created, nil
}

// Update applies a partial update and re-validates the merged routine.
func (s *RoutineService) Update(ctx context.Context, id string, patch types.RoutinePatch, ownerID string) (types.Routine, error) {
	updated, err := s.repo.UpdateForOwner(ctx, id, ownerID, func(routine *types.Routine) error {
		patch.Apply(routine)
		return validateRoutine(*routine)
	})
	if err != nil {
		return types.Routine{}, mapStoreError(err, errRoutineNotFound)
	}
	s.publish(ctx, types.RoutineUpdated, updated)
	return updated, nil
}

func (s *RoutineService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.repo.DeleteForOwner(ctx, id, ownerID); err != nil {
		return mapStoreError(err, errRoutineNotFound)
	}
	s.publish(ctx, types.RoutineDeleted, types.Routine{ID: id, UserID: ownerID})
	return nil
}

// publish runs after the write has committed. A broker failure is logged and
// never fails the request.
func (s *RoutineService) publish(ctx context.Context, eventType types.RoutineEventType, routine types.Routine) {
	if s.events == nil {
		return
	}
	event := types.RoutineEvent{
		Type:          eventType,
		RoutineID:     routine.ID,
		UserID:        routine.UserID,
		Notifications: routine.Notifications,
		OccurredAt:    s.now(),
	}
	if err := s.events.PublishRoutineEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish routine event failed",
			"type", eventType,
			"routine_id", routine.ID,
			"error", err,
		)
	}
}
