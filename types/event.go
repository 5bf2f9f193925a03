package types

import "time"

// RoutineEventType names what happened to a routine.
type RoutineEventType string

const (
	RoutineCreated RoutineEventType = "routine.created"
	RoutineUpdated RoutineEventType = "routine.updated"
	RoutineDeleted RoutineEventType = "routine.deleted"
	// UserDeleted is emitted once per account removal. RoutineID is empty.
	UserDeleted RoutineEventType = "user.deleted"
)

// RoutineEvent is published after a routine write commits, so reminder
// workers can reschedule notifications.
type RoutineEvent struct {
	Type          RoutineEventType `json:"type"`
	RoutineID     string           `json:"routineId,omitempty"`
	UserID        string           `json:"userId"`
	Notifications bool             `json:"notifications"`
	OccurredAt    time.Time        `json:"occurredAt"`
}

// UserArchive is the snapshot written to object storage before an account is deleted.
type UserArchive struct {
	User       User      `json:"user"`
	Routines   []Routine `json:"routines"`
	ArchivedAt time.Time `json:"archivedAt"`
}
