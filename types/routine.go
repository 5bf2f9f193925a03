package types

import (
	"strings"
	"time"
)

// Category classifies a routine.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryStudy    Category = "study"
	CategorySleep    Category = "sleep"
	CategoryExercise Category = "exercise"
	CategoryOther    Category = "other"
)

// FrequencyType is the tag of a Frequency.
type FrequencyType string

const (
	FrequencyDaily        FrequencyType = "daily"
	FrequencyWeekly       FrequencyType = "weekly"
	FrequencyMonthly      FrequencyType = "monthly"
	FrequencySpecificDays FrequencyType = "specific-days"
)

// Routine represents a scheduled recurring activity owned by a single user.
type Routine struct {
	// ID is the opaque, store-assigned identifier of the routine.
	ID string `json:"id" db:"id"`

	// UserID is the owner reference. It is always the authenticated caller
	// at creation time and never changes afterwards.
	UserID string `json:"user" db:"user_id"`

	// Name is the non-empty display name of the activity.
	Name string `json:"name" db:"name" validate:"required"`

	// Category is one of work, study, sleep, exercise or other.
	Category Category `json:"category" db:"category" validate:"required,oneof=work study sleep exercise other"`

	// Frequency describes how often the routine repeats.
	Frequency Frequency `json:"frequency" db:"frequency"`

	// EstimatedDuration is the expected duration in minutes.
	EstimatedDuration int `json:"estimatedDuration" db:"estimated_duration" validate:"min=1"`

	// SuggestedTime is an optional 24-hour HH:MM start time.
	SuggestedTime string `json:"suggestedTime,omitempty" db:"suggested_time" validate:"omitempty,hhmm"`

	// Notifications reports whether reminders are enabled. Defaults to true.
	Notifications bool `json:"notifications" db:"notifications"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Frequency is a tagged variant: daily, weekly, monthly, or specific-days
// with a non-empty set of weekdays (0 = Sunday ... 6 = Saturday).
type Frequency struct {
	Type FrequencyType `json:"type" validate:"required,oneof=daily weekly monthly specific-days"`
	Days []int         `json:"days,omitempty" validate:"omitempty,unique,dive,min=0,max=6"`
}

// RoutineWithOwner is a routine with its owner reference resolved.
type RoutineWithOwner struct {
	Routine
	Owner OwnerSummary `json:"user"`
}

// RoutineInput is the payload accepted when creating a routine.
// Any owner supplied by the client is ignored.
type RoutineInput struct {
	Name              string    `json:"name"`
	Category          Category  `json:"category"`
	Frequency         Frequency `json:"frequency"`
	EstimatedDuration int       `json:"estimatedDuration"`
	SuggestedTime     string    `json:"suggestedTime"`
	Notifications     *bool     `json:"notifications"`
}

// Routine builds the record to persist for ownerID.
func (in RoutineInput) Routine(ownerID string) Routine {
	notifications := true
	if in.Notifications != nil {
		notifications = *in.Notifications
	}
	r := Routine{
		UserID:            ownerID,
		Name:              strings.TrimSpace(in.Name),
		Category:          in.Category,
		Frequency:         in.Frequency,
		EstimatedDuration: in.EstimatedDuration,
		SuggestedTime:     strings.TrimSpace(in.SuggestedTime),
		Notifications:     notifications,
	}
	r.Frequency.normalize()
	return r
}

// RoutinePatch is a partial update. Nil fields are left unchanged.
type RoutinePatch struct {
	Name              *string    `json:"name"`
	Category          *Category  `json:"category"`
	Frequency         *Frequency `json:"frequency"`
	EstimatedDuration *int       `json:"estimatedDuration"`
	SuggestedTime     *string    `json:"suggestedTime"`
	Notifications     *bool      `json:"notifications"`
}

// Apply merges the patch into r. The owner and timestamps are never touched.
func (p RoutinePatch) Apply(r *Routine) {
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Frequency != nil {
		r.Frequency = *p.Frequency
		r.Frequency.normalize()
	}
	if p.EstimatedDuration != nil {
		r.EstimatedDuration = *p.EstimatedDuration
	}
	if p.SuggestedTime != nil {
		r.SuggestedTime = strings.TrimSpace(*p.SuggestedTime)
	}
	if p.Notifications != nil {
		r.Notifications = *p.Notifications
	}
}

// Days only carry meaning for specific-days.
func (f *Frequency) normalize() {
	if f.Type != FrequencySpecificDays {
		f.Days = nil
	}
}
