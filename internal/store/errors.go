package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when a write violates a uniqueness constraint.
var ErrDuplicateKey = errors.New("duplicate key")

const uniqueViolation = "23505"

// DuplicateKeyError names the field whose uniqueness constraint was violated.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s already exists", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// mapWriteError translates unique violations into *DuplicateKeyError.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	return &DuplicateKeyError{Field: constraintField(pqErr.Constraint)}
}

func constraintField(constraint string) string {
	switch {
	case strings.Contains(constraint, "username"):
		return "username"
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "google_id"):
		return "google_id"
	default:
		return "key"
	}
}

// validID reports whether id can name a stored record. Malformed ids are
// answered with ErrNotFound so they behave like any other unknown id.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
