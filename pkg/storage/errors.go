package storage

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is. The typed errors below unwrap to them.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// Resource names a kind of persisted record. It doubles as the subject of
// error messages and log fields.
type Resource string

// Record kinds kept under the data directory.
const (
	ResourceProfile  Resource = "profile"
	ResourceBaseline Resource = "baseline"
)

// RecordError reports that a record of Resource with ID was missing, or
// already present, when an operation needed the opposite.
type RecordError struct {
	Resource Resource
	ID       string
	// Err is ErrNotFound or ErrAlreadyExists.
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %v: %s", e.Resource, e.Err, e.ID)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Missing returns the not-found error for resource id.
func Missing(resource Resource, id string) error {
	return &RecordError{Resource: resource, ID: id, Err: ErrNotFound}
}

// Taken returns the already-exists error for resource id.
func Taken(resource Resource, id string) error {
	return &RecordError{Resource: resource, ID: id, Err: ErrAlreadyExists}
}

// ProfileNotFound reports an unknown scan profile name.
func ProfileNotFound(name string) error { return Missing(ResourceProfile, name) }

// BaselineNotFound reports an unknown baseline snapshot id.
func BaselineNotFound(id string) error { return Missing(ResourceBaseline, id) }

// ProfileExists reports a profile name collision.
func ProfileExists(name string) error { return Taken(ResourceProfile, name) }

// FieldError is a validation failure on one named input.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input for field %q: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

// Invalid returns a FieldError for field.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// MissingRecord extracts the resource and id from a not-found error
// anywhere in err's chain.
func MissingRecord(err error) (Resource, string, bool) {
	var rec *RecordError
	if errors.As(err, &rec) && errors.Is(rec.Err, ErrNotFound) {
		return rec.Resource, rec.ID, true
	}
	return "", "", false
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
