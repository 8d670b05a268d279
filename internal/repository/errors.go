package repository

import (
	"errors"
	"strings"
)

// Common repository errors that can be checked with errors.Is()
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when attempting to create an entity that already exists
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInUse is returned when deleting an entity that other records still reference
	ErrInUse = errors.New("entity is in use")
)

// ValidationKind classifies a single validation failure
type ValidationKind int

const (
	PresenceMissing ValidationKind = iota + 1
	UniquenessViolation
	InvalidValue
	InUse
)

func (k ValidationKind) String() string {
	switch k {
	case PresenceMissing:
		return "presence"
	case UniquenessViolation:
		return "uniqueness"
	case InvalidValue:
		return "invalid"
	case InUse:
		return "in_use"
	default:
		return "unknown"
	}
}

// ValidationError is one failed rule. Field is empty for errors about the
// record as a whole.
type ValidationError struct {
	Field   string
	Kind    ValidationKind
	Message string
}

// Error returns the full message, e.g. "Name can't be blank".
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return humanize(e.Field) + " " + e.Message
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case UniquenessViolation:
		return ErrDuplicate
	case InUse:
		return ErrInUse
	default:
		return ErrInvalidEntity
	}
}

// ValidationErrors collects every failure of a save or delete so callers
// can show all of them at once.
type ValidationErrors struct {
	Entity string
	Errors []*ValidationError
}

func newValidationErrors(entity string) *ValidationErrors {
	return &ValidationErrors{Entity: entity}
}

// Add appends a failure.
func (e *ValidationErrors) Add(field string, kind ValidationKind, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Kind: kind, Message: message})
}

// Empty reports whether no failure was recorded.
func (e *ValidationErrors) Empty() bool {
	return len(e.Errors) == 0
}

// Has reports whether any failure is of the given kind.
func (e *ValidationErrors) Has(kind ValidationKind) bool {
	for _, ve := range e.Errors {
		if ve.Kind == kind {
			return true
		}
	}
	return false
}

// FullMessages returns one human readable message per failure.
func (e *ValidationErrors) FullMessages() []string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}

func (e *ValidationErrors) Error() string {
	return e.Entity + " is invalid: " + strings.Join(e.FullMessages(), "; ")
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, ve := range e.Errors {
		errs = append(errs, ve)
	}
	return errs
}

// err returns e as an error, or a nil interface when nothing was recorded.
func (e *ValidationErrors) err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
