package service

import (
	"errors"

	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
)

var (
	// ErrNotFound is returned for unknown courses, tournaments and teams.
	ErrNotFound = repository.ErrNotFound
	// ErrConflict is returned when a team name is already taken.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned when a request carries no usable session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the session does not cover the target team.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports bad caller input. Message is safe to show to the
// caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsDomainError reports whether err is an expected outcome of bad input or
// state rather than an infrastructure failure.
func IsDomainError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden)
}

// domainError pairs a caller-facing message with one of the sentinels above.
type domainError struct {
	kind error
	msg  string
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

func fail(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

// notFound names the missing entity, e.g. "tournament not found".
func notFound(what string) error {
	return fail(ErrNotFound, what+" not found")
}
