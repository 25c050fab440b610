package service

import (
	"alcyxob/workout-tracker/internal/repository"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind classifies every failure the workout core reports. All kinds
// except KindStorage are expected outcomes of a user request.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"         // Entity absent or not owned by the caller
	KindConflict        ErrorKind = "conflict"          // Single-active-session violation
	KindNoActiveSession ErrorKind = "no_active_session" // Operation needs an active session
	KindValidation      ErrorKind = "validation"        // Malformed input
	KindUnauthorized    ErrorKind = "unauthorized"      // Auth collaborator only
	KindStorage         ErrorKind = "storage"           // Store failure, fatal to the operation
)

// Error is the tagged result returned by every service.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind when the target carries no message, and on kind and
// message otherwise. errors.Is(err, ErrNotFound) matches every not-found
// error; errors.Is(err, ErrTemplateNotFound) only that one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

// KindOf returns the kind of err, KindStorage for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// --- Error Definitions ---
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrNoActiveSession = &Error{Kind: KindNoActiveSession, Msg: "no active session"}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrStorage         = &Error{Kind: KindStorage}

	ErrTemplateNotFound    = &Error{Kind: KindNotFound, Msg: "template not found"}
	ErrSessionNotFound     = &Error{Kind: KindNotFound, Msg: "session not found"}
	ErrExerciseNotFound    = &Error{Kind: KindNotFound, Msg: "exercise not found or no active session"}
	ErrSetNotFound         = &Error{Kind: KindNotFound, Msg: "set not found or no active session"}
	ErrActiveSessionExists = &Error{Kind: KindConflict, Msg: "active session already exists"}
)

func validationError(msg string, err error) error {
	return &Error{Kind: KindValidation, Msg: msg, Err: err}
}

// storageError wraps an unexpected repository failure.
func storageError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err // Already classified, e.g. returned from inside a transaction
	}
	return &Error{Kind: KindStorage, Msg: "storage failure", Err: pkgerrors.Wrap(err, msg)}
}

// mapNotFound translates repository.ErrNotFound to the given service error.
func mapNotFound(err error, notFound error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return storageError(err, msg)
}
