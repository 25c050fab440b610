package repository

import (
	"alcyxob/workout-tracker/internal/domain" // Import our defined domain models
	"context"                                 // Standard for request-scoped deadlines, cancellation signals, etc.
	"time"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflict") // Unique constraint, e.g. a second active session
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn as one atomic unit of work. Repository calls made with
// the ctx handed to fn take part in the transaction. Nested calls join the
// outer transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (int64, error) // ErrConflict on duplicate email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// TemplateRepository defines the interface for workout templates and their
// nested exercises and sets. Every lookup is scoped to the owning user.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (int64, error)
	GetByID(ctx context.Context, userID, id int64) (*domain.Template, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Template, error) // created_at desc
	Update(ctx context.Context, template *domain.Template) error             // name and description
	Delete(ctx context.Context, userID, id int64) error                      // cascades exercises and sets

	AddExercise(ctx context.Context, exercise *domain.TemplateExercise) (int64, error)
	ListExercises(ctx context.Context, templateID int64) ([]domain.TemplateExercise, error) // (order_index, id)
	DeleteExercises(ctx context.Context, templateID int64) (int64, error)                   // cascades sets

	AddSet(ctx context.Context, set *domain.TemplateSet) (int64, error)
	ListSets(ctx context.Context, templateExerciseIDs []int64) ([]domain.TemplateSet, error) // (set_number, id)
}

// SessionRepository defines the interface for workout sessions and their
// exercises and sets.
type SessionRepository interface {
	// Create returns ErrConflict when the user already has an active session.
	Create(ctx context.Context, session *domain.Session) (int64, error)
	GetActive(ctx context.Context, userID int64) (*domain.Session, error)
	GetByID(ctx context.Context, userID, id int64) (*domain.Session, error)
	// Finish moves an active session to finished; ErrNotFound if it is not active.
	Finish(ctx context.Context, userID, id int64, endedAt time.Time) error
	Delete(ctx context.Context, userID, id int64) error          // cascades exercises and sets
	DeleteAllByUser(ctx context.Context, userID int64) (int64, error) // returns deleted sessions

	AddExercise(ctx context.Context, exercise *domain.Exercise) (int64, error)
	// GetActiveExercise finds an exercise of the user's active session.
	GetActiveExercise(ctx context.Context, userID, exerciseID int64) (*domain.Exercise, error)
	ListExercises(ctx context.Context, sessionID int64) ([]domain.Exercise, error) // (order_index, id)
	DeleteExercise(ctx context.Context, exerciseID int64) error                   // cascades sets
	// DeleteExercisesByName removes every exercise of the user whose name
	// matches case-insensitively, in any session, with their sets.
	DeleteExercisesByName(ctx context.Context, userID int64, name string) (exercises int64, sets int64, err error)

	AddSet(ctx context.Context, set *domain.Set) (int64, error)
	// GetActiveSet finds a set of an exercise of the user's active session.
	GetActiveSet(ctx context.Context, userID, exerciseID, setID int64) (*domain.Set, error)
	UpdateSet(ctx context.Context, set *domain.Set) error // reps and weight
	DeleteSet(ctx context.Context, setID int64) error
	ListSets(ctx context.Context, exerciseIDs []int64) ([]domain.Set, error) // (exercise_id, set_number, id)
}

// HistoryRepository is the read side used by the analytics engine. It only
// ever returns data of finished sessions.
type HistoryRepository interface {
	CountFinishedSince(ctx context.Context, userID int64, since time.Time) (int, error)
	// FinishedSetRecords returns records ordered by (ended_at, session id, exercise id, set id).
	FinishedSetRecords(ctx context.Context, userID int64, filter domain.SetRecordFilter) ([]domain.SetRecord, error)
	ListFinished(ctx context.Context, userID int64, query domain.HistoryQuery) ([]domain.Session, error) // ended_at desc, id desc
	FinishedEndTimes(ctx context.Context, userID int64, from, to time.Time) ([]time.Time, error)       // from <= ended_at < to
	GetFinishedExercise(ctx context.Context, userID, exerciseID int64) (*domain.Exercise, error)
	DistinctFinishedExercises(ctx context.Context, userID int64) ([]domain.ExerciseRef, error) // name asc, max id
}
