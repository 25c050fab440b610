package domain

import (
	"time"
)

// SessionStatus tracks the lifecycle of a workout session.
type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionFinished SessionStatus = "finished" // Terminal
)

// Session is one performed (or in-progress) workout.
type Session struct {
	ID               int64         `bson:"_id" json:"id"`
	UserID           int64         `bson:"userId" json:"-"`
	SourceTemplateID *int64        `bson:"sourceTemplateId,omitempty" json:"source_template_id"` // Provenance only, never enforced
	Status           SessionStatus `bson:"status" json:"status"`
	StartedAt        time.Time     `bson:"startedAt" json:"started_at"`
	EndedAt          *time.Time    `bson:"endedAt,omitempty" json:"ended_at"` // Set iff status is finished
	Title            *string       `bson:"title,omitempty" json:"title"`
	Notes            *string       `bson:"notes,omitempty" json:"notes"`
	CreatedAt        time.Time     `bson:"createdAt" json:"created_at"`
	UpdatedAt        time.Time     `bson:"updatedAt" json:"updated_at"`
}

// IsActive reports whether the session can still be modified.
func (s *Session) IsActive() bool {
	return s.Status == SessionActive
}

// Exercise is a session-scoped exercise.
type Exercise struct {
	ID                       int64     `bson:"_id" json:"id"`
	SessionID                int64     `bson:"sessionId" json:"session_id"`
	UserID                   int64     `bson:"userId" json:"-"` // Denormalized for ownership filters
	Name                     string    `bson:"name" json:"name"`
	OrderIndex               int       `bson:"orderIndex" json:"order_index"`
	SourceTemplateExerciseID *int64    `bson:"sourceTemplateExerciseId,omitempty" json:"source_template_exercise_id"`
	CreatedAt                time.Time `bson:"createdAt" json:"created_at"`
}

// Set is one performed set of an exercise.
type Set struct {
	ID                  int64     `bson:"_id" json:"id"`
	ExerciseID          int64     `bson:"exerciseId" json:"exercise_id"`
	UserID              int64     `bson:"userId" json:"-"`
	SetNumber           int       `bson:"setNumber" json:"set_number"`
	Reps                *int      `bson:"reps,omitempty" json:"reps"`
	WeightKg            *float64  `bson:"weightKg,omitempty" json:"weight_kg"`
	SourceTemplateSetID *int64    `bson:"sourceTemplateSetId,omitempty" json:"source_template_set_id"`
	CreatedAt           time.Time `bson:"createdAt" json:"created_at"`
}

// Volume returns weight × reps, and false when either field is missing.
func (s *Set) Volume() (float64, bool) {
	if s.Reps == nil || s.WeightKg == nil {
		return 0, false
	}
	return *s.WeightKg * float64(*s.Reps), true
}

// ExerciseWithSets is an exercise with its sets ordered by (set_number, id).
type ExerciseWithSets struct {
	Exercise
	Sets []Set `json:"sets"`
}

// SessionTree is a session with its exercises ordered by (order_index, id).
type SessionTree struct {
	Session
	Exercises []ExerciseWithSets `json:"exercises"`
}

// FinishSummary is computed when a session is finished.
type FinishSummary struct {
	ExercisesCount  int     `json:"exercises_count"`
	TotalSets       int     `json:"total_sets"`
	TotalVolume     float64 `json:"total_volume"`
	DurationSeconds *int64  `json:"duration_seconds"`
}

// FinishedSession pairs the finished session with its summary.
type FinishedSession struct {
	Session Session       `json:"session"`
	Summary FinishSummary `json:"summary"`
}

// --- Inputs ---

// StartSessionInput is the optional payload of a blank session start.
type StartSessionInput struct {
	Title *string `json:"title" validate:"omitempty,max=100"`
	Notes *string `json:"notes"`
}

// AddExerciseInput adds an exercise to the active session.
type AddExerciseInput struct {
	Name       string `json:"name" validate:"required,max=120"`
	OrderIndex int    `json:"order_index"`
}

// AddSetInput logs a set on an exercise of the active session.
type AddSetInput struct {
	SetNumber int      `json:"set_number"`
	Reps      *int     `json:"reps" validate:"omitempty,min=0"`
	WeightKg  *float64 `json:"weight_kg" validate:"omitempty,min=0"`
}

// UpdateSetInput is a partial update; nil fields are left unchanged.
type UpdateSetInput struct {
	Reps     *int     `json:"reps" validate:"omitempty,min=0"`
	WeightKg *float64 `json:"weight_kg" validate:"omitempty,min=0"`
}
