// internal/domain/template.go
package domain

import (
	"time"
)

// Template is a reusable workout blueprint owned by one user.
type Template struct {
	ID          int64     `bson:"_id" json:"id"`
	UserID      int64     `bson:"userId" json:"-"`
	Name        string    `bson:"name" json:"name"`
	Description *string   `bson:"description,omitempty" json:"description"`
	CreatedAt   time.Time `bson:"createdAt" json:"created_at"`
}

// TemplateExercise is one planned exercise of a template.
type TemplateExercise struct {
	ID         int64     `bson:"_id" json:"id"`
	TemplateID int64     `bson:"templateId" json:"template_id"`
	UserID     int64     `bson:"userId" json:"-"` // Denormalized for ownership filters
	Name       string    `bson:"name" json:"name"`
	OrderIndex int       `bson:"orderIndex" json:"order_index"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
}

// TemplateSet is a planned (target) set of a template exercise.
type TemplateSet struct {
	ID                 int64     `bson:"_id" json:"id"`
	TemplateExerciseID int64     `bson:"templateExerciseId" json:"template_exercise_id"`
	UserID             int64     `bson:"userId" json:"-"`
	SetNumber          int       `bson:"setNumber" json:"set_number"`
	Reps               *int      `bson:"reps,omitempty" json:"reps"`
	WeightKg           *float64  `bson:"weightKg,omitempty" json:"weight_kg"`
	CreatedAt          time.Time `bson:"createdAt" json:"created_at"`
}

// TemplateExerciseWithSets is a template exercise with its sets in display order.
type TemplateExerciseWithSets struct {
	TemplateExercise
	Sets []TemplateSet `json:"sets"`
}

// TemplateTree is a template with its whole exercise/set structure.
type TemplateTree struct {
	Template
	Exercises []TemplateExerciseWithSets `json:"exercises"`
}

// --- Inputs ---

// CreateTemplateInput is the payload for creating an empty template.
type CreateTemplateInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// UpdateTemplateInput patches a template. Name and Description change only
// when non-nil. Exercises, when non-nil (an empty JSON array included),
// replaces the whole exercise tree of the template.
type UpdateTemplateInput struct {
	Name        *string                 `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string                 `json:"description" validate:"omitempty,max=255"`
	Exercises   []TemplateExerciseInput `json:"exercises" validate:"omitempty,dive"`
}

// TemplateExerciseInput is one exercise of a full template replacement.
type TemplateExerciseInput struct {
	Name       string             `json:"name" validate:"required,max=120"`
	OrderIndex *int               `json:"order_index" validate:"required"`
	Sets       []TemplateSetInput `json:"sets" validate:"omitempty,dive"`
}

// TemplateSetInput is one target set of a full template replacement.
type TemplateSetInput struct {
	SetNumber      *int     `json:"set_number" validate:"required"`
	TargetReps     *int     `json:"target_reps" validate:"omitempty,min=0"`
	TargetWeightKg *float64 `json:"target_weight_kg" validate:"omitempty,min=0"`
}

// AddTemplateExerciseInput appends one exercise to a template.
type AddTemplateExerciseInput struct {
	Name       string `json:"name" validate:"required,max=120"`
	OrderIndex int    `json:"order_index"`
}

// TemplateFromSessionInput names the template captured from the active session.
type TemplateFromSessionInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}
