package sqlstore

import (
	"alcyxob/workout-tracker/internal/domain"
	"time"
)

type UserModel struct {
	ID           int64  `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

func (m UserModel) toDomain() *domain.User {
	return &domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

type TemplateModel struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      int64  `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description *string
	CreatedAt   time.Time
}

func (TemplateModel) TableName() string { return "workout_templates" }

func (m TemplateModel) toDomain() domain.Template {
	return domain.Template{ID: m.ID, UserID: m.UserID, Name: m.Name, Description: m.Description, CreatedAt: m.CreatedAt}
}

type TemplateExerciseModel struct {
	ID         int64  `gorm:"primaryKey"`
	TemplateID int64  `gorm:"not null;index"`
	UserID     int64  `gorm:"not null"`
	Name       string `gorm:"not null"`
	OrderIndex int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
}

func (TemplateExerciseModel) TableName() string { return "template_exercises" }

func (m TemplateExerciseModel) toDomain() domain.TemplateExercise {
	return domain.TemplateExercise{ID: m.ID, TemplateID: m.TemplateID, UserID: m.UserID, Name: m.Name, OrderIndex: m.OrderIndex, CreatedAt: m.CreatedAt}
}

type TemplateSetModel struct {
	ID                 int64 `gorm:"primaryKey"`
	TemplateExerciseID int64 `gorm:"not null;index"`
	UserID             int64 `gorm:"not null"`
	SetNumber          int   `gorm:"not null;default:0"`
	Reps               *int
	WeightKg           *float64
	CreatedAt          time.Time
}

func (TemplateSetModel) TableName() string { return "template_sets" }

func (m TemplateSetModel) toDomain() domain.TemplateSet {
	return domain.TemplateSet{
		ID:                 m.ID,
		TemplateExerciseID: m.TemplateExerciseID,
		UserID:             m.UserID,
		SetNumber:          m.SetNumber,
		Reps:               m.Reps,
		WeightKg:           m.WeightKg,
		CreatedAt:          m.CreatedAt,
	}
}

type SessionModel struct {
	ID               int64 `gorm:"primaryKey"`
	UserID           int64 `gorm:"not null;index"`
	SourceTemplateID *int64
	Status           string `gorm:"not null"`
	StartedAt        time.Time
	EndedAt          *time.Time
	Title            *string
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (SessionModel) TableName() string { return "workout_sessions" }

func (m SessionModel) toDomain() domain.Session {
	return domain.Session{
		ID:               m.ID,
		UserID:           m.UserID,
		SourceTemplateID: m.SourceTemplateID,
		Status:           domain.SessionStatus(m.Status),
		StartedAt:        m.StartedAt.UTC(),
		EndedAt:          utcPtr(m.EndedAt),
		Title:            m.Title,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type ExerciseModel struct {
	ID                       int64  `gorm:"primaryKey"`
	SessionID                int64  `gorm:"not null;index"`
	UserID                   int64  `gorm:"not null"`
	Name                     string `gorm:"not null"`
	OrderIndex               int    `gorm:"not null;default:0"`
	SourceTemplateExerciseID *int64
	CreatedAt                time.Time
}

func (ExerciseModel) TableName() string { return "session_exercises" }

func (m ExerciseModel) toDomain() domain.Exercise {
	return domain.Exercise{
		ID:                       m.ID,
		SessionID:                m.SessionID,
		UserID:                   m.UserID,
		Name:                     m.Name,
		OrderIndex:               m.OrderIndex,
		SourceTemplateExerciseID: m.SourceTemplateExerciseID,
		CreatedAt:                m.CreatedAt,
	}
}

type SetModel struct {
	ID                  int64 `gorm:"primaryKey"`
	ExerciseID          int64 `gorm:"not null;index"`
	UserID              int64 `gorm:"not null"`
	SetNumber           int   `gorm:"not null;default:0"`
	Reps                *int
	WeightKg            *float64
	SourceTemplateSetID *int64
	CreatedAt           time.Time
}

func (SetModel) TableName() string { return "session_sets" }

func (m SetModel) toDomain() domain.Set {
	return domain.Set{
		ID:                  m.ID,
		ExerciseID:          m.ExerciseID,
		UserID:              m.UserID,
		SetNumber:           m.SetNumber,
		Reps:                m.Reps,
		WeightKg:            m.WeightKg,
		SourceTemplateSetID: m.SourceTemplateSetID,
		CreatedAt:           m.CreatedAt,
	}
}

// setRecordRow is the flattened join read by the analytics queries.
type setRecordRow struct {
	SessionID    int64     `gorm:"column:session_id"`
	EndedAt      time.Time `gorm:"column:ended_at"`
	ExerciseID   int64     `gorm:"column:exercise_id"`
	ExerciseName string    `gorm:"column:exercise_name"`
	SetID        int64     `gorm:"column:set_id"`
	Reps         *int      `gorm:"column:reps"`
	WeightKg     *float64  `gorm:"column:weight_kg"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
