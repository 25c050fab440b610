package sqlstore

import (
	"alcyxob/workout-tracker/internal/domain"
	"context"
	"time"

	"gorm.io/gorm"
)

const finished = string(domain.SessionFinished)

// HistoryRepository serves the analytics reads. Every query filters on
// finished sessions of one user.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) CountFinishedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int64
	err := conn(ctx, r.db).Model(&SessionModel{}).
		Where("user_id = ? AND status = ? AND ended_at >= ?", userID, finished, since.UTC()).
		Count(&count).Error
	return int(count), err
}

func (r *HistoryRepository) FinishedSetRecords(ctx context.Context, userID int64, filter domain.SetRecordFilter) ([]domain.SetRecord, error) {
	q := conn(ctx, r.db).Table("session_sets").
		Select(`workout_sessions.id AS session_id, workout_sessions.ended_at AS ended_at,
			session_exercises.id AS exercise_id, session_exercises.name AS exercise_name,
			session_sets.id AS set_id, session_sets.reps AS reps, session_sets.weight_kg AS weight_kg`).
		Joins("JOIN session_exercises ON session_exercises.id = session_sets.exercise_id").
		Joins("JOIN workout_sessions ON workout_sessions.id = session_exercises.session_id").
		Where("workout_sessions.user_id = ? AND workout_sessions.status = ?", userID, finished)
	if filter.EndedSince != nil {
		q = q.Where("workout_sessions.ended_at >= ?", filter.EndedSince.UTC())
	}
	if filter.ExerciseName != nil {
		q = q.Where("session_exercises.name = ?", *filter.ExerciseName)
	}

	rows := make([]setRecordRow, 0)
	err := q.Order("workout_sessions.ended_at ASC, workout_sessions.id ASC, session_exercises.id ASC, session_sets.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.SetRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.SetRecord{
			SessionID:    row.SessionID,
			EndedAt:      row.EndedAt.UTC(),
			ExerciseID:   row.ExerciseID,
			ExerciseName: row.ExerciseName,
			SetID:        row.SetID,
			Reps:         row.Reps,
			WeightKg:     row.WeightKg,
		})
	}
	return records, nil
}

func (r *HistoryRepository) ListFinished(ctx context.Context, userID int64, query domain.HistoryQuery) ([]domain.Session, error) {
	q := conn(ctx, r.db).Where("user_id = ? AND status = ?", userID, finished)
	if query.EndedFrom != nil && query.EndedTo != nil {
		q = q.Where("ended_at >= ? AND ended_at < ?", query.EndedFrom.UTC(), query.EndedTo.UTC())
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}

	rows := make([]SessionModel, 0)
	if err := q.Order("ended_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Session, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return result, nil
}

func (r *HistoryRepository) FinishedEndTimes(ctx context.Context, userID int64, from, to time.Time) ([]time.Time, error) {
	rows := make([]SessionModel, 0)
	err := conn(ctx, r.db).Select("id", "ended_at").
		Where("user_id = ? AND status = ? AND ended_at >= ? AND ended_at < ?", userID, finished, from.UTC(), to.UTC()).
		Order("ended_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, 0, len(rows))
	for _, m := range rows {
		if m.EndedAt != nil {
			times = append(times, m.EndedAt.UTC())
		}
	}
	return times, nil
}

func (r *HistoryRepository) GetFinishedExercise(ctx context.Context, userID, exerciseID int64) (*domain.Exercise, error) {
	var m ExerciseModel
	err := conn(ctx, r.db).
		Joins("JOIN workout_sessions ON workout_sessions.id = session_exercises.session_id").
		Where("session_exercises.id = ? AND workout_sessions.user_id = ? AND workout_sessions.status = ?", exerciseID, userID, finished).
		Take(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	e := m.toDomain()
	return &e, nil
}

func (r *HistoryRepository) DistinctFinishedExercises(ctx context.Context, userID int64) ([]domain.ExerciseRef, error) {
	type refRow struct {
		ID   int64
		Name string
	}
	rows := make([]refRow, 0)
	err := conn(ctx, r.db).Table("session_exercises").
		Select("MAX(session_exercises.id) AS id, session_exercises.name AS name").
		Joins("JOIN workout_sessions ON workout_sessions.id = session_exercises.session_id").
		Where("workout_sessions.user_id = ? AND workout_sessions.status = ?", userID, finished).
		Group("session_exercises.name").
		Order("session_exercises.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	refs := make([]domain.ExerciseRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, domain.ExerciseRef{ID: row.ID, Name: row.Name})
	}
	return refs, nil
}
