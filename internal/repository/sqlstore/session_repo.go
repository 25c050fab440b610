package sqlstore

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create relies on the partial unique index over active sessions.
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) (int64, error) {
	now := time.Now().UTC()
	m := SessionModel{
		UserID:           session.UserID,
		SourceTemplateID: session.SourceTemplateID,
		Status:           string(session.Status),
		StartedAt:        session.StartedAt.UTC(),
		EndedAt:          utcPtr(session.EndedAt),
		Title:            session.Title,
		Notes:            session.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrConflict
		}
		return 0, err
	}
	session.ID = m.ID
	session.CreatedAt = now
	session.UpdatedAt = now
	return m.ID, nil
}

func (r *SessionRepository) GetActive(ctx context.Context, userID int64) (*domain.Session, error) {
	var m SessionModel
	err := conn(ctx, r.db).Where("user_id = ? AND status = ?", userID, string(domain.SessionActive)).Take(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	s := m.toDomain()
	return &s, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Session, error) {
	var m SessionModel
	if err := conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Take(&m).Error; err != nil {
		return nil, notFound(err)
	}
	s := m.toDomain()
	return &s, nil
}

func (r *SessionRepository) Finish(ctx context.Context, userID, id int64, endedAt time.Time) error {
	res := conn(ctx, r.db).Model(&SessionModel{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, string(domain.SessionActive)).
		Updates(map[string]interface{}{
			"status":     string(domain.SessionFinished),
			"ended_at":   endedAt.UTC(),
			"updated_at": endedAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID, id int64) error {
	db := conn(ctx, r.db)
	var m SessionModel
	if err := db.Where("id = ? AND user_id = ?", id, userID).Take(&m).Error; err != nil {
		return notFound(err)
	}
	exerciseIDs := db.Model(&ExerciseModel{}).Select("id").Where("session_id = ?", m.ID)
	if err := db.Where("exercise_id IN (?)", exerciseIDs).Delete(&SetModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("session_id = ?", m.ID).Delete(&ExerciseModel{}).Error; err != nil {
		return err
	}
	return db.Delete(&SessionModel{}, m.ID).Error
}

func (r *SessionRepository) DeleteAllByUser(ctx context.Context, userID int64) (int64, error) {
	db := conn(ctx, r.db)
	if err := db.Where("user_id = ?", userID).Delete(&SetModel{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("user_id = ?", userID).Delete(&ExerciseModel{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("user_id = ?", userID).Delete(&SessionModel{})
	return res.RowsAffected, res.Error
}

func (r *SessionRepository) AddExercise(ctx context.Context, exercise *domain.Exercise) (int64, error) {
	m := ExerciseModel{
		SessionID:                exercise.SessionID,
		UserID:                   exercise.UserID,
		Name:                     exercise.Name,
		OrderIndex:               exercise.OrderIndex,
		SourceTemplateExerciseID: exercise.SourceTemplateExerciseID,
		CreatedAt:                time.Now().UTC(),
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return 0, err
	}
	exercise.ID = m.ID
	exercise.CreatedAt = m.CreatedAt
	return m.ID, nil
}

func (r *SessionRepository) GetActiveExercise(ctx context.Context, userID, exerciseID int64) (*domain.Exercise, error) {
	var m ExerciseModel
	err := conn(ctx, r.db).
		Joins("JOIN workout_sessions ON workout_sessions.id = session_exercises.session_id").
		Where("session_exercises.id = ? AND workout_sessions.user_id = ? AND workout_sessions.status = ?",
			exerciseID, userID, string(domain.SessionActive)).
		Take(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	e := m.toDomain()
	return &e, nil
}

func (r *SessionRepository) ListExercises(ctx context.Context, sessionID int64) ([]domain.Exercise, error) {
	rows := make([]ExerciseModel, 0)
	if err := conn(ctx, r.db).Where("session_id = ?", sessionID).Order("order_index ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Exercise, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return result, nil
}

func (r *SessionRepository) DeleteExercise(ctx context.Context, exerciseID int64) error {
	db := conn(ctx, r.db)
	if err := db.Where("exercise_id = ?", exerciseID).Delete(&SetModel{}).Error; err != nil {
		return err
	}
	res := db.Delete(&ExerciseModel{}, exerciseID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteExercisesByName folds case in Go: SQLite's LOWER only handles ASCII.
func (r *SessionRepository) DeleteExercisesByName(ctx context.Context, userID int64, name string) (int64, int64, error) {
	db := conn(ctx, r.db)
	candidates := make([]ExerciseModel, 0)
	if err := db.Select("id", "name").Where("user_id = ?", userID).Find(&candidates).Error; err != nil {
		return 0, 0, err
	}
	ids := make([]int64, 0)
	for _, m := range candidates {
		if strings.EqualFold(m.Name, name) {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	sets := db.Where("exercise_id IN ?", ids).Delete(&SetModel{})
	if sets.Error != nil {
		return 0, 0, sets.Error
	}
	exercises := db.Where("id IN ?", ids).Delete(&ExerciseModel{})
	if exercises.Error != nil {
		return 0, 0, exercises.Error
	}
	return exercises.RowsAffected, sets.RowsAffected, nil
}

func (r *SessionRepository) AddSet(ctx context.Context, set *domain.Set) (int64, error) {
	m := SetModel{
		ExerciseID:          set.ExerciseID,
		UserID:              set.UserID,
		SetNumber:           set.SetNumber,
		Reps:                set.Reps,
		WeightKg:            set.WeightKg,
		SourceTemplateSetID: set.SourceTemplateSetID,
		CreatedAt:           time.Now().UTC(),
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return 0, err
	}
	set.ID = m.ID
	set.CreatedAt = m.CreatedAt
	return m.ID, nil
}

func (r *SessionRepository) GetActiveSet(ctx context.Context, userID, exerciseID, setID int64) (*domain.Set, error) {
	var m SetModel
	err := conn(ctx, r.db).
		Joins("JOIN session_exercises ON session_exercises.id = session_sets.exercise_id").
		Joins("JOIN workout_sessions ON workout_sessions.id = session_exercises.session_id").
		Where("session_sets.id = ? AND session_sets.exercise_id = ? AND workout_sessions.user_id = ? AND workout_sessions.status = ?",
			setID, exerciseID, userID, string(domain.SessionActive)).
		Take(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	s := m.toDomain()
	return &s, nil
}

func (r *SessionRepository) UpdateSet(ctx context.Context, set *domain.Set) error {
	res := conn(ctx, r.db).Model(&SetModel{}).Where("id = ?", set.ID).
		Updates(map[string]interface{}{"reps": set.Reps, "weight_kg": set.WeightKg})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteSet(ctx context.Context, setID int64) error {
	res := conn(ctx, r.db).Delete(&SetModel{}, setID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) ListSets(ctx context.Context, exerciseIDs []int64) ([]domain.Set, error) {
	if len(exerciseIDs) == 0 {
		return []domain.Set{}, nil
	}
	rows := make([]SetModel, 0)
	if err := conn(ctx, r.db).Where("exercise_id IN ?", exerciseIDs).
		Order("exercise_id ASC, set_number ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Set, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return result, nil
}
