package sqlstore

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"time"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *domain.Template) (int64, error) {
	m := TemplateModel{
		UserID:      template.UserID,
		Name:        template.Name,
		Description: template.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return 0, err
	}
	template.ID = m.ID
	template.CreatedAt = m.CreatedAt
	return m.ID, nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Template, error) {
	var m TemplateModel
	if err := conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Take(&m).Error; err != nil {
		return nil, notFound(err)
	}
	t := m.toDomain()
	return &t, nil
}

func (r *TemplateRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Template, error) {
	rows := make([]TemplateModel, 0)
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Template, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return result, nil
}

func (r *TemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	res := conn(ctx, r.db).Model(&TemplateModel{}).
		Where("id = ? AND user_id = ?", template.ID, template.UserID).
		Updates(map[string]interface{}{"name": template.Name, "description": template.Description})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, userID, id int64) error {
	db := conn(ctx, r.db)
	var m TemplateModel
	if err := db.Where("id = ? AND user_id = ?", id, userID).Take(&m).Error; err != nil {
		return notFound(err)
	}
	if _, err := r.deleteExercises(db, m.ID); err != nil {
		return err
	}
	return db.Delete(&TemplateModel{}, m.ID).Error
}

func (r *TemplateRepository) AddExercise(ctx context.Context, exercise *domain.TemplateExercise) (int64, error) {
	m := TemplateExerciseModel{
		TemplateID: exercise.TemplateID,
		UserID:     exercise.UserID,
		Name:       exercise.Name,
		OrderIndex: exercise.OrderIndex,
		CreatedAt:  time.Now().UTC(),
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return 0, err
	}
	exercise.ID = m.ID
	exercise.CreatedAt = m.CreatedAt
	return m.ID, nil
}

func (r *TemplateRepository) ListExercises(ctx context.Context, templateID int64) ([]domain.TemplateExercise, error) {
	rows := make([]TemplateExerciseModel, 0)
	if err := conn(ctx, r.db).Where("template_id = ?", templateID).Order("order_index ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.TemplateExercise, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return result, nil
}

func (r *TemplateRepository) DeleteExercises(ctx context.Context, templateID int64) (int64, error) {
	return r.deleteExercises(conn(ctx, r.db), templateID)
}

// deleteExercises removes the sets first so the cascade does not depend on
// the foreign_keys pragma.
func (r *TemplateRepository) deleteExercises(db *gorm.DB, templateID int64) (int64, error) {
	exerciseIDs := db.Model(&TemplateExerciseModel{}).Select("id").Where("template_id = ?", templateID)
	if err := db.Where("template_exercise_id IN (?)", exerciseIDs).Delete(&TemplateSetModel{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("template_id = ?", templateID).Delete(&TemplateExerciseModel{})
	return res.RowsAffected, res.Error
}

func (r *TemplateRepository) AddSet(ctx context.Context, set *domain.TemplateSet) (int64, error) {
	m := TemplateSetModel{
		TemplateExerciseID: set.TemplateExerciseID,
		UserID:             set.UserID,
		SetNumber:          set.SetNumber,
		Reps:               set.Reps,
		WeightKg:           set.WeightKg,
		CreatedAt:          time.Now().UTC(),
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return 0, err
	}
	set.ID = m.ID
	set.CreatedAt = m.CreatedAt
	return m.ID, nil
}

func (r *TemplateRepository) ListSets(ctx context.Context, templateExerciseIDs []int64) ([]domain.TemplateSet, error) {
	if len(templateExerciseIDs) == 0 {
		return []domain.TemplateSet{}, nil
	}
	rows := make([]TemplateSetModel, 0)
	if err := conn(ctx, r.db).Where("template_exercise_id IN ?", templateExerciseIDs).
		Order("template_exercise_id ASC, set_number ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.TemplateSet, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.toDomain())
	}
	return result, nil
}
