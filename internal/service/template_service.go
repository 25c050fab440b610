package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// TemplateService is the template catalog.
type TemplateService interface {
	ListTemplates(ctx context.Context, userID int64) ([]domain.Template, error)
	GetTemplate(ctx context.Context, userID, templateID int64) (*domain.TemplateTree, error)
	CreateTemplate(ctx context.Context, userID int64, input domain.CreateTemplateInput) (*domain.Template, error)
	UpdateTemplate(ctx context.Context, userID, templateID int64, input domain.UpdateTemplateInput) (*domain.TemplateTree, error)
	DeleteTemplate(ctx context.Context, userID, templateID int64) error
	AddExerciseToTemplate(ctx context.Context, userID, templateID int64, input domain.AddTemplateExerciseInput) (*domain.TemplateExercise, error)
	CreateTemplateFromActiveSession(ctx context.Context, userID int64, input domain.TemplateFromSessionInput) (*domain.TemplateTree, error)
}

// templateService implements the TemplateService interface.
type templateService struct {
	tx           repository.Transactor
	templateRepo repository.TemplateRepository
	sessionRepo  repository.SessionRepository // Source of snapshots
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(
	tx repository.Transactor,
	templateRepo repository.TemplateRepository,
	sessionRepo repository.SessionRepository,
) TemplateService {
	return &templateService{
		tx:           tx,
		templateRepo: templateRepo,
		sessionRepo:  sessionRepo,
	}
}

// ListTemplates returns the user's templates, newest first.
func (s *templateService) ListTemplates(ctx context.Context, userID int64) ([]domain.Template, error) {
	templates, err := s.templateRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err, "list templates")
	}
	if templates == nil {
		templates = []domain.Template{}
	}
	return templates, nil
}

func (s *templateService) GetTemplate(ctx context.Context, userID, templateID int64) (*domain.TemplateTree, error) {
	template, err := s.templateRepo.GetByID(ctx, userID, templateID)
	if err != nil {
		return nil, mapNotFound(err, ErrTemplateNotFound, "get template")
	}
	return loadTemplateTree(ctx, s.templateRepo, template)
}

func (s *templateService) CreateTemplate(ctx context.Context, userID int64, input domain.CreateTemplateInput) (*domain.Template, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	template := &domain.Template{
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
	}
	id, err := s.templateRepo.Create(ctx, template)
	if err != nil {
		return nil, storageError(err, "create template")
	}
	template.ID = id
	return template, nil
}

// UpdateTemplate patches name and description. A non-nil Exercises list is a
// destructive full replacement: every existing exercise and set of the
// template is deleted before the new tree is inserted. Callers must resend
// the whole list to keep an exercise.
func (s *templateService) UpdateTemplate(ctx context.Context, userID, templateID int64, input domain.UpdateTemplateInput) (*domain.TemplateTree, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, validationError("name must not be empty", nil)
	}

	var tree *domain.TemplateTree
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		template, err := s.templateRepo.GetByID(ctx, userID, templateID)
		if err != nil {
			return mapNotFound(err, ErrTemplateNotFound, "get template")
		}

		if input.Name != nil || input.Description != nil {
			if input.Name != nil {
				template.Name = *input.Name
			}
			if input.Description != nil {
				template.Description = input.Description
			}
			if err := s.templateRepo.Update(ctx, template); err != nil {
				return mapNotFound(err, ErrTemplateNotFound, "update template")
			}
		}

		if input.Exercises != nil {
			if err := s.replaceExercises(ctx, template, input.Exercises); err != nil {
				return err
			}
		}

		tree, err = loadTemplateTree(ctx, s.templateRepo, template)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// replaceExercises must run inside a transaction.
func (s *templateService) replaceExercises(ctx context.Context, template *domain.Template, exercises []domain.TemplateExerciseInput) error {
	removed, err := s.templateRepo.DeleteExercises(ctx, template.ID)
	if err != nil {
		return storageError(err, "delete template exercises")
	}

	for _, in := range exercises {
		exercise := &domain.TemplateExercise{
			TemplateID: template.ID,
			UserID:     template.UserID,
			Name:       in.Name,
			OrderIndex: *in.OrderIndex,
		}
		if exercise.ID, err = s.templateRepo.AddExercise(ctx, exercise); err != nil {
			return storageError(err, "add template exercise")
		}
		for _, setIn := range in.Sets {
			set := &domain.TemplateSet{
				TemplateExerciseID: exercise.ID,
				UserID:             template.UserID,
				SetNumber:          *setIn.SetNumber,
				Reps:               setIn.TargetReps,
				WeightKg:           setIn.TargetWeightKg,
			}
			if _, err := s.templateRepo.AddSet(ctx, set); err != nil {
				return storageError(err, "add template set")
			}
		}
	}

	metrics.RecordTemplateReplaced()
	log.Ctx(ctx).Debug().
		Int64("template_id", template.ID).
		Int64("removed_exercises", removed).
		Int("inserted_exercises", len(exercises)).
		Msg("template exercises replaced")
	return nil
}

// DeleteTemplate removes the template with its exercises and sets. Sessions
// started from it keep their copies.
func (s *templateService) DeleteTemplate(ctx context.Context, userID, templateID int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return mapNotFound(s.templateRepo.Delete(ctx, userID, templateID), ErrTemplateNotFound, "delete template")
	})
}

func (s *templateService) AddExerciseToTemplate(ctx context.Context, userID, templateID int64, input domain.AddTemplateExerciseInput) (*domain.TemplateExercise, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var exercise *domain.TemplateExercise
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		template, err := s.templateRepo.GetByID(ctx, userID, templateID)
		if err != nil {
			return mapNotFound(err, ErrTemplateNotFound, "get template")
		}
		exercise = &domain.TemplateExercise{
			TemplateID: template.ID,
			UserID:     userID,
			Name:       input.Name,
			OrderIndex: input.OrderIndex,
		}
		exercise.ID, err = s.templateRepo.AddExercise(ctx, exercise)
		return storageError(err, "add template exercise")
	})
	if err != nil {
		return nil, err
	}
	return exercise, nil
}

// CreateTemplateFromActiveSession snapshots the active session (exercises in
// display order with their sets) into a new template. Provenance ids are not
// kept on the template side.
func (s *templateService) CreateTemplateFromActiveSession(ctx context.Context, userID int64, input domain.TemplateFromSessionInput) (*domain.TemplateTree, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var tree *domain.TemplateTree
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessionRepo.GetActive(ctx, userID)
		if err != nil {
			return mapNotFound(err, ErrNoActiveSession, "get active session")
		}
		sessionTree, err := loadSessionTree(ctx, s.sessionRepo, session)
		if err != nil {
			return err
		}

		template := &domain.Template{
			UserID:      userID,
			Name:        input.Name,
			Description: input.Description,
		}
		if template.ID, err = s.templateRepo.Create(ctx, template); err != nil {
			return storageError(err, "create template")
		}

		tree = &domain.TemplateTree{Template: *template, Exercises: []domain.TemplateExerciseWithSets{}}
		for _, ex := range sessionTree.Exercises {
			tex := &domain.TemplateExercise{
				TemplateID: template.ID,
				UserID:     userID,
				Name:       ex.Name,
				OrderIndex: ex.OrderIndex,
			}
			if tex.ID, err = s.templateRepo.AddExercise(ctx, tex); err != nil {
				return storageError(err, "copy exercise")
			}

			copied := domain.TemplateExerciseWithSets{TemplateExercise: *tex, Sets: []domain.TemplateSet{}}
			for _, set := range ex.Sets {
				ts := &domain.TemplateSet{
					TemplateExerciseID: tex.ID,
					UserID:             userID,
					SetNumber:          set.SetNumber,
					Reps:               set.Reps,
					WeightKg:           set.WeightKg,
				}
				if ts.ID, err = s.templateRepo.AddSet(ctx, ts); err != nil {
					return storageError(err, "copy set")
				}
				copied.Sets = append(copied.Sets, *ts)
			}
			tree.Exercises = append(tree.Exercises, copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}
