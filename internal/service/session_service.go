package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionService is the session engine: it owns the single-active-session
// rule and the exercise/set tree of the active session.
type SessionService interface {
	StartSession(ctx context.Context, userID int64, input domain.StartSessionInput) (*domain.Session, error)
	StartFromTemplate(ctx context.Context, userID, templateID int64) (*domain.SessionTree, error)
	// GetActiveSession and GetActiveSessionFull return nil, nil when the user has no active session.
	GetActiveSession(ctx context.Context, userID int64) (*domain.Session, error)
	GetActiveSessionFull(ctx context.Context, userID int64) (*domain.SessionTree, error)
	GetSessionByID(ctx context.Context, userID, sessionID int64) (*domain.SessionTree, error)

	AddExercise(ctx context.Context, userID int64, input domain.AddExerciseInput) (*domain.Exercise, error)
	AddSet(ctx context.Context, userID, exerciseID int64, input domain.AddSetInput) (*domain.Set, error)
	UpdateSet(ctx context.Context, userID, exerciseID, setID int64, input domain.UpdateSetInput) (*domain.Set, error)
	DeleteSet(ctx context.Context, userID, exerciseID, setID int64) error
	DeleteExercise(ctx context.Context, userID, exerciseID int64) error

	FinishSession(ctx context.Context, userID int64) (*domain.FinishedSession, error)
	DeleteSession(ctx context.Context, userID, sessionID int64) error
	PurgeAllWorkouts(ctx context.Context, userID int64) (int64, error)
}

// sessionService implements the SessionService interface.
type sessionService struct {
	tx           repository.Transactor
	sessionRepo  repository.SessionRepository
	templateRepo repository.TemplateRepository
	now          func() time.Time
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(
	tx repository.Transactor,
	sessionRepo repository.SessionRepository,
	templateRepo repository.TemplateRepository,
) SessionService {
	return &sessionService{
		tx:           tx,
		sessionRepo:  sessionRepo,
		templateRepo: templateRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// StartSession returns the active session if there is one, otherwise it
// starts a blank session.
func (s *sessionService) StartSession(ctx context.Context, userID int64, input domain.StartSessionInput) (*domain.Session, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var session *domain.Session
	created := false
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.sessionRepo.GetActive(ctx, userID)
		if err == nil {
			session = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return storageError(err, "get active session")
		}

		newSession := &domain.Session{
			UserID:    userID,
			Status:    domain.SessionActive,
			StartedAt: s.now(),
			Title:     input.Title,
			Notes:     input.Notes,
		}
		id, err := s.sessionRepo.Create(ctx, newSession)
		if err != nil {
			return err
		}
		newSession.ID = id
		session = newSession
		created = true
		return nil
	})
	if errors.Is(err, repository.ErrConflict) {
		// A concurrent start won the unique index; that session is the answer.
		existing, getErr := s.sessionRepo.GetActive(ctx, userID)
		if getErr != nil {
			return nil, storageError(getErr, "get active session after conflict")
		}
		return existing, nil
	}
	if err != nil {
		return nil, storageError(err, "start session")
	}

	if created {
		metrics.RecordSessionStarted(metrics.SourceBlank)
		log.Ctx(ctx).Debug().Int64("user_id", userID).Int64("session_id", session.ID).Msg("session started")
	}
	return session, nil
}

// StartFromTemplate creates a new active session that deep-copies the
// template's exercises and sets, all in one transaction.
func (s *sessionService) StartFromTemplate(ctx context.Context, userID, templateID int64) (*domain.SessionTree, error) {
	var tree *domain.SessionTree
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		template, err := s.templateRepo.GetByID(ctx, userID, templateID)
		if err != nil {
			return mapNotFound(err, ErrTemplateNotFound, "get template")
		}

		if _, err := s.sessionRepo.GetActive(ctx, userID); err == nil {
			return ErrActiveSessionExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storageError(err, "get active session")
		}

		sourceID := template.ID
		title := template.Name
		session := &domain.Session{
			UserID:           userID,
			SourceTemplateID: &sourceID,
			Status:           domain.SessionActive,
			StartedAt:        s.now(),
			Title:            &title,
			Notes:            template.Description,
		}
		session.ID, err = s.sessionRepo.Create(ctx, session)
		if errors.Is(err, repository.ErrConflict) {
			return ErrActiveSessionExists
		}
		if err != nil {
			return storageError(err, "create session")
		}

		templateTree, err := loadTemplateTree(ctx, s.templateRepo, template)
		if err != nil {
			return err
		}

		tree = &domain.SessionTree{Session: *session, Exercises: []domain.ExerciseWithSets{}}
		for _, tex := range templateTree.Exercises {
			sourceExerciseID := tex.ID
			exercise := &domain.Exercise{
				SessionID:                session.ID,
				UserID:                   userID,
				Name:                     tex.Name,
				OrderIndex:               tex.OrderIndex,
				SourceTemplateExerciseID: &sourceExerciseID,
			}
			if exercise.ID, err = s.sessionRepo.AddExercise(ctx, exercise); err != nil {
				return storageError(err, "copy template exercise")
			}

			copied := domain.ExerciseWithSets{Exercise: *exercise, Sets: []domain.Set{}}
			for _, ts := range tex.Sets {
				sourceSetID := ts.ID
				set := &domain.Set{
					ExerciseID:          exercise.ID,
					UserID:              userID,
					SetNumber:           ts.SetNumber,
					Reps:                ts.Reps,
					WeightKg:            ts.WeightKg,
					SourceTemplateSetID: &sourceSetID,
				}
				if set.ID, err = s.sessionRepo.AddSet(ctx, set); err != nil {
					return storageError(err, "copy template set")
				}
				copied.Sets = append(copied.Sets, *set)
			}
			tree.Exercises = append(tree.Exercises, copied)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "start session from template")
	}

	metrics.RecordSessionStarted(metrics.SourceTemplate)
	log.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Int64("template_id", templateID).
		Int64("session_id", tree.ID).
		Int("exercises", len(tree.Exercises)).
		Msg("session started from template")
	return tree, nil
}

func (s *sessionService) GetActiveSession(ctx context.Context, userID int64) (*domain.Session, error) {
	session, err := s.sessionRepo.GetActive(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err, "get active session")
	}
	return session, nil
}

func (s *sessionService) GetActiveSessionFull(ctx context.Context, userID int64) (*domain.SessionTree, error) {
	session, err := s.GetActiveSession(ctx, userID)
	if err != nil || session == nil {
		return nil, err
	}
	return loadSessionTree(ctx, s.sessionRepo, session)
}

// GetSessionByID returns an active or finished session owned by the user.
func (s *sessionService) GetSessionByID(ctx context.Context, userID, sessionID int64) (*domain.SessionTree, error) {
	session, err := s.sessionRepo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, mapNotFound(err, ErrSessionNotFound, "get session")
	}
	return loadSessionTree(ctx, s.sessionRepo, session)
}

func (s *sessionService) AddExercise(ctx context.Context, userID int64, input domain.AddExerciseInput) (*domain.Exercise, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var exercise *domain.Exercise
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessionRepo.GetActive(ctx, userID)
		if err != nil {
			return mapNotFound(err, ErrNoActiveSession, "get active session")
		}
		exercise = &domain.Exercise{
			SessionID:  session.ID,
			UserID:     userID,
			Name:       input.Name,
			OrderIndex: input.OrderIndex,
		}
		exercise.ID, err = s.sessionRepo.AddExercise(ctx, exercise)
		return storageError(err, "add exercise")
	})
	if err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *sessionService) AddSet(ctx context.Context, userID, exerciseID int64, input domain.AddSetInput) (*domain.Set, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var set *domain.Set
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exercise, err := s.sessionRepo.GetActiveExercise(ctx, userID, exerciseID)
		if err != nil {
			return mapNotFound(err, ErrExerciseNotFound, "get exercise")
		}
		set = &domain.Set{
			ExerciseID: exercise.ID,
			UserID:     userID,
			SetNumber:  input.SetNumber,
			Reps:       input.Reps,
			WeightKg:   input.WeightKg,
		}
		set.ID, err = s.sessionRepo.AddSet(ctx, set)
		return storageError(err, "add set")
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordSetLogged()
	return set, nil
}

// UpdateSet changes only the fields supplied in input.
func (s *sessionService) UpdateSet(ctx context.Context, userID, exerciseID, setID int64, input domain.UpdateSetInput) (*domain.Set, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var set *domain.Set
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		set, err = s.sessionRepo.GetActiveSet(ctx, userID, exerciseID, setID)
		if err != nil {
			return mapNotFound(err, ErrSetNotFound, "get set")
		}
		if input.Reps != nil {
			set.Reps = input.Reps
		}
		if input.WeightKg != nil {
			set.WeightKg = input.WeightKg
		}
		return mapNotFound(s.sessionRepo.UpdateSet(ctx, set), ErrSetNotFound, "update set")
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (s *sessionService) DeleteSet(ctx context.Context, userID, exerciseID, setID int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		set, err := s.sessionRepo.GetActiveSet(ctx, userID, exerciseID, setID)
		if err != nil {
			return mapNotFound(err, ErrSetNotFound, "get set")
		}
		return mapNotFound(s.sessionRepo.DeleteSet(ctx, set.ID), ErrSetNotFound, "delete set")
	})
}

// DeleteExercise removes an exercise of the active session and its sets.
func (s *sessionService) DeleteExercise(ctx context.Context, userID, exerciseID int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exercise, err := s.sessionRepo.GetActiveExercise(ctx, userID, exerciseID)
		if err != nil {
			return mapNotFound(err, ErrExerciseNotFound, "get exercise")
		}
		return mapNotFound(s.sessionRepo.DeleteExercise(ctx, exercise.ID), ErrExerciseNotFound, "delete exercise")
	})
}

// FinishSession moves the active session to finished and summarises it.
func (s *sessionService) FinishSession(ctx context.Context, userID int64) (*domain.FinishedSession, error) {
	var result *domain.FinishedSession
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessionRepo.GetActive(ctx, userID)
		if err != nil {
			return mapNotFound(err, ErrNoActiveSession, "get active session")
		}

		endedAt := s.now()
		if err := s.sessionRepo.Finish(ctx, userID, session.ID, endedAt); err != nil {
			return mapNotFound(err, ErrNoActiveSession, "finish session")
		}
		session.Status = domain.SessionFinished
		session.EndedAt = &endedAt
		session.UpdatedAt = endedAt

		tree, err := loadSessionTree(ctx, s.sessionRepo, session)
		if err != nil {
			return err
		}
		result = &domain.FinishedSession{Session: *session, Summary: summarize(tree)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionFinished()
	log.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Int64("session_id", result.Session.ID).
		Int("total_sets", result.Summary.TotalSets).
		Msg("session finished")
	return result, nil
}

// summarize computes the finish summary. Exercises without any set are not
// counted, and only sets with both reps and weight add to the volume.
func summarize(tree *domain.SessionTree) domain.FinishSummary {
	summary := domain.FinishSummary{}
	for _, exercise := range tree.Exercises {
		if len(exercise.Sets) > 0 {
			summary.ExercisesCount++
		}
		for i := range exercise.Sets {
			summary.TotalSets++
			if volume, ok := exercise.Sets[i].Volume(); ok {
				summary.TotalVolume += volume
			}
		}
	}
	if tree.EndedAt != nil && !tree.StartedAt.IsZero() {
		seconds := int64(tree.EndedAt.Sub(tree.StartedAt).Seconds())
		summary.DurationSeconds = &seconds
	}
	return summary
}

// DeleteSession removes a session in any state with its exercises and sets.
func (s *sessionService) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.sessionRepo.GetByID(ctx, userID, sessionID); err != nil {
			return mapNotFound(err, ErrSessionNotFound, "get session")
		}
		return mapNotFound(s.sessionRepo.Delete(ctx, userID, sessionID), ErrSessionNotFound, "delete session")
	})
}

// PurgeAllWorkouts deletes every session of the user and returns how many
// sessions were removed.
func (s *sessionService) PurgeAllWorkouts(ctx context.Context, userID int64) (int64, error) {
	var deleted int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.sessionRepo.DeleteAllByUser(ctx, userID)
		return storageError(err, "purge workouts")
	})
	if err != nil {
		return 0, err
	}
	log.Ctx(ctx).Info().Int64("user_id", userID).Int64("deleted_sessions", deleted).Msg("workouts purged")
	return deleted, nil
}
