package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
)

// loadSessionTree attaches exercises (order_index, id) and their sets
// (set_number, id) to the session. Ordering comes from the repository.
func loadSessionTree(ctx context.Context, repo repository.SessionRepository, session *domain.Session) (*domain.SessionTree, error) {
	exercises, err := repo.ListExercises(ctx, session.ID)
	if err != nil {
		return nil, storageError(err, "list session exercises")
	}

	ids := make([]int64, len(exercises))
	for i, e := range exercises {
		ids[i] = e.ID
	}
	setsByExercise := make(map[int64][]domain.Set, len(exercises))
	if len(ids) > 0 {
		sets, err := repo.ListSets(ctx, ids)
		if err != nil {
			return nil, storageError(err, "list session sets")
		}
		for _, set := range sets {
			setsByExercise[set.ExerciseID] = append(setsByExercise[set.ExerciseID], set)
		}
	}

	tree := &domain.SessionTree{Session: *session, Exercises: make([]domain.ExerciseWithSets, 0, len(exercises))}
	for _, e := range exercises {
		sets := setsByExercise[e.ID]
		if sets == nil {
			sets = []domain.Set{}
		}
		tree.Exercises = append(tree.Exercises, domain.ExerciseWithSets{Exercise: e, Sets: sets})
	}
	return tree, nil
}

// loadTemplateTree is loadSessionTree for templates.
func loadTemplateTree(ctx context.Context, repo repository.TemplateRepository, template *domain.Template) (*domain.TemplateTree, error) {
	exercises, err := repo.ListExercises(ctx, template.ID)
	if err != nil {
		return nil, storageError(err, "list template exercises")
	}

	ids := make([]int64, len(exercises))
	for i, e := range exercises {
		ids[i] = e.ID
	}
	setsByExercise := make(map[int64][]domain.TemplateSet, len(exercises))
	if len(ids) > 0 {
		sets, err := repo.ListSets(ctx, ids)
		if err != nil {
			return nil, storageError(err, "list template sets")
		}
		for _, set := range sets {
			setsByExercise[set.TemplateExerciseID] = append(setsByExercise[set.TemplateExerciseID], set)
		}
	}

	tree := &domain.TemplateTree{Template: *template, Exercises: make([]domain.TemplateExerciseWithSets, 0, len(exercises))}
	for _, e := range exercises {
		sets := setsByExercise[e.ID]
		if sets == nil {
			sets = []domain.TemplateSet{}
		}
		tree.Exercises = append(tree.Exercises, domain.TemplateExerciseWithSets{TemplateExercise: e, Sets: sets})
	}
	return tree, nil
}
