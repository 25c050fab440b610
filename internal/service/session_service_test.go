package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessionReturnsExistingActiveSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")

	active, err := env.sessions.GetActiveSession(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, active, "no session yet")

	first, err := env.sessions.StartSession(ctx, userID, domain.StartSessionInput{Title: strPtr("Push day")})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, first.Status)
	assert.True(t, env.clock.Now().Equal(first.StartedAt))

	second, err := env.sessions.StartSession(ctx, userID, domain.StartSessionInput{Title: strPtr("Other")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Title)
	assert.Equal(t, "Push day", *second.Title, "the existing session is returned unchanged")

	active, err = env.sessions.GetActiveSession(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)
}

func TestStartSessionRejectsLongTitle(t *testing.T) {
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")

	long := strings.Repeat("a", 101)
	_, err := env.sessions.StartSession(context.Background(), userID, domain.StartSessionInput{Title: &long})
	assert.Equal(t, KindValidation, KindOf(err))
}

func createTemplateWithExercises(t *testing.T, env *testEnv, userID int64) *domain.TemplateTree {
	t.Helper()
	ctx := context.Background()
	template, err := env.templates.CreateTemplate(ctx, userID, domain.CreateTemplateInput{Name: "Legs", Description: strPtr("heavy")})
	require.NoError(t, err)

	tree, err := env.templates.UpdateTemplate(ctx, userID, template.ID, domain.UpdateTemplateInput{
		Exercises: []domain.TemplateExerciseInput{
			{Name: "Squat", OrderIndex: intPtr(1), Sets: []domain.TemplateSetInput{
				{SetNumber: intPtr(1), TargetReps: intPtr(5), TargetWeightKg: floatPtr(100)},
				{SetNumber: intPtr(2), TargetReps: intPtr(5), TargetWeightKg: floatPtr(110)},
			}},
			{Name: "Lunge", OrderIndex: intPtr(0), Sets: []domain.TemplateSetInput{
				{SetNumber: intPtr(1), TargetReps: intPtr(12)},
			}},
		},
	})
	require.NoError(t, err)
	return tree
}

func TestStartFromTemplateCopiesTree(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")
	template := createTemplateWithExercises(t, env, userID)
	require.Len(t, template.Exercises, 2)

	session, err := env.sessions.StartFromTemplate(ctx, userID, template.ID)
	require.NoError(t, err)
	require.NotNil(t, session.SourceTemplateID)
	assert.Equal(t, template.ID, *session.SourceTemplateID)
	require.NotNil(t, session.Title)
	assert.Equal(t, "Legs", *session.Title)
	require.NotNil(t, session.Notes)
	assert.Equal(t, "heavy", *session.Notes)

	require.Len(t, session.Exercises, 2)
	lunge, squat := session.Exercises[0], session.Exercises[1]
	assert.Equal(t, "Lunge", lunge.Name)
	assert.Equal(t, "Squat", squat.Name)
	require.NotNil(t, squat.SourceTemplateExerciseID)
	assert.Equal(t, template.Exercises[1].ID, *squat.SourceTemplateExerciseID)
	require.Len(t, squat.Sets, 2)
	assert.Equal(t, 110.0, *squat.Sets[1].WeightKg)
	require.NotNil(t, squat.Sets[1].SourceTemplateSetID)
	assert.Equal(t, template.Exercises[1].Sets[1].ID, *squat.Sets[1].SourceTemplateSetID)
	assert.Nil(t, lunge.Sets[0].WeightKg)

	// The session owns its copy: emptying the template does not touch it.
	_, err = env.templates.UpdateTemplate(ctx, userID, template.ID, domain.UpdateTemplateInput{Exercises: []domain.TemplateExerciseInput{}})
	require.NoError(t, err)
	require.NoError(t, env.templates.DeleteTemplate(ctx, userID, template.ID))

	full, err := env.sessions.GetActiveSessionFull(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, full)
	assert.Equal(t, session.ID, full.ID)
	require.Len(t, full.Exercises, 2)
	assert.Len(t, full.Exercises[1].Sets, 2)
}

func TestStartFromTemplateConflictsWithActiveSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")
	template := createTemplateWithExercises(t, env, userID)

	blank, err := env.sessions.StartSession(ctx, userID, domain.StartSessionInput{})
	require.NoError(t, err)

	_, err = env.sessions.StartFromTemplate(ctx, userID, template.ID)
	assert.True(t, errors.Is(err, ErrActiveSessionExists))
	assert.Equal(t, KindConflict, KindOf(err))

	active, err := env.sessions.GetActiveSessionFull(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, blank.ID, active.ID)
	assert.Empty(t, active.Exercises, "nothing was copied")
}

func TestStartFromTemplateOfAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")
	template := createTemplateWithExercises(t, env, alice)

	_, err := env.sessions.StartFromTemplate(context.Background(), bob, template.ID)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestFinishSessionSummary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")
	start := env.clock.Now()

	env.startWorkout(t, userID,
		plannedExercise{name: "Bench", sets: []domain.AddSetInput{weighted(5, 100), bodyweight(8)}},
		plannedExercise{name: "Plank"},
	)

	env.clock.Set(start.Add(45 * time.Minute))
	finished, err := env.sessions.FinishSession(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionFinished, finished.Session.Status)
	require.NotNil(t, finished.Session.EndedAt)
	assert.True(t, start.Add(45*time.Minute).Equal(*finished.Session.EndedAt))

	assert.Equal(t, 1, finished.Summary.ExercisesCount, "exercises without sets are not counted")
	assert.Equal(t, 2, finished.Summary.TotalSets)
	assert.Equal(t, 500.0, finished.Summary.TotalVolume)
	require.NotNil(t, finished.Summary.DurationSeconds)
	assert.Equal(t, int64(2700), *finished.Summary.DurationSeconds)

	_, err = env.sessions.FinishSession(ctx, userID)
	assert.True(t, errors.Is(err, ErrNoActiveSession))

	active, err := env.sessions.GetActiveSession(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, active)

	tree, err := env.sessions.GetSessionByID(ctx, userID, finished.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionFinished, tree.Status)
	assert.Len(t, tree.Exercises, 2)
}

func TestFinishedSessionIsReadOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")

	ids := env.logWorkout(t, userID, env.clock.Now(), plannedExercise{name: "Bench", sets: []domain.AddSetInput{weighted(5, 100)}})

	_, err := env.sessions.AddExercise(ctx, userID, domain.AddExerciseInput{Name: "Row"})
	assert.True(t, errors.Is(err, ErrNoActiveSession))
	assert.Equal(t, KindNoActiveSession, KindOf(err))

	_, err = env.sessions.AddSet(ctx, userID, ids["Bench"], weighted(5, 100))
	assert.True(t, errors.Is(err, ErrExerciseNotFound))

	assert.True(t, errors.Is(env.sessions.DeleteExercise(ctx, userID, ids["Bench"]), ErrExerciseNotFound))
}

func TestSessionOwnership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")

	ids := env.startWorkout(t, alice, plannedExercise{name: "Bench", sets: []domain.AddSetInput{weighted(5, 100)}})
	aliceSession, err := env.sessions.GetActiveSessionFull(ctx, alice)
	require.NoError(t, err)
	setID := aliceSession.Exercises[0].Sets[0].ID

	_, err = env.sessions.StartSession(ctx, bob, domain.StartSessionInput{})
	require.NoError(t, err)

	_, err = env.sessions.AddSet(ctx, bob, ids["Bench"], weighted(1, 1))
	assert.True(t, errors.Is(err, ErrExerciseNotFound))
	_, err = env.sessions.UpdateSet(ctx, bob, ids["Bench"], setID, domain.UpdateSetInput{Reps: intPtr(1)})
	assert.True(t, errors.Is(err, ErrSetNotFound))
	assert.True(t, errors.Is(env.sessions.DeleteSet(ctx, bob, ids["Bench"], setID), ErrSetNotFound))
	_, err = env.sessions.GetSessionByID(ctx, bob, aliceSession.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.True(t, errors.Is(env.sessions.DeleteSession(ctx, bob, aliceSession.ID), ErrSessionNotFound))

	after, err := env.sessions.GetActiveSessionFull(ctx, alice)
	require.NoError(t, err)
	require.Len(t, after.Exercises[0].Sets, 1)
	assert.Equal(t, 5, *after.Exercises[0].Sets[0].Reps)
}

func TestUpdateSetChangesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")
	ids := env.startWorkout(t, userID, plannedExercise{name: "Bench", sets: []domain.AddSetInput{weighted(5, 100)}})

	full, err := env.sessions.GetActiveSessionFull(ctx, userID)
	require.NoError(t, err)
	setID := full.Exercises[0].Sets[0].ID

	updated, err := env.sessions.UpdateSet(ctx, userID, ids["Bench"], setID, domain.UpdateSetInput{WeightKg: floatPtr(110)})
	require.NoError(t, err)
	assert.Equal(t, 5, *updated.Reps)
	assert.Equal(t, 110.0, *updated.WeightKg)

	full, err = env.sessions.GetActiveSessionFull(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, *full.Exercises[0].Sets[0].Reps)
	assert.Equal(t, 110.0, *full.Exercises[0].Sets[0].WeightKg)

	_, err = env.sessions.UpdateSet(ctx, userID, ids["Bench"], setID, domain.UpdateSetInput{Reps: intPtr(-1)})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.sessions.UpdateSet(ctx, userID, ids["Bench"], setID+100, domain.UpdateSetInput{Reps: intPtr(3)})
	assert.True(t, errors.Is(err, ErrSetNotFound))
}

func TestDeleteSetAndExercise(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")
	ids := env.startWorkout(t, userID,
		plannedExercise{name: "Bench", sets: []domain.AddSetInput{weighted(5, 100), weighted(5, 105)}},
		plannedExercise{name: "Row", sets: []domain.AddSetInput{weighted(8, 60)}},
	)

	full, err := env.sessions.GetActiveSessionFull(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, env.sessions.DeleteSet(ctx, userID, ids["Bench"], full.Exercises[0].Sets[0].ID))
	require.NoError(t, env.sessions.DeleteExercise(ctx, userID, ids["Row"]))

	full, err = env.sessions.GetActiveSessionFull(ctx, userID)
	require.NoError(t, err)
	require.Len(t, full.Exercises, 1)
	require.Len(t, full.Exercises[0].Sets, 1)
	assert.Equal(t, 105.0, *full.Exercises[0].Sets[0].WeightKg)

	err = env.sessions.DeleteExercise(ctx, userID, ids["Row"])
	assert.True(t, errors.Is(err, ErrExerciseNotFound))
}

func TestAddExerciseValidation(t *testing.T) {
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")
	_, err := env.sessions.StartSession(context.Background(), userID, domain.StartSessionInput{})
	require.NoError(t, err)

	_, err = env.sessions.AddExercise(context.Background(), userID, domain.AddExerciseInput{Name: ""})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDeleteSessionAndPurge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")

	base := env.clock.Now()
	env.logWorkout(t, alice, base.Add(-48*time.Hour), plannedExercise{name: "Bench", sets: []domain.AddSetInput{weighted(5, 100)}})
	env.logWorkout(t, alice, base.Add(-24*time.Hour), plannedExercise{name: "Squat"})
	env.startWorkout(t, alice)
	env.logWorkout(t, bob, base.Add(-24*time.Hour), plannedExercise{name: "Row"})

	history, err := env.analytics.History(ctx, alice, 10, 0, "")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NoError(t, env.sessions.DeleteSession(ctx, alice, history[0].ID))
	_, err = env.sessions.GetSessionByID(ctx, alice, history[0].ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	deleted, err := env.sessions.PurgeAllWorkouts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted, "the remaining finished session and the active one")

	active, err := env.sessions.GetActiveSession(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, active)

	bobHistory, err := env.analytics.History(ctx, bob, 10, 0, "")
	require.NoError(t, err)
	assert.Len(t, bobHistory, 1, "other users are untouched")
}

func TestFinishSummaryIgnoresSetsWithoutWeight(t *testing.T) {
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")
	env.startWorkout(t, userID,
		plannedExercise{name: "Squat", sets: []domain.AddSetInput{weighted(10, 50), weighted(5, 60)}},
		plannedExercise{name: "Pull-up", sets: []domain.AddSetInput{bodyweight(8)}},
	)

	finished, err := env.sessions.FinishSession(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, finished.Summary.TotalSets)
	assert.Equal(t, 800.0, finished.Summary.TotalVolume)
	assert.Equal(t, 2, finished.Summary.ExercisesCount)
}
