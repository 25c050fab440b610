package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository/sqlstore"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Set(t time.Time) { c.t = t.UTC() }

type testEnv struct {
	db        *gorm.DB
	clock     *fakeClock
	sessions  *sessionService
	templates *templateService
	analytics *analyticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlstore.Open(filepath.Join(t.TempDir(), "service_test.db"))
	require.NoError(t, err)
	require.NoError(t, sqlstore.RunMigrations(context.Background(), db))
	t.Cleanup(func() { _ = sqlstore.Close(db) })

	tx := sqlstore.NewTransactor(db)
	sessionRepo := sqlstore.NewSessionRepository(db)
	templateRepo := sqlstore.NewTemplateRepository(db)
	historyRepo := sqlstore.NewHistoryRepository(db)

	clock := &fakeClock{t: time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)}
	env := &testEnv{
		db:        db,
		clock:     clock,
		sessions:  NewSessionService(tx, sessionRepo, templateRepo).(*sessionService),
		templates: NewTemplateService(tx, templateRepo, sessionRepo).(*templateService),
		analytics: NewAnalyticsService(tx, historyRepo, sessionRepo).(*analyticsService),
	}
	env.sessions.now = clock.Now
	env.analytics.now = clock.Now
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) int64 {
	t.Helper()
	id, err := sqlstore.NewUserRepository(e.db).Create(context.Background(), &domain.User{Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	return id
}

type plannedExercise struct {
	name string
	sets []domain.AddSetInput
}

func weighted(reps int, kg float64) domain.AddSetInput {
	return domain.AddSetInput{Reps: &reps, WeightKg: &kg}
}

func bodyweight(reps int) domain.AddSetInput {
	return domain.AddSetInput{Reps: &reps}
}

// startWorkout starts a blank session at the clock's time and logs the
// planned exercises into it. It returns exercise ids by name.
func (e *testEnv) startWorkout(t *testing.T, userID int64, exercises ...plannedExercise) map[string]int64 {
	t.Helper()
	ctx := context.Background()
	_, err := e.sessions.StartSession(ctx, userID, domain.StartSessionInput{})
	require.NoError(t, err)

	ids := make(map[string]int64)
	for i, planned := range exercises {
		exercise, err := e.sessions.AddExercise(ctx, userID, domain.AddExerciseInput{Name: planned.name, OrderIndex: i})
		require.NoError(t, err)
		ids[planned.name] = exercise.ID
		for n, set := range planned.sets {
			set.SetNumber = n + 1
			_, err := e.sessions.AddSet(ctx, userID, exercise.ID, set)
			require.NoError(t, err)
		}
	}
	return ids
}

// logWorkout records a finished session that started an hour before endedAt.
func (e *testEnv) logWorkout(t *testing.T, userID int64, endedAt time.Time, exercises ...plannedExercise) map[string]int64 {
	t.Helper()
	now := e.clock.Now()
	defer e.clock.Set(now)

	e.clock.Set(endedAt.Add(-time.Hour))
	ids := e.startWorkout(t, userID, exercises...)
	e.clock.Set(endedAt)
	_, err := e.sessions.FinishSession(context.Background(), userID)
	require.NoError(t, err)
	return ids
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }
