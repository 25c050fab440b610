package sqlstore

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "workout_test.db")

	db, err := Open(dbPath)
	require.NoError(t, err, "open db")
	require.NoError(t, RunMigrations(ctx, db), "run migrations")
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()
	id, err := NewUserRepository(db).Create(context.Background(), &domain.User{Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	return id
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewUserRepository(db)

	user := &domain.User{Email: "a@example.com", PasswordHash: "hash"}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = repo.Create(ctx, &domain.User{Email: "a@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = repo.GetByID(ctx, id+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepositoryOneActivePerUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	now := time.Now().UTC()
	first := &domain.Session{UserID: alice, Status: domain.SessionActive, StartedAt: now}
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.Session{UserID: alice, Status: domain.SessionActive, StartedAt: now})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.Create(ctx, &domain.Session{UserID: bob, Status: domain.SessionActive, StartedAt: now})
	assert.NoError(t, err, "other users are independent")

	require.NoError(t, repo.Finish(ctx, alice, first.ID, now.Add(time.Hour)))
	assert.ErrorIs(t, repo.Finish(ctx, alice, first.ID, now.Add(time.Hour)), repository.ErrNotFound, "finish is not repeatable")

	_, err = repo.Create(ctx, &domain.Session{UserID: alice, Status: domain.SessionActive, StartedAt: now})
	assert.NoError(t, err, "a finished session frees the slot")
}

func TestTransactorRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	tx := NewTransactor(db)
	repo := NewSessionRepository(db)
	alice := createUser(t, db, "alice@example.com")

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, &domain.Session{UserID: alice, Status: domain.SessionActive, StartedAt: time.Now().UTC()})
		require.NoError(t, err)
		// Nested calls join the outer transaction.
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.GetActive(ctx, alice)
			require.NoError(t, err)
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetActive(ctx, alice)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionTreeAndCascades(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	session := &domain.Session{UserID: alice, Status: domain.SessionActive, StartedAt: time.Now().UTC()}
	_, err := repo.Create(ctx, session)
	require.NoError(t, err)

	second := &domain.Exercise{SessionID: session.ID, UserID: alice, Name: "Squat", OrderIndex: 1}
	first := &domain.Exercise{SessionID: session.ID, UserID: alice, Name: "Bench", OrderIndex: 0}
	_, err = repo.AddExercise(ctx, second)
	require.NoError(t, err)
	_, err = repo.AddExercise(ctx, first)
	require.NoError(t, err)

	for _, n := range []int{2, 1} {
		_, err = repo.AddSet(ctx, &domain.Set{ExerciseID: first.ID, UserID: alice, SetNumber: n, Reps: intPtr(5), WeightKg: floatPtr(100)})
		require.NoError(t, err)
	}

	exercises, err := repo.ListExercises(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, exercises, 2)
	assert.Equal(t, "Bench", exercises[0].Name)
	assert.Equal(t, "Squat", exercises[1].Name)

	sets, err := repo.ListSets(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, 1, sets[0].SetNumber)
	assert.Equal(t, 2, sets[1].SetNumber)

	_, err = repo.GetActiveExercise(ctx, bob, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "ownership is enforced")
	_, err = repo.GetActiveSet(ctx, alice, second.ID, sets[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "set must belong to the exercise")

	assert.ErrorIs(t, repo.Delete(ctx, bob, session.ID), repository.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, alice, session.ID))

	sets, err = repo.ListSets(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestDeleteExercisesByNameIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	addSessionWith := func(userID int64, name string, sets int) {
		s := &domain.Session{UserID: userID, Status: domain.SessionActive, StartedAt: time.Now().UTC()}
		_, err := repo.Create(ctx, s)
		require.NoError(t, err)
		e := &domain.Exercise{SessionID: s.ID, UserID: userID, Name: name}
		_, err = repo.AddExercise(ctx, e)
		require.NoError(t, err)
		for i := 0; i < sets; i++ {
			_, err = repo.AddSet(ctx, &domain.Set{ExerciseID: e.ID, UserID: userID, SetNumber: i + 1})
			require.NoError(t, err)
		}
		require.NoError(t, repo.Finish(ctx, userID, s.ID, time.Now().UTC()))
	}
	addSessionWith(alice, "Bench Press", 2)
	addSessionWith(alice, "bench press", 3)
	addSessionWith(alice, "Squat", 1)
	addSessionWith(bob, "Bench Press", 4)
	addSessionWith(alice, "BANKDRÜCKEN", 2)

	exercises, sets, err := repo.DeleteExercisesByName(ctx, alice, "BENCH PRESS")
	require.NoError(t, err)
	assert.Equal(t, int64(2), exercises)
	assert.Equal(t, int64(5), sets)

	exercises, sets, err = repo.DeleteExercisesByName(ctx, alice, "bankdrücken")
	require.NoError(t, err)
	assert.Equal(t, int64(1), exercises, "non-ASCII letters fold too")
	assert.Equal(t, int64(2), sets)

	exercises, sets, err = repo.DeleteExercisesByName(ctx, alice, "Bench")
	require.NoError(t, err)
	assert.Zero(t, exercises, "exact names only")
	assert.Zero(t, sets)

	refs, err := NewHistoryRepository(db).DistinctFinishedExercises(ctx, alice)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Squat", refs[0].Name)

	refs, err = NewHistoryRepository(db).DistinctFinishedExercises(ctx, bob)
	require.NoError(t, err)
	require.Len(t, refs, 1, "other users keep their history")
	assert.Equal(t, "Bench Press", refs[0].Name)
}

func TestHistoryRepositoryOnlyReadsFinished(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	history := NewHistoryRepository(db)
	alice := createUser(t, db, "alice@example.com")

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	var finishedIDs []int64
	for i := 0; i < 3; i++ {
		s := &domain.Session{UserID: alice, Status: domain.SessionActive, StartedAt: base.AddDate(0, 0, i)}
		_, err := sessions.Create(ctx, s)
		require.NoError(t, err)
		e := &domain.Exercise{SessionID: s.ID, UserID: alice, Name: "Deadlift"}
		_, err = sessions.AddExercise(ctx, e)
		require.NoError(t, err)
		_, err = sessions.AddSet(ctx, &domain.Set{ExerciseID: e.ID, UserID: alice, SetNumber: 1, Reps: intPtr(5), WeightKg: floatPtr(float64(100 + i*10))})
		require.NoError(t, err)
		require.NoError(t, sessions.Finish(ctx, alice, s.ID, base.AddDate(0, 0, i).Add(time.Hour)))
		finishedIDs = append(finishedIDs, s.ID)
	}

	active := &domain.Session{UserID: alice, Status: domain.SessionActive, StartedAt: base.AddDate(0, 0, 5)}
	_, err := sessions.Create(ctx, active)
	require.NoError(t, err)
	e := &domain.Exercise{SessionID: active.ID, UserID: alice, Name: "Deadlift"}
	_, err = sessions.AddExercise(ctx, e)
	require.NoError(t, err)
	_, err = sessions.AddSet(ctx, &domain.Set{ExerciseID: e.ID, UserID: alice, SetNumber: 1, Reps: intPtr(1), WeightKg: floatPtr(500)})
	require.NoError(t, err)

	records, err := history.FinishedSetRecords(ctx, alice, domain.SetRecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 100.0, *records[0].WeightKg)
	assert.Equal(t, 120.0, *records[2].WeightKg)
	assert.True(t, base.Add(time.Hour).Equal(records[0].EndedAt))

	since := base.AddDate(0, 0, 1)
	records, err = history.FinishedSetRecords(ctx, alice, domain.SetRecordFilter{EndedSince: &since})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	count, err := history.CountFinishedSince(ctx, alice, since)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	page, err := history.ListFinished(ctx, alice, domain.HistoryQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, finishedIDs[2], page[0].ID, "newest first")
	assert.Equal(t, finishedIDs[1], page[1].ID)

	from := base.AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)
	page, err = history.ListFinished(ctx, alice, domain.HistoryQuery{Limit: 10, EndedFrom: &from, EndedTo: &to})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, finishedIDs[1], page[0].ID)

	endTimes, err := history.FinishedEndTimes(ctx, alice, base, base.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, endTimes, 3)

	_, err = history.GetFinishedExercise(ctx, alice, e.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "exercises of the active session are not history")
}

func TestTemplateRepositoryReplaceExercises(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewTemplateRepository(db)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	tmpl := &domain.Template{UserID: alice, Name: "Push"}
	_, err := repo.Create(ctx, tmpl)
	require.NoError(t, err)

	ex := &domain.TemplateExercise{TemplateID: tmpl.ID, UserID: alice, Name: "Bench"}
	_, err = repo.AddExercise(ctx, ex)
	require.NoError(t, err)
	_, err = repo.AddSet(ctx, &domain.TemplateSet{TemplateExerciseID: ex.ID, UserID: alice, SetNumber: 1, Reps: intPtr(8)})
	require.NoError(t, err)

	deleted, err := repo.DeleteExercises(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	sets, err := repo.ListSets(ctx, []int64{ex.ID})
	require.NoError(t, err)
	assert.Empty(t, sets)

	_, err = repo.GetByID(ctx, bob, tmpl.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, bob, tmpl.ID), repository.ErrNotFound)

	desc := "upper body"
	tmpl.Name = "Push A"
	tmpl.Description = &desc
	require.NoError(t, repo.Update(ctx, tmpl))

	list, err := repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Push A", list[0].Name)
	assert.Equal(t, "upper body", *list[0].Description)

	require.NoError(t, repo.Delete(ctx, alice, tmpl.ID))
	list, err = repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunMigrationsLogsThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	db, err := Open(filepath.Join(t.TempDir(), "migrate_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, RunMigrations(context.Background(), db))

	out := buf.String()
	assert.Contains(t, out, `"component":"goose"`)
	assert.Contains(t, out, "00001_init.sql")
}
