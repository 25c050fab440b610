package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository/sqlstore"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	objects     map[string][]byte
	contentType map[string]string
	putErr      error
	presignErr  error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func (m *memoryStorage) PutObject(ctx context.Context, key string, contentType string, body []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = body
	m.contentType[key] = contentType
	return nil
}

func (m *memoryStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://storage.test/" + key + "?expires=" + expires.String(), nil
}

func (m *memoryStorage) DeleteObject(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestExportHistory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	h := seedHistory(t, env)
	store := newMemoryStorage()
	exports := NewExportService(sqlstore.NewHistoryRepository(env.db), sqlstore.NewSessionRepository(env.db), store)

	export, err := exports.ExportHistory(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, 3, export.SessionsCount, "only finished sessions are exported")
	assert.True(t, strings.HasPrefix(export.ObjectKey, "exports/"))
	assert.True(t, strings.HasSuffix(export.ObjectKey, ".json"))
	assert.Contains(t, export.DownloadURL, export.ObjectKey)

	body, ok := store.objects[export.ObjectKey]
	require.True(t, ok)
	assert.Equal(t, "application/json", store.contentType[export.ObjectKey])

	var archive struct {
		UserID   int64                `json:"user_id"`
		Sessions []domain.SessionTree `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(body, &archive))
	assert.Equal(t, h.userID, archive.UserID)
	require.Len(t, archive.Sessions, 3)
	assert.Len(t, archive.Sessions[0].Exercises, 1, "newest session first")
	assert.Len(t, archive.Sessions[1].Exercises, 3)
}

func TestExportHistoryFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.createUser(t, "alice@example.com")
	historyRepo := sqlstore.NewHistoryRepository(env.db)
	sessionRepo := sqlstore.NewSessionRepository(env.db)

	_, err := NewExportService(historyRepo, sessionRepo, nil).ExportHistory(ctx, userID)
	assert.True(t, errors.Is(err, ErrExportDisabled))

	store := newMemoryStorage()
	store.putErr = errors.New("bucket unavailable")
	_, err = NewExportService(historyRepo, sessionRepo, store).ExportHistory(ctx, userID)
	assert.Equal(t, KindStorage, KindOf(err))

	store.putErr = nil
	store.presignErr = errors.New("signing failed")
	_, err = NewExportService(historyRepo, sessionRepo, store).ExportHistory(ctx, userID)
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Empty(t, store.objects, "the unreachable archive is removed")
}
