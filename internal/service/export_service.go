package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"alcyxob/workout-tracker/internal/storage"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const exportPageSize = 100

var ErrExportDisabled = &Error{Kind: KindValidation, Msg: "history export is not configured"}

// ExportService uploads a user's finished workouts as a JSON archive.
type ExportService interface {
	ExportHistory(ctx context.Context, userID int64) (*domain.HistoryExport, error)
}

type exportService struct {
	historyRepo repository.HistoryRepository
	sessionRepo repository.SessionRepository
	fileStorage storage.FileStorage // nil when no bucket is configured
	now         func() time.Time
}

// NewExportService creates a new instance of exportService. fileStorage may
// be nil, in which case every export fails with ErrExportDisabled.
func NewExportService(
	historyRepo repository.HistoryRepository,
	sessionRepo repository.SessionRepository,
	fileStorage storage.FileStorage,
) ExportService {
	return &exportService{
		historyRepo: historyRepo,
		sessionRepo: sessionRepo,
		fileStorage: fileStorage,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type historyArchive struct {
	UserID     int64                `json:"user_id"`
	ExportedAt time.Time            `json:"exported_at"`
	Sessions   []domain.SessionTree `json:"sessions"`
}

func (s *exportService) ExportHistory(ctx context.Context, userID int64) (*domain.HistoryExport, error) {
	if s.fileStorage == nil {
		return nil, ErrExportDisabled
	}

	archive := historyArchive{UserID: userID, ExportedAt: s.now(), Sessions: []domain.SessionTree{}}
	for offset := 0; ; offset += exportPageSize {
		page, err := s.historyRepo.ListFinished(ctx, userID, domain.HistoryQuery{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, storageError(err, "list finished sessions")
		}
		for i := range page {
			tree, err := loadSessionTree(ctx, s.sessionRepo, &page[i])
			if err != nil {
				return nil, err
			}
			archive.Sessions = append(archive.Sessions, *tree)
		}
		if len(page) < exportPageSize {
			break
		}
	}

	body, err := json.Marshal(archive)
	if err != nil {
		return nil, storageError(err, "encode history archive")
	}

	key := fmt.Sprintf("exports/%d/%s.json", userID, uuid.NewString())
	if err := s.fileStorage.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, storageError(err, "upload history archive")
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, storage.DefaultPresignedURLExpiry)
	if err != nil {
		if delErr := s.fileStorage.DeleteObject(ctx, key); delErr != nil {
			log.Ctx(ctx).Warn().Err(delErr).Str("key", key).Msg("failed to remove unreachable archive")
		}
		return nil, storageError(err, "presign history archive")
	}

	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Str("key", key).
		Int("sessions", len(archive.Sessions)).
		Msg("history exported")

	return &domain.HistoryExport{
		ObjectKey:     key,
		DownloadURL:   url,
		SessionsCount: len(archive.Sessions),
		CreatedAt:     archive.ExportedAt,
	}, nil
}
