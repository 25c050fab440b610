package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	reviewWindow        = 7 * 24 * time.Hour
	topExercisesLimit   = 5
	DefaultHistoryLimit = 20
	maxHistoryLimit     = 100
	dateLayout          = "2006-01-02"
)

// ErrExerciseHistoryNotFound is returned when an exercise id does not belong
// to a finished session of the caller.
var ErrExerciseHistoryNotFound = &Error{Kind: KindNotFound, Msg: "exercise not found"}

// AnalyticsService is the read-only analytics engine. It only ever looks at
// finished sessions; in-progress workouts never skew the numbers.
//
// Exercise history is keyed by exercise name, not by a catalog id: two
// different movements typed with the same name share history, and a renamed
// exercise starts a new one.
type AnalyticsService interface {
	WeeklyReview(ctx context.Context, userID int64) (*domain.WeeklyReview, error)
	VolumeLast7Days(ctx context.Context, userID int64) ([]domain.ExerciseVolume, error)
	PersonalBests(ctx context.Context, userID int64) ([]domain.PersonalBest, error)
	ExerciseTimelineByName(ctx context.Context, userID int64, name string) (*domain.ExerciseTimeline, error)
	ExerciseTimeline(ctx context.Context, userID, exerciseID int64) (*domain.ExerciseTimeline, error)
	ExerciseWeeklyMax(ctx context.Context, userID, exerciseID int64) (*domain.ExerciseWeeklyMax, error)
	ExerciseWeeklyVolume(ctx context.Context, userID, exerciseID int64) (*domain.ExerciseWeeklyVolume, error)
	ListDistinctExercises(ctx context.Context, userID int64) ([]domain.ExerciseRef, error)
	CalendarMonth(ctx context.Context, userID int64, year, month int) ([]int, error)
	History(ctx context.Context, userID int64, limit, offset int, date string) ([]domain.SessionSummary, error)
	PurgeExerciseHistory(ctx context.Context, userID int64, name string) (*domain.PurgeResult, error)
}

// analyticsService implements the AnalyticsService interface.
type analyticsService struct {
	tx          repository.Transactor
	historyRepo repository.HistoryRepository
	sessionRepo repository.SessionRepository // Purge only
	now         func() time.Time
}

// NewAnalyticsService creates a new instance of analyticsService.
func NewAnalyticsService(
	tx repository.Transactor,
	historyRepo repository.HistoryRepository,
	sessionRepo repository.SessionRepository,
) AnalyticsService {
	return &analyticsService{
		tx:          tx,
		historyRepo: historyRepo,
		sessionRepo: sessionRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WeekStart returns Monday 00:00 UTC of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

func (s *analyticsService) windowStart() time.Time {
	return s.now().Add(-reviewWindow)
}

// WeeklyReview summarises the trailing seven days. Set, rep and volume
// totals only count sets that carry both reps and weight.
func (s *analyticsService) WeeklyReview(ctx context.Context, userID int64) (*domain.WeeklyReview, error) {
	since := s.windowStart()

	sessionsCount, err := s.historyRepo.CountFinishedSince(ctx, userID, since)
	if err != nil {
		return nil, storageError(err, "count finished sessions")
	}
	recent, err := s.historyRepo.FinishedSetRecords(ctx, userID, domain.SetRecordFilter{EndedSince: &since})
	if err != nil {
		return nil, storageError(err, "read recent sets")
	}
	all, err := s.historyRepo.FinishedSetRecords(ctx, userID, domain.SetRecordFilter{})
	if err != nil {
		return nil, storageError(err, "read all sets")
	}

	review := &domain.WeeklyReview{
		Range:         "last_7_days",
		SessionsCount: sessionsCount,
	}
	for _, r := range recent {
		volume, ok := r.Volume()
		if !ok {
			continue
		}
		review.TotalSets++
		review.TotalReps += *r.Reps
		review.TotalVolume += volume
	}

	top := volumeByExercise(recent)
	if len(top) > topExercisesLimit {
		top = top[:topExercisesLimit]
	}
	review.TopExercisesByVolume = top
	review.PRsCount = countRecentPRs(all, since)
	return review, nil
}

// countRecentPRs counts exercise names whose all-time max weight was hit by
// a set of a session that ended at or after since.
func countRecentPRs(records []domain.SetRecord, since time.Time) int {
	maxWeight := make(map[string]float64)
	for _, r := range records {
		if r.WeightKg == nil {
			continue
		}
		if current, ok := maxWeight[r.ExerciseName]; !ok || *r.WeightKg > current {
			maxWeight[r.ExerciseName] = *r.WeightKg
		}
	}

	prs := make(map[string]struct{})
	for _, r := range records {
		if r.WeightKg == nil || r.EndedAt.Before(since) {
			continue
		}
		if *r.WeightKg == maxWeight[r.ExerciseName] {
			prs[r.ExerciseName] = struct{}{}
		}
	}
	return len(prs)
}

// volumeByExercise sums volume and qualifying sets per exercise name,
// highest volume first. Equal volumes keep store order.
func volumeByExercise(records []domain.SetRecord) []domain.ExerciseVolume {
	index := make(map[string]int)
	volumes := []domain.ExerciseVolume{}
	for _, r := range records {
		volume, ok := r.Volume()
		if !ok {
			continue
		}
		i, seen := index[r.ExerciseName]
		if !seen {
			i = len(volumes)
			index[r.ExerciseName] = i
			volumes = append(volumes, domain.ExerciseVolume{Exercise: r.ExerciseName})
		}
		volumes[i].Volume += volume
		volumes[i].Sets++
	}
	sort.SliceStable(volumes, func(a, b int) bool {
		return volumes[a].Volume > volumes[b].Volume
	})
	return volumes
}

func (s *analyticsService) VolumeLast7Days(ctx context.Context, userID int64) ([]domain.ExerciseVolume, error) {
	since := s.windowStart()
	records, err := s.historyRepo.FinishedSetRecords(ctx, userID, domain.SetRecordFilter{EndedSince: &since})
	if err != nil {
		return nil, storageError(err, "read recent sets")
	}
	return volumeByExercise(records), nil
}

// PersonalBests returns the all-time max weight per exercise name with the
// reps of the set that hit it. When several sets hit the max, the most
// recent session wins.
func (s *analyticsService) PersonalBests(ctx context.Context, userID int64) ([]domain.PersonalBest, error) {
	records, err := s.historyRepo.FinishedSetRecords(ctx, userID, domain.SetRecordFilter{})
	if err != nil {
		return nil, storageError(err, "read all sets")
	}

	best := make(map[string]domain.SetRecord)
	for _, r := range records {
		if r.WeightKg == nil {
			continue
		}
		current, ok := best[r.ExerciseName]
		switch {
		case !ok, *r.WeightKg > *current.WeightKg:
			best[r.ExerciseName] = r
		case *r.WeightKg == *current.WeightKg:
			if r.EndedAt.After(current.EndedAt) || (r.EndedAt.Equal(current.EndedAt) && r.SetID > current.SetID) {
				best[r.ExerciseName] = r
			}
		}
	}

	bests := make([]domain.PersonalBest, 0, len(best))
	for name, r := range best {
		bests = append(bests, domain.PersonalBest{
			Exercise: name,
			WeightKg: *r.WeightKg,
			Reps:     r.Reps,
			Date:     r.EndedAt,
		})
	}
	sort.Slice(bests, func(a, b int) bool { return bests[a].Exercise < bests[b].Exercise })
	return bests, nil
}

// resolveExercise maps an exercise id of a finished session to its name.
func (s *analyticsService) resolveExercise(ctx context.Context, userID, exerciseID int64) (domain.ExerciseRef, error) {
	exercise, err := s.historyRepo.GetFinishedExercise(ctx, userID, exerciseID)
	if err != nil {
		return domain.ExerciseRef{}, mapNotFound(err, ErrExerciseHistoryNotFound, "get exercise")
	}
	return domain.ExerciseRef{ID: exercise.ID, Name: exercise.Name}, nil
}

func (s *analyticsService) recordsByName(ctx context.Context, userID int64, name string) ([]domain.SetRecord, error) {
	records, err := s.historyRepo.FinishedSetRecords(ctx, userID, domain.SetRecordFilter{ExerciseName: &name})
	if err != nil {
		return nil, storageError(err, "read exercise sets")
	}
	return records, nil
}

// timeline returns the max weight per session in ended_at order. Sessions
// with no weighted set are skipped.
func timeline(records []domain.SetRecord) []domain.TimelinePoint {
	index := make(map[int64]int)
	points := []domain.TimelinePoint{}
	for _, r := range records {
		if r.WeightKg == nil {
			continue
		}
		i, seen := index[r.SessionID]
		if !seen {
			index[r.SessionID] = len(points)
			points = append(points, domain.TimelinePoint{Date: r.EndedAt, WeightKg: *r.WeightKg})
			continue
		}
		if *r.WeightKg > points[i].WeightKg {
			points[i].WeightKg = *r.WeightKg
		}
	}
	return points
}

func (s *analyticsService) ExerciseTimelineByName(ctx context.Context, userID int64, name string) (*domain.ExerciseTimeline, error) {
	records, err := s.recordsByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	return &domain.ExerciseTimeline{Exercise: domain.ExerciseRef{Name: name}, Points: timeline(records)}, nil
}

// ExerciseTimeline resolves the id to a name and follows that name across
// every finished session, so history survives exercise id churn.
func (s *analyticsService) ExerciseTimeline(ctx context.Context, userID, exerciseID int64) (*domain.ExerciseTimeline, error) {
	ref, err := s.resolveExercise(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	records, err := s.recordsByName(ctx, userID, ref.Name)
	if err != nil {
		return nil, err
	}
	return &domain.ExerciseTimeline{Exercise: ref, Points: timeline(records)}, nil
}

func (s *analyticsService) ExerciseWeeklyMax(ctx context.Context, userID, exerciseID int64) (*domain.ExerciseWeeklyMax, error) {
	ref, err := s.resolveExercise(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	records, err := s.recordsByName(ctx, userID, ref.Name)
	if err != nil {
		return nil, err
	}

	byWeek := make(map[time.Time]float64)
	for _, r := range records {
		if r.WeightKg == nil {
			continue
		}
		week := WeekStart(r.EndedAt)
		if current, ok := byWeek[week]; !ok || *r.WeightKg > current {
			byWeek[week] = *r.WeightKg
		}
	}

	points := make([]domain.WeeklyMaxPoint, 0, len(byWeek))
	for _, week := range sortedWeeks(byWeek) {
		points = append(points, domain.WeeklyMaxPoint{WeekStart: week.Format(dateLayout), WeightKg: byWeek[week]})
	}
	return &domain.ExerciseWeeklyMax{Exercise: ref, Points: points}, nil
}

func (s *analyticsService) ExerciseWeeklyVolume(ctx context.Context, userID, exerciseID int64) (*domain.ExerciseWeeklyVolume, error) {
	ref, err := s.resolveExercise(ctx, userID, exerciseID)
	if err != nil {
		return nil, err
	}
	records, err := s.recordsByName(ctx, userID, ref.Name)
	if err != nil {
		return nil, err
	}

	byWeek := make(map[time.Time]*domain.WeeklyVolumePoint)
	for _, r := range records {
		volume, ok := r.Volume()
		if !ok {
			continue
		}
		week := WeekStart(r.EndedAt)
		point, ok := byWeek[week]
		if !ok {
			point = &domain.WeeklyVolumePoint{WeekStart: week.Format(dateLayout)}
			byWeek[week] = point
		}
		point.Volume += volume
		point.TotalReps += *r.Reps
		point.Sets++
	}

	points := make([]domain.WeeklyVolumePoint, 0, len(byWeek))
	for _, week := range sortedWeeks(byWeek) {
		points = append(points, *byWeek[week])
	}
	return &domain.ExerciseWeeklyVolume{Exercise: ref, Points: points}, nil
}

func sortedWeeks[V any](byWeek map[time.Time]V) []time.Time {
	weeks := make([]time.Time, 0, len(byWeek))
	for week := range byWeek {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(a, b int) bool { return weeks[a].Before(weeks[b]) })
	return weeks
}

// ListDistinctExercises returns one row per exercise name used in a finished
// session, represented by the highest exercise id with that name.
func (s *analyticsService) ListDistinctExercises(ctx context.Context, userID int64) ([]domain.ExerciseRef, error) {
	refs, err := s.historyRepo.DistinctFinishedExercises(ctx, userID)
	if err != nil {
		return nil, storageError(err, "list exercises")
	}
	if refs == nil {
		refs = []domain.ExerciseRef{}
	}
	return refs, nil
}

// CalendarMonth returns the days (UTC) of the month with a finished session.
func (s *analyticsService) CalendarMonth(ctx context.Context, userID int64, year, month int) ([]int, error) {
	if month < 1 || month > 12 {
		return nil, validationError("month must be 1-12", nil)
	}
	if year < 1 || year > 9999 {
		return nil, validationError("year out of range", nil)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	endTimes, err := s.historyRepo.FinishedEndTimes(ctx, userID, from, to)
	if err != nil {
		return nil, storageError(err, "read calendar")
	}

	seen := make(map[int]bool)
	days := []int{}
	for _, t := range endTimes {
		day := t.UTC().Day()
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Ints(days)
	return days, nil
}

// History pages through finished sessions, newest first. limit is clamped to
// [1, 100]; date, when set, is a YYYY-MM-DD UTC day.
func (s *analyticsService) History(ctx context.Context, userID int64, limit, offset int, date string) ([]domain.SessionSummary, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := domain.HistoryQuery{Limit: limit, Offset: offset}
	if date != "" {
		day, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, validationError("date must be YYYY-MM-DD", err)
		}
		next := day.AddDate(0, 0, 1)
		query.EndedFrom = &day
		query.EndedTo = &next
	}

	sessions, err := s.historyRepo.ListFinished(ctx, userID, query)
	if err != nil {
		return nil, storageError(err, "list history")
	}
	items := make([]domain.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, domain.SessionSummary{
			ID:        session.ID,
			Title:     session.Title,
			Notes:     session.Notes,
			StartedAt: session.StartedAt,
			EndedAt:   session.EndedAt,
		})
	}
	return items, nil
}

// PurgeExerciseHistory deletes every exercise named name (case-insensitive)
// with its sets, across finished and active sessions alike.
func (s *analyticsService) PurgeExerciseHistory(ctx context.Context, userID int64, name string) (*domain.PurgeResult, error) {
	result := &domain.PurgeResult{Exercise: name}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return result, nil
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		result.DeletedExercises, result.DeletedSets, err = s.sessionRepo.DeleteExercisesByName(ctx, userID, trimmed)
		return storageError(err, "purge exercise history")
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Str("exercise", trimmed).
		Int64("deleted_exercises", result.DeletedExercises).
		Int64("deleted_sets", result.DeletedSets).
		Msg("exercise history purged")
	return result, nil
}
