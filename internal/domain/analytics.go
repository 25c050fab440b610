package domain

import (
	"time"
)

// SetRecord is one set of a finished session flattened together with its
// exercise name and the session end time. The analytics engine aggregates
// over these records; the stores only have to produce them.
type SetRecord struct {
	SessionID    int64
	EndedAt      time.Time
	ExerciseID   int64
	ExerciseName string
	SetID        int64
	Reps         *int
	WeightKg     *float64
}

// Volume returns weight × reps, and false when either field is missing.
func (r SetRecord) Volume() (float64, bool) {
	if r.Reps == nil || r.WeightKg == nil {
		return 0, false
	}
	return *r.WeightKg * float64(*r.Reps), true
}

// SetRecordFilter narrows the finished set records read from a store.
type SetRecordFilter struct {
	EndedSince   *time.Time // Inclusive lower bound on ended_at
	ExerciseName *string    // Exact, case-sensitive match
}

// HistoryQuery pages through finished sessions, newest first.
type HistoryQuery struct {
	Limit  int
	Offset int
	// When both are set only sessions with EndedFrom <= ended_at < EndedTo match.
	EndedFrom *time.Time
	EndedTo   *time.Time
}

// ExerciseVolume is a per-exercise volume aggregate.
type ExerciseVolume struct {
	Exercise string  `json:"exercise"`
	Volume   float64 `json:"volume"`
	Sets     int     `json:"sets"`
}

// WeeklyReview summarises the trailing seven days of finished sessions.
type WeeklyReview struct {
	Range                string           `json:"range"`
	SessionsCount        int              `json:"sessions_count"`
	TotalSets            int              `json:"total_sets"`
	TotalReps            int              `json:"total_reps"`
	TotalVolume          float64          `json:"total_volume"`
	PRsCount             int              `json:"prs_count"`
	TopExercisesByVolume []ExerciseVolume `json:"top_exercises_by_volume"`
}

// PersonalBest is the all-time max weight of one exercise name.
type PersonalBest struct {
	Exercise string    `json:"exercise"`
	WeightKg float64   `json:"weight_kg"`
	Reps     *int      `json:"reps"`
	Date     time.Time `json:"date"`
}

// TimelinePoint is the heaviest set of one finished session.
type TimelinePoint struct {
	Date     time.Time `json:"date"`
	WeightKg float64   `json:"weight_kg"`
}

// WeeklyMaxPoint is the heaviest set of one week.
type WeeklyMaxPoint struct {
	WeekStart string  `json:"week_start"` // YYYY-MM-DD, Monday
	WeightKg  float64 `json:"weight_kg"`
}

// WeeklyVolumePoint is the volume of one exercise over one week.
type WeeklyVolumePoint struct {
	WeekStart string  `json:"week_start"`
	Volume    float64 `json:"volume"`
	TotalReps int     `json:"total_reps"`
	Sets      int     `json:"sets"`
}

// ExerciseRef identifies a distinct exercise name by a representative id.
type ExerciseRef struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// ExerciseTimeline is a resolved exercise with its history points.
type ExerciseTimeline struct {
	Exercise ExerciseRef     `json:"exercise"`
	Points   []TimelinePoint `json:"points"`
}

// ExerciseWeeklyMax is a resolved exercise with weekly max points.
type ExerciseWeeklyMax struct {
	Exercise ExerciseRef      `json:"exercise"`
	Points   []WeeklyMaxPoint `json:"points"`
}

// ExerciseWeeklyVolume is a resolved exercise with weekly volume points.
type ExerciseWeeklyVolume struct {
	Exercise ExerciseRef         `json:"exercise"`
	Points   []WeeklyVolumePoint `json:"points"`
}

// SessionSummary is one row of the workout history.
type SessionSummary struct {
	ID        int64      `json:"id"`
	Title     *string    `json:"title"`
	Notes     *string    `json:"notes"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// PurgeResult reports what an exercise-history purge removed.
type PurgeResult struct {
	Exercise         string `json:"exercise"`
	DeletedExercises int64  `json:"deleted_exercises"`
	DeletedSets      int64  `json:"deleted_sets"`
}

// HistoryExport describes an uploaded history archive.
type HistoryExport struct {
	ObjectKey     string    `json:"object_key"`
	DownloadURL   string    `json:"download_url"`
	SessionsCount int       `json:"sessions_count"`
	CreatedAt     time.Time `json:"created_at"`
}
