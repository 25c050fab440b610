package mongo

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoHistoryRepository implements repository.HistoryRepository. Joins
// across the session tree are done in memory, one query per level.
type mongoHistoryRepository struct {
	sessions  *mongo.Collection
	exercises *mongo.Collection
	sets      *mongo.Collection
}

// NewMongoHistoryRepository creates a new instance of mongoHistoryRepository.
func NewMongoHistoryRepository(db *mongo.Database) repository.HistoryRepository {
	return &mongoHistoryRepository{
		sessions:  db.Collection(sessionCollectionName),
		exercises: db.Collection(exerciseCollectionName),
		sets:      db.Collection(setCollectionName),
	}
}

func finishedFilter(userID int64) bson.M {
	return bson.M{"userId": userID, "status": domain.SessionFinished}
}

func (r *mongoHistoryRepository) CountFinishedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	filter := finishedFilter(userID)
	filter["endedAt"] = bson.M{"$gte": since.UTC()}
	count, err := r.sessions.CountDocuments(ctx, filter)
	return int(count), err
}

func (r *mongoHistoryRepository) FinishedSetRecords(ctx context.Context, userID int64, filter domain.SetRecordFilter) ([]domain.SetRecord, error) {
	sessionFilter := finishedFilter(userID)
	if filter.EndedSince != nil {
		sessionFilter["endedAt"] = bson.M{"$gte": filter.EndedSince.UTC()}
	}
	var sessions []domain.Session
	cursor, err := r.sessions.Find(ctx, sessionFilter, options.Find().SetProjection(bson.M{"_id": 1, "endedAt": 1}))
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []domain.SetRecord{}, nil
	}

	endedAt := make(map[int64]time.Time, len(sessions))
	sessionIDs := make([]int64, 0, len(sessions))
	for _, s := range sessions {
		if s.EndedAt == nil {
			continue
		}
		endedAt[s.ID] = s.EndedAt.UTC()
		sessionIDs = append(sessionIDs, s.ID)
	}

	exerciseFilter := bson.M{"sessionId": bson.M{"$in": sessionIDs}}
	if filter.ExerciseName != nil {
		exerciseFilter["name"] = *filter.ExerciseName
	}
	var exercises []domain.Exercise
	cursor, err = r.exercises.Find(ctx, exerciseFilter)
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return []domain.SetRecord{}, nil
	}

	byID := make(map[int64]domain.Exercise, len(exercises))
	exerciseIDs := make([]int64, 0, len(exercises))
	for _, e := range exercises {
		byID[e.ID] = e
		exerciseIDs = append(exerciseIDs, e.ID)
	}

	var sets []domain.Set
	cursor, err = r.sets.Find(ctx, bson.M{"exerciseId": bson.M{"$in": exerciseIDs}})
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}

	records := make([]domain.SetRecord, 0, len(sets))
	for _, set := range sets {
		exercise := byID[set.ExerciseID]
		records = append(records, domain.SetRecord{
			SessionID:    exercise.SessionID,
			EndedAt:      endedAt[exercise.SessionID],
			ExerciseID:   exercise.ID,
			ExerciseName: exercise.Name,
			SetID:        set.ID,
			Reps:         set.Reps,
			WeightKg:     set.WeightKg,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.EndedAt.Equal(b.EndedAt) {
			return a.EndedAt.Before(b.EndedAt)
		}
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		if a.ExerciseID != b.ExerciseID {
			return a.ExerciseID < b.ExerciseID
		}
		return a.SetID < b.SetID
	})
	return records, nil
}

func (r *mongoHistoryRepository) ListFinished(ctx context.Context, userID int64, query domain.HistoryQuery) ([]domain.Session, error) {
	filter := finishedFilter(userID)
	if query.EndedFrom != nil && query.EndedTo != nil {
		filter["endedAt"] = bson.M{"$gte": query.EndedFrom.UTC(), "$lt": query.EndedTo.UTC()}
	}
	opts := options.Find().SetSort(bson.D{{Key: "endedAt", Value: -1}, {Key: "_id", Value: -1}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}
	if query.Offset > 0 {
		opts.SetSkip(int64(query.Offset))
	}

	cursor, err := r.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	sessions := []domain.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *mongoHistoryRepository) FinishedEndTimes(ctx context.Context, userID int64, from, to time.Time) ([]time.Time, error) {
	filter := finishedFilter(userID)
	filter["endedAt"] = bson.M{"$gte": from.UTC(), "$lt": to.UTC()}
	opts := options.Find().
		SetProjection(bson.M{"endedAt": 1}).
		SetSort(bson.D{{Key: "endedAt", Value: 1}})

	cursor, err := r.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		EndedAt time.Time `bson:"endedAt"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	times := make([]time.Time, len(docs))
	for i, doc := range docs {
		times[i] = doc.EndedAt.UTC()
	}
	return times, nil
}

func (r *mongoHistoryRepository) GetFinishedExercise(ctx context.Context, userID, exerciseID int64) (*domain.Exercise, error) {
	var exercise domain.Exercise
	if err := r.exercises.FindOne(ctx, bson.M{"_id": exerciseID, "userId": userID}).Decode(&exercise); err != nil {
		return nil, notFound(err)
	}
	filter := finishedFilter(userID)
	filter["_id"] = exercise.SessionID
	count, err := r.sessions.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, repository.ErrNotFound
	}
	return &exercise, nil
}

// DistinctFinishedExercises groups exercise names server-side and keeps the
// highest id per name.
func (r *mongoHistoryRepository) DistinctFinishedExercises(ctx context.Context, userID int64) ([]domain.ExerciseRef, error) {
	sessionIDs, err := distinctIDs(ctx, r.sessions, finishedFilter(userID))
	if err != nil {
		return nil, err
	}
	if len(sessionIDs) == 0 {
		return []domain.ExerciseRef{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"sessionId": bson.M{"$in": sessionIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$name", "id": bson.M{"$max": "$_id"}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.exercises.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Name string `bson:"_id"`
		ID   int64  `bson:"id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	refs := make([]domain.ExerciseRef, len(rows))
	for i, row := range rows {
		refs[i] = domain.ExerciseRef{ID: row.ID, Name: row.Name}
	}
	return refs, nil
}
