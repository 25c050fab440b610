package mongo

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoSessionRepository implements repository.SessionRepository. Exercises
// and sets carry a denormalized userId so ownership checks need no join.
type mongoSessionRepository struct {
	sessions  *mongo.Collection
	exercises *mongo.Collection
	sets      *mongo.Collection
	ids       *counters
}

// NewMongoSessionRepository creates a new instance of mongoSessionRepository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		sessions:  db.Collection(sessionCollectionName),
		exercises: db.Collection(exerciseCollectionName),
		sets:      db.Collection(setCollectionName),
		ids:       newCounters(db),
	}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) (int64, error) {
	id, err := r.ids.next(ctx, sessionCollectionName)
	if err != nil {
		return 0, err
	}
	session.ID = id
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	if _, err := r.sessions.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, repository.ErrConflict
		}
		return 0, err
	}
	return id, nil
}

func (r *mongoSessionRepository) GetActive(ctx context.Context, userID int64) (*domain.Session, error) {
	return r.findSession(ctx, bson.M{"userId": userID, "status": domain.SessionActive})
}

func (r *mongoSessionRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Session, error) {
	return r.findSession(ctx, bson.M{"_id": id, "userId": userID})
}

func (r *mongoSessionRepository) findSession(ctx context.Context, filter bson.M) (*domain.Session, error) {
	var session domain.Session
	if err := r.sessions.FindOne(ctx, filter).Decode(&session); err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

func (r *mongoSessionRepository) Finish(ctx context.Context, userID, id int64, endedAt time.Time) error {
	filter := bson.M{"_id": id, "userId": userID, "status": domain.SessionActive}
	update := bson.M{"$set": bson.M{
		"status":    domain.SessionFinished,
		"endedAt":   endedAt.UTC(),
		"updatedAt": endedAt.UTC(),
	}}
	result, err := r.sessions.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepository) Delete(ctx context.Context, userID, id int64) error {
	if _, err := r.GetByID(ctx, userID, id); err != nil {
		return err
	}
	exerciseIDs, err := distinctIDs(ctx, r.exercises, bson.M{"sessionId": id})
	if err != nil {
		return err
	}
	if _, _, err := r.deleteExercises(ctx, exerciseIDs); err != nil {
		return err
	}
	result, err := r.sessions.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrDeleteFailed
	}
	return nil
}

func (r *mongoSessionRepository) DeleteAllByUser(ctx context.Context, userID int64) (int64, error) {
	filter := bson.M{"userId": userID}
	if _, err := r.sets.DeleteMany(ctx, filter); err != nil {
		return 0, err
	}
	if _, err := r.exercises.DeleteMany(ctx, filter); err != nil {
		return 0, err
	}
	result, err := r.sessions.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoSessionRepository) AddExercise(ctx context.Context, exercise *domain.Exercise) (int64, error) {
	id, err := r.ids.next(ctx, exerciseCollectionName)
	if err != nil {
		return 0, err
	}
	exercise.ID = id
	exercise.CreatedAt = time.Now().UTC()
	if _, err := r.exercises.InsertOne(ctx, exercise); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *mongoSessionRepository) GetActiveExercise(ctx context.Context, userID, exerciseID int64) (*domain.Exercise, error) {
	active, err := r.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	var exercise domain.Exercise
	filter := bson.M{"_id": exerciseID, "sessionId": active.ID, "userId": userID}
	if err := r.exercises.FindOne(ctx, filter).Decode(&exercise); err != nil {
		return nil, notFound(err)
	}
	return &exercise, nil
}

func (r *mongoSessionRepository) ListExercises(ctx context.Context, sessionID int64) ([]domain.Exercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.exercises.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	exercises := []domain.Exercise{}
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (r *mongoSessionRepository) DeleteExercise(ctx context.Context, exerciseID int64) error {
	deleted, _, err := r.deleteExercises(ctx, []int64{exerciseID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteExercisesByName matches names case-insensitively with an anchored,
// escaped regex.
func (r *mongoSessionRepository) DeleteExercisesByName(ctx context.Context, userID int64, name string) (int64, int64, error) {
	filter := bson.M{
		"userId": userID,
		"name":   primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"},
	}
	ids, err := distinctIDs(ctx, r.exercises, filter)
	if err != nil {
		return 0, 0, err
	}
	return r.deleteExercises(ctx, ids)
}

func (r *mongoSessionRepository) deleteExercises(ctx context.Context, ids []int64) (int64, int64, error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}
	sets, err := r.sets.DeleteMany(ctx, bson.M{"exerciseId": bson.M{"$in": ids}})
	if err != nil {
		return 0, 0, err
	}
	exercises, err := r.exercises.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, 0, err
	}
	return exercises.DeletedCount, sets.DeletedCount, nil
}

func (r *mongoSessionRepository) AddSet(ctx context.Context, set *domain.Set) (int64, error) {
	id, err := r.ids.next(ctx, setCollectionName)
	if err != nil {
		return 0, err
	}
	set.ID = id
	set.CreatedAt = time.Now().UTC()
	if _, err := r.sets.InsertOne(ctx, set); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *mongoSessionRepository) GetActiveSet(ctx context.Context, userID, exerciseID, setID int64) (*domain.Set, error) {
	if _, err := r.GetActiveExercise(ctx, userID, exerciseID); err != nil {
		return nil, err
	}
	var set domain.Set
	if err := r.sets.FindOne(ctx, bson.M{"_id": setID, "exerciseId": exerciseID}).Decode(&set); err != nil {
		return nil, notFound(err)
	}
	return &set, nil
}

// UpdateSet writes reps and weight; nil values are stored as absent.
func (r *mongoSessionRepository) UpdateSet(ctx context.Context, set *domain.Set) error {
	fields := bson.M{}
	unset := bson.M{}
	if set.Reps != nil {
		fields["reps"] = *set.Reps
	} else {
		unset["reps"] = ""
	}
	if set.WeightKg != nil {
		fields["weightKg"] = *set.WeightKg
	} else {
		unset["weightKg"] = ""
	}
	update := bson.M{}
	if len(fields) > 0 {
		update["$set"] = fields
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.sets.UpdateOne(ctx, bson.M{"_id": set.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepository) DeleteSet(ctx context.Context, setID int64) error {
	result, err := r.sets.DeleteOne(ctx, bson.M{"_id": setID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepository) ListSets(ctx context.Context, exerciseIDs []int64) ([]domain.Set, error) {
	if len(exerciseIDs) == 0 {
		return []domain.Set{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "exerciseId", Value: 1}, {Key: "setNumber", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.sets.Find(ctx, bson.M{"exerciseId": bson.M{"$in": exerciseIDs}}, opts)
	if err != nil {
		return nil, err
	}
	sets := []domain.Set{}
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}
