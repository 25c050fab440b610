package mongo

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTemplateRepository implements repository.TemplateRepository. The
// template tree is stored in three collections, one document per node.
type mongoTemplateRepository struct {
	templates *mongo.Collection
	exercises *mongo.Collection
	sets      *mongo.Collection
	ids       *counters
}

// NewMongoTemplateRepository creates a new instance of mongoTemplateRepository.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		templates: db.Collection(templateCollectionName),
		exercises: db.Collection(templateExerciseCollectionName),
		sets:      db.Collection(templateSetCollectionName),
		ids:       newCounters(db),
	}
}

func (r *mongoTemplateRepository) Create(ctx context.Context, template *domain.Template) (int64, error) {
	id, err := r.ids.next(ctx, templateCollectionName)
	if err != nil {
		return 0, err
	}
	template.ID = id
	template.CreatedAt = time.Now().UTC()
	if _, err := r.templates.InsertOne(ctx, template); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *mongoTemplateRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Template, error) {
	var template domain.Template
	if err := r.templates.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&template); err != nil {
		return nil, notFound(err)
	}
	return &template, nil
}

func (r *mongoTemplateRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Template, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.templates.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	templates := []domain.Template{}
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Update replaces name and description. A nil description is stored as absent.
func (r *mongoTemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	update := bson.M{"$set": bson.M{"name": template.Name}}
	if template.Description != nil {
		update["$set"].(bson.M)["description"] = *template.Description
	} else {
		update["$unset"] = bson.M{"description": ""}
	}

	result, err := r.templates.UpdateOne(ctx, bson.M{"_id": template.ID, "userId": template.UserID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTemplateRepository) Delete(ctx context.Context, userID, id int64) error {
	if _, err := r.GetByID(ctx, userID, id); err != nil {
		return err
	}
	if _, err := r.DeleteExercises(ctx, id); err != nil {
		return err
	}
	result, err := r.templates.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrDeleteFailed
	}
	return nil
}

func (r *mongoTemplateRepository) AddExercise(ctx context.Context, exercise *domain.TemplateExercise) (int64, error) {
	id, err := r.ids.next(ctx, templateExerciseCollectionName)
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

func (r *mongoTemplateRepository) ListExercises(ctx context.Context, templateID int64) ([]domain.TemplateExercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.exercises.Find(ctx, bson.M{"templateId": templateID}, opts)
	if err != nil {
		return nil, err
	}
	exercises := []domain.TemplateExercise{}
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (r *mongoTemplateRepository) DeleteExercises(ctx context.Context, templateID int64) (int64, error) {
	ids, err := distinctIDs(ctx, r.exercises, bson.M{"templateId": templateID})
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if _, err := r.sets.DeleteMany(ctx, bson.M{"templateExerciseId": bson.M{"$in": ids}}); err != nil {
		return 0, err
	}
	result, err := r.exercises.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoTemplateRepository) AddSet(ctx context.Context, set *domain.TemplateSet) (int64, error) {
	id, err := r.ids.next(ctx, templateSetCollectionName)
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

func (r *mongoTemplateRepository) ListSets(ctx context.Context, templateExerciseIDs []int64) ([]domain.TemplateSet, error) {
	if len(templateExerciseIDs) == 0 {
		return []domain.TemplateSet{}, nil
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "templateExerciseId", Value: 1}, {Key: "setNumber", Value: 1}, {Key: "_id", Value: 1},
	})
	cursor, err := r.sets.Find(ctx, bson.M{"templateExerciseId": bson.M{"$in": templateExerciseIDs}}, opts)
	if err != nil {
		return nil, err
	}
	sets := []domain.TemplateSet{}
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// distinctIDs returns the _id of every document matching filter.
func distinctIDs(ctx context.Context, collection *mongo.Collection, filter interface{}) ([]int64, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID int64 `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]int64, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids, nil
}
