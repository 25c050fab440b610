package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

const (
	userCollectionName             = "users"
	templateCollectionName         = "workout_templates"
	templateExerciseCollectionName = "template_exercises"
	templateSetCollectionName      = "template_sets"
	sessionCollectionName          = "workout_sessions"
	exerciseCollectionName         = "session_exercises"
	setCollectionName              = "session_sets"
	counterCollectionName          = "counters"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// The initial connection might succeed while the server is unresponsive.
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. The partial
// unique index on workout_sessions is what keeps a user at one active session
// when two starts race.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		userCollectionName: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		templateCollectionName: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		templateExerciseCollectionName: {
			{Keys: bson.D{{Key: "templateId", Value: 1}, {Key: "orderIndex", Value: 1}}},
		},
		templateSetCollectionName: {
			{Keys: bson.D{{Key: "templateExerciseId", Value: 1}, {Key: "setNumber", Value: 1}}},
		},
		sessionCollectionName: {
			{
				Keys: bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().
					SetName("one_active_session_per_user").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "active"}),
			},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}, {Key: "endedAt", Value: -1}}},
		},
		exerciseCollectionName: {
			{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "orderIndex", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "name", Value: 1}}},
		},
		setCollectionName: {
			{Keys: bson.D{{Key: "exerciseId", Value: 1}, {Key: "setNumber", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
