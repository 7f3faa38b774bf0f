package services

import (
	"context"
	"time"

	"symptomwise-backend/database"
	"symptomwise-backend/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionStore persists authenticated users' sessions. They never
// expire.
type MongoSessionStore struct {
	collection *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{collection: db.Collection(database.SessionsCollection)}
}

// Get returns ErrSessionCorrupt for a stored document that no longer
// decodes into a session.
func (m *MongoSessionStore) Get(ctx context.Context, identity string) (*models.Session, error) {
	raw, err := m.collection.FindOne(ctx, bson.M{"_id": identity}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find session %s", identity)
	}

	var s models.Session
	if err := bson.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(ErrSessionCorrupt, err.Error())
	}
	return &s, nil
}

// Save replaces the record only while it still carries expectedVersion. A
// first save upserts; a concurrent first save loses on the duplicate _id.
func (m *MongoSessionStore) Save(ctx context.Context, session *models.Session, expectedVersion int64) error {
	next := session.Clone()
	next.Version = expectedVersion + 1
	if next.LastActivityAt.IsZero() {
		next.LastActivityAt = time.Now()
	}

	filter := bson.M{"_id": session.Identity, "version": expectedVersion}
	opts := options.Replace().SetUpsert(expectedVersion == 0)

	res, err := m.collection.ReplaceOne(ctx, filter, next, opts)
	if mongo.IsDuplicateKeyError(err) {
		return ErrSessionConflict
	}
	if err != nil {
		return errors.Wrapf(err, "save session %s", session.Identity)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrSessionConflict
	}
	session.Version = next.Version
	return nil
}

func (m *MongoSessionStore) Delete(ctx context.Context, identity string) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"_id": identity})
	return errors.Wrap(err, "delete session")
}

func (m *MongoSessionStore) Count(ctx context.Context) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "count sessions")
}
