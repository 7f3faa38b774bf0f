package services

import (
	"context"
	"testing"
	"time"

	"symptomwise-backend/database"
	"symptomwise-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func sessionsNS(mt *mtest.T) string {
	return mt.DB.Name() + "." + database.SessionsCollection
}

func TestMongoSessionStore_Get(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("not found", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, sessionsNS(mt), mtest.FirstBatch))

		_, err := store.Get(ctx, "user:1")
		assert.ErrorIs(mt, err, ErrSessionNotFound)
	})

	mt.Run("stored session", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, sessionsNS(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "user:1"},
			{Key: "channel", Value: "web"},
			{Key: "state", Value: string(models.StateCollectingSymptoms1)},
			{Key: "location", Value: "Delhi"},
			{Key: "initial_symptom", Value: "rash"},
			{Key: "version", Value: int64(3)},
		}))

		s, err := store.Get(ctx, "user:1")
		require.NoError(mt, err)
		assert.Equal(mt, models.StateCollectingSymptoms1, s.State)
		assert.Equal(mt, "Delhi", s.Location)
		assert.Equal(mt, "rash", s.InitialSymptom)
		assert.Equal(mt, int64(3), s.Version)
	})

	mt.Run("undecodable document is corrupt", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, sessionsNS(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "user:1"},
			{Key: "state", Value: int32(5)},
		}))

		_, err := store.Get(ctx, "user:1")
		assert.ErrorIs(mt, err, ErrSessionCorrupt)
	})

	mt.Run("server error", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized",
		}))

		_, err := store.Get(ctx, "user:1")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrSessionCorrupt)
		assert.NotErrorIs(mt, err, ErrSessionNotFound)
	})
}

func TestMongoSessionStore_Save(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("first save upserts", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "user:1"}}}},
		))

		s := models.NewSession("user:1", models.ChannelWeb, time.Now())
		require.NoError(mt, store.Save(ctx, s, 0))
		assert.Equal(mt, int64(1), s.Version)
	})

	mt.Run("matching version bumps", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		s := models.NewSession("user:1", models.ChannelWeb, time.Now())
		require.NoError(mt, store.Save(ctx, s, 4))
		assert.Equal(mt, int64(5), s.Version)
		assert.Equal(mt, "update", mt.GetStartedEvent().CommandName)
	})

	mt.Run("stale version conflicts", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		s := models.NewSession("user:1", models.ChannelWeb, time.Now())
		err := store.Save(ctx, s, 2)
		assert.ErrorIs(mt, err, ErrSessionConflict)
		assert.Zero(mt, s.Version)
	})

	mt.Run("concurrent first save conflicts", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		err := store.Save(ctx, models.NewSession("user:1", models.ChannelWeb, time.Now()), 0)
		assert.ErrorIs(mt, err, ErrSessionConflict)
	})
}

func TestChatbotService_RecoversCorruptMongoSession(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reset to welcome", func(mt *mtest.T) {
		store := NewMongoSessionStore(mt.DB)
		svc := newTestChatbot(store, &fakeCompletion{text: "ok"})

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, sessionsNS(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "user:1"},
				{Key: "state", Value: int32(5)},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1},
				bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "user:1"}}}},
			),
		)

		resp, err := svc.ProcessMessage(context.Background(), MessageInput{
			Identity: "user:1",
			Channel:  models.ChannelWeb,
			Text:     "hi",
		})
		require.NoError(mt, err)
		assert.NotEqual(mt, models.KindApology, resp.Kind)

		var commands []string
		for _, evt := range mt.GetAllStartedEvents() {
			commands = append(commands, evt.CommandName)
		}
		assert.Equal(mt, []string{"find", "delete", "update"}, commands)
	})
}
