package database

import (
	"context"
	"fmt"
	"time"

	"symptomwise-backend/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	SessionsCollection  = "chat_sessions"
	DoctorsCollection   = "doctors"
	HospitalsCollection = "hospitals"
)

var (
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
)

// ConnectMongoDB establishes connection to MongoDB
func ConnectMongoDB(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.BuildDatabaseURI("mongodb")).
		SetMaxPoolSize(uint64(cfg.Database.MaxConnections)).
		SetMinPoolSize(uint64(cfg.Database.MinConnections)).
		SetMaxConnIdleTime(cfg.Database.MaxIdleTime)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoClient = client
	mongoDB = client.Database(cfg.Database.Name)

	zap.L().Info("Connected to MongoDB", zap.String("database", cfg.Database.Name))

	if err := createIndexes(ctx, mongoDB); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// GetMongoDB returns the MongoDB database instance, or nil when not connected.
func GetMongoDB() *mongo.Database {
	return mongoDB
}

func createIndexes(ctx context.Context, db *mongo.Database) error {
	sessionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "last_activity_at", Value: -1}}},
		{Keys: bson.D{{Key: "channel", Value: 1}}},
	}
	if _, err := db.Collection(SessionsCollection).Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	doctorIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "specialty", Value: 1},
				{Key: "is_available", Value: 1},
			},
		},
		{Keys: bson.D{{Key: "hospital_city", Value: 1}}},
		{Keys: bson.D{{Key: "experience_years", Value: -1}}},
	}
	if _, err := db.Collection(DoctorsCollection).Indexes().CreateMany(ctx, doctorIndexes); err != nil {
		return fmt.Errorf("failed to create doctor indexes: %w", err)
	}

	hospitalIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "is_active", Value: 1},
				{Key: "city", Value: 1},
			},
		},
	}
	if _, err := db.Collection(HospitalsCollection).Indexes().CreateMany(ctx, hospitalIndexes); err != nil {
		return fmt.Errorf("failed to create hospital indexes: %w", err)
	}

	zap.L().Info("Database indexes created successfully")
	return nil
}

// DisconnectMongoDB closes the MongoDB connection
func DisconnectMongoDB() error {
	if mongoClient == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mongoClient.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	mongoClient, mongoDB = nil, nil

	zap.L().Info("Disconnected from MongoDB")
	return nil
}
