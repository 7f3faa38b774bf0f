package database

import (
	"context"
	"fmt"
	"time"

	"symptomwise-backend/config"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Connect opens every backing store the configuration asks for.
func Connect(cfg *config.Config) error {
	if cfg.UsesMongo() {
		if err := ConnectMongoDB(cfg); err != nil {
			return err
		}
	}
	if cfg.Directory.Backend == "postgresql" {
		if err := ConnectPostgres(cfg); err != nil {
			return err
		}
	}
	if cfg.Sessions.Backend == "redis" {
		if err := ConnectRedis(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect closes all open connections
func Disconnect() {
	if err := DisconnectMongoDB(); err != nil {
		zap.L().Error("Failed to disconnect MongoDB", zap.Error(err))
	}
	if err := DisconnectPostgres(); err != nil {
		zap.L().Error("Failed to close PostgreSQL", zap.Error(err))
	}
	if err := DisconnectRedis(); err != nil {
		zap.L().Error("Failed to close Redis", zap.Error(err))
	}
}

// HealthCheck pings every open connection
func HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if mongoClient != nil {
		if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			return fmt.Errorf("mongodb: %w", err)
		}
	}
	if postgresDB != nil {
		if err := postgresDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgresql: %w", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
