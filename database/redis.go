package database

import (
	"context"
	"fmt"
	"time"

	"symptomwise-backend/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var redisClient *redis.Client

// ConnectRedis opens the client backing the guest session store.
func ConnectRedis(cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	redisClient = client
	zap.L().Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	return nil
}

// GetRedis returns the client, or nil when not connected.
func GetRedis() *redis.Client {
	return redisClient
}

func DisconnectRedis() error {
	if redisClient == nil {
		return nil
	}
	err := redisClient.Close()
	redisClient = nil
	return err
}
