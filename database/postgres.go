package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"symptomwise-backend/config"

	_ "github.com/lib/pq" // Postgres driver
	"go.uber.org/zap"
)

var postgresDB *sql.DB

// ConnectPostgres opens the PostgreSQL pool used by the directory.
func ConnectPostgres(cfg *config.Config) error {
	db, err := sql.Open("postgres", cfg.BuildDatabaseURI("postgresql"))
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MinConnections)
	db.SetConnMaxIdleTime(cfg.Database.MaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	postgresDB = db
	zap.L().Info("Connected to PostgreSQL", zap.String("database", cfg.Database.Name))
	return nil
}

// GetPostgresDB returns the pool, or nil when not connected.
func GetPostgresDB() *sql.DB {
	return postgresDB
}

func DisconnectPostgres() error {
	if postgresDB == nil {
		return nil
	}
	err := postgresDB.Close()
	postgresDB = nil
	return err
}
