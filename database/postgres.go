package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"nearme/api/logger"
)

const createUsersTable = `
	CREATE TABLE IF NOT EXISTS users (
		id              SERIAL PRIMARY KEY,
		email           TEXT NOT NULL UNIQUE,
		hashed_password BYTEA NOT NULL,
		business_id     TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

type DBClient struct {
	DB *sql.DB
}

func NewPostgresDB(dbURL string) (*DBClient, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database (ping failed): %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return &DBClient{DB: db}, nil
}

// EnsureSchema creates the owner accounts table if it does not exist.
func (c *DBClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func (c *DBClient) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logger.Warn("error closing database connection", zap.Error(err))
		} else {
			logger.Info("PostgreSQL connection closed")
		}
	}
}
