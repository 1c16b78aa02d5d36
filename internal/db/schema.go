package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		email VARCHAR(255) UNIQUE,
		is_pro BOOLEAN NOT NULL DEFAULT FALSE,
		pro_until TIMESTAMPTZ,
		otp_code_hash TEXT,
		otp_expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS otp_code_hash TEXT`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS otp_expires_at TIMESTAMPTZ`,
	`CREATE TABLE IF NOT EXISTS entries (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL REFERENCES users(id),
		text TEXT NOT NULL,
		top_emotion VARCHAR(64),
		top_score DOUBLE PRECISION,
		scores_json TEXT,
		score_vector vector(7),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS entries_user_created_idx ON entries (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		tx_ref VARCHAR(128) NOT NULL UNIQUE,
		flw_tx_id VARCHAR(64) UNIQUE,
		status VARCHAR(64) NOT NULL DEFAULT 'initialized',
		amount DOUBLE PRECISION,
		currency VARCHAR(16),
		raw_json TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS payments_user_idx ON payments (user_id)`,
}

// EnsureSchema crea las tablas si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
