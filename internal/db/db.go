package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type DB struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// New connects to Postgres. Calendar dates read back are placed in loc.
func New(ctx context.Context, databaseURL string, loc *time.Location) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}
	return &DB{pool: pool, loc: loc}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// Ping checks that the pool can still reach the database.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// RunMigrations creates the tables if they do not exist yet.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			owner_user TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			date DATE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_expenses_owner ON expenses(owner_user, date);

		CREATE TABLE IF NOT EXISTS incomes (
			id BIGSERIAL PRIMARY KEY,
			owner_user TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			date DATE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_incomes_owner ON incomes(owner_user, date);

		CREATE TABLE IF NOT EXISTS debts (
			id BIGSERIAL PRIMARY KEY,
			owner_user TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			date DATE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_debts_owner ON debts(owner_user, date);

		CREATE TABLE IF NOT EXISTS goals (
			id BIGSERIAL PRIMARY KEY,
			owner_user TEXT NOT NULL,
			name TEXT NOT NULL,
			saved NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (owner_user, name)
		);

		CREATE TABLE IF NOT EXISTS goal_history (
			id BIGSERIAL PRIMARY KEY,
			goal_id BIGINT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
			amount NUMERIC(12,2) NOT NULL,
			date DATE NOT NULL,
			note TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_goal_history_goal ON goal_history(goal_id);

		CREATE TABLE IF NOT EXISTS reminders (
			id BIGSERIAL PRIMARY KEY,
			owner_user TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			description TEXT NOT NULL,
			scheduled_at TIMESTAMPTZ NOT NULL,
			is_sent BOOLEAN NOT NULL DEFAULT FALSE,
			attempts INTEGER NOT NULL DEFAULT 0,
			sent_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(scheduled_at) WHERE is_sent = FALSE;
	`)
	return err
}

func (db *DB) parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, db.loc)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
