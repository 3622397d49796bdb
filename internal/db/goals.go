package db

import (
	"context"
	"fmt"

	"github.com/susu3304/finbot/internal/ledger"
)

// ContributeToGoal adds entry to the owner's goal called name, creating the goal on first use.
func (db *DB) ContributeToGoal(ctx context.Context, owner, name string, entry ledger.GoalEntry) (ledger.Goal, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return ledger.Goal{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	g := ledger.Goal{OwnerUser: owner, Name: name}
	var saved string
	err = tx.QueryRow(ctx,
		`INSERT INTO goals (owner_user, name, saved) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (owner_user, name) DO UPDATE SET saved = goals.saved + EXCLUDED.saved
		RETURNING id, saved::text`,
		owner, name, entry.Amount.StringFixed(2),
	).Scan(&g.ID, &saved)
	if err != nil {
		return ledger.Goal{}, fmt.Errorf("upsert goal %q: %w", name, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO goal_history (goal_id, amount, date, note) VALUES ($1, $2::numeric, $3::date, $4)`,
		g.ID, entry.Amount.StringFixed(2), entry.Date.Format(ledger.DateLayout), entry.Note,
	)
	if err != nil {
		return ledger.Goal{}, fmt.Errorf("insert goal history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ledger.Goal{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	if g.Saved, err = parseAmount(saved); err != nil {
		return ledger.Goal{}, err
	}
	return g, nil
}
