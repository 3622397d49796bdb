package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/finbot/internal/ledger"
)

const reminderColumns = `id, owner_user, chat_id, description, scheduled_at, is_sent, attempts`

// dueBatch caps how many reminders one tick picks up.
const dueBatch = 100

func (db *DB) CreateReminder(ctx context.Context, r ledger.Reminder) (ledger.Reminder, error) {
	var created ledger.Reminder
	err := db.pool.QueryRow(ctx,
		`INSERT INTO reminders (owner_user, chat_id, description, scheduled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+reminderColumns,
		r.OwnerUser, r.ChatID, r.Description, r.ScheduledAt,
	).Scan(&created.ID, &created.OwnerUser, &created.ChatID, &created.Description, &created.ScheduledAt, &created.IsSent, &created.Attempts)
	if err != nil {
		return ledger.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	return created, nil
}

// DueReminders lists unsent reminders scheduled at or before now. Reminders that
// already failed maxAttempts times are left out; maxAttempts <= 0 disables the cap.
func (db *DB) DueReminders(ctx context.Context, now time.Time, maxAttempts int) ([]ledger.Reminder, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+reminderColumns+`
		FROM reminders
		WHERE is_sent = FALSE AND scheduled_at <= $1 AND ($2 <= 0 OR attempts < $2)
		ORDER BY scheduled_at
		LIMIT $3`,
		now, maxAttempts, dueBatch,
	)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	return collectReminders(rows)
}

// PendingReminders lists the unsent reminders of a chat.
func (db *DB) PendingReminders(ctx context.Context, chatID string) ([]ledger.Reminder, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+reminderColumns+`
		FROM reminders WHERE chat_id = $1 AND is_sent = FALSE ORDER BY scheduled_at`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending reminders: %w", err)
	}
	return collectReminders(rows)
}

// MarkReminderSent flips is_sent once; it reports false when another worker got there first.
func (db *DB) MarkReminderSent(ctx context.Context, id int64, sentAt time.Time) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE reminders SET is_sent = TRUE, sent_at = $2 WHERE id = $1 AND is_sent = FALSE`,
		id, sentAt,
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder %d sent: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// RecordReminderFailure increments the attempt counter and returns the new value.
func (db *DB) RecordReminderFailure(ctx context.Context, id int64) (int, error) {
	var attempts int
	err := db.pool.QueryRow(ctx,
		`UPDATE reminders SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`,
		id,
	).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("record reminder %d failure: %w", id, err)
	}
	return attempts, nil
}

func collectReminders(rows pgx.Rows) ([]ledger.Reminder, error) {
	defer rows.Close()

	var reminders []ledger.Reminder
	for rows.Next() {
		var r ledger.Reminder
		if err := rows.Scan(&r.ID, &r.OwnerUser, &r.ChatID, &r.Description, &r.ScheduledAt, &r.IsSent, &r.Attempts); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reminders, nil
}
