package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/finbot/internal/ledger"
)

var recordTables = map[ledger.Kind]string{
	ledger.KindExpense: "expenses",
	ledger.KindIncome:  "incomes",
	ledger.KindDebt:    "debts",
}

func recordTable(k ledger.Kind) (string, error) {
	table, ok := recordTables[k]
	if !ok {
		return "", fmt.Errorf("%w: no record table for kind %q", ledger.ErrNotFound, k)
	}
	return table, nil
}

func (db *DB) CreateRecord(ctx context.Context, owner string, d ledger.Draft) (ledger.RecordRef, error) {
	table, err := recordTable(d.Kind)
	if err != nil {
		return ledger.RecordRef{}, err
	}
	var id int64
	err = db.pool.QueryRow(ctx,
		`INSERT INTO `+table+` (owner_user, amount, category, description, date)
		VALUES ($1, $2::numeric, $3, $4, $5::date)
		RETURNING id`,
		owner, d.Amount.StringFixed(2), d.Category, d.Description, d.DateString(),
	).Scan(&id)
	if err != nil {
		return ledger.RecordRef{}, fmt.Errorf("insert %s: %w", table, err)
	}
	return ledger.RecordRef{Kind: d.Kind, ID: id}, nil
}

// FindRecord returns ledger.ErrNotFound when the record does not exist or belongs to someone else.
func (db *DB) FindRecord(ctx context.Context, owner string, ref ledger.RecordRef) (ledger.Record, error) {
	table, err := recordTable(ref.Kind)
	if err != nil {
		return ledger.Record{}, err
	}
	var (
		rec            = ledger.Record{Ref: ref}
		amount, dateTx string
	)
	err = db.pool.QueryRow(ctx,
		`SELECT owner_user, amount::text, category, description, date::text
		FROM `+table+` WHERE id = $1 AND owner_user = $2`,
		ref.ID, owner,
	).Scan(&rec.OwnerUser, &amount, &rec.Category, &rec.Description, &dateTx)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Record{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("select %s %d: %w", table, ref.ID, err)
	}
	if rec.Amount, err = parseAmount(amount); err != nil {
		return ledger.Record{}, err
	}
	if rec.Date, err = db.parseDate(dateTx); err != nil {
		return ledger.Record{}, fmt.Errorf("invalid date %q: %w", dateTx, err)
	}
	return rec, nil
}

func (db *DB) UpdateRecord(ctx context.Context, owner string, rec ledger.Record) error {
	table, err := recordTable(rec.Ref.Kind)
	if err != nil {
		return err
	}
	result, err := db.pool.Exec(ctx,
		`UPDATE `+table+` SET amount = $3::numeric, category = $4, description = $5, date = $6::date
		WHERE id = $1 AND owner_user = $2`,
		rec.Ref.ID, owner, rec.Amount.StringFixed(2), rec.Category, rec.Description, rec.Date.Format(ledger.DateLayout),
	)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", table, rec.Ref.ID, err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (db *DB) DeleteRecord(ctx context.Context, owner string, ref ledger.RecordRef) error {
	table, err := recordTable(ref.Kind)
	if err != nil {
		return err
	}
	result, err := db.pool.Exec(ctx,
		`DELETE FROM `+table+` WHERE id = $1 AND owner_user = $2`,
		ref.ID, owner,
	)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", table, ref.ID, err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
