package db

import (
	"errors"
	"testing"
	"time"

	"github.com/susu3304/finbot/internal/ledger"
)

func TestRecordTable(t *testing.T) {
	tests := []struct {
		kind    ledger.Kind
		want    string
		wantErr bool
	}{
		{ledger.KindExpense, "expenses", false},
		{ledger.KindIncome, "incomes", false},
		{ledger.KindDebt, "debts", false},
		{ledger.KindGoal, "", true},
	}
	for _, tt := range tests {
		got, err := recordTable(tt.kind)
		if (err != nil) != tt.wantErr {
			t.Errorf("recordTable(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("recordTable(%q) error = %v, want ErrNotFound", tt.kind, err)
		}
		if got != tt.want {
			t.Errorf("recordTable(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestParseDateUsesLocation(t *testing.T) {
	lima := time.FixedZone("America/Lima", -5*60*60)
	db := &DB{loc: lima}
	got, err := db.parseDate("2026-10-17")
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 10, 17, 0, 0, 0, 0, lima); !got.Equal(want) {
		t.Errorf("parseDate() got = %v, want %v", got, want)
	}
}
