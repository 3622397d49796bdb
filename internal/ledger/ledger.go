// Package ledger holds the finance records the bot creates and edits.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by stores when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// DateLayout is the ISO calendar date form used in messages and storage.
const DateLayout = "2006-01-02"

type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
	KindDebt    Kind = "debt"
	KindGoal    Kind = "goal"
)

// Kinds lists every record kind in the order confirmation buttons show them.
var Kinds = []Kind{KindExpense, KindIncome, KindDebt, KindGoal}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindExpense, KindIncome, KindDebt, KindGoal:
		return k, nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// Label is the user-facing name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindExpense:
		return "Gasto"
	case KindIncome:
		return "Ingreso"
	case KindDebt:
		return "Deuda"
	case KindGoal:
		return "Ahorro"
	}
	return string(k)
}

// DefaultCategory is used when no category keyword matched.
func DefaultCategory(k Kind) string {
	if k == KindExpense {
		return "Varios"
	}
	return "Otros"
}

// Draft is a classified transaction that has not been stored yet.
type Draft struct {
	Kind        Kind
	Ambiguous   bool
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
}

// Retype changes the draft kind, swapping a defaulted category for the new kind's default.
func (d *Draft) Retype(k Kind) {
	if d.Category == DefaultCategory(d.Kind) {
		if d.Description == d.Category {
			d.Description = DefaultCategory(k)
		}
		d.Category = DefaultCategory(k)
	}
	d.Kind = k
	d.Ambiguous = false
}

func (d Draft) DateString() string {
	return d.Date.Format(DateLayout)
}

// RecordRef points at a stored record of a given kind.
type RecordRef struct {
	Kind Kind
	ID   int64
}

func (r RecordRef) String() string {
	return fmt.Sprintf("%s-%d", r.Kind, r.ID)
}

// ParseRecordRef parses the "kind-id" form produced by RecordRef.String.
func ParseRecordRef(s string) (RecordRef, error) {
	kindStr, idStr, ok := strings.Cut(s, "-")
	if !ok {
		return RecordRef{}, fmt.Errorf("invalid record reference %q", s)
	}
	kind, err := ParseKind(kindStr)
	if err != nil {
		return RecordRef{}, err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return RecordRef{}, fmt.Errorf("invalid record id in %q", s)
	}
	return RecordRef{Kind: kind, ID: id}, nil
}

type Field string

const (
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldDescription Field = "description"
	FieldDate        Field = "date"
)

// Fields lists editable fields in menu order.
var Fields = []Field{FieldAmount, FieldCategory, FieldDescription, FieldDate}

func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldAmount, FieldCategory, FieldDescription, FieldDate:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

func (f Field) Label() string {
	switch f {
	case FieldAmount:
		return "Monto"
	case FieldCategory:
		return "Categoría"
	case FieldDescription:
		return "Descripción"
	case FieldDate:
		return "Fecha"
	}
	return string(f)
}

// Record is a stored expense, income or debt.
type Record struct {
	Ref         RecordRef
	OwnerUser   string
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
}

// GoalEntry is one contribution in a goal's history.
type GoalEntry struct {
	Amount decimal.Decimal
	Date   time.Time
	Note   string
}

type Goal struct {
	ID        int64
	OwnerUser string
	Name      string
	Saved     decimal.Decimal
}

type Reminder struct {
	ID          int64     `json:"id"`
	OwnerUser   string    `json:"owner_user"`
	ChatID      string    `json:"chat_id"`
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduled_at"`
	IsSent      bool      `json:"is_sent"`
	Attempts    int       `json:"attempts"`
}

// FormatAmount renders an amount in soles with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return "S/ " + d.StringFixed(2)
}
