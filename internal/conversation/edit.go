package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/susu3304/finbot/internal/intent"
	"github.com/susu3304/finbot/internal/ledger"
	"github.com/susu3304/finbot/internal/session"
)

// ParseAmount accepts "25", "25.5", "25,50" or "S/ 25.50"; the result must be positive.
func ParseAmount(input string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "S/")
	s = strings.TrimPrefix(s, "s/")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d.Round(2), true
}

// applyEdit validates the new field value, then updates the target record.
// An invalid value keeps the chat in the same state.
func (m *Machine) applyEdit(ctx context.Context, h *session.Handle, s *session.Session, field ledger.Field, body string) {
	chatID := h.ChatID()
	if s.Target == nil {
		h.Clear()
		m.send(ctx, chatID, msgStale)
		return
	}

	var (
		amount decimal.Decimal
		date   time.Time
		text   string
		ok     bool
	)
	switch field {
	case ledger.FieldAmount:
		if amount, ok = ParseAmount(body); !ok {
			m.send(ctx, chatID, msgInvalidAmount)
			return
		}
	case ledger.FieldDate:
		if date, ok = intent.ParseDate(body, m.now(), m.classifier.Location()); !ok {
			m.send(ctx, chatID, msgInvalidDate)
			return
		}
	case ledger.FieldCategory:
		text = strings.TrimSpace(body)
		if name, ok := m.classifier.Keywords().CategoryName(text); ok {
			text = name
		}
	case ledger.FieldDescription:
		text = strings.TrimSpace(body)
	}
	if (field == ledger.FieldCategory || field == ledger.FieldDescription) && text == "" {
		m.send(ctx, chatID, msgInvalidText)
		return
	}

	rec, ok := m.findRecord(ctx, h, chatID, s.OwnerUser, *s.Target)
	if !ok {
		return
	}
	switch field {
	case ledger.FieldAmount:
		rec.Amount = amount
	case ledger.FieldDate:
		rec.Date = date
	case ledger.FieldCategory:
		rec.Category = text
	case ledger.FieldDescription:
		rec.Description = text
	}

	sctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	err := m.store.UpdateRecord(sctx, s.OwnerUser, rec)
	h.Clear()
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		m.send(ctx, chatID, msgNotFound)
	case err != nil:
		m.storeFailed(ctx, chatID, "update record", err)
	default:
		m.send(ctx, chatID, "✏️ Actualizado. "+recordText(rec), recordButtons(rec.Ref)...)
	}
}

// findRecord loads a record owned by owner. On failure the pending action is
// cleared, the user is told, and ok is false.
func (m *Machine) findRecord(ctx context.Context, h *session.Handle, chatID, owner string, ref ledger.RecordRef) (ledger.Record, bool) {
	sctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	rec, err := m.store.FindRecord(sctx, owner, ref)
	if err == nil {
		return rec, true
	}
	h.Clear()
	if errors.Is(err, ledger.ErrNotFound) {
		m.send(ctx, chatID, msgNotFound)
	} else {
		m.storeFailed(ctx, chatID, "find record", err)
	}
	return ledger.Record{}, false
}

func (m *Machine) undo(ctx context.Context, h *session.Handle, ev CallbackEvent, ref ledger.RecordRef) {
	sctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	err := m.store.DeleteRecord(sctx, ev.UserID, ref)
	if s := h.Session(); s != nil && s.Target != nil && *s.Target == ref {
		h.Clear()
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		m.edit(ctx, ev.ChatID, ev.MessageID, msgNotFound)
	case err != nil:
		m.storeFailed(ctx, ev.ChatID, "delete record", err)
	default:
		m.edit(ctx, ev.ChatID, ev.MessageID, msgUndone)
	}
}
