// Package conversation routes chat events through the per-chat state machine.
package conversation

import (
	"context"

	"github.com/susu3304/finbot/internal/ledger"
	"github.com/susu3304/finbot/internal/llm"
)

// Event is one inbound chat event.
type Event interface {
	Chat() string
}

type TextEvent struct {
	ChatID string
	UserID string
	Body   string
}

type PhotoEvent struct {
	ChatID string
	UserID string
	Image  []byte
	MIME   string
}

// CallbackEvent is a button press; Token has the ACTION:PARAM form.
type CallbackEvent struct {
	ChatID     string
	UserID     string
	MessageID  string
	CallbackID string
	Token      string
}

func (e TextEvent) Chat() string     { return e.ChatID }
func (e PhotoEvent) Chat() string    { return e.ChatID }
func (e CallbackEvent) Chat() string { return e.ChatID }

// Button is an inline choice attached to an outbound message.
type Button struct {
	Label string
	Token string
}

// Messenger is the outbound chat API.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string, buttons ...Button) (string, error)
	EditMessage(ctx context.Context, chatID, messageID, text string, buttons ...Button) error
	AcknowledgeCallback(ctx context.Context, callbackID string) error
}

// Store is the persistence the conversation needs. Every method is scoped by owner.
type Store interface {
	CreateRecord(ctx context.Context, owner string, d ledger.Draft) (ledger.RecordRef, error)
	FindRecord(ctx context.Context, owner string, ref ledger.RecordRef) (ledger.Record, error)
	UpdateRecord(ctx context.Context, owner string, rec ledger.Record) error
	DeleteRecord(ctx context.Context, owner string, ref ledger.RecordRef) error
	ContributeToGoal(ctx context.Context, owner, name string, entry ledger.GoalEntry) (ledger.Goal, error)
	CreateReminder(ctx context.Context, r ledger.Reminder) (ledger.Reminder, error)
}

// Responder produces the free-form reply for messages with no financial intent.
type Responder interface {
	Respond(ctx context.Context, prompt string) llm.Answer
}

// ReceiptReader reads a receipt photo.
type ReceiptReader interface {
	Extract(ctx context.Context, image []byte, mime string) (llm.Receipt, error)
}
