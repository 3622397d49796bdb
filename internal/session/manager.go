// Package session keeps the pending conversational action of each chat.
package session

import (
	"sync"
	"time"

	"github.com/susu3304/finbot/internal/ledger"
)

type Action int

const (
	ActionNone Action = iota
	WaitingConfirmation
	WaitingEditAmount
	WaitingEditCategory
	WaitingEditDescription
	WaitingEditDate
	WaitingDebtReminderChoice
)

func (a Action) String() string {
	switch a {
	case WaitingConfirmation:
		return "WAITING_CONFIRMATION"
	case WaitingEditAmount:
		return "WAITING_EDIT_AMOUNT"
	case WaitingEditCategory:
		return "WAITING_EDIT_CATEGORY"
	case WaitingEditDescription:
		return "WAITING_EDIT_DESCRIPTION"
	case WaitingEditDate:
		return "WAITING_EDIT_DATE"
	case WaitingDebtReminderChoice:
		return "WAITING_DEBT_REMINDER_CHOICE"
	}
	return "IDLE"
}

// EditAction maps an editable field to its waiting state.
func EditAction(f ledger.Field) Action {
	switch f {
	case ledger.FieldAmount:
		return WaitingEditAmount
	case ledger.FieldCategory:
		return WaitingEditCategory
	case ledger.FieldDescription:
		return WaitingEditDescription
	case ledger.FieldDate:
		return WaitingEditDate
	}
	return ActionNone
}

// EditField is the inverse of EditAction.
func (a Action) EditField() (ledger.Field, bool) {
	switch a {
	case WaitingEditAmount:
		return ledger.FieldAmount, true
	case WaitingEditCategory:
		return ledger.FieldCategory, true
	case WaitingEditDescription:
		return ledger.FieldDescription, true
	case WaitingEditDate:
		return ledger.FieldDate, true
	}
	return "", false
}

// Session is the pending state of one chat.
type Session struct {
	Action         Action
	OwnerUser      string
	Target         *ledger.RecordRef
	Draft          *ledger.Draft
	LastEntityName string
	UpdatedAt      time.Time
}

type entry struct {
	mu      sync.Mutex
	refs    int
	session *Session
}

// Key identifies one conversation: a user talking in a chat. Users sharing a
// channel each get their own pending action.
type Key struct {
	ChatID string
	UserID string
}

// Manager stores sessions keyed by chat and user and serialises work per key.
type Manager struct {
	mu    sync.Mutex
	chats map[Key]*entry
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager; sessions idle for longer than ttl are dropped.
// A zero ttl keeps sessions until they are cleared.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		chats: make(map[Key]*entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Acquire locks the conversation of userID in chatID and returns a handle that
// must be released.
func (m *Manager) Acquire(chatID, userID string) *Handle {
	key := Key{ChatID: chatID, UserID: userID}
	m.mu.Lock()
	e, ok := m.chats[key]
	if !ok {
		e = &entry{}
		m.chats[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	if e.session != nil && m.ttl > 0 && m.now().Sub(e.session.UpdatedAt) > m.ttl {
		e.session = nil
	}
	return &Handle{m: m, key: key, e: e}
}

// Peek returns a copy of the pending session without holding the lock for long.
func (m *Manager) Peek(chatID, userID string) (Session, bool) {
	h := m.Acquire(chatID, userID)
	defer h.Release()
	if s := h.Session(); s != nil {
		return *s, true
	}
	return Session{}, false
}

// Len reports the number of tracked conversations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chats)
}

type Handle struct {
	m        *Manager
	key      Key
	e        *entry
	released bool
}

func (h *Handle) ChatID() string { return h.key.ChatID }

func (h *Handle) UserID() string { return h.key.UserID }

// Session returns the pending session, or nil when the chat is idle.
func (h *Handle) Session() *Session {
	return h.e.session
}

// Set stores s as the chat's pending session and reports whether one was replaced.
func (h *Handle) Set(s Session) bool {
	replaced := h.e.session != nil && h.e.session.Action != ActionNone
	s.UpdatedAt = h.m.now()
	h.e.session = &s
	return replaced
}

// Clear returns the chat to idle.
func (h *Handle) Clear() {
	h.e.session = nil
}

// Release unlocks the chat and forgets idle entries.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.e.mu.Unlock()

	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	h.e.refs--
	if h.e.refs == 0 {
		h.e.mu.Lock()
		idle := h.e.session == nil
		h.e.mu.Unlock()
		if idle {
			delete(h.m.chats, h.key)
		}
	}
}
