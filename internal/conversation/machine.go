package conversation

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/susu3304/finbot/internal/intent"
	"github.com/susu3304/finbot/internal/ledger"
	"github.com/susu3304/finbot/internal/llm"
	"github.com/susu3304/finbot/internal/reminder"
	"github.com/susu3304/finbot/internal/session"
	"github.com/susu3304/finbot/internal/textnorm"
)

// Hour of day (reference zone) at which debt reminders fire.
const debtReminderHour = 9

const maxReminderDays = 365

var cancelWords = map[string]bool{
	"cancelar": true,
	"cancela":  true,
	"cancel":   true,
	"/cancel":  true,
}

var kindWords = map[string]ledger.Kind{
	"gasto":   ledger.KindExpense,
	"ingreso": ledger.KindIncome,
	"deuda":   ledger.KindDebt,
	"ahorro":  ledger.KindGoal,
	"meta":    ledger.KindGoal,
}

type Config struct {
	Sessions   *session.Manager
	Classifier *intent.Classifier
	Reminders  *reminder.Parser
	Store      Store
	Messenger  Messenger
	Responder  Responder
	Receipts   ReceiptReader
	// StoreTimeout bounds every store call.
	StoreTimeout time.Duration
}

// Machine is the per-chat conversation state machine.
type Machine struct {
	sessions     *session.Manager
	classifier   *intent.Classifier
	reminders    *reminder.Parser
	store        Store
	msg          Messenger
	responder    Responder
	receipts     ReceiptReader
	storeTimeout time.Duration
	now          func() time.Time
}

func New(cfg Config) *Machine {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &Machine{
		sessions:     cfg.Sessions,
		classifier:   cfg.Classifier,
		reminders:    cfg.Reminders,
		store:        cfg.Store,
		msg:          cfg.Messenger,
		responder:    cfg.Responder,
		receipts:     cfg.Receipts,
		storeTimeout: cfg.StoreTimeout,
		now:          time.Now,
	}
}

// Handle dispatches one inbound event. Failures are logged and reported to
// the chat; they never escape to the caller.
func (m *Machine) Handle(ctx context.Context, ev Event) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("conversation: chat %s: panic while handling %T: %v", ev.Chat(), ev, p)
		}
	}()

	switch e := ev.(type) {
	case TextEvent:
		m.HandleText(ctx, e)
	case PhotoEvent:
		m.HandlePhoto(ctx, e)
	case CallbackEvent:
		m.HandleCallback(ctx, e)
	default:
		log.Printf("conversation: unsupported event %T", ev)
	}
}

// HandleText resumes the chat's pending action or classifies a new message.
func (m *Machine) HandleText(ctx context.Context, ev TextEvent) {
	h := m.sessions.Acquire(ev.ChatID, ev.UserID)
	defer h.Release()

	body := strings.TrimSpace(ev.Body)
	if body == "" {
		return
	}
	if s := h.Session(); s != nil {
		m.resume(ctx, h, s, body)
		return
	}

	if m.classifier.IsReminder(body) {
		m.scheduleReminder(ctx, ev.ChatID, ev.UserID, body)
		return
	}

	draft, err := m.classifier.Classify(body, m.now())
	if errors.Is(err, intent.ErrNoAmount) {
		// The free-form reply never touches the session; let queued events through.
		h.Release()
		answer := m.responder.Respond(ctx, body)
		m.send(ctx, ev.ChatID, answer.Text)
		return
	}
	if err != nil {
		log.Printf("conversation: chat %s: classify failed: %v", ev.ChatID, err)
		return
	}

	if draft.Ambiguous {
		m.askConfirmation(ctx, h, ev.UserID, draft)
		return
	}
	m.commit(ctx, h, ev.UserID, draft)
}

// HandlePhoto reads a receipt and asks the user to confirm the resulting draft.
// The vision call runs before the conversation lock is taken.
func (m *Machine) HandlePhoto(ctx context.Context, ev PhotoEvent) {
	if m.receipts == nil {
		m.send(ctx, ev.ChatID, msgReceiptFailed)
		return
	}
	r, err := m.receipts.Extract(ctx, ev.Image, ev.MIME)
	if errors.Is(err, llm.ErrNoReceipt) {
		m.send(ctx, ev.ChatID, msgNoReceipt)
		return
	}
	if err != nil {
		log.Printf("conversation: chat %s: receipt extraction failed: %v", ev.ChatID, err)
		m.send(ctx, ev.ChatID, msgReceiptFailed)
		return
	}
	h := m.sessions.Acquire(ev.ChatID, ev.UserID)
	defer h.Release()
	m.askConfirmation(ctx, h, ev.UserID, m.receiptDraft(r))
}

// HandleCallback applies a button press.
func (m *Machine) HandleCallback(ctx context.Context, ev CallbackEvent) {
	if err := m.msg.AcknowledgeCallback(ctx, ev.CallbackID); err != nil {
		log.Printf("conversation: chat %s: ack callback %s failed: %v", ev.ChatID, ev.CallbackID, err)
	}

	action, param, ok := ParseToken(ev.Token)
	if !ok {
		log.Printf("conversation: chat %s: ignoring unknown callback token %q", ev.ChatID, ev.Token)
		return
	}

	h := m.sessions.Acquire(ev.ChatID, ev.UserID)
	defer h.Release()
	s := h.Session()

	switch action {
	case ActionCancel:
		if s == nil {
			m.edit(ctx, ev.ChatID, ev.MessageID, msgNothingPending)
			return
		}
		h.Clear()
		m.edit(ctx, ev.ChatID, ev.MessageID, msgCancelled)

	case ActionConfirmType:
		kind, err := ledger.ParseKind(param)
		if s == nil || s.Action != session.WaitingConfirmation || s.Draft == nil || err != nil {
			m.edit(ctx, ev.ChatID, ev.MessageID, msgStale)
			return
		}
		draft := *s.Draft
		draft.Retype(kind)
		m.edit(ctx, ev.ChatID, ev.MessageID, "Tipo elegido: "+kind.Label()+".")
		m.commit(ctx, h, s.OwnerUser, draft)

	case ActionDebtRemind:
		days, err := strconv.Atoi(param)
		if s == nil || s.Action != session.WaitingDebtReminderChoice || err != nil || days < 1 || days > maxReminderDays {
			m.edit(ctx, ev.ChatID, ev.MessageID, msgStale)
			return
		}
		m.edit(ctx, ev.ChatID, ev.MessageID, msgDebtReminderAsk+" "+daysLabel(days)+".")
		m.remindDebt(ctx, h, s, days)

	case ActionNoRemind:
		if s == nil || s.Action != session.WaitingDebtReminderChoice {
			m.edit(ctx, ev.ChatID, ev.MessageID, msgStale)
			return
		}
		h.Clear()
		m.edit(ctx, ev.ChatID, ev.MessageID, msgNoReminder)

	case ActionEditMenu:
		ref, err := ledger.ParseRecordRef(param)
		if err != nil {
			m.edit(ctx, ev.ChatID, ev.MessageID, msgStale)
			return
		}
		rec, ok := m.findRecord(ctx, h, ev.ChatID, ev.UserID, ref)
		if !ok {
			return
		}
		m.edit(ctx, ev.ChatID, ev.MessageID, recordText(rec)+"\n¿Qué quieres editar?", editMenuButtons(ref)...)

	case ActionEditField:
		field, ref, err := parseEditFieldParam(param)
		if err != nil {
			m.edit(ctx, ev.ChatID, ev.MessageID, msgStale)
			return
		}
		rec, ok := m.findRecord(ctx, h, ev.ChatID, ev.UserID, ref)
		if !ok {
			return
		}
		replaced := h.Set(session.Session{
			Action:    session.EditAction(field),
			OwnerUser: ev.UserID,
			Target:    &ref,
		})
		prompt := editPrompt(field, rec)
		if replaced {
			prompt = msgReplaced + "\n" + prompt
		}
		m.edit(ctx, ev.ChatID, ev.MessageID, recordText(rec))
		m.send(ctx, ev.ChatID, prompt, Button{Label: "Cancelar", Token: Token(ActionCancel, "")})

	case ActionUndo:
		ref, err := ledger.ParseRecordRef(param)
		if err != nil {
			m.edit(ctx, ev.ChatID, ev.MessageID, msgStale)
			return
		}
		m.undo(ctx, h, ev, ref)
	}
}

func (m *Machine) resume(ctx context.Context, h *session.Handle, s *session.Session, body string) {
	chatID := h.ChatID()
	folded := textnorm.Fold(body)
	if cancelWords[folded] {
		h.Clear()
		m.send(ctx, chatID, msgCancelled)
		return
	}

	if field, ok := s.Action.EditField(); ok {
		m.applyEdit(ctx, h, s, field, body)
		return
	}

	switch s.Action {
	case session.WaitingConfirmation:
		kind, ok := kindWords[textnorm.TrimToken(folded)]
		if !ok || s.Draft == nil {
			m.send(ctx, chatID, msgAskType, confirmTypeButtons()...)
			return
		}
		draft := *s.Draft
		draft.Retype(kind)
		m.commit(ctx, h, s.OwnerUser, draft)

	case session.WaitingDebtReminderChoice:
		if folded == "no" || strings.HasPrefix(folded, "no ") {
			h.Clear()
			m.send(ctx, chatID, msgNoReminder)
			return
		}
		days, err := leadingInt(folded)
		if err != nil || days < 1 || days > maxReminderDays {
			m.send(ctx, chatID, msgAskDays, debtReminderButtons()...)
			return
		}
		m.remindDebt(ctx, h, s, days)

	default:
		h.Clear()
	}
}

func (m *Machine) askConfirmation(ctx context.Context, h *session.Handle, userID string, d ledger.Draft) {
	d.Ambiguous = true
	replaced := h.Set(session.Session{
		Action:    session.WaitingConfirmation,
		OwnerUser: userID,
		Draft:     &d,
	})
	text := confirmPrompt(d)
	if replaced {
		text = msgReplaced + "\n" + text
	}
	m.send(ctx, h.ChatID(), text, confirmTypeButtons()...)
}

// commit stores the draft and leaves the chat idle, or waiting for a debt reminder choice.
func (m *Machine) commit(ctx context.Context, h *session.Handle, owner string, d ledger.Draft) {
	chatID := h.ChatID()
	sctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()

	if d.Kind == ledger.KindGoal {
		g, err := m.store.ContributeToGoal(sctx, owner, d.Description, ledger.GoalEntry{
			Amount: d.Amount,
			Date:   d.Date,
			Note:   "Registrado desde el chat",
		})
		h.Clear()
		if err != nil {
			m.storeFailed(ctx, chatID, "contribute to goal", err)
			return
		}
		m.send(ctx, chatID, goalText(g, ledger.FormatAmount(d.Amount)))
		return
	}

	ref, err := m.store.CreateRecord(sctx, owner, d)
	if err != nil {
		h.Clear()
		m.storeFailed(ctx, chatID, "create record", err)
		return
	}
	m.send(ctx, chatID, committedText(ref, d), recordButtons(ref)...)

	if d.Kind != ledger.KindDebt {
		h.Clear()
		return
	}
	h.Set(session.Session{
		Action:         session.WaitingDebtReminderChoice,
		OwnerUser:      owner,
		Target:         &ref,
		LastEntityName: d.Description,
	})
	m.send(ctx, chatID, msgDebtReminderAsk, debtReminderButtons()...)
}

func (m *Machine) remindDebt(ctx context.Context, h *session.Handle, s *session.Session, days int) {
	loc := m.classifier.Location()
	local := m.now().In(loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), debtReminderHour, 0, 0, 0, loc).AddDate(0, 0, days)

	desc := "Pagar deuda"
	if s.LastEntityName != "" {
		desc += ": " + s.LastEntityName
	}
	r := ledger.Reminder{
		OwnerUser:   s.OwnerUser,
		ChatID:      h.ChatID(),
		Description: desc,
		ScheduledAt: at,
	}
	h.Clear()
	m.createReminder(ctx, r)
}

func (m *Machine) scheduleReminder(ctx context.Context, chatID, userID, body string) {
	parsed, err := m.reminders.Parse(body, m.now())
	if errors.Is(err, reminder.ErrNoTime) {
		m.send(ctx, chatID, msgAskTime)
		return
	}
	if err != nil {
		log.Printf("conversation: chat %s: reminder parse failed: %v", chatID, err)
		m.send(ctx, chatID, msgAskTime)
		return
	}
	m.createReminder(ctx, ledger.Reminder{
		OwnerUser:   userID,
		ChatID:      chatID,
		Description: parsed.Description,
		ScheduledAt: parsed.At,
	})
}

func (m *Machine) createReminder(ctx context.Context, r ledger.Reminder) {
	sctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	created, err := m.store.CreateReminder(sctx, r)
	if err != nil {
		m.storeFailed(ctx, r.ChatID, "create reminder", err)
		return
	}
	created.ScheduledAt = created.ScheduledAt.In(m.classifier.Location())
	m.send(ctx, r.ChatID, reminderConfirmation(created))
}

func (m *Machine) receiptDraft(r llm.Receipt) ledger.Draft {
	d := ledger.Draft{
		Kind:        r.Kind,
		Ambiguous:   true,
		Amount:      r.Amount,
		Description: textnorm.Capitalize(r.Description),
		Date:        r.Date,
	}
	if cat, ok := m.classifier.DetectCategory(textnorm.Fold(r.Description)); ok {
		d.Category = cat
	} else {
		d.Category = ledger.DefaultCategory(d.Kind)
	}
	if d.Description == "" {
		d.Description = d.Category
	}
	if d.Date.IsZero() {
		d.Date = intent.ResolveDate("", m.now(), m.classifier.Location())
	}
	return d
}

func (m *Machine) send(ctx context.Context, chatID, text string, buttons ...Button) {
	if _, err := m.msg.SendMessage(ctx, chatID, text, buttons...); err != nil {
		log.Printf("conversation: chat %s: send failed: %v", chatID, err)
	}
}

func (m *Machine) edit(ctx context.Context, chatID, messageID, text string, buttons ...Button) {
	if messageID == "" {
		m.send(ctx, chatID, text, buttons...)
		return
	}
	if err := m.msg.EditMessage(ctx, chatID, messageID, text, buttons...); err != nil {
		log.Printf("conversation: chat %s: edit %s failed: %v", chatID, messageID, err)
	}
}

func (m *Machine) storeFailed(ctx context.Context, chatID, op string, err error) {
	log.Printf("conversation: chat %s: %s failed: %v", chatID, op, err)
	m.send(ctx, chatID, msgStoreFailure)
}

func leadingInt(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(fields[0])
}
