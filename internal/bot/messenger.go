package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/finbot/internal/conversation"
)

const (
	buttonsPerRow = 5
	maxRows       = 5
)

// discordAPI is the subset of *discordgo.Session used for outbound traffic.
type discordAPI interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Messenger sends, edits and acknowledges Discord messages.
type Messenger struct {
	api          discordAPI
	interactions sync.Map // interaction id -> *discordgo.Interaction
	sendTimeout  time.Duration
}

func NewMessenger(api discordAPI) *Messenger {
	return &Messenger{api: api, sendTimeout: 10 * time.Second}
}

func (m *Messenger) track(i *discordgo.Interaction) {
	m.interactions.Store(i.ID, i)
}

func (m *Messenger) SendMessage(ctx context.Context, chatID, text string, buttons ...conversation.Button) (string, error) {
	msg, err := m.api.ChannelMessageSendComplex(chatID, &discordgo.MessageSend{
		Content:    text,
		Components: buttonRows(buttons),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send to %s: %w", chatID, err)
	}
	return msg.ID, nil
}

func (m *Messenger) EditMessage(ctx context.Context, chatID, messageID, text string, buttons ...conversation.Button) error {
	edit := discordgo.NewMessageEdit(chatID, messageID).SetContent(text)
	edit.Components = buttonRows(buttons)
	if _, err := m.api.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit %s in %s: %w", messageID, chatID, err)
	}
	return nil
}

// AcknowledgeCallback answers a button press with a deferred update so the
// client stops its loading state.
func (m *Messenger) AcknowledgeCallback(ctx context.Context, callbackID string) error {
	v, ok := m.interactions.LoadAndDelete(callbackID)
	if !ok {
		return fmt.Errorf("unknown interaction %s", callbackID)
	}
	return m.api.InteractionRespond(v.(*discordgo.Interaction), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
}

// SendText delivers a plain notification. Retries are left to the caller.
func (m *Messenger) SendText(ctx context.Context, chatID, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()
	_, err := m.api.ChannelMessageSend(chatID, text, discordgo.WithContext(sendCtx))
	return err
}

// buttonRows lays buttons out in action rows of at most five.
func buttonRows(buttons []conversation.Button) []discordgo.MessageComponent {
	rows := []discordgo.MessageComponent{}
	for start := 0; start < len(buttons) && len(rows) < maxRows; start += buttonsPerRow {
		end := start + buttonsPerRow
		if end > len(buttons) {
			end = len(buttons)
		}
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyle(b.Label),
				CustomID: b.Token,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func buttonStyle(label string) discordgo.ButtonStyle {
	switch label {
	case "Cancelar", "Deshacer", "No, gracias":
		return discordgo.SecondaryButton
	}
	return discordgo.PrimaryButton
}
