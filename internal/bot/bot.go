package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/finbot/internal/conversation"
)

// eventTimeout bounds the work done for one inbound Discord event.
const eventTimeout = 2 * time.Minute

// Handler consumes normalized chat events.
type Handler interface {
	Handle(ctx context.Context, ev conversation.Event)
}

type Bot struct {
	session   *discordgo.Session
	handler   Handler
	messenger *Messenger
	http      *http.Client
	wg        sync.WaitGroup
}

func New(token string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session:   session,
		messenger: NewMessenger(session),
		http:      session.Client,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return bot, nil
}

// Messenger is the outbound side used by the conversation machine and the scheduler.
func (b *Bot) Messenger() *Messenger {
	return b.messenger
}

// SetHandler must be called before Start.
func (b *Bot) SetHandler(h Handler) {
	b.handler = h
}

func (b *Bot) Start() error {
	if b.handler == nil {
		return fmt.Errorf("bot: no event handler configured")
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("Discord bot is running")
	return nil
}

// Stop closes the gateway and waits for in-flight events.
func (b *Bot) Stop() error {
	err := b.session.Close()
	b.wg.Wait()
	return err
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)
}
