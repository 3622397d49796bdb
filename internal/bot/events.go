package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/finbot/internal/conversation"
)

// maxImageBytes caps receipt downloads.
var maxImageBytes int64 = 10 << 20

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author == nil || m.Author.Bot {
		return
	}

	if att := firstImage(m.Attachments); att != nil {
		b.dispatch(func(ctx context.Context) {
			img, err := b.download(ctx, att.URL)
			if err != nil {
				log.Printf("bot: failed to download attachment %s: %v", att.ID, err)
				return
			}
			b.handler.Handle(ctx, conversation.PhotoEvent{
				ChatID: m.ChannelID,
				UserID: m.Author.ID,
				Image:  img,
				MIME:   att.ContentType,
			})
		})
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}
	b.dispatch(func(ctx context.Context) {
		b.handler.Handle(ctx, conversation.TextEvent{
			ChatID: m.ChannelID,
			UserID: m.Author.ID,
			Body:   content,
		})
	})
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	data := i.MessageComponentData()

	ev := conversation.CallbackEvent{
		ChatID:     i.ChannelID,
		UserID:     interactionUserID(i.Interaction),
		CallbackID: i.ID,
		Token:      data.CustomID,
	}
	if i.Message != nil {
		ev.MessageID = i.Message.ID
	}
	b.messenger.track(i.Interaction)
	b.dispatch(func(ctx context.Context) {
		b.handler.Handle(ctx, ev)
	})
}

// dispatch runs fn off the gateway goroutine with a bounded context.
func (b *Bot) dispatch(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("bot: recovered from panic in event handler: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (b *Bot) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxImageBytes {
		return nil, fmt.Errorf("attachment larger than %d bytes", maxImageBytes)
	}
	return data, nil
}

func firstImage(atts []*discordgo.MessageAttachment) *discordgo.MessageAttachment {
	for _, a := range atts {
		if a != nil && strings.HasPrefix(a.ContentType, "image/") {
			return a
		}
	}
	return nil
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
