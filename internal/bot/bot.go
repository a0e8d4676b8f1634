// Package bot answers chat commands against the visit store.
package bot

import (
	"context"
	"fmt"
	"strings"

	"padelbot/internal/events"
	appLog "padelbot/internal/log"
	"padelbot/internal/visit"
)

// Message is an incoming chat message.
type Message struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
	// IsReply marks a message sent as a reply. ReplyToText holds the text of
	// the message it replies to and may be empty for non-text messages.
	IsReply     bool   `json:"is_reply"`
	ReplyToText string `json:"reply_to_text"`
	// BotUsername overrides the configured username for mention detection.
	BotUsername string `json:"bot_username,omitempty"`
}

// Reply is the text to send back to the chat.
type Reply struct {
	Text     string `json:"text"`
	Markdown bool   `json:"markdown"`
}

type Options struct {
	ChatID      string
	BotUsername string
	HorizonDays int
}

type Handler struct {
	store     *visit.Store
	publisher events.Publisher
	opts      Options
}

func NewHandler(store *visit.Store, publisher events.Publisher, opts Options) *Handler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = visit.DefaultHorizonDays
	}
	return &Handler{store: store, publisher: publisher, opts: opts}
}

// Handle returns the reply for msg. The second result is false when the
// message needs no answer: it came from another chat, it is an unknown
// command or it is plain chatter.
func (h *Handler) Handle(ctx context.Context, msg Message) (Reply, bool) {
	if h.opts.ChatID != "" && msg.ChatID != h.opts.ChatID {
		appLog.Debug("message from foreign chat ignored", "chat_id", msg.ChatID)
		return Reply{}, false
	}

	cmd, ok := command(msg.Text)
	if !ok {
		return h.mention(msg)
	}

	switch cmd {
	case "ping":
		appLog.Info("responded to ping command", "chat_id", msg.ChatID)
		return Reply{Text: "pong"}, true
	case "add":
		return h.add(ctx, msg), true
	case "list":
		visits := h.store.List(h.opts.HorizonDays)
		appLog.Info("displayed upcoming visits", "count", len(visits))
		return Reply{Text: visit.Render(visits), Markdown: true}, true
	case "help":
		return Reply{Text: helpText, Markdown: true}, true
	default:
		return Reply{}, false
	}
}

func (h *Handler) mention(msg Message) (Reply, bool) {
	username := msg.BotUsername
	if username == "" {
		username = h.opts.BotUsername
	}
	if username == "" {
		return Reply{}, false
	}

	text := strings.ToLower(msg.Text)
	if strings.Contains(text, "@"+strings.ToLower(username)) && strings.Contains(text, "ping") {
		appLog.Info("responded to ping mention", "chat_id", msg.ChatID)
		return Reply{Text: "pong"}, true
	}
	return Reply{}, false
}

func (h *Handler) add(ctx context.Context, msg Message) Reply {
	if !msg.IsReply && msg.ReplyToText == "" {
		return Reply{Text: replyNotAReply}
	}
	if strings.TrimSpace(msg.ReplyToText) == "" {
		return Reply{Text: replyNoText}
	}

	res := h.store.TryAdd(msg.ReplyToText)
	switch res.Status {
	case visit.Added:
		total := h.store.Count()
		h.publish(ctx, res.Visit, total)
		return Reply{
			Text:     fmt.Sprintf(replyAdded, res.Visit.DateString(), res.Visit.TimeRangeString(), total),
			Markdown: true,
		}
	case visit.Duplicate:
		return Reply{Text: fmt.Sprintf(replyDuplicate, res.Visit.DateString(), res.Visit.TimeRangeString())}
	default:
		appLog.Info("visit text not recognized", "text", msg.ReplyToText, "reason", res.Err)
		return Reply{Text: replyParseFailed}
	}
}

func (h *Handler) publish(ctx context.Context, v visit.Visit, total int) {
	err := h.publisher.Publish(ctx, events.VisitAdded, events.VisitAddedEvent{
		ID:           v.ID,
		Start:        v.Start,
		End:          v.End,
		OriginalText: v.OriginalText,
		Total:        total,
	})
	if err != nil {
		appLog.Error("failed to publish visit event", err, "id", v.ID)
	}
}

// command extracts the command name from "/name" or "/name@bot ...".
func command(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(cmd), cmd != ""
}
