// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	appLog "padelbot/internal/log"
)

// Subjects.
const (
	VisitAdded     = "visit.added"
	MonitorChanged = "monitor.changed"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

// VisitAddedEvent is published after a visit is stored.
type VisitAddedEvent struct {
	ID           string    `json:"id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	OriginalText string    `json:"original_text"`
	Total        int       `json:"total"`
}

// MonitorChangedEvent is published when a watched endpoint changes content.
type MonitorChangedEvent struct {
	Endpoints []string  `json:"endpoints"`
	CheckedAt time.Time `json:"checked_at"`
}

// NATSPublisher sends JSON-encoded payloads over a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("padelbot"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to NATS at %s", url)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshal event data")
	}

	appLog.Debug("publishing event", "subject", subject, "data", string(payload))

	if err := n.conn.Publish(subject, payload); err != nil {
		return errors.Wrapf(err, "publish %s", subject)
	}
	return nil
}

func (n *NATSPublisher) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return errors.Wrap(err, "drain NATS connection")
	}
	return nil
}

// Nop drops every event. It is used when no NATS URL is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error { return nil }

// Message is one event captured by a Recorder.
type Message struct {
	Subject string
	Data    []byte
}

// Recorder keeps published events in memory, JSON-encoded as NATS would
// carry them.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshal event data")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Subject: subject, Data: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
