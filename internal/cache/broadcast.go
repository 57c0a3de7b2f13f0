package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/erazemk/inventar/internal/logfields"
)

// DefaultSubject is the NATS subject invalidations are published on.
const DefaultSubject = "inventar.cache.invalidate"

// Broadcaster publishes invalidated tags to other replicas.
type Broadcaster interface {
	Publish(ctx context.Context, tags []string) error
}

type invalidation struct {
	Origin string   `json:"origin"`
	Tags   []string `json:"tags"`
}

// NATSBroadcaster fans invalidations out over NATS core pub/sub. Delivery is
// best effort; the cache TTL covers lost messages.
type NATSBroadcaster struct {
	conn    *nats.Conn
	subject string
	origin  string
	sub     *nats.Subscription
}

// NewNATSBroadcaster connects to url and returns a broadcaster publishing on
// subject.
func NewNATSBroadcaster(url, subject string) (*NATSBroadcaster, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url, nats.Name("inventar-cache"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	slog.Info("NATS cache invalidation enabled", "url", url, "subject", subject)

	return &NATSBroadcaster{
		conn:    conn,
		subject: subject,
		origin:  uuid.NewString(),
	}, nil
}

// Publish sends tags to every subscribed replica.
func (b *NATSBroadcaster) Publish(_ context.Context, tags []string) error {
	data, err := json.Marshal(invalidation{Origin: b.origin, Tags: tags})
	if err != nil {
		return fmt.Errorf("encoding invalidation: %w", err)
	}
	if err := b.conn.Publish(b.subject, data); err != nil {
		return fmt.Errorf("publishing invalidation: %w", err)
	}
	return nil
}

// Subscribe applies invalidations published by other replicas to c.
func (b *NATSBroadcaster) Subscribe(c *Cache) error {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		b.apply(c, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.subject, err)
	}
	b.sub = sub
	return nil
}

// apply decodes one message and bumps its tags locally. Messages this
// replica published itself are skipped.
func (b *NATSBroadcaster) apply(c *Cache, data []byte) {
	var msg invalidation
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("Dropping malformed cache invalidation", logfields.Error(err))
		return
	}
	if msg.Origin == b.origin {
		return
	}
	c.InvalidateLocal(msg.Tags...)
}

// Close unsubscribes and drains the connection.
func (b *NATSBroadcaster) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	return b.conn.Drain()
}
