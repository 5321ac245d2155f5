// Package nats publishes sweep events to NATS subjects.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher implements ports.Publisher. Events are JSON encoded and
// published on the topic as subject, optionally under a prefix.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithSubjectPrefix prepends prefix + "." to every topic.
func WithSubjectPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// New connects to the NATS server at url with reconnection enabled.
func New(url string, opts ...Option) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("espalier"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return NewFromConn(nc, opts...), nil
}

// NewFromConn wraps an existing connection.
func NewFromConn(nc *nats.Conn, opts ...Option) *Publisher {
	p := &Publisher{conn: nc}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subject returns the subject a topic is published on.
func (p *Publisher) Subject(topic string) string {
	if p.prefix == "" {
		return topic
	}
	return p.prefix + "." + topic
}

// Publish encodes event as JSON and publishes it.
func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(topic), data); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.Subject(topic), err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	err := p.conn.Flush()
	p.conn.Close()
	return err
}
