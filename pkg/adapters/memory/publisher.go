package memory

import (
	"context"
	"sync"
)

// Message is one event captured by Publisher.
type Message struct {
	Topic string
	Event any
}

// Publisher implements ports.Publisher by recording events in memory.
// Safe for concurrent use.
type Publisher struct {
	mu       sync.Mutex
	messages []Message
	closed   bool
}

// NewPublisher creates an empty recording publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish records the event.
func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, Message{Topic: topic, Event: event})
	return nil
}

// Close marks the publisher closed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Messages returns a copy of the recorded events in publication order.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

// Sink implements ports.ReportSink in memory.
type Sink struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

// NewSink creates an empty in-memory report sink.
func NewSink() *Sink {
	return &Sink{objects: make(map[string][]byte), types: make(map[string]string)}
}

// Put stores a copy of body under key.
func (s *Sink) Put(ctx context.Context, key, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
	s.types[key] = contentType
	return nil
}

// Get returns the stored body and content type.
func (s *Sink) Get(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	return body, s.types[key], ok
}
