package ports

import "context"

// Publisher emits sweep events to an external bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// ReportSink stores rendered artifacts such as Markdown reports and JSON
// summaries.
type ReportSink interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}
