package ports

import "context"

// Watchable is implemented by loaders that can report source changes.
type Watchable interface {
	// Watch emits the id of each changed document until ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
