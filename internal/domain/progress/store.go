package progress

import "context"

// Store persists tracker entries keyed by topic.
type Store interface {
	// Load returns (nil, nil) when nothing has been stored yet.
	Load(ctx context.Context) (map[string]Entry, error)
	Save(ctx context.Context, entries map[string]Entry) error
}
