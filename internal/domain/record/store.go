package record

import "context"

// Store is the persistence port for the record collection. Implementations
// live in infrastructure/persistence.
type Store interface {
	// Load returns the stored records in their saved order.
	// Returns (nil, nil) when nothing has been stored yet.
	Load(ctx context.Context) ([]*Record, error)

	// Save replaces the stored collection with records. A failed Save must
	// leave the previous contents intact.
	Save(ctx context.Context, records []*Record) error
}
