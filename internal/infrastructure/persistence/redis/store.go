package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/gradebook/internal/domain/progress"
	"github.com/alem-hub/gradebook/internal/domain/record"
	"github.com/alem-hub/gradebook/pkg/metrics"
)

// BackendName is the metrics label of this backend.
const BackendName = "redis"

// Key names, relative to Config.KeyPrefix.
const (
	KeyRecords  = "records"
	KeyProgress = "progress"
)

// RecordStore keeps the record document under <prefix>records.
type RecordStore struct {
	client *Client
}

// NewRecordStore creates a RecordStore over client.
func NewRecordStore(client *Client) *RecordStore {
	return &RecordStore{client: client}
}

// Load implements record.Store.
func (s *RecordStore) Load(ctx context.Context) ([]*record.Record, error) {
	defer metrics.ObserveStore(BackendName, "load", time.Now())

	data, found, err := s.client.GetBytes(ctx, s.client.Key(KeyRecords))
	if err != nil {
		return nil, fmt.Errorf("redis: get records: %w", err)
	}
	if !found {
		return nil, nil
	}
	return record.DecodeRecords(data)
}

// Save implements record.Store.
func (s *RecordStore) Save(ctx context.Context, records []*record.Record) error {
	defer metrics.ObserveStore(BackendName, "save", time.Now())

	data, err := record.EncodeRecords(records)
	if err != nil {
		return err
	}
	if err := s.client.SetBytes(ctx, s.client.Key(KeyRecords), data); err != nil {
		return fmt.Errorf("redis: set records: %w", err)
	}
	return nil
}

// ProgressStore keeps study progress under <prefix>progress.
type ProgressStore struct {
	client *Client
}

// NewProgressStore creates a ProgressStore over client.
func NewProgressStore(client *Client) *ProgressStore {
	return &ProgressStore{client: client}
}

// Load implements progress.Store.
func (s *ProgressStore) Load(ctx context.Context) (map[string]progress.Entry, error) {
	data, found, err := s.client.GetBytes(ctx, s.client.Key(KeyProgress))
	if err != nil {
		return nil, fmt.Errorf("redis: get progress: %w", err)
	}
	if !found {
		return nil, nil
	}
	return progress.DecodeEntries(data)
}

// Save implements progress.Store.
func (s *ProgressStore) Save(ctx context.Context, entries map[string]progress.Entry) error {
	data, err := progress.EncodeEntries(entries)
	if err != nil {
		return err
	}
	if err := s.client.SetBytes(ctx, s.client.Key(KeyProgress), data); err != nil {
		return fmt.Errorf("redis: set progress: %w", err)
	}
	return nil
}

var (
	_ record.Store   = (*RecordStore)(nil)
	_ progress.Store = (*ProgressStore)(nil)
)
