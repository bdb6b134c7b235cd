package jsonfile

import (
	"context"
	"time"

	"github.com/alem-hub/gradebook/internal/domain/progress"
	"github.com/alem-hub/gradebook/internal/domain/record"
	"github.com/alem-hub/gradebook/pkg/logger"
	"github.com/alem-hub/gradebook/pkg/metrics"
)

// BackendName is the metrics label of this backend.
const BackendName = "file"

// RecordStore keeps the record collection in a single JSON array file.
type RecordStore struct {
	Path string
}

// NewRecordStore creates a RecordStore for path.
func NewRecordStore(path string) *RecordStore {
	return &RecordStore{Path: path}
}

// Load implements record.Store.
func (s *RecordStore) Load(ctx context.Context) ([]*record.Record, error) {
	defer metrics.ObserveStore(BackendName, "load", time.Now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readIfExists(s.Path)
	if err != nil || data == nil {
		return nil, err
	}
	return record.DecodeRecords(data)
}

// Save implements record.Store.
func (s *RecordStore) Save(ctx context.Context, records []*record.Record) error {
	defer metrics.ObserveStore(BackendName, "save", time.Now())

	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := record.EncodeRecords(records)
	if err != nil {
		return err
	}
	if err := WriteAtomic(s.Path, data, DefaultPerm); err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("records written", logger.Path(s.Path), logger.Count(len(records)))
	return nil
}

// ProgressStore keeps study progress in a JSON object file keyed by topic.
type ProgressStore struct {
	Path string
}

// NewProgressStore creates a ProgressStore for path.
func NewProgressStore(path string) *ProgressStore {
	return &ProgressStore{Path: path}
}

// Load implements progress.Store.
func (s *ProgressStore) Load(ctx context.Context) (map[string]progress.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readIfExists(s.Path)
	if err != nil || data == nil {
		return nil, err
	}
	return progress.DecodeEntries(data)
}

// Save implements progress.Store.
func (s *ProgressStore) Save(ctx context.Context, entries map[string]progress.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := progress.EncodeEntries(entries)
	if err != nil {
		return err
	}
	if err := WriteAtomic(s.Path, data, DefaultPerm); err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("progress written", logger.Path(s.Path))
	return nil
}

var (
	_ record.Store   = (*RecordStore)(nil)
	_ progress.Store = (*ProgressStore)(nil)
)
