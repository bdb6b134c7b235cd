// Package registry contains the gradebook use cases: an ordered collection of
// records, unique by id, loaded from and flushed to a record.Store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/gradebook/internal/domain/record"
	"github.com/alem-hub/gradebook/internal/domain/shared"
	"github.com/alem-hub/gradebook/pkg/logger"
	"github.com/alem-hub/gradebook/pkg/metrics"
	"github.com/alem-hub/gradebook/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// Owns the in-memory records. Mutations are not persisted until Save.
// Not safe for concurrent use.
// ══════════════════════════════════════════════════════════════════════════════

// Registry is the ordered collection of records.
type Registry struct {
	store   record.Store
	records []*record.Record
	index   map[string]int

	log   *logger.Logger
	clock timeutil.Clock
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock sets the clock used to stamp new records.
func WithClock(c timeutil.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// New creates an empty registry backed by store.
func New(store record.Store, opts ...Option) *Registry {
	r := &Registry{
		store: store,
		index: make(map[string]int),
		log:   logger.NewNop(),
		clock: timeutil.SystemClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("registry"))
	return r
}

// Open creates a registry and loads it from store. An absent store yields an
// empty registry. Any other failure, including duplicate ids in the stored
// data, is returned as ErrLoadFailed.
func Open(ctx context.Context, store record.Store, opts ...Option) (*Registry, error) {
	r := New(store, opts...)

	started := time.Now()
	records, err := store.Load(ctx)
	if err != nil {
		metrics.ObserveOperation("load", metrics.ResultError)
		r.log.Error("load failed", logger.Err(err))
		return nil, shared.ErrLoadFailed.Wrap(err)
	}

	for _, rec := range records {
		if _, exists := r.index[rec.ID()]; exists {
			metrics.ObserveOperation("load", metrics.ResultError)
			err := fmt.Errorf("duplicate record id %q in stored data", rec.ID())
			r.log.Error("load failed", logger.Err(err))
			return nil, shared.ErrLoadFailed.Wrap(err)
		}
		r.append(rec)
	}

	metrics.ObserveOperation("load", metrics.ResultOK)
	metrics.RecordsTotal.Set(float64(len(r.records)))
	r.log.Debug("records loaded",
		logger.Count(len(r.records)),
		logger.Latency(time.Since(started)),
	)
	return r, nil
}

// Save flushes every record to the store, replacing its previous contents.
func (r *Registry) Save(ctx context.Context) error {
	started := time.Now()
	if err := r.store.Save(ctx, r.records); err != nil {
		metrics.ObserveOperation("save", metrics.ResultError)
		r.log.Error("save failed", logger.Err(err), logger.Count(len(r.records)))
		return shared.ErrSaveFailed.Wrap(err)
	}

	metrics.ObserveOperation("save", metrics.ResultOK)
	r.log.Debug("records saved",
		logger.Count(len(r.records)),
		logger.Latency(time.Since(started)),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Add creates a record and appends it. Returns ErrEmptyID for a blank id and
// ErrDuplicateID if id is taken.
func (r *Registry) Add(id, name, category string, age int) (*record.Record, error) {
	if strings.TrimSpace(id) == "" {
		r.rejected("add", shared.ErrEmptyID, logger.RecordID(id))
		return nil, shared.ErrEmptyID
	}
	if _, exists := r.index[id]; exists {
		r.rejected("add", shared.ErrDuplicateID, logger.RecordID(id))
		return nil, shared.ErrDuplicateID
	}

	rec := record.NewAt(id, name, category, age, r.clock().UTC())
	r.append(rec)

	r.succeeded("add", logger.RecordID(id))
	return rec, nil
}

// Remove deletes the record with id, preserving the order of the rest.
func (r *Registry) Remove(id string) error {
	pos, ok := r.index[id]
	if !ok {
		r.rejected("remove", shared.ErrRecordNotFound, logger.RecordID(id))
		return notFound(id)
	}

	r.records = append(r.records[:pos], r.records[pos+1:]...)
	r.reindex()

	r.succeeded("remove", logger.RecordID(id))
	return nil
}

// AddScore sets a subject score on the record with id.
func (r *Registry) AddScore(id, subject string, score float64) error {
	rec, ok := r.Find(id)
	if !ok {
		r.rejected("add_score", shared.ErrRecordNotFound, logger.RecordID(id))
		return notFound(id)
	}
	if err := rec.AddScore(subject, score); err != nil {
		r.rejected("add_score", err, logger.RecordID(id), logger.Subject(subject), logger.Score(score))
		return err
	}

	r.succeeded("add_score", logger.RecordID(id), logger.Subject(subject), logger.Score(score))
	return nil
}

// RemoveScore deletes a subject score from the record with id. Removing a
// subject that was never scored is not an error; the result reports it.
func (r *Registry) RemoveScore(id, subject string) (bool, error) {
	rec, ok := r.Find(id)
	if !ok {
		r.rejected("remove_score", shared.ErrRecordNotFound, logger.RecordID(id))
		return false, notFound(id)
	}

	removed := rec.RemoveScore(subject)
	r.succeeded("remove_score", logger.RecordID(id), logger.Subject(subject), logger.Bool("removed", removed))
	return removed, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// Find returns the record with id. The returned record is owned by the
// registry; changes to it are persisted by the next Save.
func (r *Registry) Find(id string) (*record.Record, bool) {
	pos, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.records[pos], true
}

// All returns deep copies of the records in insertion order.
func (r *Registry) All() []*record.Record {
	out := make([]*record.Record, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Clone()
	}
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.records)
}

// ClassStatistics aggregates the records that have at least one score.
// The boolean is false when there is no data.
func (r *Registry) ClassStatistics() (record.Statistics, bool) {
	stats, ok := record.ComputeStatistics(r.records)
	r.log.Debug("class statistics computed",
		logger.Count(stats.Count),
		logger.Bool("has_data", ok),
	)
	return stats, ok
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func (r *Registry) append(rec *record.Record) {
	r.index[rec.ID()] = len(r.records)
	r.records = append(r.records, rec)
}

func (r *Registry) reindex() {
	r.index = make(map[string]int, len(r.records))
	for i, rec := range r.records {
		r.index[rec.ID()] = i
	}
}

func (r *Registry) succeeded(op string, fields ...logger.Field) {
	metrics.ObserveOperation(op, metrics.ResultOK)
	metrics.RecordsTotal.Set(float64(len(r.records)))
	r.log.Debug(op+" succeeded", fields...)
}

func (r *Registry) rejected(op string, err error, fields ...logger.Field) {
	metrics.ObserveOperation(op, metrics.ResultRejected)
	r.log.Warn(op+" rejected", append(fields, logger.Err(err))...)
}

func notFound(id string) error {
	return shared.ErrRecordNotFound.Wrap(fmt.Errorf("id %q", id))
}

// IsLoadError reports whether err came from Open.
func IsLoadError(err error) bool {
	return errors.Is(err, shared.ErrLoadFailed)
}
