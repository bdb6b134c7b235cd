package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alem-hub/gradebook/internal/domain/record"
	"github.com/alem-hub/gradebook/pkg/metrics"
)

// BackendName is the metrics label of this backend.
const BackendName = "postgres"

// RecordStore implements record.Store on two tables. Save replaces both
// inside one transaction, so a failed save leaves the previous rows intact.
type RecordStore struct {
	conn *Connection
}

// NewRecordStore creates a RecordStore over conn.
func NewRecordStore(conn *Connection) *RecordStore {
	return &RecordStore{conn: conn}
}

// EnsureSchema applies pending migrations.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	return NewMigrator(s.conn).Migrate(ctx)
}

const (
	selectRecords = `SELECT id, name, category, age, created_at FROM gradebook_records ORDER BY position`
	selectScores  = `SELECT record_id, subject, score FROM gradebook_scores`
	deleteScores  = `DELETE FROM gradebook_scores`
	deleteRecords = `DELETE FROM gradebook_records`
	insertRecord  = `INSERT INTO gradebook_records (id, position, name, category, age, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	insertScore   = `INSERT INTO gradebook_scores (record_id, subject, score) VALUES ($1, $2, $3)`
)

type recordRow struct {
	id, name, category string
	age                int
	createdAt          time.Time
}

// Load implements record.Store. An empty table yields (nil, nil).
func (s *RecordStore) Load(ctx context.Context) ([]*record.Record, error) {
	defer metrics.ObserveStore(BackendName, "load", time.Now())

	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()

	db := s.conn.DB()

	rows, err := db.QueryContext(ctx, selectRecords)
	if err != nil {
		return nil, fmt.Errorf("postgres: query records: %w", err)
	}
	var heads []recordRow
	for rows.Next() {
		var r recordRow
		if err := rows.Scan(&r.id, &r.name, &r.category, &r.age, &r.createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		heads = append(heads, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate records: %w", err)
	}
	if len(heads) == 0 {
		return nil, nil
	}

	scores, err := s.loadScores(ctx, db)
	if err != nil {
		return nil, err
	}

	records := make([]*record.Record, 0, len(heads))
	for _, h := range heads {
		rec, err := record.Restore(h.id, h.name, h.category, h.age, scores[h.id], h.createdAt.UTC())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RecordStore) loadScores(ctx context.Context, db *sql.DB) (map[string]map[string]float64, error) {
	rows, err := db.QueryContext(ctx, selectScores)
	if err != nil {
		return nil, fmt.Errorf("postgres: query scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]map[string]float64)
	for rows.Next() {
		var id, subject string
		var v float64
		if err := rows.Scan(&id, &subject, &v); err != nil {
			return nil, fmt.Errorf("postgres: scan score: %w", err)
		}
		if scores[id] == nil {
			scores[id] = make(map[string]float64)
		}
		scores[id][subject] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate scores: %w", err)
	}
	return scores, nil
}

// Save implements record.Store.
func (s *RecordStore) Save(ctx context.Context, records []*record.Record) error {
	defer metrics.ObserveStore(BackendName, "save", time.Now())

	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()

	return s.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteScores); err != nil {
			return fmt.Errorf("postgres: clear scores: %w", err)
		}
		if _, err := tx.ExecContext(ctx, deleteRecords); err != nil {
			return fmt.Errorf("postgres: clear records: %w", err)
		}

		for pos, r := range records {
			if _, err := tx.ExecContext(ctx, insertRecord,
				r.ID(), pos, r.Name, r.Category, r.Age, r.CreatedAt.UTC(),
			); err != nil {
				if IsUniqueViolation(err) {
					return fmt.Errorf("postgres: duplicate record id %q: %w", r.ID(), err)
				}
				return fmt.Errorf("postgres: insert record %q: %w", r.ID(), err)
			}
			for _, subject := range r.Subjects() {
				v, _ := r.Score(subject)
				if _, err := tx.ExecContext(ctx, insertScore, r.ID(), subject, v); err != nil {
					return fmt.Errorf("postgres: insert score %q/%q: %w", r.ID(), subject, err)
				}
			}
		}
		return nil
	})
}

var _ record.Store = (*RecordStore)(nil)
