package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/alem-hub/gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTED LAYOUT
// ══════════════════════════════════════════════════════════════════════════════

// recordDTO is the on-disk shape of a record. No version field: any change
// to this layout breaks existing files.
type recordDTO struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Category  string             `json:"category"`
	Age       int                `json:"age"`
	Scores    map[string]float64 `json:"scores"`
	CreatedAt string             `json:"created_at,omitempty"`
}

// localTimestamp accepts timestamps written without a zone offset.
const localTimestamp = "2006-01-02T15:04:05.999999999"

var recordSchemaDef = map[string]any{
	"type":     "object",
	"required": []string{"id", "name", "category", "age"},
	"properties": map[string]any{
		"id":       map[string]any{"type": "string"},
		"name":     map[string]any{"type": "string"},
		"category": map[string]any{"type": "string"},
		"age":      map[string]any{"type": "integer"},
		"scores": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":    "number",
				"minimum": MinScore,
				"maximum": MaxScore,
			},
		},
		"created_at": map[string]any{"type": "string"},
	},
}

var documentSchemaDef = map[string]any{
	"type":  "array",
	"items": recordSchemaDef,
}

var (
	schemaOnce     sync.Once
	recordSchema   *gojsonschema.Schema
	documentSchema *gojsonschema.Schema
	schemaErr      error
)

func compileSchemas() error {
	schemaOnce.Do(func() {
		recordSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(recordSchemaDef))
		if schemaErr != nil {
			return
		}
		documentSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(documentSchemaDef))
	})
	return schemaErr
}

// validate checks data against schema and folds every violation into one
// ErrMalformedRecord.
func validate(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return shared.ErrMalformedRecord.Wrap(fmt.Errorf("invalid json: %w", err))
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return shared.ErrMalformedRecord.Wrap(errors.New(strings.Join(msgs, "; ")))
	}
	return nil
}

func toDTO(r *Record) recordDTO {
	return recordDTO{
		ID:        r.id,
		Name:      r.Name,
		Category:  r.Category,
		Age:       r.Age,
		Scores:    r.Scores(),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromDTO(d recordDTO, now time.Time) (*Record, error) {
	createdAt := now
	if d.CreatedAt != "" {
		t, err := parseTimestamp(d.CreatedAt)
		if err != nil {
			return nil, shared.ErrMalformedRecord.Wrap(fmt.Errorf("record %q: created_at: %w", d.ID, err))
		}
		createdAt = t
	}
	return Restore(d.ID, d.Name, d.Category, d.Age, d.Scores, createdAt)
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(localTimestamp, s, time.UTC)
}

// ══════════════════════════════════════════════════════════════════════════════
// SINGLE RECORD
// ══════════════════════════════════════════════════════════════════════════════

// MarshalJSON encodes the record in its persisted layout.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(toDTO(r))
}

// UnmarshalJSON decodes a persisted record. Missing required fields, a wrong
// field type, an out-of-range score or a bad timestamp yield ErrMalformedRecord.
func (r *Record) UnmarshalJSON(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	if err := validate(recordSchema, data); err != nil {
		return err
	}

	var d recordDTO
	if err := json.Unmarshal(data, &d); err != nil {
		return shared.ErrMalformedRecord.Wrap(err)
	}

	decoded, err := fromDTO(d, time.Now().UTC())
	if err != nil {
		return err
	}
	*r = *decoded
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT
// ══════════════════════════════════════════════════════════════════════════════

// EncodeRecords encodes records, in order, as one indented JSON array.
func EncodeRecords(records []*Record) ([]byte, error) {
	dtos := make([]recordDTO, len(records))
	for i, r := range records {
		dtos[i] = toDTO(r)
	}
	data, err := json.MarshalIndent(dtos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeRecords decodes a document written by EncodeRecords. The whole
// document is validated before any record is built.
func DecodeRecords(data []byte) ([]*Record, error) {
	if err := compileSchemas(); err != nil {
		return nil, err
	}
	if err := validate(documentSchema, data); err != nil {
		return nil, err
	}

	var dtos []recordDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, shared.ErrMalformedRecord.Wrap(err)
	}

	now := time.Now().UTC()
	records := make([]*Record, 0, len(dtos))
	for _, d := range dtos {
		r, err := fromDTO(d, now)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
