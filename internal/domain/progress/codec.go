package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/alem-hub/gradebook/internal/domain/shared"
)

// entryDTO is the persisted shape of one topic. Date is null until completed.
type entryDTO struct {
	Completed bool    `json:"completed"`
	Date      *string `json:"date"`
	Notes     string  `json:"notes"`
}

// legacyDate is the zone-less layout written by older trackers.
const legacyDate = "2006-01-02 15:04:05"

var documentSchema = gojsonschema.NewGoLoader(map[string]any{
	"type": "object",
	"additionalProperties": map[string]any{
		"type":     "object",
		"required": []string{"completed"},
		"properties": map[string]any{
			"completed": map[string]any{"type": "boolean"},
			"date":      map[string]any{"type": []string{"string", "null"}},
			"notes":     map[string]any{"type": "string"},
		},
	},
})

// EncodeEntries encodes entries as an indented JSON object keyed by topic.
func EncodeEntries(entries map[string]Entry) ([]byte, error) {
	dtos := make(map[string]entryDTO, len(entries))
	for topic, e := range entries {
		d := entryDTO{Completed: e.Completed, Notes: e.Notes}
		if e.CompletedAt != nil {
			s := e.CompletedAt.UTC().Format(time.RFC3339)
			d.Date = &s
		}
		dtos[topic] = d
	}
	data, err := json.MarshalIndent(dtos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode progress: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeEntries decodes a document written by EncodeEntries. Schema violations
// and unparsable dates yield ErrMalformedProgress.
func DecodeEntries(data []byte) (map[string]Entry, error) {
	result, err := gojsonschema.Validate(documentSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, shared.ErrMalformedProgress.Wrap(err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, shared.ErrMalformedProgress.Wrap(errors.New(strings.Join(msgs, "; ")))
	}

	var dtos map[string]entryDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, shared.ErrMalformedProgress.Wrap(err)
	}

	entries := make(map[string]Entry, len(dtos))
	for topic, d := range dtos {
		e := Entry{Completed: d.Completed, Notes: d.Notes}
		if d.Date != nil {
			at, err := parseDate(*d.Date)
			if err != nil {
				return nil, shared.ErrMalformedProgress.Wrap(fmt.Errorf("topic %q: %w", topic, err))
			}
			e.CompletedAt = &at
		}
		entries[topic] = e
	}
	return entries, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(legacyDate, s, time.UTC)
}
