// Package progress tracks completion of a fixed study curriculum.
package progress

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alem-hub/gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CURRICULUM
// ══════════════════════════════════════════════════════════════════════════════

// DefaultTopics returns the twelve-lesson curriculum in study order.
func DefaultTopics() []string {
	return []string{
		"Getting started",
		"Variables and data types",
		"Operators",
		"Control flow",
		"Data structures",
		"Functions",
		"Object-oriented programming",
		"Modules and packages",
		"File handling",
		"Error handling",
		"Advanced features",
		"Best practices",
	}
}

// Entry is the state of one topic.
type Entry struct {
	Completed bool

	// CompletedAt is nil until the topic is marked completed.
	CompletedAt *time.Time

	// Notes holds free-form notes, one per line.
	Notes string
}

// TopicEntry pairs an entry with its topic for ordered views.
type TopicEntry struct {
	Topic string
	Entry
}

// Summary is the overall completion figure.
type Summary struct {
	Completed int
	Total     int

	// Percent is rounded to one decimal.
	Percent float64
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// Tracker holds the progress for every topic of a curriculum.
type Tracker struct {
	topics  []string
	entries map[string]Entry
	now     func() time.Time
}

// NewTracker creates a tracker with every topic incomplete.
// A nil now defaults to time.Now.
func NewTracker(topics []string, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{
		topics:  append([]string(nil), topics...),
		entries: make(map[string]Entry, len(topics)),
		now:     now,
	}
	t.Reset()
	return t
}

// Restore builds a tracker from stored entries. Stored topics outside the
// curriculum are dropped; curriculum topics missing from stored start incomplete.
func Restore(topics []string, stored map[string]Entry, now func() time.Time) *Tracker {
	t := NewTracker(topics, now)
	for topic, e := range stored {
		if _, ok := t.entries[topic]; ok {
			t.entries[topic] = e
		}
	}
	return t
}

// Topics returns the curriculum in order.
func (t *Tracker) Topics() []string {
	return append([]string(nil), t.topics...)
}

// Entry returns the state of topic.
func (t *Tracker) Entry(topic string) (Entry, error) {
	e, ok := t.entries[topic]
	if !ok {
		return Entry{}, unknownTopic(topic)
	}
	return e, nil
}

// Entries returns every topic with its state, in curriculum order.
func (t *Tracker) Entries() []TopicEntry {
	out := make([]TopicEntry, len(t.topics))
	for i, topic := range t.topics {
		out[i] = TopicEntry{Topic: topic, Entry: t.entries[topic]}
	}
	return out
}

// Snapshot returns a copy of the entries keyed by topic, for persistence.
func (t *Tracker) Snapshot() map[string]Entry {
	out := make(map[string]Entry, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// MarkCompleted marks topic as completed now. notes replaces any previous notes.
func (t *Tracker) MarkCompleted(topic, notes string) error {
	if _, ok := t.entries[topic]; !ok {
		return unknownTopic(topic)
	}
	at := t.now().UTC()
	t.entries[topic] = Entry{Completed: true, CompletedAt: &at, Notes: notes}
	return nil
}

// AddNote appends note to the topic's notes on a new line.
func (t *Tracker) AddNote(topic, note string) error {
	e, ok := t.entries[topic]
	if !ok {
		return unknownTopic(topic)
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return shared.ErrEmptyNote
	}
	if e.Notes == "" {
		e.Notes = note
	} else {
		e.Notes += "\n" + note
	}
	t.entries[topic] = e
	return nil
}

// Reset marks every topic incomplete and clears all notes.
func (t *Tracker) Reset() {
	for _, topic := range t.topics {
		t.entries[topic] = Entry{}
	}
}

// Summary returns the completion figure.
func (t *Tracker) Summary() Summary {
	s := Summary{Total: len(t.topics)}
	for _, topic := range t.topics {
		if t.entries[topic].Completed {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.Percent = math.Round(float64(s.Completed)/float64(s.Total)*1000) / 10
	}
	return s
}

// NextTopic returns the first incomplete topic in curriculum order.
// Returns false when everything is done.
func (t *Tracker) NextTopic() (string, bool) {
	for _, topic := range t.topics {
		if !t.entries[topic].Completed {
			return topic, true
		}
	}
	return "", false
}

func unknownTopic(topic string) error {
	return shared.ErrUnknownTopic.Wrap(fmt.Errorf("topic %q", topic))
}
