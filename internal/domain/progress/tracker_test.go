package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/gradebook/internal/domain/shared"
)

var fixedNow = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestTracker() *Tracker {
	return NewTracker(DefaultTopics(), func() time.Time { return fixedNow })
}

func TestNewTracker(t *testing.T) {
	tr := newTestTracker()

	assert.Len(t, tr.Topics(), 12)
	assert.Equal(t, Summary{Completed: 0, Total: 12, Percent: 0}, tr.Summary())

	next, ok := tr.NextTopic()
	assert.True(t, ok)
	assert.Equal(t, "Getting started", next)
}

func TestMarkCompleted(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.AddNote("Operators", "old note"))
	require.NoError(t, tr.MarkCompleted("Operators", "precedence matters"))

	e, err := tr.Entry("Operators")
	require.NoError(t, err)
	assert.True(t, e.Completed)
	require.NotNil(t, e.CompletedAt)
	assert.Equal(t, fixedNow, *e.CompletedAt)
	assert.Equal(t, "precedence matters", e.Notes)
}

func TestMarkCompleted_UnknownTopic(t *testing.T) {
	tr := newTestTracker()
	err := tr.MarkCompleted("Quantum computing", "")
	assert.ErrorIs(t, err, shared.ErrUnknownTopic)
	assert.True(t, shared.IsNotFound(err))
}

func TestAddNote(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.AddNote("Functions", "closures"))
	require.NoError(t, tr.AddNote("Functions", "  defer order  "))

	e, err := tr.Entry("Functions")
	require.NoError(t, err)
	assert.Equal(t, "closures\ndefer order", e.Notes)
	assert.False(t, e.Completed)

	assert.ErrorIs(t, tr.AddNote("Functions", "   "), shared.ErrEmptyNote)
	assert.ErrorIs(t, tr.AddNote("Nope", "x"), shared.ErrUnknownTopic)
}

func TestSummaryAndNextTopic(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.MarkCompleted("Getting started", ""))

	assert.Equal(t, Summary{Completed: 1, Total: 12, Percent: 8.3}, tr.Summary())
	next, ok := tr.NextTopic()
	assert.True(t, ok)
	assert.Equal(t, "Variables and data types", next)

	for _, topic := range DefaultTopics() {
		require.NoError(t, tr.MarkCompleted(topic, ""))
	}
	assert.Equal(t, 100.0, tr.Summary().Percent)
	_, ok = tr.NextTopic()
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	tr := newTestTracker()
	require.NoError(t, tr.MarkCompleted("Operators", "done"))

	tr.Reset()

	e, err := tr.Entry("Operators")
	require.NoError(t, err)
	assert.Equal(t, Entry{}, e)
	assert.Equal(t, 0, tr.Summary().Completed)
}

func TestRestore(t *testing.T) {
	at := fixedNow.Add(-time.Hour)
	stored := map[string]Entry{
		"Operators":     {Completed: true, CompletedAt: &at, Notes: "n"},
		"Retired topic": {Completed: true},
	}

	tr := Restore(DefaultTopics(), stored, nil)

	assert.Equal(t, 1, tr.Summary().Completed)
	_, err := tr.Entry("Retired topic")
	assert.ErrorIs(t, err, shared.ErrUnknownTopic)
	assert.Len(t, tr.Snapshot(), 12)

	entries := tr.Entries()
	assert.Equal(t, "Getting started", entries[0].Topic)
	assert.Equal(t, "Operators", entries[2].Topic)
	assert.True(t, entries[2].Completed)
}
