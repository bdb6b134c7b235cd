// Package record contains the student record domain model: a record with
// per-subject scores, derived grade levels and class statistics.
// This is the core of the business logic - no infrastructure dependencies.
package record

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alem-hub/gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORES & GRADE LEVELS
// ══════════════════════════════════════════════════════════════════════════════

// Score bounds (inclusive).
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// ValidScore reports whether v lies within [MinScore, MaxScore]. NaN is never valid.
func ValidScore(v float64) bool {
	return v >= MinScore && v <= MaxScore
}

// GradeLevel is the classification derived from a record's average.
type GradeLevel string

const (
	// GradeExcellent - average of 90 or more.
	GradeExcellent GradeLevel = "excellent"
	// GradeGood - average of 80 or more.
	GradeGood GradeLevel = "good"
	// GradePass - average of 60 or more.
	GradePass GradeLevel = "pass"
	// GradeNeedsImprovement - everything below 60.
	GradeNeedsImprovement GradeLevel = "needs improvement"
)

// GradeLevels returns all levels from best to worst.
func GradeLevels() []GradeLevel {
	return []GradeLevel{GradeExcellent, GradeGood, GradePass, GradeNeedsImprovement}
}

// LevelFor classifies an average.
func LevelFor(avg float64) GradeLevel {
	switch {
	case avg >= 90:
		return GradeExcellent
	case avg >= 80:
		return GradeGood
	case avg >= 60:
		return GradePass
	default:
		return GradeNeedsImprovement
	}
}

// Key returns the identifier-style form of the level ("needs_improvement").
func (g GradeLevel) Key() string {
	if g == GradeNeedsImprovement {
		return "needs_improvement"
	}
	return string(g)
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record is a single student's entry in the gradebook.
type Record struct {
	id string

	// Name is the student's display name.
	Name string

	// Category is the grade/class label, e.g. "Grade 12".
	Category string

	// Age is not range-checked.
	Age int

	// CreatedAt is captured at construction (UTC).
	CreatedAt time.Time

	scores map[string]float64
}

// New creates a record with no scores, stamped with the current time.
func New(id, name, category string, age int) *Record {
	return NewAt(id, name, category, age, time.Now().UTC())
}

// NewAt is New with an explicit creation time.
func NewAt(id, name, category string, age int, createdAt time.Time) *Record {
	return &Record{
		id:        id,
		Name:      name,
		Category:  category,
		Age:       age,
		CreatedAt: createdAt,
		scores:    make(map[string]float64),
	}
}

// Restore rebuilds a persisted record. Out-of-range scores mean the stored
// data is corrupt and yield ErrMalformedRecord.
func Restore(id, name, category string, age int, scores map[string]float64, createdAt time.Time) (*Record, error) {
	r := NewAt(id, name, category, age, createdAt)
	for subject, v := range scores {
		if !ValidScore(v) {
			return nil, shared.ErrMalformedRecord.Wrap(
				fmt.Errorf("record %q: score %v for %q out of range", id, v, subject))
		}
		r.scores[subject] = v
	}
	return r, nil
}

// ID returns the caller-supplied identifier. It never changes after creation.
func (r *Record) ID() string {
	return r.id
}

// AddScore sets the score for subject, replacing any previous value.
// Returns ErrInvalidScore and leaves the record untouched if v is outside [0,100].
func (r *Record) AddScore(subject string, v float64) error {
	if !ValidScore(v) {
		return shared.ErrInvalidScore
	}
	if r.scores == nil {
		r.scores = make(map[string]float64)
	}
	r.scores[subject] = v
	return nil
}

// RemoveScore deletes the score for subject. Reports whether it existed.
func (r *Record) RemoveScore(subject string) bool {
	if _, ok := r.scores[subject]; !ok {
		return false
	}
	delete(r.scores, subject)
	return true
}

// Score returns the score for subject.
func (r *Record) Score(subject string) (float64, bool) {
	v, ok := r.scores[subject]
	return v, ok
}

// Scores returns a copy of the score mapping.
func (r *Record) Scores() map[string]float64 {
	out := make(map[string]float64, len(r.scores))
	for k, v := range r.scores {
		out[k] = v
	}
	return out
}

// Subjects returns the scored subjects in lexical order.
func (r *Record) Subjects() []string {
	subjects := make([]string, 0, len(r.scores))
	for k := range r.scores {
		subjects = append(subjects, k)
	}
	sort.Strings(subjects)
	return subjects
}

// HasScores reports whether at least one score is recorded.
func (r *Record) HasScores() bool {
	return len(r.scores) > 0
}

// Average returns the mean score rounded to two decimals, or 0 without scores.
func (r *Record) Average() float64 {
	if len(r.scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.scores {
		sum += v
	}
	return round2(sum / float64(len(r.scores)))
}

// GradeLevel classifies the record's average.
func (r *Record) GradeLevel() GradeLevel {
	return LevelFor(r.Average())
}

// Clone creates a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.scores = r.Scores()
	return &clone
}

// String returns a string representation for logging.
func (r *Record) String() string {
	return fmt.Sprintf(
		"Record{ID: %s, Name: %s, Category: %s, Average: %.2f}",
		r.id, r.Name, r.Category, r.Average(),
	)
}
