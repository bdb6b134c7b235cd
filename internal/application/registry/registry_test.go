package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alem-hub/gradebook/internal/domain/record"
	"github.com/alem-hub/gradebook/internal/domain/shared"
	"github.com/alem-hub/gradebook/pkg/logger"
	"github.com/alem-hub/gradebook/pkg/metrics"
	"github.com/alem-hub/gradebook/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKE STORE
// ══════════════════════════════════════════════════════════════════════════════

type memStore struct {
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (s *memStore) Load(_ context.Context) ([]*record.Record, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.data == nil {
		return nil, nil
	}
	return record.DecodeRecords(s.data)
}

func (s *memStore) Save(_ context.Context, records []*record.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := record.EncodeRecords(records)
	if err != nil {
		return err
	}
	s.data = data
	s.saves++
	return nil
}

var created = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

func openEmpty(t *testing.T, opts ...Option) (*Registry, *memStore) {
	t.Helper()
	store := &memStore{}
	opts = append([]Option{WithClock(timeutil.Fixed(created))}, opts...)
	reg, err := Open(context.Background(), store, opts...)
	require.NoError(t, err)
	return reg, store
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestOpen_MissingStoreIsEmpty(t *testing.T) {
	reg, _ := openEmpty(t)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.All())
}

func TestOpen_LoadError(t *testing.T) {
	_, err := Open(context.Background(), &memStore{loadErr: errors.New("disk on fire")})
	assert.ErrorIs(t, err, shared.ErrLoadFailed)
	assert.True(t, IsLoadError(err))
	assert.True(t, shared.IsStorage(err))

	_, err = Open(context.Background(), &memStore{data: []byte("{garbage")})
	assert.ErrorIs(t, err, shared.ErrLoadFailed)
	assert.ErrorIs(t, err, shared.ErrMalformedRecord)
}

func TestOpen_DuplicateIDsInStoredData(t *testing.T) {
	store := &memStore{data: []byte(`[
		{"id":"1","name":"A","category":"X","age":1,"scores":{}},
		{"id":"1","name":"B","category":"X","age":2,"scores":{}}
	]`)}

	_, err := Open(context.Background(), store)
	assert.ErrorIs(t, err, shared.ErrLoadFailed)
}

func TestAdd(t *testing.T) {
	reg, _ := openEmpty(t)

	rec, err := reg.Add("2024001", "Alice", "Grade 12", 18)
	require.NoError(t, err)
	assert.Equal(t, "Alice", rec.Name)
	assert.Equal(t, created, rec.CreatedAt)

	found, ok := reg.Find("2024001")
	require.True(t, ok)
	assert.Same(t, rec, found)
}

func TestAdd_DuplicateID(t *testing.T) {
	reg, _ := openEmpty(t)
	_, err := reg.Add("1", "Alice", "Grade 12", 18)
	require.NoError(t, err)

	_, err = reg.Add("1", "Someone else", "Grade 11", 17)
	assert.ErrorIs(t, err, shared.ErrDuplicateID)
	assert.True(t, shared.IsAlreadyExists(err))
	assert.Equal(t, 1, reg.Len())

	rec, _ := reg.Find("1")
	assert.Equal(t, "Alice", rec.Name)
}

func TestAdd_EmptyID(t *testing.T) {
	reg, store := openEmpty(t)

	for _, id := range []string{"", "   "} {
		rec, err := reg.Add(id, "Nobody", "Grade 12", 18)
		assert.ErrorIs(t, err, shared.ErrEmptyID)
		assert.True(t, shared.IsValidation(err))
		assert.Nil(t, rec)
	}
	assert.Equal(t, 0, reg.Len())

	_, err := reg.Add("1", "Alice", "Grade 12", 18)
	require.NoError(t, err)
	require.NoError(t, reg.Save(context.Background()))

	reopened, err := Open(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
}

func TestOpen_StoredEmptyIDLoads(t *testing.T) {
	store := &memStore{data: []byte(`[{"id":"","name":"Legacy","category":"Grade 12","age":18}]`)}

	reg, err := Open(context.Background(), store)
	require.NoError(t, err)

	rec, ok := reg.Find("")
	require.True(t, ok)
	assert.Equal(t, "Legacy", rec.Name)

	require.NoError(t, reg.Save(context.Background()))
	_, err = Open(context.Background(), store)
	assert.NoError(t, err)
}

func TestFind_MutationKeepsIndex(t *testing.T) {
	reg, _ := openEmpty(t)
	_, err := reg.Add("1", "Alice", "Grade 12", 18)
	require.NoError(t, err)

	rec, _ := reg.Find("1")
	rec.Name = "Alicia"
	rec.Category = "Grade 11"

	found, ok := reg.Find("1")
	require.True(t, ok)
	assert.Equal(t, "1", found.ID())
	assert.Equal(t, "Alicia", found.Name)

	_, err = reg.Add("1", "Copy", "Grade 12", 18)
	assert.ErrorIs(t, err, shared.ErrDuplicateID)
}

func TestFind_Absent(t *testing.T) {
	reg, _ := openEmpty(t)
	rec, ok := reg.Find("ghost")
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestRemove(t *testing.T) {
	reg, _ := openEmpty(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := reg.Add(id, "N"+id, "C", 10)
		require.NoError(t, err)
	}

	require.NoError(t, reg.Remove("b"))

	ids := make([]string, 0, reg.Len())
	for _, rec := range reg.All() {
		ids = append(ids, rec.ID())
	}
	assert.Equal(t, []string{"a", "c"}, ids)

	_, ok := reg.Find("c")
	assert.True(t, ok)
}

func TestRemove_NotFound(t *testing.T) {
	reg, _ := openEmpty(t)
	_, err := reg.Add("a", "A", "C", 10)
	require.NoError(t, err)

	err = reg.Remove("ghost")
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	assert.True(t, shared.IsNotFound(err))
	assert.Equal(t, 1, reg.Len())
}

func TestAddScore(t *testing.T) {
	reg, _ := openEmpty(t)
	_, err := reg.Add("a", "A", "C", 10)
	require.NoError(t, err)

	require.NoError(t, reg.AddScore("a", "math", 85))
	require.NoError(t, reg.AddScore("a", "english", 90))

	rec, _ := reg.Find("a")
	assert.Equal(t, 87.5, rec.Average())
	assert.Equal(t, record.GradeGood, rec.GradeLevel())

	assert.ErrorIs(t, reg.AddScore("ghost", "math", 50), shared.ErrRecordNotFound)
	assert.ErrorIs(t, reg.AddScore("a", "math", 150), shared.ErrInvalidScore)

	v, _ := rec.Score("math")
	assert.Equal(t, 85.0, v)
}

func TestRemoveScore(t *testing.T) {
	reg, _ := openEmpty(t)
	_, err := reg.Add("a", "A", "C", 10)
	require.NoError(t, err)
	require.NoError(t, reg.AddScore("a", "math", 85))

	removed, err := reg.RemoveScore("a", "math")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = reg.RemoveScore("a", "math")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = reg.RemoveScore("ghost", "math")
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
}

func TestAll_ReturnsCopies(t *testing.T) {
	reg, _ := openEmpty(t)
	_, err := reg.Add("a", "A", "C", 10)
	require.NoError(t, err)

	all := reg.All()
	require.NoError(t, all[0].AddScore("math", 99))

	rec, _ := reg.Find("a")
	assert.False(t, rec.HasScores())
}

func TestClassStatistics(t *testing.T) {
	reg, _ := openEmpty(t)

	_, ok := reg.ClassStatistics()
	assert.False(t, ok)

	_, _ = reg.Add("a", "A", "C", 10)
	_, _ = reg.Add("b", "B", "C", 10)
	_, _ = reg.Add("c", "Unscored", "C", 10)
	require.NoError(t, reg.AddScore("a", "math", 90))
	require.NoError(t, reg.AddScore("b", "math", 70))

	stats, ok := reg.ClassStatistics()
	require.True(t, ok)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 80.0, stats.Mean)
	assert.Equal(t, 90.0, stats.Max)
	assert.Equal(t, 70.0, stats.Min)
	assert.Equal(t, 1, stats.Levels[record.GradeExcellent])
	assert.Equal(t, 1, stats.Levels[record.GradePass])
}

func TestSaveAndReopen(t *testing.T) {
	reg, store := openEmpty(t)
	_, _ = reg.Add("2024001", "Alice", "Grade 12", 18)
	_, _ = reg.Add("2024002", "Bob", "Grade 11", 17)
	require.NoError(t, reg.AddScore("2024001", "math", 85))
	require.NoError(t, reg.AddScore("2024002", "english", 72.5))

	require.NoError(t, reg.Save(context.Background()))
	assert.Equal(t, 1, store.saves)

	reopened, err := Open(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, 2, reopened.Len())

	for _, want := range reg.All() {
		got, ok := reopened.Find(want.ID())
		require.True(t, ok, want.ID())
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Category, got.Category)
		assert.Equal(t, want.Age, got.Age)
		assert.Equal(t, want.Scores(), got.Scores())
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	}
	assert.Equal(t, "2024001", reopened.All()[0].ID())
}

func TestSave_Error(t *testing.T) {
	reg, store := openEmpty(t)
	store.saveErr = errors.New("read-only filesystem")

	err := reg.Save(context.Background())
	assert.ErrorIs(t, err, shared.ErrSaveFailed)
	assert.Contains(t, err.Error(), "read-only filesystem")
}

func TestNoAutosave(t *testing.T) {
	reg, store := openEmpty(t)
	_, _ = reg.Add("a", "A", "C", 10)
	require.NoError(t, reg.AddScore("a", "math", 50))
	require.NoError(t, reg.Remove("a"))

	assert.Equal(t, 0, store.saves)
}

func TestLogsRejectedOperations(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg, _ := openEmpty(t, WithLogger(logger.FromZap(zap.New(core))))

	_ = reg.Remove("ghost")

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, "remove rejected", warns[0].Message)
	ctx := warns[0].ContextMap()
	assert.Equal(t, "ghost", ctx["record_id"])
	assert.Equal(t, "registry", ctx["component"])
}

func TestMetricsCountOperations(t *testing.T) {
	reg, _ := openEmpty(t)
	okBefore := testutil.ToFloat64(metrics.RegistryOperations.WithLabelValues("add", metrics.ResultOK))
	rejBefore := testutil.ToFloat64(metrics.RegistryOperations.WithLabelValues("add", metrics.ResultRejected))

	_, _ = reg.Add("m", "M", "C", 1)
	_, _ = reg.Add("m", "M", "C", 1)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.RegistryOperations.WithLabelValues("add", metrics.ResultOK)))
	assert.Equal(t, rejBefore+1, testutil.ToFloat64(metrics.RegistryOperations.WithLabelValues("add", metrics.ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsTotal))
}
