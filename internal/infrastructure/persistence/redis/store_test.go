package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alem-hub/gradebook/internal/domain/progress"
	"github.com/alem-hub/gradebook/internal/domain/record"
	"github.com/alem-hub/gradebook/internal/domain/shared"
	"github.com/alem-hub/gradebook/pkg/logger"
)

func setupRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Addr = mr.Addr()
	cfg.KeyPrefix = "test:"

	client, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRecordStore_MissingKey(t *testing.T) {
	client, _ := setupRedis(t)

	records, err := NewRecordStore(client).Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestRecordStore_RoundTrip(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRecordStore(client)
	ctx := context.Background()

	a := record.NewAt("2024001", "Alice", "Grade 12", 18, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, a.AddScore("math", 85))
	require.NoError(t, store.Save(ctx, []*record.Record{a}))

	assert.True(t, mr.Exists("test:records"))
	assert.Equal(t, time.Duration(0), mr.TTL("test:records"))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, 85.0, got[0].Average())
}

func TestRecordStore_Corrupt(t *testing.T) {
	client, mr := setupRedis(t)
	require.NoError(t, mr.Set("test:records", "not json"))

	_, err := NewRecordStore(client).Load(context.Background())
	assert.ErrorIs(t, err, shared.ErrMalformedRecord)
}

func TestRecordStore_ServerDown(t *testing.T) {
	client, mr := setupRedis(t)
	mr.Close()

	_, err := NewRecordStore(client).Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrMalformedRecord)
}

func TestProgressStore_RoundTrip(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewProgressStore(client)
	ctx := context.Background()

	missing, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, missing)

	tr := progress.NewTracker(progress.DefaultTopics(), nil)
	require.NoError(t, tr.AddNote("Functions", "closures"))
	require.NoError(t, store.Save(ctx, tr.Snapshot()))

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "closures", stored["Functions"].Notes)
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 50 * time.Millisecond
	cfg.MaxRetries = -1

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := Open(ctx, cfg, nil)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestOpen_AuthFailureNotRetried(t *testing.T) {
	for name, password := range map[string]string{"wrong password": "wrong", "no password": ""} {
		t.Run(name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			mr.RequireAuth("secret")

			cfg := DefaultConfig()
			cfg.Addr = mr.Addr()
			cfg.Password = password

			core, logs := observer.New(zap.WarnLevel)
			_, err := Open(context.Background(), cfg, logger.FromZap(zap.New(core)))

			require.ErrorIs(t, err, ErrConnection)
			assert.True(t, IsAuthFailure(err))
			assert.Zero(t, logs.FilterMessage("redis ping failed, retrying").Len())
		})
	}
}

func TestIsAuthFailure(t *testing.T) {
	assert.False(t, IsAuthFailure(nil))
	assert.False(t, IsAuthFailure(errors.New("WRONGPASS but not from the server")))
}

func TestClient_EmptyKey(t *testing.T) {
	client, _ := setupRedis(t)

	_, _, err := client.GetBytes(context.Background(), "")
	assert.ErrorIs(t, err, ErrKeyEmpty)
	assert.ErrorIs(t, client.SetBytes(context.Background(), "", nil), ErrKeyEmpty)
}
