package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmex-dev/leveldensity/internal/export"
)

func sampleTable() *export.Table {
	return &export.Table{
		Columns: []string{"E", "NLD", "NLD_unc"},
		Rows:    [][]string{{"0.5", "12.1", "1.2"}, {"1", "30.4", "2.5"}},
	}
}

func TestSessionStateMachine(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	s := New(store)
	state, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	// nothing to keep yet
	require.NoError(t, s.Remember(ctx, nil))
	require.NoError(t, s.Remember(ctx, &export.Table{Columns: []string{"E", "NLD", "NLD_unc"}}))
	state, _ = s.State(ctx)
	assert.Equal(t, StateIdle, state)

	require.NoError(t, s.Remember(ctx, sampleTable()))
	state, _ = s.State(ctx)
	assert.Equal(t, StateResolved, state)

	// a later resolution without rows replaces the cache
	require.NoError(t, s.Remember(ctx, &export.Table{Columns: []string{"E", "NLD", "NLD_unc"}, Rows: [][]string{}}))
	last, found, err := s.Last(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, last.Rows)
	assert.Equal(t, "resolved", StateResolved.String())
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	a := New(store)
	b := New(store)
	assert.NotEqual(t, a.ID, b.ID)

	require.NoError(t, a.Remember(ctx, sampleTable()))
	stateB, err := b.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, stateB)
	assert.Equal(t, 1, store.Len())
}

func TestOpen(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	s := New(store)
	assert.Equal(t, s.ID, Open(store, s.ID).ID)
	assert.NotEqual(t, "not-a-uuid", Open(store, "not-a-uuid").ID)
	assert.NotEmpty(t, Open(store, "").ID)
}

func TestMemoryStoreCopiesTables(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	table := sampleTable()
	require.NoError(t, store.Save(ctx, "id", table))
	table.Rows[0][0] = "changed"

	got, found, err := store.Load(ctx, "id")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "0.5", got.Rows[0][0])
}

// Runs against a real server when LD_TEST_REDIS_ADDR is set, e.g. localhost:6379.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("LD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LD_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err())

	store := NewRedisStoreFromClient(client, time.Minute)
	defer store.Close()

	s := New(store)
	_, found, err := s.Last(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Remember(ctx, sampleTable()))
	got, found, err := s.Last(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleTable(), got)

	require.NoError(t, client.Del(ctx, redisKeyPrefix+s.ID).Err())
}
