package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/travel-journal/internal/model"
)

func sampleData() *Data {
	return &Data{
		UserID: "alice",
		Cart:   []model.CartItem{{Name: "Tent", Price: "99"}, {Name: "Map", Price: "5"}},
		Flash:  []string{"hello"},
	}
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("load unknown id", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound), "Load() error = %v, want ErrNotFound", err)
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s1", sampleData(), time.Hour))

		got, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, sampleData(), got)
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s2", sampleData(), time.Hour))
		require.NoError(t, store.Save(ctx, "s2", &Data{UserID: "bob"}, time.Hour))

		got, err := store.Load(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, "bob", got.UserID)
		assert.Empty(t, got.Cart)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s3", sampleData(), time.Hour))
		require.NoError(t, store.Delete(ctx, "s3"))

		_, err := store.Load(ctx, "s3")
		assert.True(t, errors.Is(err, ErrNotFound))

		// Deleting twice is not an error.
		assert.NoError(t, store.Delete(ctx, "s3"))
	})
}

// =========================================================================
// MEMORY STORE TESTS
// =========================================================================

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s", sampleData(), time.Hour))

	got, err := store.Load(ctx, "s")
	require.NoError(t, err)
	got.Cart[0].Name = "changed"
	got.Cart = append(got.Cart, model.CartItem{Name: "extra"})

	again, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "Tent", again.Cart[0].Name)
	assert.Len(t, again.Cart, 2)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "short", sampleData(), time.Minute))
	require.NoError(t, store.Save(ctx, "long", sampleData(), time.Hour))

	now = now.Add(2 * time.Minute)

	_, err := store.Load(ctx, "short")
	assert.True(t, errors.Is(err, ErrNotFound), "expired session should not load")

	_, err = store.Load(ctx, "long")
	assert.NoError(t, err)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", sampleData(), time.Minute))
	require.NoError(t, store.Save(ctx, "b", sampleData(), time.Minute))
	require.NoError(t, store.Save(ctx, "c", sampleData(), time.Hour))
	assert.Equal(t, 3, store.Len())

	now = now.Add(5 * time.Minute)
	store.Sweep()

	assert.Equal(t, 1, store.Len())
}

// =========================================================================
// REDIS STORE TESTS
// =========================================================================

// newTestRedisStore starts an in-process Redis (miniredis) for the test.
func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestRedisStore(t)
	storeContract(t, store)
}

func TestRedisStore_KeyAndTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "abc", sampleData(), 30*time.Minute))

	assert.True(t, mr.Exists("session:abc"))
	assert.Equal(t, 30*time.Minute, mr.TTL("session:abc"))

	mr.FastForward(31 * time.Minute)

	_, err := store.Load(ctx, "abc")
	assert.True(t, errors.Is(err, ErrNotFound), "session should expire with its redis TTL")
}

func TestRedisStore_CorruptValue(t *testing.T) {
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, err := store.Load(context.Background(), "any")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound), "a dead redis is not the same as a missing session")
}
