package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "test:session:"), mr
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	ident := NewIdentity(testClaims("admin-group"), "admin-group")
	require.NoError(t, store.Save(ctx, "abc", ident, 10*time.Minute))

	assert.True(t, mr.Exists("test:session:abc"))
	assert.Equal(t, 10*time.Minute, mr.TTL("test:session:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ident.UPN, got.UPN)
	assert.Equal(t, ident.EmployeeID, got.EmployeeID)
	assert.True(t, got.IsAdmin)
	assert.True(t, ident.ExpiresAt.Equal(got.ExpiresAt))
	require.NotNil(t, got.Claims)
	assert.Equal(t, []string{"admin-group"}, got.Claims.Groups)
	assert.True(t, got.IsActive(time.Now()))
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := newRedisStore(t)

	got, err := store.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	ident := NewIdentity(testClaims(), "admin-group")
	require.NoError(t, store.Save(ctx, "abc", ident, time.Minute))

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "abc")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_ReplaceAndDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	first := NewIdentity(testClaims(), "admin-group")
	second := NewIdentity(testClaims("admin-group"), "admin-group")
	second.Name = "Replaced"

	require.NoError(t, store.Save(ctx, "abc", first, time.Minute))
	require.NoError(t, store.Save(ctx, "abc", second, time.Minute))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Replaced", got.Name)
	assert.True(t, got.IsAdmin)

	require.NoError(t, store.Delete(ctx, "abc"))
	got, err = store.Get(ctx, "abc")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("test:session:abc", "{not json"))

	got, err := store.Get(context.Background(), "abc")

	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "abc")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		store := NewMemoryStore()
		ident := NewIdentity(testClaims("admin-group"), "admin-group")

		require.NoError(t, store.Save(ctx, "abc", ident, time.Minute))

		got, err := store.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, ident.UPN, got.UPN)
		assert.NotSame(t, ident, got)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("missing", func(t *testing.T) {
		got, err := NewMemoryStore().Get(ctx, "nope")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired entries are dropped", func(t *testing.T) {
		store := NewMemoryStore()
		now := time.Now()
		store.now = func() time.Time { return now }

		require.NoError(t, store.Save(ctx, "abc", NewIdentity(testClaims(), "g"), time.Minute))
		store.now = func() time.Time { return now.Add(2 * time.Minute) }

		got, err := store.Get(ctx, "abc")
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("delete", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Save(ctx, "abc", NewIdentity(testClaims(), "g"), time.Minute))
		require.NoError(t, store.Delete(ctx, "abc"))
		assert.Equal(t, 0, store.Len())
	})
}
