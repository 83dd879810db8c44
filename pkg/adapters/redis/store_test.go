package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmusatyalab/OpenWorkflow/pkg/adapters/redis"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/ports/tests"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	tests.RunDocumentStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	now := time.Now()
	store := redis.NewFromClient(client,
		redis.WithTTL(time.Second),
		redis.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "short-lived", []byte("data")))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "short-lived")

	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, "short-lived")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	now = now.Add(2 * time.Second)
	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	score, err := client.ZScore(ctx, redis.DefaultPrefix+"index", "short-lived").Result()
	assert.ErrorIs(t, err, backend.Nil, "index entry pruned, got score %v", score)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sandwich", []byte{0x0a, 0x00}))

	assert.True(t, mr.Exists("custom:app:doc:sandwich"))
	assert.True(t, mr.Exists("custom:app:index"))

	raw, err := mr.Get("custom:app:doc:sandwich")
	require.NoError(t, err)
	assert.Equal(t, string([]byte{0x0a, 0x00}), raw, "documents are stored as raw bytes")
}

func TestRedisStore_ReservedLookingNames(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	names := []string{"sandwich", "index", "lock:sandwich", "doc:index"}
	for i, name := range names {
		require.NoError(t, store.Save(ctx, name, []byte{byte(i)}), name)
	}

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc:index", "index", "lock:sandwich", "sandwich"}, listed)

	for i, name := range names {
		data, err := store.Load(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, []byte{byte(i)}, data, name)
	}

	require.NoError(t, store.Delete(ctx, "index"))
	listed, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc:index", "lock:sandwich", "sandwich"}, listed)
}

func TestRedisStore_RejectsUnsafeNames(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)

	assert.ErrorIs(t, store.Save(context.Background(), "", []byte("x")), domain.ErrEmptyName)
}
