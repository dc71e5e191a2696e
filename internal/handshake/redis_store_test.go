package handshake

import (
	"context"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return NewRedisStore(client, "test:handshake:"), m
}

func TestRedisStore_PutTake(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "rt-1", "secret-1"))

	secret, err := s.Take(ctx, "rt-1")
	require.NoError(t, err)
	require.Equal(t, "secret-1", secret)

	// single use
	secret2, err := s.Take(ctx, "rt-1")
	require.NoError(t, err)
	require.Equal(t, "", secret2)
}

func TestRedisStore_UnknownToken(t *testing.T) {
	s, _ := newTestRedisStore(t)
	secret, err := s.Take(context.Background(), "never-issued")
	require.NoError(t, err)
	require.Equal(t, "", secret)
}

func TestRedisStore_Expiry(t *testing.T) {
	s, m := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "rt-exp", "secret"))

	// advance miniredis clock past the handshake TTL
	m.FastForward(TTL * 2)

	secret, err := s.Take(ctx, "rt-exp")
	require.NoError(t, err)
	require.Equal(t, "", secret)
}
