package handshake

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis so handshakes survive process
// restarts and work across replicas. Secrets are stored under
// "handshake:<requestToken>" with the handshake TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed handshake store. Prefix may be empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "handshake:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(requestToken string) string {
	return r.prefix + requestToken
}

func (r *RedisStore) Put(ctx context.Context, requestToken, secret string) error {
	return r.client.Set(ctx, r.key(requestToken), secret, TTL).Err()
}

func (r *RedisStore) Take(ctx context.Context, requestToken string) (string, error) {
	secret, err := r.client.GetDel(ctx, r.key(requestToken)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return secret, nil
}
