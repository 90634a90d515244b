package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// GuardKey builds redis keys for short-lived exclusive sections.
func GuardKey(key string) string {
	return "synapse:guard:" + key
}

// releaseScript deletes the key only while it still carries the caller's
// token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard marks keys as held with SET NX so that duplicate submissions
// coming from different requests or processes are rejected. Keys expire
// after ttl in case the holder dies before releasing.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard constructs a RedisGuard.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Acquire holds key if nobody else does. The returned token identifies this
// hold for Release.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, GuardKey(key), token, g.ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Release frees key if it is still held under token. A hold that already
// expired and was taken by someone else is left alone.
func (g *RedisGuard) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	return releaseScript.Run(ctx, g.client, []string{GuardKey(key)}, token).Err()
}

// Held reports whether key is currently held.
func (g *RedisGuard) Held(ctx context.Context, key string) (bool, error) {
	n, err := g.client.Exists(ctx, GuardKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
