package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// lockScriptSource sets the lock key unless it carries a ttl.
// TTL answers -2 for absent keys and -1 for keys without expiry.
const lockScriptSource = `
local ttl = redis.call('ttl', KEYS[1])
if ttl <= 0 then
	return redis.call('setex', KEYS[1], ARGV[1], ARGV[2])
end
return false`

// Redis implements Client on top of go-redis.
type Redis struct {
	l      *zap.Logger
	client redis.UniversalClient
}

// NewRedis wraps an existing go-redis client.
func NewRedis(l *zap.Logger, client redis.UniversalClient) *Redis {
	return &Redis{
		l:      l.Named("redis"),
		client: client,
	}
}

// NewRedisFromURL connects using a redis:// or rediss:// URL.
func NewRedisFromURL(ctx context.Context, l *zap.Logger, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}
	return NewRedis(l, client), nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	return r.client.Keys(ctx, pattern).Result()
}

// LockScript loads the lock script into the server script cache.
func (r *Redis) LockScript(ctx context.Context) (LockScript, error) {
	script := redis.NewScript(lockScriptSource)
	if err := script.Load(ctx, r.client).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to load lock script")
	}
	r.l.Debug("lock script loaded", zap.String("sha", script.Hash()))
	return &redisLockScript{client: r.client, script: script}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type redisLockScript struct {
	client redis.UniversalClient
	script *redis.Script
}

func (s *redisLockScript) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	err := s.script.Run(ctx, s.client, []string{key}, ttlSeconds(ttl), LockValue).Err()
	if errors.Is(err, redis.Nil) {
		// lua false is a nil reply
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}
