package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockTTL = 30 * time.Second

// RedisStore is the external consistent KV backend, for multiple scheduler
// processes sharing one durable state back-end.
type RedisStore struct {
	client *redis.Client
}

// RedisConfig configures the outbound connection to the consistent KV
// back-end.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisStore dials addr and verifies reachability with a PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Scan(ctx context.Context, prefix string) ([]KV, error) {
	var results []KV
	var cursor uint64
	pattern := prefix + "*"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", prefix, err)
		}
		for _, k := range keys {
			v, err := s.client.Get(ctx, k).Bytes()
			if err == redis.Nil {
				continue // evicted between SCAN and GET
			}
			if err != nil {
				return nil, fmt.Errorf("scan %s: get %s: %w", prefix, k, err)
			}
			results = append(results, KV{Key: k, Value: v})
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	return results, nil
}

// Lock acquires a SETNX-based advisory lock with a TTL, retrying until ctx
// is done. The stored token is checked before deletion so a lock that
// outlived its TTL and was reclaimed by another holder is never released
// out from under them.
func (s *RedisStore) Lock(ctx context.Context, key string) (Unlock, error) {
	lockKey := "lock:" + key
	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return func() { s.unlock(lockKey, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

func (s *RedisStore) unlock(lockKey, token string) {
	// Best effort: the lock has a TTL, so a failed release only delays the
	// next acquirer rather than deadlocking it.
	unlockScript.Run(context.Background(), s.client, []string{lockKey}, token)
}

func randomToken() (string, error) {
	return uuid.NewString(), nil
}
