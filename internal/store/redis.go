package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "tripplanner:"

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// RedisStore keeps each namespace in one Redis hash (field = cache key).
type RedisStore struct {
	client *redis.Client
	prefix string
	log    *slog.Logger
}

// NewRedisStore constructs a RedisStore using the default key prefix.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{client: client, prefix: defaultKeyPrefix, log: log}
}

// key returns the Redis hash name for the namespace.
func (s *RedisStore) key(ns Namespace) string {
	return s.prefix + string(ns)
}

// Load reads the whole hash. A missing hash is an empty mapping; a hash holding
// any non-JSON field is treated as corrupt and also loads empty.
func (s *RedisStore) Load(ctx context.Context, ns Namespace) (Mapping, error) {
	fields, err := s.client.HGetAll(ctx, s.key(ns)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache load for namespace %s: %w", ns, err)
	}

	m := make(Mapping, len(fields))
	for k, v := range fields {
		if !json.Valid([]byte(v)) {
			s.log.Warn("cache hash corrupt, starting empty", "namespace", ns, "field", k)
			return Mapping{}, nil
		}
		m[k] = json.RawMessage(v)
	}

	return m, nil
}

// Save replaces the hash contents with m in a single MULTI/EXEC.
func (s *RedisStore) Save(ctx context.Context, ns Namespace, m Mapping) error {
	key := s.key(ns)

	values := make([]any, 0, len(m)*2)
	for k, v := range m {
		values = append(values, k, string(v))
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache save for namespace %s: %w", ns, err)
	}

	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ Store = (*RedisStore)(nil)
