package store

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend is a Store whose connectivity can be checked.
type Backend interface {
	Store
	Ping(ctx context.Context) error
}

// Open returns the backend named kind ("file" or "redis") and a function
// releasing it.
func Open(ctx context.Context, kind, dir, redisURL string, log *slog.Logger) (Backend, func() error, error) {
	switch kind {
	case "file":
		return NewFileStore(dir, log), func() error { return nil }, nil
	case "redis":
		client, err := Connect(ctx, redisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, log), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", kind)
	}
}
