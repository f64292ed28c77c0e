package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to the revocation cache. The client pools connections
// and is safe for concurrent use; per-command deadlines keep a dead cache
// from stalling request handlers.
func NewClient(host string, port string) (*redis.Client, error) {
	addr := net.JoinHostPort(host, port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		// A single retry at most; an unreachable cache must fail closed
		// quickly instead of stalling the caller.
		MaxRetries: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	slog.Info("redis connected", "addr", addr)
	return client, nil
}
