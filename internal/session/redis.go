package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshotter persists session snapshots in a Redis/Valkey-compatible
// server so conversations survive engine restarts.
type RedisSnapshotter struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds connection parameters for the session backend.
type RedisConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TTL          time.Duration
}

// NewRedisSnapshotter connects to the configured server and verifies the
// connection with a ping.
func NewRedisSnapshotter(ctx context.Context, cfg RedisConfig) (*RedisSnapshotter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSnapshotter{client: client, keyPrefix: "oem-insight:session:", ttl: ttl}, nil
}

// Save stores the snapshot under the session key with the configured TTL.
func (r *RedisSnapshotter) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// Load fetches and decodes the snapshot; found is false for unknown sessions.
func (r *RedisSnapshotter) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	payload, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load session snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode session snapshot: %w", err)
	}
	return snap, true, nil
}

// Delete removes the persisted snapshot.
func (r *RedisSnapshotter) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisSnapshotter) Close() error {
	return r.client.Close()
}

func (r *RedisSnapshotter) key(sessionID string) string {
	return r.keyPrefix + sessionID
}
