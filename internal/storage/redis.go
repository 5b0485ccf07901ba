package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProgressStore implements ProgressStore using Redis. Records are
// written without expiry: progress is durable, and the only volatile
// layer is the session manager's in-memory cache.
type RedisProgressStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisProgressStore implements ProgressStore interface
var _ ProgressStore = (*RedisProgressStore)(nil)

// NewRedisProgressStore creates a Redis-backed progress store.
// redisURL accepts both host:port and redis:// forms.
func NewRedisProgressStore(redisURL string, logger *slog.Logger) *RedisProgressStore {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		// Fall back to treating the value as a bare address.
		opts = &redis.Options{Addr: redisURL}
	}

	return &RedisProgressStore{
		client: redis.NewClient(opts),
		logger: logger,
	}
}

func progressKey(storyID, playerID string) string {
	return fmt.Sprintf("progress:%s:%s", storyID, playerID)
}

func (r *RedisProgressStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisProgressStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisProgressStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisProgressStore) GetProgress(ctx context.Context, storyID, playerID string) (*PersistedProgress, error) {
	key := progressKey(storyID, playerID)
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.logger.Debug("Progress record not found", "story_id", storyID, "player_id", playerID)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load progress record", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	var rec PersistedProgress
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		r.logger.Error("Failed to unmarshal progress record", "key", key, "error", err)
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	return &rec, nil
}

func (r *RedisProgressStore) PutProgress(ctx context.Context, rec *PersistedProgress) error {
	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("Failed to marshal progress record", "story_id", rec.StoryID, "player_id", rec.PlayerID, "error", err)
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	key := progressKey(rec.StoryID, rec.PlayerID)
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save progress record", "key", key, "error", err)
		return fmt.Errorf("failed to save progress: %w", err)
	}

	return nil
}

func (r *RedisProgressStore) DeleteProgress(ctx context.Context, storyID, playerID string) error {
	key := progressKey(storyID, playerID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete progress record", "key", key, "error", err)
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}
