package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitError carries how long the caller has to wait before retrying.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckAndSet acquires a per-user, per-action lock for the given window.
// Returns nil when the action is allowed, *RateLimitError when it is not.
// A nil redis client disables rate limiting entirely.
func CheckAndSet(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, window time.Duration) error {
	if rdb == nil {
		return nil
	}

	key := limitKey(userID, action)

	wasSet, err := rdb.SetNX(ctx, key, "locked", window).Result()
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return nil
	}

	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil {
		ttl = window
	}

	return &RateLimitError{
		Message:    fmt.Sprintf("terlalu cepat, coba lagi dalam %.0f detik", ttl.Seconds()),
		RetryAfter: ttl,
	}
}

// Clear releases the lock early, e.g. when the guarded action failed.
func Clear(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, limitKey(userID, action)).Result()
	return err
}

func limitKey(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}
