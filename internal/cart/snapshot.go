package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openshop/checkout/internal/domain"
)

// SnapshotStore persists cart contents between sessions so a cart survives
// reloads and server restarts. Consumers define this interface, not the
// Redis implementation.
type SnapshotStore interface {
	Load(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	Save(ctx context.Context, userID string, lines []domain.CartLineItem) error
	Delete(ctx context.Context, userID string) error
}

var ErrSnapshotMiss = errors.New("cart snapshot not found")

func NewRedisSnapshots(client *redis.Client) *RedisSnapshots {
	return &RedisSnapshots{
		client:  client,
		baseTTL: 7 * 24 * time.Hour,
	}
}

type RedisSnapshots struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisSnapshots) Load(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	data, err := r.client.Get(ctx, snapshotKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var lines []domain.CartLineItem
	if err2 := json.Unmarshal(data, &lines); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot failed: %w", err2)
	}
	return lines, nil
}

func (r *RedisSnapshots) Save(ctx context.Context, userID string, lines []domain.CartLineItem) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot failed: %w", err)
	}

	// Jitter spreads expirations so a burst of carts does not expire at once.
	jitter := time.Duration(rand.Intn(30)) * time.Minute
	ttl := r.baseTTL + jitter
	if ret := r.client.Set(ctx, snapshotKey(userID), data, ttl); ret.Err() != nil {
		return fmt.Errorf("redis set failed: %w", ret.Err())
	}
	return nil
}

func (r *RedisSnapshots) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
