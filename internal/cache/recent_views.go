package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const recentViewsMax = 20

// RecentViews keeps a bounded, de-duplicated, most-recent-first list of
// product ids per user.
type RecentViews struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRecentViews(rdb *redis.Client) *RecentViews {
	return &RecentViews{
		redis: rdb,
		ttl:   7 * 24 * time.Hour,
	}
}

func recentKey(userID uuid.UUID) string { return "recent_views:" + userID.String() }

func (r *RecentViews) Add(ctx context.Context, userID, productID uuid.UUID) error {
	key := recentKey(userID)

	pipe := r.redis.TxPipeline()
	pipe.LRem(ctx, key, 0, productID.String())
	pipe.LPush(ctx, key, productID.String())
	pipe.LTrim(ctx, key, 0, recentViewsMax-1)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record recent view: %w", err)
	}

	return nil
}

func (r *RecentViews) List(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	values, err := r.redis.LRange(ctx, recentKey(userID), 0, recentViewsMax-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent views: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
