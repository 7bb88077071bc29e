package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"storefront/internal/models"
)

// ErrNoStagedCheckout is returned when a user reaches the checkout step
// without having staged a cart first (or after the staging copy expired).
var ErrNoStagedCheckout = errors.New("no staged checkout for user")

// StagedCheckout is the cart snapshot carried from the cart page to the
// checkout page: items, the computed frete and the optionally applied coupon.
type StagedCheckout struct {
	Items      []models.CartItem `json:"items"`
	Frete      float64           `json:"frete"`
	CouponCode string            `json:"coupon_code,omitempty"`
}

// StagingStore holds short-lived per-user copies of cart state between pages,
// standing in for the browser local-storage keys cart / checkout_cart /
// checkout_frete of the storefront.
type StagingStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStagingStore(rdb *redis.Client) *StagingStore {
	return &StagingStore{
		redis: rdb,
		ttl:   30 * time.Minute,
	}
}

func cartKey(userID uuid.UUID) string     { return "cart:" + userID.String() }
func checkoutKey(userID uuid.UUID) string { return "checkout_cart:" + userID.String() }

// SaveCartMirror keeps a reload-resilient copy of the live cart.
func (s *StagingStore) SaveCartMirror(ctx context.Context, userID uuid.UUID, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart mirror: %w", err)
	}
	if err := s.redis.Set(ctx, cartKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart mirror: %w", err)
	}
	return nil
}

// SaveCheckout stages the snapshot the checkout step will consume.
func (s *StagingStore) SaveCheckout(ctx context.Context, userID uuid.UUID, staged StagedCheckout) error {
	data, err := json.Marshal(staged)
	if err != nil {
		return fmt.Errorf("failed to encode staged checkout: %w", err)
	}
	if err := s.redis.Set(ctx, checkoutKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save staged checkout: %w", err)
	}
	return nil
}

func (s *StagingStore) Checkout(ctx context.Context, userID uuid.UUID) (*StagedCheckout, error) {
	data, err := s.redis.Get(ctx, checkoutKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoStagedCheckout
		}
		return nil, fmt.Errorf("failed to load staged checkout: %w", err)
	}

	var staged StagedCheckout
	if err := json.Unmarshal(data, &staged); err != nil {
		return nil, fmt.Errorf("failed to decode staged checkout: %w", err)
	}

	return &staged, nil
}

// Clear drops both staging copies. Idempotent.
func (s *StagingStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.redis.Del(ctx, cartKey(userID), checkoutKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear staging for user %s: %w", userID, err)
	}
	return nil
}
