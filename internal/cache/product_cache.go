package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// notFoundMarker is cached on misses so repeated lookups for a missing
// product do not hit the database.
const notFoundMarker = "notfound"

// CachedProductRepository is a cache-aside decorator over the real catalog
// repository. Redis failures degrade to direct reads, never to errors.
type CachedProductRepository struct {
	realRepo repository.ProductRepository
	redis    *redis.Client
	ttl      time.Duration
	log      zerolog.Logger
}

func NewCachedProductRepository(realRepo repository.ProductRepository, rdb *redis.Client, log zerolog.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		realRepo: realRepo,
		redis:    rdb,
		ttl:      5 * time.Minute,
		log:      log,
	}
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	key := "product:" + id.String()

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, repository.ErrNotFound
		}
		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("bad cache entry, falling through to db")
			break
		}
		return &product, nil

	case errors.Is(err, redis.Nil):

	default:
		c.log.Warn().Err(err).Msg("redis error, falling through to db")
	}

	product, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, time.Minute).Err(); setErr != nil {
				c.log.Warn().Err(setErr).Msg("failed to cache notfound marker")
			}
		}
		return nil, err
	}

	c.store(ctx, key, product, c.ttl)
	return product, nil
}

func (c *CachedProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	key := listKey(filter)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var products []models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Msg("redis error, falling through to db")
	}

	products, err := c.realRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, products, c.ttl)
	return products, nil
}

// Search results are not cached: the query space is unbounded and the search
// page is a manual action, unlike catalog listings rendered on every visit.
func (c *CachedProductRepository) Search(ctx context.Context, query string) ([]models.Product, error) {
	return c.realRepo.Search(ctx, query)
}

// DecrementQuantity invalidates only after the write lands; invalidating
// first would let a concurrent read re-cache the stale row for the full TTL.
func (c *CachedProductRepository) DecrementQuantity(ctx context.Context, id uuid.UUID, by int) error {
	if err := c.realRepo.DecrementQuantity(ctx, id, by); err != nil {
		return err
	}
	c.invalidateProduct(ctx, id)
	return nil
}

func (c *CachedProductRepository) ListMissingImages(ctx context.Context, limit int) ([]models.Product, error) {
	return c.realRepo.ListMissingImages(ctx, limit)
}

func (c *CachedProductRepository) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	if err := c.realRepo.SetImageURL(ctx, id, imageURL); err != nil {
		return err
	}
	c.invalidateProduct(ctx, id)
	return nil
}

func (c *CachedProductRepository) store(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("failed to marshal cache entry")
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("failed to store cache entry")
	}
}

func (c *CachedProductRepository) invalidateProduct(ctx context.Context, id uuid.UUID) {
	keys := []string{"product:" + id.String()}

	// Listing keys are filter-shaped; dropping them all keeps invalidation
	// simple at the cost of one scan per write, and writes are rare.
	iter := c.redis.Scan(ctx, 0, "products:list:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("failed to scan listing keys")
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Msg("failed to invalidate product cache")
	}
}

func listKey(filter models.ProductFilter) string {
	return fmt.Sprintf("products:list:%s:%g:%g:%s",
		filter.Category, filter.MinPrice, filter.MaxPrice, filter.Sort)
}
