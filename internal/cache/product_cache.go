package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"commerce-service/internal/models"
	"commerce-service/internal/repository"
)

const (
	allProductsKey = "products:all"
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
)

// CachedProductRepository is a read-through cache in front of a
// ProductRepository. Redis errors are logged and never fail a request.
type CachedProductRepository struct {
	realRepo repository.ProductRepository
	redis    *redis.Client
	ttl      time.Duration
	log      zerolog.Logger
}

var _ repository.ProductRepository = (*CachedProductRepository)(nil)

func NewCachedProductRepository(realRepo repository.ProductRepository, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedProductRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProductRepository{
		realRepo: realRepo,
		redis:    rdb,
		ttl:      ttl,
		log:      log.With().Str("component", "product_cache").Logger(),
	}
}

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, repository.ErrNotFound
		}

		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("failed to unmarshal cached product, continuing with db")
			break
		}

		return &product, nil

	case errors.Is(err, redis.Nil):

	default:
		c.log.Warn().Err(err).Msg("redis error, continuing with db")
	}

	product, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, notFoundTTL).Err(); setErr != nil {
				c.log.Warn().Err(setErr).Str("key", key).Msg("failed to cache notfound")
			}
		}
		return nil, err
	}

	c.store(ctx, key, product)
	return product, nil
}

func (c *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	data, err := c.redis.Get(ctx, allProductsKey).Bytes()
	if err == nil {
		var products []models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		c.log.Warn().Err(err).Str("key", allProductsKey).Msg("failed to unmarshal cached products, continuing with db")
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Msg("redis error, continuing with db")
	}

	products, err := c.realRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, allProductsKey, products)
	return products, nil
}

func (c *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := c.realRepo.Create(ctx, product); err != nil {
		return err
	}

	// the new id may carry a negative entry from an earlier lookup
	c.invalidate(ctx, productKey(product.ID), allProductsKey)
	return nil
}

func (c *CachedProductRepository) Update(ctx context.Context, id int, patch models.ProductPatch) (*models.Product, error) {
	product, err := c.realRepo.Update(ctx, id, patch)
	c.invalidate(ctx, productKey(id), allProductsKey)
	return product, err
}

func (c *CachedProductRepository) Delete(ctx context.Context, id int) error {
	err := c.realRepo.Delete(ctx, id)
	c.invalidate(ctx, productKey(id), allProductsKey)
	return err
}

func (c *CachedProductRepository) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("failed to marshal for cache")
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("failed to cache value")
	}
}

func (c *CachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate cache")
	}
}
