package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shop-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const productCacheTTL = 10 * time.Minute

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func productKey(slug string) string {
	return fmt.Sprintf("product:%s", slug)
}

// cachedProduct bundles a product with its variants for the detail read path.
type cachedProduct struct {
	Product  models.Product   `json:"product"`
	Variants []models.Variant `json:"variants"`
}

// GetProduct retrieves a cached product detail by slug. A cache miss returns
// nils without error.
func (c *Client) GetProduct(ctx context.Context, slug string) (*models.Product, []models.Variant, error) {
	raw, err := c.rdb.Get(ctx, productKey(slug)).Bytes()
	if err == redis.Nil {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var cached cachedProduct
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, nil, fmt.Errorf("failed to decode cached product: %w", err)
	}
	return &cached.Product, cached.Variants, nil
}

// SetProduct caches a product detail by slug
func (c *Client) SetProduct(ctx context.Context, product *models.Product, variants []models.Variant) error {
	raw, err := json.Marshal(cachedProduct{Product: *product, Variants: variants})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(product.Slug), raw, productCacheTTL).Err()
}

// InvalidateProducts drops the cached details of the given slugs. Called after
// a checkout consumes stock so cached stock counts do not linger.
func (c *Client) InvalidateProducts(ctx context.Context, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = productKey(slug)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
