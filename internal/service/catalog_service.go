package service

import (
	"context"
	"fmt"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogStore is the read surface the catalog needs.
type CatalogStore interface {
	GetProducts(ctx context.Context, limit, offset int) ([]models.Product, error)
	CountProducts(ctx context.Context) (int, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetVariantsByProductID(ctx context.Context, productID uuid.UUID) ([]models.Variant, error)
}

// ProductCache is a read-through cache for product details.
type ProductCache interface {
	GetProduct(ctx context.Context, slug string) (*models.Product, []models.Variant, error)
	SetProduct(ctx context.Context, product *models.Product, variants []models.Variant) error
}

// ProductPage is one page of catalog products.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"items_count"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// ProductDetail is a product with its variants.
type ProductDetail struct {
	Product  models.Product   `json:"product"`
	Variants []models.Variant `json:"variants"`
}

// CatalogService serves the product browse path.
type CatalogService struct {
	store  CatalogStore
	cache  ProductCache
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, cache ProductCache) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ListProducts retrieves a page of products, newest first.
func (c *CatalogService) ListProducts(ctx context.Context, page, limit int) (*ProductPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := c.store.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	products, err := c.store.GetProducts(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{Products: products, Total: total, Page: page, Limit: limit}, nil
}

// GetProduct retrieves a product detail by slug, served from cache when warm.
func (c *CatalogService) GetProduct(ctx context.Context, slug string) (*ProductDetail, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	if c.cache != nil {
		product, variants, err := c.cache.GetProduct(ctx, slug)
		if err != nil {
			c.logger.Warn("Product cache read failed", zap.String("slug", slug), zap.Error(err))
		} else if product != nil {
			return &ProductDetail{Product: *product, Variants: variants}, nil
		}
	}

	product, err := c.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, apperr.NotFound("Product does not exist!")
	}

	variants, err := c.store.GetVariantsByProductID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.SetProduct(ctx, product, variants); err != nil {
			c.logger.Warn("Product cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	return &ProductDetail{Product: *product, Variants: variants}, nil
}
