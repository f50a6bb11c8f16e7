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

// CartStore is the persistence surface the cart manager needs.
type CartStore interface {
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetVariantsByProductID(ctx context.Context, productID uuid.UUID) ([]models.Variant, error)
	ListCartLines(ctx context.Context, owner models.Owner) ([]models.CartLineView, error)
	UpsertCartLine(ctx context.Context, owner models.Owner, productID uuid.UUID, variantID *uuid.UUID, quantity int) error
	DeleteCartLine(ctx context.Context, owner models.Owner, productID uuid.UUID) error
}

// CartService maintains per-owner cart lines. Stock is checked here but never
// reserved; the only decrement happens inside the checkout transaction.
type CartService struct {
	store  CartStore
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ListCart returns the owner's unclaimed lines resolved with product and
// variant snapshots and per-line totals.
func (cs *CartService) ListCart(ctx context.Context, owner models.Owner) ([]models.CartLineView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.ListCart")
	defer span.End()

	lines, err := cs.store.ListCartLines(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	return lines, nil
}

// UpsertLine creates or overwrites the owner's line for a product. A quantity
// of zero removes the line; removal of an absent line is a no-op.
func (cs *CartService) UpsertLine(ctx context.Context, owner models.Owner, slug string, variantID *uuid.UUID, quantity int) error {
	ctx, span := util.StartSpan(ctx, "CartService.UpsertLine")
	defer span.End()

	if quantity < 0 {
		return apperr.Validation("quantity", "Quantity must not be negative")
	}

	product, err := cs.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to resolve product: %w", err)
	}
	if product == nil {
		return apperr.NotFound("Product does not exist!")
	}

	if quantity == 0 {
		if err := cs.store.DeleteCartLine(ctx, owner, product.ID); err != nil {
			return fmt.Errorf("failed to delete cart line: %w", err)
		}
		util.CartUpsertsTotal.Inc()
		return nil
	}

	variants, err := cs.store.GetVariantsByProductID(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve variants: %w", err)
	}

	variant, err := resolveVariant(variants, variantID)
	if err != nil {
		return err
	}

	if quantity > models.EffectiveStock(product, variant) {
		return apperr.Validation("quantity", "Quantity exceeds available stock")
	}

	if err := cs.store.UpsertCartLine(ctx, owner, product.ID, variantID, quantity); err != nil {
		return fmt.Errorf("failed to upsert cart line: %w", err)
	}

	util.CartUpsertsTotal.Inc()
	cs.logger.Info("Cart line written",
		zap.String("owner_kind", string(owner.Kind)),
		zap.String("product", slug),
		zap.Int("quantity", quantity))
	return nil
}

// resolveVariant enforces the variant selection rules: a product with variants
// requires one, and a supplied variant must belong to the product.
func resolveVariant(variants []models.Variant, variantID *uuid.UUID) (*models.Variant, error) {
	if variantID == nil {
		if len(variants) > 0 {
			return nil, apperr.Validation("variantId", "You must select a variant for this product")
		}
		return nil, nil
	}

	for i := range variants {
		if variants[i].ID == *variantID {
			return &variants[i], nil
		}
	}
	return nil, apperr.Validation("variantId", "Variant does not belong to this product")
}
