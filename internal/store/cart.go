package store

import (
	"context"
	"fmt"

	"shop-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ownerColumn maps the owner kind to its foreign key column on cart_lines.
// Exactly one of user_id/guest_id is ever set on a row.
func ownerColumn(owner models.Owner) string {
	if owner.Kind == models.OwnerKindGuest {
		return "guest_id"
	}
	return "user_id"
}

// cartLineRow is the flat shape of a cart line joined with its product, seller
// and optional variant.
type cartLineRow struct {
	ID       uuid.UUID `db:"id"`
	Quantity int       `db:"quantity"`

	ProductID    uuid.UUID       `db:"product_id"`
	ProductName  string          `db:"product_name"`
	ProductSlug  string          `db:"product_slug"`
	PriceCurrent decimal.Decimal `db:"price_current"`
	ProductImage string          `db:"product_image"`
	SellerName   string          `db:"seller_name"`
	SellerSlug   string          `db:"seller_slug"`

	VariantID    *uuid.UUID       `db:"variant_id"`
	VariantSize  *string          `db:"variant_size"`
	VariantColor *string          `db:"variant_color"`
	VariantPrice *decimal.Decimal `db:"variant_price"`
	VariantStock *int             `db:"variant_stock"`
	VariantImage *string          `db:"variant_image"`
}

const cartLineSelect = `
	SELECT cl.id, cl.quantity,
	       p.id AS product_id, p.name AS product_name, p.slug AS product_slug,
	       p.price_current, p.image1 AS product_image,
	       s.name AS seller_name, s.slug AS seller_slug,
	       v.id AS variant_id, v.size AS variant_size, v.color AS variant_color,
	       v.price AS variant_price, v.stock AS variant_stock, v.image AS variant_image
	FROM cart_lines cl
	JOIN products p ON p.id = cl.product_id
	JOIN sellers s ON s.id = p.seller_id
	LEFT JOIN variants v ON v.id = cl.variant_id`

func (r cartLineRow) toView() models.CartLineView {
	view := models.CartLineView{
		ID: r.ID,
		Product: models.ProductSnapshot{
			ID:           r.ProductID,
			Name:         r.ProductName,
			Slug:         r.ProductSlug,
			PriceCurrent: r.PriceCurrent,
			Image:        r.ProductImage,
			SellerName:   r.SellerName,
			SellerSlug:   r.SellerSlug,
		},
		Quantity: r.Quantity,
	}
	unitPrice := r.PriceCurrent
	if r.VariantID != nil {
		view.Variant = &models.VariantSnapshot{
			ID:    *r.VariantID,
			Size:  r.VariantSize,
			Color: r.VariantColor,
			Price: *r.VariantPrice,
			Stock: *r.VariantStock,
			Image: *r.VariantImage,
		}
		unitPrice = *r.VariantPrice
	}
	view.Total = unitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
	return view
}

// ListCartLines retrieves the owner's unclaimed cart lines resolved with
// product, seller and variant data.
func (s *Store) ListCartLines(ctx context.Context, owner models.Owner) ([]models.CartLineView, error) {
	query := fmt.Sprintf(
		"%s WHERE cl.order_id IS NULL AND cl.%s = $1 ORDER BY cl.created_at DESC",
		cartLineSelect, ownerColumn(owner))

	var rows []cartLineRow
	if err := s.db.SelectContext(ctx, &rows, query, owner.ID); err != nil {
		return nil, err
	}

	views := make([]models.CartLineView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.toView())
	}
	return views, nil
}

// UpsertCartLine creates or overwrites the owner's line for a product. The
// (owner, product) pair is unique among unclaimed lines, so a second write for
// the same product replaces variant and quantity in place.
func (s *Store) UpsertCartLine(ctx context.Context, owner models.Owner, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	col := ownerColumn(owner)
	query := fmt.Sprintf(`
		INSERT INTO cart_lines (id, %s, product_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (%s, product_id) WHERE order_id IS NULL
		DO UPDATE SET variant_id = EXCLUDED.variant_id, quantity = EXCLUDED.quantity, updated_at = NOW()`,
		col, col)

	_, err := s.db.ExecContext(ctx, query, uuid.New(), owner.ID, productID, variantID, quantity)
	return err
}

// DeleteCartLine removes the owner's unclaimed line for a product. Deleting a
// line that does not exist is a no-op.
func (s *Store) DeleteCartLine(ctx context.Context, owner models.Owner, productID uuid.UUID) error {
	query := fmt.Sprintf(
		"DELETE FROM cart_lines WHERE %s = $1 AND product_id = $2 AND order_id IS NULL",
		ownerColumn(owner))
	_, err := s.db.ExecContext(ctx, query, owner.ID, productID)
	return err
}
