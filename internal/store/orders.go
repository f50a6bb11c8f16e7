package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shop-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ErrInsufficientStock is returned when a conditional stock decrement matches
// no row, meaning the remaining stock no longer covers the requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// CheckoutLine is one cart line consumed by a checkout transaction.
type CheckoutLine struct {
	LineID    uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// TxRefExists reports whether any order already uses the transaction reference.
func (s *Store) TxRefExists(ctx context.Context, txRef string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM orders WHERE tx_ref = $1)", txRef)
	return exists, err
}

// CreateOrderTx runs the whole checkout as one transaction: it inserts the
// order, decrements every consumed stock location, and claims the cart lines.
// Decrements are grouped per stock location and applied conditionally; if any
// location no longer covers the requested quantity the transaction is rolled
// back and ErrInsufficientStock is returned.
func (s *Store) CreateOrderTx(ctx context.Context, order *models.Order, lines []CheckoutLine) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, user_id, tx_ref, payment_status, delivery_status,
			shipping_name, shipping_email, shipping_phone, shipping_address,
			shipping_city, shipping_state, shipping_country, shipping_zipcode, coupon_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	row := tx.QueryRowxContext(ctx, query,
		order.ID, order.UserID, order.TxRef, order.PaymentStatus, order.DeliveryStatus,
		order.ShippingName, order.ShippingEmail, order.ShippingPhone, order.ShippingAddress,
		order.ShippingCity, order.ShippingState, order.ShippingCountry, order.ShippingZipcode,
		order.CouponCode)
	if err := row.Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	productQty := make(map[uuid.UUID]int)
	variantQty := make(map[uuid.UUID]int)
	lineIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		lineIDs = append(lineIDs, line.LineID)
		if line.VariantID != nil {
			variantQty[*line.VariantID] += line.Quantity
		} else {
			productQty[line.ProductID] += line.Quantity
		}
	}

	for productID, qty := range productQty {
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
			qty, productID)
		if err != nil {
			return fmt.Errorf("failed to decrement product stock: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrInsufficientStock
		}
	}

	for variantID, qty := range variantQty {
		res, err := tx.ExecContext(ctx,
			"UPDATE variants SET stock = stock - $1 WHERE id = $2 AND stock >= $1",
			qty, variantID)
		if err != nil {
			return fmt.Errorf("failed to decrement variant stock: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrInsufficientStock
		}
	}

	claim, args, err := sqlx.In(
		"UPDATE cart_lines SET order_id = ?, updated_at = NOW() WHERE id IN (?)",
		order.ID, lineIDs)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(claim), args...); err != nil {
		return fmt.Errorf("failed to claim cart lines: %w", err)
	}

	return tx.Commit()
}

// OrderFilter narrows and pages the order list.
type OrderFilter struct {
	UserID         *uuid.UUID
	SellerID       *uuid.UUID
	PaymentStatus  string
	DeliveryStatus string
	Page           int
	Limit          int
}

// ListOrders retrieves a page of orders matching the filter, newest first.
func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM cart_lines cl
			JOIN products p ON p.id = cl.product_id
			WHERE cl.order_id = o.id AND p.seller_id = $%d)`, len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where = append(where, fmt.Sprintf("o.payment_status = $%d", len(args)))
	}
	if filter.DeliveryStatus != "" {
		args = append(args, filter.DeliveryStatus)
		where = append(where, fmt.Sprintf("o.delivery_status = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders o"+clause, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf("SELECT o.* FROM orders o%s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d",
		clause, len(args)-1, len(args))

	var orders []models.Order
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

type orderItemRow struct {
	cartLineRow
	OrderID uuid.UUID `db:"order_id"`
}

// GetOrderItems retrieves the claimed lines of the given orders, resolved with
// product, seller and variant data, keyed by order ID.
func (s *Store) GetOrderItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItemView, error) {
	items := make(map[uuid.UUID][]models.OrderItemView, len(orderIDs))
	if len(orderIDs) == 0 {
		return items, nil
	}

	query, args, err := sqlx.In(
		strings.Replace(cartLineSelect, "cl.id, cl.quantity,", "cl.id, cl.quantity, cl.order_id,", 1)+
			" WHERE cl.order_id IN (?)", orderIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rows []orderItemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	for _, row := range rows {
		view := row.toView()
		items[row.OrderID] = append(items[row.OrderID], models.OrderItemView{
			Product:  view.Product,
			Variant:  view.Variant,
			Quantity: view.Quantity,
			Total:    view.Total,
		})
	}
	return items, nil
}

// OrderDetail is an order resolved with its claimed items, derived total and
// the owning user.
type OrderDetail struct {
	Order models.Order
	Items []models.OrderItemView
	Total decimal.Decimal
	User  models.User
}

// GetOrderDetailByTxRef retrieves the order matching a transaction reference
// along with its items and buyer. Returns nil when no order matches.
func (s *Store) GetOrderDetailByTxRef(ctx context.Context, txRef string) (*OrderDetail, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE tx_ref = $1", txRef)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := s.GetOrderItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", order.UserID); err != nil {
		return nil, fmt.Errorf("failed to load order user: %w", err)
	}

	detail := &OrderDetail{
		Order: order,
		Items: items[order.ID],
		Total: models.OrderTotal(items[order.ID]),
		User:  user,
	}
	return detail, nil
}

// TransitionPaymentStatus moves an order's payment status to the given state
// unless the order is already in a terminal state. It reports whether a row
// actually changed, so duplicate webhook deliveries become no-ops.
func (s *Store) TransitionPaymentStatus(ctx context.Context, txRef, status string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = NOW()
		WHERE tx_ref = $2 AND payment_status NOT IN ($3, $4, $5)`,
		status, txRef,
		models.PaymentStatusSuccessful, models.PaymentStatusCancelled, models.PaymentStatusFailed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
