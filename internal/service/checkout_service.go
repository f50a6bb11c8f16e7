package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	txRefLength      = 18
	txRefMaxAttempts = 5
	txRefCharset     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CheckoutStore is the persistence surface the checkout engine needs.
type CheckoutStore interface {
	GetAddressByID(ctx context.Context, id uuid.UUID) (*models.ShippingAddress, error)
	ListCartLines(ctx context.Context, owner models.Owner) ([]models.CartLineView, error)
	TxRefExists(ctx context.Context, txRef string) (bool, error)
	CreateOrderTx(ctx context.Context, order *models.Order, lines []store.CheckoutLine) error
}

// ProductInvalidator drops stale cached product details after stock changes.
type ProductInvalidator interface {
	InvalidateProducts(ctx context.Context, slugs []string) error
}

// CheckoutService converts a user's cart into an immutable order inside a
// single transaction.
type CheckoutService struct {
	store  CheckoutStore
	cache  ProductInvalidator
	logger *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store CheckoutStore, cache ProductInvalidator) *CheckoutService {
	return &CheckoutService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// Checkout creates an order from the user's unclaimed cart lines, decrementing
// every consumed stock location and claiming the lines atomically. The
// returned view carries the claimed items and the derived total; payment
// confirmation arrives later through the webhook, never here.
func (cs *CheckoutService) Checkout(ctx context.Context, userID, shippingID uuid.UUID) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	address, err := cs.store.GetAddressByID(ctx, shippingID)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to resolve shipping address: %w", err)
	}
	if address == nil || address.UserID != userID {
		util.CheckoutsFailedTotal.WithLabelValues("invalid_address").Inc()
		return nil, apperr.NotFound("Shipping address does not exist!")
	}

	lines, err := cs.store.ListCartLines(ctx, models.UserOwner(userID))
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(lines) == 0 {
		util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, apperr.NotFound("No items in cart")
	}

	txRef, err := cs.generateTxRef(ctx)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("txref").Inc()
		return nil, err
	}

	order := &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		TxRef:          txRef,
		PaymentStatus:  models.PaymentStatusPending,
		DeliveryStatus: models.DeliveryStatusPending,

		ShippingName:    address.Name,
		ShippingEmail:   address.Email,
		ShippingPhone:   address.Phone,
		ShippingAddress: address.Address,
		ShippingCity:    address.City,
		ShippingState:   address.State,
		ShippingCountry: address.Country,
		ShippingZipcode: address.Zipcode,
	}

	checkoutLines := make([]store.CheckoutLine, 0, len(lines))
	slugs := make([]string, 0, len(lines))
	for _, line := range lines {
		cl := store.CheckoutLine{
			LineID:    line.ID,
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
		}
		if line.Variant != nil {
			variantID := line.Variant.ID
			cl.VariantID = &variantID
		}
		checkoutLines = append(checkoutLines, cl)
		slugs = append(slugs, line.Product.Slug)
	}

	if err := cs.store.CreateOrderTx(ctx, order, checkoutLines); err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			util.CheckoutsFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, apperr.Validation("quantity", "Insufficient stock for one or more items")
		}
		util.CheckoutsFailedTotal.WithLabelValues("tx_error").Inc()
		return nil, fmt.Errorf("order creation failed: %w", err)
	}

	util.CheckoutsCompletedTotal.Inc()
	cs.logger.Info("Order created",
		zap.String("tx_ref", order.TxRef),
		zap.String("user_id", userID.String()),
		zap.Int("items", len(lines)))

	if cs.cache != nil {
		if err := cs.cache.InvalidateProducts(ctx, slugs); err != nil {
			cs.logger.Warn("Failed to invalidate product cache", zap.Error(err))
		}
	}

	items := make([]models.OrderItemView, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItemView{
			Product:  line.Product,
			Variant:  line.Variant,
			Quantity: line.Quantity,
			Total:    line.Total,
		})
	}

	return &models.OrderView{
		TxRef:          order.TxRef,
		PaymentStatus:  order.PaymentStatus,
		DeliveryStatus: order.DeliveryStatus,
		Shipping:       models.ShippingDetailsFromAddress(address),
		Items:          items,
		Total:          models.OrderTotal(items),
		CreatedAt:      order.CreatedAt,
	}, nil
}

// generateTxRef produces a random transaction reference, retrying on the
// unlikely collision with an existing order.
func (cs *CheckoutService) generateTxRef(ctx context.Context) (string, error) {
	for attempt := 0; attempt < txRefMaxAttempts; attempt++ {
		buf := make([]byte, txRefLength)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate transaction reference: %w", err)
		}
		for i, b := range buf {
			buf[i] = txRefCharset[int(b)%len(txRefCharset)]
		}
		txRef := string(buf)

		exists, err := cs.store.TxRefExists(ctx, txRef)
		if err != nil {
			return "", fmt.Errorf("failed to check transaction reference: %w", err)
		}
		if !exists {
			return txRef, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique transaction reference")
}
