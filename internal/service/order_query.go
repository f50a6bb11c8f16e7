package service

import (
	"context"
	"fmt"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/google/uuid"
)

// OrderQueryStore is the read surface the order query service needs.
type OrderQueryStore interface {
	ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, int, error)
	GetOrderItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItemView, error)
	GetOrderDetailByTxRef(ctx context.Context, txRef string) (*store.OrderDetail, error)
	GetSellerBySlug(ctx context.Context, slug string) (*models.Seller, error)
}

// OrderFilter narrows the order listing. SellerSlug switches the listing to
// that seller's sales view.
type OrderFilter struct {
	SellerSlug     string
	PaymentStatus  string
	DeliveryStatus string
	Page           int
	Limit          int
}

// OrderPage is one page of resolved order views.
type OrderPage struct {
	Orders []models.OrderView `json:"orders"`
	Total  int                `json:"items_count"`
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
}

// OrderQueryService is the pure read path over orders: it joins orders with
// their claimed items, products, variants and sellers and derives totals.
// Stale reads of in-flight checkouts are acceptable.
type OrderQueryService struct {
	store OrderQueryStore
}

// NewOrderQueryService creates a new order query service
func NewOrderQueryService(store OrderQueryStore) *OrderQueryService {
	return &OrderQueryService{store: store}
}

// ListOrders retrieves a page of order views matching the filter, most recent
// first. Without a seller slug the listing is the user's own purchases; with
// one it is the seller's sales, visible only to the seller's owning user.
func (oq *OrderQueryService) ListOrders(ctx context.Context, userID uuid.UUID, filter OrderFilter) (*OrderPage, error) {
	ctx, span := util.StartSpan(ctx, "OrderQueryService.ListOrders")
	defer span.End()

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.PaymentStatus != "" && !validPaymentStatus(filter.PaymentStatus) {
		return nil, apperr.InvalidParam("Invalid payment status filter")
	}
	if filter.DeliveryStatus != "" && !validDeliveryStatus(filter.DeliveryStatus) {
		return nil, apperr.InvalidParam("Invalid delivery status filter")
	}

	storeFilter := store.OrderFilter{
		PaymentStatus:  filter.PaymentStatus,
		DeliveryStatus: filter.DeliveryStatus,
		Page:           filter.Page,
		Limit:          filter.Limit,
	}

	if filter.SellerSlug != "" {
		seller, err := oq.store.GetSellerBySlug(ctx, filter.SellerSlug)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve seller: %w", err)
		}
		// A seller another user owns reads exactly like a missing one, so the
		// sales view leaks nothing about foreign sellers.
		if seller == nil || seller.UserID != userID {
			return nil, apperr.NotFound("Seller does not exist!")
		}
		storeFilter.SellerID = &seller.ID
	} else {
		storeFilter.UserID = &userID
	}

	orders, total, err := oq.store.ListOrders(ctx, storeFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
	}

	items, err := oq.store.GetOrderItems(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	views := make([]models.OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, orderToView(&order, items[order.ID]))
	}

	return &OrderPage{
		Orders: views,
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}, nil
}

// GetOrder retrieves a single order view by transaction reference, scoped to
// its owning user.
func (oq *OrderQueryService) GetOrder(ctx context.Context, userID uuid.UUID, txRef string) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderQueryService.GetOrder")
	defer span.End()

	detail, err := oq.store.GetOrderDetailByTxRef(ctx, txRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if detail == nil || detail.Order.UserID != userID {
		return nil, apperr.NotFound("Order does not exist!")
	}

	view := orderToView(&detail.Order, detail.Items)
	return &view, nil
}

func orderToView(order *models.Order, items []models.OrderItemView) models.OrderView {
	return models.OrderView{
		TxRef:          order.TxRef,
		PaymentStatus:  order.PaymentStatus,
		DeliveryStatus: order.DeliveryStatus,
		DateDelivered:  order.DateDelivered,
		Shipping: models.ShippingDetails{
			Name:    order.ShippingName,
			Email:   order.ShippingEmail,
			Phone:   order.ShippingPhone,
			Address: order.ShippingAddress,
			City:    order.ShippingCity,
			State:   order.ShippingState,
			Country: order.ShippingCountry,
			Zipcode: order.ShippingZipcode,
		},
		Items:     items,
		Total:     models.OrderTotal(items),
		CreatedAt: order.CreatedAt,
	}
}

func validPaymentStatus(status string) bool {
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusProcessing,
		models.PaymentStatusSuccessful, models.PaymentStatusCancelled, models.PaymentStatusFailed:
		return true
	}
	return false
}

func validDeliveryStatus(status string) bool {
	switch status {
	case models.DeliveryStatusPending, models.DeliveryStatusPacking,
		models.DeliveryStatusShipping, models.DeliveryStatusArriving, models.DeliveryStatusSuccess:
		return true
	}
	return false
}
