package service

import (
	"context"
	"testing"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrderQueryStore struct {
	orders     []models.Order
	items      map[uuid.UUID][]models.OrderItemView
	sellers    map[string]*models.Seller
	lastFilter store.OrderFilter
}

func (m *mockOrderQueryStore) ListOrders(_ context.Context, filter store.OrderFilter) ([]models.Order, int, error) {
	m.lastFilter = filter
	return m.orders, len(m.orders), nil
}

func (m *mockOrderQueryStore) GetOrderItems(_ context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItemView, error) {
	result := make(map[uuid.UUID][]models.OrderItemView)
	for _, id := range orderIDs {
		if items, ok := m.items[id]; ok {
			result[id] = items
		}
	}
	return result, nil
}

func (m *mockOrderQueryStore) GetOrderDetailByTxRef(_ context.Context, txRef string) (*store.OrderDetail, error) {
	for _, order := range m.orders {
		if order.TxRef == txRef {
			items := m.items[order.ID]
			return &store.OrderDetail{
				Order: order,
				Items: items,
				Total: models.OrderTotal(items),
			}, nil
		}
	}
	return nil, nil
}

func (m *mockOrderQueryStore) GetSellerBySlug(_ context.Context, slug string) (*models.Seller, error) {
	return m.sellers[slug], nil
}

func orderItem(quantity int, unitPrice int64) models.OrderItemView {
	return models.OrderItemView{
		Quantity: quantity,
		Total:    decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func TestListOrders_DerivesTotalsFromItems(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()
	st := &mockOrderQueryStore{
		orders: []models.Order{{ID: orderID, UserID: userID, TxRef: "TX1", PaymentStatus: models.PaymentStatusPending}},
		items: map[uuid.UUID][]models.OrderItemView{
			orderID: {orderItem(2, 100), orderItem(1, 50)},
		},
	}

	svc := NewOrderQueryService(st)
	page, err := svc.ListOrders(context.Background(), userID, OrderFilter{})
	require.NoError(t, err)

	require.Len(t, page.Orders, 1)
	assert.True(t, decimal.NewFromInt(250).Equal(page.Orders[0].Total))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
	require.NotNil(t, st.lastFilter.UserID)
	assert.Equal(t, userID, *st.lastFilter.UserID)
}

func TestListOrders_RejectsInvalidStatusFilter(t *testing.T) {
	svc := NewOrderQueryService(&mockOrderQueryStore{})

	_, err := svc.ListOrders(context.Background(), uuid.New(), OrderFilter{PaymentStatus: "Paid"})
	assert.Equal(t, apperr.CodeInvalidParam, apperr.From(err).Code)

	_, err = svc.ListOrders(context.Background(), uuid.New(), OrderFilter{DeliveryStatus: "Teleporting"})
	assert.Equal(t, apperr.CodeInvalidParam, apperr.From(err).Code)
}

func TestListOrders_SellerViewScopedToOwningUser(t *testing.T) {
	ownerID := uuid.New()
	sellerID := uuid.New()
	st := &mockOrderQueryStore{
		sellers: map[string]*models.Seller{
			"ada-wares": {ID: sellerID, UserID: ownerID, Slug: "ada-wares"},
		},
	}

	svc := NewOrderQueryService(st)
	_, err := svc.ListOrders(context.Background(), ownerID, OrderFilter{SellerSlug: "ada-wares"})
	require.NoError(t, err)

	require.NotNil(t, st.lastFilter.SellerID)
	assert.Equal(t, sellerID, *st.lastFilter.SellerID)
	assert.Nil(t, st.lastFilter.UserID, "the sales view is not narrowed to the seller's own purchases")
}

func TestListOrders_SellerViewDeniedToOtherUsers(t *testing.T) {
	ownerID := uuid.New()
	st := &mockOrderQueryStore{
		sellers: map[string]*models.Seller{
			"ada-wares": {ID: uuid.New(), UserID: ownerID, Slug: "ada-wares"},
		},
	}

	svc := NewOrderQueryService(st)
	_, err := svc.ListOrders(context.Background(), uuid.New(), OrderFilter{SellerSlug: "ada-wares"})

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
	assert.Equal(t, "Seller does not exist!", appErr.Message, "a foreign seller must be indistinguishable from a missing one")
	assert.Nil(t, st.lastFilter.SellerID)
}

func TestListOrders_UnknownSeller(t *testing.T) {
	svc := NewOrderQueryService(&mockOrderQueryStore{})

	_, err := svc.ListOrders(context.Background(), uuid.New(), OrderFilter{SellerSlug: "nobody"})
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()
	st := &mockOrderQueryStore{
		orders: []models.Order{{ID: orderID, UserID: userID, TxRef: "TX1"}},
		items:  map[uuid.UUID][]models.OrderItemView{orderID: {orderItem(1, 75)}},
	}
	svc := NewOrderQueryService(st)

	view, err := svc.GetOrder(context.Background(), userID, "TX1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(75).Equal(view.Total))

	// Another user's reference behaves exactly like a missing order.
	_, err = svc.GetOrder(context.Background(), uuid.New(), "TX1")
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	_, err = svc.GetOrder(context.Background(), userID, "MISSING")
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}
