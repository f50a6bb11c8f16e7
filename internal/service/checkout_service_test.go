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

type mockCheckoutStore struct {
	addresses map[uuid.UUID]*models.ShippingAddress
	cart      []models.CartLineView
	stock     map[uuid.UUID]int

	existingRefs map[string]bool
	refChecks    []string
	collisions   int

	createdOrder *models.Order
	claimedLines []store.CheckoutLine
}

func newMockCheckoutStore() *mockCheckoutStore {
	return &mockCheckoutStore{
		addresses:    make(map[uuid.UUID]*models.ShippingAddress),
		stock:        make(map[uuid.UUID]int),
		existingRefs: make(map[string]bool),
	}
}

func (m *mockCheckoutStore) GetAddressByID(_ context.Context, id uuid.UUID) (*models.ShippingAddress, error) {
	return m.addresses[id], nil
}

func (m *mockCheckoutStore) ListCartLines(_ context.Context, _ models.Owner) ([]models.CartLineView, error) {
	return m.cart, nil
}

func (m *mockCheckoutStore) TxRefExists(_ context.Context, txRef string) (bool, error) {
	m.refChecks = append(m.refChecks, txRef)
	if m.collisions > 0 {
		m.collisions--
		return true, nil
	}
	return m.existingRefs[txRef], nil
}

func (m *mockCheckoutStore) CreateOrderTx(_ context.Context, order *models.Order, lines []store.CheckoutLine) error {
	// Mirror the real transaction: every decrement must hold or nothing does.
	for _, line := range lines {
		target := line.ProductID
		if line.VariantID != nil {
			target = *line.VariantID
		}
		if m.stock[target] < line.Quantity {
			return store.ErrInsufficientStock
		}
	}
	for _, line := range lines {
		target := line.ProductID
		if line.VariantID != nil {
			target = *line.VariantID
		}
		m.stock[target] -= line.Quantity
	}

	m.createdOrder = order
	m.claimedLines = lines
	m.cart = nil
	return nil
}

type mockInvalidator struct {
	slugs [][]string
}

func (m *mockInvalidator) InvalidateProducts(_ context.Context, slugs []string) error {
	m.slugs = append(m.slugs, slugs)
	return nil
}

func checkoutFixture() (*mockCheckoutStore, uuid.UUID, uuid.UUID) {
	st := newMockCheckoutStore()
	userID := uuid.New()
	addressID := uuid.New()
	st.addresses[addressID] = &models.ShippingAddress{
		ID:     addressID,
		UserID: userID,
		Name:   "Ada",
		Email:  "ada@example.com",
		City:   "Lagos",
	}
	return st, userID, addressID
}

func cartLine(productID uuid.UUID, variantID *uuid.UUID, quantity int, unitPrice int64) models.CartLineView {
	view := models.CartLineView{
		ID:       uuid.New(),
		Quantity: quantity,
		Product: models.ProductSnapshot{
			ID:           productID,
			Slug:         "product-" + productID.String()[:8],
			PriceCurrent: decimal.NewFromInt(unitPrice),
		},
		Total: decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(int64(quantity))),
	}
	if variantID != nil {
		view.Variant = &models.VariantSnapshot{ID: *variantID, Price: decimal.NewFromInt(unitPrice)}
	}
	return view
}

func TestCheckout_CreatesOrderWithDerivedTotal(t *testing.T) {
	st, userID, addressID := checkoutFixture()
	variantID := uuid.New()
	productID := uuid.New()
	flatID := uuid.New()
	st.stock[variantID] = 5
	st.stock[flatID] = 5
	st.cart = []models.CartLineView{
		cartLine(productID, &variantID, 2, 100),
		cartLine(flatID, nil, 1, 50),
	}

	svc := NewCheckoutService(st, nil)
	order, err := svc.Checkout(context.Background(), userID, addressID)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(250).Equal(order.Total), "total should be 2x100 + 1x50, got %s", order.Total)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.DeliveryStatusPending, order.DeliveryStatus)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "Ada", order.Shipping.Name)
	assert.Len(t, order.TxRef, 18)

	require.NotNil(t, st.createdOrder)
	assert.Equal(t, userID, st.createdOrder.UserID)
	assert.Equal(t, "Lagos", st.createdOrder.ShippingCity)
	assert.Len(t, st.claimedLines, 2)
	assert.Equal(t, 3, st.stock[variantID])
	assert.Equal(t, 4, st.stock[flatID])
}

func TestCheckout_InsufficientStockLeavesCartIntact(t *testing.T) {
	st, userID, addressID := checkoutFixture()
	productID := uuid.New()
	st.stock[productID] = 1
	st.cart = []models.CartLineView{cartLine(productID, nil, 3, 100)}

	svc := NewCheckoutService(st, nil)
	_, err := svc.Checkout(context.Background(), userID, addressID)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeInvalidEntry, appErr.Code)
	assert.Nil(t, st.createdOrder)
	assert.Len(t, st.cart, 1, "cart must survive a failed checkout")
	assert.Equal(t, 1, st.stock[productID], "stock must not change on failure")
}

func TestCheckout_RejectsForeignAddress(t *testing.T) {
	st, _, addressID := checkoutFixture()
	st.cart = []models.CartLineView{cartLine(uuid.New(), nil, 1, 10)}

	svc := NewCheckoutService(st, nil)
	_, err := svc.Checkout(context.Background(), uuid.New(), addressID)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
	assert.Nil(t, st.createdOrder)
}

func TestCheckout_RejectsMissingAddress(t *testing.T) {
	st, userID, _ := checkoutFixture()
	st.cart = []models.CartLineView{cartLine(uuid.New(), nil, 1, 10)}

	svc := NewCheckoutService(st, nil)
	_, err := svc.Checkout(context.Background(), userID, uuid.New())

	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestCheckout_RejectsEmptyCart(t *testing.T) {
	st, userID, addressID := checkoutFixture()

	svc := NewCheckoutService(st, nil)
	_, err := svc.Checkout(context.Background(), userID, addressID)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
	assert.Equal(t, "No items in cart", appErr.Message)
}

func TestCheckout_RetriesTxRefOnCollision(t *testing.T) {
	st, userID, addressID := checkoutFixture()
	productID := uuid.New()
	st.stock[productID] = 5
	st.cart = []models.CartLineView{cartLine(productID, nil, 1, 10)}

	// The first generated ref collides with an existing order; the next is free.
	st.collisions = 1

	svc := NewCheckoutService(st, nil)
	order, err := svc.Checkout(context.Background(), userID, addressID)
	require.NoError(t, err)

	require.Len(t, st.refChecks, 2)
	assert.NotEqual(t, st.refChecks[0], order.TxRef)
	assert.Equal(t, st.refChecks[1], order.TxRef)
	for _, ref := range st.refChecks {
		assert.Len(t, ref, 18)
		assert.Regexp(t, "^[A-Z0-9]+$", ref)
	}
}

func TestCheckout_GivesUpAfterRepeatedCollisions(t *testing.T) {
	st, userID, addressID := checkoutFixture()
	productID := uuid.New()
	st.stock[productID] = 5
	st.cart = []models.CartLineView{cartLine(productID, nil, 1, 10)}
	st.collisions = 10

	svc := NewCheckoutService(st, nil)
	_, err := svc.Checkout(context.Background(), userID, addressID)

	require.Error(t, err)
	assert.Len(t, st.refChecks, 5)
	assert.Nil(t, st.createdOrder)
}

func TestCheckout_InvalidatesProductCache(t *testing.T) {
	st, userID, addressID := checkoutFixture()
	productID := uuid.New()
	st.stock[productID] = 5
	line := cartLine(productID, nil, 1, 10)
	st.cart = []models.CartLineView{line}

	cache := &mockInvalidator{}
	svc := NewCheckoutService(st, cache)
	_, err := svc.Checkout(context.Background(), userID, addressID)
	require.NoError(t, err)

	require.Len(t, cache.slugs, 1)
	assert.Equal(t, []string{line.Product.Slug}, cache.slugs[0])
}
