package service

import (
	"context"
	"testing"

	"shop-service/internal/apperr"
	"shop-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartLineKey struct {
	owner   uuid.UUID
	product uuid.UUID
}

type mockCartStore struct {
	products map[string]*models.Product
	variants map[uuid.UUID][]models.Variant
	lines    map[cartLineKey]*models.CartLine
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{
		products: make(map[string]*models.Product),
		variants: make(map[uuid.UUID][]models.Variant),
		lines:    make(map[cartLineKey]*models.CartLine),
	}
}

func (m *mockCartStore) GetProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	return m.products[slug], nil
}

func (m *mockCartStore) GetVariantsByProductID(_ context.Context, productID uuid.UUID) ([]models.Variant, error) {
	return m.variants[productID], nil
}

func (m *mockCartStore) ListCartLines(_ context.Context, owner models.Owner) ([]models.CartLineView, error) {
	var views []models.CartLineView
	for key, line := range m.lines {
		if key.owner == owner.ID {
			views = append(views, models.CartLineView{
				ID:       line.ID,
				Quantity: line.Quantity,
				Product:  models.ProductSnapshot{ID: line.ProductID},
			})
		}
	}
	return views, nil
}

func (m *mockCartStore) UpsertCartLine(_ context.Context, owner models.Owner, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	key := cartLineKey{owner: owner.ID, product: productID}
	if existing, ok := m.lines[key]; ok {
		existing.VariantID = variantID
		existing.Quantity = quantity
		return nil
	}
	m.lines[key] = &models.CartLine{
		ID:        uuid.New(),
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}
	return nil
}

func (m *mockCartStore) DeleteCartLine(_ context.Context, owner models.Owner, productID uuid.UUID) error {
	delete(m.lines, cartLineKey{owner: owner.ID, product: productID})
	return nil
}

func (m *mockCartStore) addProduct(slug string, stock int) *models.Product {
	product := &models.Product{
		ID:           uuid.New(),
		Slug:         slug,
		Stock:        stock,
		PriceCurrent: decimal.NewFromInt(50),
	}
	m.products[slug] = product
	return product
}

func (m *mockCartStore) addVariant(product *models.Product, stock int) models.Variant {
	variant := models.Variant{
		ID:        uuid.New(),
		ProductID: product.ID,
		Price:     decimal.NewFromInt(100),
		Stock:     stock,
	}
	m.variants[product.ID] = append(m.variants[product.ID], variant)
	return variant
}

func TestUpsertLine_IsIdempotent(t *testing.T) {
	store := newMockCartStore()
	store.addProduct("good-shoes", 10)
	svc := NewCartService(store)
	owner := models.UserOwner(uuid.New())

	require.NoError(t, svc.UpsertLine(context.Background(), owner, "good-shoes", nil, 3))
	require.NoError(t, svc.UpsertLine(context.Background(), owner, "good-shoes", nil, 3))

	require.Len(t, store.lines, 1)
	for _, line := range store.lines {
		assert.Equal(t, 3, line.Quantity)
	}
}

func TestUpsertLine_OverwritesQuantityAndVariant(t *testing.T) {
	store := newMockCartStore()
	product := store.addProduct("good-shoes", 0)
	first := store.addVariant(product, 10)
	second := store.addVariant(product, 5)
	svc := NewCartService(store)
	owner := models.UserOwner(uuid.New())

	require.NoError(t, svc.UpsertLine(context.Background(), owner, "good-shoes", &first.ID, 2))
	require.NoError(t, svc.UpsertLine(context.Background(), owner, "good-shoes", &second.ID, 4))

	require.Len(t, store.lines, 1)
	for _, line := range store.lines {
		assert.Equal(t, 4, line.Quantity)
		assert.Equal(t, second.ID, *line.VariantID)
	}
}

func TestUpsertLine_ZeroQuantityRemovesLine(t *testing.T) {
	store := newMockCartStore()
	store.addProduct("good-shoes", 10)
	svc := NewCartService(store)
	owner := models.GuestOwner(uuid.New())

	require.NoError(t, svc.UpsertLine(context.Background(), owner, "good-shoes", nil, 2))
	require.NoError(t, svc.UpsertLine(context.Background(), owner, "good-shoes", nil, 0))
	assert.Empty(t, store.lines)

	// Removing a line that is already gone is a no-op.
	require.NoError(t, svc.UpsertLine(context.Background(), owner, "good-shoes", nil, 0))
}

func TestUpsertLine_ProductNotFound(t *testing.T) {
	svc := NewCartService(newMockCartStore())
	err := svc.UpsertLine(context.Background(), models.UserOwner(uuid.New()), "missing", nil, 1)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
}

func TestUpsertLine_VariantRequired(t *testing.T) {
	store := newMockCartStore()
	product := store.addProduct("good-shoes", 0)
	store.addVariant(product, 10)
	svc := NewCartService(store)

	err := svc.UpsertLine(context.Background(), models.UserOwner(uuid.New()), "good-shoes", nil, 1)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeInvalidEntry, appErr.Code)
	assert.Contains(t, appErr.Data, "variantId")
}

func TestUpsertLine_ForeignVariantRejected(t *testing.T) {
	store := newMockCartStore()
	product := store.addProduct("good-shoes", 0)
	store.addVariant(product, 10)
	other := store.addProduct("other-shoes", 0)
	foreign := store.addVariant(other, 10)
	svc := NewCartService(store)

	err := svc.UpsertLine(context.Background(), models.UserOwner(uuid.New()), "good-shoes", &foreign.ID, 1)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeInvalidEntry, appErr.Code)
	assert.Contains(t, appErr.Data, "variantId")
	assert.Empty(t, store.lines)
}

func TestUpsertLine_QuantityExceedsStock(t *testing.T) {
	store := newMockCartStore()
	store.addProduct("good-shoes", 2)
	svc := NewCartService(store)

	err := svc.UpsertLine(context.Background(), models.UserOwner(uuid.New()), "good-shoes", nil, 3)

	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeInvalidEntry, appErr.Code)
	assert.Contains(t, appErr.Data, "quantity")
	assert.Empty(t, store.lines)
}

func TestUpsertLine_VariantStockChecked(t *testing.T) {
	store := newMockCartStore()
	product := store.addProduct("good-shoes", 0)
	variant := store.addVariant(product, 5)
	svc := NewCartService(store)
	owner := models.UserOwner(uuid.New())

	require.NoError(t, svc.UpsertLine(context.Background(), owner, "good-shoes", &variant.ID, 5))

	err := svc.UpsertLine(context.Background(), owner, "good-shoes", &variant.ID, 6)
	appErr := apperr.From(err)
	assert.Equal(t, apperr.CodeInvalidEntry, appErr.Code)
}
