package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveStockAndPrice(t *testing.T) {
	product := &Product{Stock: 7, PriceCurrent: decimal.NewFromInt(50)}
	variant := &Variant{Stock: 3, Price: decimal.NewFromInt(100)}

	assert.Equal(t, 7, EffectiveStock(product, nil))
	assert.Equal(t, 3, EffectiveStock(product, variant))
	assert.True(t, decimal.NewFromInt(50).Equal(EffectivePrice(product, nil)))
	assert.True(t, decimal.NewFromInt(100).Equal(EffectivePrice(product, variant)))
}

func TestIsTerminalPaymentStatus(t *testing.T) {
	assert.False(t, IsTerminalPaymentStatus(PaymentStatusPending))
	assert.False(t, IsTerminalPaymentStatus(PaymentStatusProcessing))
	assert.True(t, IsTerminalPaymentStatus(PaymentStatusSuccessful))
	assert.True(t, IsTerminalPaymentStatus(PaymentStatusCancelled))
	assert.True(t, IsTerminalPaymentStatus(PaymentStatusFailed))
}

func TestOrderTotal(t *testing.T) {
	items := []OrderItemView{
		{Quantity: 2, Total: decimal.NewFromInt(200)},
		{Quantity: 1, Total: decimal.NewFromInt(50)},
	}
	assert.True(t, decimal.NewFromInt(250).Equal(OrderTotal(items)))
	assert.True(t, decimal.Zero.Equal(OrderTotal(nil)))
}
