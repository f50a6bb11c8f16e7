package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mail event types published to the notification topic.
const (
	EventTypePaymentSuccess = "PAYMENT_SUCCESS"
	EventTypePaymentFailed  = "PAYMENT_FAILED"
	EventTypePaymentInvalid = "PAYMENT_INVALID"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentMailEvent carries the context the mail worker needs to notify a
// customer about a payment outcome. For PAYMENT_INVALID deliveries there is no
// matching order, so TxRef identifies only the foreign transaction.
type PaymentMailEvent struct {
	BaseEvent
	TxRef         string          `json:"tx_ref"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	// Reason qualifies failures: "declined" or "insufficient".
	Reason string `json:"reason,omitempty"`
}
