package broker

import (
	"context"

	"shop-service/internal/models"
)

// EventPublisher publishes notification events for the mail worker.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPaymentMail publishes a payment mail event keyed by transaction
// reference so deliveries for one order stay ordered.
func (ep *EventPublisher) PublishPaymentMail(ctx context.Context, event *models.PaymentMailEvent) error {
	return ep.producer.PublishEvent(ctx, "tx-"+event.TxRef, event)
}
