package worker

import (
	"context"
	"encoding/json"
	"log"

	"shop-service/internal/broker"
	"shop-service/internal/mailer"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/segmentio/kafka-go"
)

// MailWorker consumes payment mail events and delivers them through the
// mailer. Delivery failures are logged and dropped, never retried: the
// webhook's acknowledgement to the provider must not depend on email.
type MailWorker struct {
	consumer *broker.Consumer
	mailer   *mailer.Mailer
}

// NewMailWorker creates a new mail worker
func NewMailWorker(consumer *broker.Consumer, mailer *mailer.Mailer) *MailWorker {
	return &MailWorker{
		consumer: consumer,
		mailer:   mailer,
	}
}

// Start starts the worker
func (w *MailWorker) Start(ctx context.Context) error {
	log.Println("Starting mail worker...")

	return w.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		var event models.PaymentMailEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("Failed to unmarshal mail event: %v", err)
			return nil
		}

		if err := w.mailer.SendPaymentMail(&event); err != nil {
			util.MailsSentTotal.WithLabelValues("error").Inc()
			log.Printf("Failed to send mail for tx %s: %v", event.TxRef, err)
			return nil
		}

		util.MailsSentTotal.WithLabelValues("ok").Inc()
		return nil
	})
}

// Stop stops the worker
func (w *MailWorker) Stop() error {
	log.Println("Stopping mail worker...")
	return w.consumer.Close()
}
