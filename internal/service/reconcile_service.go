package service

import (
	"context"
	"fmt"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileOutcome classifies what a webhook delivery did.
type ReconcileOutcome string

const (
	// OutcomeDiscarded means the provider has no record of the transaction.
	OutcomeDiscarded ReconcileOutcome = "discarded"
	// OutcomeUnknownOrder means the payment matched no order.
	OutcomeUnknownOrder ReconcileOutcome = "unknown_order"
	// OutcomeSuccessful means the order was credited.
	OutcomeSuccessful ReconcileOutcome = "successful"
	// OutcomeFailed means the order moved to Failed.
	OutcomeFailed ReconcileOutcome = "failed"
	// OutcomeIgnored means the provider reported an unhandled status.
	OutcomeIgnored ReconcileOutcome = "ignored"
	// OutcomeDuplicate means the order was already in a terminal state.
	OutcomeDuplicate ReconcileOutcome = "duplicate"
)

// ReconcileStore is the persistence surface reconciliation needs.
type ReconcileStore interface {
	GetOrderDetailByTxRef(ctx context.Context, txRef string) (*store.OrderDetail, error)
	TransitionPaymentStatus(ctx context.Context, txRef, status string) (bool, error)
}

// TransactionVerifier fetches authoritative transaction state from the
// payment provider.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, txRef string) (*VerifiedTransaction, error)
}

// MailPublisher hands notification events to the mail pipeline.
type MailPublisher interface {
	PublishPaymentMail(ctx context.Context, event *models.PaymentMailEvent) error
}

// ReconcileService applies asynchronous payment provider state to orders.
// Every outcome is terminal for that delivery: nothing here retries, and
// duplicate deliveries for an already-finalized order change nothing.
type ReconcileService struct {
	store     ReconcileStore
	verifier  TransactionVerifier
	publisher MailPublisher
	logger    *zap.Logger
}

// NewReconcileService creates a new payment reconciliation service
func NewReconcileService(store ReconcileStore, verifier TransactionVerifier, publisher MailPublisher) *ReconcileService {
	return &ReconcileService{
		store:     store,
		verifier:  verifier,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Reconcile processes one webhook delivery for a transaction reference. The
// webhook payload's own status and amount are never trusted; only the
// re-fetched provider state is.
func (rs *ReconcileService) Reconcile(ctx context.Context, txRef string) (ReconcileOutcome, error) {
	ctx, span := util.StartSpan(ctx, "ReconcileService.Reconcile")
	defer span.End()

	verified, err := rs.verifier.VerifyTransaction(ctx, txRef)
	if err != nil {
		return "", fmt.Errorf("failed to verify transaction: %w", err)
	}
	if verified == nil {
		rs.logger.Warn("Discarding webhook for unknown transaction", zap.String("tx_ref", txRef))
		return OutcomeDiscarded, nil
	}

	detail, err := rs.store.GetOrderDetailByTxRef(ctx, txRef)
	if err != nil {
		return "", fmt.Errorf("failed to load order: %w", err)
	}
	if detail == nil {
		rs.logger.Warn("Payment received for non-existent order", zap.String("tx_ref", txRef))
		rs.publishMail(ctx, &models.PaymentMailEvent{
			BaseEvent:     newBaseEvent(models.EventTypePaymentInvalid),
			TxRef:         txRef,
			Amount:        verified.Amount,
			CustomerName:  verified.CustomerName,
			CustomerEmail: verified.CustomerEmail,
		})
		return OutcomeUnknownOrder, nil
	}

	switch verified.Status {
	case ProviderStatusSuccessful:
		if verified.Amount.LessThan(detail.Total) {
			return rs.fail(ctx, detail, verified, "insufficient")
		}
		return rs.succeed(ctx, detail, verified)

	case ProviderStatusFailed:
		return rs.fail(ctx, detail, verified, "declined")

	default:
		// Intermediate provider states are acknowledged but not applied.
		rs.logger.Info("Ignoring webhook with unhandled provider status",
			zap.String("tx_ref", txRef),
			zap.String("status", verified.Status))
		return OutcomeIgnored, nil
	}
}

func (rs *ReconcileService) succeed(ctx context.Context, detail *store.OrderDetail, verified *VerifiedTransaction) (ReconcileOutcome, error) {
	changed, err := rs.store.TransitionPaymentStatus(ctx, detail.Order.TxRef, models.PaymentStatusSuccessful)
	if err != nil {
		return "", fmt.Errorf("failed to transition payment status: %w", err)
	}
	if !changed {
		rs.logger.Info("Order already finalized, skipping", zap.String("tx_ref", detail.Order.TxRef))
		return OutcomeDuplicate, nil
	}

	util.PaymentsSuccessfulTotal.Inc()
	rs.logger.Info("Order payment successful",
		zap.String("tx_ref", detail.Order.TxRef),
		zap.String("amount", verified.Amount.String()))

	rs.publishMail(ctx, &models.PaymentMailEvent{
		BaseEvent:     newBaseEvent(models.EventTypePaymentSuccess),
		TxRef:         detail.Order.TxRef,
		Amount:        verified.Amount,
		CustomerName:  detail.User.Name,
		CustomerEmail: detail.User.Email,
	})
	return OutcomeSuccessful, nil
}

func (rs *ReconcileService) fail(ctx context.Context, detail *store.OrderDetail, verified *VerifiedTransaction, reason string) (ReconcileOutcome, error) {
	changed, err := rs.store.TransitionPaymentStatus(ctx, detail.Order.TxRef, models.PaymentStatusFailed)
	if err != nil {
		return "", fmt.Errorf("failed to transition payment status: %w", err)
	}
	if !changed {
		rs.logger.Info("Order already finalized, skipping", zap.String("tx_ref", detail.Order.TxRef))
		return OutcomeDuplicate, nil
	}

	util.PaymentsFailedTotal.WithLabelValues(reason).Inc()
	rs.logger.Warn("Order payment failed",
		zap.String("tx_ref", detail.Order.TxRef),
		zap.String("reason", reason))

	rs.publishMail(ctx, &models.PaymentMailEvent{
		BaseEvent:     newBaseEvent(models.EventTypePaymentFailed),
		TxRef:         detail.Order.TxRef,
		Amount:        verified.Amount,
		CustomerName:  detail.User.Name,
		CustomerEmail: detail.User.Email,
		Reason:        reason,
	})
	return OutcomeFailed, nil
}

// publishMail hands the event to the broker; the webhook ack never waits on
// or fails because of mail delivery.
func (rs *ReconcileService) publishMail(ctx context.Context, event *models.PaymentMailEvent) {
	if rs.publisher == nil {
		return
	}
	if err := rs.publisher.PublishPaymentMail(ctx, event); err != nil {
		rs.logger.Error("Failed to publish mail event",
			zap.String("tx_ref", event.TxRef),
			zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
