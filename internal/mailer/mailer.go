// Package mailer delivers notification emails over SMTP. Delivery is best
// effort: callers log failures and never retry, so a broken mail relay can not
// block payment reconciliation.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"shop-service/config"
	"shop-service/internal/models"
)

type Mailer struct {
	addr string
	auth smtp.Auth
	from string
}

// New creates an SMTP mailer from config
func New(cfg config.MailConfig) *Mailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &Mailer{
		addr: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

// SendPaymentMail renders and delivers the email for a payment event.
func (m *Mailer) SendPaymentMail(event *models.PaymentMailEvent) error {
	subject, body := renderPaymentMail(event)

	to := event.CustomerEmail
	if to == "" {
		// Invalid payments may carry no customer; alert the shop inbox instead.
		to = m.from
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", m.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg))
}

func renderPaymentMail(event *models.PaymentMailEvent) (subject, body string) {
	name := event.CustomerName
	if name == "" {
		name = "Customer"
	}

	switch event.EventType {
	case models.EventTypePaymentSuccess:
		subject = "Payment successful"
		body = fmt.Sprintf("Hello %s,\n\nYour payment of %s for order %s was successful. We are preparing your items for delivery.",
			name, event.Amount.StringFixed(2), event.TxRef)
	case models.EventTypePaymentFailed:
		subject = "Payment failed"
		reason := "failed"
		if event.Reason == "insufficient" {
			reason = "invalid: the amount paid did not cover the order total"
		}
		body = fmt.Sprintf("Hello %s,\n\nYour payment of %s for order %s was %s. Please contact support if you believe this is a mistake.",
			name, event.Amount.StringFixed(2), event.TxRef, reason)
	case models.EventTypePaymentInvalid:
		subject = "Invalid payment received"
		body = fmt.Sprintf("A payment of %s was received for transaction %s, but no matching order exists.",
			event.Amount.StringFixed(2), event.TxRef)
	default:
		subject = "Payment update"
		body = fmt.Sprintf("Hello %s,\n\nThere is an update on your payment for order %s.", name, event.TxRef)
	}
	return subject, body
}
