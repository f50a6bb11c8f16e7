package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"shop-service/config"
	"shop-service/internal/util"

	"github.com/shopspring/decimal"
)

// Provider transaction statuses as reported by the verification API.
const (
	ProviderStatusSuccessful = "successful"
	ProviderStatusFailed     = "failed"
)

// VerifiedTransaction is the authoritative transaction state fetched from the
// payment provider. Webhook payloads are never trusted for status or amount.
type VerifiedTransaction struct {
	TxRef         string
	Status        string
	Amount        decimal.Decimal
	CustomerName  string
	CustomerEmail string
}

// ProviderClient calls the payment provider's server-to-server API.
type ProviderClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewProviderClient creates a payment provider client
func NewProviderClient(cfg config.PaymentConfig) *ProviderClient {
	return &ProviderClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type verifyResponse struct {
	Status string `json:"status"`
	Data   *struct {
		TxRef    string          `json:"tx_ref"`
		Status   string          `json:"status"`
		Amount   decimal.Decimal `json:"amount"`
		Customer *struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// VerifyTransaction fetches the authoritative status of a transaction by its
// reference. It returns nil (without error) when the provider has no record of
// the transaction or returns no customer data: such an event is foreign to
// this system and should be discarded, not retried.
func (pc *ProviderClient) VerifyTransaction(ctx context.Context, txRef string) (*VerifiedTransaction, error) {
	start := time.Now()
	defer func() {
		util.ProviderVerifyLatency.Observe(time.Since(start).Seconds())
	}()

	endpoint := fmt.Sprintf("%s/transactions/verify_by_reference?tx_ref=%s",
		pc.baseURL, url.QueryEscape(txRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+pc.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider verification error (%d): %s", resp.StatusCode, string(body))
	}

	var verifyResp verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}

	if verifyResp.Data == nil || verifyResp.Data.Customer == nil {
		return nil, nil
	}

	return &VerifiedTransaction{
		TxRef:         verifyResp.Data.TxRef,
		Status:        verifyResp.Data.Status,
		Amount:        verifyResp.Data.Amount,
		CustomerName:  verifyResp.Data.Customer.Name,
		CustomerEmail: verifyResp.Data.Customer.Email,
	}, nil
}
