package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dealbase/backend/internal/config"
)

// Provider is the payment processor client. It owns subscription checkout,
// cancellation and payout transfers; subscription state changes come back
// through webhooks.
type Provider interface {
	CreateCheckoutSession(req CheckoutRequest) (*CheckoutSession, error)
	CancelSubscription(providerSubscriptionID string, atPeriodEnd bool) error
	CreateTransfer(req TransferRequest) (*TransferResult, error)
}

// CheckoutRequest represents a request to start a subscription checkout
type CheckoutRequest struct {
	CustomerEmail string            `json:"customer_email"`
	PriceID       string            `json:"price_id"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata"`
}

// CheckoutSession represents a provider-hosted checkout session
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// TransferRequest represents a payout transfer to an affiliate
type TransferRequest struct {
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	Destination string            `json:"destination"`
	Metadata    map[string]string `json:"metadata"`
}

// TransferResult represents the provider's response to a transfer
type TransferResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HTTPProvider implements Provider against the processor's REST API
type HTTPProvider struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewHTTPProvider creates a provider client from billing configuration
func NewHTTPProvider(cfg config.BillingConfig) *HTTPProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}

	return &HTTPProvider{
		secretKey: cfg.SecretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateCheckoutSession starts a hosted checkout for a subscription
func (p *HTTPProvider) CreateCheckoutSession(req CheckoutRequest) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := p.post("/checkout/sessions", req, &session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &session, nil
}

// CancelSubscription cancels a subscription, optionally at period end
func (p *HTTPProvider) CancelSubscription(providerSubscriptionID string, atPeriodEnd bool) error {
	body := map[string]interface{}{"cancel_at_period_end": atPeriodEnd}
	path := fmt.Sprintf("/subscriptions/%s", providerSubscriptionID)
	if err := p.post(path, body, nil); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}

// CreateTransfer moves payout funds to an affiliate's connected account
func (p *HTTPProvider) CreateTransfer(req TransferRequest) (*TransferResult, error) {
	var result TransferResult
	if err := p.post("/transfers", req, &result); err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}
	return &result, nil
}

// post sends an authenticated JSON request and decodes the response into out
func (p *HTTPProvider) post(path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest(http.MethodPost, p.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
