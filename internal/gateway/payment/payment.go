package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/inkwear/storefront/internal/config"
)

var ErrUnexpectedStatus = errors.New("payment gateway returned unexpected status")

// Client talks to the payment provider's checkout REST API. A short-lived
// bearer token is obtained via the client-credentials grant and cached until
// 80% of its declared lifetime has passed, then refreshed on the next call.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a new payment gateway client.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.PaymentBaseURL, "/"),
		clientID:     cfg.PaymentClientID,
		clientSecret: cfg.PaymentClientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Amount is a money value on the provider wire: a decimal string plus a
// currency code.
type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// FormatCents renders integer cents as the provider's decimal string.
func FormatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// Item is one purchase line sent to the provider.
type Item struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	SKU        string `json:"sku,omitempty"`
	UnitAmount Amount `json:"unit_amount"`
}

// AmountBreakdown splits the order total into item subtotal and shipping.
type AmountBreakdown struct {
	ItemTotal Amount `json:"item_total"`
	Shipping  Amount `json:"shipping"`
}

// PurchaseAmount is the order total with its breakdown.
type PurchaseAmount struct {
	CurrencyCode string          `json:"currency_code"`
	Value        string          `json:"value"`
	Breakdown    AmountBreakdown `json:"breakdown"`
}

// PurchaseUnit groups the amount and items of one checkout.
type PurchaseUnit struct {
	ReferenceID string         `json:"reference_id,omitempty"`
	Amount      PurchaseAmount `json:"amount"`
	Items       []Item         `json:"items,omitempty"`
}

// CreateOrderRequest is the body of POST /v2/checkout/orders.
type CreateOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

// Link is a HATEOAS link returned by the provider.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// Order is the provider's representation of a payment order.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links,omitempty"`
}

// StatusCompleted is the capture status that means funds were taken.
const StatusCompleted = "COMPLETED"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// token returns a cached access token, fetching a fresh one when the cached
// token has passed 80% of its declared lifetime.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("%w: %d fetching token: %s", ErrUnexpectedStatus, resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	// Refresh at 80% of the declared lifetime to stay ahead of clock skew and
	// in-flight requests.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn*8/10) * time.Second)

	slog.Debug("payment token refreshed", "expires_in", tok.ExpiresIn)

	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("%w: %d on %s %s: %s", ErrUnexpectedStatus, resp.StatusCode, method, path, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CreateOrder creates a payment order with intent CAPTURE.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	req.Intent = "CAPTURE"

	var ord Order
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", req, &ord); err != nil {
		return nil, err
	}

	return &ord, nil
}

// CaptureOrder captures an approved payment order. The caller is responsible
// for checking the returned status; only transport errors are surfaced here.
func (c *Client) CaptureOrder(ctx context.Context, providerOrderID string) (*Order, error) {
	var ord Order
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders/"+providerOrderID+"/capture", nil, &ord); err != nil {
		return nil, err
	}

	return &ord, nil
}

// GetOrder fetches a payment order for diagnostics.
func (c *Client) GetOrder(ctx context.Context, providerOrderID string) (*Order, error) {
	var ord Order
	if err := c.do(ctx, http.MethodGet, "/v2/checkout/orders/"+providerOrderID, nil, &ord); err != nil {
		return nil, err
	}

	return &ord, nil
}
