package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inkwear/storefront/internal/config"
)

var ErrUnexpectedStatus = errors.New("fulfillment gateway returned unexpected status")

// Client is a thin typed wrapper over the print-on-demand provider's REST API.
// Every call carries the store API key as a bearer token.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new fulfillment gateway client.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.FulfillmentBaseURL, "/"),
		apiKey:     cfg.FulfillmentAPIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Recipient is the shipping destination of a fulfillment order.
type Recipient struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// OrderItem is one line of a fulfillment order, keyed by the provider's
// variant id.
type OrderItem struct {
	ExternalID  string `json:"external_id,omitempty"`
	VariantID   int64  `json:"variant_id"`
	Quantity    int    `json:"quantity"`
	RetailPrice string `json:"retail_price,omitempty"`
	Name        string `json:"name,omitempty"`
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	ExternalID string      `json:"external_id"`
	Recipient  Recipient   `json:"recipient"`
	Items      []OrderItem `json:"items"`
}

// Order is the provider's representation of a fulfillment order.
type Order struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// ProductSummary is one entry of the store product enumeration.
type ProductSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url"`
	VariantCount int    `json:"variants"`
}

// Variant is the full detail of one sync variant.
type Variant struct {
	ID            int64  `json:"id"`
	SyncProductID int64  `json:"sync_product_id"`
	Name          string `json:"name"`
	RetailPrice   string `json:"retail_price"`
	SKU           string `json:"sku,omitempty"`
	Size          string `json:"size,omitempty"`
	Color         string `json:"color,omitempty"`
	PreviewURL    string `json:"preview_url,omitempty"`
	InStock       bool   `json:"in_stock"`
}

// ProductDetail is the response of GET /store/products/{id}.
type ProductDetail struct {
	Product  ProductSummary `json:"sync_product"`
	Variants []Variant      `json:"sync_variants"`
}

// ShippingRate is one quoted shipping option.
type ShippingRate struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Rate            string `json:"rate"`
	Currency        string `json:"currency"`
	MinDeliveryDays int    `json:"minDeliveryDays"`
	MaxDeliveryDays int    `json:"maxDeliveryDays"`
}

// ShippingRatesRequest is the body of POST /shipping/rates.
type ShippingRatesRequest struct {
	Recipient Recipient   `json:"recipient"`
	Items     []OrderItem `json:"items"`
}

// envelope is the provider's uniform {code, result, paging} response wrapper.
type envelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Paging *paging         `json:"paging,omitempty"`
}

type paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) (*paging, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fulfillment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf("%w: %d on %s %s: %s", ErrUnexpectedStatus, resp.StatusCode, method, path, respBody)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
	}

	return env.Paging, nil
}

// CreateOrder creates a fulfillment order. When confirm is true the order is
// submitted for production immediately; otherwise it stays a reviewable draft.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, confirm bool) (*Order, error) {
	path := "/orders?confirm=" + strconv.FormatBool(confirm)

	var ord Order
	if _, err := c.do(ctx, http.MethodPost, path, req, &ord); err != nil {
		return nil, err
	}

	return &ord, nil
}

// ConfirmOrder submits a previously created draft order for production.
func (c *Client) ConfirmOrder(ctx context.Context, providerOrderID int64) (*Order, error) {
	var ord Order
	if _, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/confirm", providerOrderID), nil, &ord); err != nil {
		return nil, err
	}

	return &ord, nil
}

// GetShippingRates quotes shipping options for a destination and item set.
func (c *Client) GetShippingRates(ctx context.Context, req ShippingRatesRequest) ([]ShippingRate, error) {
	var rates []ShippingRate
	if _, err := c.do(ctx, http.MethodPost, "/shipping/rates", req, &rates); err != nil {
		return nil, err
	}

	return rates, nil
}

// ListProducts enumerates all store products, following the provider's
// offset/limit paging until the reported total is reached.
func (c *Client) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	const pageSize = 100

	var all []ProductSummary
	offset := 0
	for {
		var page []ProductSummary
		pg, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/store/products?offset=%d&limit=%d", offset, pageSize), nil, &page)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if pg == nil || len(page) == 0 || len(all) >= pg.Total {
			break
		}
		offset += len(page)
	}

	return all, nil
}

// GetProduct fetches full variant detail for one store product.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*ProductDetail, error) {
	var detail ProductDetail
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/store/products/%d", productID), nil, &detail); err != nil {
		return nil, err
	}

	return &detail, nil
}
