// Package provider is a SubscriptionProvider adapter for the upstream
// provisioning API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront-commerce-system/internal/core/domain"
)

// Client calls the provisioning API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type orderRequest struct {
	ReferenceCustomerID string      `json:"reference_customer_id"`
	Lines               []orderLine `json:"line_items"`
}

type orderLine struct {
	OfferID    string `json:"offer_id"`
	Quantity   int    `json:"quantity"`
	LineNumber int    `json:"line_item_number"`
}

type orderResponse struct {
	OrderID string `json:"id"`
	Lines   []struct {
		LineNumber     int    `json:"line_item_number"`
		OfferID        string `json:"offer_id"`
		SubscriptionID string `json:"subscription_id"`
		Quantity       int    `json:"quantity"`
	} `json:"line_items"`
}

type subscriptionResponse struct {
	ID       string `json:"id"`
	OfferID  string `json:"offer_id"`
	Quantity int    `json:"quantity"`
}

// PlaceOrder submits the order and returns the provisioned result lines.
func (c *Client) PlaceOrder(ctx context.Context, customerID string, order domain.ProviderOrderRequest) (domain.ProviderOrder, error) {
	req := orderRequest{ReferenceCustomerID: order.ReferenceCustomerID}
	for _, line := range order.Lines {
		req.Lines = append(req.Lines, orderLine{
			OfferID:    line.ProviderOfferID,
			Quantity:   line.Quantity,
			LineNumber: line.LineNumber,
		})
	}

	path := fmt.Sprintf("/v1/customers/%s/orders", customerID)
	resp, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return domain.ProviderOrder{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return domain.ProviderOrder{}, c.translateError(resp)
	}

	var body orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.ProviderOrder{}, domain.WrapError(domain.ErrCodeProviderFailure,
			fmt.Errorf("failed to decode order response: %w", err))
	}

	result := domain.ProviderOrder{OrderID: body.OrderID}
	for _, line := range body.Lines {
		result.Lines = append(result.Lines, domain.ProviderOrderResultLine{
			LineNumber:      line.LineNumber,
			ProviderOfferID: line.OfferID,
			SubscriptionID:  line.SubscriptionID,
			Quantity:        line.Quantity,
		})
	}

	return result, nil
}

// GetSubscription fetches the provider's authoritative view of one
// subscription, including its seat quantity.
func (c *Client) GetSubscription(ctx context.Context, customerID, subscriptionID string) (domain.ProviderSubscription, error) {
	path := fmt.Sprintf("/v1/customers/%s/subscriptions/%s", customerID, subscriptionID)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.ProviderSubscription{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ProviderSubscription{}, c.translateError(resp)
	}

	var body subscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.ProviderSubscription{}, domain.WrapError(domain.ErrCodeProviderFailure,
			fmt.Errorf("failed to decode subscription response: %w", err))
	}

	return domain.ProviderSubscription{ID: body.ID, OfferID: body.OfferID, Quantity: body.Quantity}, nil
}

// AddSeats increases the seat quantity on a subscription.
func (c *Client) AddSeats(ctx context.Context, customerID, subscriptionID string, seats int) error {
	path := fmt.Sprintf("/v1/customers/%s/subscriptions/%s/seats", customerID, subscriptionID)
	return c.doAction(ctx, path, map[string]int{"additional_seats": seats})
}

// Renew extends a subscription's term with the provider.
func (c *Client) Renew(ctx context.Context, customerID, subscriptionID string) error {
	path := fmt.Sprintf("/v1/customers/%s/subscriptions/%s/renew", customerID, subscriptionID)
	return c.doAction(ctx, path, nil)
}

func (c *Client) doAction(ctx context.Context, path string, payload any) error {
	resp, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.translateError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode provider request: %w", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeProviderFailure,
			fmt.Errorf("provider request failed: %w", err))
	}
	return resp, nil
}

func (c *Client) translateError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	err := domain.NewError(domain.ErrCodeProviderFailure).WithDetail("status", resp.Status)
	if body.Message != "" {
		err = err.WithDetail("message", body.Message)
	}
	return err
}
