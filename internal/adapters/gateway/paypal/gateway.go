// Package paypal is a PaymentGateway adapter for a PayPal-style REST payments
// API with an authorize/capture/void flow. Gateway refusals are translated to
// domain error codes before they cross into the core.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront-commerce-system/internal/core/domain"
)

// Gateway calls the payments API over HTTP. Credentials are sent as basic
// auth on every request.
type Gateway struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewGateway(baseURL, clientID, clientSecret string) *Gateway {
	return &Gateway{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type authorizeRequest struct {
	Amount string `json:"amount"`
}

type authorizeResponse struct {
	AuthorizationCode string `json:"authorization_code"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Authorize places a hold for the amount and returns the authorization code.
func (g *Gateway) Authorize(ctx context.Context, amount decimal.Decimal) (string, error) {
	payload, err := json.Marshal(authorizeRequest{Amount: amount.StringFixed(2)})
	if err != nil {
		return "", fmt.Errorf("failed to encode authorize request: %w", err)
	}

	resp, err := g.post(ctx, "/v1/payments/authorize", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", g.translateError(resp)
	}

	var body authorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", domain.WrapError(domain.ErrCodePaymentGatewayFailure,
			fmt.Errorf("failed to decode authorize response: %w", err))
	}

	return body.AuthorizationCode, nil
}

// Capture finalizes a previously authorized hold.
func (g *Gateway) Capture(ctx context.Context, authorizationCode string) error {
	return g.postAction(ctx, fmt.Sprintf("/v1/payments/%s/capture", authorizationCode))
}

// Void releases a previously authorized hold.
func (g *Gateway) Void(ctx context.Context, authorizationCode string) error {
	return g.postAction(ctx, fmt.Sprintf("/v1/payments/%s/void", authorizationCode))
}

func (g *Gateway) postAction(ctx context.Context, path string) error {
	resp, err := g.post(ctx, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return g.translateError(resp)
	}
	return nil
}

func (g *Gateway) post(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.clientID, g.clientSecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodePaymentGatewayFailure,
			fmt.Errorf("gateway request failed: %w", err))
	}
	return resp, nil
}

// translateError maps a gateway refusal to its domain error code. Unknown
// refusals fall through to the generic gateway failure.
func (g *Gateway) translateError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.NewError(domain.ErrCodePaymentGatewayIdentityFailure)
	}

	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)

	var code domain.ErrorCode
	switch body.Name {
	case "CREDIT_CARD_REFUSED":
		code = domain.ErrCodeCardRefused
	case "EXPIRED_CREDIT_CARD":
		code = domain.ErrCodeCardExpired
	case "CREDIT_CARD_CVV_CHECK_FAILED":
		code = domain.ErrCodeCardCVNCheckFailed
	default:
		code = domain.ErrCodePaymentGatewayFailure
	}

	err := domain.NewError(code).WithDetail("status", resp.Status)
	if body.Message != "" {
		err = err.WithDetail("message", body.Message)
	}
	return err
}
