package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront-commerce-system/internal/core/domain"
)

// Mock - implementation of the commerce service
type MockCommerceService struct {
	mock.Mock
}

func (m *MockCommerceService) Purchase(ctx context.Context, customerID string, lineItems []domain.PurchaseLineItem) (*domain.TransactionResult, error) {
	args := m.Called(ctx, customerID, lineItems)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionResult), args.Error(1)
}

func (m *MockCommerceService) PurchaseAdditionalSeats(ctx context.Context, customerID, subscriptionID string, seatsToPurchase int) (*domain.TransactionResult, error) {
	args := m.Called(ctx, customerID, subscriptionID, seatsToPurchase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionResult), args.Error(1)
}

func (m *MockCommerceService) RenewSubscription(ctx context.Context, customerID, subscriptionID string) (*domain.TransactionResult, error) {
	args := m.Called(ctx, customerID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionResult), args.Error(1)
}

func (m *MockCommerceService) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func newTestRouter(service *MockCommerceService) *chi.Mux {
	handler := NewCommerceHandler(service, slog.New(slog.DiscardHandler))

	router := chi.NewRouter()
	router.Post("/api/v1/purchases", handler.HandlePurchase)
	router.Post("/api/v1/subscriptions/{subscriptionID}/seats", handler.HandlePurchaseAdditionalSeats)
	router.Post("/api/v1/subscriptions/{subscriptionID}/renew", handler.HandleRenewSubscription)
	router.Get("/api/v1/offers", handler.HandleListOffers)
	return router
}

func TestHandlePurchase_Success(t *testing.T) {
	service := new(MockCommerceService)
	router := newTestRouter(service)

	result := &domain.TransactionResult{
		AmountCharged: decimal.RequireFromString("30.00"),
		LineItems:     []domain.TransactionResultLineItem{{SubscriptionID: "sub-1", Quantity: 3}},
		CompletedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	service.On("Purchase", mock.Anything, "customer-1", []domain.PurchaseLineItem{{OfferID: "offer-1", Quantity: 3}}).
		Return(result, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases",
		strings.NewReader(`{"line_items":[{"offer_id":"offer-1","quantity":3}]}`))
	req.Header.Set("X-Customer-ID", "customer-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount_charged":"30.00"`)
	service.AssertExpectations(t)
}

func TestHandlePurchase_MissingCustomerHeader(t *testing.T) {
	service := new(MockCommerceService)
	router := newTestRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleRenewSubscription_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown subscription", domain.NewError(domain.ErrCodeSubscriptionNotFound), http.StatusNotFound},
		{"retired offer", domain.NewError(domain.ErrCodePurchaseDeletedOfferNotAllowed), http.StatusUnprocessableEntity},
		{"card refused", domain.NewError(domain.ErrCodeCardRefused), http.StatusPaymentRequired},
		{"concurrent update", domain.NewError(domain.ErrCodeConflict), http.StatusConflict},
		{"provider outage", domain.NewError(domain.ErrCodeProviderFailure), http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service := new(MockCommerceService)
			router := newTestRouter(service)
			service.On("RenewSubscription", mock.Anything, "customer-1", "sub-1").Return(nil, tc.err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/sub-1/renew", nil)
			req.Header.Set("X-Customer-ID", "customer-1")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestHandlePurchaseAdditionalSeats_Success(t *testing.T) {
	service := new(MockCommerceService)
	router := newTestRouter(service)

	result := &domain.TransactionResult{
		AmountCharged: decimal.RequireFromString("200.00"),
		LineItems:     []domain.TransactionResultLineItem{{SubscriptionID: "sub-1", Quantity: 2}},
		CompletedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	service.On("PurchaseAdditionalSeats", mock.Anything, "customer-1", "sub-1", 2).Return(result, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/sub-1/seats", strings.NewReader(`{"seats":2}`))
	req.Header.Set("X-Customer-ID", "customer-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestHandleListOffers(t *testing.T) {
	service := new(MockCommerceService)
	router := newTestRouter(service)

	service.On("ListOffers", mock.Anything).Return([]domain.Offer{{ID: "offer-1", Title: "Cloud Suite"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cloud Suite")
}
