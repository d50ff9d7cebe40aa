package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront-commerce-system/internal/commerce"
	"storefront-commerce-system/internal/core/domain"
)

// Mock - implementation of the payment gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Authorize(ctx context.Context, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, amount)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Capture(ctx context.Context, authorizationCode string) error {
	args := m.Called(ctx, authorizationCode)
	return args.Error(0)
}

func (m *MockGateway) Void(ctx context.Context, authorizationCode string) error {
	args := m.Called(ctx, authorizationCode)
	return args.Error(0)
}

// Mock - implementation of the subscription provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) PlaceOrder(ctx context.Context, customerID string, order domain.ProviderOrderRequest) (domain.ProviderOrder, error) {
	args := m.Called(ctx, customerID, order)
	return args.Get(0).(domain.ProviderOrder), args.Error(1)
}

func (m *MockProvider) GetSubscription(ctx context.Context, customerID, subscriptionID string) (domain.ProviderSubscription, error) {
	args := m.Called(ctx, customerID, subscriptionID)
	return args.Get(0).(domain.ProviderSubscription), args.Error(1)
}

func (m *MockProvider) AddSeats(ctx context.Context, customerID, subscriptionID string, seats int) error {
	args := m.Called(ctx, customerID, subscriptionID, seats)
	return args.Error(0)
}

func (m *MockProvider) Renew(ctx context.Context, customerID, subscriptionID string) error {
	args := m.Called(ctx, customerID, subscriptionID)
	return args.Error(0)
}

// Mock - implementation of the offer catalog
type MockOffers struct {
	mock.Mock
}

func (m *MockOffers) List(ctx context.Context) ([]domain.Offer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func (m *MockOffers) Get(ctx context.Context, offerID string) (domain.Offer, error) {
	args := m.Called(ctx, offerID)
	return args.Get(0).(domain.Offer), args.Error(1)
}

// Mock - implementation of the subscription store
type MockSubscriptions struct {
	mock.Mock
}

func (m *MockSubscriptions) ListForCustomer(ctx context.Context, customerID string) ([]domain.CustomerSubscription, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]domain.CustomerSubscription), args.Error(1)
}

func (m *MockSubscriptions) Upsert(ctx context.Context, subscription domain.CustomerSubscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptions) Update(ctx context.Context, subscription domain.CustomerSubscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

// Mock - implementation of the purchase ledger
type MockPurchases struct {
	mock.Mock
}

func (m *MockPurchases) Append(ctx context.Context, purchase domain.CustomerPurchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

// Mock - implementation of the event publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPurchaseCompleted(ctx context.Context, event domain.PurchaseEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newMocks() (*MockGateway, *MockProvider, *MockOffers, *MockSubscriptions, *MockPurchases, *MockPublisher, commerce.Collaborators) {
	gateway := new(MockGateway)
	provider := new(MockProvider)
	offers := new(MockOffers)
	subscriptions := new(MockSubscriptions)
	purchases := new(MockPurchases)
	publisher := new(MockPublisher)

	collab := commerce.Collaborators{
		Gateway:       gateway,
		Provider:      provider,
		Offers:        offers,
		Subscriptions: subscriptions,
		Purchases:     purchases,
	}
	return gateway, provider, offers, subscriptions, purchases, publisher, collab
}

func TestCommerceService_Purchase_PublishesEvent(t *testing.T) {
	// --- Arrange ---
	gateway, provider, offers, subscriptions, purchases, publisher, collab := newMocks()
	service := NewCommerceService(collab, publisher, testLogger())

	ctx := context.Background()
	offers.On("List", mock.Anything).Return([]domain.Offer{{
		ID:              "offer-1",
		Title:           "Cloud Suite",
		Price:           decimal.RequireFromString("10"),
		ProviderOfferID: "provider-offer-1",
	}}, nil)
	gateway.On("Authorize", mock.Anything, mock.Anything).Return("AUTH-1", nil)
	provider.On("PlaceOrder", mock.Anything, "customer-1", mock.Anything).Return(domain.ProviderOrder{
		OrderID: "order-1",
		Lines:   []domain.ProviderOrderResultLine{{LineNumber: 0, SubscriptionID: "sub-1", Quantity: 2}},
	}, nil)
	subscriptions.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	purchases.On("Append", mock.Anything, mock.Anything).Return(nil)
	gateway.On("Capture", mock.Anything, "AUTH-1").Return(nil)

	publisher.On("PublishPurchaseCompleted", mock.Anything, mock.MatchedBy(func(e domain.PurchaseEvent) bool {
		return e.OperationType == domain.OperationNewPurchase &&
			e.CustomerID == "customer-1" &&
			e.AmountCharged.Equal(decimal.RequireFromString("20"))
	})).Return(nil)

	// --- Act ---
	result, err := service.Purchase(ctx, "customer-1", []domain.PurchaseLineItem{{OfferID: "offer-1", Quantity: 2}})

	// --- Assert ---
	assert.NoError(t, err)
	assert.NotNil(t, result)
	publisher.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestCommerceService_Purchase_PublishFailureDoesNotFailOperation(t *testing.T) {
	gateway, provider, offers, subscriptions, purchases, publisher, collab := newMocks()
	service := NewCommerceService(collab, publisher, testLogger())

	offers.On("List", mock.Anything).Return([]domain.Offer{{
		ID:              "offer-1",
		Price:           decimal.RequireFromString("10"),
		ProviderOfferID: "provider-offer-1",
	}}, nil)
	gateway.On("Authorize", mock.Anything, mock.Anything).Return("AUTH-1", nil)
	provider.On("PlaceOrder", mock.Anything, "customer-1", mock.Anything).Return(domain.ProviderOrder{
		OrderID: "order-1",
		Lines:   []domain.ProviderOrderResultLine{{LineNumber: 0, SubscriptionID: "sub-1", Quantity: 1}},
	}, nil)
	subscriptions.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	purchases.On("Append", mock.Anything, mock.Anything).Return(nil)
	gateway.On("Capture", mock.Anything, "AUTH-1").Return(nil)
	publisher.On("PublishPurchaseCompleted", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	result, err := service.Purchase(context.Background(), "customer-1", []domain.PurchaseLineItem{{OfferID: "offer-1", Quantity: 1}})

	// The charge settled, so the operation still succeeds.
	assert.NoError(t, err)
	assert.NotNil(t, result)
}

func TestCommerceService_Purchase_FailureDoesNotPublish(t *testing.T) {
	gateway, _, offers, _, _, publisher, collab := newMocks()
	service := NewCommerceService(collab, publisher, testLogger())

	offers.On("List", mock.Anything).Return([]domain.Offer{}, nil)

	_, err := service.Purchase(context.Background(), "customer-1", []domain.PurchaseLineItem{{OfferID: "offer-missing", Quantity: 1}})

	assert.Error(t, err)
	assert.Equal(t, domain.ErrCodeOfferNotFound, domain.CodeOf(err))
	publisher.AssertNotCalled(t, "PublishPurchaseCompleted", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything)
}

func TestCommerceService_EmptyCustomerID(t *testing.T) {
	_, _, _, _, _, publisher, collab := newMocks()
	service := NewCommerceService(collab, publisher, testLogger())

	_, err := service.Purchase(context.Background(), "", []domain.PurchaseLineItem{{OfferID: "offer-1", Quantity: 1}})

	assert.Error(t, err)
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.CodeOf(err))
}

func TestCommerceService_ListOffers(t *testing.T) {
	_, _, offers, _, _, publisher, collab := newMocks()
	service := NewCommerceService(collab, publisher, testLogger())

	catalog := []domain.Offer{{ID: "offer-1"}, {ID: "offer-2"}}
	offers.On("List", mock.Anything).Return(catalog, nil)

	got, err := service.ListOffers(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, catalog, got)
}
