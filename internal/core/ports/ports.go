package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront-commerce-system/internal/core/domain"
)

// PaymentGateway is an outgoing port to the payment processor. All three
// calls may fail with gateway-specific errors; adapters translate those to
// the domain error codes before they cross into the core.
type PaymentGateway interface {
	// Authorize places a hold for the amount and returns an authorization code.
	Authorize(ctx context.Context, amount decimal.Decimal) (string, error)
	// Capture finalizes a previously authorized hold.
	Capture(ctx context.Context, authorizationCode string) error
	// Void releases a previously authorized hold.
	Void(ctx context.Context, authorizationCode string) error
}

// SubscriptionProvider is an outgoing port to the upstream provisioning API.
type SubscriptionProvider interface {
	PlaceOrder(ctx context.Context, customerID string, order domain.ProviderOrderRequest) (domain.ProviderOrder, error)
	GetSubscription(ctx context.Context, customerID, subscriptionID string) (domain.ProviderSubscription, error)
	AddSeats(ctx context.Context, customerID, subscriptionID string, seats int) error
	Renew(ctx context.Context, customerID, subscriptionID string) error
}

// OfferRepository is an outgoing port to the offer catalog. Implementations
// may serve reads from a cache; the catalog is read-only during a commerce
// operation.
type OfferRepository interface {
	List(ctx context.Context) ([]domain.Offer, error)
	Get(ctx context.Context, offerID string) (domain.Offer, error)
}

// SubscriptionRepository persists customer subscription records.
type SubscriptionRepository interface {
	ListForCustomer(ctx context.Context, customerID string) ([]domain.CustomerSubscription, error)
	Upsert(ctx context.Context, subscription domain.CustomerSubscription) error
	// Update extends an existing record and compares-and-swaps on its version,
	// returning domain.ErrConflict when the row moved underneath us.
	Update(ctx context.Context, subscription domain.CustomerSubscription) error
}

// PurchaseRepository appends to the purchase ledger. The ledger is append-only;
// there is no update or delete.
type PurchaseRepository interface {
	Append(ctx context.Context, purchase domain.CustomerPurchase) error
}

// EventPublisher is an outgoing port for announcing completed commerce
// operations.
type EventPublisher interface {
	PublishPurchaseCompleted(ctx context.Context, event domain.PurchaseEvent) error
}

// RateLimiterRepository is an outgoing port for request throttling state.
type RateLimiterRepository interface {
	IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// CommerceService is the incoming port that defines how the outside world
// runs commerce operations against the kernel.
type CommerceService interface {
	Purchase(ctx context.Context, customerID string, lineItems []domain.PurchaseLineItem) (*domain.TransactionResult, error)
	PurchaseAdditionalSeats(ctx context.Context, customerID, subscriptionID string, seatsToPurchase int) (*domain.TransactionResult, error)
	RenewSubscription(ctx context.Context, customerID, subscriptionID string) (*domain.TransactionResult, error)
	ListOffers(ctx context.Context) ([]domain.Offer, error)
}
