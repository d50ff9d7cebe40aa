package commerce

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront-commerce-system/internal/commerce/tx"
	"storefront-commerce-system/internal/core/domain"
	"storefront-commerce-system/internal/core/ports"
)

// AuthorizePayment places a hold for the order total with the payment
// gateway. Its output, the authorization code, is published through a slot so
// the capture step can read it at execute time.
type AuthorizePayment struct {
	gateway ports.PaymentGateway
	amount  decimal.Decimal
	auth    tx.Slot[string]
}

// NewAuthorizePayment builds the step. The amount must be positive; that is
// checked at execute time so a bad total fails the pipeline before any money
// moves.
func NewAuthorizePayment(gateway ports.PaymentGateway, amount decimal.Decimal) *AuthorizePayment {
	return &AuthorizePayment{gateway: gateway, amount: amount}
}

func (s *AuthorizePayment) Name() string { return "authorize-payment" }

// AuthorizationCode is the deferred accessor later steps use to observe the
// authorization result at the moment they run.
func (s *AuthorizePayment) AuthorizationCode() (string, bool) {
	return s.auth.Get()
}

func (s *AuthorizePayment) Execute(ctx context.Context) error {
	if !s.amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	code, err := s.gateway.Authorize(ctx, s.amount)
	if err != nil {
		return err
	}

	s.auth.Set(code)
	return nil
}

// Rollback voids the hold if one was placed. The slot is cleared either way
// so no later read can observe a dead authorization code; a failed void
// surfaces as a (swallowed, logged) rollback error.
func (s *AuthorizePayment) Rollback(ctx context.Context) error {
	code, ok := s.auth.Get()
	if !ok {
		return nil
	}

	s.auth.Clear()

	if err := s.gateway.Void(ctx, code); err != nil {
		return fmt.Errorf("voiding authorization %s: %w", code, err)
	}
	return nil
}

// CapturePayment finalizes a previously authorized hold. It must be the last
// step of a pipeline: capture is terminal once settled, so there is no
// rollback.
type CapturePayment struct {
	gateway  ports.PaymentGateway
	authCode func() (string, bool)
}

// NewCapturePayment builds the step. authCode is a deferred accessor to the
// authorize step's result, evaluated only when this step executes.
func NewCapturePayment(gateway ports.PaymentGateway, authCode func() (string, bool)) *CapturePayment {
	return &CapturePayment{gateway: gateway, authCode: authCode}
}

func (s *CapturePayment) Name() string { return "capture-payment" }

func (s *CapturePayment) Execute(ctx context.Context) error {
	code, ok := s.authCode()
	if !ok {
		return domain.NewError(domain.ErrCodePaymentGatewayFailure).
			WithDetail("reason", "no authorization code available to capture")
	}
	return s.gateway.Capture(ctx, code)
}

func (s *CapturePayment) Rollback(_ context.Context) error {
	return nil
}

// PlaceOrder submits the line items to the subscription provider and records
// the provider order, including the per-line subscription identifiers, in its
// result slot.
type PlaceOrder struct {
	provider   ports.SubscriptionProvider
	customerID string
	order      domain.ProviderOrderRequest
	result     tx.Slot[domain.ProviderOrder]
}

func NewPlaceOrder(provider ports.SubscriptionProvider, customerID string, order domain.ProviderOrderRequest) *PlaceOrder {
	return &PlaceOrder{provider: provider, customerID: customerID, order: order}
}

func (s *PlaceOrder) Name() string { return "place-order" }

// Result is the deferred accessor to the placed provider order.
func (s *PlaceOrder) Result() (domain.ProviderOrder, bool) {
	return s.result.Get()
}

func (s *PlaceOrder) Execute(ctx context.Context) error {
	placed, err := s.provider.PlaceOrder(ctx, s.customerID, s.order)
	if err != nil {
		return err
	}

	s.result.Set(placed)
	return nil
}

// Rollback has no compensating action: the provider exposes no cancel-order
// API. The returned error lands in the rollback log so operators can
// reconcile the orphaned order manually.
func (s *PlaceOrder) Rollback(_ context.Context) error {
	order, ok := s.result.Get()
	if !ok {
		return nil
	}
	return fmt.Errorf("provider order %s cannot be canceled upstream, manual reconciliation required", order.OrderID)
}

// PersistNewSubscriptions writes the subscription rows and ledger entries for
// a completed provider order. The order is read through a deferred accessor
// so the step observes the value present at execution time, not at
// construction time.
type PersistNewSubscriptions struct {
	customerID    string
	subscriptions ports.SubscriptionRepository
	purchases     ports.PurchaseRepository
	orderSource   func() (domain.ProviderOrder, bool)
	lineItems     []domain.LineItemWithOffer
	newID         func() string
	now           func() time.Time
	result        tx.Slot[[]domain.TransactionResultLineItem]
}

func NewPersistNewSubscriptions(
	customerID string,
	subscriptions ports.SubscriptionRepository,
	purchases ports.PurchaseRepository,
	orderSource func() (domain.ProviderOrder, bool),
	lineItems []domain.LineItemWithOffer,
	newID func() string,
	now func() time.Time,
) *PersistNewSubscriptions {
	return &PersistNewSubscriptions{
		customerID:    customerID,
		subscriptions: subscriptions,
		purchases:     purchases,
		orderSource:   orderSource,
		lineItems:     lineItems,
		newID:         newID,
		now:           now,
	}
}

func (s *PersistNewSubscriptions) Name() string { return "persist-new-subscriptions" }

// Result is the persisted line item summary, available after execution.
func (s *PersistNewSubscriptions) Result() ([]domain.TransactionResultLineItem, bool) {
	return s.result.Get()
}

func (s *PersistNewSubscriptions) Execute(ctx context.Context) error {
	order, ok := s.orderSource()
	if !ok {
		return domain.NewError(domain.ErrCodeServerError).
			WithDetail("reason", "no provider order available to persist")
	}

	rightNow := s.now().UTC()
	expiry := rightNow.AddDate(1, 0, 0)

	resultLines := make([]domain.TransactionResultLineItem, 0, len(s.lineItems))

	for i, item := range s.lineItems {
		orderLine, err := order.LineByNumber(i)
		if err != nil {
			return err
		}

		err = s.subscriptions.Upsert(ctx, domain.CustomerSubscription{
			CustomerID:     s.customerID,
			SubscriptionID: orderLine.SubscriptionID,
			OfferID:        item.Offer.ID,
			ExpiryDate:     expiry,
		})
		if err != nil {
			return err
		}

		err = s.purchases.Append(ctx, domain.CustomerPurchase{
			OperationType:   domain.OperationNewPurchase,
			ID:              s.newID(),
			CustomerID:      s.customerID,
			SubscriptionID:  orderLine.SubscriptionID,
			SeatsBought:     item.Line.Quantity,
			PricePerSeat:    item.Offer.Price,
			TransactionDate: rightNow,
		})
		if err != nil {
			return err
		}

		quantity := decimal.NewFromInt(int64(item.Line.Quantity))
		resultLines = append(resultLines, domain.TransactionResultLineItem{
			SubscriptionID: orderLine.SubscriptionID,
			OfferID:        item.Offer.ID,
			Quantity:       item.Line.Quantity,
			PricePerSeat:   item.Offer.Price,
			Total:          item.Offer.Price.Mul(quantity),
		})
	}

	s.result.Set(resultLines)
	return nil
}

// Rollback is a no-op: the ledger is append-only by design and the
// subscription rows are reconciled from it.
func (s *PersistNewSubscriptions) Rollback(_ context.Context) error {
	return nil
}

// RecordPurchase appends a single entry to the purchase ledger. Used by the
// seat-addition and renewal flows.
type RecordPurchase struct {
	purchases ports.PurchaseRepository
	entry     domain.CustomerPurchase
}

func NewRecordPurchase(purchases ports.PurchaseRepository, entry domain.CustomerPurchase) *RecordPurchase {
	return &RecordPurchase{purchases: purchases, entry: entry}
}

func (s *RecordPurchase) Name() string { return "record-purchase" }

func (s *RecordPurchase) Execute(ctx context.Context) error {
	return s.purchases.Append(ctx, s.entry)
}

// Rollback is a no-op: the ledger is append-only by design.
func (s *RecordPurchase) Rollback(_ context.Context) error {
	return nil
}

// UpdatePersistedSubscription stores the new expiry for an existing
// subscription record. Used by renewal.
type UpdatePersistedSubscription struct {
	subscriptions ports.SubscriptionRepository
	subscription  domain.CustomerSubscription
}

func NewUpdatePersistedSubscription(subscriptions ports.SubscriptionRepository, subscription domain.CustomerSubscription) *UpdatePersistedSubscription {
	return &UpdatePersistedSubscription{subscriptions: subscriptions, subscription: subscription}
}

func (s *UpdatePersistedSubscription) Name() string { return "update-persisted-subscription" }

func (s *UpdatePersistedSubscription) Execute(ctx context.Context) error {
	return s.subscriptions.Update(ctx, s.subscription)
}

func (s *UpdatePersistedSubscription) Rollback(_ context.Context) error {
	return nil
}

// PurchaseExtraSeats increases the seat quantity of a provider subscription.
type PurchaseExtraSeats struct {
	provider       ports.SubscriptionProvider
	customerID     string
	subscriptionID string
	seats          int
}

func NewPurchaseExtraSeats(provider ports.SubscriptionProvider, customerID, subscriptionID string, seats int) *PurchaseExtraSeats {
	return &PurchaseExtraSeats{
		provider:       provider,
		customerID:     customerID,
		subscriptionID: subscriptionID,
		seats:          seats,
	}
}

func (s *PurchaseExtraSeats) Name() string { return "purchase-extra-seats" }

func (s *PurchaseExtraSeats) Execute(ctx context.Context) error {
	return s.provider.AddSeats(ctx, s.customerID, s.subscriptionID, s.seats)
}

func (s *PurchaseExtraSeats) Rollback(_ context.Context) error {
	return nil
}

// RenewSubscription extends the term of a provider subscription.
type RenewSubscription struct {
	provider       ports.SubscriptionProvider
	customerID     string
	subscriptionID string
}

func NewRenewSubscription(provider ports.SubscriptionProvider, customerID, subscriptionID string) *RenewSubscription {
	return &RenewSubscription{provider: provider, customerID: customerID, subscriptionID: subscriptionID}
}

func (s *RenewSubscription) Name() string { return "renew-subscription" }

func (s *RenewSubscription) Execute(ctx context.Context) error {
	return s.provider.Renew(ctx, s.customerID, s.subscriptionID)
}

func (s *RenewSubscription) Rollback(_ context.Context) error {
	return nil
}
