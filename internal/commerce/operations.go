// Package commerce implements the storefront commerce operations: new offer
// purchase, additional-seat purchase and subscription renewal. Each operation
// validates against the catalog, computes its charge, assembles an ordered
// list of business transaction steps and runs them through the sequential
// runner, rolling back the completed prefix on any non-fatal failure.
package commerce

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-commerce-system/internal/commerce/tx"
	"storefront-commerce-system/internal/core/domain"
	"storefront-commerce-system/internal/core/ports"
)

// Collaborators is the shared set of configured boundary contracts every
// commerce operation depends on. It is built once at process start and passed
// by handle into per-request Operations values.
type Collaborators struct {
	Gateway       ports.PaymentGateway
	Provider      ports.SubscriptionProvider
	Offers        ports.OfferRepository
	Subscriptions ports.SubscriptionRepository
	Purchases     ports.PurchaseRepository
}

// Operations runs commerce transactions on behalf of one customer. Create
// one per request; it owns the transient step objects it assembles.
type Operations struct {
	collab     Collaborators
	customerID string
	logger     *slog.Logger

	// injected for tests
	now   func() time.Time
	newID func() string
}

// NewOperations builds the facade for the given customer.
func NewOperations(collab Collaborators, customerID string, logger *slog.Logger) (*Operations, error) {
	if customerID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalidInput).WithDetail("reason", "customer id must not be empty")
	}

	return &Operations{
		collab:     collab,
		customerID: customerID,
		logger:     logger,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}, nil
}

// Purchase buys one or more catalog offers. Every referenced offer must exist
// and be active. The assembled pipeline is
// authorize → place order → persist subscriptions → capture.
func (o *Operations) Purchase(ctx context.Context, lineItems []domain.PurchaseLineItem) (*domain.TransactionResult, error) {
	if len(lineItems) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalidInput).
			WithDetail("reason", "at least one purchase line item is required")
	}

	itemsWithOffers, err := o.associateWithOffers(ctx, lineItems)
	if err != nil {
		return nil, err
	}

	orderTotal := roundCharge(orderTotalPrice(itemsWithOffers))

	authorize := NewAuthorizePayment(o.collab.Gateway, orderTotal)
	placeOrder := NewPlaceOrder(o.collab.Provider, o.customerID, buildProviderOrder(o.customerID, itemsWithOffers))
	persist := NewPersistNewSubscriptions(
		o.customerID,
		o.collab.Subscriptions,
		o.collab.Purchases,
		placeOrder.Result,
		itemsWithOffers,
		o.newID,
		o.now,
	)
	capture := NewCapturePayment(o.collab.Gateway, authorize.AuthorizationCode)

	if err := o.runPipeline(ctx, authorize, placeOrder, persist, capture); err != nil {
		return nil, err
	}

	persistedLines, _ := persist.Result()
	return domain.NewTransactionResult(orderTotal, persistedLines, o.now().UTC())
}

// PurchaseAdditionalSeats buys extra seats on an existing subscription at a
// prorated rate for the remainder of its lease. The assembled pipeline is
// authorize → purchase extra seats → record purchase → capture.
func (o *Operations) PurchaseAdditionalSeats(ctx context.Context, subscriptionID string, seatsToPurchase int) (*domain.TransactionResult, error) {
	if subscriptionID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalidInput).
			WithDetail("reason", "subscription id must not be empty")
	}
	if seatsToPurchase <= 0 {
		return nil, domain.NewError(domain.ErrCodeInvalidInput).
			WithDetail("reason", "seats to purchase must be positive")
	}

	subscription, err := o.getSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	offer, err := o.collab.Offers.Get(ctx, subscription.OfferID)
	if err != nil {
		return nil, err
	}

	rightNow := o.now().UTC()

	// An expired subscription must be renewed before seats can be added.
	// The comparison is on UTC dates, not instants.
	if beforeDate(subscription.ExpiryDate.UTC(), rightNow) {
		return nil, domain.NewError(domain.ErrCodeSubscriptionExpired).
			WithDetail("subscription_id", subscriptionID)
	}

	proratedSeatCharge := roundCharge(ProratedSeatCharge(subscription.ExpiryDate, offer.Price, rightNow))
	totalCharge := roundCharge(proratedSeatCharge.Mul(decimal.NewFromInt(int64(seatsToPurchase))))

	authorize := NewAuthorizePayment(o.collab.Gateway, totalCharge)
	extraSeats := NewPurchaseExtraSeats(o.collab.Provider, o.customerID, subscriptionID, seatsToPurchase)
	record := NewRecordPurchase(o.collab.Purchases, domain.CustomerPurchase{
		OperationType:   domain.OperationAdditionalSeatsPurchase,
		ID:              o.newID(),
		CustomerID:      o.customerID,
		SubscriptionID:  subscriptionID,
		SeatsBought:     seatsToPurchase,
		PricePerSeat:    proratedSeatCharge,
		TransactionDate: rightNow,
	})
	capture := NewCapturePayment(o.collab.Gateway, authorize.AuthorizationCode)

	if err := o.runPipeline(ctx, authorize, extraSeats, record, capture); err != nil {
		return nil, err
	}

	lineItem := domain.TransactionResultLineItem{
		SubscriptionID: subscriptionID,
		OfferID:        subscription.OfferID,
		Quantity:       seatsToPurchase,
		PricePerSeat:   proratedSeatCharge,
		Total:          proratedSeatCharge.Mul(decimal.NewFromInt(int64(seatsToPurchase))),
	}

	return domain.NewTransactionResult(totalCharge, []domain.TransactionResultLineItem{lineItem}, rightNow)
}

// RenewSubscription renews an existing subscription for another year at the
// offer's current price and quantity. The assembled pipeline is
// authorize → renew with provider → record purchase → extend persisted
// expiry → capture.
func (o *Operations) RenewSubscription(ctx context.Context, subscriptionID string) (*domain.TransactionResult, error) {
	if subscriptionID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalidInput).
			WithDetail("reason", "subscription id must not be empty")
	}

	subscription, err := o.getSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	offer, err := o.collab.Offers.Get(ctx, subscription.OfferID)
	if err != nil {
		return nil, err
	}

	if offer.IsInactive {
		// Renewing retired offers is prohibited, same as purchasing them.
		return nil, domain.NewError(domain.ErrCodePurchaseDeletedOfferNotAllowed).
			WithDetail("id", offer.ID)
	}

	// The provider holds the authoritative seat quantity.
	providerSubscription, err := o.collab.Provider.GetSubscription(ctx, o.customerID, subscriptionID)
	if err != nil {
		return nil, err
	}

	rightNow := o.now().UTC()
	quantity := decimal.NewFromInt(int64(providerSubscription.Quantity))
	totalCharge := roundCharge(offer.Price.Mul(quantity))

	authorize := NewAuthorizePayment(o.collab.Gateway, totalCharge)
	renew := NewRenewSubscription(o.collab.Provider, o.customerID, subscriptionID)
	record := NewRecordPurchase(o.collab.Purchases, domain.CustomerPurchase{
		OperationType:   domain.OperationRenewal,
		ID:              o.newID(),
		CustomerID:      o.customerID,
		SubscriptionID:  subscriptionID,
		SeatsBought:     providerSubscription.Quantity,
		PricePerSeat:    offer.Price,
		TransactionDate: rightNow,
	})
	extendExpiry := NewUpdatePersistedSubscription(o.collab.Subscriptions, domain.CustomerSubscription{
		CustomerID:     o.customerID,
		SubscriptionID: subscriptionID,
		OfferID:        offer.ID,
		ExpiryDate:     subscription.ExpiryDate.AddDate(1, 0, 0),
		Version:        subscription.Version,
	})
	capture := NewCapturePayment(o.collab.Gateway, authorize.AuthorizationCode)

	if err := o.runPipeline(ctx, authorize, renew, record, extendExpiry, capture); err != nil {
		return nil, err
	}

	lineItem := domain.TransactionResultLineItem{
		SubscriptionID: subscriptionID,
		OfferID:        offer.ID,
		Quantity:       providerSubscription.Quantity,
		PricePerSeat:   offer.Price,
		Total:          totalCharge,
	}

	return domain.NewTransactionResult(totalCharge, []domain.TransactionResultLineItem{lineItem}, rightNow)
}

// runPipeline executes the steps as a whole and, on any non-fatal failure,
// rolls back the completed prefix before re-returning the original error.
// Rollback never masks that error. Fatal process errors are panics and
// propagate immediately, skipping rollback.
func (o *Operations) runPipeline(ctx context.Context, steps ...tx.Step) error {
	pipeline := tx.NewSequential(o.logger, steps...)

	if err := pipeline.Execute(ctx); err != nil {
		pipeline.Rollback(ctx)
		return err
	}
	return nil
}

// getSubscription looks up one of the customer's persisted subscriptions.
func (o *Operations) getSubscription(ctx context.Context, subscriptionID string) (domain.CustomerSubscription, error) {
	subscriptions, err := o.collab.Subscriptions.ListForCustomer(ctx, o.customerID)
	if err != nil {
		return domain.CustomerSubscription{}, err
	}

	for _, subscription := range subscriptions {
		if subscription.SubscriptionID == subscriptionID {
			return subscription, nil
		}
	}

	return domain.CustomerSubscription{}, domain.NewError(domain.ErrCodeSubscriptionNotFound).
		WithDetail("subscription_id", subscriptionID)
}

// associateWithOffers binds each purchase line item to the catalog offer it
// requests, rejecting unknown and retired offers before any step executes.
func (o *Operations) associateWithOffers(ctx context.Context, lineItems []domain.PurchaseLineItem) ([]domain.LineItemWithOffer, error) {
	allOffers, err := o.collab.Offers.List(ctx)
	if err != nil {
		return nil, err
	}

	offersByID := make(map[string]domain.Offer, len(allOffers))
	for _, offer := range allOffers {
		offersByID[offer.ID] = offer
	}

	itemsWithOffers := make([]domain.LineItemWithOffer, 0, len(lineItems))

	for _, lineItem := range lineItems {
		offer, found := offersByID[lineItem.OfferID]
		if !found {
			return nil, domain.NewError(domain.ErrCodeOfferNotFound).WithDetail("id", lineItem.OfferID)
		}
		if offer.IsInactive {
			// Purchasing retired offers is prohibited.
			return nil, domain.NewError(domain.ErrCodePurchaseDeletedOfferNotAllowed).WithDetail("id", offer.ID)
		}

		itemsWithOffers = append(itemsWithOffers, domain.LineItemWithOffer{Line: lineItem, Offer: offer})
	}

	return itemsWithOffers, nil
}

// orderTotalPrice sums quantity × price over the line items, unrounded.
func orderTotalPrice(itemsWithOffers []domain.LineItemWithOffer) decimal.Decimal {
	total := decimal.Zero
	for _, item := range itemsWithOffers {
		total = total.Add(item.Offer.Price.Mul(decimal.NewFromInt(int64(item.Line.Quantity))))
	}
	return total
}

// buildProviderOrder translates line items into the provider's order shape,
// preserving submission order via line numbers.
func buildProviderOrder(customerID string, itemsWithOffers []domain.LineItemWithOffer) domain.ProviderOrderRequest {
	lines := make([]domain.ProviderOrderLine, 0, len(itemsWithOffers))
	for i, item := range itemsWithOffers {
		lines = append(lines, domain.ProviderOrderLine{
			ProviderOfferID: item.Offer.ProviderOfferID,
			Quantity:        item.Line.Quantity,
			LineNumber:      i,
		})
	}

	return domain.ProviderOrderRequest{
		ReferenceCustomerID: customerID,
		Lines:               lines,
	}
}

// beforeDate reports whether a falls on an earlier UTC calendar date than b.
func beforeDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
