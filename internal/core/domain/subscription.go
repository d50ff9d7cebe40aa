package domain

import (
	"fmt"
	"time"
)

// CustomerSubscription is the persisted record of a customer's entitlement to
// an offer. Created on first purchase, its expiry is extended on renewal. It
// is never deleted here; retiring an offer is modeled via Offer.IsInactive.
//
// Version is an optimistic concurrency token. Updates compare-and-swap on it;
// a stale version surfaces as ErrConflict.
type CustomerSubscription struct {
	CustomerID     string
	SubscriptionID string
	OfferID        string
	ExpiryDate     time.Time
	Version        int64
}

// ProviderSubscription is the provider-side view of a subscription: the
// authoritative seat quantity lives there, not in our store.
type ProviderSubscription struct {
	ID       string
	OfferID  string
	Quantity int
}

// ProviderOrderRequest is the order submitted to the subscription provider.
type ProviderOrderRequest struct {
	ReferenceCustomerID string
	Lines               []ProviderOrderLine
}

// ProviderOrderLine is one line of a provider order. LineNumber preserves the
// submission order so result lines can be matched back.
type ProviderOrderLine struct {
	ProviderOfferID string
	Quantity        int
	LineNumber      int
}

// ProviderOrder is the provider's response to a placed order, carrying the
// provisioned subscription identifiers per line.
type ProviderOrder struct {
	OrderID string
	Lines   []ProviderOrderResultLine
}

// LineByNumber finds the result line matching a submitted line number.
func (o ProviderOrder) LineByNumber(lineNumber int) (ProviderOrderResultLine, error) {
	for _, line := range o.Lines {
		if line.LineNumber == lineNumber {
			return line, nil
		}
	}
	return ProviderOrderResultLine{}, NewError(ErrCodeProviderFailure).
		WithDetail("reason", fmt.Sprintf("provider order %s is missing line %d", o.OrderID, lineNumber))
}

// ProviderOrderResultLine reports the subscription the provider created for
// one order line.
type ProviderOrderResultLine struct {
	LineNumber      int
	ProviderOfferID string
	SubscriptionID  string
	Quantity        int
}
