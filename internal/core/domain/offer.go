package domain

import (
	"github.com/shopspring/decimal"
)

// Offer is a catalog-level sellable item. Price is the yearly rate per seat.
// ProviderOfferID links the offer to its counterpart in the subscription
// provider's own catalog.
type Offer struct {
	ID              string
	Title           string
	Price           decimal.Decimal
	ProviderOfferID string
	IsInactive      bool
}

// PurchaseLineItem is a requested offer-id + quantity pair as submitted by a
// customer. It is transient; it gets enriched into a LineItemWithOffer once
// the catalog lookup has run.
type PurchaseLineItem struct {
	OfferID  string `json:"offer_id"`
	Quantity int    `json:"quantity"`
}

// LineItemWithOffer is a purchase line item bound to the resolved catalog
// offer.
type LineItemWithOffer struct {
	Line  PurchaseLineItem
	Offer Offer
}
