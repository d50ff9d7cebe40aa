package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionResult is the immutable summary of a completed commerce
// operation. It is produced only by a successful pipeline run, never partially
// constructed.
type TransactionResult struct {
	AmountCharged decimal.Decimal             `json:"amount_charged"`
	LineItems     []TransactionResultLineItem `json:"line_items"`
	CompletedAt   time.Time                   `json:"completed_at"`
}

// TransactionResultLineItem summarizes the outcome for one purchased
// subscription.
type TransactionResultLineItem struct {
	SubscriptionID string          `json:"subscription_id"`
	OfferID        string          `json:"offer_id"`
	Quantity       int             `json:"quantity"`
	PricePerSeat   decimal.Decimal `json:"price_per_seat"`
	Total          decimal.Decimal `json:"total"`
}

// NewTransactionResult builds a result record. The line item collection must
// contain at least one entry.
func NewTransactionResult(amountCharged decimal.Decimal, lineItems []TransactionResultLineItem, completedAt time.Time) (*TransactionResult, error) {
	if len(lineItems) == 0 {
		return nil, NewError(ErrCodeInvalidInput).WithDetail("reason", "transaction result requires at least one line item")
	}

	return &TransactionResult{
		AmountCharged: amountCharged,
		LineItems:     lineItems,
		CompletedAt:   completedAt,
	}, nil
}
