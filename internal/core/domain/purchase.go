package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is our own type for commerce operation kinds to avoid
// "magic strings".
type OperationType string

const (
	OperationNewPurchase             OperationType = "NEW_PURCHASE"
	OperationAdditionalSeatsPurchase OperationType = "ADDITIONAL_SEATS_PURCHASE"
	OperationRenewal                 OperationType = "RENEWAL"
)

// CustomerPurchase is one append-only ledger row recording a completed charge
// event tied to a subscription. Rows are never mutated or deleted; the ledger
// is the audit trail used to reconstruct subscription totals.
type CustomerPurchase struct {
	OperationType   OperationType
	ID              string
	CustomerID      string
	SubscriptionID  string
	SeatsBought     int
	PricePerSeat    decimal.Decimal
	TransactionDate time.Time
}

// PurchaseEvent is the summary published to the message broker after a
// commerce operation completes.
type PurchaseEvent struct {
	OperationType OperationType               `json:"operation_type"`
	CustomerID    string                      `json:"customer_id"`
	AmountCharged decimal.Decimal             `json:"amount_charged"`
	LineItems     []TransactionResultLineItem `json:"line_items"`
	CompletedAt   time.Time                   `json:"completed_at"`
}
