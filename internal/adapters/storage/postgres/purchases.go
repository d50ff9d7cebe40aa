package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-commerce-system/internal/core/domain"
)

// PurchaseRepository is an implementation of the PurchaseRepository port for
// PostgreSQL. The table is an append-only ledger.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Append records one completed charge event. Re-inserting the same purchase
// id is a no-op so retried pipelines do not duplicate ledger rows.
func (r *PurchaseRepository) Append(ctx context.Context, purchase domain.CustomerPurchase) error {
	const sql = `
		INSERT INTO customer_purchases
		    (id, operation_type, customer_id, subscription_id, seats_bought, price_per_seat, transaction_date)
		VALUES
		    ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, sql,
		purchase.ID,
		purchase.OperationType,
		purchase.CustomerID,
		purchase.SubscriptionID,
		purchase.SeatsBought,
		purchase.PricePerSeat,
		purchase.TransactionDate,
	)
	if err != nil {
		return fmt.Errorf("failed to append purchase %s: %w", purchase.ID, err)
	}

	return nil
}
