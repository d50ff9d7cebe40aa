package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-commerce-system/internal/core/domain"
)

// SubscriptionRepository is an implementation of the SubscriptionRepository
// port for PostgreSQL.
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// ListForCustomer returns all subscriptions owned by the customer.
func (r *SubscriptionRepository) ListForCustomer(ctx context.Context, customerID string) ([]domain.CustomerSubscription, error) {
	const sql = `
		SELECT customer_id, subscription_id, offer_id, expiry_date, version
		FROM customer_subscriptions
		WHERE customer_id = $1
		ORDER BY subscription_id
	`
	rows, err := r.pool.Query(ctx, sql, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []domain.CustomerSubscription
	for rows.Next() {
		var s domain.CustomerSubscription
		if err := rows.Scan(&s.CustomerID, &s.SubscriptionID, &s.OfferID, &s.ExpiryDate, &s.Version); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		subscriptions = append(subscriptions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subscription rows: %w", err)
	}

	return subscriptions, nil
}

// Upsert inserts a new subscription row or replaces an existing one for the
// same customer and subscription id, bumping its version.
func (r *SubscriptionRepository) Upsert(ctx context.Context, subscription domain.CustomerSubscription) error {
	const sql = `
		INSERT INTO customer_subscriptions
		    (customer_id, subscription_id, offer_id, expiry_date, version)
		VALUES
		    ($1, $2, $3, $4, 1)
		ON CONFLICT (customer_id, subscription_id) DO UPDATE SET
		    offer_id = EXCLUDED.offer_id,
		    expiry_date = EXCLUDED.expiry_date,
		    version = customer_subscriptions.version + 1
	`
	_, err := r.pool.Exec(ctx, sql,
		subscription.CustomerID,
		subscription.SubscriptionID,
		subscription.OfferID,
		subscription.ExpiryDate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription %s: %w", subscription.SubscriptionID, err)
	}

	return nil
}

// Update rewrites an existing row with a compare-and-swap on its version.
// A concurrent writer makes the swap miss, which surfaces as ErrConflict.
func (r *SubscriptionRepository) Update(ctx context.Context, subscription domain.CustomerSubscription) error {
	const sql = `
		UPDATE customer_subscriptions
		SET offer_id = $3, expiry_date = $4, version = version + 1
		WHERE customer_id = $1 AND subscription_id = $2 AND version = $5
	`
	tag, err := r.pool.Exec(ctx, sql,
		subscription.CustomerID,
		subscription.SubscriptionID,
		subscription.OfferID,
		subscription.ExpiryDate,
		subscription.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", subscription.SubscriptionID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.WrapError(domain.ErrCodeConflict, domain.ErrConflict).
			WithDetail("subscription_id", subscription.SubscriptionID)
	}

	return nil
}
