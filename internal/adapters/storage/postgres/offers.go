package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-commerce-system/internal/core/domain"
)

// OfferRepository is an implementation of the OfferRepository port for
// PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
}

func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// List returns the whole catalog, retired offers included. Filtering retired
// offers is a purchase-time decision, not a storage one.
func (r *OfferRepository) List(ctx context.Context) ([]domain.Offer, error) {
	const sql = `
		SELECT id, title, price, provider_offer_id, is_inactive
		FROM offers
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var offer domain.Offer
		if err := rows.Scan(&offer.ID, &offer.Title, &offer.Price, &offer.ProviderOfferID, &offer.IsInactive); err != nil {
			return nil, fmt.Errorf("failed to scan offer row: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read offer rows: %w", err)
	}

	return offers, nil
}

// Get returns one catalog offer by id.
func (r *OfferRepository) Get(ctx context.Context, offerID string) (domain.Offer, error) {
	const sql = `
		SELECT id, title, price, provider_offer_id, is_inactive
		FROM offers
		WHERE id = $1
	`
	var offer domain.Offer
	err := r.pool.QueryRow(ctx, sql, offerID).
		Scan(&offer.ID, &offer.Title, &offer.Price, &offer.ProviderOfferID, &offer.IsInactive)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Offer{}, domain.NewError(domain.ErrCodeOfferNotFound).WithDetail("id", offerID)
	}
	if err != nil {
		return domain.Offer{}, fmt.Errorf("failed to get offer %s: %w", offerID, err)
	}

	return offer, nil
}
