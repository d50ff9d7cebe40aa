package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-commerce-system/internal/core/domain"
	"storefront-commerce-system/internal/core/ports"
)

const offerCatalogKey = "catalog:offers"

// CachedOfferRepository wraps an OfferRepository with a Redis read-through
// cache for the whole catalog. The catalog is small and read on every
// purchase, so one key holding the full list is enough.
type CachedOfferRepository struct {
	inner  ports.OfferRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedOfferRepository(inner ports.OfferRepository, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedOfferRepository {
	return &CachedOfferRepository{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

// List returns the cached catalog, falling back to the inner repository on a
// miss. Cache failures degrade to the inner repository, never to an error.
func (r *CachedOfferRepository) List(ctx context.Context) ([]domain.Offer, error) {
	cached, err := r.rdb.Get(ctx, offerCatalogKey).Bytes()
	if err == nil {
		var offers []domain.Offer
		if err := json.Unmarshal(cached, &offers); err == nil {
			return offers, nil
		}
		r.logger.Warn("discarding unreadable cached offer catalog", "error", err)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("offer catalog cache read failed", "error", err)
	}

	offers, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(offers); err == nil {
		if err := r.rdb.Set(ctx, offerCatalogKey, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("offer catalog cache write failed", "error", err)
		}
	}

	return offers, nil
}

// Get serves single-offer lookups from the cached catalog.
func (r *CachedOfferRepository) Get(ctx context.Context, offerID string) (domain.Offer, error) {
	offers, err := r.List(ctx)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("failed to load offer catalog: %w", err)
	}

	for _, offer := range offers {
		if offer.ID == offerID {
			return offer, nil
		}
	}

	return domain.Offer{}, domain.NewError(domain.ErrCodeOfferNotFound).WithDetail("id", offerID)
}
