package app

import (
	"context"
	"errors"
	"log/slog"

	"storefront-commerce-system/internal/commerce"
	"storefront-commerce-system/internal/commerce/tx"
	"storefront-commerce-system/internal/core/domain"
	"storefront-commerce-system/internal/core/ports"
	"storefront-commerce-system/internal/observability"
)

// service is the implementation of the CommerceService port. It builds a
// per-request commerce.Operations facade and publishes a summary event after
// each successful operation.
type service struct {
	collab    commerce.Collaborators
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewCommerceService is the constructor of our service.
func NewCommerceService(collab commerce.Collaborators, publisher ports.EventPublisher, logger *slog.Logger) ports.CommerceService {
	return &service{
		collab:    collab,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *service) Purchase(ctx context.Context, customerID string, lineItems []domain.PurchaseLineItem) (*domain.TransactionResult, error) {
	ops, err := commerce.NewOperations(s.collab, customerID, s.logger)
	if err != nil {
		return nil, err
	}

	result, err := ops.Purchase(ctx, lineItems)
	return s.finish(ctx, domain.OperationNewPurchase, customerID, result, err)
}

func (s *service) PurchaseAdditionalSeats(ctx context.Context, customerID, subscriptionID string, seatsToPurchase int) (*domain.TransactionResult, error) {
	ops, err := commerce.NewOperations(s.collab, customerID, s.logger)
	if err != nil {
		return nil, err
	}

	result, err := ops.PurchaseAdditionalSeats(ctx, subscriptionID, seatsToPurchase)
	return s.finish(ctx, domain.OperationAdditionalSeatsPurchase, customerID, result, err)
}

func (s *service) RenewSubscription(ctx context.Context, customerID, subscriptionID string) (*domain.TransactionResult, error) {
	ops, err := commerce.NewOperations(s.collab, customerID, s.logger)
	if err != nil {
		return nil, err
	}

	result, err := ops.RenewSubscription(ctx, subscriptionID)
	return s.finish(ctx, domain.OperationRenewal, customerID, result, err)
}

func (s *service) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	return s.collab.Offers.List(ctx)
}

// finish records metrics for the finished operation and, on success,
// publishes the purchase event. Publishing is best effort: the charge already
// settled, so a broker hiccup must not turn success into failure.
func (s *service) finish(ctx context.Context, operation domain.OperationType, customerID string, result *domain.TransactionResult, err error) (*domain.TransactionResult, error) {
	if err != nil {
		observability.RecordTransaction(string(operation), "failure")

		var stepErr *tx.StepError
		if errors.As(err, &stepErr) {
			observability.RecordRollback(string(operation))
		}
		return nil, err
	}

	observability.RecordTransaction(string(operation), "success")

	event := domain.PurchaseEvent{
		OperationType: operation,
		CustomerID:    customerID,
		AmountCharged: result.AmountCharged,
		LineItems:     result.LineItems,
		CompletedAt:   result.CompletedAt,
	}
	if err := s.publisher.PublishPurchaseCompleted(ctx, event); err != nil {
		s.logger.Error("failed to publish purchase event", "operation", operation, "error", err)
	}

	return result, nil
}
