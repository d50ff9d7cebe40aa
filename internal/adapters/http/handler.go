package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-commerce-system/internal/core/domain"
	"storefront-commerce-system/internal/core/ports"
)

// CommerceHandler stores all its dependencies.
type CommerceHandler struct {
	service ports.CommerceService
	logger  *slog.Logger
}

func NewCommerceHandler(service ports.CommerceService, logger *slog.Logger) *CommerceHandler {
	return &CommerceHandler{
		service: service,
		logger:  logger,
	}
}

type purchaseRequest struct {
	LineItems []domain.PurchaseLineItem `json:"line_items"`
}

type addSeatsRequest struct {
	Seats int `json:"seats"`
}

type transactionResponse struct {
	AmountCharged string                             `json:"amount_charged"`
	LineItems     []domain.TransactionResultLineItem `json:"line_items"`
	CompletedAt   string                             `json:"completed_at"`
}

func (h *CommerceHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Purchase(r.Context(), customerID, req.LineItems)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeResult(w, result)
}

func (h *CommerceHandler) HandlePurchaseAdditionalSeats(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	var req addSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	subscriptionID := chi.URLParam(r, "subscriptionID")
	result, err := h.service.PurchaseAdditionalSeats(r.Context(), customerID, subscriptionID, req.Seats)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeResult(w, result)
}

func (h *CommerceHandler) HandleRenewSubscription(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	subscriptionID := chi.URLParam(r, "subscriptionID")
	result, err := h.service.RenewSubscription(r.Context(), customerID, subscriptionID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeResult(w, result)
}

func (h *CommerceHandler) HandleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ListOffers(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(offers); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}

// customerID pulls the acting customer from the request. The storefront sits
// behind a front door that authenticates callers and stamps this header.
func (h *CommerceHandler) customerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	customerID := r.Header.Get("X-Customer-ID")
	if customerID == "" {
		writeJSONError(w, "missing customer id", http.StatusBadRequest)
		return "", false
	}
	return customerID, true
}

func (h *CommerceHandler) writeResult(w http.ResponseWriter, result *domain.TransactionResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	resp := transactionResponse{
		AmountCharged: result.AmountCharged.StringFixed(2),
		LineItems:     result.LineItems,
		CompletedAt:   result.CompletedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}

// writeDomainError maps domain error codes onto HTTP statuses.
func (h *CommerceHandler) writeDomainError(w http.ResponseWriter, err error) {
	switch domain.CodeOf(err) {
	case domain.ErrCodeInvalidInput:
		writeJSONError(w, "invalid input data", http.StatusBadRequest)

	case domain.ErrCodeOfferNotFound, domain.ErrCodeSubscriptionNotFound:
		writeJSONError(w, err.Error(), http.StatusNotFound)

	case domain.ErrCodeSubscriptionExpired, domain.ErrCodePurchaseDeletedOfferNotAllowed:
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)

	case domain.ErrCodeCardRefused, domain.ErrCodeCardExpired, domain.ErrCodeCardCVNCheckFailed:
		writeJSONError(w, "payment declined", http.StatusPaymentRequired)

	case domain.ErrCodeConflict:
		writeJSONError(w, "subscription was modified concurrently, retry", http.StatusConflict)

	case domain.ErrCodePaymentGatewayFailure, domain.ErrCodePaymentGatewayIdentityFailure,
		domain.ErrCodeProviderFailure, domain.ErrCodeStorageFailure:
		h.logger.Warn("temporary failure in external dependency", "error", err)
		writeJSONError(w, "service temporarily unavailable", http.StatusServiceUnavailable)

	default:
		h.logger.Error("unexpected error during commerce operation", "error", err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeJSONError is a helper for sending errors in JSON format.
func writeJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
