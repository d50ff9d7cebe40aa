package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrorCode identifies what happened in the business area that caused an
// error. Codes are stable and machine-readable so callers can render their
// own messages without parsing free text.
type ErrorCode string

const (
	// Validation and lookup failures, detected before any pipeline step runs.
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeOfferNotFound        ErrorCode = "OFFER_NOT_FOUND"
	ErrCodeSubscriptionNotFound ErrorCode = "SUBSCRIPTION_NOT_FOUND"

	// Business-rule violations.
	ErrCodeSubscriptionExpired            ErrorCode = "SUBSCRIPTION_EXPIRED"
	ErrCodePurchaseDeletedOfferNotAllowed ErrorCode = "PURCHASE_DELETED_OFFER_NOT_ALLOWED"

	// Payment gateway failures. The card codes mean "use another card"; the
	// identity code means the operator misconfigured gateway credentials.
	ErrCodeCardRefused                   ErrorCode = "CARD_REFUSED"
	ErrCodeCardExpired                   ErrorCode = "CARD_EXPIRED"
	ErrCodeCardCVNCheckFailed            ErrorCode = "CARD_CVN_CHECK_FAILED"
	ErrCodePaymentGatewayIdentityFailure ErrorCode = "PAYMENT_GATEWAY_IDENTITY_FAILURE"
	ErrCodePaymentGatewayFailure         ErrorCode = "PAYMENT_GATEWAY_FAILURE"

	// Mid-pipeline step failures.
	ErrCodeProviderFailure ErrorCode = "PROVIDER_FAILURE"
	ErrCodeStorageFailure  ErrorCode = "STORAGE_FAILURE"

	ErrCodeConflict    ErrorCode = "CONFLICT"
	ErrCodeServerError ErrorCode = "SERVER_ERROR"
)

func (c ErrorCode) String() string { return string(c) }

// Sentinel errors for errors.Is() checking.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrConflict      = errors.New("subscription was modified concurrently")
)

// Error is the coded business error used to communicate commerce failures.
// Details carries free-form context fields such as the offending offer id.
type Error struct {
	Code    ErrorCode
	Details map[string]string
	cause   error
}

// NewError creates a coded business error.
func NewError(code ErrorCode) *Error {
	return &Error{Code: code, Details: map[string]string{}}
}

// WrapError creates a coded business error carrying its originating cause.
func WrapError(code ErrorCode, cause error) *Error {
	return &Error{Code: code, Details: map[string]string{}, cause: cause}
}

// WithDetail attaches one detail field and returns the error for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	e.Details[key] = value
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Details[k])
		}
		b.WriteString(" (" + strings.Join(parts, ", ") + ")")
	}

	if e.cause != nil {
		b.WriteString(": " + e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is makes coded errors comparable with errors.Is by code alone.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && e.Code == other.Code
}

// CodeOf extracts the business error code from an error chain, or
// ErrCodeServerError when the chain carries no coded error.
func CodeOf(err error) ErrorCode {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrCodeServerError
}

// IsCode reports whether the error chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Code == code
}
