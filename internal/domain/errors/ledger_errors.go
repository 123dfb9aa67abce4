package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that a wallet or merchant account does not exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrOrderNotFound indicates that the order does not exist or belongs to another merchant
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderAlreadyPaid indicates that the order has already been captured
	ErrOrderAlreadyPaid = errors.New("order already paid")

	// ErrWebhookEndpointNotFound indicates that the endpoint does not exist or belongs to another merchant
	ErrWebhookEndpointNotFound = errors.New("webhook endpoint not found")

	// ErrSelfTransfer indicates that sender and receiver resolve to the same account
	ErrSelfTransfer = errors.New("cannot transfer to self")

	// ErrConcurrencyConflict indicates a lock timeout, serialization failure or
	// lost race; the operation made no changes and may be retried
	ErrConcurrencyConflict = errors.New("concurrent modification, retry")

	// ErrDownstreamUnavailable indicates that the store could not be reached
	ErrDownstreamUnavailable = errors.New("downstream unavailable")

	// ErrSettlementInProgress indicates that another settlement run holds the lock
	ErrSettlementInProgress = errors.New("settlement already in progress")

	// ErrRefundNotSupported is returned by the refund endpoint
	ErrRefundNotSupported = errors.New("refunds are not supported")
)

// ValidationError is returned when an input field is malformed or out of range
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientFundsError is returned when a wallet cannot cover a debit
type InsufficientFundsError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s", e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// NewInsufficientFundsError creates a new InsufficientFundsError
func NewInsufficientFundsError(requested, available decimal.Decimal) *InsufficientFundsError {
	return &InsufficientFundsError{
		Requested: requested,
		Available: available,
	}
}

// IsRetryable reports whether the caller may safely retry the failed operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrDownstreamUnavailable)
}
