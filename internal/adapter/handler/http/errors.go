package http

import (
	"context"
	"errors"

	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	pkgErrors "github.com/wekeepgrowing/wallet-ledger/pkg/errors"
	"go.uber.org/zap"
)

// FromDomainError translates a use case error into a transport error
func FromDomainError(err error) *pkgErrors.AppError {
	var appErr *pkgErrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validation *domainErrors.ValidationError
	var funds *domainErrors.InsufficientFundsError
	switch {
	case errors.As(err, &validation):
		return pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, validation.Error(), err)
	case errors.As(err, &funds):
		return pkgErrors.NewAppError(pkgErrors.ErrUnprocessable, funds.Error(), err)
	case errors.Is(err, domainErrors.ErrSelfTransfer):
		return pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Cannot send money to yourself", err)
	case errors.Is(err, domainErrors.ErrAccountNotFound):
		return pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Account not found", err)
	case errors.Is(err, domainErrors.ErrOrderNotFound):
		return pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Order not found", err)
	case errors.Is(err, domainErrors.ErrWebhookEndpointNotFound):
		return pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Webhook endpoint not found", err)
	case errors.Is(err, domainErrors.ErrOrderAlreadyPaid):
		return pkgErrors.NewAppError(pkgErrors.ErrConflict, "Order already paid", err)
	case errors.Is(err, domainErrors.ErrSettlementInProgress):
		return pkgErrors.NewAppError(pkgErrors.ErrConflict, "Settlement already in progress", err)
	case errors.Is(err, domainErrors.ErrConcurrencyConflict):
		return pkgErrors.NewRetryableAppError(pkgErrors.ErrConflict, "Concurrent update, please retry", err)
	case errors.Is(err, domainErrors.ErrDownstreamUnavailable):
		return pkgErrors.NewRetryableAppError(pkgErrors.ErrUnavailable, "Service temporarily unavailable", err)
	case errors.Is(err, domainErrors.ErrRefundNotSupported):
		return pkgErrors.NewAppError(pkgErrors.ErrNotImplemented, "Refunds are not supported", err)
	case errors.Is(err, context.DeadlineExceeded):
		return pkgErrors.NewRetryableAppError(pkgErrors.ErrTimeout, "Request timed out", err)
	default:
		return pkgErrors.NewAppError(pkgErrors.ErrInternal, "Internal server error", err)
	}
}

// respondError logs err at a level matching its code and returns the echo error
func respondError(logger *zap.Logger, err error, msg string, fields ...zap.Field) error {
	appErr := FromDomainError(err)
	pkgErrors.LogError(logger, appErr, msg, fields...)
	return pkgErrors.ToHTTPError(appErr)
}

func invalidArgument(message string) error {
	return pkgErrors.ToHTTPError(pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, message, nil))
}
