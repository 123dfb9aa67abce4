package usecase

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
)

// Indian mobile numbers; anything else is treated as a UPI id
var mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// ParseAmount parses a decimal string from a request body
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, domainErrors.NewValidationError(field, "must be a decimal number")
	}
	return amount, nil
}

// validateAmount checks that amount is positive, has at most two decimal
// places and, when limit is positive, does not exceed it
func validateAmount(field string, amount, limit decimal.Decimal) error {
	if !amount.IsPositive() {
		return domainErrors.NewValidationError(field, "must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return domainErrors.NewValidationError(field, "must have at most two decimal places")
	}
	if limit.IsPositive() && amount.GreaterThan(limit) {
		return domainErrors.NewValidationError(field, "exceeds the maximum of "+limit.StringFixed(2))
	}
	return nil
}

func isMobile(handle string) bool {
	return mobilePattern.MatchString(handle)
}
