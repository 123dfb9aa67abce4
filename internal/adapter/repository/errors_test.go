package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, domainErrors.ErrConcurrencyConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domainErrors.ErrConcurrencyConflict},
		{"lock timeout", fmt.Errorf("lock: %w", &pgconn.PgError{Code: "55P03"}), domainErrors.ErrConcurrencyConflict},
		{"duplicate payment", &pgconn.PgError{Code: "23505"}, domainErrors.ErrConcurrencyConflict},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, domainErrors.ErrDownstreamUnavailable},
		{"bad connection", driver.ErrBadConn, domainErrors.ErrDownstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	t.Run("domain errors pass through", func(t *testing.T) {
		err := domainErrors.NewValidationError("order_id", "order has failed")
		assert.Same(t, err, classifyError(err))
		assert.Equal(t, domainErrors.ErrOrderAlreadyPaid, classifyError(domainErrors.ErrOrderAlreadyPaid))
	})

	t.Run("other postgres errors are untouched", func(t *testing.T) {
		err := &pgconn.PgError{Code: "23514"}
		got := classifyError(err)
		assert.False(t, errors.Is(got, domainErrors.ErrConcurrencyConflict))
		assert.False(t, errors.Is(got, domainErrors.ErrDownstreamUnavailable))
	})

	assert.NoError(t, classifyError(nil))
}
