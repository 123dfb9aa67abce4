package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
)

// Postgres SQLSTATE codes that mean "lost a race, nothing was written"
var conflictCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"23505": true, // unique_violation
}

// Connection-level SQLSTATE classes
var unavailableCodes = map[string]bool{
	"08000": true,
	"08003": true,
	"08006": true,
	"57P01": true,
	"57P03": true,
}

// classifyError maps storage failures onto the ledger error taxonomy.
// Domain errors returned from inside a transaction pass through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case conflictCodes[pgErr.Code]:
			return fmt.Errorf("%w: %w", domainErrors.ErrConcurrencyConflict, err)
		case unavailableCodes[pgErr.Code]:
			return fmt.Errorf("%w: %w", domainErrors.ErrDownstreamUnavailable, err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", domainErrors.ErrDownstreamUnavailable, err)
	}

	return err
}
