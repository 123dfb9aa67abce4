package http

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	"github.com/wekeepgrowing/wallet-ledger/internal/middleware/auth"
	pkgErrors "github.com/wekeepgrowing/wallet-ledger/pkg/errors"
)

// bindAndValidate decodes the JSON body into req and runs its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return invalidArgument("Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return invalidArgument(err.Error())
	}
	return nil
}

// currentUser returns the user id established by the JWT middleware
func currentUser(c echo.Context) (uuid.UUID, error) {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return uuid.Nil, pkgErrors.ToHTTPError(pkgErrors.NewAppError(pkgErrors.ErrUnauthenticated, "Authentication required", err))
	}
	return user.UserID, nil
}

// currentMerchant returns the merchant id set by API-key auth or RequireMerchant
func currentMerchant(c echo.Context) (uuid.UUID, error) {
	if id, ok := auth.MerchantFromContext(c); ok {
		return id, nil
	}
	return uuid.Nil, pkgErrors.ToHTTPError(pkgErrors.NewAppError(pkgErrors.ErrUnauthorized, "Merchant account required", nil))
}

// paginationParams reads limit and offset query parameters
func paginationParams(c echo.Context) (entity.PaginationParams, error) {
	var params entity.PaginationParams
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return params, invalidArgument("invalid limit parameter")
		}
		params.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return params, invalidArgument("invalid offset parameter")
		}
		params.Offset = offset
	}
	return params, nil
}
