package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/route-orders-api/internal/accounts"
	"github.com/imrishuroy/route-orders-api/internal/geocode"
	"github.com/imrishuroy/route-orders-api/internal/orders"
	"go.uber.org/zap"
)

// writeError maps domain errors to a status and an {"error": ...} body.
// Unknown errors become 500 with fallback as the only detail.
func (h *handler) writeError(c *gin.Context, err error, fallback string) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error(fallback, zap.Error(err), zap.String("request_id", c.GetString("request_id")))
		msg = fallback
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func classify(err error) (int, string) {
	var pwErr *accounts.PasswordError
	switch {
	case errors.Is(err, orders.ErrUnauthenticated):
		return http.StatusUnauthorized, "Token missing or invalid"
	case errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, orders.ErrForbidden):
		return http.StatusForbidden, "Unauthorized access to order"
	case errors.Is(err, orders.ErrKeyReused):
		return http.StatusUnprocessableEntity, "Idempotency-Key reused with a different request"

	case errors.Is(err, accounts.ErrUserExists):
		return http.StatusConflict, "This email address is already registered."
	case errors.As(err, &pwErr):
		return http.StatusBadRequest, pwErr.Error()
	case errors.Is(err, accounts.ErrInvalidParameter):
		return http.StatusBadRequest, "Invalid request parameters."
	case errors.Is(err, accounts.ErrInvalidCode):
		return http.StatusBadRequest, "Invalid or expired confirmation code."
	case errors.Is(err, accounts.ErrNotAuthorized):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, accounts.ErrChallengeRequired):
		return http.StatusUnauthorized, "Additional authentication challenge required."
	case errors.Is(err, accounts.ErrUserNotFound):
		return http.StatusNotFound, "This user does not exist."
	case errors.Is(err, accounts.ErrUserNotConfirmed):
		return http.StatusForbidden, "User is not confirmed. Please check your email."

	case errors.Is(err, geocode.ErrNoResults):
		return http.StatusBadGateway, "No results found for address"
	case errors.Is(err, geocode.ErrUpstream):
		return http.StatusBadGateway, "Geocoding service unavailable"
	}
	return http.StatusInternalServerError, ""
}
