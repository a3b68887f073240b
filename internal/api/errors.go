package api

import (
	"context"                         // Context errors
	"errors"                          // Error classification
	"ledger_gateway/internal/gateway" // Facade error kinds
	"net/http"                        // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// httpStatus maps a facade error to an HTTP status code
func httpStatus(err error) int {
	switch {
	case errors.Is(err, gateway.ErrOutcomeUnknown):
		return http.StatusGatewayTimeout // The write may or may not have committed
	case errors.Is(err, gateway.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrIdentity):
		return http.StatusPreconditionFailed
	case errors.Is(err, gateway.ErrInvocation), errors.Is(err, gateway.ErrAccountExists), errors.Is(err, gateway.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrDecode):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, gateway.ErrConnection):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err with the ledger's text as the message
func respondError(c *gin.Context, err error) {
	body := gin.H{"error": gateway.LedgerMessage(err)} // Error message
	// Tell the caller an unknown outcome apart from a failure
	if errors.Is(err, gateway.ErrOutcomeUnknown) {
		body["outcome"] = "unknown"
	}
	c.JSON(httpStatus(err), body)
}
