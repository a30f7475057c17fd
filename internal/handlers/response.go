package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"prediction-venue/internal/oracle"
	"prediction-venue/internal/services"
	"prediction-venue/internal/token"

	"github.com/gin-gonic/gin"
)

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// statusFor maps venue errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case services.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrTransferFailed),
		errors.Is(err, services.ErrOracleUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrMarketExists),
		errors.Is(err, services.ErrMarketInactive),
		errors.Is(err, services.ErrMarketEnded),
		errors.Is(err, services.ErrNotReadyForSettlement),
		errors.Is(err, services.ErrAlreadySettled),
		errors.Is(err, services.ErrOracleNotSettled),
		errors.Is(err, services.ErrInvalidOutcome),
		errors.Is(err, services.ErrAlreadyClaimed),
		errors.Is(err, services.ErrMarketNotSettled),
		errors.Is(err, services.ErrReentrantCall),
		errors.Is(err, services.ErrInsufficientLiquidity),
		errors.Is(err, oracle.ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidMarketWindow),
		errors.Is(err, services.ErrInvalidDescription),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidSide),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidOdds),
		errors.Is(err, oracle.ErrInvalidOutcome),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		return http.StatusBadRequest
	case errors.Is(err, oracle.ErrNoPrice):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

// paging reads limit/offset query params, keeping defaults on bad input
func paging(c *gin.Context, defLimit, maxLimit int) (int, int) {
	limit, offset := defLimit, 0
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= maxLimit {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}
	return limit, offset
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
