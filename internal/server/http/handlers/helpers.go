package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/server/http/dto"
	"github.com/polkiloo/withdrawals/internal/server/http/middleware"
)

// CurrentCaller extracts the authenticated caller from context.
func CurrentCaller(c *gin.Context) model.Caller {
	val, ok := c.Get(middleware.CallerContextKey)
	if !ok {
		return model.Caller{}
	}
	caller, _ := val.(model.Caller)
	return caller
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: typed errors unwrap to their sentinel, so the first match wins.
var errorMappings = []errorMapping{
	{domainErrors.ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
	{domainErrors.ErrBelowMinimum, http.StatusBadRequest, "BELOW_MINIMUM"},
	{domainErrors.ErrInvalidRejectionReason, http.StatusBadRequest, "INVALID_REJECTION_REASON"},
	{domainErrors.ErrInsufficientFunds, http.StatusConflict, "INSUFFICIENT_FUNDS"},
	{domainErrors.ErrAlreadyReviewed, http.StatusConflict, "ALREADY_REVIEWED"},
	{domainErrors.ErrIdempotencyMismatch, http.StatusConflict, "IDEMPOTENCY_MISMATCH"},
	{domainErrors.ErrAllocationConflict, http.StatusConflict, "ALLOCATION_CONFLICT"},
	{domainErrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domainErrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domainErrors.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
	{domainErrors.ErrInvalidAllocation, http.StatusInternalServerError, "INVALID_ALLOCATION"},
}

// ErrorResponse maps err to an HTTP status and response body.
func ErrorResponse(err error) (int, dto.ErrorResponse) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		body := dto.ErrorResponse{Code: m.code, Message: err.Error()}
		if m.status == http.StatusInternalServerError {
			body.Message = "internal consistency error"
		}

		var below *domainErrors.BelowMinimumError
		if errors.As(err, &below) {
			body.Minimum = &below.Minimum
		}
		var insufficient *domainErrors.InsufficientFundsError
		if errors.As(err, &insufficient) {
			shortfall := insufficient.Shortfall()
			body.Shortfall = &shortfall
			body.Available = &insufficient.Available
		}
		return m.status, body
	}
	return http.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "internal error"}
}

func writeError(c *gin.Context, err error) {
	status, body := ErrorResponse(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}
