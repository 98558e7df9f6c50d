package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/server/http/dto"
)

// IdempotencyKeyHeader lets clients retry creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// WithdrawalHandler manages withdrawal endpoints.
type WithdrawalHandler struct {
	facade WithdrawalFacade
}

// NewWithdrawalHandler constructs WithdrawalHandler.
func NewWithdrawalHandler(facade WithdrawalFacade) *WithdrawalHandler {
	return &WithdrawalHandler{facade: facade}
}

// Create handles POST /withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	caller := CurrentCaller(c)
	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domainErrors.InvalidRequest("malformed body: %v", err))
		return
	}

	w, created, err := h.facade.CreateWithdrawal(c.Request.Context(), model.WithdrawalRequest{
		RequesterID:     caller.ID,
		Amount:          req.Amount,
		BankDestination: req.BankDestination.Model(),
		IdempotencyKey:  c.GetHeader(IdempotencyKeyHeader),
		Metadata:        req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, dto.NewWithdrawalResponse(*w))
}

// Approve handles POST /withdrawals/:id/approve.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	w, err := h.facade.Approve(c.Request.Context(), CurrentCaller(c), c.Param("id"))
	h.writeReview(c, w, err)
}

// Reject handles POST /withdrawals/:id/reject.
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domainErrors.InvalidRequest("malformed body: %v", err))
		return
	}
	w, err := h.facade.Reject(c.Request.Context(), CurrentCaller(c), c.Param("id"), req.RejectionReason)
	h.writeReview(c, w, err)
}

// writeReview answers a review call. A conflict carries the current state so
// clients can refresh without another round trip.
func (h *WithdrawalHandler) writeReview(c *gin.Context, w *model.Withdrawal, err error) {
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyReviewed) && w != nil {
			status, body := ErrorResponse(err)
			current := dto.NewWithdrawalResponse(*w)
			body.Withdrawal = &current
			c.AbortWithStatusJSON(status, body)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewWithdrawalResponse(*w))
}

// Archive handles POST /withdrawals/:id/archive.
func (h *WithdrawalHandler) Archive(c *gin.Context) {
	w, err := h.facade.Archive(c.Request.Context(), CurrentCaller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewWithdrawalResponse(*w))
}

// Detail handles GET /withdrawals/:id.
func (h *WithdrawalHandler) Detail(c *gin.Context) {
	detail, err := h.facade.Detail(c.Request.Context(), CurrentCaller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewWithdrawalDetailResponse(*detail))
}

// List handles GET /withdrawals.
func (h *WithdrawalHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := h.facade.List(c.Request.Context(), CurrentCaller(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

func parseFilter(c *gin.Context) (model.WithdrawalFilter, error) {
	var filter model.WithdrawalFilter

	if v := c.Query("requesterId"); v != "" {
		filter.RequesterID = &v
	}
	if v := c.Query("status"); v != "" {
		status := model.WithdrawalStatus(v)
		filter.Status = &status
	}
	if v := c.Query("archived"); v != "" {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			return filter, domainErrors.InvalidRequest("archived must be a boolean, got %q", v)
		}
		filter.Archived = &archived
	}

	var err error
	if filter.Page, err = queryInt(c, "page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(c, "pageSize"); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domainErrors.InvalidRequest("%s must be a non-negative integer, got %q", name, v)
	}
	return n, nil
}
