package dto

import (
	"time"

	"github.com/polkiloo/withdrawals/internal/domain/model"
)

// BankDestination is where an approved payout is sent.
type BankDestination struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	RoutingCode   string `json:"routingCode"`
}

func (d BankDestination) Model() model.BankDestination {
	return model.BankDestination{BankName: d.BankName, AccountNumber: d.AccountNumber, RoutingCode: d.RoutingCode}
}

// CreateWithdrawalRequest describes POST /withdrawals payload.
type CreateWithdrawalRequest struct {
	Amount          int64           `json:"amount"`
	BankDestination BankDestination `json:"bankDestination"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

// RejectRequest describes POST /withdrawals/{id}/reject payload.
type RejectRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

// PaymentLineageResponse is one payment that funded a source transaction.
type PaymentLineageResponse struct {
	PaymentID     string  `json:"paymentId"`
	PaymentMethod string  `json:"paymentMethod"`
	Amount        int64   `json:"amount"`
	OperationCode *string `json:"operationCode,omitempty"`
	TicketNumber  *string `json:"ticketNumber,omitempty"`
}

// AllocationResponse describes one allocation. Lineage is only present on detail reads.
type AllocationResponse struct {
	ID                  string                   `json:"id"`
	SourceTransactionID string                   `json:"sourceTransactionId"`
	AmountUsed          int64                    `json:"amountUsed"`
	SourcePointsTotal   int64                    `json:"sourcePointsTotal"`
	Metadata            map[string]any           `json:"metadata"`
	PaymentLineage      []PaymentLineageResponse `json:"paymentLineage,omitempty"`
}

// WithdrawalResponse describes a withdrawal.
type WithdrawalResponse struct {
	ID              string               `json:"id"`
	RequesterID     string               `json:"requesterId"`
	Amount          int64                `json:"amount"`
	Status          string               `json:"status"`
	BankDestination BankDestination      `json:"bankDestination"`
	CreatedAt       time.Time            `json:"createdAt"`
	ReviewedAt      *time.Time           `json:"reviewedAt,omitempty"`
	ReviewerID      *string              `json:"reviewerId,omitempty"`
	RejectionReason *string              `json:"rejectionReason,omitempty"`
	IsArchived      bool                 `json:"isArchived"`
	Metadata        map[string]any       `json:"metadata"`
	Allocations     []AllocationResponse `json:"allocations,omitempty"`
}

// PageResponse is one page of withdrawals.
type PageResponse struct {
	Items    []WithdrawalResponse `json:"items"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
	Total    int64                `json:"total"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Minimum    *int64              `json:"minimum,omitempty"`
	Shortfall  *int64              `json:"shortfall,omitempty"`
	Available  *int64              `json:"available,omitempty"`
	Withdrawal *WithdrawalResponse `json:"withdrawal,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func NewWithdrawalResponse(w model.Withdrawal) WithdrawalResponse {
	resp := WithdrawalResponse{
		ID:          w.ID,
		RequesterID: w.RequesterID,
		Amount:      w.Amount,
		Status:      string(w.Status),
		BankDestination: BankDestination{
			BankName:      w.BankDestination.BankName,
			AccountNumber: w.BankDestination.AccountNumber,
			RoutingCode:   w.BankDestination.RoutingCode,
		},
		CreatedAt:       w.CreatedAt,
		ReviewedAt:      w.ReviewedAt,
		ReviewerID:      w.ReviewerID,
		RejectionReason: w.RejectionReason,
		IsArchived:      w.IsArchived,
		Metadata:        w.Metadata,
	}
	for _, a := range w.Allocations {
		resp.Allocations = append(resp.Allocations, newAllocationResponse(a))
	}
	return resp
}

func NewWithdrawalDetailResponse(d model.WithdrawalDetail) WithdrawalResponse {
	resp := NewWithdrawalResponse(d.Withdrawal)
	resp.Allocations = make([]AllocationResponse, 0, len(d.Allocations))
	for _, a := range d.Allocations {
		ar := newAllocationResponse(a.WithdrawalAllocation)
		for _, p := range a.PaymentLineage {
			ar.PaymentLineage = append(ar.PaymentLineage, PaymentLineageResponse{
				PaymentID:     p.PaymentID,
				PaymentMethod: string(p.PaymentMethod),
				Amount:        p.Amount,
				OperationCode: p.OperationCode,
				TicketNumber:  p.TicketNumber,
			})
		}
		resp.Allocations = append(resp.Allocations, ar)
	}
	return resp
}

func NewPageResponse(p model.Page[model.Withdrawal]) PageResponse {
	resp := PageResponse{
		Items:    make([]WithdrawalResponse, 0, len(p.Items)),
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    p.Total,
	}
	for _, w := range p.Items {
		resp.Items = append(resp.Items, NewWithdrawalResponse(w))
	}
	return resp
}

func newAllocationResponse(a model.WithdrawalAllocation) AllocationResponse {
	return AllocationResponse{
		ID:                  a.ID,
		SourceTransactionID: a.SourceTransactionID,
		AmountUsed:          a.AmountUsed,
		SourcePointsTotal:   a.SourcePointsTotal,
		Metadata:            a.Metadata,
	}
}
