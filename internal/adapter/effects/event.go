package effects

import (
	"time"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

// Event is the message body published for a committed review.
type Event struct {
	Effect          string          `json:"-"`
	WithdrawalID    string          `json:"withdrawalId"`
	RequesterID     string          `json:"requesterId"`
	Amount          int64           `json:"amount"`
	Status          string          `json:"status"`
	ReviewerID      string          `json:"reviewerId"`
	ReviewedAt      time.Time       `json:"reviewedAt"`
	RejectionReason *string         `json:"rejectionReason,omitempty"`
	BankDestination BankDestination `json:"bankDestination"`
}

type BankDestination struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	RoutingCode   string `json:"routingCode"`
}

// NewEvent builds the payload for effect from the reviewed withdrawal.
func NewEvent(effect workflow.Effect, w model.Withdrawal) Event {
	e := Event{
		Effect:          string(effect),
		WithdrawalID:    w.ID,
		RequesterID:     w.RequesterID,
		Amount:          w.Amount,
		Status:          string(w.Status),
		RejectionReason: w.RejectionReason,
		BankDestination: BankDestination{
			BankName:      w.BankDestination.BankName,
			AccountNumber: w.BankDestination.AccountNumber,
			RoutingCode:   w.BankDestination.RoutingCode,
		},
	}
	if w.ReviewerID != nil {
		e.ReviewerID = *w.ReviewerID
	}
	if w.ReviewedAt != nil {
		e.ReviewedAt = *w.ReviewedAt
	}
	return e
}

// MessageID identifies the event for consumer-side deduplication.
func (e Event) MessageID() string {
	return e.WithdrawalID + ":" + e.Effect
}
