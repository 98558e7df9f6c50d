// Package workflow is the single authority on legal withdrawal review transitions.
package workflow

import (
	"strings"
	"time"
	"unicode/utf8"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
)

const (
	MinRejectionReasonLength = 10
	MaxRejectionReasonLength = 500
)

// Effect names the external side effect a committed transition must trigger.
type Effect string

const (
	EffectPayoutRelease    Effect = "withdrawal.approved"
	EffectUserNotification Effect = "withdrawal.rejected"
)

// Transition is a validated review decision ready to be applied with
// compare-and-swap semantics on the withdrawal's pending status.
type Transition struct {
	WithdrawalID    string
	To              model.WithdrawalStatus
	ReviewerID      string
	ReviewedAt      time.Time
	RejectionReason *string
	Effect          Effect
	// RequireActive makes the swap fail for archived withdrawals.
	RequireActive bool
}

// ValidateDecision checks a decision payload without looking at any stored state.
func ValidateDecision(d model.ReviewDecision) error {
	if strings.TrimSpace(d.ReviewerID) == "" {
		return domainErrors.InvalidRequest("reviewer id is required")
	}
	switch d.Action {
	case model.ReviewActionApprove:
		return nil
	case model.ReviewActionReject:
		return ValidateRejectionReason(d.RejectionReason)
	default:
		return domainErrors.InvalidRequest("unknown review action %q", d.Action)
	}
}

// ValidateRejectionReason enforces the 10..500 character bound on trimmed input.
func ValidateRejectionReason(reason string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(reason))
	if n < MinRejectionReasonLength || n > MaxRejectionReasonLength {
		return domainErrors.ErrInvalidRejectionReason
	}
	return nil
}

// Decide computes the transition for w under decision d.
//
// Validation errors are returned before state is considered. A terminal
// withdrawal yields ErrAlreadyReviewed and no transition.
func Decide(w *model.Withdrawal, d model.ReviewDecision, now time.Time) (Transition, error) {
	if err := ValidateDecision(d); err != nil {
		return Transition{}, err
	}
	if w.Status.IsTerminal() {
		return Transition{}, domainErrors.ErrAlreadyReviewed
	}
	if !w.Status.IsPending() {
		return Transition{}, &domainErrors.InvalidAllocationError{Reason: "withdrawal " + w.ID + " has unknown status " + string(w.Status)}
	}

	t := Transition{
		WithdrawalID: w.ID,
		ReviewerID:   d.ReviewerID,
		ReviewedAt:   now,
	}

	switch d.Action {
	case model.ReviewActionApprove:
		if w.IsArchived {
			return Transition{}, domainErrors.InvalidRequest("withdrawal %s is archived", w.ID)
		}
		t.To = model.WithdrawalStatusApproved
		t.Effect = EffectPayoutRelease
		t.RequireActive = true
	case model.ReviewActionReject:
		reason := d.RejectionReason
		t.To = model.WithdrawalStatusRejected
		t.RejectionReason = &reason
		t.Effect = EffectUserNotification
	}

	return t, nil
}

// Apply returns a copy of w with the transition's review data set.
func Apply(w model.Withdrawal, t Transition) model.Withdrawal {
	reviewedAt := t.ReviewedAt
	reviewerID := t.ReviewerID
	w.Status = t.To
	w.ReviewedAt = &reviewedAt
	w.ReviewerID = &reviewerID
	w.RejectionReason = t.RejectionReason
	return w
}
