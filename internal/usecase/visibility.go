package usecase

import "github.com/polkiloo/withdrawals/internal/domain/model"

// VisibilityPolicy decides whether caller may see w. Hidden withdrawals are
// reported as not found.
type VisibilityPolicy interface {
	CanView(caller model.Caller, w *model.Withdrawal) bool
}

// OwnerOrReviewer lets reviewers see everything and requesters their own withdrawals.
type OwnerOrReviewer struct{}

func (OwnerOrReviewer) CanView(caller model.Caller, w *model.Withdrawal) bool {
	if caller.IsReviewer() {
		return true
	}
	return caller.ID != "" && caller.ID == w.RequesterID
}
