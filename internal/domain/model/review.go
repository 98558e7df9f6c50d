package model

// ReviewAction is the event applied to a pending withdrawal.
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "APPROVE"
	ReviewActionReject  ReviewAction = "REJECT"
)

// ReviewDecision is the payload of a review transition.
type ReviewDecision struct {
	ReviewerID      string
	Action          ReviewAction
	RejectionReason string
}
