package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/withdrawals/internal/domain/allocation"
	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

// DefaultMaxAttempts bounds how often creation replans after losing a reserve race.
const DefaultMaxAttempts = 3

// LineageResolver joins allocations with the payments that funded their sources.
type LineageResolver interface {
	Collect(ctx context.Context, allocations []model.WithdrawalAllocation) ([]model.AllocationDetail, error)
}

// WithdrawalDeps groups the collaborators of WithdrawalUseCase.
type WithdrawalDeps struct {
	Withdrawals repository.WithdrawalRepository
	Ledger      repository.PointsLedger
	Transactor  repository.Transactor
	Effects     repository.EffectsDispatcher
	Cache       repository.DetailCache
	Lineage     LineageResolver
	// Visibility defaults to OwnerOrReviewer.
	Visibility VisibilityPolicy
}

// WithdrawalUseCase creates, reviews and reads withdrawals.
type WithdrawalUseCase struct {
	withdrawals repository.WithdrawalRepository
	ledger      repository.PointsLedger
	tx          repository.Transactor
	effects     repository.EffectsDispatcher
	cache       repository.DetailCache
	lineage     LineageResolver
	visibility  VisibilityPolicy
	minAmount   int64
	maxAttempts int
	logger      *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewWithdrawalUseCase constructs WithdrawalUseCase.
func NewWithdrawalUseCase(deps WithdrawalDeps, minAmount int64, logger *slog.Logger) *WithdrawalUseCase {
	visibility := deps.Visibility
	if visibility == nil {
		visibility = OwnerOrReviewer{}
	}
	return &WithdrawalUseCase{
		withdrawals: deps.Withdrawals,
		ledger:      deps.Ledger,
		tx:          deps.Transactor,
		effects:     deps.Effects,
		cache:       deps.Cache,
		lineage:     deps.Lineage,
		visibility:  visibility,
		minAmount:   minAmount,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Create allocates the requester's oldest unspent points to a new PENDING
// withdrawal. The boolean is false when an idempotent retry returned an
// existing withdrawal.
func (u *WithdrawalUseCase) Create(ctx context.Context, req model.WithdrawalRequest) (*model.Withdrawal, bool, error) {
	if err := ValidateWithdrawalRequest(req, u.minAmount); err != nil {
		return nil, false, err
	}

	if req.IdempotencyKey != "" {
		existing, err := u.withdrawals.GetByIdempotencyKey(ctx, req.RequesterID, req.IdempotencyKey)
		switch {
		case err == nil:
			return replay(existing, req)
		case !errors.Is(err, domainErrors.ErrNotFound):
			return nil, false, err
		}
	}

	var (
		created *model.Withdrawal
		err     error
	)
	for attempt := 1; ; attempt++ {
		created, err = u.allocateAndCreate(ctx, req)
		if err == nil || !errors.Is(err, domainErrors.ErrAllocationConflict) || attempt >= u.maxAttempts {
			break
		}
		u.logger.Debug("allocation race lost, replanning",
			slog.String("requester_id", req.RequesterID),
			slog.Int("attempt", attempt),
		)
	}

	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrAlreadyExists) && req.IdempotencyKey != "":
			existing, getErr := u.withdrawals.GetByIdempotencyKey(ctx, req.RequesterID, req.IdempotencyKey)
			if getErr != nil {
				return nil, false, getErr
			}
			return replay(existing, req)
		case errors.Is(err, domainErrors.ErrInvalidAllocation):
			u.logger.Error("allocation invariant violated",
				slog.String("requester_id", req.RequesterID),
				slog.Int64("amount", req.Amount),
				slog.String("error", err.Error()),
			)
		}
		return nil, false, err
	}

	u.logger.Info("withdrawal created",
		slog.String("withdrawal_id", created.ID),
		slog.String("requester_id", created.RequesterID),
		slog.Int64("amount", created.Amount),
		slog.Int("allocations", len(created.Allocations)),
	)
	return created, true, nil
}

func replay(existing *model.Withdrawal, req model.WithdrawalRequest) (*model.Withdrawal, bool, error) {
	if !existing.SamePayload(req.RequesterID, req.Amount, req.BankDestination) {
		return nil, false, domainErrors.ErrIdempotencyMismatch
	}
	return existing, false, nil
}

// allocateAndCreate plans, reserves and inserts in one transaction.
func (u *WithdrawalUseCase) allocateAndCreate(ctx context.Context, req model.WithdrawalRequest) (*model.Withdrawal, error) {
	var created *model.Withdrawal
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		pool, err := u.ledger.ListEligibleSourceTransactions(ctx, req.RequesterID)
		if err != nil {
			return fmt.Errorf("list eligible sources: %w", err)
		}

		slices, err := allocation.Plan(req.Amount, u.minAmount, pool)
		if err != nil {
			return err
		}

		allocations := make([]model.WithdrawalAllocation, 0, len(slices))
		for _, s := range slices {
			allocations = append(allocations, model.WithdrawalAllocation{
				ID:                  u.newID(),
				SourceTransactionID: s.SourceTransactionID,
				AmountUsed:          s.AmountUsed,
				SourcePointsTotal:   s.SourcePointsTotal,
			})
		}

		var key *string
		if req.IdempotencyKey != "" {
			k := req.IdempotencyKey
			key = &k
		}

		w, err := model.NewWithdrawal(model.NewWithdrawalParams{
			ID:              u.newID(),
			RequesterID:     req.RequesterID,
			Amount:          req.Amount,
			BankDestination: req.BankDestination,
			CreatedAt:       u.now().UTC(),
			IdempotencyKey:  key,
			Metadata:        req.Metadata,
			Allocations:     allocations,
		})
		if err != nil {
			return err
		}

		for _, a := range w.Allocations {
			if err := u.ledger.ReserveUnspentAmount(ctx, a.SourceTransactionID, a.AmountUsed); err != nil {
				return err
			}
		}
		if err := u.withdrawals.Create(ctx, w); err != nil {
			return err
		}
		created = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Approve moves a pending withdrawal to APPROVED and releases the payout.
func (u *WithdrawalUseCase) Approve(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error) {
	return u.review(ctx, caller, id, model.ReviewDecision{
		ReviewerID: caller.ID,
		Action:     model.ReviewActionApprove,
	})
}

// Reject moves a pending withdrawal to REJECTED and notifies the requester.
// The reason is stored verbatim.
func (u *WithdrawalUseCase) Reject(ctx context.Context, caller model.Caller, id, reason string) (*model.Withdrawal, error) {
	return u.review(ctx, caller, id, model.ReviewDecision{
		ReviewerID:      caller.ID,
		Action:          model.ReviewActionReject,
		RejectionReason: reason,
	})
}

// review returns the current withdrawal together with ErrAlreadyReviewed
// when the decision arrives after a terminal transition.
func (u *WithdrawalUseCase) review(ctx context.Context, caller model.Caller, id string, d model.ReviewDecision) (*model.Withdrawal, error) {
	if !caller.IsReviewer() {
		return nil, domainErrors.ErrForbidden
	}
	if err := workflow.ValidateDecision(d); err != nil {
		return nil, err
	}

	current, err := u.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := workflow.Decide(current, d, u.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrAlreadyReviewed):
			return current, err
		case errors.Is(err, domainErrors.ErrInvalidAllocation):
			u.logger.Error("withdrawal in unreviewable state",
				slog.String("withdrawal_id", id),
				slog.String("status", string(current.Status)),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	updated, applied, err := u.withdrawals.ApplyReview(ctx, t)
	if err != nil {
		return nil, err
	}
	if !applied {
		if updated.Status.IsPending() && updated.IsArchived {
			return nil, domainErrors.InvalidRequest("withdrawal %s is archived", id)
		}
		return updated, domainErrors.ErrAlreadyReviewed
	}

	u.logger.Info("withdrawal reviewed",
		slog.String("withdrawal_id", updated.ID),
		slog.String("status", string(updated.Status)),
		slog.String("reviewer_id", d.ReviewerID),
	)
	u.afterCommit(ctx, updated.ID)
	u.dispatch(ctx, t.Effect, *updated)
	return updated, nil
}

// dispatch runs after the transition is committed; failures are left to the
// collaborator's own redelivery.
func (u *WithdrawalUseCase) dispatch(ctx context.Context, effect workflow.Effect, w model.Withdrawal) {
	if err := u.effects.Dispatch(context.WithoutCancel(ctx), effect, w); err != nil {
		u.logger.Warn("effect dispatch failed",
			slog.String("withdrawal_id", w.ID),
			slog.String("effect", string(effect)),
			slog.String("error", err.Error()),
		)
	}
}

func (u *WithdrawalUseCase) afterCommit(ctx context.Context, id string) {
	if err := u.cache.Invalidate(context.WithoutCancel(ctx), id); err != nil {
		u.logger.Warn("detail cache invalidation failed",
			slog.String("withdrawal_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// Archive hides a withdrawal from default listings without touching its status.
func (u *WithdrawalUseCase) Archive(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error) {
	if !caller.IsReviewer() {
		return nil, domainErrors.ErrForbidden
	}
	w, err := u.withdrawals.Archive(ctx, id)
	if err != nil {
		return nil, err
	}
	u.logger.Info("withdrawal archived", slog.String("withdrawal_id", id), slog.String("reviewer_id", caller.ID))
	u.afterCommit(ctx, id)
	return w, nil
}

// Detail returns the audit projection of a withdrawal visible to caller.
func (u *WithdrawalUseCase) Detail(ctx context.Context, caller model.Caller, id string) (*model.WithdrawalDetail, error) {
	cached, ok, err := u.cache.Get(ctx, id)
	if err != nil {
		u.logger.Warn("detail cache read failed", slog.String("withdrawal_id", id), slog.String("error", err.Error()))
	} else if ok {
		if !u.visibility.CanView(caller, &cached.Withdrawal) {
			return nil, domainErrors.ErrNotFound
		}
		return cached, nil
	}

	w, err := u.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.visibility.CanView(caller, w) {
		return nil, domainErrors.ErrNotFound
	}

	allocations, err := u.lineage.Collect(ctx, w.Allocations)
	if err != nil {
		return nil, err
	}

	// A review or archive may have committed (and invalidated the cache)
	// while lineage was loading. Only a projection that still matches the
	// stored row is cached.
	current, err := u.withdrawals.GetByID(ctx, id)
	if err != nil {
		current = nil
		u.logger.Warn("detail recheck failed", slog.String("withdrawal_id", id), slog.String("error", err.Error()))
	}

	base := *w
	if current != nil {
		base = *current
	}
	base.Allocations = nil
	detail := &model.WithdrawalDetail{Withdrawal: base, Allocations: allocations}

	if current == nil || current.Status != w.Status || current.IsArchived != w.IsArchived {
		u.logger.Debug("withdrawal changed during detail read, not cached", slog.String("withdrawal_id", id))
		return detail, nil
	}
	if err := u.cache.Set(ctx, *detail); err != nil {
		u.logger.Warn("detail cache write failed", slog.String("withdrawal_id", id), slog.String("error", err.Error()))
	}
	return detail, nil
}

// List pages through withdrawals. Non-reviewers only ever see their own.
func (u *WithdrawalUseCase) List(ctx context.Context, caller model.Caller, filter model.WithdrawalFilter) (model.Page[model.Withdrawal], error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return model.Page[model.Withdrawal]{}, domainErrors.InvalidRequest("unknown status %q", *filter.Status)
	}
	if !caller.IsReviewer() {
		if caller.ID == "" {
			return model.Page[model.Withdrawal]{}, domainErrors.ErrForbidden
		}
		requester := caller.ID
		filter.RequesterID = &requester
	}
	filter.Pagination = filter.Pagination.Normalize()
	return u.withdrawals.List(ctx, filter)
}
