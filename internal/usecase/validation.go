package usecase

import (
	"strings"

	"github.com/polkiloo/withdrawals/internal/domain/allocation"
	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
)

const maxIdempotencyKeyLength = 255

// ValidateWithdrawalRequest checks a creation request before any storage is touched.
func ValidateWithdrawalRequest(req model.WithdrawalRequest, minimum int64) error {
	if strings.TrimSpace(req.RequesterID) == "" {
		return domainErrors.InvalidRequest("requester id is required")
	}
	if err := allocation.CheckAmount(req.Amount, minimum); err != nil {
		return err
	}
	if err := ValidateBankDestination(req.BankDestination); err != nil {
		return err
	}
	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		return domainErrors.InvalidRequest("idempotency key longer than %d bytes", maxIdempotencyKeyLength)
	}
	return nil
}

// ValidateBankDestination requires every destination field to be present.
func ValidateBankDestination(d model.BankDestination) error {
	switch {
	case strings.TrimSpace(d.BankName) == "":
		return domainErrors.InvalidRequest("bank name is required")
	case strings.TrimSpace(d.AccountNumber) == "":
		return domainErrors.InvalidRequest("account number is required")
	case strings.TrimSpace(d.RoutingCode) == "":
		return domainErrors.InvalidRequest("routing code is required")
	}
	return nil
}
