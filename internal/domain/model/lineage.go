package model

// PaymentMethod identifies how a payment funding a point transaction was made.
type PaymentMethod string

const (
	PaymentMethodVoucher      PaymentMethod = "VOUCHER"
	PaymentMethodPoints       PaymentMethod = "POINTS"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// PaymentLineageEntry is read-only provenance of a source point transaction.
type PaymentLineageEntry struct {
	PaymentID     string
	PaymentMethod PaymentMethod
	Amount        int64
	OperationCode *string
	TicketNumber  *string
}

// AllocationDetail joins an allocation with the payments that funded its source.
type AllocationDetail struct {
	WithdrawalAllocation
	PaymentLineage []PaymentLineageEntry
}

// WithdrawalDetail is the audit projection returned by detail reads.
type WithdrawalDetail struct {
	Withdrawal  Withdrawal
	Allocations []AllocationDetail
}
