package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Withdrawals() WithdrawalRepository
	Ledger() PointsLedger
	Transactor() Transactor
}
