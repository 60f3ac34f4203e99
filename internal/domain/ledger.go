package domain

import "context"

// Ledger applies transactions to an account table
type Ledger interface {
	// Apply folds a single transaction into the account table. A nil error
	// means state changed; business rejections are reported as errors for
	// which IsBusinessRejection returns true.
	Apply(ctx context.Context, txn Transaction) error

	// Accounts returns a snapshot of every account, ordered by client id
	Accounts() []Account

	// OpenDisputes returns the number of disputes not yet resolved or charged back
	OpenDisputes() int
}

// LedgerResult contains the result of a replay
type LedgerResult struct {
	Accounts     []Account
	Processed    int            // records handed to the ledger
	Applied      int            // records that changed state
	Skipped      int            // malformed rows dropped before reaching the ledger
	Rejected     map[string]int // business rejections, by reason
	OpenDisputes int
}

// RejectedCount returns the total number of rejected records
func (r LedgerResult) RejectedCount() int {
	count := 0
	for _, n := range r.Rejected {
		count += n
	}
	return count
}
