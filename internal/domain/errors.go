package domain

import "errors"

// Parse errors. These reject a single input record.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRecord = errors.New("invalid transaction record")
)

// Business outcomes. The engine returns these when a record is well formed but
// is not allowed to change state; processing continues with the next record.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrUnknownTransaction   = errors.New("unknown transaction")
	ErrNotDisputed          = errors.New("transaction is not disputed")
	ErrUnauthorizedDispute  = errors.New("client does not own the disputed transaction")
	ErrNonDisputableType    = errors.New("only deposits can be disputed")
	ErrAlreadyDisputed      = errors.New("transaction is already disputed")
	ErrAlreadyChargedBack   = errors.New("transaction was already charged back")
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
	ErrAccountLocked        = errors.New("account is locked")
)

var businessRejections = []struct {
	err    error
	reason string
}{
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrUnknownTransaction, "unknown_transaction"},
	{ErrNotDisputed, "not_disputed"},
	{ErrUnauthorizedDispute, "unauthorized_dispute"},
	{ErrNonDisputableType, "non_disputable_type"},
	{ErrAlreadyDisputed, "already_disputed"},
	{ErrAlreadyChargedBack, "already_charged_back"},
	{ErrDuplicateTransaction, "duplicate_transaction"},
	{ErrAccountLocked, "account_locked"},
}

// IsBusinessRejection reports whether err is an expected no-op outcome rather
// than a failure
func IsBusinessRejection(err error) bool {
	return RejectionReason(err) != ""
}

// RejectionReason returns a short machine-readable label for a business
// rejection, or "" when err is not one
func RejectionReason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range businessRejections {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ""
}
