package ledger

import "github.com/tirasundara/ledger-engine/internal/domain"

// DisputeRegistry tracks deposits that are currently under dispute, keyed by
// transaction id. An id that is not in the registry is not disputed.
type DisputeRegistry struct {
	open map[domain.TransactionID]domain.Transaction
}

// NewDisputeRegistry creates an empty DisputeRegistry
func NewDisputeRegistry() *DisputeRegistry {
	return &DisputeRegistry{
		open: make(map[domain.TransactionID]domain.Transaction),
	}
}

// Open registers a dispute on txn. It returns false, leaving the registry
// untouched, if a dispute on the same id is already open.
func (r *DisputeRegistry) Open(txn domain.Transaction) bool {
	if _, exists := r.open[txn.ID]; exists {
		return false
	}

	r.open[txn.ID] = txn
	return true
}

// Close removes the dispute on id and returns the disputed record
func (r *DisputeRegistry) Close(id domain.TransactionID) (domain.Transaction, bool) {
	txn, ok := r.open[id]
	if ok {
		delete(r.open, id)
	}
	return txn, ok
}

// Get returns the disputed record for id without closing the dispute
func (r *DisputeRegistry) Get(id domain.TransactionID) (domain.Transaction, bool) {
	txn, ok := r.open[id]
	return txn, ok
}

// IsDisputed reports whether id has an open dispute
func (r *DisputeRegistry) IsDisputed(id domain.TransactionID) bool {
	_, ok := r.open[id]
	return ok
}

// DisputedAmount sums the amounts of every open dispute belonging to client
func (r *DisputeRegistry) DisputedAmount(client domain.ClientID) domain.Amount {
	total := domain.ZeroAmount
	for _, txn := range r.open {
		if txn.Client == client {
			total = total.Add(txn.Amount)
		}
	}
	return total
}

// Len returns the number of open disputes
func (r *DisputeRegistry) Len() int {
	return len(r.open)
}
