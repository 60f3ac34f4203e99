package ledger

import "github.com/tirasundara/ledger-engine/internal/domain"

// History is an append-only index of every applied deposit and withdrawal.
// Disputes look their target up here instead of rescanning the input.
type History struct {
	records     map[domain.TransactionID]domain.Transaction
	chargedBack map[domain.TransactionID]struct{}
}

// NewHistory creates an empty History
func NewHistory() *History {
	return &History{
		records:     make(map[domain.TransactionID]domain.Transaction),
		chargedBack: make(map[domain.TransactionID]struct{}),
	}
}

// Record adds txn to the index. The first record for an id wins; a later one
// with the same id is refused.
func (h *History) Record(txn domain.Transaction) bool {
	if _, exists := h.records[txn.ID]; exists {
		return false
	}

	h.records[txn.ID] = txn
	return true
}

// Contains reports whether id has been recorded
func (h *History) Contains(id domain.TransactionID) bool {
	_, ok := h.records[id]
	return ok
}

// Lookup returns the record stored for id
func (h *History) Lookup(id domain.TransactionID) (domain.Transaction, bool) {
	txn, ok := h.records[id]
	return txn, ok
}

// MarkChargedBack remembers that the deposit with this id was reversed
func (h *History) MarkChargedBack(id domain.TransactionID) {
	h.chargedBack[id] = struct{}{}
}

// ChargedBack reports whether the deposit with this id was reversed
func (h *History) ChargedBack(id domain.TransactionID) bool {
	_, ok := h.chargedBack[id]
	return ok
}

// Len returns the number of recorded transactions
func (h *History) Len() int {
	return len(h.records)
}
