package domain

// TransactionRepository defines the interface for reading the transaction log
type TransactionRepository interface {
	// ForEach calls fn for every well-formed record in input order. Iteration
	// stops at the first error returned by fn, which is returned as is.
	ForEach(fn func(Transaction) error) error
}
