package ledger

import "github.com/tirasundara/ledger-engine/internal/domain"

// Book is the mutable state a replay works on: the account table, the open
// disputes and the index of applied deposits and withdrawals.
type Book struct {
	accounts map[domain.ClientID]*domain.Account
	disputes *DisputeRegistry
	history  *History
}

// NewBook creates an empty Book
func NewBook() *Book {
	return &Book{
		accounts: make(map[domain.ClientID]*domain.Account),
		disputes: NewDisputeRegistry(),
		history:  NewHistory(),
	}
}

// Account returns the account for client, creating it on first reference
func (b *Book) Account(client domain.ClientID) *domain.Account {
	acc, ok := b.accounts[client]
	if !ok {
		created := domain.NewAccount(client)
		acc = &created
		b.accounts[client] = acc
	}
	return acc
}

// Disputes returns the dispute registry
func (b *Book) Disputes() *DisputeRegistry {
	return b.disputes
}

// History returns the transaction index
func (b *Book) History() *History {
	return b.history
}

// Handler applies one type of transaction to a Book. It returns nil when state
// changed and a business rejection error when it left the Book untouched.
type Handler interface {
	Handle(book *Book, txn domain.Transaction) error
}

// DepositHandler credits available funds
type DepositHandler struct{}

// NewDepositHandler creates a new DepositHandler
func NewDepositHandler() *DepositHandler {
	return &DepositHandler{}
}

// Handle implements the Handler interface
func (h *DepositHandler) Handle(book *Book, txn domain.Transaction) error {
	if book.history.Contains(txn.ID) {
		return domain.ErrDuplicateTransaction
	}

	acc := book.Account(txn.Client)
	acc.Available = acc.Available.Add(txn.Amount)
	acc.Total = acc.Total.Add(txn.Amount)

	book.history.Record(txn)
	return nil
}

// WithdrawalHandler debits available funds when they cover the amount
type WithdrawalHandler struct{}

// NewWithdrawalHandler creates a new WithdrawalHandler
func NewWithdrawalHandler() *WithdrawalHandler {
	return &WithdrawalHandler{}
}

// Handle implements the Handler interface
func (h *WithdrawalHandler) Handle(book *Book, txn domain.Transaction) error {
	if book.history.Contains(txn.ID) {
		return domain.ErrDuplicateTransaction
	}

	acc := book.Account(txn.Client)

	available, ok := acc.Available.CheckedSub(txn.Amount)
	if !ok {
		return domain.ErrInsufficientFunds
	}

	// total = available + held >= amount
	acc.Available = available
	acc.Total -= txn.Amount

	book.history.Record(txn)
	return nil
}

// DisputeHandler moves the funds of a disputed deposit from available to held
type DisputeHandler struct{}

// NewDisputeHandler creates a new DisputeHandler
func NewDisputeHandler() *DisputeHandler {
	return &DisputeHandler{}
}

// Handle implements the Handler interface.
//
// When the client has already spent part of the deposit only what is still
// available is held, so held never exceeds what was available at the time.
func (h *DisputeHandler) Handle(book *Book, txn domain.Transaction) error {
	disputed, ok := book.history.Lookup(txn.ID)
	if !ok {
		return domain.ErrUnknownTransaction
	}

	if disputed.Client != txn.Client {
		return domain.ErrUnauthorizedDispute
	}

	if disputed.Type != domain.Deposit {
		return domain.ErrNonDisputableType
	}

	if book.history.ChargedBack(txn.ID) {
		return domain.ErrAlreadyChargedBack
	}

	if book.disputes.IsDisputed(txn.ID) {
		return domain.ErrAlreadyDisputed
	}

	acc := book.Account(txn.Client)
	acc.Held = acc.Held.Add(domain.MinAmount(acc.Available, disputed.Amount))
	acc.Available = acc.Available.SaturatingSub(disputed.Amount)

	book.disputes.Open(disputed)
	return nil
}

// ResolveHandler closes a dispute and releases its funds
type ResolveHandler struct{}

// NewResolveHandler creates a new ResolveHandler
func NewResolveHandler() *ResolveHandler {
	return &ResolveHandler{}
}

// Handle implements the Handler interface.
//
// Held is recomputed from the disputes the client still has open, capped at
// total, rather than by adding the released amount back.
func (h *ResolveHandler) Handle(book *Book, txn domain.Transaction) error {
	disputed, err := lookupOpenDispute(book, txn)
	if err != nil {
		return err
	}

	book.disputes.Close(disputed.ID)

	acc := book.Account(txn.Client)
	acc.Held = domain.MinAmount(book.disputes.DisputedAmount(txn.Client), acc.Total)
	acc.Available = acc.Total.SaturatingSub(acc.Held)

	return nil
}

// ChargebackHandler reverses a disputed deposit and locks the account
type ChargebackHandler struct{}

// NewChargebackHandler creates a new ChargebackHandler
func NewChargebackHandler() *ChargebackHandler {
	return &ChargebackHandler{}
}

// Handle implements the Handler interface
func (h *ChargebackHandler) Handle(book *Book, txn domain.Transaction) error {
	disputed, err := lookupOpenDispute(book, txn)
	if err != nil {
		return err
	}

	book.disputes.Close(disputed.ID)
	book.history.MarkChargedBack(disputed.ID)

	acc := book.Account(txn.Client)
	acc.Held = acc.Held.SaturatingSub(disputed.Amount)
	acc.Total = acc.Held.Add(acc.Available)
	acc.Locked = true

	return nil
}

// lookupOpenDispute finds the open dispute a resolve or chargeback refers to
func lookupOpenDispute(book *Book, txn domain.Transaction) (domain.Transaction, error) {
	disputed, ok := book.disputes.Get(txn.ID)
	if !ok {
		return domain.Transaction{}, domain.ErrNotDisputed
	}

	if disputed.Client != txn.Client {
		return domain.Transaction{}, domain.ErrUnauthorizedDispute
	}

	return disputed, nil
}
