package domain

import (
	"fmt"
	"strings"
)

// TransactionType represents the type of transaction
type TransactionType string

// Transaction types, as they appear in the input
const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
	Dispute    TransactionType = "dispute"
	Resolve    TransactionType = "resolve"
	Chargeback TransactionType = "chargeback"
)

// ParseTransactionType maps a (case-insensitive) type name to a TransactionType
func ParseTransactionType(s string) (TransactionType, error) {
	txnType := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	switch txnType {
	case Deposit, Withdrawal, Dispute, Resolve, Chargeback:
		return txnType, nil
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrInvalidRecord, s)
}

// CarriesAmount reports whether records of this type carry an amount.
// Dispute, resolve and chargeback reference an earlier transaction instead.
func (t TransactionType) CarriesAmount() bool {
	return t == Deposit || t == Withdrawal
}

// ClientID identifies a client account
type ClientID uint16

// TransactionID identifies a deposit or withdrawal
type TransactionID uint32

// Transaction is a single parsed input event. It is passed by value and never
// mutated after construction.
type Transaction struct {
	Type   TransactionType
	Client ClientID
	ID     TransactionID
	Amount Amount // zero unless Type.CarriesAmount()
}

// NewDeposit creates a deposit record
func NewDeposit(client ClientID, id TransactionID, amount Amount) Transaction {
	return Transaction{Type: Deposit, Client: client, ID: id, Amount: amount}
}

// NewWithdrawal creates a withdrawal record
func NewWithdrawal(client ClientID, id TransactionID, amount Amount) Transaction {
	return Transaction{Type: Withdrawal, Client: client, ID: id, Amount: amount}
}

// NewDispute creates a dispute against transaction id
func NewDispute(client ClientID, id TransactionID) Transaction {
	return Transaction{Type: Dispute, Client: client, ID: id}
}

// NewResolve creates a resolve for the dispute on transaction id
func NewResolve(client ClientID, id TransactionID) Transaction {
	return Transaction{Type: Resolve, Client: client, ID: id}
}

// NewChargeback creates a chargeback for the dispute on transaction id
func NewChargeback(client ClientID, id TransactionID) Transaction {
	return Transaction{Type: Chargeback, Client: client, ID: id}
}

// HasAmount reports whether the record carries an amount
func (t Transaction) HasAmount() bool {
	return t.Type.CarriesAmount()
}
