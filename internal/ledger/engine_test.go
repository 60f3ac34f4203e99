package ledger_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tirasundara/ledger-engine/internal/domain"
	"github.com/tirasundara/ledger-engine/internal/ledger"
)

// amount parses a decimal string into an Amount
func amount(t *testing.T, s string) domain.Amount {
	t.Helper()

	a, err := domain.ParseAmount(s)
	require.NoError(t, err)

	return a
}

// apply feeds txns to the engine and fails the test on any unexpected error
func apply(t *testing.T, e *ledger.Engine, txns ...domain.Transaction) {
	t.Helper()

	for _, txn := range txns {
		require.NoError(t, e.Apply(context.Background(), txn), "%s client=%d tx=%d", txn.Type, txn.Client, txn.ID)
	}
}

func account(t *testing.T, e *ledger.Engine, client domain.ClientID) domain.Account {
	t.Helper()

	acc, ok := e.Account(client)
	require.True(t, ok, "account %d not found", client)

	return acc
}

func TestEngine_Deposit(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e, domain.NewDeposit(1, 1, amount(t, "12345.67891")))

	assert.Equal(t, domain.Account{
		Client:    1,
		Available: 123456789,
		Held:      0,
		Total:     123456789,
		Locked:    false,
	}, account(t, e, 1))
}

func TestEngine_Withdrawal(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e,
		domain.NewDeposit(1, 1, amount(t, "12345.67891")),
		domain.NewWithdrawal(1, 2, amount(t, "2345.97891")),
	)

	assert.Equal(t, domain.Account{Client: 1, Available: 99997000, Total: 99997000}, account(t, e, 1))
}

func TestEngine_WithdrawalInsufficientFunds(t *testing.T) {
	e := ledger.NewEngine()
	apply(t, e, domain.NewDeposit(1, 1, amount(t, "12345.6789")))
	before := account(t, e, 1)

	err := e.Apply(context.Background(), domain.NewWithdrawal(1, 2, amount(t, "12345.6790")))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, before, account(t, e, 1))

	// A withdrawal from an unseen client creates an empty account and fails
	err = e.Apply(context.Background(), domain.NewWithdrawal(2, 3, amount(t, "1")))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, domain.NewAccount(2), account(t, e, 2))
}

func TestEngine_Dispute(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e,
		domain.NewDeposit(1, 1, 123456789),
		domain.NewDispute(1, 1),
	)

	assert.Equal(t, domain.Account{Client: 1, Available: 0, Held: 123456789, Total: 123456789}, account(t, e, 1))
	assert.Equal(t, 1, e.OpenDisputes())
}

func TestEngine_DisputeResolve(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e,
		domain.NewDeposit(1, 1, 123456789),
		domain.NewDispute(1, 1),
		domain.NewResolve(1, 1),
	)

	assert.Equal(t, domain.Account{Client: 1, Available: 123456789, Held: 0, Total: 123456789}, account(t, e, 1))
	assert.Equal(t, 0, e.OpenDisputes())

	// The deposit can be disputed again once the first dispute is resolved
	apply(t, e, domain.NewDispute(1, 1))
	assert.Equal(t, domain.Amount(123456789), account(t, e, 1).Held)
}

func TestEngine_DisputeChargeback(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e,
		domain.NewDeposit(1, 1, 123456789),
		domain.NewDispute(1, 1),
		domain.NewChargeback(1, 1),
	)

	locked := account(t, e, 1)
	assert.Equal(t, domain.Account{Client: 1, Available: 0, Held: 0, Total: 0, Locked: true}, locked)

	// Funds cannot move once the account is locked
	for _, txn := range []domain.Transaction{
		domain.NewDeposit(1, 2, 10000),
		domain.NewWithdrawal(1, 3, 0),
		domain.NewDispute(1, 1),
		domain.NewResolve(1, 1),
		domain.NewChargeback(1, 1),
	} {
		err := e.Apply(context.Background(), txn)
		assert.ErrorIs(t, err, domain.ErrAccountLocked, "%s", txn.Type)
		assert.Equal(t, locked, account(t, e, 1))
	}
}

func TestEngine_LockedPolicyAllow(t *testing.T) {
	e := ledger.NewEngine(ledger.WithLockedPolicy(ledger.LockedPolicyAllow))

	apply(t, e,
		domain.NewDeposit(1, 1, 50000),
		domain.NewDeposit(1, 2, 20000),
		domain.NewDispute(1, 1),
		domain.NewChargeback(1, 1),
		domain.NewDeposit(1, 3, 10000),
	)

	assert.Equal(t, domain.Account{Client: 1, Available: 30000, Held: 0, Total: 30000, Locked: true}, account(t, e, 1))

	// A charged back deposit cannot be disputed a second time
	err := e.Apply(context.Background(), domain.NewDispute(1, 1))
	assert.ErrorIs(t, err, domain.ErrAlreadyChargedBack)

	// locked never reverts, even after a resolve
	apply(t, e,
		domain.NewDispute(1, 2),
		domain.NewResolve(1, 2),
	)
	assert.True(t, account(t, e, 1).Locked)
}

func TestEngine_ResolveAndChargebackWithoutDispute(t *testing.T) {
	e := ledger.NewEngine()
	apply(t, e, domain.NewDeposit(1, 1, 123456789))
	before := account(t, e, 1)

	err := e.Apply(context.Background(), domain.NewResolve(1, 1))
	assert.ErrorIs(t, err, domain.ErrNotDisputed)
	assert.Equal(t, before, account(t, e, 1))

	err = e.Apply(context.Background(), domain.NewChargeback(1, 1))
	assert.ErrorIs(t, err, domain.ErrNotDisputed)
	assert.Equal(t, before, account(t, e, 1))

	err = e.Apply(context.Background(), domain.NewChargeback(1, 99))
	assert.ErrorIs(t, err, domain.ErrNotDisputed)
	assert.Equal(t, before, account(t, e, 1))
}

func TestEngine_DisputeRejections(t *testing.T) {
	e := ledger.NewEngine()
	apply(t, e,
		domain.NewDeposit(1, 1, 100000),
		domain.NewWithdrawal(1, 2, 10000),
		domain.NewDeposit(2, 3, 50000),
	)
	client1 := account(t, e, 1)
	client2 := account(t, e, 2)

	tests := []struct {
		name string
		txn  domain.Transaction
		want error
	}{
		{"unknown transaction", domain.NewDispute(1, 42), domain.ErrUnknownTransaction},
		{"other client's deposit", domain.NewDispute(2, 1), domain.ErrUnauthorizedDispute},
		{"withdrawal", domain.NewDispute(1, 2), domain.ErrNonDisputableType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Apply(context.Background(), tc.txn)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, domain.IsBusinessRejection(err))
			assert.Equal(t, client1, account(t, e, 1))
			assert.Equal(t, client2, account(t, e, 2))
			assert.Equal(t, 0, e.OpenDisputes())
		})
	}

	apply(t, e, domain.NewDispute(1, 1))
	disputed := account(t, e, 1)

	err := e.Apply(context.Background(), domain.NewDispute(1, 1))
	assert.ErrorIs(t, err, domain.ErrAlreadyDisputed)
	assert.Equal(t, disputed, account(t, e, 1))

	// Only the owner can settle a dispute
	err = e.Apply(context.Background(), domain.NewResolve(2, 1))
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDispute)
	err = e.Apply(context.Background(), domain.NewChargeback(2, 1))
	assert.ErrorIs(t, err, domain.ErrUnauthorizedDispute)
	assert.Equal(t, disputed, account(t, e, 1))
	assert.Equal(t, client2, account(t, e, 2))
	assert.Equal(t, 1, e.OpenDisputes())
}

func TestEngine_DisputeMoreThanAvailable(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e,
		domain.NewDeposit(1, 1, 1000000),
		domain.NewWithdrawal(1, 2, 600000),
		domain.NewDispute(1, 1),
	)

	// Only what is still available can be held
	assert.Equal(t, domain.Account{Client: 1, Available: 0, Held: 400000, Total: 400000}, account(t, e, 1))

	apply(t, e, domain.NewChargeback(1, 1))
	assert.Equal(t, domain.Account{Client: 1, Available: 0, Held: 0, Total: 0, Locked: true}, account(t, e, 1))
}

func TestEngine_ResolveRecomputesHeld(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e,
		domain.NewDeposit(1, 1, 100000),
		domain.NewDeposit(1, 2, 200000),
		domain.NewDeposit(2, 3, 500000),
		domain.NewDispute(1, 1),
		domain.NewDispute(1, 2),
		domain.NewDispute(2, 3),
	)
	assert.Equal(t, domain.Account{Client: 1, Available: 0, Held: 300000, Total: 300000}, account(t, e, 1))

	apply(t, e, domain.NewResolve(1, 1))

	// Client 2's open dispute does not count towards client 1's held funds
	assert.Equal(t, domain.Account{Client: 1, Available: 100000, Held: 200000, Total: 300000}, account(t, e, 1))
	assert.Equal(t, domain.Account{Client: 2, Available: 0, Held: 500000, Total: 500000}, account(t, e, 2))

	apply(t, e, domain.NewResolve(1, 2))
	assert.Equal(t, domain.Account{Client: 1, Available: 300000, Held: 0, Total: 300000}, account(t, e, 1))
}

func TestEngine_ResolveCapsHeldAtTotal(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e,
		domain.NewDeposit(1, 1, 100000),
		domain.NewDeposit(1, 2, 100000),
		domain.NewWithdrawal(1, 3, 150000),
		domain.NewDispute(1, 1),
		domain.NewDispute(1, 2),
	)
	assert.Equal(t, domain.Account{Client: 1, Available: 0, Held: 50000, Total: 50000}, account(t, e, 1))

	// The remaining dispute is for 10.0000 but the client only has 5.0000
	apply(t, e, domain.NewResolve(1, 1))
	assert.Equal(t, domain.Account{Client: 1, Available: 0, Held: 50000, Total: 50000}, account(t, e, 1))
}

func TestEngine_DuplicateTransactionID(t *testing.T) {
	e := ledger.NewEngine()
	apply(t, e, domain.NewDeposit(1, 1, 10000))

	err := e.Apply(context.Background(), domain.NewDeposit(1, 1, 10000))
	assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)

	err = e.Apply(context.Background(), domain.NewWithdrawal(1, 1, 10000))
	assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)

	assert.Equal(t, domain.Account{Client: 1, Available: 10000, Total: 10000}, account(t, e, 1))
}

func TestEngine_UnknownType(t *testing.T) {
	e := ledger.NewEngine()

	err := e.Apply(context.Background(), domain.Transaction{Type: "transfer", Client: 1, ID: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
	assert.False(t, domain.IsBusinessRejection(err))

	_, ok := e.Account(1)
	assert.False(t, ok)
}

func TestEngine_AccountsSortedByClient(t *testing.T) {
	e := ledger.NewEngine()

	apply(t, e,
		domain.NewDeposit(3, 1, 1),
		domain.NewDeposit(1, 2, 1),
		domain.NewDeposit(2, 3, 1),
	)

	accounts := e.Accounts()
	require.Len(t, accounts, 3)
	for i, acc := range accounts {
		assert.Equal(t, domain.ClientID(i+1), acc.Client)
	}
}

func TestEngine_LogsRejections(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := ledger.NewEngine(ledger.WithLogger(zap.New(core)))

	_ = e.Apply(context.Background(), domain.NewWithdrawal(4, 9, 10))

	entries := logs.FilterMessage("Transaction rejected").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "insufficient_funds", fields["reason"])
	assert.Equal(t, "withdrawal", fields["type"])
	assert.EqualValues(t, 4, fields["client"])
	assert.EqualValues(t, 9, fields["tx"])
}

// Replays a random stream and checks the account invariants after every record
func TestEngine_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := ledger.NewEngine(ledger.WithLockedPolicy(ledger.LockedPolicyAllow))

	types := []domain.TransactionType{domain.Deposit, domain.Withdrawal, domain.Dispute, domain.Resolve, domain.Chargeback}
	wasLocked := make(map[domain.ClientID]bool)
	nextID := domain.TransactionID(1)

	for i := 0; i < 5000; i++ {
		client := domain.ClientID(rng.Intn(5) + 1)
		txn := domain.Transaction{Type: types[rng.Intn(len(types))], Client: client}

		if txn.HasAmount() {
			txn.ID = nextID
			txn.Amount = domain.Amount(rng.Intn(1_000_000))
			nextID++
		} else {
			txn.ID = domain.TransactionID(rng.Intn(int(nextID)) + 1)
		}

		err := e.Apply(context.Background(), txn)
		if err != nil {
			require.True(t, domain.IsBusinessRejection(err), "unexpected error: %v", err)
		}

		for _, acc := range e.Accounts() {
			require.True(t, acc.Balanced(), "step %d: unbalanced account %+v", i, acc)
			if wasLocked[acc.Client] {
				require.True(t, acc.Locked, "step %d: account %d unlocked", i, acc.Client)
			}
			if acc.Locked && !wasLocked[acc.Client] {
				require.Equal(t, domain.Chargeback, txn.Type, "step %d: locked by %s", i, txn.Type)
				require.NoError(t, err)
			}
			wasLocked[acc.Client] = acc.Locked
		}
	}
}

func TestEngine_LargeDataset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large dataset in short mode")
	}

	e := ledger.NewEngine()
	for i := 0; i < 1_000_000; i++ {
		if err := e.Apply(context.Background(), domain.NewDeposit(1, domain.TransactionID(i), 12345)); err != nil {
			t.Fatalf("Unexpected error at %d: %v", i, err)
		}
	}

	assert.Equal(t, domain.Account{Client: 1, Available: 12345000000, Total: 12345000000}, account(t, e, 1))
}
