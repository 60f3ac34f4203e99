package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/tirasundara/ledger-engine/internal/domain"
)

// LockedPolicy decides what happens to records that reference a locked account
type LockedPolicy string

const (
	// LockedPolicyFreeze rejects every record against a locked account
	LockedPolicyFreeze LockedPolicy = "freeze"
	// LockedPolicyAllow keeps processing records against a locked account
	LockedPolicyAllow LockedPolicy = "allow"
)

// ParseLockedPolicy maps a policy name to a LockedPolicy
func ParseLockedPolicy(s string) (LockedPolicy, error) {
	switch policy := LockedPolicy(strings.ToLower(strings.TrimSpace(s))); policy {
	case LockedPolicyFreeze, LockedPolicyAllow:
		return policy, nil
	}
	return "", fmt.Errorf("unknown locked account policy %q", s)
}

// Engine implements the domain.Ledger interface. It replays transactions one at
// a time against a Book and is not safe for concurrent use.
type Engine struct {
	book         *Book
	handlers     map[domain.TransactionType]Handler
	lockedPolicy LockedPolicy
	logger       *zap.Logger
	meter        metric.Meter
	metrics      *engineMetrics
}

var _ domain.Ledger = (*Engine)(nil)

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger rejections are reported to
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMeter sets the meter the engine counters are created from
func WithMeter(meter metric.Meter) Option {
	return func(e *Engine) {
		if meter != nil {
			e.meter = meter
		}
	}
}

// WithLockedPolicy sets the locked account policy
func WithLockedPolicy(policy LockedPolicy) Option {
	return func(e *Engine) {
		if policy != "" {
			e.lockedPolicy = policy
		}
	}
}

// WithHandler replaces the handler used for a transaction type
func WithHandler(txnType domain.TransactionType, handler Handler) Option {
	return func(e *Engine) {
		e.handlers[txnType] = handler
	}
}

// NewEngine creates a new Engine with the default handlers
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		book: NewBook(),
		handlers: map[domain.TransactionType]Handler{
			domain.Deposit:    NewDepositHandler(),
			domain.Withdrawal: NewWithdrawalHandler(),
			domain.Dispute:    NewDisputeHandler(),
			domain.Resolve:    NewResolveHandler(),
			domain.Chargeback: NewChargebackHandler(),
		},
		lockedPolicy: LockedPolicyFreeze,
		logger:       zap.NewNop(),
		meter:        otel.Meter(meterName),
	}

	for _, opt := range opts {
		opt(e)
	}

	metrics, err := newEngineMetrics(e.meter)
	if err != nil {
		e.logger.Warn("Falling back to no-op metrics", zap.Error(err))
		metrics = newNopEngineMetrics()
	}
	e.metrics = metrics

	return e
}

// Apply implements the domain.Ledger interface
func (e *Engine) Apply(ctx context.Context, txn domain.Transaction) error {
	handler, ok := e.handlers[txn.Type]
	if !ok {
		return fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidRecord, txn.Type)
	}

	acc := e.book.Account(txn.Client)

	var err error
	if acc.Locked && e.lockedPolicy == LockedPolicyFreeze {
		err = domain.ErrAccountLocked
	} else {
		err = handler.Handle(e.book, txn)
	}

	if err != nil {
		reason := domain.RejectionReason(err)
		e.logger.Debug("Transaction rejected",
			zap.String("type", string(txn.Type)),
			zap.Uint16("client", uint16(txn.Client)),
			zap.Uint32("tx", uint32(txn.ID)),
			zap.String("reason", reason),
		)
		e.metrics.recordRejected(ctx, txn.Type, reason)
		return err
	}

	e.metrics.recordApplied(ctx, txn.Type)
	return nil
}

// Account returns a copy of the account for client, if it has been referenced
func (e *Engine) Account(client domain.ClientID) (domain.Account, bool) {
	acc, ok := e.book.accounts[client]
	if !ok {
		return domain.Account{}, false
	}
	return *acc, true
}

// Accounts implements the domain.Ledger interface
func (e *Engine) Accounts() []domain.Account {
	accounts := make([]domain.Account, 0, len(e.book.accounts))
	for _, acc := range e.book.accounts {
		accounts = append(accounts, *acc)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Client < accounts[j].Client
	})

	return accounts
}

// OpenDisputes implements the domain.Ledger interface
func (e *Engine) OpenDisputes() int {
	return e.book.disputes.Len()
}
