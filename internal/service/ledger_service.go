package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tirasundara/ledger-engine/internal/domain"
)

// skipCounter is implemented by repositories that drop malformed rows
type skipCounter interface {
	Skipped() int
}

// LedgerService orchestrates a replay of the transaction log
type LedgerService struct {
	repo   domain.TransactionRepository
	ledger domain.Ledger
	logger *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repo domain.TransactionRepository, ledger domain.Ledger, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LedgerService{
		repo:   repo,
		ledger: ledger,
		logger: logger,
	}
}

// Process replays every transaction in the log, in order, and returns the
// resulting accounts. Business rejections are counted, not returned.
func (s *LedgerService) Process(ctx context.Context) (domain.LedgerResult, error) {
	result := domain.LedgerResult{
		Rejected: make(map[string]int),
	}

	err := s.repo.ForEach(func(txn domain.Transaction) error {
		result.Processed++

		err := s.ledger.Apply(ctx, txn)
		switch {
		case err == nil:
			result.Applied++
		case domain.IsBusinessRejection(err):
			result.Rejected[domain.RejectionReason(err)]++
		default:
			return fmt.Errorf("applying %s tx %d for client %d: %w", txn.Type, txn.ID, txn.Client, err)
		}

		return nil
	})
	if err != nil {
		return domain.LedgerResult{}, fmt.Errorf("processing transactions: %w", err)
	}

	if counter, ok := s.repo.(skipCounter); ok {
		result.Skipped = counter.Skipped()
	}

	result.Accounts = s.ledger.Accounts()
	result.OpenDisputes = s.ledger.OpenDisputes()

	s.logger.Info("Replay finished",
		zap.Int("processed", result.Processed),
		zap.Int("applied", result.Applied),
		zap.Int("rejected", result.RejectedCount()),
		zap.Int("skipped", result.Skipped),
		zap.Int("accounts", len(result.Accounts)),
		zap.Int("open_disputes", result.OpenDisputes),
	)

	return result, nil
}
