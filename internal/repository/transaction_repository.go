package repository

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tirasundara/ledger-engine/internal/domain"
	"github.com/tirasundara/ledger-engine/pkg/fileutil"
)

// Column names of the transaction log
const (
	columnType   = "type"
	columnClient = "client"
	columnTx     = "tx"
	columnAmount = "amount"
)

var (
	transactionHeaderFields = []string{columnType, columnClient, columnTx}
	optionalHeaderFields    = []string{columnAmount}
)

// Mode decides what happens to rows that cannot be parsed
type Mode string

const (
	// ModeLenient logs and skips invalid rows
	ModeLenient Mode = "lenient"
	// ModeStrict aborts on the first invalid row
	ModeStrict Mode = "strict"
)

// ParseMode maps a mode name to a Mode
func ParseMode(s string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ModeLenient, ModeStrict:
		return mode, nil
	}
	return "", fmt.Errorf("unknown parse mode %q", s)
}

// CSVTransactionRepository implements the TransactionRepository interface for a
// CSV transaction log with the columns type, client, tx and amount
type CSVTransactionRepository struct {
	reader  *fileutil.CSVReader
	mode    Mode
	logger  *zap.Logger
	skipped int
}

// Option configures a CSVTransactionRepository
type Option func(*CSVTransactionRepository)

// WithMode sets the parse mode. The default is ModeLenient.
func WithMode(mode Mode) Option {
	return func(r *CSVTransactionRepository) {
		if mode != "" {
			r.mode = mode
		}
	}
}

// WithLogger sets the logger skipped rows are reported to
func WithLogger(logger *zap.Logger) Option {
	return func(r *CSVTransactionRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewCSVTransactionRepository creates a new CSVTransactionRepository reading fp
func NewCSVTransactionRepository(fp string, opts ...Option) *CSVTransactionRepository {
	return newCSVTransactionRepository(fileutil.NewCSVReader(fp), opts...)
}

// NewCSVTransactionRepositoryFrom creates a CSVTransactionRepository that reads
// from r. It can be iterated once.
func NewCSVTransactionRepositoryFrom(r io.Reader, opts ...Option) *CSVTransactionRepository {
	return newCSVTransactionRepository(fileutil.NewCSVReaderFrom(r), opts...)
}

func newCSVTransactionRepository(reader *fileutil.CSVReader, opts ...Option) *CSVTransactionRepository {
	r := &CSVTransactionRepository{
		reader: reader,
		mode:   ModeLenient,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Skipped returns the number of rows dropped by the last ForEach in lenient mode
func (r *CSVTransactionRepository) Skipped() int {
	return r.skipped
}

// ForEach implements the TransactionRepository interface
func (r *CSVTransactionRepository) ForEach(fn func(domain.Transaction) error) error {
	r.skipped = 0

	var columnMap map[string]int
	headerFn := func(header []string) error {
		var err error
		columnMap, err = createHeaderMap(header, transactionHeaderFields, optionalHeaderFields)
		if err != nil {
			return fmt.Errorf("mapping CSV columns: %w", err)
		}
		return nil
	}

	rowProcessorFn := func(row fileutil.Row) error {
		txn, err := parseTransaction(row.Fields, columnMap)
		if err != nil {
			if r.mode == ModeStrict {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}

			// Log but continue processing other rows
			r.logger.Warn("Skipping invalid row", zap.Int("line", row.Line), zap.Error(err))
			r.skipped++
			return nil
		}

		return fn(txn)
	}

	return r.reader.ReadAndProcessByRow(headerFn, rowProcessorFn)
}

// parseTransaction builds a Transaction from a CSV row. Amounts on dispute,
// resolve and chargeback rows are ignored.
func parseTransaction(row []string, columnMap map[string]int) (domain.Transaction, error) {
	field := func(column string) string {
		idx, ok := columnMap[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	txnType, err := domain.ParseTransactionType(field(columnType))
	if err != nil {
		return domain.Transaction{}, err
	}

	client, err := strconv.ParseUint(field(columnClient), 10, 16)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: client: %v", domain.ErrInvalidRecord, err)
	}

	id, err := strconv.ParseUint(field(columnTx), 10, 32)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: tx: %v", domain.ErrInvalidRecord, err)
	}

	txn := domain.Transaction{
		Type:   txnType,
		Client: domain.ClientID(client),
		ID:     domain.TransactionID(id),
	}

	if txnType.CarriesAmount() {
		amount, err := domain.ParseAmount(field(columnAmount))
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("%s amount: %w", txnType, err)
		}
		txn.Amount = amount
	}

	return txn, nil
}
