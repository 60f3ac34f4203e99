package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tirasundara/ledger-engine/internal/domain"
)

// OutputFormatter defines the interface for formatting account balances
type OutputFormatter interface {
	Format(accounts []domain.Account) ([]byte, error)
	FileExtension() string
}

// NewFormatter returns the formatter for a format name
func NewFormatter(format string, prettyPrint bool) (OutputFormatter, error) {
	switch format {
	case "csv":
		return NewCSVFormatter(), nil
	case "json":
		return NewJSONFormatter(prettyPrint), nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", format)
}

var csvHeader = []string{"client", "available", "held", "total", "locked"}

// CSVFormatter formats accounts as CSV with one row per client
type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format implements the OutputFormatter interface for CSV
func (f *CSVFormatter) Format(accounts []domain.Account) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, acc := range accounts {
		record := []string{
			strconv.FormatUint(uint64(acc.Client), 10),
			acc.Available.String(),
			acc.Held.String(),
			acc.Total.String(),
			strconv.FormatBool(acc.Locked),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing account %d: %w", acc.Client, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV output: %w", err)
	}

	return buf.Bytes(), nil
}

func (f *CSVFormatter) FileExtension() string {
	return "csv"
}

// JSONFormatter formats accounts as a JSON array
type JSONFormatter struct {
	PrettyPrint bool
}

func NewJSONFormatter(prettyPrint bool) *JSONFormatter {
	return &JSONFormatter{
		PrettyPrint: prettyPrint,
	}
}

// Format implements the OutputFormatter interface for JSON
func (f *JSONFormatter) Format(accounts []domain.Account) ([]byte, error) {
	if accounts == nil {
		accounts = []domain.Account{}
	}
	if f.PrettyPrint {
		return json.MarshalIndent(accounts, "", "  ")
	}
	return json.Marshal(accounts)
}

func (f *JSONFormatter) FileExtension() string {
	return "json"
}
