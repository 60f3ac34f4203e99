package ledger

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/tirasundara/ledger-engine/internal/domain"
)

const meterName = "github.com/tirasundara/ledger-engine/internal/ledger"

// Metric names
const (
	MetricTransactionsApplied  = "ledger.transactions.applied"
	MetricTransactionsRejected = "ledger.transactions.rejected"
)

type engineMetrics struct {
	applied  metric.Int64Counter
	rejected metric.Int64Counter
}

func newEngineMetrics(meter metric.Meter) (*engineMetrics, error) {
	applied, err := meter.Int64Counter(MetricTransactionsApplied,
		metric.WithDescription("Transactions that changed account state"),
		metric.WithUnit("{transaction}"))
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter(MetricTransactionsRejected,
		metric.WithDescription("Transactions rejected by a business rule"),
		metric.WithUnit("{transaction}"))
	if err != nil {
		return nil, err
	}

	return &engineMetrics{applied: applied, rejected: rejected}, nil
}

func newNopEngineMetrics() *engineMetrics {
	m, _ := newEngineMetrics(noop.NewMeterProvider().Meter(meterName))
	return m
}

func (m *engineMetrics) recordApplied(ctx context.Context, txnType domain.TransactionType) {
	m.applied.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(txnType))))
}

func (m *engineMetrics) recordRejected(ctx context.Context, txnType domain.TransactionType, reason string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(txnType)),
		attribute.String("reason", reason),
	))
}
