package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the reconciliation instruments.
type Metrics struct {
	outcomes metric.Int64Counter
	duration metric.Float64Histogram
}

func New(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("ledgerlink/reconcile")

	outcomes, err := meter.Int64Counter("reconcile_outcomes_total",
		metric.WithDescription("Reconciliation results by entry mode and outcome"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("reconcile_duration_seconds",
		metric.WithDescription("End-to-end reconciliation duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{outcomes: outcomes, duration: duration}, nil
}

func (m *Metrics) RecordOutcome(ctx context.Context, mode, outcome string) {
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordDuration(ctx context.Context, mode string, seconds float64) {
	m.duration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("mode", mode),
	))
}
