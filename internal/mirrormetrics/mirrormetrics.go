// Package mirrormetrics holds the OpenTelemetry instrumentation for layout
// initialization: a counter of attempts by outcome and a duration
// histogram, registered against the global meter provider the demo CLI
// sets up in internal/observability.
package mirrormetrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome classifies one Initialize call for the init counter.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeNoop      Outcome = "noop"
	OutcomeMismatch  Outcome = "mismatch"
	OutcomeUnsafeID  Outcome = "unsafe_identifier"
	OutcomeEngineErr Outcome = "engine_error"
)

// Metrics holds the instruments layout initialization reports against.
type Metrics struct {
	initCounter  metric.Int64Counter
	initDuration metric.Float64Histogram
}

// Init creates the mirror_init_total counter and mirror_init_duration_seconds
// histogram against the global meter provider.
func Init() (*Metrics, error) {
	meter := otel.Meter("graphmirror")

	initCounter, err := meter.Int64Counter(
		"mirror.init.total",
		metric.WithDescription("Total number of layout initialization attempts, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("mirrormetrics: create init counter: %w", err)
	}

	initDuration, err := meter.Float64Histogram(
		"mirror.init.duration",
		metric.WithDescription("Duration of layout initialization attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("mirrormetrics: create init duration histogram: %w", err)
	}

	return &Metrics{initCounter: initCounter, initDuration: initDuration}, nil
}

// RecordInit records one layout initialization attempt.
func (m *Metrics) RecordInit(ctx context.Context, outcome Outcome, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	m.initCounter.Add(ctx, 1, attrs)
	m.initDuration.Record(ctx, duration.Seconds(), attrs)
}
