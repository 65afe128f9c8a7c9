package worker

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "prompt-companion"

// Metrics holds the worker's metric instruments.
type Metrics struct {
	Resolutions        metric.Int64Counter
	ResolutionWarnings metric.Int64Counter
	TriggerScans       metric.Int64Counter
	ImportsApplied     metric.Int64Counter
	ResolveDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Resolutions, err = meter.Int64Counter("companion.resolutions",
		metric.WithDescription("Number of subprompt resolutions served"))
	if err != nil {
		return nil, err
	}

	m.ResolutionWarnings, err = meter.Int64Counter("companion.resolution.warnings",
		metric.WithDescription("Dangling and circular reference warnings emitted"))
	if err != nil {
		return nil, err
	}

	m.TriggerScans, err = meter.Int64Counter("companion.trigger.scans",
		metric.WithDescription("Number of checkpoint trigger-word scans"))
	if err != nil {
		return nil, err
	}

	m.ImportsApplied, err = meter.Int64Counter("companion.imports.applied",
		metric.WithDescription("Number of library imports applied"))
	if err != nil {
		return nil, err
	}

	m.ResolveDuration, err = meter.Float64Histogram("companion.resolve.duration_seconds",
		metric.WithDescription("Resolution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
