package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/kbukum/voicenote/logger"
)

// MeterName is the instrumentation scope of the job metrics.
const MeterName = "github.com/kbukum/voicenote"

// Job status attribute values.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// InitMeter initializes the OpenTelemetry meter provider with an OTLP HTTP exporter.
// The returned provider must be shut down on application exit.
func InitMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// JobMetrics holds the instruments describing scheduler and pipeline activity.
// A nil *JobMetrics is valid and records nothing.
type JobMetrics struct {
	submitted     metric.Int64Counter
	completed     metric.Int64Counter
	executing     metric.Int64UpDownCounter
	queued        metric.Int64UpDownCounter
	jobDuration   metric.Float64Histogram
	stageDuration metric.Float64Histogram
}

// NewJobMetrics creates the job instruments on the given meter.
func NewJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	submitted, err := meter.Int64Counter("jobs.submitted",
		metric.WithDescription("Total number of submitted transcription jobs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.submitted counter: %w", err)
	}

	completed, err := meter.Int64Counter("jobs.completed",
		metric.WithDescription("Total number of finished jobs by status and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.completed counter: %w", err)
	}

	executing, err := meter.Int64UpDownCounter("jobs.executing",
		metric.WithDescription("Number of jobs currently holding a concurrency slot"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.executing gauge: %w", err)
	}

	queued, err := meter.Int64UpDownCounter("jobs.queued",
		metric.WithDescription("Number of jobs waiting for admission"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.queued gauge: %w", err)
	}

	jobDuration, err := meter.Float64Histogram("job.duration",
		metric.WithDescription("Wall time of a job from admission to result"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating job.duration histogram: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("stage.duration",
		metric.WithDescription("Wall time of a single pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.duration histogram: %w", err)
	}

	return &JobMetrics{
		submitted:     submitted,
		completed:     completed,
		executing:     executing,
		queued:        queued,
		jobDuration:   jobDuration,
		stageDuration: stageDuration,
	}, nil
}

// RecordSubmitted counts a new job entering the queue.
func (m *JobMetrics) RecordSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1)
	m.queued.Add(ctx, 1)
}

// RecordAdmitted moves a job from the queue to an execution slot.
func (m *JobMetrics) RecordAdmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.queued.Add(ctx, -1)
	m.executing.Add(ctx, 1)
}

// RecordDropped removes a job that left the queue without being admitted.
func (m *JobMetrics) RecordDropped(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.queued.Add(ctx, -1)
	m.completed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", StatusFailed),
		attribute.String("code", code),
	))
}

// RecordFinished releases an execution slot and records the job outcome.
// code is empty for successful jobs.
func (m *JobMetrics) RecordFinished(ctx context.Context, code string, duration time.Duration) {
	if m == nil {
		return
	}
	status := StatusSucceeded
	if code != "" {
		status = StatusFailed
	}
	m.executing.Add(ctx, -1)
	m.completed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("code", code),
	))
	m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("status", status),
	))
}

// RecordStage records the duration of one pipeline stage.
func (m *JobMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}
