// Package observability provides OpenTelemetry tracing and metrics for the
// transcription pipeline.
//
// Metrics:
//
//	metrics, err := observability.NewJobMetrics(observability.Meter(observability.MeterName))
//	metrics.RecordSubmitted(ctx)
//	metrics.RecordStage(ctx, "convert", elapsed)
//
// Tracing:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanJob)
//	defer observability.EndSpan(span, err)
//
// Component wires both providers to an OTLP HTTP collector.
package observability
