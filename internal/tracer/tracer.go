// Package tracer provides the tracing abstraction for Tabula query
// execution, with an OpenTelemetry adapter and a zero-cost no-op default.
package tracer

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans around executor entry points.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span is the minimal span surface the executor needs.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	RecordError(err error)
	SetStatus(code codes.Code, description string)
	End()
}

// NoopTracer is the default when tracing is not configured.
type NoopTracer struct{}

// StartSpan returns the context unchanged and a span that does nothing.
func (NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, NoopSpan{}
}

// NoopSpan ignores every call.
type NoopSpan struct{}

// SetAttributes does nothing.
func (NoopSpan) SetAttributes(...attribute.KeyValue) {}

// RecordError does nothing.
func (NoopSpan) RecordError(error) {}

// SetStatus does nothing.
func (NoopSpan) SetStatus(codes.Code, string) {}

// End does nothing.
func (NoopSpan) End() {}

// OtelTracer adapts a trace.Tracer from the OpenTelemetry SDK.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer wraps an OpenTelemetry tracer. The tracer must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// StartSpan opens an OpenTelemetry span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &OtelSpan{span: span}
}

// OtelSpan wraps a live OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

// SetAttributes forwards attributes to the underlying span.
func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) { s.span.SetAttributes(attrs...) }

// RecordError records the error on the underlying span.
func (s *OtelSpan) RecordError(err error) { s.span.RecordError(err) }

// SetStatus sets the status of the underlying span.
func (s *OtelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End completes the underlying span.
func (s *OtelSpan) End() { s.span.End() }

// QueryMetadata describes one executed statement for span annotation,
// following the OpenTelemetry database semantic conventions.
type QueryMetadata struct {
	SQL          string
	Args         []any
	Duration     time.Duration
	RowsAffected int64
	Error        error
	Database     string
	Operation    string
	Table        string
}

// AddQueryAttributes annotates span with the db.* semantic convention
// attributes for the executed statement.
func AddQueryAttributes(span Span, meta *QueryMetadata) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", meta.Database),
		attribute.String("db.statement", meta.SQL),
		attribute.String("db.operation", meta.Operation),
		attribute.Float64("db.duration_ms", float64(meta.Duration.Microseconds())/1000.0),
	}
	if meta.Table != "" {
		attrs = append(attrs, attribute.String("db.table", meta.Table))
	}
	if meta.RowsAffected > 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", meta.RowsAffected))
	}
	span.SetAttributes(attrs...)

	if meta.Error != nil {
		span.RecordError(meta.Error)
		span.SetStatus(codes.Error, meta.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// DetectOperation classifies a statement by its leading keyword.
// Returns SELECT, INSERT, UPDATE, DELETE, or UNKNOWN.
func DetectOperation(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))
	switch {
	case strings.HasPrefix(sql, "SELECT"), strings.HasPrefix(sql, "WITH"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}
