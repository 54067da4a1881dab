package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type querySpanKey struct{}

// PGXTracer is a pgx.QueryTracer that wraps every statement in a span.
type PGXTracer struct{}

// TraceQueryStart opens a span carrying the statement and its leading verb.
func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, span := otel.Tracer("db.pgx").Start(ctx, "pgx.query")
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", statementAttr(data.SQL)),
	)
	if verb := strings.Fields(data.SQL); len(verb) > 0 {
		span.SetAttributes(attribute.String("db.operation", verb[0]))
	}
	return context.WithValue(ctx, querySpanKey{}, span)
}

// TraceQueryEnd closes the span opened by TraceQueryStart.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(querySpanKey{}).(trace.Span)
	if !ok {
		return
	}
	if data.Err != nil {
		span.RecordError(data.Err)
	}
	span.End()
}

// statementAttr caps the recorded statement so large inserts do not bloat spans.
func statementAttr(sql string) string {
	sql = strings.TrimSpace(sql)
	if len(sql) > 300 {
		return sql[:300] + "..."
	}
	return sql
}
