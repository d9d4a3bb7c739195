// Tracing instrumentation for the dispatch loop.
package dispatch

import (
	"context"

	"github.com/vinayprograms/agentkit/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vinayprograms/planner/internal/dispatch"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// startTurnSpan starts the span covering a whole turn.
func startTurnSpan(ctx context.Context, traceID, groupID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "dispatch.turn", trace.WithAttributes(
		attribute.String("turn.trace_id", traceID),
		attribute.String("turn.group_id", groupID),
	))
}

func endTurnSpan(span trace.Span, stopReason string, iterations int, err error) {
	span.SetAttributes(
		attribute.String("turn.stop_reason", stopReason),
		attribute.Int("turn.iterations", iterations),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// startModelSpan starts a span for one model call.
func startModelSpan(ctx context.Context, provider string, messages int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "dispatch.model", trace.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.Int("llm.messages", messages),
	))
}

func endModelSpan(span trace.Span, resp *llm.ChatResponse, err error) {
	if resp != nil {
		span.SetAttributes(
			attribute.String("llm.model", resp.Model),
			attribute.Int("llm.input_tokens", resp.InputTokens),
			attribute.Int("llm.output_tokens", resp.OutputTokens),
			attribute.Int("llm.tool_calls", len(resp.ToolCalls)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// startToolSpan starts a span for a backend tool execution.
func startToolSpan(ctx context.Context, name, callID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "dispatch.tool", trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.call_id", callID),
	))
}

func endToolSpan(span trace.Span, status string, resultLen int, err error) {
	span.SetAttributes(
		attribute.String("tool.status", status),
		attribute.Int("tool.result_len", resultLen),
	)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
