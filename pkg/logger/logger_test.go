package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/abgdnv/shopcart/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func Test_ContextHandler_AddsRequestAndTraceID(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(web.WithRequestID(context.Background(), "req-1"), sc)

	// when
	logger.InfoContext(ctx, "hello")

	// then
	record := decode(t, &buf)
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", record["trace_id"])
}

func Test_ContextHandler_WithoutContextValues(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "cart")

	// when
	logger.InfoContext(context.Background(), "hello")

	// then
	record := decode(t, &buf)
	assert.Equal(t, "cart", record["component"])
	assert.NotContains(t, record, "request_id")
	assert.NotContains(t, record, "trace_id")
}
