package otel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewLogger(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := NewLogger(tracer)

	assert.NotNil(t, logger)
	assert.Equal(t, tracer, logger.tracer)
}

func TestLogger_Log(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")

	tests := []struct {
		name    string
		level   LogLevel
		message string
		fields  map[string]interface{}
	}{
		{
			name:    "Infoレベルのログ",
			level:   LogLevelInfo,
			message: "test message",
			fields:  map[string]interface{}{"key": "value"},
		},
		{
			name:    "Debugレベルのログ",
			level:   LogLevelDebug,
			message: "debug message",
			fields:  nil,
		},
		{
			name:    "Warnレベルのログ",
			level:   LogLevelWarn,
			message: "warn message",
			fields:  map[string]interface{}{"count": 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(tracer, &buf).WithService("wallet-api")
			logger.Log(context.Background(), tt.level, tt.message, tt.fields)

			var entry LogEntry
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, string(tt.level), entry.Level)
			assert.Equal(t, tt.message, entry.Message)
			assert.Equal(t, "wallet-api", entry.Service)
			assert.NotEmpty(t, entry.Timestamp)
			assert.Empty(t, entry.TraceID)
		})
	}
}

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &buf)

	logger.Error(context.Background(), "failed", errors.New("boom"), nil)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "boom", entry.Fields["error"])
}

func TestLogger_LogWithTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &buf)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.Info(ctx, "with trace", nil)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, traceID.String(), entry.TraceID)
	assert.Equal(t, spanID.String(), entry.SpanID)
}

func TestLogger_MinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &buf)
	logger.SetLevel(LogLevelWarn)

	logger.Debug(context.Background(), "hidden", nil)
	logger.Info(context.Background(), "hidden", nil)
	logger.Warn(context.Background(), "shown", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestLogger_Nil(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info(context.Background(), "ignored", nil)
		logger.Error(context.Background(), "ignored", errors.New("x"), nil)
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}
