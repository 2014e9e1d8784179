package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("chatty"))
}

func TestNewLoggerTo_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "json"}), "dataset")

	logger.Debug("hidden")
	logger.Info("dataset loaded", "records", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dataset loaded", entry["msg"])
	assert.Equal(t, "dataset", entry["component"])
	assert.EqualValues(t, 3, entry["records"])
}

func TestNewLoggerTo_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "text"}).Warn("slow filter")
	assert.Contains(t, buf.String(), `msg="slow filter"`)
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestStartSpan_Hierarchy(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")

	ctx, root := StartSpan(ctx, "GET /api/kpis")
	assert.Equal(t, "req-42", root.TraceID)
	assert.Empty(t, root.ParentID)
	assert.Len(t, root.SpanID, 16)

	_, child := StartSpan(ctx, "analytics.dashboard")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.NotEqual(t, root.SpanID, child.SpanID)

	_, orphan := StartSpan(context.Background(), "load")
	assert.Len(t, orphan.TraceID, 32)
}

func TestSpan_FinishAndError(t *testing.T) {
	_, span := StartSpan(context.Background(), "analytics.load")
	span.SetTag("source", "orders.csv")
	span.SetError(errors.New("boom"))
	span.Finish()

	require.NotNil(t, span.Duration)
	assert.Equal(t, SpanStatusError, span.Status)
	assert.Equal(t, "boom", span.Error)
	assert.Equal(t, "orders.csv", span.Tags["source"])

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("span", "span", span)
	assert.Contains(t, buf.String(), `"operation":"analytics.load"`)
	assert.Contains(t, buf.String(), `"status":"ERROR"`)
}
