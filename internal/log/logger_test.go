package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestLogger_JSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatJSON, Component: ComponentLedger, Output: &buf})

	logger.InfoContext(context.Background(), "stored", FieldKey, "expenses")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stored", line["msg"])
	assert.Equal(t, ComponentLedger, line[FieldComponent])
	assert.Equal(t, "expenses", line[FieldKey])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf, Component: ComponentApp})
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatJSON, Output: &buf, Component: ComponentApp}).WithComponent(ComponentNotify)
	logger.Info("sent")

	assert.Equal(t, 1, strings.Count(buf.String(), `"component"`))
	assert.Equal(t, ComponentNotify, logger.Component())
}

func TestContextRoundTrip(t *testing.T) {
	logger := New(DefaultConfig()).WithComponent(ComponentWorker)
	ctx := WithContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))

	sl.LogExpenseCreated(context.Background(), "e1", "Food", decimal.RequireFromString("12.5"), "2025 Expenses!A2")
	sl.LogError(context.Background(), "append failed", errors.New("boom"), ComponentSheets, OpAppend, nil)
	sl.LogExpenseExported(context.Background(), "e1", "Food", decimal.RequireFromString("12.5"), "2025 Expenses!A3")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "12.50", first[FieldAmount])
	assert.Equal(t, ComponentLedger, first[FieldComponent])
	assert.Equal(t, "2025 Expenses!A2", first[FieldSheetsRef])
	assert.Equal(t, "boom", second[FieldError])
	assert.Equal(t, OpAppend, second[FieldOperation])
	assert.Equal(t, ComponentSheets, second[FieldComponent])

	var third map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	assert.Equal(t, OpSync, third[FieldOperation])
	assert.Equal(t, ComponentSheets, third[FieldComponent])
	assert.Equal(t, "2025 Expenses!A3", third[FieldSheetsRef])
}
