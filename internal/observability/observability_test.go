package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "station", "A001")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "A001", entry["station"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("decoding member", "member", "INMET_CO_DF_A001.CSV")
	assert.Contains(t, buf.String(), "decoding member")
	assert.Contains(t, buf.String(), "INMET_CO_DF_A001.CSV")
}

func TestNewMetricsForTesting_Unregistered(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RowsDecoded.Add(3)
	a.ArchivesFetched.WithLabelValues("cached").Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(a.RowsDecoded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(a.ArchivesFetched.WithLabelValues("cached")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.RowsDecoded), 0)
}
