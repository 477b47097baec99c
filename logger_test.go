package kdgo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	decode := func(t *testing.T) map[string]any {
		t.Helper()
		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		buf.Reset()
		return rec
	}

	t.Run("Build", func(t *testing.T) {
		logger.WithDimension(3).LogBuild(ctx, 10, 3, 3, time.Millisecond, nil)
		rec := decode(t)
		assert.Equal(t, "INFO", rec["level"])
		assert.Equal(t, "build completed", rec["msg"])
		assert.InDelta(t, 10, rec["count"], 0)
		assert.InDelta(t, 3, rec["max_depth"], 0)
	})

	t.Run("SearchFailed", func(t *testing.T) {
		logger.LogSearch(ctx, time.Microsecond, errors.New("boom"))
		rec := decode(t)
		assert.Equal(t, "WARN", rec["level"])
		assert.Equal(t, "boom", rec["error"])
	})

	t.Run("Save", func(t *testing.T) {
		logger.WithSnapshot("a.kdt").LogSave(ctx, "a.kdt", 42, nil)
		rec := decode(t)
		assert.Equal(t, "a.kdt", rec["snapshot"])
		assert.InDelta(t, 42, rec["bytes"], 0)
	})

	t.Run("LoadFailed", func(t *testing.T) {
		logger.LogLoad(ctx, "a.kdt", 0, errors.New("missing"))
		rec := decode(t)
		assert.Equal(t, "ERROR", rec["level"])
		assert.Equal(t, "snapshot load failed", rec["msg"])
	})

	t.Run("Publish", func(t *testing.T) {
		logger.LogPublish(ctx, "a.kdt", nil)
		rec := decode(t)
		assert.Equal(t, "snapshot published", rec["msg"])
	})
}

func TestNoopLogger(t *testing.T) {
	logger := NoopLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.LogBuild(context.Background(), 1, 1, 0, 0, errors.New("ignored"))
}

func TestOptions(t *testing.T) {
	o := applyOptions([]Option{WithLogger(nil), WithMetricsCollector(nil), WithCodec(nil), nil})
	assert.NotNil(t, o.logger)
	assert.Equal(t, NoopMetricsCollector{}, o.metricsCollector)
	assert.NotNil(t, o.codec)

	o = applyOptions([]Option{WithWorkers(3), WithParallelThreshold(0)})
	assert.Equal(t, 3, o.workers)
	assert.Zero(t, o.parallelThreshold)
}
