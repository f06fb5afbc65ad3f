package obs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeLogsRequestIDAndError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	ctx := WithRequestID(context.Background(), "abc")

	func() (err error) {
		defer Time(ctx, logger, "unit.op")(&err)
		return errors.New("boom")
	}()

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "op failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["req_id"])
	assert.Equal(t, "unit.op", fields["op"])
	assert.Equal(t, "boom", fields["error"])
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("loud")
	assert.Error(t, err)
}

func TestNewConsoleLoggerWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewConsoleLogger(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("attempt failed", zap.Int("attempt", 1))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "attempt failed")
	assert.Contains(t, out, `"attempt"`)
}

func TestTimeLogsExpectedErrorsAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	errMissing := errors.New("missing")

	func() (err error) {
		defer Time(context.Background(), logger, "archive.GetRun", errMissing)(&err)
		return fmt.Errorf("get run %q: %w", "x", errMissing)
	}()

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "op done", entries[0].Message)

	func() (err error) {
		defer Time(context.Background(), logger, "archive.GetRun", errMissing)(&err)
		return errors.New("connection refused")
	}()

	entries = logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}
