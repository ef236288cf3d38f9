package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/relumip/pkg/errors"
)

func TestTestLoggerCapturesLevels(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.Info("layer encoded", LayerKey, 1, NeuronsKey, 2)
	logger.Warn("fallback", ModeKey, "standard")

	assert.False(t, logger.ContainsMessage("hidden"))
	assert.True(t, logger.ContainsMessage("layer encoded"))
	assert.True(t, logger.ContainsField(LayerKey, 1.0))
	assert.True(t, logger.ContainsField(ModeKey, "standard"))
}

func TestTestLoggerWithSharesBuffer(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)
	child := logger.With(ComponentKey, "bounds")

	child.Info("propagated")

	assert.Contains(t, buffer.String(), `"component":"bounds"`)
	assert.Equal(t, 1, logger.CountMessages("propagated"))
}

func TestTestLoggerConcurrentWrites(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Debug("neuron tightened", NeuronKey, n)
		}(i)
	}
	wg.Wait()

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 16)
}

func TestZerologLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug).With(ComponentKey, "milp")

	logger.Info("solved", StatusKey, "optimal", NodesKey, 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "solved", entry["message"])
	assert.Equal(t, "milp", entry[ComponentKey])
	assert.Equal(t, "optimal", entry[StatusKey])
	assert.Equal(t, 3.0, entry[NodesKey])
}

func TestZerologLoggerErrorIncludesDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	err := errors.NewDimensionError("formulation.Encode", 2, 1, 1)
	logger.Error("encode failed", err, LayerKey, 1)

	out := buf.String()
	assert.Contains(t, out, "dimension mismatch")
	assert.Contains(t, out, `"type":"DimensionError"`)
}

func TestZerologLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	assert.False(t, strings.Contains(buf.String(), "dropped"))
	assert.True(t, strings.Contains(buf.String(), "kept"))
	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Error("nothing", errors.New("boom"))
	assert.False(t, logger.Enabled(context.Background(), LevelError))
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	previous := GetLogger()
	defer SetLogger(previous)
	defer errors.SetWarnFunc(nil)

	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, "debug")
	errors.Warn(errors.NewTighteningFallbackWarning(1, 0, "lower", "infeasible"))

	assert.Contains(t, buf.String(), "TighteningFallbackWarning")
}

func TestToLogLevelPanicsOnUnknown(t *testing.T) {
	assert.Equal(t, LevelWarn, ToLogLevel("warn"))
	assert.Panics(t, func() { ToLogLevel("verbose") })
}
