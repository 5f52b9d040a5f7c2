package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesToFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Info("state loaded")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"state loaded"`)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "chatty", Format: "console"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(-1), "debug must be disabled")
	assert.True(t, log.Core().Enabled(0), "info must be enabled")
}

func TestNew_BadPathFails(t *testing.T) {
	_, err := New(Config{OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "dir", "x.log")}})
	assert.Error(t, err)
}

func TestNew_AtomicLevelCanChange(t *testing.T) {
	atomic := zap.NewAtomicLevel()
	log, err := New(Config{Level: "warn", AtomicLevel: &atomic})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	atomic.SetLevel(ParseLevel("debug"))
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}
