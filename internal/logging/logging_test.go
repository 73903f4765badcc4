package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger_Restores(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger
	restore := SetLogger(zap.New(core))

	Warn("missing pricing", RuleID("r1"), SKU("HARDIE-PLANK"), Manufacturer("James Hardie"), Formula("a * 2"))
	With(zap.String("takeoff_id", "t1")).Info("done")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r1", fields["rule_id"])
	assert.Equal(t, "HARDIE-PLANK", fields["sku"])
	assert.Equal(t, "James Hardie", fields["manufacturer"])
	assert.Equal(t, "a * 2", fields["formula"])
	assert.Equal(t, "t1", entries[1].ContextMap()["takeoff_id"])

	restore()
	assert.Same(t, prev, Logger)
}

func TestInitialize_FileOutput(t *testing.T) {
	defer SetLogger(Logger)()

	path := filepath.Join(t.TempDir(), "takeoff.log")
	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", Output: path}))
	Debug("rules loaded", zap.Int("count", 3))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"rules loaded"`)
	assert.Contains(t, string(data), `"logger":"takeoff"`)
}

func TestInitialize_BadLevelDefaultsToInfo(t *testing.T) {
	defer SetLogger(Logger)()

	require.NoError(t, Initialize(Config{Level: "loud", Format: "console", Output: "stderr"}))
	assert.False(t, Logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Logger.Core().Enabled(zapcore.InfoLevel))
}
