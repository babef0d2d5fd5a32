package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pktsniff.log")
	require.NoError(t, Init(Config{Level: "info", File: path, MaxSizeMB: 1, MaxFiles: 1}))
	defer func() { globalLogger = nil }()

	Info("抓包开始", "interface", "eth0")
	Debug("不会写入")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"interface":"eth0"`)
	assert.NotContains(t, string(data), "不会写入")
}

func TestInvalidLevelFallsBackToWarn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pktsniff.log")
	require.NoError(t, Init(Config{Level: "verbose", File: path}))
	defer func() { globalLogger = nil }()

	Info("info 被过滤")
	Warn("warn 保留")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "info 被过滤")
	assert.Contains(t, string(data), "warn 保留")
}

func TestNoopBeforeInit(t *testing.T) {
	globalLogger = nil
	assert.NotPanics(t, func() {
		Info("nothing")
		Sync()
	})
}
