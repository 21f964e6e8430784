package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRollingFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	logger, err := NewRollingFileLogger(path, "info", 10, 1, 1, false)
	require.NoError(t, err)

	logger.Info("request served")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "request served"))
}

func TestNewRollingFileLoggerLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	logger, err := NewRollingFileLogger(path, "warn", 10, 1, 1, false)
	require.NoError(t, err)

	logger.Info("too quiet")
	logger.Warn("loud enough")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "too quiet")
	assert.Contains(t, string(data), "loud enough")
}
