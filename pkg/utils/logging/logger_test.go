package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLoggerInDir_WritesConsoleAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	logger, err := InitLoggerInDir("test", dir, &console)
	require.NoError(t, err)

	logger.Debug("debug only in file", zap.String("volunteer_id", "vol-1"))
	logger.Info("ranked opportunities", zap.Int("results", 3))
	_ = logger.Sync()

	assert.Contains(t, console.String(), "ranked opportunities")
	assert.NotContains(t, console.String(), "debug only in file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "test_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "debug only in file", first["msg"])
	assert.Equal(t, "vol-1", first["volunteer_id"])
	assert.Contains(t, first, "timestamp")
}

func TestInitLoggerInDir_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := InitLoggerInDir("test", filepath.Join(file, "logs"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create logs directory")
}
