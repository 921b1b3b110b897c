package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sheikh-saqib/token-ledger/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	require.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")

	logger, err := New(config.LogConfig{Level: "info", File: path})
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"kept"`)
	require.NotContains(t, string(data), "dropped")
}
