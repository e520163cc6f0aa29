package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoglass/chronod/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		lg, err := New(config.LoggingConfig{Level: "debug", Console: true})
		require.NoError(t, err)
		defer lg.Close()

		assert.Equal(t, "debug", lg.Zerolog().GetLevel().String())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		lg, err := New(config.LoggingConfig{Level: "shouting", Console: true})
		require.NoError(t, err)
		defer lg.Close()

		assert.Equal(t, "info", lg.Zerolog().GetLevel().String())
	})

	t.Run("creates log file and directory", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "logs", "chronod.log")
		lg, err := New(config.LoggingConfig{Level: "info", File: logPath})
		require.NoError(t, err)

		zl := lg.Zerolog()
		zl.Info().Msg("hello")
		require.NoError(t, lg.Close())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello")
	})
}
