package utils

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("claims@broker.ng"))
	assert.Error(t, ValidateEmail("claims@broker"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("+234 803 000 0000"))
	assert.NoError(t, ValidatePhone("08030000000"))
	assert.Error(t, ValidatePhone("12345"))
	assert.Error(t, ValidatePhone("+234-abc-0000"))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(0))
	assert.NoError(t, ValidateAmount(250_000_000))
	assert.Error(t, ValidateAmount(-0.01))
	assert.Error(t, ValidateAmount(math.NaN()))
	assert.Error(t, ValidateAmount(math.Inf(-1)))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "line one\nline two", SanitizeString("  line one\nline two\x00\x07 "))
}

func TestNewLogger(t *testing.T) {
	t.Run("json file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "server.log")
		logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: path, Format: "json", Service: "broker"})
		require.NoError(t, err)
		logger.Info("hello")
		require.NoError(t, logger.Sync())
		assert.FileExists(t, path)
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		logger, err := NewLogger(LoggerConfig{Level: "loud", OutputPath: "stderr"})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1))
		assert.True(t, logger.Core().Enabled(0))
	})

	t.Run("cli logger", func(t *testing.T) {
		logger, err := NewCLILogger(false)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(0))
	})
}
