package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tactics/internal/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: format}, "battlesim")
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_Level(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1), "debug is below warn")
	assert.True(t, logger.Core().Enabled(1), "warn is enabled")
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"}, "x")
	assert.Error(t, err)
	_, err = NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, "x")
	assert.Error(t, err)
}
