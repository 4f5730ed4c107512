package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/limaJavier/lesson-timetabling/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LogConfig
		expected zapcore.Level
	}{
		{"Debug level", config.LogConfig{Level: "debug", Format: "json"}, zapcore.DebugLevel},
		{"Warn level on console", config.LogConfig{Level: "warn", Format: "console"}, zapcore.WarnLevel},
		{"Unknown level falls back to info", config.LogConfig{Level: "chatty", Format: "json"}, zapcore.InfoLevel},
		{"Development defaults to debug", config.LogConfig{Format: "console", Development: true}, zapcore.DebugLevel},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			logger, err := New(test.cfg)
			require.NoError(t, err)

			assert.True(t, logger.Core().Enabled(test.expected))
			assert.False(t, logger.Core().Enabled(test.expected-1))
		})
	}
}
