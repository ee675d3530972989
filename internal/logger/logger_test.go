package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/greencrop/storefront/internal/config"
)

func TestBuildHonoursLevel(t *testing.T) {
	logger, err := Build(config.Observability{ServiceName: "storefront", LogLevel: "warn", LogEncoding: "json"})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestBuildFallsBackToInfo(t *testing.T) {
	logger, err := Build(config.Observability{LogLevel: "loud", LogEncoding: "console"})
	require.NoError(t, err)

	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
