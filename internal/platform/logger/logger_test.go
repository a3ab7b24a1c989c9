package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pierre-chaville/lessons/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: "debug"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	// Invalid level falls back to info
	logger, err = Setup(config.ServerConfig{Port: 8080, LogLevel: "verbose"})
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Without a logger in the context, FromContext returns the default
	assert.Equal(t, slog.Default(), FromContext(ctx))

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx = WithLogger(ctx, custom)

	assert.Equal(t, custom, FromContext(ctx))
	assert.Equal(t, custom, FromContextOrDefault(ctx, nil))

	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Equal(t, fallback, FromContextOrDefault(context.Background(), fallback))
}
