package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"marketplace/internal/logger"
)

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn", false)

	log.Info().Msg("hidden")
	require.Empty(t, buf.String())

	log.Warn().Msg("shown")
	require.Contains(t, buf.String(), `"message":"shown"`)
	require.Contains(t, buf.String(), `"service":"marketplace"`)
}

func TestNewWithWriterUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "nope", false)

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}
