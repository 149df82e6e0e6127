package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerAvailableBeforeInit(t *testing.T) {
	require.NotNil(t, Logger())
	require.NotNil(t, WithModule("test"))
}

func TestInit(t *testing.T) {
	require.NoError(t, Init("debug"))
	require.NotNil(t, Logger())

	// Unknown levels fall back to info instead of failing startup.
	require.NoError(t, Init("chatty"))
}
