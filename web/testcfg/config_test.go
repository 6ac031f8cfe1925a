package testcfg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/liquidstake/web/testcfg"
)

func TestNew(t *testing.T) {
	t.Run("it applies defaults", func(t *testing.T) {
		// Act
		cfg := testcfg.New()

		// Assert
		assert.Equal(t, "info", cfg.LogLevel)
		assert.True(t, cfg.LogHumanFriendly)
	})

	t.Run("it reads prefixed variables only", func(t *testing.T) {
		// Arrange
		t.Setenv("LEDGER_TEST_LOG_LEVEL", "debug")
		t.Setenv("LEDGER_TEST_LOG_HUMAN_FRIENDLY", "false")
		t.Setenv("LOG_LEVEL", "error")

		// Act
		cfg := testcfg.New()

		// Assert
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.False(t, cfg.LogHumanFriendly)
	})

	t.Run("it panics on malformed values", func(t *testing.T) {
		// Arrange
		t.Setenv("LEDGER_TEST_LOG_HUMAN_FRIENDLY", "maybe")

		// Act & Assert
		assert.Panics(t, func() { testcfg.New() })
	})
}
