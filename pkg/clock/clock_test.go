package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/liquidstake/pkg/clock"
)

func TestFixedClock(t *testing.T) {
	t.Parallel()

	t.Run("it always reports the same instant", func(t *testing.T) {
		t.Parallel()

		// Arrange
		at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		c := clock.FixedClock{At: at}

		// Act
		fired := <-c.After(time.Millisecond)

		// Assert
		assert.Equal(t, at, c.Now())
		assert.Equal(t, at, fired)
	})
}

func TestSystemClock(t *testing.T) {
	t.Parallel()

	t.Run("it reports UTC time", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, time.UTC, clock.SystemClock{}.Now().Location())
	})
}
