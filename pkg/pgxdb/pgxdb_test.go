package pgxdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/liquidstake/pkg/pgxdb"
)

func TestNewConnection(t *testing.T) {
	t.Parallel()

	t.Run("it rejects a malformed connection string", func(t *testing.T) {
		t.Parallel()

		// Act
		pool, err := pgxdb.NewConnection(t.Context(), "postgres://%zz")

		// Assert
		assert.Nil(t, pool)
		assert.ErrorIs(t, err, pgxdb.ErrInvalidConnectionString)
	})
}
