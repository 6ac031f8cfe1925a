package migratortest

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/liquidstake/migrator"
)

// DefaultSeedTimeout bounds seeding of the demo template database
const DefaultSeedTimeout = 30 * time.Second

// CreateLedgerTestDatabase creates a test database with migrations applied and pool_state initialized.
// This mirrors the production pattern: schema first, then pool state initialization.
// Returns the connection pool ready for use.
func CreateLedgerTestDatabase(t *testing.T, migrationsDir string, at time.Time) *pgxpool.Pool {
	t.Helper()

	migratorInstance := migrator.NewSchemaMigrator(migrationsDir)
	pool := createTestDatabaseWithMigrator(t, migratorInstance)

	err := migrator.InitializePoolState(t.Context(), pool, at)
	require.NoError(t, err)

	return pool
}

// CreateSeededTestDatabase creates a test database with migrations and the demo ledger seeded.
// Returns the connection pool ready for use.
func CreateSeededTestDatabase(t *testing.T, migrationsDir string, seedAt time.Time) *pgxpool.Pool {
	t.Helper()

	migratorInstance := migrator.NewSeededMigrator(migrationsDir, seedAt, DefaultSeedTimeout)
	return createTestDatabaseWithMigrator(t, migratorInstance)
}

// createTestDatabaseWithMigrator creates a test database using the provided migrator
func createTestDatabaseWithMigrator(t *testing.T, migratorInstance pgtestdb.Migrator) *pgxpool.Pool {
	t.Helper()

	config := createTestDatabaseConfig()

	dbConfig := pgtestdb.Custom(t, config, migratorInstance)

	pool, err := pgxpool.New(t.Context(), dbConfig.URL())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	t.Logf("testdbconf: %s", dbConfig.URL())

	return pool
}

// createTestDatabaseConfig creates the standard pgtestdb configuration for ledger tests
func createTestDatabaseConfig() pgtestdb.Config {
	return pgtestdb.Config{
		DriverName: "pgx",
		User:       "liquidstake",
		Password:   "liquidstake",
		Host:       "localhost",
		Port:       "5432",
		Options:    "sslmode=disable",
	}
}
