package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qcms/backend/internal/infrastructure/migration"
)

// PostgresDB is a throwaway PostgreSQL container with the embedded schema
// migrations applied
type PostgresDB struct {
	DB  *gorm.DB
	DSN string
	t   *testing.T
}

// NewPostgresDB starts postgres:16-alpine, runs every migration and
// terminates the container when the test ends. It needs a Docker daemon.
func NewPostgresDB(t *testing.T) *PostgresDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("qc_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	// The migrator closes its connection pool, so it gets its own
	migrateDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(migrateDB, nil)
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
	require.NoError(t, m.Close())

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return &PostgresDB{DB: db, DSN: dsn, t: t}
}

// Truncate empties tables and restarts their identity sequences
func (p *PostgresDB) Truncate(tables ...string) {
	p.t.Helper()
	for _, table := range tables {
		err := p.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error
		require.NoError(p.t, err, "Failed to truncate %s", table)
	}
}
