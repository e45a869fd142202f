// Package pgtest starts throwaway PostgreSQL containers for integration tests.
// The embedded schema migrations are applied before a database is handed out.
package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shopline/backend/internal/infrastructure/migration"
	"github.com/shopline/backend/migrations"
)

const image = "postgres:16-alpine"

var (
	sharedMu        sync.Mutex
	sharedContainer *tcpostgres.PostgresContainer
	sharedDSN       string
)

// TestDB is a migrated database backed by a container
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string

	container *tcpostgres.PostgresContainer
	t         *testing.T
}

// New starts a dedicated container and migrates it. The container is
// terminated when the test finishes.
func New(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, dsn := startContainer(t, ctx, "shop_test")
	db, sqlDB := connect(t, dsn)
	applyMigrations(t, sqlDB)

	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: dsn, container: container, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// NewShared returns a connection to a container reused by every test in the
// package. Call Truncate to isolate tests and TerminateShared from TestMain.
func NewShared(t *testing.T) *TestDB {
	t.Helper()
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedContainer == nil {
		container, dsn := startContainer(t, context.Background(), "shop_shared_test")
		_, sqlDB := connect(t, dsn)
		applyMigrations(t, sqlDB)
		_ = sqlDB.Close()
		sharedContainer, sharedDSN = container, dsn
	}

	db, sqlDB := connect(t, sharedDSN)
	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: sharedDSN, t: t}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return tdb
}

// TerminateShared stops the shared container, if one was started
func TerminateShared() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedContainer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = sharedContainer.Terminate(ctx)
	sharedContainer, sharedDSN = nil, ""
}

// Close closes the connection and terminates a dedicated container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.container != nil {
		if err := tdb.container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("failed to terminate container: %v", err)
		}
	}
}

// Truncate empties every application table, keeping the migration history
func (tdb *TestDB) Truncate() {
	tdb.t.Helper()
	var tables []string
	err := tdb.DB.Raw(`SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`).Scan(&tables).Error
	require.NoError(tdb.t, err)
	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q CASCADE", table)).Error)
	}
}

func startContainer(t *testing.T, ctx context.Context, database string) (*tcpostgres.PostgresContainer, string) {
	t.Helper()
	container, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase(database),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return container, dsn
}

func connect(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, sqlDB
}

// applyMigrations runs the embedded migrations. The migrator is left open:
// closing it would close sqlDB too.
func applyMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()
	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
}
