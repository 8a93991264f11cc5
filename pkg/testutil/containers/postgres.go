//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"doceo/migrations"
)

// PostgresContainer is the shared test database with the ledger schema
// applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
}

// NewPostgresContainer boots Postgres, connects, and applies the embedded
// migrations. No cleanup is registered; the container is shared for the
// whole test process and Ryuk reaps it on exit.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("doceo_test"),
		postgres.WithUsername("doceo"),
		postgres.WithPassword("doceo_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	fail := func(format string, args ...any) {
		_ = container.Terminate(ctx)
		t.Fatalf(format, args...)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fail("postgres connection string: %v", err)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		fail("open postgres connection: %v", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		fail("apply migrations: %v", err)
	}

	return &PostgresContainer{Container: container, DB: db}
}

// applyMigrations runs every embedded *.up.sql file. Glob returns names
// sorted, which is the migration order.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrations.Files, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, file := range files {
		ddl, err := fs.ReadFile(migrations.Files, file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply %s: %w", file, err)
		}
	}
	return nil
}

// ResetLedger wipes all ledger state, config row included. Stores re-seed
// the config on construction, so each suite starts from a clean slate.
func (p *PostgresContainer) ResetLedger(ctx context.Context) error {
	for _, table := range []string{"ledger_events", "credentials", "tutor_documents", "verifiers"} {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	if _, err := p.DB.ExecContext(ctx, "DELETE FROM ledger_config"); err != nil {
		return fmt.Errorf("reset ledger_config: %w", err)
	}
	return nil
}
