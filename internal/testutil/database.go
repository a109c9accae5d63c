package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/laborboard/internal/infrastructure/database"
	"github.com/davidleathers/laborboard/internal/testutil/containers"
)

// TestDB is a migrated PostgreSQL database running in a container.
type TestDB struct {
	Pool *pgxpool.Pool
	URL  string
}

// NewTestDB starts a container, applies all migrations and returns a pool.
// It skips the test under -short.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()
	container, err := containers.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	_, err = database.Migrate(container.ConnectionString, database.MigrateUp, 0)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, container.ConnectionString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &TestDB{Pool: pool, URL: container.ConnectionString}
}

// Truncate empties every application table, keeping the schema and the
// default sensitivity row.
func (db *TestDB) Truncate(t *testing.T) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(), `
		TRUNCATE admin_moderation_decisions, moderation_logs, orders, users,
			moderation_patterns, whitelist_phrases RESTART IDENTITY CASCADE;
		UPDATE system_settings SET setting_value = 'medium', updated_by = NULL
			WHERE setting_key = 'moderation_sensitivity';
	`)
	require.NoError(t, err)
}
