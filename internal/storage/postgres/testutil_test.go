package postgres

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestPool starts a disposable Postgres with the engine schema applied.
// The container is removed when the test ends.
func newTestPool(t *testing.T) *Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("brain"),
		postgres.WithUsername("brain"),
		postgres.WithPassword("brain"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var queries int
	pool, err := NewPool(ctx, dsn, WithMaxConns(4), WithQueryObserver(func(string, float64, error) { queries++ }))
	require.NoError(t, err, "connect to test postgres")
	t.Cleanup(pool.Close)

	applySchema(t, pool)
	require.Positive(t, queries, "query observer saw the schema statements")
	return pool
}

// applySchema runs the migration files from the source tree. The embedded
// runner lives in a package that imports this one.
func applySchema(t *testing.T, pool *Pool) {
	t.Helper()
	_, here, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir := os.DirFS(filepath.Join(filepath.Dir(here), "..", "migrations", "postgres"))

	names, err := fs.Glob(dir, "*.sql") // lexical order
	require.NoError(t, err)
	require.NotEmpty(t, names, "no postgres migrations found")

	for _, name := range names {
		sql, err := fs.ReadFile(dir, name)
		require.NoError(t, err)
		_, err = pool.Exec(context.Background(), string(sql))
		require.NoError(t, err, "apply %s", name)
	}
}
