package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// openTestStorage creates a migrated in-memory database. The connection pool
// is capped at one connection, so :memory: keeps a single coherent database
// for the duration of the test.
func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	storage, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, storage.Close())
	})

	require.NoError(t, storage.Migrate(context.Background()))
	return storage
}

func testDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed.UTC()
}

func TestStorage_MigrateIsIdempotent(t *testing.T) {
	storage := openTestStorage(t)
	require.NoError(t, storage.Migrate(context.Background()))
	require.NoError(t, storage.Ping(context.Background()))
}
