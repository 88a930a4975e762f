package repositories

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func openTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	return db
}

func openTestStorage(t *testing.T, driver string) Storage {
	t.Helper()
	var storage Storage
	var err error
	switch driver {
	case DriverBadger:
		storage, err = NewBadgerStorage(openTestBadger(t), testLogger())
	case DriverSQLite:
		storage, err = OpenSQLite(filepath.Join(t.TempDir(), "devconnect.db"), testLogger())
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

// forEachDriver runs the same scenario against every storage driver.
func forEachDriver(t *testing.T, scenario func(t *testing.T, storage Storage)) {
	for _, driver := range []string{DriverBadger, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			scenario(t, openTestStorage(t, driver))
		})
	}
}

func TestOpen_Unknown_Driver(t *testing.T) {
	_, err := Open("postgres", "", "", testLogger())
	require.Error(t, err)
}
