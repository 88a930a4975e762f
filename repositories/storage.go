package repositories

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Storage groups the three stores behind the driver chosen at startup.
type Storage struct {
	Messages      IMessageRepository
	Index         IConversationIndex
	Notifications INotificationRepository
	closers       []func() error
}

// Close releases the stores in reverse opening order.
func (s Storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func OpenBadger(path string, log *slog.Logger) (Storage, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return Storage{}, fmt.Errorf("database opening failed: %w", err)
	}
	return NewBadgerStorage(db, log)
}

// NewBadgerStorage builds the stores on an already opened database and takes
// ownership of it.
func NewBadgerStorage(db *badger.DB, log *slog.Logger) (Storage, error) {
	notifications, err := NewNotificationRepository(db, log)
	if err != nil {
		_ = db.Close()
		return Storage{}, err
	}
	return Storage{
		Messages:      NewMessageRepository(db, log),
		Index:         NewConversationIndex(db, log),
		Notifications: notifications,
		closers: []func() error{
			func() error {
				log.Info("Closing BadgerDB...")
				return db.Close()
			},
			notifications.Close,
		},
	}, nil
}

func OpenSQLite(path string, log *slog.Logger) (Storage, error) {
	store, err := NewSQLiteStore(path, log)
	if err != nil {
		return Storage{}, fmt.Errorf("database opening failed: %w", err)
	}
	return Storage{
		Messages:      store,
		Index:         store,
		Notifications: store,
		closers: []func() error{
			func() error {
				log.Info("Closing SQLite...")
				return store.Close()
			},
		},
	}, nil
}

// Open picks the storage driver by name.
func Open(driver, badgerPath, sqlitePath string, log *slog.Logger) (Storage, error) {
	switch driver {
	case DriverBadger, "":
		return OpenBadger(badgerPath, log)
	case DriverSQLite:
		return OpenSQLite(sqlitePath, log)
	default:
		return Storage{}, fmt.Errorf("unknown storage driver %q", driver)
	}
}
