package repositories

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// updateRetries bounds how many times a transaction is replayed after
// badger reports a conflict on one of the keys it read.
const updateRetries = 8

// update runs fn in a read-write transaction and replays it on conflict.
// fn must be safe to call more than once.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < updateRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// view runs fn in a read-only snapshot.
func view(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.View(fn)
}

const lockStripes = 64

// stripedLock serializes writers of the same key inside this process so that
// badger conflicts, and their replays, stay the exception.
type stripedLock struct {
	stripes [lockStripes]sync.Mutex
}

func (s *stripedLock) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &s.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
