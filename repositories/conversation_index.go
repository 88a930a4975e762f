package repositories

import (
	"context"
	"devconnect/domain/chat"
	apperrors "devconnect/errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// ConversationIndex reads the inbox set that MessageRepository.Append
// maintains in the same transaction as the message itself.
type ConversationIndex struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationIndex(db *badger.DB, log *slog.Logger) ConversationIndex {
	return ConversationIndex{db: db, log: log}
}

// DistinctCounterparties lists, in ascending order, the ids of every actor of
// the given kind who sent at least one message to receiver.
func (c ConversationIndex) DistinctCounterparties(ctx context.Context, receiver chat.Address, kind chat.ActorKind) ([]string, error) {
	prefix := inboxPrefix(receiver, kind)
	ids := []string{}
	err := view(ctx, c.db, func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: counterparties of %s: %v", apperrors.ErrPersistence, receiver, err)
	}
	c.log.Debug("Counterparties listed", "receiver", receiver.String(), "kind", kind, "count", len(ids))
	return ids, nil
}
