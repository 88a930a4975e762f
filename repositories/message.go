//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bytes"
	"context"
	"devconnect/domain/chat"
	apperrors "devconnect/errors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	Append(ctx context.Context, sender, receiver chat.Address, body string) (chat.Message, error)
	History(ctx context.Context, first, second chat.Address, limit int) ([]chat.Message, error)
}

type IConversationIndex interface {
	DistinctCounterparties(ctx context.Context, receiver chat.Address, kind chat.ActorKind) ([]string, error)
}

type MessageRepository struct {
	db      *badger.DB
	log     *slog.Logger
	writers *stripedLock
	now     func() time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log, writers: &stripedLock{}, now: time.Now}
}

type diskMessage struct {
	ID           string
	SenderKind   string
	SenderID     string
	ReceiverKind string
	ReceiverID   string
	Body         string
	At           int64
	Seq          uint64
}

// conversationHead is the last position written in a conversation.
// Every append reads and rewrites it, so two appends racing on the same
// conversation conflict in badger and one of them is replayed.
type conversationHead struct {
	LastAt  int64
	LastSeq uint64
}

func messagePrefix(key chat.ConversationKey) []byte {
	return []byte(fmt.Sprintf("msg:%s:", key))
}

// messageKey is formatted as "msg:{conversation}:{unix_nano:019}:{seq:020}"
// so that a prefix scan returns the conversation ordered by (timestamp, seq).
func messageKey(key chat.ConversationKey, at int64, seq uint64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%020d", key, at, seq))
}

func headKey(key chat.ConversationKey) []byte {
	return []byte(fmt.Sprintf("conv:%s", key))
}

func inboxPrefix(receiver chat.Address, kind chat.ActorKind) []byte {
	return []byte(fmt.Sprintf("inbox:%s:%s/", receiver, kind))
}

func inboxKey(receiver, sender chat.Address) []byte {
	return []byte(fmt.Sprintf("inbox:%s:%s", receiver, sender))
}

// Append persists a message and returns it once the transaction committed.
// The sequence and the timestamp are assigned inside the transaction: the
// timestamp is clamped to the conversation head so a clock going backwards
// cannot reorder history. The receiver's inbox entry is written in the same
// transaction, which keeps DistinctCounterparties consistent with history.
func (m MessageRepository) Append(ctx context.Context, sender, receiver chat.Address, body string) (chat.Message, error) {
	if err := chat.ValidatePair(sender, receiver); err != nil {
		return chat.Message{}, err
	}
	if err := chat.ValidateBody(body, 0); err != nil {
		return chat.Message{}, err
	}
	key := chat.KeyOf(sender, receiver)
	message := chat.Message{
		ID:       uuid.New(),
		Sender:   sender,
		Receiver: receiver,
		Body:     body,
	}

	unlock := m.writers.lock(string(key))
	defer unlock()
	err := update(ctx, m.db, func(txn *badger.Txn) error {
		head, err := readHead(txn, key)
		if err != nil {
			return err
		}
		at := max(m.now().UTC().UnixNano(), head.LastAt)
		message.Seq = head.LastSeq + 1
		message.CreatedAt = time.Unix(0, at).UTC()

		record, err := encode(fromMessage(message))
		if err != nil {
			return err
		}
		newHead, err := encode(conversationHead{LastAt: at, LastSeq: message.Seq})
		if err != nil {
			return err
		}
		if err = txn.Set(messageKey(key, at, message.Seq), record); err != nil {
			return err
		}
		if err = txn.Set(headKey(key), newHead); err != nil {
			return err
		}
		return txn.Set(inboxKey(receiver, sender), nil)
	})
	if err != nil {
		m.log.Error("Message append failed", "conversation", key, "error", err)
		return chat.Message{}, fmt.Errorf("%w: append to %s: %v", apperrors.ErrPersistence, key, err)
	}
	return message, nil
}

func readHead(txn *badger.Txn, key chat.ConversationKey) (conversationHead, error) {
	var head conversationHead
	item, err := txn.Get(headKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return head, nil
	}
	if err != nil {
		return head, err
	}
	err = item.Value(func(val []byte) error {
		return decode(val, &head)
	})
	return head, err
}

// History returns the conversation between first and second ascending by
// (timestamp, seq). With limit > 0 only the most recent limit messages are
// returned, still in ascending order. An empty conversation is not an error.
func (m MessageRepository) History(ctx context.Context, first, second chat.Address, limit int) ([]chat.Message, error) {
	key := chat.KeyOf(first, second)
	prefix := messagePrefix(key)
	var records []diskMessage

	err := view(ctx, m.db, func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		options.Reverse = limit > 0
		it := txn.NewIterator(options)
		defer it.Close()

		if options.Reverse {
			it.Seek(append(bytes.Clone(prefix), 0xFF))
		} else {
			it.Seek(prefix)
		}
		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				break
			}
			var record diskMessage
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &record)
			}); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: history of %s: %v", apperrors.ErrPersistence, key, err)
	}
	if limit > 0 {
		records = lo.Reverse(records)
	}
	messages := make([]chat.Message, 0, len(records))
	for _, record := range records {
		message, err := toMessage(record)
		if err != nil {
			return nil, fmt.Errorf("%w: history of %s: %v", apperrors.ErrPersistence, key, err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromMessage(message chat.Message) diskMessage {
	return diskMessage{
		ID:           message.ID.String(),
		SenderKind:   string(message.Sender.Kind),
		SenderID:     message.Sender.ID,
		ReceiverKind: string(message.Receiver.Kind),
		ReceiverID:   message.Receiver.ID,
		Body:         message.Body,
		At:           message.CreatedAt.UnixNano(),
		Seq:          message.Seq,
	}
}

func toMessage(record diskMessage) (chat.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Message{
		ID:        parsedID,
		Sender:    chat.NewAddress(chat.ActorKind(record.SenderKind), record.SenderID),
		Receiver:  chat.NewAddress(chat.ActorKind(record.ReceiverKind), record.ReceiverID),
		Body:      record.Body,
		CreatedAt: time.Unix(0, record.At).UTC(),
		Seq:       record.Seq,
	}, nil
}
