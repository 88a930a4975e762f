//go:generate go run go.uber.org/mock/mockgen -source=notification.go -destination=../mocks/mock_notification_repository.go -package=mocks
package repositories

import (
	"bytes"
	"context"
	"devconnect/domain/chat"
	apperrors "devconnect/errors"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type INotificationRepository interface {
	Create(ctx context.Context, target chat.Address, kind chat.NotificationKind, payload map[string]any) (chat.Notification, error)
	ListByTarget(ctx context.Context, targetID string) ([]chat.Notification, error)
	MarkRead(ctx context.Context, id chat.NotificationID) error
	MarkAllRead(ctx context.Context, targetID string, kind chat.ActorKind) (int, error)
	Delete(ctx context.Context, id chat.NotificationID) error
}

const (
	notificationSequenceKey = "seq:notification"
	notificationBandwidth   = 100
	markAllReadBatch        = 500
)

type NotificationRepository struct {
	db       *badger.DB
	sequence *badger.Sequence
	log      *slog.Logger
	now      func() time.Time
}

// NewNotificationRepository leases ids from a badger sequence.
// Close must be called to give back the unused part of the lease.
func NewNotificationRepository(db *badger.DB, log *slog.Logger) (*NotificationRepository, error) {
	sequence, err := db.GetSequence([]byte(notificationSequenceKey), notificationBandwidth)
	if err != nil {
		return nil, fmt.Errorf("notification sequence: %w", err)
	}
	return &NotificationRepository{db: db, sequence: sequence, log: log, now: time.Now}, nil
}

func (n *NotificationRepository) Close() error {
	return n.sequence.Release()
}

type diskNotification struct {
	ID         uint64
	TargetKind string
	TargetID   string
	Kind       string
	Payload    []byte
	Read       bool
	CreatedAt  int64
	ReadAt     int64
}

func notificationKey(id chat.NotificationID) []byte {
	return []byte(fmt.Sprintf("ntf:id:%020d", id))
}

func targetPrefix(targetID string) []byte {
	return []byte(fmt.Sprintf("ntf:target:%s:", targetID))
}

func targetKey(targetID string, id chat.NotificationID) []byte {
	return []byte(fmt.Sprintf("ntf:target:%s:%020d", targetID, id))
}

// Create stores an unread notification for target.
func (n *NotificationRepository) Create(ctx context.Context, target chat.Address, kind chat.NotificationKind, payload map[string]any) (chat.Notification, error) {
	if err := (chat.CreateNotificationCommand{Target: target, Kind: kind}).Validate(); err != nil {
		return chat.Notification{}, err
	}
	encodedPayload, err := encodePayload(payload)
	if err != nil {
		return chat.Notification{}, err
	}
	next, err := n.sequence.Next()
	if err != nil {
		return chat.Notification{}, fmt.Errorf("%w: notification id: %v", apperrors.ErrPersistence, err)
	}
	// Sequences start at zero, ids start at one.
	id := chat.NotificationID(next + 1)
	record := diskNotification{
		ID:         uint64(id),
		TargetKind: string(target.Kind),
		TargetID:   target.ID,
		Kind:       string(kind),
		Payload:    encodedPayload,
		CreatedAt:  n.now().UTC().UnixNano(),
	}
	value, err := encode(record)
	if err != nil {
		return chat.Notification{}, fmt.Errorf("%w: encode notification: %v", apperrors.ErrPersistence, err)
	}
	err = update(ctx, n.db, func(txn *badger.Txn) error {
		if err := txn.Set(notificationKey(id), value); err != nil {
			return err
		}
		return txn.Set(targetKey(target.ID, id), nil)
	})
	if err != nil {
		return chat.Notification{}, fmt.Errorf("%w: create notification: %v", apperrors.ErrPersistence, err)
	}
	return toNotification(record)
}

// ListByTarget returns the notifications of targetID, most recent first.
func (n *NotificationRepository) ListByTarget(ctx context.Context, targetID string) ([]chat.Notification, error) {
	prefix := targetPrefix(targetID)
	var records []diskNotification
	err := view(ctx, n.db, func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = prefix
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(append(bytes.Clone(prefix), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			id, err := parseTargetKey(it.Item().Key(), prefix)
			if err != nil {
				return err
			}
			record, found, err := readNotification(txn, id)
			if err != nil {
				return err
			}
			if found {
				records = append(records, record)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: notifications of %s: %v", apperrors.ErrPersistence, targetID, err)
	}
	notifications := make([]chat.Notification, 0, len(records))
	for _, record := range records {
		notification, err := toNotification(record)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, nil
}

// MarkRead flips the read flag. Marking an already read notification succeeds
// without writing anything.
func (n *NotificationRepository) MarkRead(ctx context.Context, id chat.NotificationID) error {
	readAt := n.now().UTC().UnixNano()
	err := update(ctx, n.db, func(txn *badger.Txn) error {
		record, found, err := readNotification(txn, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: notification %d", apperrors.ErrNotFound, id)
		}
		_, err = markRead(txn, record, readAt)
		return err
	})
	return wrapPersistence(err, "mark notification read")
}

// MarkAllRead marks every unread notification of targetID as read. A non
// empty kind restricts it to that actor kind, since a developer and an
// entrepreneur may share an id.
// It works on a snapshot of the rows present when it starts: a notification
// created concurrently may end up in either state.
func (n *NotificationRepository) MarkAllRead(ctx context.Context, targetID string, kind chat.ActorKind) (int, error) {
	prefix := targetPrefix(targetID)
	var ids []chat.NotificationID
	err := view(ctx, n.db, func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := parseTargetKey(it.Item().Key(), prefix)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: notifications of %s: %v", apperrors.ErrPersistence, targetID, err)
	}

	readAt := n.now().UTC().UnixNano()
	updated := 0
	for _, batch := range lo.Chunk(ids, markAllReadBatch) {
		count := 0
		err = update(ctx, n.db, func(txn *badger.Txn) error {
			count = 0
			for _, id := range batch {
				record, found, err := readNotification(txn, id)
				if err != nil {
					return err
				}
				if !found || (kind != "" && record.TargetKind != string(kind)) {
					continue
				}
				changed, err := markRead(txn, record, readAt)
				if err != nil {
					return err
				}
				if changed {
					count++
				}
			}
			return nil
		})
		if err != nil {
			return updated, fmt.Errorf("%w: mark all read for %s: %v", apperrors.ErrPersistence, targetID, err)
		}
		updated += count
	}
	return updated, nil
}

// Delete removes a notification and its target index entry.
func (n *NotificationRepository) Delete(ctx context.Context, id chat.NotificationID) error {
	err := update(ctx, n.db, func(txn *badger.Txn) error {
		record, found, err := readNotification(txn, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: notification %d", apperrors.ErrNotFound, id)
		}
		if err = txn.Delete(notificationKey(id)); err != nil {
			return err
		}
		return txn.Delete(targetKey(record.TargetID, id))
	})
	return wrapPersistence(err, "delete notification")
}

func readNotification(txn *badger.Txn, id chat.NotificationID) (diskNotification, bool, error) {
	var record diskNotification
	item, err := txn.Get(notificationKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return record, false, nil
	}
	if err != nil {
		return record, false, err
	}
	err = item.Value(func(val []byte) error {
		return decode(val, &record)
	})
	return record, err == nil, err
}

func markRead(txn *badger.Txn, record diskNotification, readAt int64) (bool, error) {
	if record.Read {
		return false, nil
	}
	record.Read = true
	record.ReadAt = readAt
	value, err := encode(record)
	if err != nil {
		return false, err
	}
	return true, txn.Set(notificationKey(chat.NotificationID(record.ID)), value)
}

func parseTargetKey(key, prefix []byte) (chat.NotificationID, error) {
	id, err := strconv.ParseUint(string(key[len(prefix):]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed notification index key %q: %w", key, err)
	}
	return chat.NotificationID(id), nil
}

// wrapPersistence leaves not-found errors untouched and tags everything else
// as a persistence failure.
func wrapPersistence(err error, operation string) error {
	if err == nil || errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrPersistence, operation, err)
}

func toNotification(record diskNotification) (chat.Notification, error) {
	payload, err := decodePayload(record.Payload)
	if err != nil {
		return chat.Notification{}, fmt.Errorf("%w: decode payload of notification %d: %v",
			apperrors.ErrPersistence, record.ID, err)
	}
	notification := chat.Notification{
		ID:        chat.NotificationID(record.ID),
		Target:    chat.NewAddress(chat.ActorKind(record.TargetKind), record.TargetID),
		Kind:      chat.NotificationKind(record.Kind),
		Payload:   payload,
		Read:      record.Read,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}
	if record.Read {
		notification.ReadAt = lo.ToPtr(time.Unix(0, record.ReadAt).UTC())
	}
	return notification, nil
}
