package repositories

import (
	"context"
	"database/sql"
	"devconnect/domain/chat"
	apperrors "devconnect/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the message store, the conversation index and the
// notification store on a single SQLite database. The connection pool is
// limited to one connection, which serializes writers the same way the
// badger head key does.
type SQLiteStore struct {
	db  *sqlx.DB
	log *slog.Logger
	now func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	message_id       TEXT PRIMARY KEY,
	conversation_key TEXT NOT NULL,
	seq              INTEGER NOT NULL,
	sender_kind      TEXT NOT NULL,
	sender_id        TEXT NOT NULL,
	receiver_kind    TEXT NOT NULL,
	receiver_id      TEXT NOT NULL,
	body             TEXT NOT NULL,
	created_at       INTEGER NOT NULL,
	UNIQUE (conversation_key, seq)
);

CREATE INDEX IF NOT EXISTS messages_by_receiver
	ON messages (receiver_kind, receiver_id, sender_kind, sender_id);

CREATE TABLE IF NOT EXISTS notifications (
	notification_id INTEGER PRIMARY KEY AUTOINCREMENT,
	target_kind     TEXT NOT NULL,
	target_id       TEXT NOT NULL,
	kind            TEXT NOT NULL,
	payload         TEXT NOT NULL DEFAULT '{}',
	is_read         INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL,
	read_at         INTEGER
);

CREATE INDEX IF NOT EXISTS notifications_by_target
	ON notifications (target_id, notification_id);
`

func NewSQLiteStore(dbPath string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, log: log, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type messageRow struct {
	ID           string `db:"message_id"`
	Seq          int64  `db:"seq"`
	SenderKind   string `db:"sender_kind"`
	SenderID     string `db:"sender_id"`
	ReceiverKind string `db:"receiver_kind"`
	ReceiverID   string `db:"receiver_id"`
	Body         string `db:"body"`
	CreatedAt    int64  `db:"created_at"`
}

type headRow struct {
	LastSeq int64 `db:"last_seq"`
	LastAt  int64 `db:"last_at"`
}

func (s *SQLiteStore) Append(ctx context.Context, sender, receiver chat.Address, body string) (chat.Message, error) {
	if err := chat.ValidatePair(sender, receiver); err != nil {
		return chat.Message{}, err
	}
	if err := chat.ValidateBody(body, 0); err != nil {
		return chat.Message{}, err
	}
	key := chat.KeyOf(sender, receiver)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: begin append: %v", apperrors.ErrPersistence, err)
	}
	defer tx.Rollback()

	var head headRow
	err = tx.GetContext(ctx, &head, `SELECT COALESCE(MAX(seq), 0) AS last_seq, COALESCE(MAX(created_at), 0) AS last_at
		FROM messages WHERE conversation_key = ?`, string(key))
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: read head of %s: %v", apperrors.ErrPersistence, key, err)
	}
	at := max(s.now().UTC().UnixNano(), head.LastAt)
	message := chat.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Receiver:  receiver,
		Body:      body,
		CreatedAt: time.Unix(0, at).UTC(),
		Seq:       uint64(head.LastSeq) + 1,
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO messages
		(message_id, conversation_key, seq, sender_kind, sender_id, receiver_kind, receiver_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		message.ID.String(), string(key), int64(message.Seq),
		string(sender.Kind), sender.ID, string(receiver.Kind), receiver.ID, body, at)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: insert into %s: %v", apperrors.ErrPersistence, key, err)
	}
	if err = tx.Commit(); err != nil {
		return chat.Message{}, fmt.Errorf("%w: commit append to %s: %v", apperrors.ErrPersistence, key, err)
	}
	return message, nil
}

func (s *SQLiteStore) History(ctx context.Context, first, second chat.Address, limit int) ([]chat.Message, error) {
	key := chat.KeyOf(first, second)
	var rows []messageRow
	var err error
	if limit > 0 {
		err = s.db.SelectContext(ctx, &rows, `SELECT message_id, seq, sender_kind, sender_id, receiver_kind, receiver_id, body, created_at
			FROM messages WHERE conversation_key = ? ORDER BY created_at DESC, seq DESC LIMIT ?`, string(key), limit)
		rows = lo.Reverse(rows)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT message_id, seq, sender_kind, sender_id, receiver_kind, receiver_id, body, created_at
			FROM messages WHERE conversation_key = ? ORDER BY created_at, seq`, string(key))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: history of %s: %v", apperrors.ErrPersistence, key, err)
	}
	messages := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		message, err := toMessage(diskMessage{
			ID:           row.ID,
			SenderKind:   row.SenderKind,
			SenderID:     row.SenderID,
			ReceiverKind: row.ReceiverKind,
			ReceiverID:   row.ReceiverID,
			Body:         row.Body,
			At:           row.CreatedAt,
			Seq:          uint64(row.Seq),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: history of %s: %v", apperrors.ErrPersistence, key, err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// DistinctCounterparties is a live query: every committed insert is visible
// to the next call.
func (s *SQLiteStore) DistinctCounterparties(ctx context.Context, receiver chat.Address, kind chat.ActorKind) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids, `SELECT DISTINCT sender_id FROM messages
		WHERE receiver_kind = ? AND receiver_id = ? AND sender_kind = ? ORDER BY sender_id`,
		string(receiver.Kind), receiver.ID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: counterparties of %s: %v", apperrors.ErrPersistence, receiver, err)
	}
	return ids, nil
}

type notificationRow struct {
	ID         int64         `db:"notification_id"`
	TargetKind string        `db:"target_kind"`
	TargetID   string        `db:"target_id"`
	Kind       string        `db:"kind"`
	Payload    string        `db:"payload"`
	Read       bool          `db:"is_read"`
	CreatedAt  int64         `db:"created_at"`
	ReadAt     sql.NullInt64 `db:"read_at"`
}

func (s *SQLiteStore) Create(ctx context.Context, target chat.Address, kind chat.NotificationKind, payload map[string]any) (chat.Notification, error) {
	if err := (chat.CreateNotificationCommand{Target: target, Kind: kind}).Validate(); err != nil {
		return chat.Notification{}, err
	}
	encodedPayload, err := encodePayloadJSON(payload)
	if err != nil {
		return chat.Notification{}, err
	}
	createdAt := s.now().UTC().UnixNano()
	result, err := s.db.ExecContext(ctx, `INSERT INTO notifications (target_kind, target_id, kind, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`, string(target.Kind), target.ID, string(kind), encodedPayload, createdAt)
	if err != nil {
		return chat.Notification{}, fmt.Errorf("%w: create notification: %v", apperrors.ErrPersistence, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return chat.Notification{}, fmt.Errorf("%w: create notification: %v", apperrors.ErrPersistence, err)
	}
	return toRowNotification(notificationRow{
		ID:         id,
		TargetKind: string(target.Kind),
		TargetID:   target.ID,
		Kind:       string(kind),
		Payload:    encodedPayload,
		CreatedAt:  createdAt,
	})
}

func (s *SQLiteStore) ListByTarget(ctx context.Context, targetID string) ([]chat.Notification, error) {
	var rows []notificationRow
	err := s.db.SelectContext(ctx, &rows, `SELECT notification_id, target_kind, target_id, kind, payload, is_read, created_at, read_at
		FROM notifications WHERE target_id = ? ORDER BY notification_id DESC`, targetID)
	if err != nil {
		return nil, fmt.Errorf("%w: notifications of %s: %v", apperrors.ErrPersistence, targetID, err)
	}
	notifications := make([]chat.Notification, 0, len(rows))
	for _, row := range rows {
		notification, err := toRowNotification(row)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, nil
}

func (s *SQLiteStore) MarkRead(ctx context.Context, id chat.NotificationID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin mark read: %v", apperrors.ErrPersistence, err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM notifications WHERE notification_id = ?)`, int64(id))
	if err != nil {
		return fmt.Errorf("%w: mark notification read: %v", apperrors.ErrPersistence, err)
	}
	if !exists {
		return fmt.Errorf("%w: notification %d", apperrors.ErrNotFound, id)
	}
	_, err = tx.ExecContext(ctx, `UPDATE notifications SET is_read = 1, read_at = ?
		WHERE notification_id = ? AND is_read = 0`, s.now().UTC().UnixNano(), int64(id))
	if err != nil {
		return fmt.Errorf("%w: mark notification read: %v", apperrors.ErrPersistence, err)
	}
	return wrapPersistence(tx.Commit(), "mark notification read")
}

func (s *SQLiteStore) MarkAllRead(ctx context.Context, targetID string, kind chat.ActorKind) (int, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1, read_at = ?
		WHERE target_id = ? AND is_read = 0 AND (? = '' OR target_kind = ?)`,
		s.now().UTC().UnixNano(), targetID, string(kind), string(kind))
	if err != nil {
		return 0, fmt.Errorf("%w: mark all read for %s: %v", apperrors.ErrPersistence, targetID, err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: mark all read for %s: %v", apperrors.ErrPersistence, targetID, err)
	}
	return int(updated), nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id chat.NotificationID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE notification_id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("%w: delete notification: %v", apperrors.ErrPersistence, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete notification: %v", apperrors.ErrPersistence, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: notification %d", apperrors.ErrNotFound, id)
	}
	return nil
}

func toRowNotification(row notificationRow) (chat.Notification, error) {
	payload, err := decodePayloadJSON(row.Payload)
	if err != nil {
		return chat.Notification{}, fmt.Errorf("%w: decode payload of notification %d: %v",
			apperrors.ErrPersistence, row.ID, err)
	}
	notification := chat.Notification{
		ID:        chat.NotificationID(row.ID),
		Target:    chat.NewAddress(chat.ActorKind(row.TargetKind), row.TargetID),
		Kind:      chat.NotificationKind(row.Kind),
		Payload:   payload,
		Read:      row.Read,
		CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
	}
	if row.ReadAt.Valid {
		notification.ReadAt = lo.ToPtr(time.Unix(0, row.ReadAt.Int64).UTC())
	}
	return notification, nil
}
