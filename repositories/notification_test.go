package repositories

import (
	"context"
	"devconnect/domain/chat"
	"devconnect/errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotification_Create_And_List_Most_Recent_First(t *testing.T) {
	forEachDriver(t, func(t *testing.T, storage Storage) {
		req := require.New(t)
		ctx := context.Background()
		target := chat.NewAddress(chat.Developer, "7")

		first, err := storage.Notifications.Create(ctx, target, "proposal_received",
			map[string]any{"proposalId": "p-1", "amount": 1200})
		req.NoError(err)
		req.False(first.Read)
		req.Nil(first.ReadAt)
		second, err := storage.Notifications.Create(ctx, target, chat.NewMessageNotification, nil)
		req.NoError(err)
		_, err = storage.Notifications.Create(ctx, chat.NewAddress(chat.Developer, "8"), "other", nil)
		req.NoError(err)

		notifications, err := storage.Notifications.ListByTarget(ctx, "7")
		req.NoError(err)
		req.Len(notifications, 2)
		req.Equal(second.ID, notifications[0].ID)
		req.Equal(first.ID, notifications[1].ID)

		// Then the payload comes back as a JSON document
		req.Equal("p-1", notifications[1].Payload["proposalId"])
		req.Equal(float64(1200), notifications[1].Payload["amount"])
		req.Equal(target, notifications[1].Target)
	})
}

func TestNotification_Create_Rejects_Invalid_Input(t *testing.T) {
	forEachDriver(t, func(t *testing.T, storage Storage) {
		req := require.New(t)
		ctx := context.Background()

		_, err := storage.Notifications.Create(ctx, chat.NewAddress(chat.Developer, "7"), "", nil)
		req.ErrorIs(err, errors.ErrValidation)

		_, err = storage.Notifications.Create(ctx, chat.NewAddress("admin", "7"), "kind", nil)
		req.ErrorIs(err, errors.ErrValidation)

		_, err = storage.Notifications.Create(ctx, chat.NewAddress(chat.Developer, "7"), "kind",
			map[string]any{"callback": func() {}})
		req.ErrorIs(err, errors.ErrValidation)
	})
}

func TestNotification_MarkRead(t *testing.T) {
	forEachDriver(t, func(t *testing.T, storage Storage) {
		req := require.New(t)
		ctx := context.Background()
		target := chat.NewAddress(chat.Entrepreneur, "3")

		// Given a missing notification
		err := storage.Notifications.MarkRead(ctx, 42)
		req.ErrorIs(err, errors.ErrNotFound)

		// Given an existing unread notification
		created, err := storage.Notifications.Create(ctx, target, "contract_signed", nil)
		req.NoError(err)

		// When it is marked read twice
		req.NoError(storage.Notifications.MarkRead(ctx, created.ID))
		listed, err := storage.Notifications.ListByTarget(ctx, "3")
		req.NoError(err)
		readAt := listed[0].ReadAt
		req.NoError(storage.Notifications.MarkRead(ctx, created.ID))

		// Then it is read and the second call changed nothing
		listed, err = storage.Notifications.ListByTarget(ctx, "3")
		req.NoError(err)
		req.Len(listed, 1)
		req.True(listed[0].Read)
		req.NotNil(listed[0].ReadAt)
		req.Equal(readAt, listed[0].ReadAt)
	})
}

func TestNotification_MarkAllRead(t *testing.T) {
	forEachDriver(t, func(t *testing.T, storage Storage) {
		req := require.New(t)
		ctx := context.Background()
		target := chat.NewAddress(chat.Developer, "7")

		var ids []chat.NotificationID
		for i := 0; i < 4; i++ {
			created, err := storage.Notifications.Create(ctx, target, "kind", map[string]any{"i": i})
			req.NoError(err)
			ids = append(ids, created.ID)
		}
		other, err := storage.Notifications.Create(ctx, chat.NewAddress(chat.Developer, "8"), "kind", nil)
		req.NoError(err)
		req.NoError(storage.Notifications.MarkRead(ctx, ids[0]))

		// When every notification of the target is marked read
		updated, err := storage.Notifications.MarkAllRead(ctx, "7", "")
		req.NoError(err)

		// Then only the three unread ones were updated
		req.Equal(3, updated)
		listed, err := storage.Notifications.ListByTarget(ctx, "7")
		req.NoError(err)
		for _, notification := range listed {
			req.True(notification.Read, fmt.Sprintf("notification %d", notification.ID))
		}

		// And other targets are untouched
		listed, err = storage.Notifications.ListByTarget(ctx, "8")
		req.NoError(err)
		req.Equal(other.ID, listed[0].ID)
		req.False(listed[0].Read)

		// And a second pass is a no-op
		updated, err = storage.Notifications.MarkAllRead(ctx, "7", "")
		req.NoError(err)
		req.Zero(updated)
	})
}

func TestNotification_MarkAllRead_Keeps_Other_Kind(t *testing.T) {
	forEachDriver(t, func(t *testing.T, storage Storage) {
		req := require.New(t)
		ctx := context.Background()

		// Given a developer and an entrepreneur sharing id 3
		developer, err := storage.Notifications.Create(ctx, chat.NewAddress(chat.Developer, "3"), "kind", nil)
		req.NoError(err)
		entrepreneur, err := storage.Notifications.Create(ctx, chat.NewAddress(chat.Entrepreneur, "3"), "kind", nil)
		req.NoError(err)

		// When the developer marks everything read
		updated, err := storage.Notifications.MarkAllRead(ctx, "3", chat.Developer)
		req.NoError(err)

		// Then only the developer's notification changed
		req.Equal(1, updated)
		listed, err := storage.Notifications.ListByTarget(ctx, "3")
		req.NoError(err)
		req.Len(listed, 2)
		for _, notification := range listed {
			switch notification.ID {
			case developer.ID:
				req.True(notification.Read)
			case entrepreneur.ID:
				req.False(notification.Read)
			}
		}
	})
}

func TestNotification_Delete(t *testing.T) {
	forEachDriver(t, func(t *testing.T, storage Storage) {
		req := require.New(t)
		ctx := context.Background()

		err := storage.Notifications.Delete(ctx, 42)
		req.ErrorIs(err, errors.ErrNotFound)

		created, err := storage.Notifications.Create(ctx, chat.NewAddress(chat.Developer, "7"), "kind", nil)
		req.NoError(err)
		req.NoError(storage.Notifications.Delete(ctx, created.ID))

		listed, err := storage.Notifications.ListByTarget(ctx, "7")
		req.NoError(err)
		req.Empty(listed)

		// Then the deletion is terminal
		req.ErrorIs(storage.Notifications.Delete(ctx, created.ID), errors.ErrNotFound)
		req.ErrorIs(storage.Notifications.MarkRead(ctx, created.ID), errors.ErrNotFound)
	})
}
