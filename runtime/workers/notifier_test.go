package workers

import (
	"context"
	"devconnect/domain/chat"
	"devconnect/domain/event"
	"devconnect/errors"
	"devconnect/mocks"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNotifierWorker_Creates_New_Message_Notification(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	router := mocks.NewMockIRouter(ctrl)
	queue := make(chan event.DomainEvent, 2)

	message := chat.Message{
		ID:       uuid.New(),
		Sender:   chat.NewAddress(chat.Developer, "7"),
		Receiver: chat.NewAddress(chat.Entrepreneur, "3"),
		Body:     strings.Repeat("a", 100),
	}
	done := make(chan struct{})

	// Given the first routing fails, the worker keeps going
	router.EXPECT().RouteEvent(gomock.Any(), gomock.Any()).
		Return(chat.Notification{}, errors.ErrPersistence).
		Times(1)
	router.EXPECT().RouteEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd chat.CreateNotificationCommand) (chat.Notification, error) {
			// Then the receiver is notified with a preview of the body
			req.Equal(message.Receiver, cmd.Target)
			req.Equal(chat.NewMessageNotification, cmd.Kind)
			req.Equal(message.ID.String(), cmd.Payload["messageId"])
			req.Equal("developer", cmd.Payload["senderType"])
			req.Equal("7", cmd.Payload["senderId"])
			req.Equal(strings.Repeat("a", previewLength)+"…", cmd.Payload["preview"])
			close(done)
			return chat.Notification{}, nil
		}).
		Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewNotifierWorker(log, router, queue).Run(ctx) }()

	// When two messages are sent, with an unrelated event in between
	queue <- event.MessageSent{Message: message}
	queue <- event.NotificationCreated{}
	queue <- event.MessageSent{Message: message}

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Notification was not routed in time")
	}
}

func TestNotifierWorker_Stops_On_Cancel(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewNotifierWorker(slog.Default(), mocks.NewMockIRouter(ctrl), make(chan event.DomainEvent)).Run(ctx)
	req.NoError(err)
}

func TestPreview_Keeps_Short_Bodies(t *testing.T) {
	require.Equal(t, "héllo", preview("héllo"))
}
