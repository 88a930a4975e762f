package services

import (
	"context"
	"devconnect/domain/chat"
	"devconnect/errors"
	"devconnect/mocks"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	developer    = chat.NewAddress(chat.Developer, "7")
	entrepreneur = chat.NewAddress(chat.Entrepreneur, "3")
)

func TestMessagingService_PostMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := mocks.NewMockIRouter(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	index := mocks.NewMockIConversationIndex(ctrl)
	svc := NewMessagingService(router, messages, index, 0)

	t.Run("should hand the command to the router", func(t *testing.T) {
		req := require.New(t)
		// Given a valid command
		cmd := chat.PostMessageCommand{Sender: developer, Receiver: entrepreneur, Body: "Hello"}
		expected := chat.Message{ID: uuid.New(), Sender: developer, Receiver: entrepreneur,
			Body: "Hello", CreatedAt: time.Now().UTC(), Seq: 1}
		router.EXPECT().RouteMessage(gomock.Any(), cmd).Return(expected, nil).Times(1)
		// The store is only reached through the router
		messages.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		// When the message is posted
		message, err := svc.PostMessage(context.Background(), cmd)

		// Then the routed message is returned
		req.NoError(err)
		req.Equal(expected, message)
	})

	t.Run("should return the router error", func(t *testing.T) {
		req := require.New(t)
		cmd := chat.PostMessageCommand{Sender: developer, Receiver: developer, Body: "Hello"}
		router.EXPECT().RouteMessage(gomock.Any(), cmd).Return(chat.Message{}, errors.ErrValidation).Times(1)

		_, err := svc.PostMessage(context.Background(), cmd)

		req.ErrorIs(err, errors.ErrValidation)
	})
}

func TestMessagingService_GetHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	messages := mocks.NewMockIMessageRepository(ctrl)
	svc := NewMessagingService(mocks.NewMockIRouter(ctrl), messages, mocks.NewMockIConversationIndex(ctrl), 50)

	t.Run("should apply the default limit when none is asked", func(t *testing.T) {
		req := require.New(t)
		// Given a history read without limit
		messages.EXPECT().History(gomock.Any(), developer, entrepreneur, 50).Return([]chat.Message{}, nil).Times(1)

		// When the history is read
		history, err := svc.GetHistory(context.Background(), chat.GetHistoryCommand{First: developer, Second: entrepreneur})

		// Then the configured default is used
		req.NoError(err)
		req.Empty(history)
	})

	t.Run("should keep an explicit limit", func(t *testing.T) {
		req := require.New(t)
		messages.EXPECT().History(gomock.Any(), entrepreneur, developer, 5).Return(nil, nil).Times(1)

		_, err := svc.GetHistory(context.Background(), chat.GetHistoryCommand{First: entrepreneur, Second: developer, Limit: 5})

		req.NoError(err)
	})

	t.Run("should reject a negative limit without reading", func(t *testing.T) {
		req := require.New(t)
		messages.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.GetHistory(context.Background(), chat.GetHistoryCommand{First: developer, Second: entrepreneur, Limit: -1})

		req.ErrorIs(err, errors.ErrValidation)
	})

	t.Run("should reject an unknown actor kind", func(t *testing.T) {
		req := require.New(t)
		messages.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.GetHistory(context.Background(), chat.GetHistoryCommand{
			First: chat.NewAddress("investor", "1"), Second: entrepreneur})

		req.ErrorIs(err, errors.ErrValidation)
	})
}

func TestMessagingService_Counterparties(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	index := mocks.NewMockIConversationIndex(ctrl)
	svc := NewMessagingService(mocks.NewMockIRouter(ctrl), mocks.NewMockIMessageRepository(ctrl), index, 0)

	t.Run("should list the senders of the receiver", func(t *testing.T) {
		req := require.New(t)
		// Given an entrepreneur contacted by two developers
		index.EXPECT().DistinctCounterparties(gomock.Any(), entrepreneur, chat.Developer).
			Return([]string{"7", "9"}, nil).Times(1)

		// When the counterparties are listed
		ids, err := svc.Counterparties(context.Background(), chat.CounterpartiesCommand{
			Receiver: entrepreneur, Kind: chat.Developer})

		// Then both ids are returned
		req.NoError(err)
		req.Equal([]string{"7", "9"}, ids)
	})

	t.Run("should reject a missing receiver id", func(t *testing.T) {
		req := require.New(t)
		index.EXPECT().DistinctCounterparties(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Counterparties(context.Background(), chat.CounterpartiesCommand{
			Receiver: chat.NewAddress(chat.Entrepreneur, ""), Kind: chat.Developer})

		req.ErrorIs(err, errors.ErrValidation)
	})
}
