//go:generate go run go.uber.org/mock/mockgen -source=messaging_service.go -destination=../mocks/mock_messaging_service.go -package=mocks
package services

import (
	"context"
	"devconnect/contract"
	"devconnect/domain/chat"
	"devconnect/repositories"
)

type IMessagingService interface {
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error)
	GetHistory(ctx context.Context, cmd chat.GetHistoryCommand) ([]chat.Message, error)
	Counterparties(ctx context.Context, cmd chat.CounterpartiesCommand) ([]string, error)
}

type MessagingService struct {
	router       contract.IRouter
	messages     repositories.IMessageRepository
	index        repositories.IConversationIndex
	defaultLimit int
}

// NewMessagingService applies defaultLimit to history reads that ask for no
// limit. Zero keeps the whole conversation.
func NewMessagingService(router contract.IRouter, messages repositories.IMessageRepository,
	index repositories.IConversationIndex, defaultLimit int) *MessagingService {
	return &MessagingService{router: router, messages: messages, index: index, defaultLimit: defaultLimit}
}

// PostMessage goes through the router so REST senders get the same live
// fan-out as socket senders.
func (s *MessagingService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	return s.router.RouteMessage(ctx, cmd)
}

func (s *MessagingService) GetHistory(ctx context.Context, cmd chat.GetHistoryCommand) ([]chat.Message, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	limit := cmd.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	return s.messages.History(ctx, cmd.First, cmd.Second, limit)
}

func (s *MessagingService) Counterparties(ctx context.Context, cmd chat.CounterpartiesCommand) ([]string, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return s.index.DistinctCounterparties(ctx, cmd.Receiver, cmd.Kind)
}
