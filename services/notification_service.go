//go:generate go run go.uber.org/mock/mockgen -source=notification_service.go -destination=../mocks/mock_notification_service.go -package=mocks
package services

import (
	"context"
	"devconnect/contract"
	"devconnect/domain/chat"
	"devconnect/errors"
	"devconnect/repositories"
	"fmt"

	"github.com/samber/lo"
)

type INotificationService interface {
	Create(ctx context.Context, cmd chat.CreateNotificationCommand) (chat.Notification, error)
	List(ctx context.Context, targetID string, kind chat.ActorKind) ([]chat.Notification, error)
	MarkRead(ctx context.Context, id chat.NotificationID) error
	MarkAllRead(ctx context.Context, targetID string, kind chat.ActorKind) (int, error)
	Delete(ctx context.Context, id chat.NotificationID) error
}

type NotificationService struct {
	router        contract.IRouter
	notifications repositories.INotificationRepository
}

func NewNotificationService(router contract.IRouter, notifications repositories.INotificationRepository) *NotificationService {
	return &NotificationService{router: router, notifications: notifications}
}

// Create stores the notification and pushes it to the target's live connections.
func (s *NotificationService) Create(ctx context.Context, cmd chat.CreateNotificationCommand) (chat.Notification, error) {
	return s.router.RouteEvent(ctx, cmd)
}

// List returns the notifications of targetID, most recent first.
// An empty kind keeps both actor kinds.
func (s *NotificationService) List(ctx context.Context, targetID string, kind chat.ActorKind) ([]chat.Notification, error) {
	if err := validateTarget(targetID, kind); err != nil {
		return nil, err
	}
	notifications, err := s.notifications.ListByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return notifications, nil
	}
	return lo.Filter(notifications, func(n chat.Notification, _ int) bool {
		return n.Target.Kind == kind
	}), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id chat.NotificationID) error {
	return s.notifications.MarkRead(ctx, id)
}

// MarkAllRead marks the unread notifications of targetID as read.
// An empty kind covers both actor kinds.
func (s *NotificationService) MarkAllRead(ctx context.Context, targetID string, kind chat.ActorKind) (int, error) {
	if err := validateTarget(targetID, kind); err != nil {
		return 0, err
	}
	return s.notifications.MarkAllRead(ctx, targetID, kind)
}

func validateTarget(targetID string, kind chat.ActorKind) error {
	if targetID == "" {
		return fmt.Errorf("%w: target id is required", errors.ErrValidation)
	}
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("%w: unknown actor kind %q", errors.ErrValidation, kind)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, id chat.NotificationID) error {
	return s.notifications.Delete(ctx, id)
}
