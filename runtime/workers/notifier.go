package workers

import (
	"context"
	"devconnect/contract"
	"devconnect/domain/chat"
	"devconnect/domain/event"
	"log/slog"
)

const previewLength = 80

// NotifierWorker turns every sent message into a new_message notification
// for its receiver. It reads from the queue the router offers to.
type NotifierWorker struct {
	log    *slog.Logger
	router contract.IRouter
	queue  <-chan event.DomainEvent
}

func NewNotifierWorker(log *slog.Logger, router contract.IRouter, queue <-chan event.DomainEvent) *NotifierWorker {
	return &NotifierWorker{log: log, router: router, queue: queue}
}

func (w NotifierWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping notifier")
			return nil
		case evt := <-w.queue:
			sent, ok := evt.(event.MessageSent)
			if !ok {
				w.log.Debug("Notifier ignoring event", "event", evt.Name())
				continue
			}
			if _, err := w.router.RouteEvent(ctx, toNewMessageNotification(sent.Message)); err != nil {
				w.log.Warn("New message notification failed",
					"message_id", sent.Message.ID,
					"target", sent.Message.Receiver,
					"error", err)
			}
		}
	}
}

func toNewMessageNotification(message chat.Message) chat.CreateNotificationCommand {
	return chat.CreateNotificationCommand{
		Target: message.Receiver,
		Kind:   chat.NewMessageNotification,
		Payload: map[string]any{
			"messageId":  message.ID.String(),
			"senderType": string(message.Sender.Kind),
			"senderId":   message.Sender.ID,
			"preview":    preview(message.Body),
		},
	}
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength]) + "…"
}
