package runtime

import (
	"context"
	"devconnect/contract"
	"devconnect/domain/chat"
	"devconnect/domain/event"
	"devconnect/observability"
	"devconnect/repositories"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Router persists what it is given, then pushes it to the live connections
// that must observe it. Nothing is pushed unless the store acknowledged.
type Router struct {
	log              *slog.Logger
	registry         contract.IRegistry
	messages         repositories.IMessageRepository
	notifications    repositories.INotificationRepository
	metrics          *observability.Metrics
	notifier         chan<- event.DomainEvent
	censor           Censor
	deliveryTimeout  time.Duration
	maxMessageLength int
}

func NewRouter(log *slog.Logger,
	registry contract.IRegistry,
	messages repositories.IMessageRepository,
	notifications repositories.INotificationRepository,
	metrics *observability.Metrics,
	deliveryTimeout time.Duration,
	maxMessageLength int) *Router {
	return &Router{
		log:              log,
		registry:         registry,
		messages:         messages,
		notifications:    notifications,
		metrics:          metrics,
		deliveryTimeout:  deliveryTimeout,
		maxMessageLength: maxMessageLength,
	}
}

// WithNotifier makes the router offer every sent message to queue.
// The offer never blocks: a full queue drops the event.
func (r *Router) WithNotifier(queue chan<- event.DomainEvent) *Router {
	r.notifier = queue
	return r
}

// Censor masks forbidden words in a message body.
type Censor interface {
	Censor(body string) string
}

// WithCensor filters every body before it is stored.
func (r *Router) WithCensor(censor Censor) *Router {
	r.censor = censor
	return r
}

// RouteMessage stores the message and delivers it once to every connection
// in the sender's room and in the receiver's room.
func (r *Router) RouteMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	if err := cmd.Validate(r.maxMessageLength); err != nil {
		return chat.Message{}, err
	}
	if r.censor != nil {
		cmd.Body = r.censor.Censor(cmd.Body)
	}
	message, err := r.messages.Append(ctx, cmd.Sender, cmd.Receiver, cmd.Body)
	if err != nil {
		return chat.Message{}, err
	}
	r.metrics.MessagesRouted.Inc()

	members := append(r.registry.Members(message.Sender), r.registry.Members(message.Receiver)...)
	recipients := lo.UniqBy(members, func(conn contract.Connection) contract.ConnectionID {
		return conn.ID()
	})
	sent := event.MessageSent{Message: message}
	r.fanout(ctx, sent, recipients)

	if r.notifier != nil {
		select {
		case r.notifier <- sent:
		default:
			r.metrics.NotificationsDropped.Inc()
			r.log.Warn("Notifier queue full, dropping event", "message_id", message.ID)
		}
	}
	return message, nil
}

// RouteEvent stores a notification and pushes it to the target's room only.
func (r *Router) RouteEvent(ctx context.Context, cmd chat.CreateNotificationCommand) (chat.Notification, error) {
	if err := cmd.Validate(); err != nil {
		return chat.Notification{}, err
	}
	notification, err := r.notifications.Create(ctx, cmd.Target, cmd.Kind, cmd.Payload)
	if err != nil {
		return chat.Notification{}, err
	}
	r.metrics.NotificationsCreated.Inc()
	r.fanout(ctx, event.NotificationCreated{Notification: notification}, r.registry.Members(cmd.Target))
	return notification, nil
}

// fanout delivers evt to every connection concurrently, each one bounded by
// its own timeout. Failures are logged and counted, never returned.
func (r *Router) fanout(ctx context.Context, evt event.DomainEvent, recipients []contract.Connection) {
	var wg sync.WaitGroup
	for _, conn := range recipients {
		wg.Add(1)
		go func(conn contract.Connection) {
			defer wg.Done()
			deliveryCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
			defer cancel()
			if err := conn.Consume(deliveryCtx, evt); err != nil {
				r.metrics.DeliveryFailed()
				r.log.Warn("Delivery failed",
					"event", evt.Name(),
					"connection_id", conn.ID(),
					"error", err)
				return
			}
			r.metrics.Delivered()
		}(conn)
	}
	wg.Wait()
}
