package gateway

import (
	"devconnect/domain/chat"
	"devconnect/domain/event"
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// REST bodies.

type postMessageRequest struct {
	SenderKind   chat.ActorKind `json:"senderKind" binding:"required"`
	SenderID     string         `json:"senderId" binding:"required"`
	ReceiverKind chat.ActorKind `json:"receiverKind" binding:"required"`
	ReceiverID   string         `json:"receiverId" binding:"required"`
	Body         string         `json:"body"`
}

func (r postMessageRequest) toCommand() chat.PostMessageCommand {
	return chat.PostMessageCommand{
		Sender:   chat.NewAddress(r.SenderKind, r.SenderID),
		Receiver: chat.NewAddress(r.ReceiverKind, r.ReceiverID),
		Body:     r.Body,
	}
}

type messageResponse struct {
	ID           string    `json:"id"`
	SenderKind   string    `json:"senderKind"`
	SenderID     string    `json:"senderId"`
	ReceiverKind string    `json:"receiverKind"`
	ReceiverID   string    `json:"receiverId"`
	Body         string    `json:"body"`
	Timestamp    time.Time `json:"timestamp"`
	Seq          uint64    `json:"seq"`
}

func toMessageResponse(m chat.Message) messageResponse {
	return messageResponse{
		ID:           m.ID.String(),
		SenderKind:   string(m.Sender.Kind),
		SenderID:     m.Sender.ID,
		ReceiverKind: string(m.Receiver.Kind),
		ReceiverID:   m.Receiver.ID,
		Body:         m.Body,
		Timestamp:    m.CreatedAt,
		Seq:          m.Seq,
	}
}

type postNotificationRequest struct {
	TargetType chat.ActorKind `json:"targetType" binding:"required"`
	TargetID   string         `json:"targetId" binding:"required"`
	Kind       string         `json:"kind" binding:"required"`
	Payload    map[string]any `json:"payload"`
}

func (r postNotificationRequest) toCommand() chat.CreateNotificationCommand {
	return chat.CreateNotificationCommand{
		Target:  chat.NewAddress(r.TargetType, r.TargetID),
		Kind:    chat.NotificationKind(r.Kind),
		Payload: r.Payload,
	}
}

type notificationResponse struct {
	ID         uint64         `json:"id"`
	TargetType string         `json:"targetType"`
	TargetID   string         `json:"targetId"`
	Kind       string         `json:"kind"`
	Payload    map[string]any `json:"payload"`
	Read       bool           `json:"read"`
	CreatedAt  time.Time      `json:"createdAt"`
	ReadAt     *time.Time     `json:"readAt,omitempty"`
}

func toNotificationResponse(n chat.Notification) notificationResponse {
	payload := n.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return notificationResponse{
		ID:         uint64(n.ID),
		TargetType: string(n.Target.Kind),
		TargetID:   n.Target.ID,
		Kind:       string(n.Kind),
		Payload:    payload,
		Read:       n.Read,
		CreatedAt:  n.CreatedAt,
		ReadAt:     n.ReadAt,
	}
}

func toNotificationResponses(notifications []chat.Notification) []notificationResponse {
	return lo.Map(notifications, func(n chat.Notification, _ int) notificationResponse {
		return toNotificationResponse(n)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Socket frames.

const (
	eventJoin        = "join"
	eventJoined      = "joined"
	eventLeave       = "leave"
	eventLeft        = "left"
	eventSendMessage = "sendMessage"
	eventError       = "error"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type addressData struct {
	Type chat.ActorKind `json:"type"`
	ID   string         `json:"id"`
}

func (a addressData) address() chat.Address {
	return chat.NewAddress(a.Type, a.ID)
}

type sendMessageData struct {
	SenderType   chat.ActorKind `json:"senderType"`
	SenderID     string         `json:"senderId"`
	ReceiverType chat.ActorKind `json:"receiverType"`
	ReceiverID   string         `json:"receiverId"`
	Message      string         `json:"message"`
}

func (d sendMessageData) toCommand() chat.PostMessageCommand {
	return chat.PostMessageCommand{
		Sender:   chat.NewAddress(d.SenderType, d.SenderID),
		Receiver: chat.NewAddress(d.ReceiverType, d.ReceiverID),
		Body:     d.Message,
	}
}

type newMessageData struct {
	ID           string    `json:"id"`
	SenderType   string    `json:"senderType"`
	SenderID     string    `json:"senderId"`
	ReceiverType string    `json:"receiverType"`
	ReceiverID   string    `json:"receiverId"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Seq          uint64    `json:"seq"`
}

func toNewMessageData(m chat.Message) newMessageData {
	return newMessageData{
		ID:           m.ID.String(),
		SenderType:   string(m.Sender.Kind),
		SenderID:     m.Sender.ID,
		ReceiverType: string(m.Receiver.Kind),
		ReceiverID:   m.Receiver.ID,
		Message:      m.Body,
		Timestamp:    m.CreatedAt,
		Seq:          m.Seq,
	}
}

func newFrame(name string, data any) (frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return frame{}, err
	}
	return frame{Event: name, Data: raw}, nil
}

// toFrame renders a domain event as the frame pushed to clients.
func toFrame(e event.DomainEvent) (frame, error) {
	switch evt := e.(type) {
	case event.MessageSent:
		return newFrame(string(event.NewMessage), toNewMessageData(evt.Message))
	case event.NotificationCreated:
		return newFrame(string(event.NewNotification), toNotificationResponse(evt.Notification))
	default:
		return frame{}, errUnknownEvent(string(e.Name()))
	}
}
