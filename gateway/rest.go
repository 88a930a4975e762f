package gateway

import (
	"devconnect/auth"
	"devconnect/domain/chat"
	"devconnect/errors"
	"devconnect/services"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type RestHandler struct {
	log           *slog.Logger
	messaging     services.IMessagingService
	notifications services.INotificationService
}

func NewRestHandler(log *slog.Logger, messaging services.IMessagingService,
	notifications services.INotificationService) *RestHandler {
	return &RestHandler{log: log, messaging: messaging, notifications: notifications}
}

// Register mounts the routes. Actor routes go through guard, which puts the
// token's address in the request context; handlers then only act on behalf
// of that address. POST /notifications is called by the workflow services,
// not by actors, and is left unguarded.
func (h *RestHandler) Register(engine gin.IRouter, guard gin.HandlerFunc) {
	actor := engine.Group("", guard)
	actor.GET("/messages/:senderKind/:senderId/:receiverKind/:receiverId", h.getHistory)
	actor.POST("/messages", h.postMessage)
	actor.GET("/unique-entrepreneurs", h.uniqueCounterparties(chat.Developer, "developer_id", "entrepreneurIds"))
	actor.GET("/unique-developers", h.uniqueCounterparties(chat.Entrepreneur, "entrepreneur_id", "developerIds"))
	actor.GET("/notifications/:targetId", h.listNotifications)
	actor.PATCH("/notifications/:id/read", h.markRead)
	actor.PATCH("/notifications/read-all/:targetId", h.markAllRead)
	actor.DELETE("/notifications/:id", h.deleteNotification)

	engine.POST("/notifications", h.postNotification)
}

func (h *RestHandler) getHistory(c *gin.Context) {
	cmd := chat.GetHistoryCommand{
		First:  chat.NewAddress(chat.ActorKind(c.Param("senderKind")), c.Param("senderId")),
		Second: chat.NewAddress(chat.ActorKind(c.Param("receiverKind")), c.Param("receiverId")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, fmt.Errorf("%w: limit %q is not a number", errors.ErrValidation, raw))
			return
		}
		cmd.Limit = limit
	}
	if err := requireActor(c, cmd.First, cmd.Second); err != nil {
		h.fail(c, err)
		return
	}
	messages, err := h.messaging.GetHistory(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(messages, func(m chat.Message, _ int) messageResponse {
		return toMessageResponse(m)
	}))
}

func (h *RestHandler) postMessage(c *gin.Context) {
	var request postMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}
	cmd := request.toCommand()
	if err := requireActor(c, cmd.Sender); err != nil {
		h.fail(c, err)
		return
	}
	message, err := h.messaging.PostMessage(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(message))
}

// uniqueCounterparties lists who wrote to the receiver named by the query
// parameter. The result key is the plural of the counterpart kind.
func (h *RestHandler) uniqueCounterparties(receiverKind chat.ActorKind, param, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		receiver := chat.NewAddress(receiverKind, c.Query(param))
		if err := requireActor(c, receiver); err != nil {
			h.fail(c, err)
			return
		}
		ids, err := h.messaging.Counterparties(c.Request.Context(), chat.CounterpartiesCommand{
			Receiver: receiver,
			Kind:     receiverKind.Counterpart(),
		})
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{key: ids})
	}
}

func (h *RestHandler) postNotification(c *gin.Context) {
	var request postNotificationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}
	notification, err := h.notifications.Create(c.Request.Context(), request.toCommand())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toNotificationResponse(notification))
}

func (h *RestHandler) listNotifications(c *gin.Context) {
	kind, err := targetKind(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	notifications, err := h.notifications.List(c.Request.Context(), c.Param("targetId"), kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toNotificationResponses(notifications))
}

func (h *RestHandler) markRead(c *gin.Context) {
	id, err := notificationID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err = h.requireOwnNotification(c, id); err != nil {
		h.fail(c, err)
		return
	}
	if err = h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RestHandler) markAllRead(c *gin.Context) {
	kind, err := targetKind(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), c.Param("targetId"), kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *RestHandler) deleteNotification(c *gin.Context) {
	id, err := notificationID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err = h.requireOwnNotification(c, id); err != nil {
		h.fail(c, err)
		return
	}
	if err = h.notifications.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requireActor fails when the request carries a token whose address is not
// one of allowed. Without a token there is nothing to check.
func requireActor(c *gin.Context, allowed ...chat.Address) error {
	actor, ok := auth.AddressFrom(c.Request.Context())
	if !ok || lo.Contains(allowed, actor) {
		return nil
	}
	return fmt.Errorf("%w: token does not grant %s", errors.ErrUnauthorized,
		strings.Join(lo.Map(allowed, func(a chat.Address, _ int) string { return a.String() }), " or "))
}

// targetKind reads the optional ?type= filter of the target routes. With a
// token it defaults to the token's kind and the target must be the token's
// address.
func targetKind(c *gin.Context) (chat.ActorKind, error) {
	kind := chat.ActorKind(c.Query("type"))
	actor, ok := auth.AddressFrom(c.Request.Context())
	if !ok {
		return kind, nil
	}
	if kind == "" {
		kind = actor.Kind
	}
	return kind, requireActor(c, chat.NewAddress(kind, c.Param("targetId")))
}

// requireOwnNotification hides notifications of other actors behind a
// not found, the same answer as for a missing id.
func (h *RestHandler) requireOwnNotification(c *gin.Context, id chat.NotificationID) error {
	actor, ok := auth.AddressFrom(c.Request.Context())
	if !ok {
		return nil
	}
	owned, err := h.notifications.List(c.Request.Context(), actor.ID, actor.Kind)
	if err != nil {
		return err
	}
	if !lo.ContainsBy(owned, func(n chat.Notification) bool { return n.ID == id }) {
		return fmt.Errorf("%w: notification %d", errors.ErrNotFound, id)
	}
	return nil
}

func notificationID(raw string) (chat.NotificationID, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: notification id %q is not a number", errors.ErrValidation, raw)
	}
	return chat.NotificationID(id), nil
}

func (h *RestHandler) fail(c *gin.Context, err error) {
	status := errors.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Code: errors.Code(err), Message: err.Error()})
}
