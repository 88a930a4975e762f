package gateway

import (
	"context"
	"devconnect/contract"
	"devconnect/domain/event"
	"devconnect/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// socketConnection is the registry's view of one websocket. Every write to
// the socket goes through the send queue and the single write loop.
type socketConnection struct {
	id         contract.ConnectionID
	ws         *websocket.Conn
	log        *slog.Logger
	send       chan frame
	done       chan struct{}
	closeOnce  sync.Once
	pingPeriod time.Duration
}

func newSocketConnection(ws *websocket.Conn, log *slog.Logger, bufferSize int, pingPeriod time.Duration) *socketConnection {
	id := contract.ConnectionID(uuid.NewString())
	return &socketConnection{
		id:         id,
		ws:         ws,
		log:        log.With("connection_id", id),
		send:       make(chan frame, bufferSize),
		done:       make(chan struct{}),
		pingPeriod: pingPeriod,
	}
}

func (c *socketConnection) ID() contract.ConnectionID { return c.id }

// Consume queues e for the write loop. It fails once the connection is
// closed, or when the queue stays full until ctx expires.
func (c *socketConnection) Consume(ctx context.Context, e event.DomainEvent) error {
	f, err := toFrame(e)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, f)
}

func (c *socketConnection) enqueue(ctx context.Context, f frame) error {
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return fmt.Errorf("%w: outbound queue full: %v", errors.ErrDelivery, ctx.Err())
	}
}

// Close stops deliveries. The write loop then closes the socket, which ends
// the read loop.
func (c *socketConnection) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

func (c *socketConnection) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// writeLoop owns every write on the socket, pings included.
func (c *socketConnection) writeLoop() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case f := <-c.send:
			// select picks at random when done is also ready
			if c.closed() {
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				c.log.Debug("Socket write failed", "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("Socket ping failed", "error", err)
				_ = c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
