package gateway

import (
	"context"
	"devconnect/auth"
	"devconnect/contract"
	"devconnect/domain/chat"
	"devconnect/errors"
	"devconnect/observability"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const maxFrameBytes = 64 * 1024

type SocketOptions struct {
	BufferSize      int
	DeliveryTimeout time.Duration
	PingPeriod      time.Duration
	PongWait        time.Duration
	// RateLimit is the sustained number of inbound events per second a
	// connection may send. Zero disables the limit.
	RateLimit float64
	RateBurst int
}

// connectionState follows a socket from upgrade to cleanup.
type connectionState int

const (
	stateConnecting connectionState = iota
	stateJoined
	stateActive
	stateDisconnected
)

func (s connectionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateJoined:
		return "joined"
	case stateActive:
		return "active"
	default:
		return "disconnected"
	}
}

type SocketHandler struct {
	log      *slog.Logger
	registry contract.IRegistry
	router   contract.IRouter
	metrics  *observability.Metrics
	options  SocketOptions
	upgrader websocket.Upgrader
}

func NewSocketHandler(log *slog.Logger, registry contract.IRegistry, router contract.IRouter,
	metrics *observability.Metrics, options SocketOptions) *SocketHandler {
	return &SocketHandler{
		log:      log,
		registry: registry,
		router:   router,
		metrics:  metrics,
		options:  options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy belongs to the reverse proxy in front of the gateway.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// session is the per-socket state, only touched by the read goroutine.
type session struct {
	ctx           context.Context
	conn          *socketConnection
	state         connectionState
	joined        map[chat.Address]struct{}
	authenticated *chat.Address
	limiter       *rate.Limiter
}

// Serve upgrades the request and blocks until the socket goes away.
// Whatever ends the read loop, the connection leaves every room before
// Serve returns.
func (h *SocketHandler) Serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("Websocket upgrade failed", "error", err)
		return
	}
	conn := newSocketConnection(ws, h.log, h.options.BufferSize, h.options.PingPeriod)
	s := &session{
		ctx:     c.Request.Context(),
		conn:    conn,
		state:   stateConnecting,
		joined:  make(map[chat.Address]struct{}),
		limiter: newLimiter(h.options.RateLimit, h.options.RateBurst),
	}
	if address, ok := auth.AddressFrom(c.Request.Context()); ok {
		s.authenticated = &address
	}
	go conn.writeLoop()
	conn.log.Debug("Connection opened")

	defer func() {
		left := h.registry.LeaveAll(conn)
		s.state = stateDisconnected
		conn.log.Debug("Connection closed", "rooms_left", len(left))
	}()
	h.readLoop(s)
}

func (h *SocketHandler) readLoop(s *session) {
	ws := s.conn.ws
	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(h.options.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.options.PongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.conn.log.Debug("Socket read failed", "error", err)
			}
			return
		}
		if s.conn.closed() {
			return
		}
		if !s.limiter.Allow() {
			h.reject(s, fmt.Errorf("%w: slow down", errors.ErrRateLimited))
			continue
		}
		var f frame
		if err = json.Unmarshal(raw, &f); err != nil {
			h.reject(s, fmt.Errorf("%w: malformed frame: %v", errors.ErrValidation, err))
			continue
		}
		if err = h.handle(s, f); err != nil {
			h.reject(s, err)
		}
	}
}

func (h *SocketHandler) handle(s *session, f frame) error {
	switch f.Event {
	case eventJoin:
		return h.join(s, f.Data)
	case eventLeave:
		return h.leave(s, f.Data)
	case eventSendMessage:
		return h.sendMessage(s, f.Data)
	default:
		return errUnknownEvent(f.Event)
	}
}

func (h *SocketHandler) join(s *session, data json.RawMessage) error {
	var payload addressData
	if err := decodeData(data, &payload); err != nil {
		return err
	}
	address := payload.address()
	if err := chat.ValidateAddress(address); err != nil {
		return err
	}
	if s.authenticated != nil && *s.authenticated != address {
		return fmt.Errorf("%w: token does not grant %s", errors.ErrUnauthorized, address)
	}
	h.registry.Join(address, s.conn)
	s.joined[address] = struct{}{}
	if s.state == stateConnecting {
		s.state = stateJoined
	}
	s.conn.log.Debug("Joined", "address", address, "state", s.state)
	h.reply(s, eventJoined, payload)
	s.state = stateActive
	return nil
}

func (h *SocketHandler) leave(s *session, data json.RawMessage) error {
	var payload addressData
	if err := decodeData(data, &payload); err != nil {
		return err
	}
	address := payload.address()
	if _, ok := s.joined[address]; !ok {
		return fmt.Errorf("%w: %s was not joined", errors.ErrValidation, address)
	}
	h.registry.Leave(address, s.conn)
	delete(s.joined, address)
	h.reply(s, eventLeft, payload)
	return nil
}

func (h *SocketHandler) sendMessage(s *session, data json.RawMessage) error {
	if s.state != stateActive {
		return fmt.Errorf("%w: join before sending", errors.ErrUnauthorized)
	}
	var payload sendMessageData
	if err := decodeData(data, &payload); err != nil {
		return err
	}
	cmd := payload.toCommand()
	if _, ok := s.joined[cmd.Sender]; !ok {
		return fmt.Errorf("%w: %s was not joined on this connection", errors.ErrUnauthorized, cmd.Sender)
	}
	// An accepted message commits even if the socket drops meanwhile.
	_, err := h.router.RouteMessage(context.WithoutCancel(s.ctx), cmd)
	return err
}

func (h *SocketHandler) reply(s *session, name string, data any) {
	f, err := newFrame(name, data)
	if err != nil {
		s.conn.log.Error("Frame encoding failed", "event", name, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.options.DeliveryTimeout)
	defer cancel()
	if err = s.conn.enqueue(ctx, f); err != nil {
		s.conn.log.Debug("Reply dropped", "event", name, "error", err)
	}
}

func (h *SocketHandler) reject(s *session, err error) {
	code := errors.Code(err)
	h.metrics.Rejected(code)
	if code == "persistence" || code == "internal" {
		s.conn.log.Error("Socket event failed", "error", err)
	} else {
		s.conn.log.Debug("Socket event rejected", "code", code, "error", err)
	}
	h.reply(s, eventError, errorResponse{Code: code, Message: err.Error()})
}

func decodeData(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errors.ErrValidation)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}

func errUnknownEvent(name string) error {
	return fmt.Errorf("%w: %q", errors.ErrUnknownEvent, name)
}

func newLimiter(limit float64, burst int) *rate.Limiter {
	if limit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(limit), max(burst, 1))
}
