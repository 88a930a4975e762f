// Package gateway exposes the messaging core over REST and websockets.
package gateway

import (
	"context"
	"devconnect/auth"
	"devconnect/observability"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Server struct {
	log    *slog.Logger
	engine *gin.Engine
	http   *http.Server
}

func NewServer(log *slog.Logger, address string, authSecret []byte, rest *RestHandler,
	socket *SocketHandler, metrics *observability.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	guard := auth.Middleware(authSecret)
	engine.GET("/ws", guard, socket.Serve)
	rest.Register(engine, guard)

	return &Server{
		log:    log,
		engine: engine,
		http: &http.Server{
			Addr:              address,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler is used by tests to mount the gateway on an httptest server.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve blocks until the listener fails or Shutdown is called.
func (s *Server) Serve(listener net.Listener) error {
	s.log.Info("Gateway listening", "address", listener.Addr().String())
	if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Shutdown stops accepting requests and waits for in-flight REST calls.
// Hijacked websockets are not tracked by net/http and are closed through
// the registry.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
