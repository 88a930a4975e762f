package gateway

import (
	"bytes"
	"devconnect/observability"
	"devconnect/repositories"
	"devconnect/runtime"
	"devconnect/services"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type testGateway struct {
	server   *httptest.Server
	registry *runtime.Registry
	storage  repositories.Storage
}

var defaultSocketOptions = SocketOptions{
	BufferSize:      16,
	DeliveryTimeout: 200 * time.Millisecond,
	PingPeriod:      time.Second,
	PongWait:        2 * time.Second,
}

func newTestGateway(t *testing.T, secret []byte, options SocketOptions) testGateway {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	storage, err := repositories.OpenBadger(t.TempDir(), log)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry(log)
	router := runtime.NewRouter(log, registry, storage.Messages, storage.Notifications, metrics,
		options.DeliveryTimeout, 500)
	rest := NewRestHandler(log,
		services.NewMessagingService(router, storage.Messages, storage.Index, 0),
		services.NewNotificationService(router, storage.Notifications))
	socket := NewSocketHandler(log, registry, router, metrics, options)

	server := httptest.NewServer(NewServer(log, "", secret, rest, socket, metrics).Handler())
	t.Cleanup(func() {
		registry.CloseAll()
		server.Close()
		_ = storage.Close()
	})
	return testGateway{server: server, registry: registry, storage: storage}
}

func (g testGateway) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	return g.doAs(t, "", method, path, body)
}

// doAs sends the request with token as bearer, when not empty.
func (g testGateway) doAs(t *testing.T, token, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	request, err := http.NewRequest(method, g.server.URL+path, reader)
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := g.server.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return response.StatusCode, raw
}
