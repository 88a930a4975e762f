package e2e

import (
	"bytes"
	"context"
	"devconnect/auth"
	"devconnect/domain/chat"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.BaseURL == "" {
		s.T().Skip("E2E_BASE_URL is not set")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header, then runs fn as a subtest
func (s *BaseSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// Do sends a JSON request without token and decodes the JSON response into
// out when given
func (s *BaseSuite) Do(method, path string, body any, out any) int {
	return s.do("", method, path, body, out)
}

// DoAs is Do on behalf of actor, with a token when the server requires one
func (s *BaseSuite) DoAs(actor chat.Address, method, path string, body any, out any) int {
	return s.do(s.token(actor), method, path, body, out)
}

func (s *BaseSuite) token(actor chat.Address) string {
	if s.Config.AuthSecret == "" {
		return ""
	}
	token, err := auth.GenerateToken([]byte(s.Config.AuthSecret), actor, time.Minute)
	s.Require().NoError(err)
	return token
}

func (s *BaseSuite) do(token, method, path string, body any, out any) int {
	var reader io.Reader
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	request, err := http.NewRequest(method, strings.TrimSuffix(s.Config.BaseURL, "/")+path, reader)
	s.Require().NoError(err)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	response, err := s.client.Do(request)
	s.Require().NoError(err)
	defer response.Body.Close()
	responseBody, err := io.ReadAll(response.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, response.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		fmt.Fprintf(&logBuilder, "\nREQUEST:\n%s\nRESPONSE:\n%s", raw, responseBody)
	}
	s.T().Log(logBuilder.String())

	if out != nil && len(responseBody) > 0 {
		s.Require().NoError(json.Unmarshal(responseBody, out), string(responseBody))
	}
	return response.StatusCode
}

// Socket opens a websocket for address, with a token when the server
// requires one, and joins the address room
func (s *BaseSuite) Socket(address chat.Address) *websocket.Conn {
	u, err := url.Parse(s.Config.BaseURL)
	s.Require().NoError(err)
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	if token := s.token(address); token != "" {
		u.RawQuery = url.Values{"token": {token}}.Encode()
	}
	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err)

	s.Send(ws, "join", map[string]string{"type": string(address.Kind), "id": address.ID})
	s.Require().Equal("joined", s.Receive(ws, nil))
	return ws
}

func (s *BaseSuite) Send(ws *websocket.Conn, event string, data any) {
	raw, err := json.Marshal(data)
	s.Require().NoError(err)
	s.Require().NoError(ws.WriteJSON(map[string]any{"event": event, "data": json.RawMessage(raw)}))
}

// Receive waits for the next frame and returns its event name
func (s *BaseSuite) Receive(ws *websocket.Conn, data any) string {
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var f struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	s.Require().NoError(ws.ReadJSON(&f))
	if data != nil && len(f.Data) > 0 {
		s.Require().NoError(json.Unmarshal(f.Data, data))
	}
	return f.Event
}

// receiveSkipping is Receive ignoring the listed events, which may
// interleave with the expected one
func (s *BaseSuite) receiveSkipping(ws *websocket.Conn, data any, skipped ...string) string {
	for {
		var raw json.RawMessage
		name := s.Receive(ws, &raw)
		if slices.Contains(skipped, name) {
			continue
		}
		if data != nil && len(raw) > 0 {
			s.Require().NoError(json.Unmarshal(raw, data))
		}
		return name
	}
}

// WithHealth provides a gRPC health client, when the address is configured
func (s *BaseSuite) WithHealth(fn func(ctx context.Context, client healthpb.HealthClient)) {
	if s.Config.GrpcHealthAddr == "" {
		s.T().Log("E2E_GRPC_HEALTH_ADDR is not set, skipping health check")
		return
	}
	conn, err := grpc.NewClient(s.Config.GrpcHealthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	fn(ctx, healthpb.NewHealthClient(conn))
}

func (s *BaseSuite) LogProto(response *healthpb.HealthCheckResponse) {
	if s.Config.DebugJSON {
		s.T().Log(protojson.MarshalOptions{Multiline: true, EmitUnpopulated: true}.Format(response))
	}
}
