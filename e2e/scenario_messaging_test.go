package e2e

import (
	"context"
	"devconnect/domain/chat"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type testMessagingSuite struct {
	BaseSuite
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, &testMessagingSuite{})
}

func (s *testMessagingSuite) TestConversationFlow() {
	// Fresh ids so the scenario can run against a long-lived server
	developer := chat.NewAddress(chat.Developer, "e2e-"+uuid.NewString()[:8])
	entrepreneur := chat.NewAddress(chat.Entrepreneur, "e2e-"+uuid.NewString()[:8])

	s.Step("Step 0: Gateway is healthy", func() {
		s.Require().Equal(http.StatusOK, s.Do(http.MethodGet, "/healthz", nil, nil))
		s.WithHealth(func(ctx context.Context, client healthpb.HealthClient) {
			response, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
			s.Require().NoError(err)
			s.LogProto(response)
			s.Require().Equal(healthpb.HealthCheckResponse_SERVING, response.GetStatus())
		})
	})

	developerSocket := s.Socket(developer)
	defer developerSocket.Close()
	entrepreneurSocket := s.Socket(entrepreneur)
	defer entrepreneurSocket.Close()

	var messageID string
	s.Step("Step 1: Message sent over the socket reaches both sides", func() {
		s.Send(developerSocket, "sendMessage", map[string]string{
			"senderType": string(developer.Kind), "senderId": developer.ID,
			"receiverType": string(entrepreneur.Kind), "receiverId": entrepreneur.ID,
			"message": "Hello, I can build your MVP",
		})
		for _, ws := range []*websocket.Conn{developerSocket, entrepreneurSocket} {
			var push map[string]any
			s.Require().Equal("newMessage", s.receiveSkipping(ws, &push, "newNotification"))
			s.Require().Equal("Hello, I can build your MVP", push["message"])
			messageID = push["id"].(string)
		}
	})

	s.Step("Step 2: History and inbox reflect the message", func() {
		var history []map[string]any
		path := fmt.Sprintf("/messages/%s/%s/%s/%s", developer.Kind, developer.ID, entrepreneur.Kind, entrepreneur.ID)
		s.Require().Equal(http.StatusOK, s.DoAs(developer, http.MethodGet, path, nil, &history))
		s.Require().Len(history, 1)
		s.Require().Equal(messageID, history[0]["id"])

		var inbox map[string][]string
		s.Require().Equal(http.StatusOK, s.DoAs(entrepreneur, http.MethodGet, "/unique-developers?entrepreneur_id="+entrepreneur.ID, nil, &inbox))
		s.Require().Equal([]string{developer.ID}, inbox["developerIds"])
	})

	s.Step("Step 3: Notifications can be read and deleted", func() {
		var created map[string]any
		s.Require().Equal(http.StatusCreated, s.Do(http.MethodPost, "/notifications", map[string]any{
			"targetType": string(entrepreneur.Kind), "targetId": entrepreneur.ID,
			"kind": "proposal_received", "payload": map[string]any{"at": time.Now().Unix()},
		}, &created))
		id := uint64(created["id"].(float64))

		s.Require().Equal(http.StatusNoContent, s.DoAs(entrepreneur, http.MethodPatch, fmt.Sprintf("/notifications/%d/read", id), nil, nil))
		var updated map[string]int
		readAll := fmt.Sprintf("/notifications/read-all/%s?type=%s", entrepreneur.ID, entrepreneur.Kind)
		s.Require().Equal(http.StatusOK, s.DoAs(entrepreneur, http.MethodPatch, readAll, nil, &updated))
		s.Require().Equal(http.StatusNoContent, s.DoAs(entrepreneur, http.MethodDelete, fmt.Sprintf("/notifications/%d", id), nil, nil))
		s.Require().Equal(http.StatusNotFound, s.DoAs(entrepreneur, http.MethodPatch, fmt.Sprintf("/notifications/%d/read", id), nil, nil))
	})
}
