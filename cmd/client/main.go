package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
// With a peer configured, the client prints the conversation, then sends
// every line typed on stdin to that peer.
type Config struct {
	ServerURL string `env:"DEVCONNECT_SERVER_URL,default=http://localhost:8080"`
	ActorKind string `env:"DEVCONNECT_ACTOR_KIND,required=true"`
	ActorID   string `env:"DEVCONNECT_ACTOR_ID,required=true"`
	PeerKind  string `env:"DEVCONNECT_PEER_KIND"`
	PeerID    string `env:"DEVCONNECT_PEER_ID"`
	Token     string `env:"DEVCONNECT_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`
}

func (c Config) hasPeer() bool { return c.PeerKind != "" && c.PeerID != "" }

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type pushedMessage struct {
	SenderType string    `json:"senderType"`
	SenderID   string    `json:"senderId"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type historyMessage struct {
	SenderKind string    `json:"senderKind"`
	SenderID   string    `json:"senderId"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.hasPeer() {
		if err := printHistory(ctx, config); err != nil {
			return exitRuntime, err
		}
	}

	socketURL, err := toSocketURL(config)
	if err != nil {
		return exitConfig, err
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, socketURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = ws.Close()
	}()

	if err = send(ws, "join", map[string]string{"type": config.ActorKind, "id": config.ActorID}); err != nil {
		return exitRuntime, err
	}
	log.Info(fmt.Sprintf(">>> Connected to %s as %s/%s (Ctrl+C to quit)",
		config.ServerURL, config.ActorKind, config.ActorID))

	if config.hasPeer() {
		go forwardStdin(ws, config)
	}

	readErr := make(chan error, 1)
	go func() { readErr <- printPushes(ws, config) }()

	select {
	case <-ctx.Done():
		log.Info("Stopping client...")
		return exitOK, nil
	case err = <-readErr:
		if ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("socket error: %w", err)
	}
}

func toSocketURL(config Config) (string, error) {
	u, err := url.Parse(config.ServerURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	if config.Token != "" {
		u.RawQuery = url.Values{"token": {config.Token}}.Encode()
	}
	return u.String(), nil
}

func printHistory(ctx context.Context, config Config) error {
	path := fmt.Sprintf("%s/messages/%s/%s/%s/%s", strings.TrimSuffix(config.ServerURL, "/"),
		config.ActorKind, config.ActorID, config.PeerKind, config.PeerID)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return fmt.Errorf("history request failed: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("history request failed: %s", response.Status)
	}
	var history []historyMessage
	if err = json.NewDecoder(response.Body).Decode(&history); err != nil {
		return fmt.Errorf("history decoding failed: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "From", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, m := range history {
		table.Append([]string{
			m.Timestamp.Local().Format(time.DateTime),
			m.SenderKind + "/" + m.SenderID,
			m.Body,
		})
	}
	table.Render()
	return nil
}

func forwardStdin(ws *websocket.Conn, config Config) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		err := send(ws, "sendMessage", map[string]string{
			"senderType":   config.ActorKind,
			"senderId":     config.ActorID,
			"receiverType": config.PeerKind,
			"receiverId":   config.PeerID,
			"message":      line,
		})
		if err != nil {
			color.Error.Println(err.Error())
			return
		}
	}
}

// printPushes shows own messages in cyan, incoming ones in green.
func printPushes(ws *websocket.Conn, config Config) error {
	for {
		var f frame
		if err := ws.ReadJSON(&f); err != nil {
			return err
		}
		switch f.Event {
		case "newMessage":
			var m pushedMessage
			if err := json.Unmarshal(f.Data, &m); err != nil {
				return err
			}
			line := fmt.Sprintf("[%s] %s/%s: %s", m.Timestamp.Local().Format(time.TimeOnly),
				m.SenderType, m.SenderID, m.Message)
			if m.SenderType == config.ActorKind && m.SenderID == config.ActorID {
				color.Cyan.Println(line)
			} else {
				color.Green.Println(line)
			}
		case "newNotification":
			color.Yellow.Println("notification: " + string(f.Data))
		case "error":
			color.Error.Println(string(f.Data))
		default:
			color.Gray.Println(f.Event + " " + string(f.Data))
		}
	}
}

func send(ws *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return ws.WriteJSON(frame{Event: event, Data: raw})
}
