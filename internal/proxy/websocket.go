// Package proxy bridges a client WebSocket to the browser engine's CDP
// endpoint for interactive debugging.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server proxies debug connections to one local browser engine
type Server struct {
	endpoint string
	client   *http.Client
}

// NewServer returns a proxy for the engine at the given HTTP endpoint
// (e.g. http://127.0.0.1:9222).
func NewServer(endpoint string) *Server {
	return &Server{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// debuggerURL asks the engine for its root CDP WebSocket URL
func (s *Server) debuggerURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/json/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach engine at %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()

	var version struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", fmt.Errorf("failed to parse engine version info: %w", err)
	}
	if version.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("engine at %s reported no debugger URL", s.endpoint)
	}
	return version.WebSocketDebuggerURL, nil
}

// HandleDebugConnection upgrades the request and proxies CDP traffic in
// both directions until either side closes.
func (s *Server) HandleDebugConnection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	engineURL, err := s.debuggerURL(ctx)
	cancel()
	if err != nil {
		log.Printf("proxy: %v", err)
		http.Error(w, "Browser engine unavailable", http.StatusBadGateway)
		return
	}

	clientConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("proxy: failed to upgrade connection: %v", err)
		return
	}
	defer clientConn.Close()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dialCancel()

	engineConn, _, err := websocket.DefaultDialer.DialContext(dialCtx, engineURL, nil)
	if err != nil {
		log.Printf("proxy: failed to connect to engine: %v", err)
		clientConn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("Error connecting: %v", err)))
		return
	}
	defer engineConn.Close()

	log.Printf("proxy: debug client connected via %s", engineURL)

	errChan := make(chan error, 2)

	go func() {
		errChan <- s.proxyMessages(clientConn, engineConn, "client→engine")
	}()
	go func() {
		errChan <- s.proxyMessages(engineConn, clientConn, "engine→client")
	}()

	// Wait for either direction to close
	err = <-errChan
	if err != nil && err != io.EOF {
		log.Printf("proxy: connection closed: %v", err)
	}
}

func (s *Server) proxyMessages(src, dst *websocket.Conn, direction string) error {
	for {
		messageType, message, err := src.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("proxy: websocket error (%s): %v", direction, err)
			}
			return err
		}

		if err := dst.WriteMessage(messageType, message); err != nil {
			log.Printf("proxy: failed to forward message (%s): %v", direction, err)
			return err
		}
	}
}
