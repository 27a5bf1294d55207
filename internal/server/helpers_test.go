package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"
)

const (
	testOrigin      = "http://localhost:8080"
	testReadTimeout = 2 * time.Second
)

func quietLoggerFactory() logging.LoggerFactory {
	return &logging.DefaultLoggerFactory{
		Writer:          io.Discard,
		DefaultLogLevel: logging.LogLevelDisabled,
		ScopeLevels:     map[string]logging.LogLevel{},
	}
}

func testConfig() Config {
	cfg := *NewConfig()
	cfg.AllowedOrigins = []string{testOrigin}
	return cfg
}

// newTestServer builds a Server with a running hub. Cleanup shuts the hub
// down.
func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	srv, err := New(cfg, quietLoggerFactory())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	srv.StartHub()

	var once sync.Once
	t.Cleanup(func() {
		once.Do(func() { _ = srv.Hub().Shutdown(2 * time.Second) })
	})
	return srv
}

// startHTTP serves srv's routes on an httptest server.
func startHTTP(t *testing.T, srv *Server) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	header.Set("Origin", testOrigin)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// dialWelcomed connects and consumes the welcome message.
func dialWelcomed(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn := dial(t, ts)
	if msg := readMessage(t, conn); msg["type"] != "welcome" {
		t.Fatalf("expected welcome, got %v", msg)
	}
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal message: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("failed to write message: %v", err)
	}
}

func readRaw(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(testReadTimeout)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	return payload
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	payload := readRaw(t, conn)
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("received invalid JSON %q: %v", payload, err)
	}
	return msg
}

// expectType reads one message and checks its type.
func expectType(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	msg := readMessage(t, conn)
	if msg["type"] != typ {
		t.Fatalf("expected %q message, got %v", typ, msg)
	}
	return msg
}

// expectClosed waits for the server to close conn.
func expectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	deadline := time.Now().Add(testReadTimeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				t.Fatal("connection was not closed by the server")
			}
			return
		}
	}
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testReadTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
