package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/gosignal/internal/signaling"
)

func newTestHub() *Hub {
	factory := quietLoggerFactory()
	return NewHub(signaling.NewDispatcher(signaling.DispatcherConfig{LoggerFactory: factory}), factory)
}

func TestHubShutdownWithoutClients(t *testing.T) {
	hub := newTestHub()
	go hub.Run()

	if err := hub.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
	if hub.registerClient(NewClient(nil, hub, "late", testConfig())) {
		t.Error("registerClient accepted a client after shutdown")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	srv := newTestServer(t, testConfig())
	ts := startHTTP(t, srv)

	const numClients = 3
	for i := 0; i < numClients; i++ {
		conn := dialWelcomed(t, ts)
		if i == 0 {
			sendMessage(t, conn, map[string]any{"type": "register", "peerId": "alice"})
			expectType(t, conn, "registered")
			sendMessage(t, conn, map[string]any{"type": "create-room"})
			expectType(t, conn, "room-created")
		}
		defer expectClosed(t, conn)
	}

	waitFor(t, "all clients to register", func() bool {
		return srv.Hub().ClientCount() == numClients
	})

	if err := srv.Hub().Shutdown(2 * time.Second); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if got := srv.Hub().ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d after shutdown", got)
	}
	stats := srv.Dispatcher().Stats()
	if stats.Peers != 0 || stats.Rooms != 0 {
		t.Errorf("stats after shutdown = %+v, want none", stats)
	}
}

func TestClientSendAfterClose(t *testing.T) {
	hub := newTestHub()
	client := NewClient(nil, hub, "test", testConfig())

	if !client.IsOpen() {
		t.Fatal("new client not open")
	}
	if !client.markClosed() {
		t.Fatal("first markClosed reported no change")
	}
	if client.markClosed() {
		t.Error("second markClosed reported a change")
	}
	if client.IsOpen() {
		t.Error("client open after markClosed")
	}
	if err := client.Send([]byte("{}")); !errors.Is(err, errClientClosed) {
		t.Errorf("Send() after close = %v, want errClientClosed", err)
	}
}

func TestClientSendBufferFull(t *testing.T) {
	cfg := testConfig()
	cfg.SendBufferSize = 2
	client := NewClient(nil, newTestHub(), "slow", cfg)

	for i := 0; i < 2; i++ {
		if err := client.Send([]byte("{}")); err != nil {
			t.Fatalf("Send() %d failed: %v", i, err)
		}
	}
	if err := client.Send([]byte("{}")); !errors.Is(err, errSendBufferFull) {
		t.Errorf("Send() on full buffer = %v, want errSendBufferFull", err)
	}
	if got := len(client.send); got != 2 {
		t.Errorf("queued %d messages, want 2", got)
	}
}

func TestServerRunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Port = "127.0.0.1:0"
	cfg.ShutdownTimeoutSeconds = 2

	srv, err := New(cfg, quietLoggerFactory())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestIsExpectedCloseError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"closed network connection", fmt.Errorf("read tcp: %w", net.ErrClosed), true},
		{"close already sent", websocket.ErrCloseSent, true},
		{"broken pipe", &net.OpError{Op: "write", Net: "tcp", Err: syscall.EPIPE}, true},
		{"unexpected EOF", io.ErrUnexpectedEOF, false},
		{"other error", errors.New("use of closed network connection"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isExpectedCloseError(tt.err); got != tt.want {
				t.Errorf("isExpectedCloseError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
