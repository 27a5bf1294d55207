package signaling

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/pion/logging"
)

var errFakeSend = errors.New("fake send failure")

// fakeConn records every payload sent to it.
type fakeConn struct {
	addr string

	mu       sync.Mutex
	closed   bool
	failSend bool
	sent     [][]byte
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{addr: addr}
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errFakeSend
	}
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

func (c *fakeConn) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) setFailSend(fail bool) {
	c.mu.Lock()
	c.failSend = fail
	c.mu.Unlock()
}

// messages decodes everything sent so far.
func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]map[string]any, 0, len(c.sent))
	for _, raw := range c.sent {
		var msg map[string]any
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("connection %s received invalid JSON %q: %v", c.addr, raw, err)
		}
		out = append(out, msg)
	}
	return out
}

// rawMessages returns the payloads exactly as sent.
func (c *fakeConn) rawMessages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

// last returns the most recent message and fails when there is none.
func (c *fakeConn) last(t *testing.T) map[string]any {
	t.Helper()
	msgs := c.messages(t)
	if len(msgs) == 0 {
		t.Fatalf("connection %s received no messages", c.addr)
	}
	return msgs[len(msgs)-1]
}

// ofType returns all received messages of the given type.
func (c *fakeConn) ofType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, msg := range c.messages(t) {
		if msg["type"] == typ {
			out = append(out, msg)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.sent = nil
	c.mu.Unlock()
}

func quietLoggerFactory() logging.LoggerFactory {
	return &logging.DefaultLoggerFactory{
		Writer:          io.Discard,
		DefaultLogLevel: logging.LogLevelDisabled,
		ScopeLevels:     map[string]logging.LogLevel{},
	}
}

func quietLogger() logging.LeveledLogger {
	return quietLoggerFactory().NewLogger("test")
}
