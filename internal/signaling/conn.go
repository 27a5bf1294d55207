package signaling

// Conn is a live bidirectional message channel owned by the transport layer.
// The core only sends through it and observes whether it is still open.
type Conn interface {
	// Send queues a serialized message for delivery. It must not block.
	Send(payload []byte) error
	// IsOpen reports whether the connection can still accept messages.
	IsOpen() bool
	// RemoteAddr identifies the connection in logs.
	RemoteAddr() string
}
