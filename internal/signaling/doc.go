// Package signaling implements the peer and room state machine of the
// rendezvous service together with the message relay protocol.
//
// The package never touches sockets. Connections are seen through the Conn
// interface so the Dispatcher can be driven by the WebSocket hub in
// internal/server as well as by tests with an in-memory connection.
package signaling
