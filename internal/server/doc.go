// Package server implements the HTTP and WebSocket transport in front of the
// signaling dispatcher.
//
// The implementation is organized into specialized files for configuration,
// logging, hub management, clients, routing, and HTTP handlers. A Server
// owns its hub and dispatcher, so independent instances can run side by
// side in tests.
package server
