// Package server wires HTTP handlers into a ServeMux for the signaling
// service via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.RootHandler)
	mux.HandleFunc("GET /health", s.HealthHandler)
	mux.HandleFunc("/ws", s.WebSocketHandler)
	mux.HandleFunc("GET /ice-servers", s.ICEServersHandler)
	mux.HandleFunc("GET /rooms", s.ListRoomsHandler)
	mux.HandleFunc("DELETE /rooms/{roomID}", s.DeleteRoomHandler)
	mux.HandleFunc("GET /test", TestPageHandler)
	return mux
}
