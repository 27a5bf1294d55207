// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, room administration, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pion/webrtc/v4"

	"github.com/Tyrowin/gosignal/internal/signaling"
)

// HealthResponse is the body returned by /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Peers       int    `json:"peers"`
	Rooms       int    `json:"rooms"`
}

// WebSocketHandler upgrades GET requests to WebSocket and hands the new
// client to the hub, which starts its pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, s.config)
	if !s.hub.registerClient(client) {
		s.log.Warnf("Rejecting %s: hub is shutting down", r.RemoteAddr)
		_ = conn.Close()
	}
}

// RootHandler answers with a plain-text banner.
func (s *Server) RootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Signaling server is running!")
}

// HealthHandler reports liveness together with connection and room counts.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := s.dispatcher.Stats()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Connections: s.hub.ClientCount(),
		Peers:       stats.Peers,
		Rooms:       stats.Rooms,
	})
}

// ICEServersHandler returns the STUN/TURN servers peers should use.
func (s *Server) ICEServersHandler(w http.ResponseWriter, _ *http.Request) {
	servers := s.iceServers
	if servers == nil {
		servers = []webrtc.ICEServer{}
	}
	s.writeJSON(w, http.StatusOK, servers)
}

// ListRoomsHandler returns every room and its participants.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dispatcher.Rooms().Summaries())
}

// DeleteRoomHandler closes a room; its participants receive room-closed.
func (s *Server) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	if !s.dispatcher.DeleteRoom(roomID) {
		s.writeJSON(w, http.StatusNotFound, signaling.ErrorMessage{
			Type:    signaling.TypeError,
			Message: signaling.ErrRoomNotFound.Error(),
		})
		return
	}
	s.log.Infof("Room %s deleted by operator request from %s", roomID, r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warnf("Error writing JSON response: %v", err)
	}
}

// TestPageHandler serves an HTML page for exercising the signaling protocol
// by hand: connect, register, create or join a room, and send raw messages.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPageHTML)
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Signaling Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background-color: #f9f9f9; font-family: monospace; }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
    </style>
</head>
<body>
    <h1>Signaling Test</h1>
    <div>
        <button onclick="connect()">Connect</button>
        <input type="text" id="peerId" placeholder="peer id">
        <button onclick="send({type: 'register', peerId: val('peerId')})">Register</button>
    </div>
    <div>
        <button onclick="send({type: 'create-room'})">Create room</button>
        <input type="text" id="roomId" placeholder="room id">
        <button onclick="send({type: 'join-room', roomId: val('roomId')})">Join room</button>
        <button onclick="send({type: 'leave-room'})">Leave room</button>
    </div>
    <div>
        <input type="text" id="raw" placeholder='{"type":"ping"}'>
        <button onclick="sendRaw()">Send raw</button>
    </div>
    <div id="log"></div>
    <script>
        let ws = null;
        const logDiv = document.getElementById('log');
        function val(id) { return document.getElementById(id).value.trim(); }
        function log(line) {
            const el = document.createElement('div');
            el.textContent = line;
            logDiv.appendChild(el);
            logDiv.scrollTop = logDiv.scrollHeight;
        }
        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = () => log('connected');
            ws.onmessage = (event) => log('<- ' + event.data);
            ws.onclose = () => { log('closed'); ws = null; };
        }
        function send(msg) {
            if (!ws) { log('not connected'); return; }
            const text = JSON.stringify(msg);
            ws.send(text);
            log('-> ' + text);
        }
        function sendRaw() {
            if (!ws) { log('not connected'); return; }
            ws.send(val('raw'));
            log('-> ' + val('raw'));
        }
    </script>
</body>
</html>`
