package signaling

import (
	"encoding/json"
	"time"
)

// Message types exchanged with peers.
const (
	TypeRegister     = "register"
	TypeRegistered   = "registered"
	TypeCreateRoom   = "create-room"
	TypeRoomCreated  = "room-created"
	TypeJoinRoom     = "join-room"
	TypeRoomJoined   = "room-joined"
	TypeLeaveRoom    = "leave-room"
	TypeRoomLeft     = "room-left"
	TypeRoomClosed   = "room-closed"
	TypePeerJoined   = "peer-joined"
	TypePeerLeft     = "peer-left"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
	TypeWelcome      = "welcome"
)

// Role is a participant's position within a room.
type Role string

const (
	RoleHost   Role = "host"
	RoleCaller Role = "caller"
)

// ParticipantInfo describes a room member on the wire.
type ParticipantInfo struct {
	PeerID string `json:"peerId"`
	Role   Role   `json:"role"`
}

// RegisteredMessage confirms a successful register.
type RegisteredMessage struct {
	Type   string `json:"type"`
	PeerID string `json:"peerId"`
}

// RoomCreatedMessage is sent to the host after create-room.
type RoomCreatedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	HostID string `json:"hostId"`
}

// RoomJoinedMessage is sent to a peer after it joined a room.
type RoomJoinedMessage struct {
	Type         string            `json:"type"`
	RoomID       string            `json:"roomId"`
	Participants []ParticipantInfo `json:"participants"`
}

// RoomEventMessage carries room-left and room-closed.
type RoomEventMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// PeerJoinedMessage is broadcast to existing participants when a peer joins.
type PeerJoinedMessage struct {
	Type   string `json:"type"`
	PeerID string `json:"peerId"`
	Role   Role   `json:"role"`
}

// PeerLeftMessage is broadcast to remaining participants when a peer leaves.
type PeerLeftMessage struct {
	Type   string `json:"type"`
	PeerID string `json:"peerId"`
}

// PongMessage answers ping. Timestamp is milliseconds since the Unix epoch.
type PongMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorMessage reports a rejected request to its sender.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// WelcomeMessage is sent once on every new connection.
type WelcomeMessage struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	ICEServers any    `json:"iceServers,omitempty"`
}

func newErrorMessage(text string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: text}
}

func newPongMessage(now time.Time) PongMessage {
	return PongMessage{Type: TypePong, Timestamp: now.UnixMilli()}
}

// encode marshals an outbound message. Outbound types contain only strings,
// slices and numbers, so failure here means a programming error.
func encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// stringField returns msg[key] when it is a string.
func stringField(msg map[string]any, key string) (string, bool) {
	v, ok := msg[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
