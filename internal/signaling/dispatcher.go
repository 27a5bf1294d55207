package signaling

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"
)

const defaultWelcomeText = "Connected to signaling server"

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// LoggerFactory creates the dispatcher's loggers. If nil, the pion
	// default factory is used.
	LoggerFactory logging.LoggerFactory

	// WelcomeText is the message carried by the welcome sent on connect.
	WelcomeText string

	// ICEServers, when non-nil, is advertised in the welcome message.
	ICEServers any

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Stats is a snapshot of the dispatcher's state.
type Stats struct {
	Peers int `json:"peers"`
	Rooms int `json:"rooms"`
}

// Dispatcher runs the signaling protocol. Each inbound event is handled to
// completion under a single lock, so registry and room changes made by one
// event are never observed half-done by another.
type Dispatcher struct {
	mu    sync.Mutex
	peers *PeerRegistry
	rooms *RoomManager

	welcome WelcomeMessage
	now     func() time.Time
	log     logging.LeveledLogger
}

// NewDispatcher builds a dispatcher with its own empty registry and rooms.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	text := config.WelcomeText
	if text == "" {
		text = defaultWelcomeText
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Dispatcher{
		peers: NewPeerRegistry(),
		rooms: NewRoomManager(factory.NewLogger("rooms")),
		welcome: WelcomeMessage{
			Type:       TypeWelcome,
			Message:    text,
			ICEServers: config.ICEServers,
		},
		now: now,
		log: factory.NewLogger("signaling"),
	}
}

// Peers exposes the peer registry.
func (d *Dispatcher) Peers() *PeerRegistry { return d.peers }

// Rooms exposes the room manager.
func (d *Dispatcher) Rooms() *RoomManager { return d.rooms }

// Stats returns the current peer and room counts.
func (d *Dispatcher) Stats() Stats {
	return Stats{Peers: d.peers.Count(), Rooms: d.rooms.Count()}
}

// HandleOpen greets a new connection.
func (d *Dispatcher) HandleOpen(conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.send(conn, d.welcome)
}

// HandleMessage decodes, validates and executes one inbound message.
func (d *Dispatcher) HandleMessage(conn Conn, raw []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		d.log.Debugf("invalid JSON from %s: %v", conn.RemoteAddr(), err)
		d.sendError(conn, "Invalid JSON")
		return
	}

	senderID, _ := d.peers.IdentityOf(conn)
	result := Validate(decoded, senderID)
	if !result.Valid {
		d.log.Debugf("rejected message from %s: %s", conn.RemoteAddr(), result.Error())
		d.sendError(conn, result.Error())
		return
	}

	fields := decoded.(map[string]any)
	typ, _ := stringField(fields, "type")

	switch typ {
	case TypeRegister:
		d.handleRegister(conn, senderID, fields)
	case TypeCreateRoom:
		d.handleCreateRoom(conn, senderID)
	case TypeJoinRoom:
		d.handleJoinRoom(conn, senderID, fields)
	case TypeLeaveRoom:
		d.handleLeaveRoom(conn, senderID)
	case TypeOffer, TypeAnswer, TypeICECandidate:
		if err := d.relay(senderID, fields, raw); err != nil {
			d.log.Debugf("relay %s from %s failed: %v", typ, senderID, err)
			d.sendError(conn, err.Error())
		}
	case TypePing:
		d.send(conn, newPongMessage(d.now()))
	default:
		d.sendError(conn, "Unknown message type: "+typ)
	}
}

// HandleClose runs disconnect cleanup for conn: the peer is unregistered and
// removed from its room, and any remaining participants are told it left.
func (d *Dispatcher) HandleClose(conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()

	peerID, ok := d.peers.UnregisterByConnection(conn)
	if !ok {
		return
	}
	d.log.Infof("peer %s disconnected (%s)", peerID, conn.RemoteAddr())
	d.leaveRoom(peerID)
}

// DeleteRoom removes a room on behalf of an operator and tells every
// participant it was closed.
func (d *Dispatcher) DeleteRoom(roomID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms.DeleteRoom(roomID)
	if !ok {
		return false
	}
	room.Broadcast(RoomEventMessage{Type: TypeRoomClosed, RoomID: roomID}, "")
	return true
}

func (d *Dispatcher) handleRegister(conn Conn, senderID string, fields map[string]any) {
	if senderID != "" {
		d.sendError(conn, fmt.Sprintf("%v as %s", ErrAlreadyRegistered, senderID))
		return
	}

	peerID, _ := stringField(fields, "peerId")
	if err := d.peers.Register(peerID, conn); err != nil {
		d.sendError(conn, fmt.Sprintf("%v: %s", err, peerID))
		return
	}

	d.log.Infof("peer %s registered from %s (%d peers)", peerID, conn.RemoteAddr(), d.peers.Count())
	d.send(conn, RegisteredMessage{Type: TypeRegistered, PeerID: peerID})
}

func (d *Dispatcher) handleCreateRoom(conn Conn, senderID string) {
	if senderID == "" {
		d.sendError(conn, "Must register before creating a room")
		return
	}

	room, err := d.rooms.CreateRoom(senderID, conn)
	if err != nil {
		d.sendError(conn, err.Error())
		return
	}
	d.send(conn, RoomCreatedMessage{Type: TypeRoomCreated, RoomID: room.ID(), HostID: room.HostID()})
}

func (d *Dispatcher) handleJoinRoom(conn Conn, senderID string, fields map[string]any) {
	if senderID == "" {
		d.sendError(conn, "Must register before joining a room")
		return
	}

	roomID, _ := stringField(fields, "roomId")
	room, err := d.rooms.JoinRoom(roomID, senderID, conn)
	if err != nil {
		d.sendError(conn, err.Error())
		return
	}

	d.send(conn, RoomJoinedMessage{
		Type:         TypeRoomJoined,
		RoomID:       room.ID(),
		Participants: room.Participants(),
	})
	room.Broadcast(PeerJoinedMessage{Type: TypePeerJoined, PeerID: senderID, Role: RoleCaller}, senderID)
}

func (d *Dispatcher) handleLeaveRoom(conn Conn, senderID string) {
	if senderID == "" {
		d.sendError(conn, "Must register before leaving a room")
		return
	}

	roomID, ok := d.leaveRoom(senderID)
	if !ok {
		d.sendError(conn, ErrNotInRoom.Error())
		return
	}
	d.send(conn, RoomEventMessage{Type: TypeRoomLeft, RoomID: roomID})
}

// leaveRoom removes peerID from its room and notifies whoever remains.
func (d *Dispatcher) leaveRoom(peerID string) (string, bool) {
	result, ok := d.rooms.RemovePeerFromRoom(peerID)
	if !ok {
		return "", false
	}
	if !result.WasLastParticipant {
		result.Room.Broadcast(PeerLeftMessage{Type: TypePeerLeft, PeerID: peerID}, peerID)
	}
	return result.Room.ID(), true
}

// relay forwards raw, unchanged, to the connection registered as the
// message's "to" peer. Peers outside any room may relay to each other.
func (d *Dispatcher) relay(senderID string, fields map[string]any, raw []byte) error {
	targetID, _ := stringField(fields, "to")
	target, ok := d.peers.Lookup(targetID)
	if !ok {
		return ErrPeerNotConnected
	}

	senderRoom, senderInRoom := d.rooms.RoomIDForPeer(senderID)
	targetRoom, targetInRoom := d.rooms.RoomIDForPeer(targetID)
	if senderInRoom && targetInRoom && senderRoom != targetRoom {
		return ErrDifferentRoom
	}

	if !target.IsOpen() {
		return ErrConnectionNotOpen
	}
	if err := target.Send(raw); err != nil {
		return fmt.Errorf("failed to deliver to %s: %w", targetID, err)
	}
	return nil
}

func (d *Dispatcher) sendError(conn Conn, text string) {
	d.send(conn, newErrorMessage(text))
}

func (d *Dispatcher) send(conn Conn, msg any) {
	payload, err := encode(msg)
	if err != nil {
		d.log.Errorf("failed to encode message for %s: %v", conn.RemoteAddr(), err)
		return
	}
	if err := conn.Send(payload); err != nil {
		d.log.Warnf("failed to send to %s: %v", conn.RemoteAddr(), err)
	}
}
