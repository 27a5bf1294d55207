package signaling

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/logging"
)

// RemoveResult describes the outcome of RemovePeerFromRoom.
type RemoveResult struct {
	Room               *Room
	WasLastParticipant bool
}

// RoomSummary is a point-in-time view of a room.
type RoomSummary struct {
	RoomID       string            `json:"roomId"`
	HostID       string            `json:"hostId"`
	Participants []ParticipantInfo `json:"participants"`
}

// RoomManager owns every room and the peer-to-room index. A peer belongs to
// at most one room, and the index maps a peer exactly when it is a
// participant of that room. Rooms never exist empty.
type RoomManager struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	byPeer map[string]string

	newID func() string
	log   logging.LeveledLogger
}

// NewRoomManager returns an empty manager that logs through log.
func NewRoomManager(log logging.LeveledLogger) *RoomManager {
	return &RoomManager{
		rooms:  make(map[string]*Room),
		byPeer: make(map[string]string),
		newID:  uuid.NewString,
		log:    log,
	}
}

// CreateRoom makes hostPeerID the host of a fresh room.
func (m *RoomManager) CreateRoom(hostPeerID string, hostConn Conn) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, inRoom := m.byPeer[hostPeerID]; inRoom {
		return nil, ErrAlreadyInRoom
	}

	id := m.newID()
	for {
		if _, taken := m.rooms[id]; !taken {
			break
		}
		id = m.newID()
	}

	room := newRoom(id, hostPeerID, m.log)
	if err := room.AddParticipant(hostPeerID, hostConn, RoleHost); err != nil {
		return nil, err
	}
	m.rooms[id] = room
	m.byPeer[hostPeerID] = id

	m.log.Infof("room %s created by %s", id, hostPeerID)
	return room, nil
}

// JoinRoom adds peerID to roomID as a caller.
func (m *RoomManager) JoinRoom(roomID, peerID string, conn Conn) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if _, inRoom := m.byPeer[peerID]; inRoom {
		return nil, ErrAlreadyInRoom
	}
	if err := room.AddParticipant(peerID, conn, RoleCaller); err != nil {
		return nil, err
	}
	m.byPeer[peerID] = roomID

	m.log.Infof("peer %s joined room %s (%d participants)", peerID, roomID, room.Len())
	return room, nil
}

// RemovePeerFromRoom takes peerID out of its room, deleting the room in the
// same step when it becomes empty. ok is false when the peer was in no room.
func (m *RoomManager) RemovePeerFromRoom(peerID string) (RemoveResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, inRoom := m.byPeer[peerID]
	if !inRoom {
		return RemoveResult{}, false
	}
	delete(m.byPeer, peerID)

	room, ok := m.rooms[roomID]
	if !ok {
		return RemoveResult{}, false
	}
	room.RemoveParticipant(peerID)

	result := RemoveResult{Room: room}
	if room.IsEmpty() {
		delete(m.rooms, roomID)
		result.WasLastParticipant = true
		m.log.Infof("room %s deleted after %s left", roomID, peerID)
	} else {
		m.log.Infof("peer %s left room %s (%d remaining)", peerID, roomID, room.Len())
	}
	return result, true
}

// DeleteRoom removes roomID and clears the index entries of all its
// participants. The returned room still lists them so callers can notify.
func (m *RoomManager) DeleteRoom(roomID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	for _, p := range room.Participants() {
		if m.byPeer[p.PeerID] == roomID {
			delete(m.byPeer, p.PeerID)
		}
	}
	delete(m.rooms, roomID)

	m.log.Infof("room %s deleted", roomID)
	return room, true
}

// RoomForPeer returns the room peerID belongs to.
func (m *RoomManager) RoomForPeer(peerID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.byPeer[peerID]
	if !ok {
		return nil, false
	}
	room, ok := m.rooms[roomID]
	return room, ok
}

// RoomIDForPeer returns the ID of the room peerID belongs to.
func (m *RoomManager) RoomIDForPeer(peerID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.byPeer[peerID]
	return roomID, ok
}

// GetRoom looks up a room by ID.
func (m *RoomManager) GetRoom(roomID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	return room, ok
}

// Count returns the number of rooms.
func (m *RoomManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Summaries lists all rooms ordered by ID.
func (m *RoomManager) Summaries() []RoomSummary {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.Unlock()

	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		participants := room.Participants()
		sort.Slice(participants, func(i, j int) bool {
			return participants[i].PeerID < participants[j].PeerID
		})
		out = append(out, RoomSummary{
			RoomID:       room.ID(),
			HostID:       room.HostID(),
			Participants: participants,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}
