package signaling

import (
	"sync"

	"github.com/pion/logging"
)

type participant struct {
	role Role
	conn Conn
}

// Room is one room's participant set. The host entry exists from creation
// until the host leaves; every other participant is a caller.
type Room struct {
	id     string
	hostID string

	mu           sync.RWMutex
	participants map[string]participant

	log logging.LeveledLogger
}

func newRoom(id, hostID string, log logging.LeveledLogger) *Room {
	return &Room{
		id:           id,
		hostID:       hostID,
		participants: make(map[string]participant),
		log:          log,
	}
}

// ID returns the immutable room identifier.
func (r *Room) ID() string { return r.id }

// HostID returns the peer that created the room.
func (r *Room) HostID() string { return r.hostID }

// AddParticipant adds peerID with the given role.
func (r *Room) AddParticipant(peerID string, conn Conn, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.participants[peerID]; exists {
		return ErrParticipantExists
	}
	r.participants[peerID] = participant{role: role, conn: conn}
	return nil
}

// RemoveParticipant removes peerID and reports whether it was present.
func (r *Room) RemoveParticipant(peerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.participants[peerID]; !exists {
		return false
	}
	delete(r.participants, peerID)
	return true
}

// Has reports whether peerID is a participant.
func (r *Room) Has(peerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.participants[peerID]
	return ok
}

// Participants returns the members in no particular order.
func (r *Room) Participants() []ParticipantInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ParticipantInfo, 0, len(r.participants))
	for id, p := range r.participants {
		out = append(out, ParticipantInfo{PeerID: id, Role: p.role})
	}
	return out
}

// Len returns the participant count.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// IsEmpty reports whether the room has no participants.
func (r *Room) IsEmpty() bool {
	return r.Len() == 0
}

type recipient struct {
	peerID string
	conn   Conn
}

// snapshot copies the participant connections so delivery never iterates the
// live map.
func (r *Room) snapshot(excludePeerID string) []recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]recipient, 0, len(r.participants))
	for id, p := range r.participants {
		if id == excludePeerID {
			continue
		}
		out = append(out, recipient{peerID: id, conn: p.conn})
	}
	return out
}

// Broadcast serializes msg once and sends it to every open participant
// except excludePeerID ("" excludes nobody). Individual delivery failures are
// logged and skipped. It returns how many participants the message reached.
func (r *Room) Broadcast(msg any, excludePeerID string) int {
	payload, err := encode(msg)
	if err != nil {
		r.log.Errorf("room %s: failed to encode broadcast: %v", r.id, err)
		return 0
	}

	delivered := 0
	for _, rcpt := range r.snapshot(excludePeerID) {
		if !rcpt.conn.IsOpen() {
			continue
		}
		if err := rcpt.conn.Send(payload); err != nil {
			r.log.Warnf("room %s: delivery to %s (%s) failed: %v", r.id, rcpt.peerID, rcpt.conn.RemoteAddr(), err)
			continue
		}
		delivered++
	}
	return delivered
}
