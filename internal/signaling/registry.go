package signaling

import (
	"sort"
	"sync"
)

// PeerRegistry maps registered peer IDs to their connections and back.
// At most one connection is registered under a peer ID at any time.
type PeerRegistry struct {
	mu     sync.RWMutex
	byID   map[string]Conn
	byConn map[Conn]string
}

// NewPeerRegistry returns an empty registry.
func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{
		byID:   make(map[string]Conn),
		byConn: make(map[Conn]string),
	}
}

// Register binds peerID to conn. It fails when the ID is taken or the
// connection is already registered under another ID.
func (r *PeerRegistry) Register(peerID string, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byID[peerID]; taken {
		return ErrPeerAlreadyRegistered
	}
	if _, bound := r.byConn[conn]; bound {
		return ErrAlreadyRegistered
	}
	r.byID[peerID] = conn
	r.byConn[conn] = peerID
	return nil
}

// Unregister removes peerID. It is a no-op for unknown IDs.
func (r *PeerRegistry) Unregister(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(peerID)
}

// UnregisterByConnection removes whichever peer is registered on conn and
// returns its ID.
func (r *PeerRegistry) UnregisterByConnection(conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peerID, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	r.unregisterLocked(peerID)
	return peerID, true
}

func (r *PeerRegistry) unregisterLocked(peerID string) {
	conn, ok := r.byID[peerID]
	if !ok {
		return
	}
	delete(r.byID, peerID)
	delete(r.byConn, conn)
}

// Lookup returns the connection registered as peerID.
func (r *PeerRegistry) Lookup(peerID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byID[peerID]
	return conn, ok
}

// IdentityOf returns the peer ID registered on conn.
func (r *PeerRegistry) IdentityOf(conn Conn) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peerID, ok := r.byConn[conn]
	return peerID, ok
}

// Count returns the number of registered peers.
func (r *PeerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// ListIDs returns the registered peer IDs in sorted order.
func (r *PeerRegistry) ListIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
