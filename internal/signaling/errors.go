package signaling

import "errors"

var (
	// ErrPeerAlreadyRegistered is returned when another live connection holds the requested peer ID.
	ErrPeerAlreadyRegistered = errors.New("peer ID already registered")
	// ErrAlreadyRegistered is returned when a connection registers a second time.
	ErrAlreadyRegistered = errors.New("connection already registered")
	// ErrAlreadyInRoom is returned when a peer tries to create or join a room while in one.
	ErrAlreadyInRoom = errors.New("peer already in a room")
	// ErrNotInRoom is returned when a peer leaves without being in a room.
	ErrNotInRoom = errors.New("peer is not in a room")
	// ErrRoomNotFound is returned for unknown room IDs.
	ErrRoomNotFound = errors.New("room does not exist")
	// ErrParticipantExists is returned when a peer is added to a room twice.
	ErrParticipantExists = errors.New("peer is already a participant")
	// ErrPeerNotConnected is returned when the relay target is not registered.
	ErrPeerNotConnected = errors.New("target peer not connected")
	// ErrDifferentRoom is returned when sender and target are in different rooms.
	ErrDifferentRoom = errors.New("target peer is in a different room")
	// ErrConnectionNotOpen is returned when the relay target's connection is closed.
	ErrConnectionNotOpen = errors.New("connection is not open")
)
