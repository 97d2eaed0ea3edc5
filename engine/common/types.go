package common

import (
	"fmt"
)

// EntityID is the unique identifier of a replicated entity.
//
// EntityIDs are issued by the ident allocator on the authoritative side only.
// An ID maps to at most one live entity at a time; released IDs may be
// recycled after the configured recycle delay.
type EntityID uint64

// NilEntityID is the zero EntityID which is never assigned to a live entity
const NilEntityID EntityID = 0

// IsNil returns if EntityID is nil
func (id EntityID) IsNil() bool {
	return id == NilEntityID
}

func (id EntityID) String() string {
	return fmt.Sprintf("#%d", uint64(id))
}

// PeerID identifies a connected peer in the session
type PeerID uint16

// ServerPeerID is the PeerID of the authoritative server peer
const ServerPeerID PeerID = 0

// NilPeerID is used where an entity has no owning peer
const NilPeerID PeerID = 0xFFFF

// IsNil returns if PeerID is nil (no peer)
func (pid PeerID) IsNil() bool {
	return pid == NilPeerID
}

// IsServer returns if the PeerID is the authoritative server
func (pid PeerID) IsServer() bool {
	return pid == ServerPeerID
}

func (pid PeerID) String() string {
	if pid == NilPeerID {
		return "Peer<nil>"
	}
	return fmt.Sprintf("Peer<%d>", uint16(pid))
}
