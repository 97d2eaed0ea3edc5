package entity

import (
	"fmt"

	"github.com/gomirror/gomirror/engine/common"
)

// Peer is the server-side record of a connected peer
type Peer struct {
	ID common.PeerID
	// ownedObjects lists the entities owned by the peer, insertion ordered
	ownedObjects common.EntityIDList
	playerObject common.EntityID
}

// NewPeer creates the record for a newly joined peer
func NewPeer(id common.PeerID) *Peer {
	return &Peer{
		ID:           id,
		playerObject: common.NilEntityID,
	}
}

func (p *Peer) String() string {
	return fmt.Sprintf("Peer<%s>", p.ID)
}

// OwnedObjects returns the entities owned by the peer
func (p *Peer) OwnedObjects() common.EntityIDList {
	return p.ownedObjects
}

// PlayerObject returns the peer's designated player object, NilEntityID when
// none is set
func (p *Peer) PlayerObject() common.EntityID {
	return p.playerObject
}

func (p *Peer) addOwned(id common.EntityID) {
	p.ownedObjects.Append(id)
}

func (p *Peer) removeOwned(id common.EntityID) {
	p.ownedObjects.Remove(id)
}
