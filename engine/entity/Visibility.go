package entity

import "github.com/gomirror/gomirror/engine/common"

type visibilityMode uint8

const (
	visibleToAll visibilityMode = iota
	visibleWhere
)

// Visibility decides which peers observe an entity. It is either the
// all-peers variant or a predicate over peer ids; there is no nil predicate
// dispatch.
type Visibility struct {
	mode      visibilityMode
	predicate func(common.PeerID) bool
}

// VisibleToAll returns the visibility that every peer observes
func VisibleToAll() Visibility {
	return Visibility{mode: visibleToAll}
}

// VisibleWhere returns the visibility that exactly the peers matching the
// predicate observe
func VisibleWhere(predicate func(common.PeerID) bool) Visibility {
	return Visibility{mode: visibleWhere, predicate: predicate}
}

// IsAll returns if this is the all-peers variant
func (v Visibility) IsAll() bool {
	return v.mode == visibleToAll
}

// Observes evaluates whether the peer observes the entity
func (v Visibility) Observes(peer common.PeerID) bool {
	if v.mode == visibleToAll {
		return true
	}
	return v.predicate(peer)
}

// VisibleWithinDistance returns a predicate visibility: a peer observes the
// entity while its player object is within maxDist of it
func (mgr *EntityManager) VisibleWithinDistance(e *Entity, maxDist Coord) Visibility {
	return VisibleWhere(func(peerID common.PeerID) bool {
		peer := mgr.peers[peerID]
		if peer == nil {
			return false
		}
		player := mgr.entities.Get(peer.playerObject)
		if player == nil {
			return false
		}
		return player.Transform.Position.DistanceTo(e.Transform.Position) <= maxDist
	})
}
