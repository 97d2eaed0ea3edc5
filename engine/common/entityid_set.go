package common

// EntityIDSet is the data structure for a set of entity IDs
type EntityIDSet map[EntityID]struct{}

// Add adds an entity ID to EntityIDSet
func (es EntityIDSet) Add(id EntityID) {
	es[id] = struct{}{}
}

// Del removes an entity ID from EntityIDSet
func (es EntityIDSet) Del(id EntityID) {
	delete(es, id)
}

// Contains checks if entity ID is in EntityIDSet
func (es EntityIDSet) Contains(id EntityID) bool {
	_, ok := es[id]
	return ok
}

// ToList converts EntityIDSet to a slice of entity IDs
func (es EntityIDSet) ToList() []EntityID {
	list := make([]EntityID, 0, len(es))
	for eid := range es {
		list = append(list, eid)
	}
	return list
}

// PeerIDSet is the data structure for a set of peer IDs
type PeerIDSet map[PeerID]struct{}

// Add adds a peer ID to PeerIDSet
func (ps PeerIDSet) Add(id PeerID) {
	ps[id] = struct{}{}
}

// Del removes a peer ID from PeerIDSet
func (ps PeerIDSet) Del(id PeerID) {
	delete(ps, id)
}

// Contains checks if peer ID is in PeerIDSet
func (ps PeerIDSet) Contains(id PeerID) bool {
	_, ok := ps[id]
	return ok
}

// ToList converts PeerIDSet to a slice of peer IDs
func (ps PeerIDSet) ToList() []PeerID {
	list := make([]PeerID, 0, len(ps))
	for pid := range ps {
		list = append(list, pid)
	}
	return list
}

// Copy returns a shallow copy of the PeerIDSet
func (ps PeerIDSet) Copy() PeerIDSet {
	cp := make(PeerIDSet, len(ps))
	for pid := range ps {
		cp[pid] = struct{}{}
	}
	return cp
}
