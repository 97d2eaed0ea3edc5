package common

// EntityIDList is a list of entity IDs (slice)
type EntityIDList []EntityID

// Append adds the entity ID to the end of EntityIDList
func (el *EntityIDList) Append(id EntityID) {
	*el = append(*el, id)
}

// Remove removes the entity ID from EntityIDList, keeping order
func (el *EntityIDList) Remove(id EntityID) {
	widx := 0
	cpl := *el
	for _, elem := range cpl {
		if elem != id {
			cpl[widx] = elem
			widx++
		}
	}
	*el = cpl[:widx]
}

// Find gets the index of entity ID in EntityIDList, returns -1 if not found
func (el EntityIDList) Find(id EntityID) int {
	for idx, elem := range el {
		if elem == id {
			return idx
		}
	}
	return -1
}
