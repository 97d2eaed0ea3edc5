package ident

import (
	"sync"
	"time"

	"github.com/gomirror/gomirror/engine/common"
)

// Allocator issues and recycles entity identifiers for the authoritative side.
//
// Fresh identifiers come from a monotonically increasing counter. Released
// identifiers are queued FIFO and become eligible for reuse only after the
// recycle delay has elapsed, so no peer can still hold a stale reference from
// before the delay window. The session loop is single-threaded, but the
// allocator is safe to touch from other goroutines; all state is guarded by
// one lock.
type Allocator struct {
	lock         sync.Mutex
	nextID       common.EntityID
	released     []releasedID
	recycling    bool
	recycleDelay time.Duration
}

type releasedID struct {
	id          common.EntityID
	releaseTime time.Time
}

// NewAllocator creates an identifier allocator.
//
// recycling enables reuse of released identifiers after recycleDelay.
func NewAllocator(recycling bool, recycleDelay time.Duration) *Allocator {
	return &Allocator{
		nextID:       common.NilEntityID + 1,
		recycling:    recycling,
		recycleDelay: recycleDelay,
	}
}

// IsRecycling returns if identifier recycling is enabled
func (a *Allocator) IsRecycling() bool {
	return a.recycling
}

// Allocate returns an identifier not equal to any currently-live entity's.
//
// The oldest released identifier is reused when recycling is enabled and its
// age exceeds the recycle delay; otherwise a fresh counter value is issued.
func (a *Allocator) Allocate(now time.Time) common.EntityID {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.recycling && len(a.released) > 0 {
		head := a.released[0]
		if now.Sub(head.releaseTime) >= a.recycleDelay {
			a.released = a.released[1:]
			return head.id
		}
	}

	id := a.nextID
	a.nextID++
	return id
}

// Release enqueues the identifier for future reuse.
//
// Release is a no-op when recycling is disabled.
func (a *Allocator) Release(id common.EntityID, now time.Time) {
	if !a.recycling {
		return
	}

	a.lock.Lock()
	a.released = append(a.released, releasedID{id: id, releaseTime: now})
	a.lock.Unlock()
}

// PendingReleased returns the number of identifiers waiting to be recycled
func (a *Allocator) PendingReleased() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.released)
}
