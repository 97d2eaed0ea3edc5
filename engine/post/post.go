package post

import (
	"sync"

	"github.com/gomirror/gomirror/engine/gmutils"
)

// PostCallback is the type of functions to be posted
type PostCallback func()

// Queue collects callbacks to be executed after the current session tick
// phase completes. Orphan reparenting and despawn cleanup are posted here so
// that they never run in the middle of a spawn/despawn side-effect sequence.
type Queue struct {
	callbacks []PostCallback
	lock      sync.Mutex
}

// NewQueue creates a new post queue
func NewQueue() *Queue {
	return &Queue{}
}

// Post a callback which will be executed when other things are done in the session tick
//
// Post might be called from other goroutines, so we use a lock to protect the data
func (q *Queue) Post(f PostCallback) {
	q.lock.Lock()
	q.callbacks = append(q.callbacks, f)
	q.lock.Unlock()
}

// Tick is called by the session tick to run all posted functions
func (q *Queue) Tick() {
	for { // loop until there is no callbacks posted anymore
		q.lock.Lock() // lock to check number of callbacks
		if len(q.callbacks) == 0 {
			q.lock.Unlock()
			break // all callbacks executed, quit
		}
		// switch callbacks in locked section
		callbacksCopy := q.callbacks
		q.callbacks = make([]PostCallback, 0, len(q.callbacks))
		q.lock.Unlock()

		for _, f := range callbacksCopy {
			gmutils.RunPanicless(f)
		}
	}
}
