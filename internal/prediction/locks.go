package prediction

import "sync"

// eventLocks hands out one mutex per prediction event id. Entries are never
// reclaimed; resolved predictions stop being locked and the map stays small
// in practice.
type eventLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[string]*sync.Mutex)}
}

func (e *eventLocks) get(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.locks[id]
	if !ok {
		m = &sync.Mutex{}
		e.locks[id] = m
	}
	return m
}
