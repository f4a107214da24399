package ledger

import "sync"

// keyedLocks hands out one mutex per source id so balance mutations are
// serialized per source without a global lock. Mutexes are never reclaimed;
// the map grows with the number of distinct sources, which is small.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) get(id string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	return m
}

// lockPair acquires the locks for two source ids in lexicographic order so
// concurrent edits touching the same pair cannot deadlock. The ids may be
// equal, in which case a single lock is taken.
func (k *keyedLocks) lockPair(a, b string) (unlock func()) {
	if a == b {
		m := k.get(a)
		m.Lock()
		return m.Unlock
	}
	if b < a {
		a, b = b, a
	}
	first, second := k.get(a), k.get(b)
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}
