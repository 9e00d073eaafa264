package server

import "sync"

// draftLocks serializes load, mutate and save sequences on a single draft.
// Entries are dropped once no request holds or waits on them.
type draftLocks struct {
	mu    sync.Mutex
	locks map[string]*draftLock
}

type draftLock struct {
	mu   sync.Mutex
	refs int
}

func newDraftLocks() *draftLocks {
	return &draftLocks{
		locks: make(map[string]*draftLock),
	}
}

// lock blocks until the caller owns did and returns the matching unlock.
func (dl *draftLocks) lock(did string) func() {
	dl.mu.Lock()
	l, ok := dl.locks[did]
	if !ok {
		l = &draftLock{}
		dl.locks[did] = l
	}
	l.refs++
	dl.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		dl.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(dl.locks, did)
		}
		dl.mu.Unlock()
	}
}
