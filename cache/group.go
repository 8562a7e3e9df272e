package cache

import "sync"

// group is one set: a fixed W lines plus the LRU order over them and
// the set-level lock that guards both the LRU order and which line
// holds which type.
//
// Lock hierarchy: group.mu is always acquired before any line.mu it
// guards, and released after. All group.mu / line.mu acquisitions
// performed by Get/GetMut are non-blocking (TryLock / TryRLock); the
// only blocking calls on those paths are the Cacheable.Load/Store
// callbacks invoked while group.mu is held exclusively. Cache.Close is
// the exception: it takes group.mu with a blocking Lock.
type group struct {
	mu    sync.RWMutex
	index int
	lines []line
	lru   lruOrder
}

func newGroup(index, ways int) *group {
	return &group{
		index: index,
		lines: make([]line, ways),
		lru:   newLRUOrder(ways),
	}
}

// residentCountLocked counts non-empty lines. Requires group.mu held
// (shared or exclusive).
func (g *group) residentCountLocked() int {
	n := 0
	for i := range g.lines {
		if !g.lines[i].isEmpty() {
			n++
		}
	}
	return n
}

// lookupLocked scans the set for tid. Requires the caller to already
// hold group.mu (shared or exclusive). O(W).
func (g *group) lookupLocked(tid typeID) (slot int, ok bool) {
	for i := range g.lines {
		if !g.lines[i].isEmpty() && g.lines[i].tid == tid {
			return i, true
		}
	}
	return 0, false
}

// touchLocked promotes slot to MRU. Requires group.mu held exclusively.
func (g *group) touchLocked(slot int) {
	g.lru.touch(slot)
}

// victimLocked scans slots from least- to most-recently-used and
// returns the index of the first one whose per-line lock can be
// acquired without blocking, with that lock already held (exclusively)
// on return. Requires group.mu held exclusively. Returns ok=false if
// every line in the set is currently in use (an outstanding guard holds
// its lock).
func (g *group) victimLocked() (slot int, ok bool) {
	found := -1
	g.lru.leastToMostRecent(func(candidate int) bool {
		if g.lines[candidate].mu.TryLock() {
			found = candidate
			return true
		}
		return false
	})
	if found < 0 {
		return 0, false
	}
	return found, true
}
