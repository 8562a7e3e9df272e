package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/romcache/romcache/internal/util"
)

const defaultWays = 4

// Cache is the top-level set-associative store: S sets of W ways each.
// It has no type parameters of its own; the stored value type is
// chosen per call via the generic functions Get and GetMut.
type Cache struct {
	sets    []*group
	metrics Metrics
	logger  Logger
}

// New constructs a Cache with all lines empty. See Options for the
// defaults applied to zero-valued fields.
func New(opt Options) *Cache {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = NoopLogger{}
	}
	sets := opt.Sets
	if sets <= 0 {
		sets = util.ReasonableSetCount()
	}
	ways := opt.Ways
	if ways <= 0 {
		ways = defaultWays
	}

	gs := make([]*group, sets)
	for i := range gs {
		gs[i] = newGroup(i, ways)
	}
	return &Cache{sets: gs, metrics: opt.Metrics, logger: opt.Logger}
}

// setFor hashes tid to one of c's sets. Deterministic; collisions
// across distinct types are expected and resolved by associativity
// within the set.
func (c *Cache) setFor(tid typeID) *group {
	h := util.Fnv64a(tid.String())
	idx := util.SetIndex(h, len(c.sets))
	return c.sets[idx]
}

// binding is the type-erased form of a Cacheable[T]: three closures
// captured at the Get[T]/GetMut[T] call site, where T is still known,
// so the rest of the core (which only ever sees typeID and `any`)
// never needs a type switch to dispatch load/default/store.
type binding struct {
	load  func() (any, error)
	dflt  func() any
	store func(payload any) error
	box   func(v any) any // wraps a T value as *T for line.payload
}

func bind[T any](loader Cacheable[T]) binding {
	return binding{
		load: func() (any, error) {
			v, err := loader.Load()
			return v, err
		},
		dflt: func() any { return loader.Default() },
		store: func(payload any) error {
			return loader.Store(*(payload.(*T)))
		},
		box: func(v any) any {
			tv := v.(T)
			return &tv
		},
	}
}

// Get returns a shared, read-only guard on the resident value of type
// T, loading it via loader on miss. loader is only consulted on a
// miss; see Cacheable for details. Never blocks: any lock it cannot
// acquire immediately turns into ErrBusy or ErrLocked instead.
func Get[T any](c *Cache, loader Cacheable[T]) (*Ref[T], error) {
	tid := typeIDOf[T]()
	typeName := tid.String()
	g := c.setFor(tid)

	// Fast path: shared set lock, scan for an existing line.
	if g.mu.TryRLock() {
		if slot, ok := g.lookupLocked(tid); ok {
			l := &g.lines[slot]
			if !l.mu.TryRLock() {
				g.mu.RUnlock()
				c.metrics.Busy(OpGet)
				return nil, ErrBusy
			}
			c.metrics.Hit(OpGet)
			return &Ref[T]{
				line: l,
				rel:  release{unlockLine: l.mu.RUnlock, unlockGroup: g.mu.RUnlock},
			}, nil
		}
		g.mu.RUnlock()
	} else {
		c.metrics.Locked(OpGet)
		return nil, ErrLocked
	}

	// Miss under the shared lock: escalate to exclusive to install.
	if !g.mu.TryLock() {
		c.metrics.Locked(OpGet)
		return nil, ErrLocked
	}

	// Re-lookup: another goroutine may have installed T while we didn't
	// hold any lock on this set.
	if slot, ok := g.lookupLocked(tid); ok {
		g.touchLocked(slot)
		l := &g.lines[slot]
		if !l.mu.TryRLock() {
			g.mu.Unlock()
			c.metrics.Busy(OpGet)
			return nil, ErrBusy
		}
		// Downgrade the set lock to shared, matching the fast path's
		// lock mode. sync.RWMutex has no atomic downgrade, so there is
		// a narrow window where a competing GetMut could grab the
		// exclusive lock first; see DESIGN.md. That can only turn this
		// call into ErrLocked, never corrupt state.
		g.mu.Unlock()
		if !g.mu.TryRLock() {
			l.mu.RUnlock()
			c.metrics.Locked(OpGet)
			return nil, ErrLocked
		}
		c.metrics.Hit(OpGet)
		return &Ref[T]{
			line: l,
			rel:  release{unlockLine: l.mu.RUnlock, unlockGroup: g.mu.RUnlock},
		}, nil
	}

	// Confirmed miss: evict a victim (if any dirty, write it back), load
	// or default T, install, and hand back a shared guard.
	slot, ok := g.victimLocked()
	if !ok {
		g.mu.Unlock()
		c.metrics.Busy(OpGet)
		return nil, ErrBusy
	}
	l := &g.lines[slot]
	c.loadInto(l, tid, typeName, bind[T](loader))
	g.touchLocked(slot)
	c.metrics.Size(g.index, g.residentCountLocked())

	l.mu.Unlock()
	if !l.mu.TryRLock() {
		// Cannot happen: nothing else has seen this line yet while we
		// hold the set exclusively. Kept as a checked error rather than
		// a panic so a future refactor that weakens this guarantee
		// fails loudly instead of corrupting state.
		g.mu.Unlock()
		return nil, fmt.Errorf("cache: internal invariant violated acquiring fresh line for %s", typeName)
	}
	g.mu.Unlock()
	if !g.mu.TryRLock() {
		l.mu.RUnlock()
		c.metrics.Locked(OpGet)
		return nil, ErrLocked
	}
	c.metrics.Miss(OpGet)
	return &Ref[T]{
		line: l,
		rel:  release{unlockLine: l.mu.RUnlock, unlockGroup: g.mu.RUnlock},
	}, nil
}

// GetMut returns an exclusive, mutable guard on the resident value of
// type T, loading it via loader on miss. Unlike Get, it always takes
// the set's exclusive lock and keeps it for the guard's lifetime.
func GetMut[T any](c *Cache, loader Cacheable[T]) (*Mut[T], error) {
	tid := typeIDOf[T]()
	typeName := tid.String()
	g := c.setFor(tid)

	if !g.mu.TryLock() {
		c.metrics.Locked(OpGetMut)
		return nil, ErrLocked
	}

	if slot, ok := g.lookupLocked(tid); ok {
		l := &g.lines[slot]
		if !l.mu.TryLock() {
			g.mu.Unlock()
			c.metrics.Busy(OpGetMut)
			return nil, ErrBusy
		}
		g.touchLocked(slot)
		c.metrics.Hit(OpGetMut)
		return &Mut[T]{
			line: l,
			rel:  release{unlockLine: l.mu.Unlock, unlockGroup: g.mu.Unlock},
		}, nil
	}

	slot, ok := g.victimLocked()
	if !ok {
		g.mu.Unlock()
		c.metrics.Busy(OpGetMut)
		return nil, ErrBusy
	}
	l := &g.lines[slot]
	c.loadInto(l, tid, typeName, bind[T](loader))
	g.touchLocked(slot)
	c.metrics.Size(g.index, g.residentCountLocked())

	c.metrics.Miss(OpGetMut)
	return &Mut[T]{
		line: l,
		rel:  release{unlockLine: l.mu.Unlock, unlockGroup: g.mu.Unlock},
	}, nil
}

// loadInto evicts l's current occupant (writing it back if dirty) and
// installs a freshly loaded or defaulted value bound by b. l.mu must
// already be held exclusively by the caller (from victimLocked) and
// remains held on return.
func (c *Cache) loadInto(l *line, tid typeID, typeName string, b binding) {
	if !l.isEmpty() {
		wasDirty := l.dirty
		victimName := l.typeName
		if err := l.evictLocked(); err != nil {
			c.metrics.Store(victimName, false)
			c.logger.Warnf("cache: writeback failed for %s during eviction: %v", victimName, err)
		} else if wasDirty {
			c.metrics.Store(victimName, true)
		}
	}

	v, err := b.load()
	if err != nil {
		c.metrics.Load(typeName, false)
		c.logger.Debugf("cache: load failed for %s, installing default: %v", typeName, err)
		v = b.dflt()
	} else {
		c.metrics.Load(typeName, true)
	}
	l.installLocked(tid, typeName, b.box(v), b.store)
}

// Close flushes every dirty line across all sets, writing it back
// through its Cacheable.Store, and marks every line empty. Sets don't
// share state, so teardown fans out one goroutine per set through an
// errgroup and returns the first store error encountered; later ones
// are only logged, since teardown is best-effort rather than
// all-or-nothing. Unlike Get/GetMut, Close waits for each set's lock
// (so it blocks until guards holding that set are closed); a line whose
// own lock is still held at that point is skipped, neither flushed nor
// emptied.
func (c *Cache) Close() error {
	g, _ := errgroup.WithContext(context.Background())
	for _, set := range c.sets {
		set := set
		g.Go(func() error {
			set.mu.Lock()
			defer set.mu.Unlock()
			var first error
			for i := range set.lines {
				l := &set.lines[i]
				if l.isEmpty() {
					continue
				}
				if !l.mu.TryLock() {
					// A guard is still outstanding at shutdown; best
					// effort means we leave it be rather than block.
					continue
				}
				wasDirty := l.dirty
				typeName := l.typeName
				err := l.evictLocked()
				l.mu.Unlock()
				if err != nil {
					c.metrics.Store(typeName, false)
					c.logger.Errorf("cache: writeback failed for %s during close: %v", typeName, err)
					if first == nil {
						first = newStoreError(typeName, err)
					}
				} else if wasDirty {
					c.metrics.Store(typeName, true)
				}
			}
			return first
		})
	}
	return g.Wait()
}
