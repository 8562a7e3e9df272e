// Package cache implements a fixed-size, set-associative, in-process cache
// for typed values backed by a slow secondary store ("ROM").
//
// Design
//
//   - Layout: the cache is an array of S sets (groups), each holding a fixed
//     W ways (lines). A type identity hashes to exactly one set; within a
//     set, at most one line may hold any given type. This is the same
//     shape as a CPU set-associative data cache, except a "line" holds an
//     arbitrary typed Go value instead of a fixed-width memory block.
//
//   - Concurrency: every acquisition Get/GetMut perform is non-blocking
//     (only Close waits for a set's lock).
//     Sets are guarded by a sync.RWMutex used with TryLock/TryRLock; lines
//     are guarded the same way. Lock order is always set lock, then line
//     lock. Contention is surfaced to the caller as ErrBusy (a line is in
//     use) or ErrLocked (the set lock could not be acquired), never as a
//     blocking wait. The only blocking operations are the caller-supplied
//     Cacheable.Load/Store implementations, which run under the set's
//     exclusive lock.
//
//   - Eviction: each set maintains its own LRU order over its W lines.
//     Get/GetMut load on miss and evict the least-recently-used line whose
//     per-line lock is currently acquirable; a dirty victim is written
//     back before its slot is reused. If every line in a set is in use,
//     eviction reports ErrBusy instead of picking a victim.
//
//   - Typed dispatch: Get[T] and GetMut[T] take the stored value type T as
//     a type parameter and a Cacheable[T] implementation as an ordinary
//     argument, since a real loader usually carries state (a DB handle, a
//     file path, a shard key) that a type parameter alone cannot carry.
//
// Basic usage
//
//	type Counter struct{ N int }
//
//	type counterStore struct{ path string }
//
//	func (s counterStore) Default() Counter       { return Counter{} }
//	func (s counterStore) Load() (Counter, error) { return loadCounterFromDisk(s.path) }
//	func (s counterStore) Store(c Counter) error  { return saveCounterToDisk(s.path, c) }
//
//	c := cache.New(cache.Options{Sets: 4, Ways: 4})
//	defer c.Close()
//
//	ref, err := cache.Get[Counter](c, counterStore{path: "/var/lib/app/counter"})
//	if err != nil {
//	    // ErrBusy or ErrLocked: retry later.
//	}
//	defer ref.Close()
//	fmt.Println(ref.Value().N)
//
// Mutating a value
//
//	m, err := cache.GetMut[Counter](c, counterStore{path: "/var/lib/app/counter"})
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//	m.Mutate(func(v *Counter) { v.N++ }) // marks the line dirty
//
// Thread-safety
//
// All Cache methods and the free functions Get/GetMut are safe for
// concurrent use by multiple goroutines. A returned guard (Ref/Mut) must
// be released with Close before the line it refers to can be evicted or
// re-acquired for writing.
package cache
