package cache

import "sync"

// release holds the two unlock closures a guard owns: the line lock
// and the set lock, released in that order, exactly once.
type release struct {
	once        sync.Once
	unlockLine  func()
	unlockGroup func()
}

func (r *release) close() {
	r.once.Do(func() {
		r.unlockLine()
		r.unlockGroup()
	})
}

// Ref is a scoped, read-only handle on a cached value of type T,
// returned by Get. While a Ref is alive, its line cannot be selected
// as an eviction victim and cannot be acquired for writing by GetMut.
// Callers must release it with Close, typically via defer.
type Ref[T any] struct {
	rel  release
	line *line
}

// Value returns a copy of the cached value.
func (r *Ref[T]) Value() T {
	return *(r.line.payload.(*T))
}

// Close releases the guard's locks. It is safe to call more than once;
// only the first call has effect.
func (r *Ref[T]) Close() error {
	r.rel.close()
	return nil
}

// Mut is a scoped, exclusive handle on a cached value of type T,
// returned by GetMut. While a Mut is alive, its line cannot be
// selected as an eviction victim and no other goroutine can read or
// write it. Callers must release it with Close, typically via defer.
type Mut[T any] struct {
	rel  release
	line *line
}

// Get returns a copy of the cached value.
func (m *Mut[T]) Get() T {
	return *(m.ptr())
}

// Set replaces the cached value and marks the line dirty, so it will
// be written back through Cacheable.Store on eviction or Close.
func (m *Mut[T]) Set(v T) {
	*(m.ptr()) = v
	m.line.dirty = true
}

// Mutate applies fn to the cached value in place and marks the line
// dirty. This is the idiomatic way to update a large T without copying
// it twice (once out via Get, once back in via Set).
func (m *Mut[T]) Mutate(fn func(*T)) {
	fn(m.ptr())
	m.line.dirty = true
}

func (m *Mut[T]) ptr() *T {
	return m.line.payload.(*T)
}

// Close releases the guard's locks. It is safe to call more than once;
// only the first call has effect.
func (m *Mut[T]) Close() error {
	m.rel.close()
	return nil
}
