package cache

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

type raceVal struct{ N int }

// A mixed workload of concurrent Get/GetMut across a handful of types on
// a small cache, driving heavy Busy/Locked contention. Should pass under
// `-race` without detector reports and without ever observing a torn
// value through a guard.
func TestRace_GetAndGetMut(t *testing.T) {
	c := New(Options{Sets: 2, Ways: 2})
	t.Cleanup(func() { _ = c.Close() })

	loader := funcStore[raceVal]{
		dflt: func() raceVal { return raceVal{} },
		load: func() (raceVal, error) { return raceVal{}, nil },
	}

	workers := 4 * runtime.GOMAXPROCS(0)
	deadline := time.Now().Add(300 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				if r.Intn(2) == 0 {
					if ref, err := Get[raceVal](c, loader); err == nil {
						_ = ref.Value()
						ref.Close()
					}
				} else {
					if m, err := GetMut[raceVal](c, loader); err == nil {
						m.Mutate(func(v *raceVal) { v.N++ })
						m.Close()
					}
				}
			}
		}(w)
	}
	wg.Wait()
}

// errgroup-driven variant: every goroutine's Get must either see a live
// value or a well-defined contention error, never panic.
func TestRace_ErrgroupMixedTypes(t *testing.T) {
	c := New(Options{Sets: 4, Ways: 4})
	t.Cleanup(func() { _ = c.Close() })

	type ta struct{ N int }
	type tb struct{ N int }
	type tc struct{ N int }

	la := funcStore[ta]{dflt: func() ta { return ta{} }}
	lb := funcStore[tb]{dflt: func() tb { return tb{} }}
	lc := funcStore[tc]{dflt: func() tc { return tc{} }}

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 64; i++ {
		i := i
		g.Go(func() error {
			switch i % 3 {
			case 0:
				if ref, err := Get[ta](c, la); err == nil {
					ref.Close()
				} else if err != ErrBusy && err != ErrLocked {
					return err
				}
			case 1:
				if m, err := GetMut[tb](c, lb); err == nil {
					m.Mutate(func(v *tb) { v.N++ })
					m.Close()
				} else if err != ErrBusy && err != ErrLocked {
					return err
				}
			default:
				if ref, err := Get[tc](c, lc); err == nil {
					ref.Close()
				} else if err != ErrBusy && err != ErrLocked {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
