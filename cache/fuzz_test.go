package cache

import "testing"

type fuzzVal struct{ N int }

// FuzzCache_OpSequence drives a pseudo-random sequence of Get/GetMut
// calls against a tiny two-way cache and checks the invariants that
// must hold regardless of interleaving: no panic, every returned error
// is one of the two documented sentinels, and the LRU order always
// stays a valid permutation. The op byte selects Get vs GetMut and
// which of two types to request, so the fuzzer explores install,
// contended-hit, and dirty-eviction sequences without needing a
// stateful oracle.
func FuzzCache_OpSequence(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0x01, 0x02, 0x03})
	f.Add([]byte{0xff, 0x00, 0xff, 0x00, 0xff})
	f.Add([]byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17})

	f.Fuzz(func(t *testing.T, ops []byte) {
		const opLimit = 256
		if len(ops) > opLimit {
			ops = ops[:opLimit]
		}

		c := New(Options{Sets: 1, Ways: 2})
		t.Cleanup(func() { _ = c.Close() })

		loaderA := funcStore[fuzzVal]{
			dflt:  func() fuzzVal { return fuzzVal{} },
			load:  func() (fuzzVal, error) { return fuzzVal{N: 1}, nil },
			store: func(fuzzVal) error { return nil },
		}
		type fuzzValB struct{ N int }
		loaderB := funcStore[fuzzValB]{
			dflt:  func() fuzzValB { return fuzzValB{} },
			load:  func() (fuzzValB, error) { return fuzzValB{N: 2}, nil },
			store: func(fuzzValB) error { return nil },
		}

		for _, op := range ops {
			useB := op&0x01 != 0
			mutate := op&0x02 != 0

			switch {
			case !useB && !mutate:
				if ref, err := Get[fuzzVal](c, loaderA); err == nil {
					ref.Close()
				} else if err != ErrBusy && err != ErrLocked {
					t.Fatalf("unexpected error from Get: %v", err)
				}
			case !useB && mutate:
				if m, err := GetMut[fuzzVal](c, loaderA); err == nil {
					m.Mutate(func(v *fuzzVal) { v.N++ })
					m.Close()
				} else if err != ErrBusy && err != ErrLocked {
					t.Fatalf("unexpected error from GetMut: %v", err)
				}
			case useB && !mutate:
				if ref, err := Get[fuzzValB](c, loaderB); err == nil {
					ref.Close()
				} else if err != ErrBusy && err != ErrLocked {
					t.Fatalf("unexpected error from Get: %v", err)
				}
			default:
				if m, err := GetMut[fuzzValB](c, loaderB); err == nil {
					m.Mutate(func(v *fuzzValB) { v.N++ })
					m.Close()
				} else if err != ErrBusy && err != ErrLocked {
					t.Fatalf("unexpected error from GetMut: %v", err)
				}
			}

			if !c.sets[0].lru.isPermutation() {
				t.Fatalf("lru order is not a valid permutation after op %#x", op)
			}
		}
	})
}
