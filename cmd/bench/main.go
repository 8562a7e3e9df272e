// Command bench runs a synthetic workload against the cache and exposes
// optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/romcache/romcache/cache"
	"github.com/romcache/romcache/logging/logrusadapter"
	pmet "github.com/romcache/romcache/metrics/prom"
)

func main() {
	var (
		sets    = flag.Int("sets", 0, "number of cache sets (0=auto)")
		ways    = flag.Int("ways", 4, "ways per set")
		latency = flag.Duration("latency", time.Microsecond, "simulated backing-store latency per load/store")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 5*time.Second, "benchmark duration")
		mutPct   = flag.Int("mut", 20, "percentage [0..100] of iterations counted as GetMut, remainder as Get; every iteration runs one Get and one GetMut")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	metrics := pmet.New(nil, "romcache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	c := cache.New(cache.Options{Sets: *sets, Ways: *ways, Logger: logrusadapter.New(logger), Metrics: metrics})
	defer func() {
		if err := c.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	backing := newROM(*latency)
	loaders := []func() (hit, mut error){
		slotWorkload(c, backing, 0, func(v demoValue) T0 { return T0{v} }, func(t T0) demoValue { return t.demoValue }),
		slotWorkload(c, backing, 1, func(v demoValue) T1 { return T1{v} }, func(t T1) demoValue { return t.demoValue }),
		slotWorkload(c, backing, 2, func(v demoValue) T2 { return T2{v} }, func(t T2) demoValue { return t.demoValue }),
		slotWorkload(c, backing, 3, func(v demoValue) T3 { return T3{v} }, func(t T3) demoValue { return t.demoValue }),
		slotWorkload(c, backing, 4, func(v demoValue) T4 { return T4{v} }, func(t T4) demoValue { return t.demoValue }),
		slotWorkload(c, backing, 5, func(v demoValue) T5 { return T5{v} }, func(t T5) demoValue { return t.demoValue }),
		slotWorkload(c, backing, 6, func(v demoValue) T6 { return T6{v} }, func(t T6) demoValue { return t.demoValue }),
		slotWorkload(c, backing, 7, func(v demoValue) T7 { return T7{v} }, func(t T7) demoValue { return t.demoValue }),
	}

	var gets, muts, hits, busy, locked uint64
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()
			r := newLocalRand(int64(id))
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				op := loaders[r.next(len(loaders))]
				if r.next(100) < *mutPct {
					atomic.AddUint64(&muts, 1)
					if _, err := op(); classify(err, &hits, &busy, &locked) {
						continue
					}
				} else {
					atomic.AddUint64(&gets, 1)
					if err, _ := op(); classify(err, &hits, &busy, &locked) {
						continue
					}
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	ops := atomic.LoadUint64(&gets) + atomic.LoadUint64(&muts)
	fmt.Printf("sets=%d ways=%d workers=%d dur=%v\n", *sets, *ways, workersN, elapsed)
	fmt.Printf("ops=%d (%.0f ops/s)  gets=%d  muts=%d\n",
		ops, float64(ops)/elapsed.Seconds(), atomic.LoadUint64(&gets), atomic.LoadUint64(&muts))
	fmt.Printf("hits=%d  busy=%d  locked=%d\n", atomic.LoadUint64(&hits), atomic.LoadUint64(&busy), atomic.LoadUint64(&locked))
	fmt.Printf("backing loads=%d stores=%d\n", backing.loads.Load(), backing.stores.Load())
}

// slotWorkload returns a closure that runs one Get and one GetMut round
// trip against the T-typed line bound to a given demo slot, so main can
// hold a homogeneous slice of workloads across the eight demo types.
func slotWorkload[T any](c *cache.Cache, backing *rom, slot int, wrap func(demoValue) T, unwrap func(T) demoValue) func() (hit, mut error) {
	store := makeStore(backing, slot, wrap, unwrap)
	return func() (hitErr, mutErr error) {
		ref, err := cache.Get[T](c, store)
		if err == nil {
			ref.Close()
		}
		hitErr = err

		m, err := cache.GetMut[T](c, store)
		if err == nil {
			m.Mutate(func(v *T) {
				dv := unwrap(*v)
				dv.Counter++
				*v = wrap(dv)
			})
			m.Close()
		}
		mutErr = err
		return
	}
}

func classify(err error, hits, busy, locked *uint64) (retry bool) {
	switch {
	case err == nil:
		atomic.AddUint64(hits, 1)
		return false
	case err == cache.ErrBusy:
		atomic.AddUint64(busy, 1)
		return true
	case err == cache.ErrLocked:
		atomic.AddUint64(locked, 1)
		return true
	default:
		return false
	}
}

// localRand is a tiny non-cryptographic PRNG so each worker goroutine
// avoids contending on the shared math/rand global lock.
type localRand struct{ state uint64 }

func newLocalRand(seed int64) *localRand {
	s := uint64(seed)*2654435761 + 1
	if s == 0 {
		s = 1
	}
	return &localRand{state: s}
}

func (r *localRand) next(n int) int {
	if n <= 0 {
		return 0
	}
	r.state ^= r.state << 13
	r.state ^= r.state >> 7
	r.state ^= r.state << 17
	return int(r.state % uint64(n))
}
