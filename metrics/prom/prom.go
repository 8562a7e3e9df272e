// Package prom adapts cache.Metrics to Prometheus counters and gauges.
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/romcache/romcache/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters and
// gauges. Safe for concurrent use; every prometheus metric type is
// goroutine-safe on its own.
type Adapter struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	busy     *prometheus.CounterVec
	locked   *prometheus.CounterVec
	loads    *prometheus.CounterVec
	stores   *prometheus.CounterVec
	resident *prometheus.GaugeVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "hits_total",
			Help: "Get/GetMut calls that found an existing line", ConstLabels: constLabels,
		}, []string{"op"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "misses_total",
			Help: "Get/GetMut calls that had to load", ConstLabels: constLabels,
		}, []string{"op"}),
		busy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "busy_total",
			Help: "Get/GetMut calls that returned ErrBusy", ConstLabels: constLabels,
		}, []string{"op"}),
		locked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "locked_total",
			Help: "Get/GetMut calls that returned ErrLocked", ConstLabels: constLabels,
		}, []string{"op"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "loads_total",
			Help: "Cacheable.Load outcomes on miss", ConstLabels: constLabels,
		}, []string{"type", "result"}),
		stores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "stores_total",
			Help: "Cacheable.Store outcomes during eviction/close", ConstLabels: constLabels,
		}, []string{"type", "result"}),
		resident: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "resident_lines",
			Help: "Number of resident (non-empty) lines per set", ConstLabels: constLabels,
		}, []string{"set"}),
	}
	reg.MustRegister(a.hits, a.misses, a.busy, a.locked, a.loads, a.stores, a.resident)
	return a
}

func (a *Adapter) Hit(op cache.Op)    { a.hits.WithLabelValues(string(op)).Inc() }
func (a *Adapter) Miss(op cache.Op)   { a.misses.WithLabelValues(string(op)).Inc() }
func (a *Adapter) Busy(op cache.Op)   { a.busy.WithLabelValues(string(op)).Inc() }
func (a *Adapter) Locked(op cache.Op) { a.locked.WithLabelValues(string(op)).Inc() }

func (a *Adapter) Load(typeName string, ok bool) {
	a.loads.WithLabelValues(typeName, result(ok)).Inc()
}

func (a *Adapter) Store(typeName string, ok bool) {
	a.stores.WithLabelValues(typeName, result(ok)).Inc()
}

func (a *Adapter) Size(setIndex int, resident int) {
	a.resident.WithLabelValues(strconv.Itoa(setIndex)).Set(float64(resident))
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
