package cache

// Options configures a Cache. Zero values are safe; New applies sane
// defaults on the zero value:
//
//	Sets <= 0  => auto (ReasonableSetCount, based on GOMAXPROCS)
//	Ways <= 0  => 4
//	nil Metrics => NoopMetrics
//	nil Logger  => NoopLogger
type Options struct {
	// Sets is the number of sets. Typical range [1, 1024].
	Sets int

	// Ways is the associativity: lines per set. Typical range [1, 256];
	// the LRU order (cache/lru.go) is not limited to small W, unlike an
	// 8-bit-packed encoding.
	Ways int

	// Metrics receives Hit/Miss/Busy/Locked/Load/Store/Size signals.
	// Defaults to NoopMetrics.
	Metrics Metrics

	// Logger receives diagnostic messages, in particular the store
	// failure side channel for writeback errors during eviction.
	// Defaults to NoopLogger.
	Logger Logger
}
