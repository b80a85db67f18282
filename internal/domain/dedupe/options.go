package dedupe

// Option applies a configuration option to the memory gate.
type Option func(*MemoryGate)

// WithMaxSize sets the maximum number of keys to keep in memory.
// If maxSize > 0 the oldest key is evicted first; otherwise the gate is
// unbounded.
func WithMaxSize(maxSize int) Option {
	return func(g *MemoryGate) {
		g.maxSize = maxSize
	}
}
