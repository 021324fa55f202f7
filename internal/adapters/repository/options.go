package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithLatencyRange makes Search wait a random duration in [minLatency,
// maxLatency) before answering, simulating a remote ratings API.
// Zero values disable the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *MemoryStore) {
		if minLatency >= 0 && maxLatency > minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSeed sets the random seed used for simulated latency.
func WithSeed(seed int64) Option {
	return func(s *MemoryStore) {
		s.seed = seed
	}
}
