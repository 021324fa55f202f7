package search

import (
	"time"

	"github.com/okian/aoelookup/pkg/logger"
)

// Option applies a configuration option to the Machine.
type Option func(*Machine)

// WithLogger sets a custom logger for the machine.
func WithLogger(l logger.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithFetchTimeout bounds each fetch. A timed out fetch commits Error.
// Zero or negative disables the timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}
