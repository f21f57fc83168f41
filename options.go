// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linkframe

import (
	"time"

	"go.uber.org/zap"
)

// Options configures a Sender/Receiver engine.
type Options struct {
	// Timeout is the receive deadline applied to each transmission attempt.
	Timeout time.Duration

	// MaxRetries is the retry budget: a frame is sent at most 1+MaxRetries
	// times before the phase fails.
	MaxRetries int

	// FilenameSize bounds the accumulated filename buffer on the receiver.
	FilenameSize int

	// Logger receives phase-transition, retry, and failure events. A nil
	// Logger is replaced with zap.NewNop().
	Logger *zap.Logger

	// Metrics, if non-nil, receives frame/phase counters.
	Metrics *Metrics

	// SpaceCheck, if non-nil, is consulted with a peer's declared BACKUP
	// file size before the data-transfer phase begins; returning false
	// fails the phase with ErrInsufficientSpace. A nil SpaceCheck always
	// accepts.
	SpaceCheck func(size int64) bool
}

var defaultOptions = Options{
	Timeout:      DefaultTimeout,
	MaxRetries:   MaxRetries,
	FilenameSize: DefaultFilenameSize,
	Logger:       zap.NewNop(),
}

// Option configures Options.
type Option func(*Options)

func newOptions(opts ...Option) Options {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// WithTimeout sets the per-transmission receive deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithMaxRetries sets the retry budget.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithFilenameSize bounds the receiver's filename accumulator.
func WithFilenameSize(n int) Option {
	return func(o *Options) { o.FilenameSize = n }
}

// WithLogger injects a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics attaches a Prometheus-backed counter set.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithSpaceCheck installs a disk-space predicate consulted during the
// BACKUP SIZE phase.
func WithSpaceCheck(f func(size int64) bool) Option {
	return func(o *Options) { o.SpaceCheck = f }
}
