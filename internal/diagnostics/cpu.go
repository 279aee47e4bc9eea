package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.uber.org/zap"
)

// ErrStopTimeout is returned by Stop when the sampling goroutine does not
// exit within the shutdown timeout.
var ErrStopTimeout = errors.New("diagnostics: cpu sampler did not stop in time")

// SampleFunc measures CPU usage over interval and returns a percentage.
// It must return promptly once ctx is cancelled.
type SampleFunc func(ctx context.Context, interval time.Duration) (float64, error)

// SystemCPUPercent samples whole-system CPU usage with gopsutil.
func SystemCPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, fmt.Errorf("sampling cpu: %w", err)
	}
	if len(percents) == 0 {
		return 0, errors.New("sampling cpu: no data")
	}
	return percents[0], nil
}

// CPUSampler publishes CPU usage from a background goroutine. The latest
// value lives in a single atomic cell written only by that goroutine.
type CPUSampler struct {
	interval time.Duration
	timeout  time.Duration
	sample   SampleFunc
	logger   *zap.Logger
	onChange func(percent float64)

	bits     atomic.Uint64
	stopping atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCPUSampler creates a stopped sampler.
//
// Precondition: interval and timeout must be positive; sample and logger must be non-nil.
// Postcondition: Percent() returns 0 until the first published sample.
func NewCPUSampler(interval, timeout time.Duration, sample SampleFunc, logger *zap.Logger) *CPUSampler {
	return &CPUSampler{
		interval: interval,
		timeout:  timeout,
		sample:   sample,
		logger:   logger,
	}
}

// OnChange registers fn to run on the sampling goroutine whenever a new
// value differs from the previous one. It must be set before Start.
func (s *CPUSampler) OnChange(fn func(percent float64)) {
	s.onChange = fn
}

// Start launches the sampling goroutine. Starting a running sampler is a no-op.
func (s *CPUSampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.stopping.Store(false)
	go s.loop(ctx, s.done)
}

// Stop sets the stop flag, cancels the in-flight sample and waits for the
// goroutine to exit.
//
// Postcondition: Returns nil once the goroutine exited, or ErrStopTimeout.
func (s *CPUSampler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return nil
	}
	s.stopping.Store(true)
	s.cancel()
	done := s.done
	s.done = nil
	s.cancel = nil

	select {
	case <-done:
		return nil
	case <-time.After(s.timeout):
		return ErrStopTimeout
	}
}

// Running reports whether the sampler has been started and not stopped.
func (s *CPUSampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Percent returns the latest published usage in [0, 100].
func (s *CPUSampler) Percent() float64 {
	return math.Float64frombits(s.bits.Load())
}

func (s *CPUSampler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for !s.stopping.Load() {
		v, err := s.sample(ctx, s.interval)
		if ctx.Err() != nil {
			return
		}
		if err != nil || v < 0 || v > 100 {
			if err != nil {
				s.logger.Debug("cpu sample failed", zap.Error(err))
			} else {
				s.logger.Debug("cpu sample out of range", zap.Float64("percent", v))
			}
			if !s.wait(ctx) {
				return
			}
			continue
		}
		prev := s.Percent()
		s.bits.Store(math.Float64bits(v))
		if v != prev && s.onChange != nil {
			s.onChange(v)
		}
	}
}

// wait pauses one interval before the next sample; it reports false when ctx
// ended first.
func (s *CPUSampler) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.interval):
		return true
	}
}
