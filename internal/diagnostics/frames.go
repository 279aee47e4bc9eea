// Package diagnostics provides the FPS counter, the background CPU sampler
// and the console commands that toggle them.
package diagnostics

import (
	"math"
	"strconv"
	"sync"
	"time"
)

// DefaultFrameWindow is the number of frames averaged by default.
const DefaultFrameWindow = 50

// FrameCounter averages the most recent unscaled frame durations.
type FrameCounter struct {
	mu     sync.Mutex
	deltas []float64
	next   int
	filled int
}

// NewFrameCounter creates a counter over window frames; window < 1 selects
// DefaultFrameWindow.
func NewFrameCounter(window int) *FrameCounter {
	if window < 1 {
		window = DefaultFrameWindow
	}
	return &FrameCounter{deltas: make([]float64, window)}
}

// Record stores the duration of one frame, replacing the oldest sample once
// the window is full.
func (f *FrameCounter) Record(delta time.Duration) {
	f.mu.Lock()
	f.deltas[f.next] = delta.Seconds()
	f.next = (f.next + 1) % len(f.deltas)
	if f.filled < len(f.deltas) {
		f.filled++
	}
	f.mu.Unlock()
}

// FPS returns the frame rate over the recorded window, or 0 without samples.
func (f *FrameCounter) FPS() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for i := 0; i < f.filled; i++ {
		total += f.deltas[i]
	}
	if total <= 0 {
		return 0
	}
	return float64(f.filled) / total
}

// Formatted returns FPS rounded to the nearest integer.
func (f *FrameCounter) Formatted() string {
	return strconv.Itoa(int(math.Round(f.FPS())))
}
