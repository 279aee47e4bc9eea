package diagnostics

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/devconsole/internal/console/header"
)

func TestFrameCounter_Empty(t *testing.T) {
	f := NewFrameCounter(0)
	assert.Equal(t, 0.0, f.FPS())
	assert.Equal(t, "0", f.Formatted())
	assert.Len(t, f.deltas, DefaultFrameWindow)
}

func TestFrameCounter_WindowReplacesOldest(t *testing.T) {
	f := NewFrameCounter(4)
	for i := 0; i < 4; i++ {
		f.Record(100 * time.Millisecond)
	}
	assert.InDelta(t, 10.0, f.FPS(), 1e-9)
	for i := 0; i < 4; i++ {
		f.Record(20 * time.Millisecond)
	}
	assert.InDelta(t, 50.0, f.FPS(), 1e-9)
	assert.Equal(t, "50", f.Formatted())
}

func TestPropertyFrameCounter_ConstantRate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ms := rapid.IntRange(1, 1000).Draw(t, "ms")
		n := rapid.IntRange(1, 120).Draw(t, "frames")
		f := NewFrameCounter(50)
		for i := 0; i < n; i++ {
			f.Record(time.Duration(ms) * time.Millisecond)
		}
		want := 1000.0 / float64(ms)
		if math.Abs(f.FPS()-want) > 1e-6*want {
			t.Fatalf("fps %v, want %v", f.FPS(), want)
		}
	})
}

func steadySample(values ...float64) SampleFunc {
	var i atomic.Int64
	return func(ctx context.Context, interval time.Duration) (float64, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(interval):
		}
		n := i.Add(1) - 1
		if int(n) >= len(values) {
			return values[len(values)-1], nil
		}
		return values[n], nil
	}
}

func TestCPUSampler_PublishesAndStops(t *testing.T) {
	s := NewCPUSampler(time.Millisecond, time.Second, steadySample(150, -3, 42), zap.NewNop())
	changes := make(chan float64, 8)
	s.OnChange(func(v float64) {
		select {
		case changes <- v:
		default:
		}
	})

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.Running())

	select {
	case v := <-changes:
		assert.Equal(t, 42.0, v)
	case <-time.After(2 * time.Second):
		t.Fatal("no sample published")
	}
	assert.Equal(t, 42.0, s.Percent())

	require.NoError(t, s.Stop())
	assert.False(t, s.Running())
	assert.NoError(t, s.Stop())
}

func TestCPUSampler_StopTimesOut(t *testing.T) {
	release := make(chan struct{})
	stuck := func(context.Context, time.Duration) (float64, error) {
		<-release
		return 0, nil
	}
	s := NewCPUSampler(time.Millisecond, 20*time.Millisecond, stuck, zap.NewNop())
	s.Start(context.Background())

	err := s.Stop()
	assert.ErrorIs(t, err, ErrStopTimeout)
	close(release)
}

func TestCPUSampler_ErrorsAreRetried(t *testing.T) {
	var calls atomic.Int64
	flaky := func(ctx context.Context, interval time.Duration) (float64, error) {
		if calls.Add(1) < 3 {
			return 0, errors.New("unavailable")
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(interval):
		}
		return 12, nil
	}
	s := NewCPUSampler(time.Millisecond, time.Second, flaky, zap.NewNop())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return s.Percent() == 12 }, 2*time.Second, 5*time.Millisecond)
}

func TestCPUSampler_OutOfRangeWaitsInterval(t *testing.T) {
	var calls atomic.Int64
	instant := func(context.Context, time.Duration) (float64, error) {
		calls.Add(1)
		return 250, nil
	}
	s := NewCPUSampler(50*time.Millisecond, time.Second, instant, zap.NewNop())
	s.Start(context.Background())
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.LessOrEqual(t, calls.Load(), int64(10))
	assert.Equal(t, 0.0, s.Percent())
}

type fakeProbe struct{}

func (fakeProbe) OS(context.Context) (string, error) { return "testos 1.0", nil }

func (fakeProbe) Hardware(context.Context) (HardwareInfo, error) {
	return HardwareInfo{CPU: "TestCPU", Cores: 8, MemoryMB: 16384}, nil
}

func newDiagnostics(t *testing.T, supported bool) (*Diagnostics, *header.Header, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	hdr := header.New(nil)
	sampler := NewCPUSampler(time.Millisecond, time.Second, steadySample(25), zap.NewNop())
	d := New(Options{Supported: supported, Color: "ABCDEF"}, NewFrameCounter(10), sampler, hdr, fakeProbe{}, zap.New(core))
	t.Cleanup(func() { _ = d.Close() })
	return d, hdr, logs
}

func TestDiagnostics_FPSBadge(t *testing.T) {
	d, hdr, _ := newDiagnostics(t, true)
	d.RecordFrame(20 * time.Millisecond)

	d.SetFPS(true)
	require.Len(t, hdr.Entries(), 1)
	e := hdr.Entries()[0]
	assert.Equal(t, "50", e.Label())
	assert.Equal(t, "ABCDEF", e.Color())
	assert.Equal(t, FPSWidth, e.Width)
	assert.True(t, d.FPSOn())

	d.SetFPS(false)
	assert.True(t, hdr.ShowTitle())
}

func TestDiagnostics_UsageBadge(t *testing.T) {
	d, hdr, _ := newDiagnostics(t, true)
	d.SetFPS(true)
	require.NoError(t, d.SetUsage(true))
	assert.True(t, d.UsageOn())

	entries := hdr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, FPSPriority, entries[0].Priority)
	cpu := entries[1]
	require.Eventually(t, func() bool { return cpu.Label() == "CPU:(25%)" }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "40BF00", cpu.Color())

	require.NoError(t, d.SetUsage(false))
	assert.Len(t, hdr.Entries(), 1)
	assert.False(t, d.UsageOn())
}

func TestDiagnostics_UnsupportedOS(t *testing.T) {
	d, hdr, logs := newDiagnostics(t, false)
	require.NoError(t, d.SetUsage(true))
	d.HWInfo()
	assert.Empty(t, hdr.Entries())
	assert.Equal(t, 1, logs.FilterMessage("hwusage is disabled for this operating system").Len())
	assert.Equal(t, 1, logs.FilterMessage("hwinfo is disabled for this operating system").Len())
}

func TestDiagnostics_InfoCommands(t *testing.T) {
	d, _, logs := newDiagnostics(t, true)
	d.OSInfo()
	d.HWInfo()
	assert.Equal(t, 1, logs.FilterMessage("OS: <color=#ABCDEF>testos 1.0</color>").Len())
	assert.Equal(t, 1, logs.FilterMessage("CPU: <color=#ABCDEF>TestCPU (8 cores)</color>").Len())
	assert.Equal(t, 1, logs.FilterMessage("RAM: <color=#ABCDEF>16384 MB</color>").Len())
}

func TestDiagnostics_Diagnose(t *testing.T) {
	d, hdr, logs := newDiagnostics(t, true)
	require.NoError(t, d.Diagnose(true))
	assert.Len(t, hdr.Entries(), 2)
	assert.Equal(t, 1, logs.FilterMessageSnippet("OS: ").Len())

	require.NoError(t, d.Diagnose(false))
	assert.Empty(t, hdr.Entries())
	assert.Equal(t, 1, logs.FilterMessageSnippet("OS: ").Len())
}

func TestDiagnostics_CommandsDeclared(t *testing.T) {
	d, _, _ := newDiagnostics(t, true)
	var ids []string
	for _, c := range d.ConsoleCommands() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"fps", "hwusage", "osinfo", "hwinfo", "diagnose"}, ids)

	require.NoError(t, d.ConsoleCommands()[0].Run(d, []any{true}))
	assert.True(t, d.FPSOn())
}
