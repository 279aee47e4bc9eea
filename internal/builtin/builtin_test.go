package builtin

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/devconsole/internal/config"
	"github.com/cory-johannsen/devconsole/internal/console"
	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
	"github.com/cory-johannsen/devconsole/internal/console/header"
	"github.com/cory-johannsen/devconsole/internal/engine"
	"github.com/cory-johannsen/devconsole/internal/observability"
)

type fakeEngine struct {
	quits    int
	reloads  int
	scale    float64
	elapsed  time.Duration
	unscaled time.Duration
}

func (f *fakeEngine) Quit()                       { f.quits++ }
func (f *fakeEngine) ReloadScene()                { f.reloads++ }
func (f *fakeEngine) Time() time.Duration         { return f.elapsed }
func (f *fakeEngine) UnscaledTime() time.Duration { return f.unscaled }
func (f *fakeEngine) TimeScale() float64          { return f.scale }
func (f *fakeEngine) SetTimeScale(s float64)      { f.scale = s }
func (f *fakeEngine) LiveObjects() []any          { return nil }
func (f *fakeEngine) Info() engine.AppInfo {
	return engine.AppInfo{ProductName: "Demo", CompanyName: "Acme", Version: "2.0"}
}

func newModule(t *testing.T) (*Module, *fakeEngine, *header.Header, *observer.ObservedLogs, *command.Registry) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	eng := &fakeEngine{scale: 1, elapsed: 1500 * time.Millisecond, unscaled: 3 * time.Second}
	hdr := header.New(nil)
	m := New(eng, hdr, zap.New(core))
	m.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) }

	codecs := codec.NewRegistry()
	require.NoError(t, codec.RegisterBuiltins(codecs))
	reg := command.NewRegistry(codecs, "FFFFFF", zap.NewNop())
	require.Equal(t, len(m.StaticCommands()), reg.ScanStatic([]command.Module{m}))
	return m, eng, hdr, logs, reg
}

func invoke(t *testing.T, reg *command.Registry, id string, args ...any) {
	t.Helper()
	b, ok := reg.Lookup(id)
	require.True(t, ok, id)
	require.NoError(t, b.Invoke(args))
}

func TestModule_Metadata(t *testing.T) {
	m, _, _, _, reg := newModule(t)
	assert.Equal(t, "builtin", m.Name())
	b, ok := reg.Lookup("log_error")
	require.True(t, ok)
	assert.Equal(t, "Commands", b.Source)
	assert.Equal(t, "builtin", b.Module)
	assert.Equal(t, "static", b.TargetLabel())
}

func TestModule_EngineCommands(t *testing.T) {
	_, eng, _, _, reg := newModule(t)
	invoke(t, reg, "quit")
	invoke(t, reg, "reset")
	invoke(t, reg, "timescale", float32(0.25))
	assert.Equal(t, 1, eng.quits)
	assert.Equal(t, 1, eng.reloads)
	assert.Equal(t, 0.25, eng.scale)
}

func TestModule_InfoCommands(t *testing.T) {
	_, _, _, logs, reg := newModule(t)
	invoke(t, reg, "version")
	invoke(t, reg, "player_info")
	invoke(t, reg, "date")
	invoke(t, reg, "time")

	var got []string
	for _, e := range logs.All() {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{
		"Demo version: 2.0",
		"Company Name: Acme",
		"Product Name: Demo",
		"Version: 2.0",
		"2024-03-09 14:05:06",
		"time: 1.500",
		"unscaled time: 3.000",
		"time scale: 1",
	}, got)
}

func TestModule_LogCommands(t *testing.T) {
	_, _, _, logs, reg := newModule(t)
	invoke(t, reg, "log", "hello")
	invoke(t, reg, "log_warning", "careful")
	invoke(t, reg, "log_error", "traced", true)
	invoke(t, reg, "log_error", "untraced", false)

	all := logs.All()
	require.Len(t, all, 4)
	assert.Equal(t, zapcore.InfoLevel, all[0].Level)
	assert.Equal(t, zapcore.WarnLevel, all[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, all[2].Level)
	assert.Empty(t, all[2].Context)
	assert.Equal(t, observability.NoTraceKey, all[3].Context[0].Key)
}

func TestModule_TimeHeader(t *testing.T) {
	_, _, hdr, _, reg := newModule(t)
	invoke(t, reg, "time_header", true)
	require.Len(t, hdr.Entries(), 1)
	e := hdr.Entries()[0]
	assert.Equal(t, "time: 1.500", e.Label())
	assert.Equal(t, timeHeaderWidth, e.Width)
	invoke(t, reg, "time_header", false)
	assert.True(t, hdr.ShowTitle())
}

func TestModule_LogErrorThroughConsole(t *testing.T) {
	sink := observability.NewSinkCore(zapcore.DebugLevel)
	logger := zap.New(sink, zap.AddStacktrace(zapcore.ErrorLevel))

	codecs := codec.NewRegistry()
	require.NoError(t, codec.RegisterBuiltins(codecs))
	reg := command.NewRegistry(codecs, "FFFFFF", zap.NewNop())
	eng := &fakeEngine{scale: 1}
	m := New(eng, header.New(nil), logger)

	opts := console.NewOptions(config.ConsoleConfig{
		MaxHints:       5,
		WelcomeMessage: "hi",
		Colors: config.ColorsConfig{
			Log: "FFFFFF", Error: "FF0000", Warning: "FFEB04", Exception: "FF0000",
			Assert: "FFEB04", Executable: "4895EF", Parameters: "FFFFFF",
		},
	})
	c, err := console.New(opts, codecs, reg, []command.Module{m}, eng, logger)
	require.NoError(t, err)
	sink.Attach(c)

	logger.Error("early failure", observability.NoTrace())
	assert.True(t, c.IsToggled(), "an error entry opens the console")

	c.Submit(`log_error "quiet" false`)
	assert.Contains(t, c.Content(), "[error] quiet</color>")

	c.Submit(`log_error "loud" true`)
	content := c.Content()
	idx := strings.Index(content, "[error] loud")
	require.GreaterOrEqual(t, idx, 0)
	assert.Contains(t, content[idx:], "builtin_test.go")
}
