package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/devconsole/internal/alias"
	"github.com/cory-johannsen/devconsole/internal/builtin"
	"github.com/cory-johannsen/devconsole/internal/config"
	"github.com/cory-johannsen/devconsole/internal/console"
	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
	"github.com/cory-johannsen/devconsole/internal/console/header"
	"github.com/cory-johannsen/devconsole/internal/diagnostics"
	"github.com/cory-johannsen/devconsole/internal/engine"
	"github.com/cory-johannsen/devconsole/internal/observability"
	"github.com/cory-johannsen/devconsole/internal/scripting"
)

// demoActors names the actors of the demo scene.
var demoActors = []string{"alpha", "bravo", "charlie"}

// App holds the wired application graph.
type App struct {
	Config      config.Config
	Logger      *zap.Logger
	Console     *console.Console
	Header      *header.Header
	Loop        *engine.Loop
	Diagnostics *diagnostics.Diagnostics
	Scripts     *scripting.Runner
}

// ProviderSet builds an App from a validated Config.
var ProviderSet = wire.NewSet(
	provideSinkCore,
	provideLogger,
	provideCodecs,
	provideCommandRegistry,
	provideHeader,
	provideLoop,
	provideDiagnostics,
	provideBuiltins,
	provideScripts,
	provideAliases,
	provideModules,
	provideConsole,
	wire.Struct(new(App), "*"),
)

func provideSinkCore(cfg config.Config) (*observability.SinkCore, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	return observability.NewSinkCore(level), nil
}

func provideLogger(cfg config.Config, sink *observability.SinkCore) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging, sink)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideCodecs() (*codec.Registry, error) {
	r := codec.NewRegistry()
	if err := codec.RegisterBuiltins(r); err != nil {
		return nil, fmt.Errorf("registering parameter types: %w", err)
	}
	return r, nil
}

func provideCommandRegistry(cfg config.Config, codecs *codec.Registry, logger *zap.Logger) *command.Registry {
	return command.NewRegistry(codecs, cfg.Console.Colors.Parameters, logger.Named("commands"))
}

func provideHeader() *header.Header {
	return header.New(nil)
}

func provideLoop(cfg config.Config, logger *zap.Logger) *engine.Loop {
	l := logger.Named("engine")
	return engine.NewLoop(cfg.Engine, engine.DemoScene(l, demoActors...), l)
}

func provideDiagnostics(cfg config.Config, loop *engine.Loop, hdr *header.Header, logger *zap.Logger) (*diagnostics.Diagnostics, func()) {
	l := logger.Named("diagnostics")
	sampler := diagnostics.NewCPUSampler(
		cfg.Diagnostics.SampleInterval,
		cfg.Diagnostics.ShutdownTimeout,
		diagnostics.SystemCPUPercent,
		l,
	)
	d := diagnostics.New(
		diagnostics.Options{Supported: diagnostics.Supported(), Color: cfg.Diagnostics.FPSColor},
		diagnostics.NewFrameCounter(cfg.Diagnostics.FrameWindow),
		sampler,
		hdr,
		diagnostics.HostProbe{},
		l,
	)
	loop.OnFrame(d.RecordFrame)
	loop.AddPersistent(d)
	return d, func() {
		if err := d.Close(); err != nil {
			l.Warn("stopping cpu sampler", zap.Error(err))
		}
	}
}

func provideBuiltins(loop *engine.Loop, hdr *header.Header, logger *zap.Logger) *builtin.Module {
	return builtin.New(loop, hdr, logger.Named("builtin"))
}

func provideScripts(cfg config.Config, logger *zap.Logger) (*scripting.Runner, func(), error) {
	r := scripting.NewRunner(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit, logger.Named("lua"))
	if err := r.Preload(filepath.Join(cfg.Scripting.Dir, "autoload")); err != nil {
		r.Close()
		return nil, nil, err
	}
	return r, r.Close, nil
}

func provideAliases(cfg config.Config) (*alias.Module, error) {
	f, err := alias.Load(cfg.Console.AliasFile)
	if err != nil {
		return nil, err
	}
	return alias.NewModule(f), nil
}

func provideModules(b *builtin.Module, s *scripting.Runner, a *alias.Module) []command.Module {
	return []command.Module{b, s, a}
}

// provideConsole creates the console and connects every collaborator that
// reaches back into it. diag is taken so that it is already a live object of
// loop when the console first scans.
func provideConsole(
	cfg config.Config,
	codecs *codec.Registry,
	commands *command.Registry,
	modules []command.Module,
	loop *engine.Loop,
	diag *diagnostics.Diagnostics,
	sink *observability.SinkCore,
	scripts *scripting.Runner,
	aliases *alias.Module,
	logger *zap.Logger,
) (*console.Console, func(), error) {
	c, err := console.New(console.NewOptions(cfg.Console), codecs, commands, modules, loop, logger.Named("console"))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("console created",
		zap.Int("live_objects", len(loop.LiveObjects())),
		zap.Bool("diagnostics", diag != nil),
	)
	sink.Attach(c)
	scripts.Execute = c.Execute
	aliases.Execute = c.Execute
	loop.OnSceneLoaded(c.NewScene)
	if cfg.Console.StartOpen {
		c.Toggle(true)
	}
	return c, func() { sink.Attach(nil) }, nil
}
