// Package engine provides the host platform the console runs inside: a
// headless frame loop with a scene of live objects, a scalable clock and
// application metadata.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/config"
)

// AppInfo describes the running application.
type AppInfo struct {
	ProductName string
	CompanyName string
	Version     string
}

// Engine is the platform surface used by the built-in commands.
type Engine interface {
	Quit()
	ReloadScene()
	Info() AppInfo
	Time() time.Duration
	UnscaledTime() time.Duration
	TimeScale() float64
	SetTimeScale(scale float64)
	LiveObjects() []any
}

// SceneFactory builds the live objects of a fresh scene.
type SceneFactory func() []any

// Loop is a headless Engine that advances one frame per tick.
type Loop struct {
	interval time.Duration
	info     AppInfo
	factory  SceneFactory
	logger   *zap.Logger

	mu         sync.Mutex
	persistent []any
	objects    []any
	scale      float64
	scaled     time.Duration
	unscaled   time.Duration
	frames     []func(delta time.Duration)
	scenes     []func()

	quit     chan struct{}
	quitOnce sync.Once
}

// NewLoop creates a Loop and loads its first scene.
//
// Precondition: cfg.TargetFPS > 0; factory and logger must be non-nil.
// Postcondition: TimeScale() == 1 and LiveObjects() holds the factory's objects.
func NewLoop(cfg config.EngineConfig, factory SceneFactory, logger *zap.Logger) *Loop {
	l := &Loop{
		interval: cfg.FrameInterval(),
		info: AppInfo{
			ProductName: cfg.ProductName,
			CompanyName: cfg.CompanyName,
			Version:     cfg.Version,
		},
		factory: factory,
		logger:  logger,
		scale:   1,
		quit:    make(chan struct{}),
	}
	l.objects = factory()
	return l
}

// OnFrame registers fn to receive the unscaled duration of every frame.
func (l *Loop) OnFrame(fn func(delta time.Duration)) {
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
}

// OnSceneLoaded registers fn to run after every ReloadScene.
func (l *Loop) OnSceneLoaded(fn func()) {
	l.mu.Lock()
	l.scenes = append(l.scenes, fn)
	l.mu.Unlock()
}

// Run ticks frames until ctx is cancelled or Quit is called.
//
// Postcondition: Returns nil after Quit, or ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	last := time.Now()
	l.logger.Info("engine loop started", zap.Duration("frame_interval", l.interval))
	for {
		select {
		case now := <-ticker.C:
			l.Step(now.Sub(last))
			last = now
		case <-l.quit:
			l.logger.Info("engine loop stopped")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Step advances the clocks by one frame of delta and notifies frame listeners.
func (l *Loop) Step(delta time.Duration) {
	l.mu.Lock()
	l.unscaled += delta
	l.scaled += time.Duration(float64(delta) * l.scale)
	listeners := append(([]func(time.Duration))(nil), l.frames...)
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(delta)
	}
}

// Quit stops Run. Calling Quit more than once is safe.
func (l *Loop) Quit() {
	l.quitOnce.Do(func() {
		l.logger.Info("quit requested")
		close(l.quit)
	})
}

// Done is closed once Quit has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.quit
}

// ReloadScene replaces the live objects with a fresh scene and notifies
// scene listeners.
func (l *Loop) ReloadScene() {
	objects := l.factory()
	l.mu.Lock()
	l.objects = objects
	listeners := append([]func(){}, l.scenes...)
	l.mu.Unlock()
	l.logger.Debug("scene reloaded", zap.Int("objects", len(objects)))
	for _, fn := range listeners {
		fn()
	}
}

// Info returns the application metadata.
func (l *Loop) Info() AppInfo {
	return l.info
}

// Time returns the scaled time since the loop was created.
func (l *Loop) Time() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scaled
}

// UnscaledTime returns the real frame time since the loop was created.
func (l *Loop) UnscaledTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unscaled
}

// TimeScale returns the current time scale.
func (l *Loop) TimeScale() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scale
}

// SetTimeScale sets the time scale; negative values are clamped to 0.
func (l *Loop) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	l.mu.Lock()
	l.scale = scale
	l.mu.Unlock()
}

// AddPersistent registers obj as a live object that survives scene reloads.
func (l *Loop) AddPersistent(obj any) {
	l.mu.Lock()
	l.persistent = append(l.persistent, obj)
	l.mu.Unlock()
}

// LiveObjects returns the persistent objects followed by the objects of the
// current scene.
func (l *Loop) LiveObjects() []any {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]any, 0, len(l.persistent)+len(l.objects))
	out = append(out, l.persistent...)
	return append(out, l.objects...)
}
