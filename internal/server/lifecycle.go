// Package server runs the long-lived parts of the process, the engine loop
// and the active front-end, and tears them down together.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component.
type Service interface {
	// Start runs the service until ctx is cancelled, Stop is called, or the
	// service finishes on its own.
	Start(ctx context.Context) error
	// Stop asks a service that does not watch its context to return.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service. StopFn may
// be nil for services that only watch their context.
type FuncService struct {
	StartFn func(ctx context.Context) error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start(ctx context.Context) error { return f.StartFn(ctx) }

// Stop calls StopFn when set.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithSignals replaces the signals that end a run. No signals disables
// signal handling.
func WithSignals(sig ...os.Signal) Option {
	return func(l *Lifecycle) { l.signals = sig }
}

// Lifecycle starts services concurrently and ends the run on the first
// service exit, a signal, or cancellation of the parent context. Services are
// stopped in reverse registration order.
type Lifecycle struct {
	logger  *zap.Logger
	signals []os.Signal

	mu       sync.Mutex
	services []namedService
}

type namedService struct {
	name    string
	service Service
}

type exit struct {
	name   string
	err    error
	uptime time.Duration
}

// NewLifecycle creates a Lifecycle that listens for SIGINT and SIGTERM
// unless overridden.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		logger:  logger,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add registers a named service.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every registered service and blocks until the run ends.
//
// Postcondition: Every service context is cancelled and every Stop has been
// called. Returns the error of the service whose exit ended the run, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()
	if len(services) == 0 {
		return nil
	}

	svcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	if len(l.signals) > 0 {
		signal.Notify(sigCh, l.signals...)
		defer signal.Stop(sigCh)
	}

	exits := make(chan exit, len(services))
	for _, ns := range services {
		go l.start(svcCtx, ns, exits)
	}

	var runErr error
	select {
	case ex := <-exits:
		l.logger.Info("service exited, shutting down",
			zap.String("service", ex.name),
			zap.Duration("uptime", ex.uptime),
		)
		if ex.err != nil {
			runErr = fmt.Errorf("service %s: %w", ex.name, ex.err)
		}
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	cancel()
	for i := len(services) - 1; i >= 0; i-- {
		l.logger.Debug("stopping service", zap.String("service", services[i].name))
		services[i].service.Stop()
	}
	return runErr
}

func (l *Lifecycle) start(ctx context.Context, ns namedService, exits chan<- exit) {
	l.logger.Info("starting service", zap.String("service", ns.name))
	began := time.Now()
	err := ns.service.Start(ctx)
	if err != nil {
		l.logger.Error("service failed", zap.String("service", ns.name), zap.Error(err))
	}
	exits <- exit{name: ns.name, err: err, uptime: time.Since(began)}
}
