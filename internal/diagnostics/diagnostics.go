package diagnostics

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
	"github.com/cory-johannsen/devconsole/internal/console/header"
	"github.com/cory-johannsen/devconsole/internal/markup"
)

// Header badge layout.
const (
	FPSPriority = 10
	FPSWidth    = 50
	CPUPriority = 5
	CPUWidth    = 90

	usageLow  = "00FF00"
	usageHigh = "FF0000"
)

// HardwareInfo describes the host machine.
type HardwareInfo struct {
	CPU      string
	Cores    int
	MemoryMB uint64
}

// SystemProbe reads static host information.
type SystemProbe interface {
	OS(ctx context.Context) (string, error)
	Hardware(ctx context.Context) (HardwareInfo, error)
}

// HostProbe implements SystemProbe with gopsutil.
type HostProbe struct{}

// OS returns the platform name and version.
func (HostProbe) OS(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return runtime.GOOS, fmt.Errorf("reading host info: %w", err)
	}
	return fmt.Sprintf("%s %s (%s %s)", info.Platform, info.PlatformVersion, info.OS, info.KernelArch), nil
}

// Hardware returns the CPU model, logical core count and total memory.
func (HostProbe) Hardware(ctx context.Context) (HardwareInfo, error) {
	var hw HardwareInfo
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return hw, fmt.Errorf("reading cpu info: %w", err)
	}
	if len(infos) > 0 {
		hw.CPU = infos[0].ModelName
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return hw, fmt.Errorf("counting cpus: %w", err)
	}
	hw.Cores = cores
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return hw, fmt.Errorf("reading memory info: %w", err)
	}
	hw.MemoryMB = vm.Total / (1024 * 1024)
	return hw, nil
}

// Supported reports whether host probes work on this operating system.
func Supported() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "windows", "freebsd":
		return true
	default:
		return false
	}
}

// Options configures Diagnostics.
type Options struct {
	// Supported disables hwusage and hwinfo when false.
	Supported bool
	// Color highlights values in osinfo and hwinfo output and the FPS badge.
	Color string
}

// Diagnostics exposes the FPS and CPU probes as console commands and header
// badges. Output goes to the logger, which the console mirrors.
type Diagnostics struct {
	opts    Options
	frames  *FrameCounter
	sampler *CPUSampler
	header  *header.Header
	probe   SystemProbe
	logger  *zap.Logger

	fpsEntry *header.Entry
	cpuEntry *header.Entry

	mu      sync.Mutex
	fpsOn   bool
	usageOn bool
}

// New creates Diagnostics with both badges hidden.
//
// Precondition: all collaborators must be non-nil.
func New(opts Options, frames *FrameCounter, sampler *CPUSampler, hdr *header.Header, probe SystemProbe, logger *zap.Logger) *Diagnostics {
	d := &Diagnostics{
		opts:    opts,
		frames:  frames,
		sampler: sampler,
		header:  hdr,
		probe:   probe,
		logger:  logger,
	}
	d.fpsEntry = header.NewEntry(
		frames.Formatted,
		func() string { return opts.Color },
		FPSPriority, FPSWidth,
	)
	d.cpuEntry = header.NewEntry(
		d.cpuLabel,
		d.cpuColor,
		CPUPriority, CPUWidth,
	)
	return d
}

// ConsoleCommands exposes the diagnostics commands.
func (d *Diagnostics) ConsoleCommands() []command.InstanceCommand {
	on := []command.Param{{Name: "on", Type: codec.TagBool}}
	return []command.InstanceCommand{
		{
			Decl:   command.Decl{ID: "fps", Description: "toggles fps counter", Params: on},
			Method: "FPS",
			Run: diagMethod(func(d *Diagnostics, args []any) error {
				d.SetFPS(args[0].(bool))
				return nil
			}),
		},
		{
			Decl:   command.Decl{ID: "hwusage", Description: "toggles hardware usage counter", Params: on},
			Method: "HWUsage",
			Run: diagMethod(func(d *Diagnostics, args []any) error {
				return d.SetUsage(args[0].(bool))
			}),
		},
		{
			Decl:   command.Decl{ID: "osinfo", Description: "logs operating system information"},
			Method: "OSInfo",
			Run: diagMethod(func(d *Diagnostics, _ []any) error {
				d.OSInfo()
				return nil
			}),
		},
		{
			Decl:   command.Decl{ID: "hwinfo", Description: "logs hardware information"},
			Method: "HWInfo",
			Run: diagMethod(func(d *Diagnostics, _ []any) error {
				d.HWInfo()
				return nil
			}),
		},
		{
			Decl:   command.Decl{ID: "diagnose", Description: "toggles fps, osinfo, hwinfo and hwusage", Params: on},
			Method: "Diagnose",
			Run: diagMethod(func(d *Diagnostics, args []any) error {
				return d.Diagnose(args[0].(bool))
			}),
		},
	}
}

func diagMethod(fn func(d *Diagnostics, args []any) error) command.MethodFunc {
	return func(target any, args []any) error {
		return fn(target.(*Diagnostics), args)
	}
}

// SetFPS shows or hides the FPS badge.
func (d *Diagnostics) SetFPS(on bool) {
	d.mu.Lock()
	d.fpsOn = on
	d.mu.Unlock()
	d.header.Manage(d.fpsEntry, on)
}

// SetUsage starts or stops CPU sampling and shows or hides its badge.
func (d *Diagnostics) SetUsage(on bool) error {
	if !d.opts.Supported {
		d.logger.Info("hwusage is disabled for this operating system")
		return nil
	}
	if on {
		d.sampler.Start(context.Background())
	} else if err := d.sampler.Stop(); err != nil {
		return err
	}
	d.mu.Lock()
	d.usageOn = on
	d.mu.Unlock()
	d.header.Manage(d.cpuEntry, on)
	return nil
}

// OSInfo logs the operating system description.
func (d *Diagnostics) OSInfo() {
	name, err := d.probe.OS(context.Background())
	if err != nil {
		d.logger.Debug("os probe failed", zap.Error(err))
	}
	d.logger.Info("OS: " + markup.Color(d.opts.Color, name))
}

// HWInfo logs the hardware description.
func (d *Diagnostics) HWInfo() {
	if !d.opts.Supported {
		d.logger.Info("hwinfo is disabled for this operating system")
		return
	}
	hw, err := d.probe.Hardware(context.Background())
	if err != nil {
		d.logger.Warn("hardware probe failed", zap.Error(err))
		return
	}
	d.logger.Info("CPU: " + markup.Colorf(d.opts.Color, "%s (%d cores)", hw.CPU, hw.Cores))
	d.logger.Info("RAM: " + markup.Colorf(d.opts.Color, "%d MB", hw.MemoryMB))
}

// Diagnose toggles everything at once, logging host information when on.
func (d *Diagnostics) Diagnose(on bool) error {
	if on {
		d.OSInfo()
		d.HWInfo()
	}
	d.SetFPS(on)
	return d.SetUsage(on)
}

// FPSOn reports whether the FPS badge is shown.
func (d *Diagnostics) FPSOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fpsOn
}

// UsageOn reports whether CPU sampling is active.
func (d *Diagnostics) UsageOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.usageOn
}

// RecordFrame feeds one frame duration to the FPS counter.
func (d *Diagnostics) RecordFrame(delta time.Duration) {
	d.frames.Record(delta)
}

// Close stops the CPU sampler.
func (d *Diagnostics) Close() error {
	return d.sampler.Stop()
}

func (d *Diagnostics) cpuLabel() string {
	return fmt.Sprintf("CPU:(%d%%)", int(d.sampler.Percent()))
}

func (d *Diagnostics) cpuColor() string {
	return markup.Gradient(usageLow, usageHigh, d.sampler.Percent()/100)
}
