// Package builtin provides the static console commands that talk to the
// engine: application lifecycle, logging and clock inspection.
package builtin

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
	"github.com/cory-johannsen/devconsole/internal/console/header"
	"github.com/cory-johannsen/devconsole/internal/engine"
	"github.com/cory-johannsen/devconsole/internal/observability"
)

const (
	timeHeaderPriority = 0
	timeHeaderWidth    = 200
	timeHeaderColor    = "FFFFFF"
)

// Module is the built-in static command module.
type Module struct {
	engine    engine.Engine
	header    *header.Header
	logger    *zap.Logger
	now       func() time.Time
	timeEntry *header.Entry
}

// New creates the built-in module.
//
// Precondition: eng, hdr and logger must be non-nil.
func New(eng engine.Engine, hdr *header.Header, logger *zap.Logger) *Module {
	m := &Module{
		engine: eng,
		header: hdr,
		logger: logger,
		now:    time.Now,
	}
	m.timeEntry = header.NewEntry(
		func() string { return "time: " + seconds(eng.Time()) },
		func() string { return timeHeaderColor },
		timeHeaderPriority, timeHeaderWidth,
	)
	return m
}

// Name returns the module name.
func (m *Module) Name() string { return "builtin" }

// StaticCommands lists the built-in commands.
func (m *Module) StaticCommands() []command.StaticCommand {
	str := func(name string) command.Param { return command.Param{Name: name, Type: codec.TagString} }
	return []command.StaticCommand{
		m.cmd("quit", "closes the application", "Quit", nil, func([]any) error {
			m.engine.Quit()
			return nil
		}),
		m.cmd("reset", "resets current scene", "Reset", nil, func([]any) error {
			m.engine.ReloadScene()
			return nil
		}),
		m.cmd("version", "logs project name and version", "Version", nil, func([]any) error {
			info := m.engine.Info()
			m.logger.Info(fmt.Sprintf("%s version: %s", info.ProductName, info.Version))
			return nil
		}),
		m.cmd("log", "logs", "Log", []command.Param{str("message")}, func(args []any) error {
			m.logger.Info(args[0].(string))
			return nil
		}),
		m.cmd("log_error", "logs an error, optionally without stack trace", "LogError",
			[]command.Param{str("message"), {Name: "trace", Type: codec.TagBool}},
			func(args []any) error {
				if args[1].(bool) {
					m.logger.Error(args[0].(string))
				} else {
					m.logger.Error(args[0].(string), observability.NoTrace())
				}
				return nil
			}),
		m.cmd("log_warning", "logs warning", "LogWarning", []command.Param{str("message")}, func(args []any) error {
			m.logger.Warn(args[0].(string))
			return nil
		}),
		m.cmd("date", "logs current date", "Date", nil, func([]any) error {
			m.logger.Info(m.now().Format(time.DateTime))
			return nil
		}),
		m.cmd("time", "logs engine time", "Time", nil, func([]any) error {
			m.logger.Info("time: " + seconds(m.engine.Time()))
			m.logger.Info("unscaled time: " + seconds(m.engine.UnscaledTime()))
			m.logger.Info(fmt.Sprintf("time scale: %g", m.engine.TimeScale()))
			return nil
		}),
		m.cmd("timescale", "sets time scale", "Timescale",
			[]command.Param{{Name: "value", Type: codec.TagFloat}},
			func(args []any) error {
				m.engine.SetTimeScale(float64(args[0].(float32)))
				return nil
			}),
		m.cmd("time_header", "shows engine time on the header", "TimeHeader",
			[]command.Param{{Name: "on", Type: codec.TagBool}},
			func(args []any) error {
				m.header.Manage(m.timeEntry, args[0].(bool))
				return nil
			}),
		m.cmd("player_info", "logs player information", "PlayerInfo", nil, func([]any) error {
			info := m.engine.Info()
			m.logger.Info("Company Name: " + info.CompanyName)
			m.logger.Info("Product Name: " + info.ProductName)
			m.logger.Info("Version: " + info.Version)
			return nil
		}),
	}
}

func (m *Module) cmd(id, desc, method string, params []command.Param, run command.StaticFunc) command.StaticCommand {
	return command.StaticCommand{
		Decl:   command.Decl{ID: id, Description: desc, Params: params},
		Method: method,
		Source: "Commands",
		Run:    run,
	}
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
