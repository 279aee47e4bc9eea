// Package command provides console command declarations, bindings and the
// registry that discovers and validates them.
package command

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
)

var (
	// ErrDuplicateID is returned when an identifier is already bound to a
	// different method.
	ErrDuplicateID = errors.New("command: duplicate identifier")
	// ErrInvalid is returned when a parameter type has no codec rule.
	ErrInvalid = errors.New("command: invalid command")
	// ErrNoTargets is returned when an instance command has nothing to run on.
	ErrNoTargets = errors.New("command: no invocation targets")
)

// FanOut selects which instance targets an invocation reaches.
type FanOut int

const (
	// FanOutFirst invokes only the first registered target.
	FanOutFirst FanOut = iota
	// FanOutAll invokes every registered target in registration order.
	FanOutAll
)

func (f FanOut) String() string {
	switch f {
	case FanOutFirst:
		return "first instance"
	case FanOutAll:
		return "all instances"
	default:
		return "invalid"
	}
}

// Param is one declared command parameter.
type Param struct {
	Name string
	Type codec.Tag
}

// Decl is the metadata attached to a command method. Empty ID defaults to
// the method name.
type Decl struct {
	ID          string
	Description string
	FanOut      FanOut
	Params      []Param
}

// StaticFunc runs a command that has no target object.
type StaticFunc func(args []any) error

// MethodFunc runs a command on one target object.
type MethodFunc func(target any, args []any) error

// StaticCommand is a command declared on a Module.
type StaticCommand struct {
	Decl
	// Method is the declaring function's name.
	Method string
	// Source names the declaring type; defaults to the module name.
	Source string
	Run    StaticFunc
}

// InstanceCommand is a command declared on a live object's type.
type InstanceCommand struct {
	Decl
	// Method is the declaring method's name.
	Method string
	Run    MethodFunc
}

// Module groups static commands, the way a compiled assembly would.
type Module interface {
	Name() string
	StaticCommands() []StaticCommand
}

// Provider is implemented by live objects that expose instance commands.
type Provider interface {
	ConsoleCommands() []InstanceCommand
}

// Binding is a registered, invocable command.
type Binding struct {
	ID          string
	Description string
	// Format is the identifier followed by color-marked parameter names.
	Format string
	Params []Param
	Static bool
	FanOut FanOut
	// Method is the identity of the declaring method.
	Method string
	// Source is the declaring type name.
	Source string
	// Module is the declaring module or package.
	Module string

	static StaticFunc
	method MethodFunc

	mu      sync.RWMutex
	targets []any
}

// Targets returns a snapshot of the instance targets in registration order.
func (b *Binding) Targets() []any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]any(nil), b.targets...)
}

// AddTarget appends an instance target. It may run while the binding is
// being invoked; an invocation in progress keeps its own snapshot.
func (b *Binding) AddTarget(target any) {
	b.mu.Lock()
	b.targets = append(b.targets, target)
	b.mu.Unlock()
}

// Invoke runs the command with already-bound arguments.
//
// A panic inside a target is recovered and reported as an error. In FanOutAll
// mode a failing target does not stop dispatch to the remaining targets.
//
// Postcondition: Returns nil if every reached target succeeded, ErrNoTargets
// for an instance command without targets, or the combined target errors.
func (b *Binding) Invoke(args []any) error {
	if b.Static {
		return b.call(func() error { return b.static(args) })
	}
	targets := b.Targets()
	if len(targets) == 0 {
		return fmt.Errorf("%s: %w", b.ID, ErrNoTargets)
	}
	switch b.FanOut {
	case FanOutAll:
		var errs error
		for _, target := range targets {
			target := target
			errs = multierr.Append(errs, b.call(func() error { return b.method(target, args) }))
		}
		return errs
	default:
		target := targets[0]
		return b.call(func() error { return b.method(target, args) })
	}
}

func (b *Binding) call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %q panicked: %v", b.ID, r)
		}
	}()
	return fn()
}

// HasParams reports whether the command takes any argument.
func (b *Binding) HasParams() bool {
	return len(b.Params) > 0
}

// ParamTypesLabel describes the parameter list as "(type) name" pairs, with
// each type wrapped in a color marker; "none" for parameterless commands.
func (b *Binding) ParamTypesLabel(colorHex string) string {
	if len(b.Params) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(b.Params))
	for _, p := range b.Params {
		parts = append(parts, fmt.Sprintf("(<color=#%s>%s</color>) %s", colorHex, p.Type, p.Name))
	}
	return strings.Join(parts, " ")
}

// TargetLabel describes how the command is dispatched.
func (b *Binding) TargetLabel() string {
	if b.Static {
		return "static"
	}
	return b.FanOut.String()
}

func formatFor(id string, params []Param, colorHex string) string {
	var sb strings.Builder
	sb.WriteString(id)
	for _, p := range params {
		fmt.Fprintf(&sb, " <color=#%s>%s</color>", colorHex, p.Name)
	}
	return sb.String()
}

func idFor(d Decl, method string) string {
	if d.ID != "" {
		return d.ID
	}
	return method
}
