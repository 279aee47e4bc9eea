package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
)

var (
	// ErrNested is returned when a script tries to start another script.
	ErrNested = errors.New("scripting: nested script execution is not supported")
	// ErrBadScriptName is returned when a script name would leave the script directory.
	ErrBadScriptName = errors.New("scripting: invalid script name")
)

// Runner owns one long-lived sandboxed LState. Globals defined by one run
// stay visible to later runs.
//
// Runner is safe for concurrent use; runs are serialized. A run started
// while the active script is dispatching a line through console.run fails
// with ErrNested instead of waiting on itself.
type Runner struct {
	dir    string
	limit  int
	logger *zap.Logger

	mu          sync.Mutex
	L           *lua.LState
	dispatching atomic.Bool

	// Execute dispatches a console line. Injected after construction; nil
	// makes console.run report an error to the script.
	Execute func(line string) error
}

// NewRunner creates a Runner reading script files from dir.
//
// Precondition: logger must be non-nil. instLimit <= 0 selects DefaultInstructionLimit.
// Postcondition: The console global is defined in the state.
func NewRunner(dir string, instLimit int, logger *zap.Logger) *Runner {
	if logger == nil {
		panic("scripting.NewRunner: logger must not be nil")
	}
	r := &Runner{
		dir:    dir,
		limit:  instLimit,
		logger: logger,
		L:      NewSandboxedState(),
	}
	r.registerAPI(r.L)
	return r
}

// Name returns the command module name.
func (r *Runner) Name() string { return "scripting" }

// StaticCommands exposes lua and exec.
func (r *Runner) StaticCommands() []command.StaticCommand {
	return []command.StaticCommand{
		{
			Decl: command.Decl{
				ID:          "lua",
				Description: "runs a Lua chunk",
				Params:      []command.Param{{Name: "chunk", Type: codec.TagString}},
			},
			Method: "Lua",
			Source: "Runner",
			Run: func(args []any) error {
				return r.Run(args[0].(string))
			},
		},
		{
			Decl: command.Decl{
				ID:          "exec",
				Description: "runs a script from the scripts directory",
				Params:      []command.Param{{Name: "name", Type: codec.TagString}},
			},
			Method: "Exec",
			Source: "Runner",
			Run: func(args []any) error {
				return r.RunFile(args[0].(string))
			},
		},
	}
}

// Run executes chunk under the instruction limit.
//
// Postcondition: Returns nil on success, ErrNested when called from a
// running script, or the wrapped Lua error.
func (r *Runner) Run(chunk string) error {
	return r.run("chunk", func(L *lua.LState) error { return L.DoString(chunk) })
}

// RunFile executes <dir>/<name>.lua. The .lua extension is optional; name
// must stay inside the script directory.
func (r *Runner) RunFile(name string) error {
	path, err := r.scriptPath(name)
	if err != nil {
		return err
	}
	return r.run(name, func(L *lua.LState) error { return L.DoFile(path) })
}

// Preload runs every *.lua file directly under dir in lexicographic order.
// A missing directory is not an error.
func (r *Runner) Preload(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, path := range files {
		if err := r.run(path, func(L *lua.LState) error { return L.DoFile(path) }); err != nil {
			return err
		}
	}
	r.logger.Debug("scripts preloaded", zap.String("dir", dir), zap.Int("files", len(files)))
	return nil
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.L.Close()
}

func (r *Runner) run(what string, fn func(L *lua.LState) error) error {
	if r.dispatching.Load() {
		return ErrNested
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := withBudget(r.L, r.limit, func() error { return fn(r.L) }); err != nil {
		return fmt.Errorf("scripting: running %s: %w", what, err)
	}
	return nil
}

func (r *Runner) scriptPath(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrBadScriptName, name)
	}
	if filepath.Ext(name) != ".lua" {
		name += ".lua"
	}
	return filepath.Join(r.dir, name), nil
}
