// Package scripting runs console commands from sandboxed GopherLua chunks
// and script files. It has no dependency on the console package; dispatch
// is injected through Runner.Execute.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit caps the opcodes of one run when no limit is
// configured.
const DefaultInstructionLimit = 100_000

// budget is a context that cancels itself once Done has been polled more
// than its allowance. The VM polls Done once per opcode.
type budget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func newBudget(limit int) *budget {
	ctx, cancel := context.WithCancel(context.Background())
	b := &budget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	return b
}

func (b *budget) Done() <-chan struct{} {
	if b.left.Add(-1) < 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// safeLibs are the only standard libraries opened in a sandboxed state.
var safeLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// unsafeGlobals are removed after the base library is opened.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// NewSandboxedState creates a GopherLua state limited to safeLibs.
//
// Postcondition: The caller owns the state and must Close it. No instruction
// limit is installed; wrap each run in withBudget.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// withBudget runs fn with a fresh allowance of limit opcodes; limit <= 0
// selects DefaultInstructionLimit.
func withBudget(L *lua.LState, limit int, fn func() error) error {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	b := newBudget(limit)
	defer b.cancel()
	L.SetContext(b)
	defer L.RemoveContext()
	return fn()
}
