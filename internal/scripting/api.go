package scripting

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerAPI defines the console global:
//
//	console.run(line)  -> true | false, message
//	console.log(msg)
//	console.warn(msg)
//	console.error(msg)
//
// print is replaced so that script output reaches the logger instead of
// stdout.
func (r *Runner) registerAPI(L *lua.LState) {
	tbl := L.NewTable()
	L.SetField(tbl, "run", L.NewFunction(r.luaRun))
	L.SetField(tbl, "log", L.NewFunction(r.luaLogger(func(msg string) { r.logger.Info(msg) })))
	L.SetField(tbl, "warn", L.NewFunction(r.luaLogger(func(msg string) { r.logger.Warn(msg) })))
	L.SetField(tbl, "error", L.NewFunction(r.luaLogger(func(msg string) { r.logger.Error(msg) })))
	L.SetGlobal("console", tbl)
	L.SetGlobal("print", L.NewFunction(r.luaPrint))
}

func (r *Runner) luaRun(L *lua.LState) int {
	line := L.CheckString(1)
	if r.Execute == nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString("console dispatch is not available"))
		return 2
	}
	r.dispatching.Store(true)
	err := r.Execute(line)
	r.dispatching.Store(false)
	if err != nil {
		r.logger.Debug("script command failed", zap.String("line", line), zap.Error(err))
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (r *Runner) luaLogger(write func(msg string)) lua.LGFunction {
	return func(L *lua.LState) int {
		write(L.CheckString(1))
		return 0
	}
}

func (r *Runner) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	r.logger.Info(strings.Join(parts, "\t"))
	return 0
}
