package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"
)

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	for _, name := range []string{"os", "io", "debug", "package"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_DangerousGlobalsNil(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	err := withBudget(L, 0, func() error {
		return L.DoString(`
			assert(math.sqrt(4) == 2.0, "math.sqrt failed")
			assert(string.upper("hello") == "HELLO", "string.upper failed")
			local t = {}
			table.insert(t, 1)
			assert(#t == 1, "table.insert failed")
		`)
	})
	assert.NoError(t, err)
}

func TestWithBudget_LimitExceeded(t *testing.T) {
	L := NewSandboxedState()
	defer L.Close()
	err := withBudget(L, 10, func() error { return L.DoString(`while true do end`) })
	require.Error(t, err)
}

func TestProperty_WithBudget_InfiniteLoopAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		L := NewSandboxedState()
		defer L.Close()
		if err := withBudget(L, limit, func() error { return L.DoString(`while true do end`) }); err == nil {
			t.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
