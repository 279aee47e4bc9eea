package binder

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
)

func codecs(t testing.TB) *codec.Registry {
	t.Helper()
	r := codec.NewRegistry()
	require.NoError(t, codec.RegisterBuiltins(r))
	return r
}

func params(tags ...codec.Tag) []command.Param {
	out := make([]command.Param, len(tags))
	for i, tag := range tags {
		out[i] = command.Param{Name: "p" + strconv.Itoa(i), Type: tag}
	}
	return out
}

func TestBind_LogErrorArguments(t *testing.T) {
	values, err := Bind(strings.Fields(`"boom" 1`), params(codec.TagString, codec.TagBool), codecs(t))
	require.NoError(t, err)
	assert.Equal(t, []any{"boom", true}, values)
}

func TestBind_MissingSecondParameter(t *testing.T) {
	values, err := Bind([]string{`"boom"`}, params(codec.TagString, codec.TagBool), codecs(t))
	require.Error(t, err)
	assert.Nil(t, values)

	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	var pe *ParamError
	require.True(t, errors.As(errs[0], &pe))
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, codec.TagBool, pe.Type)
	assert.Equal(t, "", pe.Raw)
	assert.Equal(t, "expected bool parameter input in ()", pe.Error())
}

func TestBind_NoArgumentsFailsEveryParameter(t *testing.T) {
	_, err := Bind(nil, params(codec.TagFloat, codec.TagFloat), codecs(t))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestBind_ParameterlessIgnoresText(t *testing.T) {
	values, err := Bind([]string{"anything", "at", "all"}, nil, codecs(t))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestBind_ConversionErrorNamesRawToken(t *testing.T) {
	_, err := Bind([]string{"300"}, params(codec.TagByte), codecs(t))
	require.Error(t, err)
	var pe *ParamError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "300", pe.Raw)
	var ce *codec.ConversionError
	assert.True(t, errors.As(err, &ce))
}

func TestBind_QuotedStringWithSpaces(t *testing.T) {
	values, err := Bind(strings.Split(`"hello big world" 3`, " "), params(codec.TagString, codec.TagInt), codecs(t))
	require.NoError(t, err)
	assert.Equal(t, []any{"hello big world", int32(3)}, values)
}

func TestBind_Floats(t *testing.T) {
	values, err := Bind([]string{"1.5", "-2e1"}, params(codec.TagFloat, codec.TagDouble), codecs(t))
	require.NoError(t, err)
	assert.Equal(t, []any{float32(1.5), -20.0}, values)
}

func TestGroup_StopsAtFirstUnmatchedParameter(t *testing.T) {
	groups := Group([]string{"abc", "1"}, params(codec.TagChar, codec.TagInt), codecs(t))
	assert.Empty(t, groups)
}

// A whitespace-capable parameter typed after a compact one is removed out of
// order, which leaves the compact parameter's positional token empty.
func TestGroup_SearchAndRemoveMisbindsOutOfOrderInput(t *testing.T) {
	r := codecs(t)
	p := params(codec.TagString, codec.TagInt)

	groups := Group([]string{"2", `"a"`}, p, r)
	assert.Equal(t, []string{`"a"`, ""}, groups)

	_, err := Bind([]string{"2", `"a"`}, p, r)
	var pe *ParamError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Index)
}

// A quoted space is split positionally because char does not allow
// whitespace, so the capture is a lone quote.
func TestGroup_CharSpaceIsSplitPositionally(t *testing.T) {
	r := codecs(t)
	groups := Group(strings.Split(`' ' 1`, " "), params(codec.TagChar, codec.TagInt), r)
	require.NotEmpty(t, groups)
	assert.Equal(t, "'", groups[0])
}

func TestPropertyBind_IntPairs(t *testing.T) {
	r := codecs(t)
	p := params(codec.TagInt, codec.TagInt)
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int32().Draw(t, "a")
		b := rapid.Int32().Draw(t, "b")
		args := []string{strconv.FormatInt(int64(a), 10), strconv.FormatInt(int64(b), 10)}
		values, err := Bind(args, p, r)
		if err != nil {
			t.Fatalf("bind %v: %v", args, err)
		}
		if values[0] != a || values[1] != b {
			t.Fatalf("bind %v -> %v", args, values)
		}
	})
}

func TestPropertyBind_StringThenInt(t *testing.T) {
	r := codecs(t)
	p := params(codec.TagString, codec.TagInt)
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[a-z][a-z ]{0,16}[a-z]`).Draw(t, "s")
		n := rapid.Int32().Draw(t, "n")
		line := `"` + s + `" ` + strconv.FormatInt(int64(n), 10)
		values, err := Bind(strings.Split(line, " "), p, r)
		if err != nil {
			t.Fatalf("bind %q: %v", line, err)
		}
		if values[0] != s || values[1] != n {
			t.Fatalf("bind %q -> %v", line, values)
		}
	})
}
