package line

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/config"
	"github.com/cory-johannsen/devconsole/internal/console"
	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
)

type staticContent struct{ text string }

func (s *staticContent) Content() string { return s.text }

func TestPrinter_WritesOnlyNewContent(t *testing.T) {
	src := &staticContent{text: "<color=#FFFFFF>Welcome</color>"}
	p := NewPrinter(src, Plain)
	var out bytes.Buffer

	require.NoError(t, p.Flush(&out))
	assert.Equal(t, "Welcome\n", out.String())

	out.Reset()
	require.NoError(t, p.Flush(&out))
	assert.Empty(t, out.String())

	src.text += "<color=#FFFFFF>\n> one</color>"
	require.NoError(t, p.Flush(&out))
	assert.Equal(t, "> one\n", out.String())
}

func TestPrinter_RewritesAfterClear(t *testing.T) {
	src := &staticContent{text: "<color=#FFFFFF>a long transcript</color>"}
	p := NewPrinter(src, Plain)
	p.Skip()

	src.text = "<color=#FFFFFF>hi</color>"
	var out bytes.Buffer
	require.NoError(t, p.Flush(&out))
	assert.Equal(t, "hi\n", out.String())
}

type shout struct{}

func (shout) Name() string { return "shout" }

func (shout) StaticCommands() []command.StaticCommand {
	return []command.StaticCommand{
		{
			Decl:   command.Decl{ID: "fail", Description: "always fails"},
			Method: "Fail",
			Run:    func([]any) error { return errors.New("failed on purpose") },
		},
		{
			Decl:   command.Decl{ID: "count", Description: "takes a number", Params: []command.Param{{Name: "n", Type: codec.TagInt}}},
			Method: "Count",
			Run:    func([]any) error { return nil },
		},
		{
			Decl:   command.Decl{ID: "counter", Description: "no params"},
			Method: "Counter",
			Run:    func([]any) error { return nil },
		},
	}
}

func newConsole(t *testing.T) *console.Console {
	t.Helper()
	codecs := codec.NewRegistry()
	require.NoError(t, codec.RegisterBuiltins(codecs))
	reg := command.NewRegistry(codecs, "FFFFFF", zap.NewNop())
	opts := console.NewOptions(config.ConsoleConfig{
		MaxHints:       5,
		WelcomeMessage: "Welcome",
		Colors: config.ColorsConfig{
			Log: "FFFFFF", Error: "FF0000", Warning: "FFEB04", Exception: "FF0000",
			Assert: "FFEB04", Executable: "4895EF", Parameters: "FFFFFF",
		},
	})
	c, err := console.New(opts, codecs, reg, []command.Module{shout{}}, nil, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestRunBatch(t *testing.T) {
	c := newConsole(t)
	script := strings.Join([]string{
		"# warm up",
		"",
		"count 3",
		"just text",
		"fail",
		"count nope",
	}, "\n")
	var out bytes.Buffer

	err := RunBatch(strings.NewReader(script), c, &out, Plain)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "line 5")
	assert.Contains(t, errs[1].Error(), "line 6")

	text := out.String()
	assert.NotContains(t, text, "Welcome")
	assert.Contains(t, text, "> count 3")
	assert.Contains(t, text, "> just text")
	assert.Contains(t, text, "> [exception] failed on purpose")
	assert.Contains(t, text, "> [error] expected int parameter input in (nope)")
	assert.True(t, c.IsToggled())
	assert.Empty(t, c.History())
}

func TestRunBatch_AllSucceed(t *testing.T) {
	c := newConsole(t)
	var out bytes.Buffer
	require.NoError(t, RunBatch(strings.NewReader("count 1\ncount 2\n"), c, &out, Plain))
	assert.Equal(t, "> count 1\n> count 2\n", out.String())
}

func TestREPL_Complete(t *testing.T) {
	c := newConsole(t)
	c.Toggle(true)
	r := NewREPL(c, &bytes.Buffer{}, zap.NewNop())

	assert.Equal(t, []string{"count ", "counter"}, r.Complete("coun"))
	assert.Equal(t, []string{"fail"}, r.Complete("fa"))
	assert.Nil(t, r.Complete("zzz"))
	r.Stop()
}
