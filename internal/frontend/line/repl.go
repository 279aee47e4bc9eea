package line

import (
	"errors"
	"io"
	"sync"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/console"
)

// Prompt is shown before every input line.
const Prompt = "> "

// REPL reads lines from the terminal and submits them to the console.
type REPL struct {
	console *console.Console
	out     io.Writer
	logger  *zap.Logger
	printer *Printer

	mu    sync.Mutex
	state *liner.State
}

// NewREPL creates a REPL writing transcript updates to out.
//
// Precondition: c, out and logger must be non-nil.
func NewREPL(c *console.Console, out io.Writer, logger *zap.Logger) *REPL {
	return &REPL{
		console: c,
		out:     out,
		logger:  logger,
		printer: NewPrinter(c, ANSI),
	}
}

// Start opens the console and runs the prompt loop until EOF or ctrl+c.
func (r *REPL) Start() error {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetTabCompletionStyle(liner.TabPrints)
	state.SetCompleter(r.Complete)
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	defer r.Stop()

	r.console.Toggle(true)
	for {
		if err := r.printer.Flush(r.out); err != nil {
			return err
		}
		input, err := state.Prompt(Prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if input != "" {
			state.AppendHistory(input)
		}
		r.console.Submit(input)
	}
}

// Stop restores the terminal. It is safe to call more than once.
func (r *REPL) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return
	}
	if err := r.state.Close(); err != nil {
		r.logger.Debug("closing terminal", zap.Error(err))
	}
	r.state = nil
}

// Complete returns completions for partial: the accepted first hint
// followed by the identifiers of the remaining hints.
func (r *REPL) Complete(partial string) []string {
	hints := r.console.GenerateHints(partial)
	first, ok := r.console.AcceptHint()
	if !ok {
		return nil
	}
	out := []string{first}
	for _, h := range hints[1:] {
		if b, found := r.console.Commands().LookupFormat(h); found {
			out = append(out, b.ID)
		}
	}
	return out
}
