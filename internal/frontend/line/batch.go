package line

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
)

// Executor dispatches one console line.
type Executor interface {
	Toggle(open bool)
	Execute(line string) error
	Content() string
}

// RunBatch opens the console and executes every line of r in order. Blank
// lines and lines starting with '#' are skipped. The transcript produced by
// the run is written to out through render.
//
// Postcondition: Returns nil when every line succeeded, otherwise the
// combined per-line errors. A read failure is returned on its own.
func RunBatch(r io.Reader, c Executor, out io.Writer, render Render) error {
	printer := NewPrinter(c, render)
	printer.Skip()
	c.Toggle(true)

	var errs error
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if err := c.Execute(text); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", n, err))
		}
		if err := printer.Flush(out); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading batch input: %w", err)
	}
	return errs
}
