// Package line drives the console from a line-oriented terminal: an
// interactive liner REPL and a non-interactive batch runner.
package line

import (
	"io"
	"strings"
	"sync"

	"github.com/cory-johannsen/devconsole/internal/markup"
)

// Render converts transcript markup into terminal text.
type Render func(content string) string

// ANSI renders markup as 24-bit color escapes.
func ANSI(content string) string { return markup.ToANSI(content) }

// Plain removes markup.
func Plain(content string) string { return markup.Strip(content) }

// ContentSource exposes the transcript text.
type ContentSource interface {
	Content() string
}

// Printer writes the part of a transcript not yet written. A transcript that
// shrank was cleared and is written again in full.
type Printer struct {
	src    ContentSource
	render Render

	mu      sync.Mutex
	printed int
}

// NewPrinter creates a Printer that has written nothing yet.
func NewPrinter(src ContentSource, render Render) *Printer {
	return &Printer{src: src, render: render}
}

// Skip marks the current transcript as already written.
func (p *Printer) Skip() {
	p.mu.Lock()
	p.printed = len(p.src.Content())
	p.mu.Unlock()
}

// Flush writes the unwritten tail of the transcript to w.
func (p *Printer) Flush(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	content := p.src.Content()
	if len(content) < p.printed {
		p.printed = 0
	}
	delta := content[p.printed:]
	p.printed = len(content)
	if delta == "" {
		return nil
	}
	text := strings.TrimPrefix(p.render(delta), "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}
