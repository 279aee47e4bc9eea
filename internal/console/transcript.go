package console

import (
	"strings"
	"sync"

	"github.com/cory-johannsen/devconsole/internal/markup"
)

// LogType classifies a transcript entry.
type LogType int

const (
	LogTypeLog LogType = iota
	LogTypeWarning
	LogTypeError
	LogTypeException
	LogTypeAssert
)

func (t LogType) String() string {
	switch t {
	case LogTypeLog:
		return "log"
	case LogTypeWarning:
		return "warning"
	case LogTypeError:
		return "error"
	case LogTypeException:
		return "exception"
	case LogTypeAssert:
		return "assert"
	default:
		return "unknown"
	}
}

// Prefix returns the line prefix written before an entry of this type.
func (t LogType) Prefix() string {
	switch t {
	case LogTypeWarning:
		return "\n> [warning] "
	case LogTypeError:
		return "\n> [error] "
	case LogTypeException:
		return "\n> [exception] "
	case LogTypeAssert:
		return "\n> [assert] "
	default:
		return "\n> "
	}
}

// Transcript is the append-only, markup-bearing console text buffer.
type Transcript struct {
	mu  sync.RWMutex
	buf strings.Builder
}

// AppendLine appends content as one colored entry. The first line carries
// prefix and later lines start on a new line; empty lines are dropped.
//
// Postcondition: Returns false and leaves the buffer unchanged when content is empty.
func (t *Transcript) AppendLine(content, prefix, colorHex string) bool {
	if content == "" {
		return false
	}
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return false
	}
	var sb strings.Builder
	for i, line := range lines {
		if i == 0 {
			sb.WriteString(prefix)
		} else {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
	}

	t.mu.Lock()
	t.buf.WriteString(markup.Color(colorHex, sb.String()))
	t.mu.Unlock()
	return true
}

// Reset empties the buffer.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.buf.Reset()
	t.mu.Unlock()
}

// String returns the full buffer with markup.
func (t *Transcript) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buf.String()
}

// Len returns the buffer length in bytes.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buf.Len()
}
