package observability

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys recognized by SinkCore.
const (
	NoTraceKey  = "no_trace"
	SkipSinkKey = "skip_sink"
)

// SinkEntry is a log entry as seen by a LogSink.
type SinkEntry struct {
	Level   zapcore.Level
	Message string
	Stack   string
	// NoTrace reports that the entry asked for its stack trace to be hidden.
	NoTrace bool
}

// LogSink receives mirrored log entries.
type LogSink interface {
	HandleLog(SinkEntry)
}

// NoTrace returns a field that hides the stack trace of an entry in the sink.
func NoTrace() zap.Field {
	return zap.Bool(NoTraceKey, true)
}

// SkipSink returns a field that keeps an entry out of the sink. It marks
// entries whose text already reached the transcript directly.
func SkipSink() zap.Field {
	return zap.Bool(SkipSinkKey, true)
}

type sinkRef struct {
	sink LogSink
}

// SinkCore is a zapcore.Core that forwards entries to a LogSink attached
// after the logger is built. Entries written before Attach are dropped.
type SinkCore struct {
	zapcore.LevelEnabler
	ref     *atomic.Pointer[sinkRef]
	noTrace bool
	skip    bool
}

// NewSinkCore creates a SinkCore with no sink attached.
//
// Precondition: enab must be non-nil.
// Postcondition: Returns a core that drops entries until Attach is called.
func NewSinkCore(enab zapcore.LevelEnabler) *SinkCore {
	return &SinkCore{
		LevelEnabler: enab,
		ref:          &atomic.Pointer[sinkRef]{},
	}
}

// Attach routes entries to sink; nil detaches.
func (c *SinkCore) Attach(sink LogSink) {
	if sink == nil {
		c.ref.Store(nil)
		return
	}
	c.ref.Store(&sinkRef{sink: sink})
}

// With implements zapcore.Core.
func (c *SinkCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.noTrace, clone.skip = scan(fields, clone.noTrace, clone.skip)
	return &clone
}

// Check implements zapcore.Core.
func (c *SinkCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write implements zapcore.Core.
func (c *SinkCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	noTrace, skip := scan(fields, c.noTrace, c.skip)
	if skip {
		return nil
	}
	ref := c.ref.Load()
	if ref == nil {
		return nil
	}
	ref.sink.HandleLog(SinkEntry{
		Level:   ent.Level,
		Message: ent.Message,
		Stack:   ent.Stack,
		NoTrace: noTrace,
	})
	return nil
}

// Sync implements zapcore.Core.
func (c *SinkCore) Sync() error { return nil }

func scan(fields []zapcore.Field, noTrace, skip bool) (bool, bool) {
	for _, f := range fields {
		if f.Type != zapcore.BoolType || f.Integer != 1 {
			continue
		}
		switch f.Key {
		case NoTraceKey:
			noTrace = true
		case SkipSinkKey:
			skip = true
		}
	}
	return noTrace, skip
}
