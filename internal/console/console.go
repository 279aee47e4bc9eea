// Package console implements the developer console session: toggle state,
// transcript, hints, input history and command dispatch.
package console

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/devconsole/internal/config"
	"github.com/cory-johannsen/devconsole/internal/console/binder"
	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
	"github.com/cory-johannsen/devconsole/internal/observability"
)

const welcomeColor = "FFFFFF"

// Options configures a Console.
type Options struct {
	MaxHints       int
	WelcomeMessage string
	Colors         config.ColorsConfig
}

// NewOptions builds Options from the console configuration section.
func NewOptions(cfg config.ConsoleConfig) Options {
	return Options{
		MaxHints:       cfg.MaxHints,
		WelcomeMessage: cfg.WelcomeMessage,
		Colors:         cfg.Colors,
	}
}

// SceneSource lists the live objects scanned for instance commands.
type SceneSource interface {
	LiveObjects() []any
}

// Console owns the session state and routes submitted lines to commands.
//
// The console starts disabled. The first Toggle performs the global setup
// (sealing the codec registry and scanning static commands) and the session
// setup (scanning instance commands). Each runs once; NewScene re-arms only
// the session setup.
type Console struct {
	opts       Options
	codecs     *codec.Registry
	commands   *command.Registry
	modules    []command.Module
	scene      SceneSource
	logger     *zap.Logger
	transcript Transcript

	mu           sync.Mutex
	toggled      bool
	globalReady  bool
	sessionReady bool
	sessionID    uuid.UUID
	hints        []string
	history      []string
	cursor       int
	observers    []Observer

	logMu     sync.Mutex
	logging   bool
	notifying bool
	pending   []queuedLog
}

// queuedLog is an entry that arrived while another was being appended.
// reentrant marks entries raised while observers were being notified of a
// log append.
type queuedLog struct {
	entry     observability.SinkEntry
	reentrant bool
}

// maxLogRounds bounds the drain rounds that carry reentrant entries, so an
// observer that logs on every change cannot loop forever.
const maxLogRounds = 8

// New creates a Console and writes the welcome message.
//
// Precondition: codecs must hold the scalar rules and must not be sealed;
// commands must validate against codecs; logger must be non-nil. scene may be nil.
// Postcondition: Returns a disabled Console, or an error if the command
// reference rule cannot be registered.
func New(opts Options, codecs *codec.Registry, commands *command.Registry, modules []command.Module, scene SceneSource, logger *zap.Logger) (*Console, error) {
	if opts.MaxHints < 1 {
		opts.MaxHints = 1
	}
	c := &Console{
		opts:     opts,
		codecs:   codecs,
		commands: commands,
		modules:  modules,
		scene:    scene,
		logger:   logger,
	}
	if err := codecs.Register(codec.TagCommand, codec.PatternCommand, false, c.resolveCommand); err != nil {
		return nil, fmt.Errorf("registering command reference rule: %w", err)
	}
	c.resetTranscript()
	return c, nil
}

// AddObserver subscribes o to state changes.
func (c *Console) AddObserver(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Toggle opens or closes the console and runs any pending setup.
//
// Postcondition: IsToggled() == open; observers saw Toggled(open).
func (c *Console) Toggle(open bool) {
	c.mu.Lock()
	c.toggled = open
	runGlobal := !c.globalReady
	c.globalReady = true
	runSession := !c.sessionReady
	c.sessionReady = true
	obs := c.snapshotObservers()
	c.mu.Unlock()

	for _, o := range obs {
		o.Toggled(open)
	}
	if runGlobal {
		c.setupGlobal()
	}
	if runSession {
		c.setupSession()
	}
}

// NewScene re-arms the session setup. If the console is open the setup runs
// immediately against the new scene's live objects.
func (c *Console) NewScene() {
	c.mu.Lock()
	c.sessionReady = false
	open := c.toggled
	c.mu.Unlock()
	if open {
		c.Toggle(true)
	}
}

func (c *Console) setupGlobal() {
	c.codecs.Seal()
	n := c.commands.ScanStatic(c.modules)
	c.logger.Debug("static commands loaded",
		zap.Int("commands", n),
		zap.Int("modules", len(c.modules)),
	)
}

func (c *Console) setupSession() {
	var objects []any
	if c.scene != nil {
		objects = c.scene.LiveObjects()
	}
	objects = append(objects, c)
	n := c.commands.ScanInstances(objects)

	id := uuid.New()
	c.mu.Lock()
	c.cursor = len(c.history)
	c.sessionID = id
	c.mu.Unlock()
	c.logger.Debug("session started",
		zap.String("session", id.String()),
		zap.Int("instance_commands", n),
	)
}

// Submit handles a line entered by the user. It does nothing while the
// console is closed. Non-empty lines are recorded in the history; the line is
// then dispatched as by Execute. Failures are reported to the transcript.
func (c *Console) Submit(line string) {
	c.mu.Lock()
	if !c.toggled {
		c.mu.Unlock()
		return
	}
	if line != "" {
		c.history = append(c.history, line)
	}
	c.cursor = len(c.history)
	c.mu.Unlock()

	_ = c.Execute(line)
}

// Execute dispatches line without touching the history or the toggle state.
// A line whose first token is not a command identifier is echoed as a log
// entry.
//
// Postcondition: Returns nil for passthrough lines and successful commands,
// the binding errors when the command was rejected, or the invocation errors.
func (c *Console) Execute(line string) error {
	if line == "" {
		return nil
	}
	tokens := strings.Split(line, " ")
	b, ok := c.commands.Lookup(tokens[0])
	if !ok {
		c.Print(line)
		return nil
	}

	args, err := binder.Bind(tokens[1:], b.Params, c.codecs)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			c.report(LogTypeError, e.Error())
		}
		c.report(LogTypeError, fmt.Sprintf("invalid command format, command did not execute (%s)", line))
		return fmt.Errorf("binding %s: %w", b.ID, err)
	}

	c.appendEntry(c.opts.Colors.Executable, "\n> ", line)
	if err := b.Invoke(args); err != nil {
		for _, e := range multierr.Errors(err) {
			c.report(LogTypeException, e.Error())
		}
		return fmt.Errorf("invoking %s: %w", b.ID, err)
	}
	return nil
}

// RecallHistory moves the history cursor by offset and publishes the
// recalled line. Moving forward from the last entry yields an empty draft
// and parks the cursor past the end.
//
// Postcondition: Returns the recalled line and true, or false when the
// history is empty.
func (c *Console) RecallHistory(offset int) (string, bool) {
	c.mu.Lock()
	size := len(c.history)
	if size == 0 {
		c.mu.Unlock()
		return "", false
	}
	idx := c.cursor + offset
	if idx >= size-1 {
		idx = size - 1
	}
	if idx <= 0 {
		idx = 0
	}
	var line string
	if offset > 0 && c.cursor >= size-1 {
		c.cursor = size
	} else {
		line = c.history[idx]
		c.cursor = idx
	}
	obs := c.snapshotObservers()
	c.mu.Unlock()

	for _, o := range obs {
		o.HistoryRecalled(line)
	}
	return line, true
}

// GenerateHints rebuilds the hint list from the first token of partial. The
// token is used as a regular expression against every identifier; an invalid
// expression yields no hints. Once partial contains a space and the token
// names a command exactly, the list collapses to that command.
//
// Postcondition: len(Hints()) <= MaxHints.
func (c *Console) GenerateHints(partial string) []string {
	token := strings.Split(partial, " ")[0]
	var hints []string
	exact := ""
	if token != "" {
		if re, err := regexp.Compile(token); err == nil {
			seen := make(map[string]bool)
			for _, b := range c.commands.Bindings() {
				if b.ID == token {
					exact = b.Format
				}
				if len(hints) >= c.opts.MaxHints || seen[b.ID] {
					continue
				}
				if re.MatchString(b.ID) {
					hints = append(hints, b.Format)
					seen[b.ID] = true
				}
			}
		}
	}
	if exact != "" && strings.Contains(partial, " ") {
		hints = []string{exact}
	}

	c.mu.Lock()
	c.hints = hints
	obs := c.snapshotObservers()
	c.mu.Unlock()

	for _, o := range obs {
		o.HintsChanged()
	}
	return append([]string(nil), hints...)
}

// AcceptHint publishes the completion for the first hint: its identifier,
// followed by a space when the command takes parameters.
//
// Postcondition: Returns the completion and true, or false without hints.
func (c *Console) AcceptHint() (string, bool) {
	c.mu.Lock()
	if len(c.hints) == 0 {
		c.mu.Unlock()
		return "", false
	}
	first := c.hints[0]
	c.mu.Unlock()

	b, ok := c.commands.LookupFormat(first)
	if !ok {
		return "", false
	}
	text := b.ID
	if b.HasParams() {
		text += " "
	}
	for _, o := range c.observersCopy() {
		o.HintAccepted(text)
	}
	return text, true
}

// HandleLog mirrors a log entry into the transcript. An error entry opens
// the console. Entries that arrive while another entry is being appended,
// from an observer or another goroutine, are queued and appended by the
// active caller after its own entry. Chains of entries raised by observers
// are cut after maxLogRounds.
func (c *Console) HandleLog(e observability.SinkEntry) {
	c.logMu.Lock()
	if c.logging {
		c.pending = append(c.pending, queuedLog{entry: e, reentrant: c.notifying})
		c.logMu.Unlock()
		return
	}
	c.logging = true
	c.logMu.Unlock()

	batch := []queuedLog{{entry: e}}
	rounds, dropped := 0, 0
	for {
		for _, q := range batch {
			c.appendLog(q.entry)
		}
		c.logMu.Lock()
		batch, c.pending = c.pending, nil
		if hasReentrant(batch) {
			rounds++
		}
		if rounds >= maxLogRounds {
			kept := batch[:0]
			for _, q := range batch {
				if q.reentrant {
					dropped++
					continue
				}
				kept = append(kept, q)
			}
			batch = kept
		}
		if len(batch) == 0 {
			c.logging = false
			c.logMu.Unlock()
			break
		}
		c.logMu.Unlock()
	}
	if dropped > 0 {
		c.logger.Debug("dropped log entries raised while logging",
			zap.Int("count", dropped),
			observability.SkipSink(),
		)
	}
}

func hasReentrant(batch []queuedLog) bool {
	for _, q := range batch {
		if q.reentrant {
			return true
		}
	}
	return false
}

func (c *Console) appendLog(e observability.SinkEntry) {
	typ := logTypeFor(e.Level)
	content := e.Message
	if (typ == LogTypeError || typ == LogTypeException) && !e.NoTrace && e.Stack != "" {
		content += "\n" + e.Stack
	}
	if c.transcript.AppendLine(content, typ.Prefix(), c.colorFor(typ)) {
		obs := c.observersCopy()
		c.setNotifying(len(obs) > 0)
		for _, o := range obs {
			o.ContentChanged()
		}
		c.setNotifying(false)
	}
	if typ == LogTypeError && !c.IsToggled() {
		c.Toggle(true)
	}
}

func (c *Console) setNotifying(v bool) {
	c.logMu.Lock()
	c.notifying = v
	c.logMu.Unlock()
}

// Print appends msg to the transcript as a plain log entry.
func (c *Console) Print(msg string) {
	c.appendEntry(c.opts.Colors.Log, LogTypeLog.Prefix(), msg)
}

// Content returns the transcript with markup.
func (c *Console) Content() string {
	return c.transcript.String()
}

// Hints returns the current hint list.
func (c *Console) Hints() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.hints...)
}

// History returns the recorded input lines.
func (c *Console) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.history...)
}

// HistoryCursor returns the recall cursor, in [0, len(History())].
func (c *Console) HistoryCursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// IsToggled reports whether the console is open.
func (c *Console) IsToggled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toggled
}

// SessionID identifies the current scene session; zero before the first toggle.
func (c *Console) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Commands returns the command registry.
func (c *Console) Commands() *command.Registry {
	return c.commands
}

func (c *Console) resolveCommand(raw string) (any, error) {
	b, ok := c.commands.Lookup(raw)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", raw)
	}
	return b, nil
}

// report writes a console-originated entry directly and logs it outside the
// transcript sink.
func (c *Console) report(typ LogType, msg string) {
	switch typ {
	case LogTypeError, LogTypeException:
		c.logger.Error(msg, observability.SkipSink())
	case LogTypeWarning, LogTypeAssert:
		c.logger.Warn(msg, observability.SkipSink())
	default:
		c.logger.Info(msg, observability.SkipSink())
	}
	c.appendEntry(c.colorFor(typ), typ.Prefix(), msg)
	if typ == LogTypeError && !c.IsToggled() {
		c.Toggle(true)
	}
}

func (c *Console) appendEntry(colorHex, prefix, content string) {
	if !c.transcript.AppendLine(content, prefix, colorHex) {
		return
	}
	for _, o := range c.observersCopy() {
		o.ContentChanged()
	}
}

func (c *Console) resetTranscript() {
	c.transcript.Reset()
	for _, o := range c.observersCopy() {
		o.ContentChanged()
	}
	c.appendEntry(welcomeColor, "", c.opts.WelcomeMessage)
}

func (c *Console) colorFor(typ LogType) string {
	switch typ {
	case LogTypeWarning:
		return c.opts.Colors.Warning
	case LogTypeError:
		return c.opts.Colors.Error
	case LogTypeException:
		return c.opts.Colors.Exception
	case LogTypeAssert:
		return c.opts.Colors.Assert
	default:
		return c.opts.Colors.Log
	}
}

func logTypeFor(level zapcore.Level) LogType {
	switch {
	case level <= zapcore.InfoLevel:
		return LogTypeLog
	case level == zapcore.WarnLevel:
		return LogTypeWarning
	case level == zapcore.ErrorLevel:
		return LogTypeError
	case level == zapcore.DPanicLevel:
		return LogTypeAssert
	default:
		return LogTypeException
	}
}

// snapshotObservers copies the observer list; c.mu must be held.
func (c *Console) snapshotObservers() []Observer {
	return append([]Observer(nil), c.observers...)
}

func (c *Console) observersCopy() []Observer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotObservers()
}
