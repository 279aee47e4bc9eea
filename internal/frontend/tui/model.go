// Package tui renders the console as a bubbletea overlay: a header strip of
// badges, the transcript, the input line and the hint list.
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/devconsole/internal/console"
	"github.com/cory-johannsen/devconsole/internal/console/header"
	"github.com/cory-johannsen/devconsole/internal/markup"
)

// ToggleKey opens and closes the console.
const ToggleKey = "`"

// refreshInterval paces header redraws; badges such as the FPS counter
// change without a console event.
const refreshInterval = 100 * time.Millisecond

type refreshMsg time.Time

// consoleChangedMsg reports that the transcript or the hint list changed.
type consoleChangedMsg struct{}

// bridge forwards console observer events into a running program. Bursts
// collapse into one pending message. Sends happen off the caller's
// goroutine because observers also fire from inside Update.
type bridge struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending atomic.Bool
}

func (b *bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *bridge) notify() {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send == nil || !b.pending.CompareAndSwap(false, true) {
		return
	}
	go send(consoleChangedMsg{})
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4895EF"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
	frameStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false)
	closedHelp = lipgloss.NewStyle().Faint(true).Render("press ` to open the console, ctrl+c to exit")
)

// Model is the bubbletea model of the console overlay.
type Model struct {
	console *console.Console
	header  *header.Header
	title   string

	input  textinput.Model
	view   viewport.Model
	events *bridge

	width     int
	height    int
	lastDraft string
	rendered  string
}

// New creates the overlay model and subscribes it to c's content and hint
// events.
//
// Precondition: c and hdr must be non-nil.
func New(c *console.Console, hdr *header.Header, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 1024
	ti.Width = 76
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4895EF")).Bold(true)
	ti.Focus()

	m := Model{
		console: c,
		header:  hdr,
		title:   title,
		input:   ti,
		view:    viewport.New(80, 20),
		events:  &bridge{},
		width:   80,
		height:  24,
	}
	c.AddObserver(console.ObserverFuncs{
		OnContentChanged: m.events.notify,
		OnHintsChanged:   m.events.notify,
	})
	m.layout()
	m.syncTranscript()
	return m
}

// Init starts the cursor blink and the redraw ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Update handles keys, resizes, console events and redraw ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case consoleChangedMsg:
		m.events.pending.Store(false)
		m.layout()
		m.syncTranscript()
		return m, nil
	case refreshMsg:
		return m, tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case ToggleKey:
		m.console.Toggle(!m.console.IsToggled())
		m.setDraft("")
		m.syncTranscript()
		return m, nil
	}
	if !m.console.IsToggled() {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		line := m.input.Value()
		m.console.Submit(line)
		m.setDraft("")
		m.syncTranscript()
		return m, nil
	case "up", "down":
		offset := -1
		if msg.String() == "down" {
			offset = 1
		}
		if line, ok := m.console.RecallHistory(offset); ok {
			m.setDraft(line)
		}
		return m, nil
	case "tab":
		if text, ok := m.console.AcceptHint(); ok {
			m.setDraft(text)
		}
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.lastDraft {
		m.lastDraft = m.input.Value()
		m.console.GenerateHints(m.lastDraft)
		m.layout()
	}
	return m, cmd
}

// setDraft replaces the input text and regenerates hints for it.
func (m *Model) setDraft(text string) {
	m.input.SetValue(text)
	m.input.CursorEnd()
	m.lastDraft = text
	m.console.GenerateHints(text)
	m.layout()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.Width = max(width-4, 10)
	m.view.Width = width
	m.layout()
	m.rendered = ""
	m.syncTranscript()
}

// layout gives the transcript every row not taken by the header, the frame,
// the input line and the current hints.
func (m *Model) layout() {
	m.view.Height = max(m.height-4-len(m.console.Hints()), 3)
}

// syncTranscript re-renders the transcript when it changed and keeps the
// view pinned to the newest line.
func (m *Model) syncTranscript() {
	content := markup.ToANSI(m.console.Content())
	if content == m.rendered {
		return
	}
	m.rendered = content
	m.view.SetContent(strings.TrimPrefix(content, "\n"))
	m.view.GotoBottom()
}

// View renders the overlay.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.headerLine())
	sb.WriteString("\n")
	if !m.console.IsToggled() {
		sb.WriteString(closedHelp)
		return sb.String()
	}
	sb.WriteString(frameStyle.Width(m.width).Render(m.view.View()))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	for _, h := range m.console.Hints() {
		sb.WriteString("\n")
		sb.WriteString(hintStyle.Render("  " + markup.Strip(h)))
	}
	return sb.String()
}

// headerLine renders the badges, or the title when there are none.
func (m Model) headerLine() string {
	if m.header.ShowTitle() {
		return titleStyle.Render(m.title)
	}
	entries := m.header.Entries()
	badges := make([]string, 0, len(entries))
	for _, e := range entries {
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#" + e.Color())).
			Width(badgeColumns(e.Width))
		badges = append(badges, style.Render(e.Label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, badges...)
}

// badgeColumns converts a badge width in pixels to terminal columns.
func badgeColumns(width int) int {
	return max(width/10, 1)
}

// Run runs the overlay until ctx is cancelled or the user quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.events.attach(p.Send)
	defer m.events.attach(nil)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
