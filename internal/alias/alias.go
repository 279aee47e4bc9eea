// Package alias loads user-defined command aliases from YAML. Each alias
// becomes a parameterless static command that executes its lines in order.
package alias

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/devconsole/internal/console/command"
)

// ErrRecursive is returned when an alias runs itself, directly or through
// another alias.
var ErrRecursive = errors.New("alias: recursive alias")

// Alias is a named sequence of console lines.
//
// Precondition: ID must be non-empty without whitespace; Lines must be non-empty.
type Alias struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Lines       []string `yaml:"lines"`
}

// File is the top level of an alias file.
type File struct {
	Aliases []*Alias `yaml:"aliases"`
}

// Validate checks every alias and rejects duplicate ids.
func (f *File) Validate() error {
	seen := make(map[string]struct{}, len(f.Aliases))
	for i, a := range f.Aliases {
		if a == nil || a.ID == "" {
			return fmt.Errorf("alias %d: id must not be empty", i)
		}
		if strings.ContainsAny(a.ID, " \t\n") {
			return fmt.Errorf("alias %q: id must not contain whitespace", a.ID)
		}
		if len(a.Lines) == 0 {
			return fmt.Errorf("alias %q: lines must not be empty", a.ID)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("alias %q: duplicate id", a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// Parse decodes and validates an alias document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("alias: parsing: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads the alias file at path. An empty path yields an empty File.
//
// Postcondition: Returns a validated File or an error naming path.
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("alias: reading %q: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Module exposes the aliases of a File as static commands.
type Module struct {
	file *File

	mu     sync.Mutex
	active map[string]bool

	// Execute dispatches one console line. Injected after construction.
	Execute func(line string) error
}

// NewModule creates a Module over f.
//
// Precondition: f must be validated.
func NewModule(f *File) *Module {
	return &Module{file: f, active: make(map[string]bool)}
}

// Name returns the module name.
func (m *Module) Name() string { return "aliases" }

// StaticCommands returns one command per alias.
func (m *Module) StaticCommands() []command.StaticCommand {
	out := make([]command.StaticCommand, 0, len(m.file.Aliases))
	for _, a := range m.file.Aliases {
		a := a
		desc := a.Description
		if desc == "" {
			desc = "runs " + strings.Join(a.Lines, "; ")
		}
		out = append(out, command.StaticCommand{
			Decl:   command.Decl{ID: a.ID, Description: desc},
			Method: a.ID,
			Source: "Alias",
			Run:    func([]any) error { return m.Run(a) },
		})
	}
	return out
}

// Run executes the lines of a in order, stopping at the first failure.
func (m *Module) Run(a *Alias) error {
	if m.Execute == nil {
		return fmt.Errorf("alias %q: no console attached", a.ID)
	}
	m.mu.Lock()
	if m.active[a.ID] {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRecursive, a.ID)
	}
	m.active[a.ID] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.active, a.ID)
		m.mu.Unlock()
	}()

	for i, line := range a.Lines {
		if err := m.Execute(line); err != nil {
			return fmt.Errorf("alias %q line %d: %w", a.ID, i+1, err)
		}
	}
	return nil
}
