package command

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
)

// Registry holds the active command bindings in registration order.
//
// Identifiers are unique: the first binding registered for an identifier wins
// and later bindings with the same identifier but a different method identity
// are rejected with ErrDuplicateID.
type Registry struct {
	mu         sync.RWMutex
	codecs     *codec.Registry
	paramColor string
	logger     *zap.Logger
	bindings   []*Binding
	byID       map[string]*Binding
	byMethod   map[string]*Binding
}

// NewRegistry creates an empty Registry that validates parameter types
// against codecs.
//
// Precondition: codecs and logger must be non-nil; paramColor is a hex RGB string.
// Postcondition: Returns an empty Registry.
func NewRegistry(codecs *codec.Registry, paramColor string, logger *zap.Logger) *Registry {
	return &Registry{
		codecs:     codecs,
		paramColor: paramColor,
		logger:     logger,
		byID:       make(map[string]*Binding),
		byMethod:   make(map[string]*Binding),
	}
}

// Validate reports whether every parameter type of b has a codec rule.
func (r *Registry) Validate(b *Binding) bool {
	for _, p := range b.Params {
		if _, ok := r.codecs.Lookup(p.Type); !ok {
			return false
		}
	}
	return true
}

// ScanStatic registers the static commands of every module.
//
// Postcondition: Returns the number of bindings added. Invalid and duplicate
// commands are logged and skipped.
func (r *Registry) ScanStatic(modules []Module) int {
	added := 0
	for _, m := range modules {
		for _, sc := range m.StaticCommands() {
			source := sc.Source
			if source == "" {
				source = m.Name()
			}
			b := r.newBinding(sc.Decl, sc.Method, source, m.Name())
			b.Static = true
			b.static = sc.Run
			if r.add(b) == nil {
				added++
			}
		}
	}
	return added
}

// ScanInstances drops every non-static binding, then binds the instance
// commands of every object implementing Provider. Objects sharing a method
// identity are appended as extra targets of the same binding.
//
// Postcondition: Returns the number of new bindings created.
func (r *Registry) ScanInstances(objects []any) int {
	r.removeInstanceBindings()

	added := 0
	for _, obj := range objects {
		p, ok := obj.(Provider)
		if !ok {
			continue
		}
		typ := reflect.Indirect(reflect.ValueOf(obj)).Type()
		for _, ic := range p.ConsoleCommands() {
			identity := typ.PkgPath() + "." + typ.Name() + "." + ic.Method

			r.mu.Lock()
			existing, found := r.byMethod[identity]
			if found {
				existing.AddTarget(obj)
			}
			r.mu.Unlock()
			if found {
				continue
			}

			b := r.newBinding(ic.Decl, ic.Method, typ.Name(), typ.PkgPath())
			b.Method = identity
			b.method = ic.Run
			b.AddTarget(obj)
			if r.add(b) == nil {
				added++
			}
		}
	}
	return added
}

// Register binds a static function under id. It is the explicit registration
// path for applications that do not group commands into a Module.
//
// Postcondition: Returns ErrInvalid, ErrDuplicateID, or nil once the binding is active.
func (r *Registry) Register(id, description string, params []Param, fn StaticFunc, fanOut FanOut) error {
	if id == "" {
		return fmt.Errorf("command: registering: empty identifier")
	}
	if fn == nil {
		return fmt.Errorf("command: registering %q: nil function", id)
	}
	b := r.newBinding(Decl{ID: id, Description: description, FanOut: fanOut, Params: params}, id, "registered", "registered")
	b.Static = true
	b.static = fn
	return r.add(b)
}

// Lookup returns the binding for id.
func (r *Registry) Lookup(id string) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	return b, ok
}

// LookupFormat returns the binding whose display format equals format.
func (r *Registry) LookupFormat(format string) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bindings {
		if b.Format == format {
			return b, true
		}
	}
	return nil, false
}

// Bindings returns the active bindings in registration order.
func (r *Registry) Bindings() []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Binding, len(r.bindings))
	copy(out, r.bindings)
	return out
}

// Len returns the number of active bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

func (r *Registry) newBinding(d Decl, method, source, module string) *Binding {
	id := idFor(d, method)
	params := make([]Param, len(d.Params))
	copy(params, d.Params)
	return &Binding{
		ID:          id,
		Description: d.Description,
		Format:      formatFor(id, params, r.paramColor),
		Params:      params,
		FanOut:      d.FanOut,
		Method:      module + "." + source + "." + method,
		Source:      source,
		Module:      module,
	}
}

func (r *Registry) add(b *Binding) error {
	if !r.Validate(b) {
		r.logger.Warn(fmt.Sprintf("command (%s) is invalid and will not be executable", b.Format),
			zap.String("command", b.ID),
		)
		return fmt.Errorf("%s: %w", b.ID, ErrInvalid)
	}

	r.mu.Lock()
	if existing, ok := r.byID[b.ID]; ok {
		r.mu.Unlock()
		r.logger.Warn(fmt.Sprintf("command (%s) is already registered and will not be executable", b.ID),
			zap.String("command", b.ID),
			zap.String("registered_by", existing.Method),
			zap.String("rejected", b.Method),
		)
		return fmt.Errorf("%s: %w", b.ID, ErrDuplicateID)
	}
	r.bindings = append(r.bindings, b)
	r.byID[b.ID] = b
	r.byMethod[b.Method] = b
	r.mu.Unlock()
	return nil
}

func (r *Registry) removeInstanceBindings() {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.bindings[:0]
	for _, b := range r.bindings {
		if b.Static {
			kept = append(kept, b)
			continue
		}
		delete(r.byID, b.ID)
		delete(r.byMethod, b.Method)
	}
	for i := len(kept); i < len(r.bindings); i++ {
		r.bindings[i] = nil
	}
	r.bindings = kept
}
