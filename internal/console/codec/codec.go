// Package codec provides the registry of textual parsing rules for console
// command parameter types.
package codec

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// Tag identifies a parameter value type. Applications pick the tag when they
// declare a command parameter; the registry maps it to a parsing Rule.
type Tag string

// Built-in parameter type tags.
const (
	TagBool    Tag = "bool"
	TagByte    Tag = "byte"
	TagSByte   Tag = "sbyte"
	TagInt     Tag = "int"
	TagUInt    Tag = "uint"
	TagFloat   Tag = "float"
	TagDouble  Tag = "double"
	TagString  Tag = "string"
	TagChar    Tag = "char"
	TagCommand Tag = "command"
)

var (
	// ErrDuplicateRule is returned when a tag already has a registered Rule.
	ErrDuplicateRule = errors.New("codec: rule already registered")
	// ErrSealed is returned when Register is called after Seal.
	ErrSealed = errors.New("codec: registry is sealed")
)

// ConvertFunc turns one captured argument into a value.
type ConvertFunc func(raw string) (any, error)

// Rule describes how one argument of a given type looks in the input text and
// how it is converted.
type Rule struct {
	// Type is the tag the rule is registered under.
	Type Tag
	// Pattern matches the textual shape of a single argument.
	Pattern *regexp.Regexp
	// AllowWhitespace reports whether the argument may embed spaces. Such
	// arguments are captured by pattern span instead of by position.
	AllowWhitespace bool
	convert         ConvertFunc
}

// Convert runs the rule's conversion on raw.
//
// Postcondition: Returns the converted value, or a *ConversionError.
func (r *Rule) Convert(raw string) (any, error) {
	v, err := r.convert(raw)
	if err != nil {
		return nil, &ConversionError{Type: r.Type, Raw: raw, Err: err}
	}
	return v, nil
}

// ConversionError reports a raw argument that could not be converted.
type ConversionError struct {
	Type Tag
	Raw  string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %q to %s: %v", e.Raw, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Registry maps type tags to Rules. It is filled once, sealed, and read from
// then on.
type Registry struct {
	mu     sync.RWMutex
	rules  map[Tag]*Rule
	order  []Tag
	sealed bool
}

// NewRegistry creates an empty, unsealed Registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[Tag]*Rule),
	}
}

// Register adds a Rule for tag.
//
// Precondition: pattern must be a valid RE2 expression; convert must be non-nil.
// Postcondition: Returns ErrDuplicateRule if tag is taken, ErrSealed after Seal,
// or a compile error for a bad pattern.
func (r *Registry) Register(tag Tag, pattern string, allowWhitespace bool, convert ConvertFunc) error {
	if convert == nil {
		return fmt.Errorf("codec: registering %s: nil convert func", tag)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("codec: compiling pattern for %s: %w", tag, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("registering %s: %w", tag, ErrSealed)
	}
	if _, exists := r.rules[tag]; exists {
		return fmt.Errorf("registering %s: %w", tag, ErrDuplicateRule)
	}
	r.rules[tag] = &Rule{
		Type:            tag,
		Pattern:         re,
		AllowWhitespace: allowWhitespace,
		convert:         convert,
	}
	r.order = append(r.order, tag)
	return nil
}

// Lookup returns the Rule registered for tag.
func (r *Registry) Lookup(tag Tag) (*Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[tag]
	return rule, ok
}

// Seal freezes the registry. Later Register calls fail with ErrSealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Tags returns the registered tags in registration order.
func (r *Registry) Tags() []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tag, len(r.order))
	copy(out, r.order)
	return out
}
