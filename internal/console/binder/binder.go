// Package binder carves the argument text of a console line into one raw
// substring per declared parameter and converts each through its codec rule.
package binder

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/cory-johannsen/devconsole/internal/console/codec"
	"github.com/cory-johannsen/devconsole/internal/console/command"
)

var errMissing = errors.New("no matching input")

// ParamError reports a parameter that could not be bound.
type ParamError struct {
	Index int
	Type  codec.Tag
	// Raw is the input token at the parameter's position, or empty when the
	// line was too short.
	Raw string
	Err error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("expected %s parameter input in (%s)", e.Type, e.Raw)
}

func (e *ParamError) Unwrap() error { return e.Err }

// Group splits the argument tokens into one raw substring per parameter.
//
// The tokens are rejoined with single spaces into a working buffer. For each
// parameter in order the leftmost match of its rule's pattern is searched in
// the buffer. Rules that allow whitespace capture the match itself; other
// rules capture the space-split token of the buffer at the parameter's index.
// The first occurrence of the capture is then removed from the buffer.
//
// Postcondition: Returns the captures made before the first parameter without
// a match or rule. A result shorter than params means binding must fail.
func Group(args []string, params []command.Param, codecs *codec.Registry) []string {
	if len(args) == 0 || len(params) == 0 {
		return nil
	}
	buf := strings.Join(args, " ")
	groups := make([]string, 0, len(params))
	for i, p := range params {
		rule, ok := codecs.Lookup(p.Type)
		if !ok {
			return groups
		}
		match := rule.Pattern.FindStringIndex(buf)
		if match == nil {
			return groups
		}
		var capture string
		if rule.AllowWhitespace {
			capture = buf[match[0]:match[1]]
		} else {
			tokens := strings.Split(buf, " ")
			if i >= len(tokens) {
				return groups
			}
			capture = tokens[i]
		}
		groups = append(groups, capture)
		buf = strings.Replace(buf, capture, "", 1)
	}
	return groups
}

// Bind groups args and converts every capture for params.
//
// Every parameter is attempted so the caller can report all failures at once.
//
// Postcondition: Returns one value per parameter, or a nil slice and the
// combined *ParamError failures. Parameterless commands always bind.
func Bind(args []string, params []command.Param, codecs *codec.Registry) ([]any, error) {
	if len(params) == 0 {
		return []any{}, nil
	}
	groups := Group(args, params, codecs)
	values := make([]any, len(params))
	var errs error
	for i, p := range params {
		if i >= len(groups) {
			errs = multierr.Append(errs, &ParamError{Index: i, Type: p.Type, Raw: rawAt(args, i), Err: errMissing})
			continue
		}
		rule, ok := codecs.Lookup(p.Type)
		if !ok {
			errs = multierr.Append(errs, &ParamError{Index: i, Type: p.Type, Raw: rawAt(args, i), Err: errMissing})
			continue
		}
		v, err := rule.Convert(groups[i])
		if err != nil {
			errs = multierr.Append(errs, &ParamError{Index: i, Type: p.Type, Raw: rawAt(args, i), Err: err})
			continue
		}
		values[i] = v
	}
	if errs != nil {
		return nil, errs
	}
	return values, nil
}

func rawAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
