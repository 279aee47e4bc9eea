package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Patterns for the built-in rules.
const (
	PatternBool    = `(0|1|on|off|true|false)`
	PatternDigits  = `\d+`
	PatternSigned  = `[-+]?\d+`
	PatternFloat   = `[-+]?([0-9]*[.])?[0-9]+([eE][-+]?\d+)?`
	PatternString  = `".*?"`
	PatternChar    = `'.'`
	PatternCommand = `\S*?`
)

var errNotBool = errors.New("not a boolean literal")

// RegisterBuiltins registers every built-in rule except TagCommand, which
// needs a resolver over the command registry and is registered by its owner.
//
// Precondition: r must not be sealed and must not already hold a built-in tag.
// Postcondition: All nine scalar rules are registered, or the first failure is returned.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		tag     Tag
		pattern string
		ws      bool
		fn      ConvertFunc
	}{
		{TagBool, PatternBool, false, ParseBool},
		{TagByte, PatternDigits, false, parseByte},
		{TagSByte, PatternSigned, false, parseSByte},
		{TagInt, PatternSigned, false, parseInt},
		{TagUInt, PatternSigned, false, parseUInt},
		{TagFloat, PatternFloat, false, parseFloat},
		{TagDouble, PatternFloat, false, parseDouble},
		{TagString, PatternString, true, parseString},
		{TagChar, PatternChar, false, parseChar},
	}
	for _, b := range builtins {
		if err := r.Register(b.tag, b.pattern, b.ws, b.fn); err != nil {
			return err
		}
	}
	return nil
}

// ParseBool accepts exactly 1/0/on/off/true/false (case-sensitive).
func ParseBool(raw string) (any, error) {
	switch raw {
	case "1", "on", "true":
		return true, nil
	case "0", "off", "false":
		return false, nil
	default:
		return nil, errNotBool
	}
}

func parseByte(raw string) (any, error) {
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return nil, err
	}
	return uint8(v), nil
}

func parseSByte(raw string) (any, error) {
	v, err := strconv.ParseInt(raw, 10, 8)
	if err != nil {
		return nil, err
	}
	return int8(v), nil
}

func parseInt(raw string) (any, error) {
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	return int32(v), nil
}

func parseUInt(raw string) (any, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(raw, "+"), 10, 32)
	if err != nil {
		return nil, err
	}
	return uint32(v), nil
}

func parseFloat(raw string) (any, error) {
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return nil, err
	}
	return float32(v), nil
}

func parseDouble(raw string) (any, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func parseString(raw string) (any, error) {
	return strings.ReplaceAll(raw, `"`, ""), nil
}

func parseChar(raw string) (any, error) {
	s := strings.ReplaceAll(raw, "'", "")
	if s == "" {
		return nil, fmt.Errorf("empty character literal")
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
