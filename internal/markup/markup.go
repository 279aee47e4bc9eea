// Package markup builds and renders the inline color markup used in the
// console transcript, of the form <color=#RRGGBB>text</color>.
package markup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ANSI escape code constants for terminal styling.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"
)

var tagPattern = regexp.MustCompile(`<color=#([0-9A-Fa-f]{6})>|</color>`)

// Color wraps text in a color tag.
//
// Precondition: hex is a six digit RGB string without the leading '#'.
// Postcondition: Returns <color=#hex>text</color>.
func Color(hex, text string) string {
	return "<color=#" + hex + ">" + text + "</color>"
}

// Colorf wraps a formatted string in a color tag.
func Colorf(hex, format string, args ...interface{}) string {
	return Color(hex, fmt.Sprintf(format, args...))
}

// Strip removes all color tags, leaving the plain text.
func Strip(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// ToANSI renders color tags as 24-bit ANSI foreground sequences. Nested tags
// restore the enclosing color when they close.
//
// Postcondition: Returns s with every tag replaced; the output carries no tags.
func ToANSI(s string) string {
	var sb strings.Builder
	var stack []string
	last := 0
	for _, loc := range tagPattern.FindAllStringSubmatchIndex(s, -1) {
		sb.WriteString(s[last:loc[0]])
		last = loc[1]
		if loc[2] >= 0 {
			seq := foreground(s[loc[2]:loc[3]])
			stack = append(stack, seq)
			sb.WriteString(seq)
			continue
		}
		if len(stack) == 0 {
			continue
		}
		stack = stack[:len(stack)-1]
		sb.WriteString(Reset)
		if len(stack) > 0 {
			sb.WriteString(stack[len(stack)-1])
		}
	}
	sb.WriteString(s[last:])
	if len(stack) > 0 {
		sb.WriteString(Reset)
	}
	return sb.String()
}

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns text with all \033[...m sequences removed.
func StripANSI(s string) string {
	result := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				i = j + 1
				continue
			}
		}
		result = append(result, s[i])
		i++
	}
	return string(result)
}

// RGB parses a six digit hex color.
func RGB(hex string) (r, g, b uint8, err error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil || len(strings.TrimPrefix(hex, "#")) != 6 {
		return 0, 0, 0, fmt.Errorf("markup: invalid color %q", hex)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// Gradient interpolates between two hex colors; t is clamped to [0,1].
func Gradient(from, to string, t float64) string {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	r1, g1, b1, err1 := RGB(from)
	r2, g2, b2, err2 := RGB(to)
	if err1 != nil || err2 != nil {
		return from
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return fmt.Sprintf("%02X%02X%02X", lerp(r1, r2), lerp(g1, g2), lerp(b1, b2))
}

func foreground(hex string) string {
	r, g, b, err := RGB(hex)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b)
}
