package transcript

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode is the session-wide case transformation applied to dictated text.
type Mode string

const (
	ModeOriginal  Mode = "original"
	ModeAllCaps   Mode = "caps"
	ModeCamelCase Mode = "camelCase"
	ModeLowerCase Mode = "lowercase"
)

var camelSeparators = regexp.MustCompile(`[\s\-_]+`)

// Label returns the case-mode indicator text; Original has none.
func (m Mode) Label() string {
	switch m {
	case ModeAllCaps:
		return "ALL CAPS"
	case ModeCamelCase:
		return "Camel Case"
	case ModeLowerCase:
		return "Lower Case"
	default:
		return ""
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeOriginal, ModeAllCaps, ModeCamelCase, ModeLowerCase:
		return true
	default:
		return false
	}
}

// Transform applies mode to recognized text.
func Transform(text string, mode Mode) string {
	switch mode {
	case ModeAllCaps:
		return strings.ToUpper(text)
	case ModeLowerCase:
		return strings.ToLower(text)
	case ModeCamelCase:
		return toCamelCase(text)
	default:
		return text
	}
}

// toCamelCase returns text unchanged when it holds no words.
func toCamelCase(text string) string {
	words := make([]string, 0, 4)
	for _, w := range camelSeparators.Split(text, -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))
	out.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		first, size := utf8.DecodeRuneInString(w)
		out.WriteRune(unicode.ToUpper(first))
		out.WriteString(strings.ToLower(w[size:]))
	}
	return out.String()
}
