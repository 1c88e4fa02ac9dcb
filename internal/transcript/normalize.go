// Package transcript turns recognized speech into text ready for field insertion.
package transcript

import (
	"regexp"
	"strings"
)

type phraseRule struct {
	pattern *regexp.Regexp
	out     string
}

// Order matters: formatting phrases run before punctuation so "next line" never
// loses its newline to a later rule.
var phraseRules = []phraseRule{
	{regexp.MustCompile(`(?i)\b(new|next)\s+paragraph\b`), "\n\n"},
	{regexp.MustCompile(`(?i)\b(new|next)\s+line\b`), "\n"},
	{regexp.MustCompile(`(?i)\b(bullet\s+)?point\b`), "\n• "},
	{regexp.MustCompile(`(?i)\bcomma\b`), ","},
	{regexp.MustCompile(`(?i)\b(full\s+)?stop\b`), "."},
	{regexp.MustCompile(`(?i)\bperiod\b`), "."},
	{regexp.MustCompile(`(?i)\bquestion\s+mark\b`), "?"},
	{regexp.MustCompile(`(?i)\bexclamation\s+(mark|point)\b`), "!"},
	{regexp.MustCompile(`(?i)\bcolon\b`), ":"},
	{regexp.MustCompile(`(?i)\bsemicolon\b`), ";"},
	{regexp.MustCompile(`(?i)\b(dash|hyphen)\b`), "-"},
	{regexp.MustCompile(`(?i)\bopen\s+bracket\b`), "("},
	{regexp.MustCompile(`(?i)\bclose\s+bracket\b`), ")"},
}

var (
	spaceBeforePunctuation = regexp.MustCompile(`\s+([,.;:!?])`)
	missingSpaceAfter      = regexp.MustCompile(`([,.;:!?])([A-Za-z0-9])`)
	excessNewlines         = regexp.MustCompile(`\n{3,}`)

	emailAt         = regexp.MustCompile(`\b(at the rate|at-the-rate|at the-rate|at)\b`)
	emailDot        = regexp.MustCompile(`\b(dot)\b`)
	emailAtSpacing  = regexp.MustCompile(`\s*@\s*`)
	emailDotSpacing = regexp.MustCompile(`\s*\.\s*`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Options controls field-specific normalization.
type Options struct {
	Email bool
}

// Normalize converts spoken punctuation and formatting phrases into text.
func Normalize(raw string, opts Options) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	for _, rule := range phraseRules {
		text = rule.pattern.ReplaceAllLiteralString(text, rule.out)
	}
	text = cleanSpacing(text)

	if opts.Email {
		text = normalizeEmail(text)
	}
	return text
}

func cleanSpacing(text string) string {
	text = spaceBeforePunctuation.ReplaceAllString(text, "$1")
	text = missingSpaceAfter.ReplaceAllString(text, "$1 $2")
	return excessNewlines.ReplaceAllString(text, "\n\n")
}

// normalizeEmail collapses dictated addresses such as "john at example dot com".
func normalizeEmail(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return t
	}
	t = emailAt.ReplaceAllString(t, "@")
	t = emailDot.ReplaceAllString(t, ".")
	t = emailAtSpacing.ReplaceAllString(t, "@")
	t = emailDotSpacing.ReplaceAllString(t, ".")
	return whitespaceRun.ReplaceAllString(t, "")
}
