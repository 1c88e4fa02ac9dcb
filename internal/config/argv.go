package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	errOpenQuote  = errors.New("unterminated quote")
	errOpenEscape = errors.New("unterminated escape sequence")
)

// splitCommand splits a narrator command line into argv with shell-like
// quoting: single or double quotes group words and a backslash escapes the
// next rune. A line starting with # is a disabled command.
func splitCommand(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return nil, nil
	}

	var s argvScanner
	for _, r := range line {
		s.feed(r)
	}
	switch {
	case s.escaped:
		return nil, fmt.Errorf("%w in command: %q", errOpenEscape, line)
	case s.quote != 0:
		return nil, fmt.Errorf("%w in command: %q", errOpenQuote, line)
	}
	s.endWord()
	return s.argv, nil
}

type argvScanner struct {
	argv    []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (s *argvScanner) feed(r rune) {
	if s.escaped {
		s.escaped = false
		s.add(r)
		return
	}
	if r == '\\' {
		s.escaped = true
		s.inWord = true
		return
	}
	if s.quote != 0 {
		if r == s.quote {
			s.quote = 0
		} else {
			s.add(r)
		}
		return
	}
	switch {
	case r == '"' || r == '\'':
		s.quote = r
		s.inWord = true
	case unicode.IsSpace(r):
		s.endWord()
	default:
		s.add(r)
	}
}

func (s *argvScanner) add(r rune) {
	s.word.WriteRune(r)
	s.inWord = true
}

func (s *argvScanner) endWord() {
	if !s.inWord {
		return
	}
	s.argv = append(s.argv, s.word.String())
	s.word.Reset()
	s.inWord = false
}

func mustSplitCommand(line string) []string {
	argv, err := splitCommand(line)
	if err != nil {
		panic(err)
	}
	return argv
}
