package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errOpenBlockComment = errors.New("unterminated block comment in JSONC")

// blankJSONC turns JSONC into plain JSON by overwriting comments and
// trailing commas with spaces. Byte offsets are preserved, so decoder
// errors still point at the original line and column.
func blankJSONC(content string) ([]byte, error) {
	buf := []byte(content)
	pendingComma := -1

	for i := 0; i < len(buf); i++ {
		c := buf[i]
		switch {
		case c == '"':
			i = stringEnd(buf, i)
			pendingComma = -1
		case c == '/' && i+1 < len(buf) && buf[i+1] == '/':
			end := i
			for end < len(buf) && buf[end] != '\n' && buf[end] != '\r' {
				end++
			}
			blank(buf[i:end])
			i = end - 1
		case c == '/' && i+1 < len(buf) && buf[i+1] == '*':
			closing := bytes.Index(buf[i+2:], []byte("*/"))
			if closing < 0 {
				return nil, errOpenBlockComment
			}
			end := i + 2 + closing + 2
			blank(buf[i:end])
			i = end - 1
		case c == ',':
			pendingComma = i
		case c == '}' || c == ']':
			if pendingComma >= 0 {
				buf[pendingComma] = ' '
			}
			pendingComma = -1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			pendingComma = -1
		}
	}
	return buf, nil
}

// stringEnd returns the index of the quote closing the string opened at start.
func stringEnd(buf []byte, start int) int {
	for i := start + 1; i < len(buf); i++ {
		switch buf[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(buf) - 1
}

func blank(b []byte) {
	for i, c := range b {
		if c != '\n' && c != '\r' && c != '\t' {
			b[i] = ' '
		}
	}
}

// locateDecodeError prefixes syntax and type errors with their position.
func locateDecodeError(content []byte, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := lineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// lineCol maps a decoder offset, which points just past the offending
// byte, to a 1-based line and column.
func lineCol(content []byte, offset int64) (int, int) {
	if offset <= 0 || len(content) == 0 {
		return 1, 1
	}
	before := content[:min(int(offset), len(content))-1]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := len(before) - bytes.LastIndexByte(before, '\n')
	return line, col
}
