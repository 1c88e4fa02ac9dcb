package command

import (
	"strings"
	"unicode"
)

// sentenceTail is how much text DeleteLastSentence drops when no sentence
// boundary exists.
const sentenceTail = 30

// DeleteLastWord trims trailing whitespace, then removes the final word while
// keeping the space before it.
func DeleteLastWord(value string) string {
	trimmed := strings.TrimRightFunc(value, unicode.IsSpace)
	cut := strings.LastIndex(trimmed, " ")
	if cut == -1 {
		return ""
	}
	return trimmed[:cut+1]
}

// DeleteLastSentence cuts back to the previous sentence terminator or line
// break, keeping it. Terminators ending the value belong to the sentence being
// removed. Without a boundary the last 30 characters are dropped.
func DeleteLastSentence(value string) string {
	body := strings.TrimRightFunc(value, func(r rune) bool {
		return unicode.IsSpace(r) || isTerminator(r)
	})

	if cut := strings.LastIndexAny(body, ".?!\n"); cut > 0 {
		return strings.TrimRightFunc(value[:cut+1], unicode.IsSpace)
	}

	runes := []rune(value)
	keep := max(0, len(runes)-sentenceTail)
	return strings.TrimRightFunc(string(runes[:keep]), unicode.IsSpace)
}

func isTerminator(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}
