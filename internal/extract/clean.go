package extract

import (
	"strings"
	"unicode"

	"docrag/internal/util"
)

const minLineRunes = 4

// Clean normalizes extracted text. Within a line whitespace runs collapse to a
// single space; lines shorter than four characters or made only of digits are
// dropped. Paragraphs stay separated by a blank line.
func Clean(text string) string {
	text = util.SanitizeText(text)
	if text == "" {
		return ""
	}

	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = current[:0]
		}
	}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.Join(strings.Fields(raw), " ")
		if line == "" {
			flush()
			continue
		}
		if len([]rune(line)) < minLineRunes || allDigits(line) {
			continue
		}
		current = append(current, line)
	}
	flush()
	return strings.Join(paragraphs, "\n\n")
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
