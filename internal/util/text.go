package util

import (
	"sort"
	"strings"
	"unicode"
)

// SanitizeText drops NUL bytes, replacement runes and non-printing controls
// that some PDF extractors emit. Newlines and tabs survive; CRLF becomes LF.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch {
		case ch == '\n' || ch == '\t':
			b.WriteRune(ch)
		case ch == '\r':
			b.WriteRune('\n')
		case ch < 0x20, ch == 0x7f, ch == unicode.ReplacementChar:
		default:
			b.WriteRune(ch)
		}
	}
	return strings.TrimSpace(b.String())
}

// Snippet flattens s to a single line of at most maxRunes runes.
func Snippet(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 300
	}
	flat := strings.Join(strings.Fields(SanitizeText(s)), " ")
	runes := []rune(flat)
	if len(runes) <= maxRunes {
		return flat
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}

// EvidenceSnippet picks the sentences of text that share the most terms
// with query. Without usable query terms it falls back to Snippet.
func EvidenceSnippet(text, query string, maxRunes int) string {
	terms := queryTerms(query)
	sentences := sentences(text)
	if len(terms) == 0 || len(sentences) == 0 {
		return Snippet(text, maxRunes)
	}

	type hit struct {
		pos   int
		score int
	}
	hits := make([]hit, 0, len(sentences))
	for i, s := range sentences {
		low := strings.ToLower(s)
		n := 0
		for _, t := range terms {
			if strings.Contains(low, t) {
				n++
			}
		}
		hits = append(hits, hit{pos: i, score: n})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if hits[0].score == 0 {
		return Snippet(text, maxRunes)
	}
	picked := []int{hits[0].pos}
	if len(hits) > 1 && hits[1].score > 0 {
		picked = append(picked, hits[1].pos)
		sort.Ints(picked)
	}
	parts := make([]string, 0, len(picked))
	for _, p := range picked {
		parts = append(parts, sentences[p])
	}
	return Snippet(strings.Join(parts, " "), maxRunes)
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

func sentences(s string) []string {
	s = strings.Join(strings.Fields(s), " ")
	var out []string
	start := 0
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			if part := strings.TrimSpace(s[start : i+1]); part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "are": {}, "was": {}, "were": {}, "what": {}, "how": {}, "why": {},
	"who": {}, "which": {}, "that": {}, "this": {}, "these": {}, "those": {}, "with": {},
	"from": {}, "for": {}, "does": {}, "did": {}, "about": {}, "into": {}, "can": {},
}

func queryTerms(q string) []string {
	seen := map[string]struct{}{}
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(q)) {
		f = strings.Trim(f, ",.;:!?()[]{}\"'`")
		if len([]rune(f)) < 3 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
