package chunker

import (
	"strings"
	"unicode/utf8"
)

// CharacterSplitter splits on a single separator, drops it, and merges the
// non-empty pieces back with it up to ChunkSize. Every piece goes through the
// overlap-carrying merge, including pieces already longer than ChunkSize.
type CharacterSplitter struct {
	Separator    string
	ChunkSize    int
	ChunkOverlap int
}

func (s CharacterSplitter) Split(text string) []string {
	var pieces []string
	if s.Separator == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, s.Separator)
	}
	nonEmpty := pieces[:0]
	for _, p := range pieces {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return merge(nonEmpty, s.Separator, s.ChunkSize, s.ChunkOverlap)
}

// merge packs pieces into chunks of at most size runes, carrying up to
// overlap runes of trailing pieces into the next chunk. A single piece longer
// than size becomes its own chunk.
func merge(pieces []string, sep string, size, overlap int) []string {
	sepLen := runeLen(sep)
	var chunks, current []string
	total := 0
	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}
	for _, p := range pieces {
		n := runeLen(p)
		if total+n+joinLen() > size && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > overlap || (total+n+joinLen() > size && total > 0) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}
	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
