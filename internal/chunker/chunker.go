package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docrag/internal/util"

	"github.com/tmc/langchaingo/textsplitter"
)

// Options control the two-pass split. Zero values fall back to DefaultOptions.
type Options struct {
	ChunkSize       int
	ChunkOverlap    int
	SubChunkSize    int
	SubChunkOverlap int
	LongChunkLimit  int
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:       1500,
		ChunkOverlap:    200,
		SubChunkSize:    500,
		SubChunkOverlap: 50,
		LongChunkLimit:  1000,
	}
}

var paragraphSeparators = []string{"\n\n", "\n", ". ", " "}

type Chunker struct {
	sections  textsplitter.RecursiveCharacter
	sentences CharacterSplitter
	limit     int
}

func New(opts Options) *Chunker {
	def := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 0
	}
	if opts.SubChunkSize <= 0 {
		opts.SubChunkSize = def.SubChunkSize
	}
	if opts.SubChunkOverlap < 0 || opts.SubChunkOverlap >= opts.SubChunkSize {
		opts.SubChunkOverlap = 0
	}
	if opts.LongChunkLimit <= 0 {
		opts.LongChunkLimit = def.LongChunkLimit
	}
	return &Chunker{
		sections: textsplitter.NewRecursiveCharacter(
			textsplitter.WithSeparators(paragraphSeparators),
			textsplitter.WithChunkSize(opts.ChunkSize),
			textsplitter.WithChunkOverlap(opts.ChunkOverlap),
			textsplitter.WithKeepSeparator(true),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
		sentences: CharacterSplitter{Separator: ".", ChunkSize: opts.SubChunkSize, ChunkOverlap: opts.SubChunkOverlap},
		limit:     opts.LongChunkLimit,
	}
}

// Split cuts text into retrieval chunks in reading order. Section chunks over
// the long-chunk limit are prefixed with the document title and then split
// again on sentence boundaries.
func (c *Chunker) Split(text, title string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text to split", util.ErrEmptyChunks)
	}
	sections, err := c.sections.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split sections: %w", err)
	}
	var out []string
	for _, chunk := range sections {
		if title != "" && runeLen(chunk) > c.limit {
			chunk = "From " + title + ": " + chunk
		}
		if runeLen(chunk) > c.limit {
			out = append(out, c.sentences.Split(chunk)...)
			continue
		}
		out = append(out, chunk)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: splitter produced no chunks", util.ErrEmptyChunks)
	}
	return out, nil
}

// Split uses DefaultOptions.
func Split(text, title string) ([]string, error) {
	return New(DefaultOptions()).Split(text, title)
}
