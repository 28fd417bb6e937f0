package extract

import (
	"context"
	"fmt"
	"strings"

	"docrag/internal/util"

	"github.com/ledongthuc/pdf"
)

// PDF extracts plain text from PDF files page by page.
type PDF struct{}

// Extract returns the concatenated text of every page of the file at path, in
// page order. Any page failure fails the whole document.
func (PDF) Extract(ctx context.Context, path string) (text string, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf %s: %w", util.ErrExtraction, path, err)
	}
	defer f.Close()

	// The parser panics on some malformed content streams.
	defer func() {
		if p := recover(); p != nil {
			text = ""
			err = fmt.Errorf("%w: parse pdf %s: %v", util.ErrExtraction, path, p)
		}
	}()

	var b strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("%w: page %d of %s: %w", util.ErrExtraction, i, path, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}
