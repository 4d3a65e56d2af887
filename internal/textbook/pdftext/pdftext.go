// Package pdftext pulls plain text out of PDF documents.
package pdftext

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	DefaultMaxPages = 300
	DefaultMaxChars = 200000
)

// Extract reads at most maxPages pages and returns at most maxChars runes,
// pages joined by a blank line. Pages that fail to decode are skipped. A
// limit of zero or less means no limit.
func Extract(r io.ReaderAt, size int64, maxPages, maxChars int) (text string, err error) {
	defer func() {
		// The parser panics on some malformed documents.
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}
	pages := doc.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := pageText(p)
		if err != nil {
			continue
		}
		parts = append(parts, s)
	}
	out := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if maxChars > 0 {
		if rs := []rune(out); len(rs) > maxChars {
			out = string(rs[:maxChars])
		}
	}
	return out, nil
}

func pageText(p pdf.Page) (s string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s, err = "", fmt.Errorf("page: %v", rec)
		}
	}()
	return p.GetPlainText(nil)
}
