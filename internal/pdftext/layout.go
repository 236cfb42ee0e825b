// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// layoutExtractor reads positioned text with ledongthuc/pdf. It recovers the
// reading text that structural extraction misses on documents with complex
// content streams.
type layoutExtractor struct{}

func (layoutExtractor) Name() string { return "layout" }

func (layoutExtractor) ExtractPages(pdfPath string, maxPages int) (string, error) {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pageCount := reader.NumPage()
	if pageCount > maxPages {
		pageCount = maxPages
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "Page %d:\n%s\n\n", pageNum, text)
	}
	return b.String(), nil
}
