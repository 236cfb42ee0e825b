// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// structuralExtractor pulls page content streams with pdfcpu. It is the
// fastest tier but yields operator-level text that can be sparse for
// scanned or heavily styled documents.
type structuralExtractor struct{}

func (structuralExtractor) Name() string { return "structural" }

func (structuralExtractor) ExtractPages(pdfPath string, maxPages int) (string, error) {
	pdfCtx, err := api.ReadContextFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}
	pageCount := pdfCtx.PageCount
	if pageCount > maxPages {
		pageCount = maxPages
	}
	if pageCount < 1 {
		return "", nil
	}

	outDir, err := os.MkdirTemp("", "regdoc-content-")
	if err != nil {
		return "", fmt.Errorf("failed to create content dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	pages := []string{fmt.Sprintf("1-%d", pageCount)}
	if err := api.ExtractContentFile(pdfPath, outDir, pages, model.NewDefaultConfiguration()); err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	// pdfcpu names extracted files "<basename>_Content_page_<n>.txt"; index
	// them by the trailing page number rather than guessing the prefix.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}
	pageFiles := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if n, ok := contentPageNumber(entry.Name()); ok {
			pageFiles[n] = filepath.Join(outDir, entry.Name())
		}
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		path, ok := pageFiles[pageNum]
		if !ok {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "Page %d:\n%s\n\n", pageNum, printableText(content))
	}
	return b.String(), nil
}

// contentPageNumber parses the page number from a pdfcpu content file name.
func contentPageNumber(name string) (int, bool) {
	const marker = "Content_page_"
	idx := strings.Index(name, marker)
	if idx < 0 {
		return 0, false
	}
	num := strings.TrimSuffix(name[idx+len(marker):], filepath.Ext(name))
	n := 0
	for _, r := range num {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if num == "" {
		return 0, false
	}
	return n, true
}

// printableText keeps the human-readable runs of a content stream and drops
// binary operator noise.
func printableText(raw []byte) string {
	var b strings.Builder
	for _, r := range string(raw) {
		if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x7f) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
