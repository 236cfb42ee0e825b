// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches accepted PDF candidates into the substance's
// document directory. Files land atomically: bytes stream to a temp file
// that is renamed into place only after the copy completed, so readers never
// see a partial PDF.
package download

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/pdiddy/regdoc-engine/internal/httputil"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// maxTitleFilename caps title-derived filenames.
const maxTitleFilename = 50

// Downloader fetches candidate batches concurrently and tolerates
// per-candidate failure.
type Downloader struct {
	client     *http.Client
	userAgent  string
	batchSize  int
	batchDelay time.Duration
	logger     *log.Logger
}

// New builds a Downloader from the download configuration.
func New(cfg types.DownloadConfig, logger *log.Logger) *Downloader {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 3
	}
	return &Downloader{
		client:     httputil.NewClient(cfg.Timeout),
		userAgent:  cfg.UserAgent,
		batchSize:  batchSize,
		batchDelay: cfg.BatchDelay,
		logger:     logger,
	}
}

// Download fetches every candidate into destDir and returns records for the
// files that were saved, in candidate order. A candidate that fails is
// logged and skipped; the rest of the batch proceeds. Candidates whose URLs
// share a basename get distinct filenames so no save overwrites another.
func (d *Downloader) Download(ctx context.Context, candidates []types.PdfCandidate, destDir, slug string) []types.DownloadedFile {
	results := make([]*types.DownloadedFile, len(candidates))
	names := uniqueFilenames(candidates)

	for start := 0; start < len(candidates); start += d.batchSize {
		if start > 0 && d.batchDelay > 0 {
			time.Sleep(d.batchDelay)
		}
		end := start + d.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				file, err := d.downloadOne(ctx, candidates[i], names[i], destDir, slug)
				if err != nil {
					d.logger.Warn().Err(err).Str("url", candidates[i].URL).Msg("download failed")
					return
				}
				results[i] = file
			}(i)
		}
		wg.Wait()
	}

	var files []types.DownloadedFile
	for _, f := range results {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files
}

// downloadOne fetches a single candidate to destDir under filename.
func (d *Downloader) downloadOne(ctx context.Context, candidate types.PdfCandidate, filename, destDir, slug string) (*types.DownloadedFile, error) {
	resp, err := httputil.Get(ctx, d.client, candidate.URL, d.userAgent)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, candidate.URL)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/pdf") {
		return nil, fmt.Errorf("not a PDF: content type %q from %s", contentType, candidate.URL)
	}

	destPath := filepath.Join(destDir, filename)

	tmpFile, err := os.CreateTemp(destDir, ".download-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	size, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("renaming temp file: %w", err)
	}

	d.logger.Info().Str("file", filename).Int64("bytes", size).Msg("saved document")
	return &types.DownloadedFile{
		Source:      candidate.Source,
		Title:       candidate.Title,
		Filename:    filename,
		StoredURL:   "/documents/" + slug + "/" + filename,
		OriginalURL: candidate.URL,
		SizeBytes:   size,
	}, nil
}

// uniqueFilenames derives per-candidate filenames, disambiguating basename
// collisions with a numeric suffix so every result record names a real,
// distinct file on disk.
func uniqueFilenames(candidates []types.PdfCandidate) []string {
	names := make([]string, len(candidates))
	used := make(map[string]bool, len(candidates))
	for i, c := range candidates {
		name := Filename(c)
		if used[name] {
			ext := path.Ext(name)
			stem := strings.TrimSuffix(name, ext)
			for n := 2; ; n++ {
				alt := fmt.Sprintf("%s_%d%s", stem, n, ext)
				if !used[alt] {
					name = alt
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// Filename derives the stored filename for a candidate: the URL's basename
// when it already names a PDF, otherwise a sanitized title, otherwise a name
// derived from the URL hash.
func Filename(candidate types.PdfCandidate) string {
	if u, err := url.Parse(candidate.URL); err == nil {
		base := path.Base(u.Path)
		if strings.HasSuffix(strings.ToLower(base), ".pdf") && base != ".pdf" {
			return base
		}
	}

	if title := sanitizeTitle(candidate.Title); title != "" {
		return title + ".pdf"
	}

	sum := sha256.Sum256([]byte(candidate.URL))
	return fmt.Sprintf("document_%x.pdf", sum[:6])
}

// sanitizeTitle reduces a link title to a safe filename stem.
func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	stem := strings.Trim(b.String(), "_")
	if len(stem) > maxTitleFilename {
		stem = stem[:maxTitleFilename]
	}
	return strings.Trim(stem, "_")
}
