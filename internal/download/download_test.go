// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/regdoc-engine/internal/logging"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

func testDownloader() *Downloader {
	cfg := types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "regdoc-test"},
		BatchSize:  3,
	}
	return New(cfg, logging.Discard())
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name      string
		candidate types.PdfCandidate
		want      string
	}{
		{
			name:      "pdf basename from URL",
			candidate: types.PdfCandidate{URL: "https://x.example/docs/ibuprofen-epar.pdf?dl=1", Title: "ignored"},
			want:      "ibuprofen-epar.pdf",
		},
		{
			name:      "uppercase extension kept",
			candidate: types.PdfCandidate{URL: "https://x.example/docs/REPORT.PDF", Title: "ignored"},
			want:      "REPORT.PDF",
		},
		{
			name:      "title fallback sanitized",
			candidate: types.PdfCandidate{URL: "https://x.example/view?filetype=pdf&id=9", Title: "Ibuprofen: Assessment / Report"},
			want:      "Ibuprofen_Assessment__Report.pdf",
		},
		{
			name:      "long title truncated",
			candidate: types.PdfCandidate{URL: "https://x.example/view?id=9", Title: strings.Repeat("a", 80)},
			want:      strings.Repeat("a", 50) + ".pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.candidate))
		})
	}
}

func TestFilenameHashFallbackIsStable(t *testing.T) {
	c := types.PdfCandidate{URL: "https://x.example/view?id=9", Title: "///"}
	first := Filename(c)
	assert.True(t, strings.HasPrefix(first, "document_"))
	assert.True(t, strings.HasSuffix(first, ".pdf"))
	assert.Equal(t, first, Filename(c))
}

func TestDownloadSavesFilesAtomically(t *testing.T) {
	body := "%PDF-1.4 regulatory content"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	candidates := []types.PdfCandidate{
		{URL: srv.URL + "/ibuprofen-epar.pdf", Title: "EPAR", Source: "EPAR"},
	}

	files := testDownloader().Download(context.Background(), candidates, dir, "ibuprofen")

	require.Len(t, files, 1)
	f := files[0]
	assert.Equal(t, "ibuprofen-epar.pdf", f.Filename)
	assert.Equal(t, "/documents/ibuprofen/ibuprofen-epar.pdf", f.StoredURL)
	assert.Equal(t, srv.URL+"/ibuprofen-epar.pdf", f.OriginalURL)
	assert.Equal(t, int64(len(body)), f.SizeBytes)

	saved, err := os.ReadFile(filepath.Join(dir, "ibuprofen-epar.pdf"))
	require.NoError(t, err)
	assert.Equal(t, body, string(saved))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownloadToleratesPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "gone"):
			http.NotFound(w, r)
		case strings.Contains(r.URL.Path, "html"):
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html>not a pdf</html>")
		default:
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF-1.4 ok")
		}
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	candidates := []types.PdfCandidate{
		{URL: srv.URL + "/a.pdf", Title: "A", Source: "EPAR"},
		{URL: srv.URL + "/gone.pdf", Title: "B", Source: "EPAR"},
		{URL: srv.URL + "/c.pdf", Title: "C", Source: "FDA-PSBG"},
		{URL: srv.URL + "/html.pdf", Title: "D", Source: "FDA-PSBG"},
		{URL: srv.URL + "/e.pdf", Title: "E", Source: "EMA-PSBG"},
	}

	files := testDownloader().Download(context.Background(), candidates, dir, "ibuprofen")

	require.Len(t, files, 3)
	assert.Equal(t, "a.pdf", files[0].Filename)
	assert.Equal(t, "c.pdf", files[1].Filename)
	assert.Equal(t, "e.pdf", files[2].Filename)
}

func TestDownloadDisambiguatesCollidingBasenames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprintf(w, "%%PDF-1.4 body of %s", r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	candidates := []types.PdfCandidate{
		{URL: srv.URL + "/epar/report.pdf", Title: "EPAR report", Source: "EPAR"},
		{URL: srv.URL + "/guidance/report.pdf", Title: "Guidance report", Source: "FDA-PSBG"},
	}

	files := testDownloader().Download(context.Background(), candidates, dir, "ibuprofen")

	require.Len(t, files, 2)
	assert.Equal(t, "report.pdf", files[0].Filename)
	assert.Equal(t, "report_2.pdf", files[1].Filename)

	first, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	require.NoError(t, err)
	assert.Contains(t, string(first), "/epar/report.pdf")
	second, err := os.ReadFile(filepath.Join(dir, "report_2.pdf"))
	require.NoError(t, err)
	assert.Contains(t, string(second), "/guidance/report.pdf")
}

func TestUniqueFilenamesAvoidsExistingSuffixNames(t *testing.T) {
	candidates := []types.PdfCandidate{
		{URL: "https://x.example/a/doc.pdf"},
		{URL: "https://x.example/b/doc.pdf"},
		{URL: "https://x.example/c/doc_2.pdf"},
		{URL: "https://x.example/d/doc.pdf"},
	}
	names := uniqueFilenames(candidates)
	assert.Equal(t, []string{"doc.pdf", "doc_2.pdf", "doc_2_2.pdf", "doc_3.pdf"}, names)
}

func TestDownloadEmptyCandidates(t *testing.T) {
	files := testDownloader().Download(context.Background(), nil, t.TempDir(), "ibuprofen")
	assert.Empty(t, files)
}
