// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/regdoc-engine/internal/logging"
	"github.com/pdiddy/regdoc-engine/internal/storage"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

type stubPlanner struct {
	plan types.SearchPlan
}

func (s stubPlanner) Plan(_ context.Context, _ string, _ []string) types.SearchPlan {
	return s.plan
}

type stubDiscoverer struct {
	candidates []types.PdfCandidate
	panics     bool
}

func (s stubDiscoverer) Discover(_ context.Context, _ []types.SourceConfig, _ types.SearchPlan, _ string) []types.PdfCandidate {
	if s.panics {
		panic("crawler exploded")
	}
	return s.candidates
}

type stubFilterer struct {
	keep int
}

func (s stubFilterer) Filter(_ context.Context, _ string, candidates []types.PdfCandidate) []types.PdfCandidate {
	if s.keep > len(candidates) {
		return candidates
	}
	return candidates[:s.keep]
}

type stubDownloader struct {
	fail int
}

func (s stubDownloader) Download(_ context.Context, candidates []types.PdfCandidate, destDir, slug string) []types.DownloadedFile {
	var files []types.DownloadedFile
	for i, c := range candidates {
		if i < s.fail {
			continue
		}
		name := "doc.pdf"
		os.WriteFile(filepath.Join(destDir, name), []byte("%PDF"), 0o644)
		files = append(files, types.DownloadedFile{
			Source:      c.Source,
			Title:       c.Title,
			Filename:    name,
			StoredURL:   "/documents/" + slug + "/" + name,
			OriginalURL: c.URL,
			SizeBytes:   4,
		})
	}
	return files
}

type memRecorder struct {
	results []types.PipelineResult
}

func (m *memRecorder) Record(result types.PipelineResult) error {
	m.results = append(m.results, result)
	return nil
}

func candidates(n int) []types.PdfCandidate {
	var cs []types.PdfCandidate
	for i := 0; i < n; i++ {
		cs = append(cs, types.PdfCandidate{
			URL:    "https://x.example/doc.pdf",
			Title:  "Doc",
			Source: "EPAR",
		})
	}
	return cs
}

func newTestPipeline(t *testing.T, opts Options) (*Pipeline, *memRecorder) {
	t.Helper()
	rec := &memRecorder{}
	opts.Store = storage.New(t.TempDir())
	opts.Recorder = rec
	opts.Logger = logging.Discard()
	if opts.Registry == nil {
		opts.Registry = []types.SourceConfig{{Name: "EPAR", URL: "https://x.example"}}
	}
	if opts.Planner == nil {
		opts.Planner = stubPlanner{plan: types.SearchPlan{"EPAR": "ibuprofen approval"}}
	}
	return New(opts), rec
}

func TestRunFullPipeline(t *testing.T) {
	p, rec := newTestPipeline(t, Options{
		Discoverer: stubDiscoverer{candidates: candidates(5)},
		Filterer:   stubFilterer{keep: 3},
		Downloader: stubDownloader{fail: 1},
	})

	result := p.Run(context.Background(), "Ibuprofen HCL")

	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Equal(t, "Ibuprofen", result.Substance)
	assert.Equal(t, "ibuprofen", result.Slug)
	assert.Equal(t, 5, result.TotalFound)
	assert.Equal(t, 3, result.TotalRelevant)
	assert.Equal(t, 2, result.TotalDownloaded)
	require.Len(t, result.Hits, 2)
	assert.GreaterOrEqual(t, result.TotalFound, result.TotalRelevant)
	assert.GreaterOrEqual(t, result.TotalRelevant, result.TotalDownloaded)

	assert.Equal(t, []string{"EPAR"}, result.Debug.SourcesSearched)
	assert.Equal(t, "ibuprofen approval", result.Debug.SearchQueries["EPAR"])
	assert.Equal(t, 5, result.Debug.CandidatesFound)
	assert.Equal(t, 3, result.Debug.RelevantFound)
	assert.Equal(t, 2, result.Debug.FilesDownloaded)

	require.Len(t, rec.results, 1)
	assert.Equal(t, result.Slug, rec.results[0].Slug)
}

func TestRunWritesManifest(t *testing.T) {
	store := storage.New(t.TempDir())
	p := New(Options{
		Planner:    stubPlanner{plan: types.SearchPlan{"EPAR": "q"}},
		Discoverer: stubDiscoverer{candidates: candidates(2)},
		Filterer:   stubFilterer{keep: 2},
		Downloader: stubDownloader{},
		Store:      store,
		Registry:   []types.SourceConfig{{Name: "EPAR", URL: "https://x.example"}},
		Logger:     logging.Discard(),
	})

	result := p.Run(context.Background(), "Metformin")
	require.Equal(t, types.StatusCompleted, result.Status)

	m, err := store.ReadManifest("metformin")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Metformin", m.Substance)
	assert.Equal(t, 2, m.TotalFound)
	assert.Len(t, m.Documents, 2)
}

func TestRunEmptySubstanceName(t *testing.T) {
	p, rec := newTestPipeline(t, Options{
		Discoverer: stubDiscoverer{},
		Filterer:   stubFilterer{},
		Downloader: stubDownloader{},
	})

	result := p.Run(context.Background(), "   ")

	assert.Equal(t, types.StatusError, result.Status)
	assert.Equal(t, "invalid_input", result.ErrorType)
	assert.Zero(t, result.TotalFound)
	require.Len(t, rec.results, 1)
	assert.Equal(t, types.StatusError, rec.results[0].Status)
}

func TestRunNoCandidatesCompletes(t *testing.T) {
	p, _ := newTestPipeline(t, Options{
		Discoverer: stubDiscoverer{},
		Filterer:   stubFilterer{},
		Downloader: stubDownloader{},
	})

	result := p.Run(context.Background(), "Obscurinib")

	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Equal(t, "No PDF documents found", result.Message)
	assert.Zero(t, result.TotalFound)
	assert.Empty(t, result.Hits)
}

func TestRunEmptyRegistryCompletes(t *testing.T) {
	p, _ := newTestPipeline(t, Options{
		Discoverer: stubDiscoverer{},
		Filterer:   stubFilterer{},
		Downloader: stubDownloader{},
		Registry:   []types.SourceConfig{},
	})

	result := p.Run(context.Background(), "Ibuprofen")
	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Equal(t, "No PDF documents found", result.Message)
}

func TestRunNoRelevantCandidates(t *testing.T) {
	p, _ := newTestPipeline(t, Options{
		Discoverer: stubDiscoverer{candidates: candidates(4)},
		Filterer:   stubFilterer{keep: 0},
		Downloader: stubDownloader{},
	})

	result := p.Run(context.Background(), "Ibuprofen")

	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Equal(t, "No relevant PDF documents found", result.Message)
	assert.Equal(t, 4, result.TotalFound)
	assert.Zero(t, result.TotalRelevant)
}

func TestRunRecoversPanicIntoErrorResult(t *testing.T) {
	p, rec := newTestPipeline(t, Options{
		Discoverer: stubDiscoverer{panics: true},
		Filterer:   stubFilterer{},
		Downloader: stubDownloader{},
	})

	result := p.Run(context.Background(), "Ibuprofen")

	assert.Equal(t, types.StatusError, result.Status)
	assert.Equal(t, "internal", result.ErrorType)
	assert.Contains(t, result.Message, "crawler exploded")
	require.Len(t, rec.results, 1)
}
