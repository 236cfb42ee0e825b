// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates a discovery run end to end: normalize the
// substance name, plan queries, crawl the sources, filter candidates by
// relevance, download the survivors, and persist the manifest and run
// history. A run always produces a result; failures are reported in the
// result rather than panicking the caller.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/pdiddy/regdoc-engine/internal/sources"
	"github.com/pdiddy/regdoc-engine/internal/storage"
	"github.com/pdiddy/regdoc-engine/internal/substance"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// Planner produces per-source search queries.
type Planner interface {
	Plan(ctx context.Context, substanceName string, sourceNames []string) types.SearchPlan
}

// Discoverer crawls the sources for candidate PDF links.
type Discoverer interface {
	Discover(ctx context.Context, registry []types.SourceConfig, plan types.SearchPlan, substanceName string) []types.PdfCandidate
}

// Filterer keeps the candidates relevant to the substance.
type Filterer interface {
	Filter(ctx context.Context, substanceName string, candidates []types.PdfCandidate) []types.PdfCandidate
}

// Downloader fetches accepted candidates into a directory.
type Downloader interface {
	Download(ctx context.Context, candidates []types.PdfCandidate, destDir, slug string) []types.DownloadedFile
}

// Recorder persists the outcome of a run.
type Recorder interface {
	Record(result types.PipelineResult) error
}

// Pipeline wires the stages together for one or more runs.
type Pipeline struct {
	planner    Planner
	discoverer Discoverer
	filterer   Filterer
	downloader Downloader
	store      *storage.Store
	recorder   Recorder
	registry   []types.SourceConfig
	logger     *log.Logger
}

// Options carries the stage implementations and shared state for a Pipeline.
type Options struct {
	Planner    Planner
	Discoverer Discoverer
	Filterer   Filterer
	Downloader Downloader
	Store      *storage.Store
	Recorder   Recorder
	Registry   []types.SourceConfig
	Logger     *log.Logger
}

// New assembles a Pipeline.
func New(opts Options) *Pipeline {
	return &Pipeline{
		planner:    opts.Planner,
		discoverer: opts.Discoverer,
		filterer:   opts.Filterer,
		downloader: opts.Downloader,
		store:      opts.Store,
		recorder:   opts.Recorder,
		registry:   opts.Registry,
		logger:     opts.Logger,
	}
}

// Run executes the full pipeline for one substance name. It never returns an
// error: every failure mode is folded into the result's status, and a panic
// anywhere in the stages is recovered into an error result.
func (p *Pipeline) Run(ctx context.Context, rawName string) (result types.PipelineResult) {
	started := time.Now()
	result = types.PipelineResult{
		Status:    types.StatusCompleted,
		StartedAt: started,
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Str("panic", fmt.Sprint(r)).Msg("pipeline panicked")
			result.Status = types.StatusError
			result.ErrorType = "internal"
			result.Message = fmt.Sprintf("internal error: %v", r)
		}
		result.Duration = time.Since(started)
		p.record(result)
	}()

	name := substance.Normalize(rawName)
	if name == "" {
		result.Status = types.StatusError
		result.ErrorType = "invalid_input"
		result.Message = "substance name is empty"
		return result
	}
	slug := substance.Slug(name)
	result.Substance = name
	result.Slug = slug

	p.logger.Info().Str("substance", name).Str("slug", slug).Msg("starting discovery run")

	plan := p.planner.Plan(ctx, name, sources.Names(p.registry))
	result.Debug.SearchQueries = plan
	result.Debug.SourcesSearched = sources.Names(p.registry)

	candidates := p.discoverer.Discover(ctx, p.registry, plan, name)
	result.TotalFound = len(candidates)
	result.Debug.CandidatesFound = len(candidates)
	if len(candidates) == 0 {
		result.Message = "No PDF documents found"
		p.logger.Info().Str("substance", name).Msg("no candidates discovered")
		return result
	}

	accepted := p.filterer.Filter(ctx, name, candidates)
	result.TotalRelevant = len(accepted)
	result.Debug.RelevantFound = len(accepted)
	if len(accepted) == 0 {
		result.Message = "No relevant PDF documents found"
		p.logger.Info().Str("substance", name).Int("candidates", len(candidates)).Msg("no candidates passed relevance filtering")
		return result
	}

	destDir, err := p.store.EnsureDir(slug)
	if err != nil {
		result.Status = types.StatusError
		result.ErrorType = "storage"
		result.Message = err.Error()
		return result
	}

	files := p.downloader.Download(ctx, accepted, destDir, slug)
	result.TotalDownloaded = len(files)
	result.Debug.FilesDownloaded = len(files)
	result.Hits = files
	if len(files) == 0 {
		result.Message = "No documents could be downloaded"
	}

	manifest := storage.Manifest{
		Substance:  name,
		Slug:       slug,
		FetchedAt:  started,
		Queries:    plan,
		Documents:  files,
		TotalFound: result.TotalFound,
	}
	if err := p.store.WriteManifest(manifest); err != nil {
		p.logger.Warn().Err(err).Str("slug", slug).Msg("failed to write manifest")
	}

	p.logger.Info().
		Str("substance", name).
		Int("found", result.TotalFound).
		Int("relevant", result.TotalRelevant).
		Int("downloaded", result.TotalDownloaded).
		Msg("discovery run finished")
	return result
}

// record persists the run outcome; history failures are logged, never fatal.
func (p *Pipeline) record(result types.PipelineResult) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(result); err != nil {
		p.logger.Warn().Err(err).Msg("failed to record run history")
	}
}
