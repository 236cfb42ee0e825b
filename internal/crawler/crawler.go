// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawler discovers candidate PDF links on the configured regulatory
// sources. Each source is crawled by a per-source strategy; all sources run
// concurrently and one failing source never aborts the others.
package crawler

import (
	"context"
	"sync"

	"github.com/phuslu/log"

	"github.com/pdiddy/regdoc-engine/internal/httputil"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// Crawler fans substance discovery out across the source registry.
type Crawler struct {
	scanner *Scanner
	logger  *log.Logger
}

// New builds a Crawler from the crawl configuration.
func New(cfg types.CrawlConfig, logger *log.Logger) *Crawler {
	client := httputil.NewClient(cfg.Timeout)
	return &Crawler{
		scanner: NewScanner(client, cfg, logger),
		logger:  logger,
	}
}

// Discover crawls every registered source with its planned query and returns
// the merged, deduplicated candidate list. Sources run concurrently; a
// source that errors is logged and contributes nothing. Candidates are
// merged in registry order and deduplicated by URL, keeping the first
// occurrence so source attribution is preserved.
func (c *Crawler) Discover(ctx context.Context, registry []types.SourceConfig, plan types.SearchPlan, substanceName string) []types.PdfCandidate {
	perSource := make([][]types.PdfCandidate, len(registry))

	var wg sync.WaitGroup
	for i, source := range registry {
		wg.Add(1)
		go func(i int, source types.SourceConfig) {
			defer wg.Done()
			found, err := c.discoverOne(ctx, source, plan[source.Name], substanceName)
			if err != nil {
				c.logger.Warn().Err(err).Str("source", source.Name).Msg("source crawl failed")
				return
			}
			perSource[i] = found
		}(i, source)
	}
	wg.Wait()

	seen := make(map[string]bool)
	var merged []types.PdfCandidate
	for i := range perSource {
		for _, cand := range perSource[i] {
			if seen[cand.URL] {
				continue
			}
			seen[cand.URL] = true
			merged = append(merged, cand)
		}
	}
	return merged
}

// discoverOne runs one source's strategy and stamps the results with the
// source name.
func (c *Crawler) discoverOne(ctx context.Context, source types.SourceConfig, query, substanceName string) ([]types.PdfCandidate, error) {
	found, err := strategyFor(source.Name).Discover(ctx, c.scanner, source, query, substanceName)
	if err != nil {
		return nil, err
	}
	for i := range found {
		found[i].Source = source.Name
	}
	c.logger.Debug().Str("source", source.Name).Int("candidates", len(found)).Msg("source crawl finished")
	return found, nil
}
