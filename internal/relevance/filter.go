// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance decides which discovered PDF candidates actually concern
// the requested substance. Each candidate's leading pages are sampled and an
// AI verdict is obtained; candidates are assessed in small concurrent
// batches with a pause between batches.
package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/phuslu/log"

	"github.com/pdiddy/regdoc-engine/internal/ai"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

const assessSystemPrompt = `You assess pharmaceutical regulatory documents.
Given the opening pages of a PDF found on a regulatory source, judge whether
the document is regulatory documentation about the named active substance.
Consider whether the text mentions the substance name or a close synonym,
whether it reads like an official regulatory document (approval letter,
assessment report, authorization, product-specific guidance), and whether it
carries clinical, safety, or efficacy content.

Respond with a JSON object of the form
{"relevance": "high"|"medium"|"low", "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}.`

// Sampler extracts sample text from a remote PDF.
type Sampler interface {
	ExtractSample(ctx context.Context, pdfURL string, maxPages int) (string, error)
}

// Filter runs AI relevance assessment over candidate batches.
type Filter struct {
	completions ai.Completions
	sampler     Sampler
	cfg         types.FilterConfig
	logger      *log.Logger
}

// New builds a Filter. Zero-valued tunables fall back to their defaults.
func New(completions ai.Completions, sampler Sampler, cfg types.FilterConfig, logger *log.Logger) *Filter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.SamplePages <= 0 {
		cfg.SamplePages = 3
	}
	if cfg.SampleChars <= 0 {
		cfg.SampleChars = 3000
	}
	return &Filter{completions: completions, sampler: sampler, cfg: cfg, logger: logger}
}

// Filter assesses every candidate and returns the accepted ones in their
// original order. A candidate whose sample cannot be extracted or whose
// assessment fails is rejected, never guessed relevant.
func (f *Filter) Filter(ctx context.Context, substanceName string, candidates []types.PdfCandidate) []types.PdfCandidate {
	verdicts := make([]types.RelevanceVerdict, len(candidates))

	for start := 0; start < len(candidates); start += f.cfg.BatchSize {
		if start > 0 && f.cfg.BatchDelay > 0 {
			time.Sleep(f.cfg.BatchDelay)
		}
		end := start + f.cfg.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				verdicts[i] = f.assess(ctx, substanceName, candidates[i])
			}(i)
		}
		wg.Wait()
	}

	var accepted []types.PdfCandidate
	for i, v := range verdicts {
		if v.Accepted(f.cfg.ConfidenceFloor) {
			accepted = append(accepted, candidates[i])
		}
	}
	return accepted
}

// assess samples one candidate and obtains its verdict. Any failure on the
// way yields a low-relevance verdict.
func (f *Filter) assess(ctx context.Context, substanceName string, candidate types.PdfCandidate) types.RelevanceVerdict {
	reject := func(reason string) types.RelevanceVerdict {
		return types.RelevanceVerdict{Relevance: types.RelevanceLow, Confidence: 0, Reasoning: reason}
	}

	sample, err := f.sampler.ExtractSample(ctx, candidate.URL, f.cfg.SamplePages)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", candidate.URL).Msg("sample extraction failed")
		return reject("sample extraction failed")
	}
	sample = strings.TrimSpace(sample)
	if sample == "" {
		f.logger.Debug().Str("url", candidate.URL).Msg("no text extracted from candidate")
		return reject("no readable text")
	}
	sample = truncateRunes(sample, f.cfg.SampleChars)

	user := fmt.Sprintf("Active substance: %s\nDocument title: %s\nFound on: %s\n\nDocument sample:\n%s",
		substanceName, candidate.Title, candidate.Source, sample)

	reply, err := f.completions.CompleteJSON(ctx, assessSystemPrompt, user)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", candidate.URL).Msg("relevance assessment failed")
		return reject("assessment unavailable")
	}

	verdict, err := parseVerdict(reply)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", candidate.URL).Msg("unparseable relevance verdict")
		return reject("assessment unavailable")
	}
	f.logger.Debug().
		Str("url", candidate.URL).
		Str("relevance", string(verdict.Relevance)).
		Float64("confidence", verdict.Confidence).
		Msg("candidate assessed")
	return verdict
}

// truncateRunes caps s at max bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// parseVerdict decodes and validates a model verdict object.
func parseVerdict(reply json.RawMessage) (types.RelevanceVerdict, error) {
	var v types.RelevanceVerdict
	if err := json.Unmarshal(reply, &v); err != nil {
		return types.RelevanceVerdict{}, fmt.Errorf("malformed verdict: %w", err)
	}
	v.Relevance = types.Relevance(strings.ToLower(string(v.Relevance)))
	switch v.Relevance {
	case types.RelevanceHigh, types.RelevanceMedium, types.RelevanceLow:
	default:
		return types.RelevanceVerdict{}, fmt.Errorf("unknown relevance %q", v.Relevance)
	}
	return v, nil
}
