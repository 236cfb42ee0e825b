// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext extracts sample text from remote PDFs for relevance
// assessment. Extraction runs through a tier cascade: structural extraction
// first, then layout-based extraction, then OCR as the last resort. A tier's
// output is accepted when it yields enough text; the final tier's output is
// taken as-is.
package pdftext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/pdiddy/regdoc-engine/internal/httputil"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// Extractor is one tier of the extraction cascade.
type Extractor interface {
	Name() string
	ExtractPages(pdfPath string, maxPages int) (string, error)
}

// Sampler downloads a PDF and extracts text from its leading pages.
type Sampler struct {
	client    *http.Client
	userAgent string
	throttle  *rate.Limiter
	minText   int
	tiers     []Extractor
	logger    *log.Logger
}

// NewSampler builds a Sampler with the standard tier cascade.
func NewSampler(cfg types.ExtractionConfig, logger *log.Logger) *Sampler {
	minText := cfg.MinTextLength
	if minText <= 0 {
		minText = 100
	}
	return &Sampler{
		client:    httputil.NewClient(cfg.Timeout),
		userAgent: cfg.UserAgent,
		throttle:  httputil.NewThrottle(cfg.ThrottleDelay),
		minText:   minText,
		tiers: []Extractor{
			structuralExtractor{},
			layoutExtractor{},
			newOCRExtractor(logger),
		},
		logger: logger,
	}
}

// WithTiers replaces the extraction cascade. Used by tests to substitute
// fake extractors.
func (s *Sampler) WithTiers(tiers ...Extractor) *Sampler {
	s.tiers = tiers
	return s
}

// ExtractSample downloads pdfURL and returns text from its first maxPages
// pages. Each download waits on the shared throttle so source sites see
// paced requests. A non-PDF response or a failed download is an error; a PDF
// that yields no text returns an empty sample and no error.
func (s *Sampler) ExtractSample(ctx context.Context, pdfURL string, maxPages int) (string, error) {
	if err := s.throttle.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := httputil.Get(ctx, s.client, pdfURL, s.userAgent)
	if err != nil {
		return "", fmt.Errorf("failed to fetch PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch PDF: status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/pdf") {
		return "", fmt.Errorf("not a PDF: content type %q", contentType)
	}

	tmp, err := os.CreateTemp("", "regdoc-sample-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to save PDF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to save PDF: %w", err)
	}

	return s.extractTiered(tmp.Name(), maxPages), nil
}

// extractTiered runs the cascade. A non-final tier must produce more than
// minText stripped characters to be accepted; the final tier's successful
// result stands regardless of length. When every tier is rejected the sample
// is empty: under-threshold text from an earlier tier is never returned.
func (s *Sampler) extractTiered(pdfPath string, maxPages int) string {
	for i, tier := range s.tiers {
		text, err := tier.ExtractPages(pdfPath, maxPages)
		if err != nil {
			s.logger.Debug().Err(err).Str("tier", tier.Name()).Msg("extraction tier failed")
			continue
		}
		if i < len(s.tiers)-1 && len(strings.TrimSpace(text)) <= s.minText {
			s.logger.Debug().Str("tier", tier.Name()).Int("chars", len(strings.TrimSpace(text))).Msg("extraction tier produced too little text")
			continue
		}
		return text
	}
	return ""
}
