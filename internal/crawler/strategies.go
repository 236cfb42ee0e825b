// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawler

import (
	"context"
	"net/url"
	"strings"

	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// Strategy selects the crawl behavior for one configured source. Each
// strategy receives the planned query and the normalized substance name and
// returns candidates discovered on that source, at most Scanner.Cap of them.
type Strategy interface {
	Discover(ctx context.Context, s *Scanner, source types.SourceConfig, query, substanceName string) ([]types.PdfCandidate, error)
}

// strategyFor maps a source name to its strategy. Unknown names fall back to
// a direct scan of the source landing page.
func strategyFor(name string) Strategy {
	switch name {
	case "EPAR":
		return eparStrategy{}
	case "EMA-PSBG":
		return emaGuidanceStrategy{}
	case "FDA-Approvals":
		return fdaApprovalsStrategy{}
	case "FDA-PSBG":
		return fdaGuidanceStrategy{}
	default:
		return genericStrategy{}
	}
}

// eparStrategy searches the EMA medicines listing with a full-text query,
// then follows report links one level down for their PDFs.
type eparStrategy struct{}

func (eparStrategy) Discover(ctx context.Context, s *Scanner, source types.SourceConfig, query, substanceName string) ([]types.PdfCandidate, error) {
	searchURL := withQueryParam(source.URL, "search_api_fulltext", query)
	anchors, err := s.FetchAnchors(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	substance := strings.ToLower(substanceName)
	var found []types.PdfCandidate
	for _, a := range anchors {
		if len(found) >= s.Cap() {
			break
		}
		text := strings.ToLower(a.Text)
		if !strings.Contains(text, substance) && !strings.Contains(text, "epar") && !strings.Contains(text, "assessment") {
			continue
		}
		found = appendCapped(found, s.Follow(ctx, searchURL, a.URL, substanceName), s.Cap())
	}
	return found, nil
}

// emaGuidanceStrategy scans the product-specific bioequivalence guidance
// listing. Matching anchors that are PDFs are taken directly; others are
// followed one level.
type emaGuidanceStrategy struct{}

func (emaGuidanceStrategy) Discover(ctx context.Context, s *Scanner, source types.SourceConfig, query, substanceName string) ([]types.PdfCandidate, error) {
	return scanListing(ctx, s, source, substanceName, []string{"guidance", "bioequivalence", "product-specific"})
}

// fdaApprovalsStrategy scans the Drugs@FDA landing page for anchors naming
// the substance and follows them for their PDFs.
type fdaApprovalsStrategy struct{}

func (fdaApprovalsStrategy) Discover(ctx context.Context, s *Scanner, source types.SourceConfig, query, substanceName string) ([]types.PdfCandidate, error) {
	anchors, err := s.FetchAnchors(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	substance := strings.ToLower(substanceName)
	var found []types.PdfCandidate
	for _, a := range anchors {
		if len(found) >= s.Cap() {
			break
		}
		if !strings.Contains(strings.ToLower(a.Text), substance) {
			continue
		}
		if IsPDFLink(a.URL) {
			found = appendCapped(found, []types.PdfCandidate{{URL: a.URL, Title: anchorTitle(a), FoundOn: source.URL}}, s.Cap())
			continue
		}
		found = appendCapped(found, s.Follow(ctx, source.URL, a.URL, substanceName), s.Cap())
	}
	return found, nil
}

// fdaGuidanceStrategy scans the FDA product-specific guidance listing for
// anchors naming the substance or marked as guidance.
type fdaGuidanceStrategy struct{}

func (fdaGuidanceStrategy) Discover(ctx context.Context, s *Scanner, source types.SourceConfig, query, substanceName string) ([]types.PdfCandidate, error) {
	return scanListing(ctx, s, source, substanceName, []string{"guidance"})
}

// genericStrategy scans the source landing page itself for relevant PDF
// links. Sources without dedicated handling get this behavior.
type genericStrategy struct{}

func (genericStrategy) Discover(ctx context.Context, s *Scanner, source types.SourceConfig, query, substanceName string) ([]types.PdfCandidate, error) {
	found := s.PDFLinksOn(ctx, source.URL, substanceName)
	if len(found) > s.Cap() {
		found = found[:s.Cap()]
	}
	return found, nil
}

// scanListing implements the shared listing walk: anchors matching the
// substance name or one of the keywords yield their PDF directly or are
// followed one level for PDFs.
func scanListing(ctx context.Context, s *Scanner, source types.SourceConfig, substanceName string, keywords []string) ([]types.PdfCandidate, error) {
	anchors, err := s.FetchAnchors(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	substance := strings.ToLower(substanceName)
	var found []types.PdfCandidate
	for _, a := range anchors {
		if len(found) >= s.Cap() {
			break
		}
		text := strings.ToLower(a.Text)
		matched := strings.Contains(text, substance)
		for _, kw := range keywords {
			if matched {
				break
			}
			matched = strings.Contains(text, kw)
		}
		if !matched {
			continue
		}
		if IsPDFLink(a.URL) {
			found = appendCapped(found, []types.PdfCandidate{{URL: a.URL, Title: anchorTitle(a), FoundOn: source.URL}}, s.Cap())
			continue
		}
		found = appendCapped(found, s.Follow(ctx, source.URL, a.URL, substanceName), s.Cap())
	}
	return found, nil
}

func anchorTitle(a anchor) string {
	if a.Text == "" {
		return "Document"
	}
	return a.Text
}

func appendCapped(dst, src []types.PdfCandidate, capacity int) []types.PdfCandidate {
	for _, c := range src {
		if len(dst) >= capacity {
			break
		}
		dst = append(dst, c)
	}
	return dst
}

// withQueryParam appends key=value to a URL, using "?" or "&" as the URL
// already requires.
func withQueryParam(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + key + "=" + url.QueryEscape(value)
}
