// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"

	"github.com/pdiddy/regdoc-engine/internal/httputil"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// pharmaKeywords is the fixed vocabulary that marks an anchor as potentially
// relevant when the substance name itself is absent.
var pharmaKeywords = []string{
	"approval", "assessment", "authorization", "summary", "product",
	"clinical", "safety", "efficacy", "medicine", "drug", "therapeutic",
	"indication", "dosage", "prescribing", "regulatory", "guidance",
}

// Scanner provides the page primitives shared by every source strategy:
// fetching, anchor resolution, PDF detection, and one-level link following.
type Scanner struct {
	client    *http.Client
	userAgent string
	cap       int
	logger    *log.Logger
}

// NewScanner builds a Scanner with the given crawl settings.
func NewScanner(client *http.Client, cfg types.CrawlConfig, logger *log.Logger) *Scanner {
	capacity := cfg.PerSourceCap
	if capacity <= 0 {
		capacity = 10
	}
	return &Scanner{
		client:    client,
		userAgent: cfg.UserAgent,
		cap:       capacity,
		logger:    logger,
	}
}

// Cap returns the per-source candidate limit.
func (s *Scanner) Cap() int { return s.cap }

// anchor is one <a href> with its visible text and resolved absolute URL.
type anchor struct {
	URL  string
	Text string
}

// FetchAnchors retrieves pageURL and returns its anchors with hrefs resolved
// against the page's own origin. A non-200 status yields no anchors and no
// error; that branch of the crawl simply has nothing to offer.
func (s *Scanner) FetchAnchors(ctx context.Context, pageURL string) ([]anchor, error) {
	resp, err := httputil.Get(ctx, s.client, pageURL, s.userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Debug().Str("url", pageURL).Int("status", resp.StatusCode).Msg("page fetch returned non-200")
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var anchors []anchor
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || shouldSkipHref(href) {
			return
		}
		resolved := resolveHref(base, href)
		if resolved == "" {
			return
		}
		anchors = append(anchors, anchor{
			URL:  resolved,
			Text: strings.TrimSpace(sel.Text()),
		})
	})
	return anchors, nil
}

// shouldSkipHref filters non-navigable links before resolution.
func shouldSkipHref(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	if h == "" || strings.HasPrefix(h, "#") {
		return true
	}
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:", "ftp:"} {
		if strings.HasPrefix(h, scheme) {
			return true
		}
	}
	return false
}

// resolveHref makes href absolute against the page's own origin. Relative
// and protocol-relative hrefs both resolve through the base URL.
func resolveHref(base *url.URL, href string) string {
	resolved, err := base.Parse(href)
	if err != nil || !resolved.IsAbs() {
		return ""
	}
	return resolved.String()
}

// IsPDFLink reports whether an href points at a PDF: a case-insensitive
// ".pdf" suffix on the path or a filetype=pdf query marker.
func IsPDFLink(href string) bool {
	lower := strings.ToLower(href)
	trimmed := lower
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.HasSuffix(trimmed, ".pdf") || strings.Contains(lower, "filetype=pdf")
}

// PotentiallyRelevant reports whether text mentions the substance name or
// any pharmaceutical keyword. Anchors failing this gate are not followed.
func PotentiallyRelevant(text, substanceName string) bool {
	lower := strings.ToLower(text)
	if substanceName != "" && strings.Contains(lower, strings.ToLower(substanceName)) {
		return true
	}
	for _, kw := range pharmaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// PDFLinksOn fetches pageURL and returns its potentially relevant PDF
// anchors as candidates. Fetch and parse failures are absorbed: a page that
// cannot be read contributes nothing.
func (s *Scanner) PDFLinksOn(ctx context.Context, pageURL, substanceName string) []types.PdfCandidate {
	anchors, err := s.FetchAnchors(ctx, pageURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("failed to scan page for PDF links")
		return nil
	}

	var candidates []types.PdfCandidate
	for _, a := range anchors {
		if !IsPDFLink(a.URL) {
			continue
		}
		title := a.Text
		if title == "" {
			title = "Document"
		}
		if !PotentiallyRelevant(title+" "+a.URL, substanceName) {
			continue
		}
		candidates = append(candidates, types.PdfCandidate{
			URL:     a.URL,
			Title:   title,
			FoundOn: pageURL,
		})
	}
	return candidates
}

// Follow visits a linked page one level down and collects its PDF links,
// but only within the same network location as the page it was found on.
func (s *Scanner) Follow(ctx context.Context, fromURL, linkURL, substanceName string) []types.PdfCandidate {
	from, err := url.Parse(fromURL)
	if err != nil {
		return nil
	}
	to, err := url.Parse(linkURL)
	if err != nil || to.Host != from.Host {
		return nil
	}
	return s.PDFLinksOn(ctx, linkURL, substanceName)
}
