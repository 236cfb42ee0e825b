// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner produces per-source search terms for a substance. It asks
// the AI completion service for a structured plan and degrades to a
// deterministic generic query when the call fails in any way, so the
// pipeline always gets a full plan, one term per source.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/pdiddy/regdoc-engine/internal/ai"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// planSystemPrompt describes the search semantics of each shipped source so
// the model emits terms suited to that source's search interface.
const planSystemPrompt = `You are an expert regulatory-document search assistant that knows how to navigate specific regulatory search interfaces.

For each source, generate the appropriate search strategy:

1. EPAR - EMA's medicine search page with filters already applied. Search for the substance name to find European Public Assessment Reports.
2. EMA-PSBG - EMA's Product-Specific Bioequivalence Guidance page. Look for the substance name in guidance documents.
3. FDA-Approvals - FDA's drug approval database. Search for the substance name to find approval letters and reviews.
4. FDA-PSBG - FDA's Product-Specific Guidance database. Search for the substance name in guidance documents.

These are landing pages with search functionality. Provide the simple search term that would be entered into the search box on each page.

Return a JSON object with a "search_queries" field mapping each source name to its search term.`

// sourceDomains maps shipped source names to the site: domain used in the
// deterministic fallback query.
var sourceDomains = map[string]string{
	"EPAR":          "ema.europa.eu",
	"EMA-PSBG":      "ema.europa.eu",
	"FDA-Approvals": "accessdata.fda.gov",
	"FDA-PSBG":      "accessdata.fda.gov",
}

// Planner generates search plans via an AI completion client.
type Planner struct {
	completions ai.Completions
	logger      *log.Logger
}

// New returns a Planner backed by the given completion client.
func New(completions ai.Completions, logger *log.Logger) *Planner {
	return &Planner{completions: completions, logger: logger}
}

// Plan returns a SearchPlan with exactly one term per source. It never
// returns an error: AI failure, a malformed response, or a plan missing a
// source all degrade to the fallback term for the affected sources.
func (p *Planner) Plan(ctx context.Context, substanceName string, sourceNames []string) types.SearchPlan {
	plan := p.aiPlan(ctx, substanceName, sourceNames)
	if plan == nil {
		plan = types.SearchPlan{}
	}

	for _, source := range sourceNames {
		if term, ok := plan[source]; ok && strings.TrimSpace(term) != "" {
			continue
		}
		plan[source] = FallbackQuery(substanceName, source)
	}

	// Drop terms for sources that are not configured.
	for source := range plan {
		known := false
		for _, name := range sourceNames {
			if name == source {
				known = true
				break
			}
		}
		if !known {
			delete(plan, source)
		}
	}

	return plan
}

// aiPlan asks the completion service for a plan. Returns nil when the call
// or the parse fails.
func (p *Planner) aiPlan(ctx context.Context, substanceName string, sourceNames []string) types.SearchPlan {
	if p.completions == nil {
		return nil
	}

	user := fmt.Sprintf("Substance = %q\nSources = %s\n\nFor each source, provide the search term that should be entered into its search interface to find regulatory documents for this pharmaceutical ingredient.",
		substanceName, strings.Join(sourceNames, ", "))

	raw, err := p.completions.CompleteJSON(ctx, planSystemPrompt, user)
	if err != nil {
		p.logger.Warn().Err(err).Str("substance", substanceName).Msg("query planning failed, using fallback queries")
		return nil
	}

	return parsePlan(raw, p.logger)
}

// parsePlan reads the completion object. The expected shape is
// {"search_queries": {source: term}}; a bare non-empty object of string
// values is accepted as the mapping itself.
func parsePlan(raw json.RawMessage, logger *log.Logger) types.SearchPlan {
	var envelope struct {
		SearchQueries map[string]string `json:"search_queries"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.SearchQueries) > 0 {
		return types.SearchPlan(envelope.SearchQueries)
	}

	var bare map[string]string
	if err := json.Unmarshal(raw, &bare); err == nil && len(bare) > 0 {
		return types.SearchPlan(bare)
	}

	logger.Warn().Msg("query plan response had no usable search_queries mapping")
	return nil
}

// FallbackQuery is the deterministic per-source query used when AI planning
// is unavailable.
func FallbackQuery(substanceName, source string) string {
	return fmt.Sprintf("%q approval filetype:pdf site:%s", substanceName, domainFor(source))
}

// domainFor looks up the source's domain, synthesizing one from the source
// name when it is not in the shipped table.
func domainFor(source string) string {
	if domain, ok := sourceDomains[source]; ok {
		return domain
	}
	synthesized := strings.ToLower(source)
	synthesized = strings.ReplaceAll(synthesized, " ", "")
	synthesized = strings.ReplaceAll(synthesized, "-", "")
	return synthesized
}
