// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data model shared by the discovery pipeline
// stages: source configuration, search plans, PDF candidates, relevance
// verdicts, downloaded-file records, and the aggregate run result.
package types

import "time"

// SourceConfig names one external regulatory source and its base search or
// listing URL. The registry is loaded once per run and is immutable after.
type SourceConfig struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// SearchPlan maps source name to the search term the crawler should use for
// that source. The planner guarantees one entry per configured source.
type SearchPlan map[string]string

// PdfCandidate is a discovered PDF link that has not yet been judged for
// relevance. URL is the deduplication key: candidates are unique by exact
// URL within one pipeline run.
type PdfCandidate struct {
	// URL is the absolute PDF location.
	URL string `json:"url" yaml:"url"`

	// Title is the anchor text the link was found under, or "Document".
	Title string `json:"title" yaml:"title"`

	// Source is the registry name of the source that produced the candidate.
	Source string `json:"source" yaml:"source"`

	// FoundOn is the page the link was discovered on.
	FoundOn string `json:"found_on" yaml:"found_on"`
}

// Relevance grades a document's pertinence to the target substance.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

// RelevanceVerdict is the AI assessment of one candidate's text sample.
type RelevanceVerdict struct {
	Relevance  Relevance `json:"relevance" yaml:"relevance"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	Reasoning  string    `json:"reasoning" yaml:"reasoning"`
}

// Accepted reports whether the verdict clears the acceptance predicate:
// relevance high or medium, and confidence strictly above the floor.
func (v RelevanceVerdict) Accepted(confidenceFloor float64) bool {
	if v.Relevance != RelevanceHigh && v.Relevance != RelevanceMedium {
		return false
	}
	return v.Confidence > confidenceFloor
}

// DownloadedFile records one PDF persisted to the substance's directory.
// A record exists only after the byte-for-byte save succeeded.
type DownloadedFile struct {
	Source      string `json:"source" yaml:"source"`
	Title       string `json:"title" yaml:"title"`
	Filename    string `json:"filename" yaml:"filename"`
	StoredURL   string `json:"url" yaml:"url"`
	OriginalURL string `json:"original_url" yaml:"original_url"`
	SizeBytes   int64  `json:"size_bytes" yaml:"size_bytes"`
}

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusError     RunStatus = "error"
)

// DebugTrace carries per-stage counters and the search terms used, for
// diagnosing runs that return fewer documents than expected.
type DebugTrace struct {
	SourcesSearched []string   `json:"sources_searched" yaml:"sources_searched"`
	SearchQueries   SearchPlan `json:"search_queries" yaml:"search_queries"`
	CandidatesFound int        `json:"pdf_candidates_found" yaml:"pdf_candidates_found"`
	RelevantFound   int        `json:"relevant_pdfs_found" yaml:"relevant_pdfs_found"`
	FilesDownloaded int        `json:"files_downloaded" yaml:"files_downloaded"`
}

// PipelineResult is the aggregate outcome of one discovery run. It is
// constructed once per run and never merged across runs. Counts satisfy
// TotalDownloaded <= TotalRelevant <= TotalFound.
type PipelineResult struct {
	Status    RunStatus `json:"status" yaml:"status"`
	Substance string    `json:"substance" yaml:"substance"`
	Slug      string    `json:"slug,omitempty" yaml:"slug,omitempty"`

	// Message explains empty or failed runs; empty on a productive run.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// ErrorType categorizes the failure when Status is StatusError.
	ErrorType string `json:"error_type,omitempty" yaml:"error_type,omitempty"`

	TotalFound      int              `json:"total_found" yaml:"total_found"`
	TotalRelevant   int              `json:"total_relevant" yaml:"total_relevant"`
	TotalDownloaded int              `json:"total_downloaded" yaml:"total_downloaded"`
	Hits            []DownloadedFile `json:"hits" yaml:"hits"`

	StartedAt time.Time  `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	Debug DebugTrace `json:"debug_info" yaml:"debug_info"`
}
