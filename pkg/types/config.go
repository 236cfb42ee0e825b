// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. Regulatory
	// sites block obvious bots, so the default is a browser-like string.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the completion length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// PlannerConfig holds settings for the query-planning stage.
type PlannerConfig struct {
	AIConfig `yaml:",inline"`
}

// CrawlConfig holds settings for per-source PDF discovery.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// PerSourceCap is the maximum number of candidates collected from one
	// source before its crawl stops early (default 10).
	PerSourceCap int `json:"per_source_cap" yaml:"per_source_cap"`
}

// ExtractionConfig holds settings for PDF text sampling.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// MinTextLength is the number of stripped characters a non-final
	// extraction tier must produce to be accepted (default 100).
	MinTextLength int `json:"min_text_length" yaml:"min_text_length"`

	// ThrottleDelay is the mandatory pause before each extraction download,
	// pacing requests to the source sites (default 1s).
	ThrottleDelay time.Duration `json:"throttle_delay" yaml:"throttle_delay"`
}

// FilterConfig holds settings for the relevance-filtering stage.
type FilterConfig struct {
	AIConfig `yaml:",inline"`

	// BatchSize is the number of candidates assessed concurrently (default 5).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// BatchDelay separates successive assessment batches (default 1s).
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay"`

	// SamplePages is the number of leading PDF pages sampled (default 3).
	SamplePages int `json:"sample_pages" yaml:"sample_pages"`

	// SampleChars caps the sample text passed to the AI (default 3000).
	SampleChars int `json:"sample_chars" yaml:"sample_chars"`

	// ConfidenceFloor is the exclusive lower bound on verdict confidence for
	// acceptance (default 0.3). The value has no documented derivation; it is
	// kept configurable rather than second-guessed.
	ConfidenceFloor float64 `json:"confidence_floor" yaml:"confidence_floor"`
}

// DownloadConfig holds settings for the download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// BatchSize is the number of files fetched concurrently (default 3).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// BatchDelay separates successive download batches (default 1s).
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay"`
}

// StorageConfig holds settings for the document file area.
type StorageConfig struct {
	// RootDir is the base directory; each substance gets RootDir/<slug>/.
	RootDir string `json:"root_dir" yaml:"root_dir"`

	// HistoryDir is the directory for the run-history database.
	HistoryDir string `json:"history_dir" yaml:"history_dir"`
}

// PipelineConfig groups all stage configurations for one pipeline run.
type PipelineConfig struct {
	SourcesFile string           `json:"sources_file" yaml:"sources_file"`
	Planner     PlannerConfig    `json:"planner" yaml:"planner"`
	Crawl       CrawlConfig      `json:"crawl" yaml:"crawl"`
	Extraction  ExtractionConfig `json:"extraction" yaml:"extraction"`
	Filter      FilterConfig     `json:"filter" yaml:"filter"`
	Download    DownloadConfig   `json:"download" yaml:"download"`
	Storage     StorageConfig    `json:"storage" yaml:"storage"`
}

// BrowserUserAgent is the default identification header. Several of the
// configured agencies serve error pages to unknown agents.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultPipelineConfig returns a PipelineConfig with every tunable at its
// shipped default.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SourcesFile: "sources/registry.txt",
		Planner: PlannerConfig{
			AIConfig: AIConfig{MaxTokens: 4096},
		},
		Crawl: CrawlConfig{
			HTTPConfig:   HTTPConfig{Timeout: 30 * time.Second, UserAgent: BrowserUserAgent},
			PerSourceCap: 10,
		},
		Extraction: ExtractionConfig{
			HTTPConfig:    HTTPConfig{Timeout: 60 * time.Second, UserAgent: BrowserUserAgent},
			MinTextLength: 100,
			ThrottleDelay: time.Second,
		},
		Filter: FilterConfig{
			AIConfig:        AIConfig{MaxTokens: 4096},
			BatchSize:       5,
			BatchDelay:      time.Second,
			SamplePages:     3,
			SampleChars:     3000,
			ConfidenceFloor: 0.3,
		},
		Download: DownloadConfig{
			HTTPConfig: HTTPConfig{Timeout: 60 * time.Second, UserAgent: BrowserUserAgent},
			BatchSize:  3,
			BatchDelay: time.Second,
		},
		Storage: StorageConfig{
			RootDir:    "documents",
			HistoryDir: "documents/index",
		},
	}
}
