// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/regdoc-engine/internal/ai"
	"github.com/pdiddy/regdoc-engine/internal/crawler"
	"github.com/pdiddy/regdoc-engine/internal/download"
	"github.com/pdiddy/regdoc-engine/internal/history"
	"github.com/pdiddy/regdoc-engine/internal/logging"
	"github.com/pdiddy/regdoc-engine/internal/pdftext"
	"github.com/pdiddy/regdoc-engine/internal/pipeline"
	"github.com/pdiddy/regdoc-engine/internal/planner"
	"github.com/pdiddy/regdoc-engine/internal/relevance"
	"github.com/pdiddy/regdoc-engine/internal/sources"
	"github.com/pdiddy/regdoc-engine/internal/storage"
	"github.com/pdiddy/regdoc-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research <substance>",
	Short: "Run the full document discovery pipeline for a substance",
	Long: `Research plans search queries for the active substance, crawls the
configured regulatory sources for candidate PDFs, filters candidates by AI
relevance assessment, and downloads the accepted documents into the
per-substance directory along with a manifest.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("api-key", "", "Anthropic API key (or .secrets/anthropic-api-key)")
	researchCmd.Flags().String("model", "", "AI model identifier")
	researchCmd.Flags().String("sources-file", "", "source registry file (default sources/registry.txt)")
	researchCmd.Flags().String("documents-dir", "", "document storage root (default documents)")
	researchCmd.Flags().Int("per-source-cap", 0, "maximum candidates collected per source (default 10)")
	researchCmd.Flags().Bool("json", false, "output the run result as JSON")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	logger := logging.New(level)

	apiKey, _ := cmd.Flags().GetString("api-key")
	cfg.Filter.APIKey = secretDefault("anthropic-api-key", apiKey)
	cfg.Planner.APIKey = cfg.Filter.APIKey
	if cfg.Filter.APIKey == "" {
		return fmt.Errorf("no Anthropic API key: pass --api-key or create .secrets/anthropic-api-key")
	}

	completions, err := ai.NewAnthropicClient(cfg.Filter.AIConfig)
	if err != nil {
		return fmt.Errorf("creating AI client: %w", err)
	}

	registry, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		return fmt.Errorf("loading source registry: %w", err)
	}

	store := storage.New(cfg.Storage.RootDir)
	historyStore, err := history.NewStore(cfg.Storage.HistoryDir)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer historyStore.Close()

	sampler := pdftext.NewSampler(cfg.Extraction, logger)

	p := pipeline.New(pipeline.Options{
		Planner:    planner.New(completions, logger),
		Discoverer: crawler.New(cfg.Crawl, logger),
		Filterer:   relevance.New(completions, sampler, cfg.Filter, logger),
		Downloader: download.New(cfg.Download, logger),
		Store:      store,
		Recorder:   historyStore,
		Registry:   registry,
		Logger:     logger,
	})

	result := p.Run(cmd.Context(), strings.Join(args, " "))

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(result)
	}

	if result.Status == types.StatusError {
		return fmt.Errorf("research failed: %s", result.Message)
	}
	return nil
}

func printResult(result types.PipelineResult) {
	fmt.Printf("Substance:  %s (%s)\n", result.Substance, result.Slug)
	fmt.Printf("Status:     %s\n", result.Status)
	if result.Message != "" {
		fmt.Printf("Message:    %s\n", result.Message)
	}
	fmt.Printf("Found:      %d candidates\n", result.TotalFound)
	fmt.Printf("Relevant:   %d\n", result.TotalRelevant)
	fmt.Printf("Downloaded: %d\n", result.TotalDownloaded)
	for _, f := range result.Hits {
		fmt.Printf("  %-14s %s (%d bytes)\n", f.Source, f.Filename, f.SizeBytes)
	}
	fmt.Printf("Duration:   %s\n", result.Duration.Round(10*time.Millisecond))
}

// buildConfig resolves the run configuration: shipped defaults, then config
// file values, then command line flags.
func buildConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if v := viper.GetString("sources_file"); v != "" {
		cfg.SourcesFile = v
	}
	if v := viper.GetString("documents_dir"); v != "" {
		cfg.Storage.RootDir = v
	}
	if v := viper.GetString("history_dir"); v != "" {
		cfg.Storage.HistoryDir = v
	}
	if v := viper.GetString("model"); v != "" {
		cfg.Planner.Model = v
		cfg.Filter.Model = v
	}
	if v := viper.GetInt("per_source_cap"); v > 0 {
		cfg.Crawl.PerSourceCap = v
	}

	if v, _ := cmd.Flags().GetString("sources-file"); v != "" {
		cfg.SourcesFile = v
	}
	if v, _ := cmd.Flags().GetString("documents-dir"); v != "" {
		cfg.Storage.RootDir = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Planner.Model = v
		cfg.Filter.Model = v
	}
	if v, _ := cmd.Flags().GetInt("per-source-cap"); v > 0 {
		cfg.Crawl.PerSourceCap = v
	}
	return cfg
}
