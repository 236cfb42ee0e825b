// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/regdoc-engine/internal/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the configured regulatory sources",
	Long: `Sources prints the source registry the research command will crawl.
Each line of the registry file is "Name;URL"; blank lines and lines starting
with # are ignored.`,
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().String("sources-file", "", "source registry file (default sources/registry.txt)")

	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	registry, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		return err
	}
	if len(registry) == 0 {
		fmt.Printf("No sources configured (looked in %s)\n", cfg.SourcesFile)
		return nil
	}
	for _, src := range registry {
		fmt.Printf("%-16s %s\n", src.Name, src.URL)
	}
	return nil
}
