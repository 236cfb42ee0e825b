// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/regdoc-engine/internal/storage"
	"github.com/pdiddy/regdoc-engine/internal/substance"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <substance>",
	Short: "Bundle a substance's documents into a zip archive",
	Long: `Archive zips every PDF stored for the substance into
<slug>_documents.zip inside the substance directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().String("documents-dir", "", "document storage root (default documents)")

	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	name := substance.Normalize(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("substance name is empty")
	}

	store := storage.New(cfg.Storage.RootDir)
	path, err := store.Archive(substance.Slug(name))
	if err != nil {
		return err
	}
	fmt.Printf("Archive written: %s\n", path)
	return nil
}
