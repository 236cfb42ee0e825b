// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/regdoc-engine/internal/history"
	"github.com/pdiddy/regdoc-engine/internal/storage"
	"github.com/pdiddy/regdoc-engine/internal/substance"
)

var filesCmd = &cobra.Command{
	Use:   "files <substance>",
	Short: "List the documents stored for a substance",
	Long: `Files lists the PDFs previously downloaded for a substance, with sizes,
plus the outcome of the most recent discovery run when a run history exists.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFiles,
}

func init() {
	filesCmd.Flags().String("documents-dir", "", "document storage root (default documents)")

	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	name := substance.Normalize(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("substance name is empty")
	}
	slug := substance.Slug(name)

	store := storage.New(cfg.Storage.RootDir)
	files, err := store.ListFiles(slug)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No documents stored for %s\n", name)
		return nil
	}

	fmt.Printf("Documents for %s (%s):\n", name, slug)
	var total int64
	for _, f := range files {
		fmt.Printf("  %-60s %8d bytes\n", f.Name, f.SizeBytes)
		total += f.SizeBytes
	}
	fmt.Printf("%d file(s), %d bytes total\n", len(files), total)

	if historyStore, err := history.NewStore(cfg.Storage.HistoryDir); err == nil {
		defer historyStore.Close()
		if run, err := historyStore.Latest(slug); err == nil && run != nil {
			fmt.Printf("Last run: %s, %d downloaded, %s\n",
				run.StartedAt.Format("2006-01-02 15:04"), run.TotalDownloaded, run.Status)
		}
	}
	return nil
}
