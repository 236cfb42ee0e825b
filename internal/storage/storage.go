// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage manages the on-disk document area. Each substance owns one
// directory under the configured root, named by its slug, holding the
// downloaded PDFs and a manifest describing the run that produced them.
package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/regdoc-engine/pkg/types"
)

const manifestName = "manifest.yaml"

// Store is the document file area rooted at one directory.
type Store struct {
	root string
}

// New returns a Store rooted at root.
func New(root string) *Store {
	return &Store{root: root}
}

// Dir returns the substance directory path without creating it.
func (s *Store) Dir(slug string) string {
	return filepath.Join(s.root, slug)
}

// EnsureDir creates the substance directory and returns its path.
func (s *Store) EnsureDir(slug string) (string, error) {
	dir := s.Dir(slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating document dir: %w", err)
	}
	return dir, nil
}

// StoredFile describes one PDF in a substance directory.
type StoredFile struct {
	Name      string    `json:"name" yaml:"name"`
	SizeBytes int64     `json:"size_bytes" yaml:"size_bytes"`
	ModTime   time.Time `json:"modified" yaml:"modified"`
}

// ListFiles returns the PDFs stored for a substance, sorted by name. A
// substance that was never fetched has no directory and lists empty.
func (s *Store) ListFiles(slug string) ([]StoredFile, error) {
	entries, err := os.ReadDir(s.Dir(slug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading document dir: %w", err)
	}

	var files []StoredFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			Name:      entry.Name(),
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Manifest records what a pipeline run stored for a substance.
type Manifest struct {
	Substance  string                 `yaml:"substance"`
	Slug       string                 `yaml:"slug"`
	FetchedAt  time.Time              `yaml:"fetched_at"`
	Queries    types.SearchPlan       `yaml:"queries,omitempty"`
	Documents  []types.DownloadedFile `yaml:"documents"`
	TotalFound int                    `yaml:"total_found"`
}

// WriteManifest persists the manifest beside the documents.
func (s *Store) WriteManifest(m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(s.Dir(m.Slug), manifestName), data, 0o644)
}

// ReadManifest loads the manifest for a substance, or nil when none exists.
func (s *Store) ReadManifest(slug string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(slug), manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Archive zips the substance's PDFs into <slug>_documents.zip inside the
// substance directory and returns the archive path. A substance with no
// stored PDFs is an error.
func (s *Store) Archive(slug string) (string, error) {
	files, err := s.ListFiles(slug)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no documents stored for %s", slug)
	}

	dir := s.Dir(slug)
	archivePath := filepath.Join(dir, slug+"_documents.zip")
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, f := range files {
		if err := addToArchive(zw, filepath.Join(dir, f.Name), f.Name); err != nil {
			zw.Close()
			out.Close()
			os.Remove(archivePath)
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(archivePath)
		return "", fmt.Errorf("finalizing archive: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("closing archive: %w", err)
	}
	return archivePath, nil
}

func addToArchive(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}
	return nil
}
