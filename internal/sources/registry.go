// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources loads the regulatory source registry: a flat text file of
// "name;url" pairs, one per line. Blank lines and lines without a semicolon
// are ignored. A missing file yields an empty registry, not an error; a
// host with no registry simply has no sources to search.
package sources

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/regdoc-engine/pkg/types"
)

// Load reads the registry file at path. Order is preserved so crawl output
// is stable across runs.
func Load(path string) ([]types.SourceConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening source registry %s: %w", path, err)
	}
	defer f.Close()

	var registry []types.SourceConfig
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, url, ok := strings.Cut(line, ";")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		url = strings.TrimSpace(url)
		if name == "" || url == "" {
			continue
		}
		registry = append(registry, types.SourceConfig{Name: name, URL: url})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading source registry %s: %w", path, err)
	}

	return registry, nil
}

// Names returns the source names in registry order.
func Names(registry []types.SourceConfig) []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.Name
	}
	return names
}
