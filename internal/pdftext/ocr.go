// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phuslu/log"
)

const (
	binPdftoppm  = "pdftoppm"
	binTesseract = "tesseract"

	// ocrDPI balances recognition quality against render time.
	ocrDPI = "150"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) error
	RunOutput(name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (osExecutor) RunOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// ocrExtractor rasterizes pages with pdftoppm and recognizes them with
// tesseract. It is the slowest tier, reserved for scanned documents the
// other tiers cannot read.
type ocrExtractor struct {
	exec   executor
	logger *log.Logger
}

func newOCRExtractor(logger *log.Logger) ocrExtractor {
	return ocrExtractor{exec: osExecutor{}, logger: logger}
}

func (o ocrExtractor) Name() string { return "ocr" }

func (o ocrExtractor) ExtractPages(pdfPath string, maxPages int) (string, error) {
	for _, bin := range []string{binPdftoppm, binTesseract} {
		if _, err := o.exec.LookPath(bin); err != nil {
			return "", fmt.Errorf("ocr unavailable: %s not on PATH", bin)
		}
	}

	workDir, err := os.MkdirTemp("", "regdoc-ocr-")
	if err != nil {
		return "", fmt.Errorf("failed to create ocr dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	prefix := filepath.Join(workDir, "page")
	err = o.exec.Run(binPdftoppm,
		"-png", "-r", ocrDPI,
		"-f", "1", "-l", fmt.Sprintf("%d", maxPages),
		pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to rasterize PDF: %w", err)
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("no pages rasterized")
	}
	sort.Strings(images)

	var b strings.Builder
	for i, image := range images {
		out, err := o.exec.RunOutput(binTesseract, image, "stdout")
		if err != nil {
			o.logger.Debug().Err(err).Str("image", image).Msg("tesseract failed on page")
			continue
		}
		fmt.Fprintf(&b, "Page %d:\n%s\n\n", i+1, strings.TrimSpace(string(out)))
	}
	return b.String(), nil
}
