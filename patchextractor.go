// Package patchextractor extracts fixed-size rectangular patches from
// paired image/mask rasters for building computer-vision training datasets.
//
// The engine scans a source root for stem-matched image/mask pairs, plans a
// sliding-window grid of patch origins per pair, filters candidates by mask
// foreground coverage, enforces a deterministic per-image patch cap, and
// writes accepted crops to a mirrored destination tree. A job can be
// paused, resumed, or cancelled at patch boundaries while it reports live
// progress and aggregate statistics, and a dry run produces the full
// statistics report without touching the filesystem.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		patchextractor "github.com/menta2k/patch-extractor"
//		"github.com/menta2k/patch-extractor/pkg/config"
//	)
//
//	func main() {
//		cfg := config.Default()
//		cfg.SourceRoot = "dataset"
//		cfg.DestinationRoot = "patches"
//		cfg.PatchWidth, cfg.PatchHeight = 256, 256
//		cfg.StrideX, cfg.StrideY = 128, 128
//		cfg.MinimumCoverage = 0.05
//
//		pe := patchextractor.NewWithConfig(cfg, nil)
//		report, err := pe.Run()
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("accepted %d of %d candidates\n", report.Accepted, report.Candidates)
//	}
//
// The package consists of five main components:
//
// 1. Scanner (pkg/dataset): pairs image and mask files by filename stem
// 2. Planner (pkg/grid): row-major sliding-window origins with border clamp
// 3. Filter (pkg/coverage): foreground-fraction threshold and per-image cap
// 4. Writer (pkg/writer): atomic paired crops under the destination root
// 5. Controller (pkg/job): the pause/resume/cancel state machine and events
//
// Within a pair, patches are always evaluated in planner order, so caps and
// statistics are reproducible run to run; pairs are processed in scanner
// order (sorted by stem).
package patchextractor

import (
	"log/slog"
	"os"

	"github.com/menta2k/patch-extractor/pkg/config"
	"github.com/menta2k/patch-extractor/pkg/dataset"
	"github.com/menta2k/patch-extractor/pkg/job"
	"github.com/menta2k/patch-extractor/pkg/types"
)

// Version of the patch extractor library
const Version = "1.0.0"

// PatchExtractor provides a high-level interface over the scanner and the
// extraction job controller.
type PatchExtractor struct {
	cfg *config.ExtractionConfig
	log *slog.Logger
}

// New creates a PatchExtractor with default configuration
func New() *PatchExtractor {
	return NewWithConfig(config.Default(), nil)
}

// NewWithConfig creates a PatchExtractor with custom configuration. A nil
// logger falls back to slog.Default.
func NewWithConfig(cfg *config.ExtractionConfig, logger *slog.Logger) *PatchExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatchExtractor{cfg: cfg, log: logger}
}

// NewLogger returns a structured slog.Logger with the given level.
func NewLogger(level slog.Leveler) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Scan discovers dataset pairs under the configured source root. Unmatched
// files come back as warnings, not errors.
func (pe *PatchExtractor) Scan() ([]types.DatasetPair, []string, error) {
	s := dataset.New(pe.cfg.SourceRoot, pe.cfg.ImagesSubdir, pe.cfg.MasksSubdir, pe.cfg.RasterExtensions)
	return s.Scan()
}

// NewJob validates the configuration and creates a fresh job controller.
func (pe *PatchExtractor) NewJob() (*job.Controller, error) {
	return job.New(pe.cfg, pe.log)
}

// Run scans the source root, runs one extraction job to completion, and
// returns the final statistics report. Per-pair failures are absorbed into
// the report; only scan or job-fatal errors are returned.
func (pe *PatchExtractor) Run() (types.JobStatistics, error) {
	ctrl, err := pe.NewJob()
	if err != nil {
		return types.JobStatistics{}, err
	}

	pairs, warnings, err := pe.Scan()
	if err != nil {
		return types.JobStatistics{}, err
	}
	for _, w := range warnings {
		pe.log.Warn("scan warning", "detail", w)
	}

	if err := ctrl.Start(pairs); err != nil {
		return types.JobStatistics{}, err
	}
	state, report := ctrl.Wait()
	if state == job.StateFailed {
		return report, ctrl.Err()
	}
	return report, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
