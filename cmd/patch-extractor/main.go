package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	patchextractor "github.com/menta2k/patch-extractor"
	"github.com/menta2k/patch-extractor/pkg/config"
	"github.com/menta2k/patch-extractor/pkg/job"
)

func main() {
	var cfgPath, saveCfg string
	var src, dst, ext string
	var pw, ph, sx, sy, maxPatches, quality int
	var minCoverage float64
	var borders, dryRun, lossless, verbose bool

	flag.StringVar(&cfgPath, "config", "", "JSON config file (flags override it)")
	flag.StringVar(&saveCfg, "save-config", "", "write the effective config to this path and exit")

	flag.StringVar(&src, "src", "", "source root containing the images and masks subtrees")
	flag.StringVar(&dst, "dst", "", "destination root for extracted patches")
	flag.IntVar(&pw, "patch-width", 256, "patch width in pixels")
	flag.IntVar(&ph, "patch-height", 256, "patch height in pixels")
	flag.IntVar(&sx, "stride-x", 256, "horizontal stride in pixels")
	flag.IntVar(&sy, "stride-y", 256, "vertical stride in pixels")
	flag.Float64Var(&minCoverage, "coverage", 0.0, "minimum mask foreground fraction (0..1)")
	flag.IntVar(&maxPatches, "max-patches", 0, "maximum accepted patches per image, 0=unlimited")
	flag.BoolVar(&borders, "borders", true, "include clamped border patches")
	flag.BoolVar(&dryRun, "dry-run", false, "compute statistics without writing files")

	flag.StringVar(&ext, "ext", "png", "output format for patches: png|jpg|tif|webp")
	flag.IntVar(&quality, "quality", 90, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode")
	flag.BoolVar(&verbose, "v", false, "verbose progress logging")

	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	// Flags set on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "src":
			cfg.SourceRoot = src
		case "dst":
			cfg.DestinationRoot = dst
		case "patch-width":
			cfg.PatchWidth = pw
		case "patch-height":
			cfg.PatchHeight = ph
		case "stride-x":
			cfg.StrideX = sx
		case "stride-y":
			cfg.StrideY = sy
		case "coverage":
			cfg.MinimumCoverage = minCoverage
		case "max-patches":
			cfg.MaxPatchesPerImage = maxPatches
		case "borders":
			cfg.IncludeBorderPatches = borders
		case "dry-run":
			cfg.DryRun = dryRun
		case "ext":
			cfg.SaveFormat = ext
		case "quality":
			cfg.Quality = quality
		case "lossless":
			cfg.Lossless = lossless
		}
	})

	if saveCfg != "" {
		if err := cfg.SaveToFile(saveCfg); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", saveCfg)
		return
	}

	if cfg.SourceRoot == "" {
		log.Fatalf("usage: %s -src dataset_root [-dst patch_root] [-patch-width N] [-coverage 0.05] [-dry-run]",
			filepath.Base(os.Args[0]))
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := patchextractor.NewLogger(level)

	pe := patchextractor.NewWithConfig(cfg, logger)
	ctrl, err := pe.NewJob()
	if err != nil {
		log.Fatal(err)
	}

	pairs, warnings, err := pe.Scan()
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range warnings {
		log.Printf("warning: %s", w)
	}
	log.Printf("found %d pairs under %s", len(pairs), cfg.SourceRoot)

	if err := ctrl.Start(pairs); err != nil {
		log.Fatal(err)
	}

	// Poll the event bus until the job reaches a terminal state.
	var since int64
	for !ctrl.State().Terminal() {
		for _, ev := range ctrl.Events().Since(since) {
			since = ev.Seq
			printEvent(ev)
		}
		time.Sleep(200 * time.Millisecond)
	}
	for _, ev := range ctrl.Events().Since(since) {
		since = ev.Seq
		printEvent(ev)
	}

	state, report := ctrl.Wait()
	js, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(js))
	if err := ctrl.Err(); err != nil {
		log.Fatalf("job %s: %v", state, err)
	}
	log.Printf("job %s: %d patches written from %d pairs", state, report.PatchesWritten, report.PairsProcessed)
}

// printEvent renders one bus event as a log line.
func printEvent(ev job.Event) {
	switch ev.Type {
	case job.EventTypeProgress:
		log.Printf("[%d/%d] %s: %d patches", ev.PairIndex, ev.PairTotal, ev.PairStem, ev.Patches)
	case job.EventTypeWarning:
		log.Printf("warning: %s", ev.Message)
	case job.EventTypeState:
		log.Printf("state: %s", ev.State)
	case job.EventTypeDone:
		log.Printf("done: %s", ev.State)
	}
}
