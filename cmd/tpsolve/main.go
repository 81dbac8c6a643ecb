package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"worlds-collide/internal/batch"
	"worlds-collide/internal/config"
	"worlds-collide/internal/snapshot"
	"worlds-collide/internal/watch"
	"worlds-collide/internal/zonedata"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.yaml file")
	targetsFile := flag.String("targets", "targets.yaml", "Target list to solve")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	dataDir := flag.String("data", "", "Zone data directory (default: auto-detect Data/GameData)")
	outputDir := flag.String("output", "", "Output directory (default: tp-solves next to the data)")
	format := flag.String("format", "", "Snapshot format: webp, tga, png or none (default: webp)")
	watchMode := flag.Bool("watch", false, "Re-solve when zone data or the target list changes")
	verbose := flag.Bool("v", false, "Log projection and solver details")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		DataDir:   *dataDir,
		OutputDir: *outputDir,
		Format:    *format,
		Workers:   *workers,
	})

	if cfg.DataDir == "" {
		fmt.Fprintln(os.Stderr, "Error: cannot find zone data. Use -data flag or config.yaml.")
		os.Exit(1)
	}
	snapFormat, err := snapshot.ParseFormat(cfg.Snapshot.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir := zonedata.NewDir(cfg.DataDir)
	fmt.Printf("Zones: %d indexed in %s\n", dir.Zones(), cfg.DataDir)

	opts := cfg.TeleportOptions()
	if *verbose {
		opts.Logger = log.New(os.Stderr, "[solver] ", log.LstdFlags)
	}
	batchCfg := batch.Config{
		Source:       dir,
		OutputDir:    cfg.OutputDir,
		Format:       snapFormat,
		SnapshotSize: cfg.Snapshot.Size,
		Workers:      cfg.Workers,
		Options:      opts,
		Logger:       log.New(os.Stdout, "  ", 0),
		Progress:     2 * time.Second,
	}

	failed := solveAll(ctx, batchCfg, *targetsFile)
	if !*watchMode {
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	w, err := watch.New(watch.DefaultDebounce, cfg.DataDir, filepath.Dir(*targetsFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: watch: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()
	fmt.Println("Watching for changes (Ctrl-C to stop)...")

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.Errors:
			fmt.Fprintf(os.Stderr, "Warning: watch: %v\n", err)
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			if watch.IsZoneFile(name) {
				dir.Reload()
			} else if filepath.Clean(name) != filepath.Clean(*targetsFile) {
				continue
			}
			fmt.Printf("\nChanged: %s\n", name)
			solveAll(ctx, batchCfg, *targetsFile)
		}
	}
}

// solveAll runs one batch over the target list and returns the failure count.
func solveAll(ctx context.Context, cfg batch.Config, targetsFile string) int {
	jobs, err := batch.LoadTargets(targetsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading targets: %v\n", err)
		return 1
	}
	if len(jobs) == 0 {
		fmt.Println("No targets to solve.")
		return 0
	}

	fmt.Printf("Targets: %d, Workers: %d\n", len(jobs), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(ctx, cfg, jobs)
	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.2fs\n", elapsed.Seconds())

	m := batch.Summarize(results)
	fmt.Printf("Solved: %d/%d\n", m.Solved, len(jobs))
	for _, r := range results {
		if !r.Success {
			continue
		}
		how := "moved"
		if r.Direct {
			how = "clear"
		}
		fmt.Printf("  %-24s %s (%.1f, %.1f, %.1f) -> (%.1f, %.1f, %.1f)\n",
			r.Name, how, r.Target[0], r.Target[1], r.Target[2], r.Point[0], r.Point[1], r.Point[2])
	}
	if m.Failed > 0 {
		fmt.Printf("\nFailed (%d):\n", m.Failed)
		shown := 0
		for _, r := range results {
			if r.Success {
				continue
			}
			if shown == 20 {
				fmt.Printf("  ... %d more\n", m.Failed-shown)
				break
			}
			fmt.Printf("  %s [%s]: %s\n", r.Name, r.Kind, r.Error)
			shown++
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}
	return m.Failed
}
