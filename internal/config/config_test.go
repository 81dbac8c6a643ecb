package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "Data", "GameData")
	path := filepath.Join(dir, "tp.yaml")
	yml := `
data_dir: ` + data + `
output_dir: solves
solver:
  shrink: 0.75
  default_radius: 60
verify:
  delay_ms: 250
  retries: 2
snapshot:
  format: tga
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Resolve(Flags{Workers: 3, Format: "png"})

	if cfg.DataDir != data {
		t.Fatalf("data dir %q", cfg.DataDir)
	}
	if want := filepath.Join(dir, "Data", "solves"); cfg.OutputDir != want {
		t.Fatalf("output dir %q, want %q", cfg.OutputDir, want)
	}
	if cfg.JournalPath != filepath.Join(cfg.OutputDir, "journal.db") {
		t.Fatalf("journal path %q", cfg.JournalPath)
	}
	if cfg.Solver.Shrink != 0.75 || cfg.Solver.DefaultRadius != 60 || cfg.Solver.CylinderShrink != 0.125 {
		t.Fatalf("solver settings %+v", cfg.Solver)
	}
	if cfg.VerifyDelay() != 250*time.Millisecond || cfg.Verify.Retries != 2 || cfg.Verify.EpsilonFactor != 0.1 {
		t.Fatalf("verify settings %+v", cfg.Verify)
	}
	if cfg.Snapshot.Format != "png" || cfg.Snapshot.Size != 1024 {
		t.Fatalf("flag must override file: %+v", cfg.Snapshot)
	}
	if cfg.Workers != 3 {
		t.Fatalf("workers %d", cfg.Workers)
	}
}

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{DataDir: "/games/w101/Data/GameData"})
	if cfg.OutputDir != filepath.Join("/games/w101/Data", "tp-solves") {
		t.Fatalf("output dir %q", cfg.OutputDir)
	}
	if cfg.Solver.Shrink != 0.5 || cfg.Solver.DefaultRadius != 75 || cfg.Solver.MaxGridDim != 1024 {
		t.Fatalf("solver defaults %+v", cfg.Solver)
	}
	if cfg.VerifyDelay() != 500*time.Millisecond || cfg.FallbackDelay() != time.Second || cfg.Verify.FallbackSigma != 5 {
		t.Fatalf("verify defaults %+v", cfg.Verify)
	}
	if cfg.Workers != runtime.NumCPU() || cfg.Snapshot.Format != "webp" {
		t.Fatalf("misc defaults %+v", cfg)
	}

	opts := cfg.TeleportOptions()
	if opts.Shrink != 0.5 || opts.CylinderShrink != 0.125 || opts.VerifyDelay != 500*time.Millisecond || opts.Grid.MaxDim != 1024 || opts.Window != 256 {
		t.Fatalf("teleport options %+v", opts)
	}
	if fb := cfg.FallbackOptions(); fb.Delay != time.Second || fb.Sigma != 5 {
		t.Fatalf("fallback options %+v", fb)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file must fail")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("solver: [1, 2"), 0644)
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed yaml must fail")
	}
}
