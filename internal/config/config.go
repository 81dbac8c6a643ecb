package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"worlds-collide/internal/region"
	"worlds-collide/internal/teleport"
)

// Config holds all configurable paths and solver settings.
type Config struct {
	// Paths
	DataDir     string `yaml:"data_dir"` // zone archives (*.wad) or loose *.bcd files
	OutputDir   string `yaml:"output_dir"`
	JournalPath string `yaml:"journal_path"`
	BridgeURL   string `yaml:"bridge_url"`

	Solver   Solver   `yaml:"solver"`
	Verify   Verify   `yaml:"verify"`
	Snapshot Snapshot `yaml:"snapshot"`
	Workers  int      `yaml:"workers"`
}

// Solver tunes projection, obstacle estimation and the free-space solve.
type Solver struct {
	Shrink         float64 `yaml:"shrink"`
	DefaultRadius  float64 `yaml:"default_radius"`
	CylinderShrink float64 `yaml:"cylinder_shrink"`
	MaxGridDim     int     `yaml:"max_grid_dim"`
	MinCellSize    float64 `yaml:"min_cell_size"`
	MinIslandRatio float64 `yaml:"min_island_ratio"`
	Window         float64 `yaml:"window"`
}

// Verify tunes post-move verification and the fallback navigator.
type Verify struct {
	DelayMs         int     `yaml:"delay_ms"`
	EpsilonFactor   float64 `yaml:"epsilon_factor"`
	Retries         int     `yaml:"retries"`
	FallbackDelayMs int     `yaml:"fallback_delay_ms"`
	FallbackSigma   float64 `yaml:"fallback_sigma"`
}

// Snapshot controls debug images of solves.
type Snapshot struct {
	Format string `yaml:"format"` // webp, tga, png or none
	Size   int    `yaml:"size"`   // longest side in pixels
}

// Load reads a YAML config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir     string
	OutputDir   string
	JournalPath string
	BridgeURL   string
	Format      string
	Workers     int
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.DataDir != "" {
		c.DataDir = flags.DataDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.JournalPath != "" {
		c.JournalPath = flags.JournalPath
	}
	if flags.BridgeURL != "" {
		c.BridgeURL = flags.BridgeURL
	}
	if flags.Format != "" {
		c.Snapshot.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.DataDir == "" {
		c.DataDir = detectDataDir()
	}

	// Output and journal default to a directory next to the game data.
	base := filepath.Dir(c.DataDir)
	if c.DataDir == "" {
		base, _ = os.Getwd()
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(base, "tp-solves")
	} else if !filepath.IsAbs(c.OutputDir) && c.DataDir != "" {
		c.OutputDir = filepath.Join(base, c.OutputDir)
	}
	if c.JournalPath == "" {
		c.JournalPath = filepath.Join(c.OutputDir, "journal.db")
	}
	if c.BridgeURL == "" {
		c.BridgeURL = "ws://127.0.0.1:8765/session"
	}

	// Defaults for solver settings
	if c.Solver.Shrink <= 0 {
		c.Solver.Shrink = 0.5
	}
	if c.Solver.DefaultRadius <= 0 {
		c.Solver.DefaultRadius = 75
	}
	if c.Solver.CylinderShrink <= 0 {
		c.Solver.CylinderShrink = 0.125
	}
	if c.Solver.MaxGridDim <= 0 {
		c.Solver.MaxGridDim = 1024
	}
	if c.Solver.MinCellSize <= 0 {
		c.Solver.MinCellSize = 1
	}
	if c.Solver.Window <= 0 {
		c.Solver.Window = 256
	}
	if c.Verify.DelayMs <= 0 {
		c.Verify.DelayMs = 500
	}
	if c.Verify.EpsilonFactor <= 0 {
		c.Verify.EpsilonFactor = 0.1
	}
	if c.Verify.FallbackDelayMs <= 0 {
		c.Verify.FallbackDelayMs = 1000
	}
	if c.Verify.FallbackSigma <= 0 {
		c.Verify.FallbackSigma = 5
	}
	if c.Snapshot.Format == "" {
		c.Snapshot.Format = "webp"
	}
	if c.Snapshot.Size <= 0 {
		c.Snapshot.Size = 1024
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// VerifyDelay returns the post-move wait.
func (c *Config) VerifyDelay() time.Duration {
	return time.Duration(c.Verify.DelayMs) * time.Millisecond
}

// FallbackDelay returns the wait after the fallback navigator.
func (c *Config) FallbackDelay() time.Duration {
	return time.Duration(c.Verify.FallbackDelayMs) * time.Millisecond
}

// TeleportOptions maps the solver and verify settings onto attempt options.
func (c *Config) TeleportOptions() teleport.Options {
	return teleport.Options{
		Shrink:         c.Solver.Shrink,
		DefaultRadius:  c.Solver.DefaultRadius,
		CylinderShrink: c.Solver.CylinderShrink,
		VerifyDelay:    c.VerifyDelay(),
		EpsilonFactor:  c.Verify.EpsilonFactor,
		Retries:        c.Verify.Retries,
		Grid:           region.GridOptions{MaxDim: c.Solver.MaxGridDim, MinCell: c.Solver.MinCellSize},
		MinIslandRatio: c.Solver.MinIslandRatio,
		Window:         c.Solver.Window,
	}
}

// FallbackOptions maps the fallback settings.
func (c *Config) FallbackOptions() teleport.FallbackOptions {
	return teleport.FallbackOptions{Delay: c.FallbackDelay(), Sigma: c.Verify.FallbackSigma}
}

func detectDataDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if gd := filepath.Join(base, "Data", "GameData"); isDir(gd) {
				return gd
			}
		}
	}

	// Try current working directory and its parent
	cwd, _ := os.Getwd()
	for _, base := range []string{cwd, filepath.Dir(cwd)} {
		if gd := filepath.Join(base, "Data", "GameData"); isDir(gd) {
			return gd
		}
	}

	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
