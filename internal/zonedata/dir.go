package zonedata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"worlds-collide/internal/wad"
)

// Dir serves collision streams from a game-data directory. Streams are read
// once per zone and cached; Dir is safe for concurrent use.
type Dir struct {
	root  string
	index *Index

	mu    sync.RWMutex
	items map[string][]byte

	load func(path string) ([]byte, error)
}

// NewDir indexes root.
func NewDir(root string) *Dir {
	return &Dir{
		root:  root,
		index: BuildIndex(root),
		items: make(map[string][]byte),
		load:  Load,
	}
}

// Zones returns the number of zones found under the root.
func (d *Dir) Zones() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index.Len()
}

// Root returns the indexed directory.
func (d *Dir) Root() string {
	return d.root
}

// Reload re-indexes the root and drops every cached stream.
func (d *Dir) Reload() {
	index := BuildIndex(d.root)
	d.mu.Lock()
	d.index = index
	d.items = make(map[string][]byte)
	d.mu.Unlock()
}

// CollisionBytes returns the raw collision stream of zone. Callers must not
// modify the returned slice.
func (d *Dir) CollisionBytes(ctx context.Context, zone string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	index := d.index
	path, ok := index.ResolvePath(zone)
	data, exists := d.items[path]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q not found under %s", ErrZoneDataUnavailable, zone, d.root)
	}
	if exists {
		return data, nil
	}

	data, err := d.load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrZoneDataUnavailable, zone, err)
	}

	d.mu.Lock()
	// A Reload during the read owns the cache now; keep this stream out of it.
	if d.index != index {
		d.mu.Unlock()
		return data, nil
	}
	if existing, exists := d.items[path]; exists {
		d.mu.Unlock()
		return existing, nil
	}
	d.items[path] = data
	d.mu.Unlock()

	return data, nil
}

// Load reads a collision stream from a .wad archive or a loose .bcd file.
func Load(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wad":
		a, err := wad.Open(path)
		if err != nil {
			return nil, err
		}
		defer a.Close()
		return a.ReadFile(CollisionEntry)
	case ".bcd":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("zonedata: read %s: %w", path, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("zonedata: unknown extension: %s", filepath.Ext(path))
	}
}
