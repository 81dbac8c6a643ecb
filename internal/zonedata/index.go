// Package zonedata locates a zone's collision stream in a game-data
// directory. Zones are named with slashes ("WizardCity/WC_Hub"); their
// archives replace the slashes with dashes ("WizardCity-WC_Hub.wad").
package zonedata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// CollisionEntry is the archive entry holding a zone's collision stream.
const CollisionEntry = "collision.bcd"

// ErrZoneDataUnavailable reports a zone whose collision stream cannot be
// found or read.
var ErrZoneDataUnavailable = errors.New("zonedata: zone data unavailable")

// FileStem converts a zone name to its archive file stem.
func FileStem(zone string) string {
	zone = strings.ReplaceAll(zone, "\\", "/")
	zone = strings.Trim(zone, "/")
	return strings.ReplaceAll(zone, "/", "-")
}

// Index maps lowercase file stems to archive or loose collision paths.
// A .wad archive takes priority over a loose .bcd file with the same stem.
type Index struct {
	entries map[string]string
}

// BuildIndex scans dir and its subdirectories for .wad and .bcd files.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".wad" && ext != ".bcd" {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists {
			idx.entries[stem] = path
		} else if ext == ".wad" && strings.ToLower(filepath.Ext(existing)) == ".bcd" {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the file holding the zone's collision stream.
func (idx *Index) ResolvePath(zone string) (string, bool) {
	path, ok := idx.entries[strings.ToLower(FileStem(zone))]
	return path, ok
}

// Len returns the number of indexed zones.
func (idx *Index) Len() int {
	return len(idx.entries)
}
