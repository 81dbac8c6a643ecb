package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileKinds(t *testing.T) {
	cases := []struct {
		path         string
		zone, target bool
	}{
		{"Data/GameData/WizardCity-WC_Hub.wad", true, false},
		{"zones/Test-Loose.BCD", true, false},
		{"targets.yaml", false, true},
		{"targets.YML", false, true},
		{"notes.txt", false, false},
	}
	for _, c := range cases {
		if got := IsZoneFile(c.path); got != c.zone {
			t.Errorf("IsZoneFile(%q) = %v", c.path, got)
		}
		if got := IsTargetFile(c.path); got != c.target {
			t.Errorf("IsTargetFile(%q) = %v", c.path, got)
		}
	}
}

func TestWatcherReportsZoneFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(50*time.Millisecond, dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	zone := filepath.Join(dir, "Test-Zone.bcd")
	if err := os.WriteFile(zone, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-w.Events:
		if name != zone {
			t.Fatalf("event for %q, want %q", name, zone)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("no event for %s", zone)
	}
}

func TestCloseTwice(t *testing.T) {
	w, err := New(0, t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Fatalf("events channel still open")
	}
}

func TestNewMissingPath(t *testing.T) {
	if _, err := New(0, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("watching a missing path must fail")
	}
}
