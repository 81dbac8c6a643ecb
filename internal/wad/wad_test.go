package wad

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	collision := bytes.Repeat([]byte{1, 2, 3, 4}, 512)
	img, err := Build([]File{
		{Name: "collision.bcd", Data: collision, Compress: true},
		{Name: "Textures/readme.txt", Data: []byte("hello")},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "WizardCity-WC_Hub.wad")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if a.Version != 2 {
		t.Fatalf("expected version 2, got %d", a.Version)
	}
	names := a.Names()
	if len(names) != 2 || names[0] != "Textures/readme.txt" || names[1] != "collision.bcd" {
		t.Fatalf("names mismatch: %v", names)
	}

	e, ok := a.Stat("collision.bcd")
	if !ok || !e.Compressed || e.Size != uint32(len(collision)) {
		t.Fatalf("stat mismatch: %+v", e)
	}
	if e.CompressedSize >= e.Size {
		t.Fatalf("repetitive data should shrink: %d >= %d", e.CompressedSize, e.Size)
	}

	got, err := a.ReadFile("collision.bcd")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, collision) {
		t.Fatalf("inflated data mismatch")
	}
	txt, err := a.ReadFile("Textures/readme.txt")
	if err != nil || string(txt) != "hello" {
		t.Fatalf("stored entry mismatch: %q %v", txt, err)
	}
}

func TestArchiveErrors(t *testing.T) {
	t.Run("bad_magic", func(t *testing.T) {
		data := []byte("NOTAWADFILE!")
		if _, err := NewArchive(bytes.NewReader(data), int64(len(data))); !errors.Is(err, ErrNotWAD) {
			t.Fatalf("expected ErrNotWAD, got %v", err)
		}
	})

	t.Run("missing_entry", func(t *testing.T) {
		img, err := Build(nil)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		a, err := NewArchive(bytes.NewReader(img), int64(len(img)))
		if err != nil {
			t.Fatalf("NewArchive: %v", err)
		}
		if _, err := a.ReadFile("collision.bcd"); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("expected fs.ErrNotExist, got %v", err)
		}
	})

	t.Run("truncated_data", func(t *testing.T) {
		img, err := Build([]File{{Name: "collision.bcd", Data: make([]byte, 64)}})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		cut := img[:len(img)-10]
		a, err := NewArchive(bytes.NewReader(cut), int64(len(cut)))
		if err != nil {
			t.Fatalf("NewArchive: %v", err)
		}
		if _, err := a.ReadFile("collision.bcd"); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("expected ErrCorrupt, got %v", err)
		}
	})
}
