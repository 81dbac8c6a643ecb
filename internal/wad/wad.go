// Package wad reads KIWAD archives, the container the game client ships zone
// assets in. Each zone's collision stream is the "collision.bcd" entry of the
// zone's archive.
package wad

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"
)

var magic = []byte("KIWAD")

var (
	ErrNotWAD  = errors.New("wad: not a KIWAD archive")
	ErrCorrupt = errors.New("wad: corrupt archive")
)

// Entry is one file record from the archive's table of contents.
type Entry struct {
	Name           string
	Offset         uint32
	Size           uint32 // inflated size
	CompressedSize uint32
	Compressed     bool
	CRC            uint32
}

// Archive is an opened KIWAD file. Entry data is read lazily.
type Archive struct {
	Version uint32
	Flags   uint8

	r       io.ReaderAt
	size    int64
	closer  io.Closer
	entries map[string]Entry
}

// Open opens the archive at path. The caller must Close it.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wad: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wad: stat %s: %w", path, err)
	}
	a, err := NewArchive(f, st.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	a.closer = f
	return a, nil
}

// NewArchive parses the table of contents of an archive held in r.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	sr := io.NewSectionReader(r, 0, size)

	head := make([]byte, len(magic)+8)
	if _, err := io.ReadFull(sr, head); err != nil {
		return nil, ErrNotWAD
	}
	if !bytes.Equal(head[:len(magic)], magic) {
		return nil, ErrNotWAD
	}
	a := &Archive{
		r:       r,
		size:    size,
		entries: make(map[string]Entry),
		Version: binary.LittleEndian.Uint32(head[len(magic):]),
	}
	count := binary.LittleEndian.Uint32(head[len(magic)+4:])

	// Version 2 and later carry one flags byte after the header.
	if a.Version >= 2 {
		var fl [1]byte
		if _, err := io.ReadFull(sr, fl[:]); err != nil {
			return nil, fmt.Errorf("%w: header flags: %v", ErrCorrupt, err)
		}
		a.Flags = fl[0]
	}

	// Each record is at least 21 bytes plus its name.
	if int64(count)*21 > size {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrCorrupt, count, size)
	}

	rec := make([]byte, 21)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(sr, rec); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrCorrupt, i, err)
		}
		e := Entry{
			Offset:         binary.LittleEndian.Uint32(rec[0:]),
			Size:           binary.LittleEndian.Uint32(rec[4:]),
			CompressedSize: binary.LittleEndian.Uint32(rec[8:]),
			Compressed:     rec[12] != 0,
			CRC:            binary.LittleEndian.Uint32(rec[13:]),
		}
		nameLen := binary.LittleEndian.Uint32(rec[17:])
		if int64(nameLen) > size {
			return nil, fmt.Errorf("%w: entry %d name length %d", ErrCorrupt, i, nameLen)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(sr, name); err != nil {
			return nil, fmt.Errorf("%w: entry %d name: %v", ErrCorrupt, i, err)
		}
		// Names are stored null-terminated.
		e.Name = strings.TrimRight(string(name), "\x00")
		a.entries[e.Name] = e
	}
	return a, nil
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Names returns the sorted entry names.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.entries))
	for n := range a.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stat returns the table-of-contents record for name.
func (a *Archive) Stat(name string) (Entry, bool) {
	e, ok := a.entries[name]
	return e, ok
}

// ReadFile returns the inflated contents of the named entry. A missing entry
// wraps fs.ErrNotExist.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	e, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("wad: %s: %w", name, fs.ErrNotExist)
	}

	stored := e.Size
	if e.Compressed {
		stored = e.CompressedSize
	}
	if int64(e.Offset)+int64(stored) > a.size {
		return nil, fmt.Errorf("%w: %s extends past end of archive", ErrCorrupt, name)
	}
	raw := make([]byte, stored)
	if _, err := a.r.ReadAt(raw, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("wad: read %s: %w", name, err)
	}
	if !e.Compressed {
		return raw, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	defer zr.Close()

	out := make([]byte, e.Size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("%w: inflate %s: %v", ErrCorrupt, name, err)
	}
	return out, nil
}
