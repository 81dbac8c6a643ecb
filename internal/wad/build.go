package wad

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/klauspost/compress/zlib"
)

// File is an entry to pack with Build.
type File struct {
	Name     string
	Data     []byte
	Compress bool
}

// Build packs files into a version 2 archive image. Used to produce fixtures
// for zone directories.
func Build(files []File) ([]byte, error) {
	type packed struct {
		f      File
		stored []byte
	}
	items := make([]packed, 0, len(files))
	for _, f := range files {
		stored := f.Data
		if f.Compress {
			var zb bytes.Buffer
			zw := zlib.NewWriter(&zb)
			if _, err := zw.Write(f.Data); err != nil {
				return nil, err
			}
			if err := zw.Close(); err != nil {
				return nil, err
			}
			stored = zb.Bytes()
		}
		items = append(items, packed{f: f, stored: stored})
	}

	// header + flags byte, then records of 21 bytes + name (with NUL).
	tocSize := len(magic) + 8 + 1
	for _, it := range items {
		tocSize += 21 + len(it.f.Name) + 1
	}

	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.Write(magic)
	binary.Write(&buf, le, uint32(2))
	binary.Write(&buf, le, uint32(len(items)))
	buf.WriteByte(0)

	offset := uint32(tocSize)
	for _, it := range items {
		binary.Write(&buf, le, offset)
		binary.Write(&buf, le, uint32(len(it.f.Data)))
		binary.Write(&buf, le, uint32(len(it.stored)))
		if it.f.Compress {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		binary.Write(&buf, le, crc32.ChecksumIEEE(it.f.Data))
		binary.Write(&buf, le, uint32(len(it.f.Name)+1))
		buf.WriteString(it.f.Name)
		buf.WriteByte(0)
		offset += uint32(len(it.stored))
	}
	for _, it := range items {
		buf.Write(it.stored)
	}
	return buf.Bytes(), nil
}
