package bcd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"worlds-collide/internal/mathutil"
)

var (
	// ErrTruncatedStream reports a read past the end of the buffer.
	ErrTruncatedStream = errors.New("bcd: truncated stream")
	// ErrUnknownPrimitiveKind reports a geometry or proxy kind outside box..mesh.
	ErrUnknownPrimitiveKind = errors.New("bcd: unknown primitive kind")
	// ErrKindMismatch reports a proxy kind that differs from the object header kind.
	ErrKindMismatch = fmt.Errorf("%w: proxy kind differs from geometry kind", ErrUnknownPrimitiveKind)
	// ErrCorruptStream reports a field whose value no valid stream carries.
	ErrCorruptStream = errors.New("bcd: corrupt stream")
	// ErrNegativeCount reports a negative element count or string length.
	ErrNegativeCount = fmt.Errorf("%w: negative count", ErrCorruptStream)
	// ErrBadMeshIndex reports a face index outside the mesh's vertex list.
	ErrBadMeshIndex = errors.New("bcd: mesh face index out of range")
)

// Minimum encoded size of one non-mesh object without kind params:
// kind, category, collide, name length, rotation, location, scale,
// material length, proxy kind.
const minObjectSize = 4 + 4 + 4 + 4 + 36 + 12 + 4 + 4 + 4

// Parse reads a collision file from disk and decodes it.
func Parse(filepath string) (*World, error) {
	raw, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("bcd: read %s: %w", filepath, err)
	}
	w, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, filepath)
	}
	return w, nil
}

// Decode decodes a little-endian collision stream. On any error no world is
// returned.
func Decode(data []byte) (*World, error) {
	r := &reader{data: data}

	count := r.readI32()
	if r.err != nil {
		return nil, r.err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: object count %d", ErrNegativeCount, count)
	}
	if int64(count)*minObjectSize > int64(r.remaining()) {
		return nil, fmt.Errorf("%w: %d objects cannot fit in %d bytes", ErrTruncatedStream, count, r.remaining())
	}

	w := &World{Objects: make([]Object, 0, count)}
	for i := 0; i < int(count); i++ {
		obj, err := r.readObject()
		if err != nil {
			return nil, fmt.Errorf("%w: object %d at offset %d", err, i, r.off)
		}
		w.Objects = append(w.Objects, obj)
	}
	return w, nil
}

type reader struct {
	data []byte
	off  int
	err  error // sticky: first failure wins, later reads return zero
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = ErrTruncatedStream
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) readU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) readI32() int32 {
	return int32(r.readU32())
}

func (r *reader) readF32() float64 {
	return float64(math.Float32frombits(r.readU32()))
}

func (r *reader) readVec3() mathutil.Vec3 {
	return mathutil.Vec3{r.readF32(), r.readF32(), r.readF32()}
}

// readStr reads an int32 length followed by that many bytes of text.
func (r *reader) readStr() string {
	n := r.readI32()
	if r.err != nil {
		return ""
	}
	if n < 0 {
		r.err = fmt.Errorf("%w: string length %d", ErrNegativeCount, n)
		return ""
	}
	return string(r.take(int(n)))
}

func (r *reader) readKind() (Kind, error) {
	k := Kind(r.readI32())
	if r.err != nil {
		return 0, r.err
	}
	if !k.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPrimitiveKind, int32(k))
	}
	return k, nil
}

func (r *reader) readObject() (Object, error) {
	kind, err := r.readKind()
	if err != nil {
		return Object{}, err
	}
	obj := Object{
		Kind:     kind,
		Category: Flags(r.readU32()),
		Collide:  Flags(r.readU32()),
	}

	// Mesh geometry precedes the common trailer.
	if kind == KindMesh {
		mesh, err := r.readMesh()
		if err != nil {
			return Object{}, err
		}
		obj.Mesh = mesh
	}

	obj.Name = r.readStr()
	var rot mathutil.Mat3
	for i := range rot {
		rot[i] = r.readF32()
	}
	obj.Rotation = rot
	obj.Location = r.readVec3()
	obj.Scale = r.readF32()
	obj.Material = r.readStr()
	if r.err != nil {
		return Object{}, r.err
	}

	proxy, err := r.readKind()
	if err != nil {
		return Object{}, err
	}
	if proxy != kind {
		return Object{}, fmt.Errorf("%w: header %s, proxy %s", ErrKindMismatch, kind, proxy)
	}

	obj.Params = r.readParams(kind)
	if r.err != nil {
		return Object{}, r.err
	}
	return obj, nil
}

func (r *reader) readMesh() (*Mesh, error) {
	nv := r.readI32()
	nf := r.readI32()
	if r.err != nil {
		return nil, r.err
	}
	if nv < 0 || nf < 0 {
		return nil, fmt.Errorf("%w: mesh vertices=%d faces=%d", ErrNegativeCount, nv, nf)
	}
	// Vertices: 12 bytes each; faces: 3 indices + normal, 24 bytes each.
	if int64(nv)*12+int64(nf)*24 > int64(r.remaining()) {
		return nil, fmt.Errorf("%w: mesh of %d vertices, %d faces", ErrTruncatedStream, nv, nf)
	}

	m := &Mesh{
		Vertices: make([]mathutil.Vec3, nv),
		Faces:    make([][3]int32, nf),
		Normals:  make([]mathutil.Vec3, nf),
	}
	for i := range m.Vertices {
		m.Vertices[i] = r.readVec3()
	}
	for i := range m.Faces {
		for k := 0; k < 3; k++ {
			idx := r.readI32()
			if r.err == nil && (idx < 0 || idx >= nv) {
				return nil, fmt.Errorf("%w: face %d index %d, %d vertices", ErrBadMeshIndex, i, idx, nv)
			}
			m.Faces[i][k] = idx
		}
		m.Normals[i] = r.readVec3()
	}
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

func (r *reader) readParams(kind Kind) Params {
	switch kind {
	case KindBox:
		return BoxParams{Length: r.readF32(), Width: r.readF32(), Depth: r.readF32()}
	case KindRay:
		return RayParams{Origin: r.readF32(), Direction: r.readF32(), Length: r.readF32()}
	case KindSphere:
		return SphereParams{Radius: r.readF32()}
	case KindCylinder:
		return CylinderParams{Radius: r.readF32(), Length: r.readF32()}
	case KindTube:
		return TubeParams{Radius: r.readF32(), Length: r.readF32()}
	case KindPlane:
		return PlaneParams{Normal: r.readVec3(), Distance: r.readF32()}
	case KindMesh:
		return MeshParams{}
	default:
		panic(fmt.Sprintf("bcd: unhandled kind %s", kind))
	}
}
