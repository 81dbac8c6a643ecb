package bcd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"worlds-collide/internal/mathutil"
)

// Encode writes w in the stream format read by Decode. Floats are narrowed
// to float32.
func (w *World) Encode() ([]byte, error) {
	var buf bytes.Buffer
	e := &encoder{buf: &buf}
	e.i32(int32(len(w.Objects)))
	for i := range w.Objects {
		if err := e.object(&w.Objects[i]); err != nil {
			return nil, fmt.Errorf("bcd: encode object %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

type encoder struct {
	buf *bytes.Buffer
	tmp [4]byte
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.tmp[:], v)
	e.buf.Write(e.tmp[:])
}

func (e *encoder) i32(v int32) { e.u32(uint32(v)) }

func (e *encoder) f32(vs ...float64) {
	for _, v := range vs {
		e.u32(math.Float32bits(float32(v)))
	}
}

func (e *encoder) vec(v mathutil.Vec3) { e.f32(v[0], v[1], v[2]) }

func (e *encoder) str(s string) {
	e.i32(int32(len(s)))
	e.buf.WriteString(s)
}

func (e *encoder) object(o *Object) error {
	if !o.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownPrimitiveKind, int32(o.Kind))
	}
	if o.Params == nil || o.Params.Kind() != o.Kind {
		return fmt.Errorf("%w: params %T for %s", ErrKindMismatch, o.Params, o.Kind)
	}
	e.i32(int32(o.Kind))
	e.u32(uint32(o.Category))
	e.u32(uint32(o.Collide))

	if o.Kind == KindMesh {
		if o.Mesh == nil || len(o.Mesh.Faces) != len(o.Mesh.Normals) {
			return fmt.Errorf("%w: mesh without matching faces and normals", ErrBadMeshIndex)
		}
		e.i32(int32(len(o.Mesh.Vertices)))
		e.i32(int32(len(o.Mesh.Faces)))
		for _, v := range o.Mesh.Vertices {
			e.vec(v)
		}
		for i, f := range o.Mesh.Faces {
			for _, idx := range f {
				if idx < 0 || int(idx) >= len(o.Mesh.Vertices) {
					return fmt.Errorf("%w: face %d index %d", ErrBadMeshIndex, i, idx)
				}
				e.i32(idx)
			}
			e.vec(o.Mesh.Normals[i])
		}
	}

	e.str(o.Name)
	e.f32(o.Rotation[:]...)
	e.vec(o.Location)
	e.f32(o.Scale)
	e.str(o.Material)
	e.i32(int32(o.Kind))

	switch p := o.Params.(type) {
	case BoxParams:
		e.f32(p.Length, p.Width, p.Depth)
	case RayParams:
		e.f32(p.Origin, p.Direction, p.Length)
	case SphereParams:
		e.f32(p.Radius)
	case CylinderParams:
		e.f32(p.Radius, p.Length)
	case TubeParams:
		e.f32(p.Radius, p.Length)
	case PlaneParams:
		e.vec(p.Normal)
		e.f32(p.Distance)
	case MeshParams:
	}
	return nil
}
