package bcd

import (
	"fmt"
	"math"

	"worlds-collide/internal/mathutil"
)

// Kind is the primitive type tag of a collision proxy.
type Kind int32

const (
	KindBox Kind = iota
	KindRay
	KindSphere
	KindCylinder
	KindTube
	KindPlane
	KindMesh
	KindInvalid
)

var kindNames = [...]string{"box", "ray", "sphere", "cylinder", "tube", "plane", "mesh", "invalid"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int32(k))
}

// Valid reports whether k names a decodable primitive. KindInvalid is a
// placeholder in the format and never appears in a decoded world.
func (k Kind) Valid() bool {
	return k >= KindBox && k <= KindMesh
}

// Params is the kind-specific parameter block of an Object. The concrete type
// always matches Object.Kind; switch on it with a type switch.
type Params interface {
	Kind() Kind
	sealed()
}

type BoxParams struct {
	Length float64 // X extent
	Width  float64 // Y extent
	Depth  float64 // Z extent
}

type RayParams struct {
	Origin    float64
	Direction float64
	Length    float64
}

type SphereParams struct {
	Radius float64
}

type CylinderParams struct {
	Radius float64
	Length float64
}

type TubeParams struct {
	Radius float64
	Length float64
}

type PlaneParams struct {
	Normal   mathutil.Vec3
	Distance float64
}

// MeshParams carries nothing; mesh geometry lives in Object.Mesh.
type MeshParams struct{}

func (BoxParams) Kind() Kind      { return KindBox }
func (RayParams) Kind() Kind      { return KindRay }
func (SphereParams) Kind() Kind   { return KindSphere }
func (CylinderParams) Kind() Kind { return KindCylinder }
func (TubeParams) Kind() Kind     { return KindTube }
func (PlaneParams) Kind() Kind    { return KindPlane }
func (MeshParams) Kind() Kind     { return KindMesh }

func (BoxParams) sealed()      {}
func (RayParams) sealed()      {}
func (SphereParams) sealed()   {}
func (CylinderParams) sealed() {}
func (TubeParams) sealed()     {}
func (PlaneParams) sealed()    {}
func (MeshParams) sealed()     {}

// Mesh holds inline triangle geometry, already in world units.
// len(Faces) == len(Normals) and every face index is < len(Vertices).
type Mesh struct {
	Vertices []mathutil.Vec3
	Faces    [][3]int32
	Normals  []mathutil.Vec3 // one per face
}

// Object is one decoded collision proxy. Objects are never mutated after
// decoding.
type Object struct {
	Kind     Kind
	Category Flags // layers this proxy belongs to
	Collide  Flags // layers this proxy blocks
	Name     string
	Rotation mathutil.Mat3 // row-major
	Location mathutil.Vec3
	Scale    float64
	Material string
	Params   Params
	Mesh     *Mesh // non-nil iff Kind == KindMesh
}

// Scale3 returns the per-axis scale. The format stores one uniform factor.
func (o *Object) Scale3() mathutil.Vec3 {
	return mathutil.Vec3{o.Scale, o.Scale, o.Scale}
}

// Pose returns the rotate-then-translate transform of the proxy.
func (o *Object) Pose() mathutil.Mat4 {
	return mathutil.Pose(o.Rotation, o.Location)
}

// World is the decoded contents of one zone's collision file, in file order.
type World struct {
	Objects []Object
}

// Count returns the number of objects per kind.
func (w *World) Count() map[Kind]int {
	out := make(map[Kind]int)
	for i := range w.Objects {
		out[w.Objects[i].Kind]++
	}
	return out
}

// Bounds returns the axis-aligned extent of all object locations and mesh
// vertices (after the pose transform). ok is false for an empty world.
func (w *World) Bounds() (min, max mathutil.Vec3, ok bool) {
	min = mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	grow := func(v mathutil.Vec3) {
		for k := 0; k < 3; k++ {
			if v[k] < min[k] {
				min[k] = v[k]
			}
			if v[k] > max[k] {
				max[k] = v[k]
			}
		}
		ok = true
	}
	for i := range w.Objects {
		o := &w.Objects[i]
		if o.Mesh == nil {
			grow(o.Location)
			continue
		}
		pose := o.Pose()
		for _, v := range o.Mesh.Vertices {
			grow(pose.MulPoint(v))
		}
	}
	return min, max, ok
}
