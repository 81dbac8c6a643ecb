package project

import (
	"bytes"
	"log"
	"math"
	"strings"
	"testing"

	"worlds-collide/internal/bcd"
	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
)

func box(loc mathutil.Vec3, l, w, d float64) bcd.Object {
	return bcd.Object{
		Kind:     bcd.KindBox,
		Category: bcd.FlagObject,
		Rotation: mathutil.Mat3Identity(),
		Location: loc,
		Scale:    1,
		Params:   bcd.BoxParams{Length: l, Width: w, Depth: d},
	}
}

func floor(half float64) bcd.Object {
	return bcd.Object{
		Kind:     bcd.KindMesh,
		Category: bcd.FlagWalkable,
		Rotation: mathutil.Mat3Identity(),
		Scale:    1,
		Params:   bcd.MeshParams{},
		Mesh: &bcd.Mesh{
			Vertices: []mathutil.Vec3{{-half, -half, 0}, {half, -half, 0}, {half, half, 0}, {-half, half, 0}},
			Faces:    [][3]int32{{0, 1, 2}, {0, 2, 3}},
			Normals:  []mathutil.Vec3{{0, 0, 1}, {0, 0, 1}},
		},
	}
}

func TestBoxSlice(t *testing.T) {
	cases := []struct {
		name string
		z    float64
		want int
	}{
		{"above", 500, 0},
		{"below", -500, 0},
		{"straddling", 0, 1},
		{"top_face", 100, 1},
	}
	w := &bcd.World{Objects: []bcd.Object{box(mathutil.Vec3{0, 0, 0}, 200, 200, 200)}}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := Project(w, c.z, Options{})
			if len(res.Static) != c.want {
				t.Fatalf("expected %d obstacles, got %d", c.want, len(res.Static))
			}
			if c.want == 0 {
				return
			}
			poly, ok := res.Static[0].(shape.Polygon)
			if !ok || len(poly) < 3 {
				t.Fatalf("expected polygon with >= 3 vertices, got %#v", res.Static[0])
			}
			if math.Abs(poly.Area()-200*200) > 1e-6 {
				t.Fatalf("footprint area %v", poly.Area())
			}
		})
	}
}

func TestRotatedBox(t *testing.T) {
	o := box(mathutil.Vec3{50, 0, 0}, 100, 20, 10)
	o.Rotation = mathutil.RotZ(math.Pi / 2)
	res := Project(&bcd.World{Objects: []bcd.Object{o}}, 0, Options{})
	if len(res.Static) != 1 {
		t.Fatalf("expected one obstacle")
	}
	b := res.Static[0].Bounds()
	if math.Abs(b.Width()-20) > 1e-6 || math.Abs(b.Height()-100) > 1e-6 {
		t.Fatalf("rotation not applied: %+v", b)
	}
	if math.Abs(b.Min[0]-40) > 1e-6 {
		t.Fatalf("translation not applied: %+v", b)
	}
}

func TestKinds(t *testing.T) {
	sphere := bcd.Object{Kind: bcd.KindSphere, Category: bcd.FlagObject, Rotation: mathutil.Mat3Identity(),
		Location: mathutil.Vec3{10, 10, 5}, Scale: 2, Params: bcd.SphereParams{Radius: 4}}
	cyl := bcd.Object{Kind: bcd.KindCylinder, Category: bcd.FlagObject, Rotation: mathutil.Mat3Identity(),
		Location: mathutil.Vec3{-10, 0, 0}, Scale: 2, Params: bcd.CylinderParams{Radius: 100, Length: 40}}
	tube := bcd.Object{Kind: bcd.KindTube, Rotation: mathutil.Mat3Identity(), Scale: 1, Params: bcd.TubeParams{Radius: 5, Length: 5}}
	plane := bcd.Object{Kind: bcd.KindPlane, Rotation: mathutil.Mat3Identity(), Scale: 1, Params: bcd.PlaneParams{Normal: mathutil.Vec3{0, 0, 1}}}
	ray := bcd.Object{Kind: bcd.KindRay, Rotation: mathutil.Mat3Identity(), Scale: 1, Params: bcd.RayParams{Length: 5}}
	fl := floor(1000)
	fl.Location = mathutil.Vec3{0, 0, 9999}

	w := &bcd.World{Objects: []bcd.Object{sphere, cyl, tube, plane, ray, fl}}
	res := Project(w, 0, Options{})

	if len(res.Static) != 2 {
		t.Fatalf("expected sphere and cylinder, got %d shapes", len(res.Static))
	}
	d := res.Static[0].(shape.Disc)
	if d.Radius != 8 || d.Center != (mathutil.Vec2{10, 10}) {
		t.Fatalf("sphere disc mismatch: %+v", d)
	}
	c := res.Static[1].(shape.Disc)
	if c.Radius != 100*2*DefaultCylinderShrink {
		t.Fatalf("cylinder radius mismatch: %v", c.Radius)
	}
	if len(res.Walkable) != 1 {
		t.Fatalf("mesh must be included regardless of height, got %d", len(res.Walkable))
	}

	res = Project(w, 0, Options{CylinderShrink: 0.5})
	if got := res.Static[1].(shape.Disc).Radius; got != 100 {
		t.Fatalf("cylinder shrink option ignored: %v", got)
	}

	// Sphere reaches z in [-3, 13]; cylinder z in [-40, 40].
	res = Project(w, 20, Options{})
	if len(res.Static) != 1 {
		t.Fatalf("expected only the cylinder at z=20, got %d", len(res.Static))
	}
}

func TestCategoryFilter(t *testing.T) {
	walk := box(mathutil.Vec3{}, 10, 10, 10)
	walk.Category = bcd.FlagWalkable
	walkObj := box(mathutil.Vec3{}, 10, 10, 10)
	walkObj.Category = bcd.FlagWalkable | bcd.FlagObject
	trig := box(mathutil.Vec3{}, 10, 10, 10)
	trig.Category = bcd.FlagTrigger
	zero := box(mathutil.Vec3{}, 10, 10, 10)
	zero.Category = 0

	res := Project(&bcd.World{Objects: []bcd.Object{walk, walkObj, trig, zero}}, 0, Options{})
	if len(res.Static) != 2 || res.Filtered != 2 {
		t.Fatalf("expected 2 obstacles and 2 filtered, got %d/%d", len(res.Static), res.Filtered)
	}
}

func TestMalformedSkipped(t *testing.T) {
	nan := box(mathutil.Vec3{}, math.NaN(), 10, 10)
	neg := bcd.Object{Kind: bcd.KindSphere, Category: bcd.FlagObject, Rotation: mathutil.Mat3Identity(),
		Scale: 1, Params: bcd.SphereParams{Radius: -3}}
	flat := box(mathutil.Vec3{}, 0, 10, 10)
	good := box(mathutil.Vec3{}, 10, 10, 10)

	var buf bytes.Buffer
	logger := log.New(&buf, "[project] ", 0)
	res := Project(&bcd.World{Objects: []bcd.Object{nan, neg, flat, good}}, 0, Options{Logger: logger})
	if res.Skipped != 3 || len(res.Static) != 1 {
		t.Fatalf("expected 3 skipped and 1 kept, got %d/%d", res.Skipped, len(res.Static))
	}
	if n := strings.Count(buf.String(), "[project] skip object"); n != 3 {
		t.Fatalf("expected 3 log lines, got %d:\n%s", n, buf.String())
	}
}
