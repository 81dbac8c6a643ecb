// Package project slices a collision world at a height and returns the 2D
// obstacle and floor footprints on that slice.
package project

import (
	"fmt"
	"io"
	"log"
	"math"

	"worlds-collide/internal/bcd"
	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
)

// DefaultCylinderShrink scales a cylinder's radius down to the in-game
// collision radius.
const DefaultCylinderShrink = 0.125

// Options tunes projection. The zero value uses the defaults.
type Options struct {
	CylinderShrink float64
	Logger         *log.Logger
}

// Result holds the footprints of one slice.
type Result struct {
	Static   []shape.Shape // obstacles intersecting the slice
	Walkable []shape.Shape // mesh hulls, independent of height
	Skipped  int           // malformed primitives left out
	Filtered int           // primitives whose category marks them non-blocking
}

// Project slices w at height z.
func Project(w *bcd.World, z float64, opts Options) Result {
	if opts.CylinderShrink <= 0 {
		opts.CylinderShrink = DefaultCylinderShrink
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	var res Result
	for i := range w.Objects {
		o := &w.Objects[i]
		if o.Kind != bcd.KindMesh && !Blocks(o.Category) {
			res.Filtered++
			continue
		}
		s, walkable, err := projectObject(o, z, opts.CylinderShrink)
		if err != nil {
			res.Skipped++
			logger.Printf("skip object %d %q (%s): %v", i, o.Name, o.Kind, err)
			continue
		}
		if s == nil {
			continue
		}
		if walkable {
			res.Walkable = append(res.Walkable, s)
		} else {
			res.Static = append(res.Static, s)
		}
	}
	return res
}

// Blocks reports whether a non-mesh primitive of category c is an obstacle.
// Walkable surfaces without the object bit and pure triggers are not. A zero
// category blocks.
func Blocks(c bcd.Flags) bool {
	if c.Walkable() && !c.Object() {
		return false
	}
	if c == bcd.FlagTrigger {
		return false
	}
	return true
}

// projectObject returns a nil shape when the primitive does not reach the
// slice or its kind has no footprint.
func projectObject(o *bcd.Object, z float64, cylShrink float64) (shape.Shape, bool, error) {
	if !o.Location.IsFinite() || !o.Rotation.IsFinite() {
		return nil, false, fmt.Errorf("non-finite pose")
	}

	switch p := o.Params.(type) {
	case bcd.BoxParams:
		if !finite(p.Length, p.Width, p.Depth) || p.Length < 0 || p.Width < 0 || p.Depth < 0 {
			return nil, false, fmt.Errorf("bad box extents %v", p)
		}
		zc := o.Location[2]
		if z < zc-p.Depth/2 || z > zc+p.Depth/2 {
			return nil, false, nil
		}
		poly, err := shape.NewPolygon(boxFootprint(o, p))
		if err != nil {
			return nil, false, err
		}
		return poly, false, nil

	case bcd.SphereParams:
		r := p.Radius * o.Scale
		if !finite(r) || r < 0 {
			return nil, false, fmt.Errorf("bad sphere radius %v", r)
		}
		if r == 0 || math.Abs(z-o.Location[2]) > r {
			return nil, false, nil
		}
		return shape.Disc{Center: o.Location.XY(), Radius: r}, false, nil

	case bcd.CylinderParams:
		s := o.Scale3()
		scaleXY, scaleZ := s[0], s[2]
		half := p.Length / 2 * scaleZ
		r := p.Radius * scaleXY * cylShrink
		if !finite(half, r) || r < 0 {
			return nil, false, fmt.Errorf("bad cylinder radius %v", r)
		}
		zc := o.Location[2]
		if r == 0 || z < zc-half || z > zc+half {
			return nil, false, nil
		}
		return shape.Disc{Center: o.Location.XY(), Radius: r}, false, nil

	case bcd.MeshParams:
		if o.Mesh == nil || len(o.Mesh.Vertices) < 3 {
			return nil, true, nil
		}
		pose := o.Pose()
		pts := make([]mathutil.Vec2, len(o.Mesh.Vertices))
		for i, v := range o.Mesh.Vertices {
			pts[i] = pose.MulPoint(v).XY()
		}
		poly, err := shape.NewPolygon(pts)
		if err != nil {
			return nil, true, err
		}
		return poly, true, nil

	case bcd.RayParams, bcd.TubeParams, bcd.PlaneParams:
		return nil, false, nil

	default:
		return nil, false, fmt.Errorf("unhandled params %T", p)
	}
}

// boxFootprint returns the XY projection of the box's eight posed corners.
func boxFootprint(o *bcd.Object, p bcd.BoxParams) []mathutil.Vec2 {
	l, w, d := p.Length/2, p.Width/2, p.Depth/2
	pose := o.Pose()
	pts := make([]mathutil.Vec2, 0, 8)
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				pts = append(pts, pose.MulPoint(mathutil.Vec3{sx * l, sy * w, sz * d}).XY())
			}
		}
	}
	return pts
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if !mathutil.IsFinite(v) {
			return false
		}
	}
	return true
}
