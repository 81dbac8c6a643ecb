package solver

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
)

// Index answers exact distance queries against obstacle footprints. It keeps
// the shapes as static Chipmunk shapes so queries use the space's bounding
// volume tree.
type Index struct {
	space *cp.Space
	n     int
}

// NewIndex loads shapes into a fresh space.
func NewIndex(shapes []shape.Shape) *Index {
	idx := &Index{space: cp.NewSpace()}
	body := idx.space.StaticBody
	for _, s := range shapes {
		var cs *cp.Shape
		switch s := s.(type) {
		case shape.Polygon:
			if len(s) < 3 {
				continue
			}
			verts := make([]cp.Vector, len(s))
			for i, v := range s {
				verts[i] = cp.Vector{X: v[0], Y: v[1]}
			}
			cs = cp.NewPolyShapeRaw(body, len(verts), verts, 0)
		case shape.Disc:
			if s.Radius <= 0 {
				continue
			}
			cs = cp.NewCircle(body, s.Radius, cp.Vector{X: s.Center[0], Y: s.Center[1]})
		default:
			panic(fmt.Sprintf("solver: unhandled shape %T", s))
		}
		idx.space.AddShape(cs)
		idx.n++
	}
	return idx
}

// Len returns the number of indexed shapes.
func (idx *Index) Len() int {
	return idx.n
}

// Clearance returns the distance from p to the nearest obstacle, negative
// inside one. Distances beyond limit are reported as +Inf.
func (idx *Index) Clearance(p mathutil.Vec2, limit float64) float64 {
	if idx.n == 0 {
		return math.Inf(1)
	}
	info := idx.space.PointQueryNearest(cp.Vector{X: p[0], Y: p[1]}, limit, cp.SHAPE_FILTER_ALL)
	if info == nil || info.Shape == nil {
		return math.Inf(1)
	}
	return info.Distance
}

// DiscClear reports whether a disc of radius r at p touches no obstacle.
func (idx *Index) DiscClear(p mathutil.Vec2, r float64) bool {
	return idx.Clearance(p, r+1) > r
}
