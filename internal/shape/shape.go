// Package shape holds the 2D footprints the projector and obstacle estimator
// produce on the horizontal slice.
package shape

import (
	"fmt"
	"math"

	"worlds-collide/internal/mathutil"
)

// Shape is a closed 2D region: a convex Polygon or a Disc.
type Shape interface {
	// Bounds returns the axis-aligned bounding box.
	Bounds() BBox
	// Contains reports whether p lies inside or on the boundary.
	Contains(p mathutil.Vec2) bool
	sealed()
}

// Polygon is a convex ring in counter-clockwise order, at least 3 vertices.
type Polygon []mathutil.Vec2

// Disc is a circle of Radius around Center.
type Disc struct {
	Center mathutil.Vec2
	Radius float64
}

func (Polygon) sealed() {}
func (Disc) sealed()    {}

// NewPolygon returns the convex hull of pts. It fails when the hull is
// degenerate or any point is not finite.
func NewPolygon(pts []mathutil.Vec2) (Polygon, error) {
	for _, p := range pts {
		if !p.IsFinite() {
			return nil, fmt.Errorf("shape: non-finite vertex %v", p)
		}
	}
	hull := mathutil.ConvexHull(pts)
	if len(hull) < 3 || mathutil.PolygonArea(hull) <= 0 {
		return nil, fmt.Errorf("shape: degenerate hull of %d points", len(pts))
	}
	return Polygon(hull), nil
}

func (p Polygon) Bounds() BBox {
	b := EmptyBBox()
	for _, v := range p {
		b = b.Extend(v)
	}
	return b
}

func (p Polygon) Contains(q mathutil.Vec2) bool {
	if len(p) < 3 {
		return false
	}
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		if b.Sub(a).Cross(q.Sub(a)) < -1e-9 {
			return false
		}
	}
	return true
}

// Area returns the polygon's area.
func (p Polygon) Area() float64 {
	return math.Abs(mathutil.PolygonArea(p))
}

func (d Disc) Bounds() BBox {
	return BBox{
		Min: mathutil.Vec2{d.Center[0] - d.Radius, d.Center[1] - d.Radius},
		Max: mathutil.Vec2{d.Center[0] + d.Radius, d.Center[1] + d.Radius},
	}
}

func (d Disc) Contains(q mathutil.Vec2) bool {
	return d.Center.Dist(q) <= d.Radius
}

// DistanceTo returns the distance from q to the shape's boundary, zero when
// q is inside.
func DistanceTo(s Shape, q mathutil.Vec2) float64 {
	switch s := s.(type) {
	case Disc:
		return math.Max(0, s.Center.Dist(q)-s.Radius)
	case Polygon:
		if s.Contains(q) {
			return 0
		}
		best := math.Inf(1)
		for i := range s {
			a, b := s[i], s[(i+1)%len(s)]
			best = math.Min(best, segmentDist(a, b, q))
		}
		return best
	default:
		panic(fmt.Sprintf("shape: unhandled %T", s))
	}
}

func segmentDist(a, b, q mathutil.Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a.Dist(q)
	}
	t := q.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Lerp(b, t).Dist(q)
}
