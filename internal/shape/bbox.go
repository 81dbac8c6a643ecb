package shape

import (
	"math"

	"worlds-collide/internal/mathutil"
)

// BBox is an axis-aligned rectangle. An empty box has Min > Max.
type BBox struct {
	Min, Max mathutil.Vec2
}

func EmptyBBox() BBox {
	return BBox{
		Min: mathutil.Vec2{math.Inf(1), math.Inf(1)},
		Max: mathutil.Vec2{math.Inf(-1), math.Inf(-1)},
	}
}

func (b BBox) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1]
}

func (b BBox) Extend(p mathutil.Vec2) BBox {
	return BBox{
		Min: mathutil.Vec2{math.Min(b.Min[0], p[0]), math.Min(b.Min[1], p[1])},
		Max: mathutil.Vec2{math.Max(b.Max[0], p[0]), math.Max(b.Max[1], p[1])},
	}
}

func (b BBox) Union(o BBox) BBox {
	if o.Empty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Grow expands the box by d on every side.
func (b BBox) Grow(d float64) BBox {
	if b.Empty() {
		return b
	}
	return BBox{
		Min: mathutil.Vec2{b.Min[0] - d, b.Min[1] - d},
		Max: mathutil.Vec2{b.Max[0] + d, b.Max[1] + d},
	}
}

func (b BBox) Overlaps(o BBox) bool {
	return !b.Empty() && !o.Empty() &&
		b.Min[0] <= o.Max[0] && o.Min[0] <= b.Max[0] &&
		b.Min[1] <= o.Max[1] && o.Min[1] <= b.Max[1]
}

// Intersect returns the overlap of b and o, empty when they are disjoint.
func (b BBox) Intersect(o BBox) BBox {
	return BBox{
		Min: mathutil.Vec2{math.Max(b.Min[0], o.Min[0]), math.Max(b.Min[1], o.Min[1])},
		Max: mathutil.Vec2{math.Min(b.Max[0], o.Max[0]), math.Min(b.Max[1], o.Max[1])},
	}
}

// ContainsBox reports whether o lies entirely inside b.
func (b BBox) ContainsBox(o BBox) bool {
	return !b.Empty() && !o.Empty() &&
		b.Min[0] <= o.Min[0] && b.Min[1] <= o.Min[1] &&
		b.Max[0] >= o.Max[0] && b.Max[1] >= o.Max[1]
}

// Clamp returns p moved to the nearest point inside the box.
func (b BBox) Clamp(p mathutil.Vec2) mathutil.Vec2 {
	if b.Empty() {
		return p
	}
	return mathutil.Vec2{
		math.Max(b.Min[0], math.Min(b.Max[0], p[0])),
		math.Max(b.Min[1], math.Min(b.Max[1], p[1])),
	}
}

func (b BBox) Width() float64  { return b.Max[0] - b.Min[0] }
func (b BBox) Height() float64 { return b.Max[1] - b.Min[1] }

// BoundsOf returns the union of the shapes' bounding boxes.
func BoundsOf(shapes ...[]Shape) BBox {
	b := EmptyBBox()
	for _, set := range shapes {
		for _, s := range set {
			b = b.Union(s.Bounds())
		}
	}
	return b
}
