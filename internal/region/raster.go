package region

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
)

// Cover is the minimum coverage (out of 255) for a cell to join a region.
type Cover uint8

const (
	// CoverAny sets every cell a shape touches. Obstacles use it so the
	// blocked region never undercounts.
	CoverAny Cover = 1
	// CoverHalf sets cells at least half covered.
	CoverHalf Cover = 128
)

// Fill rasterizes the union of shapes onto f.
func Fill(f Frame, shapes []shape.Shape, cover Cover) *Region {
	mask := image.NewAlpha(image.Rect(0, 0, f.W, f.H))
	z := vector.NewRasterizer(1, 1)
	z.DrawOp = draw.Over

	for _, s := range shapes {
		rasterize(z, mask, f, s)
	}

	out := New(f)
	for j := 0; j < f.H; j++ {
		row := mask.Pix[j*mask.Stride : j*mask.Stride+f.W]
		for i, a := range row {
			out.cells[j*f.W+i] = a >= uint8(cover)
		}
	}
	return out
}

// rasterize draws one shape into the part of mask under its bounding box.
func rasterize(z *vector.Rasterizer, mask *image.Alpha, f Frame, s shape.Shape) {
	b := s.Bounds()
	x0 := int(math.Floor((b.Min[0] - f.Origin[0]) / f.Cell))
	y0 := int(math.Floor((b.Min[1] - f.Origin[1]) / f.Cell))
	x1 := int(math.Ceil((b.Max[0] - f.Origin[0]) / f.Cell))
	y1 := int(math.Ceil((b.Max[1] - f.Origin[1]) / f.Cell))
	rect := image.Rect(x0, y0, x1, y1)
	if rect.Empty() || !rect.Overlaps(mask.Bounds()) {
		return
	}
	ring := Outline(s, f.Cell)
	if len(ring) < 3 {
		return
	}
	z.Reset(rect.Dx(), rect.Dy())

	// Path coordinates are in cells relative to rect.Min.
	to := func(p mathutil.Vec2) (float32, float32) {
		return float32((p[0]-f.Origin[0])/f.Cell - float64(rect.Min.X)),
			float32((p[1]-f.Origin[1])/f.Cell - float64(rect.Min.Y))
	}
	z.MoveTo(to(ring[0]))
	for _, p := range ring[1:] {
		z.LineTo(to(p))
	}
	z.ClosePath()

	if rect.In(mask.Bounds()) {
		z.Draw(mask, rect, image.Opaque, image.Point{})
		return
	}
	// Shapes reaching past the frame are drawn whole, then clipped.
	tmp := image.NewAlpha(rect)
	z.Draw(tmp, rect, image.Opaque, image.Point{})
	draw.Draw(mask, rect.Intersect(mask.Bounds()), tmp, rect.Intersect(mask.Bounds()).Min, draw.Over)
}

// Outline returns the boundary ring of s. Discs become regular polygons
// circumscribing the circle, with about one segment per cell of arc.
func Outline(s shape.Shape, cell float64) []mathutil.Vec2 {
	switch s := s.(type) {
	case shape.Polygon:
		return s
	case shape.Disc:
		n := int(math.Ceil(2 * math.Pi * s.Radius / cell))
		n = max(16, min(n, 256))
		r := s.Radius / math.Cos(math.Pi/float64(n))
		ring := make([]mathutil.Vec2, n)
		for k := range ring {
			a := 2 * math.Pi * float64(k) / float64(n)
			ring[k] = mathutil.Vec2{s.Center[0] + r*math.Cos(a), s.Center[1] + r*math.Sin(a)}
		}
		return ring
	default:
		panic(fmt.Sprintf("region: unhandled shape %T", s))
	}
}
