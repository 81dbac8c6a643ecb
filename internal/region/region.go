package region

import (
	"image"
	"math"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
)

// Region is a set of cells on a frame. Regions combined by set operations
// must share a frame.
type Region struct {
	Frame
	cells []bool // row-major, len = W*H
}

// New returns an empty region on f.
func New(f Frame) *Region {
	return &Region{Frame: f, cells: make([]bool, f.W*f.H)}
}

func (r *Region) at(i, j int) bool {
	return r.cells[j*r.W+i]
}

func (r *Region) sameFrame(o *Region) {
	if r.Frame != o.Frame {
		panic("region: frames differ")
	}
}

// Clone returns an independent copy.
func (r *Region) Clone() *Region {
	out := &Region{Frame: r.Frame, cells: make([]bool, len(r.cells))}
	copy(out.cells, r.cells)
	return out
}

// Union returns r ∪ o.
func (r *Region) Union(o *Region) *Region {
	r.sameFrame(o)
	out := New(r.Frame)
	for i := range out.cells {
		out.cells[i] = r.cells[i] || o.cells[i]
	}
	return out
}

// Difference returns r \ o.
func (r *Region) Difference(o *Region) *Region {
	r.sameFrame(o)
	out := New(r.Frame)
	for i := range out.cells {
		out.cells[i] = r.cells[i] && !o.cells[i]
	}
	return out
}

// Intersects reports whether r and o share a cell.
func (r *Region) Intersects(o *Region) bool {
	r.sameFrame(o)
	for i := range r.cells {
		if r.cells[i] && o.cells[i] {
			return true
		}
	}
	return false
}

// Count returns the number of set cells.
func (r *Region) Count() int {
	n := 0
	for _, c := range r.cells {
		if c {
			n++
		}
	}
	return n
}

func (r *Region) Empty() bool {
	for _, c := range r.cells {
		if c {
			return false
		}
	}
	return true
}

// Area returns the covered world area.
func (r *Region) Area() float64 {
	return float64(r.Count()) * r.Cell * r.Cell
}

// Contains reports whether the cell holding p is set.
func (r *Region) Contains(p mathutil.Vec2) bool {
	i, j, ok := r.CellOf(p)
	return ok && r.at(i, j)
}

// Nearest returns the center of the set cell closest to p. Ties resolve to
// the first cell in row-major order.
func (r *Region) Nearest(p mathutil.Vec2) (mathutil.Vec2, bool) {
	best := math.Inf(1)
	var out mathutil.Vec2
	found := false
	for j := 0; j < r.H; j++ {
		for i := 0; i < r.W; i++ {
			if !r.at(i, j) {
				continue
			}
			c := r.Center(i, j)
			d := c.Sub(p)
			if d2 := d.Dot(d); d2 < best {
				best, out, found = d2, c, true
			}
		}
	}
	return out, found
}

// Bounds returns the world extent of the set cells.
func (r *Region) Bounds() shape.BBox {
	b := shape.EmptyBBox()
	for j := 0; j < r.H; j++ {
		for i := 0; i < r.W; i++ {
			if r.at(i, j) {
				b = b.Union(r.CellBounds(i, j))
			}
		}
	}
	return b
}

// Alpha renders the region as a mask, 255 for set cells. Row 0 of the image
// is the lowest grid row.
func (r *Region) Alpha() *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, r.W, r.H))
	for j := 0; j < r.H; j++ {
		for i := 0; i < r.W; i++ {
			if r.at(i, j) {
				img.Pix[j*img.Stride+i] = 0xff
			}
		}
	}
	return img
}
