// Package region is a raster polygon-set engine for the horizontal slice:
// shapes are rasterized onto a shared grid where union, difference, erosion
// and nearest-point queries are cell operations.
package region

import (
	"errors"
	"fmt"
	"math"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
)

// ErrEmptyBounds reports a frame requested for an empty or non-finite box.
var ErrEmptyBounds = errors.New("region: empty bounds")

const (
	DefaultMaxDim  = 1024
	DefaultMinCell = 1.0

	// padCells of background surround the requested bounds.
	padCells = 2
)

// GridOptions bounds the grid resolution. The zero value uses the defaults.
type GridOptions struct {
	MaxDim  int     // cells along the longer side
	MinCell float64 // smallest cell edge in world units
}

// Frame maps world coordinates to grid cells. Cell (i, j) covers
// [Origin.x + i*Cell, Origin.x + (i+1)*Cell) and likewise along y.
type Frame struct {
	Origin mathutil.Vec2
	Cell   float64
	W, H   int
}

// NewFrame returns a frame covering b with a background margin.
func NewFrame(b shape.BBox, opts GridOptions) (Frame, error) {
	if b.Empty() || !b.Min.IsFinite() || !b.Max.IsFinite() {
		return Frame{}, ErrEmptyBounds
	}
	if opts.MaxDim <= 2*padCells {
		opts.MaxDim = DefaultMaxDim
	}
	if opts.MinCell <= 0 {
		opts.MinCell = DefaultMinCell
	}

	span := math.Max(b.Width(), b.Height())
	cell := math.Max(opts.MinCell, span/float64(opts.MaxDim-2*padCells))
	f := Frame{
		Origin: mathutil.Vec2{b.Min[0] - padCells*cell, b.Min[1] - padCells*cell},
		Cell:   cell,
		W:      int(math.Ceil(b.Width()/cell)) + 2*padCells,
		H:      int(math.Ceil(b.Height()/cell)) + 2*padCells,
	}
	if f.W*f.H <= 0 {
		return Frame{}, fmt.Errorf("%w: %dx%d grid", ErrEmptyBounds, f.W, f.H)
	}
	return f, nil
}

// CellOf returns the cell containing p.
func (f Frame) CellOf(p mathutil.Vec2) (i, j int, ok bool) {
	x := (p[0] - f.Origin[0]) / f.Cell
	y := (p[1] - f.Origin[1]) / f.Cell
	if !(x >= 0 && y >= 0) {
		return 0, 0, false
	}
	i, j = int(x), int(y)
	return i, j, i < f.W && j < f.H
}

// Center returns the world position of a cell's center.
func (f Frame) Center(i, j int) mathutil.Vec2 {
	return mathutil.Vec2{
		f.Origin[0] + (float64(i)+0.5)*f.Cell,
		f.Origin[1] + (float64(j)+0.5)*f.Cell,
	}
}

// Bounds returns the world extent of the whole grid.
func (f Frame) Bounds() shape.BBox {
	return shape.BBox{
		Min: f.Origin,
		Max: mathutil.Vec2{f.Origin[0] + float64(f.W)*f.Cell, f.Origin[1] + float64(f.H)*f.Cell},
	}
}

// CellBounds returns the world extent of one cell.
func (f Frame) CellBounds(i, j int) shape.BBox {
	min := mathutil.Vec2{f.Origin[0] + float64(i)*f.Cell, f.Origin[1] + float64(j)*f.Cell}
	return shape.BBox{Min: min, Max: mathutil.Vec2{min[0] + f.Cell, min[1] + f.Cell}}
}
