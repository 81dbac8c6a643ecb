package region

import "math"

// far stands in for infinity in the distance transform; real infinities
// would turn the parabola intersections into NaN.
const far = 1e20

// Distance returns, per cell, the world distance from the cell's center to
// the nearest cell center outside the region. Cells outside the frame count
// as outside the region.
func (r *Region) Distance() []float64 {
	w, h := r.W, r.H
	grid := make([]float64, w*h)
	for k, c := range r.cells {
		if c {
			grid[k] = far
		}
	}

	n := max(w, h)
	f := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	// Columns, then rows (Felzenszwalb & Huttenlocher).
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			f[j] = grid[j*w+i]
		}
		dt1d(f[:h], d[:h], v, z)
		for j := 0; j < h; j++ {
			grid[j*w+i] = d[j]
		}
	}
	for j := 0; j < h; j++ {
		row := grid[j*w : (j+1)*w]
		copy(f, row)
		dt1d(f[:w], d[:w], v, z)
		copy(row, d[:w])
	}

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			k := j*w + i
			if !r.cells[k] {
				grid[k] = 0
				continue
			}
			// Nearest virtual background just past the frame edge.
			edge := float64(min(i+1, w-i, j+1, h-j))
			grid[k] = math.Min(math.Sqrt(grid[k]), edge) * r.Cell
		}
	}
	return grid
}

// dt1d is the 1D squared distance transform of sampled function f into d.
func dt1d(f, d []float64, v []int, z []float64) {
	n := len(f)
	if n == 0 {
		return
	}
	k := 0
	v[0] = 0
	z[0] = -far
	z[1] = far
	for q := 1; q < n; q++ {
		s := intersect(f, q, v[k])
		for s <= z[k] {
			k--
			s = intersect(f, q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = far
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

func intersect(f []float64, q, p int) float64 {
	fq, fp := float64(q), float64(p)
	return ((f[q] + fq*fq) - (f[p] + fp*fp)) / (2*fq - 2*fp)
}

// Erode shrinks the region by radius: a cell survives only when every point
// of it lies at least radius away from the region's complement.
func (r *Region) Erode(radius float64) *Region {
	if radius <= 0 {
		return r.Clone()
	}
	// Two cells of slack cover the extent of both cells and coverage lost
	// to rounding along shape edges.
	need := radius + 2*r.Cell
	dist := r.Distance()
	out := New(r.Frame)
	for k, d := range dist {
		out.cells[k] = r.cells[k] && d >= need
	}
	return out
}
