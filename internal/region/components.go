package region

import (
	"sort"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
)

// Component is one 8-connected island of a region.
type Component struct {
	Cells    int
	Area     float64
	Bounds   shape.BBox
	Centroid mathutil.Vec2
}

// Components labels the 8-connected islands of r, largest first.
func (r *Region) Components() []Component {
	labels, sizes := r.label()
	comps := make([]Component, len(sizes))
	sums := make([]mathutil.Vec2, len(sizes))
	for k := range comps {
		comps[k].Bounds = shape.EmptyBBox()
	}
	for j := 0; j < r.H; j++ {
		for i := 0; i < r.W; i++ {
			l := labels[j*r.W+i]
			if l < 0 {
				continue
			}
			c := &comps[l]
			c.Cells++
			c.Bounds = c.Bounds.Union(r.CellBounds(i, j))
			sums[l] = sums[l].Add(r.Center(i, j))
		}
	}
	for k := range comps {
		comps[k].Area = float64(comps[k].Cells) * r.Cell * r.Cell
		n := float64(comps[k].Cells)
		comps[k].Centroid = mathutil.Vec2{sums[k][0] / n, sums[k][1] / n}
	}
	sort.SliceStable(comps, func(a, b int) bool {
		return comps[a].Cells > comps[b].Cells
	})
	return comps
}

// RemoveSmall drops islands smaller than minRatio of the region's cells.
func (r *Region) RemoveSmall(minRatio float64) *Region {
	labels, sizes := r.label()
	if len(sizes) <= 1 || minRatio <= 0 {
		return r.Clone()
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	minSize := int(float64(total) * minRatio)

	out := New(r.Frame)
	for k, l := range labels {
		out.cells[k] = l >= 0 && sizes[l] >= minSize
	}
	return out
}

// label runs an 8-connected flood fill. Unset cells get label -1.
func (r *Region) label() (labels []int, sizes []int) {
	w, h := r.W, r.H
	labels = make([]int, w*h)
	for i := range labels {
		labels[i] = -1
	}

	dx := [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := [8]int{-1, -1, -1, 0, 0, 1, 1, 1}

	queue := make([]int, 0, 1024)
	id := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !r.cells[idx] || labels[idx] >= 0 {
				continue
			}

			queue = queue[:0]
			queue = append(queue, idx)
			labels[idx] = id
			size := 0

			for len(queue) > 0 {
				curr := queue[0]
				queue = queue[1:]
				size++

				cy := curr / w
				cx := curr % w
				for d := 0; d < 8; d++ {
					nx := cx + dx[d]
					ny := cy + dy[d]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if r.cells[ni] && labels[ni] < 0 {
						labels[ni] = id
						queue = append(queue, ni)
					}
				}
			}

			sizes = append(sizes, size)
			id++
		}
	}
	return labels, sizes
}
