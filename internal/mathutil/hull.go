package mathutil

import "sort"

// ConvexHull returns the counter-clockwise convex hull of pts (Andrew's
// monotone chain). Collinear and duplicate points are dropped, so the result
// has fewer than 3 points when the input is degenerate. pts is not modified.
func ConvexHull(pts []Vec2) []Vec2 {
	if len(pts) < 3 {
		out := make([]Vec2, len(pts))
		copy(out, pts)
		return out
	}

	sorted := make([]Vec2, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	hull := make([]Vec2, 0, 2*len(sorted))
	// Lower hull
	for _, p := range sorted {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Upper hull
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Last point repeats the first.
	return hull[:len(hull)-1]
}

// PolygonArea returns the signed area of a closed ring (positive when CCW).
func PolygonArea(ring []Vec2) float64 {
	if len(ring) < 3 {
		return 0
	}
	var a float64
	for i := range ring {
		j := (i + 1) % len(ring)
		a += ring[i].Cross(ring[j])
	}
	return a / 2
}

func turn(o, a, b Vec2) float64 {
	return a.Sub(o).Cross(b.Sub(o))
}
