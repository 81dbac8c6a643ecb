// Package solver finds a collision-free teleport destination on the
// horizontal slice: the target itself when its clearance disc is free,
// otherwise the nearest point of the free area shrunk by the player radius.
package solver

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/region"
	"worlds-collide/internal/shape"
)

var (
	// ErrNoFreeArea reports a floor entirely covered by obstacles, or no floor.
	ErrNoFreeArea = errors.New("solver: no free area")
	// ErrNoSafeRegion reports a free area with no room for the player radius.
	ErrNoSafeRegion = errors.New("solver: no safe region")
	// ErrInvalidInput reports a non-finite target or a negative radius.
	ErrInvalidInput = errors.New("solver: invalid input")
)

const (
	DefaultShrink      = 0.5
	DefaultRefineSteps = 16
	DefaultWindow      = 256.0
)

// Input is one solve request. Shapes are read, never modified.
type Input struct {
	Walkable   []shape.Shape
	Static     []shape.Shape
	Dynamic    []shape.Shape
	Target     mathutil.Vec3
	BodyRadius float64
	Shrink     float64 // multiplier on BodyRadius; zero means DefaultShrink
}

// Options tunes the solver. The zero value uses the defaults.
type Options struct {
	Grid           region.GridOptions
	MinIslandRatio float64 // drop safe islands below this share of the safe area
	RefineSteps    int
	Window         float64 // half-size of the first raster window around the target
	Logger         *log.Logger
}

// Solution is a solved destination. Z always equals the target's Z.
type Solution struct {
	Point        mathutil.Vec3
	Direct       bool    // target was clear and is returned unchanged
	PlayerRadius float64 // BodyRadius × Shrink
	Bounds       shape.BBox

	// Rasters of the last window solved. Safe is nil on the direct path.
	Blocked *region.Region
	Free    *region.Region
	Safe    *region.Region
	Islands int
}

// Solve computes a safe destination for in.Target.
func Solve(in Input, opts Options) (Solution, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.RefineSteps <= 0 {
		opts.RefineSteps = DefaultRefineSteps
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	shrink := in.Shrink
	if shrink <= 0 {
		shrink = DefaultShrink
	}
	if !in.Target.IsFinite() || !mathutil.IsFinite(in.BodyRadius) || in.BodyRadius < 0 {
		return Solution{}, fmt.Errorf("%w: target %v, body radius %v", ErrInvalidInput, in.Target, in.BodyRadius)
	}

	obstacles := make([]shape.Shape, 0, len(in.Static)+len(in.Dynamic))
	obstacles = append(obstacles, in.Static...)
	obstacles = append(obstacles, in.Dynamic...)

	sol := Solution{
		PlayerRadius: in.BodyRadius * shrink,
		Bounds:       shape.BoundsOf(in.Walkable, obstacles),
	}
	if len(in.Walkable) == 0 {
		return Solution{}, fmt.Errorf("%w: no walkable geometry", ErrNoFreeArea)
	}
	if !sol.Bounds.Min.IsFinite() || !sol.Bounds.Max.IsFinite() {
		return Solution{}, fmt.Errorf("%w: non-finite geometry bounds", ErrInvalidInput)
	}

	idx := NewIndex(obstacles)
	target := in.Target.XY()

	// The raster covers a square window around the target, doubled until it
	// holds an answer or the whole slice, so the cell size follows the
	// neighbourhood of the target rather than the extent of the zone.
	half := math.Max(opts.Window, 4*sol.PlayerRadius) + sol.Bounds.Clamp(target).Dist(target)
	checkedDirect := false
	for {
		win := shape.BBox{
			Min: mathutil.Vec2{target[0] - half, target[1] - half},
			Max: mathutil.Vec2{target[0] + half, target[1] + half},
		}
		whole := win.ContainsBox(sol.Bounds)
		frame, err := region.NewFrame(win.Intersect(sol.Bounds), opts.Grid)
		if err != nil {
			return Solution{}, fmt.Errorf("%w: %v", ErrNoFreeArea, err)
		}
		floor := region.Fill(frame, in.Walkable, region.CoverHalf)
		sol.Blocked = region.Fill(frame, obstacles, region.CoverAny)
		sol.Free = floor.Difference(sol.Blocked)
		if sol.Free.Empty() {
			switch {
			case whole && checkedDirect:
				// Free space seen in a finer window is too thin for this grid.
				return Solution{}, fmt.Errorf("%w: player radius %.2f", ErrNoSafeRegion, sol.PlayerRadius)
			case whole:
				return Solution{}, ErrNoFreeArea
			}
			half *= 2
			continue
		}

		if !checkedDirect {
			checkedDirect = true
			if idx.DiscClear(target, sol.PlayerRadius) {
				sol.Point = in.Target
				sol.Direct = true
				return sol, nil
			}
		}

		safe := sol.Free.Erode(sol.PlayerRadius)
		if opts.MinIslandRatio > 0 {
			safe = safe.RemoveSmall(opts.MinIslandRatio)
		}
		if safe.Empty() {
			if whole {
				return Solution{}, fmt.Errorf("%w: player radius %.2f", ErrNoSafeRegion, sol.PlayerRadius)
			}
			half *= 2
			continue
		}

		nearest, _ := safe.Nearest(target)
		// Cells within reach of a cut window edge are eroded away, so a
		// closer safe point may lie just past it.
		if !whole && nearest.Dist(target) > half-sol.PlayerRadius-3*frame.Cell {
			half *= 2
			continue
		}

		sol.Safe = safe
		sol.Islands = len(safe.Components())
		floorSafe := floor.Erode(sol.PlayerRadius)
		p := refine(idx, floorSafe, nearest, target, sol.PlayerRadius, opts.RefineSteps)
		p = sol.Bounds.Clamp(p)

		logger.Printf("slow path: target=(%.1f, %.1f) solved=(%.1f, %.1f) radius=%.1f window=%.0f cell=%.2f islands=%d",
			target[0], target[1], p[0], p[1], sol.PlayerRadius, half, frame.Cell, sol.Islands)

		sol.Point = mathutil.Vec3{p[0], p[1], in.Target[2]}
		return sol, nil
	}
}

// refine walks from a raster answer toward the target while the exact
// clearance holds, returning the last point that kept it.
func refine(idx *Index, floorSafe *region.Region, from, to mathutil.Vec2, r float64, steps int) mathutil.Vec2 {
	ok := func(q mathutil.Vec2) bool {
		return floorSafe.Contains(q) && idx.Clearance(q, r+1) >= r
	}
	if !ok(from) {
		return from
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < steps; i++ {
		mid := (lo + hi) / 2
		if ok(from.Lerp(to, mid)) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return from.Lerp(to, lo)
}
