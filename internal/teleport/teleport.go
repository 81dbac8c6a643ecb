// Package teleport drives one collision-aware teleport attempt: evaluate the
// zone around the target, move directly or to a solved safe point, then
// verify the actor arrived.
package teleport

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"worlds-collide/internal/bcd"
	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
	"worlds-collide/internal/project"
	"worlds-collide/internal/region"
	"worlds-collide/internal/shape"
	"worlds-collide/internal/solver"
)

const (
	DefaultVerifyDelay   = 500 * time.Millisecond
	DefaultEpsilonFactor = 0.1
)

// Options tunes an attempt. The zero value uses the defaults.
type Options struct {
	Shrink         float64 // player radius as a share of the body radius
	DefaultRadius  float64 // obstacle radius of non-character actors
	CylinderShrink float64
	VerifyDelay    time.Duration
	EpsilonFactor  float64 // arrival tolerance as a share of the body radius
	Retries        int     // re-evaluations after a position mismatch
	Grid           region.GridOptions
	MinIslandRatio float64
	Window         float64 // half-size of the solver's first raster window

	Logger   *log.Logger
	Observer Observer
}

func (o Options) withDefaults() Options {
	if o.Shrink <= 0 {
		o.Shrink = solver.DefaultShrink
	}
	if o.DefaultRadius <= 0 {
		o.DefaultRadius = obstacle.DefaultRadius
	}
	if o.CylinderShrink <= 0 {
		o.CylinderShrink = project.DefaultCylinderShrink
	}
	if o.VerifyDelay <= 0 {
		o.VerifyDelay = DefaultVerifyDelay
	}
	if o.EpsilonFactor <= 0 {
		o.EpsilonFactor = DefaultEpsilonFactor
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}

// Plan is the evaluation of a target: everything decided before a move.
type Plan struct {
	Start      ActorState
	Target     Target
	World      *bcd.World
	Projection project.Result
	Dynamic    []shape.Shape
	BaseRadius float64
	Solution   solver.Solution
}

// Result reports the outcome of an attempt.
type Result struct {
	State      State
	Kind       FailureKind
	Direct     bool
	Intended   mathutil.Vec3
	Actual     mathutil.Vec3
	ZoneBefore string
	ZoneAfter  string
	Error2D    float64 // distance from Intended after the move
	Moved      bool    // a move command was issued, even if it returned an error
	Attempts   int
	Fallback   bool // the fallback navigator produced this result
}

// Evaluate builds a Plan for target without moving the actor.
func Evaluate(ctx context.Context, s Session, actor string, target Target, opts Options) (*Plan, error) {
	opts = opts.withDefaults()

	st, err := s.ActorState(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("teleport: actor state: %w", err)
	}
	raw, err := s.CollisionBytes(ctx, st.Zone)
	if err != nil {
		return nil, fmt.Errorf("teleport: collision data for %q: %w", st.Zone, err)
	}
	world, err := bcd.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("teleport: zone %q: %w", st.Zone, err)
	}

	proj := project.Project(world, target.Position[2], project.Options{
		CylinderShrink: opts.CylinderShrink,
		Logger:         opts.Logger,
	})

	actors, err := s.OtherActors(ctx)
	if err != nil {
		return nil, fmt.Errorf("teleport: actor list: %w", err)
	}
	dynamic := obstacle.Estimate(actors, actor, obstacle.Options{DefaultRadius: opts.DefaultRadius})

	base := obstacle.BodyRadius(st.Height, st.Scale)
	if !mathutil.IsFinite(base) || base <= 0 {
		opts.Logger.Printf("actor %q has no body size, using radius %.1f", actor, opts.DefaultRadius)
		base = opts.DefaultRadius
	}

	sol, err := solver.Solve(solver.Input{
		Walkable:   proj.Walkable,
		Static:     proj.Static,
		Dynamic:    dynamic,
		Target:     target.Position,
		BodyRadius: base,
		Shrink:     opts.Shrink,
	}, solver.Options{
		Grid:           opts.Grid,
		MinIslandRatio: opts.MinIslandRatio,
		Window:         opts.Window,
		Logger:         opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("teleport: zone %q: %w", st.Zone, err)
	}

	return &Plan{
		Start:      st,
		Target:     target,
		World:      world,
		Projection: proj,
		Dynamic:    dynamic,
		BaseRadius: base,
		Solution:   sol,
	}, nil
}

// attempt carries the state machine of one Attempt call.
type attempt struct {
	s     Session
	actor string
	opts  Options
	state State
	res   Result
}

func (a *attempt) enter(to State, err error) {
	from := a.state
	a.state = to
	if a.opts.Observer != nil {
		a.opts.Observer(Transition{Actor: a.actor, From: from, To: to, At: time.Now(), Err: err})
	}
}

func (a *attempt) fail(err error) (Result, error) {
	a.enter(StateFailed, err)
	a.res.State = StateFailed
	a.res.Kind = KindOf(err)
	a.opts.Logger.Printf("attempt for %q failed (%s): %v", a.actor, a.res.Kind, err)
	return a.res, err
}

// Attempt teleports actor to target, or to the nearest safe point when the
// target is blocked, and verifies the arrival. On failure the returned error
// is non-nil and Result.Kind classifies it; after a move was issued
// (Result.Moved) the actor may not be where it started.
func Attempt(ctx context.Context, s Session, actor string, target Target, opts Options) (Result, error) {
	opts = opts.withDefaults()
	a := &attempt{s: s, actor: actor, opts: opts}

	for {
		a.res.Attempts++
		a.enter(StateEvaluating, nil)
		plan, err := Evaluate(ctx, s, actor, target, opts)
		if err != nil {
			return a.fail(err)
		}
		a.res.ZoneBefore = plan.Start.Zone
		a.res.Intended = plan.Solution.Point
		a.res.Direct = plan.Solution.Direct

		if err := ctx.Err(); err != nil {
			return a.fail(fmt.Errorf("%w: %w", ErrCanceled, err))
		}
		if plan.Solution.Direct {
			a.enter(StateDirectMove, nil)
		} else {
			a.enter(StateSolveAndMove, nil)
			opts.Logger.Printf("target (%.1f, %.1f) blocked, moving %q to (%.1f, %.1f)",
				target.Position[0], target.Position[1], actor, a.res.Intended[0], a.res.Intended[1])
		}
		// A failed or canceled move may still reach the game.
		a.res.Moved = true
		if err := s.MoveActor(ctx, actor, a.res.Intended); err != nil {
			return a.fail(fmt.Errorf("teleport: move: %w", err))
		}

		a.enter(StateVerifying, nil)
		err = a.verify(ctx, plan)
		if err == nil {
			if target.Yaw != nil {
				if t, ok := s.(Turner); ok {
					if terr := t.TurnActor(ctx, actor, *target.Yaw); terr != nil {
						opts.Logger.Printf("turn %q: %v", actor, terr)
					}
				}
			}
			a.enter(StateSuccess, nil)
			a.res.State = StateSuccess
			a.res.Kind = FailureNone
			return a.res, nil
		}
		if KindOf(err) != FailurePositionMismatch || a.res.Attempts > opts.Retries {
			return a.fail(err)
		}
		a.enter(StateRetrying, err)
		opts.Logger.Printf("retrying %q after %v", actor, err)
	}
}

// verify waits for the session to settle and checks where the actor ended.
func (a *attempt) verify(ctx context.Context, plan *Plan) error {
	t := time.NewTimer(a.opts.VerifyDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrVerificationTimeout, ctx.Err())
	case <-t.C:
	}

	after, err := a.s.ActorState(ctx, a.actor)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrVerificationTimeout, ctx.Err())
		}
		return fmt.Errorf("teleport: actor state after move: %w", err)
	}
	a.res.Actual = after.Position
	a.res.ZoneAfter = after.Zone

	// Position checks mean nothing across a zone load.
	if after.Loading || after.Zone != plan.Start.Zone {
		a.opts.Logger.Printf("%q changed zone %q -> %q (loading=%v)", a.actor, plan.Start.Zone, after.Zone, after.Loading)
		return nil
	}

	a.res.Error2D = mathutil.Dist2D(after.Position, a.res.Intended)
	eps := a.opts.EpsilonFactor * plan.BaseRadius
	if a.res.Error2D < eps {
		return nil
	}
	return fmt.Errorf("%w: %.2f from intended point, tolerance %.2f", ErrPositionMismatch, a.res.Error2D, eps)
}

// TeleportToActor attempts a teleport onto another actor's position.
func TeleportToActor(ctx context.Context, s Session, actor, other string, opts Options) (Result, error) {
	actors, err := s.OtherActors(ctx)
	if err != nil {
		return Result{State: StateFailed, Kind: FailureSession}, fmt.Errorf("teleport: actor list: %w", err)
	}
	for _, o := range actors {
		if o.Name == other && o.Name != actor {
			return Attempt(ctx, s, actor, Target{Position: o.Position}, opts)
		}
	}
	err = fmt.Errorf("%w: %q", ErrActorNotFound, other)
	return Result{State: StateFailed, Kind: FailureSession}, err
}
