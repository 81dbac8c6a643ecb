package teleport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"worlds-collide/internal/mathutil"
)

const (
	DefaultFallbackDelay = time.Second
	DefaultFallbackSigma = 5.0
)

// FallbackOptions tunes WithFallback. The zero value uses the defaults.
type FallbackOptions struct {
	Delay time.Duration // wait after the navigator returns
	Sigma float64       // minimum 3D displacement counted as movement
}

// WithFallback runs Attempt and, when it fails, hands the target to nav.
// The fallback counts as a success when the actor moved more than Sigma or
// changed zone. An attempt canceled by ctx is not retried.
func WithFallback(ctx context.Context, s Session, nav Navigator, actor string, target Target, opts Options, fb FallbackOptions) (Result, error) {
	res, err := Attempt(ctx, s, actor, target, opts)
	if err == nil || nav == nil || ctx.Err() != nil {
		return res, err
	}
	opts = opts.withDefaults()
	if fb.Delay <= 0 {
		fb.Delay = DefaultFallbackDelay
	}
	if fb.Sigma <= 0 {
		fb.Sigma = DefaultFallbackSigma
	}
	opts.Logger.Printf("attempt for %q failed (%s), trying fallback navigation", actor, res.Kind)

	start, serr := s.ActorState(ctx, actor)
	if serr != nil {
		return res, errors.Join(err, fmt.Errorf("teleport: fallback: %w", serr))
	}
	if nerr := nav.Navigate(ctx, actor, target.Position); nerr != nil {
		return res, errors.Join(err, fmt.Errorf("teleport: fallback: %w", nerr))
	}

	t := time.NewTimer(fb.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return res, errors.Join(err, fmt.Errorf("%w: %w", ErrVerificationTimeout, ctx.Err()))
	case <-t.C:
	}

	end, serr := s.ActorState(ctx, actor)
	if serr != nil {
		return res, errors.Join(err, fmt.Errorf("teleport: fallback: %w", serr))
	}
	moved := end.Position.Sub(start.Position).Len() > fb.Sigma
	zoneChanged := end.Zone != start.Zone
	opts.Logger.Printf("fallback for %q: moved=%v zone_changed=%v", actor, moved, zoneChanged)

	out := Result{
		State:      StateFailed,
		Kind:       res.Kind,
		Intended:   target.Position,
		Actual:     end.Position,
		ZoneBefore: start.Zone,
		ZoneAfter:  end.Zone,
		Error2D:    mathutil.Dist2D(end.Position, target.Position),
		Moved:      true,
		Attempts:   res.Attempts + 1,
		Fallback:   true,
	}
	if moved || zoneChanged || end.Loading {
		out.State = StateSuccess
		out.Kind = FailureNone
		return out, nil
	}
	return out, fmt.Errorf("%w: fallback did not move %q", err, actor)
}
