package teleport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"worlds-collide/internal/bcd"
	"worlds-collide/internal/solver"
	"worlds-collide/internal/zonedata"
)

var (
	// ErrVerificationTimeout reports an attempt canceled while waiting to
	// verify. The move was already issued.
	ErrVerificationTimeout = errors.New("teleport: verification timed out")
	// ErrPositionMismatch reports an actor that did not arrive near the
	// intended point.
	ErrPositionMismatch = errors.New("teleport: position mismatch")
	// ErrCanceled reports an attempt canceled before any move was issued.
	ErrCanceled = errors.New("teleport: canceled before move")
	// ErrActorNotFound reports a TeleportToActor target missing from the
	// actor list.
	ErrActorNotFound = errors.New("teleport: actor not found")
)

// State is a step of an attempt.
type State int

const (
	StateIdle State = iota
	StateEvaluating
	StateDirectMove
	StateSolveAndMove
	StateVerifying
	StateRetrying
	StateSuccess
	StateFailed
)

var stateNames = [...]string{"idle", "evaluating", "direct_move", "solve_and_move", "verifying", "retrying", "success", "failed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FailureKind classifies why an attempt failed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureZoneDataUnavailable
	FailureTruncatedStream
	FailureUnknownPrimitiveKind
	FailureBadMeshIndex
	FailureCorruptStream
	FailureNoFreeArea
	FailureNoSafeRegion
	FailureVerificationTimeout
	FailurePositionMismatch
	FailureCanceled
	FailureSession
)

var failureNames = [...]string{
	"none", "zone_data_unavailable", "truncated_stream", "unknown_primitive_kind",
	"bad_mesh_index", "corrupt_stream", "no_free_area", "no_safe_region",
	"verification_timeout", "position_mismatch", "canceled", "session",
}

func (k FailureKind) String() string {
	if k >= 0 && int(k) < len(failureNames) {
		return failureNames[k]
	}
	return fmt.Sprintf("failure(%d)", int(k))
}

// KindOf maps an attempt error to its failure kind.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrVerificationTimeout):
		return FailureVerificationTimeout
	case errors.Is(err, ErrPositionMismatch):
		return FailurePositionMismatch
	case errors.Is(err, zonedata.ErrZoneDataUnavailable):
		return FailureZoneDataUnavailable
	case errors.Is(err, bcd.ErrTruncatedStream):
		return FailureTruncatedStream
	case errors.Is(err, bcd.ErrUnknownPrimitiveKind):
		return FailureUnknownPrimitiveKind
	case errors.Is(err, bcd.ErrBadMeshIndex):
		return FailureBadMeshIndex
	case errors.Is(err, bcd.ErrCorruptStream):
		return FailureCorruptStream
	case errors.Is(err, solver.ErrNoFreeArea):
		return FailureNoFreeArea
	case errors.Is(err, solver.ErrNoSafeRegion):
		return FailureNoSafeRegion
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	default:
		return FailureSession
	}
}

// Transition is reported to an Observer on every state change.
type Transition struct {
	Actor string
	From  State
	To    State
	At    time.Time
	Err   error // set when To is StateFailed
}

// Observer receives transitions synchronously.
type Observer func(Transition)
