package teleport

import (
	"context"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
)

// ActorState is the live state of the acting actor.
type ActorState struct {
	Position mathutil.Vec3 `json:"position"`
	Zone     string        `json:"zone"`
	Loading  bool          `json:"loading"`
	Height   float64       `json:"height"`
	Scale    float64       `json:"scale"`
}

// Session is the game-side collaborator an attempt drives.
type Session interface {
	// CollisionBytes returns the raw collision stream of zone.
	CollisionBytes(ctx context.Context, zone string) ([]byte, error)
	ActorState(ctx context.Context, actor string) (ActorState, error)
	// OtherActors lists every live actor; the caller filters itself out.
	OtherActors(ctx context.Context) ([]obstacle.Actor, error)
	// MoveActor issues a move command. Success does not mean the actor
	// arrived.
	MoveActor(ctx context.Context, actor string, pos mathutil.Vec3) error
}

// Turner is implemented by sessions that can set an actor's facing.
type Turner interface {
	TurnActor(ctx context.Context, actor string, yaw float64) error
}

// Navigator is an independent movement strategy tried after a failed
// attempt, such as walking a waypoint graph.
type Navigator interface {
	Navigate(ctx context.Context, actor string, pos mathutil.Vec3) error
}

// Target is a teleport destination with an optional facing in radians.
type Target struct {
	Position mathutil.Vec3 `json:"position" yaml:"position"`
	Yaw      *float64      `json:"yaw,omitempty" yaml:"yaw,omitempty"`
}
