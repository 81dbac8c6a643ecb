// Package bridge carries the teleport session contract over a websocket:
// a Client on the teleport side and a Server in front of the game.
//
// Every request is one text frame {"id","op","args"} answered by one frame
// {"id","ok","error","code","result"} with the same id. Responses may arrive
// out of order.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
	"worlds-collide/internal/teleport"
	"worlds-collide/internal/zonedata"
)

// Operation names.
const (
	OpCollisionBytes = "collision_bytes"
	OpActorState     = "actor_state"
	OpOtherActors    = "other_actors"
	OpMoveActor      = "move_actor"
	OpTurnActor      = "turn_actor"
	OpNavigate       = "navigate"
)

// Error codes of failed responses.
const (
	CodeZoneDataUnavailable = "zone_data_unavailable"
	CodeActorNotFound       = "actor_not_found"
	CodeUnsupported         = "unsupported"
	CodeBadRequest          = "bad_request"
	CodeInternal            = "internal"
)

var (
	// ErrClosed reports a call on a closed or broken connection.
	ErrClosed = errors.New("bridge: connection closed")
	// ErrRemote reports a failure returned by the peer.
	ErrRemote = errors.New("bridge: remote error")
	// ErrUnsupported reports an operation the peer does not implement.
	ErrUnsupported = errors.New("bridge: unsupported operation")
)

// Request is one call frame.
type Request struct {
	ID   uint64          `json:"id"`
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response answers the request with the same ID.
type Response struct {
	ID     uint64          `json:"id"`
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

type zoneArgs struct {
	Zone string `json:"zone"`
}

type collisionResult struct {
	Data []byte `json:"data"` // base64 on the wire
}

type actorArgs struct {
	Actor string `json:"actor"`
}

type actorsResult struct {
	Actors []obstacle.Actor `json:"actors"`
}

type moveArgs struct {
	Actor    string        `json:"actor"`
	Position mathutil.Vec3 `json:"position"`
}

type turnArgs struct {
	Actor string  `json:"actor"`
	Yaw   float64 `json:"yaw"`
}

// codeOf classifies a session error for the wire.
func codeOf(err error) string {
	switch {
	case errors.Is(err, zonedata.ErrZoneDataUnavailable):
		return CodeZoneDataUnavailable
	case errors.Is(err, teleport.ErrActorNotFound):
		return CodeActorNotFound
	case errors.Is(err, ErrUnsupported):
		return CodeUnsupported
	}
	return CodeInternal
}

// remoteError rebuilds a failed response as an error that matches the
// sentinel of its code.
func remoteError(op string, r Response) error {
	var base error
	switch r.Code {
	case CodeZoneDataUnavailable:
		base = zonedata.ErrZoneDataUnavailable
	case CodeActorNotFound:
		base = teleport.ErrActorNotFound
	case CodeUnsupported:
		base = ErrUnsupported
	default:
		base = ErrRemote
	}
	return fmt.Errorf("bridge: %s: %w: %s", op, base, r.Error)
}
