// Package obstacle turns live actors into disc obstacles.
package obstacle

import (
	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/shape"
)

// CharacterBody is the body-type tag of actors whose radius follows their
// height.
const CharacterBody = "CharacterBody"

// DefaultRadius is used for actors without a character body.
const DefaultRadius = 75.0

// Actor is a snapshot of one live actor.
type Actor struct {
	Name     string        `json:"name" yaml:"name"`
	Position mathutil.Vec3 `json:"position" yaml:"position"`
	Height   float64       `json:"height,omitempty" yaml:"height,omitempty"`
	Scale    float64       `json:"scale,omitempty" yaml:"scale,omitempty"`
	BodyType string        `json:"body_type" yaml:"body_type"`
}

// Options tunes estimation. The zero value uses the defaults.
type Options struct {
	DefaultRadius float64
}

// BodyRadius is the horizontal radius of a character body.
func BodyRadius(height, scale float64) float64 {
	return height * scale * 0.5
}

// Radius returns the obstacle radius of a.
func Radius(a Actor, opts Options) float64 {
	if a.BodyType == CharacterBody {
		return BodyRadius(a.Height, a.Scale)
	}
	if opts.DefaultRadius > 0 {
		return opts.DefaultRadius
	}
	return DefaultRadius
}

// Estimate returns one disc per actor other than self. Actors with a zero,
// negative or unreadable radius, or a non-finite position, are skipped.
func Estimate(actors []Actor, self string, opts Options) []shape.Shape {
	out := make([]shape.Shape, 0, len(actors))
	for _, a := range actors {
		if a.Name == self {
			continue
		}
		r := Radius(a, opts)
		if !mathutil.IsFinite(r) || r <= 0 || !a.Position.IsFinite() {
			continue
		}
		out = append(out, shape.Disc{Center: a.Position.XY(), Radius: r})
	}
	return out
}
