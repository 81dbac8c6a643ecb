// Package simgame is an in-memory game session for exercising teleports
// without a live client. Moves into blocked ground snap back the way the
// game's server does.
package simgame

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"worlds-collide/internal/bcd"
	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
	"worlds-collide/internal/project"
	"worlds-collide/internal/shape"
	"worlds-collide/internal/solver"
	"worlds-collide/internal/teleport"
)

// Source serves collision streams by zone name.
type Source interface {
	CollisionBytes(ctx context.Context, zone string) ([]byte, error)
}

// Player is the controllable actor of a scene.
type Player struct {
	Name     string        `yaml:"name"`
	Position mathutil.Vec3 `yaml:"position"`
	Height   float64       `yaml:"height"`
	Scale    float64       `yaml:"scale"`
}

// Scene is the YAML layout of a simulated session.
type Scene struct {
	Zone   string           `yaml:"zone"`
	Player Player           `yaml:"player"`
	Actors []obstacle.Actor `yaml:"actors"`
}

// LoadScene reads a scene file. The player defaults to "Player Object" with a
// height of 100 and unit scale.
func LoadScene(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("simgame: read %s: %w", path, err)
	}
	var sc Scene
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scene{}, fmt.Errorf("simgame: parse %s: %w", path, err)
	}
	if sc.Zone == "" {
		return Scene{}, fmt.Errorf("simgame: %s: scene has no zone", path)
	}
	return sc, nil
}

// Game is safe for concurrent use.
type Game struct {
	src Source
	log *log.Logger

	mu     sync.Mutex
	zone   string
	player Player
	yaw    float64
	actors []obstacle.Actor
	worlds map[string]*bcd.World
}

var (
	_ teleport.Session   = (*Game)(nil)
	_ teleport.Turner    = (*Game)(nil)
	_ teleport.Navigator = (*Game)(nil)
)

func New(src Source, sc Scene, logger *log.Logger) *Game {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if sc.Player.Name == "" {
		sc.Player.Name = "Player Object"
	}
	if sc.Player.Height <= 0 {
		sc.Player.Height = 100
	}
	if sc.Player.Scale <= 0 {
		sc.Player.Scale = 1
	}
	return &Game{
		src:    src,
		log:    logger,
		zone:   sc.Zone,
		player: sc.Player,
		actors: append([]obstacle.Actor(nil), sc.Actors...),
		worlds: map[string]*bcd.World{},
	}
}

func (g *Game) CollisionBytes(ctx context.Context, zone string) ([]byte, error) {
	return g.src.CollisionBytes(ctx, zone)
}

func (g *Game) ActorState(ctx context.Context, actor string) (teleport.ActorState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if actor == g.player.Name {
		return teleport.ActorState{
			Position: g.player.Position,
			Zone:     g.zone,
			Height:   g.player.Height,
			Scale:    g.player.Scale,
		}, nil
	}
	for _, a := range g.actors {
		if a.Name == actor {
			return teleport.ActorState{Position: a.Position, Zone: g.zone, Height: a.Height, Scale: a.Scale}, nil
		}
	}
	return teleport.ActorState{}, fmt.Errorf("%w: %q", teleport.ErrActorNotFound, actor)
}

// OtherActors lists every actor including the player.
func (g *Game) OtherActors(ctx context.Context) ([]obstacle.Actor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]obstacle.Actor, 0, len(g.actors)+1)
	out = append(out, obstacle.Actor{
		Name:     g.player.Name,
		Position: g.player.Position,
		Height:   g.player.Height,
		Scale:    g.player.Scale,
		BodyType: obstacle.CharacterBody,
	})
	return append(out, g.actors...), nil
}

// MoveActor teleports the player. A destination whose footprint overlaps a
// static obstacle or another actor leaves the player where it was.
func (g *Game) MoveActor(ctx context.Context, actor string, pos mathutil.Vec3) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if actor != g.player.Name {
		return fmt.Errorf("%w: %q", teleport.ErrActorNotFound, actor)
	}
	if !pos.IsFinite() {
		return fmt.Errorf("simgame: non-finite destination %v", pos)
	}
	blocked, err := g.blocked(ctx, pos)
	if err != nil {
		return err
	}
	if blocked {
		g.log.Printf("move of %q to (%.1f, %.1f) blocked, snapping back", actor, pos[0], pos[1])
		return nil
	}
	g.player.Position = pos
	return nil
}

// Navigate walks the player to pos regardless of obstacles on the way.
func (g *Game) Navigate(ctx context.Context, actor string, pos mathutil.Vec3) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if actor != g.player.Name {
		return fmt.Errorf("%w: %q", teleport.ErrActorNotFound, actor)
	}
	g.player.Position = pos
	return nil
}

func (g *Game) TurnActor(ctx context.Context, actor string, yaw float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if actor != g.player.Name {
		return fmt.Errorf("%w: %q", teleport.ErrActorNotFound, actor)
	}
	g.yaw = yaw
	return nil
}

// Yaw returns the player's facing in radians.
func (g *Game) Yaw() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.yaw
}

// SetZone moves the player to another zone, as a loading screen would.
func (g *Game) SetZone(zone string, pos mathutil.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.zone = zone
	g.player.Position = pos
}

// blocked reports whether the player's footprint at pos overlaps anything.
// Callers hold g.mu.
func (g *Game) blocked(ctx context.Context, pos mathutil.Vec3) (bool, error) {
	w, ok := g.worlds[g.zone]
	if !ok {
		raw, err := g.src.CollisionBytes(ctx, g.zone)
		if err != nil {
			return false, err
		}
		w, err = bcd.Decode(raw)
		if err != nil {
			return false, fmt.Errorf("simgame: zone %q: %w", g.zone, err)
		}
		g.worlds[g.zone] = w
	}

	proj := project.Project(w, pos[2], project.Options{})
	obstacles := append([]shape.Shape(nil), proj.Static...)
	obstacles = append(obstacles, obstacle.Estimate(g.actors, g.player.Name, obstacle.Options{})...)
	idx := solver.NewIndex(obstacles)

	r := obstacle.BodyRadius(g.player.Height, g.player.Scale) * solver.DefaultShrink
	const slack = 1e-6
	return idx.Clearance(pos.XY(), r+1) < r-slack, nil
}
