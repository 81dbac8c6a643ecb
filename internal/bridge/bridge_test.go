package bridge

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"worlds-collide/internal/bcd"
	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
	"worlds-collide/internal/teleport"
	"worlds-collide/internal/zonedata"
)

// floorStream encodes one walkable square mesh of half size h at z = 0.
func floorStream(h float32) []byte {
	var b bytes.Buffer
	put := func(vs ...any) {
		for _, v := range vs {
			binary.Write(&b, binary.LittleEndian, v)
		}
	}
	str := func(s string) {
		put(int32(len(s)))
		b.WriteString(s)
	}
	put(int32(1))
	put(int32(bcd.KindMesh), uint32(bcd.FlagWalkable), uint32(bcd.FlagWalkable))
	put(int32(4), int32(2))
	put(-h, -h, float32(0), h, -h, float32(0), h, h, float32(0), -h, h, float32(0))
	put(int32(0), int32(1), int32(2), float32(0), float32(0), float32(1))
	put(int32(0), int32(2), int32(3), float32(0), float32(0), float32(1))
	str("floor")
	put(float32(1), float32(0), float32(0), float32(0), float32(1), float32(0), float32(0), float32(0), float32(1))
	put(float32(0), float32(0), float32(0), float32(1))
	str("stone")
	put(int32(bcd.KindMesh))
	return b.Bytes()
}

type game struct {
	mu     sync.Mutex
	zones  map[string][]byte
	state  map[string]teleport.ActorState
	actors []obstacle.Actor
	moves  []mathutil.Vec3
	block  bool // MoveActor waits for cancellation
}

func newGame() *game {
	return &game{
		zones: map[string][]byte{"WizardCity/WC_Hub": floorStream(1000)},
		state: map[string]teleport.ActorState{
			"Player Object": {Position: mathutil.Vec3{-500, 0, 0}, Zone: "WizardCity/WC_Hub", Height: 100, Scale: 1},
		},
		actors: []obstacle.Actor{{Name: "Gamma", Position: mathutil.Vec3{400, 400, 0}, Height: 120, Scale: 1, BodyType: obstacle.CharacterBody}},
	}
}

func (g *game) CollisionBytes(ctx context.Context, zone string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	data, ok := g.zones[zone]
	if !ok {
		return nil, zonedata.ErrZoneDataUnavailable
	}
	return data, nil
}

func (g *game) moved() []mathutil.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]mathutil.Vec3(nil), g.moves...)
}

func (g *game) ActorState(ctx context.Context, actor string) (teleport.ActorState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.state[actor]
	if !ok {
		return teleport.ActorState{}, teleport.ErrActorNotFound
	}
	return st, nil
}

func (g *game) OtherActors(ctx context.Context) ([]obstacle.Actor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]obstacle.Actor(nil), g.actors...), nil
}

func (g *game) MoveActor(ctx context.Context, actor string, pos mathutil.Vec3) error {
	g.mu.Lock()
	block := g.block
	g.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.state[actor]
	st.Position = pos
	g.state[actor] = st
	g.moves = append(g.moves, pos)
	return nil
}

// turningGame also serves turn_actor.
type turningGame struct {
	*game
	yaw float64
}

func (g *turningGame) TurnActor(ctx context.Context, actor string, yaw float64) error {
	g.mu.Lock()
	g.yaw = yaw
	g.mu.Unlock()
	return nil
}

func serve(t *testing.T, s teleport.Session) *Client {
	t.Helper()
	srv := httptest.NewServer(NewServer(s, nil).Handler())
	t.Cleanup(srv.Close)
	c, err := Dial(context.Background(), ClientConfig{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientOperations(t *testing.T) {
	g := newGame()
	c := serve(t, g)
	ctx := context.Background()

	data, err := c.CollisionBytes(ctx, "WizardCity/WC_Hub")
	if err != nil || !bytes.Equal(data, floorStream(1000)) {
		t.Fatalf("CollisionBytes: %d bytes, %v", len(data), err)
	}
	if _, err := c.CollisionBytes(ctx, "Nowhere"); !errors.Is(err, zonedata.ErrZoneDataUnavailable) {
		t.Fatalf("expected ErrZoneDataUnavailable, got %v", err)
	}

	st, err := c.ActorState(ctx, "Player Object")
	if err != nil || st.Zone != "WizardCity/WC_Hub" || st.Position[0] != -500 || st.Height != 100 {
		t.Fatalf("ActorState: %+v %v", st, err)
	}
	if _, err := c.ActorState(ctx, "ghost"); !errors.Is(err, teleport.ErrActorNotFound) {
		t.Fatalf("expected ErrActorNotFound, got %v", err)
	}

	actors, err := c.OtherActors(ctx)
	if err != nil || len(actors) != 1 || actors[0].BodyType != obstacle.CharacterBody {
		t.Fatalf("OtherActors: %+v %v", actors, err)
	}

	if err := c.MoveActor(ctx, "Player Object", mathutil.Vec3{1, 2, 3}); err != nil {
		t.Fatalf("MoveActor: %v", err)
	}
	if moves := g.moved(); len(moves) != 1 || moves[0] != (mathutil.Vec3{1, 2, 3}) {
		t.Fatalf("moves %v", moves)
	}

	if err := c.TurnActor(ctx, "Player Object", 1); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := c.Navigate(ctx, "Player Object", mathutil.Vec3{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestConcurrentCalls(t *testing.T) {
	c := serve(t, newGame())
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, err := c.ActorState(context.Background(), "Player Object")
			if err == nil && st.Zone != "WizardCity/WC_Hub" {
				err = errors.New("wrong zone " + st.Zone)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call: %v", err)
		}
	}
}

func TestAttemptOverBridge(t *testing.T) {
	g := newGame()
	tg := &turningGame{game: g}
	c := serve(t, tg)

	yaw := math.Pi / 2
	res, err := teleport.Attempt(context.Background(), c, "Player Object",
		teleport.Target{Position: mathutil.Vec3{0, 0, 0}, Yaw: &yaw},
		teleport.Options{VerifyDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if res.State != teleport.StateSuccess || !res.Direct {
		t.Fatalf("unexpected result %+v", res)
	}
	if moves := g.moved(); len(moves) != 1 || moves[0] != (mathutil.Vec3{0, 0, 0}) {
		t.Fatalf("moves %v", moves)
	}
	g.mu.Lock()
	turned := tg.yaw
	g.mu.Unlock()
	if turned != yaw {
		t.Fatalf("yaw %v not applied", turned)
	}

	g.mu.Lock()
	g.zones["WizardCity/WC_Hub"] = []byte{1, 0, 0, 0}
	g.mu.Unlock()
	res, err = teleport.Attempt(context.Background(), c, "Player Object",
		teleport.Target{Position: mathutil.Vec3{10, 10, 0}}, teleport.Options{VerifyDelay: time.Millisecond})
	if res.Kind != teleport.FailureTruncatedStream || err == nil {
		t.Fatalf("expected truncated stream failure, got %+v %v", res, err)
	}
	if moves := g.moved(); len(moves) != 1 {
		t.Fatalf("failed attempt must not move, moves %v", moves)
	}
}

func TestCallCanceled(t *testing.T) {
	g := newGame()
	g.block = true
	c := serve(t, g)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.MoveActor(ctx, "Player Object", mathutil.Vec3{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClosedClient(t *testing.T) {
	srv := httptest.NewServer(NewServer(newGame(), nil).Handler())
	defer srv.Close()
	c, err := Dial(context.Background(), ClientConfig{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	c.Close()
	if _, err := c.ActorState(context.Background(), "Player Object"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), ClientConfig{URL: "ws://127.0.0.1:1/none", DialTimeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatalf("dial to a closed port must fail")
	}
}
