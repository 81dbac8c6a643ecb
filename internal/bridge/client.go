package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
	"worlds-collide/internal/teleport"
)

const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultWriteTimeout = 5 * time.Second
)

// ClientConfig configures Dial.
type ClientConfig struct {
	URL          string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Header       http.Header
	Logger       *log.Logger
}

// Client is a teleport.Session, teleport.Turner and teleport.Navigator
// backed by a websocket peer. It is safe for concurrent use.
type Client struct {
	cfg  ClientConfig
	conn *websocket.Conn
	log  *log.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan Response
	err     error // set once the read loop stops

	done chan struct{}
}

var (
	_ teleport.Session   = (*Client)(nil)
	_ teleport.Turner    = (*Client)(nil)
	_ teleport.Navigator = (*Client)(nil)
)

// Dial connects to cfg.URL.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	d := websocket.Dialer{HandshakeTimeout: cfg.DialTimeout}
	conn, resp, err := d.DialContext(ctx, cfg.URL, cfg.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", cfg.URL, err)
	}

	c := &Client{
		cfg:     cfg,
		conn:    conn,
		log:     logger,
		pending: map[uint64]chan Response{},
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close closes the connection and fails pending calls with ErrClosed.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		var r Response
		if err := json.Unmarshal(msg, &r); err != nil {
			c.log.Printf("drop malformed response: %v", err)
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[r.ID]
		delete(c.pending, r.ID)
		c.mu.Unlock()
		if !ok {
			c.log.Printf("drop response for unknown id %d", r.ID)
			continue
		}
		ch <- r
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = fmt.Errorf("%w: %v", ErrClosed, err)
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// call sends op and decodes the result into out when out is non-nil.
func (c *Client) call(ctx context.Context, op string, args, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("bridge: %s: encode args: %w", op, err)
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return fmt.Errorf("bridge: %s: %w", op, err)
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = ch
	c.mu.Unlock()

	b, err := json.Marshal(Request{ID: id, Op: op, Args: raw})
	if err != nil {
		c.forget(id)
		return fmt.Errorf("bridge: %s: %w", op, err)
	}
	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	err = c.conn.WriteMessage(websocket.TextMessage, b)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("bridge: %s: write: %w", op, err)
	}

	select {
	case <-ctx.Done():
		c.forget(id)
		return fmt.Errorf("bridge: %s: %w", op, ctx.Err())
	case r, ok := <-ch:
		if !ok {
			c.mu.Lock()
			err := c.err
			c.mu.Unlock()
			return fmt.Errorf("bridge: %s: %w", op, err)
		}
		if !r.OK {
			return remoteError(op, r)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("bridge: %s: decode result: %w", op, err)
		}
		return nil
	}
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) CollisionBytes(ctx context.Context, zone string) ([]byte, error) {
	var out collisionResult
	if err := c.call(ctx, OpCollisionBytes, zoneArgs{Zone: zone}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ActorState(ctx context.Context, actor string) (teleport.ActorState, error) {
	var out teleport.ActorState
	err := c.call(ctx, OpActorState, actorArgs{Actor: actor}, &out)
	return out, err
}

func (c *Client) OtherActors(ctx context.Context) ([]obstacle.Actor, error) {
	var out actorsResult
	if err := c.call(ctx, OpOtherActors, struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.Actors, nil
}

func (c *Client) MoveActor(ctx context.Context, actor string, pos mathutil.Vec3) error {
	return c.call(ctx, OpMoveActor, moveArgs{Actor: actor, Position: pos}, nil)
}

func (c *Client) TurnActor(ctx context.Context, actor string, yaw float64) error {
	return c.call(ctx, OpTurnActor, turnArgs{Actor: actor, Yaw: yaw}, nil)
}

// Navigate asks the peer to walk actor to pos with its own pathing.
func (c *Client) Navigate(ctx context.Context, actor string, pos mathutil.Vec3) error {
	return c.call(ctx, OpNavigate, moveArgs{Actor: actor, Position: pos}, nil)
}
