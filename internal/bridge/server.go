package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"worlds-collide/internal/teleport"
)

// Server exposes a teleport.Session to websocket clients. TurnActor and
// Navigate are served when the session implements teleport.Turner or
// teleport.Navigator.
type Server struct {
	session teleport.Session
	log     *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(s teleport.Session, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		session: s,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		var writeMu sync.Mutex
		var wg sync.WaitGroup
		reply := func(resp Response) {
			b, err := json.Marshal(resp)
			if err != nil {
				s.log.Printf("encode response %d: %v", resp.ID, err)
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			_ = conn.SetWriteDeadline(time.Now().Add(DefaultWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				cancel()
			}
		}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			var req Request
			if err := json.Unmarshal(msg, &req); err != nil {
				reply(Response{Code: CodeBadRequest, Error: err.Error()})
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				reply(s.dispatch(ctx, req))
			}()
		}
		wg.Wait()
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	result, err := s.serve(ctx, req)
	if err != nil {
		code := codeOf(err)
		var bad *badRequest
		if errors.As(err, &bad) {
			code = CodeBadRequest
		}
		s.log.Printf("%s #%d: %v", req.Op, req.ID, err)
		return Response{ID: req.ID, Code: code, Error: err.Error()}
	}
	resp := Response{ID: req.ID, OK: true}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return Response{ID: req.ID, Code: CodeInternal, Error: err.Error()}
		}
		resp.Result = raw
	}
	return resp
}

type badRequest struct{ err error }

func (e *badRequest) Error() string { return "bad request: " + e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &badRequest{err: err}
	}
	return v, nil
}

func (s *Server) serve(ctx context.Context, req Request) (any, error) {
	switch req.Op {
	case OpCollisionBytes:
		args, err := decode[zoneArgs](req.Args)
		if err != nil {
			return nil, err
		}
		data, err := s.session.CollisionBytes(ctx, args.Zone)
		if err != nil {
			return nil, err
		}
		return collisionResult{Data: data}, nil

	case OpActorState:
		args, err := decode[actorArgs](req.Args)
		if err != nil {
			return nil, err
		}
		return s.session.ActorState(ctx, args.Actor)

	case OpOtherActors:
		actors, err := s.session.OtherActors(ctx)
		if err != nil {
			return nil, err
		}
		return actorsResult{Actors: actors}, nil

	case OpMoveActor:
		args, err := decode[moveArgs](req.Args)
		if err != nil {
			return nil, err
		}
		return nil, s.session.MoveActor(ctx, args.Actor, args.Position)

	case OpTurnActor:
		t, ok := s.session.(teleport.Turner)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, req.Op)
		}
		args, err := decode[turnArgs](req.Args)
		if err != nil {
			return nil, err
		}
		return nil, t.TurnActor(ctx, args.Actor, args.Yaw)

	case OpNavigate:
		n, ok := s.session.(teleport.Navigator)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, req.Op)
		}
		args, err := decode[moveArgs](req.Args)
		if err != nil {
			return nil, err
		}
		return nil, n.Navigate(ctx, args.Actor, args.Position)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, req.Op)
}
