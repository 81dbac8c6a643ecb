package bridge

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", name))
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, raw []byte) {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate %s: %v", raw, err)
	}
}

func TestWireFramesMatchSchemas(t *testing.T) {
	request := compileSchema(t, "request.schema.json")
	response := compileSchema(t, "response.schema.json")
	actorState := compileSchema(t, "actor_state.schema.json")
	otherActors := compileSchema(t, "other_actors.schema.json")

	srv := httptest.NewServer(NewServer(newGame(), nil).Handler())
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	roundTrip := func(req Request) Response {
		t.Helper()
		b, err := json.Marshal(req)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		validate(t, request, b)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		validate(t, response, msg)
		var resp Response
		if err := json.Unmarshal(msg, &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.ID != req.ID {
			t.Fatalf("response id %d for request %d", resp.ID, req.ID)
		}
		return resp
	}
	args := func(v any) json.RawMessage {
		b, _ := json.Marshal(v)
		return b
	}

	resp := roundTrip(Request{ID: 1, Op: OpActorState, Args: args(actorArgs{Actor: "Player Object"})})
	if !resp.OK {
		t.Fatalf("actor_state failed: %+v", resp)
	}
	validate(t, actorState, resp.Result)

	resp = roundTrip(Request{ID: 2, Op: OpOtherActors, Args: args(struct{}{})})
	validate(t, otherActors, resp.Result)

	roundTrip(Request{ID: 3, Op: OpMoveActor, Args: args(moveArgs{Actor: "Player Object", Position: [3]float64{1, 2, 3}})})
	roundTrip(Request{ID: 4, Op: OpCollisionBytes, Args: args(zoneArgs{Zone: "WizardCity/WC_Hub"})})

	resp = roundTrip(Request{ID: 5, Op: OpCollisionBytes, Args: args(zoneArgs{Zone: "Nowhere"})})
	if resp.OK || resp.Code != CodeZoneDataUnavailable {
		t.Fatalf("expected zone_data_unavailable, got %+v", resp)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"id":6,"op":"actor_state","args":{"actor":7}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	validate(t, response, msg)
	var bad Response
	if err := json.Unmarshal(msg, &bad); err != nil || bad.ID != 6 || bad.Code != CodeBadRequest {
		t.Fatalf("expected bad_request, got %s", msg)
	}
}

func TestRequestSchemaRejects(t *testing.T) {
	request := compileSchema(t, "request.schema.json")
	for name, raw := range map[string]string{
		"unknown_op":   `{"id":1,"op":"teleport"}`,
		"missing_zone": `{"id":1,"op":"collision_bytes","args":{}}`,
		"short_vector": `{"id":1,"op":"move_actor","args":{"actor":"a","position":[1,2]}}`,
		"zero_id":      `{"id":0,"op":"other_actors"}`,
		"extra_field":  `{"id":1,"op":"other_actors","tick":3}`,
	} {
		t.Run(name, func(t *testing.T) {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if err := request.Validate(v); err == nil {
				t.Fatalf("%s accepted", raw)
			}
		})
	}
}
