package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/lightmount-core/internal/fixture"
)

func newTestClient(hub *Hub, channels ...string) *WSClient {
	subs := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		subs[ch] = struct{}{}
	}
	return &WSClient{hub: hub, send: make(chan []byte, wsSendBufferSize), subscriptions: subs}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testWSConfig, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHub_ObserveRoutesByKind(t *testing.T) {
	hub := runHub(t)
	states := newTestClient(hub, ChannelStateChanged)
	hazards := newTestClient(hub, ChannelHazard)
	all := newTestClient(hub, ChannelAll)
	for _, c := range []*WSClient{states, hazards, all} {
		hub.Register(c)
	}

	hub.Observe(fixture.Record{Seq: 2, FixtureID: "fix-a", Kind: fixture.RecordTransition, Old: fixture.StateOn, New: fixture.StateOff})
	hub.Observe(fixture.Record{Seq: 3, FixtureID: "fix-a", Kind: fixture.RecordHazard, Old: fixture.StateDegraded, New: fixture.StateDegraded})

	if got := len(states.send); got != 1 {
		t.Errorf("state subscriber got %d messages", got)
	}
	if got := len(hazards.send); got != 1 {
		t.Errorf("hazard subscriber got %d messages", got)
	}
	if got := len(all.send); got != 2 {
		t.Errorf("wildcard subscriber got %d messages", got)
	}

	var msg struct {
		EventType string         `json:"event_type"`
		Payload   fixture.Record `json:"payload"`
	}
	if err := json.Unmarshal(<-hazards.send, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.EventType != ChannelHazard || msg.Payload.Seq != 3 || msg.Payload.Kind != fixture.RecordHazard {
		t.Errorf("hazard message = %+v", msg)
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub, "something.else")
	hub.Register(client)

	hub.Broadcast(ChannelStateChanged, map[string]any{"fixture_id": "fix-a"})

	select {
	case <-client.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	hub := runHub(t)
	client := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{ChannelAll: {}}}
	hub.Register(client)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Broadcast(ChannelStateChanged, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := runHub(t)
	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d", hub.ClientCount())
	}

	client := newTestClient(hub)
	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d", hub.ClientCount())
	}

	hub.Unregister(client)
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d", hub.ClientCount())
	}
	client.trySend([]byte("late"))
}

func TestWSClient_SubscribeMessages(t *testing.T) {
	hub := runHub(t)
	client := newTestClient(hub)

	client.handleMessage([]byte(`{"type":"subscribe","id":"1","payload":{"channels":["fixture.hazard"]}}`))
	if !client.isSubscribed(ChannelHazard) {
		t.Fatal("subscribe not applied")
	}
	client.handleMessage([]byte(`{"type":"unsubscribe","id":"2","payload":{"channels":["fixture.hazard"]}}`))
	if client.isSubscribed(ChannelHazard) {
		t.Fatal("unsubscribe not applied")
	}
	client.handleMessage([]byte(`{"type":"ping","id":"3"}`))
	client.handleMessage([]byte(`{"type":"dance","id":"4"}`))
	client.handleMessage([]byte(`nope`))

	wantTypes := []string{WSTypeResponse, WSTypeResponse, WSTypePong, WSTypeError, WSTypeError}
	for i, want := range wantTypes {
		var msg WSMessage
		if err := json.Unmarshal(<-client.send, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != want {
			t.Errorf("reply %d type = %q, want %q", i, msg.Type, want)
		}
	}
}

func TestWebSocket_StreamsTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.spawn(t, `{"id":"fix-a","name":"Airlock"}`)

	ts := httptest.NewServer(env.router)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?channels=" + ChannelStateChanged
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	resp.Body.Close()
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	w := env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/power", `{"level":"over"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("power status = %d", w.Code)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // test deadline
	var msg struct {
		Type      string         `json:"type"`
		EventType string         `json:"event_type"`
		Payload   fixture.Record `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != WSTypeEvent || msg.EventType != ChannelStateChanged {
		t.Errorf("message = %+v", msg)
	}
	if msg.Payload.FixtureID != "fix-a" || msg.Payload.New != fixture.StateDisabled {
		t.Errorf("record = %+v", msg.Payload)
	}
}
