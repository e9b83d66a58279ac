package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/lightmount-core/internal/device"
	"github.com/nerrad567/lightmount-core/internal/fixture"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/config"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/database"
	"github.com/nerrad567/lightmount-core/internal/infrastructure/logging"
	_ "github.com/nerrad567/lightmount-core/migrations" // registers the schema
)

var testWSConfig = config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

type testEnv struct {
	srv      *Server
	registry *device.Registry
	board    *fixture.Switchboard
	hub      *Hub
	router   http.Handler
}

// newTestEnv wires a server to a real registry on a migrated SQLite file.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "lightmount.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	log := testLogger()
	hub := NewHub(testWSConfig, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	board := fixture.NewSwitchboard()
	board.Add("sw-hall", true)

	tmpl := fixture.DefaultConfig("")
	tmpl.Seed = 11
	tmpl.HazardProbability = 0
	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB), device.Options{
		Template:  tmpl,
		Switches:  board,
		Observers: []fixture.Observer{hub},
	})
	registry.Start()
	t.Cleanup(registry.Close)

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0, Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5}},
		WS:       testWSConfig,
		Logger:   log,
		Registry: registry,
		DB:       db,
		Hub:      hub,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return &testEnv{srv: srv, registry: registry, board: board, hub: hub, router: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) spawn(t *testing.T, body string) device.Fixture {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/fixtures", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("spawn status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[device.Fixture](t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Body.String(), err)
	}
	return v
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("New() without registry should fail")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v", resp)
	}
	checks, _ := resp["checks"].(map[string]any) //nolint:errcheck // nil map fails below
	if checks["database"] != "ok" {
		t.Errorf("checks = %v", checks)
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/fixtures", nil)
	req.Header.Set("Origin", "http://console.local")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://console.local" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, http.MethodGet, "/api/v1/nothing", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestFixtures_SpawnGetList(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/fixtures", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if got := decode[map[string]any](t, w)["count"]; got != float64(0) {
		t.Errorf("empty count = %v", got)
	}

	f := env.spawn(t, `{"id":"fix-a","name":"Airlock","position":{"grid":"deck","x":1,"y":2}}`)
	if f.ID != "fix-a" || f.State != fixture.StateOn || f.Power != fixture.PowerNominal {
		t.Errorf("spawned = %+v", f)
	}
	generated := env.spawn(t, `{"name":"Bay","has_module":false}`)
	if generated.State != fixture.StateModuleAbsent || len(generated.ID) < 5 {
		t.Errorf("generated = %+v", generated)
	}

	w = env.do(t, http.MethodGet, "/api/v1/fixtures/fix-a", nil)
	if got := decode[device.Fixture](t, w); got.Name != "Airlock" || got.Position.X != 1 {
		t.Errorf("get = %+v", got)
	}

	w = env.do(t, http.MethodGet, "/api/v1/fixtures?state=module_absent", nil)
	list := decode[struct {
		Fixtures []device.Fixture `json:"fixtures"`
		Count    int              `json:"count"`
	}](t, w)
	if list.Count != 1 || list.Fixtures[0].ID != generated.ID {
		t.Errorf("filtered = %+v", list)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/fixtures?state=glowing", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad filter status = %d", w.Code)
	}
}

func TestFixtures_SpawnErrors(t *testing.T) {
	env := newTestEnv(t)
	env.spawn(t, `{"id":"fix-a","name":"Airlock"}`)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{"name":`, http.StatusBadRequest},
		{"unknown field", `{"name":"x","colour":"red"}`, http.StatusBadRequest},
		{"padded name", `{"id":"fix-b","name":" padded "}`, http.StatusBadRequest},
		{"bad id", `{"id":"../etc","name":"x"}`, http.StatusBadRequest},
		{"unknown switch", `{"name":"x","linked_switch":"sw-none"}`, http.StatusBadRequest},
		{"duplicate", `{"id":"fix-a","name":"again"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/fixtures", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestFixtures_UnknownID(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/fixtures/ghost", ""},
		{http.MethodDelete, "/api/v1/fixtures/ghost", ""},
		{http.MethodPost, "/api/v1/fixtures/ghost/power", `{"level":"low"}`},
		{http.MethodPost, "/api/v1/fixtures/ghost/damage", `{"residual":1}`},
		{http.MethodPost, "/api/v1/fixtures/ghost/interactions", `{"kind":"remove","actor":{"id":"a"}}`},
		{http.MethodPut, "/api/v1/fixtures/ghost/link", `{"switch":"sw-hall"}`},
		{http.MethodDelete, "/api/v1/fixtures/ghost/link", ""},
	} {
		w := env.do(t, tc.method, tc.path, tc.body)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d", tc.method, tc.path, w.Code)
		}
		if e := decode[Error](t, w); e.Code != ErrCodeNotFound {
			t.Errorf("%s %s code = %q", tc.method, tc.path, e.Code)
		}
	}
}

func TestFixtures_PowerAndDamage(t *testing.T) {
	env := newTestEnv(t)
	env.spawn(t, `{"id":"fix-a","name":"Airlock"}`)

	w := env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/power", `{"level":"low"}`)
	if got := decode[device.Fixture](t, w); got.State != fixture.StateEmergency || got.Power != fixture.PowerLow {
		t.Errorf("after low power = %+v", got)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/power", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing level status = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/power", `{"level":"surge"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad level status = %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/damage", `{"residual":0,"fire":true}`)
	if got := decode[device.Fixture](t, w); got.State != fixture.StateDegraded {
		t.Errorf("after breakage = %+v", got)
	}
}

func TestFixtures_Interaction(t *testing.T) {
	env := newTestEnv(t)
	env.spawn(t, `{"id":"fix-a","name":"Airlock","has_module":false}`)

	body := `{"kind":"insert","actor":{"id":"crew-1","active_hand":"left"},"item":{"id":"tube-1","traits":["light_tube"]},"intent":"help"}`
	w := env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/interactions", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	result := decode[fixture.InteractionResult](t, w)
	if result.Outcome != fixture.OutcomeApplied || result.State != fixture.StateOn {
		t.Errorf("result = %+v", result)
	}

	w = env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/interactions", body)
	if result := decode[fixture.InteractionResult](t, w); result.Outcome != fixture.OutcomeRefused {
		t.Errorf("second insert = %+v", result)
	}
}

func TestFixtures_LinkAndSwitch(t *testing.T) {
	env := newTestEnv(t)
	env.spawn(t, `{"id":"fix-a","name":"Airlock"}`)

	w := env.do(t, http.MethodPut, "/api/v1/fixtures/fix-a/link", `{"switch":"sw-hall"}`)
	if got := decode[device.Fixture](t, w); got.LinkedSwitch != "sw-hall" {
		t.Fatalf("after link = %+v", got)
	}
	if w := env.do(t, http.MethodPut, "/api/v1/fixtures/fix-a/link", `{"switch":"sw-none"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown switch status = %d", w.Code)
	}
	if w := env.do(t, http.MethodPut, "/api/v1/fixtures/fix-a/link", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty switch status = %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/v1/switches/sw-hall/toggle", `{"on":false}`)
	if sw := decode[SwitchView](t, w); sw.On || sw.Subscribers != 1 {
		t.Errorf("switch = %+v", sw)
	}
	if f, _ := env.registry.Get("fix-a"); f.State != fixture.StateOff {
		t.Errorf("fixture did not follow switch: %s", f.State)
	}

	w = env.do(t, http.MethodPost, "/api/v1/switches/sw-hall/toggle", nil)
	if sw := decode[SwitchView](t, w); !sw.On {
		t.Error("empty body should flip the switch")
	}
	if w := env.do(t, http.MethodPost, "/api/v1/switches/sw-none/toggle", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown switch toggle status = %d", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/fixtures/fix-a/link", nil)
	if got := decode[device.Fixture](t, w); got.LinkedSwitch != "" {
		t.Errorf("after unlink = %+v", got)
	}

	w = env.do(t, http.MethodGet, "/api/v1/switches", nil)
	list := decode[struct {
		Switches []SwitchView `json:"switches"`
	}](t, w)
	if len(list.Switches) != 1 || list.Switches[0].ID != "sw-hall" || list.Switches[0].Subscribers != 0 {
		t.Errorf("switches = %+v", list.Switches)
	}
}

func TestFixtures_DespawnKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.spawn(t, `{"id":"fix-a","name":"Airlock"}`)
	env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/power", `{"level":"off"}`)
	env.do(t, http.MethodPost, "/api/v1/fixtures/fix-a/power", `{"level":"nominal"}`)

	if w := env.do(t, http.MethodDelete, "/api/v1/fixtures/fix-a", nil); w.Code != http.StatusNoContent {
		t.Fatalf("despawn status = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/fixtures/fix-a", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after despawn = %d", w.Code)
	}

	// The recorder persists asynchronously; Close drains it.
	env.registry.Close()

	w := env.do(t, http.MethodGet, "/api/v1/fixtures/fix-a/history?limit=10", nil)
	hist := decode[struct {
		Records []fixture.Record `json:"records"`
		Count   int              `json:"count"`
	}](t, w)
	if hist.Count < 2 {
		t.Fatalf("history = %+v", hist)
	}
	if hist.Records[0].Seq <= hist.Records[1].Seq {
		t.Errorf("history not newest first: %v", hist.Records)
	}

	for _, q := range []string{"0", "501", "many"} {
		if w := env.do(t, http.MethodGet, "/api/v1/fixtures/fix-a/history?limit="+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d", q, w.Code)
		}
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.spawn(t, `{"id":"fix-a","name":"Airlock"}`)
	env.spawn(t, `{"id":"fix-b","name":"Bay","has_module":false}`)

	w := env.do(t, http.MethodGet, "/api/v1/metrics", nil)
	m := decode[SystemMetrics](t, w)
	if m.Fixtures.Total != 2 || m.Fixtures.ByState["on"] != 1 || m.Fixtures.ByState["module_absent"] != 1 {
		t.Errorf("fixtures = %+v", m.Fixtures)
	}
	if m.Fixtures.Switches != 1 || m.MQTT.Enabled {
		t.Errorf("metrics = %+v", m)
	}
	if m.Runtime.Goroutines == 0 {
		t.Error("runtime metrics missing")
	}
}

func TestServer_StartAndClose(t *testing.T) {
	env := newTestEnv(t)

	if err := env.srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := env.srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer env.srv.Close() //nolint:errcheck // closed below

	if err := env.srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + env.srv.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := env.srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
