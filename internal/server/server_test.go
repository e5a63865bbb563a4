package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/controller"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/physics"
)

func newTestSurface(t *testing.T) (*controller.Controller, *telemetryHub, *httptest.Server) {
	t.Helper()
	ctrl := controller.New(physics.NewHeadlessHost(), controller.Options{Logger: log.Nop()})

	config := DefaultConfig()
	config.WriteTimeout = time.Second
	hub := newTelemetryHub(config, log.Nop())
	hs := newHTTPServer(ctrl, hub, config, log.Nop())

	ts := httptest.NewServer(hs.server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(hub.closeAll)
	return ctrl, hub, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSpawnEndpoint(t *testing.T) {
	ctrl, _, ts := newTestSurface(t)

	resp := postJSON(t, ts.URL+"/spawn", `{"shape":"sphere","radius":0.2}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("spawn status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	ctrl.Tick()
	snap := ctrl.Snapshot()
	if len(snap.Objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(snap.Objects))
	}
	if snap.Objects[0].Shape != "sphere" {
		t.Errorf("shape = %q, want sphere", snap.Objects[0].Shape)
	}
}

func TestSpawnRejectsUnknownShape(t *testing.T) {
	_, _, ts := newTestSurface(t)

	resp := postJSON(t, ts.URL+"/spawn", `{"shape":"torus"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestStateEndpoint(t *testing.T) {
	ctrl, _, ts := newTestSurface(t)
	ctrl.Tick()

	resp, err := http.Get(ts.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var snap controller.Snapshot
	if err = json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.EnvironmentMode != "virtual" {
		t.Errorf("environment = %q, want virtual", snap.EnvironmentMode)
	}
}

func TestConfigEndpoints(t *testing.T) {
	ctrl, _, ts := newTestSurface(t)

	resp, err := http.Get(ts.URL + "/config")
	if err != nil {
		t.Fatalf("GET /config: %v", err)
	}
	var cfg physics.Config
	if err = json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	resp.Body.Close()
	if cfg.Mass != physics.DefaultConfig().Mass {
		t.Fatalf("mass = %v, want default", cfg.Mass)
	}

	post := postJSON(t, ts.URL+"/config", `{"mass":5}`)
	if post.StatusCode != http.StatusAccepted {
		t.Fatalf("POST /config status = %d", post.StatusCode)
	}
	ctrl.Tick()
	if got := ctrl.Config().Mass; got != 5 {
		t.Errorf("mass after update = %v, want 5", got)
	}
	// Fields absent from the request keep their current values.
	if got := ctrl.Config().Restitution; got != cfg.Restitution {
		t.Errorf("restitution changed to %v", got)
	}
}

func TestModeEndpoint(t *testing.T) {
	ctrl, _, ts := newTestSurface(t)

	if resp := postJSON(t, ts.URL+"/mode", `{"mode":"bouncy"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad mode status = %d", resp.StatusCode)
	}
	if resp := postJSON(t, ts.URL+"/mode", `{"mode":"static"}`); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("good mode status = %d", resp.StatusCode)
	}
	ctrl.Tick()
	if got := ctrl.Snapshot().GlobalMode; got != "static" {
		t.Errorf("global mode = %q, want static", got)
	}
}

func TestEnvironmentEndpoint(t *testing.T) {
	ctrl, _, ts := newTestSurface(t)

	if resp := postJSON(t, ts.URL+"/environment", `{"mode":"underwater"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad environment status = %d", resp.StatusCode)
	}
	if resp := postJSON(t, ts.URL+"/environment", `{"mode":"mixed_reality"}`); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("good environment status = %d", resp.StatusCode)
	}
	ctrl.Tick()
	if got := ctrl.Snapshot().EnvironmentMode; got != "mixed_reality" {
		t.Errorf("environment = %q, want mixed_reality", got)
	}
}

func TestMethodRouting(t *testing.T) {
	_, _, ts := newTestSurface(t)

	resp, err := http.Get(ts.URL + "/spawn")
	if err != nil {
		t.Fatalf("GET /spawn: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestWebSocketTelemetry(t *testing.T) {
	ctrl, hub, ts := newTestSurface(t)
	ctrl.Tick()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload, err := encodeFrame(ctrl.Snapshot())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// The hub registers the client on upgrade; give the handler a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.clients)
		hub.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("viewer never attached")
		}
		time.Sleep(time.Millisecond)
	}
	hub.broadcast(payload)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var snap controller.Snapshot
	if err = json.Unmarshal(msg, &snap); err != nil {
		t.Fatalf("frame is not a snapshot: %v", err)
	}
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	hub := newTelemetryHub(Config{WriteTimeout: time.Second, FrameBuffer: 2}, log.Nop())
	c := &telemetryClient{send: make(chan []byte, 2)}
	hub.clients[c] = struct{}{}

	for i := 0; i < 5; i++ {
		hub.broadcast([]byte("frame"))
	}
	if got := len(c.send); got != 2 {
		t.Fatalf("queued = %d, want 2", got)
	}
}

func TestQUICBroadcastDropsWhenQueueFull(t *testing.T) {
	feed := newQUICFeed(Config{WriteTimeout: time.Second, FrameBuffer: 2}, log.Nop())
	c := &feedConn{send: make(chan []byte, 2)}
	feed.conns[c] = struct{}{}

	for i := 0; i < 5; i++ {
		feed.broadcast([]byte("frame"))
	}
	if got := len(c.send); got != 2 {
		t.Fatalf("queued = %d, want 2", got)
	}
}

func TestEncodeFrame(t *testing.T) {
	snap := &controller.Snapshot{Tick: 7, GlobalMode: "dynamic"}
	payload, err := encodeFrame(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Contains(payload, []byte(`"global_mode":"dynamic"`)) {
		t.Fatalf("payload missing mode: %s", payload)
	}

	var back controller.Snapshot
	if err = json.Unmarshal(payload, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Tick != 7 {
		t.Errorf("tick = %d, want 7", back.Tick)
	}
}

func TestStartStop(t *testing.T) {
	ctrl := controller.New(physics.NewHeadlessHost(), controller.Options{Logger: log.Nop()})
	config := DefaultConfig()
	config.ListenAddr = "127.0.0.1:0"
	// No QUIC feed in this test.
	config.QUICAddr = ""

	s := New(ctrl, config, log.Nop())
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("not running after Start")
	}
	if err := s.Start(ctx); err != ErrAlreadyRunning {
		t.Fatalf("second start = %v, want ErrAlreadyRunning", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s.IsRunning() {
		t.Fatal("still running after Stop")
	}
	// Stop on a stopped inspector is a no-op.
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
