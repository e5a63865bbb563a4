package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/controller"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

// stubInspector fakes the lab inspector surface: the control endpoints
// answer canned responses and /ws pushes whatever frames the test queues.
type stubInspector struct {
	ts     *httptest.Server
	frames chan []byte

	mu    sync.Mutex
	posts map[string]string
}

func newStubInspector(t *testing.T) *stubInspector {
	t.Helper()
	s := &stubInspector{
		frames: make(chan []byte, 8),
		posts:  make(map[string]string),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(controller.Snapshot{Tick: 9, GlobalMode: "dynamic"})
	})
	mux.HandleFunc("POST /{path}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.posts[r.URL.Path] = string(body)
		s.mu.Unlock()
		if r.URL.Path == "/reject" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for payload := range s.frames {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	})

	s.ts = httptest.NewServer(mux)
	t.Cleanup(s.ts.Close)
	t.Cleanup(func() { close(s.frames) })
	return s
}

func (s *stubInspector) addr() string {
	return strings.TrimPrefix(s.ts.URL, "http://")
}

func (s *stubInspector) lastPost(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts[path]
}

func testConfig(addr string) Config {
	cfg := DefaultConfig()
	cfg.ServerAddr = addr
	cfg.ConnectTimeout = 2 * time.Second
	cfg.ReconnectInterval = 10 * time.Millisecond
	cfg.MaxReconnectAttempts = 2
	cfg.LogLevel = log.LevelError
	return cfg
}

func TestTelemetryFeed(t *testing.T) {
	stub := newStubInspector(t)
	c := New(testConfig(stub.addr()))

	got := make(chan *controller.Snapshot, 1)
	c.OnFrame(func(snap *controller.Snapshot) error {
		got <- snap
		return nil
	})

	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()
	require.ErrorIs(t, c.Connect(context.Background()), ErrAlreadyConnected)

	payload, err := json.Marshal(controller.Snapshot{Tick: 3, GlobalMode: "static"})
	require.NoError(t, err)
	stub.frames <- payload

	select {
	case snap := <-got:
		require.Equal(t, uint64(3), snap.Tick)
		require.Equal(t, "static", snap.GlobalMode)
	case <-time.After(2 * time.Second):
		t.Fatal("frame never delivered")
	}
	require.NotNil(t, c.LastFrame())
	require.Equal(t, uint64(3), c.LastFrame().Tick)
}

func TestConnectFailure(t *testing.T) {
	c := New(testConfig("127.0.0.1:1"))
	require.Error(t, c.Connect(context.Background()))

	// A failed connect leaves the client reusable.
	stub := newStubInspector(t)
	c2 := New(testConfig(stub.addr()))
	require.NoError(t, c2.Connect(context.Background()))
	require.NoError(t, c2.Close())
}

func TestCloseIdempotent(t *testing.T) {
	stub := newStubInspector(t)
	c := New(testConfig(stub.addr()))
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Connect(context.Background()), ErrClientClosed)
}

func TestControlCalls(t *testing.T) {
	stub := newStubInspector(t)
	c := New(testConfig(stub.addr()))
	ctx := context.Background()

	t.Run("State", func(t *testing.T) {
		snap, err := c.State(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(9), snap.Tick)
	})

	t.Run("Spawn", func(t *testing.T) {
		require.NoError(t, c.Spawn(ctx, "sphere"))
		require.JSONEq(t, `{"shape":"sphere"}`, stub.lastPost("/spawn"))
	})

	t.Run("Reset", func(t *testing.T) {
		require.NoError(t, c.Reset(ctx))
	})

	t.Run("GlobalMode", func(t *testing.T) {
		require.NoError(t, c.SetGlobalMode(ctx, "kinematic"))
		require.JSONEq(t, `{"mode":"kinematic"}`, stub.lastPost("/mode"))
	})

	t.Run("Environment", func(t *testing.T) {
		require.NoError(t, c.SetEnvironment(ctx, "mixed_reality"))
		require.JSONEq(t, `{"mode":"mixed_reality"}`, stub.lastPost("/environment"))
	})

	t.Run("Rejected Command", func(t *testing.T) {
		err := c.post(ctx, "/reject", struct{}{})
		require.ErrorIs(t, err, ErrCommandRejected)
	})
}
