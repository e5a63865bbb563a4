package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/controller"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/environment"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/geometry"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/objects"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

type httpServer struct {
	server *http.Server
	ctrl   *controller.Controller
	hub    *telemetryHub
	logger log.Log
}

func newHTTPServer(ctrl *controller.Controller, hub *telemetryHub, config Config, logger log.Log) *httpServer {
	s := &httpServer{ctrl: ctrl, hub: hub, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /config", s.handleGetConfig)
	mux.HandleFunc("POST /config", s.handleSetConfig)
	mux.HandleFunc("POST /spawn", s.handleSpawn)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("POST /mode", s.handleMode)
	mux.HandleFunc("POST /environment", s.handleEnvironment)
	mux.HandleFunc("GET /ws", hub.handleUpgrade)

	s.server = &http.Server{
		Addr:    config.ListenAddr,
		Handler: mux,
	}
	return s
}

func (s *httpServer) start() error {
	ln := s.server.Addr
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http listener failed", log.String("addr", ln), log.Error(err))
		}
	}()
	return nil
}

func (s *httpServer) stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *httpServer) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *httpServer) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Config())
}

func (s *httpServer) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.ctrl.Config()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.enqueue(w, controller.ConfigCommand{Config: cfg})
}

type spawnRequest struct {
	Shape  string  `json:"shape"`
	Radius float32 `json:"radius,omitempty"`
	Height float32 `json:"height,omitempty"`
	Size   float32 `json:"size,omitempty"`
}

func (s *httpServer) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, ok := shapeKind(req.Shape)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown shape %q", req.Shape))
		return
	}
	cmd := controller.SpawnCommand{Shape: kind}
	if desc, ok := customDescriptor(kind, req); ok {
		cmd.Desc = &desc
	}
	s.enqueue(w, cmd)
}

func (s *httpServer) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.enqueue(w, controller.ResetCommand{})
}

func (s *httpServer) handleMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, ok := bodyMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown mode %q", req.Mode))
		return
	}
	s.enqueue(w, controller.GlobalModeCommand{Mode: mode})
}

func (s *httpServer) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var mode environment.Mode
	switch req.Mode {
	case "virtual":
		mode = environment.Virtual
	case "mixed_reality":
		mode = environment.MixedReality
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown environment %q", req.Mode))
		return
	}
	s.enqueue(w, controller.EnvironmentCommand{Mode: mode})
}

func (s *httpServer) enqueue(w http.ResponseWriter, cmd any) {
	if err := s.ctrl.Enqueue(cmd); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func shapeKind(name string) (geometry.ShapeKind, bool) {
	switch name {
	case "box":
		return geometry.ShapeBox, true
	case "sphere":
		return geometry.ShapeSphere, true
	case "cylinder":
		return geometry.ShapeCylinder, true
	case "cone":
		return geometry.ShapeCone, true
	default:
		return 0, false
	}
}

func customDescriptor(kind geometry.ShapeKind, req spawnRequest) (geometry.Descriptor, bool) {
	switch kind {
	case geometry.ShapeBox:
		if req.Size > 0 {
			return geometry.NewBox(mgl3(req.Size)), true
		}
	case geometry.ShapeSphere:
		if req.Radius > 0 {
			return geometry.NewSphere(req.Radius), true
		}
	case geometry.ShapeCylinder:
		if req.Radius > 0 && req.Height > 0 {
			return geometry.NewCylinder(req.Radius, req.Height), true
		}
	case geometry.ShapeCone:
		if req.Radius > 0 && req.Height > 0 {
			return geometry.NewCone(req.Radius, req.Height), true
		}
	}
	return geometry.Descriptor{}, false
}

func bodyMode(name string) (objects.BodyMode, bool) {
	switch name {
	case "dynamic":
		return objects.ModeDynamic, true
	case "static":
		return objects.ModeStatic, true
	case "kinematic":
		return objects.ModeKinematic, true
	default:
		return 0, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func mgl3(side float32) mgl32.Vec3 {
	return mgl32.Vec3{side, side, side}
}
