package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/controller"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/events/bus"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

// Server is the lab inspector: an HTTP control surface plus two telemetry
// feeds, WebSocket for browsers and QUIC for native viewers. It is an
// out-of-process observer; every mutation goes through the controller
// inbox and state is only ever read from published snapshots.
type Server struct {
	ctrl   *controller.Controller
	config Config
	logger log.Log

	http *httpServer
	hub  *telemetryHub
	feed *quicFeed

	frameSub bus.Subscription

	running int32
}

// Config holds inspector configuration.
type Config struct {
	ListenAddr string
	QUICAddr   string

	// WriteTimeout bounds a single telemetry write per client.
	WriteTimeout time.Duration

	// FrameBuffer is the per-client send queue; a slow consumer drops
	// frames rather than stalling the broadcast.
	FrameBuffer int

	LogLevel log.Level
}

// DefaultConfig returns the development defaults: everything on loopback,
// QUIC feed enabled.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "127.0.0.1:8080",
		QUICAddr:     "127.0.0.1:8443",
		WriteTimeout: 5 * time.Second,
		FrameBuffer:  16,
		LogLevel:     log.LevelInfo,
	}
}

func New(ctrl *controller.Controller, config Config, logger log.Log) *Server {
	if logger == nil {
		logger = log.Provide()
	}
	s := &Server{
		ctrl:   ctrl,
		config: config,
		logger: logger,
	}
	s.hub = newTelemetryHub(config, logger)
	s.http = newHTTPServer(ctrl, s.hub, config, logger)
	if config.QUICAddr != "" {
		s.feed = newQUICFeed(config, logger)
	}
	return s
}

// Start brings up the HTTP listener, the QUIC feed, and the telemetry
// subscription. Calling Start twice is an error.
func (s *Server) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrAlreadyRunning
	}

	sub, err := s.ctrl.Events().Subscribe(bus.TypeTelemetryFrame, s.onFrame)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	s.frameSub = sub

	if err = s.http.start(); err != nil {
		_ = sub.Cancel()
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	if s.feed != nil {
		if err = s.feed.start(ctx); err != nil {
			_ = s.http.stop(ctx)
			_ = sub.Cancel()
			atomic.StoreInt32(&s.running, 0)
			return err
		}
	}

	s.logger.Info("inspector started",
		log.String("http", s.config.ListenAddr),
		log.String("quic", s.config.QUICAddr))
	return nil
}

// Stop shuts everything down and waits for in-flight handlers.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return nil
	}
	if s.frameSub != nil {
		_ = s.frameSub.Cancel()
	}
	if s.feed != nil {
		s.feed.stop()
	}
	s.hub.closeAll()
	err := s.http.stop(ctx)
	s.logger.Info("inspector stopped")
	return err
}

// IsRunning reports whether the inspector is live.
func (s *Server) IsRunning() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// onFrame fans one telemetry snapshot out to every attached consumer. It
// runs on the controller goroutine, so the encode happens once here and
// the per-client writes stay non-blocking.
func (s *Server) onFrame(ev bus.Event) error {
	snap, ok := ev.Data().(*controller.Snapshot)
	if !ok {
		return nil
	}
	payload, err := encodeFrame(snap)
	if err != nil {
		s.logger.Warn("telemetry frame dropped", log.Error(err))
		return err
	}
	s.hub.broadcast(payload)
	if s.feed != nil {
		s.feed.broadcast(payload)
	}
	return nil
}
