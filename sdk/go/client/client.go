// Package client provides a Go SDK for the Newton Lab inspector: a
// telemetry subscription over WebSocket plus control calls over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/controller"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
)

// FrameHandler consumes one telemetry snapshot.
type FrameHandler func(snap *controller.Snapshot) error

// Config holds configuration for the client.
type Config struct {
	// ServerAddr is host:port of the inspector HTTP listener.
	ServerAddr string

	ConnectTimeout       time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	RequestTimeout       time.Duration

	LogLevel log.Level
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		ServerAddr:           "localhost:8080",
		ConnectTimeout:       10 * time.Second,
		ReconnectInterval:    2 * time.Second,
		MaxReconnectAttempts: 10,
		RequestTimeout:       5 * time.Second,
		LogLevel:             log.LevelInfo,
	}
}

// Client subscribes to the lab telemetry feed and exposes the inspector's
// control surface.
type Client struct {
	config Config
	logger log.Log
	http   *http.Client

	conn     *websocket.Conn
	connMu   sync.Mutex
	handlers []FrameHandler
	handleMu sync.RWMutex

	connected int32
	closed    int32
	done      chan struct{}
	workers   sync.WaitGroup

	lastFrame atomic.Pointer[controller.Snapshot]
}

func New(config Config) *Client {
	return &Client{
		config: config,
		logger: log.New(config.LogLevel),
		http:   &http.Client{Timeout: config.RequestTimeout},
		done:   make(chan struct{}),
	}
}

// OnFrame registers a handler for incoming telemetry snapshots.
func (c *Client) OnFrame(h FrameHandler) {
	c.handleMu.Lock()
	c.handlers = append(c.handlers, h)
	c.handleMu.Unlock()
}

// LastFrame returns the most recent snapshot, or nil before the first one
// arrives.
func (c *Client) LastFrame() *controller.Snapshot {
	return c.lastFrame.Load()
}

// Connect dials the telemetry feed and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if !atomic.CompareAndSwapInt32(&c.connected, 0, 1) {
		return ErrAlreadyConnected
	}

	if err := c.dial(ctx); err != nil {
		atomic.StoreInt32(&c.connected, 0)
		return err
	}
	c.workers.Add(1)
	go c.readLoop()
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.config.ConnectTimeout}
	url := fmt.Sprintf("ws://%s/ws", c.config.ServerAddr)
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.logger.Info("telemetry feed connected", log.String("addr", c.config.ServerAddr))
	return nil
}

// Close stops the read loop and releases the connection.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	close(c.done)
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connMu.Unlock()
	c.workers.Wait()
	return nil
}

func (c *Client) readLoop() {
	defer c.workers.Done()
	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}
			if err = c.reconnect(); err != nil {
				c.logger.Error("telemetry feed lost", log.Error(err))
				atomic.StoreInt32(&c.connected, 0)
				return
			}
			continue
		}
		c.deliver(payload)
	}
}

func (c *Client) reconnect() error {
	for attempt := 1; attempt <= c.config.MaxReconnectAttempts; attempt++ {
		select {
		case <-c.done:
			return ErrClientClosed
		case <-time.After(c.config.ReconnectInterval):
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.config.ConnectTimeout)
		err := c.dial(ctx)
		cancel()
		if err == nil {
			return nil
		}
		c.logger.Warn("reconnect attempt failed",
			log.Int("attempt", attempt), log.Error(err))
	}
	return ErrReconnectFailed
}

func (c *Client) deliver(payload []byte) {
	var snap controller.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		c.logger.Warn("bad telemetry frame", log.Error(err))
		return
	}
	c.lastFrame.Store(&snap)

	c.handleMu.RLock()
	handlers := c.handlers
	c.handleMu.RUnlock()
	for _, h := range handlers {
		if err := h(&snap); err != nil {
			c.logger.Warn("frame handler failed", log.Error(err))
		}
	}
}

// State fetches the current snapshot over HTTP, independent of the feed.
func (c *Client) State(ctx context.Context) (*controller.Snapshot, error) {
	var snap controller.Snapshot
	if err := c.get(ctx, "/state", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Spawn asks the lab to create an object of the named shape.
func (c *Client) Spawn(ctx context.Context, shape string) error {
	return c.post(ctx, "/spawn", map[string]string{"shape": shape})
}

// Reset clears every spawned object.
func (c *Client) Reset(ctx context.Context) error {
	return c.post(ctx, "/reset", struct{}{})
}

// SetConfig replaces the lab's physics property set.
func (c *Client) SetConfig(ctx context.Context, cfg any) error {
	return c.post(ctx, "/config", cfg)
}

// SetGlobalMode changes the steady-state body mode.
func (c *Client) SetGlobalMode(ctx context.Context, mode string) error {
	return c.post(ctx, "/mode", map[string]string{"mode": mode})
}

// SetEnvironment switches between virtual and mixed_reality.
func (c *Client) SetEnvironment(ctx context.Context, mode string) error {
	return c.post(ctx, "/environment", map[string]string{"mode": mode})
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("http://%s%s", c.config.ServerAddr, path), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrCommandRejected, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("http://%s%s", c.config.ServerAddr, path), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrCommandRejected, resp.Status)
	}
	return nil
}
