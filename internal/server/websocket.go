package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/controller"
	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/Lucalangella/NEWTON-LAB/pkg/generic"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The inspector is a loopback development surface.
	CheckOrigin: func(*http.Request) bool { return true },
}

// framePool recycles encode buffers across telemetry frames.
var framePool = generic.NewPool(func() *bytes.Buffer {
	return new(bytes.Buffer)
})

func encodeFrame(snap *controller.Snapshot) ([]byte, error) {
	buf := framePool.Get()
	defer func() {
		buf.Reset()
		framePool.Put(buf)
	}()
	if err := json.NewEncoder(buf).Encode(snap); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// telemetryClient is one attached WebSocket viewer. Frames flow through a
// bounded send queue; the writer goroutine owns the connection.
type telemetryClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *telemetryClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// telemetryHub tracks attached viewers and fans snapshot frames out to
// them. Slow viewers lose frames, never block the controller.
type telemetryHub struct {
	clients map[*telemetryClient]struct{}
	mu      sync.Mutex

	writeTimeout time.Duration
	frameBuffer  int
	logger       log.Log
}

func newTelemetryHub(config Config, logger log.Log) *telemetryHub {
	return &telemetryHub{
		clients:      make(map[*telemetryClient]struct{}),
		writeTimeout: config.WriteTimeout,
		frameBuffer:  config.FrameBuffer,
		logger:       logger,
	}
}

func (h *telemetryHub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	client := &telemetryClient{
		conn: conn,
		send: make(chan []byte, h.frameBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("telemetry viewer attached",
		log.String("remote", conn.RemoteAddr().String()),
		log.Int("viewers", n))

	go h.writeLoop(client)
	go h.readLoop(client)
}

// writeLoop drains the client queue onto the wire until the queue closes
// or a write fails.
func (h *telemetryHub) writeLoop(c *telemetryClient) {
	defer c.conn.Close()
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.detach(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop exists to notice the peer going away; the feed is one-way.
func (h *telemetryHub) readLoop(c *telemetryClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.detach(c)
			return
		}
	}
}

func (h *telemetryHub) detach(c *telemetryClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
		h.logger.Info("telemetry viewer detached",
			log.String("remote", c.conn.RemoteAddr().String()))
	}
}

// broadcast queues one frame on every attached viewer. A full queue drops
// this frame for that viewer only.
func (h *telemetryHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

func (h *telemetryHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
