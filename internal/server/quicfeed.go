package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"encoding/pem"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/observability/log"
	"github.com/Lucalangella/NEWTON-LAB/pkg/concurrent"
	"github.com/Lucalangella/NEWTON-LAB/pkg/sequence"
)

const feedProto = "newton-lab-feed"

// quicFeed streams telemetry frames to native viewers over QUIC. Each
// viewer gets one unidirectional stream carrying length-prefixed JSON
// frames. Like the WebSocket hub, frames flow through a bounded per-viewer
// queue drained by a writer goroutine; a slow viewer loses frames instead
// of stalling the broadcast.
type quicFeed struct {
	addr   string
	logger log.Log

	listener *quic.Listener
	cancel   context.CancelFunc

	conns map[*feedConn]struct{}
	mu    sync.Mutex

	writeTimeout time.Duration
	frameBuffer  int
}

type feedConn struct {
	stream *quic.SendStream
	conn   *quic.Conn
	send   chan []byte
	once   sync.Once
}

func (c *feedConn) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

func newQUICFeed(config Config, logger log.Log) *quicFeed {
	return &quicFeed{
		addr:         config.QUICAddr,
		logger:       logger,
		conns:        make(map[*feedConn]struct{}),
		writeTimeout: config.WriteTimeout,
		frameBuffer:  config.FrameBuffer,
	}
}

func (f *quicFeed) start(ctx context.Context) error {
	tlsConfig, err := generateTLSConfig()
	if err != nil {
		return err
	}
	quicConfig := &quic.Config{
		MaxIdleTimeout:     time.Minute,
		MaxIncomingStreams: 4,
	}
	listener, err := quic.ListenAddr(f.addr, tlsConfig, quicConfig)
	if err != nil {
		return err
	}
	f.listener = listener

	ctx, f.cancel = context.WithCancel(ctx)
	go f.acceptLoop(ctx)
	f.logger.Info("quic feed listening", log.String("addr", f.addr))
	return nil
}

func (f *quicFeed) stop() {
	if f.cancel != nil {
		f.cancel()
	}
	if f.listener != nil {
		_ = f.listener.Close()
	}
	f.mu.Lock()
	conns := make(map[*feedConn]struct{}, len(f.conns))
	for c := range f.conns {
		conns[c] = struct{}{}
		delete(f.conns, c)
	}
	f.mu.Unlock()

	concurrent.ForEach(sequence.FromMapKeys(conns), func(c *feedConn) {
		c.close()
		_ = c.conn.CloseWithError(0, "feed shutting down")
	})
}

func (f *quicFeed) acceptLoop(ctx context.Context) {
	for {
		conn, err := f.listener.Accept(ctx)
		if err != nil {
			return
		}
		go f.attach(ctx, conn)
	}
}

func (f *quicFeed) attach(ctx context.Context, conn *quic.Conn) {
	stream, err := conn.OpenUniStreamSync(ctx)
	if err != nil {
		f.logger.Warn("quic viewer rejected", log.Error(err))
		_ = conn.CloseWithError(1, "stream open failed")
		return
	}
	c := &feedConn{
		stream: stream,
		conn:   conn,
		send:   make(chan []byte, f.frameBuffer),
	}
	f.mu.Lock()
	f.conns[c] = struct{}{}
	n := len(f.conns)
	f.mu.Unlock()
	f.logger.Info("quic viewer attached",
		log.String("remote", conn.RemoteAddr().String()),
		log.Int("viewers", n))

	go f.writeLoop(c)
}

// writeLoop drains the viewer queue onto the stream until the queue closes
// or a write fails. The loop owns the stream; nothing else writes to it.
func (f *quicFeed) writeLoop(c *feedConn) {
	for payload := range c.send {
		_ = c.stream.SetWriteDeadline(time.Now().Add(f.writeTimeout))
		if err := c.write(payload); err != nil {
			f.detach(c)
			return
		}
	}
	_ = c.stream.Close()
}

func (c *feedConn) write(payload []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := c.stream.Write(prefix[:]); err != nil {
		return err
	}
	_, err := c.stream.Write(payload)
	return err
}

// broadcast queues one frame on every attached viewer. A full queue drops
// this frame for that viewer only; the controller goroutine never blocks
// on QUIC flow control.
func (f *quicFeed) broadcast(payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.conns {
		select {
		case c.send <- payload:
		default:
		}
	}
}

func (f *quicFeed) detach(c *feedConn) {
	f.mu.Lock()
	_, ok := f.conns[c]
	delete(f.conns, c)
	f.mu.Unlock()
	if ok {
		c.close()
		_ = c.conn.CloseWithError(0, "write failed")
		f.logger.Info("quic viewer detached",
			log.String("remote", c.conn.RemoteAddr().String()))
	}
}

// generateTLSConfig builds a self-signed certificate for the development
// feed. Viewers connect with verification disabled.
func generateTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Newton Lab"},
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:    []string{"localhost"},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		NextProtos:   []string{feedProto},
		MinVersion:   tls.VersionTLS13,
	}, nil
}
