// Package transport provides the default non-blocking wire channel the
// core's request queue (internal/requestqueue) depends on: a single
// persistent WebSocket connection to one Central System, dialed once and
// kept alive with automatic reconnection.
//
// Grounded on the teacher's internal/connection/websocket.go WebSocketClient
// (read/write/ping pumps, exponential-backoff reconnect, TLS and basic/
// bearer auth config), narrowed from the teacher's server-side "dial many
// stations, track a pool" role into the client-side "dial one CSMS" role
// this core needs, and adapted to satisfy requestqueue.Transport's
// non-blocking Connected/Send/Poll contract instead of the teacher's
// callback-driven OnMessage/OnConnected hooks.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// State mirrors the teacher's ConnectionState.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateError        State = "error"
	StateClosed       State = "closed"
)

// Config configures a WebSocketClient, narrowed from the teacher's
// ConnectionConfig to the fields a single embedded station needs: no
// OnMessage/OnConnected callbacks (Poll/Connected replace them), no
// per-station pool bookkeeping.
type Config struct {
	URL             string
	StationID       string
	ProtocolVersion string // "1.6" or "2.0.1"
	Subprotocol     string // derived from ProtocolVersion if empty

	ConnectionTimeout time.Duration
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	PingInterval      time.Duration

	MaxReconnectAttempts int
	ReconnectBackoff     time.Duration
	ReconnectMaxBackoff  time.Duration

	TLSEnabled    bool
	TLSCACert     string
	TLSClientCert string
	TLSClientKey  string
	TLSSkipVerify bool

	BasicAuthUsername string
	BasicAuthPassword string
	BearerToken       string
}

func (c *Config) setDefaults() {
	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.ReconnectBackoff == 0 {
		c.ReconnectBackoff = 5 * time.Second
	}
	if c.ReconnectMaxBackoff == 0 {
		c.ReconnectMaxBackoff = 60 * time.Second
	}
	if c.Subprotocol == "" {
		c.Subprotocol = subprotocolFor(c.ProtocolVersion)
	}
}

func subprotocolFor(version string) string {
	switch version {
	case "2.0.1":
		return "ocpp2.0.1"
	default:
		return "ocpp1.6"
	}
}

// WebSocketClient is a requestqueue.Transport backed by a single persistent
// WebSocket connection. Connected/Send/Poll never block: Send enqueues onto
// an internal write buffer drained by a background goroutine, and Poll
// drains frames a background read goroutine has already buffered, matching
// spec.md §5's "no component blocks" cooperative-loop contract.
type WebSocketClient struct {
	cfg    Config
	logger *slog.Logger

	conn    *websocket.Conn
	connMu  sync.Mutex
	state   atomic.Value // State
	reconnectCount int

	inbox  chan []byte
	outbox chan []byte
	closed chan struct{}
	closeOnce sync.Once
}

// New returns a WebSocketClient for cfg. Call Connect to dial; the client
// does not dial from New so construction can never fail on a transient
// network error.
func New(cfg Config, logger *slog.Logger) *WebSocketClient {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	c := &WebSocketClient{
		cfg:    cfg,
		logger: logger,
		inbox:  make(chan []byte, 256),
		outbox: make(chan []byte, 256),
		closed: make(chan struct{}),
	}
	c.setState(StateDisconnected)
	return c
}

// Connect dials the CSMS once and starts the read/write/ping pumps.
// Reconnection after an unexpected disconnect is automatic; Connect itself
// need only be called once at startup.
func (c *WebSocketClient) Connect() error {
	return c.dial()
}

func (c *WebSocketClient) dial() error {
	c.setState(StateConnecting)
	c.logger.Info("transport: connecting", "station_id", c.cfg.StationID, "url", c.cfg.URL)

	headers := http.Header{}
	if c.cfg.BasicAuthUsername != "" {
		headers.Set("Authorization", basicAuth(c.cfg.BasicAuthUsername, c.cfg.BasicAuthPassword))
	} else if c.cfg.BearerToken != "" {
		headers.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.ConnectionTimeout,
		Subprotocols:     []string{c.cfg.Subprotocol},
	}
	if c.cfg.TLSEnabled {
		tlsConfig, err := c.tlsConfig()
		if err != nil {
			c.setState(StateError)
			return fmt.Errorf("transport: tls config: %w", err)
		}
		dialer.TLSClientConfig = tlsConfig
	}

	conn, resp, err := dialer.Dial(c.cfg.URL, headers)
	if err != nil {
		c.setState(StateError)
		return fmt.Errorf("transport: dial: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.setState(StateConnected)
	c.reconnectCount = 0
	c.logger.Info("transport: connected", "station_id", c.cfg.StationID, "subprotocol", conn.Subprotocol())

	go c.readPump()
	go c.writePump()
	return nil
}

// Connected reports whether the connection is currently usable for sends,
// satisfying requestqueue.Transport.
func (c *WebSocketClient) Connected() bool {
	return c.State() == StateConnected
}

// Send enqueues frame for delivery and returns immediately; it reports
// false only if the client is not connected or the write buffer is full,
// matching requestqueue.Transport's non-blocking contract.
func (c *WebSocketClient) Send(frame []byte) bool {
	if !c.Connected() {
		return false
	}
	select {
	case c.outbox <- frame:
		return true
	default:
		c.logger.Warn("transport: outbox full, dropping frame", "station_id", c.cfg.StationID)
		return false
	}
}

// Poll returns the next buffered inbound frame, if any, satisfying
// requestqueue.Transport.
func (c *WebSocketClient) Poll() ([]byte, bool) {
	select {
	case frame := <-c.inbox:
		return frame, true
	default:
		return nil, false
	}
}

// Close disconnects the client and stops all pumps.
func (c *WebSocketClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn != nil {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		}
		c.setState(StateClosed)
	})
	return nil
}

func (c *WebSocketClient) readPump() {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(err)
			return
		}
		if messageType == websocket.TextMessage {
			select {
			case c.inbox <- message:
			default:
				c.logger.Warn("transport: inbox full, dropping frame", "station_id", c.cfg.StationID)
			}
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
}

func (c *WebSocketClient) writePump() {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case frame := <-c.outbox:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.handleDisconnect(err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.handleDisconnect(err)
				return
			}
		}
	}
}

func (c *WebSocketClient) handleDisconnect(err error) {
	select {
	case <-c.closed:
		return
	default:
	}
	if c.State() == StateClosed {
		return
	}
	c.setState(StateDisconnected)
	if err != nil {
		c.logger.Warn("transport: disconnected", "station_id", c.cfg.StationID, "error", err)
	}
	if c.reconnectCount < c.cfg.MaxReconnectAttempts {
		go c.reconnect()
	} else {
		c.logger.Error("transport: max reconnect attempts reached", "station_id", c.cfg.StationID)
		c.setState(StateError)
	}
}

func (c *WebSocketClient) reconnect() {
	c.setState(StateReconnecting)
	c.reconnectCount++
	backoff := c.cfg.ReconnectBackoff * time.Duration(int64(1)<<uint(c.reconnectCount-1))
	if backoff > c.cfg.ReconnectMaxBackoff {
		backoff = c.cfg.ReconnectMaxBackoff
	}
	c.logger.Info("transport: reconnecting", "station_id", c.cfg.StationID, "attempt", c.reconnectCount, "backoff", backoff)
	time.Sleep(backoff)
	if err := c.dial(); err != nil {
		c.logger.Error("transport: reconnect failed", "station_id", c.cfg.StationID, "error", err)
		c.handleDisconnect(err)
	}
}

// State returns the current connection state.
func (c *WebSocketClient) State() State {
	v, _ := c.state.Load().(State)
	return v
}

func (c *WebSocketClient) setState(s State) {
	c.state.Store(s)
}

func (c *WebSocketClient) tlsConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: c.cfg.TLSSkipVerify}
	if c.cfg.TLSCACert != "" {
		caCert, err := os.ReadFile(c.cfg.TLSCACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("append CA cert")
		}
		tlsConfig.RootCAs = pool
	}
	if c.cfg.TLSClientCert != "" && c.cfg.TLSClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.cfg.TLSClientCert, c.cfg.TLSClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
