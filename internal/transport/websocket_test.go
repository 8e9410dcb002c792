package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestSetDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{ProtocolVersion: "2.0.1"}
	cfg.setDefaults()

	if cfg.ConnectionTimeout != 30*time.Second {
		t.Errorf("ConnectionTimeout = %v, want 30s", cfg.ConnectionTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.ReadTimeout != 60*time.Second {
		t.Errorf("ReadTimeout = %v, want 60s", cfg.ReadTimeout)
	}
	if cfg.PingInterval != 30*time.Second {
		t.Errorf("PingInterval = %v, want 30s", cfg.PingInterval)
	}
	if cfg.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want 5", cfg.MaxReconnectAttempts)
	}
	if cfg.Subprotocol != "ocpp2.0.1" {
		t.Errorf("Subprotocol = %q, want ocpp2.0.1", cfg.Subprotocol)
	}
}

func TestSetDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{ProtocolVersion: "1.6", Subprotocol: "custom", ConnectionTimeout: 5 * time.Second}
	cfg.setDefaults()

	if cfg.Subprotocol != "custom" {
		t.Errorf("Subprotocol = %q, want custom", cfg.Subprotocol)
	}
	if cfg.ConnectionTimeout != 5*time.Second {
		t.Errorf("ConnectionTimeout = %v, want 5s", cfg.ConnectionTimeout)
	}
}

func TestSubprotocolFor(t *testing.T) {
	cases := map[string]string{
		"1.6":   "ocpp1.6",
		"2.0.1": "ocpp2.0.1",
		"":      "ocpp1.6",
	}
	for version, want := range cases {
		if got := subprotocolFor(version); got != want {
			t.Errorf("subprotocolFor(%q) = %q, want %q", version, got, want)
		}
	}
}

func TestNewClientStartsDisconnected(t *testing.T) {
	c := New(Config{URL: "ws://example.invalid/ocpp", ProtocolVersion: "1.6"}, nil)
	if c.Connected() {
		t.Fatal("expected a freshly-constructed client to report not connected")
	}
	if _, ok := c.Poll(); ok {
		t.Fatal("expected Poll to report nothing buffered before any connection")
	}
	if c.Send([]byte("frame")) {
		t.Fatal("expected Send to fail while disconnected")
	}
}

func TestConnectSendPollRoundtrip(t *testing.T) {
	upgrader := websocket.Upgrader{Subprotocols: []string{"ocpp1.6"}}
	received := make(chan []byte, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("server upgrade: %v", err)
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- msg
		_ = conn.WriteMessage(websocket.TextMessage, []byte("echo"))
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	url := "ws" + srv.URL[len("http"):]
	c := New(Config{URL: url, ProtocolVersion: "1.6", PingInterval: time.Hour}, nil)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if !c.Connected() {
		t.Fatal("expected Connected() to be true after a successful dial")
	}

	if !c.Send([]byte("hello")) {
		t.Fatal("expected Send to succeed once connected")
	}

	select {
	case got := <-received:
		if string(got) != "hello" {
			t.Errorf("server received %q, want %q", got, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the server to receive the frame")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frame, ok := c.Poll(); ok {
			if string(frame) != "echo" {
				t.Errorf("Poll() = %q, want %q", frame, "echo")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for the echoed frame to be buffered")
}
