package requestqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
	"github.com/ruslanhut/ocpp-core/internal/ocpp"
)

type fakeTransport struct {
	connected bool
	sent      [][]byte
	sendOK    bool
}

func (f *fakeTransport) Connected() bool { return f.connected }
func (f *fakeTransport) Send(frame []byte) bool {
	if !f.sendOK {
		return false
	}
	f.sent = append(f.sent, frame)
	return true
}
func (f *fakeTransport) Poll() ([]byte, bool) { return nil, false }

func TestQueueHoldsWhileDisconnected(t *testing.T) {
	tr := &fakeTransport{connected: false, sendOK: true}
	q := New(tr, nil, nil)
	q.Enqueue(&Operation{Action: "Heartbeat", CreateReq: func() (interface{}, error) { return struct{}{}, nil }})

	q.Tick(time.Now())
	if len(tr.sent) != 0 {
		t.Fatalf("expected nothing sent while disconnected, got %d frames", len(tr.sent))
	}
	if q.Len() != 1 {
		t.Fatalf("expected operation still queued, got len=%d", q.Len())
	}
}

func TestQueueFIFOOneInFlight(t *testing.T) {
	tr := &fakeTransport{connected: true, sendOK: true}
	q := New(tr, nil, nil)
	var confirmed []string
	for _, action := range []string{"A", "B"} {
		action := action
		q.Enqueue(&Operation{
			Action:    action,
			CreateReq: func() (interface{}, error) { return struct{}{}, nil },
			OnConf:    func([]byte) { confirmed = append(confirmed, action) },
		})
	}

	q.Tick(time.Now())
	if q.InFlightAction() != "A" {
		t.Fatalf("expected A in flight, got %q", q.InFlightAction())
	}
	// Second tick must not send B while A is in flight.
	q.Tick(time.Now())
	if len(tr.sent) != 1 {
		t.Fatalf("expected exactly one frame sent, got %d", len(tr.sent))
	}

	call, err := ocpp.ParseMessage(tr.sent[0])
	if err != nil {
		t.Fatalf("parse sent frame: %v", err)
	}
	c := call.(*ocpp.Call)
	q.Resolve(c.UniqueID, false, json.RawMessage(`{}`))

	q.Tick(time.Now())
	if q.InFlightAction() != "B" {
		t.Fatalf("expected B in flight after A confirmed, got %q", q.InFlightAction())
	}
	if len(confirmed) != 1 || confirmed[0] != "A" {
		t.Fatalf("expected only A confirmed so far, got %v", confirmed)
	}
}

func TestQueueTimeoutAborts(t *testing.T) {
	tr := &fakeTransport{connected: true, sendOK: true}
	q := New(tr, nil, nil)
	aborted := false
	q.Enqueue(&Operation{
		Action:    "Slow",
		CreateReq: func() (interface{}, error) { return struct{}{}, nil },
		OnAbort:   func() { aborted = true },
		Timeout:   time.Second,
	})
	base := time.Now()
	q.Tick(base)
	if q.InFlightAction() != "Slow" {
		t.Fatalf("expected Slow in flight")
	}
	q.Tick(base.Add(2 * time.Second))
	if !aborted {
		t.Fatalf("expected operation to abort after timeout")
	}
	if q.InFlightAction() != "" {
		t.Fatalf("expected queue idle after abort")
	}
}

func TestDurableOperationPersistsBeforeSendAndForgetsOnConfirm(t *testing.T) {
	fs := fsadapter.NewMemory()
	durable := NewDurableStore(fs)
	tr := &fakeTransport{connected: true, sendOK: true}
	q := New(tr, durable, nil)

	q.Enqueue(&Operation{
		Action:    "TransactionEvent",
		Durable:   true,
		Kind:      "Started",
		Payload:   map[string]int{"seqNo": 0},
		CreateReq: func() (interface{}, error) { return struct{}{}, nil },
	})
	q.Tick(time.Now())

	rows, err := durable.LoadPending()
	if err != nil {
		t.Fatalf("load pending: %v", err)
	}
	if len(rows) != 1 || rows[0].Kind != "Started" {
		t.Fatalf("expected persisted Started row before ack, got %+v", rows)
	}

	call, err := ocpp.ParseMessage(tr.sent[0])
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q.Resolve(call.(*ocpp.Call).UniqueID, false, json.RawMessage(`{}`))

	rows, err = durable.LoadPending()
	if err != nil {
		t.Fatalf("load pending after ack: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected durable row removed after ack, got %+v", rows)
	}
}

func TestRegistryDispatchesAndDefaultsToNotSupported(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("Reset", func() Handler {
		return func(payload json.RawMessage) HandlerResult {
			return HandlerResult{Payload: map[string]string{"status": "Accepted"}}
		}
	})

	call, err := ocpp.NewCall("Reset", map[string]string{"type": "Soft"})
	if err != nil {
		t.Fatalf("new call: %v", err)
	}
	frame, err := r.Dispatch(call)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	msg, err := ocpp.ParseMessage(frame)
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if _, ok := msg.(*ocpp.CallResult); !ok {
		t.Fatalf("expected CallResult, got %T", msg)
	}

	unknown, _ := ocpp.NewCall("SomeUnregisteredAction", struct{}{})
	frame2, err := r.Dispatch(unknown)
	if err != nil {
		t.Fatalf("dispatch unknown: %v", err)
	}
	msg2, err := ocpp.ParseMessage(frame2)
	if err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	ce, ok := msg2.(*ocpp.CallError)
	if !ok {
		t.Fatalf("expected CallError for unregistered action, got %T", msg2)
	}
	if ce.ErrorCode != ocpp.ErrorCodeNotSupported {
		t.Fatalf("expected NotSupported, got %s", ce.ErrorCode)
	}
}
