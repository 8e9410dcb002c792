package requestqueue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/ocpp"
)

// pending tracks an in-flight Call awaiting a CallResult/CallError.
type pending struct {
	op  *Operation
	msg *ocpp.Call
}

// Queue is the per-station outbound FIFO: one call in flight at a time,
// store-before-send for durable operations, held-not-reordered on
// disconnect. Grounded on spec.md §4.6/§5: "FIFO per queue with one
// in-flight call... on transport disconnect, the in-flight operation is
// held until the channel is ready again (no re-enqueue reordering)".
type Queue struct {
	transport Transport
	durable   *DurableStore
	logger    *slog.Logger

	items   []*Operation
	inFlight *pending
	nextOpNr int
}

// New returns an empty Queue writing durable payloads through durable (may
// be nil if no durable operation is ever enqueued) and dispatching frames
// through transport.
func New(transport Transport, durable *DurableStore, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{transport: transport, durable: durable, logger: logger}
}

// Enqueue appends op to the tail of the FIFO. Durable operations are
// assigned the next opNr; operations reloaded from disk on restart keep
// their OpNr and are re-admitted via EnqueueReplay instead.
func (q *Queue) Enqueue(op *Operation) {
	if op.Durable && op.OpNr == 0 {
		q.nextOpNr++
		op.OpNr = q.nextOpNr
	}
	op.enqueuedAt = time.Now()
	q.items = append(q.items, op)
}

// EnqueueReplay re-admits a durable operation recovered from disk at
// restart, preserving its original opNr so replay order matches spec.md
// §4.6's "pending files replay in their original opNr order".
func (q *Queue) EnqueueReplay(op *Operation) {
	if op.OpNr >= q.nextOpNr {
		q.nextOpNr = op.OpNr
	}
	q.items = append(q.items, op)
}

// Len reports the number of operations still waiting to be sent (excludes
// the in-flight one).
func (q *Queue) Len() int { return len(q.items) }

// Tick advances the queue by at most one step: dispatching the head
// operation if nothing is in flight and the transport is ready, or aborting
// the in-flight operation once its timeout has elapsed (replies are fed in
// through Resolve). now is used for timeout detection. Never blocks.
func (q *Queue) Tick(now time.Time) {
	if q.inFlight != nil {
		if q.inFlight.op.Timeout > 0 && now.Sub(q.inFlight.op.sentAt) > q.inFlight.op.Timeout {
			q.abortInFlight()
		}
		return
	}
	if len(q.items) == 0 {
		return
	}
	if !q.transport.Connected() {
		return
	}
	op := q.items[0]
	payload, err := op.CreateReq()
	if err != nil {
		q.logger.Error("requestqueue: build request failed", "action", op.Action, "error", err)
		q.items = q.items[1:]
		if op.OnAbort != nil {
			op.OnAbort()
		}
		return
	}
	call, err := ocpp.NewCall(op.Action, payload)
	if err != nil {
		q.logger.Error("requestqueue: encode request failed", "action", op.Action, "error", err)
		q.items = q.items[1:]
		if op.OnAbort != nil {
			op.OnAbort()
		}
		return
	}

	if op.Durable && q.durable != nil {
		if err := q.durable.Persist(op.OpNr, op.Kind, op.Payload); err != nil {
			q.logger.Warn("requestqueue: persist durable op failed, sending anyway", "opNr", op.OpNr, "error", err)
		}
	}

	frame, err := call.ToBytes()
	if err != nil {
		q.logger.Error("requestqueue: marshal frame failed", "action", op.Action, "error", err)
		q.items = q.items[1:]
		if op.OnAbort != nil {
			op.OnAbort()
		}
		return
	}
	if !q.transport.Send(frame) {
		return
	}
	op.sentAt = now
	op.uniqueID = call.UniqueID
	q.items = q.items[1:]
	q.inFlight = &pending{op: op, msg: call}
}

// Resolve feeds an inbound CallResult or CallError matching the in-flight
// operation's uniqueId. It is a no-op (a stale or foreign reply) if nothing
// is in flight or the id does not match.
func (q *Queue) Resolve(uniqueID string, isError bool, payload json.RawMessage) {
	if q.inFlight == nil || q.inFlight.op.uniqueID != uniqueID {
		return
	}
	op := q.inFlight.op
	q.inFlight = nil
	if isError {
		if op.OnAbort != nil {
			op.OnAbort()
		}
		if op.Durable && q.durable != nil {
			// Lossy-confirm per spec.md §7.3: never retry; the op file is
			// removed so the operation is not replayed after a restart.
			if err := q.durable.Forget(op.OpNr); err != nil {
				q.logger.Warn("requestqueue: forget rejected durable op failed", "opNr", op.OpNr, "error", err)
			}
		}
		return
	}
	if op.Durable && q.durable != nil {
		if err := q.durable.Forget(op.OpNr); err != nil {
			q.logger.Warn("requestqueue: forget acked durable op failed", "opNr", op.OpNr, "error", err)
		}
	}
	if op.OnConf != nil {
		op.OnConf(payload)
	}
}

func (q *Queue) abortInFlight() {
	op := q.inFlight.op
	q.inFlight = nil
	q.logger.Warn("requestqueue: operation timed out", "action", op.Action, "opNr", op.OpNr)
	if op.OnAbort != nil {
		op.OnAbort()
	}
	if op.Durable && q.durable != nil {
		if err := q.durable.Forget(op.OpNr); err != nil {
			q.logger.Warn("requestqueue: forget timed-out durable op failed", "opNr", op.OpNr, "error", err)
		}
	}
}

// InFlightAction reports the action name currently in flight, or "" if the
// queue is idle. Exposed for tests and diagnostics.
func (q *Queue) InFlightAction() string {
	if q.inFlight == nil {
		return ""
	}
	return q.inFlight.op.Action
}
