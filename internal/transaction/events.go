package transaction

import (
	"time"

	"github.com/ruslanhut/ocpp-core/internal/metering"
)

// Protocol selects which OCPP version's event shape Evaluate produces.
// Start/stop condition evaluation (spec.md §4.5) is identical across both;
// only event generation differs, per the "hoist version-only entities
// behind a shared contract" design note.
type Protocol int

const (
	ProtocolV16 Protocol = iota
	ProtocolV201
)

// EventKind names the abstract outbound fact an Event carries. The v1.6
// names (StartTransaction/StopTransaction/MeterValues) and the v2.0.1
// TransactionEvent names (Started/Updated/Ended) are kept distinct so a
// caller never has to guess which protocol produced the Event.
type EventKind string

const (
	KindStartTransaction EventKind = "StartTransaction"
	KindStopTransaction  EventKind = "StopTransaction"
	KindMeterValues      EventKind = "MeterValues"
	KindStarted          EventKind = "Started"
	KindUpdated          EventKind = "Updated"
	KindEnded            EventKind = "Ended"
)

// Event is one abstract fact the Transaction State Machine has decided to
// report. internal/core's wiring converts it into a concrete v16 or v201
// wire request and hands it to the request queue (component C10); the
// transaction package itself never imports the wire-protocol packages, so
// the same Machine logic serves both.
type Event struct {
	Kind        EventKind
	ConnectorID int
	TxNr        int
	Timestamp   time.Time
	Offline     bool
	Trigger     TriggerReason
	Reason      StopReason

	IdTag       string
	ParentIdTag string
	StopIdTag   string

	MeterStart int32
	MeterStop  int32

	// Samples accompanies MeterValues/Updated/Ended events that carry
	// meter readings.
	Samples []metering.Sample
	// TransactionData accompanies StopTransaction (v1.6): every sample
	// taken over the transaction's lifetime.
	TransactionData []metering.Sample

	// v2.0.1 TransactionEvent fields, populated only when the
	// corresponding Notify* flag was set on the record.
	SeqNo         int
	ChargingState ChargingState
	RemoteStartID *int
	ReservationID *int
}

// buildStartEvent constructs the Start-of-transaction Event for rec
// according to protocol. Called once, at the moment the start condition is
// recognized (commit-before-enqueue: the caller must Commit rec before
// this Event is handed to the request queue).
func buildStartEvent(protocol Protocol, rec *Record, now time.Time, offline bool) Event {
	ev := Event{
		ConnectorID: rec.ConnectorID,
		TxNr:        rec.TxNr,
		Timestamp:   rec.StartTimestamp,
		Offline:     offline,
		IdTag:       rec.IdTag,
		ParentIdTag: rec.ParentIdTag,
		MeterStart:  rec.MeterStart,
	}
	ev.Trigger = rec.StartTriggerReason
	if offline {
		ev.Trigger = TriggerTrigger
	}
	switch protocol {
	case ProtocolV201:
		ev.Kind = KindStarted
		ev.SeqNo = rec.SeqNoCounter
		rec.SeqNoCounter++
		ev.ChargingState = rec.ChargingState
		if rec.RemoteStartID >= 0 {
			id := rec.RemoteStartID
			ev.RemoteStartID = &id
		}
		if rec.ReservationID > 0 {
			id := rec.ReservationID
			ev.ReservationID = &id
		}
	default:
		ev.Kind = KindStartTransaction
	}
	return ev
}

// buildEndEvent constructs the terminal Event for rec, draining its
// meter-value buffers (v2.0.1) or its accumulated stop-tx sample data
// (v1.6). Called once, at the moment stopTxReady() holds.
func buildEndEvent(protocol Protocol, rec *Record, now time.Time, offline bool) Event {
	ev := Event{
		ConnectorID: rec.ConnectorID,
		TxNr:        rec.TxNr,
		Timestamp:   rec.StopTimestamp,
		Offline:     offline,
		IdTag:       rec.IdTag,
		StopIdTag:   rec.EffectiveStopIdToken(),
		MeterStop:   rec.MeterStop,
	}
	switch protocol {
	case ProtocolV201:
		ev.Kind = KindEnded
		ev.Reason = rec.StopReasonV201
		ev.Trigger = rec.StopTrigger
		ev.SeqNo = rec.SeqNoCounter
		rec.SeqNoCounter++
		ev.Samples = drainAll(rec)
	default:
		ev.Kind = KindStopTransaction
		ev.Reason = rec.StopReasonV16
		ev.TransactionData = rec.StopTxSampledData
	}
	if offline {
		ev.Trigger = TriggerTrigger
	}
	return ev
}

// buildUpdatedEvent constructs a v2.0.1 Updated Event carrying whatever
// optional fields are currently flagged, then clears those flags -- the
// "send each optional field at least once, ideally once" rule from
// spec.md §4.5.
func buildUpdatedEvent(rec *Record, trigger TriggerReason) Event {
	ev := Event{
		Kind:        KindUpdated,
		ConnectorID: rec.ConnectorID,
		TxNr:        rec.TxNr,
		Trigger:     trigger,
		SeqNo:       rec.SeqNoCounter,
	}
	rec.SeqNoCounter++
	if rec.NotifyIdToken {
		ev.IdTag = rec.IdTag
		rec.NotifyIdToken = false
	}
	if rec.NotifyStopIdToken {
		ev.StopIdTag = rec.EffectiveStopIdToken()
		rec.NotifyStopIdToken = false
	}
	if rec.NotifyChargingState {
		ev.ChargingState = rec.ChargingState
		rec.NotifyChargingState = false
	}
	if rec.NotifyRemoteStartID {
		id := rec.RemoteStartID
		ev.RemoteStartID = &id
		rec.NotifyRemoteStartID = false
	}
	if rec.NotifyReservationID {
		id := rec.ReservationID
		ev.ReservationID = &id
		rec.NotifyReservationID = false
	}
	if rec.NotifyMeterValue {
		ev.Samples = drainAll(rec)
		rec.NotifyMeterValue = false
	}
	return ev
}

func drainAll(rec *Record) []metering.Sample {
	var out []metering.Sample
	out = append(out, rec.ClockMeterValue...)
	out = append(out, rec.PeriodicMeterValue...)
	out = append(out, rec.TriggerMeterValue...)
	rec.ClockMeterValue = nil
	rec.PeriodicMeterValue = nil
	rec.TriggerMeterValue = nil
	return out
}
