package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruslanhut/ocpp-core/internal/metering"
	"github.com/ruslanhut/ocpp-core/internal/ocpp/v201"
	"github.com/ruslanhut/ocpp-core/internal/requestqueue"
	"github.com/ruslanhut/ocpp-core/internal/transaction"
)

func timeFromUnixNano(n int64) time.Time {
	return time.Unix(0, n)
}

func samplesToV201(samples []metering.Sample) []v201.MeterValue {
	if len(samples) == 0 {
		return nil
	}
	byTime := make(map[int64][]v201.SampledValue)
	var order []int64
	for _, s := range samples {
		key := s.Timestamp.UnixNano()
		if _, seen := byTime[key]; !seen {
			order = append(order, key)
		}
		measurand := v201.MeasurandType(s.Measurand)
		context := v201.ReadingContextType(s.Context)
		sv := v201.SampledValue{
			Value:     s.Value,
			Measurand: &measurand,
			Context:   &context,
		}
		if s.Unit != "" {
			sv.UnitOfMeasure = &v201.UnitOfMeasure{Unit: s.Unit}
		}
		if s.Location != "" {
			loc := v201.LocationType(s.Location)
			sv.Location = &loc
		}
		if s.Phase != "" {
			ph := v201.PhaseType(s.Phase)
			sv.Phase = &ph
		}
		byTime[key] = append(byTime[key], sv)
	}
	out := make([]v201.MeterValue, 0, len(order))
	for _, key := range order {
		out = append(out, v201.MeterValue{
			Timestamp:    v201.DateTime{Time: timeFromUnixNano(key)},
			SampledValue: byTime[key],
		})
	}
	return out
}

func (c *Core) dispatchEventV201(ev transaction.Event) {
	switch ev.Kind {
	case transaction.KindStarted, transaction.KindUpdated, transaction.KindEnded:
		c.enqueueTransactionEvent(ev)
	}
}

func (c *Core) enqueueTransactionEvent(ev transaction.Event) {
	rec, ok := c.TxStore.GetTransaction(ev.ConnectorID, ev.TxNr)
	if !ok {
		return
	}
	if rec.TransactionIDStr == "" {
		rec.TransactionIDStr = uuid.NewString()
		if err := c.TxStore.Commit(rec); err != nil {
			c.logger.Error("core: commit transaction id", "error", err)
		}
	}

	var eventType v201.TransactionEventType
	switch ev.Kind {
	case transaction.KindStarted:
		eventType = v201.TransactionEventStarted
	case transaction.KindUpdated:
		eventType = v201.TransactionEventUpdated
	case transaction.KindEnded:
		eventType = v201.TransactionEventEnded
	}

	txInfo := v201.Transaction{TransactionId: rec.TransactionIDStr}
	if ev.ChargingState != "" {
		cs := v201.ChargingStateType(ev.ChargingState)
		txInfo.ChargingState = &cs
	}
	if ev.Kind == transaction.KindEnded {
		reason := v201.ReasonType(ev.Reason)
		txInfo.StoppedReason = &reason
	}
	if ev.RemoteStartID != nil {
		txInfo.RemoteStartId = ev.RemoteStartID
	}

	req := v201.TransactionEventRequest{
		EventType:       eventType,
		Timestamp:       v201.DateTime{Time: ev.Timestamp},
		TriggerReason:   v201.TriggerReasonType(ev.Trigger),
		SeqNo:           ev.SeqNo,
		TransactionInfo: txInfo,
		MeterValue:      samplesToV201(ev.Samples),
	}
	if ev.Offline {
		offline := true
		req.Offline = &offline
	}
	if ev.ReservationID != nil {
		req.ReservationId = ev.ReservationID
	}
	if ev.IdTag != "" {
		req.IdToken = &v201.IdToken{IdToken: ev.IdTag, Type: v201.IdTokenTypeCentral}
	}

	c.Queue.Enqueue(&requestqueue.Operation{
		Action:    "TransactionEvent",
		Durable:   true,
		Kind:      string(eventType),
		Payload:   req,
		CreateReq: func() (interface{}, error) { return req, nil },
		OnConf: func(payload []byte) {
			switch ev.Kind {
			case transaction.KindStarted:
				rec.StartSync.Confirm()
			case transaction.KindEnded:
				rec.StopSync.Confirm()
			}
			if err := c.TxStore.Commit(rec); err != nil {
				c.logger.Error("core: commit confirmed transaction event", "error", err)
			}
		},
	})
}
