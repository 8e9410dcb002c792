package core

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/metering"
	"github.com/ruslanhut/ocpp-core/internal/ocpp/v16"
	"github.com/ruslanhut/ocpp-core/internal/requestqueue"
	"github.com/ruslanhut/ocpp-core/internal/transaction"
)

// dispatchEvent converts one abstract transaction.Event into a concrete
// wire request and hands it to the request queue, durable where spec.md §6
// requires it (StartTransaction/StopTransaction and every TransactionEvent,
// Updated included, survive a restart; v1.6 MeterValues does not).
func (c *Core) dispatchEvent(ev transaction.Event) {
	if c.version == VersionV201 {
		c.dispatchEventV201(ev)
		return
	}
	c.dispatchEventV16(ev)
}

func samplesToV16(samples []metering.Sample) []v16.MeterValue {
	if len(samples) == 0 {
		return nil
	}
	byTime := make(map[time.Time][]v16.SampledValue)
	var order []time.Time
	for _, s := range samples {
		if _, seen := byTime[s.Timestamp]; !seen {
			order = append(order, s.Timestamp)
		}
		byTime[s.Timestamp] = append(byTime[s.Timestamp], v16.SampledValue{
			Value:     formatFloat(s.Value),
			Measurand: v16.Measurand(s.Measurand),
			Unit:      v16.UnitOfMeasure(s.Unit),
			Context:   v16.ReadingContext(s.Context),
			Location:  v16.Location(s.Location),
			Phase:     s.Phase,
		})
	}
	out := make([]v16.MeterValue, 0, len(order))
	for _, t := range order {
		out = append(out, v16.MeterValue{Timestamp: v16.DateTime{Time: t}, SampledValue: byTime[t]})
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Core) dispatchEventV16(ev transaction.Event) {
	switch ev.Kind {
	case transaction.KindStartTransaction:
		c.enqueueStartTransactionV16(ev)
	case transaction.KindStopTransaction:
		c.enqueueStopTransactionV16(ev)
	case transaction.KindMeterValues:
		c.enqueueMeterValuesV16(ev)
	}
}

func (c *Core) enqueueStartTransactionV16(ev transaction.Event) {
	rec, ok := c.TxMach.Active(ev.ConnectorID)
	if !ok {
		rec, ok = c.TxStore.GetTransaction(ev.ConnectorID, ev.TxNr)
		if !ok {
			return
		}
	}
	c.Queue.Enqueue(&requestqueue.Operation{
		Action:  "StartTransaction",
		Durable: true,
		Kind:    "StartTransaction",
		Payload: v16.StartTransactionRequest{
			ConnectorId: ev.ConnectorID,
			IdTag:       ev.IdTag,
			MeterStart:  int(ev.MeterStart),
			Timestamp:   v16.DateTime{Time: ev.Timestamp},
		},
		CreateReq: func() (interface{}, error) {
			return v16.StartTransactionRequest{
				ConnectorId: ev.ConnectorID,
				IdTag:       ev.IdTag,
				MeterStart:  int(ev.MeterStart),
				Timestamp:   v16.DateTime{Time: ev.Timestamp},
			}, nil
		},
		OnConf: func(payload []byte) {
			var resp v16.StartTransactionResponse
			if err := json.Unmarshal(payload, &resp); err != nil {
				c.logger.Error("core: decode StartTransaction response", "error", err)
				return
			}
			rec.TransactionID = resp.TransactionId
			rec.StartSync.Confirm()
			if err := c.TxStore.Commit(rec); err != nil {
				c.logger.Error("core: commit confirmed start", "error", err)
			}
		},
	})
}

func (c *Core) enqueueStopTransactionV16(ev transaction.Event) {
	rec, ok := c.TxStore.GetTransaction(ev.ConnectorID, ev.TxNr)
	if !ok {
		return
	}
	req := v16.StopTransactionRequest{
		TransactionId: rec.TransactionID,
		IdTag:         ev.StopIdTag,
		MeterStop:     int(ev.MeterStop),
		Timestamp:     v16.DateTime{Time: ev.Timestamp},
		Reason:        v16.Reason(ev.Reason),
		TransactionData: samplesToV16(ev.TransactionData),
	}
	c.Queue.Enqueue(&requestqueue.Operation{
		Action:    "StopTransaction",
		Durable:   true,
		Kind:      "StopTransaction",
		Payload:   req,
		CreateReq: func() (interface{}, error) { return req, nil },
		OnConf: func([]byte) {
			rec.StopSync.Confirm()
			if err := c.TxStore.Commit(rec); err != nil {
				c.logger.Error("core: commit confirmed stop", "error", err)
			}
		},
	})
}

func (c *Core) enqueueMeterValuesV16(ev transaction.Event) {
	rec, ok := c.TxStore.GetTransaction(ev.ConnectorID, ev.TxNr)
	txID := 0
	if ok {
		txID = rec.TransactionID
	}
	req := v16.MeterValuesRequest{
		ConnectorId:   ev.ConnectorID,
		TransactionId: &txID,
		MeterValue:    samplesToV16(ev.Samples),
	}
	c.Queue.Enqueue(&requestqueue.Operation{
		Action:    "MeterValues",
		CreateReq: func() (interface{}, error) { return req, nil },
	})
}
