package core

import (
	"github.com/ruslanhut/ocpp-core/internal/ocpp"
	"github.com/ruslanhut/ocpp-core/internal/smartcharging"
)

// Tick advances every component exactly once, in the fixed order spec.md §5
// prescribes: clock → transport → request queue → per-EVSE state machine →
// reservation expiry → metering → smart-charging → variable save. No step blocks; a step that is
// not ready to act returns immediately, and its effect (if any) is picked up
// by the next Tick, matching the teacher's non-blocking cmd/server main
// loop generalized into one cooperative driver per spec.md §5's "outer
// driver calls them in a fixed order each tick" rule.
func (c *Core) Tick() {
	now := c.clk.Now()

	c.pollTransport()
	c.Queue.Tick(now)

	for _, cid := range c.connectorIDs {
		in := c.input(cid, now)
		in.ClockSamples = append(in.ClockSamples, c.pendingClock[cid]...)
		in.PeriodicSamples = append(in.PeriodicSamples, c.pendingPeriodic[cid]...)
		delete(c.pendingClock, cid)
		delete(c.pendingPeriodic, cid)

		events, err := c.TxMach.Evaluate(cid, in, now)
		if err != nil {
			c.logger.Error("core: transaction evaluate failed", "connector", cid, "error", err)
			continue
		}
		for _, ev := range events {
			c.dispatchEvent(ev)
		}
	}

	if n, err := c.Reserve.ExpireStale(now); err != nil {
		c.logger.Error("core: expire reservations failed", "error", err)
	} else if n > 0 {
		c.logger.Info("core: expired reservations", "count", n)
	}

	result, err := c.Meter.Tick()
	if err != nil {
		c.logger.Error("core: metering tick failed", "error", err)
	} else {
		for cid, samples := range result.Clock {
			c.pendingClock[cid] = append(c.pendingClock[cid], samples...)
		}
		for cid, samples := range result.Periodic {
			c.pendingPeriodic[cid] = append(c.pendingPeriodic[cid], samples...)
		}
	}

	unit := smartcharging.RateUnitWatt
	for _, cid := range c.connectorIDs {
		c.Smart.Tick(cid, now, unit)
	}

	if c.Vars.Dirty() {
		if err := c.Vars.Save(); err != nil {
			c.logger.Error("core: save variables failed", "error", err)
		}
	}
}

// pollTransport drains every inbound frame buffered by the transport this
// tick, routing Call frames to the inbound registry and CallResult/
// CallError frames to the outbound queue's in-flight resolver. Draining the
// whole backlog (rather than one frame per Tick) keeps inbound dispatch
// from lagging an otherwise idle driver, while each individual handler
// invocation still never blocks.
func (c *Core) pollTransport() {
	for {
		frame, ok := c.Transport.Poll()
		if !ok {
			return
		}
		msg, err := ocpp.ParseMessage(frame)
		if err != nil {
			c.logger.Warn("core: discarding malformed frame", "error", err)
			continue
		}
		switch m := msg.(type) {
		case *ocpp.Call:
			resp, err := c.Registry.Dispatch(m)
			if err != nil {
				c.logger.Error("core: dispatch inbound call failed", "action", m.Action, "error", err)
				continue
			}
			c.Transport.Send(resp)
		case *ocpp.CallResult:
			c.Queue.Resolve(m.UniqueID, false, m.Payload)
		case *ocpp.CallError:
			c.Queue.Resolve(m.UniqueID, true, nil)
		}
	}
}
