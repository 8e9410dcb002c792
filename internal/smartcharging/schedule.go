package smartcharging

import (
	"sort"
	"time"
)

// CompositeSchedule is the result of merging every profile applicable to a
// connector into a single non-overlapping list of periods, grounded on
// SmartChargingConnector::calculateLimit: at each instant, pick the
// highest-stackLevel profile from the operational stack (TxProfile if one is
// installed, else the effective TxDefaultProfile), clip it to
// ChargePointMaxProfile, and cut a new period whenever either input changes.
type CompositeSchedule struct {
	ConnectorID     int
	ScheduleStart   time.Time
	Duration        int // seconds
	ChargingRateUnit RateUnit
	Periods         []SchedulePeriod
}

// scheduleOffset resolves p's elapsed-seconds-since-start at t, and whether p
// is in effect at all at t (duration/validity exhausted otherwise).
func scheduleOffset(p *Profile, t time.Time) (int, bool) {
	if !validAt(p, t) {
		return 0, false
	}
	switch p.Kind {
	case KindRecurring:
		start := t
		if p.Schedule.StartSchedule != nil {
			start = *p.Schedule.StartSchedule
		}
		period := 24 * time.Hour
		if p.RecurrencyKind == RecurrencyWeekly {
			period = 7 * 24 * time.Hour
		}
		if t.Before(start) {
			return 0, false
		}
		elapsed := t.Sub(start) % period
		offset := int(elapsed.Seconds())
		if p.Schedule.Duration != nil && offset >= *p.Schedule.Duration {
			return 0, false
		}
		return offset, true
	case KindRelative:
		start := t
		if p.RelativeAnchor != nil {
			start = *p.RelativeAnchor
		} else if p.Schedule.StartSchedule != nil {
			start = *p.Schedule.StartSchedule
		}
		if t.Before(start) {
			return 0, false
		}
		offset := int(t.Sub(start).Seconds())
		if p.Schedule.Duration != nil && offset >= *p.Schedule.Duration {
			return 0, false
		}
		return offset, true
	default: // Absolute
		start := t
		if p.Schedule.StartSchedule != nil {
			start = *p.Schedule.StartSchedule
		}
		if t.Before(start) {
			return 0, false
		}
		offset := int(t.Sub(start).Seconds())
		if p.Schedule.Duration != nil && offset >= *p.Schedule.Duration {
			return 0, false
		}
		return offset, true
	}
}

// limitAt returns p's limit and numberPhases at t, and whether p is active.
func limitAt(p *Profile, t time.Time) (float64, *int, bool) {
	offset, ok := scheduleOffset(p, t)
	if !ok || len(p.Schedule.ChargingSchedulePeriod) == 0 {
		return 0, nil, false
	}
	periods := p.Schedule.ChargingSchedulePeriod
	best := periods[0]
	for _, period := range periods {
		if period.StartPeriod <= offset && period.StartPeriod >= best.StartPeriod {
			best = period
		}
	}
	if best.StartPeriod > offset {
		return 0, nil, false
	}
	return best.Limit, best.NumberPhases, true
}

// operationalStack returns the stack this connector's energy delivery is
// currently governed by: its own TxProfile stack if non-empty, else its
// effective TxDefaultProfile stack.
func (s *Store) operationalStack(connectorID int) map[int]*Profile {
	c := s.connectors[connectorID]
	if c != nil && len(c.tx) > 0 {
		return c.tx
	}
	return s.effectiveDefaultStack(connectorID)
}

// boundaries collects every period-start instant any profile in stacks
// contributes within [from, from+duration), plus from itself.
func boundaries(stacks []map[int]*Profile, from time.Time, duration time.Duration) []time.Time {
	set := map[int64]time.Time{from.Unix(): from}
	until := from.Add(duration)
	for _, stack := range stacks {
		for _, p := range stack {
			offset0, ok := scheduleOffset(p, from)
			if !ok {
				continue
			}
			for _, period := range p.Schedule.ChargingSchedulePeriod {
				delta := period.StartPeriod - offset0
				t := from.Add(time.Duration(delta) * time.Second)
				if t.After(from) && t.Before(until) {
					set[t.Unix()] = t
				}
			}
		}
	}
	out := make([]time.Time, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// GetCompositeSchedule evaluates connectorID's effective charging limit over
// [now, now+duration), merging ChargePointMaxProfile with the operational
// stack, per SmartChargingConnector::calculateLimit.
func (s *Store) GetCompositeSchedule(connectorID int, now time.Time, duration time.Duration, unit RateUnit) CompositeSchedule {
	opStack := s.operationalStack(connectorID)
	bounds := boundaries([]map[int]*Profile{s.chargePointMax, opStack}, now, duration)

	out := CompositeSchedule{
		ConnectorID:      connectorID,
		ScheduleStart:    now,
		Duration:         int(duration.Seconds()),
		ChargingRateUnit: unit,
	}

	for _, t := range bounds {
		opLimit, opPhases, opOK := limitFromHighest(opStack, t)
		maxLimit, maxPhases, maxOK := limitFromHighest(s.chargePointMax, t)

		var limit float64
		var phases *int
		defined := false
		switch {
		case opOK && maxOK:
			if opLimit < maxLimit {
				limit, phases = opLimit, opPhases
			} else {
				limit, phases = maxLimit, maxPhases
			}
			defined = true
		case opOK:
			limit, phases = opLimit, opPhases
			defined = true
		case maxOK:
			limit, phases = maxLimit, maxPhases
			defined = true
		}
		if !defined {
			continue
		}
		startPeriod := int(t.Sub(now).Seconds())
		if len(out.Periods) > 0 && out.Periods[len(out.Periods)-1].Limit == limit {
			continue
		}
		out.Periods = append(out.Periods, SchedulePeriod{StartPeriod: startPeriod, Limit: limit, NumberPhases: phases})
	}

	return out
}

func limitFromHighest(stack map[int]*Profile, t time.Time) (float64, *int, bool) {
	p := highestActive(stack, t)
	if p == nil {
		return 0, nil, false
	}
	return limitAt(p, t)
}

// SetOutput registers the callback through which connectorID learns the
// currently-effective charging limit, mirroring
// SmartChargingConnector::setSmartChargingOutput.
func (s *Store) SetOutput(connectorID int, fn func(limit float64, unit RateUnit, numberPhases int)) {
	s.outputs[connectorID] = fn
}

// Tick recomputes connectorID's instantaneous limit (the first composite
// period covering now) and invokes its registered output callback if the
// value changed since the last Tick, mirroring
// SmartChargingConnector::loop()'s per-cycle limit recalculation.
func (s *Store) Tick(connectorID int, now time.Time, unit RateUnit) {
	fn := s.outputs[connectorID]
	if fn == nil {
		return
	}
	cs := s.GetCompositeSchedule(connectorID, now, time.Second, unit)
	if len(cs.Periods) == 0 {
		return
	}
	limit := cs.Periods[0].Limit
	if prev, ok := s.lastOutput[connectorID]; ok && prev == limit {
		return
	}
	s.lastOutput[connectorID] = limit
	numberPhases := 3
	if p := cs.Periods[0].NumberPhases; p != nil {
		numberPhases = *p
	}
	fn(limit, unit, numberPhases)
}
