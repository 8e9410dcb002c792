// Package metering implements the Metering Engine (component C5): periodic
// and clock-aligned meter sampling per connector, buffered for the
// transaction state machine to attach to Updated/Ended events, with
// optional rolling aggregation across a sampling window.
//
// Grounded on the teacher's internal/ocpp/v16/types.go SampledValue/
// MeterValue shapes and internal/station/session.go's per-connector meter
// simulation loop, enriched with github.com/montanaflynn/stats for the
// averaged-measurand case the teacher's analytics handler exercises.
package metering

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/ruslanhut/ocpp-core/internal/clock"
)

// Context mirrors OCPP's ReadingContext enum.
type Context string

const (
	ContextInterruptionBegin Context = "Interruption.Begin"
	ContextInterruptionEnd   Context = "Interruption.End"
	ContextOther             Context = "Other"
	ContextSampleClock       Context = "Sample.Clock"
	ContextSamplePeriodic    Context = "Sample.Periodic"
	ContextTransactionBegin  Context = "Transaction.Begin"
	ContextTransactionEnd    Context = "Transaction.End"
	ContextTrigger           Context = "Trigger"
)

// Sample is a single reading, matching OCPP's SampledValue.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Measurand string    `json:"measurand"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Context   Context   `json:"context"`
	Location  string    `json:"location,omitempty"`
	Phase     string    `json:"phase,omitempty"`
}

// Reader samples the current value of one measurand.
type Reader func() (float64, error)

// MeasurandConfig describes how one measurand should be sampled for a
// connector.
type MeasurandConfig struct {
	Measurand string
	Unit      string
	Location  string
	Read      Reader
	// Aggregate, if true, reports the mean of all raw readings taken since
	// the last sample instead of the latest instantaneous reading.
	Aggregate bool
}

// ConnectorSampler owns the set of measurands sampled for one connector and
// the raw-reading window used for aggregation.
type ConnectorSampler struct {
	ConnectorID int
	measurands  []MeasurandConfig
	window      map[string][]float64
}

// NewConnectorSampler returns a sampler for connectorID with the given
// measurand configuration.
func NewConnectorSampler(connectorID int, measurands []MeasurandConfig) *ConnectorSampler {
	return &ConnectorSampler{
		ConnectorID: connectorID,
		measurands:  measurands,
		window:      make(map[string][]float64),
	}
}

// RecordRawReadings polls every reader once and appends to this
// connector's aggregation window, without producing a Sample yet. Call
// this far more often than Sample() to build a meaningful average.
func (c *ConnectorSampler) RecordRawReadings() error {
	for _, m := range c.measurands {
		if m.Read == nil {
			continue
		}
		v, err := m.Read()
		if err != nil {
			return fmt.Errorf("metering: read %s on connector %d: %w", m.Measurand, c.ConnectorID, err)
		}
		c.window[m.Measurand] = append(c.window[m.Measurand], v)
	}
	return nil
}

// Sample produces one Sample per configured measurand at the given context
// and timestamp, draining the aggregation window for any Aggregate
// measurand.
func (c *ConnectorSampler) Sample(now time.Time, ctx Context) ([]Sample, error) {
	samples := make([]Sample, 0, len(c.measurands))
	for _, m := range c.measurands {
		var value float64
		if m.Aggregate {
			readings := c.window[m.Measurand]
			if len(readings) == 0 {
				continue
			}
			mean, err := stats.Mean(readings)
			if err != nil {
				return nil, fmt.Errorf("metering: aggregate %s: %w", m.Measurand, err)
			}
			value = mean
			c.window[m.Measurand] = nil
		} else if m.Read != nil {
			v, err := m.Read()
			if err != nil {
				return nil, fmt.Errorf("metering: read %s on connector %d: %w", m.Measurand, c.ConnectorID, err)
			}
			value = v
		} else {
			continue
		}
		samples = append(samples, Sample{
			Timestamp: now,
			Measurand: m.Measurand,
			Value:     value,
			Unit:      m.Unit,
			Context:   ctx,
			Location:  m.Location,
		})
	}
	return samples, nil
}

// Engine drives periodic and clock-aligned sampling across every connector
// registered with it.
type Engine struct {
	clk               clock.Clock
	samplers          map[int]*ConnectorSampler
	periodicInterval  time.Duration
	clockInterval     time.Duration
	lastPeriodic      time.Time
	lastClockBoundary time.Time
}

// NewEngine returns an Engine with the given periodic and clock-aligned
// sampling intervals.
func NewEngine(clk clock.Clock, periodicInterval, clockInterval time.Duration) *Engine {
	now := clk.Now()
	return &Engine{
		clk:               clk,
		samplers:          make(map[int]*ConnectorSampler),
		periodicInterval:  periodicInterval,
		clockInterval:     clockInterval,
		lastPeriodic:      now,
		lastClockBoundary: now,
	}
}

// Register attaches a connector's sampler to the engine.
func (e *Engine) Register(s *ConnectorSampler) {
	e.samplers[s.ConnectorID] = s
}

// TickResult carries the samples produced by one engine Tick, keyed by
// connector ID and reading context.
type TickResult struct {
	Periodic map[int][]Sample
	Clock    map[int][]Sample
}

// Tick polls raw readings for every connector (bounded fan-out via
// errgroup, matching the teacher's concurrent analytics batch pattern) and,
// if a periodic or clock-aligned boundary has been crossed, produces
// Samples for that boundary.
func (e *Engine) Tick() (TickResult, error) {
	now := e.clk.Now()
	result := TickResult{Periodic: make(map[int][]Sample), Clock: make(map[int][]Sample)}

	var g errgroup.Group
	g.SetLimit(4)
	for _, s := range e.samplers {
		s := s
		g.Go(func() error {
			return s.RecordRawReadings()
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	if now.Sub(e.lastPeriodic) >= e.periodicInterval && e.periodicInterval > 0 {
		for id, s := range e.samplers {
			samples, err := s.Sample(now, ContextSamplePeriodic)
			if err != nil {
				return result, err
			}
			if len(samples) > 0 {
				result.Periodic[id] = samples
			}
		}
		e.lastPeriodic = now
	}

	if e.clockInterval > 0 && clock.CrossedBoundary(e.lastClockBoundary, now, e.clockInterval) {
		for id, s := range e.samplers {
			samples, err := s.Sample(now, ContextSampleClock)
			if err != nil {
				return result, err
			}
			if len(samples) > 0 {
				result.Clock[id] = samples
			}
		}
		e.lastClockBoundary = now
	}

	return result, nil
}
