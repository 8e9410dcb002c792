package metering

import (
	"testing"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/clock"
)

func TestConnectorSamplerInstantaneous(t *testing.T) {
	reads := 0
	sampler := NewConnectorSampler(1, []MeasurandConfig{
		{
			Measurand: "Energy.Active.Import.Register",
			Unit:      "Wh",
			Read: func() (float64, error) {
				reads++
				return 1000 * float64(reads), nil
			},
		},
	})

	samples, err := sampler.Sample(time.Now(), ContextSamplePeriodic)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(samples) != 1 || samples[0].Value != 1000 {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestConnectorSamplerAggregate(t *testing.T) {
	vals := []float64{10, 20, 30}
	i := 0
	sampler := NewConnectorSampler(1, []MeasurandConfig{
		{
			Measurand: "Power.Active.Import",
			Unit:      "W",
			Aggregate: true,
			Read: func() (float64, error) {
				v := vals[i%len(vals)]
				i++
				return v, nil
			},
		},
	})

	for j := 0; j < 3; j++ {
		if err := sampler.RecordRawReadings(); err != nil {
			t.Fatalf("RecordRawReadings: %v", err)
		}
	}

	samples, err := sampler.Sample(time.Now(), ContextSamplePeriodic)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].Value != 20 {
		t.Errorf("expected mean 20, got %v", samples[0].Value)
	}
}

func TestEngineTickFiresOnPeriodicInterval(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.NewFixed(base)
	e := NewEngine(c, 10*time.Second, 0)
	e.Register(NewConnectorSampler(1, []MeasurandConfig{
		{Measurand: "Energy.Active.Import.Register", Unit: "Wh", Read: func() (float64, error) { return 42, nil }},
	}))

	res, err := e.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(res.Periodic) != 0 {
		t.Fatalf("expected no periodic sample before the interval elapses, got %v", res.Periodic)
	}

	c.Advance(11 * time.Second)
	res, err = e.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(res.Periodic[1]) != 1 {
		t.Fatalf("expected one periodic sample for connector 1, got %v", res.Periodic)
	}
}
