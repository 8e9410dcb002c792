// Package core wires components C1-C10 together into one cooperative,
// single-threaded driver: the Clock, Filesystem Adapter, Configuration
// Store, Authorization Store, Metering Engine, Smart-Charging Scheduler,
// Reservation Store, Transaction Store, Transaction State Machine and
// Request Queue each stay ignorant of one another; Core is the only package
// that imports all of them and converts between the transaction package's
// abstract Events and the concrete v1.6/v2.0.1 wire messages.
//
// Grounded on the teacher's cmd/server wiring style (construct every
// component up front, fail fast on any load error) generalized from a
// multi-station registry into the single embedded station this core
// targets.
package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/authorization"
	"github.com/ruslanhut/ocpp-core/internal/clock"
	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
	"github.com/ruslanhut/ocpp-core/internal/metering"
	"github.com/ruslanhut/ocpp-core/internal/requestqueue"
	"github.com/ruslanhut/ocpp-core/internal/reservation"
	"github.com/ruslanhut/ocpp-core/internal/smartcharging"
	"github.com/ruslanhut/ocpp-core/internal/transaction"
	"github.com/ruslanhut/ocpp-core/internal/variables"
)

// Version selects which OCPP wire protocol Core speaks.
type Version int

const (
	VersionV16 Version = iota
	VersionV201
)

// InputFunc is supplied by the embedding application: it reports the
// physical sensors (plug, EV-ready, EVSE-ready, authorization state) for one
// connector as of now. Core treats hardware sensing as entirely out of its
// own scope, per the abstract-boundary pattern already used between
// internal/transaction and internal/smartcharging.
type InputFunc func(connectorID int, now time.Time) transaction.Input

// Config bundles everything needed to construct a Core.
type Config struct {
	StationID    string
	Version      Version
	ConnectorIDs []int
	BootNr       uint16
	FS           fsadapter.Adapter
	Clock        clock.Clock
	Logger       *slog.Logger

	VariablesFilename     string
	AuthListFilename      string
	AuthCacheFilename     string
	AuthCacheCapacity     int
	TransactionRingSize   int
	ReservationSlots      int
	MeteringPeriodic      time.Duration
	MeteringClockAligned  time.Duration

	Measurands func(connectorID int) []metering.MeasurandConfig
	Input      InputFunc
}

// Core owns one instance of every component and drives them through Tick.
type Core struct {
	stationID    string
	version      Version
	connectorIDs []int
	logger       *slog.Logger
	clk          clock.Clock
	fs           fsadapter.Adapter
	input        InputFunc

	Vars    *variables.Store
	Auth    *authorization.Store
	Meter   *metering.Engine
	Smart   *smartcharging.Store
	Reserve *reservation.Store
	TxStore *transaction.Store
	TxMach  *transaction.Machine

	Transport requestqueue.Transport
	Queue     *requestqueue.Queue
	Durable   *requestqueue.DurableStore
	Registry  *requestqueue.Registry

	// pendingClock/pendingPeriodic buffer metering.Engine.Tick's output for
	// one cycle: spec.md §5 orders metering *after* the per-EVSE state
	// machine step, so samples produced this Tick are attached to Input on
	// the next one rather than the same one.
	pendingClock    map[int][]metering.Sample
	pendingPeriodic map[int][]metering.Sample
}

// New constructs every component, loads persisted state and registers the
// inbound operation handlers for cfg.Version. transport is supplied by the
// caller (production wires internal/transport's websocket client; tests
// wire a fake).
func New(cfg Config, transport requestqueue.Transport) (*Core, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Input == nil {
		cfg.Input = func(int, time.Time) transaction.Input { return transaction.Input{} }
	}

	c := &Core{
		stationID:    cfg.StationID,
		version:      cfg.Version,
		connectorIDs: cfg.ConnectorIDs,
		logger:       cfg.Logger,
		clk:          cfg.Clock,
		fs:           cfg.FS,
		input:        cfg.Input,
		Transport:    transport,

		pendingClock:    make(map[int][]metering.Sample),
		pendingPeriodic: make(map[int][]metering.Sample),
	}

	c.Vars = variables.New(cfg.FS, cfg.VariablesFilename)
	if err := c.Vars.Load(); err != nil {
		return nil, fmt.Errorf("core: load variables: %w", err)
	}

	c.Auth = authorization.New(cfg.FS, cfg.AuthListFilename, cfg.AuthCacheFilename, cfg.AuthCacheCapacity)
	if err := c.Auth.LoadLists(); err != nil {
		return nil, fmt.Errorf("core: load authorization lists: %w", err)
	}

	c.TxStore = transaction.New(cfg.FS, c.Vars, cfg.TransactionRingSize)
	if err := c.TxStore.Load(cfg.ConnectorIDs); err != nil {
		return nil, fmt.Errorf("core: load transaction store: %w", err)
	}

	protocol := transaction.ProtocolV16
	if cfg.Version == VersionV201 {
		protocol = transaction.ProtocolV201
	}
	c.TxMach = transaction.NewMachine(c.TxStore, c.Vars, cfg.Clock, protocol, cfg.BootNr)
	for _, cid := range cfg.ConnectorIDs {
		c.TxMach.Resume(cid)
	}

	c.Reserve = reservation.New(c.Vars, cfg.ReservationSlots)

	c.Smart = smartcharging.New(cfg.FS, func(connectorID int) (bool, int, time.Time) {
		rec, ok := c.TxMach.Active(connectorID)
		if !ok || !rec.IsRunning() {
			return false, 0, time.Time{}
		}
		return true, rec.TransactionID, rec.StartTimestamp
	})
	if err := c.Smart.Load(cfg.ConnectorIDs); err != nil {
		return nil, fmt.Errorf("core: load smart-charging profiles: %w", err)
	}

	c.Meter = metering.NewEngine(cfg.Clock, cfg.MeteringPeriodic, cfg.MeteringClockAligned)
	if cfg.Measurands != nil {
		for _, cid := range cfg.ConnectorIDs {
			c.Meter.Register(metering.NewConnectorSampler(cid, cfg.Measurands(cid)))
		}
	}

	c.Durable = requestqueue.NewDurableStore(cfg.FS)
	c.Queue = requestqueue.New(transport, c.Durable, cfg.Logger)
	if err := c.replayPending(); err != nil {
		return nil, fmt.Errorf("core: replay pending operations: %w", err)
	}

	c.Registry = requestqueue.NewRegistry(cfg.Logger)
	switch cfg.Version {
	case VersionV16:
		c.registerV16Handlers()
	case VersionV201:
		c.registerV201Handlers()
	}

	return c, nil
}

// replayPending re-admits durable operations left on disk by a crash or
// restart, in their original opNr order, per spec.md §4.6.
func (c *Core) replayPending() error {
	rows, err := c.Durable.LoadPending()
	if err != nil {
		return err
	}
	for _, row := range rows {
		row := row
		action := row.Kind
		if c.version == VersionV201 {
			// Only TransactionEvent is ever persisted durably in v2.0.1; Kind
			// distinguishes Started/Updated/Ended within that one action.
			action = "TransactionEvent"
		}
		c.Queue.EnqueueReplay(&requestqueue.Operation{
			Action:  action,
			OpNr:    row.OpNr,
			Durable: true,
			Kind:    row.Kind,
			CreateReq: func() (interface{}, error) {
				return json.RawMessage(row.Payload), nil
			},
		})
	}
	return nil
}
