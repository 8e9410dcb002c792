// Package transaction's machine.go implements the Transaction State
// Machine (component C9) -- the hardest part of this core, per spec.md §4.5.
//
// Grounded directly on matth-x/MicroOcpp's TransactionService.cpp: the
// start/stop condition evaluation order, the Preparing/Running/Stopping/
// Completed/Aborted lifecycle derived from sync flags rather than stored
// explicitly, the EV-connect timeout, and the v2.0.1 seqNo/Updated-event
// edge detection.
package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/clock"
	"github.com/ruslanhut/ocpp-core/internal/metering"
	"github.com/ruslanhut/ocpp-core/internal/variables"
)

var (
	keyTxStartPoint              = variables.Key{Name: "TxStartPoint"}
	keyTxStopPoint                = variables.Key{Name: "TxStopPoint"}
	keyEVConnectionTimeOut        = variables.Key{Name: "EVConnectionTimeOut"}
	keyStopTxOnEVSideDisconnect   = variables.Key{Name: "StopTxOnEVSideDisconnect"}
	keyStopTxOnInvalidId          = variables.Key{Name: "StopTxOnInvalidId"}
	keySilentOfflineTransactions  = variables.Key{Name: "SilentOfflineTransactions"}
)

func pointsValidator(raw string) error {
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		known := false
		for _, p := range allPoints {
			if Point(tok) == p {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown TxStartPoint/TxStopPoint member %q", tok)
		}
	}
	return nil
}

// Input bundles one connector's inputs for a single Evaluate call: the
// three optional boolean sensors, the two gating predicates, and the
// already-resolved authorization state (spec.md §4.5 deliberately treats
// authorization as an input to this machine, not something it computes --
// that is the Authorization Store's job, component C4).
type Input struct {
	Plugged   *bool
	EVReady   *bool
	EVSEReady *bool

	StartTxReady bool
	StopTxReady  bool

	Authorized   bool
	Deauthorized bool

	// IdTag/ParentIdTag are only consulted when a new transaction is being
	// created (Authorized transitions true with no active record).
	IdTag       string
	ParentIdTag string

	// RemoteStartID >= 0 marks this start as server-initiated.
	RemoteStartID int
	ReservationID int

	ClockSamples    []metering.Sample
	PeriodicSamples []metering.Sample
	TriggerSamples  []metering.Sample
}

// PendingRemoteStart records a RequestStartTransaction/RemoteStartTransaction
// accepted by the core but not yet reflected in a Running transaction,
// consumed by the driver the next time it builds this connector's Input.
type PendingRemoteStart struct {
	RemoteStartID     int
	IdTag             string
	ChargingProfileID int
}

// Machine owns, per connector, at most one active transaction reference and
// evaluates the start/stop/update logic of spec.md §4.5 once per driver
// tick. The cooperative single-threaded driver model (spec.md §5) means no
// internal locking is needed.
type Machine struct {
	store    *Store
	vars     *variables.Store
	clk      clock.Clock
	protocol Protocol
	bootNr   uint16

	active map[int]*Record

	lastPlugged    map[int]*bool
	lastAuthorized map[int]bool
	deauthNotified map[int]bool

	pendingRemoteStart map[int]PendingRemoteStart
}

// NewMachine declares the TxStartPoint/TxStopPoint/EVConnectionTimeOut/etc.
// configuration variables against vars and returns a ready Machine.
func NewMachine(store *Store, vars *variables.Store, clk clock.Clock, protocol Protocol, bootNr uint16) *Machine {
	vars.Declare(keyTxStartPoint, variables.TypeString, "PowerPathClosed", true, true, pointsValidator)
	vars.Declare(keyTxStopPoint, variables.TypeString, "PowerPathClosed", true, true, pointsValidator)
	vars.Declare(keyEVConnectionTimeOut, variables.TypeInt, "30", true, true, nil)
	vars.Declare(keyStopTxOnEVSideDisconnect, variables.TypeBool, "true", true, true, nil)
	vars.Declare(keyStopTxOnInvalidId, variables.TypeBool, "true", true, true, nil)
	vars.Declare(keySilentOfflineTransactions, variables.TypeBool, "false", true, true, nil)

	return &Machine{
		store:              store,
		vars:               vars,
		clk:                clk,
		protocol:           protocol,
		bootNr:             bootNr,
		active:             make(map[int]*Record),
		lastPlugged:        make(map[int]*bool),
		lastAuthorized:     make(map[int]bool),
		deauthNotified:     make(map[int]bool),
		pendingRemoteStart: make(map[int]PendingRemoteStart),
	}
}

// Resume repopulates the active map from records the Store already loaded
// from disk whose sync flags show them still open (Preparing, Running or
// Stopping). Called once at startup, after Store.Load.
func (m *Machine) Resume(connectorID int) {
	for _, rec := range m.store.Active(connectorID) {
		if rec.IsCompleted() || rec.IsAborted() {
			continue
		}
		m.active[connectorID] = rec
		return
	}
}

type txConfig struct {
	startPoints              PointSet
	stopPoints               PointSet
	evConnectionTimeout      time.Duration
	stopTxOnEVSideDisconnect bool
	stopTxOnInvalidId        bool
	silentOffline            bool
}

func (m *Machine) readConfig() txConfig {
	startRaw, _ := m.vars.Get(keyTxStartPoint)
	stopRaw, _ := m.vars.Get(keyTxStopPoint)
	evTimeout, _ := m.vars.GetInt(keyEVConnectionTimeOut)
	stopEVSide, _ := m.vars.GetBool(keyStopTxOnEVSideDisconnect)
	stopInvalid, _ := m.vars.GetBool(keyStopTxOnInvalidId)
	silent, _ := m.vars.GetBool(keySilentOfflineTransactions)
	return txConfig{
		startPoints:              ParsePoints(startRaw),
		stopPoints:               ParsePoints(stopRaw),
		evConnectionTimeout:      time.Duration(evTimeout) * time.Second,
		stopTxOnEVSideDisconnect: stopEVSide,
		stopTxOnInvalidId:        stopInvalid,
		silentOffline:            silent,
	}
}

func boolVal(b *bool) bool { return b != nil && *b }

func definedReady(b *bool) bool { return b != nil && *b }

// energyTransferActive implements "(evReady ∨ evseReady defined) ∧ both
// ready when defined" from spec.md §4.5 condition 4.
func energyTransferActive(in Input) bool {
	if in.EVReady == nil && in.EVSEReady == nil {
		return false
	}
	if in.EVReady != nil && !*in.EVReady {
		return false
	}
	if in.EVSEReady != nil && !*in.EVSEReady {
		return false
	}
	return true
}

// computeChargingState implements spec.md §4.5's per-loop charging-state
// computation, first-match order.
func computeChargingState(in Input) ChargingState {
	if !boolVal(in.Plugged) {
		return ChargingStateIdle
	}
	if !in.Authorized {
		return ChargingStateEVConnected
	}
	if in.EVSEReady != nil && !*in.EVSEReady {
		return ChargingStateSuspendedEVSE
	}
	if in.EVReady != nil && !*in.EVReady {
		return ChargingStateSuspendedEV
	}
	return ChargingStateCharging
}

// shouldStart implements spec.md §4.5's start-condition evaluation,
// first-match-wins, returning which Point matched (for trigger-reason
// derivation).
func shouldStart(set PointSet, in Input) (bool, Point) {
	plugged := boolVal(in.Plugged)
	if set.has(PointPowerPathClosed) && plugged && in.Authorized {
		return true, PointPowerPathClosed
	}
	if set.has(PointAuthorized) && in.Authorized {
		return true, PointAuthorized
	}
	if set.has(PointEVConnected) && plugged {
		return true, PointEVConnected
	}
	if set.has(PointEnergyTransfer) && energyTransferActive(in) {
		return true, PointEnergyTransfer
	}
	return false, ""
}

func deriveStartTrigger(in Input, matched Point) TriggerReason {
	if in.RemoteStartID >= 0 {
		return TriggerRemoteStart
	}
	switch matched {
	case PointAuthorized, PointPowerPathClosed:
		return TriggerAuthorized
	case PointEVConnected:
		return TriggerCablePluggedIn
	case PointEnergyTransfer:
		return TriggerChargingStateChanged
	}
	return TriggerTrigger
}

// shouldStop implements spec.md §4.5's stop-condition evaluation,
// first-match-wins.
func (m *Machine) shouldStop(set PointSet, cfg txConfig, rec *Record, in Input) (bool, StopReason, TriggerReason) {
	if !rec.Active {
		reason := rec.StopReasonV201
		if reason == "" {
			reason = StopReasonOther
		}
		trig := rec.StopTrigger
		if trig == "" {
			trig = TriggerTrigger
		}
		return true, reason, trig
	}

	plugged := boolVal(in.Plugged)
	if (set.has(PointEVConnected) || set.has(PointPowerPathClosed)) && !plugged &&
		(cfg.stopTxOnEVSideDisconnect || !rec.StartSync.Requested) {
		return true, StopReasonEVDisconnected, TriggerEVDeparted
	}
	if (set.has(PointAuthorized) || set.has(PointPowerPathClosed)) && !in.Authorized {
		return true, StopReasonLocal, TriggerStopAuthorized
	}
	if set.has(PointEnergyTransfer) && in.EVReady != nil && !*in.EVReady {
		return true, StopReasonStoppedByEV, TriggerEVCommunicationLost
	}
	if set.has(PointEnergyTransfer) && !definedReady(in.EVReady) && !definedReady(in.EVSEReady) {
		return true, StopReasonOther, TriggerTrigger
	}
	if set.has(PointAuthorized) && in.Deauthorized && cfg.stopTxOnInvalidId {
		return true, StopReasonDeAuthorized, TriggerDeauthorized
	}
	return false, "", ""
}

// Evaluate runs one driver tick's worth of Transaction State Machine logic
// for connectorID and returns the outbound Events it decided to emit, in
// order.
func (m *Machine) Evaluate(connectorID int, in Input, now time.Time) ([]Event, error) {
	cfg := m.readConfig()
	var events []Event

	rec := m.active[connectorID]
	if rec == nil {
		matched, point := shouldStart(cfg.startPoints, in)
		if !matched {
			return events, nil
		}
		newRec, err := m.store.CreateTransaction(connectorID, cfg.silentOffline)
		if err != nil {
			return events, err
		}
		m.initRecord(newRec, in, now, point)
		m.active[connectorID] = newRec
		rec = newRec
	}

	chargingState := computeChargingState(in)
	m.attachSamples(rec, in)
	events = append(events, m.sampleEvents(rec, in, now)...)

	if rec.IsPreparing() {
		if in.StartTxReady {
			if err := m.commitStart(rec, now); err != nil {
				return events, err
			}
			events = append(events, buildStartEvent(m.protocol, rec, now, false))
		} else if !boolVal(in.Plugged) && now.Sub(rec.BeginTimestamp) >= cfg.evConnectionTimeout {
			// EV-connect timeout: unconditional forced abort, not gated by
			// stopTxReady().
			rec.Active = false
			rec.StopReasonV16 = StopReasonTimeout
			rec.StopReasonV201 = StopReasonTimeout
			rec.StopTrigger = TriggerEVConnectTimeout
			if err := m.store.Commit(rec); err != nil {
				return events, err
			}
			delete(m.active, connectorID)
			return events, nil
		}
	} else if m.protocol == ProtocolV201 && rec.IsRunning() {
		if ev, ok := m.detectUpdate(rec, in, chargingState); ok {
			events = append(events, ev)
		}
	}
	rec.ChargingState = chargingState

	if !rec.StopSync.Requested && rec.PendingStopReason == "" {
		if stop, reason, trig := m.shouldStop(cfg.stopPoints, cfg, rec, in); stop {
			rec.PendingStopReason = reason
			rec.PendingStopTrigger = trig
		}
	}

	if rec.PendingStopReason != "" && !rec.StopSync.Requested && in.StopTxReady {
		if !rec.StartSync.Requested {
			// Never started: this is an Aborted transaction, never reported.
			rec.Active = false
			rec.StopReasonV16 = rec.PendingStopReason
			rec.StopReasonV201 = rec.PendingStopReason
			rec.StopTrigger = rec.PendingStopTrigger
			if err := m.store.Commit(rec); err != nil {
				return events, err
			}
		} else {
			if err := m.commitStop(rec, now); err != nil {
				return events, err
			}
			events = append(events, buildEndEvent(m.protocol, rec, now, false))
		}
		delete(m.active, connectorID)
	}

	return events, nil
}

func (m *Machine) initRecord(rec *Record, in Input, now time.Time, matchedPoint Point) {
	rec.BeginTimestamp = now
	rec.IdTag = in.IdTag
	rec.ParentIdTag = in.ParentIdTag
	rec.Authorized = in.Authorized
	rec.Deauthorized = in.Deauthorized
	rec.ReservationID = in.ReservationID
	rec.RemoteStartID = in.RemoteStartID
	rec.StartTriggerReason = deriveStartTrigger(in, matchedPoint)
	rec.TrackEVConnected = boolVal(in.Plugged)
	rec.TrackAuthorized = in.Authorized
	rec.TrackPowerPathClosed = boolVal(in.Plugged) && in.Authorized
	rec.TrackEnergyTransfer = energyTransferActive(in)
	rec.NotifyIdToken = true
	rec.NotifyChargingState = true
	if in.RemoteStartID >= 0 {
		rec.NotifyRemoteStartID = true
	}
	if in.ReservationID > 0 {
		rec.NotifyReservationID = true
	}
	m.lastAuthorized[rec.ConnectorID] = in.Authorized
	if in.Plugged != nil {
		b := *in.Plugged
		m.lastPlugged[rec.ConnectorID] = &b
	}
}

func (m *Machine) commitStart(rec *Record, now time.Time) error {
	rec.StartTimestamp = now
	rec.StartBootNr = m.bootNr
	rec.StartSync.SetRequested()
	return m.store.Commit(rec)
}

func (m *Machine) commitStop(rec *Record, now time.Time) error {
	if rec.StopTimestamp.IsZero() {
		rec.StopTimestamp = now
		rec.StopBootNr = m.bootNr
	}
	rec.StopReasonV16 = rec.PendingStopReason
	rec.StopReasonV201 = rec.PendingStopReason
	rec.StopTrigger = rec.PendingStopTrigger
	rec.StopSync.SetRequested()
	return m.store.Commit(rec)
}

// detectUpdate implements the v2.0.1 Updated-event trigger detection of
// spec.md §4.5, first-match order: chargingState change, authorized/
// deauthorized edge, plug edge, then a buffered MeterValue category
// becoming non-empty.
func (m *Machine) detectUpdate(rec *Record, in Input, chargingState ChargingState) (Event, bool) {
	connectorID := rec.ConnectorID

	if chargingState != rec.ChargingState {
		rec.NotifyChargingState = true
		return buildUpdatedEvent(rec, TriggerChargingStateChanged), true
	}

	prevAuth, seen := m.lastAuthorized[connectorID]
	if !seen {
		prevAuth = rec.Authorized
	}
	deauthEdge := rec.Deauthorized && !m.deauthNotified[connectorID]
	authEdge := rec.Authorized != prevAuth
	if authEdge || deauthEdge {
		m.lastAuthorized[connectorID] = rec.Authorized
		trig := TriggerAuthorized
		if deauthEdge {
			trig = TriggerDeauthorized
			m.deauthNotified[connectorID] = true
		}
		rec.NotifyIdToken = true
		return buildUpdatedEvent(rec, trig), true
	}
	m.lastAuthorized[connectorID] = rec.Authorized

	prevPlug := m.lastPlugged[connectorID]
	plugged := boolVal(in.Plugged)
	plugEdge := prevPlug == nil || *prevPlug != plugged
	if in.Plugged != nil {
		b := plugged
		m.lastPlugged[connectorID] = &b
	}
	if plugEdge && in.Plugged != nil {
		return buildUpdatedEvent(rec, TriggerCablePluggedIn), true
	}

	if rec.NotifyMeterValue {
		return buildUpdatedEvent(rec, TriggerMeterValuePeriodic), true
	}

	return Event{}, false
}

// attachSamples appends freshly-sampled meter values into rec's buffers
// (v2.0.1 Updated/Ended payloads) and into its stop-tx sampled-data
// accumulator (v1.6 StopTransaction transactionData), flagging
// NotifyMeterValue the tick a category transitions from empty to non-empty.
func (m *Machine) attachSamples(rec *Record, in Input) {
	appendCategory := func(dst *[]metering.Sample, incoming []metering.Sample) bool {
		wasEmpty := len(*dst) == 0
		*dst = append(*dst, incoming...)
		return wasEmpty && len(incoming) > 0
	}
	if became := appendCategory(&rec.ClockMeterValue, in.ClockSamples); became {
		rec.NotifyMeterValue = true
	}
	rec.StopTxSampledData = append(rec.StopTxSampledData, in.ClockSamples...)
	if became := appendCategory(&rec.PeriodicMeterValue, in.PeriodicSamples); became {
		rec.NotifyMeterValue = true
	}
	rec.StopTxSampledData = append(rec.StopTxSampledData, in.PeriodicSamples...)
	if became := appendCategory(&rec.TriggerMeterValue, in.TriggerSamples); became {
		rec.NotifyMeterValue = true
	}
}

// sampleEvents builds immediate MeterValues Events for v1.6 (which has no
// seqNo-ordered Updated event to piggyback meter data on; each sampling
// boundary is its own outbound operation).
func (m *Machine) sampleEvents(rec *Record, in Input, now time.Time) []Event {
	var evs []Event
	if m.protocol != ProtocolV16 {
		return evs
	}
	if len(in.ClockSamples) > 0 {
		evs = append(evs, Event{Kind: KindMeterValues, ConnectorID: rec.ConnectorID, TxNr: rec.TxNr, Timestamp: now, Samples: in.ClockSamples})
	}
	if len(in.PeriodicSamples) > 0 {
		evs = append(evs, Event{Kind: KindMeterValues, ConnectorID: rec.ConnectorID, TxNr: rec.TxNr, Timestamp: now, Samples: in.PeriodicSamples})
	}
	return evs
}

// RequestStart records a server- or operator-initiated remote start for
// connectorID, rejecting it if a transaction is already running there
// (spec.md's supplemented RequestStartTransaction semantics).
func (m *Machine) RequestStart(connectorID int, p PendingRemoteStart) error {
	if rec, ok := m.active[connectorID]; ok && rec.Authorized && !rec.StopSync.Requested {
		return fmt.Errorf("transaction: connector %d already holds a running transaction", connectorID)
	}
	m.pendingRemoteStart[connectorID] = p
	return nil
}

// TakePendingRemoteStart removes and returns any remote-start request
// recorded for connectorID.
func (m *Machine) TakePendingRemoteStart(connectorID int) (PendingRemoteStart, bool) {
	p, ok := m.pendingRemoteStart[connectorID]
	if ok {
		delete(m.pendingRemoteStart, connectorID)
	}
	return p, ok
}

// RequestStop marks connectorID's active transaction inactive with the
// given reason/trigger; the next Evaluate call for that connector will
// recognize it via shouldStop's "externally marked inactive" case.
func (m *Machine) RequestStop(connectorID int, reason StopReason, trigger TriggerReason) bool {
	rec, ok := m.active[connectorID]
	if !ok {
		return false
	}
	rec.Active = false
	rec.StopReasonV16 = reason
	rec.StopReasonV201 = reason
	rec.StopTrigger = trigger
	return true
}

// ReassignEvseZero implements the supplemented EVSE-0 transaction
// reassignment: a transaction begun on the station-wide connector 0 moves
// to the first available plugged connector once one becomes ready, as long
// as it has not yet been started. pluggedOf reports whether connectorID is
// currently plugged.
func (m *Machine) ReassignEvseZero(connectorIDs []int, pluggedOf func(connectorID int) *bool) {
	rec, ok := m.active[0]
	if !ok || rec.StartSync.Requested {
		return
	}
	for _, cid := range connectorIDs {
		if cid == 0 {
			continue
		}
		if _, occupied := m.active[cid]; occupied {
			continue
		}
		if p := pluggedOf(cid); p != nil && *p {
			delete(m.active, 0)
			rec.ConnectorID = cid
			m.active[cid] = rec
			return
		}
	}
}

// Active returns the connector's currently tracked record, if any.
func (m *Machine) Active(connectorID int) (*Record, bool) {
	rec, ok := m.active[connectorID]
	return rec, ok
}
