// Package smartcharging implements the Smart-Charging Profile Stack
// (component C6): ChargePointMaxProfile / TxDefaultProfile / TxProfile
// storage, validation and composite-schedule evaluation.
//
// Grounded on MicroOcpp's Model/SmartCharging/SmartChargingService.h (the
// ProfileStack-per-purpose layout, the connector-0-is-charge-point-wide
// convention) and Operations/SetChargingProfile.cpp (the accept/reject
// rules enforced here).
package smartcharging

import (
	"fmt"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
)

// Purpose mirrors ChargingProfilePurposeType.
type Purpose string

const (
	PurposeChargePointMaxProfile Purpose = "ChargePointMaxProfile"
	PurposeTxDefaultProfile      Purpose = "TxDefaultProfile"
	PurposeTxProfile             Purpose = "TxProfile"
)

// Kind mirrors ChargingProfileKindType.
type Kind string

const (
	KindAbsolute Kind = "Absolute"
	KindRecurring Kind = "Recurring"
	KindRelative  Kind = "Relative"
)

// RecurrencyKind mirrors RecurrencyKindType.
type RecurrencyKind string

const (
	RecurrencyNone   RecurrencyKind = ""
	RecurrencyDaily  RecurrencyKind = "Daily"
	RecurrencyWeekly RecurrencyKind = "Weekly"
)

// RateUnit mirrors ChargingRateUnitType.
type RateUnit string

const (
	RateUnitWatt RateUnit = "W"
	RateUnitAmp  RateUnit = "A"
)

// MaxStackLevel is MO_ChargeProfileMaxStackLevel: the highest stackLevel a
// profile may declare.
const MaxStackLevel = 10

// SchedulePeriod is one ChargingSchedulePeriod entry.
type SchedulePeriod struct {
	StartPeriod   int     `json:"startPeriod"` // seconds, relative to the schedule's start
	Limit         float64 `json:"limit"`
	NumberPhases  *int    `json:"numberPhases,omitempty"`
}

// Schedule is a ChargingSchedule.
type Schedule struct {
	Duration        *int           `json:"duration,omitempty"` // seconds
	StartSchedule   *time.Time     `json:"startSchedule,omitempty"`
	ChargingRateUnit RateUnit      `json:"chargingRateUnit"`
	ChargingSchedulePeriod []SchedulePeriod `json:"chargingSchedulePeriod"`
	MinChargingRate *float64       `json:"minChargingRate,omitempty"`
}

// Profile is a ChargingProfile.
type Profile struct {
	ID                     int            `json:"chargingProfileId"`
	StackLevel             int            `json:"stackLevel"`
	Purpose                Purpose        `json:"chargingProfilePurpose"`
	Kind                   Kind           `json:"chargingProfileKind"`
	RecurrencyKind         RecurrencyKind `json:"recurrencyKind,omitempty"`
	ValidFrom              *time.Time     `json:"validFrom,omitempty"`
	ValidTo                *time.Time     `json:"validTo,omitempty"`
	TransactionID          int            `json:"transactionId,omitempty"` // v1.6, -1/0 means unset
	ChargingProfileID201   string         `json:"chargingProfileId201,omitempty"`
	Schedule               Schedule       `json:"chargingSchedule"`

	// RelativeAnchor is the running transaction's StartTimestamp at the
	// moment a Relative TxProfile was accepted; Relative schedules count
	// elapsed time from here rather than from StartSchedule. Not persisted:
	// a profile reloaded by Load has no anchor and counts from StartSchedule,
	// or from the evaluation instant when StartSchedule is unset.
	RelativeAnchor *time.Time `json:"-"`
}

// ErrInvalidConnector reports a purpose/connector combination
// SetChargingProfile.cpp rejects outright (FormationViolation/
// PropertyConstraintViolation in OCPP terms; this core reports it as a plain
// error and leaves wire-level error-code mapping to internal/core).
var ErrInvalidConnector = fmt.Errorf("smartcharging: invalid connectorId for profile purpose")

// ErrNoRunningTransaction is returned when a TxProfile is offered for a
// connector without a matching running transaction.
var ErrNoRunningTransaction = fmt.Errorf("smartcharging: no matching running transaction")

// TransactionLookup lets the store check whether connectorID currently has a
// running transaction with the given ID and start time, without importing
// internal/transaction (mirrors the abstract-boundary pattern used between
// internal/transaction and internal/core). startedAt anchors Relative
// TxProfile schedules.
type TransactionLookup func(connectorID int) (running bool, transactionID int, startedAt time.Time)

type connectorStack struct {
	txDefault map[int]*Profile
	tx        map[int]*Profile
}

// Store is the Smart-Charging Profile Stack: a ChargePointMaxProfile stack
// and a charge-point-wide TxDefaultProfile stack (both shared across
// connectors, connectorId 0), plus a per-connector TxDefaultProfile/TxProfile
// stack pair, each indexed by stackLevel.
type Store struct {
	fs     fsadapter.Adapter
	lookup TransactionLookup

	chargePointMax     map[int]*Profile
	chargePointTxDef   map[int]*Profile
	connectors         map[int]*connectorStack

	outputs    map[int]func(limit float64, unit RateUnit, numberPhases int)
	lastOutput map[int]float64
}

// New returns an empty Store. lookup is consulted by SetProfile to validate
// TxProfile offers against a running transaction.
func New(fs fsadapter.Adapter, lookup TransactionLookup) *Store {
	return &Store{
		fs:               fs,
		lookup:           lookup,
		chargePointMax:   make(map[int]*Profile),
		chargePointTxDef: make(map[int]*Profile),
		connectors:       make(map[int]*connectorStack),
		outputs:          make(map[int]func(float64, RateUnit, int)),
		lastOutput:       make(map[int]float64),
	}
}

func (s *Store) connector(connectorID int) *connectorStack {
	c, ok := s.connectors[connectorID]
	if !ok {
		c = &connectorStack{txDefault: make(map[int]*Profile), tx: make(map[int]*Profile)}
		s.connectors[connectorID] = c
	}
	return c
}

func profileFilename(connectorID int, purpose Purpose, stackLevel int) string {
	return fmt.Sprintf("cp-%d-%s-%d.jsn", connectorID, purpose, stackLevel)
}

// Load reconstructs every connector's profile stacks from disk. connectorIDs
// must include 0 (the charge-point-wide scope).
func (s *Store) Load(connectorIDs []int) error {
	for _, cid := range connectorIDs {
		for _, purpose := range []Purpose{PurposeChargePointMaxProfile, PurposeTxDefaultProfile, PurposeTxProfile} {
			if purpose == PurposeChargePointMaxProfile && cid != 0 {
				continue
			}
			if purpose == PurposeTxProfile && cid == 0 {
				continue
			}
			for level := 0; level <= MaxStackLevel; level++ {
				var p Profile
				ok, err := fsadapter.LoadJSON(s.fs, profileFilename(cid, purpose, level), &p)
				if err != nil {
					return fmt.Errorf("smartcharging: load connector %d %s level %d: %w", cid, purpose, level, err)
				}
				if !ok {
					continue
				}
				s.store(cid, &p)
			}
		}
	}
	return nil
}

func (s *Store) store(connectorID int, p *Profile) {
	switch p.Purpose {
	case PurposeChargePointMaxProfile:
		s.chargePointMax[p.StackLevel] = p
	case PurposeTxDefaultProfile:
		if connectorID == 0 {
			s.chargePointTxDef[p.StackLevel] = p
		} else {
			s.connector(connectorID).txDefault[p.StackLevel] = p
		}
	case PurposeTxProfile:
		s.connector(connectorID).tx[p.StackLevel] = p
	}
}

// SetProfile validates and installs p at connectorID, persisting it to disk.
// Implements the accept/reject rules of SetChargingProfile.cpp: TxProfile
// cannot target connector 0; ChargePointMaxProfile can only target connector
// 0; a TxProfile must match a currently running transaction.
func (s *Store) SetProfile(connectorID int, p *Profile) error {
	switch p.Purpose {
	case PurposeTxProfile:
		if connectorID == 0 {
			return fmt.Errorf("%w: TxProfile at connector 0", ErrInvalidConnector)
		}
		if s.lookup != nil {
			running, txID, startedAt := s.lookup(connectorID)
			if !running || (p.TransactionID > 0 && p.TransactionID != txID) {
				return ErrNoRunningTransaction
			}
			if p.Kind == KindRelative {
				anchor := startedAt
				p.RelativeAnchor = &anchor
			}
		}
	case PurposeChargePointMaxProfile:
		if connectorID != 0 {
			return fmt.Errorf("%w: ChargePointMaxProfile at connector %d", ErrInvalidConnector, connectorID)
		}
	}
	if p.StackLevel < 0 || p.StackLevel > MaxStackLevel {
		return fmt.Errorf("smartcharging: stackLevel %d out of range", p.StackLevel)
	}

	if err := fsadapter.StoreJSON(s.fs, profileFilename(connectorID, p.Purpose, p.StackLevel), p); err != nil {
		return fmt.Errorf("smartcharging: persist profile: %w", err)
	}
	s.store(connectorID, p)
	return nil
}

// ClearProfiles removes every installed profile matching filter(id,
// stackLevel, purpose, connectorId), returning whether anything was removed.
func (s *Store) ClearProfiles(filter func(id, stackLevel int, purpose Purpose, connectorID int) bool) bool {
	removed := false
	clearFrom := func(connectorID int, m map[int]*Profile) {
		for level, p := range m {
			if filter(p.ID, p.StackLevel, p.Purpose, connectorID) {
				_ = s.fs.Remove(profileFilename(connectorID, p.Purpose, level))
				delete(m, level)
				removed = true
			}
		}
	}
	clearFrom(0, s.chargePointMax)
	clearFrom(0, s.chargePointTxDef)
	for cid, c := range s.connectors {
		clearFrom(cid, c.txDefault)
		clearFrom(cid, c.tx)
	}
	return removed
}

// effectiveDefaultStack returns the profile stack this connector should use in
// place of its TxProfile slot when none is installed: its own
// TxDefaultProfile stack if non-empty, else the charge-point-wide one.
func (s *Store) effectiveDefaultStack(connectorID int) map[int]*Profile {
	c := s.connectors[connectorID]
	if c != nil && len(c.txDefault) > 0 {
		return c.txDefault
	}
	return s.chargePointTxDef
}

// highestActive returns the highest-stackLevel profile in stack that is
// valid at t, or nil.
func highestActive(stack map[int]*Profile, t time.Time) *Profile {
	var best *Profile
	for level, p := range stack {
		if !validAt(p, t) {
			continue
		}
		if best == nil || level > best.StackLevel {
			best = p
		}
	}
	return best
}

func validAt(p *Profile, t time.Time) bool {
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && !t.Before(*p.ValidTo) {
		return false
	}
	return true
}
