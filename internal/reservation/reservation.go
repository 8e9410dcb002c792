// Package reservation implements the Reservation Store (component C7): a
// small, fixed number of reservation slots, each persisted through the
// Configuration/Variable Store exactly as MicroOcpp's Reservation class
// backs every slot field with declareConfiguration<T>.
//
// Grounded on MicroOcpp's Reservation.cpp: per-slot fields
// (connectorId, expiryDate, idTag, reservationId, parentIdTag), the
// connectorId<0-means-free convention, isActive/matches semantics.
package reservation

import (
	"fmt"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/variables"
)

const component = "ReservationCtrlr"

// Reservation is one slot's current content. ConnectorID < 0 means the
// slot is free. ConnectorID == 0 means "any connector", valid only when the
// station supports connector-agnostic reservations.
type Reservation struct {
	Slot          int
	ConnectorID   int
	ExpiryDate    time.Time
	IdTag         string
	ReservationID int
	ParentIdTag   string
}

// IsActive reports whether the slot currently holds a live reservation.
func (r Reservation) IsActive(now time.Time) bool {
	return r.ConnectorID >= 0 && now.Before(r.ExpiryDate)
}

// MatchesConnector reports whether this reservation applies to connectorID,
// either directly or via the any-connector convention (ConnectorID == 0).
func (r Reservation) MatchesConnector(connectorID int) bool {
	return r.ConnectorID == connectorID || r.ConnectorID == 0
}

// MatchesIdTag reports whether idTag/parentIdTag identify the holder of
// this reservation. Per the original's matches(idTag, parentIdTag): if
// both arguments are empty the check always succeeds (used by
// housekeeping scans that want "any reservation in this slot").
func (r Reservation) MatchesIdTag(idTag, parentIdTag string) bool {
	if idTag == "" && parentIdTag == "" {
		return true
	}
	if idTag != "" && r.IdTag == idTag {
		return true
	}
	if parentIdTag != "" && r.ParentIdTag == parentIdTag {
		return true
	}
	return false
}

// Store manages a fixed set of reservation slots backed by a
// variables.Store.
type Store struct {
	vars  *variables.Store
	slots []slotKeys
}

type slotKeys struct {
	connectorID   variables.Key
	expiryDate    variables.Key
	idTag         variables.Key
	reservationID variables.Key
	parentIdTag   variables.Key
}

// New declares numSlots reservation slots against vars and returns a Store
// over them. Persisted slot contents are picked up by calling vars.Load
// after New, since Load skips keys that are not yet declared.
func New(vars *variables.Store, numSlots int) *Store {
	s := &Store{vars: vars, slots: make([]slotKeys, numSlots)}
	for i := 0; i < numSlots; i++ {
		suffix := fmt.Sprintf("%d", i)
		k := slotKeys{
			connectorID:   variables.Key{Component: component, Name: "ConnectorId." + suffix},
			expiryDate:    variables.Key{Component: component, Name: "ExpiryDate." + suffix},
			idTag:         variables.Key{Component: component, Name: "IdTag." + suffix},
			reservationID: variables.Key{Component: component, Name: "ReservationId." + suffix},
			parentIdTag:   variables.Key{Component: component, Name: "ParentIdTag." + suffix},
		}
		s.slots[i] = k
		vars.Declare(k.connectorID, variables.TypeInt, "-1", true, true, nil)
		vars.Declare(k.expiryDate, variables.TypeString, "", true, true, nil)
		vars.Declare(k.idTag, variables.TypeString, "", true, true, nil)
		vars.Declare(k.reservationID, variables.TypeInt, "-1", true, true, nil)
		vars.Declare(k.parentIdTag, variables.TypeString, "", true, true, nil)
	}
	return s
}

// Get reads slot i's current content.
func (s *Store) Get(i int) Reservation {
	k := s.slots[i]
	connID, _ := s.vars.GetInt(k.connectorID)
	resID, _ := s.vars.GetInt(k.reservationID)
	idTag, _ := s.vars.Get(k.idTag)
	parent, _ := s.vars.Get(k.parentIdTag)
	expiryRaw, _ := s.vars.Get(k.expiryDate)
	expiry, _ := time.Parse(time.RFC3339, expiryRaw)
	return Reservation{
		Slot:          i,
		ConnectorID:   int(connID),
		ExpiryDate:    expiry,
		IdTag:         idTag,
		ReservationID: int(resID),
		ParentIdTag:   parent,
	}
}

// All returns every slot's current content.
func (s *Store) All() []Reservation {
	out := make([]Reservation, len(s.slots))
	for i := range s.slots {
		out[i] = s.Get(i)
	}
	return out
}

// update writes a slot's fields back through the variable store.
func (s *Store) update(i int, r Reservation) error {
	k := s.slots[i]
	if err := s.vars.Set(k.connectorID, fmt.Sprintf("%d", r.ConnectorID)); err != nil {
		return err
	}
	expiry := ""
	if !r.ExpiryDate.IsZero() {
		expiry = r.ExpiryDate.Format(time.RFC3339)
	}
	if err := s.vars.Set(k.expiryDate, expiry); err != nil {
		return err
	}
	if err := s.vars.Set(k.idTag, r.IdTag); err != nil {
		return err
	}
	if err := s.vars.Set(k.reservationID, fmt.Sprintf("%d", r.ReservationID)); err != nil {
		return err
	}
	return s.vars.Set(k.parentIdTag, r.ParentIdTag)
}

// ErrNoFreeSlot is returned by ReserveNow when every slot already holds an
// active reservation.
var ErrNoFreeSlot = fmt.Errorf("reservation: no free slot")

// ReserveNow finds the first free (inactive) slot and commits a new
// reservation to it.
func (s *Store) ReserveNow(connectorID, reservationID int, idTag, parentIdTag string, expiryDate time.Time, now time.Time) (Reservation, error) {
	for i := range s.slots {
		cur := s.Get(i)
		if cur.IsActive(now) {
			continue
		}
		r := Reservation{
			Slot:          i,
			ConnectorID:   connectorID,
			ExpiryDate:    expiryDate,
			IdTag:         idTag,
			ReservationID: reservationID,
			ParentIdTag:   parentIdTag,
		}
		if err := s.update(i, r); err != nil {
			return Reservation{}, fmt.Errorf("reservation: reserve: %w", err)
		}
		return r, nil
	}
	return Reservation{}, ErrNoFreeSlot
}

// CancelReservation clears the slot holding reservationID, if any. It
// returns false if no active slot has that ID.
func (s *Store) CancelReservation(reservationID int, now time.Time) (bool, error) {
	for i := range s.slots {
		cur := s.Get(i)
		if !cur.IsActive(now) || cur.ReservationID != reservationID {
			continue
		}
		if err := s.update(i, Reservation{Slot: i, ConnectorID: -1}); err != nil {
			return false, fmt.Errorf("reservation: cancel: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// FindByConnector returns the active reservation for connectorID, if any.
func (s *Store) FindByConnector(connectorID int, now time.Time) (Reservation, bool) {
	for i := range s.slots {
		cur := s.Get(i)
		if cur.IsActive(now) && cur.MatchesConnector(connectorID) {
			return cur, true
		}
	}
	return Reservation{}, false
}

// FindByIdTag returns the active reservation matching idTag/parentIdTag on
// any connector, if any.
func (s *Store) FindByIdTag(idTag, parentIdTag string, now time.Time) (Reservation, bool) {
	for i := range s.slots {
		cur := s.Get(i)
		if cur.IsActive(now) && cur.MatchesIdTag(idTag, parentIdTag) {
			return cur, true
		}
	}
	return Reservation{}, false
}

// ExpireStale clears every slot whose expiry date has passed, returning how
// many were cleared. Called once per driver tick.
func (s *Store) ExpireStale(now time.Time) (int, error) {
	cleared := 0
	for i := range s.slots {
		cur := s.Get(i)
		if cur.ConnectorID < 0 || cur.IsActive(now) {
			continue
		}
		if err := s.update(i, Reservation{Slot: i, ConnectorID: -1}); err != nil {
			return cleared, fmt.Errorf("reservation: expire: %w", err)
		}
		cleared++
	}
	return cleared, nil
}
