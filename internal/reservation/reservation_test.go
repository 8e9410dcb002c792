package reservation

import (
	"testing"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
	"github.com/ruslanhut/ocpp-core/internal/variables"
)

func newTestStore(slots int) *Store {
	vars := variables.New(fsadapter.NewMemory(), "vars.jsn")
	return New(vars, slots)
}

func TestReserveNowFindsFreeSlot(t *testing.T) {
	s := newTestStore(2)
	now := time.Now()
	expiry := now.Add(time.Hour)

	r, err := s.ReserveNow(1, 100, "TAG1", "", expiry, now)
	if err != nil {
		t.Fatalf("ReserveNow: %v", err)
	}
	if r.Slot != 0 {
		t.Errorf("expected first free slot 0, got %d", r.Slot)
	}

	got, ok := s.FindByConnector(1, now)
	if !ok || got.ReservationID != 100 {
		t.Fatalf("expected to find reservation 100 on connector 1, got (%+v, %v)", got, ok)
	}
}

func TestReserveNowNoFreeSlot(t *testing.T) {
	s := newTestStore(1)
	now := time.Now()
	expiry := now.Add(time.Hour)

	if _, err := s.ReserveNow(1, 1, "A", "", expiry, now); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := s.ReserveNow(2, 2, "B", "", expiry, now); err != ErrNoFreeSlot {
		t.Fatalf("expected ErrNoFreeSlot, got %v", err)
	}
}

func TestCancelReservation(t *testing.T) {
	s := newTestStore(1)
	now := time.Now()
	s.ReserveNow(1, 42, "TAG1", "", now.Add(time.Hour), now)

	ok, err := s.CancelReservation(42, now)
	if err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	if !ok {
		t.Fatal("expected cancellation to succeed")
	}
	if _, found := s.FindByConnector(1, now); found {
		t.Fatal("expected no active reservation after cancel")
	}
}

func TestExpireStaleClearsPastReservations(t *testing.T) {
	s := newTestStore(1)
	now := time.Now()
	s.ReserveNow(1, 1, "TAG1", "", now.Add(-time.Minute), now.Add(-time.Hour))

	cleared, err := s.ExpireStale(now)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if cleared != 1 {
		t.Errorf("expected 1 cleared, got %d", cleared)
	}
}

func TestMatchesIdTagBothEmptyMeansAny(t *testing.T) {
	r := Reservation{IdTag: "TAG1"}
	if !r.MatchesIdTag("", "") {
		t.Error("expected both-empty to match any reservation")
	}
	if !r.MatchesIdTag("TAG1", "") {
		t.Error("expected matching idTag to match")
	}
	if r.MatchesIdTag("OTHER", "") {
		t.Error("expected non-matching idTag to not match")
	}
}
