package authorization

import (
	"testing"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
)

func newTestStore() *Store {
	s := New(fsadapter.NewMemory(), "list.jsn", "cache.jsn", 2)
	s.SetListEnabled(true)
	s.SetCacheEnabled(true)
	return s
}

func TestGetLocalAuthorizationListTakesPriorityOverCache(t *testing.T) {
	s := newTestStore()
	now := time.Now()
	s.UpdateLocalList(1, false, []ListEntry{{IdTag: "TAG1", Info: IdTagInfo{Status: StatusAccepted}}})
	s.AddCache("TAG1", IdTagInfo{Status: StatusBlocked})

	info, ok := s.GetLocalAuthorization("TAG1", now)
	if !ok || info.Status != StatusAccepted {
		t.Fatalf("expected list entry to win: got (%+v, %v)", info, ok)
	}
}

func TestGetLocalAuthorizationFallsBackToCache(t *testing.T) {
	s := newTestStore()
	s.AddCache("TAG2", IdTagInfo{Status: StatusInvalid})

	info, ok := s.GetLocalAuthorization("TAG2", time.Now())
	if !ok || info.Status != StatusInvalid {
		t.Fatalf("expected cache passthrough of a non-Accepted status, got (%+v, %v)", info, ok)
	}
}

func TestGetLocalAuthorizationExpiresAcceptedEntry(t *testing.T) {
	s := newTestStore()
	past := time.Now().Add(-time.Hour)
	s.UpdateLocalList(1, false, []ListEntry{{IdTag: "TAG3", Info: IdTagInfo{Status: StatusAccepted, ExpiryDate: &past}}})

	info, ok := s.GetLocalAuthorization("TAG3", time.Now())
	if !ok || info.Status != StatusExpired {
		t.Fatalf("expected expired entry to surface as Expired, got (%+v, %v)", info, ok)
	}
}

func TestCacheEvictsOldestOnOverflow(t *testing.T) {
	s := newTestStore()
	s.AddCache("A", IdTagInfo{Status: StatusAccepted})
	s.AddCache("B", IdTagInfo{Status: StatusAccepted})
	s.AddCache("C", IdTagInfo{Status: StatusAccepted})

	if _, ok := s.GetLocalAuthorization("A", time.Now()); ok {
		t.Error("expected the oldest cache entry to have been evicted")
	}
	if _, ok := s.GetLocalAuthorization("C", time.Now()); !ok {
		t.Error("expected the newest cache entry to still be present")
	}
}

func TestNotifyAuthorizationNoConflictWhenListHasNoEntry(t *testing.T) {
	s := newTestStore()
	conflict, err := s.NotifyAuthorization("UNKNOWN", IdTagInfo{Status: StatusBlocked}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflict != nil {
		t.Fatal("expected no conflict when the local list has no entry for this idTag")
	}
}

func TestNotifyAuthorizationDetectsConflict(t *testing.T) {
	s := newTestStore()
	s.UpdateLocalList(1, false, []ListEntry{{IdTag: "TAG4", Info: IdTagInfo{Status: StatusAccepted}}})

	conflict, err := s.NotifyAuthorization("TAG4", IdTagInfo{Status: StatusBlocked}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflict == nil {
		t.Fatal("expected a conflict between Accepted (local) and Blocked (server)")
	}
}

func TestNotifyAuthorizationNormalizesConcurrentTx(t *testing.T) {
	s := newTestStore()
	s.UpdateLocalList(1, false, []ListEntry{{IdTag: "TAG5", Info: IdTagInfo{Status: StatusAccepted}}})

	conflict, err := s.NotifyAuthorization("TAG5", IdTagInfo{Status: StatusConcurrentTx}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflict != nil {
		t.Fatalf("expected ConcurrentTx to normalize to Accepted with no conflict, got %v", conflict)
	}
}

func TestUpdateLocalListDifferentialRemovesOnEmptyStatus(t *testing.T) {
	s := newTestStore()
	s.UpdateLocalList(1, false, []ListEntry{{IdTag: "TAG6", Info: IdTagInfo{Status: StatusAccepted}}})
	s.UpdateLocalList(2, true, []ListEntry{{IdTag: "TAG6", Info: IdTagInfo{}}})

	if _, ok := s.GetLocalAuthorization("TAG6", time.Now()); ok {
		t.Fatal("expected a differential update with empty status to remove the entry")
	}
	if s.ListVersion() != 2 {
		t.Errorf("expected list version 2, got %d", s.ListVersion())
	}
}

func TestLoadListsRoundtrip(t *testing.T) {
	fs := fsadapter.NewMemory()
	s1 := New(fs, "list.jsn", "cache.jsn", 10)
	s1.UpdateLocalList(7, false, []ListEntry{{IdTag: "TAGX", Info: IdTagInfo{Status: StatusAccepted}}})

	s2 := New(fs, "list.jsn", "cache.jsn", 10)
	if err := s2.LoadLists(); err != nil {
		t.Fatalf("LoadLists: %v", err)
	}
	if s2.ListVersion() != 7 {
		t.Errorf("expected list version 7 after reload, got %d", s2.ListVersion())
	}
}
