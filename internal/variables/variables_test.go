package variables

import (
	"testing"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
)

func TestDeclareAndGet(t *testing.T) {
	s := New(fsadapter.NewMemory(), "vars.jsn")
	key := Key{Component: "TxCtrlr", Name: "TxStartPoint"}
	s.Declare(key, TypeString, "PowerPathClosed", true, true, nil)

	got, ok := s.Get(key)
	if !ok || got != "PowerPathClosed" {
		t.Fatalf("got (%q, %v), want (%q, true)", got, ok, "PowerPathClosed")
	}
}

func TestSetRejectsUndeclared(t *testing.T) {
	s := New(fsadapter.NewMemory(), "vars.jsn")
	err := s.Set(Key{Name: "Unknown"}, "1")
	if err == nil {
		t.Fatal("expected an error for an undeclared key")
	}
}

func TestSetRejectsReadOnly(t *testing.T) {
	s := New(fsadapter.NewMemory(), "vars.jsn")
	key := Key{Name: "HeartbeatInterval"}
	s.Declare(key, TypeInt, "60", true, false, nil)

	if err := s.Set(key, "120"); err == nil {
		t.Fatal("expected an error writing a read-only variable")
	}
}

func TestSetBumpsRevisionsOnlyOnChange(t *testing.T) {
	s := New(fsadapter.NewMemory(), "vars.jsn")
	key := Key{Name: "HeartbeatInterval"}
	s.Declare(key, TypeInt, "60", true, true, nil)

	if err := s.Set(key, "60"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if rev, _ := s.ValueRevision(key); rev != 0 {
		t.Errorf("expected value revision 0 after a no-op write, got %d", rev)
	}
	if s.WriteRevision() != 1 {
		t.Errorf("expected write revision 1, got %d", s.WriteRevision())
	}

	if err := s.Set(key, "120"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if rev, _ := s.ValueRevision(key); rev != 1 {
		t.Errorf("expected value revision 1 after a real change, got %d", rev)
	}
}

func TestValidatorRejectsBadValue(t *testing.T) {
	s := New(fsadapter.NewMemory(), "vars.jsn")
	key := Key{Name: "TxStartPoint"}
	s.Declare(key, TypeString, "PowerPathClosed", true, true, func(raw string) error {
		if raw != "PowerPathClosed" && raw != "Authorized" {
			return ErrNotDeclared
		}
		return nil
	})

	if err := s.Set(key, "Bogus"); err == nil {
		t.Fatal("expected validator to reject an unknown enum value")
	}
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	fs := fsadapter.NewMemory()
	s := New(fs, "vars.jsn")
	key := Key{Component: "AuthCtrlr", Name: "AuthorizeRemoteStart"}
	s.Declare(key, TypeBool, "false", true, true, nil)
	if err := s.Set(key, "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Error("expected Dirty() to be false right after Save")
	}

	s2 := New(fs, "vars.jsn")
	s2.Declare(key, TypeBool, "false", true, true, nil)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, _ := s2.GetBool(key)
	if !got {
		t.Error("expected loaded value to be true")
	}
}

func TestLoadIgnoresUndeclaredStoredVariable(t *testing.T) {
	fs := fsadapter.NewMemory()
	s := New(fs, "vars.jsn")
	known := Key{Name: "Known"}
	unknown := Key{Name: "Unknown"}
	s.Declare(known, TypeString, "a", true, true, nil)
	s.Declare(unknown, TypeString, "b", true, true, nil)
	s.Set(unknown, "c")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2 := New(fs, "vars.jsn")
	s2.Declare(known, TypeString, "a", true, true, nil)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := s2.Get(known); v != "a" {
		t.Errorf("expected known value unaffected, got %q", v)
	}
}
