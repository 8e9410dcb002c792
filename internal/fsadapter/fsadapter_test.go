package fsadapter

import "testing"

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLoadJSONMissingFileIsNotAnError(t *testing.T) {
	a := NewMemory()
	var rec record
	ok, err := LoadJSON(a, "missing.jsn", &rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing file")
	}
}

func TestStoreThenLoadJSONRoundtrip(t *testing.T) {
	a := NewMemory()
	rec := record{Name: "evse-1", Count: 3}

	if err := StoreJSON(a, "rec.jsn", &rec); err != nil {
		t.Fatalf("StoreJSON: %v", err)
	}

	var out record
	ok, err := LoadJSON(a, "rec.jsn", &out)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after store")
	}
	if out != rec {
		t.Errorf("got %+v, want %+v", out, rec)
	}
}

func TestRemoveByPrefix(t *testing.T) {
	a := NewMemory()
	a.Store("tx-1-0.jsn", []byte("{}"))
	a.Store("tx-1-1.jsn", []byte("{}"))
	a.Store("tx-2-0.jsn", []byte("{}"))

	if err := RemoveByPrefix(a, "tx-1-"); err != nil {
		t.Fatalf("RemoveByPrefix: %v", err)
	}

	names, _ := a.List("")
	if len(names) != 1 || names[0] != "tx-2-0.jsn" {
		t.Errorf("expected only tx-2-0.jsn to remain, got %v", names)
	}
}

func TestCorruptJSONIsAnError(t *testing.T) {
	a := NewMemory()
	a.Store("bad.jsn", []byte("not json"))

	var rec record
	_, err := LoadJSON(a, "bad.jsn", &rec)
	if err == nil {
		t.Fatal("expected an error for corrupt json")
	}
}
