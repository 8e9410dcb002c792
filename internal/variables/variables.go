// Package variables implements the Configuration/Variable Store (component
// C3): a typed, persisted key-value registry addressed by component+name,
// the way OCPP 2.0.1's device model addresses a Variable and OCPP 1.6
// addresses a configuration key (component name left empty in that case).
//
// Grounded on MicroOcpp's VariableContainerFlash (file shape:
// {"head":{"content-type":"ocpp_variable_file","version":"1.0"},"variables":[...]})
// and the teacher's internal/ocpp/v201/devicemodel.go component+name
// addressing model.
package variables

import (
	"fmt"
	"sync"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
)

// Type is the wire data type of a variable's value.
type Type string

const (
	TypeInt    Type = "int"
	TypeBool   Type = "bool"
	TypeString Type = "string"
)

// MaxStringLen is the OCPP 2.0.1 cap on a variable's string value.
const MaxStringLen = 500

// Validator checks a candidate value before it is accepted. Returning a
// non-nil error rejects the write with that reason.
type Validator func(raw string) error

// Key addresses a single variable. For OCPP 1.6 configuration keys,
// Component is empty.
type Key struct {
	Component string
	Name      string
}

func (k Key) String() string {
	if k.Component == "" {
		return k.Name
	}
	return k.Component + "." + k.Name
}

type variable struct {
	key           Key
	typ           Type
	value         string
	persistent    bool
	mutable       bool
	validator     Validator
	valueRevision uint64
}

// Store is the in-memory, optionally-persisted registry of all declared
// variables. Zero value is not usable; construct with New.
type Store struct {
	mu           sync.RWMutex
	vars         map[Key]*variable
	writeRev     uint64
	fs           fsadapter.Adapter
	filename     string
	dirty        bool
}

const fileContentType = "ocpp_variable_file"
const fileVersion = "1.0"

type fileHeader struct {
	ContentType string `json:"content-type"`
	Version     string `json:"version"`
}

type fileVariable struct {
	Component     string `json:"componentName"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Value         string `json:"value"`
	Persistent    bool   `json:"persistent"`
	Mutable       bool   `json:"mutable"`
	ValueRevision uint64 `json:"valueRevision"`
}

type fileFormat struct {
	Head      fileHeader     `json:"head"`
	Variables []fileVariable `json:"variables"`
}

// New returns an empty Store backed by fs, persisting to filename.
func New(fs fsadapter.Adapter, filename string) *Store {
	return &Store{
		vars:     make(map[Key]*variable),
		fs:       fs,
		filename: filename,
	}
}

// Declare registers a variable with its default value. Declaring an
// already-declared key is a no-op (the stored value, if loaded from disk,
// wins over the compiled-in default).
func (s *Store) Declare(key Key, typ Type, defaultValue string, persistent, mutable bool, validator Validator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.vars[key]; exists {
		return
	}
	s.vars[key] = &variable{
		key:        key,
		typ:        typ,
		value:      defaultValue,
		persistent: persistent,
		mutable:    mutable,
		validator:  validator,
	}
}

// Get returns the raw string value of key and whether it is declared.
func (s *Store) Get(key Key) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[key]
	if !ok {
		return "", false
	}
	return v.value, true
}

// GetInt returns key's value parsed as an int32.
func (s *Store) GetInt(key Key) (int32, bool) {
	raw, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	var n int32
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}

// GetBool returns key's value parsed as a bool ("true"/"false").
func (s *Store) GetBool(key Key) (bool, bool) {
	raw, ok := s.Get(key)
	if !ok {
		return false, false
	}
	return raw == "true", true
}

// ErrNotDeclared is returned by Set when the key has not been Declare()d.
var ErrNotDeclared = fmt.Errorf("variable not declared")

// ErrReadOnly is returned by Set when the key is not mutable.
var ErrReadOnly = fmt.Errorf("variable is read-only")

// ErrTooLong is returned when a string value exceeds MaxStringLen.
var ErrTooLong = fmt.Errorf("value exceeds %d bytes", MaxStringLen)

// Set writes a new raw value to key, running its validator first. Every
// successful write bumps the store's write revision and the variable's
// value revision (but only the value revision if the value actually
// changed).
func (s *Store) Set(key Key, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vars[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrNotDeclared)
	}
	if !v.mutable {
		return fmt.Errorf("%s: %w", key, ErrReadOnly)
	}
	if v.typ == TypeString && len(raw) > MaxStringLen {
		return fmt.Errorf("%s: %w", key, ErrTooLong)
	}
	if v.validator != nil {
		if err := v.validator(raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	s.writeRev++
	if v.value != raw {
		v.value = raw
		v.valueRevision++
		s.dirty = true
	}
	return nil
}

// WriteRevision returns the store-wide monotonic write counter.
func (s *Store) WriteRevision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeRev
}

// ValueRevision returns key's per-variable value revision.
func (s *Store) ValueRevision(key Key) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[key]
	if !ok {
		return 0, false
	}
	return v.valueRevision, true
}

// Load populates the store from the persisted file, skipping any variable
// whose component+name isn't currently declared (matches
// VariableContainerFlash::load's tolerance of stale/unknown entries).
// A missing or empty file is not an error: the store simply keeps its
// compiled-in defaults.
func (s *Store) Load() error {
	var doc fileFormat
	ok, err := fsadapter.LoadJSON(s.fs, s.filename, &doc)
	if err != nil {
		return fmt.Errorf("variables: load: %w", err)
	}
	if !ok {
		return nil
	}
	if doc.Head.ContentType != fileContentType {
		return fmt.Errorf("variables: unrecognized file format %q", doc.Head.ContentType)
	}
	if doc.Head.Version != fileVersion {
		return fmt.Errorf("variables: unsupported file version %q", doc.Head.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fv := range doc.Variables {
		key := Key{Component: fv.Component, Name: fv.Name}
		v, declared := s.vars[key]
		if !declared {
			continue
		}
		v.value = fv.Value
		v.valueRevision = fv.ValueRevision
	}
	return nil
}

// Save persists every declared, persistent variable to disk in a single
// file, matching VariableContainerFlash's single-file-per-container shape.
func (s *Store) Save() error {
	s.mu.Lock()
	doc := fileFormat{
		Head: fileHeader{ContentType: fileContentType, Version: fileVersion},
	}
	for _, v := range s.vars {
		if !v.persistent {
			continue
		}
		doc.Variables = append(doc.Variables, fileVariable{
			Component:     v.key.Component,
			Name:          v.key.Name,
			Type:          string(v.typ),
			Value:         v.value,
			Persistent:    v.persistent,
			Mutable:       v.mutable,
			ValueRevision: v.valueRevision,
		})
	}
	s.dirty = false
	s.mu.Unlock()

	if err := fsadapter.StoreJSON(s.fs, s.filename, &doc); err != nil {
		return fmt.Errorf("variables: save: %w", err)
	}
	return nil
}

// Dirty reports whether any variable's value, persistent or not, has
// changed since the last Save. The core driver's loop tick checks this to decide whether a flush
// is due.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Keys returns every currently declared key, in no particular order. Used
// by GetConfiguration/GetVariables when the caller asks for every key
// instead of an explicit subset.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]Key, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	return keys
}

// ReadOnly reports whether key is declared immutable, and whether it is
// declared at all.
func (s *Store) ReadOnly(key Key) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[key]
	if !ok {
		return false, false
	}
	return !v.mutable, true
}
