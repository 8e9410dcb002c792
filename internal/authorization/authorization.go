// Package authorization implements the Authorization Store (component C4):
// a server-owned, versioned Local Authorization List plus a capacity-bounded
// Cache of server authorization decisions, used to answer "is this idTag
// allowed to start a transaction" while offline or before a round trip.
//
// Grounded on MicroOcpp's AuthorizationService.cpp: the list+cache split,
// the single-file persistence shape, and the notifyAuthorization conflict
// check that compares a server's post-hoc verdict against what the local
// list already said.
package authorization

import (
	"fmt"
	"sync"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
)

// Status mirrors OCPP's AuthorizationStatus enumeration.
type Status string

const (
	StatusAccepted     Status = "Accepted"
	StatusBlocked      Status = "Blocked"
	StatusExpired      Status = "Expired"
	StatusInvalid      Status = "Invalid"
	StatusConcurrentTx Status = "ConcurrentTx"
)

// IdTagInfo is the server's (or cached) verdict for an idTag.
type IdTagInfo struct {
	Status      Status     `json:"status"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	ParentIdTag string     `json:"parentIdTag,omitempty"`
}

// expired reports whether the info has a defined, past ExpiryDate as of now.
func (i IdTagInfo) expired(now time.Time) bool {
	return i.ExpiryDate != nil && now.After(*i.ExpiryDate)
}

// normalizeConcurrentTx treats a ConcurrentTx verdict as equivalent to
// Accepted, matching notifyAuthorization's normalization rule: a
// still-running transaction under the same idTag does not itself indicate
// a conflict with the local list.
func (i IdTagInfo) normalizeConcurrentTx() IdTagInfo {
	if i.Status == StatusConcurrentTx {
		i.Status = StatusAccepted
	}
	return i
}

// ListEntry is one row of the Local Authorization List.
type ListEntry struct {
	IdTag string    `json:"idTag"`
	Info  IdTagInfo `json:"idTagInfo"`
}

// Conflict is raised by NotifyAuthorization when a server verdict
// disagrees with what the local list already states for the same idTag.
type Conflict struct {
	IdTag  string
	Local  IdTagInfo
	Server IdTagInfo
}

func (c Conflict) Error() string {
	return fmt.Sprintf("local list conflict for idTag %s: local=%s server=%s", c.IdTag, c.Local.Status, c.Server.Status)
}

type listFile struct {
	ListVersion int         `json:"listVersion"`
	List        []ListEntry `json:"localAuthorizationList"`
}

type cacheFile struct {
	Cache []ListEntry `json:"localAuthorizationCache"`
}

// Store holds the local list and the cache and persists both through a
// fsadapter.Adapter.
type Store struct {
	mu sync.RWMutex
	fs fsadapter.Adapter

	listFilename  string
	cacheFilename string

	listEnabled  bool
	cacheEnabled bool
	listVersion  int
	list         map[string]IdTagInfo

	cacheCapacity int
	cacheOrder    []string // insertion order, oldest first, for FIFO eviction
	cache         map[string]IdTagInfo
}

// New returns an empty Store. cacheCapacity <= 0 means the cache is
// effectively disabled (AddCache becomes a no-op).
func New(fs fsadapter.Adapter, listFilename, cacheFilename string, cacheCapacity int) *Store {
	return &Store{
		fs:            fs,
		listFilename:  listFilename,
		cacheFilename: cacheFilename,
		list:          make(map[string]IdTagInfo),
		cache:         make(map[string]IdTagInfo),
		cacheCapacity: cacheCapacity,
	}
}

// SetListEnabled toggles whether the local list participates in lookups.
func (s *Store) SetListEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listEnabled = enabled
}

// SetCacheEnabled toggles whether the cache participates in lookups.
func (s *Store) SetCacheEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheEnabled = enabled
}

// ListVersion returns the server-assigned version of the currently loaded
// local list.
func (s *Store) ListVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listVersion
}

// LoadLists reads both the local list and the cache from disk. Absent
// files leave the in-memory state empty, matching loadLists/loadCache's
// "first boot" behavior.
func (s *Store) LoadLists() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lf listFile
	ok, err := fsadapter.LoadJSON(s.fs, s.listFilename, &lf)
	if err != nil {
		return fmt.Errorf("authorization: load list: %w", err)
	}
	if ok {
		s.listVersion = lf.ListVersion
		s.list = make(map[string]IdTagInfo, len(lf.List))
		for _, e := range lf.List {
			s.list[e.IdTag] = e.Info
		}
	}

	var cf cacheFile
	ok, err = fsadapter.LoadJSON(s.fs, s.cacheFilename, &cf)
	if err != nil {
		return fmt.Errorf("authorization: load cache: %w", err)
	}
	if ok {
		s.cache = make(map[string]IdTagInfo, len(cf.Cache))
		s.cacheOrder = s.cacheOrder[:0]
		for _, e := range cf.Cache {
			s.cache[e.IdTag] = e.Info
			s.cacheOrder = append(s.cacheOrder, e.IdTag)
		}
	}
	return nil
}

// UpdateLocalList applies a SendLocalList payload: a full replacement when
// differential is false, or an additive/removal merge when true (an entry
// with a zero-value Info -- empty Status -- removes that idTag). On
// success the list is persisted; on a persistence failure the in-memory
// list is reloaded from disk so memory and disk never diverge, mirroring
// updateLocalList's reload-on-persist-failure behavior.
func (s *Store) UpdateLocalList(listVersion int, differential bool, entries []ListEntry) error {
	s.mu.Lock()

	if !differential {
		s.list = make(map[string]IdTagInfo, len(entries))
	}
	for _, e := range entries {
		if e.Info.Status == "" {
			delete(s.list, e.IdTag)
			continue
		}
		s.list[e.IdTag] = e.Info
	}
	s.listVersion = listVersion

	lf := s.snapshotListLocked()
	s.mu.Unlock()

	if err := fsadapter.StoreJSON(s.fs, s.listFilename, &lf); err != nil {
		_ = s.LoadLists()
		return fmt.Errorf("authorization: persist list: %w", err)
	}
	return nil
}

func (s *Store) snapshotListLocked() listFile {
	lf := listFile{ListVersion: s.listVersion}
	for idTag, info := range s.list {
		lf.List = append(lf.List, ListEntry{IdTag: idTag, Info: info})
	}
	return lf
}

// AddCache records or refreshes a cache entry, evicting the oldest entry
// (FIFO) when the cache is at capacity. A failed persist reloads the cache
// from disk, matching addAutchCache's reload-on-failure behavior.
func (s *Store) AddCache(idTag string, info IdTagInfo) error {
	s.mu.Lock()
	if s.cacheCapacity <= 0 {
		s.mu.Unlock()
		return nil
	}
	if _, exists := s.cache[idTag]; !exists {
		for len(s.cache) >= s.cacheCapacity {
			oldest := s.cacheOrder[0]
			s.cacheOrder = s.cacheOrder[1:]
			delete(s.cache, oldest)
		}
		s.cacheOrder = append(s.cacheOrder, idTag)
	}
	s.cache[idTag] = info
	cf := s.snapshotCacheLocked()
	s.mu.Unlock()

	if err := fsadapter.StoreJSON(s.fs, s.cacheFilename, &cf); err != nil {
		_ = s.LoadLists()
		return fmt.Errorf("authorization: persist cache: %w", err)
	}
	return nil
}

func (s *Store) snapshotCacheLocked() cacheFile {
	cf := cacheFile{}
	for _, idTag := range s.cacheOrder {
		cf.Cache = append(cf.Cache, ListEntry{IdTag: idTag, Info: s.cache[idTag]})
	}
	return cf
}

// ClearCache empties the cache and removes its persisted file (ClearCache
// operation).
func (s *Store) ClearCache() error {
	s.mu.Lock()
	s.cache = make(map[string]IdTagInfo)
	s.cacheOrder = nil
	s.mu.Unlock()
	return s.fs.Remove(s.cacheFilename)
}

// GetLocalAuthorization answers an offline authorization request: the
// local list wins if it has an entry; otherwise the cache's verdict is
// returned as-is, including a non-Accepted status, so the caller can
// surface Blocked/Expired/Invalid without a server round trip.
func (s *Store) GetLocalAuthorization(idTag string, now time.Time) (IdTagInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listEnabled {
		if info, ok := s.list[idTag]; ok {
			if info.Status == StatusAccepted && info.expired(now) {
				info.Status = StatusExpired
			}
			return info, true
		}
	}
	if s.cacheEnabled {
		if info, ok := s.cache[idTag]; ok {
			if info.Status == StatusAccepted && info.expired(now) {
				info.Status = StatusExpired
			}
			return info, true
		}
	}
	return IdTagInfo{}, false
}

// NotifyAuthorization records the server's verdict in the cache and checks
// it against the local list for a conflict. It returns a non-nil Conflict
// (as an error, not a fatal one) when the two disagree; reporting it is up
// to the caller, and this core sends no StatusNotification for it. An empty-status server verdict or a local list
// without an entry for this idTag can never conflict, matching
// notifyAuthorization's early returns.
func (s *Store) NotifyAuthorization(idTag string, serverInfo IdTagInfo, now time.Time) (*Conflict, error) {
	if err := s.AddCache(idTag, serverInfo); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.listEnabled {
		return nil, nil
	}
	if serverInfo.Status == "" {
		return nil, nil
	}
	local, ok := s.list[idTag]
	if !ok {
		return nil, nil
	}

	normalizedServer := serverInfo.normalizeConcurrentTx()
	normalizedLocal := local
	if normalizedLocal.Status == StatusAccepted && normalizedLocal.expired(now) {
		normalizedLocal.Status = StatusExpired
	}

	if normalizedLocal.Status != normalizedServer.Status {
		return &Conflict{IdTag: idTag, Local: local, Server: serverInfo}, nil
	}
	if normalizedLocal.ParentIdTag != normalizedServer.ParentIdTag {
		return &Conflict{IdTag: idTag, Local: local, Server: serverInfo}, nil
	}
	return nil, nil
}
