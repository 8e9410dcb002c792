package transaction

import (
	"fmt"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
	"github.com/ruslanhut/ocpp-core/internal/variables"
)

// DefaultRingSize is MO_TXRECORD_SIZE: how many transaction records a single
// connector retains at once.
const DefaultRingSize = 4

// MaxTxCount is the modulus transaction numbers wrap around at, mirroring
// MicroOcpp's MAX_TX_CNT. Large enough that wraparound is a non-event for
// any station's service lifetime.
const MaxTxCount = 1_000_000

const component = "TxCtrlr"

// ErrRingFull is returned by CreateTransaction when a connector's ring has
// no room and the oldest record cannot be reclaimed (not yet
// Completed/Aborted) and silent offline transactions are disabled.
var ErrRingFull = fmt.Errorf("transaction: ring full")

type connRing struct {
	connectorID int
	beginKey    variables.Key
	endKey      variables.Key
	records     map[int]*Record // keyed by txNr % MaxTxCount, for [txBegin, txEnd)

	silentSeq   int
	silent      map[int]*Record // keyed by a private negative sequence; never persisted
}

// Store is the Transaction Store (component C8): a per-connector ring
// buffer of durable Records plus an in-memory cache that dedups concurrent
// holders of the same record. Grounded on MicroOcpp's TransactionStore.h /
// Transaction.h.
//
// The cooperative single-threaded driver model (spec.md §5) means Store is
// never accessed concurrently; no internal locking is needed.
type Store struct {
	fs       fsadapter.Adapter
	vars     *variables.Store
	ringSize int
	rings    map[int]*connRing
}

// New returns a Store backed by fs for persistence and vars for the
// txBegin/txEnd cursors, with ringSize records retained per connector
// (DefaultRingSize if ringSize <= 0).
func New(fs fsadapter.Adapter, vars *variables.Store, ringSize int) *Store {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	return &Store{fs: fs, vars: vars, ringSize: ringSize, rings: make(map[int]*connRing)}
}

func (s *Store) ring(connectorID int) *connRing {
	r, ok := s.rings[connectorID]
	if ok {
		return r
	}
	suffix := fmt.Sprintf("%d", connectorID)
	r = &connRing{
		connectorID: connectorID,
		beginKey:    variables.Key{Component: component, Name: "TxBegin." + suffix},
		endKey:      variables.Key{Component: component, Name: "TxEnd." + suffix},
		records:     make(map[int]*Record),
		silent:      make(map[int]*Record),
	}
	s.vars.Declare(r.beginKey, variables.TypeInt, "0", true, true, nil)
	s.vars.Declare(r.endKey, variables.TypeInt, "0", true, true, nil)
	s.rings[connectorID] = r
	return r
}

func (s *Store) cursor(key variables.Key) int {
	v, _ := s.vars.GetInt(key)
	return int(v)
}

func (s *Store) setCursor(key variables.Key, v int) error {
	return s.vars.Set(key, fmt.Sprintf("%d", v))
}

func (s *Store) filename(connectorID, txNr int) string {
	return fmt.Sprintf("tx-%d-%d.jsn", connectorID, txNr)
}

// StopTxDataFilename returns the path of connectorID/txNr's stop-tx meter
// data file (v1.6's StopTxnSampledData/StopTxnAlignedData accumulation).
func (s *Store) StopTxDataFilename(connectorID, txNr int) string {
	return fmt.Sprintf("sd-%d-%d.jsn", connectorID, txNr)
}

// Load reconstructs every connector's in-memory record cache from disk by
// walking [txBegin, txEnd) and loading each file. A missing file inside the
// window is skipped (it is guaranteed deleted, per spec.md §3's ring
// invariant) rather than treated as an error.
func (s *Store) Load(connectorIDs []int) error {
	for _, cid := range connectorIDs {
		r := s.ring(cid)
		begin := s.cursor(r.beginKey)
		end := s.cursor(r.endKey)
		for nr := begin; nr < end; nr++ {
			key := nr % MaxTxCount
			var rec Record
			ok, err := fsadapter.LoadJSON(s.fs, s.filename(cid, key), &rec)
			if err != nil {
				return fmt.Errorf("transaction: load connector %d tx %d: %w", cid, key, err)
			}
			if !ok {
				continue
			}
			r.records[key] = &rec
		}
	}
	return nil
}

// CreateTransaction allocates a new Record at the connector's txEnd cursor.
// If the ring is full, it first tries to reclaim the oldest record (only if
// Completed or Aborted). If that also fails and silentOfflineEnabled is
// true, a Silent record is created outside the ring's capacity accounting
// instead of failing outright (Silent records are never persisted and do
// not survive a restart).
func (s *Store) CreateTransaction(connectorID int, silentOfflineEnabled bool) (*Record, error) {
	r := s.ring(connectorID)
	begin := s.cursor(r.beginKey)
	end := s.cursor(r.endKey)

	if end-begin >= s.ringSize {
		oldest := r.records[begin%MaxTxCount]
		if oldest != nil && (oldest.IsCompleted() || oldest.IsAborted()) {
			if err := s.removeAt(r, begin); err != nil {
				return nil, err
			}
			begin = s.cursor(r.beginKey)
		}
	}

	if end-begin >= s.ringSize {
		if !silentOfflineEnabled {
			return nil, ErrRingFull
		}
		r.silentSeq--
		rec := newRecord(connectorID, r.silentSeq, true)
		r.silent[r.silentSeq] = rec
		return rec, nil
	}

	txNr := end % MaxTxCount
	rec := newRecord(connectorID, txNr, false)
	r.records[txNr] = rec
	if err := s.setCursor(r.endKey, end+1); err != nil {
		return nil, fmt.Errorf("transaction: advance txEnd: %w", err)
	}
	return rec, nil
}

func newRecord(connectorID, txNr int, silent bool) *Record {
	return &Record{
		ConnectorID:   connectorID,
		TxNr:          txNr,
		Silent:        silent,
		Active:        true,
		MeterStart:    -1,
		MeterStop:     -1,
		TransactionID: -1,
		RemoteStartID: -1,
	}
}

// GetTransaction returns the in-memory Record for (connectorID, txNr), if
// one is currently tracked. Silent records use a private negative txNr
// space and are only reachable by the pointer CreateTransaction returned;
// this lookup only covers durable, ring-tracked records.
func (s *Store) GetTransaction(connectorID, txNr int) (*Record, bool) {
	r := s.ring(connectorID)
	rec, ok := r.records[txNr%MaxTxCount]
	return rec, ok
}

// Active returns every durable record currently tracked for connectorID,
// in ring order (oldest first).
func (s *Store) Active(connectorID int) []*Record {
	r := s.ring(connectorID)
	begin := s.cursor(r.beginKey)
	end := s.cursor(r.endKey)
	out := make([]*Record, 0, end-begin)
	for nr := begin; nr < end; nr++ {
		if rec, ok := r.records[nr%MaxTxCount]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Remove deletes connectorID's oldest record (txBegin) and advances the
// cursor. It is an error to remove anything but the oldest record.
func (s *Store) Remove(connectorID, txNr int) error {
	r := s.ring(connectorID)
	begin := s.cursor(r.beginKey)
	if txNr%MaxTxCount != begin%MaxTxCount {
		return fmt.Errorf("transaction: remove: tx %d is not the oldest (txBegin=%d)", txNr, begin)
	}
	return s.removeAt(r, begin)
}

func (s *Store) removeAt(r *connRing, begin int) error {
	key := begin % MaxTxCount
	if err := s.fs.Remove(s.filename(r.connectorID, key)); err != nil {
		return fmt.Errorf("transaction: remove file: %w", err)
	}
	_ = s.fs.Remove(s.StopTxDataFilename(r.connectorID, key))
	delete(r.records, key)
	return s.setCursor(r.beginKey, begin+1)
}

// Commit persists rec. Silent records are never written to disk (they do
// not survive a restart by design). A failed commit leaves the in-memory
// record as the caller last set it -- dirty but not lost, per spec.md §7.
func (s *Store) Commit(rec *Record) error {
	if rec.Silent {
		return nil
	}
	if err := fsadapter.StoreJSON(s.fs, s.filename(rec.ConnectorID, rec.TxNr), rec); err != nil {
		return fmt.Errorf("transaction: commit connector %d tx %d: %w", rec.ConnectorID, rec.TxNr, err)
	}
	return nil
}

// BeginTransactionTimestamp is a small helper so callers don't reach into
// the clock package just to stamp a new record.
func BeginTransactionTimestamp(now time.Time) time.Time { return now }
