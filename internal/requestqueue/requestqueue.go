// Package requestqueue implements the Request Queue & Operation Registry
// (component C10): at-most-once outbound delivery with store-before-send
// for durable operations, and dispatch of inbound operations via a
// constructor registry.
//
// Grounded on the teacher's internal/ocpp/v16/handler.go dispatch idiom and
// internal/ocpp/message.go's Call/CallResult/CallError framing, generalized
// per spec.md §4.6/§5 from "inbound handler table" into "outbound durable
// queue + inbound registry" and a cooperative, non-blocking Tick.
package requestqueue

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/fsadapter"
)

// Operation is one outbound Call awaiting dispatch. CreateReq is invoked
// lazily at send time (not at enqueue time) so a caller can build the
// payload from whatever state is freshest, matching MicroOcpp's
// Operation::createReq deferred-build idiom.
type Operation struct {
	Action   string
	OpNr     int
	CreateReq func() (interface{}, error)
	OnConf   func(payload []byte)
	OnAbort  func()
	Timeout  time.Duration

	// Durable operations persist a restorable payload before the wire send
	// and are deleted from disk only after the server confirms. Kind/Payload
	// are opaque to the queue; internal/core's startup replay rebuilds an
	// Operation from them after a restart.
	Durable bool
	Kind    string
	Payload interface{}

	enqueuedAt time.Time
	sentAt     time.Time
	uniqueID   string
}

// Transport is the minimal non-blocking wire channel the queue depends on.
// Poll returns the next inbound frame if one is buffered; Send enqueues an
// outbound frame for the transport to deliver whenever it is ready. Neither
// call blocks: suspension is modeled by returning early from Tick, per
// spec.md §5.
type Transport interface {
	Connected() bool
	Send(frame []byte) bool
	Poll() (frame []byte, ok bool)
}

// DurableStore persists and restores the opaque payload of a durable
// operation across a restart, one file per opNr (op-<opNr>.jsn per spec.md
// §6).
type DurableStore struct {
	fs fsadapter.Adapter
}

// NewDurableStore returns a DurableStore writing through fs.
func NewDurableStore(fs fsadapter.Adapter) *DurableStore {
	return &DurableStore{fs: fs}
}

func (d *DurableStore) path(opNr int) string {
	return fmt.Sprintf("op-%d.jsn", opNr)
}

// Persist writes kind+payload for opNr before the wire send.
func (d *DurableStore) Persist(opNr int, kind string, payload interface{}) error {
	row := struct {
		Kind    string      `json:"kind"`
		Payload interface{} `json:"payload"`
	}{Kind: kind, Payload: payload}
	return fsadapter.StoreJSON(d.fs, d.path(opNr), row)
}

// Forget deletes the persisted row once the server has confirmed the
// operation (or it has been abandoned as confirmed-lossy per spec.md §7.3).
func (d *DurableStore) Forget(opNr int) error {
	return d.fs.Remove(d.path(opNr))
}

// PendingRow is one durable operation row recovered at restart.
type PendingRow struct {
	OpNr    int
	Kind    string
	Payload []byte
}

// LoadPending scans the filesystem for undeleted op-*.jsn files and returns
// them ordered by opNr, the order they must replay in.
func (d *DurableStore) LoadPending() ([]PendingRow, error) {
	names, err := d.fs.List("op-")
	if err != nil {
		return nil, fmt.Errorf("requestqueue: list pending ops: %w", err)
	}
	rows := make([]PendingRow, 0, len(names))
	for _, name := range names {
		var opNr int
		if _, err := fmt.Sscanf(name, "op-%d.jsn", &opNr); err != nil {
			continue
		}
		data, err := d.fs.Load(name)
		if err != nil {
			continue
		}
		var row struct {
			Kind    string          `json:"kind"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &row); err != nil {
			continue
		}
		rows = append(rows, PendingRow{OpNr: opNr, Kind: row.Kind, Payload: row.Payload})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].OpNr < rows[j].OpNr })
	return rows, nil
}
