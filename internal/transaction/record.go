// Package transaction implements the Transaction Store (component C8) and
// the Transaction State Machine (component C9).
//
// Grounded on MicroOcpp's Model/Transactions/{Transaction.h,
// TransactionStore.h, TransactionService.cpp}: a ring-buffered, per-connector
// set of durable transaction records plus the cooperative per-tick
// evaluation loop that starts, updates and stops them.
package transaction

import (
	"time"

	"github.com/ruslanhut/ocpp-core/internal/metering"
)

// SyncStatus tracks whether a durable fact (transaction start or stop) has
// been sent to the server and confirmed, mirroring MicroOcpp's SendStatus.
type SyncStatus struct {
	Requested bool `json:"requested"`
	Confirmed bool `json:"confirmed"`
}

// SetRequested marks the fact as enqueued for sending.
func (s *SyncStatus) SetRequested() { s.Requested = true }

// Confirm marks the fact as acknowledged by the server.
func (s *SyncStatus) Confirm() { s.Confirmed = true }

// ChargingState mirrors OCPP 2.0.1's ChargingStateEnumType.
type ChargingState string

const (
	ChargingStateUndefined     ChargingState = ""
	ChargingStateCharging      ChargingState = "Charging"
	ChargingStateEVConnected   ChargingState = "EVConnected"
	ChargingStateSuspendedEV   ChargingState = "SuspendedEV"
	ChargingStateSuspendedEVSE ChargingState = "SuspendedEVSE"
	ChargingStateIdle          ChargingState = "Idle"
)

// TriggerReason mirrors OCPP 2.0.1's TriggerReasonEnumType, the subset this
// core actually emits.
type TriggerReason string

const (
	TriggerUndefined          TriggerReason = ""
	TriggerAuthorized         TriggerReason = "Authorized"
	TriggerCablePluggedIn     TriggerReason = "CablePluggedIn"
	TriggerChargingStateChanged TriggerReason = "ChargingStateChanged"
	TriggerDeauthorized       TriggerReason = "Deauthorized"
	TriggerEVCommunicationLost TriggerReason = "EVCommunicationLost"
	TriggerEVConnectTimeout   TriggerReason = "EVConnectTimeout"
	TriggerMeterValueClock    TriggerReason = "MeterValueClock"
	TriggerMeterValuePeriodic TriggerReason = "MeterValuePeriodic"
	TriggerStopAuthorized     TriggerReason = "StopAuthorized"
	TriggerEVDeparted         TriggerReason = "EVDeparted"
	TriggerRemoteStop         TriggerReason = "RemoteStop"
	TriggerRemoteStart        TriggerReason = "RemoteStart"
	TriggerTrigger            TriggerReason = "Trigger"
)

// StopReason mirrors OCPP's ReasonEnumType / 1.6 Reason.
type StopReason string

const (
	StopReasonUndefined        StopReason = ""
	StopReasonDeAuthorized     StopReason = "DeAuthorized"
	StopReasonEVDisconnected   StopReason = "EVDisconnected"
	StopReasonLocal            StopReason = "Local"
	StopReasonOther            StopReason = "Other"
	StopReasonRemote           StopReason = "Remote"
	StopReasonTimeout          StopReason = "Timeout"
	StopReasonStoppedByEV      StopReason = "StoppedByEV"
)

// Record is the durable state of a single transaction: the fields MicroOcpp
// splits across ITransaction/Transaction/Ocpp201::Transaction, flattened
// into one struct since Go has no need for the C++ version-specific
// subclass split.
type Record struct {
	ConnectorID int  `json:"connectorId"`
	TxNr        int  `json:"txNr"` // internal ring key, distinct from the server transactionId
	Silent      bool `json:"silent"`
	Active      bool `json:"active"`

	Authorized   bool `json:"authorized"`
	Deauthorized bool `json:"deauthorized"`

	BeginTimestamp time.Time `json:"beginTimestamp"`
	ReservationID  int       `json:"reservationId"`
	TxProfileID    int       `json:"txProfileId"`

	StartSync      SyncStatus `json:"startSync"`
	StartTimestamp time.Time  `json:"startTimestamp"`
	StartBootNr    uint16     `json:"startBootNr"`

	StopSync      SyncStatus `json:"stopSync"`
	StopTimestamp time.Time  `json:"stopTimestamp"`
	StopBootNr    uint16     `json:"stopBootNr"`

	// OCPP 1.6 fields
	IdTag          string     `json:"idTag"`
	ParentIdTag    string     `json:"parentIdTag"`
	MeterStart     int32      `json:"meterStart"` // -1 means undefined
	TransactionID  int        `json:"transactionId"` // -1 until confirmed
	StopIdTag      string     `json:"stopIdTag"`
	MeterStop      int32      `json:"meterStop"` // -1 means undefined
	StopReasonV16  StopReason `json:"stopReasonV16"`

	// OCPP 2.0.1 fields
	TransactionIDStr string        `json:"transactionIdStr"`
	RemoteStartID    int           `json:"remoteStartId"`
	SeqNoCounter     int           `json:"seqNoCounter"`
	ChargingState    ChargingState `json:"chargingState"`

	TrackEVConnected      bool `json:"trackEvConnected"`
	TrackAuthorized       bool `json:"trackAuthorized"`
	TrackDataSigned       bool `json:"trackDataSigned"`
	TrackPowerPathClosed  bool `json:"trackPowerPathClosed"`
	TrackEnergyTransfer   bool `json:"trackEnergyTransfer"`

	NotifyEvseID        bool `json:"notifyEvseId"`
	NotifyIdToken       bool `json:"notifyIdToken"`
	NotifyStopIdToken   bool `json:"notifyStopIdToken"`
	NotifyReservationID bool `json:"notifyReservationId"`
	NotifyChargingState bool `json:"notifyChargingState"`
	NotifyRemoteStartID bool `json:"notifyRemoteStartId"`
	NotifyMeterValue    bool `json:"notifyMeterValue"`

	EVConnectionTimeoutListen bool `json:"evConnectionTimeoutListen"`

	StopReasonV201     StopReason    `json:"stopReasonV201"`
	StopTrigger        TriggerReason `json:"stopTrigger"`
	StopIdToken        string        `json:"stopIdToken"` // empty means "equals idTag"
	StartTriggerReason TriggerReason `json:"startTriggerReason"`

	ClockMeterValue    []metering.Sample `json:"clockMeterValue,omitempty"`
	PeriodicMeterValue []metering.Sample `json:"periodicMeterValue,omitempty"`
	TriggerMeterValue  []metering.Sample `json:"triggerMeterValue,omitempty"`

	// StopTxSampledData accumulates every sample taken during the
	// transaction's lifetime for inclusion in the v1.6 StopTransaction's
	// transactionData. It is held in memory only: the field is left out of
	// the record's JSON and nothing writes sd-<cid>-<txNr>.jsn (the Store
	// only removes that file), so the samples do not survive a restart.
	StopTxSampledData []metering.Sample `json:"-"`

	// PendingStopReason/PendingStopTrigger record that a stop condition has
	// matched (entering Stopping) but stopTxReady() has not yet held, so
	// the terminal commit/emit is still outstanding. Empty means no stop is
	// pending.
	PendingStopReason  StopReason    `json:"pendingStopReason,omitempty"`
	PendingStopTrigger TriggerReason `json:"pendingStopTrigger,omitempty"`
}

// IsRunning mirrors ITransaction::isRunning: start has been requested and
// stop has not.
func (r *Record) IsRunning() bool {
	return r.StartSync.Requested && !r.StopSync.Requested
}

// IsAborted mirrors ITransaction::isAborted: it ended before StartTx was
// ever sent.
func (r *Record) IsAborted() bool {
	return !r.StartSync.Requested && !r.Active
}

// IsCompleted mirrors ITransaction::isCompleted: the stop leg is confirmed.
func (r *Record) IsCompleted() bool {
	return r.StopSync.Confirmed
}

// IsPreparing mirrors the Preparing lifecycle state: start has not been
// requested yet and the record is still active.
func (r *Record) IsPreparing() bool {
	return !r.StartSync.Requested && r.Active
}

// IsStopping mirrors the Stopping lifecycle state: start was requested,
// stop has been requested but not yet confirmed.
func (r *Record) IsStopping() bool {
	return r.StartSync.Requested && r.StopSync.Requested && !r.StopSync.Confirmed
}

// IsMeterStartDefined mirrors Transaction::isMeterStartDefined.
func (r *Record) IsMeterStartDefined() bool { return r.MeterStart >= 0 }

// IsMeterStopDefined mirrors Transaction::isMeterStopDefined.
func (r *Record) IsMeterStopDefined() bool { return r.MeterStop >= 0 }

// EffectiveStopIdToken returns the idToken that should be reported as
// having stopped the transaction: StopIdToken if set, else IdTag.
func (r *Record) EffectiveStopIdToken() string {
	if r.StopIdToken != "" {
		return r.StopIdToken
	}
	return r.IdTag
}
