package core

import (
	"encoding/json"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/authorization"
	"github.com/ruslanhut/ocpp-core/internal/ocpp/v201"
	"github.com/ruslanhut/ocpp-core/internal/requestqueue"
	"github.com/ruslanhut/ocpp-core/internal/reservation"
	"github.com/ruslanhut/ocpp-core/internal/smartcharging"
	"github.com/ruslanhut/ocpp-core/internal/transaction"
	"github.com/ruslanhut/ocpp-core/internal/variables"
)

// registerV201Handlers installs the inbound OCPP 2.0.1 operation handlers
// (CSMS → Charging Station) this core answers, analogous to
// registerV16Handlers but against the device-model style Component+Variable
// addressing and the RequestStartTransaction/RequestStopTransaction pair
// that replaces v1.6's RemoteStart/RemoteStopTransaction.
func (c *Core) registerV201Handlers() {
	reg := c.Registry

	reg.Register("Reset", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.ResetRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			return requestqueue.HandlerResult{Payload: v201.ResetResponse{Status: "Accepted"}}
		}
	})

	reg.Register("UnlockConnector", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.UnlockConnectorRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			if _, ok := c.TxMach.Active(req.ConnectorId); ok {
				return requestqueue.HandlerResult{Payload: v201.UnlockConnectorResponse{Status: "UnlockFailed"}}
			}
			return requestqueue.HandlerResult{Payload: v201.UnlockConnectorResponse{Status: "Unlocked"}}
		}
	})

	reg.Register("ChangeAvailability", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.ChangeAvailabilityRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			return requestqueue.HandlerResult{Payload: v201.ChangeAvailabilityResponse{Status: "Accepted"}}
		}
	})

	reg.Register("ClearCache", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			if err := c.Auth.ClearCache(); err != nil {
				return requestqueue.HandlerResult{Payload: v201.ClearCacheResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v201.ClearCacheResponse{Status: "Accepted"}}
		}
	})

	reg.Register("DataTransfer", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			return requestqueue.HandlerResult{Payload: v201.DataTransferResponse{Status: "UnknownVendorId"}}
		}
	})

	reg.Register("TriggerMessage", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.TriggerMessageRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			return requestqueue.HandlerResult{Payload: v201.TriggerMessageResponse{Status: "NotImplemented"}}
		}
	})

	reg.Register("GetVariables", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.GetVariablesRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			resp := v201.GetVariablesResponse{}
			for _, item := range req.GetVariableData {
				key := variables.Key{Component: item.Component.Name, Name: item.Variable.Name}
				value, ok := c.Vars.Get(key)
				result := v201.GetVariableResult{
					AttributeType: item.AttributeType,
					Component:     item.Component,
					Variable:      item.Variable,
				}
				if !ok {
					result.AttributeStatus = v201.GetVariableStatusUnknownVariable
				} else {
					result.AttributeStatus = v201.GetVariableStatusAccepted
					result.AttributeValue = value
				}
				resp.GetVariableResult = append(resp.GetVariableResult, result)
			}
			return requestqueue.HandlerResult{Payload: resp}
		}
	})

	reg.Register("SetVariables", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.SetVariablesRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			resp := v201.SetVariablesResponse{}
			for _, item := range req.SetVariableData {
				key := variables.Key{Component: item.Component.Name, Name: item.Variable.Name}
				result := v201.SetVariableResult{
					AttributeType: item.AttributeType,
					Component:     item.Component,
					Variable:      item.Variable,
				}
				readOnly, declared := c.Vars.ReadOnly(key)
				switch {
				case !declared:
					result.AttributeStatus = v201.SetVariableStatusUnknownVariable
				case readOnly:
					result.AttributeStatus = v201.SetVariableStatusRejected
				default:
					if err := c.Vars.Set(key, item.AttributeValue); err != nil {
						result.AttributeStatus = v201.SetVariableStatusRejected
					} else {
						result.AttributeStatus = v201.SetVariableStatusAccepted
					}
				}
				resp.SetVariableResult = append(resp.SetVariableResult, result)
			}
			return requestqueue.HandlerResult{Payload: resp}
		}
	})

	reg.Register("RequestStartTransaction", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.RequestStartTransactionRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			connectorID := 0
			if req.EvseId != nil {
				connectorID = *req.EvseId
			}
			p := transaction.PendingRemoteStart{
				RemoteStartID: req.RemoteStartId,
				IdTag:         req.IdToken.IdToken,
			}
			if err := c.TxMach.RequestStart(connectorID, p); err != nil {
				return requestqueue.HandlerResult{Payload: v201.RequestStartTransactionResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v201.RequestStartTransactionResponse{Status: "Accepted"}}
		}
	})

	reg.Register("RequestStopTransaction", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.RequestStopTransactionRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			for _, cid := range c.connectorIDs {
				if rec, ok := c.TxMach.Active(cid); ok && rec.TransactionIDStr == req.TransactionId {
					c.TxMach.RequestStop(cid, transaction.StopReasonRemote, transaction.TriggerRemoteStop)
					return requestqueue.HandlerResult{Payload: v201.RequestStopTransactionResponse{Status: "Accepted"}}
				}
			}
			return requestqueue.HandlerResult{Payload: v201.RequestStopTransactionResponse{Status: "Rejected"}}
		}
	})

	reg.Register("GetTransactionStatus", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.GetTransactionStatusRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			for _, cid := range c.connectorIDs {
				if rec, ok := c.TxMach.Active(cid); ok && (req.TransactionId == "" || rec.TransactionIDStr == req.TransactionId) {
					ongoing := rec.IsRunning()
					return requestqueue.HandlerResult{Payload: v201.GetTransactionStatusResponse{OngoingIndicator: &ongoing, MessagesInQueue: c.Queue.Len() > 0}}
				}
			}
			return requestqueue.HandlerResult{Payload: v201.GetTransactionStatusResponse{MessagesInQueue: c.Queue.Len() > 0}}
		}
	})

	reg.Register("GetLocalListVersion", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			return requestqueue.HandlerResult{Payload: v201.GetLocalListVersionResponse{VersionNumber: c.Auth.ListVersion()}}
		}
	})

	reg.Register("SendLocalList", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.SendLocalListRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			entries := make([]authorization.ListEntry, 0, len(req.LocalAuthorizationList))
			for _, a := range req.LocalAuthorizationList {
				e := authorization.ListEntry{IdTag: a.IdToken.IdToken}
				if a.IdTokenInfo != nil {
					e.Info = authorization.IdTagInfo{Status: authorization.Status(a.IdTokenInfo.Status)}
					if a.IdTokenInfo.GroupIdToken != nil {
						e.Info.ParentIdTag = a.IdTokenInfo.GroupIdToken.IdToken
					}
					if a.IdTokenInfo.CacheExpiryDateTime != nil {
						t := a.IdTokenInfo.CacheExpiryDateTime.Time
						e.Info.ExpiryDate = &t
					}
				}
				entries = append(entries, e)
			}
			status := "Accepted"
			if err := c.Auth.UpdateLocalList(req.VersionNumber, req.UpdateType == "Differential", entries); err != nil {
				status = "VersionMismatch"
			}
			return requestqueue.HandlerResult{Payload: v201.SendLocalListResponse{Status: status}}
		}
	})

	reg.Register("ReserveNow", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.ReserveNowRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			connectorID := 0
			if req.EVSEId != nil {
				connectorID = *req.EVSEId
			}
			if _, ok := c.TxMach.Active(connectorID); ok {
				return requestqueue.HandlerResult{Payload: v201.ReserveNowResponse{Status: "Occupied"}}
			}
			parent := ""
			if req.GroupIdToken != nil {
				parent = req.GroupIdToken.IdToken
			}
			_, err := c.Reserve.ReserveNow(connectorID, req.Id, req.IdToken.IdToken, parent, req.ExpiryDateTime.Time, c.clk.Now())
			if err != nil {
				status := "Rejected"
				if err == reservation.ErrNoFreeSlot {
					status = "Faulted"
				}
				return requestqueue.HandlerResult{Payload: v201.ReserveNowResponse{Status: status}}
			}
			return requestqueue.HandlerResult{Payload: v201.ReserveNowResponse{Status: "Accepted"}}
		}
	})

	reg.Register("CancelReservation", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.CancelReservationRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			found, err := c.Reserve.CancelReservation(req.ReservationId, c.clk.Now())
			if err != nil || !found {
				return requestqueue.HandlerResult{Payload: v201.CancelReservationResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v201.CancelReservationResponse{Status: "Accepted"}}
		}
	})

	reg.Register("SetChargingProfile", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.SetChargingProfileRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			profile := wireChargingProfileToInternal201(req.ChargingProfile)
			if err := c.Smart.SetProfile(req.EVSEId, profile); err != nil {
				return requestqueue.HandlerResult{Payload: v201.SetChargingProfileResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v201.SetChargingProfileResponse{Status: "Accepted"}}
		}
	})

	reg.Register("ClearChargingProfile", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.ClearChargingProfileRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			cleared := c.Smart.ClearProfiles(func(id, stackLevel int, purpose smartcharging.Purpose, connectorID int) bool {
				if req.ChargingProfileId != nil && *req.ChargingProfileId != id {
					return false
				}
				if req.ChargingProfileCriteria != nil {
					crit := req.ChargingProfileCriteria
					if crit.EvseId != nil && *crit.EvseId != connectorID {
						return false
					}
					if crit.ChargingProfilePurpose != "" && string(purpose) != crit.ChargingProfilePurpose {
						return false
					}
					if crit.StackLevel != nil && *crit.StackLevel != stackLevel {
						return false
					}
				}
				return true
			})
			status := "Unknown"
			if cleared {
				status = "Accepted"
			}
			return requestqueue.HandlerResult{Payload: v201.ClearChargingProfileResponse{Status: status}}
		}
	})

	reg.Register("GetCompositeSchedule", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.GetCompositeScheduleRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			unit := smartcharging.RateUnit(req.ChargingRateUnit)
			if unit == "" {
				unit = smartcharging.RateUnitWatt
			}
			cs := c.Smart.GetCompositeSchedule(req.EVSEId, c.clk.Now(), time.Duration(req.Duration)*time.Second, unit)
			resp := v201.GetCompositeScheduleResponse{
				Status: "Accepted",
				Schedule: &v201.ChargingSchedule{
					Duration:               intPtr(cs.Duration),
					StartSchedule:          &v201.DateTime{Time: cs.ScheduleStart},
					ChargingRateUnit:       string(cs.ChargingRateUnit),
					ChargingSchedulePeriod: internalPeriodsToWire201(cs.Periods),
				},
			}
			return requestqueue.HandlerResult{Payload: resp}
		}
	})

	reg.Register("GetChargingProfiles", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.GetChargingProfilesRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			return requestqueue.HandlerResult{Payload: v201.GetChargingProfilesResponse{Status: "Accepted"}}
		}
	})

	reg.Register("UpdateFirmware", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.UpdateFirmwareRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			return requestqueue.HandlerResult{Payload: v201.UpdateFirmwareResponse{Status: "Accepted"}}
		}
	})

	reg.Register("GetLog", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v201.GetLogRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			return requestqueue.HandlerResult{Payload: v201.GetLogResponse{Status: "Accepted"}}
		}
	})
}

func wireChargingProfileToInternal201(p v201.ChargingProfile) *smartcharging.Profile {
	profile := &smartcharging.Profile{
		ID:                   p.Id,
		StackLevel:           p.StackLevel,
		Purpose:              smartcharging.Purpose(p.ChargingProfilePurpose),
		Kind:                 smartcharging.Kind(p.ChargingProfileKind),
		RecurrencyKind:       smartcharging.RecurrencyKind(p.RecurrencyKind),
		ChargingProfileID201: p.TransactionId,
	}
	if p.ValidFrom != nil {
		t := p.ValidFrom.Time
		profile.ValidFrom = &t
	}
	if p.ValidTo != nil {
		t := p.ValidTo.Time
		profile.ValidTo = &t
	}
	if len(p.ChargingSchedule) > 0 {
		sched := p.ChargingSchedule[0]
		s := smartcharging.Schedule{
			ChargingRateUnit: smartcharging.RateUnit(sched.ChargingRateUnit),
			MinChargingRate:  sched.MinChargingRate,
		}
		if sched.Duration != nil {
			s.Duration = sched.Duration
		}
		if sched.StartSchedule != nil {
			t := sched.StartSchedule.Time
			s.StartSchedule = &t
		}
		for _, period := range sched.ChargingSchedulePeriod {
			s.ChargingSchedulePeriod = append(s.ChargingSchedulePeriod, smartcharging.SchedulePeriod{
				StartPeriod:  period.StartPeriod,
				Limit:        period.Limit,
				NumberPhases: period.NumberPhases,
			})
		}
		profile.Schedule = s
	}
	return profile
}

func internalPeriodsToWire201(periods []smartcharging.SchedulePeriod) []v201.ChargingSchedulePeriod {
	out := make([]v201.ChargingSchedulePeriod, 0, len(periods))
	for _, p := range periods {
		out = append(out, v201.ChargingSchedulePeriod{StartPeriod: p.StartPeriod, Limit: p.Limit, NumberPhases: p.NumberPhases})
	}
	return out
}
