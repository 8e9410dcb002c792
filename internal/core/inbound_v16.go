package core

import (
	"encoding/json"
	"time"

	"github.com/ruslanhut/ocpp-core/internal/authorization"
	"github.com/ruslanhut/ocpp-core/internal/ocpp"
	"github.com/ruslanhut/ocpp-core/internal/ocpp/v16"
	"github.com/ruslanhut/ocpp-core/internal/requestqueue"
	"github.com/ruslanhut/ocpp-core/internal/reservation"
	"github.com/ruslanhut/ocpp-core/internal/smartcharging"
	"github.com/ruslanhut/ocpp-core/internal/transaction"
	"github.com/ruslanhut/ocpp-core/internal/variables"
)

// registerV16Handlers installs the inbound OCPP 1.6J operation handlers
// (CSMS → Charge Point) this core answers, grounded on the teacher's
// internal/ocpp/v16/handler.go action switch, generalized from per-station
// callbacks into direct calls against this Core's own components.
func (c *Core) registerV16Handlers() {
	reg := c.Registry

	reg.Register("Reset", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.ResetRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			c.logger.Info("core: Reset requested", "type", req.Type)
			return requestqueue.HandlerResult{Payload: v16.ResetResponse{Status: "Accepted"}}
		}
	})

	reg.Register("UnlockConnector", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.UnlockConnectorRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			if _, ok := c.TxMach.Active(req.ConnectorId); ok {
				return requestqueue.HandlerResult{Payload: v16.UnlockConnectorResponse{Status: "UnlockFailed"}}
			}
			return requestqueue.HandlerResult{Payload: v16.UnlockConnectorResponse{Status: "Unlocked"}}
		}
	})

	reg.Register("ChangeAvailability", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.ChangeAvailabilityRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			return requestqueue.HandlerResult{Payload: v16.ChangeAvailabilityResponse{Status: "Accepted"}}
		}
	})

	reg.Register("ChangeConfiguration", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.ChangeConfigurationRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			key := variables.Key{Name: req.Key}
			if readOnly, declared := c.Vars.ReadOnly(key); !declared {
				return requestqueue.HandlerResult{Payload: v16.ChangeConfigurationResponse{Status: "NotSupported"}}
			} else if readOnly {
				return requestqueue.HandlerResult{Payload: v16.ChangeConfigurationResponse{Status: "Rejected"}}
			}
			if err := c.Vars.Set(key, req.Value); err != nil {
				return requestqueue.HandlerResult{Payload: v16.ChangeConfigurationResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v16.ChangeConfigurationResponse{Status: "Accepted"}}
		}
	})

	reg.Register("GetConfiguration", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.GetConfigurationRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			resp := v16.GetConfigurationResponse{}
			keys := req.Key
			if len(keys) == 0 {
				for _, k := range c.Vars.Keys() {
					keys = append(keys, k.Name)
				}
			}
			for _, name := range keys {
				key := variables.Key{Name: name}
				value, ok := c.Vars.Get(key)
				if !ok {
					resp.UnknownKey = append(resp.UnknownKey, name)
					continue
				}
				readOnly, _ := c.Vars.ReadOnly(key)
				resp.ConfigurationKey = append(resp.ConfigurationKey, v16.KeyValue{Key: name, Readonly: readOnly, Value: value})
			}
			return requestqueue.HandlerResult{Payload: resp}
		}
	})

	reg.Register("ClearCache", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			if err := c.Auth.ClearCache(); err != nil {
				return requestqueue.HandlerResult{Payload: v16.ClearCacheResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v16.ClearCacheResponse{Status: "Accepted"}}
		}
	})

	reg.Register("GetLocalListVersion", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			return requestqueue.HandlerResult{Payload: v16.GetLocalListVersionResponse{ListVersion: c.Auth.ListVersion()}}
		}
	})

	reg.Register("SendLocalList", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.SendLocalListRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			entries := make([]authorization.ListEntry, 0, len(req.LocalAuthorizationList))
			for _, a := range req.LocalAuthorizationList {
				e := authorization.ListEntry{IdTag: a.IdTag}
				if a.IdTagInfo != nil {
					e.Info = authorization.IdTagInfo{
						Status:      authorization.Status(a.IdTagInfo.Status),
						ParentIdTag: a.IdTagInfo.ParentIdTag,
					}
					if a.IdTagInfo.ExpiryDate != nil {
						t := a.IdTagInfo.ExpiryDate.Time
						e.Info.ExpiryDate = &t
					}
				}
				entries = append(entries, e)
			}
			status := "Accepted"
			if err := c.Auth.UpdateLocalList(req.ListVersion, req.UpdateType == "Differential", entries); err != nil {
				status = "VersionMismatch"
			}
			return requestqueue.HandlerResult{Payload: v16.SendLocalListResponse{Status: status}}
		}
	})

	reg.Register("RemoteStartTransaction", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.RemoteStartTransactionRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			connectorID := 0
			if req.ConnectorId != nil {
				connectorID = *req.ConnectorId
			}
			if err := c.TxMach.RequestStart(connectorID, transaction.PendingRemoteStart{IdTag: req.IdTag}); err != nil {
				return requestqueue.HandlerResult{Payload: v16.RemoteStartTransactionResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v16.RemoteStartTransactionResponse{Status: "Accepted"}}
		}
	})

	reg.Register("RemoteStopTransaction", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.RemoteStopTransactionRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			for _, cid := range c.connectorIDs {
				if rec, ok := c.TxMach.Active(cid); ok && rec.TransactionID == req.TransactionId {
					c.TxMach.RequestStop(cid, transaction.StopReasonRemote, transaction.TriggerRemoteStop)
					return requestqueue.HandlerResult{Payload: v16.RemoteStopTransactionResponse{Status: "Accepted"}}
				}
			}
			return requestqueue.HandlerResult{Payload: v16.RemoteStopTransactionResponse{Status: "Rejected"}}
		}
	})

	reg.Register("ReserveNow", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.ReserveNowRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			if _, ok := c.TxMach.Active(req.ConnectorId); ok {
				return requestqueue.HandlerResult{Payload: v16.ReserveNowResponse{Status: "Occupied"}}
			}
			_, err := c.Reserve.ReserveNow(req.ConnectorId, req.ReservationId, req.IdTag, req.ParentIdTag, req.ExpiryDate.Time, c.clk.Now())
			if err != nil {
				status := "Rejected"
				if err == reservation.ErrNoFreeSlot {
					status = "Faulted"
				}
				return requestqueue.HandlerResult{Payload: v16.ReserveNowResponse{Status: status}}
			}
			return requestqueue.HandlerResult{Payload: v16.ReserveNowResponse{Status: "Accepted"}}
		}
	})

	reg.Register("CancelReservation", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.CancelReservationRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			found, err := c.Reserve.CancelReservation(req.ReservationId, c.clk.Now())
			if err != nil || !found {
				return requestqueue.HandlerResult{Payload: v16.CancelReservationResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v16.CancelReservationResponse{Status: "Accepted"}}
		}
	})

	reg.Register("SetChargingProfile", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.SetChargingProfileRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			profile := wireChargingProfileToInternal(req.CsChargingProfiles)
			if err := c.Smart.SetProfile(req.ConnectorId, profile); err != nil {
				return requestqueue.HandlerResult{Payload: v16.SetChargingProfileResponse{Status: "Rejected"}}
			}
			return requestqueue.HandlerResult{Payload: v16.SetChargingProfileResponse{Status: "Accepted"}}
		}
	})

	reg.Register("ClearChargingProfile", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.ClearChargingProfileRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			cleared := c.Smart.ClearProfiles(func(id, stackLevel int, purpose smartcharging.Purpose, connectorID int) bool {
				if req.Id != nil && *req.Id != id {
					return false
				}
				if req.ConnectorId != nil && *req.ConnectorId != connectorID {
					return false
				}
				if req.ChargingProfilePurpose != "" && string(purpose) != req.ChargingProfilePurpose {
					return false
				}
				if req.StackLevel != nil && *req.StackLevel != stackLevel {
					return false
				}
				return true
			})
			status := "Unknown"
			if cleared {
				status = "Accepted"
			}
			return requestqueue.HandlerResult{Payload: v16.ClearChargingProfileResponse{Status: status}}
		}
	})

	reg.Register("GetCompositeSchedule", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.GetCompositeScheduleRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			unit := smartcharging.RateUnit(req.ChargingRateUnit)
			if unit == "" {
				unit = smartcharging.RateUnitWatt
			}
			cs := c.Smart.GetCompositeSchedule(req.ConnectorId, c.clk.Now(), time.Duration(req.Duration)*time.Second, unit)
			connectorID := req.ConnectorId
			start := v16.DateTime{Time: cs.ScheduleStart}
			resp := v16.GetCompositeScheduleResponse{
				Status:        "Accepted",
				ConnectorId:   &connectorID,
				ScheduleStart: &start,
				ChargingSchedule: &v16.ChargingSchedule{
					Duration:               intPtr(cs.Duration),
					ChargingRateUnit:       string(cs.ChargingRateUnit),
					ChargingSchedulePeriod: internalPeriodsToWire(cs.Periods),
				},
			}
			return requestqueue.HandlerResult{Payload: resp}
		}
	})

	reg.Register("TriggerMessage", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			var req v16.TriggerMessageRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return badRequest(err)
			}
			return requestqueue.HandlerResult{Payload: v16.TriggerMessageResponse{Status: "NotImplemented"}}
		}
	})

	reg.Register("GetDiagnostics", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			return requestqueue.HandlerResult{Payload: v16.GetDiagnosticsResponse{}}
		}
	})

	reg.Register("UpdateFirmware", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			return requestqueue.HandlerResult{Payload: v16.UpdateFirmwareResponse{}}
		}
	})

	reg.Register("DataTransfer", func() requestqueue.Handler {
		return func(payload json.RawMessage) requestqueue.HandlerResult {
			return requestqueue.HandlerResult{Payload: v16.DataTransferResponse{Status: "UnknownVendorId"}}
		}
	})
}

func badRequest(err error) requestqueue.HandlerResult {
	return requestqueue.HandlerResult{Err: &requestqueue.HandlerError{
		Code: ocpp.ErrorCodeFormationViolation,
		Desc: err.Error(),
	}}
}

func intPtr(v int) *int { return &v }

func internalPeriodsToWire(periods []smartcharging.SchedulePeriod) []v16.ChargingSchedulePeriod {
	out := make([]v16.ChargingSchedulePeriod, 0, len(periods))
	for _, p := range periods {
		out = append(out, v16.ChargingSchedulePeriod{StartPeriod: p.StartPeriod, Limit: p.Limit, NumberPhases: p.NumberPhases})
	}
	return out
}

func wireChargingProfileToInternal(p v16.ChargingProfile) *smartcharging.Profile {
	sched := smartcharging.Schedule{
		ChargingRateUnit: smartcharging.RateUnit(p.ChargingSchedule.ChargingRateUnit),
		MinChargingRate:  p.ChargingSchedule.MinChargingRate,
	}
	if p.ChargingSchedule.Duration != nil {
		sched.Duration = p.ChargingSchedule.Duration
	}
	if p.ChargingSchedule.StartSchedule != nil {
		t := p.ChargingSchedule.StartSchedule.Time
		sched.StartSchedule = &t
	}
	for _, period := range p.ChargingSchedule.ChargingSchedulePeriod {
		sched.ChargingSchedulePeriod = append(sched.ChargingSchedulePeriod, smartcharging.SchedulePeriod{
			StartPeriod:  period.StartPeriod,
			Limit:        period.Limit,
			NumberPhases: period.NumberPhases,
		})
	}
	profile := &smartcharging.Profile{
		ID:             p.ChargingProfileId,
		StackLevel:     p.StackLevel,
		Purpose:        smartcharging.Purpose(p.ChargingProfilePurpose),
		Kind:           smartcharging.Kind(p.ChargingProfileKind),
		RecurrencyKind: smartcharging.RecurrencyKind(p.RecurrencyKind),
		Schedule:       sched,
	}
	if p.TransactionId != nil {
		profile.TransactionID = *p.TransactionId
	}
	if p.ValidFrom != nil {
		t := p.ValidFrom.Time
		profile.ValidFrom = &t
	}
	if p.ValidTo != nil {
		t := p.ValidTo.Time
		profile.ValidTo = &t
	}
	return profile
}
