package v16

import (
	"encoding/json"
	"testing"
	"time"
)

// TestStartTransactionRequestMatchesDispatchShape mirrors the payload
// internal/core.enqueueStartTransactionV16 builds from a transaction.Event,
// so a drift in field names or JSON tags here would silently break that
// dispatch path.
func TestStartTransactionRequestMatchesDispatchShape(t *testing.T) {
	req := StartTransactionRequest{
		ConnectorId: 1,
		IdTag:       "TAG123",
		MeterStart:  0,
		Timestamp:   DateTime{Time: time.Now()},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal StartTransactionRequest: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal to map: %v", err)
	}
	for _, field := range []string{"connectorId", "idTag", "meterStart", "timestamp"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected field %q in encoded StartTransactionRequest", field)
		}
	}

	resp := StartTransactionResponse{
		IdTagInfo:     IdTagInfo{Status: AuthorizationStatusAccepted},
		TransactionId: 12345,
	}
	respData, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal StartTransactionResponse: %v", err)
	}
	var parsedResp StartTransactionResponse
	if err := json.Unmarshal(respData, &parsedResp); err != nil {
		t.Fatalf("unmarshal StartTransactionResponse: %v", err)
	}
	if parsedResp.TransactionId != resp.TransactionId {
		t.Errorf("TransactionId mismatch: expected %d, got %d", resp.TransactionId, parsedResp.TransactionId)
	}
	if parsedResp.IdTagInfo.Status != AuthorizationStatusAccepted {
		t.Errorf("Status mismatch: got %s", parsedResp.IdTagInfo.Status)
	}
}

// TestStopTransactionRequestReasonIsOneOfStopReasonCast asserts that every
// Reason this core's outbound path can produce (it casts a
// transaction.StopReason directly into a Reason) round-trips through JSON
// unchanged, since the cast performs no validation of its own.
func TestStopTransactionRequestReasonIsOneOfStopReasonCast(t *testing.T) {
	reasons := []Reason{
		ReasonDeAuthorized,
		ReasonEVDisconnected,
		ReasonLocal,
		ReasonOther,
		ReasonRemote,
		ReasonStoppedByEV,
		ReasonTimeout,
	}

	for _, reason := range reasons {
		req := StopTransactionRequest{
			TransactionId: 12345,
			IdTag:         "TAG123",
			MeterStop:     15000,
			Timestamp:     DateTime{Time: time.Now()},
			Reason:        reason,
		}

		data, err := json.Marshal(req)
		if err != nil {
			t.Fatalf("marshal StopTransactionRequest with reason %s: %v", reason, err)
		}

		var parsed StopTransactionRequest
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("unmarshal StopTransactionRequest with reason %s: %v", reason, err)
		}
		if parsed.Reason != reason {
			t.Errorf("Reason mismatch: expected %s, got %s", reason, parsed.Reason)
		}
		if parsed.TransactionId != req.TransactionId {
			t.Errorf("TransactionId mismatch: expected %d, got %d", req.TransactionId, parsed.TransactionId)
		}
	}
}

// TestMeterValuesRequestFromSamplesToV16Shape exercises the same grouping
// shape samplesToV16 produces: one MeterValue per distinct timestamp,
// carrying one or more SampledValue entries.
func TestMeterValuesRequestFromSamplesToV16Shape(t *testing.T) {
	transactionId := 12345
	req := MeterValuesRequest{
		ConnectorId:   1,
		TransactionId: &transactionId,
		MeterValue: []MeterValue{
			{
				Timestamp: DateTime{Time: time.Now()},
				SampledValue: []SampledValue{
					{
						Value:     "7200",
						Context:   ReadingContextSamplePeriodic,
						Measurand: MeasurandPowerActiveImport,
						Unit:      UnitOfMeasureW,
						Location:  LocationOutlet,
					},
					{
						Value:     "2500",
						Context:   ReadingContextSamplePeriodic,
						Measurand: MeasurandEnergyActiveImportRegister,
						Unit:      UnitOfMeasureWh,
					},
				},
			},
		},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal MeterValuesRequest: %v", err)
	}

	var parsed MeterValuesRequest
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal MeterValuesRequest: %v", err)
	}

	if parsed.ConnectorId != req.ConnectorId {
		t.Errorf("ConnectorId mismatch: expected %d, got %d", req.ConnectorId, parsed.ConnectorId)
	}
	if parsed.TransactionId == nil || *parsed.TransactionId != transactionId {
		t.Errorf("TransactionId mismatch: got %v", parsed.TransactionId)
	}
	if len(parsed.MeterValue) != 1 || len(parsed.MeterValue[0].SampledValue) != 2 {
		t.Fatalf("unexpected shape: %+v", parsed.MeterValue)
	}

	sv := parsed.MeterValue[0].SampledValue[0]
	if sv.Value != "7200" || sv.Measurand != MeasurandPowerActiveImport || sv.Unit != UnitOfMeasureW {
		t.Errorf("first SampledValue mismatch: %+v", sv)
	}
}

// TestAuthorizeRoundTrip exercises the request/response pair the
// authorization path sends before a StartTransaction is ever enqueued.
func TestAuthorizeRoundTrip(t *testing.T) {
	req := AuthorizeRequest{IdTag: "TAG123456"}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal AuthorizeRequest: %v", err)
	}
	var parsed AuthorizeRequest
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal AuthorizeRequest: %v", err)
	}
	if parsed.IdTag != req.IdTag {
		t.Errorf("IdTag mismatch: expected %s, got %s", req.IdTag, parsed.IdTag)
	}

	expiry := DateTime{Time: time.Now().Add(24 * time.Hour)}
	resp := AuthorizeResponse{
		IdTagInfo: IdTagInfo{
			Status:      AuthorizationStatusAccepted,
			ExpiryDate:  &expiry,
			ParentIdTag: "PARENT123",
		},
	}
	respData, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal AuthorizeResponse: %v", err)
	}
	var parsedResp AuthorizeResponse
	if err := json.Unmarshal(respData, &parsedResp); err != nil {
		t.Fatalf("unmarshal AuthorizeResponse: %v", err)
	}
	if parsedResp.IdTagInfo.Status != resp.IdTagInfo.Status {
		t.Errorf("Status mismatch: expected %s, got %s", resp.IdTagInfo.Status, parsedResp.IdTagInfo.Status)
	}
}

// TestHeartbeatRequestEncodesAsEmptyObject asserts the wire shape the
// request queue relies on: a Heartbeat Call payload with no fields at all.
func TestHeartbeatRequestEncodesAsEmptyObject(t *testing.T) {
	data, err := json.Marshal(HeartbeatRequest{})
	if err != nil {
		t.Fatalf("marshal HeartbeatRequest: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("expected empty object, got %s", string(data))
	}

	resp := HeartbeatResponse{CurrentTime: DateTime{Time: time.Now().Truncate(time.Second)}}
	respData, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal HeartbeatResponse: %v", err)
	}
	var parsed HeartbeatResponse
	if err := json.Unmarshal(respData, &parsed); err != nil {
		t.Fatalf("unmarshal HeartbeatResponse: %v", err)
	}
	if !parsed.CurrentTime.Time.Equal(resp.CurrentTime.Time) {
		t.Errorf("CurrentTime mismatch: expected %v, got %v", resp.CurrentTime.Time, parsed.CurrentTime.Time)
	}
}

// TestDateTimeMarshalUnmarshal exercises the custom RFC3339 codec every
// timestamped field above depends on.
func TestDateTimeMarshalUnmarshal(t *testing.T) {
	now := time.Date(2025, 11, 8, 12, 30, 45, 0, time.UTC)
	dt := DateTime{Time: now}

	data, err := json.Marshal(dt)
	if err != nil {
		t.Fatalf("marshal DateTime: %v", err)
	}

	expected := `"2025-11-08T12:30:45Z"`
	if string(data) != expected {
		t.Errorf("DateTime format mismatch: expected %s, got %s", expected, string(data))
	}

	var parsed DateTime
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal DateTime: %v", err)
	}
	if !parsed.Time.Equal(now) {
		t.Errorf("DateTime mismatch: expected %v, got %v", now, parsed.Time)
	}
}

// TestStatusNotificationErrorCodesAreTheTrimmedSet locks ChargePointErrorCode
// to the two values this package names as constants.
func TestStatusNotificationErrorCodesAreTheTrimmedSet(t *testing.T) {
	now := DateTime{Time: time.Now()}
	for _, code := range []ChargePointErrorCode{ChargePointErrorNoError, ChargePointErrorOtherError} {
		req := StatusNotificationRequest{
			ConnectorId: 1,
			ErrorCode:   code,
			Status:      ChargePointStatusAvailable,
			Timestamp:   &now,
		}
		data, err := json.Marshal(req)
		if err != nil {
			t.Fatalf("marshal StatusNotificationRequest with error %s: %v", code, err)
		}
		var parsed StatusNotificationRequest
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("unmarshal StatusNotificationRequest with error %s: %v", code, err)
		}
		if parsed.ErrorCode != code {
			t.Errorf("ErrorCode mismatch: expected %s, got %s", code, parsed.ErrorCode)
		}
	}
}

// TestDataTransferRoundTrip covers the one message pair whose payload this
// core treats as an opaque pass-through string rather than a typed struct.
func TestDataTransferRoundTrip(t *testing.T) {
	req := DataTransferRequest{
		VendorId:  "VendorX",
		MessageId: "CustomMessage",
		Data:      `{"key":"value"}`,
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal DataTransferRequest: %v", err)
	}
	var parsed DataTransferRequest
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal DataTransferRequest: %v", err)
	}
	if parsed.VendorId != req.VendorId || parsed.Data != req.Data {
		t.Errorf("round trip mismatch: got %+v", parsed)
	}

	resp := DataTransferResponse{Status: "Accepted", Data: `{"response":"ok"}`}
	respData, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal DataTransferResponse: %v", err)
	}
	var parsedResp DataTransferResponse
	if err := json.Unmarshal(respData, &parsedResp); err != nil {
		t.Fatalf("unmarshal DataTransferResponse: %v", err)
	}
	if parsedResp.Status != resp.Status {
		t.Errorf("Status mismatch: expected %s, got %s", resp.Status, parsedResp.Status)
	}
}
