package ocpp

import (
	"encoding/json"
	"testing"
)

func TestNewCallEncodesFourElementArray(t *testing.T) {
	call, err := NewCall("BootNotification", map[string]string{"chargePointVendor": "acme"})
	if err != nil {
		t.Fatalf("NewCall: %v", err)
	}
	if call.MessageTypeID != MessageTypeCall {
		t.Fatalf("expected MessageTypeCall, got %d", call.MessageTypeID)
	}
	if call.UniqueID == "" {
		t.Fatal("expected a non-empty uniqueId")
	}

	data, err := call.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if len(arr) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(arr))
	}

	var msgType MessageType
	if err := json.Unmarshal(arr[0], &msgType); err != nil {
		t.Fatalf("unmarshal message type: %v", err)
	}
	if msgType != MessageTypeCall {
		t.Fatalf("expected message type %d, got %d", MessageTypeCall, msgType)
	}

	var action string
	if err := json.Unmarshal(arr[2], &action); err != nil {
		t.Fatalf("unmarshal action: %v", err)
	}
	if action != "BootNotification" {
		t.Fatalf("expected action BootNotification, got %q", action)
	}
}

func TestParseMessageRoundTripsCall(t *testing.T) {
	call, err := NewCall("Heartbeat", map[string]string{})
	if err != nil {
		t.Fatalf("NewCall: %v", err)
	}
	data, err := call.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := parsed.(*Call)
	if !ok {
		t.Fatalf("expected *Call, got %T", parsed)
	}
	if got.UniqueID != call.UniqueID || got.Action != "Heartbeat" {
		t.Fatalf("roundtrip mismatch: got %+v", got)
	}
}

func TestParseMessageRoundTripsCallResult(t *testing.T) {
	result, err := NewCallResult("abc-123", map[string]string{"status": "Accepted"})
	if err != nil {
		t.Fatalf("NewCallResult: %v", err)
	}
	data, err := result.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := parsed.(*CallResult)
	if !ok {
		t.Fatalf("expected *CallResult, got %T", parsed)
	}
	if got.UniqueID != "abc-123" {
		t.Fatalf("expected uniqueId abc-123, got %q", got.UniqueID)
	}

	var payload map[string]string
	if err := json.Unmarshal(got.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["status"] != "Accepted" {
		t.Fatalf("expected status Accepted, got %q", payload["status"])
	}
}

func TestParseMessageRoundTripsCallError(t *testing.T) {
	callErr, err := NewCallError("xyz-789", ErrorCodeFormationViolation, "bad payload", nil)
	if err != nil {
		t.Fatalf("NewCallError: %v", err)
	}
	data, err := callErr.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := parsed.(*CallError)
	if !ok {
		t.Fatalf("expected *CallError, got %T", parsed)
	}
	if got.ErrorCode != ErrorCodeFormationViolation {
		t.Fatalf("expected %s, got %s", ErrorCodeFormationViolation, got.ErrorCode)
	}
	if got.ErrorDesc != "bad payload" {
		t.Fatalf("expected description 'bad payload', got %q", got.ErrorDesc)
	}
}

func TestParseMessageRejectsMalformedFrames(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an array", `{"foo":"bar"}`},
		{"too short", `[2, "id"]`},
		{"call with wrong element count", `[2, "id", "Reset"]`},
		{"unknown message type", `[9, "id", "Reset", {}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMessage([]byte(tt.data)); err == nil {
				t.Fatal("expected an error, got nil")
			}
		})
	}
}

func TestGenerateMessageIDIsUnique(t *testing.T) {
	a := GenerateMessageID()
	b := GenerateMessageID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty ids")
	}
	if a == b {
		t.Fatal("expected distinct ids across calls")
	}
}

func TestRestrictedErrorCodesSerializeAsExpectedStrings(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrorCodeNotSupported, "NotSupported"},
		{ErrorCodeInternalError, "InternalError"},
		{ErrorCodeFormationViolation, "FormationViolation"},
		{ErrorCodePropertyConstraintViolation, "PropertyConstraintViolation"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if string(tt.code) != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, string(tt.code))
			}
		})
	}
}
