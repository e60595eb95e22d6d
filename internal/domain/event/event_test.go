package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      string
	}{
		{"claim registered", TypeClaimRegistered, "claim.registered"},
		{"claim status changed", TypeClaimStatusChanged, "claim.status_changed"},
		{"claim assigned", TypeClaimAssigned, "claim.assigned"},
		{"claim deleted", TypeClaimDeleted, "claim.deleted"},
		{"workflow created", TypeWorkflowCreated, "workflow.created"},
		{"workflow step decided", TypeWorkflowStepDecided, "workflow.step_decided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("Type.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"valid claim event", TypeClaimStatusChanged, true},
		{"valid workflow event", TypeWorkflowCreated, true},
		{"invalid type", Type("claim.exploded"), false},
		{"empty type", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	before := time.Now()
	payload := map[string]interface{}{"new_status": "investigating"}

	evt := NewEvent(TypeClaimStatusChanged, "claim", 42, "u-1", payload)

	if _, err := uuid.Parse(evt.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", evt.ID, err)
	}
	if _, err := uuid.Parse(evt.CorrelationID); err != nil {
		t.Errorf("CorrelationID %q is not a uuid: %v", evt.CorrelationID, err)
	}
	if evt.Type != TypeClaimStatusChanged {
		t.Errorf("Type = %v, want %v", evt.Type, TypeClaimStatusChanged)
	}
	if evt.ResourceType != "claim" || evt.ResourceID != 42 {
		t.Errorf("resource = %s/%d, want claim/42", evt.ResourceType, evt.ResourceID)
	}
	if evt.Actor != "u-1" {
		t.Errorf("Actor = %v, want u-1", evt.Actor)
	}
	if evt.Timestamp.Before(before) {
		t.Error("Timestamp should not be before creation")
	}
	if evt.GetPayloadString("new_status") != "investigating" {
		t.Error("payload not carried over")
	}
}

func TestNewEvent_NilPayload(t *testing.T) {
	evt := NewEvent(TypeClaimDeleted, "claim", 1, "system", nil)
	if evt.Payload == nil {
		t.Fatal("Payload should be initialised")
	}
	if got := evt.GetPayloadString("missing"); got != "" {
		t.Errorf("GetPayloadString() = %q, want empty", got)
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeWorkflowCreated, "workflow", 7, "u-2", nil, "corr-123")
	if evt.CorrelationID != "corr-123" {
		t.Errorf("CorrelationID = %v, want corr-123", evt.CorrelationID)
	}
	if evt.ID == "corr-123" {
		t.Error("ID should be independent of correlation ID")
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeClaimAssigned, "claim", 3, "u-3", map[string]interface{}{"adjuster_id": "adj-1"})
	updated := original.WithPayload("claim_number", "CLM-1")

	if _, ok := original.Payload["claim_number"]; ok {
		t.Error("original payload was mutated")
	}
	if updated.GetPayloadString("claim_number") != "CLM-1" {
		t.Error("new key missing from updated event")
	}
	if updated.GetPayloadString("adjuster_id") != "adj-1" {
		t.Error("existing key missing from updated event")
	}
	if updated.ID != original.ID || updated.CorrelationID != original.CorrelationID {
		t.Error("identity should be preserved")
	}
}

func TestEvent_PayloadAccessors(t *testing.T) {
	evt := NewEvent(TypeClaimRegistered, "claim", 1, "system", map[string]interface{}{
		"str":   "value",
		"int":   7,
		"int64": int64(8),
		"float": 9.5,
		"bool":  true,
		"wrong": []string{"x"},
	})

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"string", evt.GetPayloadString("str"), "value"},
		{"string wrong type", evt.GetPayloadString("int"), ""},
		{"int from int", evt.GetPayloadInt("int"), int64(7)},
		{"int from int64", evt.GetPayloadInt("int64"), int64(8)},
		{"int from float", evt.GetPayloadInt("float"), int64(9)},
		{"int missing", evt.GetPayloadInt("missing"), int64(0)},
		{"float from float", evt.GetPayloadFloat("float"), 9.5},
		{"float from int", evt.GetPayloadFloat("int"), 7.0},
		{"float wrong type", evt.GetPayloadFloat("wrong"), 0.0},
		{"bool", evt.GetPayloadBool("bool"), true},
		{"bool wrong type", evt.GetPayloadBool("str"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		evt := NewEvent(TypeClaimRegistered, "claim", int64(i), "system", nil)
		if seen[evt.ID] {
			t.Fatalf("duplicate ID generated: %s", evt.ID)
		}
		seen[evt.ID] = true
	}
}
