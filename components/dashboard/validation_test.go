package dashboard

import (
	"testing"
	"time"
)

func TestJSONSchemaValidatorRejectsInvalidPayload(t *testing.T) {
	validator := NewJSONSchemaValidator()
	lead := NewLead{AgentID: "agent-1", Name: "Ana", Email: "ana@example.com", Source: "website", Status: "new"}
	if err := validator.ValidatePayload(PayloadLead, lead); err != nil {
		t.Fatalf("expected valid lead, got %v", err)
	}
	lead.Email = "not-an-email"
	err := validator.ValidatePayload(PayloadLead, lead)
	if err == nil {
		t.Fatalf("expected validation error for malformed email")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestJSONSchemaValidatorTaskPriority(t *testing.T) {
	validator := NewJSONSchemaValidator()
	due := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	task := NewTask{Title: "Call back", Priority: TaskPriorityUrgent, Status: "pending", DueDate: &due}
	if err := validator.ValidatePayload(PayloadTask, task); err != nil {
		t.Fatalf("expected valid task, got %v", err)
	}
	task.Priority = "someday"
	if err := validator.ValidatePayload(PayloadTask, task); err == nil {
		t.Fatalf("expected validation error for unknown priority")
	}
}

func TestJSONSchemaValidatorPropertyNeedsAddress(t *testing.T) {
	validator := NewJSONSchemaValidator()
	property := NewProperty{Title: "Loft", Price: 1, City: "Austin", State: "TX", ZipCode: "73301", PropertyType: "condo", Status: "active"}
	if err := validator.ValidatePayload(PayloadProperty, property); err == nil {
		t.Fatalf("expected validation error for empty address")
	}
	property.Address = "1 Elm St"
	property.Price = -5
	if err := validator.ValidatePayload(PayloadProperty, property); err == nil {
		t.Fatalf("expected validation error for negative price")
	}
}

func TestJSONSchemaValidatorCachesCompiledSchemas(t *testing.T) {
	validator := NewJSONSchemaValidator()
	task := NewTask{Title: "Cache", Priority: "low", Status: "pending"}
	if err := validator.ValidatePayload(PayloadTask, task); err != nil {
		t.Fatalf("unexpected error validating payload: %v", err)
	}
	if len(validator.compiled) != 1 {
		t.Fatalf("expected schema cache to contain 1 entry, got %d", len(validator.compiled))
	}
	if err := validator.ValidatePayload(PayloadTask, task); err != nil {
		t.Fatalf("unexpected error on cached validation: %v", err)
	}
	if len(validator.compiled) != 1 {
		t.Fatalf("expected schema cache to remain 1 entry, got %d", len(validator.compiled))
	}
}

func TestJSONSchemaValidatorUnknownKindPasses(t *testing.T) {
	validator := NewJSONSchemaValidator()
	if err := validator.ValidatePayload("deal", map[string]any{}); err != nil {
		t.Fatalf("expected unknown kind to pass, got %v", err)
	}
}
