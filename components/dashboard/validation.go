package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PayloadKind names an insert payload schema.
type PayloadKind string

const (
	PayloadLead     PayloadKind = "lead"
	PayloadProperty PayloadKind = "property"
	PayloadTask     PayloadKind = "task"
)

// PayloadValidator validates insert payloads before they reach the record store.
type PayloadValidator interface {
	ValidatePayload(kind PayloadKind, payload any) error
}

// ValidationError wraps a schema failure so transports can answer 400.
type ValidationError struct {
	Kind PayloadKind
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dashboard: %s payload failed validation: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// JSONSchemaValidator compiles payload schemas on first use.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	schemas  map[PayloadKind]map[string]any
	compiled map[PayloadKind]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5 using the
// built-in record schemas.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		schemas:  defaultPayloadSchemas(),
		compiled: make(map[PayloadKind]*jsonschema.Schema),
	}
}

// ValidatePayload ensures the payload satisfies its schema. Kinds without a
// schema pass.
func (v *JSONSchemaValidator) ValidatePayload(kind PayloadKind, payload any) error {
	schema, err := v.schemaFor(kind)
	if err != nil || schema == nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dashboard: marshal %s payload: %w", kind, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("dashboard: normalize %s payload: %w", kind, err)
	}
	if err := schema.Validate(doc); err != nil {
		return &ValidationError{Kind: kind, Err: err}
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(kind PayloadKind) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[kind]
	raw, known := v.schemas[kind]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	if !known {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", kind, err)
	}
	compiler := jsonschema.NewCompiler()
	name := string(kind) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", kind, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", kind, err)
	}
	v.mu.Lock()
	v.compiled[kind] = compiled
	v.mu.Unlock()
	return compiled, nil
}

func nonEmptyString() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func nullableInteger() map[string]any {
	return map[string]any{"type": []string{"integer", "null"}, "minimum": 0}
}

func defaultPayloadSchemas() map[PayloadKind]map[string]any {
	return map[PayloadKind]map[string]any{
		PayloadLead: {
			"type":     "object",
			"required": []string{"name", "email", "source", "status"},
			"properties": map[string]any{
				"agent_id": map[string]any{"type": "string"},
				"name":     nonEmptyString(),
				"email":    map[string]any{"type": "string", "minLength": 3, "pattern": "^[^@\\s]+@[^@\\s]+$"},
				"phone":    map[string]any{"type": []string{"string", "null"}},
				"source":   nonEmptyString(),
				"status":   nonEmptyString(),
			},
		},
		PayloadProperty: {
			"type":     "object",
			"required": []string{"title", "price", "address", "city", "state", "zip_code", "property_type", "status"},
			"properties": map[string]any{
				"agent_id":      map[string]any{"type": "string"},
				"title":         nonEmptyString(),
				"price":         map[string]any{"type": "number", "minimum": 0},
				"address":       nonEmptyString(),
				"city":          nonEmptyString(),
				"state":         nonEmptyString(),
				"zip_code":      nonEmptyString(),
				"property_type": nonEmptyString(),
				"bedrooms":      nullableInteger(),
				"bathrooms":     nullableInteger(),
				"square_feet":   nullableInteger(),
				"status":        nonEmptyString(),
			},
		},
		PayloadTask: {
			"type":     "object",
			"required": []string{"title", "priority", "status"},
			"properties": map[string]any{
				"assigned_to": map[string]any{"type": "string"},
				"title":       nonEmptyString(),
				"description": map[string]any{"type": []string{"string", "null"}},
				"priority":    map[string]any{"enum": []string{"low", "medium", "high", TaskPriorityUrgent}},
				"status":      nonEmptyString(),
				"due_date":    map[string]any{"type": []string{"string", "null"}},
			},
		},
	}
}

type noopPayloadValidator struct{}

func (noopPayloadValidator) ValidatePayload(PayloadKind, any) error { return nil }
