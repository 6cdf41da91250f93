// Package skill defines the self-describing operations exposed at the A2A
// dispatch boundary and the registry that resolves them.
package skill

import (
	"context"
	"encoding/json"
	"fmt"
)

// Descriptor is the static, self-describing metadata a skill declares.
// Descriptors are aggregated read-only by the Registry for the agent card.
type Descriptor struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	InputSchema map[string]any   `json:"input_schema"`
	Examples    []map[string]any `json:"examples,omitempty"`
}

// Result is the uniform execution envelope. Every skill returns one;
// internal failures become {"success": false, "error": message} rather than
// propagating past the dispatch boundary.
type Result map[string]any

// OK builds a success envelope from the given fields.
func OK(fields map[string]any) Result {
	r := Result{"success": true}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

// Fail builds a failure envelope with a human-readable message.
func Fail(format string, args ...any) Result {
	return Result{
		"success": false,
		"error":   fmt.Sprintf(format, args...),
	}
}

// Succeeded reports whether the envelope carries success.
func (r Result) Succeeded() bool {
	ok, _ := r["success"].(bool)
	return ok
}

// Skill is one executable operation at the dispatch boundary.
// Execute must never panic or return an unhandled fault: implementations
// catch their own internal failures and report them through the envelope.
type Skill interface {
	Describe() Descriptor
	Execute(ctx context.Context, input json.RawMessage) Result
}

// decodeInput unmarshals the raw input into dst. Empty input is treated as
// an empty object so skills with all-optional fields work without a body.
func decodeInput(input json.RawMessage, dst any) error {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	if err := json.Unmarshal(input, dst); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}
