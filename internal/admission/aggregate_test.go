package admission

import (
	"encoding/json"
	"testing"
)

func TestAggregateAllAllowed(t *testing.T) {
	outcomes := []pluginOutcome{
		{name: "alpha", output: pluginOutput{Allowed: true}},
		{name: "beta", output: pluginOutput{Allowed: true}},
	}
	agg, _, err := aggregate(outcomes, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("aggregate() error = %v", err)
	}
	if !agg.Allowed {
		t.Fatalf("aggregate() Allowed = false, want true when every plugin allows")
	}
}

func TestAggregateAnyDenyWins(t *testing.T) {
	outcomes := []pluginOutcome{
		{name: "alpha", output: pluginOutput{Allowed: true}},
		{name: "beta", output: pluginOutput{Allowed: false, Reason: "PolicyViolation", Message: "nope"}},
	}
	agg, _, err := aggregate(outcomes, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("aggregate() error = %v", err)
	}
	if agg.Allowed {
		t.Fatalf("aggregate() Allowed = true, want false when any plugin denies")
	}
	if agg.Message != "nope" {
		t.Fatalf("aggregate() Message = %q, want the denying plugin's message", agg.Message)
	}
}

func TestAggregateFirstMessageWins(t *testing.T) {
	outcomes := []pluginOutcome{
		{name: "alpha", output: pluginOutput{Allowed: false, Message: "first"}},
		{name: "beta", output: pluginOutput{Allowed: false, Message: "second"}},
	}
	agg, _, _ := aggregate(outcomes, json.RawMessage(`{}`))
	if agg.Message != "first" {
		t.Fatalf("aggregate() Message = %q, want the first denying plugin's message in order", agg.Message)
	}
}

func TestAggregateWarningsAndErrorsConcatenate(t *testing.T) {
	outcomes := []pluginOutcome{
		{name: "alpha", output: pluginOutput{Allowed: true, Warnings: []string{"w1"}}},
		{name: "beta", output: pluginOutput{Allowed: true, Warnings: []string{"w2"}, Errors: []fieldError{{Field: "spec.replicas", Message: "too high"}}}},
	}
	agg, _, _ := aggregate(outcomes, json.RawMessage(`{}`))
	if len(agg.Warnings) != 2 {
		t.Fatalf("aggregate() Warnings = %v, want 2 entries", agg.Warnings)
	}
	if len(agg.Errors) != 1 {
		t.Fatalf("aggregate() Errors = %v, want 1 entry", agg.Errors)
	}
}

func TestAggregateAuditAnnotationsFirstWriteWins(t *testing.T) {
	outcomes := []pluginOutcome{
		{name: "alpha", output: pluginOutput{Allowed: true, AuditAnnotations: map[string]string{"k": "v1"}}},
		{name: "beta", output: pluginOutput{Allowed: true, AuditAnnotations: map[string]string{"k": "v2"}}},
	}
	agg, _, _ := aggregate(outcomes, json.RawMessage(`{}`))
	if agg.AuditAnnotations["k"] != "v1" {
		t.Fatalf("aggregate() AuditAnnotations[k] = %q, want first writer to win", agg.AuditAnnotations["k"])
	}
}

func TestAggregateLastMutationWins(t *testing.T) {
	original := json.RawMessage(`{"spec":{"replicas":1}}`)
	outcomes := []pluginOutcome{
		{name: "alpha", output: pluginOutput{Allowed: true, Object: json.RawMessage(`{"spec":{"replicas":2}}`)}},
		{name: "beta", output: pluginOutput{Allowed: true, Object: json.RawMessage(`{"spec":{"replicas":3}}`)}},
	}
	_, desired, _ := aggregate(outcomes, original)
	if string(desired) != `{"spec":{"replicas":3}}` {
		t.Fatalf("aggregate() desired = %s, want the last plugin's rewrite to win", desired)
	}
}

func TestAggregateNoOutcomesPreservesOriginal(t *testing.T) {
	original := json.RawMessage(`{"spec":{"replicas":1}}`)
	agg, desired, err := aggregate(nil, original)
	if err != nil {
		t.Fatalf("aggregate() error = %v", err)
	}
	if !agg.Allowed {
		t.Fatalf("aggregate() Allowed = false, want true when no plugins match")
	}
	if string(desired) != string(original) {
		t.Fatalf("aggregate() desired = %s, want the original object unchanged", desired)
	}
}

func TestDecodeOutput(t *testing.T) {
	out, err := decodeOutput(map[string]interface{}{
		"allowed": false,
		"reason":  "PolicyViolation",
		"message": "quorum threshold too low",
	})
	if err != nil {
		t.Fatalf("decodeOutput() error = %v", err)
	}
	if out.Allowed || out.Reason != "PolicyViolation" {
		t.Fatalf("decodeOutput() = %+v, want Allowed=false Reason=PolicyViolation", out)
	}
}

func TestResultForAllowed(t *testing.T) {
	if got := resultFor(pluginOutput{Allowed: true}); got != nil {
		t.Fatalf("resultFor(allowed) = %+v, want nil", got)
	}
}

func TestResultForDenied(t *testing.T) {
	got := resultFor(pluginOutput{Allowed: false, Reason: "PolicyViolation", Message: "nope"})
	if got == nil {
		t.Fatalf("resultFor(denied) = nil, want a populated Status")
	}
	if string(got.Reason) != "PolicyViolation" || got.Message != "nope" {
		t.Fatalf("resultFor(denied) = %+v, want Reason=PolicyViolation Message=nope", got)
	}
}
