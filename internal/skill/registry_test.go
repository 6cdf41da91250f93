package skill

import (
	"context"
	"encoding/json"
	"testing"
)

type stubSkill struct {
	id     string
	result Result
}

func (s *stubSkill) Describe() Descriptor { return Descriptor{ID: s.id, Name: s.id} }

func (s *stubSkill) Execute(ctx context.Context, input json.RawMessage) Result {
	return s.result
}

func TestRegistryPreservesOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSkill{id: "c"})
	r.Register(&stubSkill{id: "a"})
	r.Register(&stubSkill{id: "b"})

	ids := r.IDs()
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("expected registration order c,a,b, got %v", ids)
	}

	descriptors := r.Descriptors()
	if len(descriptors) != 3 || descriptors[0].ID != "c" {
		t.Errorf("expected descriptors in registration order, got %v", descriptors)
	}
}

func TestRegistryReRegisterKeepsPosition(t *testing.T) {
	r := NewRegistry()
	first := &stubSkill{id: "a", result: Fail("old")}
	second := &stubSkill{id: "a", result: OK(nil)}
	r.Register(first)
	r.Register(&stubSkill{id: "b"})
	r.Register(second)

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "a" {
		t.Errorf("expected re-registration to keep position, got %v", ids)
	}

	s, ok := r.Resolve("a")
	if !ok {
		t.Fatal("expected skill a to resolve")
	}
	if !s.Execute(context.Background(), nil).Succeeded() {
		t.Error("expected re-registration to replace the skill")
	}
}

func TestRegistryResolveAbsent(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve("nope"); ok {
		t.Error("expected absent skill to not resolve")
	}
}

func TestResultEnvelope(t *testing.T) {
	ok := OK(map[string]any{"count": 3})
	if !ok.Succeeded() {
		t.Error("expected OK envelope to succeed")
	}
	if ok["count"] != 3 {
		t.Errorf("expected fields merged into envelope, got %v", ok)
	}

	fail := Fail("bad input: %s", "repos")
	if fail.Succeeded() {
		t.Error("expected Fail envelope to not succeed")
	}
	if fail["error"] != "bad input: repos" {
		t.Errorf("unexpected error message: %v", fail["error"])
	}
}

func TestDecodeInputEmptyIsEmptyObject(t *testing.T) {
	var dst struct {
		Repository string `json:"repository"`
	}
	if err := decodeInput(nil, &dst); err != nil {
		t.Fatalf("expected empty input to decode, got %v", err)
	}
	if err := decodeInput(json.RawMessage(`{bad`), &dst); err == nil {
		t.Error("expected error for malformed input")
	}
}
