package provider

import "testing"

func TestNewUnsupportedType(t *testing.T) {
	if _, err := New("bard", "key", Options{}); err == nil {
		t.Error("expected error for unsupported provider type")
	}
}

func TestNewKnownTypes(t *testing.T) {
	for _, typ := range []string{"anthropic", "openai"} {
		c, err := New(typ, "key", Options{})
		if err != nil {
			t.Errorf("New(%q) failed: %v", typ, err)
		}
		if c == nil {
			t.Errorf("New(%q) returned nil completer", typ)
		}
	}
}

func TestOptionsApplyDefaults(t *testing.T) {
	opts := Options{}
	opts.applyDefaults("default-model")
	if opts.Model != "default-model" {
		t.Errorf("expected default model, got %q", opts.Model)
	}
	if opts.MaxTokens != 4000 {
		t.Errorf("expected default max tokens 4000, got %d", opts.MaxTokens)
	}
	if opts.Temperature != 0.3 {
		t.Errorf("expected default temperature 0.3, got %f", opts.Temperature)
	}

	opts = Options{Model: "custom", MaxTokens: 100, Temperature: 0.9}
	opts.applyDefaults("default-model")
	if opts.Model != "custom" || opts.MaxTokens != 100 || opts.Temperature != 0.9 {
		t.Errorf("expected explicit options preserved, got %+v", opts)
	}
}
