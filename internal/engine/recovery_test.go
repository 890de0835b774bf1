package engine

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

const metadataStderr = "Error: [db.public.users.emial] is not in metadata cache\n"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRecovery(clock *fakeClock) *MetadataRecovery {
	cfg := DefaultRecoveryConfig()
	cfg.Now = clock.Now
	return NewMetadataRecovery(cfg)
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		stderr string
		kind   FailureKind
		object string
	}{
		{metadataStderr, FailureMetadataMissing, "db.public.users.emial"},
		{"object is not in metadata cache", FailureMetadataMissing, "Unknown Object"},
		{"Connection refused", FailureUnclassified, ""},
		{"", FailureUnclassified, ""},
	}
	for _, tt := range tests {
		got := MetadataCacheClassifier{}.ClassifyFailure(tt.stderr)
		if got.Kind != tt.kind || got.Object != tt.object {
			t.Errorf("ClassifyFailure(%q) = %+v", tt.stderr, got)
		}
	}
}

func TestRecoveryEscalation(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	r := newTestRecovery(clock)
	defer r.Close()

	args := ArgumentBag{
		"maskColumns": StringValue("db.public.users.emial"),
		"instance":    StringValue("pg-prod"),
	}

	first, ok := r.OnFailure("rule_add_masking", args, metadataStderr)
	if !ok {
		t.Fatal("first failure not classified")
	}
	if first.SuggestedTool != "instance_update_metadata" {
		t.Errorf("SuggestedTool = %q", first.SuggestedTool)
	}
	if first.ToolArgs["instance"] != "pg-prod" {
		t.Errorf("ToolArgs = %v", first.ToolArgs)
	}
	if !strings.Contains(first.Message, "Would you like to try updating the metadata for instance 'pg-prod'") {
		t.Errorf("Message = %q", first.Message)
	}
	if r.State("db.public.users.emial") != StateFresh {
		t.Error("record should be kept after the first failure")
	}

	clock.Advance(time.Minute)
	second, _ := r.OnFailure("rule_add_masking", args, metadataStderr)
	if second.SuggestedTool != "" || second.ToolArgs != nil {
		t.Errorf("repeat failure must not suggest the remedy again: %+v", second)
	}
	if !strings.Contains(second.Message, "likely does not exist") {
		t.Errorf("Message = %q", second.Message)
	}
	if r.State("db.public.users.emial") != StateNone {
		t.Error("record should be discarded after escalation")
	}

	third, _ := r.OnFailure("rule_add_masking", args, metadataStderr)
	if third.SuggestedTool != "instance_update_metadata" {
		t.Error("failure after escalation should behave like a first failure")
	}
}

func TestRecoveryWindowExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	r := newTestRecovery(clock)
	defer r.Close()

	args := ArgumentBag{"maskColumns": StringValue("db.s.t.c")}
	r.OnFailure("rule_update_masking", args, metadataStderr)

	clock.Advance(6 * time.Minute)
	d, _ := r.OnFailure("rule_update_masking", args, metadataStderr)
	if d.SuggestedTool == "" {
		t.Error("a stale record must reset to a first failure")
	}
}

func TestRecoveryDoesNotApply(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	r := newTestRecovery(clock)
	defer r.Close()

	if _, ok := r.OnFailure("rule_add_audit", ArgumentBag{}, metadataStderr); ok {
		t.Error("heuristic must only apply to masking rule tools")
	}
	if _, ok := r.OnFailure("rule_add_masking", ArgumentBag{}, "syntax error"); ok {
		t.Error("unrelated stderr must not be classified")
	}
}

func TestRecoveryWithoutInstance(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	r := newTestRecovery(clock)
	defer r.Close()

	d, ok := r.OnFailure("rule_add_masking", ArgumentBag{}, metadataStderr)
	if !ok {
		t.Fatal("expected classification")
	}
	if d.ToolArgs != nil {
		t.Errorf("tool_args must be omitted without an instance: %v", d.ToolArgs)
	}
	// keyed by the object name when maskColumns is absent
	if r.State("db.public.users.emial") != StateFresh {
		t.Error("record should be keyed by the object name")
	}
}

func TestRecoveryClearedOnSuccess(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	r := newTestRecovery(clock)
	defer r.Close()

	args := ArgumentBag{"maskColumns": StringValue("db.s.t.c")}
	r.OnFailure("rule_add_masking", args, metadataStderr)
	r.OnSuccess("rule_add_masking", args)

	if r.State("db.s.t.c") != StateNone {
		t.Error("success must clear the record")
	}
}

func TestDiagnosticEnvelope(t *testing.T) {
	d := Diagnostic{Message: "m", SuggestedTool: "instance_update_metadata", ToolArgs: map[string]interface{}{"instance": "pg"}}
	out := d.Prepend("raw stderr")

	line, rest, ok := strings.Cut(out, "\n")
	if !ok || rest != "raw stderr" {
		t.Fatalf("Prepend() = %q", out)
	}
	if !strings.HasPrefix(line, PromptPrefix) {
		t.Fatalf("missing prefix: %q", line)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, PromptPrefix)), &decoded); err != nil {
		t.Fatalf("envelope is not JSON: %v", err)
	}
	if decoded["suggested_tool"] != "instance_update_metadata" {
		t.Errorf("decoded = %v", decoded)
	}

	bare := Diagnostic{Message: "m"}.Envelope()
	if strings.Contains(bare, "suggested_tool") || strings.Contains(bare, "tool_args") {
		t.Errorf("optional fields must be omitted: %s", bare)
	}
}
