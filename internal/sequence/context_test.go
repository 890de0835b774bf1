package sequence

import (
	"reflect"
	"testing"
)

func testContext() *Context {
	ctx := NewContext()
	ctx.SetStepResult(0, map[string]interface{}{
		"id":   42,
		"name": "pg-prod",
		"data": map[string]interface{}{
			"port":    5432.0,
			"enabled": true,
			"tags":    []interface{}{"a", "b"},
		},
	})
	return ctx
}

func TestResolveFullReferenceKeepsType(t *testing.T) {
	ctx := testContext()

	if got := ctx.Resolve("${steps[0].result.id}"); got != 42 {
		t.Errorf("Resolve(id) = %#v, want 42", got)
	}
	if got := ctx.Resolve("${steps[0].result.data.enabled}"); got != true {
		t.Errorf("Resolve(data.enabled) = %#v, want true", got)
	}
	got := ctx.Resolve("${steps[0].result.data.tags}")
	if !reflect.DeepEqual(got, []interface{}{"a", "b"}) {
		t.Errorf("Resolve(data.tags) = %#v", got)
	}
}

func TestResolveEmbeddedReferences(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		in, want string
	}{
		{"id=${steps[0].result.id}", "id=42"},
		{"${steps[0].result.name}:${steps[0].result.data.port}", "pg-prod:5432"},
		{"tags ${steps[0].result.data.tags}", `tags ["a","b"]`},
		{"missing ${steps[0].result.nope} stays", "missing ${steps[0].result.nope} stays"},
		{"no step ${steps[3].result.id}", "no step ${steps[3].result.id}"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := ctx.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %#v, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveUnresolvableIsNoop(t *testing.T) {
	ctx := testContext()

	for _, ref := range []string{
		"${steps[0].result.missing}",
		"${steps[0].result.data.port.deeper}",
		"${steps[1].result.id}",
		"${steps[0].result.data.tags.0}",
	} {
		if got := ctx.Resolve(ref); got != ref {
			t.Errorf("Resolve(%q) = %#v, want the literal", ref, got)
		}
	}
}

func TestResolveNested(t *testing.T) {
	ctx := testContext()

	in := map[string]interface{}{
		"instance": "${steps[0].result.name}",
		"options": map[string]interface{}{
			"port":  "${steps[0].result.data.port}",
			"label": "port ${steps[0].result.data.port}",
		},
		"list":  []interface{}{"${steps[0].result.id}", 7},
		"count": 3,
	}
	want := map[string]interface{}{
		"instance": "pg-prod",
		"options": map[string]interface{}{
			"port":  5432.0,
			"label": "port 5432",
		},
		"list":  []interface{}{42, 7},
		"count": 3,
	}
	if got := ctx.ResolveArgs(in); !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveArgs() = %#v\nwant %#v", got, want)
	}
	if in["instance"] != "${steps[0].result.name}" {
		t.Error("input must not be modified")
	}
}

func TestResolvedValueIsCopy(t *testing.T) {
	ctx := testContext()

	got := ctx.Resolve("${steps[0].result.data}").(map[string]interface{})
	got["port"] = 1.0

	again := ctx.Resolve("${steps[0].result.data.port}")
	if again != 5432.0 {
		t.Error("mutating a resolved value changed the stored result")
	}
}

func TestStepResult(t *testing.T) {
	ctx := NewContext()
	ctx.SetStepResult(2, "x")

	if ctx.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ctx.Len())
	}
	if _, ok := ctx.StepResult(0); ok {
		t.Error("step 0 has no result")
	}
	if v, ok := ctx.StepResult(2); !ok || v != "x" {
		t.Errorf("StepResult(2) = %v, %v", v, ok)
	}
	if _, ok := ctx.StepResult(-1); ok {
		t.Error("negative index must not resolve")
	}
}
