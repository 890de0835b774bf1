package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("boom")
	if err.Error() != "boom" {
		t.Errorf("Error() = %q, want boom", err.Error())
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %v, want medium", err.Severity())
	}
}

func TestWithCodeDerivesSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeMissingRequiredParameter, SeverityLow},
		{CodeExecutionFailed, SeverityMedium},
		{CodeExecutableNotFound, SeverityHigh},
		{CodeInternal, SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New("x").WithCode(tt.code)
			if err.Severity() != tt.want {
				t.Errorf("severity = %v, want %v", err.Severity(), tt.want)
			}
		})
	}
}

func TestWrapInheritsCode(t *testing.T) {
	inner := New("no such param").WithCode(CodeMissingRequiredParameter).WithDetail("parameter", "name")
	outer := Wrap(inner, "normalize rule_add_masking")

	if outer.Code() != CodeMissingRequiredParameter {
		t.Errorf("Code() = %v", outer.Code())
	}
	if outer.Details()["parameter"] != "name" {
		t.Errorf("detail not inherited: %v", outer.Details())
	}
	if !errors.Is(outer, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if want := "normalize rule_add_masking: no such param"; outer.Error() != want {
		t.Errorf("Error() = %q, want %q", outer.Error(), want)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapStdError(t *testing.T) {
	base := fmt.Errorf("exec: not found")
	err := Wrap(base, "start").WithCode(CodeExecutableNotFound)
	if !HasCode(err, CodeExecutableNotFound) {
		t.Error("HasCode should be true")
	}
	if GetCode(base) != CodeUnknown {
		t.Error("plain error should report CodeUnknown")
	}
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	inner := New("x").WithCode(CodeMissingStepIndex)
	err := fmt.Errorf("evaluate: %w", inner)
	if !HasCode(err, CodeMissingStepIndex) {
		t.Error("HasCode should walk fmt wrapping")
	}
	if GetCode(err) != CodeMissingStepIndex {
		t.Errorf("GetCode = %v", GetCode(err))
	}
}

func TestCategory(t *testing.T) {
	tests := map[Code]string{
		CodeUnknownCommand:         "specification",
		CodeMissingCustomEvaluator: "specification",
		CodeExecutableNotFound:     "transport",
		CodeExecutionTimeout:       "execution",
		CodePlanStepLimit:          "plan",
		CodeDatabaseError:          "storage",
		CodeNotFound:               "generic",
	}
	for code, want := range tests {
		if got := code.Category(); got != want {
			t.Errorf("%s.Category() = %q, want %q", code, got, want)
		}
		if !code.IsValid() {
			t.Errorf("%s should be valid", code)
		}
	}
	if Code("BOGUS").IsValid() {
		t.Error("BOGUS should not be valid")
	}
}

func TestRetryable(t *testing.T) {
	if CodeMissingRequiredParameter.Retryable() {
		t.Error("specification errors are not retryable")
	}
	if !CodeExecutableNotFound.Retryable() {
		t.Error("transport errors are retryable")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New("bad").WithCode(CodeUnknownCommand).WithOperation("lookup").WithDetail("tool", "nope")
	data, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatalf("marshal: %v", mErr)
	}
	var got map[string]interface{}
	if uErr := json.Unmarshal(data, &got); uErr != nil {
		t.Fatalf("unmarshal: %v", uErr)
	}
	if got["code"] != "UNKNOWN_COMMAND" || got["category"] != "specification" || got["operation"] != "lookup" {
		t.Errorf("unexpected json: %s", data)
	}
}

func TestString(t *testing.T) {
	s := New("bad").WithCode(CodeUnknownCommand).WithDetail("b", 2).WithDetail("a", 1).String()
	if !strings.HasPrefix(s, "[UNKNOWN_COMMAND] bad") || !strings.Contains(s, "a=1 b=2") {
		t.Errorf("String() = %q", s)
	}
}
