package sequence

import (
	"context"
	"errors"
	"reflect"
	"testing"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/engine"
)

type call struct {
	tool string
	args map[string]interface{}
}

// scriptedInvoker returns canned results per tool and records calls
type scriptedInvoker struct {
	calls   []call
	results map[string]engine.InvocationResult
}

func (s *scriptedInvoker) Invoke(_ context.Context, tool string, args map[string]interface{}) *engine.InvocationResult {
	s.calls = append(s.calls, call{tool: tool, args: args})
	r, ok := s.results[tool]
	if !ok {
		r = engine.InvocationResult{Stdout: "OK"}
	}
	r.Tool = tool
	return &r
}

func (s *scriptedInvoker) tools() []string {
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.tool)
	}
	return out
}

type staticLookup map[string]*catalog.CommandSpec

func (l staticLookup) Lookup(name string) (*catalog.CommandSpec, error) {
	if spec, ok := l[name]; ok {
		return spec, nil
	}
	return nil, dserror.Newf("unknown command: %s", name).WithCode(dserror.CodeUnknownCommand)
}

func mustDecode(t *testing.T, doc string) *Plan {
	t.Helper()
	p, err := DecodePlan([]byte(doc), DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodePlan() error = %v", err)
	}
	return p
}

func TestRunBranchesAndReferences(t *testing.T) {
	inv := &scriptedInvoker{results: map[string]engine.InvocationResult{
		"instance_update_metadata": {Stdout: `{"instance": "pg-prod"}`},
		"rule_add_masking":         {Stdout: `{"name": "mask_email"}`},
	}}

	report, err := NewRunner(inv, DefaultRunnerConfig()).Run(context.Background(), mustDecode(t, samplePlan))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Status != StatusCompleted {
		t.Fatalf("Status = %s (%s)", report.Status, report.Error)
	}

	if want := []string{"instance_update_metadata", "rule_add_masking"}; !reflect.DeepEqual(inv.tools(), want) {
		t.Errorf("invoked %v, want %v", inv.tools(), want)
	}
	if got := inv.calls[1].args["instance"]; got != "pg-prod" {
		t.Errorf("reference not resolved: instance = %v", got)
	}
	if got := report.Results[3]; !reflect.DeepEqual(got, map[string]interface{}{"rule": "mask_email"}) {
		t.Errorf("mapped result = %v", got)
	}
	if len(report.Steps) != 4 || *report.Steps[1].NextStep != 3 {
		t.Errorf("steps = %+v", report.Steps)
	}
	if report.ID == "" || report.EndedAt.Before(report.StartedAt) {
		t.Errorf("report metadata = %+v", report)
	}
}

func TestRunTakesDefaultBranch(t *testing.T) {
	inv := &scriptedInvoker{results: map[string]engine.InvocationResult{
		"instance_update_metadata": {ExitCode: 1, Error: "boom"},
		"instance_show_one":        {ExitCode: 1, Error: "not found"},
	}}
	plan := mustDecode(t, samplePlan)
	plan.Steps[0].ContinueOnError = true

	report, err := NewRunner(inv, DefaultRunnerConfig()).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"instance_update_metadata", "instance_show_one", "rule_add_masking"}
	if !reflect.DeepEqual(inv.tools(), want) {
		t.Errorf("invoked %v, want %v", inv.tools(), want)
	}
	if got := inv.calls[2].args["instance"]; got != "${steps[0].result.data.instance}" {
		t.Errorf("unresolvable reference should stay literal, got %v", got)
	}
	if report.Status != StatusCompleted {
		t.Errorf("Status = %s", report.Status)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	inv := &scriptedInvoker{results: map[string]engine.InvocationResult{
		"instance_update_metadata": {ExitCode: 1, Error: "boom"},
	}}

	report, err := NewRunner(inv, DefaultRunnerConfig()).Run(context.Background(), mustDecode(t, samplePlan))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Status != StatusFailed || len(inv.calls) != 1 {
		t.Errorf("Status = %s, calls = %v", report.Status, inv.tools())
	}
}

func TestRunStepLimit(t *testing.T) {
	plan := mustDecode(t, `
steps:
  - tool: instance_show_all
  - branches:
      - condition: {type: step_succeeded, stepIndex: 0}
        targetStepIndex: 0
`)
	cfg := DefaultRunnerConfig()
	cfg.MaxSteps = 10

	report, err := NewRunner(&scriptedInvoker{}, cfg).Run(context.Background(), plan)
	if !dserror.HasCode(err, dserror.CodePlanStepLimit) {
		t.Fatalf("Run() error = %v, want %s", err, dserror.CodePlanStepLimit)
	}
	if report.Status != StatusFailed || len(report.Steps) != 10 {
		t.Errorf("Status = %s, steps = %d", report.Status, len(report.Steps))
	}
}

func TestRunMalformedCondition(t *testing.T) {
	plan := mustDecode(t, `
steps:
  - branches:
      - condition: {type: step_succeeded}
        targetStepIndex: 1
`)
	_, err := NewRunner(&scriptedInvoker{}, DefaultRunnerConfig()).Run(context.Background(), plan)
	if !dserror.HasCode(err, dserror.CodeMissingStepIndex) {
		t.Errorf("Run() error = %v, want %s", err, dserror.CodeMissingStepIndex)
	}
}

func TestRunAutoResolve(t *testing.T) {
	inv := &scriptedInvoker{results: map[string]engine.InvocationResult{
		"instance_show_one": {Stdout: `{"instance": "pg", "password": "x"}`},
	}}
	cfg := DefaultRunnerConfig()
	cfg.Commands = staticLookup{
		"rule_add_masking": {
			ToolName: "rule_add_masking",
			Params: []catalog.ParameterSpec{
				{Name: "name"}, {Name: "instance"}, {Name: "password"},
			},
		},
	}
	plan := mustDecode(t, `
steps:
  - tool: instance_show_one
    args: {name: pg}
  - tool: rule_add_masking
    args: {name: r1}
`)

	report, err := NewRunner(inv, cfg).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := map[string]interface{}{"name": "r1", "instance": "pg"}
	if !reflect.DeepEqual(inv.calls[1].args, want) {
		t.Errorf("args = %v, want %v", inv.calls[1].args, want)
	}
	if !reflect.DeepEqual(report.Steps[1].AutoResolved, []string{"instance"}) {
		t.Errorf("AutoResolved = %v", report.Steps[1].AutoResolved)
	}

	off := false
	plan.AutoResolve = &off
	inv.calls = nil
	if _, err := NewRunner(inv, cfg).Run(context.Background(), plan); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := inv.calls[1].args["instance"]; ok {
		t.Error("plan-level autoResolve: false must disable resolution")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(&scriptedInvoker{}, DefaultRunnerConfig()).Run(ctx, mustDecode(t, samplePlan))
	if !errors.Is(err, context.Canceled) || report.Status != StatusCancelled {
		t.Errorf("Run() = %s, %v", report.Status, err)
	}
}
