// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     sequence
// Description: Plan execution with references, auto-resolution and branches
// Created:     2025-12-15
// License:     MIT
// ============================================================================

package sequence

import (
	"context"
	"time"

	"github.com/google/uuid"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/utils/mapx"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/engine"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/logging"
)

// Invoker runs one tool
type Invoker interface {
	Invoke(ctx context.Context, tool string, args map[string]interface{}) *engine.InvocationResult
}

// RunStatus is the outcome of a plan run
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// StepReport describes one executed step
type StepReport struct {
	Index        int                      `json:"index"`
	Tool         string                   `json:"tool,omitempty"`
	Result       *engine.InvocationResult `json:"result,omitempty"`
	AutoResolved []string                 `json:"autoResolved,omitempty"`
	// NextStep is the jump chosen by a conditional step, -1 to continue
	NextStep *int `json:"nextStep,omitempty"`
}

// Report is the outcome of Runner.Run
type Report struct {
	ID        string        `json:"id"`
	Plan      string        `json:"plan,omitempty"`
	Status    RunStatus     `json:"status"`
	Steps     []StepReport  `json:"steps"`
	Results   []interface{} `json:"results"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   time.Time     `json:"endedAt"`
}

// RunnerConfig configures a Runner
type RunnerConfig struct {
	// Commands provides declared parameters for auto-resolution
	Commands engine.CommandLookup
	// MaxSteps bounds executed steps, guarding against branch loops
	MaxSteps    int
	AutoResolve AutoResolveConfig
}

// DefaultRunnerConfig returns the default runner configuration
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxSteps:    100,
		AutoResolve: DefaultAutoResolveConfig(),
	}
}

// Runner executes plans one step at a time
type Runner struct {
	invoker Invoker
	cfg     RunnerConfig
	logger  *logging.Logger
}

// NewRunner creates a plan runner
func NewRunner(invoker Invoker, cfg RunnerConfig) *Runner {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 100
	}
	return &Runner{
		invoker: invoker,
		cfg:     cfg,
		logger:  logging.New("sequence"),
	}
}

// Run executes plan. Failed tool steps end the run unless the step sets
// ContinueOnError; that outcome is reported through Report.Status. The
// error is non-nil for cancellation and for plan-level faults such as a
// malformed condition or exceeding MaxSteps.
func (r *Runner) Run(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{
		ID:        uuid.New().String(),
		Plan:      plan.Name,
		Status:    StatusRunning,
		Steps:     []StepReport{},
		StartedAt: time.Now(),
	}
	sctx := NewContext()

	autoCfg := r.cfg.AutoResolve
	if plan.AutoResolve != nil {
		autoCfg.Enabled = *plan.AutoResolve
	}

	r.logger.Info("Starting plan", "id", report.ID, "plan", plan.Name, "steps", len(plan.Steps))

	finish := func(status RunStatus, err error) (*Report, error) {
		report.Status = status
		report.Results = sctx.Results()
		report.EndedAt = time.Now()
		if err != nil {
			report.Error = err.Error()
		}
		r.logger.Info("Plan finished", "id", report.ID, "status", status, "executed", len(report.Steps))
		return report, err
	}

	executed := 0
	for i := 0; i < len(plan.Steps); {
		select {
		case <-ctx.Done():
			return finish(StatusCancelled, ctx.Err())
		default:
		}

		executed++
		if executed > r.cfg.MaxSteps {
			err := dserror.Newf("plan exceeded %d executed steps", r.cfg.MaxSteps).
				WithCode(dserror.CodePlanStepLimit)
			return finish(StatusFailed, err)
		}

		step := &plan.Steps[i]
		if step.IsConditional() {
			next, err := DetermineNextStep(*step.Conditional, sctx)
			if err != nil {
				return finish(StatusFailed, dserror.Wrapf(err, "step %d", i))
			}
			sctx.SetStepResult(i, map[string]interface{}{"nextStep": next})
			report.Steps = append(report.Steps, StepReport{Index: i, NextStep: &next})
			r.logger.Debug("Branch resolved", "step", i, "next", next)

			if next == Continue {
				i++
				continue
			}
			if next < 0 || next > len(plan.Steps) {
				return finish(StatusFailed, dserror.Newf("step %d jumps to %d, outside the plan", i, next).
					WithCode(dserror.CodePlanInvalid))
			}
			i = next
			continue
		}

		sr, ok := r.runTool(ctx, i, step, sctx, autoCfg)
		report.Steps = append(report.Steps, sr)
		if !ok && !step.ContinueOnError {
			return finish(StatusFailed, nil)
		}
		i++
	}

	return finish(StatusCompleted, nil)
}

// runTool executes a tool step and stores its result
func (r *Runner) runTool(ctx context.Context, index int, step *Step, sctx *Context, autoCfg AutoResolveConfig) (StepReport, bool) {
	args := sctx.ResolveArgs(step.Args)

	var filled []string
	if autoCfg.Enabled && r.cfg.Commands != nil {
		if spec, err := r.cfg.Commands.Lookup(step.Tool); err == nil {
			names := make([]string, 0, len(spec.Params))
			for _, p := range spec.Params {
				names = append(names, p.Name)
			}
			args, filled = ResolveAutomatic(names, args, sctx, autoCfg)
			for _, name := range filled {
				r.logger.Info("Auto-resolved parameter from previous step result", "step", index, "parameter", name)
			}
		}
	}

	result := r.invoker.Invoke(ctx, step.Tool, args)
	stored := interface{}(result.AsMap())
	if result.Succeeded() && len(step.ResultMapping) > 0 {
		stored = MapResultFields(stored, step.ResultMapping)
	}
	sctx.SetStepResult(index, stored)

	return StepReport{Index: index, Tool: step.Tool, Result: result, AutoResolved: filled}, result.Succeeded()
}

// MapResultFields builds an object whose fields are taken from result by
// dotted path. Missing paths map to nil.
func MapResultFields(result interface{}, mapping map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(mapping))
	for target, path := range mapping {
		v, _ := mapx.Lookup(result, path)
		out[target] = mapx.DeepCopy(v)
	}
	return out
}
