// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     sequence
// Description: Declarative plan model and YAML/JSON decoding
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package sequence

import (
	"encoding/json"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
)

// Plan is an ordered list of steps executed by a Runner
type Plan struct {
	Name        string
	Description string
	// AutoResolve overrides the runner setting when non-nil
	AutoResolve *bool
	Steps       []Step
}

// Step is either a tool invocation or a conditional jump
type Step struct {
	Tool            string
	Args            map[string]interface{}
	ContinueOnError bool
	// ResultMapping maps target fields to dotted paths of the invocation
	// result; the mapped object replaces the stored step result.
	ResultMapping map[string]string
	Description   string

	Conditional *ConditionalStep
}

// IsConditional reports whether the step is a decision point
func (s *Step) IsConditional() bool {
	return s.Conditional != nil
}

// DecodeOptions configure plan decoding
type DecodeOptions struct {
	// Evaluators are named custom evaluators referenced by
	// {type: custom, evaluator: <name>}
	Evaluators map[string]Evaluator
}

type planDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	AutoResolve *bool     `yaml:"autoResolve"`
	Steps       []stepDoc `yaml:"steps"`
}

type stepDoc struct {
	Tool            string                 `yaml:"tool"`
	Args            map[string]interface{} `yaml:"args"`
	ContinueOnError bool                   `yaml:"continueOnError"`
	ResultMapping   map[string]string      `yaml:"resultMapping"`
	Description     string                 `yaml:"description"`

	Branches               []branchDoc `yaml:"branches"`
	DefaultTargetStepIndex *int        `yaml:"defaultTargetStepIndex"`
}

type branchDoc struct {
	Condition       *conditionDoc `yaml:"condition"`
	TargetStepIndex *int          `yaml:"targetStepIndex"`
	Description     string        `yaml:"description"`
}

type conditionDoc struct {
	Type         string      `yaml:"type"`
	LeftOperand  interface{} `yaml:"leftOperand"`
	RightOperand interface{} `yaml:"rightOperand"`
	StepIndex    *int        `yaml:"stepIndex"`
	Expression   string      `yaml:"expression"`
	Evaluator    string      `yaml:"evaluator"`

	Operation  string         `yaml:"operation"`
	Conditions []conditionDoc `yaml:"conditions"`
}

// DecodePlan parses a YAML or JSON plan document
func DecodePlan(data []byte, opts DecodeOptions) (*Plan, error) {
	var doc planDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, dserror.Wrap(err, "failed to parse plan").WithCode(dserror.CodePlanInvalid)
	}
	return doc.build(opts)
}

// LoadPlan reads a plan file
func LoadPlan(path string, opts DecodeOptions) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dserror.Wrapf(err, "failed to read plan %s", path).WithCode(dserror.CodePlanInvalid)
	}
	return DecodePlan(data, opts)
}

// PlanFromSteps builds a plan from already decoded step objects, as
// received in tool call arguments
func PlanFromSteps(steps []interface{}, opts DecodeOptions) (*Plan, error) {
	data, err := json.Marshal(map[string]interface{}{"steps": steps})
	if err != nil {
		return nil, dserror.Wrap(err, "invalid steps").WithCode(dserror.CodePlanInvalid)
	}
	return DecodePlan(data, opts)
}

func planError(format string, args ...interface{}) error {
	return dserror.Newf(format, args...).WithCode(dserror.CodePlanInvalid)
}

func (d *planDoc) build(opts DecodeOptions) (*Plan, error) {
	if len(d.Steps) == 0 {
		return nil, planError("plan has no steps")
	}

	p := &Plan{
		Name:        d.Name,
		Description: d.Description,
		AutoResolve: d.AutoResolve,
		Steps:       make([]Step, 0, len(d.Steps)),
	}
	for i := range d.Steps {
		step, err := d.Steps[i].build(i, len(d.Steps), opts)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

func (d *stepDoc) build(index, total int, opts DecodeOptions) (Step, error) {
	conditional := len(d.Branches) > 0 || d.DefaultTargetStepIndex != nil
	switch {
	case conditional && d.Tool != "":
		return Step{}, planError("step %d has both a tool and branches", index)
	case !conditional && d.Tool == "":
		return Step{}, planError("step %d needs a tool or branches", index)
	case !conditional:
		return Step{
			Tool:            d.Tool,
			Args:            d.Args,
			ContinueOnError: d.ContinueOnError,
			ResultMapping:   d.ResultMapping,
			Description:     d.Description,
		}, nil
	}

	cs := &ConditionalStep{Description: d.Description}
	if d.DefaultTargetStepIndex != nil {
		if err := checkTarget(index, *d.DefaultTargetStepIndex, total); err != nil {
			return Step{}, err
		}
		target := *d.DefaultTargetStepIndex
		cs.DefaultTarget = &target
	}
	for j, b := range d.Branches {
		if b.Condition == nil || b.TargetStepIndex == nil {
			return Step{}, planError("step %d branch %d needs a condition and a targetStepIndex", index, j)
		}
		if err := checkTarget(index, *b.TargetStepIndex, total); err != nil {
			return Step{}, err
		}
		cond, err := b.Condition.build(opts)
		if err != nil {
			return Step{}, dserror.Wrapf(err, "step %d branch %d", index, j)
		}
		cs.Branches = append(cs.Branches, Branch{
			Condition:   cond,
			Target:      *b.TargetStepIndex,
			Description: b.Description,
		})
	}
	return Step{Description: d.Description, Conditional: cs}, nil
}

// checkTarget accepts step indexes and total, which ends the plan
func checkTarget(index, target, total int) error {
	if target < 0 || target > total {
		return planError("step %d jumps to %d, outside 0..%d", index, target, total)
	}
	return nil
}

func (d *conditionDoc) build(opts DecodeOptions) (Condition, error) {
	if d.Operation != "" {
		op := LogicalOp(strings.ToLower(d.Operation))
		if op != And && op != Or {
			return nil, malformed("unknown logical operation %q", d.Operation)
		}
		children := make([]Condition, 0, len(d.Conditions))
		for i := range d.Conditions {
			c, err := d.Conditions[i].build(opts)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return Composite{Op: op, Conditions: children}, nil
	}

	l, r := d.LeftOperand, d.RightOperand
	switch strings.ToLower(d.Type) {
	case "equals":
		return Equals{Left: l, Right: r}, nil
	case "not_equals":
		return NotEquals{Left: l, Right: r}, nil
	case "greater_than":
		return GreaterThan{Left: l, Right: r}, nil
	case "less_than":
		return LessThan{Left: l, Right: r}, nil
	case "contains":
		return Contains{Left: l, Right: r}, nil
	case "matches":
		return Matches{Left: l, Right: r}, nil
	case "exists":
		return Exists{Operand: l}, nil
	case "step_succeeded":
		return StepSucceeded{StepIndex: d.StepIndex}, nil
	case "custom":
		return d.buildCustom(opts)
	case "":
		return nil, malformed("condition needs a type or an operation")
	default:
		return nil, malformed("unknown condition type %q", d.Type)
	}
}

func (d *conditionDoc) buildCustom(opts DecodeOptions) (Condition, error) {
	switch {
	case d.Expression != "":
		ev, err := NewExprEvaluator(d.Expression)
		if err != nil {
			return nil, err
		}
		return Custom{Evaluator: ev}, nil
	case d.Evaluator != "":
		ev, ok := opts.Evaluators[d.Evaluator]
		if !ok {
			return nil, malformed("unknown evaluator %q", d.Evaluator)
		}
		return Custom{Evaluator: ev}, nil
	}
	// missing evaluator is reported when the condition is evaluated
	return Custom{}, nil
}

func malformed(format string, args ...interface{}) error {
	return dserror.Newf(format, args...).WithCode(dserror.CodeMalformedCondition)
}
