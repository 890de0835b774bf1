// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     sequence
// Description: Closed condition sum type and its evaluation
// Created:     2025-12-13
// License:     MIT
// ============================================================================

package sequence

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
)

// Condition is a closed sum type. Only the types in this file implement it.
type Condition interface {
	isCondition()
}

// Equals compares both resolved operands for equality
type Equals struct{ Left, Right interface{} }

// NotEquals is the negation of Equals
type NotEquals struct{ Left, Right interface{} }

// GreaterThan orders two numbers or two strings
type GreaterThan struct{ Left, Right interface{} }

// LessThan orders two numbers or two strings
type LessThan struct{ Left, Right interface{} }

// Contains tests substring or element membership
type Contains struct{ Left, Right interface{} }

// Matches tests Left against the regular expression Right
type Matches struct{ Left, Right interface{} }

// Exists is true when the resolved operand is not nil and not ""
type Exists struct{ Operand interface{} }

// StepSucceeded is true when the step produced a result without error.
// StepIndex is required.
type StepSucceeded struct{ StepIndex *int }

// Custom delegates to a caller-supplied evaluator
type Custom struct{ Evaluator Evaluator }

// LogicalOp combines the children of a Composite
type LogicalOp string

const (
	And LogicalOp = "and"
	Or  LogicalOp = "or"
)

// Composite combines conditions with AND or OR. Conditions form a tree.
type Composite struct {
	Op         LogicalOp
	Conditions []Condition
}

func (Equals) isCondition()        {}
func (NotEquals) isCondition()     {}
func (GreaterThan) isCondition()   {}
func (LessThan) isCondition()      {}
func (Contains) isCondition()      {}
func (Matches) isCondition()       {}
func (Exists) isCondition()        {}
func (StepSucceeded) isCondition() {}
func (Custom) isCondition()        {}
func (Composite) isCondition()     {}

// Evaluator decides a Custom condition
type Evaluator interface {
	EvaluateCondition(ctx *Context) (bool, error)
}

// EvaluatorFunc adapts a function to Evaluator
type EvaluatorFunc func(ctx *Context) (bool, error)

// EvaluateCondition implements Evaluator
func (f EvaluatorFunc) EvaluateCondition(ctx *Context) (bool, error) {
	return f(ctx)
}

// SucceededAt returns a StepSucceeded condition for index
func SucceededAt(index int) StepSucceeded {
	return StepSucceeded{StepIndex: &index}
}

// ResultEquals compares a field of a step result with value
func ResultEquals(stepIndex int, field string, value interface{}) Equals {
	return Equals{Left: "${steps[" + strconv.Itoa(stepIndex) + "].result." + field + "}", Right: value}
}

// AllOf combines conditions with AND
func AllOf(conditions ...Condition) Composite {
	return Composite{Op: And, Conditions: conditions}
}

// AnyOf combines conditions with OR
func AnyOf(conditions ...Condition) Composite {
	return Composite{Op: Or, Conditions: conditions}
}

// Evaluate decides cond against ctx. Operands are resolved through the
// context before comparison. All children of a composite are evaluated
// before they are combined.
func Evaluate(cond Condition, ctx *Context) (bool, error) {
	switch c := cond.(type) {
	case Composite:
		return evaluateComposite(c, ctx)
	case Exists:
		v := ctx.Resolve(c.Operand)
		return v != nil && v != "", nil
	case StepSucceeded:
		if c.StepIndex == nil {
			return false, dserror.New("stepIndex is required for step_succeeded conditions").
				WithCode(dserror.CodeMissingStepIndex)
		}
		return stepSucceeded(ctx, *c.StepIndex), nil
	case Custom:
		if c.Evaluator == nil {
			return false, dserror.New("an evaluator is required for custom conditions").
				WithCode(dserror.CodeMissingCustomEvaluator)
		}
		return c.Evaluator.EvaluateCondition(ctx)
	case Equals:
		return equal(ctx.Resolve(c.Left), ctx.Resolve(c.Right)), nil
	case NotEquals:
		return !equal(ctx.Resolve(c.Left), ctx.Resolve(c.Right)), nil
	case GreaterThan:
		return compare(ctx.Resolve(c.Left), ctx.Resolve(c.Right)) > 0, nil
	case LessThan:
		return compare(ctx.Resolve(c.Left), ctx.Resolve(c.Right)) < 0, nil
	case Contains:
		return contains(ctx.Resolve(c.Left), ctx.Resolve(c.Right)), nil
	case Matches:
		return matches(ctx.Resolve(c.Left), ctx.Resolve(c.Right))
	case nil:
		return false, dserror.New("condition is missing").WithCode(dserror.CodeMalformedCondition)
	}
	// unreachable: Condition is sealed
	return false, dserror.Newf("unsupported condition %T", cond).WithCode(dserror.CodeInternal)
}

func evaluateComposite(c Composite, ctx *Context) (bool, error) {
	if c.Op != And && c.Op != Or {
		return false, dserror.Newf("unknown logical operation %q", c.Op).
			WithCode(dserror.CodeMalformedCondition)
	}

	results := make([]bool, len(c.Conditions))
	for i, child := range c.Conditions {
		ok, err := Evaluate(child, ctx)
		if err != nil {
			return false, err
		}
		results[i] = ok
	}

	if c.Op == And {
		for _, ok := range results {
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
	for _, ok := range results {
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func stepSucceeded(ctx *Context, index int) bool {
	result, ok := ctx.StepResult(index)
	if !ok || !truthy(result) {
		return false
	}
	if m, ok := result.(map[string]interface{}); ok {
		return !truthy(m["error"])
	}
	return true
}

// truthy mirrors loose truthiness of decoded JSON values
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func equal(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compare orders number/number and string/string pairs. Any other pair
// is unordered and reports 0.
func compare(a, b interface{}) int {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		switch {
		case !ok:
			return 0
		case fa > fb:
			return 1
		case fa < fb:
			return -1
		}
		return 0
	}
	sa, ok := a.(string)
	if !ok {
		return 0
	}
	sb, ok := b.(string)
	if !ok {
		return 0
	}
	return strings.Compare(sa, sb)
}

func contains(haystack, needle interface{}) bool {
	if s, ok := haystack.(string); ok {
		return strings.Contains(s, Stringify(needle))
	}
	rv := reflect.ValueOf(haystack)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equal(rv.Index(i).Interface(), needle) {
			return true
		}
	}
	return false
}

func matches(value, pattern interface{}) (bool, error) {
	s, ok := value.(string)
	if !ok {
		return false, nil
	}
	p, ok := pattern.(string)
	if !ok {
		return false, nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return false, dserror.Wrapf(err, "invalid pattern %q", p).WithCode(dserror.CodeMalformedCondition)
	}
	return re.MatchString(s), nil
}
