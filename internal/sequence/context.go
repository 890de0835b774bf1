// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     sequence
// Description: Per-plan store of step results and reference substitution
// Created:     2025-12-13
// License:     MIT
// ============================================================================

package sequence

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/utils/mapx"
)

// referenceMarker is the cheap pre-check before any regexp work
const referenceMarker = "${steps["

var (
	fullReference     = regexp.MustCompile(`^\$\{steps\[(\d+)\]\.result\.([^}]+)\}$`)
	embeddedReference = regexp.MustCompile(`\$\{steps\[(\d+)\]\.result\.([^}]+)\}`)
)

// Context holds the results of the steps of one plan execution, indexed
// by step position. It is created per plan and never persisted.
type Context struct {
	results []interface{}
}

// NewContext creates an empty context
func NewContext() *Context {
	return &Context{}
}

// SetStepResult stores the result of step index, replacing an earlier one
func (c *Context) SetStepResult(index int, result interface{}) {
	if index < 0 {
		return
	}
	for len(c.results) <= index {
		c.results = append(c.results, nil)
	}
	c.results[index] = result
}

// StepResult returns the result of step index. The second result is false
// when the step has not produced a result.
func (c *Context) StepResult(index int) (interface{}, bool) {
	if index < 0 || index >= len(c.results) || c.results[index] == nil {
		return nil, false
	}
	return c.results[index], true
}

// Results returns a copy of all step results; steps without a result are nil
func (c *Context) Results() []interface{} {
	return append([]interface{}(nil), c.results...)
}

// Len returns the number of result slots
func (c *Context) Len() int {
	return len(c.results)
}

// lookup follows a step reference. The path addresses object keys only.
func (c *Context) lookup(index, path string) (interface{}, bool) {
	i, err := strconv.Atoi(index)
	if err != nil {
		return nil, false
	}
	result, ok := c.StepResult(i)
	if !ok {
		return nil, false
	}
	return mapx.Lookup(result, path)
}

// Resolve substitutes step references in value. A string that is exactly
// one reference yields the referenced value with its type; references
// embedded in longer strings are replaced by their text form. Maps and
// slices are resolved recursively. Unresolvable references stay verbatim.
func (c *Context) Resolve(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return c.resolveString(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = c.Resolve(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = c.Resolve(e)
		}
		return out
	default:
		return value
	}
}

// ResolveArgs resolves every value of an argument map
func (c *Context) ResolveArgs(args map[string]interface{}) map[string]interface{} {
	if args == nil {
		return map[string]interface{}{}
	}
	return c.Resolve(args).(map[string]interface{})
}

func (c *Context) resolveString(s string) interface{} {
	if !strings.Contains(s, referenceMarker) {
		return s
	}

	if m := fullReference.FindStringSubmatch(s); m != nil {
		if v, ok := c.lookup(m[1], m[2]); ok {
			return mapx.DeepCopy(v)
		}
		return s
	}

	return embeddedReference.ReplaceAllStringFunc(s, func(ref string) string {
		m := embeddedReference.FindStringSubmatch(ref)
		v, ok := c.lookup(m[1], m[2])
		if !ok {
			return ref
		}
		return Stringify(v)
	})
}

// Stringify renders a resolved value for embedding into text: strings
// verbatim, numbers in shortest decimal form, nil as null and objects or
// arrays as compact JSON.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
