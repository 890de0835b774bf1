// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     engine
// Description: Typed argument values decided at the normalization boundary
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the Value union
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindBool
	KindNumber
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	default:
		return "absent"
	}
}

// Value is a tagged union: String | Bool | Number | Absent.
// The zero Value is Absent.
type Value struct {
	kind Kind
	str  string
	b    bool
	num  float64
}

// Absent returns the absent value
func Absent() Value { return Value{} }

// StringValue wraps a string
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// BoolValue wraps a boolean
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberValue wraps a number
func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }

// ValueOf converts a decoded JSON or YAML value. nil becomes Absent;
// objects and arrays become their compact JSON text.
func ValueOf(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Absent(), nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case float64:
		return NumberValue(t), nil
	case float32:
		return NumberValue(float64(t)), nil
	case int:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case int32:
		return NumberValue(float64(t)), nil
	case uint64:
		return NumberValue(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Absent(), fmt.Errorf("invalid number %q: %w", t, err)
		}
		return NumberValue(f), nil
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(t)
		if err != nil {
			return Absent(), err
		}
		return StringValue(string(data)), nil
	default:
		return Absent(), fmt.Errorf("unsupported argument type %T", v)
	}
}

// Kind returns the discriminator
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether no value is present
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text renders the value as it appears on a command line.
// Numbers use the shortest decimal form without exponent.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// IsTrue reports whether a presence flag should be emitted: the boolean
// true or the string "true" in any letter case.
func (v Value) IsTrue() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return strings.EqualFold(strings.TrimSpace(v.str), "true")
	default:
		return false
	}
}

// Interface returns the plain Go value (nil for Absent)
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// GoString supports %#v in test failures
func (v Value) GoString() string {
	if v.kind == KindAbsent {
		return "Absent"
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.Text())
}

// ArgumentBag maps parameter names to typed values
type ArgumentBag map[string]Value

// NewArgumentBag converts loosely typed call arguments
func NewArgumentBag(raw map[string]interface{}) (ArgumentBag, error) {
	bag := make(ArgumentBag, len(raw))
	for name, v := range raw {
		val, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		bag[name] = val
	}
	return bag, nil
}

// Get returns the value for name, Absent when missing
func (b ArgumentBag) Get(name string) Value {
	return b[name]
}

// Present returns the number of non-absent values
func (b ArgumentBag) Present() int {
	n := 0
	for _, v := range b {
		if !v.IsAbsent() {
			n++
		}
	}
	return n
}

// Raw converts the bag back to plain Go values, dropping absent entries
func (b ArgumentBag) Raw() map[string]interface{} {
	out := make(map[string]interface{}, len(b))
	for k, v := range b {
		if !v.IsAbsent() {
			out[k] = v.Interface()
		}
	}
	return out
}
