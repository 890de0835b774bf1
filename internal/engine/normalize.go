// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     engine
// Description: Argument normalization into ordered command-line flags
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package engine

import (
	"strings"
	"time"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
)

// unsafeChars must not reach the shell unquoted
const unsafeChars = " \"':{}\\="

// Flag is one emitted command-line token pair
type Flag struct {
	Name     string
	Value    string
	HasValue bool
}

// String renders "name" or "name value"
func (f Flag) String() string {
	if !f.HasValue {
		return f.Name
	}
	return f.Name + " " + f.Value
}

// Normalize resolves every declared parameter of spec against args and
// returns the flags in declaration order. It is pure.
//
// The effective value is the argument, else the declared default, else
// absent. Boolean parameters are presence flags and never encode false:
// an explicit false suppresses the flag even when the default is true.
func Normalize(spec *catalog.CommandSpec, args ArgumentBag) ([]Flag, error) {
	flags := make([]Flag, 0, len(spec.Params))

	for i := range spec.Params {
		p := &spec.Params[i]

		value, err := effectiveValue(p, args)
		if err != nil {
			return nil, err
		}
		if value.IsAbsent() {
			if p.Required {
				return nil, missingRequired(spec, p)
			}
			continue
		}

		switch p.Type {
		case catalog.TypeBoolean:
			if value.IsTrue() {
				flags = append(flags, Flag{Name: p.CLIFlag})
			}
		default:
			text := value.Text()
			if replacement, ok := p.Rewrite[text]; ok {
				text = replacement
			}
			flags = append(flags, Flag{Name: p.CLIFlag, Value: QuoteValue(text), HasValue: true})
		}
	}

	return flags, nil
}

func effectiveValue(p *catalog.ParameterSpec, args ArgumentBag) (Value, error) {
	if v := args.Get(p.Name); !v.IsAbsent() {
		return v, nil
	}
	if !p.HasDefault() {
		return Absent(), nil
	}
	v, err := ValueOf(p.Default)
	if err != nil {
		return Absent(), dserror.Wrapf(err, "default of parameter %s", p.Name).
			WithCode(dserror.CodeInvalidParameter)
	}
	return v, nil
}

func missingRequired(spec *catalog.CommandSpec, p *catalog.ParameterSpec) error {
	return dserror.Newf("missing required parameter: %s for command %s", p.Name, spec.ToolName).
		WithCode(dserror.CodeMissingRequiredParameter).
		WithDetail("parameter", p.Name).
		WithDetail("tool", spec.ToolName)
}

// QuoteValue wraps value in double quotes when it contains a character
// the shell would interpret. Backslashes and embedded double quotes are
// escaped first so the value survives a POSIX shell unchanged.
// The empty string is quoted so the flag keeps its value token.
func QuoteValue(value string) string {
	if value == "" {
		return `""`
	}
	if !strings.ContainsAny(value, unsafeChars) {
		return value
	}
	return `"` + quoteEscaper.Replace(value) + `"`
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// autoRuleName builds Default_<kind>_<yyyyMMddHHmmss> from an add* base
// command, e.g. addMaskRule -> Default_MaskRule_20250601120000.
func autoRuleName(baseCommand string, now time.Time) string {
	kind := strings.TrimPrefix(baseCommand, "add")
	return "Default_" + kind + "_" + now.UTC().Format("20060102150405")
}

// applyAutoName fills the name parameter for autoName commands called with
// an empty argument bag. It returns the bag unchanged otherwise.
func applyAutoName(spec *catalog.CommandSpec, args ArgumentBag, now time.Time) ArgumentBag {
	if !spec.AutoName || args.Present() > 0 {
		return args
	}
	if _, ok := spec.Param("name"); !ok {
		return args
	}
	out := make(ArgumentBag, 1)
	out["name"] = StringValue(autoRuleName(spec.BaseCommand, now))
	return out
}
