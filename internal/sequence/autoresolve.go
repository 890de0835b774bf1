// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     sequence
// Description: Filling missing step parameters from earlier step results
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package sequence

import (
	"strings"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/utils/mapx"
)

// Strategy matches a parameter name against result keys
type Strategy string

const (
	// ExactMatch requires key == name
	ExactMatch Strategy = "exact_match"
	// CaseInsensitive compares ignoring letter case
	CaseInsensitive Strategy = "case_insensitive"
	// SuffixMatch accepts keys ending with name
	SuffixMatch Strategy = "suffix_match"
	// PrefixMatch accepts keys starting with name
	PrefixMatch Strategy = "prefix_match"
)

// AutoResolveConfig controls automatic parameter resolution
type AutoResolveConfig struct {
	Enabled    bool
	Strategies []Strategy
	// MaxLookback limits how many earlier results are searched; 0 means all
	MaxLookback int
	// ExcludeParams are never resolved automatically. Matching is a
	// case-insensitive substring test on the parameter name.
	ExcludeParams []string
}

// DefaultAutoResolveConfig returns exact, suffix then prefix matching
// with credentials excluded
func DefaultAutoResolveConfig() AutoResolveConfig {
	return AutoResolveConfig{
		Enabled:       true,
		Strategies:    []Strategy{ExactMatch, SuffixMatch, PrefixMatch},
		ExcludeParams: []string{"password", "pwd", "secret", "key", "token"},
	}
}

func (c AutoResolveConfig) excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range c.ExcludeParams {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// ResolveAutomatic returns mapped extended with values for the params it
// does not set, searched in earlier results from the most recent back.
// The second result lists the names that were filled.
func ResolveAutomatic(params []string, mapped map[string]interface{}, ctx *Context, cfg AutoResolveConfig) (map[string]interface{}, []string) {
	out := mapx.Clone(mapped)
	if out == nil {
		out = map[string]interface{}{}
	}
	if !cfg.Enabled {
		return out, nil
	}

	var filled []string
	for _, name := range params {
		if _, set := out[name]; set || cfg.excluded(name) {
			continue
		}
		if v, ok := findInResults(name, ctx, cfg); ok {
			out[name] = mapx.DeepCopy(v)
			filled = append(filled, name)
		}
	}
	return out, filled
}

func findInResults(name string, ctx *Context, cfg AutoResolveConfig) (interface{}, bool) {
	results := ctx.Results()
	stop := 0
	if cfg.MaxLookback > 0 && cfg.MaxLookback < len(results) {
		stop = len(results) - cfg.MaxLookback
	}

	for i := len(results) - 1; i >= stop; i-- {
		obj, ok := results[i].(map[string]interface{})
		if !ok {
			continue
		}
		for _, s := range cfg.Strategies {
			if v, ok := findByStrategy(name, obj, s); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// findByStrategy checks the keys of obj, then nested objects depth-first.
// Keys are visited in sorted order so the outcome is deterministic.
func findByStrategy(name string, obj map[string]interface{}, s Strategy) (interface{}, bool) {
	keys := mapx.SortedKeys(obj)

	if s == ExactMatch {
		if v, ok := obj[name]; ok {
			return v, true
		}
	} else {
		for _, k := range keys {
			if keyMatches(k, name, s) {
				return obj[k], true
			}
		}
	}

	for _, k := range keys {
		if nested, ok := obj[k].(map[string]interface{}); ok {
			if v, ok := findByStrategy(name, nested, s); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func keyMatches(key, name string, s Strategy) bool {
	switch s {
	case ExactMatch:
		return key == name
	case CaseInsensitive:
		return strings.EqualFold(key, name)
	case SuffixMatch:
		return strings.HasSuffix(key, name)
	case PrefixMatch:
		return strings.HasPrefix(key, name)
	}
	return false
}
