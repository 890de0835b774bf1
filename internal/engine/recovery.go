// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     engine
// Description: Metadata-cache failure classification and escalation
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/cache"
)

// PromptPrefix marks a structured diagnostic line in stderr
const PromptPrefix = "MCP-PROMPT:"

// FailureKind classifies a failed invocation
type FailureKind int

const (
	// FailureUnclassified means no known signature matched
	FailureUnclassified FailureKind = iota
	// FailureMetadataMissing means dscli reported an object missing from
	// the instance metadata cache
	FailureMetadataMissing
)

// Failure is the classifier verdict
type Failure struct {
	Kind FailureKind
	// Object is the offending object name, when it could be extracted
	Object string
}

// FailureClassifier inspects stderr of a failed invocation
type FailureClassifier interface {
	ClassifyFailure(stderr string) Failure
}

const metadataSignature = "is not in metadata cache"

var metadataObjectPattern = regexp.MustCompile(`\[(.*?)\] is not in metadata cache`)

// MetadataCacheClassifier recognizes "[<name>] is not in metadata cache"
type MetadataCacheClassifier struct{}

// ClassifyFailure implements FailureClassifier
func (MetadataCacheClassifier) ClassifyFailure(stderr string) Failure {
	if !strings.Contains(stderr, metadataSignature) {
		return Failure{}
	}
	f := Failure{Kind: FailureMetadataMissing, Object: "Unknown Object"}
	if m := metadataObjectPattern.FindStringSubmatch(stderr); m != nil {
		f.Object = m[1]
	}
	return f
}

// Diagnostic is the structured suggestion sent back with stderr
type Diagnostic struct {
	Message       string                 `json:"message"`
	SuggestedTool string                 `json:"suggested_tool,omitempty"`
	ToolArgs      map[string]interface{} `json:"tool_args,omitempty"`
}

// Envelope renders the diagnostic as a single MCP-PROMPT line
func (d Diagnostic) Envelope() string {
	data, err := json.Marshal(d)
	if err != nil {
		data = []byte(`{"message":"diagnostic unavailable"}`)
	}
	return PromptPrefix + string(data)
}

// Prepend puts the envelope line in front of stderr
func (d Diagnostic) Prepend(stderr string) string {
	return d.Envelope() + "\n" + stderr
}

// FailureRecord tracks repeated failures for one key
type FailureRecord struct {
	Count     int
	Timestamp time.Time
}

// RecordState is the escalation state of a failure key
type RecordState int

const (
	// StateNone means no live record exists
	StateNone RecordState = iota
	// StateFresh means one failure was seen and a remedy was suggested
	StateFresh
	// StateEscalated means the failure repeated; the record is dropped
	StateEscalated
)

// RecoveryConfig configures MetadataRecovery
type RecoveryConfig struct {
	// Tools the heuristic applies to
	Tools []string
	// KeyParam names the argument whose value keys the failure record
	KeyParam string
	// InstanceParam names the argument holding the instance name
	InstanceParam string
	// SuggestedTool is offered on the first failure
	SuggestedTool string
	// Window is the inactivity period after which a record expires
	Window time.Duration
	// MaxEntries bounds the record map
	MaxEntries int
	// Classifier defaults to MetadataCacheClassifier
	Classifier FailureClassifier
	// Now overrides the clock
	Now func() time.Time
}

// DefaultRecoveryConfig returns the masking-rule configuration
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Tools:         []string{"rule_add_masking", "rule_update_masking"},
		KeyParam:      "maskColumns",
		InstanceParam: "instance",
		SuggestedTool: "instance_update_metadata",
		Window:        5 * time.Minute,
		MaxEntries:    1024,
	}
}

// MetadataRecovery is a two-state escalation machine per failure key:
// the first failure suggests a metadata refresh, a repeat within the
// window asserts the object does not exist and drops the record.
type MetadataRecovery struct {
	cfg     RecoveryConfig
	tools   map[string]bool
	records *cache.Cache
	now     func() time.Time
}

// NewMetadataRecovery creates the heuristic
func NewMetadataRecovery(cfg RecoveryConfig) *MetadataRecovery {
	if cfg.Classifier == nil {
		cfg.Classifier = MetadataCacheClassifier{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Minute
	}

	tools := make(map[string]bool, len(cfg.Tools))
	for _, t := range cfg.Tools {
		tools[t] = true
	}

	return &MetadataRecovery{
		cfg:   cfg,
		tools: tools,
		records: cache.New(cache.Config{
			MaxItems:        cfg.MaxEntries,
			TTL:             cfg.Window,
			CleanupInterval: cfg.Window,
			Now:             cfg.Now,
		}),
		now: cfg.Now,
	}
}

// Applies reports whether the heuristic covers toolName
func (r *MetadataRecovery) Applies(toolName string) bool {
	return r.tools[toolName]
}

func (r *MetadataRecovery) key(args ArgumentBag, f Failure) string {
	if v := args.Get(r.cfg.KeyParam); !v.IsAbsent() {
		return v.Text()
	}
	return f.Object
}

// OnFailure classifies stderr and advances the key's state. The second
// result is false when the heuristic does not apply.
func (r *MetadataRecovery) OnFailure(toolName string, args ArgumentBag, stderr string) (Diagnostic, bool) {
	if !r.Applies(toolName) {
		return Diagnostic{}, false
	}
	failure := r.cfg.Classifier.ClassifyFailure(stderr)
	if failure.Kind != FailureMetadataMissing {
		return Diagnostic{}, false
	}

	key := r.key(args, failure)
	now := r.now()
	var count int
	r.records.Update(key, func(old interface{}, found bool) (interface{}, bool) {
		rec := FailureRecord{}
		if found {
			rec = old.(FailureRecord)
		}
		rec.Count++
		rec.Timestamp = now
		count = rec.Count
		// a repeat escalates and drops the record
		return rec, rec.Count < 2
	})

	instance := args.Get(r.cfg.InstanceParam)
	if count > 1 {
		return r.escalated(failure.Object, instance), true
	}
	return r.fresh(failure.Object, instance), true
}

// OnSuccess forgets any failure recorded for the invocation's key
func (r *MetadataRecovery) OnSuccess(toolName string, args ArgumentBag) {
	if !r.Applies(toolName) {
		return
	}
	if v := args.Get(r.cfg.KeyParam); !v.IsAbsent() {
		r.records.Delete(v.Text())
	}
}

// State returns the current state of a key
func (r *MetadataRecovery) State(key string) RecordState {
	if _, ok := r.records.Get(key); ok {
		return StateFresh
	}
	return StateNone
}

// Close releases the record map
func (r *MetadataRecovery) Close() {
	r.records.Close()
}

func (r *MetadataRecovery) fresh(object string, instance Value) Diagnostic {
	name := "the specified instance"
	if !instance.IsAbsent() {
		name = instance.Text()
	}
	d := Diagnostic{
		Message: fmt.Sprintf("The specified object '%s' was not found in the metadata. "+
			"This can happen if the database schema has changed. Please verify that the object exists and the name is correct. "+
			"Would you like to try updating the metadata for instance '%s'?", object, name),
		SuggestedTool: r.cfg.SuggestedTool,
	}
	if !instance.IsAbsent() {
		d.ToolArgs = map[string]interface{}{"instance": instance.Text()}
	}
	return d
}

func (r *MetadataRecovery) escalated(object string, instance Value) Diagnostic {
	name := "the specified instance"
	if !instance.IsAbsent() {
		name = instance.Text()
	}
	return Diagnostic{
		Message: fmt.Sprintf("Metadata for instance '%s' was updated, but the object '%s' was still not found. "+
			"The specified Database, Schema, Table, or Column likely does not exist. Please correct the name and try again.", name, object),
	}
}
