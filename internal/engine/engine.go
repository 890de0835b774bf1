// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     engine
// Description: Invocation facade tying catalog, normalizer, executor and recovery
// Created:     2025-12-12
// License:     MIT
// ============================================================================

package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
	dslog "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/log"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/logging"
)

// CommandLookup resolves tool names to command specs
type CommandLookup interface {
	Lookup(toolName string) (*catalog.CommandSpec, error)
}

// Recorder persists finished invocations
type Recorder interface {
	RecordInvocation(ctx context.Context, result *InvocationResult) error
}

// DefaultSensitiveParams are redacted in logs and history
var DefaultSensitiveParams = []string{"password", "pwd", "secret", "key", "token"}

// Options configure an Engine
type Options struct {
	Runner     Runner
	Executable string
	Timeout    time.Duration

	// Recovery is nil when the heuristic is disabled
	Recovery *RecoveryConfig

	// Recorder receives every result; nil disables history
	Recorder Recorder

	// SensitiveParams are matched as case-insensitive substrings of
	// parameter names
	SensitiveParams []string

	Now func() time.Time
}

// Engine runs catalog commands. It holds the process-wide state: the
// verified executable and the failure-record map.
type Engine struct {
	commands  CommandLookup
	executor  *Executor
	recovery  *MetadataRecovery
	recorder  Recorder
	sensitive []string
	now       func() time.Time
	logger    *dslog.Logger
}

// New creates an engine
func New(commands CommandLookup, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SensitiveParams == nil {
		opts.SensitiveParams = DefaultSensitiveParams
	}

	e := &Engine{
		commands:  commands,
		executor:  NewExecutor(opts.Runner, opts.Executable, ExecutorOptions{Timeout: opts.Timeout}),
		recorder:  opts.Recorder,
		sensitive: opts.SensitiveParams,
		now:       opts.Now,
		logger:    logging.NewSimpleLogger("engine"),
	}
	if opts.Recovery != nil {
		rc := *opts.Recovery
		if rc.Now == nil {
			rc.Now = opts.Now
		}
		e.recovery = NewMetadataRecovery(rc)
	}
	return e
}

// Executor exposes the process executor
func (e *Engine) Executor() *Executor {
	return e.executor
}

// Recovery returns the failure heuristic, nil when disabled
func (e *Engine) Recovery() *MetadataRecovery {
	return e.recovery
}

// Close releases background resources
func (e *Engine) Close() {
	if e.recovery != nil {
		e.recovery.Close()
	}
}

// Invoke runs the named tool with loosely typed arguments
func (e *Engine) Invoke(ctx context.Context, toolName string, raw map[string]interface{}) *InvocationResult {
	spec, err := e.commands.Lookup(toolName)
	if err != nil {
		return e.finish(ctx, e.failed(toolName, err))
	}
	args, err := NewArgumentBag(raw)
	if err != nil {
		return e.finish(ctx, e.failed(toolName, dserror.Wrap(err, "invalid arguments").
			WithCode(dserror.CodeInvalidParameter)))
	}
	return e.InvokeSpec(ctx, spec, args)
}

// InvokeSpec runs spec with an already typed argument bag. Every outcome,
// including specification errors, yields a result.
func (e *Engine) InvokeSpec(ctx context.Context, spec *catalog.CommandSpec, args ArgumentBag) *InvocationResult {
	logger := e.logger.WithField("tool", spec.ToolName)

	for name := range args {
		if _, ok := spec.Param(name); !ok {
			logger.Debug("Ignoring undeclared argument", dslog.Fields{"argument": name})
		}
	}

	args = applyAutoName(spec, args, e.now())
	command, err := BuildCommand(spec, args)
	if err != nil {
		return e.finish(ctx, e.failed(spec.ToolName, err))
	}

	result := &InvocationResult{
		ID:              uuid.New().String(),
		Tool:            spec.ToolName,
		Command:         command,
		RedactedCommand: e.redact(spec, args, command),
		StartedAt:       e.now(),
	}
	logger = logger.WithInvocationID(result.ID)
	logger.Debug("Executing dscli", dslog.Fields{"command": result.RedactedCommand})

	timer := logger.StartTimer("invocation").WithLevel(dslog.LevelInfo)
	exec := e.executor.Execute(ctx, command)
	result.Duration = timer.Elapsed()

	result.Stdout = exec.Stdout
	result.Stderr = exec.Stderr
	result.ExitCode = exec.ExitCode
	if exec.Err != nil {
		result.Error = exec.Err.Error()
		result.ErrorCode = dserror.GetCode(exec.Err).String()
	}

	if e.recovery != nil {
		if result.Succeeded() {
			e.recovery.OnSuccess(spec.ToolName, args)
		} else if diag, ok := e.recovery.OnFailure(spec.ToolName, args, result.Stderr); ok {
			result.Diagnostic = &diag
			result.Stderr = diag.Prepend(result.Stderr)
			logger.Info("Metadata cache failure classified", dslog.Fields{"suggested_tool": diag.SuggestedTool})
		}
	}

	fields := dslog.Fields{"exit_code": result.ExitCode}
	if result.Succeeded() {
		timer.Stop(fields)
	} else {
		timer.StopWithError(exec.Err, fields)
	}
	return e.finish(ctx, result)
}

// failed builds the result for an error raised before any process ran
func (e *Engine) failed(toolName string, err error) *InvocationResult {
	e.logger.WarnWithErr("Invocation rejected", err, dslog.Fields{"tool": toolName})
	return &InvocationResult{
		ID:        uuid.New().String(),
		Tool:      toolName,
		ExitCode:  -1,
		Error:     err.Error(),
		ErrorCode: dserror.GetCode(err).String(),
		StartedAt: e.now(),
	}
}

func (e *Engine) finish(ctx context.Context, result *InvocationResult) *InvocationResult {
	if e.recorder == nil {
		return result
	}
	if err := e.recorder.RecordInvocation(ctx, result); err != nil {
		e.logger.WarnWithErr("Failed to record invocation", err, dslog.Fields{"invocation_id": result.ID})
	}
	return result
}

// IsSensitive reports whether a parameter name denotes a secret
func (e *Engine) IsSensitive(name string) bool {
	return isSensitive(e.sensitive, name)
}

func isSensitive(patterns []string, name string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// redact rebuilds the command with sensitive valued flags masked
func (e *Engine) redact(spec *catalog.CommandSpec, args ArgumentBag, command string) string {
	masked := make(ArgumentBag, len(args))
	changed := false
	for name, v := range args {
		p, ok := spec.Param(name)
		if ok && p.Type != catalog.TypeBoolean && !v.IsAbsent() && isSensitive(e.sensitive, name) {
			masked[name] = StringValue("***")
			changed = true
			continue
		}
		masked[name] = v
	}
	if !changed {
		return command
	}
	redacted, err := BuildCommand(spec, masked)
	if err != nil {
		return command
	}
	return redacted
}
