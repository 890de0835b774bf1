// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     engine
// Description: Process execution of dscli and executable verification
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/logging"
)

// Exit codes with a fixed meaning
const (
	// ExitTimeout is reported when the bounded wait expires
	ExitTimeout = 124
	// ExitNotExecutable is the shell status for a permission failure
	ExitNotExecutable = 126
	// ExitNotFound is the shell status for a missing command
	ExitNotFound = 127
)

// Verification signals in the output of dscli run without arguments
const (
	helpSignature    = "Commands:"
	startupSignature = "Cannot read information from"
)

// RunOutput is what a child process produced
type RunOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner starts a command line in a shell and waits for it. A non-zero
// exit is reported through RunOutput.ExitCode with a nil error; the error
// is reserved for failures to start the process or context expiry.
type Runner interface {
	Run(ctx context.Context, commandLine string) (RunOutput, error)
}

// pipeWaitDelay bounds how long Run waits for output pipes after the
// process group has been killed
const pipeWaitDelay = 2 * time.Second

// ShellRunner runs command lines through sh -c (cmd /C on Windows). When
// ctx ends, the whole process group of the shell is killed.
type ShellRunner struct{}

// Run implements Runner
func (ShellRunner) Run(ctx context.Context, commandLine string) (RunOutput, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", commandLine)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", commandLine)
	}
	startInGroup(cmd)
	cmd.WaitDelay = pipeWaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := RunOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		return out, ctxErr
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
		// the shell exited but a detached child kept the pipes open
		out.ExitCode = cmd.ProcessState.ExitCode()
		return out, nil
	default:
		out.ExitCode = -1
		return out, err
	}
}

// ExecResult is the outcome of one Execute call
type ExecResult struct {
	CommandLine string
	Stdout      string
	Stderr      string
	ExitCode    int
	// Err is nil on success; its code tells transport from execution errors
	Err error
}

// ExecutorOptions configure an Executor
type ExecutorOptions struct {
	// Timeout bounds an invocation; zero waits indefinitely
	Timeout time.Duration
	// VerifyTimeout bounds each verification attempt
	VerifyTimeout time.Duration
}

// Executor runs dscli invocations. It owns the verified-executable state,
// which a transport error clears so the next call verifies again.
type Executor struct {
	runner Runner
	opts   ExecutorOptions
	logger *logging.Logger

	mu         sync.RWMutex
	configured string
	active     string
	verified   bool

	// verifyMu serializes verification runs
	verifyMu sync.Mutex
}

// NewExecutor creates an executor for the dscli path
func NewExecutor(runner Runner, path string, opts ExecutorOptions) *Executor {
	if runner == nil {
		runner = ShellRunner{}
	}
	if opts.VerifyTimeout <= 0 {
		opts.VerifyTimeout = 30 * time.Second
	}
	return &Executor{
		runner:     runner,
		opts:       opts,
		logger:     logging.New("executor"),
		configured: path,
	}
}

// Path returns the configured executable path
func (e *Executor) Path() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.configured
}

// Active returns the verified command prefix, empty when unverified
func (e *Executor) Active() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.verified {
		return ""
	}
	return e.active
}

// Verified reports whether a working executable is known
func (e *Executor) Verified() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.verified
}

// SetPath replaces the executable path and clears the verified state
func (e *Executor) SetPath(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configured = path
	e.active = ""
	e.verified = false
}

// Invalidate clears the verified state
func (e *Executor) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.verified = false
}

// Candidates lists the command prefixes tried during verification: the
// path itself, the sibling launcher scripts and finally a direct Java start.
func Candidates(path string) []string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	candidates := []string{quotePath(path)}
	if !strings.HasSuffix(base, ".sh") {
		candidates = append(candidates, quotePath(filepath.Join(dir, "executecommand.sh")))
	}
	if !strings.HasSuffix(base, ".bat") {
		candidates = append(candidates, quotePath(filepath.Join(dir, "executecommand.bat")))
	}
	classpath := `"` + filepath.Join(dir, "lib") + string(filepath.Separator) + `*"`
	candidates = append(candidates, "java -Xms128m -Xmx128m -cp "+classpath+" com.fw.console.client.cli.Main")
	return candidates
}

func quotePath(path string) string {
	return `"` + path + `"`
}

// looksLikeDSCLI applies the verification heuristics to a no-argument run
func looksLikeDSCLI(out RunOutput) bool {
	return strings.Contains(out.Stdout, helpSignature) ||
		strings.Contains(out.Stderr, helpSignature) ||
		strings.Contains(out.Stderr, startupSignature)
}

// Verify runs each candidate without arguments and activates the first
// one whose output looks like dscli.
func (e *Executor) Verify(ctx context.Context) error {
	e.verifyMu.Lock()
	defer e.verifyMu.Unlock()

	path := e.Path()
	for _, candidate := range Candidates(path) {
		vctx, cancel := context.WithTimeout(ctx, e.opts.VerifyTimeout)
		out, err := e.runner.Run(vctx, candidate)
		cancel()

		if looksLikeDSCLI(out) {
			e.mu.Lock()
			// a concurrent SetPath wins over this verification
			if e.configured == path {
				e.active = candidate
				e.verified = true
			}
			e.mu.Unlock()
			e.logger.Info("dscli verified", "candidate", candidate)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Debug("Verification candidate rejected", "candidate", candidate, "exit_code", out.ExitCode, "error", err)
	}

	e.Invalidate()
	return dserror.Newf("dscli executable %q not found or failed verification; set a valid path with set_cli_executable_path or --cli-path", path).
		WithCode(dserror.CodeExecutableUnverified).
		WithDetail("path", path)
}

// Execute runs one invocation string (base command and flags). It
// verifies the executable first when needed. Transport failures clear the
// verified state.
func (e *Executor) Execute(ctx context.Context, invocation string) ExecResult {
	if !e.Verified() {
		if err := e.Verify(ctx); err != nil {
			return ExecResult{ExitCode: -1, Err: err}
		}
	}

	line := e.Active() + " " + invocation
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	out, err := e.runner.Run(ctx, line)
	res := ExecResult{CommandLine: line, Stdout: out.Stdout, Stderr: out.Stderr, ExitCode: out.ExitCode}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res.ExitCode = ExitTimeout
		res.Err = dserror.Newf("dscli did not finish within %s", e.opts.Timeout).
			WithCode(dserror.CodeExecutionTimeout)
	case errors.Is(err, context.Canceled):
		res.Err = dserror.Wrap(err, "invocation cancelled").WithCode(dserror.CodeExecutionFailed)
	case err != nil || out.ExitCode == ExitNotFound || out.ExitCode == ExitNotExecutable:
		e.Invalidate()
		if res.ExitCode == 0 {
			res.ExitCode = -1
		}
		cause := err
		if cause == nil {
			cause = errors.New(strings.TrimSpace(out.Stderr))
		}
		res.Err = dserror.Wrapf(cause, "dscli executable %q could not be executed; re-verify the path", e.Path()).
			WithCode(dserror.CodeExecutableNotFound)
		e.logger.Warn("Transport error, executable marked unverified", "path", e.Path(), "exit_code", res.ExitCode)
	case out.ExitCode != 0:
		msg := strings.TrimSpace(out.Stderr)
		if msg == "" {
			msg = "command failed"
		}
		res.Err = dserror.Newf("dscli exited with code %d: %s", out.ExitCode, firstLine(msg)).
			WithCode(dserror.CodeExecutionFailed)
	}
	return res
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
