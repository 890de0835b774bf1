package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
)

const testPath = "/opt/datasunrise/cmdline/executecommand.sh"

// fakeRunner answers verification runs with the dscli help banner and
// delegates everything else to handle.
type fakeRunner struct {
	path   string
	mu     sync.Mutex
	calls  []string
	verify func(candidate string) RunOutput
	handle func(ctx context.Context, line string) (RunOutput, error)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		path: testPath,
		verify: func(candidate string) RunOutput {
			if candidate == `"`+testPath+`"` {
				return RunOutput{Stdout: "Usage: dscli\nCommands:\n  connect\n"}
			}
			return RunOutput{ExitCode: ExitNotFound, Stderr: "not found"}
		},
		handle: func(ctx context.Context, line string) (RunOutput, error) {
			return RunOutput{Stdout: "OK"}, nil
		},
	}
}

func (f *fakeRunner) Run(ctx context.Context, line string) (RunOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	for _, c := range Candidates(f.path) {
		if line == c {
			return f.verify(c), nil
		}
	}
	return f.handle(ctx, line)
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestCandidates(t *testing.T) {
	got := Candidates("/opt/ds/dscli")
	want := []string{
		`"/opt/ds/dscli"`,
		`"/opt/ds/executecommand.sh"`,
		`"/opt/ds/executecommand.bat"`,
		`java -Xms128m -Xmx128m -cp "/opt/ds/lib/*" com.fw.console.client.cli.Main`,
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}

	if got := Candidates("/opt/ds/executecommand.sh"); len(got) != 3 {
		t.Errorf("a .sh path should not repeat itself: %v", got)
	}
	if got := Candidates(`/opt/ds/executecommand.bat`); len(got) != 3 {
		t.Errorf("a .bat path should not repeat itself: %v", got)
	}
}

func TestVerifyFallsBackToSibling(t *testing.T) {
	runner := newFakeRunner()
	runner.path = "/opt/ds/dscli"
	runner.verify = func(candidate string) RunOutput {
		if strings.Contains(candidate, "executecommand.bat") {
			return RunOutput{Stderr: "Cannot read information from server", ExitCode: 1}
		}
		return RunOutput{ExitCode: 1, Stderr: "garbage"}
	}

	e := NewExecutor(runner, "/opt/ds/dscli", ExecutorOptions{})
	if err := e.Verify(context.Background()); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if e.Active() != `"/opt/ds/executecommand.bat"` {
		t.Errorf("Active() = %q", e.Active())
	}
}

func TestVerifyFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.verify = func(string) RunOutput { return RunOutput{ExitCode: ExitNotFound} }

	e := NewExecutor(runner, testPath, ExecutorOptions{})
	err := e.Verify(context.Background())
	if !dserror.HasCode(err, dserror.CodeExecutableUnverified) {
		t.Fatalf("Verify() error = %v, want %s", err, dserror.CodeExecutableUnverified)
	}
	if e.Verified() || e.Active() != "" {
		t.Error("executor must stay unverified")
	}

	res := e.Execute(context.Background(), "showInstances")
	if res.ExitCode != -1 || res.CommandLine != "" {
		t.Errorf("Execute() without executable = %+v", res)
	}
}

func TestExecuteSuccess(t *testing.T) {
	runner := newFakeRunner()
	e := NewExecutor(runner, testPath, ExecutorOptions{})

	res := e.Execute(context.Background(), "showInstances")
	if res.Err != nil || res.ExitCode != 0 || res.Stdout != "OK" {
		t.Fatalf("Execute() = %+v", res)
	}
	if want := `"` + testPath + `" showInstances`; res.CommandLine != want {
		t.Errorf("CommandLine = %q, want %q", res.CommandLine, want)
	}

	e.Execute(context.Background(), "showInstances")
	if n := len(runner.Calls()); n != 3 {
		t.Errorf("verification should run once, got %d calls", n)
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	runner := newFakeRunner()
	runner.handle = func(context.Context, string) (RunOutput, error) {
		return RunOutput{ExitCode: 1, Stderr: "Rule already exists\nat line 1"}, nil
	}
	e := NewExecutor(runner, testPath, ExecutorOptions{})

	res := e.Execute(context.Background(), "addMaskRule -name r1")
	if res.ExitCode != 1 || !dserror.HasCode(res.Err, dserror.CodeExecutionFailed) {
		t.Fatalf("Execute() = %+v", res)
	}
	if !strings.Contains(res.Err.Error(), "Rule already exists") {
		t.Errorf("error should carry the first stderr line: %v", res.Err)
	}
	if !e.Verified() {
		t.Error("an execution error must not clear the verified state")
	}
}

func TestExecuteTransportErrorInvalidates(t *testing.T) {
	tests := []struct {
		name string
		out  RunOutput
		err  error
	}{
		{"exit 127", RunOutput{ExitCode: ExitNotFound, Stderr: "sh: dscli: not found"}, nil},
		{"exit 126", RunOutput{ExitCode: ExitNotExecutable, Stderr: "permission denied"}, nil},
		{"start error", RunOutput{ExitCode: -1}, errors.New("exec: no such file")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.handle = func(context.Context, string) (RunOutput, error) { return tt.out, tt.err }
			e := NewExecutor(runner, testPath, ExecutorOptions{})

			res := e.Execute(context.Background(), "showInstances")
			if !dserror.HasCode(res.Err, dserror.CodeExecutableNotFound) {
				t.Fatalf("Err = %v, want %s", res.Err, dserror.CodeExecutableNotFound)
			}
			if res.ExitCode == 0 {
				t.Error("exit code must be non-zero")
			}
			if e.Verified() {
				t.Error("transport error must clear the verified state")
			}

			before := len(runner.Calls())
			e.Execute(context.Background(), "showInstances")
			calls := runner.Calls()[before:]
			if len(calls) < 2 || calls[0] != `"`+testPath+`"` {
				t.Errorf("next call should re-verify first, got %v", calls)
			}
		})
	}
}

func TestExecuteTimeout(t *testing.T) {
	runner := newFakeRunner()
	runner.handle = func(ctx context.Context, _ string) (RunOutput, error) {
		<-ctx.Done()
		return RunOutput{ExitCode: -1}, ctx.Err()
	}
	e := NewExecutor(runner, testPath, ExecutorOptions{Timeout: 20 * time.Millisecond})

	res := e.Execute(context.Background(), "statMask")
	if res.ExitCode != ExitTimeout {
		t.Errorf("ExitCode = %d, want %d", res.ExitCode, ExitTimeout)
	}
	if !dserror.HasCode(res.Err, dserror.CodeExecutionTimeout) {
		t.Errorf("Err = %v", res.Err)
	}
	if !e.Verified() {
		t.Error("a timeout is an execution error and keeps the verified state")
	}
}

func TestShellRunnerTimeoutKillsProcessGroup(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process groups are unix only")
	}
	tests := []struct {
		name string
		line string
	}{
		{"sequential list", "sleep 3; echo done"},
		{"nested shell", `sh -c "sleep 3; echo inner"; echo done`},
		{"pipeline", "sleep 3 | cat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			start := time.Now()
			out, err := ShellRunner{}.Run(ctx, tt.line)
			if elapsed := time.Since(start); elapsed > 1500*time.Millisecond {
				t.Errorf("Run took %v after a 200ms deadline", elapsed)
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("err = %v, want deadline exceeded", err)
			}
			if strings.Contains(out.Stdout, "done") {
				t.Errorf("command ran to completion: %q", out.Stdout)
			}
		})
	}
}

func TestShellRunnerDetachedChildKeepsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	start := time.Now()
	out, err := ShellRunner{}.Run(context.Background(), "(sleep 5) & echo started; exit 3")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.ExitCode != 3 || !strings.Contains(out.Stdout, "started") {
		t.Errorf("out = %+v", out)
	}
	if elapsed := time.Since(start); elapsed > pipeWaitDelay+2*time.Second {
		t.Errorf("Run waited %v for a detached child", elapsed)
	}
}

func TestExecuteTimeoutRealShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "dscli.sh")
	body := "#!/bin/sh\nif [ $# -eq 0 ]; then echo Commands:; exit 0; fi\nsleep 3\necho finished\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatal(err)
	}
	e := NewExecutor(nil, script, ExecutorOptions{Timeout: 200 * time.Millisecond})

	start := time.Now()
	res := e.Execute(context.Background(), "statMask")
	if elapsed := time.Since(start); elapsed > 1500*time.Millisecond {
		t.Errorf("Execute took %v with a 200ms timeout", elapsed)
	}
	if res.ExitCode != ExitTimeout || !dserror.HasCode(res.Err, dserror.CodeExecutionTimeout) {
		t.Errorf("res = %+v", res)
	}
}

func TestSetPathResetsVerification(t *testing.T) {
	runner := newFakeRunner()
	e := NewExecutor(runner, testPath, ExecutorOptions{})
	if err := e.Verify(context.Background()); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	runner.path = "/other/dscli"
	e.SetPath("/other/dscli")
	if e.Verified() || e.Path() != "/other/dscli" {
		t.Errorf("SetPath() left Verified=%v Path=%q", e.Verified(), e.Path())
	}
}
