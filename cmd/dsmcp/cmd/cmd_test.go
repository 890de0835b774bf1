package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/engine"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/sequence"
)

func TestParseToolArgs(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		pairs   []string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:  "pairs only",
			pairs: []string{"login=admin", "password=a=b"},
			want:  map[string]interface{}{"login": "admin", "password": "a=b"},
		},
		{
			name:  "pairs override json",
			json:  `{"name": "pg", "port": 5432}`,
			pairs: []string{"name=pg17"},
			want:  map[string]interface{}{"name": "pg17", "port": 5432.0},
		},
		{name: "bad pair", pairs: []string{"oops"}, wantErr: true},
		{name: "bad json", json: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseToolArgs(tt.json, tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseToolArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseToolArgs() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestRenderReport(t *testing.T) {
	jump := 2
	report := &sequence.Report{
		Plan:   "demo",
		Status: sequence.StatusFailed,
		Steps: []sequence.StepReport{
			{Index: 0, Tool: "connect", Result: &engine.InvocationResult{Command: "connect -login admin", ExitCode: 0}},
			{Index: 1, NextStep: &jump},
			{Index: 2, Tool: "rule_show_one", Result: &engine.InvocationResult{Command: "showRule -name r", ExitCode: 3, Error: "failed"}},
		},
		Error: "plan exceeded 10 executed steps",
	}

	out := renderReport(report)
	for _, want := range []string{"demo", "failed", "connect -login admin", "jump to 2", "showRule -name r", "plan exceeded"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dsmcp.toml")
	content := "[general]\ndata_dir = \"" + filepath.ToSlash(dir) + "\"\n[cli]\nverify_on_start = false\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCatalogCommands(t *testing.T) {
	out, err := executeRoot(t, "catalog", "show", "rule_add_masking")
	if err != nil {
		t.Fatalf("catalog show error = %v", err)
	}
	for _, want := range []string{"addMaskRule", "maskColumns", "-maskColumns", "sessionToken"} {
		if !strings.Contains(out, want) {
			t.Errorf("catalog show output missing %q", want)
		}
	}

	if _, err := executeRoot(t, "catalog", "show", "no_such_tool"); err == nil {
		t.Error("unknown tool must fail")
	}
}

func TestParamsCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dsmcp.toml")
	content := "[general]\ndata_dir = \"" + filepath.ToSlash(dir) + "\"\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})

	run("params", "save", "connections", "prod", "host=10.0.0.5", "login=admin")
	if out := run("params", "get", "connections", "prod"); !strings.Contains(out, `"host": "10.0.0.5"`) {
		t.Errorf("params get = %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "dsmcp.db")); err != nil {
		t.Errorf("store was not created under data_dir: %v", err)
	}
	if out := run("params", "list", "connections"); !strings.Contains(out, "prod") {
		t.Errorf("params list = %s", out)
	}
}

func TestStatusCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dsmcp.toml")
	content := "[general]\ndata_dir = \"" + filepath.ToSlash(dir) + "\"\n" +
		"[cli]\nexecutable = \"" + filepath.ToSlash(filepath.Join(dir, "missing", "dscli")) + "\"\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfg, "status", "--json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfgFile = ""
		statusJSON = false
	})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("status must fail when dscli cannot be verified")
	}
	for _, want := range []string{`"name": "catalog"`, `"name": "dscli"`, `"name": "store"`, `"status": "unhealthy"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status output missing %s:\n%s", want, out.String())
		}
	}
}
