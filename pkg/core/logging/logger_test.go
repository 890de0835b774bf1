package logging

import (
	"bytes"
	"strings"
	"testing"

	dslog "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/log"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestToFields(t *testing.T) {
	fields := toFields("tool", "instance_show", 42, "ignored", "exit_code", 0, "dangling")
	if len(fields) != 2 || fields["tool"] != "instance_show" || fields["exit_code"] != 0 {
		t.Errorf("toFields = %v", fields)
	}
	if toFields() != nil {
		t.Error("toFields() should be nil")
	}
}

func TestNewLoggerAdditionalOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{ServiceName: "engine", Level: "debug", Format: "text", AdditionalOutputs: nil})
	kv := Wrap(logger.WithOutput(&buf), "engine")

	kv.Debug("synthesized", "command", "showInstances")
	if !strings.Contains(buf.String(), "command=showInstances") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestWithLevel(t *testing.T) {
	var buf bytes.Buffer
	kv := Wrap(dslog.NewWithConfig(dslog.Config{Level: dslog.LevelDebug, Output: &buf}), "x").WithLevel(LevelWarn)
	kv.Info("hidden")
	kv.Warn("shown", "k", "v")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestWithCarriesFields(t *testing.T) {
	tests := []struct {
		name   string
		format dslog.Format
		want   string
	}{
		{"text", dslog.FormatText, "plan=p1"},
		{"json", dslog.FormatJSON, `"plan":"p1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := dslog.NewWithConfig(dslog.Config{Level: dslog.LevelInfo, Format: tt.format, Output: &buf})
			Wrap(base, "x").With("plan", "p1").Info("step")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("missing field %s: %q", tt.want, buf.String())
			}
		})
	}
}

func TestParseLevelFallback(t *testing.T) {
	if parseLevel("nonsense") != dslog.LevelInfo {
		t.Error("unknown level should fall back to info")
	}
	if parseLevel("debug") != dslog.LevelDebug {
		t.Error("debug")
	}
}

func TestConfigureDefaults(t *testing.T) {
	Configure(LoggerConfig{Level: "debug", Format: "json"})
	defer Configure(LoggerConfig{Level: "info", Format: "text"})

	cfg := DefaultLoggerConfig("svc")
	if cfg.Level != "debug" || cfg.Format != "json" || cfg.ServiceName != "svc" {
		t.Errorf("DefaultLoggerConfig = %+v", cfg)
	}
}
