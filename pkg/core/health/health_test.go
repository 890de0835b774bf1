package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistryCheck(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   Status
	}{
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"catalog": func(context.Context) CheckResult { return Healthy("19 commands", nil) },
				"store":   func(context.Context) CheckResult { return CheckResult{} },
			},
			want: StatusHealthy,
		},
		{
			name: "degraded",
			checks: map[string]CheckFunc{
				"catalog": func(context.Context) CheckResult { return Healthy("ok", nil) },
				"store":   func(context.Context) CheckResult { return Degraded("memory store", nil) },
			},
			want: StatusDegraded,
		},
		{
			name: "unhealthy wins over degraded",
			checks: map[string]CheckFunc{
				"dscli": func(context.Context) CheckResult { return Unhealthy(errors.New("not found"), nil) },
				"store": func(context.Context) CheckResult { return Degraded("memory store", nil) },
			},
			want: StatusUnhealthy,
		},
		{
			name:   "no checks",
			checks: map[string]CheckFunc{},
			want:   StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry("dsmcp", "1.0.0")
			for name, fn := range tt.checks {
				r.Register(name, fn)
			}
			report := r.Check(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %s, want %s", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(report.Checks), len(tt.checks))
			}
			if report.Healthy() != (tt.want == StatusHealthy) {
				t.Error("Healthy() disagrees with Status")
			}
		})
	}
}

func TestResultsSortedAndNamed(t *testing.T) {
	r := NewRegistry("dsmcp", "1.0.0")
	for _, name := range []string{"store", "catalog", "dscli"} {
		r.Register(name, func(context.Context) CheckResult { return CheckResult{Name: "ignored"} })
	}

	report := r.Check(context.Background())
	got := []string{report.Checks[0].Name, report.Checks[1].Name, report.Checks[2].Name}
	if got[0] != "catalog" || got[1] != "dscli" || got[2] != "store" {
		t.Errorf("order = %v", got)
	}
}

func TestChecksRunConcurrently(t *testing.T) {
	r := NewRegistry("dsmcp", "1.0.0")
	var running, peak int32
	for _, name := range []string{"a", "b", "c"} {
		r.Register(name, func(context.Context) CheckResult {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return Healthy("", nil)
		})
	}

	start := time.Now()
	r.Check(context.Background())
	if elapsed := time.Since(start); elapsed > 80*time.Millisecond && atomic.LoadInt32(&peak) < 2 {
		t.Errorf("checks ran sequentially: %v", elapsed)
	}
}

func TestCheckWithTimeout(t *testing.T) {
	r := NewRegistry("dsmcp", "1.0.0")
	r.Register("slow", func(ctx context.Context) CheckResult {
		select {
		case <-ctx.Done():
			return Unhealthy(ctx.Err(), nil)
		case <-time.After(time.Second):
			return Healthy("", nil)
		}
	})

	report := r.CheckWithTimeout(context.Background(), 20*time.Millisecond)
	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %s, want unhealthy after timeout", report.Status)
	}
}

func TestReportString(t *testing.T) {
	r := &Report{Service: "dsmcp", Version: "1.2.0", Status: StatusDegraded, Checks: make([]CheckResult, 2)}
	if got := r.String(); got != "dsmcp 1.2.0: degraded (2 checks)" {
		t.Errorf("String() = %q", got)
	}
}
