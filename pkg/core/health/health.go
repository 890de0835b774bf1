// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     health
// Description: Component health checks for the bridge
// Created:     2025-12-18
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status of a component or of the whole bridge
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one check
type CheckResult struct {
	Name     string                 `json:"name"`
	Status   Status                 `json:"status"`
	Message  string                 `json:"message,omitempty"`
	Duration time.Duration          `json:"duration"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// CheckFunc probes one component
type CheckFunc func(ctx context.Context) CheckResult

// Registry runs named checks concurrently
type Registry struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	service string
	version string
	now     func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checks:  make(map[string]CheckFunc),
		service: service,
		version: version,
		now:     time.Now,
	}
}

// Register adds or replaces a check
func (r *Registry) Register(name string, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = fn
}

// Check runs every check and folds the results: any unhealthy check
// makes the report unhealthy, otherwise any degraded one degrades it.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checks := make(map[string]CheckFunc, len(r.checks))
	for name, fn := range r.checks {
		checks[name] = fn
	}
	r.mu.RUnlock()

	report := &Report{
		Service:   r.service,
		Version:   r.version,
		Status:    StatusHealthy,
		Timestamp: r.now(),
		Checks:    make([]CheckResult, 0, len(checks)),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, fn := range checks {
		wg.Add(1)
		go func(name string, fn CheckFunc) {
			defer wg.Done()
			start := time.Now()
			result := fn(ctx)
			result.Name = name
			result.Duration = time.Since(start)
			if result.Status == "" {
				result.Status = StatusHealthy
			}

			mu.Lock()
			report.Checks = append(report.Checks, result)
			mu.Unlock()
		}(name, fn)
	}
	wg.Wait()

	sort.Slice(report.Checks, func(i, j int) bool { return report.Checks[i].Name < report.Checks[j].Name })
	for _, c := range report.Checks {
		switch c.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

// CheckWithTimeout runs Check under a deadline
func (r *Registry) CheckWithTimeout(ctx context.Context, timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Check(ctx)
}

// Report is the combined result
type Report struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// Healthy reports whether every check passed
func (r *Report) Healthy() bool {
	return r.Status == StatusHealthy
}

func (r *Report) String() string {
	return fmt.Sprintf("%s %s: %s (%d checks)", r.Service, r.Version, r.Status, len(r.Checks))
}

// Healthy builds a passing result
func Healthy(msg string, details map[string]interface{}) CheckResult {
	return CheckResult{Status: StatusHealthy, Message: msg, Details: details}
}

// Degraded builds a result for a component that works with limitations
func Degraded(msg string, details map[string]interface{}) CheckResult {
	return CheckResult{Status: StatusDegraded, Message: msg, Details: details}
}

// Unhealthy builds a failing result from err
func Unhealthy(err error, details map[string]interface{}) CheckResult {
	return CheckResult{Status: StatusUnhealthy, Message: err.Error(), Details: details}
}
