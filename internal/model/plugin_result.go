package model

import (
	"time"
)

const (
	// StatusPending indicates a plugin call has not started yet.
	StatusPending = "pending"
	// StatusRunning indicates a plugin call is actively executing.
	StatusRunning = "running"
	// StatusSuccess marks a successful plugin call.
	StatusSuccess = "success"
	// StatusSkipped indicates the plugin does not implement the phase.
	StatusSkipped = "skipped"
	// StatusFailed marks a failure during a plugin call.
	StatusFailed = "failed"
	// StatusWouldCreate indicates dry-run would create a resource.
	StatusWouldCreate = "would_create"
)

// StatePatch is the set of keys a plugin writes into its own component slice
// of the environment state. Values must be JSON-representable; string values
// under secret-prefixed keys are sealed before they reach disk.
type StatePatch map[string]any

// PluginResult captures the outcome of one plugin lifecycle call.
type PluginResult struct {
	Plugin    string
	Phase     Phase
	Status    string
	Message   string
	Error     error
	Patch     StatePatch
	Duration  time.Duration
	Timestamp time.Time
}

// AggregateStatus summarizes a whole phase or run.
type AggregateStatus string

const (
	// AggregateSuccess means every plugin call succeeded or was skipped.
	AggregateSuccess AggregateStatus = "success"
	// AggregatePartial means at least one plugin succeeded and at least one
	// failed. Successful patches are kept; the first failure represents the
	// phase to callers.
	AggregatePartial AggregateStatus = "partialSuccess"
	// AggregateFailure means every participating plugin failed.
	AggregateFailure AggregateStatus = "failure"
)

// PhaseSummary collects the results of one phase in completion order.
type PhaseSummary struct {
	Phase   Phase
	Results []PluginResult
}

// Aggregate classifies the phase outcome. Skipped plugins do not count as
// participants; an empty phase is a success.
func (s PhaseSummary) Aggregate() AggregateStatus {
	succeeded, failed := 0, 0
	for _, r := range s.Results {
		switch r.Status {
		case StatusFailed:
			failed++
		case StatusSuccess, StatusWouldCreate:
			succeeded++
		}
	}
	switch {
	case failed == 0:
		return AggregateSuccess
	case succeeded == 0:
		return AggregateFailure
	default:
		return AggregatePartial
	}
}

// FirstError returns the earliest failure in completion order, or nil.
func (s PhaseSummary) FirstError() error {
	for _, r := range s.Results {
		if r.Status == StatusFailed && r.Error != nil {
			return r.Error
		}
	}
	return nil
}

// FailedPlugins lists the plugins that failed, in completion order.
func (s PhaseSummary) FailedPlugins() []string {
	var failed []string
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			failed = append(failed, r.Plugin)
		}
	}
	return failed
}
