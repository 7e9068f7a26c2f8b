package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/settings"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

// phaseCall is one plugin invocation within a phase.
type phaseCall struct {
	component settings.Component
	run       func(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error)
}

// provisionCalls selects the participants implementing the provision
// capability. Plugins without it are not part of the phase at all.
func provisionCalls(parts []participant) []phaseCall {
	var calls []phaseCall
	for _, part := range parts {
		p, ok := part.plug.(plugin.ResourceProvisioner)
		if !ok {
			continue
		}
		calls = append(calls, phaseCall{component: part.component, run: p.ProvisionResource})
	}
	return calls
}

func configureCalls(parts []participant) []phaseCall {
	var calls []phaseCall
	for _, part := range parts {
		p, ok := part.plug.(plugin.ResourceConfigurer)
		if !ok {
			continue
		}
		calls = append(calls, phaseCall{component: part.component, run: p.ConfigureResource})
	}
	return calls
}

func deployCalls(parts []participant) []phaseCall {
	var calls []phaseCall
	for _, part := range parts {
		p, ok := part.plug.(plugin.Deployer)
		if !ok {
			continue
		}
		calls = append(calls, phaseCall{component: part.component, run: p.Deploy})
	}
	return calls
}

func callNames(calls []phaseCall) []string {
	names := make([]string, len(calls))
	for i, call := range calls {
		names[i] = call.component.Name
	}
	return names
}

// runPhase fans the calls out concurrently and collects their results in
// completion order. The collector is the only writer of environment state
// while plugins run: every plugin got its view snapshot before launch, so
// merging here cannot race a read. A failed plugin never cancels its
// siblings; the phase always drains completely.
func (e *Engine) runPhase(ctx context.Context, phase model.Phase, proj *settings.ProjectSettings, env *environment.Info, target plugin.Target, calls []phaseCall) model.PhaseSummary {
	summary := model.PhaseSummary{Phase: phase}
	if len(calls) == 0 {
		return summary
	}

	e.events.PhaseStarted(phase, callNames(calls))

	contexts := make([]*plugin.Context, len(calls))
	for i, call := range calls {
		contexts[i] = e.pluginContext(proj, env, target, call.component)
	}

	results := make(chan model.PluginResult)
	for i := range calls {
		go func(call phaseCall, pctx *plugin.Context) {
			results <- e.invoke(ctx, phase, call, pctx)
		}(calls[i], contexts[i])
	}

	for range calls {
		res := <-results
		if res.Status != model.StatusFailed && len(res.Patch) > 0 {
			env.State.Merge(res.Plugin, res.Patch)
		}
		summary.Results = append(summary.Results, res)
		e.events.PluginCompleted(res)

		if res.Status == model.StatusFailed {
			e.log.Error(res.Error, fmt.Sprintf("plugin %q failed during %s", res.Plugin, phase))
		} else {
			e.log.Debugf("plugin %q finished %s: %s", res.Plugin, phase, res.Message)
		}
	}

	return summary
}

// invoke runs a single plugin call and normalizes its outcome. A panicking
// plugin is reported as that plugin's failure instead of tearing down the
// run and every sibling in flight with it.
func (e *Engine) invoke(ctx context.Context, phase model.Phase, call phaseCall, pctx *plugin.Context) (res model.PluginResult) {
	name := call.component.Name
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = failedResult(name, phase, start, fmt.Errorf("plugin panicked: %v", r))
		}
	}()

	out, err := call.run(ctx, pctx)
	if err != nil {
		return failedResult(name, phase, start, err)
	}

	if out == nil {
		out = &model.PluginResult{}
	}
	out.Plugin = name
	out.Phase = phase
	if out.Status == "" {
		out.Status = model.StatusSuccess
	}
	out.Duration = time.Since(start)
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now()
	}
	return *out
}

func failedResult(name string, phase model.Phase, start time.Time, err error) model.PluginResult {
	classified := apperrors.NewPluginExecutionError(name, string(phase), err)
	return model.PluginResult{
		Plugin:    name,
		Phase:     phase,
		Status:    model.StatusFailed,
		Message:   err.Error(),
		Error:     classified,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
}

// dryRunPhase reports what the phase would do without calling any plugin.
func (e *Engine) dryRunPhase(phase model.Phase, calls []phaseCall) model.PhaseSummary {
	summary := model.PhaseSummary{Phase: phase}
	if len(calls) == 0 {
		return summary
	}

	e.events.PhaseStarted(phase, callNames(calls))
	for _, call := range calls {
		res := model.PluginResult{
			Plugin:    call.component.Name,
			Phase:     phase,
			Status:    model.StatusWouldCreate,
			Message:   fmt.Sprintf("would run %s (dry run)", phase),
			Timestamp: time.Now(),
		}
		summary.Results = append(summary.Results, res)
		e.events.PluginCompleted(res)
	}
	return summary
}

// phaseError converts a phase summary into the run's failure, or nil on full
// success. Partial completion is distinct from total failure and carries the
// first failure in completion order as its representative cause.
func phaseError(operation string, s model.PhaseSummary) error {
	switch s.Aggregate() {
	case model.AggregatePartial:
		return apperrors.NewPartialSuccessError(operation, s.FailedPlugins(), s.FirstError())
	case model.AggregateFailure:
		return s.FirstError()
	default:
		return nil
	}
}
