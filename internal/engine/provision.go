package engine

import (
	"context"
	"time"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/consent"
	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/reconcile"
	"github.com/appfx/appfx/internal/settings"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

// Provision runs the full provisioning protocol for one environment:
//
//  1. Resolve the target (identity, subscription, resource group, drift).
//  2. Gate on operator consent.
//  3. Create the resource group if needed, before any plugin call.
//  4. Provision phase across all capable plugins, concurrently.
//  5. Deploy the combined infrastructure template as one atomic step.
//  6. Configure phase, once template outputs are recorded.
//  7. Mark the provision succeeded.
//
// Any failure aborts the remaining steps; state recorded so far is
// persisted so a re-run continues instead of starting over. Plugin failures
// are never retried here — phases are idempotent, so retry is the operator
// re-running the command.
func (e *Engine) Provision(ctx context.Context, proj *settings.ProjectSettings, env *environment.Info, in Inputs) error {
	parts, err := e.participants(proj)
	if err != nil {
		return err
	}

	target, err := e.reconciler.Resolve(ctx, proj, env, e.inventory(), reconcile.Inputs{
		SubscriptionID:    in.SubscriptionID,
		ResourceGroupName: in.ResourceGroupName,
		Interactive:       in.Interactive,
	})
	if err != nil {
		// The reconciler may have purged drifted state before failing;
		// that purge is real and must survive the abort.
		if !in.DryRun {
			e.persistOnAbort(env)
		}
		return err
	}

	summary := consent.FromTarget(env.EnvName, target)
	if in.DryRun {
		return e.dryRun(env, proj, target, parts, summary)
	}

	if _, err := e.gate.Confirm(ctx, summary); err != nil {
		// Declining discards the run including any in-memory drift purge:
		// nothing was created, so recorded state still describes real
		// resources under the previous target.
		return err
	}

	if target.NeedsResourceGroup {
		group := cloud.ResourceGroup{Name: target.ResourceGroupName, Location: target.Location}
		if err := e.clients.Resources.CreateResourceGroup(ctx, target.SubscriptionID, group); err != nil {
			e.persistOnAbort(env)
			return apperrors.NewCreateResourceGroupError(target.ResourceGroupName, target.SubscriptionID, err)
		}
		e.log.Infof("created resource group %q in subscription %s", target.ResourceGroupName, target.SubscriptionID)
	}

	// Record the resolved target before the first plugin call. The success
	// flag stays false until the configure phase completes, so an
	// interrupted run is recognizably incomplete.
	recordTarget(env, target, false)
	if err := e.persist(env); err != nil {
		return err
	}

	ptarget := pluginTarget(target)

	provisionSummary := e.runPhase(ctx, model.PhaseProvision, proj, env, ptarget, provisionCalls(parts))
	if err := e.persist(env); err != nil {
		return err
	}
	if err := phaseError("provision", provisionSummary); err != nil {
		return err
	}

	if err := e.deployTemplates(ctx, proj, env, ptarget, parts); err != nil {
		e.persistOnAbort(env)
		return err
	}
	if err := e.persist(env); err != nil {
		return err
	}

	configureSummary := e.runPhase(ctx, model.PhaseConfigure, proj, env, ptarget, configureCalls(parts))
	if err := e.persist(env); err != nil {
		return err
	}
	if err := phaseError("configure", configureSummary); err != nil {
		return err
	}

	recordTarget(env, target, true)
	if err := e.persist(env); err != nil {
		return err
	}

	e.log.Infof("environment %q provisioned in subscription %s", env.EnvName, target.SubscriptionID)
	return nil
}

// dryRun previews the consent summary and the provision phase without
// touching the cloud or the state files.
func (e *Engine) dryRun(env *environment.Info, proj *settings.ProjectSettings, target *reconcile.Target, parts []participant, summary consent.Summary) error {
	e.gate.Preview(summary)

	e.dryRunPhase(model.PhaseProvision, provisionCalls(parts))
	if len(templateGenerators(parts)) > 0 {
		e.log.Infof("dry run: would deploy the infrastructure template to resource group %q", target.ResourceGroupName)
	}
	e.dryRunPhase(model.PhaseConfigure, configureCalls(parts))
	return nil
}

// deployTemplates collects every plugin's template fragment and ships them
// as one atomic deployment. Outputs come back keyed by component, and this
// is the one place the engine writes into component namespaces it does not
// own: plugins consume the outputs in later phases through their own views.
func (e *Engine) deployTemplates(ctx context.Context, proj *settings.ProjectSettings, env *environment.Info, target plugin.Target, parts []participant) error {
	generators := templateGenerators(parts)
	if len(generators) == 0 {
		return nil
	}

	e.events.PhaseStarted(model.PhaseTemplateDeploy, []string{InfraStep})

	fragments := make([]cloud.ComponentTemplate, 0, len(generators))
	for _, part := range generators {
		gen := part.plug.(plugin.TemplateGenerator)
		fragment, err := gen.GenerateTemplate(ctx, e.pluginContext(proj, env, target, part.component))
		if err != nil {
			werr := apperrors.NewPluginExecutionError(part.component.Name, string(model.PhaseTemplateDeploy), err)
			e.events.PluginCompleted(infraResult(model.StatusFailed, err.Error(), werr))
			return werr
		}
		if fragment != nil {
			fragments = append(fragments, *fragment)
		}
	}

	outputs, err := e.clients.Templates.Deploy(ctx, cloud.DeployTarget{
		SubscriptionID:    target.SubscriptionID,
		ResourceGroupName: target.ResourceGroupName,
		Location:          target.Location,
		Parameters: map[string]any{
			"appName":            proj.AppName,
			"envName":            env.EnvName,
			"resourceNameSuffix": target.ResourceNameSuffix,
		},
	}, fragments)
	if err != nil {
		werr := apperrors.NewTemplateDeploymentError(target.ResourceGroupName, err)
		e.events.PluginCompleted(infraResult(model.StatusFailed, err.Error(), werr))
		return werr
	}

	for component, patch := range outputs {
		env.State.Merge(component, patch)
	}

	e.events.PluginCompleted(infraResult(model.StatusSuccess, "infrastructure template deployed", nil))
	return nil
}

func templateGenerators(parts []participant) []participant {
	var generators []participant
	for _, part := range parts {
		if _, ok := part.plug.(plugin.TemplateGenerator); ok {
			generators = append(generators, part)
		}
	}
	return generators
}

func infraResult(status, message string, err error) model.PluginResult {
	return model.PluginResult{
		Plugin:    InfraStep,
		Phase:     model.PhaseTemplateDeploy,
		Status:    status,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// recordTarget writes the resolved target into the solution slice,
// preserving unrelated keys other components may have put there.
func recordTarget(env *environment.Info, target *reconcile.Target, succeeded bool) {
	sol := env.State.Solution()
	sol.TenantID = target.TenantID
	sol.TeamsAppTenantID = target.TeamsAppTenantID
	sol.SubscriptionID = target.SubscriptionID
	sol.SubscriptionName = target.SubscriptionName
	sol.ResourceGroupName = target.ResourceGroupName
	sol.Location = target.Location
	sol.ResourceNameSuffix = target.ResourceNameSuffix
	sol.ProvisionSucceeded = succeeded
	env.State.SetSolution(sol)
}
