// Package engine drives the plugin lifecycle for one environment. A
// provisioning run resolves its cloud target, gates on operator consent,
// then walks the phases in strict order: provision, template deployment,
// configure. Within a phase the active plugins run concurrently and a single
// collector merges their state patches, so no locking is needed anywhere in
// the run. State is flushed to disk at every phase boundary and on abort, so
// partial progress survives a crash or a failed sibling.
package engine

import (
	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/consent"
	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/logger"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/reconcile"
	"github.com/appfx/appfx/internal/settings"
)

// FlushFunc persists environment state. Commands bind it to the environment
// store; a nil FlushFunc disables persistence, which dry runs rely on.
type FlushFunc func(info *environment.Info) error

// Inputs are the caller-supplied overrides for one provisioning run.
type Inputs struct {
	SubscriptionID    string
	ResourceGroupName string
	// Interactive permits prompting when configuration does not pin a
	// subscription.
	Interactive bool
	// DryRun resolves and previews but never calls a plugin, creates a
	// resource group, or writes state.
	DryRun bool
}

// Config assembles an Engine's collaborators. Everything is threaded
// explicitly; the engine keeps no global state.
type Config struct {
	Registry   *plugin.Registry
	Clients    *cloud.Clients
	Reconciler *reconcile.Reconciler
	Gate       *consent.Gate
	Logger     *logger.Logger
	// Events receives progress notifications. Optional.
	Events Events
	// Flush persists environment state at phase boundaries. Optional.
	Flush FlushFunc
}

// Engine orchestrates provisioning and deployment runs.
type Engine struct {
	registry   *plugin.Registry
	clients    *cloud.Clients
	reconciler *reconcile.Reconciler
	gate       *consent.Gate
	log        *logger.Logger
	events     Events
	flush      FlushFunc
}

// New creates an Engine from its collaborators.
func New(cfg Config) *Engine {
	events := cfg.Events
	if events == nil {
		events = noopEvents{}
	}
	return &Engine{
		registry:   cfg.Registry,
		clients:    cfg.Clients,
		reconciler: cfg.Reconciler,
		gate:       cfg.Gate,
		log:        cfg.Logger.WithComponent("engine"),
		events:     events,
		flush:      cfg.Flush,
	}
}

// participant pairs an active component with its registered plugin.
type participant struct {
	component settings.Component
	plug      plugin.Plugin
}

// participants resolves every provisionable component against the registry.
// A miss is a programming error: the component set and the plugin set are
// both fixed at build time, so they can only diverge through a bug.
func (e *Engine) participants(proj *settings.ProjectSettings) ([]participant, error) {
	var parts []participant
	for _, c := range proj.Components {
		if !c.Provision {
			continue
		}
		p, err := e.registry.Get(c.Name)
		if err != nil {
			return nil, err
		}
		parts = append(parts, participant{component: c, plug: p})
	}
	return parts, nil
}

// inventory describes the registered component set for the reconciler's
// drift purge.
func (e *Engine) inventory() reconcile.Inventory {
	known := make(map[string]struct{})
	for _, name := range e.registry.Names() {
		known[name] = struct{}{}
	}
	return reconcile.Inventory{Scoped: e.registry.SubscriptionScoped(), Known: known}
}

// pluginContext builds the scoped context for one plugin call. The state
// view is snapshotted here, before the phase launches, so the collector can
// merge results while siblings still run.
func (e *Engine) pluginContext(proj *settings.ProjectSettings, env *environment.Info, target plugin.Target, component settings.Component) *plugin.Context {
	return &plugin.Context{
		EnvName:   env.EnvName,
		AppName:   proj.AppName,
		ProjectID: proj.ProjectID,
		Component: component,
		Config:    env.Config,
		Target:    target,
		Clients:   e.clients,
		Logger:    e.log.WithComponent(component.Name),
		View:      plugin.NewStateView(env.State, component),
	}
}

// persist flushes environment state to disk. Abort paths log a flush failure
// and keep the original error; phase boundaries propagate it, because
// continuing to mutate cloud resources without durable state would widen the
// gap between the two.
func (e *Engine) persist(env *environment.Info) error {
	if e.flush == nil {
		return nil
	}
	return e.flush(env)
}

func (e *Engine) persistOnAbort(env *environment.Info) {
	if err := e.persist(env); err != nil {
		e.log.Error(err, "failed to persist environment state while aborting")
	}
}

// pluginTarget converts a resolved reconciler target into the flat view
// plugins receive.
func pluginTarget(t *reconcile.Target) plugin.Target {
	return plugin.Target{
		TenantID:           t.TenantID,
		TeamsAppTenantID:   t.TeamsAppTenantID,
		SubscriptionID:     t.SubscriptionID,
		SubscriptionName:   t.SubscriptionName,
		ResourceGroupName:  t.ResourceGroupName,
		Location:           t.Location,
		ResourceNameSuffix: t.ResourceNameSuffix,
	}
}

// solutionTarget rebuilds the target of a previous successful provision from
// recorded state. Deployment runs against it instead of re-resolving.
func solutionTarget(sol environment.Solution) plugin.Target {
	return plugin.Target{
		TenantID:           sol.TenantID,
		TeamsAppTenantID:   sol.TeamsAppTenantID,
		SubscriptionID:     sol.SubscriptionID,
		SubscriptionName:   sol.SubscriptionName,
		ResourceGroupName:  sol.ResourceGroupName,
		Location:           sol.Location,
		ResourceNameSuffix: sol.ResourceNameSuffix,
	}
}
