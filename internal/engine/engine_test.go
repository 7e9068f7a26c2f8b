package engine

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/cloud/memory"
	"github.com/appfx/appfx/internal/consent"
	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/reconcile"
	"github.com/appfx/appfx/internal/settings"
	"github.com/appfx/appfx/internal/ui"
)

const (
	tenantOne = "11111111-aaaa-4aaa-8aaa-111111111111"
	subOne    = "aaaaaaaa-1111-4111-8111-aaaaaaaaaaaa"
	subTwo    = "bbbbbbbb-2222-4222-8222-bbbbbbbbbbbb"
	projectID = "cccccccc-3333-4333-8333-cccccccccccc"
)

// fakePlugin implements every plugin capability with scriptable outcomes
// and records which phases ran and with what target.
type fakePlugin struct {
	meta plugin.Metadata

	provisionErr error
	configureErr error
	deployErr    error
	templateErr  error

	// provisionFn, when set, replaces the default provision behavior.
	provisionFn func(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error)
	// onProvision runs inside ProvisionResource, before any outcome.
	onProvision func()

	mu         sync.Mutex
	calls      []string
	lastTarget plugin.Target
}

func newFakePlugin(name string, scoped bool) *fakePlugin {
	return &fakePlugin{meta: plugin.Metadata{
		Name:               name,
		Description:        "test double",
		SubscriptionScoped: scoped,
	}}
}

var (
	_ plugin.Plugin              = (*fakePlugin)(nil)
	_ plugin.ResourceProvisioner = (*fakePlugin)(nil)
	_ plugin.ResourceConfigurer  = (*fakePlugin)(nil)
	_ plugin.TemplateGenerator   = (*fakePlugin)(nil)
	_ plugin.Deployer            = (*fakePlugin)(nil)
)

func (f *fakePlugin) Metadata() plugin.Metadata { return f.meta }

func (f *fakePlugin) record(phase string, pctx *plugin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, phase)
	f.lastTarget = pctx.Target
}

// Calls returns the phases this plugin ran, in call order.
func (f *fakePlugin) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakePlugin) Target() plugin.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastTarget
}

func (f *fakePlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	f.record("provision", pctx)
	if f.onProvision != nil {
		f.onProvision()
	}
	if f.provisionFn != nil {
		return f.provisionFn(ctx, pctx)
	}
	if f.provisionErr != nil {
		return nil, f.provisionErr
	}
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: "provisioned",
		Patch:   model.StatePatch{"resourceName": f.meta.Name + "-resource"},
	}, nil
}

func (f *fakePlugin) ConfigureResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	f.record("configure", pctx)
	if f.configureErr != nil {
		return nil, f.configureErr
	}
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: "configured",
		Patch:   model.StatePatch{"configured": true},
	}, nil
}

func (f *fakePlugin) GenerateTemplate(ctx context.Context, pctx *plugin.Context) (*cloud.ComponentTemplate, error) {
	f.record("template", pctx)
	if f.templateErr != nil {
		return nil, f.templateErr
	}
	return &cloud.ComponentTemplate{
		Component: f.meta.Name,
		Body:      map[string]any{"kind": f.meta.Name},
	}, nil
}

func (f *fakePlugin) Deploy(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	f.record("deploy", pctx)
	if f.deployErr != nil {
		return nil, f.deployErr
	}
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: "deployed",
		Patch:   model.StatePatch{"deployedBy": f.meta.Name},
	}, nil
}

// provisionOnlyPlugin implements nothing beyond the provision capability,
// so every other phase must skip it entirely.
type provisionOnlyPlugin struct {
	meta plugin.Metadata

	mu    sync.Mutex
	calls int
}

func newProvisionOnlyPlugin(name string) *provisionOnlyPlugin {
	return &provisionOnlyPlugin{meta: plugin.Metadata{Name: name, Description: "provision-only test double"}}
}

var (
	_ plugin.Plugin              = (*provisionOnlyPlugin)(nil)
	_ plugin.ResourceProvisioner = (*provisionOnlyPlugin)(nil)
)

func (p *provisionOnlyPlugin) Metadata() plugin.Metadata { return p.meta }

func (p *provisionOnlyPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return &model.PluginResult{Status: model.StatusSuccess, Message: "provisioned"}, nil
}

func (p *provisionOnlyPlugin) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recordingFlusher snapshots state at every flush so tests can inspect what
// would have reached disk at each boundary.
type recordingFlusher struct {
	err       error
	snapshots []environment.State
}

func (f *recordingFlusher) flush(info *environment.Info) error {
	if f.err != nil {
		return f.err
	}
	f.snapshots = append(f.snapshots, info.State.DeepCopy())
	return nil
}

func (f *recordingFlusher) count() int { return len(f.snapshots) }

func (f *recordingFlusher) last() environment.State {
	if len(f.snapshots) == 0 {
		return nil
	}
	return f.snapshots[len(f.snapshots)-1]
}

// recordingEvents captures progress notifications. The engine delivers them
// from a single goroutine, so no locking is needed.
type recordingEvents struct {
	phases       []model.Phase
	phasePlugins map[model.Phase][]string
	results      []model.PluginResult
}

func (e *recordingEvents) PhaseStarted(phase model.Phase, plugins []string) {
	e.phases = append(e.phases, phase)
	if e.phasePlugins == nil {
		e.phasePlugins = make(map[model.Phase][]string)
	}
	e.phasePlugins[phase] = plugins
}

func (e *recordingEvents) PluginCompleted(result model.PluginResult) {
	e.results = append(e.results, result)
}

func (e *recordingEvents) resultsFor(phase model.Phase) []model.PluginResult {
	var out []model.PluginResult
	for _, r := range e.results {
		if r.Phase == phase {
			out = append(out, r)
		}
	}
	return out
}

// rig wires an engine against in-memory cloud fakes, a scripted prompt, and
// recording collaborators. The prompt is pre-loaded with a single consent.
type rig struct {
	engine     *Engine
	clients    *cloud.Clients
	prompt     *ui.ScriptedInteractor
	flusher    *recordingFlusher
	events     *recordingEvents
	consentOut *bytes.Buffer
}

func newRig(t *testing.T, plugs ...plugin.Plugin) *rig {
	t.Helper()

	registry := plugin.NewRegistry()
	for _, p := range plugs {
		require.NoError(t, registry.Register(p))
	}
	return newRigWithRegistry(t, registry)
}

func newRigWithRegistry(t *testing.T, registry *plugin.Registry) *rig {
	t.Helper()

	clients := memory.NewClients(
		cloud.Account{TenantID: tenantOne, Username: "dev@contoso.example"},
		tenantOne,
		cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne},
	)

	prompt := &ui.ScriptedInteractor{Selections: []string{"Provision"}}
	flusher := &recordingFlusher{}
	events := &recordingEvents{}
	out := &bytes.Buffer{}

	eng := New(Config{
		Registry:   registry,
		Clients:    clients,
		Reconciler: reconcile.New(clients, prompt, nil),
		Gate:       consent.NewGate(prompt, out),
		Events:     events,
		Flush:      flusher.flush,
	})

	return &rig{
		engine:     eng,
		clients:    clients,
		prompt:     prompt,
		flusher:    flusher,
		events:     events,
		consentOut: out,
	}
}

func (r *rig) resources() *memory.ResourceManager {
	return r.clients.Resources.(*memory.ResourceManager)
}

func (r *rig) templates() *memory.TemplateEngine {
	return r.clients.Templates.(*memory.TemplateEngine)
}

// testProject builds a component-graph project whose named components all
// provision.
func testProject(components ...string) *settings.ProjectSettings {
	proj := &settings.ProjectSettings{
		AppName:   "Demo App",
		ProjectID: projectID,
		Version:   settings.ComponentsVersion,
	}
	for _, name := range components {
		proj.Components = append(proj.Components, settings.Component{Name: name, Provision: true})
	}
	return proj
}

func freshEnv() *environment.Info {
	return &environment.Info{EnvName: "dev", State: environment.State{}}
}

func provisionedEnv(subscriptionID string) *environment.Info {
	env := freshEnv()
	env.State.SetSolution(environment.Solution{
		TeamsAppTenantID:   tenantOne,
		TenantID:           tenantOne,
		SubscriptionID:     subscriptionID,
		SubscriptionName:   "Main",
		ResourceGroupName:  "demo_app-dev-rg",
		Location:           "eastus",
		ResourceNameSuffix: "a1b2c3",
		ProvisionSucceeded: true,
	})
	return env
}
