// Package memory provides in-process implementations of the cloud
// collaborator contracts. Suitable for unit tests, dry runs, and offline
// development; real vendor SDK bindings implement the same interfaces.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/appfx/appfx/internal/cloud"
)

// NewClients assembles a full in-memory backend: one cloud account with the
// given subscriptions, a messaging account in the given tenant, and empty
// directory, app host, and template engine.
func NewClients(cloudAccount cloud.Account, messagingTenant string, subscriptions ...cloud.Subscription) *cloud.Clients {
	return &cloud.Clients{
		CloudTokens:     &TokenProvider{Account: cloudAccount},
		MessagingTokens: &TokenProvider{Account: cloud.Account{TenantID: messagingTenant, Username: cloudAccount.Username}},
		Resources:       NewResourceManager(subscriptions...),
		Directory:       NewDirectory(),
		AppHost:         NewAppHost(),
		Templates:       NewTemplateEngine(),
	}
}

// TokenProvider returns a fixed account.
type TokenProvider struct {
	Account cloud.Account
	Err     error
}

// AccountInfo returns the configured account.
func (p *TokenProvider) AccountInfo(ctx context.Context) (*cloud.Account, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	account := p.Account
	return &account, nil
}

// AccessToken returns a synthetic bearer token.
func (p *TokenProvider) AccessToken(ctx context.Context, scopes []string) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	return "memory-token", nil
}

// ResourceManager keeps subscriptions and resource groups in maps and lets
// tests inject failures on the existence probe.
type ResourceManager struct {
	mu            sync.Mutex
	subscriptions []cloud.Subscription
	groups        map[string]map[string]cloud.ResourceGroup

	// CheckErr, when set, is returned verbatim by the existence probe. Wrap
	// a *cloud.StatusError to simulate permission failures.
	CheckErr  error
	CreateErr error
}

// NewResourceManager seeds the manager with visible subscriptions.
func NewResourceManager(subscriptions ...cloud.Subscription) *ResourceManager {
	return &ResourceManager{
		subscriptions: subscriptions,
		groups:        make(map[string]map[string]cloud.ResourceGroup),
	}
}

// ListSubscriptions returns every visible subscription.
func (m *ResourceManager) ListSubscriptions(ctx context.Context) ([]cloud.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]cloud.Subscription, len(m.subscriptions))
	copy(out, m.subscriptions)
	return out, nil
}

// GetSubscription looks one subscription up by id.
func (m *ResourceManager) GetSubscription(ctx context.Context, subscriptionID string) (*cloud.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subscriptions {
		if sub.ID == subscriptionID {
			s := sub
			return &s, nil
		}
	}
	return nil, fmt.Errorf("subscription %s not found", subscriptionID)
}

// CheckResourceGroupExistence probes for a resource group.
func (m *ResourceManager) CheckResourceGroupExistence(ctx context.Context, subscriptionID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckErr != nil {
		return false, m.CheckErr
	}
	_, ok := m.groups[subscriptionID][name]
	return ok, nil
}

// GetResourceGroup returns a resource group when present.
func (m *ResourceManager) GetResourceGroup(ctx context.Context, subscriptionID, name string) (*cloud.ResourceGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[subscriptionID][name]
	if !ok {
		return nil, fmt.Errorf("resource group %s not found in %s", name, subscriptionID)
	}
	g := group
	return &g, nil
}

// CreateResourceGroup records a resource group. Creating an existing group
// is idempotent, matching control-plane semantics.
func (m *ResourceManager) CreateResourceGroup(ctx context.Context, subscriptionID string, group cloud.ResourceGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.groups[subscriptionID] == nil {
		m.groups[subscriptionID] = make(map[string]cloud.ResourceGroup)
	}
	m.groups[subscriptionID][group.Name] = group
	return nil
}

// Directory mints app registrations keyed by display name, so repeated
// provisioning adopts the existing registration instead of minting twice.
type Directory struct {
	mu   sync.Mutex
	apps map[string]cloud.AppRegistration

	Err error
}

// NewDirectory creates an empty in-memory directory.
func NewDirectory() *Directory {
	return &Directory{apps: make(map[string]cloud.AppRegistration)}
}

// EnsureAppRegistration returns the existing registration for a display name
// or mints a new one.
func (d *Directory) EnsureAppRegistration(ctx context.Context, displayName string) (*cloud.AppRegistration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	if app, ok := d.apps[displayName]; ok {
		a := app
		return &a, nil
	}
	app := cloud.AppRegistration{
		ClientID:     uuid.NewString(),
		TenantID:     "memory-tenant",
		ClientSecret: uuid.NewString(),
		OAuthHost:    "https://login.example.net/memory-tenant",
	}
	d.apps[displayName] = app
	return &app, nil
}

// AppHost registers messaging-platform apps keyed by tenant and name.
type AppHost struct {
	mu   sync.Mutex
	apps map[string]cloud.AppInfo

	Err error
}

// NewAppHost creates an empty in-memory app host.
func NewAppHost() *AppHost {
	return &AppHost{apps: make(map[string]cloud.AppInfo)}
}

// EnsureApp returns the existing app for (tenant, name) or registers one.
func (h *AppHost) EnsureApp(ctx context.Context, tenantID, appName string, manifest map[string]any) (*cloud.AppInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Err != nil {
		return nil, h.Err
	}
	key := tenantID + "/" + appName
	if app, ok := h.apps[key]; ok {
		a := app
		return &a, nil
	}
	app := cloud.AppInfo{AppID: uuid.NewString(), TenantID: tenantID}
	h.apps[key] = app
	return &app, nil
}

// TemplateEngine records deployments and answers with synthetic per-component
// outputs. Tests may override Outputs or inject Err.
type TemplateEngine struct {
	mu         sync.Mutex
	deployed   [][]cloud.ComponentTemplate
	lastTarget cloud.DeployTarget

	Outputs cloud.DeployOutputs
	Err     error
}

// NewTemplateEngine creates an in-memory template engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{}
}

// Deploy records the fragments and returns outputs: the configured ones, or
// a synthetic endpoint and resource id per fragment.
func (t *TemplateEngine) Deploy(ctx context.Context, target cloud.DeployTarget, fragments []cloud.ComponentTemplate) (cloud.DeployOutputs, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}

	shipped := make([]cloud.ComponentTemplate, len(fragments))
	copy(shipped, fragments)
	t.deployed = append(t.deployed, shipped)
	t.lastTarget = target

	if t.Outputs != nil {
		return t.Outputs, nil
	}

	outputs := make(cloud.DeployOutputs, len(fragments))
	for _, fragment := range fragments {
		name, _ := fragment.Body["resourceName"].(string)
		if name == "" {
			name = fragment.Component
		}
		outputs[fragment.Component] = map[string]any{
			"resourceId": fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s",
				target.SubscriptionID, target.ResourceGroupName, fragment.Component, name),
			"endpoint": fmt.Sprintf("https://%s.example.net", name),
		}
	}
	return outputs, nil
}

// Deployments returns how many atomic deployments were shipped.
func (t *TemplateEngine) Deployments() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.deployed)
}

// LastFragments returns the fragments of the most recent deployment.
func (t *TemplateEngine) LastFragments() []cloud.ComponentTemplate {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.deployed) == 0 {
		return nil
	}
	return t.deployed[len(t.deployed)-1]
}

// LastTarget returns the target of the most recent deployment.
func (t *TemplateEngine) LastTarget() cloud.DeployTarget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastTarget
}
