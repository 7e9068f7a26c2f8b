package reconcile

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/cloud/memory"
	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/settings"
	"github.com/appfx/appfx/internal/ui"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

const (
	tenantOne = "11111111-aaaa-4aaa-8aaa-111111111111"
	tenantTwo = "22222222-bbbb-4bbb-8bbb-222222222222"
	subOne    = "aaaaaaaa-1111-4111-8111-aaaaaaaaaaaa"
	subTwo    = "bbbbbbbb-2222-4222-8222-bbbbbbbbbbbb"
)

func testInventory() Inventory {
	return Inventory{
		Scoped: map[string]struct{}{
			"web-app":      {},
			"bot-service":  {},
			"sql-database": {},
		},
		Known: map[string]struct{}{
			"web-app":          {},
			"bot-service":      {},
			"sql-database":     {},
			"app-registration": {},
			"app-manifest":     {},
		},
	}
}

func testProject() *settings.ProjectSettings {
	return &settings.ProjectSettings{
		AppName:   "My Notes",
		ProjectID: "cccccccc-3333-4333-8333-cccccccccccc",
	}
}

func testClients(subs ...cloud.Subscription) *cloud.Clients {
	return memory.NewClients(
		cloud.Account{TenantID: tenantOne, Username: "dev@contoso.example"},
		tenantOne,
		subs...,
	)
}

func provisionedEnv(subscriptionID string) *environment.Info {
	return &environment.Info{
		EnvName: "dev",
		State: environment.State{
			"solution": {
				"teamsAppTenantId":   tenantOne,
				"tenantId":           tenantOne,
				"subscriptionId":     subscriptionID,
				"subscriptionName":   "Previous",
				"resourceGroupName":  "my_notes-dev-rg",
				"location":           "westus",
				"resourceNameSuffix": "a1b2c3",
				"provisionSucceeded": true,
				"customNote":         "keep-me",
			},
			"web-app": {
				"resourceId": "/subscriptions/" + subscriptionID + "/old",
				"endpoint":   "https://old.example.net",
			},
			"app-registration": {
				"clientId":           "client-1",
				"secretClientSecret": "hunter2",
			},
			"acme-telemetry": {
				"workspace": "w-1",
			},
		},
	}
}

func TestResolveFirstProvisionHasNoSwitches(t *testing.T) {
	t.Parallel()

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne})
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := &environment.Info{EnvName: "dev", State: environment.State{}}
	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.NoError(t, err)

	require.False(t, target.SwitchedTenant)
	require.False(t, target.SwitchedSubscription)
	require.Equal(t, subOne, target.SubscriptionID)
	require.Equal(t, tenantOne, target.TenantID)
	require.Equal(t, tenantOne, target.TeamsAppTenantID)
	require.Equal(t, "my_notes-dev-rg", target.ResourceGroupName)
	require.True(t, target.NeedsResourceGroup)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{6}$`), target.ResourceNameSuffix)
}

func TestResolveSubscriptionSwitchPurgesScopedStateOnly(t *testing.T) {
	t.Parallel()

	// Previously provisioned under subscription one; config now pins
	// subscription two in the same tenant.
	clients := testClients(
		cloud.Subscription{ID: subOne, Name: "Old", TenantID: tenantOne},
		cloud.Subscription{ID: subTwo, Name: "New", TenantID: tenantOne},
	)
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := provisionedEnv(subOne)
	env.Config = environment.Config{Azure: &environment.AzureConfig{SubscriptionID: subTwo}}

	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.NoError(t, err)

	require.True(t, target.SwitchedSubscription)
	require.False(t, target.SwitchedTenant)
	require.Equal(t, subTwo, target.SubscriptionID)

	// Subscription-scoped slice dropped entirely.
	require.NotContains(t, env.State, "web-app")
	// Non-scoped and unknown slices survive untouched.
	require.Equal(t, "hunter2", env.State["app-registration"].GetString("secretClientSecret"))
	require.Equal(t, "w-1", env.State["acme-telemetry"].GetString("workspace"))

	// Solution trimmed key by key.
	sol := env.State["solution"]
	require.Equal(t, tenantOne, sol.GetString("teamsAppTenantId"))
	require.Equal(t, "a1b2c3", sol.GetString("resourceNameSuffix"))
	require.Equal(t, "keep-me", sol.GetString("customNote"))
	require.NotContains(t, sol, "subscriptionId")
	require.NotContains(t, sol, "resourceGroupName")
	require.NotContains(t, sol, "location")
	require.NotContains(t, sol, "provisionSucceeded")

	// The minted suffix is reused, never re-derived.
	require.Equal(t, "a1b2c3", target.ResourceNameSuffix)
}

func TestResolveSameTargetPurgesNothing(t *testing.T) {
	t.Parallel()

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne})
	require.NoError(t, clients.Resources.CreateResourceGroup(context.Background(), subOne,
		cloud.ResourceGroup{Name: "my_notes-dev-rg", Location: "westus"}))
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := provisionedEnv(subOne)
	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.NoError(t, err)

	require.False(t, target.SwitchedSubscription)
	require.False(t, target.SwitchedTenant)
	require.Contains(t, env.State, "web-app")
	require.Equal(t, subOne, env.State["solution"].GetString("subscriptionId"))
	require.Equal(t, "my_notes-dev-rg", target.ResourceGroupName)
	require.False(t, target.NeedsResourceGroup)
	require.Equal(t, "westus", target.Location)
}

func TestResolveTenantSwitchBlockedByDefault(t *testing.T) {
	t.Parallel()

	clients := memory.NewClients(
		cloud.Account{TenantID: tenantTwo, Username: "dev@fabrikam.example"},
		tenantTwo,
		cloud.Subscription{ID: subTwo, Name: "Other", TenantID: tenantTwo},
	)
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := provisionedEnv(subOne)
	_, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameTenantSwitchBlocked))
	require.True(t, apperrors.IsUser(err))

	// Fail-fast: nothing purged.
	require.Contains(t, env.State, "web-app")
}

func TestResolveTenantSwitchAllowedByConfigPurges(t *testing.T) {
	t.Parallel()

	clients := memory.NewClients(
		cloud.Account{TenantID: tenantTwo, Username: "dev@fabrikam.example"},
		tenantTwo,
		cloud.Subscription{ID: subTwo, Name: "Other", TenantID: tenantTwo},
	)
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := provisionedEnv(subOne)
	env.Config = environment.Config{Azure: &environment.AzureConfig{AllowTenantSwitch: true}}

	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.NoError(t, err)

	require.True(t, target.SwitchedTenant)
	require.Equal(t, tenantTwo, target.TenantID)
	require.NotContains(t, env.State, "web-app")
	require.Contains(t, env.State, "app-registration")
}

func TestResolveSubscriptionPrecedenceCallerBeatsConfig(t *testing.T) {
	t.Parallel()

	clients := testClients(
		cloud.Subscription{ID: subOne, Name: "FromConfig", TenantID: tenantOne},
		cloud.Subscription{ID: subTwo, Name: "FromFlag", TenantID: tenantOne},
	)
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := &environment.Info{
		EnvName: "dev",
		Config:  environment.Config{Azure: &environment.AzureConfig{SubscriptionID: subOne}},
		State:   environment.State{},
	}

	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{SubscriptionID: subTwo})
	require.NoError(t, err)
	require.Equal(t, subTwo, target.SubscriptionID)
	require.Equal(t, "FromFlag", target.SubscriptionName)
}

func TestResolveUnknownPinnedSubscriptionFails(t *testing.T) {
	t.Parallel()

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne})
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := &environment.Info{EnvName: "dev", State: environment.State{}}
	_, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{SubscriptionID: subTwo})
	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameSubscriptionNotFound))
	require.True(t, apperrors.IsUser(err))
}

func TestResolvePromptsWhenNothingPinsASubscription(t *testing.T) {
	t.Parallel()

	clients := testClients(
		cloud.Subscription{ID: subOne, Name: "Alpha", TenantID: tenantOne},
		cloud.Subscription{ID: subTwo, Name: "Beta", TenantID: tenantOne},
	)
	prompt := &ui.ScriptedInteractor{Selections: []string{"Beta (" + subTwo + ")"}}
	r := New(clients, prompt, nil)

	// Recorded state points at a subscription that vanished from the
	// account, so the picker runs with no valid pre-selection.
	subGone := "dddddddd-4444-4444-8444-dddddddddddd"
	env := &environment.Info{
		EnvName: "dev",
		State: environment.State{
			"solution": {"subscriptionId": subGone},
		},
	}
	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{Interactive: true})
	require.NoError(t, err)
	require.Equal(t, subTwo, target.SubscriptionID)
	require.Len(t, prompt.SelectPrompts, 1)
	require.Equal(t, []string{"Alpha (" + subOne + ")", "Beta (" + subTwo + ")"}, prompt.SelectOptions[0])
	require.Empty(t, prompt.SelectDefaults[0])
	// Picking a different subscription than the recorded one is a switch.
	require.True(t, target.SwitchedSubscription)
}

func TestResolveAutoPicksOnlySubscription(t *testing.T) {
	t.Parallel()

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Only", TenantID: tenantOne})
	prompt := &ui.ScriptedInteractor{}
	r := New(clients, prompt, nil)

	env := &environment.Info{EnvName: "dev", State: environment.State{}}
	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{Interactive: true})
	require.NoError(t, err)
	require.Equal(t, subOne, target.SubscriptionID)
	require.Empty(t, prompt.SelectPrompts)
}

func TestResolveNonInteractiveWithManySubscriptionsFails(t *testing.T) {
	t.Parallel()

	clients := testClients(
		cloud.Subscription{ID: subOne, Name: "Alpha", TenantID: tenantOne},
		cloud.Subscription{ID: subTwo, Name: "Beta", TenantID: tenantOne},
	)
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := &environment.Info{EnvName: "dev", State: environment.State{}}
	_, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{Interactive: false})
	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameSubscriptionNotFound))
}

func TestResolveUnauthorizedCheckIsDistinctFromTransportFailure(t *testing.T) {
	t.Parallel()

	env := func() *environment.Info {
		return &environment.Info{EnvName: "dev", State: environment.State{}}
	}

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne})
	rm := clients.Resources.(*memory.ResourceManager)
	rm.CheckErr = &cloud.StatusError{StatusCode: 403, Err: errors.New("forbidden")}

	r := New(clients, &ui.ScriptedInteractor{}, nil)
	_, err := r.Resolve(context.Background(), testProject(), env(), testInventory(), Inputs{})
	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameUnauthorizedToCheckRG))
	require.False(t, apperrors.HasName(err, apperrors.NameFailedToCheckRGExistence))
	require.True(t, apperrors.IsUser(err))

	rm.CheckErr = errors.New("connection reset by peer")
	_, err = r.Resolve(context.Background(), testProject(), env(), testInventory(), Inputs{})
	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameFailedToCheckRGExistence))
	require.False(t, apperrors.HasName(err, apperrors.NameUnauthorizedToCheckRG))
	require.True(t, apperrors.IsSystem(err))
}

func TestResolvePinnedResourceGroupMustExist(t *testing.T) {
	t.Parallel()

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne})
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := &environment.Info{
		EnvName: "dev",
		Config:  environment.Config{Azure: &environment.AzureConfig{ResourceGroupName: "pinned-rg"}},
		State:   environment.State{},
	}
	_, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameResourceGroupNotExist))
	require.True(t, apperrors.IsUser(err))
}

func TestResolveDerivedResourceGroupMayBeCreated(t *testing.T) {
	t.Parallel()

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne})
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := &environment.Info{
		EnvName: "staging",
		Config:  environment.Config{Azure: &environment.AzureConfig{Location: "northeurope"}},
		State:   environment.State{},
	}
	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.NoError(t, err)
	require.Equal(t, "my_notes-staging-rg", target.ResourceGroupName)
	require.True(t, target.NeedsResourceGroup)
	require.Equal(t, "northeurope", target.Location)
}

func TestResolveExistingGroupLocationWins(t *testing.T) {
	t.Parallel()

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne})
	require.NoError(t, clients.Resources.CreateResourceGroup(context.Background(), subOne,
		cloud.ResourceGroup{Name: "shared-rg", Location: "japaneast"}))
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := &environment.Info{
		EnvName: "dev",
		Config: environment.Config{Azure: &environment.AzureConfig{
			ResourceGroupName: "shared-rg",
			Location:          "westus",
		}},
		State: environment.State{},
	}
	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.NoError(t, err)
	require.Equal(t, "shared-rg", target.ResourceGroupName)
	require.False(t, target.NeedsResourceGroup)
	require.Equal(t, "japaneast", target.Location)
}

func TestResolveSuffixPrecedenceConfigOverState(t *testing.T) {
	t.Parallel()

	clients := testClients(cloud.Subscription{ID: subOne, Name: "Main", TenantID: tenantOne})
	r := New(clients, &ui.ScriptedInteractor{}, nil)

	env := &environment.Info{
		EnvName: "dev",
		Config:  environment.Config{Azure: &environment.AzureConfig{ResourceNameSuffix: "cfg123"}},
		State: environment.State{
			"solution": {"resourceNameSuffix": "st4te1"},
		},
	}
	target, err := r.Resolve(context.Background(), testProject(), env, testInventory(), Inputs{})
	require.NoError(t, err)
	require.Equal(t, "cfg123", target.ResourceNameSuffix)
}
