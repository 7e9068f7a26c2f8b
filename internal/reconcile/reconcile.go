// Package reconcile resolves the cloud target of a provisioning run: which
// tenant, subscription, and resource group the run will use, and whether the
// environment has drifted from what a previous run recorded. It mutates
// nothing but the environment state purge on drift; recording the resolved
// target back into state is the orchestrator's job.
package reconcile

import (
	"context"
	"fmt"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/logger"
	"github.com/appfx/appfx/internal/settings"
	"github.com/appfx/appfx/internal/ui"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

// Inputs are caller-supplied overrides. They take precedence over the
// environment config, which takes precedence over recorded state.
type Inputs struct {
	SubscriptionID    string
	ResourceGroupName string
	// Interactive permits prompting when no source pins a subscription.
	Interactive bool
}

// Inventory describes the registered component set, used to decide which
// state slices a subscription switch invalidates. Scoped holds the names
// whose resources live inside a subscription; Known holds every registered
// name so unrecognized slices can be reported instead of silently kept.
type Inventory struct {
	Scoped map[string]struct{}
	Known  map[string]struct{}
}

// Target is the resolved provisioning target. It is ephemeral: consumed by
// the consent gate and the orchestrator, never persisted as-is.
type Target struct {
	TenantID           string
	TeamsAppTenantID   string
	SubscriptionID     string
	SubscriptionName   string
	ResourceGroupName  string
	Location           string
	ResourceNameSuffix string

	// NeedsResourceGroup is set when the resolved group does not exist and
	// this run is allowed to create it.
	NeedsResourceGroup   bool
	SwitchedTenant       bool
	SwitchedSubscription bool

	// Account display names for the consent summary.
	CloudUsername     string
	MessagingUsername string
}

// Reconciler resolves targets against the control plane.
type Reconciler struct {
	clients *cloud.Clients
	prompt  ui.Interactor
	log     *logger.Logger
}

// New creates a Reconciler.
func New(clients *cloud.Clients, prompt ui.Interactor, log *logger.Logger) *Reconciler {
	return &Reconciler{clients: clients, prompt: prompt, log: log.WithComponent("reconcile")}
}

// Resolve runs the resolution sequence: identity, switch policy, subscription,
// drift purge, resource group, name suffix. Any failure aborts the run before
// a single plugin is called.
func (r *Reconciler) Resolve(ctx context.Context, proj *settings.ProjectSettings, env *environment.Info, inv Inventory, in Inputs) (*Target, error) {
	sol := env.State.Solution()

	cloudAccount, err := r.clients.CloudTokens.AccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cloud account: %w", err)
	}
	messagingAccount, err := r.clients.MessagingTokens.AccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve messaging platform account: %w", err)
	}

	switchedTenant := tenantSwitched(sol, cloudAccount, messagingAccount)
	if switchedTenant && !env.Config.AllowTenantSwitch() {
		stored, current := sol.TenantID, cloudAccount.TenantID
		if stored == "" || stored == current {
			stored, current = sol.TeamsAppTenantID, messagingAccount.TenantID
		}
		return nil, apperrors.NewTenantSwitchBlockedError(env.EnvName, stored, current)
	}

	sub, err := r.resolveSubscription(ctx, env, sol, in)
	if err != nil {
		return nil, err
	}

	switchedSubscription := sol.SubscriptionID != "" && sub.ID != sol.SubscriptionID
	if switchedSubscription || switchedTenant {
		r.purgeScopedState(env, inv)
		// Re-read: the purge drops solution keys that must not steer the
		// resource group fallback below.
		sol = env.State.Solution()
	}

	groupName, location, needsGroup, err := r.resolveResourceGroup(ctx, proj, env, sol, in, sub.ID)
	if err != nil {
		return nil, err
	}

	suffix := env.Config.ResourceNameSuffix()
	if suffix == "" {
		suffix = sol.ResourceNameSuffix
	}
	if suffix == "" {
		suffix, err = mintSuffix()
		if err != nil {
			return nil, err
		}
		r.log.Debugf("minted resource name suffix %s for environment %q", suffix, env.EnvName)
	}

	target := &Target{
		TenantID:             cloudAccount.TenantID,
		TeamsAppTenantID:     messagingAccount.TenantID,
		SubscriptionID:       sub.ID,
		SubscriptionName:     sub.Name,
		ResourceGroupName:    groupName,
		Location:             location,
		ResourceNameSuffix:   suffix,
		NeedsResourceGroup:   needsGroup,
		SwitchedTenant:       switchedTenant,
		SwitchedSubscription: switchedSubscription,
		CloudUsername:        cloudAccount.Username,
		MessagingUsername:    messagingAccount.Username,
	}

	r.log.Debugf("resolved environment %q: subscription %s, resource group %s (create=%t)",
		env.EnvName, target.SubscriptionID, target.ResourceGroupName, target.NeedsResourceGroup)
	return target, nil
}

// tenantSwitched compares both directories against recorded state. A first
// provision records nothing, so it never counts as a switch.
func tenantSwitched(sol environment.Solution, cloudAccount, messagingAccount *cloud.Account) bool {
	if sol.TenantID != "" && cloudAccount.TenantID != sol.TenantID {
		return true
	}
	if sol.TeamsAppTenantID != "" && messagingAccount.TenantID != sol.TeamsAppTenantID {
		return true
	}
	return false
}

// resolveSubscription applies the precedence chain: caller input, environment
// config, recorded state, interactive pick. Explicit pins that do not resolve
// fail loudly; a stale recorded subscription falls back to the picker.
func (r *Reconciler) resolveSubscription(ctx context.Context, env *environment.Info, sol environment.Solution, in Inputs) (*cloud.Subscription, error) {
	if in.SubscriptionID != "" {
		return r.lookupSubscription(ctx, in.SubscriptionID)
	}

	if pinned := env.Config.SubscriptionID(); pinned != "" {
		return r.lookupSubscription(ctx, pinned)
	}

	if sol.SubscriptionID != "" {
		sub, err := r.clients.Resources.GetSubscription(ctx, sol.SubscriptionID)
		if err == nil && sub != nil {
			return sub, nil
		}
		r.log.Warnf("subscription %s recorded for environment %q is no longer accessible", sol.SubscriptionID, env.EnvName)
	}

	return r.pickSubscription(ctx, sol.SubscriptionID, in.Interactive)
}

func (r *Reconciler) lookupSubscription(ctx context.Context, subscriptionID string) (*cloud.Subscription, error) {
	sub, err := r.clients.Resources.GetSubscription(ctx, subscriptionID)
	if err != nil || sub == nil {
		return nil, apperrors.NewSubscriptionNotFoundError(subscriptionID)
	}
	return sub, nil
}

func (r *Reconciler) pickSubscription(ctx context.Context, previousID string, interactive bool) (*cloud.Subscription, error) {
	subs, err := r.clients.Resources.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil, apperrors.New(apperrors.NameSubscriptionNotFound, apperrors.ClassUser,
			"the current account has no visible subscriptions")
	}
	if len(subs) == 1 {
		return &subs[0], nil
	}
	if !interactive {
		return nil, apperrors.New(apperrors.NameSubscriptionNotFound, apperrors.ClassUser,
			"multiple subscriptions are visible; pass --subscription or set azure.subscriptionId in the environment config")
	}

	options := make([]string, len(subs))
	byLabel := make(map[string]*cloud.Subscription, len(subs))
	defaultOption := ""
	for i := range subs {
		label := fmt.Sprintf("%s (%s)", subs[i].Name, subs[i].ID)
		options[i] = label
		byLabel[label] = &subs[i]
		if subs[i].ID == previousID {
			defaultOption = label
		}
	}

	choice, err := r.prompt.Select("Select a subscription to provision into", options, defaultOption)
	if err != nil {
		return nil, err
	}
	sub, ok := byLabel[choice]
	if !ok {
		return nil, fmt.Errorf("unexpected subscription selection %q", choice)
	}
	return sub, nil
}

// purgeScopedState drops the state slices whose resources are unreachable
// under the new subscription or tenant. The solution slice is trimmed
// key-by-key: the messaging tenant and the minted name suffix survive, since
// neither is tied to a subscription. Slices owned by no registered component
// are kept and reported; dropping data this tool did not write is worse than
// carrying it.
func (r *Reconciler) purgeScopedState(env *environment.Info, inv Inventory) {
	for name, slice := range env.State {
		if name == environment.ComponentSolution {
			delete(slice, environment.KeyTenantID)
			delete(slice, environment.KeySubscriptionID)
			delete(slice, environment.KeySubscriptionName)
			delete(slice, environment.KeyResourceGroupName)
			delete(slice, environment.KeyLocation)
			delete(slice, environment.KeyProvisionSucceeded)
			continue
		}
		if _, ok := inv.Scoped[name]; ok {
			delete(env.State, name)
			r.log.Infof("dropped recorded state of %q: its resources belong to the previous subscription", name)
			continue
		}
		if _, ok := inv.Known[name]; !ok {
			r.log.Warnf("state slice %q belongs to no registered component; keeping it, but it may be stale after the switch", name)
		}
	}
}

// resolveResourceGroup picks the group name by precedence and probes for it.
// A group pinned by the caller, the config, or recorded state must exist; the
// derived default may be created by this run.
func (r *Reconciler) resolveResourceGroup(ctx context.Context, proj *settings.ProjectSettings, env *environment.Info, sol environment.Solution, in Inputs, subscriptionID string) (name, location string, needsGroup bool, err error) {
	name = in.ResourceGroupName
	pinned := name != ""
	if name == "" {
		name = env.Config.ResourceGroupName()
		pinned = name != ""
	}
	if name == "" {
		name = sol.ResourceGroupName
		pinned = name != ""
	}
	if name == "" {
		name = DefaultResourceGroupName(proj.AppName, env.EnvName)
	}

	exists, err := r.clients.Resources.CheckResourceGroupExistence(ctx, subscriptionID, name)
	if err != nil {
		if cloud.IsPermissionDenied(err) {
			return "", "", false, apperrors.NewUnauthorizedToCheckResourceGroupError(name, subscriptionID)
		}
		return "", "", false, apperrors.NewFailedToCheckResourceGroupExistenceError(name, subscriptionID, err)
	}

	if exists {
		group, err := r.clients.Resources.GetResourceGroup(ctx, subscriptionID, name)
		if err != nil {
			return "", "", false, apperrors.NewFailedToCheckResourceGroupExistenceError(name, subscriptionID, err)
		}
		return name, group.Location, false, nil
	}

	if pinned {
		return "", "", false, apperrors.NewResourceGroupNotExistError(name, subscriptionID)
	}

	location = env.Config.Location()
	if location == "" {
		location = sol.Location
	}
	if location == "" {
		location = DefaultLocation
	}
	return name, location, true, nil
}
