// Package manifestplugin registers the application on the messaging platform
// and keeps the published manifest current. Registrations are keyed by tenant
// and app name, so re-ensuring after a tenant switch adopts or mints cleanly.
package manifestplugin

import (
	"context"
	"fmt"

	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
)

// State keys written by this plugin.
const (
	KeyAppID            = "appId"
	KeyTeamsAppTenantID = "teamsAppTenantId"
	KeyManifestVersion  = "manifestVersion"
)

type manifestPlugin struct{}

// New creates the app-manifest plugin.
func New() plugin.Plugin {
	return &manifestPlugin{}
}

var (
	_ plugin.Plugin              = (*manifestPlugin)(nil)
	_ plugin.ResourceProvisioner = (*manifestPlugin)(nil)
	_ plugin.ResourceConfigurer  = (*manifestPlugin)(nil)
)

func (p *manifestPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "app-manifest",
		Description:        "Registers the app on the messaging platform and publishes its manifest.",
		SubscriptionScoped: false,
	}
}

// ProvisionResource ensures the platform registration exists under the
// current messaging tenant. A recorded app id is adopted only when its tenant
// still matches; after a tenant switch the app is re-ensured under the new
// tenant and the slice is overwritten.
func (p *manifestPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	recordedID := own.GetString(KeyAppID)
	recordedTenant := own.GetString(KeyTeamsAppTenantID)
	if recordedID != "" && recordedTenant == pctx.Target.TeamsAppTenantID {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing platform app %s adopted", recordedID),
		}, nil
	}

	app, err := pctx.Clients.AppHost.EnsureApp(ctx, pctx.Target.TeamsAppTenantID, pctx.AppName, pctx.Config.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to register app on the messaging platform: %w", err)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("platform app %s registered", app.AppID),
		Patch: model.StatePatch{
			KeyAppID:            app.AppID,
			KeyTeamsAppTenantID: app.TenantID,
		},
	}, nil
}

// ConfigureResource republishes the manifest with the environment's manifest
// parameters and records the published version.
func (p *manifestPlugin) ConfigureResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	if pctx.View.Own().GetString(KeyAppID) == "" {
		return nil, fmt.Errorf("no platform app recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	if _, err := pctx.Clients.AppHost.EnsureApp(ctx, pctx.Target.TeamsAppTenantID, pctx.AppName, pctx.Config.Manifest); err != nil {
		return nil, fmt.Errorf("failed to publish manifest: %w", err)
	}

	version, _ := pctx.Config.Manifest["version"].(string)
	if version == "" {
		version = "1.0.0"
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("manifest version %s published", version),
		Patch: model.StatePatch{
			KeyManifestVersion: version,
		},
	}, nil
}
