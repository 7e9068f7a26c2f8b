// Package appregplugin manages the directory app registration that gives the
// project its OAuth identity. The registration lives in the cloud directory,
// not in a subscription, so its state survives subscription switches.
package appregplugin

import (
	"context"
	"fmt"

	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/plugins/naming"
)

// State keys written by this plugin.
const (
	KeyClientID         = "clientId"
	KeyClientSecret     = "secretClientSecret"
	KeyOAuthAuthority   = "oauthAuthority"
	KeyApplicationIDURI = "applicationIdUri"
)

type appRegPlugin struct{}

// New creates the app-registration plugin.
func New() plugin.Plugin {
	return &appRegPlugin{}
}

var (
	_ plugin.Plugin              = (*appRegPlugin)(nil)
	_ plugin.ResourceProvisioner = (*appRegPlugin)(nil)
	_ plugin.ResourceConfigurer  = (*appRegPlugin)(nil)
)

func (p *appRegPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "app-registration",
		Description:        "Registers the project's OAuth application in the cloud directory.",
		SubscriptionScoped: false,
	}
}

// ProvisionResource ensures the registration exists. An already-recorded
// client id is adopted so re-runs never mint a second identity.
func (p *appRegPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if clientID := own.GetString(KeyClientID); clientID != "" {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing app registration %s adopted", clientID),
		}, nil
	}

	reg, err := pctx.Clients.Directory.EnsureAppRegistration(ctx, naming.DisplayName(pctx.AppName, pctx.EnvName))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure app registration: %w", err)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("app registration %s ready", reg.ClientID),
		Patch: model.StatePatch{
			KeyClientID:       reg.ClientID,
			KeyClientSecret:   reg.ClientSecret,
			KeyOAuthAuthority: reg.OAuthHost,
		},
	}, nil
}

// ConfigureResource records the identifier URI derived from the client id.
func (p *appRegPlugin) ConfigureResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	clientID := pctx.View.Own().GetString(KeyClientID)
	if clientID == "" {
		return nil, fmt.Errorf("no client id recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: "identifier uri configured",
		Patch: model.StatePatch{
			KeyApplicationIDURI: "api://" + clientID,
		},
	}, nil
}
