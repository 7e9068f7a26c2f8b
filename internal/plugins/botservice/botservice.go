// Package botplugin manages the bot channel registration: a directory
// identity minted during provision and a subscription-scoped bot resource
// shipped through the template deployment. The messaging endpoint is wired in
// the configure phase, once the hosting site's endpoint is known.
package botplugin

import (
	"context"
	"fmt"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/plugins/naming"
)

// State keys written by this plugin.
const (
	KeyBotID             = "botId"
	KeyBotPassword       = "secretBotPassword"
	KeyEndpoint          = "endpoint"
	KeyMessagingEndpoint = "messagingEndpoint"
)

type botPlugin struct{}

// New creates the bot-service plugin.
func New() plugin.Plugin {
	return &botPlugin{}
}

var (
	_ plugin.Plugin              = (*botPlugin)(nil)
	_ plugin.ResourceProvisioner = (*botPlugin)(nil)
	_ plugin.ResourceConfigurer  = (*botPlugin)(nil)
	_ plugin.TemplateGenerator   = (*botPlugin)(nil)
)

func (p *botPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "bot-service",
		Description:        "Registers the bot identity and its channel registration resource.",
		SubscriptionScoped: true,
	}
}

// ProvisionResource mints the bot's directory identity. The identity is keyed
// by display name, so re-running adopts the existing one.
func (p *botPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if botID := own.GetString(KeyBotID); botID != "" {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing bot identity %s adopted", botID),
		}, nil
	}

	reg, err := pctx.Clients.Directory.EnsureAppRegistration(ctx, naming.DisplayName(pctx.AppName, pctx.EnvName)+"-bot")
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bot identity: %w", err)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("bot identity %s ready", reg.ClientID),
		Patch: model.StatePatch{
			KeyBotID:       reg.ClientID,
			KeyBotPassword: reg.ClientSecret,
		},
	}, nil
}

// GenerateTemplate contributes the channel registration fragment.
func (p *botPlugin) GenerateTemplate(ctx context.Context, pctx *plugin.Context) (*cloud.ComponentTemplate, error) {
	botID := pctx.View.Own().GetString(KeyBotID)
	if botID == "" {
		return nil, fmt.Errorf("no bot identity recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	return &cloud.ComponentTemplate{
		Component: pctx.Component.Name,
		Body: map[string]any{
			"kind":         "bot-service",
			"resourceName": naming.Resource(pctx.AppName, pctx.EnvName, "bot", pctx.Target.ResourceNameSuffix),
			"properties": map[string]any{
				"displayName": pctx.AppName,
				"msaAppId":    botID,
			},
		},
	}, nil
}

// ConfigureResource points the channel registration at the deployed site.
// The endpoint arrives as a template deployment output in this plugin's own
// slice, so configure stays independent of its phase siblings.
func (p *botPlugin) ConfigureResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	endpoint := pctx.View.Own().GetString(KeyEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("no endpoint recorded for %q; the template deployment must run first", pctx.Component.Name)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: "messaging endpoint wired",
		Patch: model.StatePatch{
			KeyMessagingEndpoint: endpoint + "/api/messages",
		},
	}, nil
}
