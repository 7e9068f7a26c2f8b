// Package identityplugin manages the user-assigned identity other resources
// run as.
package identityplugin

import (
	"context"
	"fmt"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/plugins/naming"
)

// State keys written by this plugin. ClientID and ResourceID arrive as
// template deployment outputs.
const (
	KeyIdentityName = "identityName"
	KeyClientID     = "clientId"
	KeyResourceID   = "resourceId"
)

type identityPlugin struct{}

// New creates the managed-identity plugin.
func New() plugin.Plugin {
	return &identityPlugin{}
}

var (
	_ plugin.Plugin              = (*identityPlugin)(nil)
	_ plugin.ResourceProvisioner = (*identityPlugin)(nil)
	_ plugin.TemplateGenerator   = (*identityPlugin)(nil)
)

func (p *identityPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "managed-identity",
		Description:        "Provides the user-assigned identity workloads run as.",
		SubscriptionScoped: true,
	}
}

// ProvisionResource reserves the identity name.
func (p *identityPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if name := own.GetString(KeyIdentityName); name != "" {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing identity %s adopted", name),
		}, nil
	}

	name := naming.Resource(pctx.AppName, pctx.EnvName, "id", pctx.Target.ResourceNameSuffix)
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("identity name %s reserved", name),
		Patch: model.StatePatch{
			KeyIdentityName: name,
		},
	}, nil
}

// GenerateTemplate contributes the identity fragment.
func (p *identityPlugin) GenerateTemplate(ctx context.Context, pctx *plugin.Context) (*cloud.ComponentTemplate, error) {
	name := pctx.View.Own().GetString(KeyIdentityName)
	if name == "" {
		return nil, fmt.Errorf("no identity name recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	return &cloud.ComponentTemplate{
		Component: pctx.Component.Name,
		Body: map[string]any{
			"kind":         "managed-identity",
			"resourceName": name,
		},
	}, nil
}
