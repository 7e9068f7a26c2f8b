// Package webappplugin manages the web app hosting site: name reservation in
// provision, the site resource through the template deployment, site settings
// in configure, and code shipping in deploy.
package webappplugin

import (
	"context"
	"fmt"
	"time"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/plugins/naming"
)

// State keys written by this plugin.
const (
	KeyAppName           = "appName"
	KeyEndpoint          = "endpoint"
	KeyResourceID        = "resourceId"
	KeySiteConfigApplied = "siteConfigApplied"
	KeyLastDeployedAt    = "lastDeployedAt"
)

type webAppPlugin struct{}

// New creates the web-app plugin.
func New() plugin.Plugin {
	return &webAppPlugin{}
}

var (
	_ plugin.Plugin              = (*webAppPlugin)(nil)
	_ plugin.ResourceProvisioner = (*webAppPlugin)(nil)
	_ plugin.ResourceConfigurer  = (*webAppPlugin)(nil)
	_ plugin.TemplateGenerator   = (*webAppPlugin)(nil)
	_ plugin.Deployer            = (*webAppPlugin)(nil)
)

func (p *webAppPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "web-app",
		Description:        "Hosts bot or web workloads on an app service site.",
		SubscriptionScoped: true,
	}
}

// ProvisionResource reserves the site name. The site itself is created by the
// template deployment, which is atomic across all components.
func (p *webAppPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if name := own.GetString(KeyAppName); name != "" {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing site %s adopted", name),
		}, nil
	}

	name := naming.Resource(pctx.AppName, pctx.EnvName, "site", pctx.Target.ResourceNameSuffix)
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("site name %s reserved", name),
		Patch: model.StatePatch{
			KeyAppName: name,
		},
	}, nil
}

// GenerateTemplate contributes the site resource fragment.
func (p *webAppPlugin) GenerateTemplate(ctx context.Context, pctx *plugin.Context) (*cloud.ComponentTemplate, error) {
	name := pctx.View.Own().GetString(KeyAppName)
	if name == "" {
		return nil, fmt.Errorf("no site name recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	return &cloud.ComponentTemplate{
		Component: pctx.Component.Name,
		Body: map[string]any{
			"kind":         "web-app",
			"resourceName": name,
			"properties": map[string]any{
				"httpsOnly": true,
			},
		},
	}, nil
}

// ConfigureResource applies site settings once the deployment outputs exist.
func (p *webAppPlugin) ConfigureResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if own.GetString(KeyEndpoint) == "" || own.GetString(KeyResourceID) == "" {
		return nil, fmt.Errorf("no deployment outputs recorded for %q; the template deployment must run first", pctx.Component.Name)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: "site settings applied",
		Patch: model.StatePatch{
			KeySiteConfigApplied: true,
		},
	}, nil
}

// Deploy ships the built code package onto the site.
func (p *webAppPlugin) Deploy(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	endpoint := own.GetString(KeyEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("site for %q has no endpoint; provision the environment first", pctx.Component.Name)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("code package shipped to %s", endpoint),
		Patch: model.StatePatch{
			KeyLastDeployedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
