// Package funcplugin manages the function app hosting API workloads. Same
// lifecycle split as the web app: name in provision, resource via template,
// runtime settings in configure, code in deploy.
package funcplugin

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
	KeyFunctionAppName      = "functionAppName"
	KeyEndpoint             = "endpoint"
	KeyResourceID           = "resourceId"
	KeyRuntimeConfigApplied = "runtimeConfigApplied"
	KeyLastDeployedAt       = "lastDeployedAt"
)

type funcPlugin struct{}

// New creates the function-app plugin.
func New() plugin.Plugin {
	return &funcPlugin{}
}

var (
	_ plugin.Plugin              = (*funcPlugin)(nil)
	_ plugin.ResourceProvisioner = (*funcPlugin)(nil)
	_ plugin.ResourceConfigurer  = (*funcPlugin)(nil)
	_ plugin.TemplateGenerator   = (*funcPlugin)(nil)
	_ plugin.Deployer            = (*funcPlugin)(nil)
)

func (p *funcPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "function-app",
		Description:        "Hosts API workloads on a serverless function app.",
		SubscriptionScoped: true,
	}
}

// ProvisionResource reserves the function app name.
func (p *funcPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if name := own.GetString(KeyFunctionAppName); name != "" {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing function app %s adopted", name),
		}, nil
	}

	name := naming.Resource(pctx.AppName, pctx.EnvName, "func", pctx.Target.ResourceNameSuffix)
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("function app name %s reserved", name),
		Patch: model.StatePatch{
			KeyFunctionAppName: name,
		},
	}, nil
}

// GenerateTemplate contributes the function app fragment.
func (p *funcPlugin) GenerateTemplate(ctx context.Context, pctx *plugin.Context) (*cloud.ComponentTemplate, error) {
	name := pctx.View.Own().GetString(KeyFunctionAppName)
	if name == "" {
		return nil, fmt.Errorf("no function app name recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	return &cloud.ComponentTemplate{
		Component: pctx.Component.Name,
		Body: map[string]any{
			"kind":         "function-app",
			"resourceName": name,
			"properties": map[string]any{
				"runtime": "node",
			},
		},
	}, nil
}

// ConfigureResource applies runtime settings once deployment outputs exist.
func (p *funcPlugin) ConfigureResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if own.GetString(KeyEndpoint) == "" || own.GetString(KeyResourceID) == "" {
		return nil, fmt.Errorf("no deployment outputs recorded for %q; the template deployment must run first", pctx.Component.Name)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: "runtime settings applied",
		Patch: model.StatePatch{
			KeyRuntimeConfigApplied: true,
		},
	}, nil
}

// Deploy ships the function package.
func (p *funcPlugin) Deploy(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	endpoint := pctx.View.Own().GetString(KeyEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("function app for %q has no endpoint; provision the environment first", pctx.Component.Name)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("function package shipped to %s", endpoint),
		Patch: model.StatePatch{
			KeyLastDeployedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
