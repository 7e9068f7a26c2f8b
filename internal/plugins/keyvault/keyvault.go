// Package vaultplugin manages the key vault holding workload secrets.
package vaultplugin

import (
	"context"
	"fmt"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/plugins/naming"
)

// State keys written by this plugin. The vault URI arrives as a template
// deployment output.
const (
	KeyVaultName  = "vaultName"
	KeyVaultURI   = "vaultUri"
	KeyResourceID = "resourceId"
)

type vaultPlugin struct{}

// New creates the key-vault plugin.
func New() plugin.Plugin {
	return &vaultPlugin{}
}

var (
	_ plugin.Plugin              = (*vaultPlugin)(nil)
	_ plugin.ResourceProvisioner = (*vaultPlugin)(nil)
	_ plugin.TemplateGenerator   = (*vaultPlugin)(nil)
)

func (p *vaultPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "key-vault",
		Description:        "Provides the key vault holding workload secrets.",
		SubscriptionScoped: true,
	}
}

// ProvisionResource reserves the vault name.
func (p *vaultPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if name := own.GetString(KeyVaultName); name != "" {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing key vault %s adopted", name),
		}, nil
	}

	name := naming.Resource(pctx.AppName, pctx.EnvName, "kv", pctx.Target.ResourceNameSuffix)
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("key vault name %s reserved", name),
		Patch: model.StatePatch{
			KeyVaultName: name,
		},
	}, nil
}

// GenerateTemplate contributes the vault fragment.
func (p *vaultPlugin) GenerateTemplate(ctx context.Context, pctx *plugin.Context) (*cloud.ComponentTemplate, error) {
	name := pctx.View.Own().GetString(KeyVaultName)
	if name == "" {
		return nil, fmt.Errorf("no vault name recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	return &cloud.ComponentTemplate{
		Component: pctx.Component.Name,
		Body: map[string]any{
			"kind":         "key-vault",
			"resourceName": name,
			"properties": map[string]any{
				"tenantId": pctx.Target.TenantID,
			},
		},
	}, nil
}
