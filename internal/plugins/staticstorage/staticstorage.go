// Package storageplugin manages the storage account that serves tab assets
// as a static website.
package storageplugin

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
	KeyStorageName    = "storageName"
	KeyEndpoint       = "endpoint"
	KeyResourceID     = "resourceId"
	KeyLastDeployedAt = "lastDeployedAt"
)

type storagePlugin struct{}

// New creates the static-storage plugin.
func New() plugin.Plugin {
	return &storagePlugin{}
}

var (
	_ plugin.Plugin              = (*storagePlugin)(nil)
	_ plugin.ResourceProvisioner = (*storagePlugin)(nil)
	_ plugin.TemplateGenerator   = (*storagePlugin)(nil)
	_ plugin.Deployer            = (*storagePlugin)(nil)
)

func (p *storagePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "static-storage",
		Description:        "Serves tab assets from a static-website storage account.",
		SubscriptionScoped: true,
	}
}

// ProvisionResource reserves the storage account name. Storage names are
// globally scoped and length-limited, so the derivation differs from other
// resources.
func (p *storagePlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if name := own.GetString(KeyStorageName); name != "" {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing storage account %s adopted", name),
		}, nil
	}

	name := naming.StorageAccount(pctx.AppName, pctx.EnvName, pctx.Target.ResourceNameSuffix)
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("storage account name %s reserved", name),
		Patch: model.StatePatch{
			KeyStorageName: name,
		},
	}, nil
}

// GenerateTemplate contributes the storage account fragment.
func (p *storagePlugin) GenerateTemplate(ctx context.Context, pctx *plugin.Context) (*cloud.ComponentTemplate, error) {
	name := pctx.View.Own().GetString(KeyStorageName)
	if name == "" {
		return nil, fmt.Errorf("no storage account name recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	return &cloud.ComponentTemplate{
		Component: pctx.Component.Name,
		Body: map[string]any{
			"kind":         "storage-account",
			"resourceName": name,
			"properties": map[string]any{
				"staticWebsite": true,
			},
		},
	}, nil
}

// Deploy uploads the built assets to the static website container.
func (p *storagePlugin) Deploy(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	endpoint := pctx.View.Own().GetString(KeyEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("storage account for %q has no endpoint; provision the environment first", pctx.Component.Name)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("assets uploaded to %s", endpoint),
		Patch: model.StatePatch{
			KeyLastDeployedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
