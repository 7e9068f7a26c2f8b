// Package sqlplugin manages the SQL server and database. The admin password
// is minted once per environment and sealed at rest under the secret key
// convention; the server endpoint arrives as a template deployment output.
package sqlplugin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/plugins/naming"
)

// State keys written by this plugin.
const (
	KeyServerName    = "serverName"
	KeyDatabaseName  = "databaseName"
	KeyAdminPassword = "secretAdminPassword"
	KeyEndpoint      = "endpoint"
	KeySQLEndpoint   = "sqlEndpoint"
)

type sqlPlugin struct{}

// New creates the sql-database plugin.
func New() plugin.Plugin {
	return &sqlPlugin{}
}

var (
	_ plugin.Plugin              = (*sqlPlugin)(nil)
	_ plugin.ResourceProvisioner = (*sqlPlugin)(nil)
	_ plugin.ResourceConfigurer  = (*sqlPlugin)(nil)
	_ plugin.TemplateGenerator   = (*sqlPlugin)(nil)
)

func (p *sqlPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:               "sql-database",
		Description:        "Provides the SQL server and database backing workloads.",
		SubscriptionScoped: true,
	}
}

// ProvisionResource reserves names and mints the admin password. A recorded
// password is never re-minted; losing it would orphan the server.
func (p *sqlPlugin) ProvisionResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	own := pctx.View.Own()
	if server := own.GetString(KeyServerName); server != "" {
		return &model.PluginResult{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("existing sql server %s adopted", server),
		}, nil
	}

	password, err := mintPassword()
	if err != nil {
		return nil, err
	}

	server := naming.Resource(pctx.AppName, pctx.EnvName, "sql", pctx.Target.ResourceNameSuffix)
	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("sql server name %s reserved", server),
		Patch: model.StatePatch{
			KeyServerName:    server,
			KeyDatabaseName:  naming.Compact(pctx.AppName) + "db",
			KeyAdminPassword: password,
		},
	}, nil
}

// GenerateTemplate contributes the server and database fragment.
func (p *sqlPlugin) GenerateTemplate(ctx context.Context, pctx *plugin.Context) (*cloud.ComponentTemplate, error) {
	own := pctx.View.Own()
	server := own.GetString(KeyServerName)
	if server == "" {
		return nil, fmt.Errorf("no sql server name recorded for %q; the provision phase must run first", pctx.Component.Name)
	}

	return &cloud.ComponentTemplate{
		Component: pctx.Component.Name,
		Body: map[string]any{
			"kind":         "sql-database",
			"resourceName": server,
			"properties": map[string]any{
				"databaseName": own.GetString(KeyDatabaseName),
			},
		},
	}, nil
}

// ConfigureResource records the server endpoint under its contract key once
// the deployment outputs exist.
func (p *sqlPlugin) ConfigureResource(ctx context.Context, pctx *plugin.Context) (*model.PluginResult, error) {
	endpoint := pctx.View.Own().GetString(KeyEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("no endpoint recorded for %q; the template deployment must run first", pctx.Component.Name)
	}

	return &model.PluginResult{
		Status:  model.StatusSuccess,
		Message: "sql endpoint recorded",
		Patch: model.StatePatch{
			KeySQLEndpoint: endpoint,
		},
	}, nil
}

// mintPassword generates the server admin password. The fixed prefix keeps
// every mint inside the server's complexity rules.
func mintPassword() (string, error) {
	raw := make([]byte, 18)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to mint sql admin password: %w", err)
	}
	return "Aa1!" + base64.RawURLEncoding.EncodeToString(raw), nil
}
