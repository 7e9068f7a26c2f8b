// Package plugins assembles the built-in resource plugins. The set is fixed
// at compile time; callers build a registry from it at startup instead of
// registering into a package global.
package plugins

import (
	"github.com/appfx/appfx/internal/plugin"
	manifestplugin "github.com/appfx/appfx/internal/plugins/appmanifest"
	appregplugin "github.com/appfx/appfx/internal/plugins/appregistration"
	botplugin "github.com/appfx/appfx/internal/plugins/botservice"
	funcplugin "github.com/appfx/appfx/internal/plugins/functionapp"
	vaultplugin "github.com/appfx/appfx/internal/plugins/keyvault"
	identityplugin "github.com/appfx/appfx/internal/plugins/managedidentity"
	sqlplugin "github.com/appfx/appfx/internal/plugins/sqldatabase"
	storageplugin "github.com/appfx/appfx/internal/plugins/staticstorage"
	webappplugin "github.com/appfx/appfx/internal/plugins/webapp"
)

// Builtins returns one instance of every built-in resource plugin.
func Builtins() []plugin.Plugin {
	return []plugin.Plugin{
		appregplugin.New(),
		manifestplugin.New(),
		botplugin.New(),
		webappplugin.New(),
		funcplugin.New(),
		storageplugin.New(),
		identityplugin.New(),
		sqlplugin.New(),
		vaultplugin.New(),
	}
}

// NewRegistry builds a plugin registry holding all built-ins.
func NewRegistry() (*plugin.Registry, error) {
	registry := plugin.NewRegistry()
	for _, p := range Builtins() {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
