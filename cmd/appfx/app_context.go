package main

import (
	"io"
	"os"
	"strings"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/cloud/memory"
	"github.com/appfx/appfx/internal/consent"
	"github.com/appfx/appfx/internal/engine"
	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/logger"
	"github.com/appfx/appfx/internal/plugin"
	"github.com/appfx/appfx/internal/plugins"
	"github.com/appfx/appfx/internal/reconcile"
	"github.com/appfx/appfx/internal/settings"
	"github.com/appfx/appfx/internal/ui"
)

// Identities the memory backend signs in with when the environment does not
// pick its own.
const (
	defaultTenantID       = "72f98a8e-8c1f-4b7a-9be6-4f3a1f20c3d7"
	defaultSubscriptionID = "3f2e5a1d-0b7c-4e89-9a64-8d2f5b7c1e90"
)

// appContext bundles the long-lived services a command run needs: the loaded
// project, the collaborator clients, the plugin registry, and the prompt
// surface. Commands that operate on an existing project build one per run.
type appContext struct {
	dir      string
	project  *settings.ProjectSettings
	log      *logger.Logger
	clients  *cloud.Clients
	registry *plugin.Registry
	prompt   ui.Interactor
	crypto   environment.CryptoProvider
}

func newAppContext(flags *rootFlags) (*appContext, error) {
	level := "info"
	if flags.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return nil, err
	}

	project, err := settings.Load(flags.projectDir)
	if err != nil {
		return nil, err
	}

	registry, err := plugins.NewRegistry()
	if err != nil {
		return nil, err
	}

	return &appContext{
		dir:      flags.projectDir,
		project:  project,
		log:      log,
		clients:  buildClients(),
		registry: registry,
		prompt:   ui.NewPrompter(os.Stdout),
		crypto:   environment.NewLocalCrypto(project.ProjectID),
	}, nil
}

// engine assembles a provisioning engine around this context. Consent
// prompts render to out; state flushes go to the project's state files.
func (a *appContext) engine(out io.Writer, events engine.Events) *engine.Engine {
	return engine.New(engine.Config{
		Registry:   a.registry,
		Clients:    a.clients,
		Reconciler: reconcile.New(a.clients, a.prompt, a.log),
		Gate:       consent.NewGate(a.prompt, out),
		Logger:     a.log,
		Events:     events,
		Flush: func(info *environment.Info) error {
			_, err := environment.WriteState(info, a.dir, a.crypto)
			return err
		},
	})
}

// buildClients assembles the in-memory collaborator backend. Environment
// variables pick the identities so scripted runs stay deterministic; real
// vendor bindings would be wired here instead.
func buildClients() *cloud.Clients {
	tenant := envOr("APPFX_TENANT_ID", defaultTenantID)
	account := cloud.Account{
		TenantID: tenant,
		Username: envOr("APPFX_ACCOUNT", "dev@appfx.local"),
	}
	subscription := cloud.Subscription{
		ID:       envOr("APPFX_SUBSCRIPTION_ID", defaultSubscriptionID),
		Name:     envOr("APPFX_SUBSCRIPTION_NAME", "AppFx Dev"),
		TenantID: tenant,
	}
	messagingTenant := envOr("APPFX_MESSAGING_TENANT_ID", tenant)

	return memory.NewClients(account, messagingTenant, subscription)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
