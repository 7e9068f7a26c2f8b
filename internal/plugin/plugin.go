// Package plugin defines the resource plugin contract. Every component that
// participates in provisioning is served by one plugin. The base interface
// only identifies the plugin; lifecycle stages are optional capability
// interfaces discovered by type assertion, so a plugin implements exactly the
// stages that mean something for its resource.
package plugin

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/model"
)

// Metadata describes a plugin's identity and provisioning traits.
type Metadata struct {
	// Name is the component name the plugin serves. It keys the registry
	// and the component's slice of environment state.
	Name string
	// Description is a short operator-facing summary.
	Description string
	// SubscriptionScoped marks plugins whose resources live inside one
	// subscription. Their recorded state becomes invalid when provisioning
	// moves to a different subscription and is purged on switch.
	SubscriptionScoped bool
}

var pluginNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// Validate ensures metadata is well-formed.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("plugin metadata requires a non-empty Name")
	}
	if !pluginNamePattern.MatchString(m.Name) {
		return fmt.Errorf("plugin %q has an invalid name (lowercase letters, digits, dashes)", m.Name)
	}
	return nil
}

// Plugin is the base contract: identity only. Lifecycle participation is
// declared by also implementing the capability interfaces below.
type Plugin interface {
	Metadata() Metadata
}

// ResourceProvisioner creates or adopts the resource itself. Must be
// idempotent: a resource that already exists is adopted, not duplicated.
type ResourceProvisioner interface {
	ProvisionResource(ctx context.Context, pctx *Context) (*model.PluginResult, error)
}

// ResourceConfigurer wires a provisioned resource to its collaborators. It
// runs only after every resource exists and template outputs are recorded.
type ResourceConfigurer interface {
	ConfigureResource(ctx context.Context, pctx *Context) (*model.PluginResult, error)
}

// TemplateGenerator contributes an infrastructure template fragment to the
// single atomic template deployment.
type TemplateGenerator interface {
	GenerateTemplate(ctx context.Context, pctx *Context) (*cloud.ComponentTemplate, error)
}

// Deployer ships application code onto a provisioned resource.
type Deployer interface {
	Deploy(ctx context.Context, pctx *Context) (*model.PluginResult, error)
}
