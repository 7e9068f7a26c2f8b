// Package cloud declares the collaborator contracts provisioning depends on.
// The orchestrator and plugins only ever see these interfaces; concrete
// vendor bindings (SDK-backed or in-memory) are chosen at startup.
package cloud

import (
	"context"
	"errors"
	"fmt"
)

// Account identifies a signed-in principal and the directory it belongs to.
type Account struct {
	TenantID string
	Username string
}

// Subscription is one billing scope visible to the signed-in cloud account.
type Subscription struct {
	ID       string
	Name     string
	TenantID string
}

// ResourceGroup is the container every subscription-scoped resource lands in.
type ResourceGroup struct {
	Name     string
	Location string
}

// AppRegistration is a directory application identity with a client secret.
type AppRegistration struct {
	ClientID     string
	TenantID     string
	ClientSecret string
	OAuthHost    string
}

// AppInfo is a registered application on the messaging platform.
type AppInfo struct {
	AppID    string
	TenantID string
}

// TokenProvider resolves the signed-in account for one identity domain.
// Two instances exist at runtime: the cloud directory and the messaging
// platform directory.
type TokenProvider interface {
	AccountInfo(ctx context.Context) (*Account, error)
	AccessToken(ctx context.Context, scopes []string) (string, error)
}

// ResourceManager exposes the minimal control-plane surface the reconciler
// and orchestrator need.
type ResourceManager interface {
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CheckResourceGroupExistence(ctx context.Context, subscriptionID, name string) (bool, error)
	GetResourceGroup(ctx context.Context, subscriptionID, name string) (*ResourceGroup, error)
	CreateResourceGroup(ctx context.Context, subscriptionID string, group ResourceGroup) error
}

// Directory manages application registrations in the cloud directory.
type Directory interface {
	EnsureAppRegistration(ctx context.Context, displayName string) (*AppRegistration, error)
}

// AppHost registers applications on the messaging platform.
type AppHost interface {
	EnsureApp(ctx context.Context, tenantID, appName string, manifest map[string]any) (*AppInfo, error)
}

// ComponentTemplate is one component's infrastructure template fragment. The
// body is opaque to the orchestrator; it is assembled and shipped as a unit.
type ComponentTemplate struct {
	Component string
	Body      map[string]any
}

// DeployTarget addresses one template deployment.
type DeployTarget struct {
	SubscriptionID    string
	ResourceGroupName string
	Location          string
	Parameters        map[string]any
}

// DeployOutputs carries template outputs keyed by component name. The
// orchestrator merges each component's outputs into that component's state.
type DeployOutputs map[string]map[string]any

// TemplateEngine ships the combined infrastructure template in one atomic
// deployment.
type TemplateEngine interface {
	Deploy(ctx context.Context, target DeployTarget, fragments []ComponentTemplate) (DeployOutputs, error)
}

// Clients bundles every collaborator one backend provides. Commands build a
// Clients once at startup and thread it through reconciler, gate, and engine.
type Clients struct {
	CloudTokens     TokenProvider
	MessagingTokens TokenProvider
	Resources       ResourceManager
	Directory       Directory
	AppHost         AppHost
	Templates       TemplateEngine
}

// StatusError carries an HTTP-level status from a control-plane call so
// callers can tell permission failures from transport failures.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// Unwrap exposes the underlying error.
func (e *StatusError) Unwrap() error {
	return e.Err
}

// IsPermissionDenied reports whether the error chain carries an HTTP 401 or
// 403 status.
func IsPermissionDenied(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == 401 || statusErr.StatusCode == 403
}
