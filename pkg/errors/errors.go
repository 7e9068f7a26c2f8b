package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Class partitions failures by who must act on them. User errors are
// actionable by the operator, system errors are environmental or internal,
// and cancelled marks a deliberate operator abort. Cancellation is never
// reported as a failure.
type Class string

const (
	ClassUser      Class = "user"
	ClassSystem    Class = "system"
	ClassCancelled Class = "cancelled"
)

// Stable error names. Callers branch on these instead of matching message
// text, so they are part of the public contract and never renamed.
const (
	NameDecryptionError          = "DecryptionError"
	NameProjectEnvNotExist       = "ProjectEnvNotExistError"
	NameProjectEnvAlreadyExist   = "ProjectEnvAlreadyExistError"
	NameProjectAlreadyExist      = "ProjectAlreadyExistError"
	NameFetchTemplate            = "FetchTemplateError"
	NameInvalidEnvConfig         = "InvalidEnvConfigError"
	NameInvalidEnvState          = "InvalidEnvStateError"
	NameInvalidProject           = "InvalidProjectError"
	NameInvalidTemplate          = "InvalidTemplateError"
	NameInvalidInput             = "InvalidInputError"
	NamePluginNotFound           = "PluginNotFoundError"
	NameSubscriptionNotFound     = "SubscriptionNotFoundError"
	NameResourceGroupNotExist    = "ResourceGroupNotExistError"
	NameUnauthorizedToCheckRG    = "UnauthorizedToCheckResourceGroupError"
	NameFailedToCheckRGExistence = "FailedToCheckResourceGroupExistenceError"
	NameCreateResourceGroupError = "CreateResourceGroupError"
	NameTenantSwitchBlocked      = "TenantSwitchBlockedError"
	NameUserCancelled            = "UserCancelledError"
	NamePartialSuccess           = "PartialSuccessError"
	NameDeployBeforeProvision    = "DeployBeforeProvisionError"
	NamePluginExecution          = "PluginExecutionError"
	NameTemplateDeployment       = "TemplateDeploymentError"
)

// Error is the single failure type crossing package boundaries. Name is a
// stable machine-readable identifier, Class says who acts on it, Message is
// operator-facing, and Err preserves the cause chain for errors.Is/As.
type Error struct {
	Name    string
	Class   Class
	Message string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New constructs an Error without a cause.
func New(name string, class Class, format string, args ...any) *Error {
	return &Error{Name: name, Class: class, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error around a cause.
func Wrap(name string, class Class, err error, format string, args ...any) *Error {
	return &Error{Name: name, Class: class, Message: fmt.Sprintf(format, args...), Err: err}
}

// HasName reports whether any error in the chain carries the given name.
func HasName(err error, name string) bool {
	for err != nil {
		var e *Error
		if stderrors.As(err, &e) {
			if e.Name == name {
				return true
			}
			err = e.Err
			continue
		}
		return false
	}
	return false
}

// ClassOf returns the class of the outermost classified error, defaulting
// to system for unclassified errors.
func ClassOf(err error) Class {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Class
	}
	return ClassSystem
}

// IsUser reports whether the error is actionable by the operator.
func IsUser(err error) bool { return ClassOf(err) == ClassUser }

// IsSystem reports whether the error is environmental or internal.
func IsSystem(err error) bool { return ClassOf(err) == ClassSystem }

// IsCancelled reports whether the operator deliberately aborted.
func IsCancelled(err error) bool { return ClassOf(err) == ClassCancelled }

// NewDecryptionError signals a secret value that could not be unsealed.
// It is fatal: proceeding would silently drop or corrupt secrets.
func NewDecryptionError(envName, key string, err error) *Error {
	e := Wrap(NameDecryptionError, ClassUser, err,
		"cannot decrypt secret %q in environment %q; the state file was written by a different project or has been tampered with", key, envName)
	e.Details = map[string]any{"env": envName, "key": key}
	return e
}

// NewProjectEnvNotExistError signals a named environment with no files on disk.
func NewProjectEnvNotExistError(envName string) *Error {
	return New(NameProjectEnvNotExist, ClassUser,
		"environment %q does not exist in this project; create it with \"appfx env add %s\"", envName, envName)
}

// NewProjectEnvAlreadyExistError signals an attempt to create an environment
// that already has files on disk.
func NewProjectEnvAlreadyExistError(envName string) *Error {
	return New(NameProjectEnvAlreadyExist, ClassUser, "environment %q already exists in this project", envName)
}

// NewProjectAlreadyExistError signals an attempt to scaffold into a directory
// that already holds a project.
func NewProjectAlreadyExistError(path string) *Error {
	return New(NameProjectAlreadyExist, ClassUser, "a project already exists at %s", path)
}

// NewFetchTemplateError signals a template repository that could not be
// cloned. The remote, the network, or the requested ref may be at fault, so
// the wrapped error carries the detail.
func NewFetchTemplateError(url, ref string, err error) *Error {
	return Wrap(NameFetchTemplate, ClassSystem, err, "failed to fetch template %s@%s", url, ref)
}

// NewInvalidEnvConfigError signals an unreadable or structurally invalid
// environment config file.
func NewInvalidEnvConfigError(envName, path string, err error) *Error {
	return Wrap(NameInvalidEnvConfig, ClassUser, err, "environment config %s is invalid", path)
}

// NewInvalidEnvStateError signals an unreadable or structurally invalid
// environment state file.
func NewInvalidEnvStateError(envName, path string, err error) *Error {
	return Wrap(NameInvalidEnvState, ClassSystem, err, "environment state %s is invalid", path)
}

// NewInvalidProjectError signals a directory that is not an appfx project.
func NewInvalidProjectError(path string, err error) *Error {
	return Wrap(NameInvalidProject, ClassUser, err, "%s is not an appfx project", path)
}

// NewInvalidTemplateError signals a scaffold template with a bad descriptor.
func NewInvalidTemplateError(name string, err error) *Error {
	return Wrap(NameInvalidTemplate, ClassUser, err, "template %q is invalid", name)
}

// NewInvalidInputError signals caller-supplied options that fail validation.
func NewInvalidInputError(err error, format string, args ...any) *Error {
	return Wrap(NameInvalidInput, ClassUser, err, format, args...)
}

// NewPluginNotFoundError signals a component name with no registered plugin.
// Registration happens at startup, so hitting this at runtime is a bug.
func NewPluginNotFoundError(name string) *Error {
	return New(NamePluginNotFound, ClassSystem, "no plugin registered for component %q", name)
}

// NewSubscriptionNotFoundError signals a requested subscription the signed-in
// account cannot see.
func NewSubscriptionNotFoundError(subscriptionID string) *Error {
	return New(NameSubscriptionNotFound, ClassUser,
		"subscription %q is not accessible from the current account; sign in to the right account or pick another subscription", subscriptionID)
}

// NewResourceGroupNotExistError signals a configured resource group that is
// absent from the selected subscription.
func NewResourceGroupNotExistError(resourceGroup, subscriptionID string) *Error {
	return New(NameResourceGroupNotExist, ClassUser,
		"resource group %q does not exist in subscription %q; create it or remove the setting to let provisioning create one", resourceGroup, subscriptionID)
}

// NewUnauthorizedToCheckResourceGroupError signals a permission failure while
// probing resource group existence. Distinct from transport failures so
// operators know to fix roles, not networks.
func NewUnauthorizedToCheckResourceGroupError(resourceGroup, subscriptionID string) *Error {
	return New(NameUnauthorizedToCheckRG, ClassUser,
		"current account is not authorized to read resource group %q in subscription %q", resourceGroup, subscriptionID)
}

// NewFailedToCheckResourceGroupExistenceError signals a non-permission failure
// while probing resource group existence.
func NewFailedToCheckResourceGroupExistenceError(resourceGroup, subscriptionID string, err error) *Error {
	return Wrap(NameFailedToCheckRGExistence, ClassSystem, err,
		"could not determine whether resource group %q exists in subscription %q", resourceGroup, subscriptionID)
}

// NewCreateResourceGroupError signals a failed resource group creation.
func NewCreateResourceGroupError(resourceGroup, subscriptionID string, err error) *Error {
	return Wrap(NameCreateResourceGroupError, ClassSystem, err,
		"failed to create resource group %q in subscription %q", resourceGroup, subscriptionID)
}

// NewTenantSwitchBlockedError signals a directory switch that configuration
// forbids for the given environment.
func NewTenantSwitchBlockedError(envName, storedTenant, currentTenant string) *Error {
	return New(NameTenantSwitchBlocked, ClassUser,
		"environment %q was provisioned under tenant %s but the current account belongs to tenant %s; sign back in or set azure.allowTenantSwitch in the environment config", envName, storedTenant, currentTenant)
}

// NewUserCancelledError marks a deliberate operator abort. It is classified
// as cancelled, not as a failure.
func NewUserCancelledError(operation string) *Error {
	return New(NameUserCancelled, ClassCancelled, "%s cancelled by user", operation)
}

// NewDeployBeforeProvisionError signals a deploy attempted against an
// environment that has never completed provisioning.
func NewDeployBeforeProvisionError(envName string) *Error {
	return New(NameDeployBeforeProvision, ClassUser,
		"environment %q has no successful provision recorded; run \"appfx provision --env %s\" first", envName, envName)
}

// NewTemplateDeploymentError signals a failed infrastructure template
// deployment. The deployment is atomic, so no per-component attribution is
// possible.
func NewTemplateDeploymentError(resourceGroup string, err error) *Error {
	return Wrap(NameTemplateDeployment, ClassSystem, err,
		"infrastructure template deployment to resource group %q failed", resourceGroup)
}

// NewPluginExecutionError wraps a failure raised by a single plugin lifecycle
// call, preserving which plugin and phase produced it.
func NewPluginExecutionError(plugin, phase string, err error) *Error {
	e := Wrap(NamePluginExecution, ClassOf(err), err, "plugin %q failed during %s", plugin, phase)
	e.Details = map[string]any{"plugin": plugin, "phase": phase}
	return e
}

// NewPartialSuccessError aggregates a phase where some plugins succeeded and
// others failed. It carries the first failure as the representative cause so
// callers can distinguish partial completion from total failure.
func NewPartialSuccessError(operation string, failed []string, first error) *Error {
	e := Wrap(NamePartialSuccess, ClassOf(first), first,
		"%s completed partially: %d component(s) failed (%s)", operation, len(failed), strings.Join(failed, ", "))
	e.Details = map[string]any{"operation": operation, "failed": failed}
	return e
}
