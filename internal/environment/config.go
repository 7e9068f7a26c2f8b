package environment

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Config is the operator-editable half of an environment: committed to source
// control, read before every provision, never rewritten by provisioning.
type Config struct {
	Azure    *AzureConfig   `json:"azure,omitempty" validate:"omitempty"`
	Manifest map[string]any `json:"manifest,omitempty"`
}

// AzureConfig pins provisioning targets for an environment. Every field is
// optional; absent values fall back to recorded state and then to the
// interactive flow.
type AzureConfig struct {
	SubscriptionID     string `json:"subscriptionId,omitempty" validate:"omitempty,uuid"`
	ResourceGroupName  string `json:"resourceGroupName,omitempty" validate:"omitempty,resource_group"`
	ResourceNameSuffix string `json:"resourceNameSuffix,omitempty" validate:"omitempty,name_suffix"`
	Location           string `json:"location,omitempty"`
	AllowTenantSwitch  bool   `json:"allowTenantSwitch,omitempty"`
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	envNamePattern       = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,31}$`)
	nameSuffixPattern    = regexp.MustCompile(`^[a-z0-9]{1,16}$`)
	resourceGroupPattern = regexp.MustCompile(`^[-\w._()]{1,90}$`)
)

// validatorInstance configures and returns the shared validator used for
// environment files.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("env_name", func(fl validator.FieldLevel) bool {
			return envNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("name_suffix", func(fl validator.FieldLevel) bool {
			return nameSuffixPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("resource_group", func(fl validator.FieldLevel) bool {
			return resourceGroupPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateEnvName reports whether a string is usable as an environment name.
func ValidateEnvName(name string) bool {
	return envNamePattern.MatchString(name)
}

// Validate checks structural constraints on a loaded config.
func (c *Config) Validate() error {
	return validatorInstance().Struct(c)
}

// SubscriptionID returns the pinned subscription, if any.
func (c *Config) SubscriptionID() string {
	if c == nil || c.Azure == nil {
		return ""
	}
	return c.Azure.SubscriptionID
}

// ResourceGroupName returns the pinned resource group, if any.
func (c *Config) ResourceGroupName() string {
	if c == nil || c.Azure == nil {
		return ""
	}
	return c.Azure.ResourceGroupName
}

// ResourceNameSuffix returns the pinned name suffix, if any. A pinned suffix
// takes precedence over the one recorded in state.
func (c *Config) ResourceNameSuffix() string {
	if c == nil || c.Azure == nil {
		return ""
	}
	return c.Azure.ResourceNameSuffix
}

// Location returns the pinned region, if any.
func (c *Config) Location() string {
	if c == nil || c.Azure == nil {
		return ""
	}
	return c.Azure.Location
}

// AllowTenantSwitch reports whether provisioning may proceed when the
// signed-in directory differs from the one recorded in state.
func (c *Config) AllowTenantSwitch() bool {
	return c != nil && c.Azure != nil && c.Azure.AllowTenantSwitch
}
