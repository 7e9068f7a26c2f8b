package environment

// ComponentState is the state slice owned by a single component. Values are
// JSON-representable; keys beginning with "secret" hold secret strings that
// are sealed before they reach disk.
type ComponentState map[string]any

// State is the whole environment state, keyed by component name. Component
// names written by other tools or newer versions are preserved verbatim.
type State map[string]ComponentState

// ComponentSolution is the shared slice owned by the orchestrator itself.
const ComponentSolution = "solution"

// Keys within the solution slice.
const (
	KeyTeamsAppTenantID   = "teamsAppTenantId"
	KeyTenantID           = "tenantId"
	KeySubscriptionID     = "subscriptionId"
	KeySubscriptionName   = "subscriptionName"
	KeyResourceGroupName  = "resourceGroupName"
	KeyLocation           = "location"
	KeyResourceNameSuffix = "resourceNameSuffix"
	KeyProvisionSucceeded = "provisionSucceeded"
)

// SecretKeyPrefix is the key namespace convention for secrets: a state key
// beginning with this prefix holds a secret string value.
const SecretKeyPrefix = "secret"

// Component returns the named slice, creating it when absent.
func (s State) Component(name string) ComponentState {
	if c, ok := s[name]; ok {
		return c
	}
	c := ComponentState{}
	s[name] = c
	return c
}

// Merge applies a patch into the named component slice. Existing keys not
// present in the patch are left untouched.
func (s State) Merge(name string, patch map[string]any) {
	if len(patch) == 0 {
		return
	}
	c := s.Component(name)
	for k, v := range patch {
		c[k] = v
	}
}

// DeepCopy returns a structurally independent copy. Nested non-map values are
// shared, which is safe because slices treat values as immutable.
func (s State) DeepCopy() State {
	out := make(State, len(s))
	for name, c := range s {
		cc := make(ComponentState, len(c))
		for k, v := range c {
			cc[k] = v
		}
		out[name] = cc
	}
	return out
}

// GetString reads a string value, returning "" for absent or non-string keys.
func (c ComponentState) GetString(key string) string {
	v, ok := c[key]
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// GetBool reads a boolean value, returning false for absent or non-bool keys.
func (c ComponentState) GetBool(key string) bool {
	v, ok := c[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Solution is the typed view over the orchestrator-owned solution slice.
// TeamsAppTenantID identifies the messaging-platform directory; TenantID the
// cloud directory the subscription belongs to. ResourceNameSuffix is minted
// once per environment and never re-derived.
type Solution struct {
	TeamsAppTenantID   string
	TenantID           string
	SubscriptionID     string
	SubscriptionName   string
	ResourceGroupName  string
	Location           string
	ResourceNameSuffix string
	ProvisionSucceeded bool
}

// Solution reads the typed solution view. Unknown keys in the underlying
// slice are ignored here but preserved on disk.
func (s State) Solution() Solution {
	c, ok := s[ComponentSolution]
	if !ok {
		return Solution{}
	}
	return Solution{
		TeamsAppTenantID:   c.GetString(KeyTeamsAppTenantID),
		TenantID:           c.GetString(KeyTenantID),
		SubscriptionID:     c.GetString(KeySubscriptionID),
		SubscriptionName:   c.GetString(KeySubscriptionName),
		ResourceGroupName:  c.GetString(KeyResourceGroupName),
		Location:           c.GetString(KeyLocation),
		ResourceNameSuffix: c.GetString(KeyResourceNameSuffix),
		ProvisionSucceeded: c.GetBool(KeyProvisionSucceeded),
	}
}

// SetSolution writes the typed view back, preserving unknown keys already
// present in the slice. Empty strings clear their keys; provisionSucceeded is
// always written explicitly.
func (s State) SetSolution(sol Solution) {
	c := s.Component(ComponentSolution)
	setOrClear(c, KeyTeamsAppTenantID, sol.TeamsAppTenantID)
	setOrClear(c, KeyTenantID, sol.TenantID)
	setOrClear(c, KeySubscriptionID, sol.SubscriptionID)
	setOrClear(c, KeySubscriptionName, sol.SubscriptionName)
	setOrClear(c, KeyResourceGroupName, sol.ResourceGroupName)
	setOrClear(c, KeyLocation, sol.Location)
	setOrClear(c, KeyResourceNameSuffix, sol.ResourceNameSuffix)
	c[KeyProvisionSucceeded] = sol.ProvisionSucceeded
}

func setOrClear(c ComponentState, key, value string) {
	if value == "" {
		delete(c, key)
		return
	}
	c[key] = value
}
