package plugin

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/appfx/appfx/pkg/errors"
)

// Registry maps component names to their plugins. It is built once at
// startup and passed explicitly to whoever needs it; there is no package
// global. A lookup miss at runtime means a component reached the
// orchestrator without a registered plugin, which is a programming error,
// not an operator mistake.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin under its metadata name.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register a nil plugin")
	}
	meta := p.Metadata()
	if err := meta.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[meta.Name]; exists {
		return fmt.Errorf("plugin %q already registered", meta.Name)
	}

	r.plugins[meta.Name] = p
	return nil
}

// Get retrieves a plugin by component name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	if !ok {
		return nil, apperrors.NewPluginNotFoundError(name)
	}
	return p, nil
}

// Has reports whether a component name has a registered plugin.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[name]
	return ok
}

// Names returns all registered component names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubscriptionScoped returns the set of component names whose state is
// invalidated by a subscription switch, derived from plugin metadata.
func (r *Registry) SubscriptionScoped() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scoped := make(map[string]struct{})
	for name, p := range r.plugins {
		if p.Metadata().SubscriptionScoped {
			scoped[name] = struct{}{}
		}
	}
	return scoped
}
