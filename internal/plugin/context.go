package plugin

import (
	"github.com/appfx/appfx/internal/cloud"
	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/logger"
	"github.com/appfx/appfx/internal/settings"
)

// Target is the resolved provisioning destination a phase runs against.
type Target struct {
	TenantID           string
	TeamsAppTenantID   string
	SubscriptionID     string
	SubscriptionName   string
	ResourceGroupName  string
	Location           string
	ResourceNameSuffix string
}

// Context carries everything one plugin call may touch. State access is
// scoped: a plugin reads its own component slice and the slices of components
// its settings node declares connections to, nothing else. Writes never go
// through the context; they travel back as the result's patch and are merged
// by the orchestrator.
type Context struct {
	EnvName   string
	AppName   string
	ProjectID string
	Component settings.Component
	Config    environment.Config
	Target    Target
	Clients   *cloud.Clients
	Logger    *logger.Logger
	View      StateView
}

// StateView is a read-only snapshot of the slices one plugin may see. Views
// are copies taken before the phase launches, so concurrent merging by the
// orchestrator never races a plugin read.
type StateView struct {
	own       environment.ComponentState
	connected map[string]environment.ComponentState
}

// NewStateView builds the scoped snapshot for a component from full state.
func NewStateView(state environment.State, component settings.Component) StateView {
	view := StateView{
		own:       copySlice(state[component.Name]),
		connected: make(map[string]environment.ComponentState, len(component.Connections)),
	}
	for _, name := range component.Connections {
		view.connected[name] = copySlice(state[name])
	}
	return view
}

// Own returns the plugin's own slice snapshot.
func (v StateView) Own() environment.ComponentState {
	return v.own
}

// Connected returns a connected component's slice snapshot. Components not
// declared as connections are invisible.
func (v StateView) Connected(name string) (environment.ComponentState, bool) {
	slice, ok := v.connected[name]
	return slice, ok
}

func copySlice(slice environment.ComponentState) environment.ComponentState {
	out := make(environment.ComponentState, len(slice))
	for k, v := range slice {
		out[k] = v
	}
	return out
}
