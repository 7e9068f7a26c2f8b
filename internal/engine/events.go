package engine

import "github.com/appfx/appfx/internal/model"

// InfraStep is the name progress events use for the atomic infrastructure
// template deployment, which is not owned by any single plugin.
const InfraStep = "infrastructure"

// Events receives progress notifications as a run advances. Every method is
// called from the goroutine running the engine, in order: a PhaseStarted,
// then one PluginCompleted per named plugin in completion order.
type Events interface {
	PhaseStarted(phase model.Phase, plugins []string)
	PluginCompleted(result model.PluginResult)
}

type noopEvents struct{}

func (noopEvents) PhaseStarted(model.Phase, []string) {}
func (noopEvents) PluginCompleted(model.PluginResult) {}
