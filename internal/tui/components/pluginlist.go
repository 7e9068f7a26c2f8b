package components

import (
	"github.com/appfx/appfx/internal/model"
)

// PluginEntry represents a single plugin call for rendering.
type PluginEntry struct {
	Name   string
	Result model.PluginResult
}

// PluginList renders the plugins of one phase with their current status.
type PluginList struct {
	entries []PluginEntry
}

// NewPluginList constructs a plugin list in announcement order.
func NewPluginList(order []string, results map[string]model.PluginResult) PluginList {
	entries := make([]PluginEntry, 0, len(order))
	for _, name := range order {
		entries = append(entries, PluginEntry{Name: name, Result: results[name]})
	}
	return PluginList{entries: entries}
}

// Entries returns the ordered plugin entries.
func (l PluginList) Entries() []PluginEntry {
	clone := make([]PluginEntry, len(l.entries))
	copy(clone, l.entries)
	return clone
}
