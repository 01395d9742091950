// Package connector contains the application services of the integration
// framework: the registry, the credential vault, the capability executor and
// webhook ingestion.
package connector

import (
	"fmt"
	"sync"

	"github.com/b2bhub/backend/internal/domain/connector"
)

// PluginRegistry is the compile-time catalog of connector implementations.
// Plugins are registered once at startup; there is no runtime code loading.
type PluginRegistry struct {
	mu      sync.RWMutex
	plugins map[string]connector.Plugin
}

// NewPluginRegistry creates an empty plugin registry
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{plugins: make(map[string]connector.Plugin)}
}

// Add registers a plugin under its metadata code
func (r *PluginRegistry) Add(plugin connector.Plugin) error {
	code := plugin.Metadata().Code
	if code == "" {
		return fmt.Errorf("connector: plugin declares an empty code")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[code]; exists {
		return fmt.Errorf("%w: %s", connector.ErrConnectorCodeConflict, code)
	}
	r.plugins[code] = plugin
	return nil
}

// Resolve returns the plugin registered under code
func (r *PluginRegistry) Resolve(code string) (connector.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugin, ok := r.plugins[code]
	return plugin, ok
}

// All returns every registered plugin
func (r *PluginRegistry) All() []connector.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]connector.Plugin, 0, len(r.plugins))
	for _, plugin := range r.plugins {
		out = append(out, plugin)
	}
	return out
}
