package pluginhost

import "sync"

// Factory constructs a fresh built-in plugin instance.
type Factory func() PluginHandler

// globalRegistry mirrors the teacher's GlobalPluginRegistry: built-in
// plugins self-register from an init() in their own package so main.go never
// needs an explicit import list of every built-in.
type globalRegistry struct {
	mu      sync.RWMutex
	plugins map[string]Factory
}

var global = &globalRegistry{plugins: make(map[string]Factory)}

// Register adds a built-in plugin factory under name. Called from an
// init() func in the plugin's own package.
func Register(name string, factory Factory) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.plugins[name] = factory
}

// GlobalRegistry returns the process-wide built-in plugin registry.
func GlobalRegistry() *globalRegistry { return global }

// All constructs one instance of every registered built-in plugin.
func (r *globalRegistry) All() map[string]PluginHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]PluginHandler, len(r.plugins))
	for name, factory := range r.plugins {
		out[name] = factory()
	}
	return out
}

// Names lists registered built-in plugin names.
func (r *globalRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	return names
}
