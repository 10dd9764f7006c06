package platform

import "strings"

// Registry maps platform names to adapters. Adding a platform means
// registering a new implementer, never editing the orchestrator.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	registry := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, adapter := range adapters {
		registry.Register(adapter)
	}
	return registry
}

func (r *Registry) Register(adapter Adapter) {
	r.adapters[strings.ToLower(adapter.Name())] = adapter
}

func (r *Registry) Get(name string) (Adapter, bool) {
	adapter, ok := r.adapters[strings.ToLower(name)]
	return adapter, ok
}

// Names lists the registered platforms.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
