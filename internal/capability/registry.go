package capability

import (
	"fmt"
	"sort"
	"sync"

	"souschef/internal/agent/ports"
)

// Registry is the default ports.CapabilityRegistry implementation
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]ports.Capability
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		capabilities: make(map[string]ports.Capability),
	}
}

// Register adds a capability to the registry
func (r *Registry) Register(capability ports.Capability) error {
	if capability == nil {
		return fmt.Errorf("capability is nil")
	}
	name := capability.Definition().Name
	if name == "" {
		return fmt.Errorf("capability has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.capabilities[name]; exists {
		return fmt.Errorf("capability already registered: %s", name)
	}
	r.capabilities[name] = capability
	return nil
}

// Get retrieves a capability by name
func (r *Registry) Get(name string) (ports.Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	capability, ok := r.capabilities[name]
	if !ok {
		return nil, fmt.Errorf("capability not found: %s", name)
	}
	return capability, nil
}

// List returns all capability definitions sorted by name
func (r *Registry) List() []ports.CapabilityDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ports.CapabilityDefinition, 0, len(r.capabilities))
	for _, capability := range r.capabilities {
		defs = append(defs, capability.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Unregister removes a capability
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.capabilities[name]; !ok {
		return fmt.Errorf("capability not found: %s", name)
	}
	delete(r.capabilities, name)
	return nil
}
