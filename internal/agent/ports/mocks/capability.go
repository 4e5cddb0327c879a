package mocks

import (
	"context"
	"fmt"
	"time"

	"souschef/internal/agent/ports"
)

// MockCapability is a test double with injectable behavior
type MockCapability struct {
	Name       string
	InvokeFunc func(ctx context.Context, call ports.CapabilityCall) (*ports.CapabilityResult, error)
	Calls      []ports.CapabilityCall
}

func (m *MockCapability) Invoke(ctx context.Context, call ports.CapabilityCall) (*ports.CapabilityResult, error) {
	m.Calls = append(m.Calls, call)
	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, call)
	}
	return &ports.CapabilityResult{CallID: call.ID, Content: "{}"}, nil
}

func (m *MockCapability) Definition() ports.CapabilityDefinition {
	return ports.CapabilityDefinition{
		Name:        m.Name,
		Description: "mock capability",
		Parameters: ports.ParameterSchema{
			Type:       "object",
			Properties: map[string]ports.Property{},
		},
	}
}

// MockRegistry resolves capabilities from an in-memory map
type MockRegistry struct {
	Capabilities map[string]ports.Capability
}

func NewMockRegistry(caps ...ports.Capability) *MockRegistry {
	r := &MockRegistry{Capabilities: make(map[string]ports.Capability)}
	for _, c := range caps {
		r.Capabilities[c.Definition().Name] = c
	}
	return r
}

func (r *MockRegistry) Register(capability ports.Capability) error {
	r.Capabilities[capability.Definition().Name] = capability
	return nil
}

func (r *MockRegistry) Get(name string) (ports.Capability, error) {
	c, ok := r.Capabilities[name]
	if !ok {
		return nil, fmt.Errorf("capability not found: %s", name)
	}
	return c, nil
}

func (r *MockRegistry) List() []ports.CapabilityDefinition {
	defs := make([]ports.CapabilityDefinition, 0, len(r.Capabilities))
	for _, c := range r.Capabilities {
		defs = append(defs, c.Definition())
	}
	return defs
}

func (r *MockRegistry) Unregister(name string) error {
	delete(r.Capabilities, name)
	return nil
}

// MockClock returns a fixed or scripted time
type MockClock struct {
	Current time.Time
}

func (c *MockClock) Now() time.Time {
	return c.Current
}

func (c *MockClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
