// Package state provides durable per-component key-value state. Batch
// counters and the data valve persist their in-flight state here so counts
// survive process restarts.
package state

import (
	"context"
	"maps"
	"sync"
)

// Manager is the durable state scope of a single component. Implementations
// must be safe for concurrent use.
type Manager interface {
	// GetState returns the component's current state map; a component with
	// no stored state returns an empty map
	GetState(ctx context.Context) (map[string]string, error)
	// SetState replaces the component's state map
	SetState(ctx context.Context, state map[string]string) error
	// Clear removes all stored state for the component
	Clear(ctx context.Context) error
}

// Provider hands out the state manager scoped to a component ID
type Provider interface {
	StateManager(componentID string) Manager
}

// MemoryProvider is an in-process Provider used in tests and in deployments
// that accept losing in-flight counts on restart.
type MemoryProvider struct {
	mu       sync.Mutex
	managers map[string]*memoryManager
}

// NewMemoryProvider creates an empty in-memory provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{managers: make(map[string]*memoryManager)}
}

// StateManager returns the in-memory manager for the component, creating it
// on first use
func (p *MemoryProvider) StateManager(componentID string) Manager {
	p.mu.Lock()
	defer p.mu.Unlock()
	mgr, ok := p.managers[componentID]
	if !ok {
		mgr = &memoryManager{state: make(map[string]string)}
		p.managers[componentID] = mgr
	}
	return mgr
}

type memoryManager struct {
	mu    sync.RWMutex
	state map[string]string
}

func (m *memoryManager) GetState(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string, len(m.state))
	maps.Copy(result, m.state)
	return result, nil
}

func (m *memoryManager) SetState(_ context.Context, state map[string]string) error {
	m.mu.Lock()
	m.state = make(map[string]string, len(state))
	maps.Copy(m.state, state)
	m.mu.Unlock()
	return nil
}

func (m *memoryManager) Clear(_ context.Context) error {
	m.mu.Lock()
	m.state = make(map[string]string)
	m.mu.Unlock()
	return nil
}
