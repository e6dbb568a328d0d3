package component

import (
	"maps"
	"sort"
	"sync"

	"github.com/c360/flowgroup/types"
)

// ProcessorNode is the structural representation of a processor within a
// process group. Execution logic lives behind the Scheduler boundary; the
// node itself carries only identity, configuration and connection topology.
type ProcessorNode struct {
	connectableBase

	propMu             sync.RWMutex
	processorType      string
	properties         map[string]string
	comments           string
	referencedServices map[string]struct{}
}

// NewProcessorNode creates a processor node in the stopped state. The
// processorType names the processor implementation and is opaque to the
// group model.
func NewProcessorNode(id, name, processorType string) *ProcessorNode {
	return &ProcessorNode{
		connectableBase:    newConnectableBase(id, name, types.ConnectableProcessor),
		processorType:      processorType,
		properties:         make(map[string]string),
		referencedServices: make(map[string]struct{}),
	}
}

// ProcessorType returns the name of the processor implementation
func (p *ProcessorNode) ProcessorType() string { return p.processorType }

// Properties returns a copy of the processor's configuration properties
func (p *ProcessorNode) Properties() map[string]string {
	p.propMu.RLock()
	defer p.propMu.RUnlock()
	result := make(map[string]string, len(p.properties))
	maps.Copy(result, p.properties)
	return result
}

// SetProperties replaces the processor's configuration properties. The
// caller is responsible for marking the owning group modified.
func (p *ProcessorNode) SetProperties(props map[string]string) {
	p.propMu.Lock()
	p.properties = make(map[string]string, len(props))
	maps.Copy(p.properties, props)
	p.propMu.Unlock()
}

// Property returns a single configuration property
func (p *ProcessorNode) Property(name string) (string, bool) {
	p.propMu.RLock()
	defer p.propMu.RUnlock()
	value, ok := p.properties[name]
	return value, ok
}

// Comments returns the processor's free-text comments
func (p *ProcessorNode) Comments() string {
	p.propMu.RLock()
	defer p.propMu.RUnlock()
	return p.comments
}

// SetComments updates the processor's free-text comments
func (p *ProcessorNode) SetComments(comments string) {
	p.propMu.Lock()
	p.comments = comments
	p.propMu.Unlock()
}

// ReferencedServiceIDs returns the controller services this processor's
// configuration references, ordered for deterministic iteration
func (p *ProcessorNode) ReferencedServiceIDs() []string {
	p.propMu.RLock()
	defer p.propMu.RUnlock()
	ids := make([]string, 0, len(p.referencedServices))
	for id := range p.referencedServices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetReferencedServiceIDs replaces the processor's controller-service
// references. The owning group keeps the services' reverse reference index
// in step with this set.
func (p *ProcessorNode) SetReferencedServiceIDs(ids []string) {
	p.propMu.Lock()
	p.referencedServices = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		p.referencedServices[id] = struct{}{}
	}
	p.propMu.Unlock()
}

// IsRunning reports whether the processor is scheduled or terminating
func (p *ProcessorNode) IsRunning() bool {
	state := p.ScheduledState()
	return state == types.StateRunning || state == types.StateRunOnce
}
