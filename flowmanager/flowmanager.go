// Package flowmanager implements the process-wide component index. One
// StandardFlowManager is constructed at system init, injected into every
// process group, and notified on every component add and remove; find
// operations resolve through it and then verify group ownership.
package flowmanager

import (
	"log/slog"
	"sync"

	"github.com/c360/flowgroup/component"
)

// StandardFlowManager is a thread-safe global index over every component in
// the flow, keyed by identifier.
type StandardFlowManager struct {
	mu sync.RWMutex

	processors         map[string]*component.ProcessorNode
	inputPorts         map[string]*component.Port
	outputPorts        map[string]*component.Port
	funnels            map[string]*component.Funnel
	connections        map[string]*component.Connection
	controllerServices map[string]*component.ControllerServiceNode
	groups             map[string]component.FlowGroup

	logger *slog.Logger
}

// New creates an empty flow manager
func New(logger *slog.Logger) *StandardFlowManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StandardFlowManager{
		processors:         make(map[string]*component.ProcessorNode),
		inputPorts:         make(map[string]*component.Port),
		outputPorts:        make(map[string]*component.Port),
		funnels:            make(map[string]*component.Funnel),
		connections:        make(map[string]*component.Connection),
		controllerServices: make(map[string]*component.ControllerServiceNode),
		groups:             make(map[string]component.FlowGroup),
		logger:             logger,
	}
}

// OnProcessorAdded indexes a processor
func (fm *StandardFlowManager) OnProcessorAdded(processor *component.ProcessorNode) {
	fm.mu.Lock()
	fm.processors[processor.Identifier()] = processor
	fm.mu.Unlock()
}

// OnProcessorRemoved drops a processor from the index
func (fm *StandardFlowManager) OnProcessorRemoved(processor *component.ProcessorNode) {
	fm.mu.Lock()
	delete(fm.processors, processor.Identifier())
	fm.mu.Unlock()
}

// OnInputPortAdded indexes an input port
func (fm *StandardFlowManager) OnInputPortAdded(port *component.Port) {
	fm.mu.Lock()
	fm.inputPorts[port.Identifier()] = port
	fm.mu.Unlock()
}

// OnInputPortRemoved drops an input port from the index
func (fm *StandardFlowManager) OnInputPortRemoved(port *component.Port) {
	fm.mu.Lock()
	delete(fm.inputPorts, port.Identifier())
	fm.mu.Unlock()
}

// OnOutputPortAdded indexes an output port
func (fm *StandardFlowManager) OnOutputPortAdded(port *component.Port) {
	fm.mu.Lock()
	fm.outputPorts[port.Identifier()] = port
	fm.mu.Unlock()
}

// OnOutputPortRemoved drops an output port from the index
func (fm *StandardFlowManager) OnOutputPortRemoved(port *component.Port) {
	fm.mu.Lock()
	delete(fm.outputPorts, port.Identifier())
	fm.mu.Unlock()
}

// OnFunnelAdded indexes a funnel
func (fm *StandardFlowManager) OnFunnelAdded(funnel *component.Funnel) {
	fm.mu.Lock()
	fm.funnels[funnel.Identifier()] = funnel
	fm.mu.Unlock()
}

// OnFunnelRemoved drops a funnel from the index
func (fm *StandardFlowManager) OnFunnelRemoved(funnel *component.Funnel) {
	fm.mu.Lock()
	delete(fm.funnels, funnel.Identifier())
	fm.mu.Unlock()
}

// OnConnectionAdded indexes a connection
func (fm *StandardFlowManager) OnConnectionAdded(conn *component.Connection) {
	fm.mu.Lock()
	fm.connections[conn.Identifier()] = conn
	fm.mu.Unlock()
}

// OnConnectionRemoved drops a connection from the index
func (fm *StandardFlowManager) OnConnectionRemoved(conn *component.Connection) {
	fm.mu.Lock()
	delete(fm.connections, conn.Identifier())
	fm.mu.Unlock()
}

// OnControllerServiceAdded indexes a controller service
func (fm *StandardFlowManager) OnControllerServiceAdded(service *component.ControllerServiceNode) {
	fm.mu.Lock()
	fm.controllerServices[service.Identifier()] = service
	fm.mu.Unlock()
}

// OnControllerServiceRemoved drops a controller service from the index
func (fm *StandardFlowManager) OnControllerServiceRemoved(service *component.ControllerServiceNode) {
	fm.mu.Lock()
	delete(fm.controllerServices, service.Identifier())
	fm.mu.Unlock()
}

// OnProcessGroupAdded indexes a process group
func (fm *StandardFlowManager) OnProcessGroupAdded(group component.FlowGroup) {
	fm.mu.Lock()
	fm.groups[group.Identifier()] = group
	fm.mu.Unlock()
	fm.logger.Debug("process group indexed", "group_id", group.Identifier(), "name", group.GroupName())
}

// OnProcessGroupRemoved drops a process group from the index
func (fm *StandardFlowManager) OnProcessGroupRemoved(group component.FlowGroup) {
	fm.mu.Lock()
	delete(fm.groups, group.Identifier())
	fm.mu.Unlock()
	fm.logger.Debug("process group removed from index", "group_id", group.Identifier())
}

// Processor resolves a processor by ID, nil when unknown
func (fm *StandardFlowManager) Processor(id string) *component.ProcessorNode {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.processors[id]
}

// InputPort resolves an input port by ID, nil when unknown
func (fm *StandardFlowManager) InputPort(id string) *component.Port {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.inputPorts[id]
}

// OutputPort resolves an output port by ID, nil when unknown
func (fm *StandardFlowManager) OutputPort(id string) *component.Port {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.outputPorts[id]
}

// Funnel resolves a funnel by ID, nil when unknown
func (fm *StandardFlowManager) Funnel(id string) *component.Funnel {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.funnels[id]
}

// Connection resolves a connection by ID, nil when unknown
func (fm *StandardFlowManager) Connection(id string) *component.Connection {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.connections[id]
}

// ControllerService resolves a controller service by ID, nil when unknown
func (fm *StandardFlowManager) ControllerService(id string) *component.ControllerServiceNode {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.controllerServices[id]
}

// ProcessGroup resolves a process group by ID, nil when unknown
func (fm *StandardFlowManager) ProcessGroup(id string) component.FlowGroup {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.groups[id]
}
