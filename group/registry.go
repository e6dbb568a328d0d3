package group

import (
	"fmt"
	"sort"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/types"
)

// verifyIDAvailableLocked rejects an identifier already in use anywhere in
// the flow. Caller holds pg.mu.
func (pg *ProcessGroup) verifyIDAvailableLocked(id, operation string) error {
	inUse := false
	if _, ok := pg.processors[id]; ok {
		inUse = true
	}
	if _, ok := pg.inputPorts[id]; ok {
		inUse = true
	}
	if _, ok := pg.outputPorts[id]; ok {
		inUse = true
	}
	if _, ok := pg.funnels[id]; ok {
		inUse = true
	}
	if _, ok := pg.connections[id]; ok {
		inUse = true
	}
	if _, ok := pg.labels[id]; ok {
		inUse = true
	}
	if _, ok := pg.controllerServices[id]; ok {
		inUse = true
	}
	if _, ok := pg.groups[id]; ok {
		inUse = true
	}

	if !inUse && pg.deps.FlowManager != nil {
		fm := pg.deps.FlowManager
		inUse = fm.Processor(id) != nil ||
			fm.InputPort(id) != nil ||
			fm.OutputPort(id) != nil ||
			fm.Funnel(id) != nil ||
			fm.Connection(id) != nil ||
			fm.ControllerService(id) != nil ||
			fm.ProcessGroup(id) != nil
	}

	if inUse {
		return errors.WrapInvalid(
			fmt.Errorf("id %s: %w", id, errors.ErrDuplicateID),
			"ProcessGroup", operation, "identifier uniqueness check")
	}
	return nil
}

// verifyActiveThreadsLocked rejects components the scheduler still runs
// threads for
func (pg *ProcessGroup) verifyActiveThreadsLocked(conn component.Connectable, operation string) error {
	if pg.deps.Scheduler == nil {
		return nil
	}
	if count := pg.deps.Scheduler.ActiveThreadCount(conn); count > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("component %s has %d active threads: %w", conn.Identifier(), count, errors.ErrActiveThreads),
			"ProcessGroup", operation, "active thread check")
	}
	return nil
}

// AddProcessor admits a processor into the group. The processor's ID must be
// unused anywhere in the flow.
func (pg *ProcessGroup) AddProcessor(processor *component.ProcessorNode) error {
	pg.mu.Lock()
	err := pg.addProcessorLocked(processor)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) addProcessorLocked(processor *component.ProcessorNode) error {
	if err := pg.verifyIDAvailableLocked(processor.Identifier(), "AddProcessor"); err != nil {
		return err
	}

	processor.SetGroup(pg)
	pg.processors[processor.Identifier()] = processor
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnProcessorAdded(processor)
	}
	pg.deps.Metrics.recordAdd(string(types.ConnectableProcessor))
	pg.deps.Logger.Debug("processor added",
		"group_id", pg.id, "processor_id", processor.Identifier(), "name", processor.ComponentName())
	return nil
}

// RemoveProcessor deletes a processor from the group. The processor must be
// stopped with no active threads; its connections are removed with it and
// must all have empty queues.
func (pg *ProcessGroup) RemoveProcessor(processor *component.ProcessorNode) error {
	pg.mu.Lock()
	err := pg.removeProcessorLocked(processor)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) removeProcessorLocked(processor *component.ProcessorNode) error {
	if _, ok := pg.processors[processor.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "RemoveProcessor", "membership check")
	}
	if processor.IsRunning() {
		return errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotStopped),
			"ProcessGroup", "RemoveProcessor", "stopped state check")
	}
	if err := pg.verifyActiveThreadsLocked(processor, "RemoveProcessor"); err != nil {
		return err
	}
	if err := pg.removeAttachedConnectionsLocked(processor, "RemoveProcessor"); err != nil {
		return err
	}

	for _, serviceID := range processor.ReferencedServiceIDs() {
		if service := pg.findControllerServiceLocked(serviceID); service != nil {
			service.RemoveReference(processor.Identifier())
		}
	}

	delete(pg.processors, processor.Identifier())
	processor.SetGroup(nil)
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnProcessorRemoved(processor)
	}
	pg.deps.Metrics.recordRemove(string(types.ConnectableProcessor))
	pg.deps.Logger.Info("processor removed",
		"group_id", pg.id, "processor_id", processor.Identifier())
	return nil
}

// removeAttachedConnectionsLocked verifies every connection touching the
// component can be deleted, then removes them all. Connections touching a
// processor or funnel are always owned by the component's own group, so no
// other group's lock is needed.
func (pg *ProcessGroup) removeAttachedConnectionsLocked(conn component.Connectable, operation string) error {
	attached := append(conn.Connections(), conn.IncomingConnections()...)
	seen := make(map[string]struct{}, len(attached))
	unique := attached[:0]
	for _, c := range attached {
		if _, ok := seen[c.Identifier()]; ok {
			continue
		}
		seen[c.Identifier()] = struct{}{}
		unique = append(unique, c)
	}

	for _, c := range unique {
		if err := c.VerifyCanDelete(); err != nil {
			return errors.WrapInvalid(err, "ProcessGroup", operation, "attached connection check")
		}
	}
	for _, c := range unique {
		pg.detachConnectionLocked(c)
	}
	return nil
}

// AddInputPort admits an input port. The root group only accepts public
// ports, and the port's name must be unique among the group's input ports.
func (pg *ProcessGroup) AddInputPort(port *component.Port) error {
	pg.mu.Lock()
	err := pg.addInputPortLocked(port)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) addInputPortLocked(port *component.Port) error {
	if err := pg.verifyPortLocked(port, pg.inputPorts, "AddInputPort"); err != nil {
		return err
	}

	port.SetGroup(pg)
	pg.inputPorts[port.Identifier()] = port
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnInputPortAdded(port)
	}
	pg.deps.Metrics.recordAdd(string(types.ConnectableInputPort))
	pg.deps.Logger.Debug("input port added",
		"group_id", pg.id, "port_id", port.Identifier(), "name", port.ComponentName())
	return nil
}

// AddOutputPort admits an output port under the same rules as AddInputPort
func (pg *ProcessGroup) AddOutputPort(port *component.Port) error {
	pg.mu.Lock()
	err := pg.addOutputPortLocked(port)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) addOutputPortLocked(port *component.Port) error {
	if err := pg.verifyPortLocked(port, pg.outputPorts, "AddOutputPort"); err != nil {
		return err
	}

	port.SetGroup(pg)
	pg.outputPorts[port.Identifier()] = port
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnOutputPortAdded(port)
	}
	pg.deps.Metrics.recordAdd(string(types.ConnectableOutputPort))
	pg.deps.Logger.Debug("output port added",
		"group_id", pg.id, "port_id", port.Identifier(), "name", port.ComponentName())
	return nil
}

func (pg *ProcessGroup) verifyPortLocked(port *component.Port, siblings map[string]*component.Port, operation string) error {
	if err := pg.verifyIDAvailableLocked(port.Identifier(), operation); err != nil {
		return err
	}
	if pg.parent.Load() == nil && port.PortType() != types.PortTypePublic {
		return errors.WrapInvalid(
			fmt.Errorf("port %s is not public", port.Identifier()),
			"ProcessGroup", operation, "root group port type check")
	}
	for _, sibling := range siblings {
		if sibling.ComponentName() == port.ComponentName() {
			return errors.WrapInvalid(
				fmt.Errorf("port name %q: %w", port.ComponentName(), errors.ErrDuplicateName),
				"ProcessGroup", operation, "port name uniqueness check")
		}
	}
	return nil
}

// RemoveInputPort deletes an input port. The port must be stopped, have no
// active threads and no attached connections; connections into a group's
// port are owned by the surrounding group and must be removed there first.
func (pg *ProcessGroup) RemoveInputPort(port *component.Port) error {
	pg.mu.Lock()
	err := pg.removePortLocked(port, pg.inputPorts, "RemoveInputPort")
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

// RemoveOutputPort deletes an output port under the same rules as
// RemoveInputPort
func (pg *ProcessGroup) RemoveOutputPort(port *component.Port) error {
	pg.mu.Lock()
	err := pg.removePortLocked(port, pg.outputPorts, "RemoveOutputPort")
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) removePortLocked(port *component.Port, members map[string]*component.Port, operation string) error {
	if _, ok := members[port.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", operation, "membership check")
	}
	if port.ScheduledState() == types.StateRunning {
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrNotStopped),
			"ProcessGroup", operation, "stopped state check")
	}
	if err := pg.verifyActiveThreadsLocked(port, operation); err != nil {
		return err
	}
	if len(port.Connections()) > 0 || len(port.IncomingConnections()) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrDanglingReference),
			"ProcessGroup", operation, "attached connection check")
	}

	delete(members, port.Identifier())
	port.SetGroup(nil)
	if pg.deps.FlowManager != nil {
		if port.IsInputPort() {
			pg.deps.FlowManager.OnInputPortRemoved(port)
		} else {
			pg.deps.FlowManager.OnOutputPortRemoved(port)
		}
	}
	pg.deps.Metrics.recordRemove(string(port.ConnectableType()))
	pg.deps.Logger.Info("port removed", "group_id", pg.id, "port_id", port.Identifier())
	return nil
}

// AddFunnel admits a funnel into the group
func (pg *ProcessGroup) AddFunnel(funnel *component.Funnel) error {
	pg.mu.Lock()
	err := pg.addFunnelLocked(funnel)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) addFunnelLocked(funnel *component.Funnel) error {
	if err := pg.verifyIDAvailableLocked(funnel.Identifier(), "AddFunnel"); err != nil {
		return err
	}

	funnel.SetGroup(pg)
	pg.funnels[funnel.Identifier()] = funnel
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnFunnelAdded(funnel)
	}
	pg.deps.Metrics.recordAdd(string(types.ConnectableFunnel))
	return nil
}

// RemoveFunnel deletes a funnel; its connections go with it and must all
// have empty queues
func (pg *ProcessGroup) RemoveFunnel(funnel *component.Funnel) error {
	pg.mu.Lock()
	err := pg.removeFunnelLocked(funnel)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) removeFunnelLocked(funnel *component.Funnel) error {
	if _, ok := pg.funnels[funnel.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("funnel %s: %w", funnel.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "RemoveFunnel", "membership check")
	}
	if err := pg.verifyActiveThreadsLocked(funnel, "RemoveFunnel"); err != nil {
		return err
	}
	if err := pg.removeAttachedConnectionsLocked(funnel, "RemoveFunnel"); err != nil {
		return err
	}

	delete(pg.funnels, funnel.Identifier())
	funnel.SetGroup(nil)
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnFunnelRemoved(funnel)
	}
	pg.deps.Metrics.recordRemove(string(types.ConnectableFunnel))
	return nil
}

// AddLabel admits a label into the group
func (pg *ProcessGroup) AddLabel(label *component.Label) error {
	pg.mu.Lock()
	err := pg.addLabelLocked(label)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) addLabelLocked(label *component.Label) error {
	if _, ok := pg.labels[label.Identifier()]; ok {
		return errors.WrapInvalid(
			fmt.Errorf("id %s: %w", label.Identifier(), errors.ErrDuplicateID),
			"ProcessGroup", "AddLabel", "identifier uniqueness check")
	}
	label.SetGroup(pg)
	pg.labels[label.Identifier()] = label
	pg.deps.Metrics.recordAdd("label")
	return nil
}

// RemoveLabel deletes a label from the group
func (pg *ProcessGroup) RemoveLabel(label *component.Label) error {
	pg.mu.Lock()
	err := pg.removeLabelLocked(label)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) removeLabelLocked(label *component.Label) error {
	if _, ok := pg.labels[label.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("label %s: %w", label.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "RemoveLabel", "membership check")
	}
	delete(pg.labels, label.Identifier())
	label.SetGroup(nil)
	pg.deps.Metrics.recordRemove("label")
	return nil
}

// AddTemplate stores a template on the group
func (pg *ProcessGroup) AddTemplate(template *component.Template) error {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	if _, ok := pg.templates[template.Identifier()]; ok {
		return errors.WrapInvalid(
			fmt.Errorf("id %s: %w", template.Identifier(), errors.ErrDuplicateID),
			"ProcessGroup", "AddTemplate", "identifier uniqueness check")
	}
	template.SetGroup(pg)
	pg.templates[template.Identifier()] = template
	return nil
}

// RemoveTemplate deletes a template from the group
func (pg *ProcessGroup) RemoveTemplate(template *component.Template) error {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	if _, ok := pg.templates[template.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("template %s: %w", template.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "RemoveTemplate", "membership check")
	}
	delete(pg.templates, template.Identifier())
	template.SetGroup(nil)
	return nil
}

// AddControllerService admits a controller service into the group
func (pg *ProcessGroup) AddControllerService(service *component.ControllerServiceNode) error {
	pg.mu.Lock()
	err := pg.addControllerServiceLocked(service)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) addControllerServiceLocked(service *component.ControllerServiceNode) error {
	if err := pg.verifyIDAvailableLocked(service.Identifier(), "AddControllerService"); err != nil {
		return err
	}

	service.SetGroup(pg)
	pg.controllerServices[service.Identifier()] = service
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnControllerServiceAdded(service)
	}
	pg.deps.Metrics.recordAdd("controller-service")
	pg.deps.Logger.Debug("controller service added",
		"group_id", pg.id, "service_id", service.Identifier(), "name", service.Name())
	return nil
}

// RemoveControllerService deletes a controller service. The service must be
// disabled and unreferenced.
func (pg *ProcessGroup) RemoveControllerService(service *component.ControllerServiceNode) error {
	pg.mu.Lock()
	err := pg.removeControllerServiceLocked(service)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) removeControllerServiceLocked(service *component.ControllerServiceNode) error {
	if _, ok := pg.controllerServices[service.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("controller service %s: %w", service.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "RemoveControllerService", "membership check")
	}
	if err := service.VerifyCanDelete(); err != nil {
		return err
	}

	delete(pg.controllerServices, service.Identifier())
	service.SetGroup(nil)
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnControllerServiceRemoved(service)
	}
	pg.deps.Metrics.recordRemove("controller-service")
	pg.deps.Logger.Info("controller service removed",
		"group_id", pg.id, "service_id", service.Identifier())
	return nil
}

// AddProcessGroup admits a child group. The child must not already have a
// parent.
func (pg *ProcessGroup) AddProcessGroup(child *ProcessGroup) error {
	pg.mu.Lock()
	err := pg.addProcessGroupLocked(child)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) addProcessGroupLocked(child *ProcessGroup) error {
	if err := pg.verifyIDAvailableLocked(child.Identifier(), "AddProcessGroup"); err != nil {
		return err
	}
	if child.parent.Load() != nil {
		return errors.WrapInvalid(
			fmt.Errorf("group %s already has a parent", child.Identifier()),
			"ProcessGroup", "AddProcessGroup", "orphan check")
	}

	child.parent.Store(pg)
	pg.groups[child.Identifier()] = child
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnProcessGroupAdded(child)
	}
	pg.deps.Metrics.recordAdd("process-group")
	return nil
}

// RemoveProcessGroup deletes a child group and everything it transitively
// owns. The child's entire subtree must pass the deletability checks first.
func (pg *ProcessGroup) RemoveProcessGroup(child *ProcessGroup) error {
	pg.mu.Lock()
	err := pg.removeProcessGroupLocked(child)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) removeProcessGroupLocked(child *ProcessGroup) error {
	if _, ok := pg.groups[child.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("group %s: %w", child.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "RemoveProcessGroup", "membership check")
	}
	if err := child.VerifyCanDelete(false); err != nil {
		return err
	}

	delete(pg.groups, child.Identifier())
	child.parent.Store(nil)
	child.deregisterSubtree()
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnProcessGroupRemoved(child)
	}
	pg.deps.Metrics.recordRemove("process-group")
	pg.deps.Logger.Info("process group removed", "group_id", pg.id, "child_id", child.Identifier())
	return nil
}

// deregisterSubtree drops every component in this group and its descendants
// from the flow-wide index after the group has been detached from the tree
func (pg *ProcessGroup) deregisterSubtree() {
	fm := pg.deps.FlowManager
	if fm == nil {
		return
	}

	pg.mu.RLock()
	defer pg.mu.RUnlock()

	for _, processor := range pg.processors {
		fm.OnProcessorRemoved(processor)
	}
	for _, port := range pg.inputPorts {
		fm.OnInputPortRemoved(port)
	}
	for _, port := range pg.outputPorts {
		fm.OnOutputPortRemoved(port)
	}
	for _, funnel := range pg.funnels {
		fm.OnFunnelRemoved(funnel)
	}
	for _, conn := range pg.connections {
		fm.OnConnectionRemoved(conn)
	}
	for _, service := range pg.controllerServices {
		fm.OnControllerServiceRemoved(service)
	}
	for _, group := range pg.groups {
		fm.OnProcessGroupRemoved(group)
		group.deregisterSubtree()
	}
}

// SetProcessorServiceReferences replaces a processor's controller-service
// references and keeps the services' reverse index in step, all under the
// group's lock so no observer sees a dangling half-updated reference.
func (pg *ProcessGroup) SetProcessorServiceReferences(processor *component.ProcessorNode, serviceIDs []string) error {
	pg.mu.Lock()
	err := pg.setProcessorServiceReferencesLocked(processor, serviceIDs)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) setProcessorServiceReferencesLocked(processor *component.ProcessorNode, serviceIDs []string) error {
	if _, ok := pg.processors[processor.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "SetProcessorServiceReferences", "membership check")
	}

	resolved := make([]*component.ControllerServiceNode, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		service := pg.findControllerServiceLocked(id)
		if service == nil {
			return errors.WrapInvalid(
				fmt.Errorf("controller service %s: %w", id, errors.ErrDanglingReference),
				"ProcessGroup", "SetProcessorServiceReferences", "service resolution")
		}
		resolved = append(resolved, service)
	}

	for _, oldID := range processor.ReferencedServiceIDs() {
		if service := pg.findControllerServiceLocked(oldID); service != nil {
			service.RemoveReference(processor.Identifier())
		}
	}
	processor.SetReferencedServiceIDs(serviceIDs)
	for _, service := range resolved {
		service.AddReference(processor.Identifier())
	}
	return nil
}

// findControllerServiceLocked resolves a service visible to this group: one
// of its own or one owned by any ancestor. Caller holds pg.mu; ancestor maps
// are read under their own locks.
func (pg *ProcessGroup) findControllerServiceLocked(id string) *component.ControllerServiceNode {
	if service, ok := pg.controllerServices[id]; ok {
		return service
	}
	for ancestor := pg.Parent(); ancestor != nil; ancestor = ancestor.Parent() {
		ancestor.mu.RLock()
		service, ok := ancestor.controllerServices[id]
		ancestor.mu.RUnlock()
		if ok {
			return service
		}
	}
	return nil
}

// Processors returns the group's processors ordered by ID
func (pg *ProcessGroup) Processors() []*component.ProcessorNode {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	result := make([]*component.ProcessorNode, 0, len(pg.processors))
	for _, p := range pg.processors {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier() < result[j].Identifier() })
	return result
}

// Processor resolves one of the group's processors by ID, nil when absent
func (pg *ProcessGroup) Processor(id string) *component.ProcessorNode {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.processors[id]
}

// InputPorts returns the group's input ports ordered by ID
func (pg *ProcessGroup) InputPorts() []*component.Port {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return sortedPorts(pg.inputPorts)
}

// InputPort resolves one of the group's input ports by ID, nil when absent
func (pg *ProcessGroup) InputPort(id string) *component.Port {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.inputPorts[id]
}

// InputPortByName resolves one of the group's input ports by name, nil when
// absent
func (pg *ProcessGroup) InputPortByName(name string) *component.Port {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return portByName(pg.inputPorts, name)
}

// OutputPorts returns the group's output ports ordered by ID
func (pg *ProcessGroup) OutputPorts() []*component.Port {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return sortedPorts(pg.outputPorts)
}

// OutputPort resolves one of the group's output ports by ID, nil when absent
func (pg *ProcessGroup) OutputPort(id string) *component.Port {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.outputPorts[id]
}

// OutputPortByName resolves one of the group's output ports by name, nil
// when absent
func (pg *ProcessGroup) OutputPortByName(name string) *component.Port {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return portByName(pg.outputPorts, name)
}

// Funnels returns the group's funnels ordered by ID
func (pg *ProcessGroup) Funnels() []*component.Funnel {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	result := make([]*component.Funnel, 0, len(pg.funnels))
	for _, f := range pg.funnels {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier() < result[j].Identifier() })
	return result
}

// Funnel resolves one of the group's funnels by ID, nil when absent
func (pg *ProcessGroup) Funnel(id string) *component.Funnel {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.funnels[id]
}

// Connections returns the connections the group owns ordered by ID
func (pg *ProcessGroup) Connections() []*component.Connection {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	result := make([]*component.Connection, 0, len(pg.connections))
	for _, c := range pg.connections {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier() < result[j].Identifier() })
	return result
}

// Connection resolves one of the group's connections by ID, nil when absent
func (pg *ProcessGroup) Connection(id string) *component.Connection {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.connections[id]
}

// Labels returns the group's labels ordered by ID
func (pg *ProcessGroup) Labels() []*component.Label {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	result := make([]*component.Label, 0, len(pg.labels))
	for _, l := range pg.labels {
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier() < result[j].Identifier() })
	return result
}

// Label resolves one of the group's labels by ID, nil when absent
func (pg *ProcessGroup) Label(id string) *component.Label {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.labels[id]
}

// Templates returns the group's templates ordered by ID
func (pg *ProcessGroup) Templates() []*component.Template {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	result := make([]*component.Template, 0, len(pg.templates))
	for _, t := range pg.templates {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier() < result[j].Identifier() })
	return result
}

// Template resolves one of the group's templates by ID, nil when absent
func (pg *ProcessGroup) Template(id string) *component.Template {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.templates[id]
}

// ControllerServices returns the group's controller services ordered by ID
func (pg *ProcessGroup) ControllerServices() []*component.ControllerServiceNode {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	result := make([]*component.ControllerServiceNode, 0, len(pg.controllerServices))
	for _, s := range pg.controllerServices {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier() < result[j].Identifier() })
	return result
}

// ControllerService resolves one of the group's controller services by ID,
// nil when absent
func (pg *ProcessGroup) ControllerService(id string) *component.ControllerServiceNode {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.controllerServices[id]
}

// ProcessGroups returns the group's direct child groups ordered by ID
func (pg *ProcessGroup) ProcessGroups() []*ProcessGroup {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	result := make([]*ProcessGroup, 0, len(pg.groups))
	for _, g := range pg.groups {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier() < result[j].Identifier() })
	return result
}

// ProcessGroup resolves one of the group's direct children by ID, nil when
// absent
func (pg *ProcessGroup) ProcessGroup(id string) *ProcessGroup {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.groups[id]
}

// Connectable resolves any connection-capable member of this group by ID:
// processor, port or funnel. Returns nil when the ID names no such member.
func (pg *ProcessGroup) Connectable(id string) component.Connectable {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.connectableLocked(id)
}

func (pg *ProcessGroup) connectableLocked(id string) component.Connectable {
	if p, ok := pg.processors[id]; ok {
		return p
	}
	if p, ok := pg.inputPorts[id]; ok {
		return p
	}
	if p, ok := pg.outputPorts[id]; ok {
		return p
	}
	if f, ok := pg.funnels[id]; ok {
		return f
	}
	return nil
}

// IsEmpty reports whether the group owns no components at all
func (pg *ProcessGroup) IsEmpty() bool {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return len(pg.processors) == 0 &&
		len(pg.inputPorts) == 0 &&
		len(pg.outputPorts) == 0 &&
		len(pg.funnels) == 0 &&
		len(pg.connections) == 0 &&
		len(pg.labels) == 0 &&
		len(pg.templates) == 0 &&
		len(pg.controllerServices) == 0 &&
		len(pg.groups) == 0
}

func sortedPorts(m map[string]*component.Port) []*component.Port {
	result := make([]*component.Port, 0, len(m))
	for _, p := range m {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier() < result[j].Identifier() })
	return result
}

func portByName(m map[string]*component.Port, name string) *component.Port {
	for _, p := range m {
		if p.ComponentName() == name {
			return p
		}
	}
	return nil
}
