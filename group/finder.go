package group

import (
	"github.com/c360/flowgroup/component"
)

// FindProcessor resolves a processor anywhere in this group's subtree. The
// flow-wide index answers in constant time; the hit is then checked for
// ownership so a caller scoped to a subtree cannot see past it.
func (pg *ProcessGroup) FindProcessor(id string) *component.ProcessorNode {
	if fm := pg.deps.FlowManager; fm != nil {
		processor := fm.Processor(id)
		if processor == nil || !pg.isOwner(processor.Group()) {
			return nil
		}
		return processor
	}

	if processor := pg.Processor(id); processor != nil {
		return processor
	}
	for _, child := range pg.ProcessGroups() {
		if processor := child.FindProcessor(id); processor != nil {
			return processor
		}
	}
	return nil
}

// FindInputPort resolves an input port anywhere in this group's subtree
func (pg *ProcessGroup) FindInputPort(id string) *component.Port {
	if fm := pg.deps.FlowManager; fm != nil {
		port := fm.InputPort(id)
		if port == nil || !pg.isOwner(port.Group()) {
			return nil
		}
		return port
	}

	if port := pg.InputPort(id); port != nil {
		return port
	}
	for _, child := range pg.ProcessGroups() {
		if port := child.FindInputPort(id); port != nil {
			return port
		}
	}
	return nil
}

// FindOutputPort resolves an output port anywhere in this group's subtree
func (pg *ProcessGroup) FindOutputPort(id string) *component.Port {
	if fm := pg.deps.FlowManager; fm != nil {
		port := fm.OutputPort(id)
		if port == nil || !pg.isOwner(port.Group()) {
			return nil
		}
		return port
	}

	if port := pg.OutputPort(id); port != nil {
		return port
	}
	for _, child := range pg.ProcessGroups() {
		if port := child.FindOutputPort(id); port != nil {
			return port
		}
	}
	return nil
}

// FindFunnel resolves a funnel anywhere in this group's subtree
func (pg *ProcessGroup) FindFunnel(id string) *component.Funnel {
	if fm := pg.deps.FlowManager; fm != nil {
		funnel := fm.Funnel(id)
		if funnel == nil || !pg.isOwner(funnel.Group()) {
			return nil
		}
		return funnel
	}

	if funnel := pg.Funnel(id); funnel != nil {
		return funnel
	}
	for _, child := range pg.ProcessGroups() {
		if funnel := child.FindFunnel(id); funnel != nil {
			return funnel
		}
	}
	return nil
}

// FindConnection resolves a connection anywhere in this group's subtree
func (pg *ProcessGroup) FindConnection(id string) *component.Connection {
	if fm := pg.deps.FlowManager; fm != nil {
		conn := fm.Connection(id)
		if conn == nil || !pg.isOwner(conn.Group()) {
			return nil
		}
		return conn
	}

	if conn := pg.Connection(id); conn != nil {
		return conn
	}
	for _, child := range pg.ProcessGroups() {
		if conn := child.FindConnection(id); conn != nil {
			return conn
		}
	}
	return nil
}

// FindProcessGroup resolves a group in this group's subtree, including this
// group itself
func (pg *ProcessGroup) FindProcessGroup(id string) *ProcessGroup {
	if pg.id == id {
		return pg
	}

	if fm := pg.deps.FlowManager; fm != nil {
		found := fm.ProcessGroup(id)
		if found == nil || !pg.isOwner(found) {
			return nil
		}
		concrete, ok := found.(*ProcessGroup)
		if !ok {
			return nil
		}
		return concrete
	}

	for _, child := range pg.ProcessGroups() {
		if found := child.FindProcessGroup(id); found != nil {
			return found
		}
	}
	return nil
}

// FindControllerService resolves a controller service anywhere in this
// group's subtree
func (pg *ProcessGroup) FindControllerService(id string) *component.ControllerServiceNode {
	if fm := pg.deps.FlowManager; fm != nil {
		service := fm.ControllerService(id)
		if service == nil || !pg.isOwner(service.Group()) {
			return nil
		}
		return service
	}

	if service := pg.ControllerService(id); service != nil {
		return service
	}
	for _, child := range pg.ProcessGroups() {
		if service := child.FindControllerService(id); service != nil {
			return service
		}
	}
	return nil
}

// FindLabel resolves a label anywhere in this group's subtree. Labels are
// not indexed flow-wide, so this is always a tree walk.
func (pg *ProcessGroup) FindLabel(id string) *component.Label {
	if label := pg.Label(id); label != nil {
		return label
	}
	for _, child := range pg.ProcessGroups() {
		if label := child.FindLabel(id); label != nil {
			return label
		}
	}
	return nil
}

// FindAllProcessors returns every processor in this group's subtree. The
// subtree walks use an explicit stack so arbitrarily deep trees cannot
// overflow, snapshotting each group's children before descending.
func (pg *ProcessGroup) FindAllProcessors() []*component.ProcessorNode {
	var result []*component.ProcessorNode
	stack := []*ProcessGroup{pg}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, current.Processors()...)
		stack = append(stack, current.ProcessGroups()...)
	}
	return result
}

// FindAllConnections returns every connection in this group's subtree
func (pg *ProcessGroup) FindAllConnections() []*component.Connection {
	var result []*component.Connection
	stack := []*ProcessGroup{pg}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, current.Connections()...)
		stack = append(stack, current.ProcessGroups()...)
	}
	return result
}

// FindAllProcessGroups returns every group in this group's subtree,
// excluding this group itself
func (pg *ProcessGroup) FindAllProcessGroups() []*ProcessGroup {
	var result []*ProcessGroup
	stack := pg.ProcessGroups()
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, current)
		stack = append(stack, current.ProcessGroups()...)
	}
	return result
}

// findAllVersionedGroups returns every group in the subtree that is under
// version control, including this group itself when bound
func (pg *ProcessGroup) findAllVersionedGroups() []*ProcessGroup {
	var result []*ProcessGroup
	stack := []*ProcessGroup{pg}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current.VersionControlInformation() != nil {
			result = append(result, current)
		}
		stack = append(stack, current.ProcessGroups()...)
	}
	return result
}
