package group

import (
	"context"
	"fmt"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/types"
)

// completedFuture returns an already-resolved lifecycle future
func completedFuture(err error) <-chan error {
	ch := make(chan error, 1)
	if err != nil {
		ch <- err
	}
	close(ch)
	return ch
}

// StartProcessor schedules a processor of this group to run. Starting a
// disabled processor is an error; starting one already running resolves
// immediately. The returned channel delivers the scheduling outcome.
//
// The read lock is held through the scheduler hand-off so the processor
// cannot be removed between the membership check and scheduling.
func (pg *ProcessGroup) StartProcessor(ctx context.Context, processor *component.ProcessorNode) (<-chan error, error) {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	if _, member := pg.processors[processor.Identifier()]; !member {
		err := errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "StartProcessor", "membership check")
		pg.deps.Metrics.recordLifecycle("start-processor", err)
		return nil, err
	}

	switch processor.ScheduledState() {
	case types.StateDisabled:
		err := errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrDisabled),
			"ProcessGroup", "StartProcessor", "enabled state check")
		pg.deps.Metrics.recordLifecycle("start-processor", err)
		return nil, err
	case types.StateRunning:
		return completedFuture(nil), nil
	}

	pg.deps.Metrics.recordLifecycle("start-processor", nil)
	return pg.deps.Scheduler.StartProcessor(ctx, processor), nil
}

// RunProcessorOnce schedules a single invocation of a stopped processor
func (pg *ProcessGroup) RunProcessorOnce(ctx context.Context, processor *component.ProcessorNode) (<-chan error, error) {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	if _, member := pg.processors[processor.Identifier()]; !member {
		return nil, errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "RunProcessorOnce", "membership check")
	}

	switch processor.ScheduledState() {
	case types.StateDisabled:
		return nil, errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrDisabled),
			"ProcessGroup", "RunProcessorOnce", "enabled state check")
	case types.StateRunning, types.StateRunOnce:
		return nil, errors.WrapInvalid(
			fmt.Errorf("processor %s is already running", processor.Identifier()),
			"ProcessGroup", "RunProcessorOnce", "stopped state check")
	}

	pg.deps.Metrics.recordLifecycle("run-processor-once", nil)
	return pg.deps.Scheduler.RunProcessorOnce(ctx, processor), nil
}

// StopProcessor unschedules a processor of this group. Stopping a processor
// that is not running resolves immediately; the returned channel completes
// when the last active thread finishes.
func (pg *ProcessGroup) StopProcessor(processor *component.ProcessorNode) (<-chan error, error) {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	if _, member := pg.processors[processor.Identifier()]; !member {
		return nil, errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "StopProcessor", "membership check")
	}

	if !processor.IsRunning() {
		return completedFuture(nil), nil
	}

	pg.deps.Metrics.recordLifecycle("stop-processor", nil)
	return pg.deps.Scheduler.StopProcessor(processor), nil
}

// TerminateProcessor forcibly interrupts the lingering threads of a
// processor that has been stopped but whose threads have not completed.
// Terminating a processor still scheduled to run is an error.
func (pg *ProcessGroup) TerminateProcessor(processor *component.ProcessorNode) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	if _, member := pg.processors[processor.Identifier()]; !member {
		return errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "TerminateProcessor", "membership check")
	}

	state := processor.ScheduledState()
	if state != types.StateStopped && state != types.StateRunOnce {
		return errors.WrapInvalid(
			fmt.Errorf("processor %s is in state %s", processor.Identifier(), state),
			"ProcessGroup", "TerminateProcessor", "stopped state check")
	}

	err := pg.deps.Scheduler.TerminateProcessor(processor)
	pg.deps.Metrics.recordLifecycle("terminate-processor", err)
	if err != nil {
		return errors.Wrap(err, "ProcessGroup", "TerminateProcessor", "thread termination")
	}
	return nil
}

// EnableProcessor moves a disabled processor back to the stopped state.
// Enabling a processor that is not disabled is a no-op.
func (pg *ProcessGroup) EnableProcessor(processor *component.ProcessorNode) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	if _, member := pg.processors[processor.Identifier()]; !member {
		return errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "EnableProcessor", "membership check")
	}
	if processor.ScheduledState() != types.StateDisabled {
		return nil
	}
	pg.deps.Scheduler.EnableProcessor(processor)
	pg.deps.Metrics.recordLifecycle("enable-processor", nil)
	return nil
}

// DisableProcessor moves a stopped processor to the disabled state.
// Disabling a running processor is an error; disabling one already disabled
// is a no-op.
func (pg *ProcessGroup) DisableProcessor(processor *component.ProcessorNode) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	if _, member := pg.processors[processor.Identifier()]; !member {
		return errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "DisableProcessor", "membership check")
	}

	switch processor.ScheduledState() {
	case types.StateDisabled:
		return nil
	case types.StateRunning, types.StateRunOnce:
		return errors.WrapInvalid(
			fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotStopped),
			"ProcessGroup", "DisableProcessor", "stopped state check")
	}
	pg.deps.Scheduler.DisableProcessor(processor)
	pg.deps.Metrics.recordLifecycle("disable-processor", nil)
	return nil
}

// StartInputPort schedules an input port of this group. Starting a running
// port is a no-op; starting a disabled one is an error. As with processors,
// the read lock is held through the scheduler hand-off.
func (pg *ProcessGroup) StartInputPort(port *component.Port) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	_, member := pg.inputPorts[port.Identifier()]
	return pg.startPortLocked(port, member, "StartInputPort")
}

// StartOutputPort schedules an output port of this group under the same
// rules as StartInputPort
func (pg *ProcessGroup) StartOutputPort(port *component.Port) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	_, member := pg.outputPorts[port.Identifier()]
	return pg.startPortLocked(port, member, "StartOutputPort")
}

func (pg *ProcessGroup) startPortLocked(port *component.Port, member bool, operation string) error {
	if !member {
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", operation, "membership check")
	}

	switch port.ScheduledState() {
	case types.StateRunning:
		return nil
	case types.StateDisabled:
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrDisabled),
			"ProcessGroup", operation, "enabled state check")
	}

	if err := pg.deps.Scheduler.StartPort(port); err != nil {
		pg.deps.Metrics.recordLifecycle("start-port", err)
		return errors.Wrap(err, "ProcessGroup", operation, "port scheduling")
	}
	pg.deps.Metrics.recordLifecycle("start-port", nil)
	return nil
}

// StopInputPort unschedules an input port; stopping a port that is not
// running is a no-op
func (pg *ProcessGroup) StopInputPort(port *component.Port) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	_, member := pg.inputPorts[port.Identifier()]
	return pg.stopPortLocked(port, member, "StopInputPort")
}

// StopOutputPort unschedules an output port under the same rules as
// StopInputPort
func (pg *ProcessGroup) StopOutputPort(port *component.Port) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	_, member := pg.outputPorts[port.Identifier()]
	return pg.stopPortLocked(port, member, "StopOutputPort")
}

func (pg *ProcessGroup) stopPortLocked(port *component.Port, member bool, operation string) error {
	if !member {
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", operation, "membership check")
	}
	if port.ScheduledState() != types.StateRunning {
		return nil
	}

	if err := pg.deps.Scheduler.StopPort(port); err != nil {
		pg.deps.Metrics.recordLifecycle("stop-port", err)
		return errors.Wrap(err, "ProcessGroup", operation, "port unscheduling")
	}
	pg.deps.Metrics.recordLifecycle("stop-port", nil)
	return nil
}

// EnableInputPort moves a disabled input port back to the stopped state
func (pg *ProcessGroup) EnableInputPort(port *component.Port) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	_, member := pg.inputPorts[port.Identifier()]
	return pg.enablePortLocked(port, member, "EnableInputPort")
}

// EnableOutputPort moves a disabled output port back to the stopped state
func (pg *ProcessGroup) EnableOutputPort(port *component.Port) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	_, member := pg.outputPorts[port.Identifier()]
	return pg.enablePortLocked(port, member, "EnableOutputPort")
}

func (pg *ProcessGroup) enablePortLocked(port *component.Port, member bool, operation string) error {
	if !member {
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", operation, "membership check")
	}
	if port.ScheduledState() != types.StateDisabled {
		return nil
	}
	pg.deps.Scheduler.EnablePort(port)
	return nil
}

// DisableInputPort moves a stopped input port to the disabled state
func (pg *ProcessGroup) DisableInputPort(port *component.Port) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	_, member := pg.inputPorts[port.Identifier()]
	return pg.disablePortLocked(port, member, "DisableInputPort")
}

// DisableOutputPort moves a stopped output port to the disabled state
func (pg *ProcessGroup) DisableOutputPort(port *component.Port) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	_, member := pg.outputPorts[port.Identifier()]
	return pg.disablePortLocked(port, member, "DisableOutputPort")
}

func (pg *ProcessGroup) disablePortLocked(port *component.Port, member bool, operation string) error {
	if !member {
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", operation, "membership check")
	}

	switch port.ScheduledState() {
	case types.StateDisabled:
		return nil
	case types.StateRunning:
		return errors.WrapInvalid(
			fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrNotStopped),
			"ProcessGroup", operation, "stopped state check")
	}
	pg.deps.Scheduler.DisablePort(port)
	return nil
}

// StartFunnel schedules a funnel of this group
func (pg *ProcessGroup) StartFunnel(funnel *component.Funnel) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	if _, member := pg.funnels[funnel.Identifier()]; !member {
		return errors.WrapInvalid(
			fmt.Errorf("funnel %s: %w", funnel.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "StartFunnel", "membership check")
	}
	if funnel.ScheduledState() == types.StateRunning {
		return nil
	}
	if err := pg.deps.Scheduler.StartFunnel(funnel); err != nil {
		return errors.Wrap(err, "ProcessGroup", "StartFunnel", "funnel scheduling")
	}
	return nil
}

// StopFunnel unschedules a funnel of this group
func (pg *ProcessGroup) StopFunnel(funnel *component.Funnel) error {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	if _, member := pg.funnels[funnel.Identifier()]; !member {
		return errors.WrapInvalid(
			fmt.Errorf("funnel %s: %w", funnel.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "StopFunnel", "membership check")
	}
	if funnel.ScheduledState() != types.StateRunning {
		return nil
	}
	if err := pg.deps.Scheduler.StopFunnel(funnel); err != nil {
		return errors.Wrap(err, "ProcessGroup", "StopFunnel", "funnel unscheduling")
	}
	return nil
}

// StartProcessing starts everything startable in the group and its
// descendants: funnels, enabled ports and enabled processors, then child
// groups recursively. Individual failures are logged and do not abort the
// sweep; disabled components are skipped.
func (pg *ProcessGroup) StartProcessing(ctx context.Context) {
	pg.mu.RLock()
	processors := make([]*component.ProcessorNode, 0, len(pg.processors))
	for _, p := range pg.processors {
		processors = append(processors, p)
	}
	inputPorts := sortedPorts(pg.inputPorts)
	outputPorts := sortedPorts(pg.outputPorts)
	funnels := make([]*component.Funnel, 0, len(pg.funnels))
	for _, f := range pg.funnels {
		funnels = append(funnels, f)
	}
	children := make([]*ProcessGroup, 0, len(pg.groups))
	for _, child := range pg.groups {
		children = append(children, child)
	}
	pg.mu.RUnlock()

	for _, funnel := range funnels {
		if err := pg.StartFunnel(funnel); err != nil {
			pg.deps.Logger.Warn("failed to start funnel",
				"group_id", pg.id, "funnel_id", funnel.Identifier(), "error", err)
		}
	}
	for _, port := range inputPorts {
		if port.ScheduledState() == types.StateDisabled {
			continue
		}
		if err := pg.StartInputPort(port); err != nil {
			pg.deps.Logger.Warn("failed to start input port",
				"group_id", pg.id, "port_id", port.Identifier(), "error", err)
		}
	}
	for _, port := range outputPorts {
		if port.ScheduledState() == types.StateDisabled {
			continue
		}
		if err := pg.StartOutputPort(port); err != nil {
			pg.deps.Logger.Warn("failed to start output port",
				"group_id", pg.id, "port_id", port.Identifier(), "error", err)
		}
	}
	for _, processor := range processors {
		if processor.ScheduledState() == types.StateDisabled {
			continue
		}
		if _, err := pg.StartProcessor(ctx, processor); err != nil {
			pg.deps.Logger.Warn("failed to start processor",
				"group_id", pg.id, "processor_id", processor.Identifier(), "error", err)
		}
	}
	for _, child := range children {
		child.StartProcessing(ctx)
	}

	pg.deps.Logger.Info("process group started", "group_id", pg.id)
}

// StopProcessing stops everything running in the group and its descendants.
// Individual failures are logged and do not abort the sweep.
func (pg *ProcessGroup) StopProcessing() {
	pg.mu.RLock()
	processors := make([]*component.ProcessorNode, 0, len(pg.processors))
	for _, p := range pg.processors {
		processors = append(processors, p)
	}
	inputPorts := sortedPorts(pg.inputPorts)
	outputPorts := sortedPorts(pg.outputPorts)
	funnels := make([]*component.Funnel, 0, len(pg.funnels))
	for _, f := range pg.funnels {
		funnels = append(funnels, f)
	}
	children := make([]*ProcessGroup, 0, len(pg.groups))
	for _, child := range pg.groups {
		children = append(children, child)
	}
	pg.mu.RUnlock()

	for _, processor := range processors {
		if _, err := pg.StopProcessor(processor); err != nil {
			pg.deps.Logger.Warn("failed to stop processor",
				"group_id", pg.id, "processor_id", processor.Identifier(), "error", err)
		}
	}
	for _, port := range inputPorts {
		if err := pg.StopInputPort(port); err != nil {
			pg.deps.Logger.Warn("failed to stop input port",
				"group_id", pg.id, "port_id", port.Identifier(), "error", err)
		}
	}
	for _, port := range outputPorts {
		if err := pg.StopOutputPort(port); err != nil {
			pg.deps.Logger.Warn("failed to stop output port",
				"group_id", pg.id, "port_id", port.Identifier(), "error", err)
		}
	}
	for _, funnel := range funnels {
		if err := pg.StopFunnel(funnel); err != nil {
			pg.deps.Logger.Warn("failed to stop funnel",
				"group_id", pg.id, "funnel_id", funnel.Identifier(), "error", err)
		}
	}
	for _, child := range children {
		child.StopProcessing()
	}

	pg.deps.Logger.Info("process group stopped", "group_id", pg.id)
}

// EnableAllControllerServices enables every controller service of the group
// through the service provider. Failures are logged and the sweep continues.
func (pg *ProcessGroup) EnableAllControllerServices() {
	for _, service := range pg.ControllerServices() {
		if service.State() == component.ServiceEnabled {
			continue
		}
		if err := pg.deps.ServiceProvider.EnableControllerService(service); err != nil {
			pg.deps.Logger.Warn("failed to enable controller service",
				"group_id", pg.id, "service_id", service.Identifier(), "error", err)
		}
	}
}

// DisableAllControllerServices disables every controller service of the
// group through the service provider. Failures are logged and the sweep
// continues.
func (pg *ProcessGroup) DisableAllControllerServices() {
	for _, service := range pg.ControllerServices() {
		if service.State() == component.ServiceDisabled {
			continue
		}
		if err := pg.deps.ServiceProvider.DisableControllerService(service); err != nil {
			pg.deps.Logger.Warn("failed to disable controller service",
				"group_id", pg.id, "service_id", service.Identifier(), "error", err)
		}
	}
}
