package component

import "context"

// Scheduler is the external collaborator holding all scheduling authority.
// The group model only gatekeeps state transitions; every actual start,
// stop or termination is delegated here. Start and stop operations are
// asynchronous: the returned channel delivers exactly one value (nil on
// success) and is closed afterwards.
type Scheduler interface {
	// StartProcessor schedules a processor to run
	StartProcessor(ctx context.Context, processor *ProcessorNode) <-chan error
	// RunProcessorOnce schedules a single invocation and leaves the
	// processor in the transient run-once state until it completes
	RunProcessorOnce(ctx context.Context, processor *ProcessorNode) <-chan error
	// StopProcessor unschedules a processor; the channel completes when the
	// last active thread has finished
	StopProcessor(processor *ProcessorNode) <-chan error
	// TerminateProcessor forcibly interrupts a stopped processor's
	// lingering execution threads
	TerminateProcessor(processor *ProcessorNode) error

	// StartPort schedules a port
	StartPort(port *Port) error
	// StopPort unschedules a port
	StopPort(port *Port) error
	// StartFunnel schedules a funnel
	StartFunnel(funnel *Funnel) error
	// StopFunnel unschedules a funnel
	StopFunnel(funnel *Funnel) error

	// EnableProcessor moves a disabled processor to the stopped state
	EnableProcessor(processor *ProcessorNode)
	// DisableProcessor moves a stopped processor to the disabled state
	DisableProcessor(processor *ProcessorNode)
	// EnablePort moves a disabled port to the stopped state
	EnablePort(port *Port)
	// DisablePort moves a stopped port to the disabled state
	DisablePort(port *Port)

	// SubmitFrameworkTask runs a framework-internal task on the scheduler's
	// worker pool
	SubmitFrameworkTask(task func())
	// ActiveThreadCount returns the number of threads currently executing
	// on behalf of the component
	ActiveThreadCount(connectable Connectable) int
}

// FlowManager is the process-wide component index, constructed once at
// startup and injected into every group. Groups notify it on every add and
// remove; find operations use its global lookups and then verify ownership.
type FlowManager interface {
	OnProcessorAdded(processor *ProcessorNode)
	OnProcessorRemoved(processor *ProcessorNode)
	OnInputPortAdded(port *Port)
	OnInputPortRemoved(port *Port)
	OnOutputPortAdded(port *Port)
	OnOutputPortRemoved(port *Port)
	OnFunnelAdded(funnel *Funnel)
	OnFunnelRemoved(funnel *Funnel)
	OnConnectionAdded(conn *Connection)
	OnConnectionRemoved(conn *Connection)
	OnControllerServiceAdded(service *ControllerServiceNode)
	OnControllerServiceRemoved(service *ControllerServiceNode)
	OnProcessGroupAdded(group FlowGroup)
	OnProcessGroupRemoved(group FlowGroup)

	Processor(id string) *ProcessorNode
	InputPort(id string) *Port
	OutputPort(id string) *Port
	Funnel(id string) *Funnel
	Connection(id string) *Connection
	ControllerService(id string) *ControllerServiceNode
	ProcessGroup(id string) FlowGroup
}
