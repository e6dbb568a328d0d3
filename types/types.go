// Package types defines the shared value types of the flowgroup model:
// component kinds, lifecycle states, dataflow policies and canvas geometry.
// These types carry no behavior beyond validation and string conversion so
// that every package can depend on them without cycles.
package types

// Position represents canvas coordinates for a component
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScheduledState is the lifecycle state of a schedulable component.
type ScheduledState int

const (
	// StateStopped indicates the component is not scheduled to run
	StateStopped ScheduledState = iota
	// StateRunning indicates the component is scheduled to run
	StateRunning
	// StateDisabled indicates the component may not be started until enabled
	StateDisabled
	// StateRunOnce indicates a transient single-invocation run that is terminating
	StateRunOnce
)

// String returns a string representation of the scheduled state
func (s ScheduledState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateDisabled:
		return "disabled"
	case StateRunOnce:
		return "run-once"
	default:
		return "unknown"
	}
}

// ConnectableType identifies the kind of a connection endpoint. The set is
// closed: kind-specific behavior is resolved by switching on this tag rather
// than through open type hierarchies.
type ConnectableType string

const (
	// ConnectableProcessor is a processor node
	ConnectableProcessor ConnectableType = "processor"
	// ConnectableInputPort is a group input port
	ConnectableInputPort ConnectableType = "input-port"
	// ConnectableOutputPort is a group output port
	ConnectableOutputPort ConnectableType = "output-port"
	// ConnectableFunnel is a funnel merging multiple connections
	ConnectableFunnel ConnectableType = "funnel"
)

// IsPort reports whether the connectable type is an input or output port
func (t ConnectableType) IsPort() bool {
	return t == ConnectableInputPort || t == ConnectableOutputPort
}

// PortType distinguishes ports reachable only within the flow from ports
// reachable from outside the process boundary. The root group may only
// contain public ports.
type PortType string

const (
	// PortTypeLocal is a port connecting a child group to its parent
	PortTypeLocal PortType = "local"
	// PortTypePublic is a port reachable from outside the flow
	PortTypePublic PortType = "public"
)

// FlowFileConcurrency controls how many FlowFiles may traverse a process
// group concurrently.
type FlowFileConcurrency string

const (
	// ConcurrencyUnbounded places no limit on concurrent FlowFiles
	ConcurrencyUnbounded FlowFileConcurrency = "unbounded"
	// ConcurrencySingleFlowFilePerNode admits one FlowFile at a time
	ConcurrencySingleFlowFilePerNode FlowFileConcurrency = "single-flowfile-per-node"
	// ConcurrencySingleBatchPerNode admits one batch of FlowFiles at a time
	ConcurrencySingleBatchPerNode FlowFileConcurrency = "single-batch-per-node"
)

// Valid reports whether the concurrency mode is one of the known values
func (c FlowFileConcurrency) Valid() bool {
	switch c {
	case ConcurrencyUnbounded, ConcurrencySingleFlowFilePerNode, ConcurrencySingleBatchPerNode:
		return true
	default:
		return false
	}
}

// FlowFileOutboundPolicy controls when output ports release FlowFiles.
type FlowFileOutboundPolicy string

const (
	// StreamWhenAvailable releases FlowFiles from output ports as they arrive
	StreamWhenAvailable FlowFileOutboundPolicy = "stream-when-available"
	// BatchOutput holds FlowFiles at output ports until the whole batch completed
	BatchOutput FlowFileOutboundPolicy = "batch-output"
)

// VersionedFlowState describes a version-controlled group's relation to the
// registry flow it is bound to.
type VersionedFlowState string

const (
	// FlowUpToDate means the local flow matches the latest registry version
	FlowUpToDate VersionedFlowState = "up-to-date"
	// FlowLocallyModified means the local flow differs from the synced snapshot
	FlowLocallyModified VersionedFlowState = "locally-modified"
	// FlowStale means a newer version exists in the registry
	FlowStale VersionedFlowState = "stale"
	// FlowLocallyModifiedAndStale combines local modifications with staleness
	FlowLocallyModifiedAndStale VersionedFlowState = "locally-modified-and-stale"
	// FlowSyncFailure means the registry state could not be determined
	FlowSyncFailure VersionedFlowState = "sync-failure"
)

// Description returns the human-readable explanation for a flow state
func (s VersionedFlowState) Description() string {
	switch s {
	case FlowUpToDate:
		return "flow matches the most recent registry version"
	case FlowLocallyModified:
		return "local changes have been made to the flow"
	case FlowStale:
		return "a newer version of the flow is available in the registry"
	case FlowLocallyModifiedAndStale:
		return "local changes have been made and a newer version is available"
	case FlowSyncFailure:
		return "the registry state of the flow could not be determined"
	default:
		return "unknown"
	}
}
