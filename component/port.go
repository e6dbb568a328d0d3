package component

import "github.com/c360/flowgroup/types"

// Port is a named entry or exit point of a process group. Local ports
// connect a child group to its parent; public ports are reachable from
// outside the flow and are the only port variant the root group may contain.
type Port struct {
	connectableBase

	portType types.PortType
}

// NewInputPort creates a local input port in the stopped state
func NewInputPort(id, name string) *Port {
	return newPort(id, name, types.ConnectableInputPort, types.PortTypeLocal)
}

// NewOutputPort creates a local output port in the stopped state
func NewOutputPort(id, name string) *Port {
	return newPort(id, name, types.ConnectableOutputPort, types.PortTypeLocal)
}

// NewPublicInputPort creates an input port reachable from outside the flow
func NewPublicInputPort(id, name string) *Port {
	return newPort(id, name, types.ConnectableInputPort, types.PortTypePublic)
}

// NewPublicOutputPort creates an output port reachable from outside the flow
func NewPublicOutputPort(id, name string) *Port {
	return newPort(id, name, types.ConnectableOutputPort, types.PortTypePublic)
}

func newPort(id, name string, kind types.ConnectableType, portType types.PortType) *Port {
	return &Port{
		connectableBase: newConnectableBase(id, name, kind),
		portType:        portType,
	}
}

// PortType reports whether the port is local or public
func (p *Port) PortType() types.PortType { return p.portType }

// IsInputPort reports whether the port feeds data into its group
func (p *Port) IsInputPort() bool { return p.kind == types.ConnectableInputPort }

// IsOutputPort reports whether the port drains data out of its group
func (p *Port) IsOutputPort() bool { return p.kind == types.ConnectableOutputPort }
