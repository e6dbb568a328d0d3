package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowgroup/types"
)

func TestConnectionRegistration(t *testing.T) {
	src := NewProcessorNode("p1", "Src", "GenerateFlowFile")
	dst := NewProcessorNode("p2", "Dst", "PutFile")
	conn := NewConnection("c1", src, dst, 10000, 1<<30, 0)

	src.AddConnection(conn)
	dst.AddConnection(conn)

	require.Len(t, src.Connections(), 1)
	assert.Empty(t, src.IncomingConnections())
	require.Len(t, dst.IncomingConnections(), 1)
	assert.Empty(t, dst.Connections())

	src.RemoveConnection(conn)
	dst.RemoveConnection(conn)
	assert.Empty(t, src.Connections())
	assert.Empty(t, dst.IncomingConnections())
}

func TestSelfLoopRegistersBothDirections(t *testing.T) {
	p := NewProcessorNode("p1", "Loop", "RouteOnAttribute")
	conn := NewConnection("c1", p, p, 10000, 1<<30, 0)

	// one call registers the loop as both outgoing and incoming
	p.AddConnection(conn)
	assert.Len(t, p.Connections(), 1)
	assert.Len(t, p.IncomingConnections(), 1)

	p.RemoveConnection(conn)
	assert.Empty(t, p.Connections())
	assert.Empty(t, p.IncomingConnections())
}

func TestConnectionsSortedByID(t *testing.T) {
	src := NewProcessorNode("p1", "Src", "T")
	a := NewProcessorNode("p2", "A", "T")
	b := NewProcessorNode("p3", "B", "T")

	cz := NewConnection("c-z", src, a, 0, 0, 0)
	ca := NewConnection("c-a", src, b, 0, 0, 0)
	src.AddConnection(cz)
	src.AddConnection(ca)

	conns := src.Connections()
	require.Len(t, conns, 2)
	assert.Equal(t, "c-a", conns[0].Identifier())
	assert.Equal(t, "c-z", conns[1].Identifier())
}

func TestProcessorDefaults(t *testing.T) {
	p := NewProcessorNode("p1", "Gen", "GenerateFlowFile")

	assert.Equal(t, types.StateStopped, p.ScheduledState())
	assert.Equal(t, types.ConnectableProcessor, p.ConnectableType())
	assert.Equal(t, "GenerateFlowFile", p.ProcessorType())
	assert.False(t, p.IsRunning())
	assert.Nil(t, p.Group())

	p.SetScheduledState(types.StateRunning)
	assert.True(t, p.IsRunning())
	p.SetScheduledState(types.StateRunOnce)
	assert.True(t, p.IsRunning())
}

func TestProcessorPropertiesCopied(t *testing.T) {
	p := NewProcessorNode("p1", "Gen", "GenerateFlowFile")
	p.SetProperties(map[string]string{"Batch Size": "1"})

	got := p.Properties()
	got["Batch Size"] = "mutated"

	value, ok := p.Property("Batch Size")
	require.True(t, ok)
	assert.Equal(t, "1", value)

	_, ok = p.Property("absent")
	assert.False(t, ok)
}

func TestProcessorReferencedServices(t *testing.T) {
	p := NewProcessorNode("p1", "Gen", "GenerateFlowFile")
	assert.Empty(t, p.ReferencedServiceIDs())

	p.SetReferencedServiceIDs([]string{"s2", "s1"})
	assert.Equal(t, []string{"s1", "s2"}, p.ReferencedServiceIDs())
}

func TestPortVariants(t *testing.T) {
	local := NewInputPort("in1", "In")
	assert.True(t, local.IsInputPort())
	assert.False(t, local.IsOutputPort())
	assert.Equal(t, types.PortTypeLocal, local.PortType())

	public := NewPublicOutputPort("out1", "Out")
	assert.True(t, public.IsOutputPort())
	assert.Equal(t, types.PortTypePublic, public.PortType())
}
