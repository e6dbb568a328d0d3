package flowmanager

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/flowgroup/component"
)

func testManager() *StandardFlowManager {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProcessorIndex(t *testing.T) {
	fm := testManager()
	p := component.NewProcessorNode("p1", "Gen", "GenerateFlowFile")

	assert.Nil(t, fm.Processor("p1"))

	fm.OnProcessorAdded(p)
	assert.Same(t, p, fm.Processor("p1"))

	fm.OnProcessorRemoved(p)
	assert.Nil(t, fm.Processor("p1"))
}

func TestPortsIndexedByDirection(t *testing.T) {
	fm := testManager()
	in := component.NewInputPort("port1", "In")
	out := component.NewOutputPort("port2", "Out")

	fm.OnInputPortAdded(in)
	fm.OnOutputPortAdded(out)

	assert.Same(t, in, fm.InputPort("port1"))
	assert.Nil(t, fm.OutputPort("port1"))
	assert.Same(t, out, fm.OutputPort("port2"))
	assert.Nil(t, fm.InputPort("port2"))

	fm.OnInputPortRemoved(in)
	fm.OnOutputPortRemoved(out)
	assert.Nil(t, fm.InputPort("port1"))
	assert.Nil(t, fm.OutputPort("port2"))
}

func TestConnectionAndFunnelIndex(t *testing.T) {
	fm := testManager()
	src := component.NewProcessorNode("p1", "Src", "T")
	dst := component.NewProcessorNode("p2", "Dst", "T")
	conn := component.NewConnection("c1", src, dst, 10000, 1<<30, 0)
	funnel := component.NewFunnel("f1")

	fm.OnConnectionAdded(conn)
	fm.OnFunnelAdded(funnel)
	assert.Same(t, conn, fm.Connection("c1"))
	assert.Same(t, funnel, fm.Funnel("f1"))

	fm.OnConnectionRemoved(conn)
	fm.OnFunnelRemoved(funnel)
	assert.Nil(t, fm.Connection("c1"))
	assert.Nil(t, fm.Funnel("f1"))
}

func TestControllerServiceIndex(t *testing.T) {
	fm := testManager()
	service := component.NewControllerServiceNode("s1", "Lookup", "SimpleKeyValueLookupService")

	fm.OnControllerServiceAdded(service)
	assert.Same(t, service, fm.ControllerService("s1"))

	fm.OnControllerServiceRemoved(service)
	assert.Nil(t, fm.ControllerService("s1"))
}
