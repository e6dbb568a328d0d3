package group

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
)

func TestConnectProcessorsWithinGroup(t *testing.T) {
	deps, _ := newTestDeps()
	pg := NewProcessGroup("g1", "Group One", deps)

	p1 := component.NewProcessorNode("p1", "Src", "TypeA")
	p2 := component.NewProcessorNode("p2", "Dst", "TypeB")
	require.NoError(t, pg.AddProcessor(p1))
	require.NoError(t, pg.AddProcessor(p2))

	conn := pg.NewConnectionWithDefaults("c1", p1, p2)
	require.NoError(t, pg.AddConnection(conn))

	assert.Len(t, pg.Connections(), 1)
	assert.Len(t, p1.Connections(), 1)
	assert.Empty(t, p1.IncomingConnections())
	assert.Len(t, p2.IncomingConnections(), 1)
	assert.Empty(t, p2.Connections())
	assert.Equal(t, pg.Identifier(), conn.Group().Identifier())
}

func TestSelfLoopRegistersOnce(t *testing.T) {
	deps, _ := newTestDeps()
	pg := NewProcessGroup("g1", "Group One", deps)

	p := component.NewProcessorNode("p1", "Loop", "TypeA")
	require.NoError(t, pg.AddProcessor(p))

	conn := pg.NewConnectionWithDefaults("c1", p, p)
	require.NoError(t, pg.AddConnection(conn))

	// one registration covers both directions
	assert.Len(t, p.Connections(), 1)
	assert.Len(t, p.IncomingConnections(), 1)
	assert.Len(t, pg.Connections(), 1)
}

func TestConnectProcessorsAcrossSiblingGroupsRejected(t *testing.T) {
	root, child, _ := newTestTree()

	p1 := component.NewProcessorNode("p1", "Src", "TypeA")
	p2 := component.NewProcessorNode("p2", "Dst", "TypeB")
	require.NoError(t, root.AddProcessor(p1))
	require.NoError(t, child.AddProcessor(p2))

	conn := root.NewConnectionWithDefaults("c1", p1, p2)
	err := root.AddConnection(conn)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrIllegalTopology))
	assert.Empty(t, p1.Connections())
	assert.Nil(t, root.Connection("c1"))
}

func TestConnectIntoChildInputPort(t *testing.T) {
	root, child, _ := newTestTree()

	p := component.NewProcessorNode("p1", "Src", "TypeA")
	require.NoError(t, root.AddProcessor(p))
	in := component.NewInputPort("in1", "In")
	require.NoError(t, child.AddInputPort(in))

	// owned by the parent, crossing into the child through its input port
	conn := root.NewConnectionWithDefaults("c1", p, in)
	require.NoError(t, root.AddConnection(conn))
	assert.Len(t, root.Connections(), 1)
	assert.Empty(t, child.Connections())
}

func TestConnectIntoGrandchildInputPortRejected(t *testing.T) {
	root, child, _ := newTestTree()

	grand := NewProcessGroup("grand", "Grand", child.deps)
	require.NoError(t, child.AddProcessGroup(grand))

	p := component.NewProcessorNode("p1", "Src", "TypeA")
	require.NoError(t, root.AddProcessor(p))
	in := component.NewInputPort("in1", "In")
	require.NoError(t, grand.AddInputPort(in))

	conn := root.NewConnectionWithDefaults("c1", p, in)
	err := root.AddConnection(conn)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrIllegalTopology))
}

func TestConnectFromChildOutputPort(t *testing.T) {
	root, child, _ := newTestTree()

	out := component.NewOutputPort("out1", "Out")
	require.NoError(t, child.AddOutputPort(out))
	p := component.NewProcessorNode("p1", "Dst", "TypeA")
	require.NoError(t, root.AddProcessor(p))

	conn := root.NewConnectionWithDefaults("c1", out, p)
	require.NoError(t, root.AddConnection(conn))
	assert.Len(t, root.Connections(), 1)
}

func TestConnectChildToChild(t *testing.T) {
	root, child, _ := newTestTree()

	sibling := NewProcessGroup("sibling", "Sibling", child.deps)
	require.NoError(t, root.AddProcessGroup(sibling))

	out := component.NewOutputPort("out1", "Out")
	require.NoError(t, child.AddOutputPort(out))
	in := component.NewInputPort("in1", "In")
	require.NoError(t, sibling.AddInputPort(in))

	conn := root.NewConnectionWithDefaults("c1", out, in)
	require.NoError(t, root.AddConnection(conn))
}

func TestConnectOwnOutputPortRejectedFromOutside(t *testing.T) {
	root, child, _ := newTestTree()

	// a child's output port can never source a connection owned by the child's
	// own group through the parent
	out := component.NewOutputPort("out1", "Out")
	require.NoError(t, child.AddOutputPort(out))
	p := component.NewProcessorNode("p1", "Dst", "TypeA")
	require.NoError(t, child.AddProcessor(p))

	conn := root.NewConnectionWithDefaults("c1", p, out)
	err := root.AddConnection(conn)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrIllegalTopology))
}

func TestConnectProcessorToOwnOutputPort(t *testing.T) {
	_, child, _ := newTestTree()

	p := component.NewProcessorNode("p1", "Src", "TypeA")
	require.NoError(t, child.AddProcessor(p))
	out := component.NewOutputPort("out1", "Out")
	require.NoError(t, child.AddOutputPort(out))

	conn := child.NewConnectionWithDefaults("c1", p, out)
	require.NoError(t, child.AddConnection(conn))
}

func TestConnectInputPortToProcessorInSameGroup(t *testing.T) {
	_, child, _ := newTestTree()

	in := component.NewInputPort("in1", "In")
	require.NoError(t, child.AddInputPort(in))
	p := component.NewProcessorNode("p1", "Dst", "TypeA")
	require.NoError(t, child.AddProcessor(p))

	conn := child.NewConnectionWithDefaults("c1", in, p)
	require.NoError(t, child.AddConnection(conn))
}

func TestConnectInputPortToChildInputPort(t *testing.T) {
	_, child, _ := newTestTree()

	grand := NewProcessGroup("grand", "Grand", child.deps)
	require.NoError(t, child.AddProcessGroup(grand))

	in := component.NewInputPort("in1", "In")
	require.NoError(t, child.AddInputPort(in))
	grandIn := component.NewInputPort("in2", "In")
	require.NoError(t, grand.AddInputPort(grandIn))

	conn := child.NewConnectionWithDefaults("c1", in, grandIn)
	require.NoError(t, child.AddConnection(conn))
}

func TestConnectFunnelChain(t *testing.T) {
	deps, _ := newTestDeps()
	pg := NewProcessGroup("g1", "Group One", deps)

	f1 := component.NewFunnel("f1")
	f2 := component.NewFunnel("f2")
	require.NoError(t, pg.AddFunnel(f1))
	require.NoError(t, pg.AddFunnel(f2))

	conn := pg.NewConnectionWithDefaults("c1", f1, f2)
	require.NoError(t, pg.AddConnection(conn))
}

func TestAddConnectionDuplicateID(t *testing.T) {
	deps, _ := newTestDeps()
	pg := NewProcessGroup("g1", "Group One", deps)

	p1 := component.NewProcessorNode("p1", "Src", "TypeA")
	p2 := component.NewProcessorNode("p2", "Dst", "TypeB")
	require.NoError(t, pg.AddProcessor(p1))
	require.NoError(t, pg.AddProcessor(p2))

	require.NoError(t, pg.AddConnection(pg.NewConnectionWithDefaults("c1", p1, p2)))
	err := pg.AddConnection(pg.NewConnectionWithDefaults("c1", p2, p1))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateID))
}

func TestAddConnectionUnparentedEndpoint(t *testing.T) {
	deps, _ := newTestDeps()
	pg := NewProcessGroup("g1", "Group One", deps)

	p1 := component.NewProcessorNode("p1", "Src", "TypeA")
	require.NoError(t, pg.AddProcessor(p1))
	stray := component.NewProcessorNode("p2", "Stray", "TypeB")

	conn := pg.NewConnectionWithDefaults("c1", p1, stray)
	err := pg.AddConnection(conn)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrIllegalTopology))
}

func TestRemoveConnection(t *testing.T) {
	deps, _ := newTestDeps()
	pg := NewProcessGroup("g1", "Group One", deps)

	p1 := component.NewProcessorNode("p1", "Src", "TypeA")
	p2 := component.NewProcessorNode("p2", "Dst", "TypeB")
	require.NoError(t, pg.AddProcessor(p1))
	require.NoError(t, pg.AddProcessor(p2))

	conn := pg.NewConnectionWithDefaults("c1", p1, p2)
	require.NoError(t, pg.AddConnection(conn))
	require.NoError(t, pg.RemoveConnection(conn))

	assert.Nil(t, pg.Connection("c1"))
	assert.Empty(t, p1.Connections())
	assert.Empty(t, p2.IncomingConnections())
	assert.Nil(t, deps.FlowManager.Connection("c1"))
}

func TestRemoveConnectionWithQueuedData(t *testing.T) {
	deps, _ := newTestDeps()
	pg := NewProcessGroup("g1", "Group One", deps)

	p1 := component.NewProcessorNode("p1", "Src", "TypeA")
	p2 := component.NewProcessorNode("p2", "Dst", "TypeB")
	require.NoError(t, pg.AddProcessor(p1))
	require.NoError(t, pg.AddProcessor(p2))

	conn := pg.NewConnectionWithDefaults("c1", p1, p2)
	require.NoError(t, pg.AddConnection(conn))
	conn.Queue().Enqueue(component.FlowFile{ID: "ff1", Size: 4})

	require.Error(t, pg.RemoveConnection(conn))
	assert.Same(t, conn, pg.Connection("c1"))

	_, ok := conn.Queue().Dequeue()
	require.True(t, ok)
	require.NoError(t, pg.RemoveConnection(conn))
}

func TestForeignInputPortSourceRejected(t *testing.T) {
	root, child, _ := newTestTree()
	in := component.NewInputPort("child-in", "In")
	require.NoError(t, child.AddInputPort(in))

	otherDeps, _ := newTestDeps()
	otherRoot := NewProcessGroup("other-root", "Other Root", otherDeps)
	other := NewProcessGroup("other", "Other", otherDeps)
	require.NoError(t, otherRoot.AddProcessGroup(other))
	foreign := component.NewInputPort("foreign-in", "In")
	require.NoError(t, other.AddInputPort(foreign))

	// the source port lives outside this group's subtree, so the input-port
	// boundary rule does not apply and the local-source rule rejects it
	conn := root.NewConnectionWithDefaults("x1", foreign, in)
	err := root.AddConnection(conn)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrIllegalTopology))
	assert.Nil(t, root.Connection("x1"))
}

func TestForeignOutputPortSourceRejected(t *testing.T) {
	root, _, _ := newTestTree()
	p := component.NewProcessorNode("p1", "Dst", "TypeA")
	require.NoError(t, root.AddProcessor(p))

	otherDeps, _ := newTestDeps()
	otherRoot := NewProcessGroup("other-root", "Other Root", otherDeps)
	other := NewProcessGroup("other", "Other", otherDeps)
	require.NoError(t, otherRoot.AddProcessGroup(other))
	foreign := component.NewOutputPort("foreign-out", "Out")
	require.NoError(t, other.AddOutputPort(foreign))

	conn := root.NewConnectionWithDefaults("x1", foreign, p)
	err := root.AddConnection(conn)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrIllegalTopology))
}
