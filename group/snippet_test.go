package group

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/types"
)

// snippetFixture builds a root with two sibling child groups, the first
// holding a connected processor pair
func snippetFixture(t *testing.T) (root, source, dest *ProcessGroup, p1, p2 *component.ProcessorNode, conn *component.Connection) {
	t.Helper()
	root, source, _ = newTestTree()
	dest = NewProcessGroup("dest", "Destination", source.deps)
	require.NoError(t, root.AddProcessGroup(dest))

	p1 = component.NewProcessorNode("p1", "Src", "TypeA")
	p2 = component.NewProcessorNode("p2", "Dst", "TypeB")
	require.NoError(t, source.AddProcessor(p1))
	require.NoError(t, source.AddProcessor(p2))
	conn = source.NewConnectionWithDefaults("c1", p1, p2)
	require.NoError(t, source.AddConnection(conn))
	return root, source, dest, p1, p2, conn
}

func TestMoveDisconnectedSnippet(t *testing.T) {
	_, source, dest, p1, p2, conn := snippetFixture(t)

	snippet := &Snippet{
		ParentGroupID: source.Identifier(),
		ProcessorIDs:  []string{"p1", "p2"},
		ConnectionIDs: []string{"c1"},
	}
	require.NoError(t, source.Move(snippet, dest))

	assert.Nil(t, source.Processor("p1"))
	assert.Nil(t, source.Connection("c1"))
	assert.Same(t, p1, dest.Processor("p1"))
	assert.Same(t, p2, dest.Processor("p2"))
	assert.Same(t, conn, dest.Connection("c1"))
	assert.Equal(t, dest.Identifier(), p1.Group().Identifier())
	assert.Equal(t, dest.Identifier(), conn.Group().Identifier())
	// the connection endpoints stay registered through the move
	assert.Len(t, p1.Connections(), 1)
	assert.Len(t, p2.IncomingConnections(), 1)
}

func TestMoveConnectedSnippetRejected(t *testing.T) {
	_, source, dest, _, _, _ := snippetFixture(t)

	// leaving the connection behind would dangle it
	snippet := &Snippet{
		ParentGroupID: source.Identifier(),
		ProcessorIDs:  []string{"p1", "p2"},
	}
	err := source.Move(snippet, dest)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.NotNil(t, source.Processor("p1"))
	assert.Nil(t, dest.Processor("p1"))
}

func TestMovePartialSelectionRejected(t *testing.T) {
	_, source, dest, _, _, _ := snippetFixture(t)

	// taking the connection but only one endpoint crosses the boundary
	snippet := &Snippet{
		ParentGroupID: source.Identifier(),
		ProcessorIDs:  []string{"p1"},
		ConnectionIDs: []string{"c1"},
	}
	require.Error(t, source.Move(snippet, dest))
	assert.NotNil(t, source.Processor("p1"))
	assert.NotNil(t, source.Connection("c1"))
}

func TestMoveSnippetOwnershipChecked(t *testing.T) {
	_, source, dest, _, _, _ := snippetFixture(t)

	snippet := &Snippet{ParentGroupID: "someone-else", ProcessorIDs: []string{"p1"}}
	err := source.Move(snippet, dest)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotAMember))
}

func TestMoveStaleSnippetRejected(t *testing.T) {
	_, source, dest, p1, _, _ := snippetFixture(t)

	require.NoError(t, source.RemoveConnection(source.Connection("c1")))
	require.NoError(t, source.RemoveProcessor(p1))

	snippet := &Snippet{ParentGroupID: source.Identifier(), ProcessorIDs: []string{"p1"}}
	err := source.Move(snippet, dest)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotAMember))
}

func TestMoveToSelfIsNoOp(t *testing.T) {
	_, source, _, p1, _, _ := snippetFixture(t)

	snippet := &Snippet{ParentGroupID: source.Identifier(), ProcessorIDs: []string{"p1"}}
	require.NoError(t, source.Move(snippet, source))
	assert.Same(t, p1, source.Processor("p1"))
}

func TestMoveLocalPortsIntoRootRejected(t *testing.T) {
	root, source, _, _, _, _ := snippetFixture(t)

	in := component.NewInputPort("in1", "In")
	require.NoError(t, source.AddInputPort(in))

	snippet := &Snippet{ParentGroupID: source.Identifier(), InputPortIDs: []string{"in1"}}
	err := source.Move(snippet, root)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Same(t, in, source.InputPort("in1"))

	// a funnel has no port-type restriction and moves fine
	funnel := component.NewFunnel("f1")
	require.NoError(t, source.AddFunnel(funnel))
	funnelSnippet := &Snippet{ParentGroupID: source.Identifier(), FunnelIDs: []string{"f1"}}
	require.NoError(t, source.Move(funnelSnippet, root))
	assert.Same(t, funnel, root.Funnel("f1"))
}

func TestMoveChildGroupCarriesBoundaryConnections(t *testing.T) {
	root, source, dest, _, _, _ := snippetFixture(t)

	moving := NewProcessGroup("moving", "Moving", source.deps)
	require.NoError(t, source.AddProcessGroup(moving))
	in := component.NewInputPort("m-in", "In")
	require.NoError(t, moving.AddInputPort(in))

	feeder := component.NewProcessorNode("p3", "Feeder", "TypeC")
	require.NoError(t, source.AddProcessor(feeder))
	boundary := source.NewConnectionWithDefaults("c2", feeder, in)
	require.NoError(t, source.AddConnection(boundary))

	// moving the group without the boundary connection (or its source) fails
	snippet := &Snippet{ParentGroupID: source.Identifier(), ProcessGroupIDs: []string{"moving"}}
	require.Error(t, source.Move(snippet, dest))

	// selecting the feeder and the boundary connection too makes it whole
	whole := &Snippet{
		ParentGroupID:   source.Identifier(),
		ProcessorIDs:    []string{"p3"},
		ConnectionIDs:   []string{"c2"},
		ProcessGroupIDs: []string{"moving"},
	}
	require.NoError(t, source.Move(whole, dest))
	assert.Same(t, moving, dest.ProcessGroup("moving"))
	assert.Same(t, boundary, dest.Connection("c2"))
	assert.Equal(t, root.Identifier(), dest.Parent().Identifier())
}

func TestMoveDestinationInsideSnippetRejected(t *testing.T) {
	_, source, _, _, _, _ := snippetFixture(t)

	moving := NewProcessGroup("moving", "Moving", source.deps)
	require.NoError(t, source.AddProcessGroup(moving))

	snippet := &Snippet{ParentGroupID: source.Identifier(), ProcessGroupIDs: []string{"moving"}}
	err := source.Move(snippet, moving)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMoveTrackedComponentsIntoOtherFlowRejected(t *testing.T) {
	_, source, dest, p1, _, _ := snippetFixture(t)

	require.NoError(t, source.RemoveConnection(source.Connection("c1")))
	p1.SetVersionedComponentID("versioned-p1")
	bindToFlow(source, 1)

	other := dest.MapToVersionedGroup()
	dest.SetVersionControlInformation(&VersionControlInformation{
		RegistryID: "reg1", BucketID: "bucket1", FlowID: "other-flow", Version: 1, Snapshot: &other,
	}, nil)

	snippet := &Snippet{ParentGroupID: source.Identifier(), ProcessorIDs: []string{"p1"}}
	err := source.Move(snippet, dest)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	// untracked components may cross version-control boundaries
	p1.SetVersionedComponentID("")
	snippet2 := &Snippet{ParentGroupID: source.Identifier(), ProcessorIDs: []string{"p2"}}
	require.NoError(t, source.Move(snippet2, dest))
}

func TestVerifyCanDeleteSnippet(t *testing.T) {
	_, source, _, p1, _, _ := snippetFixture(t)

	full := &Snippet{
		ParentGroupID: source.Identifier(),
		ProcessorIDs:  []string{"p1", "p2"},
		ConnectionIDs: []string{"c1"},
	}
	require.NoError(t, source.VerifyCanDeleteSnippet(full))

	// a running processor blocks the whole snippet
	p1.SetScheduledState(types.StateRunning)
	err := source.VerifyCanDeleteSnippet(full)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotStopped))
	p1.SetScheduledState(types.StateStopped)

	// an unselected attached connection blocks too
	partial := &Snippet{ParentGroupID: source.Identifier(), ProcessorIDs: []string{"p1", "p2"}}
	require.Error(t, source.VerifyCanDeleteSnippet(partial))
}

func TestRemoveSnippet(t *testing.T) {
	_, source, _, _, _, conn := snippetFixture(t)

	label := component.NewLabel("l1", "doomed")
	require.NoError(t, source.AddLabel(label))

	snippet := &Snippet{
		ParentGroupID: source.Identifier(),
		ProcessorIDs:  []string{"p1", "p2"},
		ConnectionIDs: []string{"c1"},
		LabelIDs:      []string{"l1"},
	}
	require.NoError(t, source.RemoveSnippet(snippet))

	assert.Nil(t, source.Processor("p1"))
	assert.Nil(t, source.Processor("p2"))
	assert.Nil(t, source.Connection("c1"))
	assert.Nil(t, source.Label("l1"))
	assert.True(t, source.IsEmpty())
	assert.Nil(t, source.deps.FlowManager.Connection(conn.Identifier()))
}

func TestRemoveSnippetAllOrNothing(t *testing.T) {
	_, source, _, _, _, conn := snippetFixture(t)

	conn.Queue().Enqueue(component.FlowFile{ID: "ff1", Size: 1})

	snippet := &Snippet{
		ParentGroupID: source.Identifier(),
		ProcessorIDs:  []string{"p1", "p2"},
		ConnectionIDs: []string{"c1"},
	}
	require.Error(t, source.RemoveSnippet(snippet))

	// nothing was removed
	assert.NotNil(t, source.Processor("p1"))
	assert.NotNil(t, source.Processor("p2"))
	assert.NotNil(t, source.Connection("c1"))
}

func TestRemoveSnippetWithChildGroup(t *testing.T) {
	_, source, _, _, _, _ := snippetFixture(t)

	child := NewProcessGroup("inner", "Inner", source.deps)
	require.NoError(t, source.AddProcessGroup(child))
	require.NoError(t, child.AddProcessor(component.NewProcessorNode("p9", "Inner Proc", "TypeZ")))

	snippet := &Snippet{ParentGroupID: source.Identifier(), ProcessGroupIDs: []string{"inner"}}
	require.NoError(t, source.RemoveSnippet(snippet))
	assert.Nil(t, source.ProcessGroup("inner"))
	assert.Nil(t, source.deps.FlowManager.Processor("p9"))
}

func TestSnippetIsEmpty(t *testing.T) {
	assert.True(t, (&Snippet{ParentGroupID: "g"}).IsEmpty())
	assert.False(t, (&Snippet{ParentGroupID: "g", FunnelIDs: []string{"f1"}}).IsEmpty())
}
