package group

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/flowregistry"
	"github.com/c360/flowgroup/types"
	"github.com/c360/flowgroup/versioned"
)

// authorFlow builds a small flow in its own component universe and returns
// its snapshot: an input port feeding a processor feeding an output port,
// plus a funnel, a label and a controller service.
func authorFlow(t *testing.T) versioned.ProcessGroup {
	t.Helper()
	deps, _ := newTestDeps()
	root := NewProcessGroup("author-root", "Author Root", deps)
	flow := NewProcessGroup("author-flow", "Authored Flow", deps)
	require.NoError(t, root.AddProcessGroup(flow))

	in := component.NewInputPort("author-in", "In")
	require.NoError(t, flow.AddInputPort(in))
	out := component.NewOutputPort("author-out", "Out")
	require.NoError(t, flow.AddOutputPort(out))
	p := component.NewProcessorNode("author-p1", "Transform", "ReplaceText")
	p.SetProperties(map[string]string{"Replacement Value": "redacted"})
	require.NoError(t, flow.AddProcessor(p))
	require.NoError(t, flow.AddFunnel(component.NewFunnel("author-f1")))
	require.NoError(t, flow.AddLabel(component.NewLabel("author-l1", "authored here")))
	require.NoError(t, flow.AddControllerService(component.NewControllerServiceNode("author-s1", "Lookup", "SimpleKeyValueLookupService")))

	require.NoError(t, flow.AddConnection(flow.NewConnectionWithDefaults("author-c1", in, p)))
	require.NoError(t, flow.AddConnection(flow.NewConnectionWithDefaults("author-c2", p, out)))

	return flow.MapToVersionedGroup()
}

func externalFlow(contents versioned.ProcessGroup, version int64) *versioned.ExternalFlow {
	return &versioned.ExternalFlow{
		Metadata: versioned.FlowMetadata{BucketID: "bucket1", FlowID: "flow1", Version: version},
		Contents: contents,
	}
}

// syncTarget builds a bound, empty destination group ready to receive a flow
func syncTarget(t *testing.T) (root, target *ProcessGroup) {
	t.Helper()
	root, target, _ = newTestTree()
	target.SetVersionControlInformation(&VersionControlInformation{
		RegistryID: "reg1", BucketID: "bucket1", FlowID: "flow1", FlowName: "Flow One",
	}, nil)
	return root, target
}

func TestSynchronizeFlowInstantiatesContents(t *testing.T) {
	snapshot := authorFlow(t)
	_, target := syncTarget(t)

	opts := SynchronizationOptions{UpdateGroupSettings: true}
	require.NoError(t, target.SynchronizeFlow(context.Background(), externalFlow(snapshot, 1), opts))

	assert.Equal(t, "Authored Flow", target.GroupName())
	assert.Len(t, target.Processors(), 1)
	assert.Len(t, target.InputPorts(), 1)
	assert.Len(t, target.OutputPorts(), 1)
	assert.Len(t, target.Funnels(), 1)
	assert.Len(t, target.Labels(), 1)
	assert.Len(t, target.ControllerServices(), 1)
	assert.Len(t, target.Connections(), 2)

	p := target.Processors()[0]
	assert.Equal(t, "Transform", p.ComponentName())
	assert.Equal(t, "ReplaceText", p.ProcessorType())
	value, ok := p.Property("Replacement Value")
	require.True(t, ok)
	assert.Equal(t, "redacted", value)
	assert.Equal(t, snapshot.Processors[0].Identifier, p.VersionedComponentID())

	// instantiated IDs are derived, not copied from the author's instance IDs
	assert.Equal(t, generateComponentID(snapshot.Processors[0].Identifier, target.Identifier(), ""), p.Identifier())

	vci := target.VersionControlInformation()
	require.NotNil(t, vci)
	assert.Equal(t, int64(1), vci.Version)
	require.NotNil(t, vci.Snapshot)

	// the instantiated group maps back to the snapshot it came from
	assert.Empty(t, target.Modifications())
	assert.Equal(t, types.FlowUpToDate, target.VersionedFlowStatus().State)
}

func TestSynchronizeFlowIdempotent(t *testing.T) {
	snapshot := authorFlow(t)
	_, target := syncTarget(t)
	ctx := context.Background()
	opts := SynchronizationOptions{UpdateGroupSettings: true}

	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(snapshot, 1), opts))
	firstID := target.Processors()[0].Identifier()

	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(snapshot, 1), opts))
	assert.Len(t, target.Processors(), 1)
	assert.Len(t, target.Connections(), 2)
	assert.Equal(t, firstID, target.Processors()[0].Identifier())
}

func TestSynchronizeFlowRemovesTrackedOrphans(t *testing.T) {
	snapshot := authorFlow(t)
	_, target := syncTarget(t)
	ctx := context.Background()
	opts := SynchronizationOptions{UpdateGroupSettings: true}

	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(snapshot, 1), opts))

	// version 2 drops the processor and the connections touching it
	v2 := snapshot
	v2.Processors = nil
	v2.Connections = nil
	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(v2, 2), opts))

	assert.Empty(t, target.Processors())
	assert.Empty(t, target.Connections())
	assert.Len(t, target.InputPorts(), 1)
	assert.Equal(t, int64(2), target.VersionControlInformation().Version)
	assert.Empty(t, target.Modifications())
}

func TestSynchronizeFlowKeepsUntrackedComponents(t *testing.T) {
	snapshot := authorFlow(t)
	_, target := syncTarget(t)
	ctx := context.Background()
	opts := SynchronizationOptions{UpdateGroupSettings: true}

	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(snapshot, 1), opts))

	local := component.NewProcessorNode("local-p", "Local Addition", "LogAttribute")
	require.NoError(t, target.AddProcessor(local))

	opts.IgnoreLocalModifications = true
	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(snapshot, 2), opts))

	// the untracked local processor survives and shows as a modification
	assert.Same(t, local, target.Processor("local-p"))
	diffs := target.Modifications()
	require.Len(t, diffs, 1)
	assert.Equal(t, versioned.ComponentAdded, diffs[0].Type)
}

func TestSynchronizeFlowRejectsLocalModifications(t *testing.T) {
	snapshot := authorFlow(t)
	_, target := syncTarget(t)
	ctx := context.Background()
	opts := SynchronizationOptions{UpdateGroupSettings: true}

	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(snapshot, 1), opts))
	require.NoError(t, target.AddProcessor(component.NewProcessorNode("local-p", "Local", "LogAttribute")))

	err := target.SynchronizeFlow(ctx, externalFlow(snapshot, 2), opts)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrLocallyModified))
	// the failed attempt did not advance the binding
	assert.Equal(t, int64(1), target.VersionControlInformation().Version)

	opts.IgnoreLocalModifications = true
	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(snapshot, 2), opts))
	assert.Equal(t, int64(2), target.VersionControlInformation().Version)
}

func TestSynchronizeFlowDanglingEndpoint(t *testing.T) {
	snapshot := authorFlow(t)
	_, target := syncTarget(t)

	broken := snapshot
	broken.Connections = append([]versioned.Connection(nil), snapshot.Connections...)
	broken.Connections = append(broken.Connections, versioned.Connection{
		Identifier: "dangling-conn",
		Source:     versioned.ConnectableReference{ID: "no-such-component", Type: types.ConnectableProcessor},
		Destination: versioned.ConnectableReference{
			ID: snapshot.Processors[0].Identifier, Type: types.ConnectableProcessor,
		},
	})

	err := target.SynchronizeFlow(context.Background(), externalFlow(broken, 1), SynchronizationOptions{UpdateGroupSettings: true})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDanglingReference))
	assert.Equal(t, types.FlowSyncFailure, target.VersionedFlowStatus().State)
}

func TestSynchronizeFlowNestedGroups(t *testing.T) {
	// author a flow with a nested group connected through its input port
	deps, _ := newTestDeps()
	authorRoot := NewProcessGroup("author-root", "Author Root", deps)
	flow := NewProcessGroup("author-flow", "Authored Flow", deps)
	require.NoError(t, authorRoot.AddProcessGroup(flow))
	nested := NewProcessGroup("author-nested", "Nested", deps)
	require.NoError(t, flow.AddProcessGroup(nested))

	p := component.NewProcessorNode("author-p1", "Gen", "GenerateFlowFile")
	require.NoError(t, flow.AddProcessor(p))
	nestedIn := component.NewInputPort("author-in", "In")
	require.NoError(t, nested.AddInputPort(nestedIn))
	inner := component.NewProcessorNode("author-p2", "Sink", "PutFile")
	require.NoError(t, nested.AddProcessor(inner))
	require.NoError(t, nested.AddConnection(nested.NewConnectionWithDefaults("author-c2", nestedIn, inner)))
	require.NoError(t, flow.AddConnection(flow.NewConnectionWithDefaults("author-c1", p, nestedIn)))

	snapshot := flow.MapToVersionedGroup()

	_, target := syncTarget(t)
	opts := SynchronizationOptions{UpdateGroupSettings: true}
	require.NoError(t, target.SynchronizeFlow(context.Background(), externalFlow(snapshot, 1), opts))

	require.Len(t, target.ProcessGroups(), 1)
	child := target.ProcessGroups()[0]
	assert.Len(t, child.InputPorts(), 1)
	assert.Len(t, child.Processors(), 1)
	assert.Len(t, child.Connections(), 1)
	// the boundary connection resolves the child's instantiated input port
	require.Len(t, target.Connections(), 1)
	assert.Equal(t, child.InputPorts()[0].Identifier(), target.Connections()[0].Destination().Identifier())

	assert.Empty(t, target.Modifications())
}

func newRegistryDeps(t *testing.T) (Dependencies, *flowregistry.MemoryRegistry) {
	t.Helper()
	deps, _ := newTestDeps()
	registry := flowregistry.NewMemoryRegistry()
	client := flowregistry.NewStandardClient()
	client.AddRegistry("reg1", registry)
	deps.RegistryClient = client
	return deps, registry
}

func TestCommitVersion(t *testing.T) {
	deps, registry := newRegistryDeps(t)
	root := NewProcessGroup("root", "Root", deps)
	target := NewProcessGroup("target", "Target", deps)
	require.NoError(t, root.AddProcessGroup(target))
	require.NoError(t, target.AddProcessor(component.NewProcessorNode("p1", "Gen", "GenerateFlowFile")))

	target.SetVersionControlInformation(&VersionControlInformation{
		RegistryID: "reg1", BucketID: "bucket1", FlowID: "flow1", FlowName: "Flow One",
	}, nil)
	assert.True(t, target.IsLocallyModified())

	version, err := target.CommitVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, int64(1), target.VersionControlInformation().Version)
	assert.False(t, target.IsLocallyModified())
	assert.Equal(t, types.FlowUpToDate, target.VersionedFlowStatus().State)

	flow, err := registry.VersionedFlow(context.Background(), "bucket1", "flow1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), flow.VersionCount)

	// another change commits as the next version
	require.NoError(t, target.AddProcessor(component.NewProcessorNode("p2", "Log", "LogAttribute")))
	version, err = target.CommitVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestCommitVersionRequiresBinding(t *testing.T) {
	deps, _ := newRegistryDeps(t)
	pg := NewProcessGroup("g1", "Group One", deps)

	_, err := pg.CommitVersion(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestChangeFlowVersion(t *testing.T) {
	deps, _ := newRegistryDeps(t)
	root := NewProcessGroup("root", "Root", deps)

	// author commits version 1
	author := NewProcessGroup("author", "Author", deps)
	require.NoError(t, root.AddProcessGroup(author))
	require.NoError(t, author.AddProcessor(component.NewProcessorNode("p1", "Gen", "GenerateFlowFile")))
	author.SetVersionControlInformation(&VersionControlInformation{
		RegistryID: "reg1", BucketID: "bucket1", FlowID: "flow1", FlowName: "Flow One",
	}, nil)
	_, err := author.CommitVersion(context.Background())
	require.NoError(t, err)

	// a second group pulls that version from the registry
	target := NewProcessGroup("target", "Target", deps)
	require.NoError(t, root.AddProcessGroup(target))
	target.SetVersionControlInformation(&VersionControlInformation{
		RegistryID: "reg1", BucketID: "bucket1", FlowID: "flow1", FlowName: "Flow One",
	}, nil)

	opts := SynchronizationOptions{UpdateGroupSettings: true}
	require.NoError(t, target.ChangeFlowVersion(context.Background(), 1, opts))
	assert.Len(t, target.Processors(), 1)
	assert.Equal(t, "Gen", target.Processors()[0].ComponentName())
	assert.Equal(t, int64(1), target.VersionControlInformation().Version)
}

func TestChangeFlowVersionMissingVersion(t *testing.T) {
	deps, registry := newRegistryDeps(t)
	_, err := registry.RegisterFlowSnapshot(context.Background(), "bucket1", "flow1", "Flow One", versioned.ProcessGroup{Identifier: "x", Name: "X"})
	require.NoError(t, err)

	pg := NewProcessGroup("g1", "Group One", deps)
	pg.SetVersionControlInformation(&VersionControlInformation{
		RegistryID: "reg1", BucketID: "bucket1", FlowID: "flow1", Version: 1,
	}, nil)

	err = pg.ChangeFlowVersion(context.Background(), 99, SynchronizationOptions{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrVersionNotFound))
	assert.Equal(t, types.FlowSyncFailure, pg.VersionedFlowStatus().State)
}

func TestSynchronizeFlowFailureRestoresBinding(t *testing.T) {
	snapshot := authorFlow(t)
	_, target := syncTarget(t)
	ctx := context.Background()
	opts := SynchronizationOptions{UpdateGroupSettings: true}

	require.NoError(t, target.SynchronizeFlow(ctx, externalFlow(snapshot, 1), opts))
	before := target.VersionControlInformation()

	broken := snapshot
	broken.Connections = append([]versioned.Connection(nil), snapshot.Connections...)
	broken.Connections = append(broken.Connections, versioned.Connection{
		Identifier: "dangling-conn",
		Source:     versioned.ConnectableReference{ID: "no-such-component", Type: types.ConnectableProcessor},
		Destination: versioned.ConnectableReference{
			ID: snapshot.Processors[0].Identifier, Type: types.ConnectableProcessor,
		},
	})

	err := target.SynchronizeFlow(ctx, externalFlow(broken, 7), opts)
	require.Error(t, err)

	// the failed attempt must not advance the binding to the new version
	vci := target.VersionControlInformation()
	require.NotNil(t, vci)
	assert.Same(t, before, vci)
	assert.Equal(t, int64(1), vci.Version)
	assert.Equal(t, types.FlowSyncFailure, target.VersionedFlowStatus().State)
}

func TestSynchronizeFlowBindsVersionedChildren(t *testing.T) {
	deps, _ := newTestDeps()
	authorRoot := NewProcessGroup("author-root", "Author Root", deps)
	flow := NewProcessGroup("author-flow", "Authored Flow", deps)
	require.NoError(t, authorRoot.AddProcessGroup(flow))
	nested := NewProcessGroup("author-nested", "Nested", deps)
	require.NoError(t, flow.AddProcessGroup(nested))
	require.NoError(t, nested.AddProcessor(component.NewProcessorNode("author-p1", "Sink", "PutFile")))
	bindToFlow(nested, 3)

	snapshot := flow.MapToVersionedGroup()

	_, target := syncTarget(t)
	opts := SynchronizationOptions{UpdateGroupSettings: true}
	require.NoError(t, target.SynchronizeFlow(context.Background(), externalFlow(snapshot, 1), opts))

	// the instantiated child carries the coordinates' binding
	require.Len(t, target.ProcessGroups(), 1)
	child := target.ProcessGroups()[0]
	vci := child.VersionControlInformation()
	require.NotNil(t, vci)
	assert.Equal(t, "reg1", vci.RegistryID)
	assert.Equal(t, "flow1", vci.FlowID)
	assert.Equal(t, int64(3), vci.Version)
	require.NotNil(t, vci.Snapshot)

	assert.Len(t, child.Processors(), 1)
	assert.Empty(t, child.Modifications())
	assert.Equal(t, types.FlowUpToDate, child.VersionedFlowStatus().State)
}
