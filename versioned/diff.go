package versioned

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// DifferenceType classifies a structural difference between two snapshots
type DifferenceType string

const (
	// ComponentAdded means the component exists locally but not remotely
	ComponentAdded DifferenceType = "component-added"
	// ComponentRemoved means the component exists remotely but not locally
	ComponentRemoved DifferenceType = "component-removed"
	// ComponentModified means the component exists in both but differs
	ComponentModified DifferenceType = "component-modified"
	// GroupSettingsChanged means a group's own settings differ
	GroupSettingsChanged DifferenceType = "group-settings-changed"
)

// Difference is one structural divergence between a local flow and its
// synchronized snapshot
type Difference struct {
	Type          DifferenceType
	ComponentKind string
	ComponentID   string
	Description   string
}

// environmental lists the fields that never count as modifications: canvas
// position and local-only instance identifiers differ between installations
// of the same flow by design.
func environmental() []cmp.Option {
	return []cmp.Option{
		cmpopts.IgnoreFields(ProcessGroup{}, "Position", "InstanceIdentifier"),
		cmpopts.IgnoreFields(Processor{}, "Position", "InstanceIdentifier"),
		cmpopts.IgnoreFields(Port{}, "Position", "InstanceIdentifier"),
		cmpopts.IgnoreFields(Funnel{}, "Position", "InstanceIdentifier"),
		cmpopts.IgnoreFields(Label{}, "Position", "InstanceIdentifier"),
		cmpopts.IgnoreFields(Connection{}, "InstanceIdentifier"),
		cmpopts.IgnoreFields(ControllerService{}, "InstanceIdentifier"),
		cmpopts.EquateEmpty(),
	}
}

// DiffGroups computes the structural differences between a local group
// snapshot and a remote one. The result is empty when the two flows are
// structurally identical modulo environmental fields, and is ordered by
// component ID for deterministic output.
func DiffGroups(local, remote ProcessGroup) []Difference {
	var diffs []Difference
	opts := environmental()

	diffs = append(diffs, diffGroupSettings(local, remote, opts)...)
	diffs = append(diffs, diffComponents("processor", processorIndex(local.Processors), processorIndex(remote.Processors), opts)...)
	diffs = append(diffs, diffComponents("input-port", portIndex(local.InputPorts), portIndex(remote.InputPorts), opts)...)
	diffs = append(diffs, diffComponents("output-port", portIndex(local.OutputPorts), portIndex(remote.OutputPorts), opts)...)
	diffs = append(diffs, diffComponents("funnel", funnelIndex(local.Funnels), funnelIndex(remote.Funnels), opts)...)
	diffs = append(diffs, diffComponents("label", labelIndex(local.Labels), labelIndex(remote.Labels), opts)...)
	diffs = append(diffs, diffComponents("connection", connectionIndex(local.Connections), connectionIndex(remote.Connections), opts)...)
	diffs = append(diffs, diffComponents("controller-service", serviceIndex(local.ControllerServices), serviceIndex(remote.ControllerServices), opts)...)
	diffs = append(diffs, diffChildGroups(local.ProcessGroups, remote.ProcessGroups, opts)...)

	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].ComponentID != diffs[j].ComponentID {
			return diffs[i].ComponentID < diffs[j].ComponentID
		}
		return diffs[i].ComponentKind < diffs[j].ComponentKind
	})
	return diffs
}

func diffGroupSettings(local, remote ProcessGroup, opts []cmp.Option) []Difference {
	// Compare the groups with children stripped so only the group's own
	// settings are considered here; children are diffed individually.
	localShell := local
	remoteShell := remote
	stripChildren(&localShell)
	stripChildren(&remoteShell)

	if cmp.Equal(localShell, remoteShell, opts...) {
		return nil
	}
	return []Difference{{
		Type:          GroupSettingsChanged,
		ComponentKind: "process-group",
		ComponentID:   local.Identifier,
		Description:   cmp.Diff(remoteShell, localShell, opts...),
	}}
}

func stripChildren(g *ProcessGroup) {
	g.Processors = nil
	g.InputPorts = nil
	g.OutputPorts = nil
	g.Funnels = nil
	g.Labels = nil
	g.Connections = nil
	g.ControllerServices = nil
	g.ProcessGroups = nil
}

func diffComponents[T any](kind string, local, remote map[string]T, opts []cmp.Option) []Difference {
	var diffs []Difference

	for id, lc := range local {
		rc, ok := remote[id]
		if !ok {
			diffs = append(diffs, Difference{
				Type:          ComponentAdded,
				ComponentKind: kind,
				ComponentID:   id,
				Description:   fmt.Sprintf("%s %s exists locally but not in the synchronized snapshot", kind, id),
			})
			continue
		}
		if !cmp.Equal(lc, rc, opts...) {
			diffs = append(diffs, Difference{
				Type:          ComponentModified,
				ComponentKind: kind,
				ComponentID:   id,
				Description:   cmp.Diff(rc, lc, opts...),
			})
		}
	}

	for id := range remote {
		if _, ok := local[id]; !ok {
			diffs = append(diffs, Difference{
				Type:          ComponentRemoved,
				ComponentKind: kind,
				ComponentID:   id,
				Description:   fmt.Sprintf("%s %s exists in the synchronized snapshot but not locally", kind, id),
			})
		}
	}

	return diffs
}

func diffChildGroups(local, remote []ProcessGroup, opts []cmp.Option) []Difference {
	localIdx := make(map[string]ProcessGroup, len(local))
	for _, g := range local {
		localIdx[g.Identifier] = g
	}
	remoteIdx := make(map[string]ProcessGroup, len(remote))
	for _, g := range remote {
		remoteIdx[g.Identifier] = g
	}

	var diffs []Difference
	for id, lg := range localIdx {
		rg, ok := remoteIdx[id]
		if !ok {
			diffs = append(diffs, Difference{
				Type:          ComponentAdded,
				ComponentKind: "process-group",
				ComponentID:   id,
				Description:   fmt.Sprintf("process group %s exists locally but not in the synchronized snapshot", id),
			})
			continue
		}

		// A child group tracked by its own registry flow is compared by its
		// coordinates only; its internals are its own version-control concern.
		if lg.VersionedFlowCoordinates != nil && rg.VersionedFlowCoordinates != nil {
			if !cmp.Equal(lg.VersionedFlowCoordinates, rg.VersionedFlowCoordinates) {
				diffs = append(diffs, Difference{
					Type:          ComponentModified,
					ComponentKind: "process-group",
					ComponentID:   id,
					Description:   cmp.Diff(rg.VersionedFlowCoordinates, lg.VersionedFlowCoordinates),
				})
			}
			continue
		}

		diffs = append(diffs, DiffGroups(lg, rg)...)
	}

	for id := range remoteIdx {
		if _, ok := localIdx[id]; !ok {
			diffs = append(diffs, Difference{
				Type:          ComponentRemoved,
				ComponentKind: "process-group",
				ComponentID:   id,
				Description:   fmt.Sprintf("process group %s exists in the synchronized snapshot but not locally", id),
			})
		}
	}

	return diffs
}

func processorIndex(items []Processor) map[string]Processor {
	idx := make(map[string]Processor, len(items))
	for _, item := range items {
		idx[item.Identifier] = item
	}
	return idx
}

func portIndex(items []Port) map[string]Port {
	idx := make(map[string]Port, len(items))
	for _, item := range items {
		idx[item.Identifier] = item
	}
	return idx
}

func funnelIndex(items []Funnel) map[string]Funnel {
	idx := make(map[string]Funnel, len(items))
	for _, item := range items {
		idx[item.Identifier] = item
	}
	return idx
}

func labelIndex(items []Label) map[string]Label {
	idx := make(map[string]Label, len(items))
	for _, item := range items {
		idx[item.Identifier] = item
	}
	return idx
}

func connectionIndex(items []Connection) map[string]Connection {
	idx := make(map[string]Connection, len(items))
	for _, item := range items {
		idx[item.Identifier] = item
	}
	return idx
}

func serviceIndex(items []ControllerService) map[string]ControllerService {
	idx := make(map[string]ControllerService, len(items))
	for _, item := range items {
		idx[item.Identifier] = item
	}
	return idx
}
