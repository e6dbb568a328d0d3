package group

import (
	"fmt"
	"sort"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/types"
)

// Snippet names a set of sibling components of one group, selected for a
// bulk move or delete. A snippet holds IDs only; the owning group resolves
// them at operation time so a stale snippet fails loudly instead of acting
// on the wrong components.
type Snippet struct {
	ParentGroupID string

	ProcessorIDs    []string
	InputPortIDs    []string
	OutputPortIDs   []string
	FunnelIDs       []string
	ConnectionIDs   []string
	LabelIDs        []string
	ProcessGroupIDs []string
}

// IsEmpty reports whether the snippet selects nothing
func (s *Snippet) IsEmpty() bool {
	return len(s.ProcessorIDs) == 0 &&
		len(s.InputPortIDs) == 0 &&
		len(s.OutputPortIDs) == 0 &&
		len(s.FunnelIDs) == 0 &&
		len(s.ConnectionIDs) == 0 &&
		len(s.LabelIDs) == 0 &&
		len(s.ProcessGroupIDs) == 0
}

// snippetContents is the resolved, validated form of a snippet
type snippetContents struct {
	processors  []*component.ProcessorNode
	inputPorts  []*component.Port
	outputPorts []*component.Port
	funnels     []*component.Funnel
	connections []*component.Connection
	labels      []*component.Label
	groups      []*ProcessGroup
}

// connectables returns every connection-capable member of the snippet
func (sc *snippetContents) connectables() []component.Connectable {
	var result []component.Connectable
	for _, p := range sc.processors {
		result = append(result, p)
	}
	for _, p := range sc.inputPorts {
		result = append(result, p)
	}
	for _, p := range sc.outputPorts {
		result = append(result, p)
	}
	for _, f := range sc.funnels {
		result = append(result, f)
	}
	return result
}

// Move transfers the snippet's components from this group into the
// destination group in one atomic operation. The snippet must be
// disconnected: no component in it may be attached to a connection outside
// it. Local ports cannot move into the root group, and tracked components
// cannot move into a differently version-controlled flow.
func (pg *ProcessGroup) Move(snippet *Snippet, destination *ProcessGroup) error {
	if snippet.ParentGroupID != pg.id {
		return errors.WrapInvalid(
			fmt.Errorf("snippet belongs to group %s: %w", snippet.ParentGroupID, errors.ErrNotAMember),
			"ProcessGroup", "Move", "snippet ownership check")
	}
	if destination.Identifier() == pg.id {
		return nil
	}

	first, second := pg.lockOrder(destination)
	first.mu.Lock()
	second.mu.Lock()
	err := pg.moveLocked(snippet, destination)
	second.mu.Unlock()
	first.mu.Unlock()

	if err != nil {
		return err
	}
	pg.OnComponentModified()
	destination.OnComponentModified()
	return nil
}

// lockOrder returns the two groups in a globally consistent lock order: an
// ancestor always locks before its descendant, unrelated groups lock in ID
// order.
func (pg *ProcessGroup) lockOrder(other *ProcessGroup) (*ProcessGroup, *ProcessGroup) {
	if pg.isOwner(other) {
		return pg, other
	}
	if other.isOwner(pg) {
		return other, pg
	}
	if pg.id < other.id {
		return pg, other
	}
	return other, pg
}

func (pg *ProcessGroup) moveLocked(snippet *Snippet, destination *ProcessGroup) error {
	contents, err := pg.resolveSnippetLocked(snippet, "Move")
	if err != nil {
		return err
	}

	for _, group := range contents.groups {
		if group.Identifier() == destination.Identifier() || group.isOwner(destination) {
			return errors.WrapInvalid(
				fmt.Errorf("destination group %s is inside the snippet", destination.Identifier()),
				"ProcessGroup", "Move", "destination containment check")
		}
	}

	if destination.parent.Load() == nil {
		for _, port := range append(contents.inputPorts, contents.outputPorts...) {
			if port.PortType() != types.PortTypePublic {
				return errors.WrapInvalid(
					fmt.Errorf("port %s is not public", port.Identifier()),
					"ProcessGroup", "Move", "root group port type check")
			}
		}
	}

	if err := pg.verifyNoVersionConflictLocked(contents, destination); err != nil {
		return err
	}
	if err := pg.verifyDisconnectedLocked(snippet, contents); err != nil {
		return err
	}

	for _, processor := range contents.processors {
		delete(pg.processors, processor.Identifier())
		destination.processors[processor.Identifier()] = processor
		processor.SetGroup(destination)
	}
	for _, port := range contents.inputPorts {
		delete(pg.inputPorts, port.Identifier())
		destination.inputPorts[port.Identifier()] = port
		port.SetGroup(destination)
	}
	for _, port := range contents.outputPorts {
		delete(pg.outputPorts, port.Identifier())
		destination.outputPorts[port.Identifier()] = port
		port.SetGroup(destination)
	}
	for _, funnel := range contents.funnels {
		delete(pg.funnels, funnel.Identifier())
		destination.funnels[funnel.Identifier()] = funnel
		funnel.SetGroup(destination)
	}
	for _, label := range contents.labels {
		delete(pg.labels, label.Identifier())
		destination.labels[label.Identifier()] = label
		label.SetGroup(destination)
	}
	for _, conn := range contents.connections {
		delete(pg.connections, conn.Identifier())
		destination.connections[conn.Identifier()] = conn
		conn.SetGroup(destination)
	}
	for _, group := range contents.groups {
		delete(pg.groups, group.Identifier())
		destination.groups[group.Identifier()] = group
		group.parent.Store(destination)
	}

	pg.deps.Logger.Info("snippet moved",
		"source_group_id", pg.id, "destination_group_id", destination.Identifier(),
		"components", len(contents.connectables())+len(contents.connections)+len(contents.labels)+len(contents.groups))
	return nil
}

// resolveSnippetLocked resolves every ID in the snippet against this
// group's members, rejecting the whole snippet on the first miss
func (pg *ProcessGroup) resolveSnippetLocked(snippet *Snippet, operation string) (*snippetContents, error) {
	contents := &snippetContents{}

	for _, id := range snippet.ProcessorIDs {
		processor, ok := pg.processors[id]
		if !ok {
			return nil, pg.snippetMemberError("processor", id, operation)
		}
		contents.processors = append(contents.processors, processor)
	}
	for _, id := range snippet.InputPortIDs {
		port, ok := pg.inputPorts[id]
		if !ok {
			return nil, pg.snippetMemberError("input port", id, operation)
		}
		contents.inputPorts = append(contents.inputPorts, port)
	}
	for _, id := range snippet.OutputPortIDs {
		port, ok := pg.outputPorts[id]
		if !ok {
			return nil, pg.snippetMemberError("output port", id, operation)
		}
		contents.outputPorts = append(contents.outputPorts, port)
	}
	for _, id := range snippet.FunnelIDs {
		funnel, ok := pg.funnels[id]
		if !ok {
			return nil, pg.snippetMemberError("funnel", id, operation)
		}
		contents.funnels = append(contents.funnels, funnel)
	}
	for _, id := range snippet.ConnectionIDs {
		conn, ok := pg.connections[id]
		if !ok {
			return nil, pg.snippetMemberError("connection", id, operation)
		}
		contents.connections = append(contents.connections, conn)
	}
	for _, id := range snippet.LabelIDs {
		label, ok := pg.labels[id]
		if !ok {
			return nil, pg.snippetMemberError("label", id, operation)
		}
		contents.labels = append(contents.labels, label)
	}
	for _, id := range snippet.ProcessGroupIDs {
		group, ok := pg.groups[id]
		if !ok {
			return nil, pg.snippetMemberError("process group", id, operation)
		}
		contents.groups = append(contents.groups, group)
	}

	return contents, nil
}

func (pg *ProcessGroup) snippetMemberError(kind, id, operation string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%s %s: %w", kind, id, errors.ErrNotAMember),
		"ProcessGroup", operation, "snippet membership check")
}

// verifyNoVersionConflictLocked rejects moving registry-tracked components
// into a flow governed by a different version-control binding; the tracked
// identifiers would be claimed by two flows at once.
func (pg *ProcessGroup) verifyNoVersionConflictLocked(contents *snippetContents, destination *ProcessGroup) error {
	destFlow := nearestVersionControlled(destination)
	sourceFlow := nearestVersionControlled(pg)
	if destFlow == nil || destFlow == sourceFlow {
		return nil
	}

	tracked := false
	for _, c := range contents.connectables() {
		type carrier interface{ VersionedComponentID() string }
		if vc, ok := c.(carrier); ok && vc.VersionedComponentID() != "" {
			tracked = true
			break
		}
	}
	if !tracked {
		for _, group := range contents.groups {
			if group.VersionedComponentID() != "" || group.VersionControlInformation() != nil {
				tracked = true
				break
			}
		}
	}

	if tracked {
		return errors.WrapInvalid(
			fmt.Errorf("snippet contains version-tracked components and destination group %s belongs to a different version-controlled flow", destination.Identifier()),
			"ProcessGroup", "Move", "version control conflict check")
	}
	return nil
}

// nearestVersionControlled walks up from the group to the closest group
// under version control, nil when there is none
func nearestVersionControlled(pg *ProcessGroup) *ProcessGroup {
	for g := pg; g != nil; g = g.Parent() {
		if g.versionControl.Load() != nil {
			return g
		}
	}
	return nil
}

// verifyDisconnectedLocked rejects a snippet with any connection crossing
// its boundary: every connection attached to a snippet component must be in
// the snippet, and every snippet connection's endpoints must be in it.
func (pg *ProcessGroup) verifyDisconnectedLocked(snippet *Snippet, contents *snippetContents) error {
	inSnippetConnections := make(map[string]struct{}, len(snippet.ConnectionIDs))
	for _, id := range snippet.ConnectionIDs {
		inSnippetConnections[id] = struct{}{}
	}

	// Endpoints reachable within the snippet: its own connectables plus the
	// boundary ports of child groups being moved along
	allowedEndpoints := make(map[string]struct{})
	for _, c := range contents.connectables() {
		allowedEndpoints[c.Identifier()] = struct{}{}
	}
	for _, group := range contents.groups {
		for _, port := range group.InputPorts() {
			allowedEndpoints[port.Identifier()] = struct{}{}
		}
		for _, port := range group.OutputPorts() {
			allowedEndpoints[port.Identifier()] = struct{}{}
		}
	}

	for _, c := range contents.connectables() {
		attached := append(c.Connections(), c.IncomingConnections()...)
		for _, conn := range attached {
			if _, ok := inSnippetConnections[conn.Identifier()]; !ok {
				return pg.disconnectedError(conn)
			}
		}
	}
	for _, group := range contents.groups {
		ports := append(group.InputPorts(), group.OutputPorts()...)
		for _, port := range ports {
			attached := append(port.Connections(), port.IncomingConnections()...)
			for _, conn := range attached {
				owner := conn.Group()
				if owner != nil && owner.Identifier() != pg.id {
					// owned inside the moving subtree, moves implicitly
					continue
				}
				if _, ok := inSnippetConnections[conn.Identifier()]; !ok {
					return pg.disconnectedError(conn)
				}
			}
		}
	}

	for _, conn := range contents.connections {
		if _, ok := allowedEndpoints[conn.Source().Identifier()]; !ok {
			return pg.disconnectedError(conn)
		}
		if _, ok := allowedEndpoints[conn.Destination().Identifier()]; !ok {
			return pg.disconnectedError(conn)
		}
	}
	return nil
}

func (pg *ProcessGroup) disconnectedError(conn *component.Connection) error {
	return errors.WrapInvalid(
		fmt.Errorf("connection %s crosses the snippet boundary", conn.Identifier()),
		"ProcessGroup", "Move", "disconnected snippet check")
}

// VerifyCanDeleteSnippet checks that every component the snippet names can
// be deleted right now, without deleting anything
func (pg *ProcessGroup) VerifyCanDeleteSnippet(snippet *Snippet) error {
	if snippet.ParentGroupID != pg.id {
		return errors.WrapInvalid(
			fmt.Errorf("snippet belongs to group %s: %w", snippet.ParentGroupID, errors.ErrNotAMember),
			"ProcessGroup", "VerifyCanDeleteSnippet", "snippet ownership check")
	}

	pg.mu.RLock()
	contents, err := pg.resolveSnippetLocked(snippet, "VerifyCanDeleteSnippet")
	pg.mu.RUnlock()
	if err != nil {
		return err
	}
	return pg.verifySnippetDeletable(snippet, contents)
}

func (pg *ProcessGroup) verifySnippetDeletable(snippet *Snippet, contents *snippetContents) error {
	inSnippetConnections := make(map[string]struct{}, len(snippet.ConnectionIDs))
	for _, id := range snippet.ConnectionIDs {
		inSnippetConnections[id] = struct{}{}
	}

	for _, processor := range contents.processors {
		if processor.IsRunning() {
			return errors.WrapInvalid(
				fmt.Errorf("processor %s: %w", processor.Identifier(), errors.ErrNotStopped),
				"ProcessGroup", "VerifyCanDeleteSnippet", "running processor check")
		}
	}
	ports := append(contents.inputPorts, contents.outputPorts...)
	for _, port := range ports {
		if port.ScheduledState() == types.StateRunning {
			return errors.WrapInvalid(
				fmt.Errorf("port %s: %w", port.Identifier(), errors.ErrNotStopped),
				"ProcessGroup", "VerifyCanDeleteSnippet", "running port check")
		}
	}
	for _, conn := range contents.connections {
		if err := conn.VerifyCanDelete(); err != nil {
			return err
		}
	}
	// Deleting a component deletes its connections, so every connection
	// attached to a snippet component must itself be selected
	for _, c := range contents.connectables() {
		attached := append(c.Connections(), c.IncomingConnections()...)
		for _, conn := range attached {
			if _, ok := inSnippetConnections[conn.Identifier()]; !ok {
				return errors.WrapInvalid(
					fmt.Errorf("connection %s is attached to snippet component %s but not selected for deletion",
						conn.Identifier(), c.Identifier()),
					"ProcessGroup", "VerifyCanDeleteSnippet", "attached connection check")
			}
		}
	}
	for _, group := range contents.groups {
		if err := group.VerifyCanDelete(false); err != nil {
			return err
		}
	}
	return nil
}

// RemoveSnippet deletes every component the snippet names, all or nothing:
// the whole snippet is verified deletable before anything is touched.
// Connections go first so no component is removed while attached.
func (pg *ProcessGroup) RemoveSnippet(snippet *Snippet) error {
	if snippet.ParentGroupID != pg.id {
		return errors.WrapInvalid(
			fmt.Errorf("snippet belongs to group %s: %w", snippet.ParentGroupID, errors.ErrNotAMember),
			"ProcessGroup", "RemoveSnippet", "snippet ownership check")
	}

	pg.mu.Lock()
	err := pg.removeSnippetLocked(snippet)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) removeSnippetLocked(snippet *Snippet) error {
	contents, err := pg.resolveSnippetLocked(snippet, "RemoveSnippet")
	if err != nil {
		return err
	}
	if err := pg.verifySnippetDeletable(snippet, contents); err != nil {
		return err
	}

	// Deterministic removal order keeps logs and metrics stable
	sort.Slice(contents.connections, func(i, j int) bool {
		return contents.connections[i].Identifier() < contents.connections[j].Identifier()
	})

	for _, conn := range contents.connections {
		pg.detachConnectionLocked(conn)
	}
	for _, processor := range contents.processors {
		if err := pg.removeProcessorLocked(processor); err != nil {
			return err
		}
	}
	for _, port := range contents.inputPorts {
		if err := pg.removePortLocked(port, pg.inputPorts, "RemoveSnippet"); err != nil {
			return err
		}
	}
	for _, port := range contents.outputPorts {
		if err := pg.removePortLocked(port, pg.outputPorts, "RemoveSnippet"); err != nil {
			return err
		}
	}
	for _, funnel := range contents.funnels {
		if err := pg.removeFunnelLocked(funnel); err != nil {
			return err
		}
	}
	for _, label := range contents.labels {
		if err := pg.removeLabelLocked(label); err != nil {
			return err
		}
	}
	for _, group := range contents.groups {
		if err := pg.removeProcessGroupLocked(group); err != nil {
			return err
		}
	}

	pg.deps.Logger.Info("snippet removed", "group_id", pg.id)
	return nil
}
