package group

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/types"
	"github.com/c360/flowgroup/versioned"
)

// SynchronizationOptions tune how a registry snapshot is applied to a live
// group
type SynchronizationOptions struct {
	// ComponentIDSeed varies the derived IDs of components instantiated
	// during synchronization, letting the same snapshot be instantiated more
	// than once in one flow without ID collisions
	ComponentIDSeed string

	// IgnoreLocalModifications applies the snapshot even when the group has
	// diverged from its current synchronized version, discarding tracked
	// local changes
	IgnoreLocalModifications bool

	// UpdateGroupSettings applies the snapshot's group-level settings (name,
	// comments, defaults, concurrency) in addition to its contents
	UpdateGroupSettings bool

	// UpdateDescendantVersionedFlows recurses into child groups that track
	// their own registry flow; when unset such children keep their contents
	UpdateDescendantVersionedFlows bool
}

// generateComponentID derives the live ID for a component instantiated from
// a snapshot. The derivation is deterministic over the snapshot identifier,
// the destination group and the seed, so re-applying the same snapshot to
// the same group yields the same IDs.
func generateComponentID(proposedID, destinationGroupID, seed string) string {
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(proposedID+destinationGroupID+seed)).String()
}

// SynchronizeFlow applies a registry snapshot to the group: components in
// the snapshot are created or updated, and tracked components absent from
// the snapshot are removed. Untracked local components survive as local
// modifications. On failure the group's version-control binding is restored
// to its pre-synchronization value; partially applied component changes are
// surfaced through the group's modification status rather than rolled back.
func (pg *ProcessGroup) SynchronizeFlow(ctx context.Context, proposed *versioned.ExternalFlow, opts SynchronizationOptions) error {
	start := time.Now()

	pg.mu.Lock()
	err := pg.synchronizeLocked(ctx, proposed, opts)
	pg.mu.Unlock()

	pg.deps.Metrics.recordSync(err)
	pg.deps.Metrics.observeSyncDuration(pg.id, time.Since(start).Seconds())

	if err != nil {
		pg.vcFields.setSyncFailure(err.Error())
		return err
	}

	pg.vcFields.setSyncFailure("")
	pg.vcFields.setStale(false)
	pg.OnComponentModified()
	pg.deps.Logger.Info("process group synchronized",
		"group_id", pg.id, "version", proposed.Metadata.Version,
		"duration", time.Since(start))
	return nil
}

func (pg *ProcessGroup) synchronizeLocked(ctx context.Context, proposed *versioned.ExternalFlow, opts SynchronizationOptions) (err error) {
	originalVCI := pg.versionControl.Load()

	defer func() {
		// A failed synchronization restores the pre-attempt binding: the
		// group must not report the new version when its contents never
		// finished applying.
		if err != nil {
			pg.versionControl.Store(originalVCI)
		}
	}()

	if !opts.IgnoreLocalModifications && originalVCI != nil && originalVCI.Snapshot != nil {
		local := pg.mapLocked()
		if len(versioned.DiffGroups(local, *originalVCI.Snapshot)) > 0 {
			return errors.WrapInvalid(
				fmt.Errorf("group %s: %w", pg.id, errors.ErrLocallyModified),
				"ProcessGroup", "SynchronizeFlow", "local modification check")
		}
	}

	if originalVCI != nil {
		updated := *originalVCI
		updated.Version = proposed.Metadata.Version
		snapshot := proposed.Contents
		updated.Snapshot = &snapshot
		pg.versionControl.Store(&updated)
	}

	if err := pg.applyContentsLocked(ctx, proposed.Contents, opts); err != nil {
		return err
	}

	pg.vcFields.invalidate()
	return nil
}

// applyContentsLocked applies the structural content of a snapshot to this
// group. Services are applied before the components that may reference
// them; connections are applied last so every endpoint already exists, and
// removed connections go first so no component is deleted while attached.
func (pg *ProcessGroup) applyContentsLocked(ctx context.Context, proposed versioned.ProcessGroup, opts SynchronizationOptions) error {
	pg.SetVersionedComponentID(proposed.Identifier)

	if opts.UpdateGroupSettings {
		pg.applyGroupSettingsLocked(ctx, proposed)
	}

	if err := pg.removeMissingConnectionsLocked(proposed); err != nil {
		return err
	}
	if err := pg.removeMissingComponentsLocked(proposed); err != nil {
		return err
	}

	if err := pg.applyControllerServicesLocked(proposed, opts); err != nil {
		return err
	}
	if err := pg.applyFunnelsLocked(proposed, opts); err != nil {
		return err
	}
	if err := pg.applyPortsLocked(proposed, opts); err != nil {
		return err
	}
	if err := pg.applyProcessorsLocked(proposed, opts); err != nil {
		return err
	}
	if err := pg.applyLabelsLocked(proposed, opts); err != nil {
		return err
	}
	if err := pg.applyChildGroupsLocked(ctx, proposed, opts); err != nil {
		return err
	}
	if err := pg.applyConnectionsLocked(proposed, opts); err != nil {
		return err
	}
	return nil
}

func (pg *ProcessGroup) applyGroupSettingsLocked(ctx context.Context, proposed versioned.ProcessGroup) {
	if proposed.Name != "" {
		pg.name = proposed.Name
	}
	pg.comments = proposed.Comments

	if proposed.FlowFileConcurrency != "" && proposed.FlowFileConcurrency != pg.flowFileConcurrency {
		pg.flowFileConcurrency = proposed.FlowFileConcurrency
		switch proposed.FlowFileConcurrency {
		case types.ConcurrencySingleFlowFilePerNode:
			pg.gate = &singleConcurrencyFlowFileGate{group: pg}
		case types.ConcurrencySingleBatchPerNode:
			pg.gate = &singleBatchFlowFileGate{group: pg}
		default:
			pg.gate = unboundedFlowFileGate{}
		}
	}
	if proposed.FlowFileOutboundPolicy != "" {
		pg.flowFileOutboundPolicy = proposed.FlowFileOutboundPolicy
	}
	if err := pg.updateBatchCountsLocked(ctx); err != nil {
		pg.deps.Logger.Warn("failed to update batch counts during synchronization",
			"group_id", pg.id, "error", err)
	}

	if proposed.DefaultFlowFileExpiration != "" {
		if expiration, err := time.ParseDuration(proposed.DefaultFlowFileExpiration); err == nil {
			pg.defaultFlowFileExpiration = &expiration
		}
	} else {
		pg.defaultFlowFileExpiration = nil
	}
	pg.defaultBackPressureObjectThreshold = copyInt64(proposed.DefaultBackPressureObjectThreshold)
	pg.defaultBackPressureDataSizeThreshold = copyInt64(proposed.DefaultBackPressureDataSizeThreshold)
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}

// removeMissingConnectionsLocked removes tracked connections absent from
// the snapshot. Connections with no snapshot identifier are local additions
// and survive.
func (pg *ProcessGroup) removeMissingConnectionsLocked(proposed versioned.ProcessGroup) error {
	tracked := make(map[string]struct{}, len(proposed.Connections))
	for _, conn := range proposed.Connections {
		tracked[conn.Identifier] = struct{}{}
	}

	for _, conn := range sortedValues(pg.connections) {
		vid := conn.VersionedComponentID()
		if vid == "" {
			continue
		}
		if _, ok := tracked[vid]; ok {
			continue
		}
		if err := pg.removeConnectionLocked(conn); err != nil {
			return errors.Wrap(err, "ProcessGroup", "SynchronizeFlow", "remove connection absent from snapshot")
		}
	}
	return nil
}

func (pg *ProcessGroup) removeMissingComponentsLocked(proposed versioned.ProcessGroup) error {
	trackedProcessors := make(map[string]struct{}, len(proposed.Processors))
	for _, p := range proposed.Processors {
		trackedProcessors[p.Identifier] = struct{}{}
	}
	for _, processor := range sortedValues(pg.processors) {
		if isTrackedOrphan(processor.VersionedComponentID(), trackedProcessors) {
			if err := pg.removeProcessorLocked(processor); err != nil {
				return errors.Wrap(err, "ProcessGroup", "SynchronizeFlow", "remove processor absent from snapshot")
			}
		}
	}

	trackedInputs := make(map[string]struct{}, len(proposed.InputPorts))
	for _, p := range proposed.InputPorts {
		trackedInputs[p.Identifier] = struct{}{}
	}
	for _, port := range sortedPorts(pg.inputPorts) {
		if isTrackedOrphan(port.VersionedComponentID(), trackedInputs) {
			if err := pg.removePortLocked(port, pg.inputPorts, "SynchronizeFlow"); err != nil {
				return errors.Wrap(err, "ProcessGroup", "SynchronizeFlow", "remove input port absent from snapshot")
			}
		}
	}

	trackedOutputs := make(map[string]struct{}, len(proposed.OutputPorts))
	for _, p := range proposed.OutputPorts {
		trackedOutputs[p.Identifier] = struct{}{}
	}
	for _, port := range sortedPorts(pg.outputPorts) {
		if isTrackedOrphan(port.VersionedComponentID(), trackedOutputs) {
			if err := pg.removePortLocked(port, pg.outputPorts, "SynchronizeFlow"); err != nil {
				return errors.Wrap(err, "ProcessGroup", "SynchronizeFlow", "remove output port absent from snapshot")
			}
		}
	}

	trackedFunnels := make(map[string]struct{}, len(proposed.Funnels))
	for _, f := range proposed.Funnels {
		trackedFunnels[f.Identifier] = struct{}{}
	}
	for _, funnel := range sortedValues(pg.funnels) {
		if isTrackedOrphan(funnel.VersionedComponentID(), trackedFunnels) {
			if err := pg.removeFunnelLocked(funnel); err != nil {
				return errors.Wrap(err, "ProcessGroup", "SynchronizeFlow", "remove funnel absent from snapshot")
			}
		}
	}

	trackedLabels := make(map[string]struct{}, len(proposed.Labels))
	for _, l := range proposed.Labels {
		trackedLabels[l.Identifier] = struct{}{}
	}
	for _, label := range sortedValues(pg.labels) {
		if isTrackedOrphan(label.VersionedComponentID(), trackedLabels) {
			if err := pg.removeLabelLocked(label); err != nil {
				return errors.Wrap(err, "ProcessGroup", "SynchronizeFlow", "remove label absent from snapshot")
			}
		}
	}

	trackedServices := make(map[string]struct{}, len(proposed.ControllerServices))
	for _, s := range proposed.ControllerServices {
		trackedServices[s.Identifier] = struct{}{}
	}
	for _, service := range sortedValues(pg.controllerServices) {
		if isTrackedOrphan(service.VersionedComponentID(), trackedServices) {
			if err := pg.removeControllerServiceLocked(service); err != nil {
				return errors.Wrap(err, "ProcessGroup", "SynchronizeFlow", "remove controller service absent from snapshot")
			}
		}
	}

	trackedGroups := make(map[string]struct{}, len(proposed.ProcessGroups))
	for _, g := range proposed.ProcessGroups {
		trackedGroups[g.Identifier] = struct{}{}
	}
	for _, child := range sortedValues(pg.groups) {
		if isTrackedOrphan(child.VersionedComponentID(), trackedGroups) {
			if err := pg.removeProcessGroupLocked(child); err != nil {
				return errors.Wrap(err, "ProcessGroup", "SynchronizeFlow", "remove child group absent from snapshot")
			}
		}
	}

	return nil
}

// isTrackedOrphan reports whether a live component is tracked (has a
// snapshot identifier) but no longer present in the proposed snapshot
func isTrackedOrphan(versionedID string, tracked map[string]struct{}) bool {
	if versionedID == "" {
		return false
	}
	_, ok := tracked[versionedID]
	return !ok
}

func (pg *ProcessGroup) applyControllerServicesLocked(proposed versioned.ProcessGroup, opts SynchronizationOptions) error {
	existing := make(map[string]*component.ControllerServiceNode)
	for _, service := range pg.controllerServices {
		if vid := service.VersionedComponentID(); vid != "" {
			existing[vid] = service
		}
	}

	for _, ps := range proposed.ControllerServices {
		if service, ok := existing[ps.Identifier]; ok {
			service.SetName(ps.Name)
			service.SetComments(ps.Comments)
			service.SetProperties(ps.Properties)
			continue
		}

		id := generateComponentID(ps.Identifier, pg.id, opts.ComponentIDSeed)
		service := component.NewControllerServiceNode(id, ps.Name, ps.Type)
		service.SetComments(ps.Comments)
		service.SetProperties(ps.Properties)
		service.SetVersionedComponentID(ps.Identifier)
		if err := pg.addControllerServiceLocked(service); err != nil {
			return err
		}
	}
	return nil
}

func (pg *ProcessGroup) applyFunnelsLocked(proposed versioned.ProcessGroup, opts SynchronizationOptions) error {
	existing := make(map[string]*component.Funnel)
	for _, funnel := range pg.funnels {
		if vid := funnel.VersionedComponentID(); vid != "" {
			existing[vid] = funnel
		}
	}

	for _, pf := range proposed.Funnels {
		if funnel, ok := existing[pf.Identifier]; ok {
			funnel.SetPosition(pf.Position)
			continue
		}

		id := generateComponentID(pf.Identifier, pg.id, opts.ComponentIDSeed)
		funnel := component.NewFunnel(id)
		funnel.SetPosition(pf.Position)
		funnel.SetVersionedComponentID(pf.Identifier)
		if err := pg.addFunnelLocked(funnel); err != nil {
			return err
		}
	}
	return nil
}

func (pg *ProcessGroup) applyPortsLocked(proposed versioned.ProcessGroup, opts SynchronizationOptions) error {
	applyPorts := func(proposedPorts []versioned.Port, members map[string]*component.Port, newLocal, newPublic func(id, name string) *component.Port, add func(*component.Port) error) error {
		existing := make(map[string]*component.Port)
		for _, port := range members {
			if vid := port.VersionedComponentID(); vid != "" {
				existing[vid] = port
			}
		}

		for _, pp := range proposedPorts {
			if port, ok := existing[pp.Identifier]; ok {
				port.SetComponentName(pp.Name)
				port.SetPosition(pp.Position)
				continue
			}

			id := generateComponentID(pp.Identifier, pg.id, opts.ComponentIDSeed)
			var port *component.Port
			if pp.Type == types.PortTypePublic {
				port = newPublic(id, pp.Name)
			} else {
				port = newLocal(id, pp.Name)
			}
			port.SetPosition(pp.Position)
			port.SetVersionedComponentID(pp.Identifier)
			if err := add(port); err != nil {
				return err
			}
		}
		return nil
	}

	if err := applyPorts(proposed.InputPorts, pg.inputPorts,
		component.NewInputPort, component.NewPublicInputPort, pg.addInputPortLocked); err != nil {
		return err
	}
	return applyPorts(proposed.OutputPorts, pg.outputPorts,
		component.NewOutputPort, component.NewPublicOutputPort, pg.addOutputPortLocked)
}

func (pg *ProcessGroup) applyProcessorsLocked(proposed versioned.ProcessGroup, opts SynchronizationOptions) error {
	existing := make(map[string]*component.ProcessorNode)
	for _, processor := range pg.processors {
		if vid := processor.VersionedComponentID(); vid != "" {
			existing[vid] = processor
		}
	}

	for _, pp := range proposed.Processors {
		if processor, ok := existing[pp.Identifier]; ok {
			processor.SetComponentName(pp.Name)
			processor.SetPosition(pp.Position)
			processor.SetComments(pp.Comments)
			processor.SetProperties(pp.Properties)
			continue
		}

		id := generateComponentID(pp.Identifier, pg.id, opts.ComponentIDSeed)
		processor := component.NewProcessorNode(id, pp.Name, pp.Type)
		processor.SetPosition(pp.Position)
		processor.SetComments(pp.Comments)
		processor.SetProperties(pp.Properties)
		processor.SetVersionedComponentID(pp.Identifier)
		if pp.ScheduledState == "disabled" {
			processor.SetScheduledState(types.StateDisabled)
		}
		if err := pg.addProcessorLocked(processor); err != nil {
			return err
		}
	}
	return nil
}

func (pg *ProcessGroup) applyLabelsLocked(proposed versioned.ProcessGroup, opts SynchronizationOptions) error {
	existing := make(map[string]*component.Label)
	for _, label := range pg.labels {
		if vid := label.VersionedComponentID(); vid != "" {
			existing[vid] = label
		}
	}

	for _, pl := range proposed.Labels {
		if label, ok := existing[pl.Identifier]; ok {
			label.SetText(pl.Text)
			label.SetPosition(pl.Position)
			label.SetDimensions(pl.Width, pl.Height)
			continue
		}

		id := generateComponentID(pl.Identifier, pg.id, opts.ComponentIDSeed)
		label := component.NewLabel(id, pl.Text)
		label.SetPosition(pl.Position)
		label.SetDimensions(pl.Width, pl.Height)
		label.SetVersionedComponentID(pl.Identifier)
		if err := pg.addLabelLocked(label); err != nil {
			return err
		}
	}
	return nil
}

func (pg *ProcessGroup) applyChildGroupsLocked(ctx context.Context, proposed versioned.ProcessGroup, opts SynchronizationOptions) error {
	existing := make(map[string]*ProcessGroup)
	for _, child := range pg.groups {
		if vid := child.VersionedComponentID(); vid != "" {
			existing[vid] = child
		}
	}

	for _, pgrp := range proposed.ProcessGroups {
		child, ok := existing[pgrp.Identifier]
		if !ok {
			id := generateComponentID(pgrp.Identifier, pg.id, opts.ComponentIDSeed)
			child = NewProcessGroup(id, pgrp.Name, pg.deps)
			child.SetVersionedComponentID(pgrp.Identifier)
			if coords := pgrp.VersionedFlowCoordinates; coords != nil {
				// The child tracks its own registry flow; bind it so its
				// staleness and modifications are computed against that flow
				contents := pgrp
				child.SetVersionControlInformation(&VersionControlInformation{
					RegistryID: coords.RegistryID,
					BucketID:   coords.BucketID,
					FlowID:     coords.FlowID,
					Version:    coords.Version,
					Snapshot:   &contents,
				}, nil)
			}
			if err := pg.addProcessGroupLocked(child); err != nil {
				return err
			}
		} else if coords := pgrp.VersionedFlowCoordinates; coords != nil && child.VersionControlInformation() != nil {
			// An existing child tracking its own registry flow is its own
			// version-control concern unless the caller asked to descend
			if !opts.UpdateDescendantVersionedFlows {
				continue
			}
			updated := *child.VersionControlInformation()
			updated.Version = coords.Version
			contents := pgrp
			updated.Snapshot = &contents
			child.versionControl.Store(&updated)
			child.vcFields.invalidate()
		}

		child.mu.Lock()
		err := child.applyContentsLocked(ctx, pgrp, opts)
		child.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (pg *ProcessGroup) applyConnectionsLocked(proposed versioned.ProcessGroup, opts SynchronizationOptions) error {
	existing := make(map[string]*component.Connection)
	for _, conn := range pg.connections {
		if vid := conn.VersionedComponentID(); vid != "" {
			existing[vid] = conn
		}
	}

	for _, pc := range proposed.Connections {
		expiration, _ := time.ParseDuration(pc.FlowFileExpiration)

		if conn, ok := existing[pc.Identifier]; ok {
			conn.SetName(pc.Name)
			conn.Queue().SetThresholds(pc.BackPressureObjectThreshold, pc.BackPressureDataSizeThreshold)
			conn.Queue().SetExpiration(expiration)
			continue
		}

		source := pg.findConnectableByVersionedIDLocked(pc.Source)
		if source == nil {
			return errors.WrapInvalid(
				fmt.Errorf("connection %s source %s: %w", pc.Identifier, pc.Source.ID, errors.ErrDanglingReference),
				"ProcessGroup", "SynchronizeFlow", "connection source resolution")
		}
		destination := pg.findConnectableByVersionedIDLocked(pc.Destination)
		if destination == nil {
			return errors.WrapInvalid(
				fmt.Errorf("connection %s destination %s: %w", pc.Identifier, pc.Destination.ID, errors.ErrDanglingReference),
				"ProcessGroup", "SynchronizeFlow", "connection destination resolution")
		}

		id := generateComponentID(pc.Identifier, pg.id, opts.ComponentIDSeed)
		conn := component.NewConnection(id, source, destination,
			pc.BackPressureObjectThreshold, pc.BackPressureDataSizeThreshold, expiration)
		conn.SetName(pc.Name)
		conn.SetVersionedComponentID(pc.Identifier)
		if err := pg.addConnectionLocked(conn); err != nil {
			return err
		}
	}
	return nil
}

// findConnectableByVersionedIDLocked resolves a snapshot endpoint reference
// to a live component: one of this group's own connectables, or a boundary
// port of a direct child group.
func (pg *ProcessGroup) findConnectableByVersionedIDLocked(ref versioned.ConnectableReference) component.Connectable {
	matches := func(c component.Connectable) bool {
		type carrier interface{ VersionedComponentID() string }
		vc, ok := c.(carrier)
		return ok && vc.VersionedComponentID() == ref.ID
	}

	switch ref.Type {
	case types.ConnectableProcessor:
		for _, p := range pg.processors {
			if matches(p) {
				return p
			}
		}
	case types.ConnectableFunnel:
		for _, f := range pg.funnels {
			if matches(f) {
				return f
			}
		}
	case types.ConnectableInputPort:
		for _, p := range pg.inputPorts {
			if matches(p) {
				return p
			}
		}
		for _, child := range pg.groups {
			for _, p := range child.InputPorts() {
				if matches(p) {
					return p
				}
			}
		}
	case types.ConnectableOutputPort:
		for _, p := range pg.outputPorts {
			if matches(p) {
				return p
			}
		}
		for _, child := range pg.groups {
			for _, p := range child.OutputPorts() {
				if matches(p) {
					return p
				}
			}
		}
	}
	return nil
}

// CommitVersion maps the group's current contents, registers them as the
// next version of its registry flow, and advances the binding to the new
// version. The group must already be under version control.
func (pg *ProcessGroup) CommitVersion(ctx context.Context) (int64, error) {
	vci := pg.versionControl.Load()
	if vci == nil {
		return 0, errors.WrapInvalid(
			fmt.Errorf("group %s is not under version control", pg.id),
			"ProcessGroup", "CommitVersion", "version control binding check")
	}
	if pg.deps.RegistryClient == nil {
		return 0, errors.WrapInvalid(errors.ErrUnknownRegistry, "ProcessGroup", "CommitVersion", "registry client check")
	}

	registry, err := pg.deps.RegistryClient.Registry(vci.RegistryID)
	if err != nil {
		return 0, errors.Wrap(err, "ProcessGroup", "CommitVersion", "registry resolution")
	}

	contents := pg.MapToVersionedGroup()
	version, err := registry.RegisterFlowSnapshot(ctx, vci.BucketID, vci.FlowID, vci.FlowName, contents)
	if err != nil {
		return 0, errors.Wrap(err, "ProcessGroup", "CommitVersion", "snapshot registration")
	}

	updated := *vci
	updated.Version = version
	updated.Snapshot = &contents
	pg.versionControl.Store(&updated)
	pg.vcFields.invalidate()
	pg.vcFields.setStale(false)
	pg.vcFields.setSyncFailure("")

	pg.deps.Logger.Info("flow version committed",
		"group_id", pg.id, "flow_id", vci.FlowID, "version", version)
	return version, nil
}

// ChangeFlowVersion fetches a specific version of the group's registry flow
// and synchronizes the group to it
func (pg *ProcessGroup) ChangeFlowVersion(ctx context.Context, version int64, opts SynchronizationOptions) error {
	vci := pg.versionControl.Load()
	if vci == nil {
		return errors.WrapInvalid(
			fmt.Errorf("group %s is not under version control", pg.id),
			"ProcessGroup", "ChangeFlowVersion", "version control binding check")
	}
	if pg.deps.RegistryClient == nil {
		return errors.WrapInvalid(errors.ErrUnknownRegistry, "ProcessGroup", "ChangeFlowVersion", "registry client check")
	}

	registry, err := pg.deps.RegistryClient.Registry(vci.RegistryID)
	if err != nil {
		return errors.Wrap(err, "ProcessGroup", "ChangeFlowVersion", "registry resolution")
	}

	flow, err := registry.FlowContents(ctx, vci.BucketID, vci.FlowID, version)
	if err != nil {
		pg.vcFields.setSyncFailure(err.Error())
		return errors.Wrap(err, "ProcessGroup", "ChangeFlowVersion", "snapshot fetch")
	}

	return pg.SynchronizeFlow(ctx, flow, opts)
}
