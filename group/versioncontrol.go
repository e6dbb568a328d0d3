package group

import (
	"sync"
	"time"

	"github.com/c360/flowgroup/types"
	"github.com/c360/flowgroup/versioned"
)

// VersionControlInformation binds a group to a flow in an external registry.
// The struct is immutable once stored; updates replace the whole pointer so
// readers never see a partially updated binding.
type VersionControlInformation struct {
	RegistryID      string
	RegistryName    string
	BucketID        string
	BucketName      string
	FlowID          string
	FlowName        string
	FlowDescription string
	Version         int64

	// Snapshot is the registry contents the group was last synchronized
	// against; nil until the first synchronization completes
	Snapshot *versioned.ProcessGroup
}

// VersionedFlowStatus is the computed synchronization state of a
// version-controlled group
type VersionedFlowStatus struct {
	State       types.VersionedFlowState
	Explanation string
}

// versionControlFields holds the mutable version-control bookkeeping behind
// its own mutex so status reads never contend with structural mutations.
type versionControlFields struct {
	mu                sync.Mutex
	cachedDifferences []versioned.Difference
	diffValid         bool
	stale             bool
	syncFailure       string
}

func (f *versionControlFields) invalidate() {
	f.mu.Lock()
	f.cachedDifferences = nil
	f.diffValid = false
	f.mu.Unlock()
}

func (f *versionControlFields) setStale(stale bool) {
	f.mu.Lock()
	f.stale = stale
	f.mu.Unlock()
}

func (f *versionControlFields) setSyncFailure(explanation string) {
	f.mu.Lock()
	f.syncFailure = explanation
	f.mu.Unlock()
}

// OnComponentModified invalidates this group's cached snapshot differences.
// A group not under version control belongs to its nearest version-controlled
// ancestor's flow, so the invalidation propagates upward until it reaches a
// bound group or the root.
func (pg *ProcessGroup) OnComponentModified() {
	pg.vcFields.invalidate()

	if pg.versionControl.Load() != nil {
		return
	}
	if parent := pg.Parent(); parent != nil {
		parent.OnComponentModified()
	}
}

// VersionControlInformation returns the group's registry binding, nil when
// the group is not under version control
func (pg *ProcessGroup) VersionControlInformation() *VersionControlInformation {
	return pg.versionControl.Load()
}

// SetVersionControlInformation binds the group to a registry flow. The
// versionedComponentIDs map assigns snapshot identifiers to live components,
// keyed by live component ID; components absent from the map keep their
// current assignment.
func (pg *ProcessGroup) SetVersionControlInformation(vci *VersionControlInformation, versionedComponentIDs map[string]string) {
	pg.versionControl.Store(vci)
	pg.vcFields.invalidate()
	pg.vcFields.setSyncFailure("")

	if len(versionedComponentIDs) > 0 {
		pg.applyVersionedComponentIDs(versionedComponentIDs)
	}

	pg.deps.Logger.Info("process group placed under version control",
		"group_id", pg.id,
		"registry_id", vci.RegistryID, "bucket_id", vci.BucketID,
		"flow_id", vci.FlowID, "version", vci.Version)
}

func (pg *ProcessGroup) applyVersionedComponentIDs(ids map[string]string) {
	for _, processor := range pg.Processors() {
		if vid, ok := ids[processor.Identifier()]; ok {
			processor.SetVersionedComponentID(vid)
		}
	}
	for _, port := range pg.InputPorts() {
		if vid, ok := ids[port.Identifier()]; ok {
			port.SetVersionedComponentID(vid)
		}
	}
	for _, port := range pg.OutputPorts() {
		if vid, ok := ids[port.Identifier()]; ok {
			port.SetVersionedComponentID(vid)
		}
	}
	for _, funnel := range pg.Funnels() {
		if vid, ok := ids[funnel.Identifier()]; ok {
			funnel.SetVersionedComponentID(vid)
		}
	}
	for _, label := range pg.Labels() {
		if vid, ok := ids[label.Identifier()]; ok {
			label.SetVersionedComponentID(vid)
		}
	}
	for _, conn := range pg.Connections() {
		if vid, ok := ids[conn.Identifier()]; ok {
			conn.SetVersionedComponentID(vid)
		}
	}
	for _, service := range pg.ControllerServices() {
		if vid, ok := ids[service.Identifier()]; ok {
			service.SetVersionedComponentID(vid)
		}
	}
	for _, child := range pg.ProcessGroups() {
		if vid, ok := ids[child.Identifier()]; ok {
			child.SetVersionedComponentID(vid)
		}
		child.applyVersionedComponentIDs(ids)
	}
}

// DisconnectVersionControl removes the group's registry binding. When
// removeVersionedComponentIDs is set the snapshot identifiers of the whole
// subtree are cleared too, turning the contents into purely local components.
func (pg *ProcessGroup) DisconnectVersionControl(removeVersionedComponentIDs bool) {
	pg.versionControl.Store(nil)
	pg.vcFields.invalidate()
	pg.vcFields.setSyncFailure("")
	pg.vcFields.setStale(false)

	if removeVersionedComponentIDs {
		pg.clearVersionedComponentIDs()
	}

	pg.deps.Logger.Info("process group disconnected from version control", "group_id", pg.id)
}

func (pg *ProcessGroup) clearVersionedComponentIDs() {
	for _, processor := range pg.Processors() {
		processor.SetVersionedComponentID("")
	}
	for _, port := range pg.InputPorts() {
		port.SetVersionedComponentID("")
	}
	for _, port := range pg.OutputPorts() {
		port.SetVersionedComponentID("")
	}
	for _, funnel := range pg.Funnels() {
		funnel.SetVersionedComponentID("")
	}
	for _, label := range pg.Labels() {
		label.SetVersionedComponentID("")
	}
	for _, conn := range pg.Connections() {
		conn.SetVersionedComponentID("")
	}
	for _, service := range pg.ControllerServices() {
		service.SetVersionedComponentID("")
	}
	for _, child := range pg.ProcessGroups() {
		child.SetVersionedComponentID("")
		// Children bound to their own flow keep their subtree's identifiers
		if child.VersionControlInformation() == nil {
			child.clearVersionedComponentIDs()
		}
	}
}

// Modifications returns the structural differences between the group's
// current contents and its synchronized snapshot. The result is cached until
// the next modification anywhere in the group's flow.
func (pg *ProcessGroup) Modifications() []versioned.Difference {
	vci := pg.versionControl.Load()
	if vci == nil || vci.Snapshot == nil {
		return nil
	}

	pg.vcFields.mu.Lock()
	if pg.vcFields.diffValid {
		cached := pg.vcFields.cachedDifferences
		pg.vcFields.mu.Unlock()
		return cached
	}
	pg.vcFields.mu.Unlock()

	start := time.Now()
	local := pg.MapToVersionedGroup()
	diffs := versioned.DiffGroups(local, *vci.Snapshot)
	pg.deps.Metrics.observeDiffDuration(pg.id, time.Since(start).Seconds())

	pg.vcFields.mu.Lock()
	pg.vcFields.cachedDifferences = diffs
	pg.vcFields.diffValid = true
	pg.vcFields.mu.Unlock()
	return diffs
}

// IsLocallyModified reports whether the group has diverged from its
// synchronized snapshot. A group whose binding has never been committed
// (version zero) always counts as modified.
func (pg *ProcessGroup) IsLocallyModified() bool {
	vci := pg.versionControl.Load()
	if vci == nil {
		return false
	}
	if vci.Version == 0 {
		return true
	}
	if vci.Snapshot == nil {
		return false
	}
	return len(pg.Modifications()) > 0
}

// VersionedFlowStatus computes the group's synchronization state against its
// registry flow. Returns nil for a group not under version control.
func (pg *ProcessGroup) VersionedFlowStatus() *VersionedFlowStatus {
	vci := pg.versionControl.Load()
	if vci == nil {
		return nil
	}

	pg.vcFields.mu.Lock()
	syncFailure := pg.vcFields.syncFailure
	stale := pg.vcFields.stale
	pg.vcFields.mu.Unlock()

	if syncFailure != "" {
		return &VersionedFlowStatus{
			State:       types.FlowSyncFailure,
			Explanation: syncFailure,
		}
	}

	modified := vci.Version == 0
	if !modified {
		if vci.Snapshot == nil {
			return &VersionedFlowStatus{
				State:       types.FlowSyncFailure,
				Explanation: "registry contents have not yet been synchronized",
			}
		}
		modified = len(pg.Modifications()) > 0
	}

	switch {
	case modified && stale:
		return &VersionedFlowStatus{
			State:       types.FlowLocallyModifiedAndStale,
			Explanation: "local changes have been made and a newer version of this flow is available",
		}
	case modified:
		return &VersionedFlowStatus{
			State:       types.FlowLocallyModified,
			Explanation: "local changes have been made",
		}
	case stale:
		return &VersionedFlowStatus{
			State:       types.FlowStale,
			Explanation: "a newer version of this flow is available",
		}
	default:
		return &VersionedFlowStatus{
			State:       types.FlowUpToDate,
			Explanation: "flow version is current",
		}
	}
}
