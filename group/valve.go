package group

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/state"
)

const (
	valveStateFlowingInto  = "flowingIntoGroup"
	valveStateFlowingOutOf = "flowingOutOfGroup"
)

// DataValve coordinates batch movement across a group boundary. When a group
// runs in single-batch mode, data may flow into it or out of it but never
// both at once; the valve is the mutual-exclusion point the ports consult.
// Open/closed state persists through the group's state manager so a batch in
// flight is not double-admitted after a restart.
type DataValve struct {
	group  *ProcessGroup
	sm     state.Manager
	logger *slog.Logger

	mu                sync.Mutex
	flowingIntoGroup  bool
	flowingOutOfGroup bool
}

func newDataValve(group *ProcessGroup, sm state.Manager, logger *slog.Logger) *DataValve {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataValve{group: group, sm: sm, logger: logger}
}

// RestoreState reloads the valve's open directions from durable state
func (v *DataValve) RestoreState(ctx context.Context) error {
	if v.sm == nil {
		return nil
	}
	stored, err := v.sm.GetState(ctx)
	if err != nil {
		return errors.WrapTransient(err, "DataValve", "RestoreState", "read valve state")
	}

	v.mu.Lock()
	v.flowingIntoGroup, _ = strconv.ParseBool(stored[valveStateFlowingInto])
	v.flowingOutOfGroup, _ = strconv.ParseBool(stored[valveStateFlowingOutOf])
	v.mu.Unlock()
	return nil
}

// TryOpenFlowIntoGroup attempts to open the valve for data entering the
// group. The valve opens only while no data is flowing out of the group and
// the group holds no queued data; otherwise the batch boundary would blur.
func (v *DataValve) TryOpenFlowIntoGroup(ctx context.Context) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.flowingIntoGroup {
		return true
	}
	if v.flowingOutOfGroup {
		v.logger.Debug("valve closed to inbound data, data still flowing out",
			"group_id", v.group.Identifier())
		return false
	}
	if v.group.IsDataQueued() {
		v.logger.Debug("valve closed to inbound data, group holds queued data",
			"group_id", v.group.Identifier())
		return false
	}

	v.flowingIntoGroup = true
	v.persistLocked(ctx)
	return true
}

// CloseFlowIntoGroup closes the inbound direction
func (v *DataValve) CloseFlowIntoGroup(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.flowingIntoGroup {
		return
	}
	v.flowingIntoGroup = false
	v.persistLocked(ctx)
}

// TryOpenFlowOutOfGroup attempts to open the valve for data leaving the
// group. The valve opens only while no data is flowing into the group and
// every queued FlowFile has finished processing, sitting at an output port.
func (v *DataValve) TryOpenFlowOutOfGroup(ctx context.Context) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.flowingOutOfGroup {
		return true
	}
	if v.flowingIntoGroup {
		v.logger.Debug("valve closed to outbound data, data still flowing in",
			"group_id", v.group.Identifier())
		return false
	}
	if v.group.IsDataQueuedForProcessing() {
		v.logger.Debug("valve closed to outbound data, group still processing",
			"group_id", v.group.Identifier())
		return false
	}

	v.flowingOutOfGroup = true
	v.persistLocked(ctx)
	return true
}

// CloseFlowOutOfGroup closes the outbound direction
func (v *DataValve) CloseFlowOutOfGroup(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.flowingOutOfGroup {
		return
	}
	v.flowingOutOfGroup = false
	v.persistLocked(ctx)
}

// FlowingIntoGroup reports whether the inbound direction is open
func (v *DataValve) FlowingIntoGroup() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flowingIntoGroup
}

// FlowingOutOfGroup reports whether the outbound direction is open
func (v *DataValve) FlowingOutOfGroup() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flowingOutOfGroup
}

// persistLocked writes the valve directions to durable state, logging rather
// than failing the transition when storage is down. Caller holds v.mu.
func (v *DataValve) persistLocked(ctx context.Context) {
	if v.sm == nil {
		return
	}
	err := v.sm.SetState(ctx, map[string]string{
		valveStateFlowingInto:  strconv.FormatBool(v.flowingIntoGroup),
		valveStateFlowingOutOf: strconv.FormatBool(v.flowingOutOfGroup),
	})
	if err != nil {
		v.logger.Warn("failed to persist valve state",
			"group_id", v.group.Identifier(), "error", err)
	}
}

// DataValve returns the valve guarding this group's batch boundary
func (pg *ProcessGroup) DataValve() *DataValve {
	return pg.valve
}

// DataValveForPort resolves the valve a port must consult before moving data
// across a group boundary: the valve of the port's group's parent, or the
// port's own group when that group is the root.
func DataValveForPort(port *component.Port) *DataValve {
	group := port.Group()
	if group == nil {
		return nil
	}
	concrete, ok := group.(*ProcessGroup)
	if !ok {
		return nil
	}
	if parent := concrete.Parent(); parent != nil {
		return parent.DataValve()
	}
	return concrete.DataValve()
}
