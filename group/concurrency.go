package group

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/state"
	"github.com/c360/flowgroup/types"
)

// FlowFileGate admits FlowFiles into a process group through its input
// ports. The gate implementation is swapped when the group's FlowFile
// concurrency changes; claims are taken per input port before the port
// brings data in and released when the port finishes a pull.
type FlowFileGate interface {
	// TryClaim reports whether the port may bring a FlowFile into the group
	// right now
	TryClaim(port *component.Port) bool
	// ReleaseClaim releases a claim previously granted to the port
	ReleaseClaim(port *component.Port)
}

// unboundedFlowFileGate always admits
type unboundedFlowFileGate struct{}

func (unboundedFlowFileGate) TryClaim(*component.Port) bool { return true }
func (unboundedFlowFileGate) ReleaseClaim(*component.Port)  {}

// singleConcurrencyFlowFileGate admits one FlowFile at a time: a claim is
// granted only while no other claim is held and no data is queued anywhere
// in the group.
type singleConcurrencyFlowFileGate struct {
	group   *ProcessGroup
	claimed atomic.Bool
}

func (g *singleConcurrencyFlowFileGate) TryClaim(*component.Port) bool {
	if !g.claimed.CompareAndSwap(false, true) {
		return false
	}
	if g.group.IsDataQueued() {
		g.claimed.Store(false)
		return false
	}
	return true
}

func (g *singleConcurrencyFlowFileGate) ReleaseClaim(*component.Port) {
	g.claimed.Store(false)
}

// singleBatchFlowFileGate admits one batch at a time: once any port has
// claimed, no port may claim again until the batch has fully left the group
// and the claim is released.
type singleBatchFlowFileGate struct {
	group   *ProcessGroup
	claimed atomic.Bool
}

func (g *singleBatchFlowFileGate) TryClaim(*component.Port) bool {
	if !g.claimed.CompareAndSwap(false, true) {
		return false
	}
	if g.group.IsDataQueued() {
		g.claimed.Store(false)
		return false
	}
	return true
}

func (g *singleBatchFlowFileGate) ReleaseClaim(*component.Port) {
	g.claimed.Store(false)
}

// BatchCounts tracks how many FlowFiles each output port must release before
// a batch is considered complete.
type BatchCounts interface {
	// Capture snapshots the per-output-port queued counts at the moment the
	// group's input closes, keyed by port name
	Capture(ctx context.Context) (map[string]int, error)
	// Counts returns the counts of the batch currently in flight, nil when
	// no batch is captured
	Counts() map[string]int
	// Reset discards any captured counts
	Reset(ctx context.Context) error
}

// noOpBatchCounts is installed whenever the group's settings do not call for
// batch tracking
type noOpBatchCounts struct{}

func (noOpBatchCounts) Capture(context.Context) (map[string]int, error) { return nil, nil }
func (noOpBatchCounts) Counts() map[string]int                          { return nil }
func (noOpBatchCounts) Reset(context.Context) error                     { return nil }

// standardBatchCounts captures real counts and persists them through the
// group's state manager so an in-flight batch survives restarts.
type standardBatchCounts struct {
	group *ProcessGroup
	sm    state.Manager

	mu       sync.Mutex
	captured map[string]int
}

func newStandardBatchCounts(group *ProcessGroup, sm state.Manager) *standardBatchCounts {
	return &standardBatchCounts{group: group, sm: sm}
}

func (b *standardBatchCounts) Capture(ctx context.Context) (map[string]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make(map[string]int)
	for _, port := range b.group.OutputPorts() {
		total := 0
		for _, conn := range port.IncomingConnections() {
			total += conn.Queue().QueuedCount()
		}
		counts[port.ComponentName()] = total
	}
	b.captured = counts

	if b.sm != nil {
		persisted := make(map[string]string, len(counts))
		for name, count := range counts {
			persisted[name] = strconv.Itoa(count)
		}
		if err := b.sm.SetState(ctx, persisted); err != nil {
			return nil, errors.WrapTransient(err, "standardBatchCounts", "Capture", "persist batch counts")
		}
	}

	result := make(map[string]int, len(counts))
	for name, count := range counts {
		result[name] = count
	}
	return result, nil
}

func (b *standardBatchCounts) Counts() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.captured == nil {
		return nil
	}
	result := make(map[string]int, len(b.captured))
	for name, count := range b.captured {
		result[name] = count
	}
	return result
}

// RestoreState loads the counts persisted by an earlier process so an
// in-flight batch is not lost across restarts
func (b *standardBatchCounts) RestoreState(ctx context.Context) error {
	if b.sm == nil {
		return nil
	}
	persisted, err := b.sm.GetState(ctx)
	if err != nil {
		return errors.WrapTransient(err, "standardBatchCounts", "RestoreState", "load batch counts")
	}
	if len(persisted) == 0 {
		return nil
	}

	counts := make(map[string]int, len(persisted))
	for name, value := range persisted {
		count, err := strconv.Atoi(value)
		if err != nil {
			return errors.WrapInvalid(err, "standardBatchCounts", "RestoreState", "decode batch count")
		}
		counts[name] = count
	}

	b.mu.Lock()
	b.captured = counts
	b.mu.Unlock()
	return nil
}

func (b *standardBatchCounts) Reset(ctx context.Context) error {
	b.mu.Lock()
	b.captured = nil
	b.mu.Unlock()

	if b.sm == nil {
		return nil
	}
	if err := b.sm.Clear(ctx); err != nil {
		return errors.WrapTransient(err, "standardBatchCounts", "Reset", "clear batch counts")
	}
	return nil
}

// FlowFileConcurrency returns the group's FlowFile concurrency mode
func (pg *ProcessGroup) FlowFileConcurrency() types.FlowFileConcurrency {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.flowFileConcurrency
}

// SetFlowFileConcurrency changes how the group admits FlowFiles through its
// input ports. Changing the mode swaps the active gate; a claim held by the
// outgoing gate is abandoned, matching a batch already in flight being
// allowed to finish under the old rules.
func (pg *ProcessGroup) SetFlowFileConcurrency(ctx context.Context, concurrency types.FlowFileConcurrency) error {
	if !concurrency.Valid() {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ProcessGroup", "SetFlowFileConcurrency", "concurrency mode check")
	}

	pg.mu.Lock()
	if pg.flowFileConcurrency == concurrency {
		pg.mu.Unlock()
		return nil
	}
	pg.flowFileConcurrency = concurrency

	switch concurrency {
	case types.ConcurrencySingleFlowFilePerNode:
		pg.gate = &singleConcurrencyFlowFileGate{group: pg}
	case types.ConcurrencySingleBatchPerNode:
		pg.gate = &singleBatchFlowFileGate{group: pg}
	default:
		pg.gate = unboundedFlowFileGate{}
	}

	err := pg.updateBatchCountsLocked(ctx)
	pg.mu.Unlock()

	pg.OnComponentModified()
	return err
}

// FlowFileOutboundPolicy returns how the group releases FlowFiles through
// its output ports
func (pg *ProcessGroup) FlowFileOutboundPolicy() types.FlowFileOutboundPolicy {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.flowFileOutboundPolicy
}

// SetFlowFileOutboundPolicy changes how the group releases FlowFiles through
// its output ports
func (pg *ProcessGroup) SetFlowFileOutboundPolicy(ctx context.Context, policy types.FlowFileOutboundPolicy) error {
	pg.mu.Lock()
	if pg.flowFileOutboundPolicy == policy {
		pg.mu.Unlock()
		return nil
	}
	pg.flowFileOutboundPolicy = policy
	err := pg.updateBatchCountsLocked(ctx)
	pg.mu.Unlock()

	pg.OnComponentModified()
	return err
}

// updateBatchCountsLocked installs the batch-count tracker matching the
// group's current settings. Real counts are tracked only when the group
// batches its output and admits a single FlowFile at a time; any other
// combination resets an existing tracker before replacing it with the no-op.
// Caller holds pg.mu.
func (pg *ProcessGroup) updateBatchCountsLocked(ctx context.Context) error {
	if pg.flowFileOutboundPolicy == types.BatchOutput && pg.flowFileConcurrency == types.ConcurrencySingleFlowFilePerNode {
		// An already-installed tracker keeps its in-flight counts
		if _, ok := pg.batchCounts.(*standardBatchCounts); ok {
			return nil
		}
		var sm state.Manager
		if pg.deps.StateProvider != nil {
			sm = pg.deps.StateProvider.StateManager(pg.id + "-BatchCounts")
		}
		counts := newStandardBatchCounts(pg, sm)
		if err := counts.RestoreState(ctx); err != nil {
			pg.deps.Logger.Warn("persisted batch counts not restored",
				"group_id", pg.id, "error", err)
		}
		pg.batchCounts = counts
		return nil
	}

	if existing, ok := pg.batchCounts.(*standardBatchCounts); ok {
		if err := existing.Reset(ctx); err != nil {
			pg.batchCounts = noOpBatchCounts{}
			return err
		}
	}
	pg.batchCounts = noOpBatchCounts{}
	return nil
}

// FlowFileGate returns the group's active admission gate
func (pg *ProcessGroup) FlowFileGate() FlowFileGate {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.gate
}

// BatchCounts returns the group's active batch-count tracker
func (pg *ProcessGroup) BatchCounts() BatchCounts {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.batchCounts
}

// IsDataQueued reports whether any FlowFile is queued on any connection in
// this group or any descendant
func (pg *ProcessGroup) IsDataQueued() bool {
	return pg.isDataQueued(false)
}

// IsDataQueuedForProcessing reports whether any queued FlowFile still has
// processing ahead of it in this group: data queued up for an output port is
// only waiting to leave and does not count. Data anywhere in a child group
// counts, because the child may route it back through local processing.
func (pg *ProcessGroup) IsDataQueuedForProcessing() bool {
	return pg.isDataQueued(true)
}

func (pg *ProcessGroup) isDataQueued(excludeOutputBound bool) bool {
	pg.mu.RLock()
	connections := make([]*component.Connection, 0, len(pg.connections))
	for _, conn := range pg.connections {
		connections = append(connections, conn)
	}
	children := make([]*ProcessGroup, 0, len(pg.groups))
	for _, child := range pg.groups {
		children = append(children, child)
	}
	pg.mu.RUnlock()

	for _, conn := range connections {
		if excludeOutputBound {
			dest := conn.Destination()
			if dest.ConnectableType() == types.ConnectableOutputPort {
				if group := dest.Group(); group != nil && group.Identifier() == pg.id {
					continue
				}
			}
		}
		if !conn.Queue().IsEmpty() {
			return true
		}
	}

	for _, child := range children {
		if child.IsDataQueued() {
			return true
		}
	}
	return false
}
