package component

import (
	"sort"
	"sync"

	"github.com/c360/flowgroup/types"
)

// FlowGroup is the view of a process group that components hold as their
// non-owning back-reference. The concrete implementation lives in the group
// package; components only need identity, root-ness and the modification
// callback.
type FlowGroup interface {
	// Identifier returns the group's unique ID
	Identifier() string
	// GroupName returns the group's display name
	GroupName() string
	// IsRootGroup reports whether the group has no parent
	IsRootGroup() bool
	// OnComponentModified invalidates cached version-control state for the
	// group or its nearest version-controlled ancestor
	OnComponentModified()
}

// Connectable is any component kind capable of sourcing or sinking a
// connection: processors, ports and funnels. Kind-specific behavior is
// resolved by switching on ConnectableType rather than through open type
// hierarchies.
type Connectable interface {
	Identifier() string
	ComponentName() string
	ConnectableType() types.ConnectableType
	ScheduledState() types.ScheduledState
	SetScheduledState(state types.ScheduledState)

	// Group returns the owning process group, nil before the component has
	// been added to one
	Group() FlowGroup
	// SetGroup re-parents the component; called only by the owning group
	// under its write lock
	SetGroup(group FlowGroup)

	// AddConnection registers a connection on this endpoint. A self-looping
	// connection registers both directions in a single call, so the caller
	// must invoke AddConnection exactly once per distinct endpoint.
	AddConnection(conn *Connection)
	// RemoveConnection detaches a connection from this endpoint
	RemoveConnection(conn *Connection)

	// Connections returns the outgoing connections sourced by this component
	Connections() []*Connection
	// IncomingConnections returns the connections terminating at this component
	IncomingConnections() []*Connection
}

// connectableBase carries the state every Connectable shares: identity,
// scheduled state, owning group and connection registration.
type connectableBase struct {
	id   string
	name string
	kind types.ConnectableType

	mu          sync.RWMutex
	state       types.ScheduledState
	group       FlowGroup
	position    types.Position
	versionedID string
	outgoing    map[string]*Connection
	incoming    map[string]*Connection
}

func newConnectableBase(id, name string, kind types.ConnectableType) connectableBase {
	return connectableBase{
		id:       id,
		name:     name,
		kind:     kind,
		state:    types.StateStopped,
		outgoing: make(map[string]*Connection),
		incoming: make(map[string]*Connection),
	}
}

// Identifier returns the component's unique ID
func (b *connectableBase) Identifier() string { return b.id }

// ComponentName returns the component's display name
func (b *connectableBase) ComponentName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// SetComponentName renames the component
func (b *connectableBase) SetComponentName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

// ConnectableType returns the component's kind tag
func (b *connectableBase) ConnectableType() types.ConnectableType { return b.kind }

// ScheduledState returns the component's current lifecycle state
func (b *connectableBase) ScheduledState() types.ScheduledState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// SetScheduledState transitions the component's lifecycle state. State
// validation is the group's responsibility; this is a raw transition used by
// the Scheduler once a transition has been admitted.
func (b *connectableBase) SetScheduledState(state types.ScheduledState) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}

// Group returns the owning process group
func (b *connectableBase) Group() FlowGroup {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.group
}

// SetGroup re-parents the component
func (b *connectableBase) SetGroup(group FlowGroup) {
	b.mu.Lock()
	b.group = group
	b.mu.Unlock()
}

// Position returns the component's canvas position
func (b *connectableBase) Position() types.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.position
}

// SetPosition moves the component on the canvas
func (b *connectableBase) SetPosition(pos types.Position) {
	b.mu.Lock()
	b.position = pos
	b.mu.Unlock()
}

// VersionedComponentID returns the component's identifier within its
// versioned snapshot, used for diffing only. Empty when the component has
// never been synchronized.
func (b *connectableBase) VersionedComponentID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.versionedID
}

// SetVersionedComponentID records the component's snapshot identifier
func (b *connectableBase) SetVersionedComponentID(id string) {
	b.mu.Lock()
	b.versionedID = id
	b.mu.Unlock()
}

// AddConnection registers a connection on whichever sides of this endpoint
// it touches. A self-looping connection registers as both outgoing and
// incoming in this single call.
func (b *connectableBase) AddConnection(conn *Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if conn.Source().Identifier() == b.id {
		b.outgoing[conn.Identifier()] = conn
	}
	if conn.Destination().Identifier() == b.id {
		b.incoming[conn.Identifier()] = conn
	}
}

// RemoveConnection detaches a connection from both sides of this endpoint
func (b *connectableBase) RemoveConnection(conn *Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.outgoing, conn.Identifier())
	delete(b.incoming, conn.Identifier())
}

// Connections returns the outgoing connections sourced by this component,
// ordered by connection ID for deterministic iteration.
func (b *connectableBase) Connections() []*Connection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return sortedConnections(b.outgoing)
}

// IncomingConnections returns the connections terminating at this component
func (b *connectableBase) IncomingConnections() []*Connection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return sortedConnections(b.incoming)
}

func sortedConnections(m map[string]*Connection) []*Connection {
	result := make([]*Connection, 0, len(m))
	for _, conn := range m {
		result = append(result, conn)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Identifier() < result[j].Identifier()
	})
	return result
}
