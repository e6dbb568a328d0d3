package group

import (
	"fmt"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/types"
)

// NewConnectionWithDefaults creates a connection between two endpoints using
// the group's inherited queue defaults. The connection is not part of the
// flow until admitted through AddConnection.
func (pg *ProcessGroup) NewConnectionWithDefaults(id string, source, destination component.Connectable) *component.Connection {
	return component.NewConnection(id, source, destination,
		pg.DefaultBackPressureObjectThreshold(),
		pg.DefaultBackPressureDataSizeThreshold(),
		pg.DefaultFlowFileExpiration())
}

// AddConnection admits a connection into the group, making the group its
// owner. The endpoints decide which group may own the connection:
//
//   - A local input port as source must be feeding either a component of
//     this group or an input port of a direct child group, and in the first
//     case the port itself must belong to this group.
//   - An output port as source must belong to a direct child group, and the
//     destination must be a component of this group or an input port of a
//     direct child group.
//   - Any other source must belong to this group, and the destination must
//     be a component of this group, an output port of this group, or an
//     input port of a direct child group.
//
// A self-looping connection registers on its single endpoint exactly once.
func (pg *ProcessGroup) AddConnection(conn *component.Connection) error {
	pg.mu.Lock()
	err := pg.addConnectionLocked(conn)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) addConnectionLocked(conn *component.Connection) error {
	if err := pg.verifyIDAvailableLocked(conn.Identifier(), "AddConnection"); err != nil {
		return err
	}
	if err := pg.verifyConnectionTopologyLocked(conn); err != nil {
		return err
	}

	source := conn.Source()
	destination := conn.Destination()

	conn.SetGroup(pg)
	source.AddConnection(conn)
	if source.Identifier() != destination.Identifier() {
		destination.AddConnection(conn)
	}
	pg.connections[conn.Identifier()] = conn

	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnConnectionAdded(conn)
	}
	pg.deps.Metrics.recordAdd("connection")
	pg.deps.Logger.Debug("connection added",
		"group_id", pg.id, "connection_id", conn.Identifier(),
		"source_id", source.Identifier(), "destination_id", destination.Identifier())
	return nil
}

func (pg *ProcessGroup) verifyConnectionTopologyLocked(conn *component.Connection) error {
	source := conn.Source()
	destination := conn.Destination()
	sourceGroup := source.Group()
	destinationGroup := destination.Group()

	if sourceGroup == nil || destinationGroup == nil {
		return pg.topologyError(conn, "both endpoints must already belong to a process group")
	}

	isChild := func(g component.FlowGroup) bool {
		_, ok := pg.groups[g.Identifier()]
		return ok
	}
	inThisGroup := func(g component.FlowGroup) bool {
		return g.Identifier() == pg.id
	}
	// The port-source rules apply only to ports living inside this group's
	// subtree; a port of an unrelated group falls through to the local-source
	// rule and is rejected there.
	switch {
	case source.ConnectableType() == types.ConnectableInputPort && pg.isOwner(sourceGroup):
		if destination.ConnectableType() == types.ConnectableInputPort {
			if !isChild(destinationGroup) {
				return pg.topologyError(conn, "destination is an input port that does not belong to a direct child group")
			}
		} else if !inThisGroup(sourceGroup) || !inThisGroup(destinationGroup) {
			return pg.topologyError(conn, "endpoints are in different groups and neither boundary rule applies")
		}

	case source.ConnectableType() == types.ConnectableOutputPort && pg.isOwner(sourceGroup):
		if !isChild(sourceGroup) {
			return pg.topologyError(conn, "source is an output port that does not belong to a direct child group")
		}
		if destination.ConnectableType() == types.ConnectableInputPort {
			if !isChild(destinationGroup) {
				return pg.topologyError(conn, "destination is an input port that does not belong to a direct child group")
			}
		} else if !inThisGroup(destinationGroup) {
			return pg.topologyError(conn, "destination does not belong to this group")
		}

	default:
		if !inThisGroup(sourceGroup) {
			return pg.topologyError(conn, "source does not belong to this group")
		}
		switch destination.ConnectableType() {
		case types.ConnectableOutputPort:
			if !inThisGroup(destinationGroup) {
				return pg.topologyError(conn, "destination is an output port that does not belong to this group")
			}
		case types.ConnectableInputPort:
			if !isChild(destinationGroup) {
				return pg.topologyError(conn, "destination is an input port that does not belong to a direct child group")
			}
		default:
			if !inThisGroup(destinationGroup) {
				return pg.topologyError(conn, "endpoints are in different groups and neither boundary rule applies")
			}
		}
	}

	return nil
}

func (pg *ProcessGroup) topologyError(conn *component.Connection, rule string) error {
	return errors.WrapInvalid(
		fmt.Errorf("connection %s (%s -> %s): %s: %w",
			conn.Identifier(), conn.Source().Identifier(), conn.Destination().Identifier(),
			rule, errors.ErrIllegalTopology),
		"ProcessGroup", "AddConnection", "topology check")
}

// RemoveConnection deletes a connection the group owns. The queue must be
// empty; queued FlowFiles would otherwise be silently dropped.
func (pg *ProcessGroup) RemoveConnection(conn *component.Connection) error {
	pg.mu.Lock()
	err := pg.removeConnectionLocked(conn)
	pg.mu.Unlock()
	if err != nil {
		return err
	}
	pg.OnComponentModified()
	return nil
}

func (pg *ProcessGroup) removeConnectionLocked(conn *component.Connection) error {
	if _, ok := pg.connections[conn.Identifier()]; !ok {
		return errors.WrapInvalid(
			fmt.Errorf("connection %s: %w", conn.Identifier(), errors.ErrNotAMember),
			"ProcessGroup", "RemoveConnection", "membership check")
	}
	if err := conn.VerifyCanDelete(); err != nil {
		return errors.WrapInvalid(err, "ProcessGroup", "RemoveConnection", "queue check")
	}

	pg.detachConnectionLocked(conn)
	pg.deps.Logger.Info("connection removed", "group_id", pg.id, "connection_id", conn.Identifier())
	return nil
}

// detachConnectionLocked unregisters a connection from both endpoints and
// drops it from the group. Caller has already verified deletability.
func (pg *ProcessGroup) detachConnectionLocked(conn *component.Connection) {
	conn.Source().RemoveConnection(conn)
	conn.Destination().RemoveConnection(conn)
	conn.SetGroup(nil)
	delete(pg.connections, conn.Identifier())
	if pg.deps.FlowManager != nil {
		pg.deps.FlowManager.OnConnectionRemoved(conn)
	}
	pg.deps.Metrics.recordRemove("connection")
}
