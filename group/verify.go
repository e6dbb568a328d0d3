package group

import (
	"fmt"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/types"
)

// VerifyCanDelete checks every precondition for deleting the group and its
// whole subtree, walking an explicit stack so arbitrarily deep trees cannot
// overflow. The group is deletable when nothing in the subtree is running or
// holds active threads, no templates remain, no queue holds data, and no
// connection crosses the subtree boundary. Set ignorePortConnections when
// the caller is about to remove the boundary connections itself, as a
// snippet move does.
func (pg *ProcessGroup) VerifyCanDelete(ignorePortConnections bool) error {
	stack := []*ProcessGroup{pg}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := current.verifyGroupDeletable(pg, ignorePortConnections); err != nil {
			return err
		}
		stack = append(stack, current.ProcessGroups()...)
	}
	return nil
}

// verifyGroupDeletable checks one group's own members. The root argument is
// the group whose deletion is being verified; boundary detection is relative
// to it, not to the member's immediate group.
func (pg *ProcessGroup) verifyGroupDeletable(root *ProcessGroup, ignorePortConnections bool) error {
	for _, processor := range pg.Processors() {
		if processor.IsRunning() {
			return errors.WrapInvalid(
				fmt.Errorf("processor %s in group %s: %w", processor.Identifier(), pg.id, errors.ErrNotStopped),
				"ProcessGroup", "VerifyCanDelete", "running processor check")
		}
		if err := pg.verifyNoActiveThreads(processor); err != nil {
			return err
		}
	}

	ports := append(pg.InputPorts(), pg.OutputPorts()...)
	for _, port := range ports {
		if port.ScheduledState() == types.StateRunning {
			return errors.WrapInvalid(
				fmt.Errorf("port %s in group %s: %w", port.Identifier(), pg.id, errors.ErrNotStopped),
				"ProcessGroup", "VerifyCanDelete", "running port check")
		}
		if err := pg.verifyNoActiveThreads(port); err != nil {
			return err
		}
	}

	if templates := pg.Templates(); len(templates) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("group %s still holds %d templates: %w", pg.id, len(templates), errors.ErrDanglingReference),
			"ProcessGroup", "VerifyCanDelete", "template check")
	}

	for _, conn := range pg.Connections() {
		if err := conn.VerifyCanDelete(); err != nil {
			return errors.WrapInvalid(err, "ProcessGroup", "VerifyCanDelete", "queued data check")
		}
	}

	if !ignorePortConnections {
		if err := pg.verifyNoBoundaryConnections(root); err != nil {
			return err
		}
	}

	return nil
}

func (pg *ProcessGroup) verifyNoActiveThreads(conn component.Connectable) error {
	if pg.deps.Scheduler == nil {
		return nil
	}
	if count := pg.deps.Scheduler.ActiveThreadCount(conn); count > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("component %s has %d active threads: %w", conn.Identifier(), count, errors.ErrActiveThreads),
			"ProcessGroup", "VerifyCanDelete", "active thread check")
	}
	return nil
}

// verifyNoBoundaryConnections rejects deletion while any of this group's
// ports is attached to a connection owned outside the root's subtree. Such
// connections are owned by the surrounding group and would be left dangling.
func (pg *ProcessGroup) verifyNoBoundaryConnections(root *ProcessGroup) error {
	ports := append(pg.InputPorts(), pg.OutputPorts()...)
	for _, port := range ports {
		attached := append(port.Connections(), port.IncomingConnections()...)
		for _, conn := range attached {
			owner := conn.Group()
			if owner == nil || !root.isOwner(owner) {
				return errors.WrapInvalid(
					fmt.Errorf("port %s is attached to connection %s owned outside the group: %w",
						port.Identifier(), conn.Identifier(), errors.ErrDanglingReference),
					"ProcessGroup", "VerifyCanDelete", "boundary connection check")
			}
		}
	}
	return nil
}
