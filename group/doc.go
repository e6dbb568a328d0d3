// Package group implements the process group: the hierarchical container
// that owns processors, ports, connections, funnels, labels, controller
// services and nested sub-groups, and enforces the structural and
// behavioral invariants of the flow under concurrent mutation.
//
// Each group owns one read/write lock. Read-only accessors take the shared
// mode; every structural mutation takes the exclusive mode for the full
// duration of the mutation including flow-manager notification, so no
// observer can see a half-applied change. Operations spanning multiple
// groups acquire locks outer-group-first.
//
// Scheduling authority lives entirely behind the component.Scheduler
// collaborator; the group only gatekeeps state transitions. Version-control
// state is kept per group and synchronized against an external
// flowregistry.Client.
package group
