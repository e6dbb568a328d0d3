// Package flowgroup models a dataflow as a tree of process groups: each
// group exclusively owns its processors, ports, funnels, labels, connections,
// controller services and sub-groups, and enforces the structural, lifecycle
// and version-control rules that keep the flow consistent.
//
// # Architecture
//
// The module splits the flow model from its collaborators:
//
//	┌─────────────────────────────────────┐
//	│          group.ProcessGroup         │  ownership, topology,
//	│  (registry, lifecycle, snippets,    │  lifecycle gating,
//	│   concurrency gates, data valve,    │  version control
//	│   version-control synchronizer)     │
//	└─────────────────────────────────────┘
//	           ↓ delegates to
//	┌─────────────────────────────────────┐
//	│     component.Scheduler (external)  │  scheduling authority
//	│     flowmanager (global index)      │  ID → component lookup
//	│     state.Provider                  │  durable counters/valve state
//	│     flowregistry.Client             │  versioned flow snapshots
//	└─────────────────────────────────────┘
//	           ↓ persisted in
//	┌─────────────────────────────────────┐
//	│       NATS JetStream KV             │  state bucket +
//	│       (natsclient wrapper)          │  registry bucket
//	└─────────────────────────────────────┘
//
// The group model never schedules work itself: every start, stop and
// termination is validated against the model's invariants and then handed to
// the Scheduler. Likewise it never calls the flow registry on the mutation
// path; synchronization is explicit and staleness is decided by the
// background poller.
//
// # Version control
//
// A group may be bound to a versioned flow in a registry. The versioned
// package holds the snapshot data model and a structural diff that ignores
// environmental fields (canvas positions, instance IDs), so two
// installations of the same flow compare equal. The synchronizer applies a
// registry snapshot to a live group, instantiating, updating and removing
// tracked components while preserving untracked local additions.
//
// # Entry point
//
// cmd/flowgroupd wires the engine: NATS connection, KV-backed state and
// registry, prometheus metrics, health endpoint and the registry poller.
package flowgroup
