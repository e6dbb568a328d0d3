// Package component defines the component kinds a process group can own:
// processors, ports, funnels, connections and controller services, together
// with the Connectable capability they share and the collaborator contracts
// (Scheduler, FlowManager) that act on them.
//
// Components are pure in-memory structures. They hold a non-owning
// back-reference to their owning group and never outlive it; the owning
// group's registry is the single source of truth for membership.
package component
