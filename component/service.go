package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/flowgroup/errors"
)

// ControllerServiceState is the enablement state of a controller service
type ControllerServiceState string

const (
	// ServiceDisabled means the service may not be referenced at runtime
	ServiceDisabled ControllerServiceState = "disabled"
	// ServiceEnabled means the service is available to referencing components
	ServiceEnabled ControllerServiceState = "enabled"
)

// ControllerServiceNode is a shared service owned by a process group and
// referenced by components in that group or its descendants. Reference
// tracking is updated transactionally alongside the add/remove of the
// referencing component so the index never points at a removed component.
type ControllerServiceNode struct {
	id          string
	serviceType string

	mu          sync.RWMutex
	name        string
	comments    string
	state       ControllerServiceState
	group       FlowGroup
	versionedID string
	properties  map[string]string
	references  map[string]struct{} // IDs of referencing components
}

// NewControllerServiceNode creates a disabled controller service
func NewControllerServiceNode(id, name, serviceType string) *ControllerServiceNode {
	return &ControllerServiceNode{
		id:          id,
		serviceType: serviceType,
		name:        name,
		state:       ServiceDisabled,
		properties:  make(map[string]string),
		references:  make(map[string]struct{}),
	}
}

// Identifier returns the service's unique ID
func (s *ControllerServiceNode) Identifier() string { return s.id }

// ServiceType returns the name of the service implementation
func (s *ControllerServiceNode) ServiceType() string { return s.serviceType }

// Name returns the service's display name
func (s *ControllerServiceNode) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// SetName renames the service
func (s *ControllerServiceNode) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// Comments returns the service's free-text comments
func (s *ControllerServiceNode) Comments() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comments
}

// SetComments updates the service's free-text comments
func (s *ControllerServiceNode) SetComments(comments string) {
	s.mu.Lock()
	s.comments = comments
	s.mu.Unlock()
}

// State returns the service's enablement state
func (s *ControllerServiceNode) State() ControllerServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState transitions the service's enablement state
func (s *ControllerServiceNode) SetState(state ControllerServiceState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Group returns the group that owns the service
func (s *ControllerServiceNode) Group() FlowGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.group
}

// SetGroup re-parents the service; called only by the owning group under its
// write lock
func (s *ControllerServiceNode) SetGroup(group FlowGroup) {
	s.mu.Lock()
	s.group = group
	s.mu.Unlock()
}

// VersionedComponentID returns the service's snapshot identifier
func (s *ControllerServiceNode) VersionedComponentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionedID
}

// SetVersionedComponentID records the service's snapshot identifier
func (s *ControllerServiceNode) SetVersionedComponentID(id string) {
	s.mu.Lock()
	s.versionedID = id
	s.mu.Unlock()
}

// Properties returns a copy of the service's configuration properties
func (s *ControllerServiceNode) Properties() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]string, len(s.properties))
	for k, v := range s.properties {
		result[k] = v
	}
	return result
}

// SetProperties replaces the service's configuration properties
func (s *ControllerServiceNode) SetProperties(props map[string]string) {
	s.mu.Lock()
	s.properties = make(map[string]string, len(props))
	for k, v := range props {
		s.properties[k] = v
	}
	s.mu.Unlock()
}

// AddReference records that the given component references this service
func (s *ControllerServiceNode) AddReference(componentID string) {
	s.mu.Lock()
	s.references[componentID] = struct{}{}
	s.mu.Unlock()
}

// RemoveReference drops the given component from the reference index
func (s *ControllerServiceNode) RemoveReference(componentID string) {
	s.mu.Lock()
	delete(s.references, componentID)
	s.mu.Unlock()
}

// References returns the IDs of components referencing this service,
// ordered for deterministic iteration.
func (s *ControllerServiceNode) References() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.references))
	for id := range s.references {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VerifyCanDelete rejects deletion while the service is enabled or still
// referenced by any component
func (s *ControllerServiceNode) VerifyCanDelete() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == ServiceEnabled {
		return errors.WrapInvalid(
			fmt.Errorf("controller service %s is enabled", s.id),
			"ControllerServiceNode", "VerifyCanDelete", "disabled state check")
	}
	if len(s.references) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("controller service %s is referenced by %d components: %w", s.id, len(s.references), errors.ErrDanglingReference),
			"ControllerServiceNode", "VerifyCanDelete", "reference check")
	}
	return nil
}
