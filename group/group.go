package group

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/config"
	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/flowregistry"
	"github.com/c360/flowgroup/state"
	"github.com/c360/flowgroup/types"
)

// ControllerServiceProvider performs bulk enablement of controller services.
// The default implementation flips service states directly; richer
// implementations coordinate with the extension layer.
type ControllerServiceProvider interface {
	EnableControllerService(service *component.ControllerServiceNode) error
	DisableControllerService(service *component.ControllerServiceNode) error
}

// Dependencies carries the collaborators injected into every process group.
// All groups of one flow share the same set.
type Dependencies struct {
	Scheduler       component.Scheduler
	FlowManager     component.FlowManager
	StateProvider   state.Provider
	RegistryClient  flowregistry.Client
	ServiceProvider ControllerServiceProvider
	Logger          *slog.Logger
	Metrics         *Metrics
	Defaults        config.Defaults
}

// ProcessGroup is the central entity of the flow model. It exclusively owns
// its direct children, keyed by identifier, and forms a rooted tree with
// its sub-groups.
type ProcessGroup struct {
	id string

	mu sync.RWMutex

	name     string
	comments string
	position types.Position

	// Group defaults, nil means inherit from the nearest ancestor that
	// sets the value, or the system defaults at the root
	defaultFlowFileExpiration            *time.Duration
	defaultBackPressureObjectThreshold   *int64
	defaultBackPressureDataSizeThreshold *int64

	parent atomic.Pointer[ProcessGroup]

	processors         map[string]*component.ProcessorNode
	inputPorts         map[string]*component.Port
	outputPorts        map[string]*component.Port
	funnels            map[string]*component.Funnel
	connections        map[string]*component.Connection
	labels             map[string]*component.Label
	templates          map[string]*component.Template
	controllerServices map[string]*component.ControllerServiceNode
	groups             map[string]*ProcessGroup

	flowFileConcurrency    types.FlowFileConcurrency
	flowFileOutboundPolicy types.FlowFileOutboundPolicy
	gate                   FlowFileGate
	batchCounts            BatchCounts
	valve                  *DataValve

	versionControl      atomic.Pointer[VersionControlInformation]
	vcFields            versionControlFields
	versionedComponentID atomic.Pointer[string]

	deps Dependencies
}

// NewProcessGroup creates a process group with all collaborators injected.
// The group starts empty, with unbounded FlowFile concurrency and
// stream-when-available outbound policy. A group becomes the root by never
// being added to a parent.
func NewProcessGroup(id, name string, deps Dependencies) *ProcessGroup {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ServiceProvider == nil {
		deps.ServiceProvider = directServiceProvider{}
	}

	pg := &ProcessGroup{
		id:                     id,
		name:                   name,
		processors:             make(map[string]*component.ProcessorNode),
		inputPorts:             make(map[string]*component.Port),
		outputPorts:            make(map[string]*component.Port),
		funnels:                make(map[string]*component.Funnel),
		connections:            make(map[string]*component.Connection),
		labels:                 make(map[string]*component.Label),
		templates:              make(map[string]*component.Template),
		controllerServices:     make(map[string]*component.ControllerServiceNode),
		groups:                 make(map[string]*ProcessGroup),
		flowFileConcurrency:    types.ConcurrencyUnbounded,
		flowFileOutboundPolicy: types.StreamWhenAvailable,
		gate:                   unboundedFlowFileGate{},
		batchCounts:            noOpBatchCounts{},
		deps:                   deps,
	}

	var valveState state.Manager
	if deps.StateProvider != nil {
		valveState = deps.StateProvider.StateManager(id + "-DataValve")
	}
	pg.valve = newDataValve(pg, valveState, deps.Logger)

	return pg
}

// Identifier returns the group's immutable ID
func (pg *ProcessGroup) Identifier() string { return pg.id }

// GroupName returns the group's display name
func (pg *ProcessGroup) GroupName() string {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.name
}

// SetGroupName renames the group. Blank names are rejected.
func (pg *ProcessGroup) SetGroupName(name string) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ProcessGroup", "SetGroupName", "non-blank name check")
	}
	pg.mu.Lock()
	pg.name = name
	pg.mu.Unlock()
	pg.OnComponentModified()
	return nil
}

// Comments returns the group's free-text comments
func (pg *ProcessGroup) Comments() string {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.comments
}

// SetComments updates the group's free-text comments
func (pg *ProcessGroup) SetComments(comments string) {
	pg.mu.Lock()
	pg.comments = comments
	pg.mu.Unlock()
	pg.OnComponentModified()
}

// Position returns the group's canvas position
func (pg *ProcessGroup) Position() types.Position {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.position
}

// SetPosition moves the group on the canvas. Position is environmental and
// does not mark the group modified.
func (pg *ProcessGroup) SetPosition(pos types.Position) {
	pg.mu.Lock()
	pg.position = pos
	pg.mu.Unlock()
}

// Parent returns the owning group, nil for the root
func (pg *ProcessGroup) Parent() *ProcessGroup {
	return pg.parent.Load()
}

// IsRootGroup reports whether the group has no parent
func (pg *ProcessGroup) IsRootGroup() bool {
	return pg.parent.Load() == nil
}

// DefaultFlowFileExpiration returns the expiration new connections inherit:
// the group's own value, the nearest ancestor's, or the system default.
func (pg *ProcessGroup) DefaultFlowFileExpiration() time.Duration {
	for g := pg; g != nil; g = g.Parent() {
		g.mu.RLock()
		value := g.defaultFlowFileExpiration
		g.mu.RUnlock()
		if value != nil {
			return *value
		}
	}
	return pg.deps.Defaults.FlowFileExpiration
}

// SetDefaultFlowFileExpiration sets the group's own default; nil reverts to
// inheritance
func (pg *ProcessGroup) SetDefaultFlowFileExpiration(expiration *time.Duration) {
	pg.mu.Lock()
	pg.defaultFlowFileExpiration = expiration
	pg.mu.Unlock()
	pg.OnComponentModified()
}

// DefaultBackPressureObjectThreshold returns the object-count threshold new
// connections inherit
func (pg *ProcessGroup) DefaultBackPressureObjectThreshold() int64 {
	for g := pg; g != nil; g = g.Parent() {
		g.mu.RLock()
		value := g.defaultBackPressureObjectThreshold
		g.mu.RUnlock()
		if value != nil {
			return *value
		}
	}
	return pg.deps.Defaults.BackPressureObjectThreshold
}

// SetDefaultBackPressureObjectThreshold sets the group's own default; nil
// reverts to inheritance
func (pg *ProcessGroup) SetDefaultBackPressureObjectThreshold(threshold *int64) {
	pg.mu.Lock()
	pg.defaultBackPressureObjectThreshold = threshold
	pg.mu.Unlock()
	pg.OnComponentModified()
}

// DefaultBackPressureDataSizeThreshold returns the data-size threshold new
// connections inherit, in bytes
func (pg *ProcessGroup) DefaultBackPressureDataSizeThreshold() int64 {
	for g := pg; g != nil; g = g.Parent() {
		g.mu.RLock()
		value := g.defaultBackPressureDataSizeThreshold
		g.mu.RUnlock()
		if value != nil {
			return *value
		}
	}
	return pg.deps.Defaults.BackPressureDataSizeThreshold
}

// SetDefaultBackPressureDataSizeThreshold sets the group's own default; nil
// reverts to inheritance
func (pg *ProcessGroup) SetDefaultBackPressureDataSizeThreshold(threshold *int64) {
	pg.mu.Lock()
	pg.defaultBackPressureDataSizeThreshold = threshold
	pg.mu.Unlock()
	pg.OnComponentModified()
}

// VersionedComponentID returns the group's identifier within its parent's
// versioned snapshot, used for diffing only
func (pg *ProcessGroup) VersionedComponentID() string {
	if p := pg.versionedComponentID.Load(); p != nil {
		return *p
	}
	return ""
}

// SetVersionedComponentID records the group's snapshot identifier
func (pg *ProcessGroup) SetVersionedComponentID(id string) {
	pg.versionedComponentID.Store(&id)
}

// isOwner reports whether candidate is this group or a descendant of it,
// walking the parent chain without taking any group lock
func (pg *ProcessGroup) isOwner(candidate component.FlowGroup) bool {
	if candidate == nil {
		return false
	}
	concrete, ok := candidate.(*ProcessGroup)
	if !ok {
		return candidate.Identifier() == pg.id
	}
	for g := concrete; g != nil; g = g.Parent() {
		if g.id == pg.id {
			return true
		}
	}
	return false
}

// directServiceProvider flips controller-service states with no external
// coordination
type directServiceProvider struct{}

func (directServiceProvider) EnableControllerService(service *component.ControllerServiceNode) error {
	service.SetState(component.ServiceEnabled)
	return nil
}

func (directServiceProvider) DisableControllerService(service *component.ControllerServiceNode) error {
	service.SetState(component.ServiceDisabled)
	return nil
}
