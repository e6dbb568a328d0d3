package group

import (
	"sort"

	"github.com/google/uuid"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/types"
	"github.com/c360/flowgroup/versioned"
)

// generateVersionedComponentID derives a stable snapshot identifier from a
// live component ID. The derivation is deterministic so two installations of
// the same flow fragment produce matching snapshot identifiers.
func generateVersionedComponentID(instanceID string) string {
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(instanceID)).String()
}

type versionedIDCarrier interface {
	Identifier() string
	VersionedComponentID() string
}

func versionedID(c versionedIDCarrier) string {
	if vid := c.VersionedComponentID(); vid != "" {
		return vid
	}
	return generateVersionedComponentID(c.Identifier())
}

// MapToVersionedGroup maps the group's current contents into snapshot form.
// Components keep their assigned snapshot identifiers; components never
// synchronized get deterministic derived ones. The mapping is used both for
// committing a new version to the registry and for diffing against the
// synchronized snapshot.
func (pg *ProcessGroup) MapToVersionedGroup() versioned.ProcessGroup {
	pg.mu.RLock()
	defer pg.mu.RUnlock()
	return pg.mapLocked()
}

func (pg *ProcessGroup) mapLocked() versioned.ProcessGroup {
	mapped := versioned.ProcessGroup{
		Identifier:             versionedID(pg),
		InstanceIdentifier:     pg.id,
		Name:                   pg.name,
		Comments:               pg.comments,
		Position:               pg.position,
		FlowFileConcurrency:    pg.flowFileConcurrency,
		FlowFileOutboundPolicy: pg.flowFileOutboundPolicy,
	}

	if pg.defaultFlowFileExpiration != nil {
		mapped.DefaultFlowFileExpiration = pg.defaultFlowFileExpiration.String()
	}
	if pg.defaultBackPressureObjectThreshold != nil {
		value := *pg.defaultBackPressureObjectThreshold
		mapped.DefaultBackPressureObjectThreshold = &value
	}
	if pg.defaultBackPressureDataSizeThreshold != nil {
		value := *pg.defaultBackPressureDataSizeThreshold
		mapped.DefaultBackPressureDataSizeThreshold = &value
	}

	for _, processor := range sortedValues(pg.processors) {
		mapped.Processors = append(mapped.Processors, mapProcessor(processor))
	}
	for _, port := range sortedPorts(pg.inputPorts) {
		mapped.InputPorts = append(mapped.InputPorts, mapPort(port))
	}
	for _, port := range sortedPorts(pg.outputPorts) {
		mapped.OutputPorts = append(mapped.OutputPorts, mapPort(port))
	}
	for _, funnel := range sortedValues(pg.funnels) {
		mapped.Funnels = append(mapped.Funnels, versioned.Funnel{
			Identifier:         versionedID(funnel),
			InstanceIdentifier: funnel.Identifier(),
			Position:           funnel.Position(),
		})
	}
	for _, label := range sortedValues(pg.labels) {
		width, height := label.Dimensions()
		mapped.Labels = append(mapped.Labels, versioned.Label{
			Identifier:         versionedID(label),
			InstanceIdentifier: label.Identifier(),
			Text:               label.Text(),
			Position:           label.Position(),
			Width:              width,
			Height:             height,
		})
	}
	for _, conn := range sortedValues(pg.connections) {
		mapped.Connections = append(mapped.Connections, mapConnection(conn))
	}
	for _, service := range sortedValues(pg.controllerServices) {
		mapped.ControllerServices = append(mapped.ControllerServices, versioned.ControllerService{
			Identifier:         versionedID(service),
			InstanceIdentifier: service.Identifier(),
			Name:               service.Name(),
			Type:               service.ServiceType(),
			Comments:           service.Comments(),
			Properties:         service.Properties(),
		})
	}

	for _, child := range sortedValues(pg.groups) {
		childMapped := child.MapToVersionedGroup()
		if vci := child.VersionControlInformation(); vci != nil {
			childMapped.VersionedFlowCoordinates = &versioned.FlowCoordinates{
				RegistryID: vci.RegistryID,
				BucketID:   vci.BucketID,
				FlowID:     vci.FlowID,
				Version:    vci.Version,
			}
		}
		mapped.ProcessGroups = append(mapped.ProcessGroups, childMapped)
	}

	return mapped
}

func mapProcessor(processor *component.ProcessorNode) versioned.Processor {
	scheduledState := "enabled"
	if processor.ScheduledState() == types.StateDisabled {
		scheduledState = "disabled"
	}
	return versioned.Processor{
		Identifier:         versionedID(processor),
		InstanceIdentifier: processor.Identifier(),
		Name:               processor.ComponentName(),
		Type:               processor.ProcessorType(),
		Position:           processor.Position(),
		Comments:           processor.Comments(),
		Properties:         processor.Properties(),
		ScheduledState:     scheduledState,
	}
}

func mapPort(port *component.Port) versioned.Port {
	return versioned.Port{
		Identifier:         versionedID(port),
		InstanceIdentifier: port.Identifier(),
		Name:               port.ComponentName(),
		Type:               port.PortType(),
		Position:           port.Position(),
	}
}

func mapConnection(conn *component.Connection) versioned.Connection {
	queue := conn.Queue()
	return versioned.Connection{
		Identifier:         versionedID(conn),
		InstanceIdentifier: conn.Identifier(),
		Name:               conn.Name(),
		Source:             mapEndpoint(conn.Source()),
		Destination:        mapEndpoint(conn.Destination()),

		BackPressureObjectThreshold:   queue.BackPressureObjectThreshold(),
		BackPressureDataSizeThreshold: queue.BackPressureDataSizeThreshold(),
		FlowFileExpiration:            queue.Expiration().String(),
	}
}

func mapEndpoint(endpoint component.Connectable) versioned.ConnectableReference {
	ref := versioned.ConnectableReference{
		Type: endpoint.ConnectableType(),
	}

	if carrier, ok := endpoint.(versionedIDCarrier); ok {
		ref.ID = versionedID(carrier)
	} else {
		ref.ID = generateVersionedComponentID(endpoint.Identifier())
	}

	if group := endpoint.Group(); group != nil {
		if concrete, ok := group.(*ProcessGroup); ok {
			ref.GroupID = versionedID(concrete)
		} else {
			ref.GroupID = generateVersionedComponentID(group.Identifier())
		}
	}
	return ref
}

// sortedValues returns the values of an ID-keyed map ordered by key
func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]T, 0, len(m))
	for _, k := range keys {
		result = append(result, m[k])
	}
	return result
}
