// Package versioned defines the snapshot representation of a process group
// tree as stored in a flow registry, and the structural diff used to decide
// whether a live group has diverged from its synchronized snapshot.
package versioned

import "github.com/c360/flowgroup/types"

// ExternalFlow is a complete registry snapshot: metadata identifying the
// (bucket, flow, version) tuple plus the mapped group contents.
type ExternalFlow struct {
	Metadata FlowMetadata `json:"metadata"`
	Contents ProcessGroup `json:"contents"`
}

// FlowMetadata identifies where a snapshot lives in the registry
type FlowMetadata struct {
	BucketID string `json:"bucket_id"`
	FlowID   string `json:"flow_id"`
	Version  int64  `json:"version"`
	Author   string `json:"author,omitempty"`
	Comments string `json:"comments,omitempty"`
}

// FlowCoordinates bind a nested group to its own registry-tracked flow
type FlowCoordinates struct {
	RegistryID string `json:"registry_id"`
	BucketID   string `json:"bucket_id"`
	FlowID     string `json:"flow_id"`
	Version    int64  `json:"version"`
}

// ProcessGroup is the snapshot form of a group and its subtree
type ProcessGroup struct {
	Identifier         string         `json:"identifier"`
	InstanceIdentifier string         `json:"instance_identifier,omitempty"`
	Name               string         `json:"name"`
	Comments           string         `json:"comments,omitempty"`
	Position           types.Position `json:"position"`

	FlowFileConcurrency    types.FlowFileConcurrency    `json:"flowfile_concurrency,omitempty"`
	FlowFileOutboundPolicy types.FlowFileOutboundPolicy `json:"flowfile_outbound_policy,omitempty"`

	DefaultFlowFileExpiration            string `json:"default_flowfile_expiration,omitempty"`
	DefaultBackPressureObjectThreshold   *int64 `json:"default_back_pressure_object_threshold,omitempty"`
	DefaultBackPressureDataSizeThreshold *int64 `json:"default_back_pressure_data_size_threshold,omitempty"`

	VersionedFlowCoordinates *FlowCoordinates `json:"versioned_flow_coordinates,omitempty"`

	Processors         []Processor         `json:"processors,omitempty"`
	InputPorts         []Port              `json:"input_ports,omitempty"`
	OutputPorts        []Port              `json:"output_ports,omitempty"`
	Funnels            []Funnel            `json:"funnels,omitempty"`
	Labels             []Label             `json:"labels,omitempty"`
	Connections        []Connection        `json:"connections,omitempty"`
	ControllerServices []ControllerService `json:"controller_services,omitempty"`
	ProcessGroups      []ProcessGroup      `json:"process_groups,omitempty"`
}

// Processor is the snapshot form of a processor node
type Processor struct {
	Identifier         string            `json:"identifier"`
	InstanceIdentifier string            `json:"instance_identifier,omitempty"`
	Name               string            `json:"name"`
	Type               string            `json:"type"`
	Position           types.Position    `json:"position"`
	Comments           string            `json:"comments,omitempty"`
	Properties         map[string]string `json:"properties,omitempty"`
	ScheduledState     string            `json:"scheduled_state,omitempty"`
}

// Port is the snapshot form of an input or output port
type Port struct {
	Identifier         string         `json:"identifier"`
	InstanceIdentifier string         `json:"instance_identifier,omitempty"`
	Name               string         `json:"name"`
	Type               types.PortType `json:"type"`
	Position           types.Position `json:"position"`
}

// Funnel is the snapshot form of a funnel
type Funnel struct {
	Identifier         string         `json:"identifier"`
	InstanceIdentifier string         `json:"instance_identifier,omitempty"`
	Position           types.Position `json:"position"`
}

// Label is the snapshot form of a label
type Label struct {
	Identifier         string         `json:"identifier"`
	InstanceIdentifier string         `json:"instance_identifier,omitempty"`
	Text               string         `json:"text"`
	Position           types.Position `json:"position"`
	Width              float64        `json:"width,omitempty"`
	Height             float64        `json:"height,omitempty"`
}

// ConnectableReference names a connection endpoint within a snapshot
type ConnectableReference struct {
	ID      string                `json:"id"`
	Type    types.ConnectableType `json:"type"`
	GroupID string                `json:"group_id"`
}

// Connection is the snapshot form of a connection
type Connection struct {
	Identifier         string               `json:"identifier"`
	InstanceIdentifier string               `json:"instance_identifier,omitempty"`
	Name               string               `json:"name,omitempty"`
	Source             ConnectableReference `json:"source"`
	Destination        ConnectableReference `json:"destination"`

	BackPressureObjectThreshold   int64  `json:"back_pressure_object_threshold,omitempty"`
	BackPressureDataSizeThreshold int64  `json:"back_pressure_data_size_threshold,omitempty"`
	FlowFileExpiration            string `json:"flowfile_expiration,omitempty"`
}

// ControllerService is the snapshot form of a controller service
type ControllerService struct {
	Identifier         string            `json:"identifier"`
	InstanceIdentifier string            `json:"instance_identifier,omitempty"`
	Name               string            `json:"name"`
	Type               string            `json:"type"`
	Comments           string            `json:"comments,omitempty"`
	Properties         map[string]string `json:"properties,omitempty"`
}
