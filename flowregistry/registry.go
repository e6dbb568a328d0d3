// Package flowregistry provides the client contract for the external flow
// registry that version-controlled process groups synchronize against, plus
// a NATS JetStream KV backed implementation and an in-memory one for tests.
package flowregistry

import (
	"context"
	"sync"

	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/versioned"
)

// VersionedFlow describes a registry-tracked flow without its contents
type VersionedFlow struct {
	BucketID     string `json:"bucket_id"`
	FlowID       string `json:"flow_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	VersionCount int64  `json:"version_count"`
}

// Registry is one flow registry: a store of versioned flow snapshots
type Registry interface {
	// FlowContents fetches the snapshot for a specific version of a flow
	FlowContents(ctx context.Context, bucketID, flowID string, version int64) (*versioned.ExternalFlow, error)
	// VersionedFlow fetches a flow's metadata including its version count
	VersionedFlow(ctx context.Context, bucketID, flowID string) (*VersionedFlow, error)
	// RegisterFlowSnapshot stores a snapshot as the next version of a flow,
	// creating the flow on first use, and returns the new version number
	RegisterFlowSnapshot(ctx context.Context, bucketID, flowID, flowName string, contents versioned.ProcessGroup) (int64, error)
}

// Client resolves registry identifiers to registries. A registry ID that no
// longer resolves surfaces as a sync failure on any group bound to it.
type Client interface {
	Registry(id string) (Registry, error)
}

// StandardClient is a static Client over a fixed set of registries
type StandardClient struct {
	mu         sync.RWMutex
	registries map[string]Registry
}

// NewStandardClient creates an empty client
func NewStandardClient() *StandardClient {
	return &StandardClient{registries: make(map[string]Registry)}
}

// AddRegistry registers a registry under the given ID
func (c *StandardClient) AddRegistry(id string, registry Registry) {
	c.mu.Lock()
	c.registries[id] = registry
	c.mu.Unlock()
}

// RemoveRegistry drops a registry binding
func (c *StandardClient) RemoveRegistry(id string) {
	c.mu.Lock()
	delete(c.registries, id)
	c.mu.Unlock()
}

// Registry resolves a registry ID
func (c *StandardClient) Registry(id string) (Registry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	registry, ok := c.registries[id]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownRegistry, "StandardClient", "Registry", "registry lookup")
	}
	return registry, nil
}
