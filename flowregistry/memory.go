package flowregistry

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/versioned"
)

// MemoryRegistry is an in-process Registry used in tests
type MemoryRegistry struct {
	mu    sync.RWMutex
	flows map[string]*memoryFlow // keyed by bucketID/flowID
}

type memoryFlow struct {
	info      VersionedFlow
	snapshots map[int64]versioned.ProcessGroup
}

// NewMemoryRegistry creates an empty in-memory registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{flows: make(map[string]*memoryFlow)}
}

func flowKey(bucketID, flowID string) string {
	return bucketID + "/" + flowID
}

// FlowContents fetches the snapshot for a specific version of a flow
func (r *MemoryRegistry) FlowContents(_ context.Context, bucketID, flowID string, version int64) (*versioned.ExternalFlow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, ok := r.flows[flowKey(bucketID, flowID)]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrFlowNotFound, "MemoryRegistry", "FlowContents", "flow lookup")
	}
	contents, ok := flow.snapshots[version]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("version %d: %w", version, errors.ErrVersionNotFound),
			"MemoryRegistry", "FlowContents", "version lookup")
	}

	return &versioned.ExternalFlow{
		Metadata: versioned.FlowMetadata{BucketID: bucketID, FlowID: flowID, Version: version},
		Contents: contents,
	}, nil
}

// VersionedFlow fetches a flow's metadata including its version count
func (r *MemoryRegistry) VersionedFlow(_ context.Context, bucketID, flowID string) (*VersionedFlow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, ok := r.flows[flowKey(bucketID, flowID)]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrFlowNotFound, "MemoryRegistry", "VersionedFlow", "flow lookup")
	}
	info := flow.info
	return &info, nil
}

// RegisterFlowSnapshot stores a snapshot as the next version of a flow
func (r *MemoryRegistry) RegisterFlowSnapshot(_ context.Context, bucketID, flowID, flowName string, contents versioned.ProcessGroup) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := flowKey(bucketID, flowID)
	flow, ok := r.flows[key]
	if !ok {
		flow = &memoryFlow{
			info:      VersionedFlow{BucketID: bucketID, FlowID: flowID, Name: flowName},
			snapshots: make(map[int64]versioned.ProcessGroup),
		}
		r.flows[key] = flow
	}

	flow.info.VersionCount++
	version := flow.info.VersionCount
	flow.snapshots[version] = contents
	return version, nil
}
