package flowregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/natsclient"
	"github.com/c360/flowgroup/versioned"
)

// KVRegistry stores versioned flow snapshots in a NATS JetStream KV bucket.
// Each flow has a metadata key tracking its version count and one key per
// version holding the snapshot contents. Versions are immutable once
// written.
type KVRegistry struct {
	kv *natsclient.KVStore
}

// NewKVRegistry creates a registry over an existing KV bucket
func NewKVRegistry(bucket jetstream.KeyValue) *KVRegistry {
	return &KVRegistry{kv: natsclient.NewKVStore(bucket)}
}

// NewKVRegistryBucket creates the registry's KV bucket via the client and
// returns a registry over it
func NewKVRegistryBucket(ctx context.Context, client *natsclient.Client, bucketName string) (*KVRegistry, error) {
	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: "Versioned flow snapshots",
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "KVRegistry", "NewKVRegistryBucket", "create KV bucket")
	}
	return &KVRegistry{kv: client.NewKVStore(bucket)}, nil
}

func metaKey(bucketID, flowID string) string {
	return fmt.Sprintf("flow.%s.%s.meta", sanitize(bucketID), sanitize(flowID))
}

func versionKey(bucketID, flowID string, version int64) string {
	return fmt.Sprintf("flow.%s.%s.v%d", sanitize(bucketID), sanitize(flowID), version)
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

// FlowContents fetches the snapshot for a specific version of a flow
func (r *KVRegistry) FlowContents(ctx context.Context, bucketID, flowID string, version int64) (*versioned.ExternalFlow, error) {
	entry, err := r.kv.Get(ctx, versionKey(bucketID, flowID, version))
	if err != nil {
		if err == natsclient.ErrKVKeyNotFound {
			return nil, errors.WrapInvalid(
				fmt.Errorf("version %d: %w", version, errors.ErrVersionNotFound),
				"KVRegistry", "FlowContents", "version lookup")
		}
		return nil, errors.WrapTransient(err, "KVRegistry", "FlowContents", "read snapshot")
	}

	var contents versioned.ProcessGroup
	if err := json.Unmarshal(entry.Value, &contents); err != nil {
		return nil, errors.WrapFatal(err, "KVRegistry", "FlowContents", "unmarshal snapshot")
	}

	return &versioned.ExternalFlow{
		Metadata: versioned.FlowMetadata{BucketID: bucketID, FlowID: flowID, Version: version},
		Contents: contents,
	}, nil
}

// VersionedFlow fetches a flow's metadata including its version count
func (r *KVRegistry) VersionedFlow(ctx context.Context, bucketID, flowID string) (*VersionedFlow, error) {
	entry, err := r.kv.Get(ctx, metaKey(bucketID, flowID))
	if err != nil {
		if err == natsclient.ErrKVKeyNotFound {
			return nil, errors.WrapInvalid(errors.ErrFlowNotFound, "KVRegistry", "VersionedFlow", "flow lookup")
		}
		return nil, errors.WrapTransient(err, "KVRegistry", "VersionedFlow", "read metadata")
	}

	var info VersionedFlow
	if err := json.Unmarshal(entry.Value, &info); err != nil {
		return nil, errors.WrapFatal(err, "KVRegistry", "VersionedFlow", "unmarshal metadata")
	}
	return &info, nil
}

// RegisterFlowSnapshot stores a snapshot as the next version of a flow. The
// metadata key is advanced with compare-and-swap so concurrent writers from
// different nodes cannot claim the same version number.
func (r *KVRegistry) RegisterFlowSnapshot(ctx context.Context, bucketID, flowID, flowName string, contents versioned.ProcessGroup) (int64, error) {
	var version int64

	err := r.kv.Modify(ctx, metaKey(bucketID, flowID), func(current []byte) ([]byte, error) {
		info := VersionedFlow{BucketID: bucketID, FlowID: flowID, Name: flowName}
		if current != nil {
			if err := json.Unmarshal(current, &info); err != nil {
				return nil, fmt.Errorf("unmarshal flow metadata: %w", err)
			}
		}
		info.VersionCount++
		version = info.VersionCount
		return json.Marshal(info)
	})
	if err != nil {
		return 0, errors.WrapTransient(err, "KVRegistry", "RegisterFlowSnapshot", "advance version count")
	}

	data, err := json.Marshal(contents)
	if err != nil {
		return 0, errors.WrapFatal(err, "KVRegistry", "RegisterFlowSnapshot", "marshal snapshot")
	}
	if _, err := r.kv.Create(ctx, versionKey(bucketID, flowID, version), data); err != nil {
		return 0, errors.WrapTransient(err, "KVRegistry", "RegisterFlowSnapshot", "write snapshot")
	}

	return version, nil
}
