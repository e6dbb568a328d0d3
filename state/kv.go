package state

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/flowgroup/errors"
	"github.com/c360/flowgroup/natsclient"
)

// KVProvider persists component state in a NATS JetStream KV bucket, one
// key per component, JSON-encoded. This is the provider production
// deployments use so batch counts and valve state survive restarts.
type KVProvider struct {
	kv *natsclient.KVStore
}

// NewKVProvider creates a provider over the given bucket
func NewKVProvider(bucket jetstream.KeyValue) *KVProvider {
	return &KVProvider{kv: natsclient.NewKVStore(bucket)}
}

// StateManager returns the KV-backed manager scoped to the component
func (p *KVProvider) StateManager(componentID string) Manager {
	return &kvManager{kv: p.kv, key: sanitizeKey(componentID)}
}

type kvManager struct {
	kv  *natsclient.KVStore
	key string
}

func (m *kvManager) GetState(ctx context.Context) (map[string]string, error) {
	entry, err := m.kv.Get(ctx, m.key)
	if err != nil {
		if err == natsclient.ErrKVKeyNotFound {
			return map[string]string{}, nil
		}
		return nil, errors.WrapTransient(err, "kvManager", "GetState", "read state")
	}

	var state map[string]string
	if err := json.Unmarshal(entry.Value, &state); err != nil {
		return nil, errors.WrapFatal(err, "kvManager", "GetState", "unmarshal state")
	}
	if state == nil {
		state = map[string]string{}
	}
	return state, nil
}

func (m *kvManager) SetState(ctx context.Context, state map[string]string) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.WrapFatal(err, "kvManager", "SetState", "marshal state")
	}
	if _, err := m.kv.Put(ctx, m.key, data); err != nil {
		return errors.WrapTransient(err, "kvManager", "SetState", "write state")
	}
	return nil
}

func (m *kvManager) Clear(ctx context.Context) error {
	if err := m.kv.Delete(ctx, m.key); err != nil {
		return errors.WrapTransient(err, "kvManager", "Clear", "delete state")
	}
	return nil
}

// sanitizeKey maps component IDs onto the KV key alphabet. NATS KV keys may
// not contain spaces; IDs are UUIDs in practice but user-supplied IDs are
// tolerated.
func sanitizeKey(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
