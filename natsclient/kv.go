package natsclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/flowgroup/pkg/retry"
)

// KV error variables distinguish the conditions callers branch on
var (
	// ErrKVKeyNotFound indicates the key does not exist in the bucket
	ErrKVKeyNotFound = errors.New("kv key not found")
	// ErrKVKeyExists indicates a create collided with an existing key
	ErrKVKeyExists = errors.New("kv key already exists")
	// ErrKVRevisionMismatch indicates a CAS update lost the race
	ErrKVRevisionMismatch = errors.New("kv revision mismatch")
)

// KVEntry wraps a KV entry with its revision for CAS operations
type KVEntry struct {
	Key      string
	Value    []byte
	Revision uint64
}

// KVOptions configures KV operation behavior
type KVOptions struct {
	MaxRetries int           // Maximum CAS retry attempts
	RetryDelay time.Duration // Initial delay between retries
	Timeout    time.Duration // Per-operation timeout
}

// DefaultKVOptions returns defaults tuned for the low-contention state and
// registry buckets
func DefaultKVOptions() KVOptions {
	return KVOptions{
		MaxRetries: 5,
		RetryDelay: 10 * time.Millisecond,
		Timeout:    5 * time.Second,
	}
}

// KVStore provides high-level KV operations with built-in CAS support
type KVStore struct {
	bucket  jetstream.KeyValue
	options KVOptions
}

// NewKVStore creates a KV store over the given bucket
func (c *Client) NewKVStore(bucket jetstream.KeyValue, opts ...func(*KVOptions)) *KVStore {
	options := DefaultKVOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &KVStore{bucket: bucket, options: options}
}

// NewKVStore creates a KV store without a client, for callers that already
// hold a bucket handle
func NewKVStore(bucket jetstream.KeyValue) *KVStore {
	return &KVStore{bucket: bucket, options: DefaultKVOptions()}
}

func (kv *KVStore) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if kv.options.Timeout > 0 {
		return context.WithTimeout(ctx, kv.options.Timeout)
	}
	return ctx, func() {}
}

// Get retrieves a value with its revision for CAS operations
func (kv *KVStore) Get(ctx context.Context, key string) (*KVEntry, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	entry, err := kv.bucket.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrKVKeyNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}

	return &KVEntry{Key: key, Value: entry.Value(), Revision: entry.Revision()}, nil
}

// Put creates or updates a key without revision check (last writer wins)
func (kv *KVStore) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Put(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("kv put %s: %w", key, err)
	}
	return rev, nil
}

// Create only creates if the key doesn't exist
func (kv *KVStore) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Create(ctx, key, value)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return 0, ErrKVKeyExists
		}
		return 0, fmt.Errorf("kv create %s: %w", key, err)
	}
	return rev, nil
}

// Update performs a compare-and-swap write at the given revision
func (kv *KVStore) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Update(ctx, key, value, revision)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return 0, ErrKVRevisionMismatch
		}
		return 0, fmt.Errorf("kv update %s: %w", key, err)
	}
	return rev, nil
}

// Delete removes a key
func (kv *KVStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	if err := kv.bucket.Delete(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return ErrKVNotFoundOrNil(err)
		}
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// ErrKVNotFoundOrNil maps a jetstream not-found error onto the package
// error; deleting a missing key is not a failure for our callers
func ErrKVNotFoundOrNil(err error) error {
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Keys lists all keys in the bucket. An empty bucket returns an empty slice.
func (kv *KVStore) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	keys, err := kv.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	return keys, nil
}

// Modify applies fn to the current value of key and writes the result with
// CAS, retrying on revision conflicts. A missing key presents fn with nil.
func (kv *KVStore) Modify(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	cfg := retry.Config{
		MaxAttempts:  kv.options.MaxRetries,
		InitialDelay: kv.options.RetryDelay,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}

	return retry.Do(ctx, cfg, func() error {
		entry, err := kv.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrKVKeyNotFound) {
			return err
		}

		var current []byte
		var revision uint64
		if entry != nil {
			current = entry.Value
			revision = entry.Revision
		}

		next, err := fn(current)
		if err != nil {
			return retry.NonRetryable(err)
		}

		if entry == nil {
			_, err = kv.Create(ctx, key, next)
			if errors.Is(err, ErrKVKeyExists) {
				return ErrKVRevisionMismatch // Raced with another creator, retry
			}
			return err
		}

		_, err = kv.Update(ctx, key, next, revision)
		return err
	})
}
