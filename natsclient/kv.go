package natsclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/plotstream/errors"
	"github.com/c360/plotstream/pkg/retry"
)

// KVEntry wraps a KV entry with its revision
type KVEntry struct {
	Key      string
	Value    []byte
	Revision uint64
}

// KVOptions configures KV operations behavior
type KVOptions struct {
	Timeout    time.Duration // Operation timeout
	RetryQuick bool          // Use quick retry preset for bucket creation
}

// DefaultKVOptions returns sensible defaults
func DefaultKVOptions() KVOptions {
	return KVOptions{
		Timeout:    5 * time.Second,
		RetryQuick: true,
	}
}

// KVStore provides high-level KV operations over one JetStream bucket
type KVStore struct {
	bucket  jetstream.KeyValue
	options KVOptions
	logger  Logger
}

// EnsureKVStore opens (creating if needed) a KV bucket and wraps it.
// Bucket creation can race with server startup, so it retries briefly.
func (c *Client) EnsureKVStore(ctx context.Context, bucket string, opts ...func(*KVOptions)) (*KVStore, error) {
	js := c.JetStream()
	if js == nil {
		return nil, ErrNotConnected
	}

	options := DefaultKVOptions()
	for _, opt := range opts {
		opt(&options)
	}

	retryCfg := retry.DefaultConfig()
	if options.RetryQuick {
		retryCfg = retry.Quick()
	}

	kv, err := retry.DoWithResult(ctx, retryCfg, func() (jetstream.KeyValue, error) {
		created, kerr := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
		if kerr := ctx.Err(); kerr != nil {
			return nil, retry.NonRetryable(kerr)
		}
		return created, kerr
	})
	if err != nil {
		return nil, fmt.Errorf("ensuring KV bucket %s: %w", bucket, err)
	}

	return &KVStore{bucket: kv, options: options, logger: c.logger}, nil
}

// applyTimeout applies the configured timeout to the context if set
func (kv *KVStore) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if kv.options.Timeout > 0 {
		return context.WithTimeout(ctx, kv.options.Timeout)
	}
	return ctx, func() {}
}

// Get retrieves a value with its revision
func (kv *KVStore) Get(ctx context.Context, key string) (*KVEntry, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	entry, err := kv.bucket.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, errors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}

	return &KVEntry{
		Key:      key,
		Value:    entry.Value(),
		Revision: entry.Revision(),
	}, nil
}

// Put creates or updates a key (last writer wins)
func (kv *KVStore) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Put(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("kv put %s: %w", key, err)
	}
	return rev, nil
}

// Delete removes a key
func (kv *KVStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	if err := kv.bucket.Delete(ctx, key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// Keys lists all keys in the bucket. An empty bucket yields an empty slice.
func (kv *KVStore) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	keys, err := kv.bucket.Keys(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	return keys, nil
}
