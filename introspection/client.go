package introspection

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/plotstream/errors"
	"github.com/c360/plotstream/natsclient"
	"github.com/c360/plotstream/pkg/cache"
	"github.com/c360/plotstream/telemetry"
)

// managerPollInterval is how often WaitForManagers re-reads the registry
const managerPollInterval = 100 * time.Millisecond

// requestTimeout bounds each filter request-reply exchange
const requestTimeout = 5 * time.Second

// catalogTTL bounds how stale a cached catalog read may be. Resolution of a
// freshly registered signal can lag by at most this much.
const catalogTTL = time.Second

// Client implements API over a NATS connection.
type Client struct {
	nc         *natsclient.Client
	kvManagers *natsclient.KVStore
	kvCatalog  *natsclient.KVStore
	catalogs   *cache.TTL[[]string]
}

var _ API = (*Client)(nil)

// NewClient builds an introspection client on an already-connected NATS
// client, opening the manager and catalog buckets.
func NewClient(ctx context.Context, nc *natsclient.Client) (*Client, error) {
	kvManagers, err := nc.EnsureKVStore(ctx, ManagersBucket)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "NewClient", "open managers bucket")
	}
	kvCatalog, err := nc.EnsureKVStore(ctx, CatalogBucket)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "NewClient", "open catalog bucket")
	}
	return &Client{
		nc:         nc,
		kvManagers: kvManagers,
		kvCatalog:  kvCatalog,
		catalogs:   cache.NewTTL[[]string](catalogTTL),
	}, nil
}

// WaitForManagers polls the manager registry until one appears or the
// timeout elapses. An empty result with nil error means the wait expired.
func (c *Client) WaitForManagers(ctx context.Context, timeout time.Duration) ([]string, error) {
	deadline := time.Now().Add(timeout)

	for {
		ids, err := c.kvManagers.Keys(ctx)
		if err != nil {
			return nil, errors.WrapTransient(err, "Client", "WaitForManagers", "list managers")
		}
		if len(ids) > 0 {
			sort.Strings(ids)
			return ids, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}

		wait := managerPollInterval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// catalog fetches and parses a manager's catalog, serving repeated reads
// from a short-lived cache.
func (c *Client) catalog(ctx context.Context, managerID string) ([]string, error) {
	if items, ok := c.catalogs.Get(managerID); ok {
		return items, nil
	}

	entry, err := c.kvCatalog.Get(ctx, managerID)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, errors.WrapTransient(err, "Client", "catalog", "read catalog")
	}

	var items []string
	if err := json.Unmarshal(entry.Value, &items); err != nil {
		return nil, errors.WrapInvalid(err, "Client", "catalog", "parse catalog")
	}
	// Sorted once here; the cached slice is shared across callers and must
	// never be mutated after this point.
	sort.Strings(items)
	c.catalogs.Set(managerID, items)
	return items, nil
}

// IsRegistered reports whether signalID is in the manager's catalog.
func (c *Client) IsRegistered(ctx context.Context, managerID, signalID string) (bool, error) {
	items, err := c.catalog(ctx, managerID)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item == signalID {
			return true, nil
		}
	}
	return false, nil
}

// Items returns the manager's catalog in lexical order. The result is the
// caller's to keep; it never aliases the cache.
func (c *Client) Items(ctx context.Context, managerID string) ([]string, error) {
	items, err := c.catalog(ctx, managerID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	copy(out, items)
	return out, nil
}

// NewFilter asks the manager to create a filter with the given membership.
func (c *Client) NewFilter(ctx context.Context, managerID string, ids []string) (string, string, error) {
	payload, err := json.Marshal(newFilterRequest{IDs: ids})
	if err != nil {
		return "", "", errors.Wrap(err, "Client", "NewFilter", "encode request")
	}

	msg, err := c.request(ctx, newFilterSubject(managerID), payload)
	if err != nil {
		return "", "", errors.WrapTransient(err, "Client", "NewFilter", "filter request")
	}

	var reply newFilterReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return "", "", errors.WrapInvalid(err, "Client", "NewFilter", "decode reply")
	}
	if !reply.OK {
		return "", "", errors.Wrap(
			fmt.Errorf("%w: %s", errors.ErrFilterRejected, reply.Error),
			"Client", "NewFilter", "create filter")
	}
	return reply.FilterID, reply.NotifySubject, nil
}

// UpdateFilter replaces the filter's entire membership set.
func (c *Client) UpdateFilter(ctx context.Context, managerID, filterID string, ids []string) error {
	payload, err := json.Marshal(updateFilterRequest{FilterID: filterID, IDs: ids})
	if err != nil {
		return errors.Wrap(err, "Client", "UpdateFilter", "encode request")
	}
	return c.statusRequest(ctx, updateFilterSubject(managerID), payload, "UpdateFilter")
}

// RemoveFilter deletes the filter.
func (c *Client) RemoveFilter(ctx context.Context, managerID, filterID string) error {
	payload, err := json.Marshal(removeFilterRequest{FilterID: filterID})
	if err != nil {
		return errors.Wrap(err, "Client", "RemoveFilter", "encode request")
	}
	return c.statusRequest(ctx, removeFilterSubject(managerID), payload, "RemoveFilter")
}

// SubscribeUpdates decodes snapshots off a notify subject. Decode failures
// are dropped; the bus delivers messages on one goroutine per subscription,
// so fn sees snapshots one at a time in publication order.
func (c *Client) SubscribeUpdates(subject string, fn func(*telemetry.Snapshot)) (Unsubscriber, error) {
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		snap, err := telemetry.DecodeSnapshot(msg.Data)
		if err != nil {
			return
		}
		fn(snap)
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "SubscribeUpdates", "subscribe")
	}
	return sub, nil
}

func (c *Client) request(ctx context.Context, subject string, payload []byte) (*nats.Msg, error) {
	timeout := requestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ctx.Err()
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	return c.nc.Request(subject, payload, timeout)
}

func (c *Client) statusRequest(ctx context.Context, subject string, payload []byte, op string) error {
	msg, err := c.request(ctx, subject, payload)
	if err != nil {
		return errors.WrapTransient(err, "Client", op, "filter request")
	}

	var reply statusReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return errors.WrapInvalid(err, "Client", op, "decode reply")
	}
	if !reply.OK {
		return errors.Wrap(
			fmt.Errorf("%w: %s", errors.ErrFilterRejected, reply.Error),
			"Client", op, "filter request")
	}
	return nil
}
